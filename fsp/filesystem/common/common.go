package common

// This package contains shared errors and counters used across filesystem packages.
// It provides the error taxonomy for scans and reads and the atomic statistics
// recorded by the traverser and the batch reader.
