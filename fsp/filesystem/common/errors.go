package common

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
)

// Common error types used across filesystem packages
var (
	ErrPathEmpty = errors.New("path cannot be empty")

	// ErrPathTraversal marks a resolved path that lies outside its root. It wraps
	// fs.ErrPermission so it reads as an access denial, not a missing file.
	ErrPathTraversal = fmt.Errorf("security error: path traversal detected: %w", fs.ErrPermission)

	// ErrCancelled marks work skipped because the caller cancelled the batch.
	ErrCancelled = fmt.Errorf("cancelled: %w", context.Canceled)

	ErrInvalidUTF8   = errors.New("file is not valid UTF-8 text")
	ErrFileTooLarge  = errors.New("file exceeds maximum size")
	ErrNotDirectory  = errors.New("path is not a directory")
	ErrNotRegular    = errors.New("path is not a regular file")
	ErrMappingFailed = errors.New("memory mapping failed")
)

// TraversalError describes a path that resolved outside of root.
type TraversalError struct {
	Path string
	Root string
}

func (e *TraversalError) Error() string {
	return fmt.Sprintf("%s: %s is outside %s", ErrPathTraversal.Error(), e.Path, e.Root)
}

func (e *TraversalError) Unwrap() error {
	return ErrPathTraversal
}

// IsTraversal reports whether err denotes a containment violation.
func IsTraversal(err error) bool {
	return errors.Is(err, ErrPathTraversal)
}

// IsCancelled reports whether err stems from cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Describe turns an I/O error into a message for end users. OS error codes are
// folded into plain wording; the wrapped chain stays intact for errors.Is.
func Describe(op, path string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case IsTraversal(err), IsCancelled(err):
		return err
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("failed to %s %s: file may not exist or be inaccessible: %w", op, path, fs.ErrNotExist)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("failed to %s %s: permission denied: %w", op, path, fs.ErrPermission)
	default:
		return fmt.Errorf("failed to %s %s: %w", op, path, err)
	}
}
