package types

import (
	"time"
)

// ReadStrategy selects how a file's bytes are loaded.
type ReadStrategy int

const (
	// StrategyDirect reads the whole file with a single buffered read.
	StrategyDirect ReadStrategy = iota
	// StrategyMemoryMapped maps the file read-only and validates the mapping.
	StrategyMemoryMapped
)

func (s ReadStrategy) String() string {
	switch s {
	case StrategyDirect:
		return "direct"
	case StrategyMemoryMapped:
		return "mmap"
	default:
		return "unknown"
	}
}

// OutcomeKind classifies a FileReadOutcome.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeError
	OutcomeSecurityError
	OutcomeCancelled
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeError:
		return "error"
	case OutcomeSecurityError:
		return "security_error"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// FileReadOutcome is the result of reading one file. Content is set only for
// OutcomeSuccess; Err is set for every other kind.
type FileReadOutcome struct {
	Path     CanonicalPath `json:"path"`
	Content  string        `json:"content,omitempty"`
	Err      error         `json:"-"`
	Kind     OutcomeKind   `json:"kind"`
	Strategy ReadStrategy  `json:"strategy"`
	Size     int64         `json:"size"`
}

// OK reports whether the read succeeded.
func (o FileReadOutcome) OK() bool {
	return o.Kind == OutcomeSuccess
}

// ErrorMessage returns the human-readable failure, or "" on success.
func (o FileReadOutcome) ErrorMessage() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// Stage names a phase of a long-running operation.
type Stage string

const (
	StageScanning Stage = "scanning"
	StageReading  Stage = "reading"
)

// Progress contains progress information for long-running operations
type Progress struct {
	Stage   Stage         `json:"stage"`
	Done    int           `json:"done"`
	Total   int           `json:"total"`
	Elapsed time.Duration `json:"elapsed"`
}

// Percentage returns completion in the range [0, 100]. An empty batch is
// complete.
func (p Progress) Percentage() float64 {
	if p.Total <= 0 {
		return 100
	}
	pct := float64(p.Done) / float64(p.Total) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// EventType defines the types of watcher events
type EventType string

const (
	EventChanged EventType = "changed"
	EventError   EventType = "error"
)

// Event is a debounced batch of filesystem changes under a watched root.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Paths     []string  `json:"paths,omitempty"`
	Err       error     `json:"-"`
}
