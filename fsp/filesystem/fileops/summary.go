package fileops

import (
	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem/types"

	"go.uber.org/multierr"
)

// Summary aggregates a batch of read outcomes.
type Summary struct {
	Total          int
	Succeeded      int
	Failed         int
	SecurityErrors int
	Cancelled      int
	Direct         int
	MemoryMapped   int
	Bytes          int64

	err error
}

// Summarize counts outcomes by kind and collects every failure.
func Summarize(outcomes []types.FileReadOutcome) Summary {
	s := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		switch o.Kind {
		case types.OutcomeSuccess:
			s.Succeeded++
			s.Bytes += int64(len(o.Content))
			if o.Strategy == types.StrategyMemoryMapped {
				s.MemoryMapped++
			} else {
				s.Direct++
			}
			continue
		case types.OutcomeSecurityError:
			s.SecurityErrors++
		case types.OutcomeCancelled:
			s.Cancelled++
		default:
			s.Failed++
		}
		s.err = multierr.Append(s.err, o.Err)
	}
	return s
}

// OK reports whether every file was read.
func (s Summary) OK() bool {
	return s.Succeeded == s.Total
}

// Err returns the combined failures, or nil.
func (s Summary) Err() error {
	return s.err
}

// Errors returns the individual failures.
func (s Summary) Errors() []error {
	return multierr.Errors(s.err)
}
