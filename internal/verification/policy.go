package verification

import (
	"errors"
	"time"
)

// Policy holds the timing and failure bounds of a verification session.
type Policy struct {
	// PollInterval is the cadence of status queries.
	PollInterval time.Duration
	// ProgressInterval is the cadence of simulated progress ticks.
	ProgressInterval time.Duration
	// Deadline is the wall-clock wait budget measured from session start.
	// Reaching it is advisory: polling carries on.
	Deadline time.Duration
	// MaxConsecutiveFailures is how many transport failures in a row are tolerated.
	// One more halts the session.
	MaxConsecutiveFailures int

	ProgressStep int
	ProgressCap  int
}

// DefaultPolicy returns the production policy.
func DefaultPolicy() Policy {
	return Policy{
		PollInterval:           5 * time.Second,
		ProgressInterval:       700 * time.Millisecond,
		Deadline:               120 * time.Second,
		MaxConsecutiveFailures: 5,
		ProgressStep:           5,
		ProgressCap:            95,
	}
}

// Validate rejects policies the session cannot run with.
func (p Policy) Validate() error {
	switch {
	case p.PollInterval <= 0:
		return errors.New("poll interval must be positive")
	case p.ProgressInterval <= 0:
		return errors.New("progress interval must be positive")
	case p.Deadline <= 0:
		return errors.New("deadline must be positive")
	case p.MaxConsecutiveFailures < 0:
		return errors.New("max consecutive failures must not be negative")
	case p.ProgressStep <= 0:
		return errors.New("progress step must be positive")
	case p.ProgressCap < 0 || p.ProgressCap >= 100:
		return errors.New("progress cap must be in [0, 100)")
	}
	return nil
}

func (p Policy) simulator() ProgressSimulator {
	return ProgressSimulator{Step: p.ProgressStep, Cap: p.ProgressCap}
}

// failuresExceeded reports whether n consecutive failures should halt the session.
func (p Policy) failuresExceeded(n int) bool {
	return n > p.MaxConsecutiveFailures
}
