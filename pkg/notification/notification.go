package notification

import (
	"context"
	"time"
)

type Sender interface {
	CanSend() bool
	Send(ctx context.Context, summary Summary) error
	Name() string
}

// Summary describes a finished import run.
type Summary struct {
	Title     string
	Processed int
	Attempted int
	Added     int
	Filtered  int
	DryRun    bool
	RunTime   time.Duration
}

func (s Summary) Skipped() int {
	return s.Processed - s.Attempted
}

func (s Summary) Failed() int {
	return s.Attempted - s.Added
}
