// Package store keeps a history of scheduling runs in SQLite.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/sarchlab/ttasched/sched"
)

// Run outcomes.
const (
	StatusCommitted     = "committed"
	StatusUnschedulable = "unschedulable"
	StatusFailed        = "failed"
)

// Run is one invocation of the scheduler on a program.
type Run struct {
	ID      string `json:"id"`
	Program string `json:"program"`
	Machine string `json:"machine"`
	Status  string `json:"status"`

	// Moves and Length summarize Schedule; Length is 0 unless the run
	// committed.
	Moves  int `json:"moves"`
	Length int `json:"length"`

	Schedule *sched.Schedule  `json:"schedule,omitempty"`
	Stats    sched.Statistics `json:"stats"`
	Error    string           `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NewRunID returns a fresh run ID.
func NewRunID() string {
	return "run_" + uuid.New().String()
}

// NewRun records the outcome of scheduling a program of the given number of
// moves. A nil err means result is the committed schedule.
func NewRun(program, machine string, moves int, result *sched.Schedule, stats sched.Statistics, err error) *Run {
	run := &Run{
		ID:      NewRunID(),
		Program: program,
		Machine: machine,
		Moves:   moves,
		Stats:   stats,
	}

	switch {
	case err == nil:
		run.Status = StatusCommitted
		run.Schedule = result
		run.Length = result.Length
	case errors.Is(err, sched.ErrUnschedulable):
		run.Status = StatusUnschedulable
		run.Error = err.Error()
	default:
		run.Status = StatusFailed
		run.Error = err.Error()
	}

	return run
}

// ListOptions pages through runs, newest first.
type ListOptions struct {
	Limit  int
	Offset int
}

// Clamp keeps the page size within [1, 500], defaulting to 20.
func (o *ListOptions) Clamp() {
	if o.Limit <= 0 {
		o.Limit = 20
	}
	if o.Limit > 500 {
		o.Limit = 500
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
}

// Store defines the persistence layer for runs.
type Store interface {
	SaveRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, opts ListOptions) ([]*Run, int, error)
	DeleteRun(ctx context.Context, id string) error

	Close() error
	Migrate(ctx context.Context) error
}
