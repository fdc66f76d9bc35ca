package sched

import (
	"errors"
	"log/slog"

	"github.com/sarchlab/akita/v4/sim"
)

// Config holds the knobs of the scheduling search.
type Config struct {
	// MaxCandidates is the number of start cycles tried for a group before
	// it is declared unschedulable.
	MaxCandidates int `json:"max_candidates" yaml:"max_candidates"`

	// MaxPushDepth bounds how far a push may recurse into the false
	// successors of the move it pushes.
	MaxPushDepth int `json:"max_push_depth" yaml:"max_push_depth"`

	// EnableAntidepPush lets a move that is blocked by scheduled false
	// successors push them later instead of failing.
	EnableAntidepPush bool `json:"enable_antidep_push" yaml:"enable_antidep_push"`

	// Verify re-checks the finished schedule before it is committed.
	Verify bool `json:"verify" yaml:"verify"`

	// RetainLog keeps the transaction log after a successful run so that
	// Unschedule can revert it. When false the log is committed.
	RetainLog bool `json:"retain_log" yaml:"retain_log"`
}

// DefaultConfig returns the configuration the CLI uses.
func DefaultConfig() Config {
	return Config{
		MaxCandidates:     16,
		MaxPushDepth:      4,
		EnableAntidepPush: true,
		Verify:            true,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.MaxCandidates <= 0 {
		return errors.New("max_candidates must be > 0")
	}
	if c.MaxPushDepth < 0 {
		return errors.New("max_push_depth must be >= 0")
	}
	return nil
}

// Option is a functional option for configuring a Session.
type Option func(*Session)

// WithLogger sets the logger. The session logs through a child logger
// tagged component=sched.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger.With("component", "sched")
	}
}

// WithConfig replaces the whole configuration.
func WithConfig(config Config) Option {
	return func(s *Session) {
		s.config = config
	}
}

// WithMaxCandidates sets Config.MaxCandidates.
func WithMaxCandidates(n int) Option {
	return func(s *Session) {
		s.config.MaxCandidates = n
	}
}

// WithoutAntidepPush disables pushing false successors.
func WithoutAntidepPush() Option {
	return func(s *Session) {
		s.config.EnableAntidepPush = false
	}
}

// WithRetainedLog keeps the transaction log after Schedule succeeds.
func WithRetainedLog() Option {
	return func(s *Session) {
		s.config.RetainLog = true
	}
}

// WithHook registers a hook that observes probes, commits, rollbacks and
// pushes.
func WithHook(hook sim.Hook) Option {
	return func(s *Session) {
		s.AcceptHook(hook)
	}
}
