package sched

import (
	"context"
	"log/slog"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/ttasched/ddg"
)

// Hook positions invoked by a Session.
var (
	// HookPosProbe fires before a group is probed. Item is the GroupID,
	// Detail the start cycle.
	HookPosProbe = &sim.HookPos{Name: "Probe"}
	// HookPosCommit fires when a probe succeeds. Item is the GroupID,
	// Detail the start cycle.
	HookPosCommit = &sim.HookPos{Name: "Commit"}
	// HookPosRollback fires when a probe fails. Item is the GroupID,
	// Detail the start cycle.
	HookPosRollback = &sim.HookPos{Name: "Rollback"}
	// HookPosReschedule fires when a placed move is moved later. Item is
	// the MoveID, Detail a Relocation.
	HookPosReschedule = &sim.HookPos{Name: "Reschedule"}
	// HookPosUnschedulable fires when a group runs out of candidates.
	// Item is the GroupID, Detail the *UnschedulableError.
	HookPosUnschedulable = &sim.HookPos{Name: "Unschedulable"}
)

// Relocation describes a move changing place.
type Relocation struct {
	FromBus, FromCycle int
	ToBus, ToCycle     int
}

// LogTracer is a hook that writes every event it sees to a logger at
// debug level.
type LogTracer struct {
	logger *slog.Logger
}

// NewLogTracer creates a tracer logging to logger.
func NewLogTracer(logger *slog.Logger) *LogTracer {
	return &LogTracer{logger: logger.With("component", "trace")}
}

// Func implements sim.Hook.
func (t *LogTracer) Func(ctx sim.HookCtx) {
	attrs := []slog.Attr{slog.String("event", ctx.Pos.Name)}

	switch item := ctx.Item.(type) {
	case ddg.GroupID:
		attrs = append(attrs, slog.Int("group", int(item)))
	case ddg.MoveID:
		attrs = append(attrs, slog.Int("move", int(item)))
	}

	switch d := ctx.Detail.(type) {
	case int:
		attrs = append(attrs, slog.Int("start", d))
	case Relocation:
		attrs = append(attrs,
			slog.Int("from_cycle", d.FromCycle),
			slog.Int("to_cycle", d.ToCycle),
			slog.Int("to_bus", d.ToBus))
	case error:
		attrs = append(attrs, slog.String("error", d.Error()))
	}

	t.logger.LogAttrs(context.Background(), slog.LevelDebug, "schedule event", attrs...)
}

// EventCounter is a hook that counts events by position name.
type EventCounter struct {
	Counts map[string]int
}

// NewEventCounter creates an empty counter.
func NewEventCounter() *EventCounter {
	return &EventCounter{Counts: make(map[string]int)}
}

// Func implements sim.Hook.
func (c *EventCounter) Func(ctx sim.HookCtx) {
	c.Counts[ctx.Pos.Name]++
}
