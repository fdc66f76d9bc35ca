package sched

// Statistics counts what the search did.
type Statistics struct {
	// Probes is the number of group probes attempted.
	Probes uint64 `json:"probes"`
	// Commits is the number of probes that succeeded.
	Commits uint64 `json:"commits"`
	// Rollbacks is the number of probes that failed and left no trace.
	Rollbacks uint64 `json:"rollbacks"`
	// MovesScheduled counts successful ScheduleMove attempts, including
	// ones later undone.
	MovesScheduled uint64 `json:"moves_scheduled"`
	// Reschedules counts successful RescheduleMove attempts.
	Reschedules uint64 `json:"reschedules"`
	// Pushes counts successful PushAntidepDown attempts.
	Pushes uint64 `json:"pushes"`
	// PushFailures counts PushAntidepDown and PushAntidepsDown attempts
	// that failed.
	PushFailures uint64 `json:"push_failures"`
	// EdgesConnected and EdgesRemoved count graph edits.
	EdgesConnected uint64 `json:"edges_connected"`
	EdgesRemoved   uint64 `json:"edges_removed"`
	// Undos counts ops reverted after they had succeeded.
	Undos uint64 `json:"undos"`
}

// RollbackRate returns the share of probes that rolled back.
func (s Statistics) RollbackRate() float64 {
	if s.Probes == 0 {
		return 0
	}
	return float64(s.Rollbacks) / float64(s.Probes)
}
