package sched

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sarchlab/ttasched/ddg"
)

// ErrUnschedulable is wrapped by every UnschedulableError.
var ErrUnschedulable = errors.New("unschedulable")

// ErrNoLog is returned by Unschedule when there is nothing to revert.
var ErrNoLog = errors.New("no retained transaction log")

// UnschedulableError reports a group for which every candidate start cycle
// failed.
type UnschedulableError struct {
	Group ddg.GroupID
	Name  string

	// Tried lists the start cycles that were probed, in order.
	Tried []int
}

func (e *UnschedulableError) Error() string {
	cycles := make([]string, len(e.Tried))
	for i, c := range e.Tried {
		cycles[i] = strconv.Itoa(c)
	}
	return fmt.Sprintf("group %d (%s) is unschedulable: tried start cycles [%s]",
		e.Group, e.Name, strings.Join(cycles, " "))
}

// Unwrap lets errors.Is match ErrUnschedulable.
func (e *UnschedulableError) Unwrap() error {
	return ErrUnschedulable
}
