package problem

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedInput marks missing or invalid coordinates and capacities
	ErrMalformedInput = errors.New("malformed input")
	// ErrInfeasibleProblem marks an instance whose staff demand exceeds the fleet capacity
	ErrInfeasibleProblem = errors.New("infeasible problem")
)

// MalformedInputError is returned when the instance cannot be built from its input
type MalformedInputError struct {
	Field  string
	Reason string
	Err    error
}

func (e *MalformedInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed input: %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed input: %s: %s", e.Field, e.Reason)
}

func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// InfeasibleError is returned when not every staff member can be picked up
type InfeasibleError struct {
	Reason        string
	TotalDemand   int
	TotalCapacity int
	Unassigned    int
}

func (e *InfeasibleError) Error() string {
	if e.Unassigned > 0 {
		return fmt.Sprintf("infeasible problem: %s (demand=%d capacity=%d unassigned=%d)",
			e.Reason, e.TotalDemand, e.TotalCapacity, e.Unassigned)
	}
	return fmt.Sprintf("infeasible problem: %s (demand=%d capacity=%d)", e.Reason, e.TotalDemand, e.TotalCapacity)
}

func (e *InfeasibleError) Is(target error) bool {
	return target == ErrInfeasibleProblem
}
