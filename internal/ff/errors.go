package ff

import (
	"errors"
	"fmt"
)

// ErrPrecondition is wrapped by every PreconditionError.
var ErrPrecondition = errors.New("simulation precondition failed")

// ErrTooLarge is returned when exact enumeration would visit too many opponent orderings.
var ErrTooLarge = errors.New("too many opponent orderings to enumerate")

// PreconditionError reports a team whose opponent pool cannot fill its schedule without repeating an opponent.
type PreconditionError struct {
	Team      string
	Weeks     int
	Opponents int
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("team %q: %d weeks played but only %d distinct opponents available", e.Team, e.Weeks, e.Opponents)
}

// Unwrap lets errors.Is match ErrPrecondition.
func (e *PreconditionError) Unwrap() error {
	return ErrPrecondition
}
