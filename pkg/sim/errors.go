package sim

import (
	"errors"
	"fmt"
)

// LogicError reports a failure raised by simulation logic during a step.
type LogicError struct {
	Frame  uint64
	Phase  string
	System int
	Err    error
}

func (e *LogicError) Error() string {
	return fmt.Sprintf("%s system %d failed on frame %d: %v", e.Phase, e.System, e.Frame, e.Err)
}

func (e *LogicError) Unwrap() error {
	return e.Err
}

func IsLogicError(err error) bool {
	var logicErr *LogicError
	return errors.As(err, &logicErr)
}
