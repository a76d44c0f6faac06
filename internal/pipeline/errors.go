package pipeline

import (
	"errors"
	"fmt"
)

// ErrSkipped marks a submission that was rejected before any external call.
var ErrSkipped = errors.New("submission skipped")

// StageError is a failure in the fatal chain (render through field placement).
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
