package env

import (
	"errors"
	"fmt"
)

// ErrNotImplemented marks an extension point the concrete task did not
// override. It surfaces on the first call of that point, never as a silent
// default.
var ErrNotImplemented = errors.New("extension point not implemented")

// ErrEpisodeOver is returned by Step after the episode has terminated or
// been truncated; the caller must Reset first.
var ErrEpisodeOver = errors.New("episode is over, call Reset")

// ErrNotReset is returned by Step before the first Reset.
var ErrNotReset = errors.New("environment not reset, call Reset before Step")

func notImplemented(method string) error {
	return fmt.Errorf("%s: %w", method, ErrNotImplemented)
}

// ContractError reports a violation of the task contract, such as an
// observation whose shape does not match the declared space. Shapes are
// never silently coerced.
type ContractError struct {
	What string
	Got  int
	Want int
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("contract violation: %s has shape %d, declared space wants %d", e.What, e.Got, e.Want)
}
