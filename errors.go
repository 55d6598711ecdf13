package poolcache

import (
	"errors"
	"fmt"
)

// ErrNoBounds is returned by New when Options.Bounds is nil.
var ErrNoBounds = errors.New("poolcache: bounds provider is required")

// BoundError reports a failed or invalid capacity bound read.
type BoundError struct {
	Name  string
	Value int
	Err   error
}

func (e *BoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("poolcache: read bound %q: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("poolcache: invalid bound %q: %d", e.Name, e.Value)
}

func (e *BoundError) Unwrap() error { return e.Err }
