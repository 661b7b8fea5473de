package datacron

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotConnected = errors.New("datacron: not connected")
	ErrDisconnected = errors.New("datacron: disconnected while waiting for a value")
	ErrClosed       = errors.New("datacron: closed")
)

// FetchError is the terminal failure of a connection: the fetch started by
// Tick returned Err. Once recorded, no further ticks fire on that connection.
type FetchError struct {
	Tick Tick
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("datacron: fetch for tick %d failed: %v", e.Tick, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// InvalidateError is returned by a mirror whose disconnect cleanup failed.
// Both steps are always attempted; either error may be nil.
type InvalidateError struct {
	Key     string
	BumpErr error // generation bump
	DelErr  error // entry delete
}

func (e *InvalidateError) Error() string {
	msg := fmt.Sprintf("datacron: invalidate mirror %q:", e.Key)
	if e.BumpErr != nil {
		msg += fmt.Sprintf(" bump generation: %v;", e.BumpErr)
	}
	if e.DelErr != nil {
		msg += fmt.Sprintf(" delete entry: %v;", e.DelErr)
	}
	return strings.TrimSuffix(msg, ";")
}

func (e *InvalidateError) Unwrap() []error {
	var errs []error
	for _, err := range []error{e.BumpErr, e.DelErr} {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
