package dispatch

import (
	"errors"
	"fmt"
)

// ErrQueueFull is reported when a lane cannot accept more work within
// the enqueue timeout.
var ErrQueueFull = errors.New("dispatch queue full")

// ErrClosed is returned by Submit after Stop.
var ErrClosed = errors.New("dispatch queue closed")

// QueueFullError carries the lane diagnostics behind ErrQueueFull.
type QueueFullError struct {
	Lane     int
	Length   int
	Capacity int
}

func (e *QueueFullError) Error() string {
	return fmt.Sprintf("dispatch: lane %d full (%d/%d)", e.Lane, e.Length, e.Capacity)
}

// Is lets errors.Is(err, ErrQueueFull) match a *QueueFullError.
func (e *QueueFullError) Is(target error) bool { return target == ErrQueueFull }
