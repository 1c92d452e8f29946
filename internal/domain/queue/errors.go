package queue

import "errors"

// Sentinel kinds for roster errors.
var (
	ErrAlreadyQueued = errors.New("already in queue")
	ErrNotQueued     = errors.New("not in queue")
	ErrQueueFull     = errors.New("queue is full")
)
