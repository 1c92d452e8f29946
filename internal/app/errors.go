package service

import "errors"

// Sentinel kinds for match service errors.
var (
	ErrQueueEmpty = errors.New("queue is empty")
)
