package renderer

import "errors"

// Sentinel kinds for renderer errors.
var (
	ErrPoolClosed = errors.New("renderer pool closed")
)
