package transport

import "errors"

// Connection-related errors
var (
	ErrWriteTimeout   = errors.New("write timeout")
	ErrInvalidPayload = errors.New("event payload cannot be encoded")
	ErrClosed         = errors.New("transport closed")
)
