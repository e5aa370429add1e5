package types

import "errors"

// Transport-related errors
var (
	ErrAuthenticationFailed = errors.New("authentication rejected: log in again")
	ErrReconnectExhausted   = errors.New("reconnect attempts exhausted")
	ErrServerDisconnect     = errors.New("server closed the connection")
	ErrNotConnected         = errors.New("not connected")
	ErrAlreadyConnected     = errors.New("connection already established")
)

// Session- and cache-related errors
var (
	ErrNoActiveRoom   = errors.New("no active room")
	ErrMalformedEvent = errors.New("malformed server event")
	ErrUnknownSender  = errors.New("message sender not resolved")
	ErrInvalidRoomID  = errors.New("room ID must be 1-64 characters, alphanumeric + underscore/hyphen")
	ErrInvalidStatus  = errors.New("status must be one of online, offline, away, busy")
	ErrEmptyBody      = errors.New("message body cannot be empty")
	ErrBodyTooLarge   = errors.New("message body exceeds 64KB limit")
	ErrInvalidKind    = errors.New("invalid message kind")
)
