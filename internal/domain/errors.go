package domain

import "errors"

var (
	// ErrConfiguration marks a missing or invalid credential/setting. Fatal at startup.
	ErrConfiguration = errors.New("configuration error")
	// ErrTransport marks a failed remote call (network or service-side fault).
	ErrTransport = errors.New("transport error")
	// ErrValidation marks missing or unacceptable user input.
	ErrValidation = errors.New("validation error")
	// ErrNoResponse marks a remote response without a textual payload.
	ErrNoResponse = errors.New("no response received")

	ErrInvalidRole      = errors.New("invalid role")
	ErrInvalidSessionID = errors.New("invalid session id")
	ErrSessionNotFound  = errors.New("session not found")
)
