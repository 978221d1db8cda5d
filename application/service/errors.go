package service

import "errors"

// ErrClientClosed indicates the client has been closed.
var ErrClientClosed = errors.New("stylo: client is closed")

// ErrInvalidInput marks validation failures on user-supplied data.
// Services wrap it with a specific message; the API layer maps it to 400.
var ErrInvalidInput = errors.New("invalid input")
