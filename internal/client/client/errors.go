package client

import "errors"

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidInput = errors.New("invalid input")
	ErrThrottled    = errors.New("too many attempts, try again later")
	ErrNoSession    = errors.New("not logged in")
)
