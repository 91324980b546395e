package domain

import "errors"

// ErrInvalidID and related errors describe validation failures.
var (
	ErrInvalidID      = errors.New("invalid id")
	ErrInvalidName    = errors.New("invalid name")
	ErrInvalidTitle   = errors.New("invalid title")
	ErrInvalidOrder   = errors.New("invalid order")
	ErrInvalidGroupID = errors.New("invalid group id")
)
