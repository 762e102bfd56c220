package repository

import "errors"

// Sentinel kinds for dataset errors.
var (
	ErrNotFound  = errors.New("dataset not found")
	ErrMalformed = errors.New("dataset malformed")
	ErrInvalidID = errors.New("invalid contest id")
)
