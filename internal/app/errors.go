package service

import "errors"

// ErrEmptyUser is returned when a lookup is requested without a participant handle.
var ErrEmptyUser = errors.New("user is required")
