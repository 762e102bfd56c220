package api

import (
	"errors"
	"strings"
)

// Sentinel kinds for API errors. Their text is what clients see.
var (
	ErrMissingUser  = errors.New("user query parameter is required")
	ErrFetchResults = errors.New("failed to fetch results")
)

// Error tags an underlying error with the operation that failed and a
// client-facing kind.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	parts := make([]string, 0, 3)
	if e.Op != "" {
		parts = append(parts, e.Op)
	}
	if e.Kind != nil {
		parts = append(parts, e.Kind.Error())
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind reports a failure of kind with no underlying cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// WrapKind tags err with op and kind.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// publicMessage returns the text safe to show a client: the kind when there
// is one, otherwise the fallback.
func publicMessage(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Kind != nil {
		return apiErr.Kind.Error()
	}
	return fallback
}
