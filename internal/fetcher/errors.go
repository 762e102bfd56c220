package fetcher

import "errors"

// Sentinel errors for the collector.
var (
	ErrNotLoggedIn = errors.New("session is not logged in")
	ErrSession     = errors.New("invalid session file")
	ErrStatus      = errors.New("unexpected upstream status")
	ErrDecode      = errors.New("undecodable upstream payload")
)
