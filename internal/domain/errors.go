// Package domain
package domain

import "errors"

var (
	ErrSourceUnavailable = errors.New("counter source unavailable")
	ErrMalformedRow      = errors.New("malformed counter row")
	ErrInvalidRequest    = errors.New("invalid request")
)
