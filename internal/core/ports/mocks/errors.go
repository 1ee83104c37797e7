package mocks

import "errors"

var (
	// ErrURLNotFound is returned by TextSource for an unregistered URL.
	ErrURLNotFound = errors.New("url not registered")

	// ErrNoResponse is returned by JSONCompleter when no response is queued.
	ErrNoResponse = errors.New("no queued response")
)
