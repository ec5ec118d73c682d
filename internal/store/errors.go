package store

import "errors"

var (
	// ErrClosed is returned by every command after Close.
	ErrClosed = errors.New("store: closed")
	// ErrWrongType is returned when a list command hits a string key.
	ErrWrongType = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")
	// ErrUnknownBackend is returned by Open for an unsupported backend name.
	ErrUnknownBackend = errors.New("store: unknown backend")
)
