package storage

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by Open when the named blob does not exist.
	ErrNotFound = errors.New("object not found")

	ErrInvalidImage    = errors.New("invalid image")
	ErrPayloadTooLarge = errors.New("payload too large")
)

// Object describes one stored blob as reported by List.
type Object struct {
	Name       string
	Size       int64
	ModifiedAt time.Time
}
