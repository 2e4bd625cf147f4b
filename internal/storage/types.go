package storage

import (
	"context"
	"errors"
)

// Common errors for storage operations
var (
	// ErrNotFound is returned by Get when the key holds no value.
	ErrNotFound = errors.New("storage: key not found")

	// ErrCorrupted is returned by Get when a stored value cannot be decoded.
	// The entry is removed before the error is returned.
	ErrCorrupted = errors.New("storage: data corrupted")

	// ErrClosed is returned by operations on a closed backend.
	ErrClosed = errors.New("storage: backend closed")
)

// Backend names accepted by Open.
const (
	BackendDisk   = "disk"
	BackendMemory = "memory"
	BackendNATS   = "nats"
	BackendNone   = "none"
)

// Backend is a string-valued key/value store.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}
