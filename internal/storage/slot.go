// Package storage provides the key-value slots that hold serialized snapshots.
package storage

import (
	"context"
	"errors"
	"strings"
)

// ErrInvalidKey is returned for empty keys or keys that are not plain names.
var ErrInvalidKey = errors.New("invalid slot key")

// Slot is a synchronous key-value store. Values are opaque snapshots that
// are always read and written whole.
type Slot interface {
	// Get returns the stored value and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Put replaces the value stored under key.
	Put(ctx context.Context, key string, value []byte) error
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return ErrInvalidKey
	}
	return nil
}
