// Package kvstore provides the key-value slots the cart persists into.
package kvstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when the key holds nothing.
var ErrNotFound = errors.New("kvstore: key not found")

// Storage is a durable key-value slot store.
//
// Load returns ErrNotFound for absent keys. Save overwrites. Clear removes the
// key and is not an error when the key is already absent.
type Storage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Clear(ctx context.Context, key string) error
}

// Pinger is implemented by stores backed by a remote dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}
