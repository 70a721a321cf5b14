package storage

import (
	"context"
	"errors"
)

// DefaultKey is the key the token is persisted under.
const DefaultKey = "auth_token"

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("storage: store closed")

// TokenStore is a durable single-slot token holder.
//
// Get reports ok=false when no token is held. Set and Clear return only
// after the change is durable.
type TokenStore interface {
	Get(ctx context.Context) (token string, ok bool, err error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// BadgerConfig configures a BadgerStore.
type BadgerConfig struct {
	// Dir is the database directory. Required unless InMemory is set.
	Dir string

	// Key is the slot key. Default: DefaultKey.
	Key string

	// SealKey enables at-rest sealing when non-empty. Must be 32 bytes.
	SealKey []byte

	// InMemory runs Badger without touching disk (tests only).
	InMemory bool

	// SyncWrites fsyncs every write. Default: true.
	SyncWrites bool
}

// DefaultBadgerConfig returns the default configuration rooted at dir.
func DefaultBadgerConfig(dir string) BadgerConfig {
	return BadgerConfig{
		Dir:        dir,
		Key:        DefaultKey,
		SyncWrites: true,
	}
}
