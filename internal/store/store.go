// Package store persists player documents whole. Save is a full-document
// overwrite with last-writer-wins semantics at document granularity; callers
// load immediately before mutating to keep the lost-update window short, and
// a concurrent session's save can still silently win in full. That window is
// accepted, not detected.
package store

import (
	"context"
	"errors"

	"hearth/internal/player"
)

// ErrNotFound means no document exists for the player yet. It is an expected
// condition on first sign-in, not a transport failure.
var ErrNotFound = errors.New("player document not found")

// ErrUnavailable wraps transport/infrastructure failures. The caller's
// in-memory mutation must be discarded; the remote document is unchanged.
var ErrUnavailable = errors.New("store unavailable")

// ErrInsufficientFunds is returned by SpendBalance when the stored balance
// cannot cover the amount.
var ErrInsufficientFunds = errors.New("insufficient funds")

type Store interface {
	// Load returns the player's document, or ErrNotFound if none exists.
	Load(ctx context.Context, playerID string) (*player.Record, error)

	// Save replaces the player's document whole.
	Save(ctx context.Context, playerID string, rec *player.Record) error

	// EarnBalance adds amount to the stored balance and returns the updated
	// record. The read-modify-write happens inside the store, so concurrent
	// earns against the same store do not trample each other.
	EarnBalance(ctx context.Context, playerID string, amount int) (*player.Record, error)

	// SpendBalance subtracts amount if the stored balance covers it, else
	// ErrInsufficientFunds. Updated record on success.
	SpendBalance(ctx context.Context, playerID string, amount int) (*player.Record, error)

	Close() error
}
