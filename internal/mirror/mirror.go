// Package mirror persists small JSON snapshots (the cart, the wishlist and
// the session) in named slots so they survive a restart.
package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Slot names.
const (
	SlotCart      = "cart"
	SlotWishlist  = "wishlist"
	SlotAuthToken = "authToken"
	SlotAuthUser  = "authUser"
)

// ErrNotFound is returned by Get when a slot is empty.
var ErrNotFound = errors.New("mirror: slot not found")

// Store is a durable key-value store with one value per slot.
type Store interface {
	// Get returns the bytes stored in key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set overwrites key with value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete empties key. Deleting an empty slot is not an error.
	Delete(ctx context.Context, key string) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// DecodeError reports a slot whose content could not be decoded.
type DecodeError struct {
	Key string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("mirror: decode slot %q: %v", e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// LoadJSON decodes the slot into dst. found is false for an empty slot.
// Undecodable content returns a *DecodeError.
func LoadJSON(ctx context.Context, s Store, key string, dst any) (found bool, err error) {
	data, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("mirror get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return true, &DecodeError{Key: key, Err: err}
	}
	return true, nil
}

// SaveJSON encodes v and writes it to the slot.
func SaveJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("mirror encode %s: %w", key, err)
	}
	if err := s.Set(ctx, key, data); err != nil {
		return fmt.Errorf("mirror set %s: %w", key, err)
	}
	return nil
}
