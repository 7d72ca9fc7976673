package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedDocument marks a stored document that could not be decoded.
// Callers treat it as absent.
var ErrMalformedDocument = errors.New("malformed document")

// LoadJSON reads key into dst and reports whether a document was found.
func LoadJSON(ctx context.Context, store KVStore, key string, dst any) (bool, error) {
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if !ok || len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w: %v", key, ErrMalformedDocument, err)
	}
	return true, nil
}

// SaveJSON encodes value and writes it under key.
func SaveJSON(ctx context.Context, store KVStore, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := store.Set(ctx, key, payload); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
