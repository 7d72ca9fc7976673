package repository

import (
	"context"
	"encoding/json"
)

// Namespaced document keys. Each key holds one independent JSON document.
const (
	KeyActivities         = "activities"
	KeySettings           = "settings"
	KeySelectedActivities = "selected-activities"
	KeySpinHistory        = "spin-history"
	KeyScheduled          = "scheduled-activities"
)

// Keys lists every document key the application writes.
var Keys = []string{KeyActivities, KeySettings, KeySelectedActivities, KeySpinHistory, KeyScheduled}

// KVStore is the local persistence port. Get reports ok=false when the key is absent.
type KVStore interface {
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)
	Set(ctx context.Context, key string, value json.RawMessage) error
	Delete(ctx context.Context, key string) error
}
