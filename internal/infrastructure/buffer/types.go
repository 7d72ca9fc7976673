package buffer

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EntityActivity = "activity"
	EntityUsage    = "usage"
)

// Item is one mirror operation waiting to reach the remote store.
type Item struct {
	ID         string          `json:"id"`
	Entity     string          `json:"entity"`
	Operation  string          `json:"operation"`
	ActivityID string          `json:"activity_id"`
	Data       json.RawMessage `json:"data,omitempty"`
	Retries    int             `json:"retries"`
	Timestamp  time.Time       `json:"timestamp"`
	LastError  string          `json:"last_error,omitempty"`

	bucketKey []byte
}

// UsagePayload is the Data of an EntityUsage item.
type UsagePayload struct {
	At time.Time `json:"at"`
}

func (i *Item) normalize(now time.Time) {
	if i.ID == "" {
		if id, err := uuid.NewV7(); err == nil {
			i.ID = id.String()
		} else {
			i.ID = uuid.NewString()
		}
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = now
	}
}
