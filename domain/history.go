package domain

import "time"

// SpinHistoryEntry records one revealed draw. Timestamp is in Unix milliseconds.
type SpinHistoryEntry struct {
	Timestamp  int64  `json:"timestamp"`
	ActivityID string `json:"activityId"`
}

func NewSpinHistoryEntry(activityID string, at time.Time) SpinHistoryEntry {
	if at.IsZero() {
		at = time.Now()
	}
	return SpinHistoryEntry{Timestamp: at.UnixMilli(), ActivityID: activityID}
}

// Time converts the stored timestamp back to a time.Time.
func (e SpinHistoryEntry) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}
