package domain

import "time"

// ScheduledActivity pins one activity to a weekly slot date.
type ScheduledActivity struct {
	Date       time.Time `json:"date"`
	ActivityID string    `json:"activityId"`
}

// Slot is one resolved weekly date together with the activity assigned to it.
// Pinned is true when the assignment came from a saved ScheduledActivity.
type Slot struct {
	Date     time.Time `json:"date"`
	Activity *Activity `json:"activity,omitempty"`
	Pinned   bool      `json:"pinned"`
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
