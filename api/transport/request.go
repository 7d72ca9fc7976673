package transport

import (
	"strings"
	"time"

	"github.com/fastygo/datewheel/domain"
)

// ActivityRequest is the body of activity create and update calls. On
// update, omitted fields are left untouched and fields sent empty are cleared.
type ActivityRequest struct {
	Name        *string  `json:"name"`
	Emoji       *string  `json:"emoji"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Moods       []string `json:"moods"`
	Season      *string  `json:"season"`
}

// Fields returns the request as a new activity; omitted fields are empty.
func (r ActivityRequest) Fields() domain.ActivityFields {
	p := r.Patch()
	return domain.ActivityFields{
		Name:        deref(p.Name),
		Emoji:       deref(p.Emoji),
		Description: deref(p.Description),
		Category:    deref(p.Category),
		Moods:       p.Moods,
		Season:      deref(p.Season),
	}
}

// Patch returns the request as a partial update.
func (r ActivityRequest) Patch() domain.ActivityPatch {
	return domain.ActivityPatch{
		Name:        normalize(r.Name, false),
		Emoji:       normalize(r.Emoji, false),
		Description: normalize(r.Description, false),
		Category:    normalize(r.Category, true),
		Moods:       r.Moods,
		Season:      normalize(r.Season, true),
	}
}

func normalize(v *string, lower bool) *string {
	if v == nil {
		return nil
	}
	out := strings.TrimSpace(*v)
	if lower {
		out = strings.ToLower(out)
	}
	return &out
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

type PoolRequest struct {
	IDs []string `json:"ids"`
}

type ScheduleRequest struct {
	Date       time.Time `json:"date"`
	ActivityID string    `json:"activityId"`
}
