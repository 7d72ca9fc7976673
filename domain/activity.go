package domain

import (
	"strings"
	"time"
)

// Known activity categories. The set is open: custom categories are stored as-is.
const (
	CategoryMovie    = "movie"
	CategoryGame     = "game"
	CategoryCooking  = "cooking"
	CategoryOutdoor  = "outdoor"
	CategoryMusic    = "music"
	CategoryReading  = "reading"
	CategoryCreative = "creative"
	CategoryRelaxing = "relaxing"
	CategoryActive   = "active"
	CategorySeasonal = "seasonal"
	CategoryBudget   = "budget"
	CategoryPlanning = "planning"
	CategoryFood     = "food"
	CategoryOther    = "other"
)

// Seasons an activity can be tied to.
const (
	SeasonSpring = "spring"
	SeasonSummer = "summer"
	SeasonAutumn = "autumn"
	SeasonWinter = "winter"
)

// Activity is a named, categorized suggestion for a shared activity.
type Activity struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Emoji       string     `json:"emoji" yaml:"emoji"`
	Description string     `json:"description" yaml:"description"`
	Category    string     `json:"category" yaml:"category"`
	Moods       []string   `json:"moods" yaml:"moods"`
	IsCustom    bool       `json:"isCustom" yaml:"isCustom"`
	Season      string     `json:"season,omitempty" yaml:"season,omitempty"`
	LastUsedAt  *time.Time `json:"lastUsedAt,omitempty" yaml:"-"`
	UsageCount  int        `json:"usageCount,omitempty" yaml:"-"`
}

// ActivityFields carries every editable field of an Activity; the ID is never part of it.
type ActivityFields struct {
	Name        string   `json:"name"`
	Emoji       string   `json:"emoji"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Moods       []string `json:"moods"`
	Season      string   `json:"season,omitempty"`
}

// ActivityPatch is a partial update. A nil field is left untouched; a non-nil
// field replaces the stored value, so an empty string clears it. A nil Moods
// slice is absent, an empty one clears the moods.
type ActivityPatch struct {
	Name        *string  `json:"name,omitempty"`
	Emoji       *string  `json:"emoji,omitempty"`
	Description *string  `json:"description,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Moods       []string `json:"moods,omitempty"`
	Season      *string  `json:"season,omitempty"`
}

// Validate rejects a patch that would blank a required field.
func (p ActivityPatch) Validate() error {
	if p.Name != nil && *p.Name == "" {
		return WrapError(ErrCodeInvalid, "activity name is required", ErrInvalidPayload)
	}
	if p.Emoji != nil && *p.Emoji == "" {
		return WrapError(ErrCodeInvalid, "activity emoji is required", ErrInvalidPayload)
	}
	return nil
}

// Validate checks the fields of a new activity.
func (f ActivityFields) Validate() error {
	return f.Patch().Validate()
}

// Patch sets every field of f, empty ones included.
func (f ActivityFields) Patch() ActivityPatch {
	moods := copyStrings(f.Moods)
	if moods == nil {
		moods = []string{}
	}
	return ActivityPatch{
		Name:        &f.Name,
		Emoji:       &f.Emoji,
		Description: &f.Description,
		Category:    &f.Category,
		Moods:       moods,
		Season:      &f.Season,
	}
}

// Fields returns the editable part of the activity.
func (a Activity) Fields() ActivityFields {
	return ActivityFields{
		Name:        a.Name,
		Emoji:       a.Emoji,
		Description: a.Description,
		Category:    a.Category,
		Moods:       copyStrings(a.Moods),
		Season:      a.Season,
	}
}

// Apply merges p over the activity; the ID is never touched.
func (a *Activity) Apply(p ActivityPatch) {
	if a == nil {
		return
	}
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Emoji != nil {
		a.Emoji = *p.Emoji
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.Category != nil {
		a.Category = *p.Category
	}
	if p.Moods != nil {
		a.Moods = copyStrings(p.Moods)
	}
	if p.Season != nil {
		a.Season = *p.Season
	}
}

// Touch records one use of the activity at the given instant.
func (a *Activity) Touch(at time.Time) {
	if a == nil {
		return
	}
	if at.IsZero() {
		at = time.Now()
	}
	at = at.UTC()
	a.LastUsedAt = &at
	a.UsageCount++
}

// Matches reports whether the activity matches a free-text query and a category filter.
// An empty category or "all" matches every category.
func (a Activity) Matches(query, category string) bool {
	if category != "" && category != "all" && a.Category != category {
		return false
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(a.Name), query) ||
		strings.Contains(strings.ToLower(a.Description), query)
}

// Clone returns a deep copy so callers cannot mutate registry state through shared slices.
func (a Activity) Clone() Activity {
	out := a
	out.Moods = copyStrings(a.Moods)
	if a.LastUsedAt != nil {
		t := *a.LastUsedAt
		out.LastUsedAt = &t
	}
	return out
}

func copyStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
