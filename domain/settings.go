package domain

import "time"

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Settings is the user preference document.
type Settings struct {
	Theme                  string     `json:"theme"`
	SoundEnabled           bool       `json:"soundEnabled"`
	ShowConfetti           bool       `json:"showConfetti"`
	HasCompletedOnboarding bool       `json:"hasCompletedOnboarding"`
	OnboardingShownCount   int        `json:"onboardingShownCount"`
	LastOnboardingDate     *time.Time `json:"lastOnboardingDate"`
}

// DefaultSettings returns the document used when nothing has been stored yet.
func DefaultSettings() Settings {
	return Settings{
		Theme:        ThemeLight,
		SoundEnabled: true,
		ShowConfetti: true,
	}
}

// SettingsPatch is a partial update; nil fields are left untouched.
type SettingsPatch struct {
	Theme                  *string    `json:"theme,omitempty"`
	SoundEnabled           *bool      `json:"soundEnabled,omitempty"`
	ShowConfetti           *bool      `json:"showConfetti,omitempty"`
	HasCompletedOnboarding *bool      `json:"hasCompletedOnboarding,omitempty"`
	OnboardingShownCount   *int       `json:"onboardingShownCount,omitempty"`
	LastOnboardingDate     *time.Time `json:"lastOnboardingDate,omitempty"`
}

// Merge applies p over s and returns the result.
func (s Settings) Merge(p SettingsPatch) Settings {
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
	if p.SoundEnabled != nil {
		s.SoundEnabled = *p.SoundEnabled
	}
	if p.ShowConfetti != nil {
		s.ShowConfetti = *p.ShowConfetti
	}
	if p.HasCompletedOnboarding != nil {
		s.HasCompletedOnboarding = *p.HasCompletedOnboarding
	}
	if p.OnboardingShownCount != nil {
		s.OnboardingShownCount = *p.OnboardingShownCount
	}
	if p.LastOnboardingDate != nil {
		t := *p.LastOnboardingDate
		s.LastOnboardingDate = &t
	}
	return s
}
