package settings

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/fastygo/datewheel/domain"
	"github.com/fastygo/datewheel/repository"
)

// Service reads and updates the "settings" document. Absent or malformed
// documents read as domain.DefaultSettings.
type Service struct {
	store  repository.KVStore
	logger *zap.Logger

	mu sync.Mutex
}

func New(store repository.KVStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

func (s *Service) Get(ctx context.Context) (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Update merges the non-nil fields of patch over the current document.
func (s *Service) Update(ctx context.Context, patch domain.SettingsPatch) (domain.Settings, error) {
	if patch.Theme != nil && *patch.Theme != domain.ThemeLight && *patch.Theme != domain.ThemeDark {
		return domain.Settings{}, domain.WrapError(domain.ErrCodeInvalid, "theme must be light or dark", domain.ErrInvalidPayload)
	}
	if patch.OnboardingShownCount != nil && *patch.OnboardingShownCount < 0 {
		return domain.Settings{}, domain.WrapError(domain.ErrCodeInvalid, "onboarding count must not be negative", domain.ErrInvalidPayload)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx)
	if err != nil {
		return domain.Settings{}, err
	}
	next := current.Merge(patch)
	if err := repository.SaveJSON(ctx, s.store, repository.KeySettings, next); err != nil {
		s.logger.Error("failed to persist settings", zap.Error(err))
		return domain.Settings{}, domain.WrapError(domain.ErrCodeInternal, "persist settings", err)
	}
	return next, nil
}

// ToggleTheme flips between light and dark.
func (s *Service) ToggleTheme(ctx context.Context) (domain.Settings, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return domain.Settings{}, err
	}
	theme := domain.ThemeDark
	if current.Theme == domain.ThemeDark {
		theme = domain.ThemeLight
	}
	return s.Update(ctx, domain.SettingsPatch{Theme: &theme})
}

func (s *Service) load(ctx context.Context) (domain.Settings, error) {
	current := domain.DefaultSettings()
	found, err := repository.LoadJSON(ctx, s.store, repository.KeySettings, &current)
	if err != nil {
		if !errors.Is(err, repository.ErrMalformedDocument) {
			return domain.Settings{}, domain.WrapError(domain.ErrCodeInternal, "load settings", err)
		}
		s.logger.Warn("stored settings are malformed, using defaults", zap.Error(err))
		return domain.DefaultSettings(), nil
	}
	if !found {
		return domain.DefaultSettings(), nil
	}
	return current, nil
}
