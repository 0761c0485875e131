package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/spounge-ai/rosetta/internal/domain"
	app_errors "github.com/spounge-ai/rosetta/internal/errors"
)

// ThemeBroadcaster tells every open tab about an explicit theme change.
type ThemeBroadcaster interface {
	BroadcastTheme(ctx context.Context, theme domain.Theme) error
}

type PreferencesService struct {
	repo        domain.PreferencesRepository
	broadcaster ThemeBroadcaster
	logger      *slog.Logger
}

func NewPreferencesService(repo domain.PreferencesRepository, broadcaster ThemeBroadcaster, logger *slog.Logger) *PreferencesService {
	return &PreferencesService{repo: repo, broadcaster: broadcaster, logger: logger}
}

// Get returns the stored preferences, or false when none are stored.
func (s *PreferencesService) Get(ctx context.Context) (domain.UserPreferences, bool, error) {
	return s.repo.Get(ctx)
}

// GetOrDefault never reports absence; missing preferences become defaults.
func (s *PreferencesService) GetOrDefault(ctx context.Context) (domain.UserPreferences, error) {
	prefs, found, err := s.repo.Get(ctx)
	if err != nil {
		return domain.UserPreferences{}, err
	}
	if !found {
		return domain.DefaultPreferences(uuid.NewString()), nil
	}
	return prefs, nil
}

// Update validates the merged result before storing the patch. A change to
// dark or light is pushed to open tabs; "system" is left to the page.
func (s *PreferencesService) Update(ctx context.Context, patch domain.PreferencesProps) (domain.UserPreferences, error) {
	current, err := s.GetOrDefault(ctx)
	if err != nil {
		return domain.UserPreferences{}, err
	}
	merged, err := domain.PreferencesFromProps(current.Props().Merge(patch))
	if err != nil {
		return domain.UserPreferences{}, app_errors.InvalidInput(err.Error(), err)
	}

	if err := s.repo.Set(ctx, patch); err != nil {
		return domain.UserPreferences{}, err
	}

	if theme := merged.Theme(); patch.Theme != "" && theme != domain.ThemeSystem && s.broadcaster != nil {
		if err := s.broadcaster.BroadcastTheme(ctx, theme); err != nil {
			s.logger.WarnContext(ctx, "failed to broadcast theme change", "theme", theme, "error", err)
		}
	}
	return merged, nil
}

func (s *PreferencesService) Reset(ctx context.Context) error {
	return s.repo.Clear(ctx)
}
