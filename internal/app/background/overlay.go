package background

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spounge-ai/rosetta/internal/domain"
	"github.com/spounge-ai/rosetta/internal/messaging"
	"github.com/spounge-ai/rosetta/internal/pipelines"
)

// CredentialReader is the slice of service.AuthService the overlay needs.
type CredentialReader interface {
	GetCredentials(ctx context.Context) (domain.CredentialSet, bool, error)
}

// OverlayService starts a region selection on the active tab.
type OverlayService struct {
	credentials CredentialReader
	browser     Browser
	guard       *ContentScriptGuard
	notifier    *TabNotifier
	client      messaging.Client
	logger      *slog.Logger
	now         func() time.Time
}

func NewOverlayService(credentials CredentialReader, browser Browser, guard *ContentScriptGuard, notifier *TabNotifier, client messaging.Client, logger *slog.Logger) *OverlayService {
	return &OverlayService{
		credentials: credentials,
		browser:     browser,
		guard:       guard,
		notifier:    notifier,
		client:      client,
		logger:      logger,
		now:         time.Now,
	}
}

// TriggerOverlayOnActiveTab captures the active tab and mounts the
// selection overlay over it. Without stored keys it shows an
// authentication error on the tab instead. No active tab is not an error.
func (s *OverlayService) TriggerOverlayOnActiveTab(ctx context.Context) error {
	set, found, err := s.credentials.GetCredentials(ctx)
	if err != nil || !found || !set.HasKeys() {
		if err != nil {
			s.logger.WarnContext(ctx, "failed to read credentials", "error", err)
		}
		return s.showAuthError(ctx)
	}

	tabID, ok, err := s.browser.ActiveTab(ctx)
	if err != nil {
		return fmt.Errorf("failed to query active tab: %w", err)
	}
	if !ok {
		s.logger.DebugContext(ctx, "no active tab, overlay not started")
		return nil
	}

	s.guard.EnsureReady(ctx, tabID)

	image, err := s.browser.CaptureVisibleTab(ctx)
	if err != nil {
		return fmt.Errorf("failed to capture tab %d: %w", tabID, err)
	}
	if _, err := s.client.ToTab(ctx, tabID, messaging.New(messaging.MountOverlay{RawImage: image})); err != nil {
		return fmt.Errorf("failed to mount overlay on tab %d: %w", tabID, err)
	}
	return nil
}

func (s *OverlayService) showAuthError(ctx context.Context) error {
	tabID, ok, err := s.browser.ActiveTab(ctx)
	if err != nil || !ok {
		return err
	}
	s.guard.EnsureReady(ctx, tabID)
	s.notifier.Error(ctx, tabID,
		fmt.Sprintf("auth-error-%d", s.now().UnixMilli()),
		pipelines.TitleNotAuthenticated,
		pipelines.NotAuthenticatedHint,
	)
	return nil
}
