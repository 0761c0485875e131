package background

import (
	"context"
	"log/slog"

	"github.com/spounge-ai/rosetta/internal/domain"
	"github.com/spounge-ai/rosetta/internal/messaging"
)

// TabNotifier sends toasts and modals to tabs. Toasts are posted without
// waiting; a failed post is logged and otherwise ignored.
type TabNotifier struct {
	client messaging.Client
	logger *slog.Logger
}

func NewTabNotifier(client messaging.Client, logger *slog.Logger) *TabNotifier {
	return &TabNotifier{client: client, logger: logger}
}

func (n *TabNotifier) Loading(ctx context.Context, tabID int, toastID, message string) {
	n.show(ctx, tabID, messaging.ShowToast{ID: toastID, Type: messaging.ToastLoading, Message: message})
}

func (n *TabNotifier) Success(ctx context.Context, tabID int, toastID, message string) {
	n.show(ctx, tabID, messaging.ShowToast{ID: toastID, Type: messaging.ToastSuccess, Message: message})
}

func (n *TabNotifier) Error(ctx context.Context, tabID int, toastID, message, description string) {
	n.show(ctx, tabID, messaging.ShowToast{ID: toastID, Type: messaging.ToastError, Message: message, Description: description})
}

// Info shows an anonymous toast for durationMS milliseconds.
func (n *TabNotifier) Info(ctx context.Context, tabID int, message string, durationMS float64) {
	n.show(ctx, tabID, messaging.ShowToast{Type: messaging.ToastInfo, Message: message, Duration: &durationMS})
}

func (n *TabNotifier) show(ctx context.Context, tabID int, toast messaging.ShowToast) {
	if err := n.client.PostToTab(ctx, tabID, messaging.New(toast)); err != nil {
		n.logger.WarnContext(ctx, "failed to send toast", "tab_id", tabID, "toast_id", toast.ID, "type", toast.Type, "error", err)
	}
}

// MountTranslation opens the result modal for t and waits until the tab
// has handled it.
func (n *TabNotifier) MountTranslation(ctx context.Context, tabID int, t domain.Translation) error {
	return n.MountView(ctx, tabID, messaging.ViewOf(t))
}

func (n *TabNotifier) MountView(ctx context.Context, tabID int, view messaging.TranslationView) error {
	_, err := n.client.ToTab(ctx, tabID, messaging.New(messaging.MountTranslationModal{TranslationView: view}))
	return err
}

// BroadcastTheme pushes an explicit theme to every tab with a content script.
func (n *TabNotifier) BroadcastTheme(ctx context.Context, theme domain.Theme) error {
	delivered := n.client.Broadcast(ctx, messaging.New(messaging.ThemeChanged{Theme: string(theme)}))
	n.logger.DebugContext(ctx, "theme broadcast", "theme", theme, "tabs", delivered)
	return nil
}
