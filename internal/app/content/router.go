// Package content is the per-tab context. It renders what the background
// context asks for and reports user actions back to it.
package content

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/spounge-ai/rosetta/internal/infra/metrics"
	"github.com/spounge-ai/rosetta/internal/messaging"
)

const metricsContext = "content"

// Router dispatches validated messages to the tab's handlers, one message
// at a time.
type Router struct {
	tabID   int
	overlay *OverlayHandler
	modals  *ModalHandler
	toasts  *ToastHandler
	theme   *ThemeManager
	metrics metrics.Recorder
	logger  *slog.Logger
}

func NewRouter(tabID int, overlay *OverlayHandler, modals *ModalHandler, toasts *ToastHandler, theme *ThemeManager, recorder metrics.Recorder, logger *slog.Logger) *Router {
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	return &Router{
		tabID:   tabID,
		overlay: overlay,
		modals:  modals,
		toasts:  toasts,
		theme:   theme,
		metrics: recorder,
		logger:  logger,
	}
}

// Register subscribes the router to its tab address. A tab takes one
// router; registering twice fails.
func (r *Router) Register(bus *messaging.Bus) error {
	return bus.Listen(messaging.Tab(r.tabID), r, messaging.Sequential)
}

func (r *Router) Handle(ctx context.Context, raw json.RawMessage, _ messaging.Sender) json.RawMessage {
	msg, err := messaging.Validate(raw)
	if err != nil {
		r.logger.ErrorContext(ctx, "message validation failed", "error", err)
		r.metrics.RecordRouterMessage(metricsContext, "", metrics.StatusInvalid)
		return nil
	}

	resp, handled := r.dispatch(ctx, msg)
	status := metrics.StatusSuccess
	if !handled {
		status = metrics.StatusIgnored
	}
	r.metrics.RecordRouterMessage(metricsContext, string(msg.Action()), status)
	return resp
}

func (r *Router) dispatch(ctx context.Context, msg messaging.Message) (json.RawMessage, bool) {
	switch p := msg.Payload.(type) {
	case messaging.MountOverlay:
		r.overlay.Handle(ctx, p.RawImage)
	case messaging.MountTranslationModal:
		r.modals.Handle(ctx, p.TranslationView)
	case messaging.ThemeChanged:
		r.theme.Set(ctx, p.Theme)
	case messaging.ShowToast:
		r.toasts.Show(ctx, p)
	case messaging.DismissToast:
		r.toasts.Dismiss(ctx, p.ID)
	case messaging.Ping:
		return messaging.PongReply(), true
	default:
		return nil, false
	}
	return nil, true
}
