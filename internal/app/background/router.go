package background

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/spounge-ai/rosetta/internal/domain"
	app_errors "github.com/spounge-ai/rosetta/internal/errors"
	"github.com/spounge-ai/rosetta/internal/infra/metrics"
	"github.com/spounge-ai/rosetta/internal/messaging"
	"github.com/spounge-ai/rosetta/internal/pipelines"
)

const (
	metricsContext = "background"

	historyToastMessage  = "Opening Translation"
	historyToastDuration = 2000
)

// Translator runs the translation pipeline for one request.
type Translator interface {
	Run(ctx context.Context, req pipelines.TranslationRequest) (domain.Translation, error)
}

// Router validates messages addressed to the background context and hands
// each to its handler.
type Router struct {
	translator Translator
	overlay    *OverlayService
	guard      *ContentScriptGuard
	notifier   *TabNotifier
	browser    Browser
	metrics    metrics.Recorder
	logger     *slog.Logger
}

func NewRouter(translator Translator, overlay *OverlayService, guard *ContentScriptGuard, notifier *TabNotifier, browser Browser, recorder metrics.Recorder, logger *slog.Logger) *Router {
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	return &Router{
		translator: translator,
		overlay:    overlay,
		guard:      guard,
		notifier:   notifier,
		browser:    browser,
		metrics:    recorder,
		logger:     logger,
	}
}

// Register subscribes the router to the background address. Handlers may
// overlap, as they do in an event loop.
func (r *Router) Register(bus *messaging.Bus) error {
	return bus.Listen(messaging.Background(), r, messaging.Interleaved)
}

func (r *Router) Handle(ctx context.Context, raw json.RawMessage, from messaging.Sender) json.RawMessage {
	msg, err := messaging.Validate(raw)
	if err != nil {
		r.logger.ErrorContext(ctx, "message validation failed", "from", from.Address.String(), "error", err)
		r.metrics.RecordRouterMessage(metricsContext, "", metrics.StatusInvalid)
		return nil
	}
	action := string(msg.Action())

	resp, handled := r.dispatch(ctx, msg, from)
	status := metrics.StatusSuccess
	if !handled {
		status = metrics.StatusIgnored
	}
	r.metrics.RecordRouterMessage(metricsContext, action, status)
	return resp
}

func (r *Router) dispatch(ctx context.Context, msg messaging.Message, from messaging.Sender) (json.RawMessage, bool) {
	switch p := msg.Payload.(type) {
	case messaging.TranslateImage:
		return r.translateImage(ctx, p, from), true
	case messaging.StartOverlay:
		if err := r.overlay.TriggerOverlayOnActiveTab(ctx); err != nil {
			r.logger.ErrorContext(ctx, "failed to start overlay", "error", err)
		}
		return nil, true
	case messaging.MountHistoryModal:
		r.mountHistory(ctx, p)
		return nil, true
	case messaging.Ping:
		return messaging.PongReply(), true
	default:
		return nil, false
	}
}

func (r *Router) translateImage(ctx context.Context, p messaging.TranslateImage, from messaging.Sender) json.RawMessage {
	tabID, ok := from.TabID()
	if !ok {
		r.logger.ErrorContext(ctx, "no sender tab for TRANSLATE_IMAGE", "from", from.Address.String())
		return messaging.EncodeResult(domain.Translation{}, app_errors.NoActiveTab())
	}
	t, err := r.translator.Run(ctx, pipelines.TranslationRequest{TabID: tabID, ImageDataURL: p.ImageBase64})
	return messaging.EncodeResult(t, err)
}

func (r *Router) mountHistory(ctx context.Context, p messaging.MountHistoryModal) {
	tabID, ok, err := r.browser.ActiveTab(ctx)
	if err != nil || !ok {
		r.logger.ErrorContext(ctx, "no active tab found for history modal", "error", err)
		return
	}
	r.guard.EnsureReady(ctx, tabID)
	r.notifier.Info(ctx, tabID, historyToastMessage, historyToastDuration)
	if err := r.notifier.MountView(ctx, tabID, p.TranslationView); err != nil {
		r.logger.WarnContext(ctx, "failed to mount history modal", "tab_id", tabID, "error", err)
	}
}
