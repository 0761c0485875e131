package content

import (
	"context"
	"log/slog"
	"sync"

	"github.com/spounge-ai/rosetta/internal/messaging"
)

// Selector stands in for the user drawing a box over the captured
// viewport. It returns the selected region as an image data URL, or false
// when the user cancelled.
type Selector interface {
	Select(ctx context.Context, viewport string) (string, bool)
}

// FullFrame selects the whole viewport.
type FullFrame struct{}

func (FullFrame) Select(_ context.Context, viewport string) (string, bool) {
	return viewport, viewport != ""
}

// OverlayHandler mounts the selection overlay. While one overlay is up,
// further MOUNT_OVERLAY messages are ignored.
type OverlayHandler struct {
	client   messaging.Client
	selector Selector
	logger   *slog.Logger

	mu      sync.Mutex
	mounted bool
	wg      sync.WaitGroup
}

func NewOverlayHandler(client messaging.Client, selector Selector, logger *slog.Logger) *OverlayHandler {
	if selector == nil {
		selector = FullFrame{}
	}
	return &OverlayHandler{client: client, selector: selector, logger: logger}
}

// Handle returns as soon as the overlay is up. The selection and the
// TRANSLATE_IMAGE round trip happen in the background so the tab keeps
// receiving toasts while the translation runs.
func (h *OverlayHandler) Handle(ctx context.Context, rawImage string) {
	h.mu.Lock()
	if h.mounted {
		h.mu.Unlock()
		h.logger.DebugContext(ctx, "overlay already mounted")
		return
	}
	h.mounted = true
	h.mu.Unlock()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer h.detach()
		h.submit(ctx, rawImage)
	}()
}

func (h *OverlayHandler) submit(ctx context.Context, rawImage string) {
	region, ok := h.selector.Select(ctx, rawImage)
	if !ok {
		h.logger.InfoContext(ctx, "selection cancelled")
		return
	}

	raw, err := h.client.ToRuntime(ctx, messaging.New(messaging.TranslateImage{ImageBase64: region}))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to send selection", "error", err)
		return
	}
	if raw == nil {
		h.logger.WarnContext(ctx, "no response to TRANSLATE_IMAGE")
		return
	}
	res, err := messaging.DecodeResult(raw)
	if err != nil {
		h.logger.ErrorContext(ctx, "malformed TRANSLATE_IMAGE response", "error", err)
		return
	}
	if !res.Success() {
		h.logger.WarnContext(ctx, "translation failed", "error", res.Err())
	}
}

func (h *OverlayHandler) detach() {
	h.mu.Lock()
	h.mounted = false
	h.mu.Unlock()
}

// Mounted reports whether an overlay is up.
func (h *OverlayHandler) Mounted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mounted
}

// Wait blocks until every running selection has finished.
func (h *OverlayHandler) Wait() {
	h.wg.Wait()
}
