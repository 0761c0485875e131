package content

import (
	"context"
	"log/slog"
	"sync"

	"github.com/spounge-ai/rosetta/internal/messaging"
)

// ModalHandler keeps one result modal per translation id.
type ModalHandler struct {
	mu     sync.Mutex
	open   map[string]messaging.TranslationView
	order  []string
	logger *slog.Logger
}

func NewModalHandler(logger *slog.Logger) *ModalHandler {
	return &ModalHandler{open: make(map[string]messaging.TranslationView), logger: logger}
}

func (h *ModalHandler) Handle(ctx context.Context, view messaging.TranslationView) {
	h.mu.Lock()
	if _, exists := h.open[view.ID]; !exists {
		h.order = append(h.order, view.ID)
	}
	h.open[view.ID] = view
	h.mu.Unlock()

	attrs := []any{"translation_id", view.ID, "description", view.Description}
	for _, s := range view.Translated {
		attrs = append(attrs, "translated."+s.Language.Code, s.Text)
	}
	h.logger.InfoContext(ctx, "translation modal mounted", attrs...)
}

func (h *ModalHandler) Close(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.open[id]; !ok {
		return
	}
	delete(h.open, id)
	for i, v := range h.order {
		if v == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

// Open returns the mounted modals in mount order.
func (h *ModalHandler) Open() []messaging.TranslationView {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]messaging.TranslationView, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.open[id])
	}
	return out
}
