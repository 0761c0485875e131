package content

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/spounge-ai/rosetta/internal/messaging"
)

const (
	DefaultErrorDuration = 6000
	RetryLabel           = "Retry"
)

// Toast is one notification currently on screen.
type Toast struct {
	ID          string
	Type        messaging.ToastType
	Message     string
	Description string
	// Duration in milliseconds; nil means the presenter default.
	Duration    *float64
	ActionLabel string
	action      func(ctx context.Context) error
}

// Act runs the toast's action button, if it has one.
func (t Toast) Act(ctx context.Context) error {
	if t.action == nil {
		return nil
	}
	return t.action(ctx)
}

// ToastHandler keeps the tab's toast stack. Showing a toast whose id is
// already on screen updates it in place.
type ToastHandler struct {
	mu     sync.Mutex
	toasts []Toast
	client messaging.Client
	logger *slog.Logger
}

func NewToastHandler(client messaging.Client, logger *slog.Logger) *ToastHandler {
	return &ToastHandler{client: client, logger: logger}
}

func (h *ToastHandler) Show(ctx context.Context, p messaging.ShowToast) {
	t := Toast{
		ID:          p.ID,
		Type:        p.Type,
		Message:     p.Message,
		Description: p.Description,
		Duration:    p.Duration,
	}
	if p.Type == messaging.ToastError {
		if t.Duration == nil {
			d := float64(DefaultErrorDuration)
			t.Duration = &d
		}
		t.ActionLabel = RetryLabel
		t.action = h.retry
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if i := h.indexOf(t.ID); t.ID != "" && i >= 0 {
		h.toasts[i] = t
		h.logger.DebugContext(ctx, "toast updated", "toast_id", t.ID, "type", t.Type, "message", t.Message)
		return
	}
	h.toasts = append(h.toasts, t)
	h.logger.InfoContext(ctx, "toast shown", "toast_id", t.ID, "type", t.Type, "message", t.Message, "description", t.Description)
}

func (h *ToastHandler) Dismiss(ctx context.Context, id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if i := h.indexOf(id); i >= 0 {
		h.toasts = slices.Delete(h.toasts, i, i+1)
		h.logger.DebugContext(ctx, "toast dismissed", "toast_id", id)
	}
}

// Toasts returns the toasts on screen, oldest first.
func (h *ToastHandler) Toasts() []Toast {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.toasts)
}

// Find returns the toast with the given id.
func (h *ToastHandler) Find(id string) (Toast, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if i := h.indexOf(id); i >= 0 {
		return h.toasts[i], true
	}
	return Toast{}, false
}

func (h *ToastHandler) retry(ctx context.Context) error {
	return h.client.PostToRuntime(ctx, messaging.New(messaging.StartOverlay{}))
}

func (h *ToastHandler) indexOf(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(h.toasts, func(t Toast) bool { return t.ID == id })
}
