package content

import (
	"log/slog"

	"github.com/spounge-ai/rosetta/internal/infra/metrics"
	"github.com/spounge-ai/rosetta/internal/messaging"
)

// Script is everything one injected content script holds.
type Script struct {
	Router  *Router
	Overlay *OverlayHandler
	Modals  *ModalHandler
	Toasts  *ToastHandler
	Theme   *ThemeManager
}

// NewScript builds the content script for a tab. It is not listening until
// Router.Register is called.
func NewScript(bus *messaging.Bus, tabID int, selector Selector, recorder metrics.Recorder, logger *slog.Logger) *Script {
	logger = logger.With("context", "content", "tab_id", tabID)
	client := messaging.NewClient(bus, messaging.Tab(tabID))

	s := &Script{
		Overlay: NewOverlayHandler(client, selector, logger),
		Modals:  NewModalHandler(logger),
		Toasts:  NewToastHandler(client, logger),
		Theme:   NewThemeManager(logger),
	}
	s.Router = NewRouter(tabID, s.Overlay, s.Modals, s.Toasts, s.Theme, recorder, logger)
	return s
}
