package background

import (
	"context"
	"log/slog"

	"github.com/spounge-ai/rosetta/internal/messaging"
)

// CommandListener reacts to keyboard shortcuts.
type CommandListener struct {
	overlay *OverlayService
	logger  *slog.Logger
}

func NewCommandListener(overlay *OverlayService, logger *slog.Logger) *CommandListener {
	return &CommandListener{overlay: overlay, logger: logger}
}

// OnCommand reports whether the command was recognized. Unknown commands
// are ignored.
func (l *CommandListener) OnCommand(ctx context.Context, cmd messaging.Command) (bool, error) {
	switch cmd {
	case messaging.CommandStartExtension:
		return true, l.overlay.TriggerOverlayOnActiveTab(ctx)
	default:
		l.logger.DebugContext(ctx, "ignoring unknown command", "command", cmd)
		return false, nil
	}
}
