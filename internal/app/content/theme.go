package content

import (
	"context"
	"log/slog"
	"sync"
)

// ThemeManager tracks the theme the tab's UI is drawn in.
type ThemeManager struct {
	mu     sync.RWMutex
	theme  string
	logger *slog.Logger
}

func NewThemeManager(logger *slog.Logger) *ThemeManager {
	return &ThemeManager{theme: "system", logger: logger}
}

func (m *ThemeManager) Set(ctx context.Context, theme string) {
	m.mu.Lock()
	m.theme = theme
	m.mu.Unlock()
	m.logger.DebugContext(ctx, "theme changed", "theme", theme)
}

func (m *ThemeManager) Current() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.theme
}
