package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/spounge-ai/rosetta/internal/messaging"
	"github.com/spounge-ai/rosetta/pkg/execution"
)

const DefaultSettleDelay = 100 * time.Millisecond

// ContentScriptGuard makes sure a tab runs the content script before the
// background context talks to it.
type ContentScriptGuard struct {
	client      messaging.Client
	browser     Browser
	pingTimeout time.Duration
	settleDelay time.Duration
	logger      *slog.Logger
}

func NewContentScriptGuard(client messaging.Client, browser Browser, pingTimeout, settleDelay time.Duration, logger *slog.Logger) *ContentScriptGuard {
	if pingTimeout <= 0 {
		pingTimeout = messaging.DefaultPingTimeout
	}
	if settleDelay < 0 {
		settleDelay = DefaultSettleDelay
	}
	return &ContentScriptGuard{
		client:      client,
		browser:     browser,
		pingTimeout: pingTimeout,
		settleDelay: settleDelay,
		logger:      logger,
	}
}

// EnsureReady pings the tab and injects the content script unless it
// answers PONG in time. It reports false only when injection failed; the
// caller carries on regardless.
func (g *ContentScriptGuard) EnsureReady(ctx context.Context, tabID int) bool {
	alive, err := g.client.Ping(ctx, tabID, g.pingTimeout)
	if err == nil && alive {
		return true
	}
	g.logger.DebugContext(ctx, "content script not answering, injecting", "tab_id", tabID, "error", err)

	if err := g.browser.InjectContentScript(ctx, tabID); err != nil {
		g.logger.WarnContext(ctx, "content script injection failed", "tab_id", tabID, "error", err)
		return false
	}
	if err := execution.Sleep(ctx, g.settleDelay); err != nil {
		return false
	}
	return true
}
