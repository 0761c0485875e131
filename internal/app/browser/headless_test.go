package browser_test

import (
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spounge-ai/rosetta/internal/app/browser"
	"github.com/spounge-ai/rosetta/internal/infra/config"
	"github.com/spounge-ai/rosetta/internal/messaging"
)

func newHeadless(t *testing.T, cfg config.BrowserConfig) (*browser.Headless, *messaging.Bus) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := messaging.NewBus(logger)
	t.Cleanup(bus.Close)
	return browser.NewHeadless(bus, cfg, logger), bus
}

func TestTabFocus(t *testing.T) {
	h, _ := newHeadless(t, config.BrowserConfig{Tabs: 2})
	ctx := context.Background()

	assert.Equal(t, []int{1, 2}, h.Tabs())
	id, ok, err := h.ActiveTab(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, id)

	require.NoError(t, h.Activate(2))
	require.NoError(t, h.CloseTab(2))
	id, ok, _ = h.ActiveTab(ctx)
	assert.True(t, ok)
	assert.Equal(t, 1, id)

	require.NoError(t, h.CloseTab(1))
	_, ok, _ = h.ActiveTab(ctx)
	assert.False(t, ok)

	assert.ErrorIs(t, h.Activate(7), browser.ErrUnknownTab)
	assert.ErrorIs(t, h.CloseTab(7), browser.ErrUnknownTab)
}

func TestInjectStartsOneScriptPerTab(t *testing.T) {
	h, bus := newHeadless(t, config.BrowserConfig{Tabs: 1})
	ctx := context.Background()

	assert.False(t, bus.Listening(messaging.Tab(1)))
	require.NoError(t, h.InjectContentScript(ctx, 1))
	first, ok := h.Script(1)
	require.True(t, ok)

	require.NoError(t, h.InjectContentScript(ctx, 1))
	second, _ := h.Script(1)
	assert.Same(t, first, second)

	reply, err := bus.Send(ctx, messaging.Background(), messaging.Tab(1), messaging.New(messaging.Ping{}))
	require.NoError(t, err)
	assert.True(t, messaging.IsPong(reply))

	require.NoError(t, h.CloseTab(1))
	assert.False(t, bus.Listening(messaging.Tab(1)))
	_, ok = h.Script(1)
	assert.False(t, ok)

	assert.ErrorIs(t, h.InjectContentScript(ctx, 1), browser.ErrUnknownTab)
}

func TestCaptureBlankFrame(t *testing.T) {
	h, _ := newHeadless(t, config.BrowserConfig{Tabs: 1})

	url, err := h.CaptureVisibleTab(context.Background())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "data:image/jpeg;base64,"))

	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:image/jpeg;base64,"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD8}, data[:2])
}

func TestCaptureFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR")
	require.NoError(t, os.WriteFile(path, png, 0o600))

	h, _ := newHeadless(t, config.BrowserConfig{Tabs: 1, CaptureFile: path})
	url, err := h.CaptureVisibleTab(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,"+base64.StdEncoding.EncodeToString(png), url)

	missing, _ := newHeadless(t, config.BrowserConfig{Tabs: 1, CaptureFile: filepath.Join(t.TempDir(), "nope.png")})
	_, err = missing.CaptureVisibleTab(context.Background())
	assert.ErrorContains(t, err, "failed to read capture file")
}

func TestCaptureRejectsNonImageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("just some text"), 0o600))

	h, _ := newHeadless(t, config.BrowserConfig{Tabs: 1, CaptureFile: path})
	url, err := h.CaptureVisibleTab(context.Background())
	assert.ErrorIs(t, err, browser.ErrNotAnImage)
	assert.ErrorContains(t, err, "text/plain")
	assert.Empty(t, url)
}

func TestCaptureWithoutTabs(t *testing.T) {
	h, _ := newHeadless(t, config.BrowserConfig{})
	_, err := h.CaptureVisibleTab(context.Background())
	assert.ErrorIs(t, err, browser.ErrNoTabs)
}
