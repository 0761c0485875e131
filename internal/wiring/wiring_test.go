package wiring_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bridge "github.com/spounge-ai/rosetta/internal/app/grpc"
	"github.com/spounge-ai/rosetta/internal/infra/config"
	"github.com/spounge-ai/rosetta/internal/messaging"
	"github.com/spounge-ai/rosetta/internal/wiring"
)

const translationJSON = `{"success": true, "data": {
  "originalText": {"contents": [{"text": "Bonjour", "languageBcp47Code": "fr-FR", "language": "French", "romanization": null}]},
  "translatedText": {"contents": [{"text": "Hello", "languageBcp47Code": "en-US", "language": "English", "romanization": null}]},
  "description": "A greeting."}}`

func fakeGemini(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, ":generateContent") {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"candidates": []any{map[string]any{
					"content": map[string]any{"role": "model", "parts": []any{map[string]any{"text": translationJSON}}},
				}},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"models": []any{map[string]any{"name": "models/gemini-2.5-flash"}}})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, geminiURL string) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Storage.Backend = config.StorageMemory
	cfg.Providers.GeminiBaseURL = geminiURL
	cfg.Server.Address = freeAddress(t)
	cfg.Metrics.Enabled = false
	return cfg
}

func freeAddress(t *testing.T) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())
	return addr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRuntimeTranslatesThroughGemini(t *testing.T) {
	srv := fakeGemini(t)
	ctx := context.Background()

	c := wiring.NewContainer(testConfig(t, srv.URL), discardLogger())
	t.Cleanup(func() { _ = c.Close() })

	rt, err := c.NewRuntime(ctx)
	require.NoError(t, err)
	t.Cleanup(rt.Close)

	_, err = rt.Services.Auth.AddAPIKey(ctx, "AIzaWiringTestKey")
	require.NoError(t, err, "key validation goes through the fake models endpoint")

	handled, err := rt.Commands.OnCommand(ctx, messaging.CommandStartExtension)
	require.NoError(t, err)
	require.True(t, handled)
	rt.Browser.Wait()

	script, ok := rt.Browser.Script(1)
	require.True(t, ok)
	modals := script.Modals.Open()
	require.Len(t, modals, 1)
	assert.Equal(t, "Bonjour", modals[0].Original[0].Text)
	assert.Equal(t, "Hello", modals[0].Translated[0].Text)

	history, err := rt.Services.History.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, modals[0].ID, history[0].ID())
}

func TestServerGroupServesBridge(t *testing.T) {
	cfg := testConfig(t, fakeGemini(t).URL)
	c := wiring.NewContainer(cfg, discardLogger())
	t.Cleanup(func() { _ = c.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	rt, err := c.NewRuntime(ctx)
	require.NoError(t, err)
	t.Cleanup(rt.Close)

	group, err := c.NewServerGroup(ctx, rt, time.Second)
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- group.Run(ctx) }()

	client, err := bridge.Dial(cfg.Server)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.Eventually(t, func() bool {
		ok, err := client.Healthy(ctx)
		return err == nil && ok
	}, 2*time.Second, 20*time.Millisecond)

	raw, err := client.SendMessage(ctx, "background", messaging.New(messaging.Ping{}))
	require.NoError(t, err)
	assert.True(t, messaging.IsPong(raw))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server group did not stop")
	}
}
