package background_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spounge-ai/rosetta/internal/app/background"
	"github.com/spounge-ai/rosetta/internal/app/browser"
	"github.com/spounge-ai/rosetta/internal/app/content"
	"github.com/spounge-ai/rosetta/internal/domain"
	app_errors "github.com/spounge-ai/rosetta/internal/errors"
	"github.com/spounge-ai/rosetta/internal/infra/config"
	"github.com/spounge-ai/rosetta/internal/infra/metrics"
	"github.com/spounge-ai/rosetta/internal/infra/persistence"
	"github.com/spounge-ai/rosetta/internal/infra/storage"
	"github.com/spounge-ai/rosetta/internal/messaging"
	"github.com/spounge-ai/rosetta/internal/pipelines"
	"github.com/spounge-ai/rosetta/internal/service"
)

type echoTranslator struct{}

func (echoTranslator) TranslateImage(_ context.Context, _ domain.EncodedImage, target domain.Language) (domain.Translation, error) {
	seg, _ := domain.NewTextSegment("Exit", target, "")
	orig, _ := domain.NewTextSegment("出口", domain.MustLanguage("ja-JP"), "deguchi")
	return domain.NewTranslation("tr-42", []domain.TextSegment{orig}, []domain.TextSegment{seg}, "a sign", time.Now()), nil
}

type echoFactory struct{}

func (echoFactory) New(context.Context, domain.Credential, domain.UserPreferences) (domain.TranslationService, error) {
	return echoTranslator{}, nil
}

type harness struct {
	bus      *messaging.Bus
	browser  *browser.Headless
	auth     service.AuthService
	overlay  *background.OverlayService
	notifier *background.TabNotifier
	guard    *background.ContentScriptGuard
	commands *background.CommandListener
	popup    messaging.Client
}

func newHarness(t *testing.T, tabs int) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := messaging.NewBus(logger)
	t.Cleanup(bus.Close)

	store := storage.NewMemory()
	credentials := persistence.NewCredentialRepository(store, logger)
	selection := persistence.NewKeySelectionRepository(store, logger)

	headless := browser.NewHeadless(bus, config.BrowserConfig{Tabs: tabs}, logger)
	client := messaging.NewClient(bus, messaging.Background())
	notifier := background.NewTabNotifier(client, logger)
	guard := background.NewContentScriptGuard(client, headless, 200*time.Millisecond, 0, logger)
	auth := service.NewAuthService(credentials, selection, nil, logger)
	overlay := background.NewOverlayService(auth, headless, guard, notifier, client, logger)

	pipeline := pipelines.NewTranslationPipeline(pipelines.Deps{
		Credentials: credentials,
		Resolver:    service.NewCredentialResolver(selection, metrics.Noop{}, logger),
		Preferences: persistence.NewPreferencesRepository(store, logger),
		Translators: echoFactory{},
		History:     persistence.NewTranslationRepository(store, logger),
		Notifier:    notifier,
		Mounter:     notifier,
		Logger:      logger,
	})
	router := background.NewRouter(pipeline, overlay, guard, notifier, headless, metrics.Noop{}, logger)
	require.NoError(t, router.Register(bus))

	return &harness{
		bus:      bus,
		browser:  headless,
		auth:     auth,
		overlay:  overlay,
		notifier: notifier,
		guard:    guard,
		commands: background.NewCommandListener(overlay, logger),
		popup:    messaging.NewClient(bus, messaging.Popup()),
	}
}

func (h *harness) script(t *testing.T, tabID int) *content.Script {
	t.Helper()
	s, ok := h.browser.Script(tabID)
	require.True(t, ok, "tab %d has no content script", tabID)
	return s
}

func TestTriggerWithoutCredentialsShowsAuthError(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()

	require.NoError(t, h.overlay.TriggerOverlayOnActiveTab(ctx))

	toasts := h.script(t, 1).Toasts
	require.Eventually(t, func() bool { return len(toasts.Toasts()) == 1 }, time.Second, 5*time.Millisecond)
	got := toasts.Toasts()[0]
	assert.True(t, strings.HasPrefix(got.ID, "auth-error-"))
	assert.Equal(t, messaging.ToastError, got.Type)
	assert.Equal(t, pipelines.TitleNotAuthenticated, got.Message)
	assert.Equal(t, pipelines.NotAuthenticatedHint, got.Description)
	assert.False(t, h.script(t, 1).Overlay.Mounted())
}

func TestCommandRunsFullTranslation(t *testing.T) {
	h := newHarness(t, 2)
	ctx := context.Background()
	_, err := h.auth.AddAPIKey(ctx, "AIzaTestKey")
	require.NoError(t, err)
	require.NoError(t, h.browser.Activate(2))

	handled, err := h.commands.OnCommand(ctx, messaging.CommandStartExtension)
	require.NoError(t, err)
	assert.True(t, handled)
	h.browser.Wait()

	_, injected := h.browser.Script(1)
	assert.False(t, injected, "inactive tab must not be touched")

	script := h.script(t, 2)
	modals := script.Modals.Open()
	require.Len(t, modals, 1)
	assert.Equal(t, "tr-42", modals[0].ID)
	require.NotNil(t, modals[0].Original[0].Romanization)
	assert.Equal(t, "deguchi", *modals[0].Original[0].Romanization)

	toasts := script.Toasts.Toasts()
	require.Len(t, toasts, 1, "success must replace the loading toast")
	assert.Equal(t, messaging.ToastSuccess, toasts[0].Type)
	assert.Equal(t, pipelines.TitleSuccess, toasts[0].Message)
	assert.True(t, strings.HasPrefix(toasts[0].ID, "translate-"))
}

func TestUnknownCommandIgnored(t *testing.T) {
	h := newHarness(t, 1)
	handled, err := h.commands.OnCommand(context.Background(), "OPEN_SETTINGS")
	require.NoError(t, err)
	assert.False(t, handled)
}

func TestTranslateImageNeedsSenderTab(t *testing.T) {
	h := newHarness(t, 1)

	raw, err := h.popup.ToRuntime(context.Background(), messaging.New(messaging.TranslateImage{ImageBase64: "data:image/png;base64,AA=="}))
	require.NoError(t, err)
	res, err := messaging.DecodeResult(raw)
	require.NoError(t, err)
	assert.False(t, res.Success())

	var coded interface{ ErrorCode() string }
	require.True(t, errors.As(res.Err(), &coded))
	assert.Equal(t, string(app_errors.CodeNoActiveTab), coded.ErrorCode())
}

func TestTranslateImageFromTabReturnsResult(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()
	require.NoError(t, h.browser.InjectContentScript(ctx, 1))
	tab := messaging.NewClient(h.bus, messaging.Tab(1))

	raw, err := tab.ToRuntime(ctx, messaging.New(messaging.TranslateImage{ImageBase64: "data:image/png;base64,AA=="}))
	require.NoError(t, err)
	res, err := messaging.DecodeResult(raw)
	require.NoError(t, err)
	assert.False(t, res.Success())
	assert.Contains(t, res.Err().Error(), string(app_errors.CodeNotAuthenticated))

	_, err = h.auth.AddAPIKey(ctx, "gsk_key")
	require.NoError(t, err)
	raw, err = tab.ToRuntime(ctx, messaging.New(messaging.TranslateImage{ImageBase64: "data:image/png;base64,AA=="}))
	require.NoError(t, err)
	res, err = messaging.DecodeResult(raw)
	require.NoError(t, err)
	require.True(t, res.Success())
	view, _ := res.Unwrap()
	assert.Equal(t, "tr-42", view.ID)
}

func TestMountHistoryModal(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()
	view := messaging.TranslationView{
		ID:          "old-1",
		Original:    []messaging.SegmentView{{Language: messaging.LanguageRef{Code: "fr-FR", Name: "French"}, Text: "Sortie"}},
		Translated:  []messaging.SegmentView{{Language: messaging.LanguageRef{Code: "en-US", Name: "English"}, Text: "Exit"}},
		Description: "from history",
		CreatedAt:   time.Now(),
	}

	raw, err := h.popup.ToRuntime(ctx, messaging.New(messaging.MountHistoryModal{TranslationView: view}))
	require.NoError(t, err)
	assert.Nil(t, raw)

	script := h.script(t, 1)
	require.Eventually(t, func() bool { return len(script.Modals.Open()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "old-1", script.Modals.Open()[0].ID)

	toasts := script.Toasts.Toasts()
	require.Len(t, toasts, 1)
	assert.Equal(t, messaging.ToastInfo, toasts[0].Type)
	assert.Equal(t, "Opening Translation", toasts[0].Message)
	require.NotNil(t, toasts[0].Duration)
	assert.Equal(t, float64(2000), *toasts[0].Duration)
}

func TestInvalidMessagesAreDropped(t *testing.T) {
	h := newHarness(t, 1)
	for _, raw := range []string{`{}`, `{"action":"NOPE"}`, `{"action":"TRANSLATE_IMAGE","payload":{}}`, `not json`} {
		resp, err := h.bus.SendRaw(context.Background(), messaging.Popup(), messaging.Background(), json.RawMessage(raw))
		require.NoError(t, err, raw)
		assert.Nil(t, resp, raw)
	}
}

func TestRouterRegistersOnce(t *testing.T) {
	h := newHarness(t, 0)
	router := background.NewRouter(nil, nil, nil, nil, h.browser, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.ErrorIs(t, router.Register(h.bus), messaging.ErrAlreadyListening)
}

type failingInjector struct {
	background.Browser
	calls int
}

func (f *failingInjector) InjectContentScript(context.Context, int) error {
	f.calls++
	return errors.New("restricted page")
}

func TestGuard(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("live tab is not injected again", func(t *testing.T) {
		h := newHarness(t, 1)
		require.NoError(t, h.browser.InjectContentScript(ctx, 1))
		injector := &failingInjector{Browser: h.browser}
		guard := background.NewContentScriptGuard(messaging.NewClient(h.bus, messaging.Background()), injector, 200*time.Millisecond, 0, logger)

		assert.True(t, guard.EnsureReady(ctx, 1))
		assert.Zero(t, injector.calls)
	})

	t.Run("silent tab is injected", func(t *testing.T) {
		h := newHarness(t, 1)
		assert.True(t, h.guard.EnsureReady(ctx, 1))
		h.script(t, 1)
	})

	t.Run("tab answering something else is injected", func(t *testing.T) {
		h := newHarness(t, 1)
		silent := messaging.HandlerFunc(func(context.Context, json.RawMessage, messaging.Sender) json.RawMessage { return nil })
		require.NoError(t, h.bus.Listen(messaging.Tab(1), silent, messaging.Sequential))
		injector := &failingInjector{Browser: h.browser}
		guard := background.NewContentScriptGuard(messaging.NewClient(h.bus, messaging.Background()), injector, 200*time.Millisecond, 0, logger)

		assert.False(t, guard.EnsureReady(ctx, 1))
		assert.Equal(t, 1, injector.calls)
	})

	t.Run("hung tab times out", func(t *testing.T) {
		h := newHarness(t, 1)
		release := make(chan struct{})
		t.Cleanup(func() { close(release) })
		hung := messaging.HandlerFunc(func(context.Context, json.RawMessage, messaging.Sender) json.RawMessage {
			<-release
			return nil
		})
		require.NoError(t, h.bus.Listen(messaging.Tab(1), hung, messaging.Sequential))
		injector := &failingInjector{Browser: h.browser}
		guard := background.NewContentScriptGuard(messaging.NewClient(h.bus, messaging.Background()), injector, 50*time.Millisecond, 0, logger)

		start := time.Now()
		assert.False(t, guard.EnsureReady(ctx, 1))
		assert.Less(t, time.Since(start), time.Second)
		assert.Equal(t, 1, injector.calls)
	})
}

func TestBroadcastTheme(t *testing.T) {
	h := newHarness(t, 2)
	ctx := context.Background()
	require.NoError(t, h.browser.InjectContentScript(ctx, 1))
	require.NoError(t, h.browser.InjectContentScript(ctx, 2))

	require.NoError(t, h.notifier.BroadcastTheme(ctx, domain.ThemeDark))
	for _, id := range []int{1, 2} {
		theme := h.script(t, id).Theme
		assert.Eventually(t, func() bool { return theme.Current() == "dark" }, time.Second, 5*time.Millisecond)
	}
}
