package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spounge-ai/rosetta/internal/domain"
	app_errors "github.com/spounge-ai/rosetta/internal/errors"
	"github.com/spounge-ai/rosetta/internal/infra/metrics"
	"github.com/spounge-ai/rosetta/internal/infra/persistence"
	"github.com/spounge-ai/rosetta/internal/infra/storage"
	"github.com/spounge-ai/rosetta/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type repos struct {
	store       *storage.Memory
	credentials *persistence.CredentialRepository
	selection   *persistence.KeySelectionRepository
	preferences *persistence.PreferencesRepository
	history     *persistence.TranslationRepository
}

func newRepos() repos {
	store := storage.NewMemory()
	logger := discardLogger()
	return repos{
		store:       store,
		credentials: persistence.NewCredentialRepository(store, logger),
		selection:   persistence.NewKeySelectionRepository(store, logger),
		preferences: persistence.NewPreferencesRepository(store, logger),
		history:     persistence.NewTranslationRepository(store, logger),
	}
}

type fakeValidator struct {
	err   error
	calls int
}

func (f *fakeValidator) Validate(context.Context, domain.APIKey) error {
	f.calls++
	return f.err
}

func TestAddAPIKey(t *testing.T) {
	r := newRepos()
	validator := &fakeValidator{}
	auth := service.NewAuthService(r.credentials, r.selection, validator, discardLogger())
	ctx := context.Background()

	set, err := auth.AddAPIKey(ctx, "  AIzaFirst  ")
	require.NoError(t, err)
	assert.Equal(t, 1, set.Len())
	first, ok := set.Active()
	require.True(t, ok)
	assert.Equal(t, "AIzaFirst", first.APIKey().Value())

	set, err = auth.AddAPIKey(ctx, "gsk_second")
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())
	active, _ := set.Active()
	assert.Equal(t, domain.ProviderGroq, active.Provider())
	assert.Equal(t, 2, validator.calls)

	ok, err = auth.CheckAuth(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAddAPIKeyRejects(t *testing.T) {
	r := newRepos()
	validator := &fakeValidator{err: app_errors.InvalidAPIKey("Invalid API key", "AIza")}
	auth := service.NewAuthService(r.credentials, r.selection, validator, discardLogger())
	ctx := context.Background()

	_, err := auth.AddAPIKey(ctx, "sk-openai")
	assert.ErrorIs(t, err, app_errors.ErrInvalidAPIKey)
	assert.Zero(t, validator.calls)

	_, err = auth.AddAPIKey(ctx, "AIzaBad")
	assert.ErrorIs(t, err, app_errors.ErrInvalidAPIKey)

	ok, err := auth.CheckAuth(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRemoveAndSetActive(t *testing.T) {
	r := newRepos()
	auth := service.NewAuthService(r.credentials, r.selection, nil, discardLogger())
	ctx := context.Background()

	_, err := auth.SetActiveKey(ctx, "anything")
	assert.ErrorIs(t, err, app_errors.ErrInvalidAPIKey)

	set, err := auth.AddAPIKey(ctx, "AIzaOne")
	require.NoError(t, err)
	firstID := set.ActiveID()
	set, err = auth.AddAPIKey(ctx, "AIzaTwo")
	require.NoError(t, err)

	set, err = auth.SetActiveKey(ctx, firstID)
	require.NoError(t, err)
	assert.Equal(t, firstID, set.ActiveID())

	_, err = auth.SetActiveKey(ctx, "missing")
	assert.ErrorIs(t, err, app_errors.ErrInvalidAPIKey)
	assert.Contains(t, err.Error(), "Credential not found")

	set, err = auth.RemoveAPIKey(ctx, firstID)
	require.NoError(t, err)
	assert.Equal(t, 1, set.Len())
	assert.NotEqual(t, firstID, set.ActiveID())

	stored, found, err := auth.GetCredentials(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, set.ActiveID(), stored.ActiveID())
}

func TestSetKeySelectionMode(t *testing.T) {
	r := newRepos()
	auth := service.NewAuthService(r.credentials, r.selection, nil, discardLogger())
	ctx := context.Background()

	err := auth.SetKeySelectionMode(ctx, domain.KeySelectionAutoBalanceGemini)
	assert.ErrorIs(t, err, app_errors.ErrInvalidAPIKey)

	_, err = auth.AddAPIKey(ctx, "AIzaOne")
	require.NoError(t, err)
	_, err = auth.AddAPIKey(ctx, "gsk_one")
	require.NoError(t, err)

	err = auth.SetKeySelectionMode(ctx, domain.KeySelectionAutoBalanceGemini)
	require.Error(t, err)
	assert.Equal(t, "Need at least 2 gemini keys to enable auto-balance. Found 1.", err.Error())

	_, err = auth.AddAPIKey(ctx, "AIzaTwo")
	require.NoError(t, err)
	require.NoError(t, auth.SetKeySelectionMode(ctx, domain.KeySelectionAutoBalanceGemini))

	mode, err := auth.GetKeySelectionMode(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.KeySelectionAutoBalanceGemini, mode)

	require.NoError(t, auth.SetKeySelectionMode(ctx, domain.KeySelectionManual))
}

type flakySelection struct {
	domain.KeySelectionRepository
	failMode     bool
	failLastUsed bool
	failWrite    bool
}

func (f *flakySelection) GetMode(ctx context.Context) (domain.KeySelectionMode, error) {
	if f.failMode {
		return "", app_errors.ReadFailed("keySelectionMode", errors.New("io"))
	}
	return f.KeySelectionRepository.GetMode(ctx)
}

func (f *flakySelection) GetLastUsedKeyID(ctx context.Context, p domain.Provider) (string, error) {
	if f.failLastUsed {
		return "", app_errors.ReadFailed("lastUsedKeyId", errors.New("io"))
	}
	return f.KeySelectionRepository.GetLastUsedKeyID(ctx, p)
}

func (f *flakySelection) SetLastUsedKeyID(ctx context.Context, p domain.Provider, id string) error {
	if f.failWrite {
		return app_errors.WriteFailed("lastUsedKeyId", errors.New("io"))
	}
	return f.KeySelectionRepository.SetLastUsedKeyID(ctx, p, id)
}

func credentialSet(t *testing.T, keys ...string) domain.CredentialSet {
	t.Helper()
	set := domain.NewCredentialSet("set")
	for i, raw := range keys {
		k, err := domain.NewAPIKey(raw)
		require.NoError(t, err)
		c, err := domain.NewCredential(string(rune('a'+i)), k)
		require.NoError(t, err)
		set = set.Add(c)
	}
	return set
}

func TestResolverManual(t *testing.T) {
	r := newRepos()
	resolver := service.NewCredentialResolver(r.selection, metrics.Noop{}, discardLogger())
	ctx := context.Background()

	set := credentialSet(t, "AIzaA", "AIzaB")
	cred, err := resolver.Resolve(ctx, set)
	require.NoError(t, err)
	assert.Equal(t, "b", cred.ID())

	_, err = resolver.Resolve(ctx, domain.NewCredentialSet("empty"))
	assert.ErrorIs(t, err, app_errors.ErrNotAuthenticated)
}

func TestResolverRotates(t *testing.T) {
	r := newRepos()
	resolver := service.NewCredentialResolver(r.selection, metrics.Noop{}, discardLogger())
	ctx := context.Background()
	require.NoError(t, r.selection.SetMode(ctx, domain.KeySelectionAutoBalanceGemini))

	set := credentialSet(t, "AIzaA", "gsk_X", "AIzaB", "AIzaC")
	var got []string
	for range 5 {
		cred, err := resolver.Resolve(ctx, set)
		require.NoError(t, err)
		got = append(got, cred.ID())
	}
	assert.Equal(t, []string{"a", "c", "d", "a", "c"}, got)

	last, err := r.selection.GetLastUsedKeyID(ctx, domain.ProviderGemini)
	require.NoError(t, err)
	assert.Equal(t, "c", last)
}

func TestResolverDegradesSafely(t *testing.T) {
	ctx := context.Background()

	t.Run("too few provider keys", func(t *testing.T) {
		r := newRepos()
		require.NoError(t, r.selection.SetMode(ctx, domain.KeySelectionAutoBalanceGroq))
		resolver := service.NewCredentialResolver(r.selection, metrics.Noop{}, discardLogger())

		set := credentialSet(t, "gsk_X", "AIzaA")
		cred, err := resolver.Resolve(ctx, set)
		require.NoError(t, err)
		assert.Equal(t, set.ActiveID(), cred.ID())
	})

	t.Run("mode read failure", func(t *testing.T) {
		r := newRepos()
		sel := &flakySelection{KeySelectionRepository: r.selection, failMode: true}
		resolver := service.NewCredentialResolver(sel, metrics.Noop{}, discardLogger())

		cred, err := resolver.Resolve(ctx, credentialSet(t, "AIzaA", "AIzaB"))
		require.NoError(t, err)
		assert.Equal(t, "b", cred.ID())
	})

	t.Run("rotation state failures", func(t *testing.T) {
		r := newRepos()
		require.NoError(t, r.selection.SetMode(ctx, domain.KeySelectionAutoBalanceGemini))
		sel := &flakySelection{KeySelectionRepository: r.selection, failLastUsed: true, failWrite: true}
		resolver := service.NewCredentialResolver(sel, metrics.Noop{}, discardLogger())

		cred, err := resolver.Resolve(ctx, credentialSet(t, "AIzaA", "AIzaB"))
		require.NoError(t, err)
		assert.Equal(t, "a", cred.ID())
	})
}

type recordingBroadcaster struct {
	themes []domain.Theme
}

func (b *recordingBroadcaster) BroadcastTheme(_ context.Context, theme domain.Theme) error {
	b.themes = append(b.themes, theme)
	return nil
}

func TestPreferencesUpdate(t *testing.T) {
	r := newRepos()
	broadcaster := &recordingBroadcaster{}
	prefs := service.NewPreferencesService(r.preferences, broadcaster, discardLogger())
	ctx := context.Background()

	defaults, err := prefs.GetOrDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeSystem, defaults.Theme())

	updated, err := prefs.Update(ctx, domain.PreferencesProps{Theme: "dark", TargetLanguage: "ja-JP"})
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeDark, updated.Theme())
	assert.Equal(t, []domain.Theme{domain.ThemeDark}, broadcaster.themes)

	_, err = prefs.Update(ctx, domain.PreferencesProps{Theme: "system"})
	require.NoError(t, err)
	_, err = prefs.Update(ctx, domain.PreferencesProps{TargetLanguage: "fr-FR"})
	require.NoError(t, err)
	assert.Len(t, broadcaster.themes, 1)

	_, err = prefs.Update(ctx, domain.PreferencesProps{TargetLanguage: "xx-XX"})
	assert.ErrorIs(t, err, app_errors.ErrInvalidInput)

	stored, found, err := prefs.Get(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "fr-FR", stored.TargetLanguage().Code())
	assert.Equal(t, domain.ThemeSystem, stored.Theme())
}

type stubTranslator struct {
	calls atomic.Int32
}

func (s *stubTranslator) TranslateImage(_ context.Context, _ domain.EncodedImage, target domain.Language) (domain.Translation, error) {
	s.calls.Add(1)
	seg, _ := domain.NewTextSegment("Hello", target, "")
	return domain.NewTranslation("t", nil, []domain.TextSegment{seg}, "", time.Now()), nil
}

func TestTranslateImageValidatesInputs(t *testing.T) {
	translator := &stubTranslator{}
	ctx := context.Background()

	_, err := service.TranslateImage(ctx, translator, "data:image/png;base64,AAAA", "klingon")
	assert.ErrorIs(t, err, app_errors.ErrUnsupportedLanguage)
	assert.Equal(t, "Unsupported language: klingon", err.Error())

	_, err = service.TranslateImage(ctx, translator, "http://example.com/a.png", "en-US")
	assert.ErrorIs(t, err, app_errors.ErrInvalidImage)
	assert.Zero(t, translator.calls.Load())

	tr, err := service.TranslateImage(ctx, translator, "data:image/png;base64,AAAA", "en-US")
	require.NoError(t, err)
	assert.Equal(t, "en-US", tr.Translated()[0].Language().Code())
}

type countingChecker struct {
	calls int
}

func (c *countingChecker) Check(context.Context, string) (bool, error) {
	c.calls++
	return true, nil
}

func TestProxyHealthIsCached(t *testing.T) {
	checker := &countingChecker{}
	svc := service.NewProxyHealthService(checker, time.Minute)
	defer svc.Close()

	for range 3 {
		ok, err := svc.Check(context.Background(), "https://proxy.example.com")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Equal(t, 1, checker.calls)
}

func TestHistoryService(t *testing.T) {
	r := newRepos()
	history := service.NewHistoryService(r.history)
	ctx := context.Background()

	seg, err := domain.NewTextSegment("Hi", domain.MustLanguage("en-US"), "")
	require.NoError(t, err)
	require.NoError(t, history.Save(ctx, domain.NewTranslation("h1", []domain.TextSegment{seg}, nil, "", time.Now())))

	all, err := history.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, history.Delete(ctx, "h1"))
	_, found, err := history.Get(ctx, "h1")
	require.NoError(t, err)
	assert.False(t, found)
}
