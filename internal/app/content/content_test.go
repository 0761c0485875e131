package content_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spounge-ai/rosetta/internal/app/content"
	"github.com/spounge-ai/rosetta/internal/infra/metrics"
	"github.com/spounge-ai/rosetta/internal/messaging"
)

const tabID = 3

func setup(t *testing.T, selector content.Selector) (*messaging.Bus, *content.Script) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := messaging.NewBus(logger)
	t.Cleanup(bus.Close)

	script := content.NewScript(bus, tabID, selector, metrics.Noop{}, logger)
	require.NoError(t, script.Router.Register(bus))
	return bus, script
}

// inbox captures messages sent to the background context.
func inbox(t *testing.T, bus *messaging.Bus, reply json.RawMessage) <-chan messaging.Message {
	t.Helper()
	got := make(chan messaging.Message, 8)
	h := messaging.HandlerFunc(func(_ context.Context, raw json.RawMessage, _ messaging.Sender) json.RawMessage {
		msg, err := messaging.Validate(raw)
		if assert.NoError(t, err) {
			got <- msg
		}
		return reply
	})
	require.NoError(t, bus.Listen(messaging.Background(), h, messaging.Interleaved))
	return got
}

func send(t *testing.T, bus *messaging.Bus, msg messaging.Message) json.RawMessage {
	t.Helper()
	raw, err := bus.Send(context.Background(), messaging.Background(), messaging.Tab(tabID), msg)
	require.NoError(t, err)
	return raw
}

func TestPingAnswersPong(t *testing.T) {
	bus, _ := setup(t, nil)
	assert.True(t, messaging.IsPong(send(t, bus, messaging.New(messaging.Ping{}))))
}

func TestToastLifecycle(t *testing.T) {
	bus, script := setup(t, nil)

	assert.Nil(t, send(t, bus, messaging.New(messaging.ShowToast{ID: "t1", Type: messaging.ToastLoading, Message: "Translating..."})))
	send(t, bus, messaging.New(messaging.ShowToast{Type: messaging.ToastInfo, Message: "hello"}))
	send(t, bus, messaging.New(messaging.ShowToast{ID: "t1", Type: messaging.ToastSuccess, Message: "Done"}))

	toasts := script.Toasts.Toasts()
	require.Len(t, toasts, 2)
	assert.Equal(t, "t1", toasts[0].ID)
	assert.Equal(t, messaging.ToastSuccess, toasts[0].Type)
	assert.Equal(t, "Done", toasts[0].Message)
	assert.Empty(t, toasts[0].ActionLabel)

	send(t, bus, messaging.New(messaging.DismissToast{ID: "t1"}))
	toasts = script.Toasts.Toasts()
	require.Len(t, toasts, 1)
	assert.Equal(t, "hello", toasts[0].Message)

	send(t, bus, messaging.New(messaging.DismissToast{ID: "missing"}))
	assert.Len(t, script.Toasts.Toasts(), 1)
}

func TestErrorToastCarriesRetry(t *testing.T) {
	bus, script := setup(t, nil)
	received := inbox(t, bus, nil)

	send(t, bus, messaging.New(messaging.ShowToast{ID: "e1", Type: messaging.ToastError, Message: "Translation Failed!", Description: "boom"}))
	toast, ok := script.Toasts.Find("e1")
	require.True(t, ok)
	require.NotNil(t, toast.Duration)
	assert.Equal(t, float64(content.DefaultErrorDuration), *toast.Duration)
	assert.Equal(t, content.RetryLabel, toast.ActionLabel)

	custom := 1500.0
	send(t, bus, messaging.New(messaging.ShowToast{ID: "e2", Type: messaging.ToastError, Message: "x", Duration: &custom}))
	toast2, _ := script.Toasts.Find("e2")
	assert.Equal(t, custom, *toast2.Duration)

	require.NoError(t, toast.Act(context.Background()))
	select {
	case msg := <-received:
		assert.Equal(t, messaging.ActionStartOverlay, msg.Action())
	case <-time.After(time.Second):
		t.Fatal("retry did not reach the background context")
	}
}

func TestThemeAndModal(t *testing.T) {
	bus, script := setup(t, nil)

	send(t, bus, messaging.New(messaging.ThemeChanged{Theme: "light"}))
	assert.Equal(t, "light", script.Theme.Current())

	view := messaging.TranslationView{
		ID:          "m1",
		Original:    []messaging.SegmentView{},
		Translated:  []messaging.SegmentView{{Language: messaging.LanguageRef{Code: "en-US", Name: "English"}, Text: "Hi"}},
		Description: "greeting",
		CreatedAt:   time.Now(),
	}
	send(t, bus, messaging.New(messaging.MountTranslationModal{TranslationView: view}))
	send(t, bus, messaging.New(messaging.MountTranslationModal{TranslationView: view}))

	open := script.Modals.Open()
	require.Len(t, open, 1)
	assert.Equal(t, "Hi", open[0].Translated[0].Text)

	script.Modals.Close("m1")
	assert.Empty(t, script.Modals.Open())
}

type cancelSelector struct{}

func (cancelSelector) Select(context.Context, string) (string, bool) { return "", false }

func TestOverlaySubmitsSelection(t *testing.T) {
	bus, script := setup(t, nil)
	reply, err := json.Marshal(messaging.TranslateResult{})
	require.NoError(t, err)
	received := inbox(t, bus, reply)

	image := "data:image/jpeg;base64,/9j/AA=="
	assert.Nil(t, send(t, bus, messaging.New(messaging.MountOverlay{RawImage: image})))
	script.Overlay.Wait()

	select {
	case msg := <-received:
		p, ok := msg.Payload.(messaging.TranslateImage)
		require.True(t, ok)
		assert.Equal(t, image, p.ImageBase64)
	default:
		t.Fatal("no TRANSLATE_IMAGE sent")
	}
	assert.False(t, script.Overlay.Mounted())
}

func TestOverlayCancelled(t *testing.T) {
	bus, script := setup(t, cancelSelector{})
	received := inbox(t, bus, nil)

	send(t, bus, messaging.New(messaging.MountOverlay{RawImage: "data:image/png;base64,AA=="}))
	script.Overlay.Wait()
	assert.Empty(t, received)
}

func TestDuplicateRegistrationFails(t *testing.T) {
	bus, script := setup(t, nil)
	assert.ErrorIs(t, script.Router.Register(bus), messaging.ErrAlreadyListening)
}

type statusRecorder struct {
	metrics.Noop
	statuses chan string
}

func (r statusRecorder) RecordRouterMessage(_, action, status string) {
	r.statuses <- action + "=" + status
}

// Every action is either handled here or deliberately left to the
// background context.
func TestEveryActionHasAnOwner(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := messaging.NewBus(logger)
	t.Cleanup(bus.Close)
	inbox(t, bus, nil)

	rec := statusRecorder{statuses: make(chan string, 1)}
	script := content.NewScript(bus, tabID, cancelSelector{}, rec, logger)
	require.NoError(t, script.Router.Register(bus))

	view := messaging.TranslationView{ID: "v", Original: []messaging.SegmentView{}, Translated: []messaging.SegmentView{}, CreatedAt: time.Now()}
	samples := map[messaging.Action]messaging.Payload{
		messaging.ActionMountOverlay:          messaging.MountOverlay{RawImage: "data:image/png;base64,AA=="},
		messaging.ActionTranslateImage:        messaging.TranslateImage{ImageBase64: "data:image/png;base64,AA=="},
		messaging.ActionShowResult:            messaging.ShowResult{OriginalText: messaging.TextContents{Contents: []messaging.LanguageText{}}, TranslatedText: messaging.TextContents{Contents: []messaging.LanguageText{}}},
		messaging.ActionMountTranslationModal: messaging.MountTranslationModal{TranslationView: view},
		messaging.ActionThemeChanged:          messaging.ThemeChanged{Theme: "dark"},
		messaging.ActionStartOverlay:          messaging.StartOverlay{},
		messaging.ActionMountHistoryModal:     messaging.MountHistoryModal{TranslationView: view},
		messaging.ActionShowToast:             messaging.ShowToast{Type: messaging.ToastInfo, Message: "m"},
		messaging.ActionDismissToast:          messaging.DismissToast{ID: "x"},
		messaging.ActionPing:                  messaging.Ping{},
		messaging.ActionPong:                  messaging.Pong{},
	}
	ignored := map[messaging.Action]bool{
		messaging.ActionTranslateImage:    true,
		messaging.ActionShowResult:        true,
		messaging.ActionStartOverlay:      true,
		messaging.ActionMountHistoryModal: true,
		messaging.ActionPong:              true,
	}

	for _, action := range messaging.Actions() {
		payload, ok := samples[action]
		require.True(t, ok, "no sample for %s", action)
		send(t, bus, messaging.New(payload))

		want := metrics.StatusSuccess
		if ignored[action] {
			want = metrics.StatusIgnored
		}
		assert.Equal(t, string(action)+"="+want, <-rec.statuses)
	}
	script.Overlay.Wait()
}
