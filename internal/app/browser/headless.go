// Package browser is a headless stand-in for the browser APIs the
// background context needs: tabs are bus endpoints, a capture reads an image
// file and injection starts a content script for the tab.
package browser

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/spounge-ai/rosetta/internal/app/content"
	"github.com/spounge-ai/rosetta/internal/infra/config"
	"github.com/spounge-ai/rosetta/internal/infra/metrics"
	"github.com/spounge-ai/rosetta/internal/messaging"
)

var (
	ErrUnknownTab = errors.New("no tab with id")
	ErrNoTabs     = errors.New("no tab is open")
	ErrNotAnImage = errors.New("capture file is not an image")
)

const (
	blankWidth  = 320
	blankHeight = 180
	jpegQuality = 85
)

type Headless struct {
	bus      *messaging.Bus
	capture  string
	selector content.Selector
	recorder metrics.Recorder
	logger   *slog.Logger

	mu      sync.Mutex
	tabs    []int
	nextID  int
	active  int
	scripts map[int]*content.Script
}

type Option func(*Headless)

// WithSelector replaces the full frame selection of injected scripts.
func WithSelector(s content.Selector) Option {
	return func(h *Headless) { h.selector = s }
}

func WithRecorder(r metrics.Recorder) Option {
	return func(h *Headless) { h.recorder = r }
}

// NewHeadless opens cfg.Tabs tabs and focuses the first one. None of them
// runs a content script until it is injected.
func NewHeadless(bus *messaging.Bus, cfg config.BrowserConfig, logger *slog.Logger, opts ...Option) *Headless {
	h := &Headless{
		bus:      bus,
		capture:  cfg.CaptureFile,
		selector: content.FullFrame{},
		recorder: metrics.Noop{},
		logger:   logger.With("component", "browser"),
		nextID:   1,
		scripts:  make(map[int]*content.Script),
	}
	for _, opt := range opts {
		opt(h)
	}
	for range cfg.Tabs {
		h.OpenTab()
	}
	return h
}

// OpenTab creates a tab and focuses it if nothing else is focused.
func (h *Headless) OpenTab() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	h.tabs = append(h.tabs, id)
	if h.active == 0 {
		h.active = id
	}
	return id
}

// CloseTab removes the tab and its content script. Focus moves to the
// first remaining tab.
func (h *Headless) CloseTab(id int) error {
	h.mu.Lock()
	i := slices.Index(h.tabs, id)
	if i < 0 {
		h.mu.Unlock()
		return fmt.Errorf("%w %d", ErrUnknownTab, id)
	}
	h.tabs = slices.Delete(h.tabs, i, i+1)
	script := h.scripts[id]
	delete(h.scripts, id)
	if h.active == id {
		h.active = 0
		if len(h.tabs) > 0 {
			h.active = h.tabs[0]
		}
	}
	h.mu.Unlock()

	h.bus.Unlisten(messaging.Tab(id))
	if script != nil {
		script.Overlay.Wait()
	}
	return nil
}

func (h *Headless) Activate(id int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !slices.Contains(h.tabs, id) {
		return fmt.Errorf("%w %d", ErrUnknownTab, id)
	}
	h.active = id
	return nil
}

func (h *Headless) Tabs() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.tabs)
}

func (h *Headless) ActiveTab(context.Context) (int, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active, h.active != 0, nil
}

// Script returns the content script running in a tab.
func (h *Headless) Script(tabID int) (*content.Script, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.scripts[tabID]
	return s, ok
}

// InjectContentScript starts a content script in the tab. Injecting into a
// tab that already runs one is a no-op.
func (h *Headless) InjectContentScript(_ context.Context, tabID int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !slices.Contains(h.tabs, tabID) {
		return fmt.Errorf("%w %d", ErrUnknownTab, tabID)
	}
	if _, running := h.scripts[tabID]; running {
		return nil
	}

	script := content.NewScript(h.bus, tabID, h.selector, h.recorder, h.logger)
	if err := script.Router.Register(h.bus); err != nil {
		return fmt.Errorf("failed to start content script in tab %d: %w", tabID, err)
	}
	h.scripts[tabID] = script
	h.logger.Debug("content script injected", "tab_id", tabID)
	return nil
}

// CaptureVisibleTab returns the configured capture file as a data URL, or
// a blank JPEG frame when no file is configured. A file whose content does
// not sniff as an image is an error.
func (h *Headless) CaptureVisibleTab(context.Context) (string, error) {
	h.mu.Lock()
	active := h.active
	h.mu.Unlock()
	if active == 0 {
		return "", ErrNoTabs
	}

	if h.capture == "" {
		return blankFrame()
	}
	data, err := os.ReadFile(h.capture)
	if err != nil {
		return "", fmt.Errorf("failed to read capture file: %w", err)
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("%w: %s is %s", ErrNotAnImage, h.capture, mime)
	}
	return dataURL(mime, data), nil
}

// Wait blocks until every content script has finished its selections.
func (h *Headless) Wait() {
	h.mu.Lock()
	scripts := make([]*content.Script, 0, len(h.scripts))
	for _, s := range h.scripts {
		scripts = append(scripts, s)
	}
	h.mu.Unlock()

	for _, s := range scripts {
		s.Overlay.Wait()
	}
}

func blankFrame() (string, error) {
	img := image.NewRGBA(image.Rect(0, 0, blankWidth, blankHeight))
	for y := range blankHeight {
		for x := range blankWidth {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("failed to encode blank frame: %w", err)
	}
	return dataURL("image/jpeg", buf.Bytes()), nil
}

func dataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
