// Package background is the privileged context: it owns the translation
// pipeline, talks to the browser and answers messages from tabs.
package background

import "context"

// Browser is the part of the browser API the background context uses.
type Browser interface {
	// ActiveTab returns the focused tab of the current window. ok is false
	// when there is none.
	ActiveTab(ctx context.Context) (tabID int, ok bool, err error)
	// CaptureVisibleTab returns the visible area of the active tab as an
	// image data URL.
	CaptureVisibleTab(ctx context.Context) (string, error)
	InjectContentScript(ctx context.Context, tabID int) error
}
