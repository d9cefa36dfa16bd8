package inspect

import (
	"time"

	"github.com/anyclick/anyclick/capture"
	"github.com/anyclick/anyclick/internal/dom"
)

// Page builds an immutable PageContext snapshot from shim-reported page
// info. Taken once per capture.
func Page(info dom.PageInfo, now time.Time) capture.PageContext {
	return capture.PageContext{
		URL:      info.URL,
		Title:    info.Title,
		Referrer: info.Referrer,
		Viewport: capture.Viewport{
			Width:  info.ViewportWidth,
			Height: info.ViewportHeight,
		},
		Screen: capture.Viewport{
			Width:  info.ScreenWidth,
			Height: info.ScreenHeight,
		},
		UserAgent: info.UserAgent,
		Timestamp: now.UTC().Format(time.RFC3339),
	}
}
