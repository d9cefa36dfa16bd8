// Package imaging acquires element images from a page and uploads them.
// Acquisition degrades through tiers because browser security rules make
// no single method work for every source: data URLs are self-contained,
// blob URLs only resolve in their document, same-origin assets can be
// fetched in page context, and cross-origin assets may need a screenshot
// crop or a server-side fetch.
package imaging

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/anyclick/anyclick/capture"
)

// PageFetcher reads image bytes from inside the page. Implemented by
// the bridge.
type PageFetcher interface {
	FetchDataURL(ctx context.Context, src string, withCredentials bool) (string, error)
	ReadBlob(ctx context.Context, src string) (string, error)
}

// Screenshotter captures the visible viewport as PNG. Implemented by
// the bridge.
type Screenshotter interface {
	Screenshot(ctx context.Context) ([]byte, error)
}

// Sender delivers acquired images to the upload endpoint. Implemented
// by Uploader.
type Sender interface {
	SendDataURL(ctx context.Context, dataURL, filename string) (string, error)
	SendFile(ctx context.Context, data []byte, filename string) (string, error)
	SendURL(ctx context.Context, src, filename string) (string, error)
}

// Request identifies the image to acquire and where it sits on screen.
type Request struct {
	Src           string
	PageURL       string
	Rect          capture.Rect
	ViewportWidth float64
}

// Pipeline runs the acquisition ladder and uploads the result.
type Pipeline struct {
	fetcher PageFetcher
	shooter Screenshotter
	sender  Sender
	logger  *slog.Logger
	now     func() time.Time
}

// PipelineConfig for creating a Pipeline.
type PipelineConfig struct {
	Fetcher PageFetcher
	Shooter Screenshotter
	Sender  Sender
	Logger  *slog.Logger
}

// NewPipeline creates a Pipeline.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Pipeline{
		fetcher: cfg.Fetcher,
		shooter: cfg.Shooter,
		sender:  cfg.Sender,
		logger:  cfg.Logger,
		now:     time.Now,
	}
}

// Upload acquires the image and posts it, returning a result suitable
// for surfacing to the user. It never returns an error: failures are
// folded into the result.
func (p *Pipeline) Upload(ctx context.Context, req Request) capture.UploadResult {
	filename := Filename(req.Src, req.PageURL, p.now())

	switch {
	case strings.HasPrefix(req.Src, "data:"):
		return p.finish(p.sender.SendDataURL(ctx, req.Src, filename))

	case strings.HasPrefix(req.Src, "blob:"):
		dataURL, err := p.fetcher.ReadBlob(ctx, req.Src)
		if err != nil {
			// Blob URLs cannot be reacquired outside the page, so
			// there is no further tier to try.
			p.logger.Warn("imaging: blob read failed", "src", req.Src, "error", err)
			return capture.UploadResult{Error: "Failed to access blob URL"}
		}
		return p.finish(p.sender.SendDataURL(ctx, dataURL, filename))

	case strings.HasPrefix(req.Src, "http:"), strings.HasPrefix(req.Src, "https:"):
		if sameOrigin(req.Src, req.PageURL) {
			return p.sameOriginLadder(ctx, req, filename)
		}
		return p.crossOriginLadder(ctx, req, filename)

	default:
		return capture.UploadResult{Error: "unsupported image source"}
	}
}

func (p *Pipeline) sameOriginLadder(ctx context.Context, req Request, filename string) capture.UploadResult {
	dataURL, err := p.fetcher.FetchDataURL(ctx, req.Src, false)
	if err == nil {
		return p.finish(p.sender.SendDataURL(ctx, dataURL, filename))
	}
	p.logger.Debug("imaging: page fetch failed, delegating to endpoint",
		"src", req.Src, "error", err)
	return p.finish(p.sender.SendURL(ctx, req.Src, filename))
}

func (p *Pipeline) crossOriginLadder(ctx context.Context, req Request, filename string) capture.UploadResult {
	dataURL, err := p.fetcher.FetchDataURL(ctx, req.Src, true)
	if err == nil {
		return p.finish(p.sender.SendDataURL(ctx, dataURL, filename))
	}
	p.logger.Debug("imaging: credentialed fetch failed, trying screenshot",
		"src", req.Src, "error", err)

	if shot, shotErr := p.shooter.Screenshot(ctx); shotErr == nil {
		if cropped, cropErr := Crop(shot, req.Rect, req.ViewportWidth); cropErr == nil {
			return p.finish(p.sender.SendFile(ctx, cropped, filename))
		} else {
			p.logger.Debug("imaging: crop failed", "error", cropErr)
		}
	} else {
		p.logger.Debug("imaging: screenshot failed", "error", shotErr)
	}

	return p.finish(p.sender.SendURL(ctx, req.Src, filename))
}

func (p *Pipeline) finish(uploadedURL string, err error) capture.UploadResult {
	if err != nil {
		p.logger.Warn("imaging: upload failed", "error", err)
		return capture.UploadResult{Error: err.Error()}
	}
	return capture.UploadResult{Success: true, URL: uploadedURL}
}

func sameOrigin(a, b string) bool {
	ua, errA := url.Parse(a)
	ub, errB := url.Parse(b)
	if errA != nil || errB != nil {
		return false
	}
	return ua.Scheme == ub.Scheme && ua.Host == ub.Host
}
