package imaging

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/anyclick/anyclick/capture"
)

type fakeFetcher struct {
	fetchResult string
	fetchErr    error
	blobResult  string
	blobErr     error

	fetchCalls []bool // withCredentials per call
	blobCalls  int
}

func (f *fakeFetcher) FetchDataURL(_ context.Context, _ string, creds bool) (string, error) {
	f.fetchCalls = append(f.fetchCalls, creds)
	return f.fetchResult, f.fetchErr
}

func (f *fakeFetcher) ReadBlob(_ context.Context, _ string) (string, error) {
	f.blobCalls++
	return f.blobResult, f.blobErr
}

type fakeShooter struct {
	shot []byte
	err  error
	n    int
}

func (s *fakeShooter) Screenshot(context.Context) ([]byte, error) {
	s.n++
	return s.shot, s.err
}

type fakeSender struct {
	url string
	err error

	dataURLs []string
	files    [][]byte
	urls     []string
}

func (s *fakeSender) SendDataURL(_ context.Context, d, _ string) (string, error) {
	s.dataURLs = append(s.dataURLs, d)
	return s.url, s.err
}

func (s *fakeSender) SendFile(_ context.Context, b []byte, _ string) (string, error) {
	s.files = append(s.files, b)
	return s.url, s.err
}

func (s *fakeSender) SendURL(_ context.Context, u, _ string) (string, error) {
	s.urls = append(s.urls, u)
	return s.url, s.err
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func newTestPipeline(f *fakeFetcher, sh *fakeShooter, se *fakeSender) *Pipeline {
	p := NewPipeline(PipelineConfig{Fetcher: f, Shooter: sh, Sender: se})
	p.now = func() time.Time { return time.Date(2026, 4, 2, 10, 30, 0, 0, time.UTC) }
	return p
}

func TestUpload_DataURLForwarded(t *testing.T) {
	se := &fakeSender{url: "https://files.example.com/x.png"}
	f := &fakeFetcher{}
	p := newTestPipeline(f, &fakeShooter{}, se)

	res := p.Upload(context.Background(), Request{
		Src:     "data:image/png;base64,AAAA",
		PageURL: "https://app.example.com/page",
	})
	if !res.Success || res.URL != "https://files.example.com/x.png" {
		t.Fatalf("result: %+v", res)
	}
	if len(se.dataURLs) != 1 || se.dataURLs[0] != "data:image/png;base64,AAAA" {
		t.Errorf("dataUrl not forwarded as-is: %v", se.dataURLs)
	}
	if len(f.fetchCalls) != 0 {
		t.Error("data: source should not hit the page fetcher")
	}
}

func TestUpload_BlobFailureHasNoFallback(t *testing.T) {
	f := &fakeFetcher{blobErr: errors.New("revoked")}
	sh := &fakeShooter{}
	se := &fakeSender{url: "https://files.example.com/x.png"}
	p := newTestPipeline(f, sh, se)

	res := p.Upload(context.Background(), Request{
		Src:     "blob:https://app.example.com/51c1a11b",
		PageURL: "https://app.example.com/page",
	})
	if res.Success {
		t.Fatal("blob failure must not succeed")
	}
	if res.Error != "Failed to access blob URL" {
		t.Errorf("error: got %q", res.Error)
	}
	if sh.n != 0 || len(se.urls) != 0 || len(se.files) != 0 {
		t.Error("blob failure must not fall through to later tiers")
	}
}

func TestUpload_SameOriginFallsBackToServerFetch(t *testing.T) {
	f := &fakeFetcher{fetchErr: errors.New("csp blocked")}
	se := &fakeSender{url: "https://files.example.com/x.png"}
	p := newTestPipeline(f, &fakeShooter{}, se)

	res := p.Upload(context.Background(), Request{
		Src:     "https://app.example.com/hero.jpg",
		PageURL: "https://app.example.com/page",
	})
	if !res.Success {
		t.Fatalf("result: %+v", res)
	}
	if len(f.fetchCalls) != 1 || f.fetchCalls[0] {
		t.Errorf("same-origin fetch should be uncredentialed: %v", f.fetchCalls)
	}
	if len(se.urls) != 1 || se.urls[0] != "https://app.example.com/hero.jpg" {
		t.Errorf("server-fetch tier not used: %v", se.urls)
	}
}

func TestUpload_CrossOriginScreenshotTier(t *testing.T) {
	f := &fakeFetcher{fetchErr: errors.New("cors")}
	sh := &fakeShooter{shot: testPNG(t, 200, 100)}
	se := &fakeSender{url: "https://files.example.com/x.png"}
	p := newTestPipeline(f, sh, se)

	res := p.Upload(context.Background(), Request{
		Src:           "https://cdn.other.com/pic.png",
		PageURL:       "https://app.example.com/page",
		Rect:          capture.Rect{X: 10, Y: 10, Width: 50, Height: 40},
		ViewportWidth: 200,
	})
	if !res.Success {
		t.Fatalf("result: %+v", res)
	}
	if len(f.fetchCalls) != 1 || !f.fetchCalls[0] {
		t.Errorf("cross-origin fetch should be credentialed: %v", f.fetchCalls)
	}
	if sh.n != 1 || len(se.files) != 1 {
		t.Fatalf("screenshot tier not used: shots=%d files=%d", sh.n, len(se.files))
	}

	cropped, err := png.Decode(bytes.NewReader(se.files[0]))
	if err != nil {
		t.Fatalf("decode cropped: %v", err)
	}
	if got := cropped.Bounds(); got.Dx() != 50 || got.Dy() != 40 {
		t.Errorf("crop size: got %dx%d, want 50x40", got.Dx(), got.Dy())
	}
}

func TestUpload_CrossOriginFallsThroughToServerFetch(t *testing.T) {
	f := &fakeFetcher{fetchErr: errors.New("cors")}
	sh := &fakeShooter{err: errors.New("no page")}
	se := &fakeSender{url: "https://files.example.com/x.png"}
	p := newTestPipeline(f, sh, se)

	res := p.Upload(context.Background(), Request{
		Src:     "https://cdn.other.com/pic.png",
		PageURL: "https://app.example.com/page",
	})
	if !res.Success || len(se.urls) != 1 {
		t.Fatalf("server-fetch fallback not used: %+v urls=%v", res, se.urls)
	}
}

func TestUpload_SenderErrorSurfaced(t *testing.T) {
	se := &fakeSender{err: errors.New("imaging: upload: status 500")}
	p := newTestPipeline(&fakeFetcher{}, &fakeShooter{}, se)

	res := p.Upload(context.Background(), Request{Src: "data:image/png;base64,AA"})
	if res.Success || res.Error == "" {
		t.Fatalf("result: %+v", res)
	}
}

func TestCrop_ScalesByActualToLogicalRatio(t *testing.T) {
	// 400px wide shot of a 200px logical viewport: scale factor 2.
	shot := testPNG(t, 400, 200)
	out, err := Crop(shot, capture.Rect{X: 10, Y: 20, Width: 30, Height: 40}, 200)
	if err != nil {
		t.Fatalf("Crop: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := img.Bounds(); got.Dx() != 60 || got.Dy() != 80 {
		t.Errorf("crop size: got %dx%d, want 60x80", got.Dx(), got.Dy())
	}
}

func TestCrop_RectOutsideBounds(t *testing.T) {
	shot := testPNG(t, 100, 100)
	if _, err := Crop(shot, capture.Rect{X: 500, Y: 500, Width: 10, Height: 10}, 100); err == nil {
		t.Fatal("expected error for out-of-bounds rect")
	}
}

func TestFilename(t *testing.T) {
	now := time.Date(2026, 4, 2, 10, 30, 5, 0, time.UTC)
	tests := []struct {
		name    string
		src     string
		pageURL string
		want    string
	}{
		{"sld from image host", "https://cdn.images.example.com/a/b/pic.jpeg", "https://other.com/", "example-2026-04-02t10-30-05.jpeg"},
		{"page host fallback", "data:image/png;base64,AA", "https://app.shop.io/x", "shop-2026-04-02t10-30-05.png"},
		{"unknown ext defaults png", "https://example.com/img.tiff", "", "example-2026-04-02t10-30-05.png"},
		{"hostile chars stripped", "https://ex_a!mple.com/x.png", "", "example-2026-04-02t10-30-05.png"},
		{"nothing parseable", "::::", "::::", "image-2026-04-02t10-30-05.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Filename(tt.src, tt.pageURL, now); got != tt.want {
				t.Errorf("Filename: got %q, want %q", got, tt.want)
			}
		})
	}
}
