package imaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"
)

const apiKeyHeader = "x-uploadthing-api-key"

// Uploader posts images to the configured upload endpoint as multipart
// form data. Exactly one of dataUrl, file or url is set per request;
// the endpoint server-fetches when given url.
type Uploader struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   *slog.Logger
}

// UploaderConfig for creating an Uploader.
type UploaderConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
	Logger   *slog.Logger
}

// NewUploader creates an Uploader.
func NewUploader(cfg UploaderConfig) *Uploader {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Uploader{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   cfg.Logger,
	}
}

// SendDataURL uploads an already-encoded data: URL.
func (u *Uploader) SendDataURL(ctx context.Context, dataURL, filename string) (string, error) {
	return u.send(ctx, func(w *multipart.Writer) error {
		return w.WriteField("dataUrl", dataURL)
	}, filename)
}

// SendFile uploads raw image bytes.
func (u *Uploader) SendFile(ctx context.Context, data []byte, filename string) (string, error) {
	return u.send(ctx, func(w *multipart.Writer) error {
		fw, err := w.CreateFormFile("file", filename)
		if err != nil {
			return err
		}
		_, err = fw.Write(data)
		return err
	}, filename)
}

// SendURL asks the endpoint to fetch the image itself. Last resort for
// sources the page context cannot read.
func (u *Uploader) SendURL(ctx context.Context, src, filename string) (string, error) {
	return u.send(ctx, func(w *multipart.Writer) error {
		return w.WriteField("url", src)
	}, filename)
}

func (u *Uploader) send(ctx context.Context, fill func(*multipart.Writer) error, filename string) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := fill(w); err != nil {
		return "", fmt.Errorf("imaging: build form: %w", err)
	}
	if err := w.WriteField("filename", filename); err != nil {
		return "", fmt.Errorf("imaging: build form: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("imaging: close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("imaging: build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	if u.apiKey != "" {
		req.Header.Set(apiKeyHeader, u.apiKey)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("imaging: upload: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("imaging: read upload response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("imaging: upload: status %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}

	var parsed struct {
		URL     string `json:"url"`
		Success *bool  `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("imaging: parse upload response: %w", err)
	}
	if parsed.Success != nil && !*parsed.Success {
		if parsed.Error == "" {
			parsed.Error = "upload rejected"
		}
		return "", fmt.Errorf("imaging: upload: %s", parsed.Error)
	}
	if parsed.URL == "" {
		return "", fmt.Errorf("imaging: upload response missing url")
	}
	return parsed.URL, nil
}
