package anyclick

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/anyclick/anyclick/internal/config"
	"github.com/anyclick/anyclick/internal/sink"
)

// Sink receives capture payloads. Implementations must be safe for
// concurrent use.
type Sink = sink.Sink

// PayloadFunc adapts a function into a callback sink.
type PayloadFunc = sink.PayloadFunc

// NewStdoutSink writes captures as JSON lines.
func NewStdoutSink(w io.Writer) Sink { return sink.NewStdout(w) }

// NewWebhookSink POSTs captures to a URL with retries. An empty token
// disables the Authorization header.
func NewWebhookSink(url, token string, retries int, logger *slog.Logger) Sink {
	opts := []sink.WebhookOption{sink.WithWebhookLogger(logger)}
	if token != "" {
		opts = append(opts, sink.WithWebhookToken(token))
	}
	if retries > 0 {
		opts = append(opts, sink.WithWebhookRetries(retries))
	}
	return sink.NewWebhook(url, opts...)
}

// NewCallbackSink invokes fn for every capture.
func NewCallbackSink(fn PayloadFunc) Sink { return sink.NewCallback(fn) }

// SinksFromConfig builds sinks from the configuration's sink list.
func SinksFromConfig(cfgs []config.SinkConfig, stdout io.Writer, logger *slog.Logger) ([]Sink, error) {
	var out []Sink
	for _, c := range cfgs {
		switch c.Type {
		case "stdout":
			out = append(out, NewStdoutSink(stdout))
		case "webhook":
			if c.URL == "" {
				return nil, fmt.Errorf("anyclick: webhook sink needs a url")
			}
			out = append(out, NewWebhookSink(c.URL, c.Token, c.Retries, logger))
		default:
			return nil, fmt.Errorf("anyclick: unknown sink type %q", c.Type)
		}
	}
	return out, nil
}
