package sink

import (
	"context"

	"github.com/anyclick/anyclick/capture"
)

// PayloadFunc is called for each capture (in-process, zero
// serialisation).
type PayloadFunc func(ctx context.Context, p capture.Payload) error

// Callback delivers captures via Go function calls, for embedding the
// session in a host binary that consumes payloads directly.
type Callback struct {
	onPayload PayloadFunc
}

// NewCallback creates a Callback sink. The handler may be nil.
func NewCallback(onPayload PayloadFunc) *Callback {
	return &Callback{onPayload: onPayload}
}

func (c *Callback) Send(ctx context.Context, p capture.Payload) error {
	if c.onPayload != nil {
		return c.onPayload(ctx, p)
	}
	return nil
}

func (c *Callback) Close() error { return nil }
