// Package sink defines output backends for captured payloads.
package sink

import (
	"context"

	"github.com/anyclick/anyclick/capture"
)

// Sink is the output interface. Implementations deliver captures to
// different backends (stdout, webhook, in-process callback).
type Sink interface {
	Send(ctx context.Context, p capture.Payload) error
	Close() error
}
