package stream

import (
	"context"

	"greenbowl/tracker"
)

// Handler receives decoded status updates from a live source.
type Handler func(tracker.StatusUpdate)

// Source is one live status feed for a single order. The order service and
// the delivery service are two instances of this interface; the Listener
// decides which one is authoritative at any moment.
type Source interface {
	// Run connects and delivers decoded updates to h until the stream ends.
	// A nil return means clean shutdown (context cancelled); any error means
	// the connection was lost and the caller may retry.
	Run(ctx context.Context, orderID string, h Handler) error

	// Name identifies the source in logs ("order", "delivery").
	Name() string
}
