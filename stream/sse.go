package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"greenbowl/tracker"
)

// SSESource consumes a status feed over server-sent events, the transport
// both upstream services expose by contract.
type SSESource struct {
	name    string
	baseURL string // feed endpoint; the order id is appended as a path segment
	client  *http.Client
}

// NewSSESource creates an SSE-backed source. name is used in logs only.
func NewSSESource(name, baseURL string, client *http.Client) *SSESource {
	if client == nil {
		client = http.DefaultClient
	}
	return &SSESource{name: name, baseURL: baseURL, client: client}
}

func (s *SSESource) Name() string { return s.name }

// Run opens one SSE connection and processes frames until the stream ends or
// ctx is cancelled. Malformed payloads are logged and dropped; they never
// terminate the connection.
func (s *SSESource) Run(ctx context.Context, orderID string, h Handler) error {
	url := s.baseURL + "/" + orderID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%s feed request: %w", s.name, err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("%s feed connect: %w", s.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s feed status %d", s.name, resp.StatusCode)
	}

	reader := NewReader(resp.Body)
	for {
		ev, err := reader.Next()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if err == io.EOF {
				return fmt.Errorf("%s feed closed by server", s.name)
			}
			return fmt.Errorf("%s feed read: %w", s.name, err)
		}

		switch ev.Event {
		case "", "message", "status":
			var u tracker.StatusUpdate
			if err := json.Unmarshal([]byte(ev.Data), &u); err != nil {
				log.Printf("%s feed: drop malformed payload: %v", s.name, err)
				continue
			}
			h(u)
		case "connected":
			// Greeting frame, no payload to apply.
		default:
			// Ignore unknown event types.
		}
	}
}
