package stream

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"greenbowl/tracker"
)

// feed writes SSE frames for each queued payload, then either closes or
// blocks until the client goes away.
func feedServer(t *testing.T, payloads []string, blockAfter bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Fatal("httptest server does not support flushing")
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, p := range payloads {
			fmt.Fprintf(w, "event: status\ndata: %s\n\n", p)
			flusher.Flush()
		}
		if blockAfter {
			<-r.Context().Done()
		}
	}))
}

func TestSSESourceDeliversUpdates(t *testing.T) {
	srv := feedServer(t, []string{
		`{"orderStatus":"accepted","estimatedTime":"30 min"}`,
		`{"orderStatus":"preparing"}`,
	}, false)
	defer srv.Close()

	src := NewSSESource("order", srv.URL+"/api/order-events", srv.Client())

	var got []tracker.StatusUpdate
	err := src.Run(context.Background(), "ord-1", func(u tracker.StatusUpdate) {
		got = append(got, u)
	})
	if err == nil {
		t.Fatal("expected error when server closes the stream")
	}
	if len(got) != 2 {
		t.Fatalf("updates = %d, want 2", len(got))
	}
	if got[0].OrderStatus != "accepted" || got[0].EstimatedTime != "30 min" {
		t.Errorf("first update = %+v", got[0])
	}
	if got[1].OrderStatus != "preparing" {
		t.Errorf("second update = %+v", got[1])
	}
}

func TestSSESourceDropsMalformedPayload(t *testing.T) {
	srv := feedServer(t, []string{
		`{not json`,
		`{"deliveryStatus":"assigned"}`,
	}, false)
	defer srv.Close()

	src := NewSSESource("delivery", srv.URL+"/api/delivery-events", srv.Client())

	var got []tracker.StatusUpdate
	_ = src.Run(context.Background(), "ord-1", func(u tracker.StatusUpdate) {
		got = append(got, u)
	})
	if len(got) != 1 {
		t.Fatalf("updates = %d, want only the valid one", len(got))
	}
	if got[0].DeliveryStatus != "assigned" {
		t.Errorf("update = %+v", got[0])
	}
}

func TestSSESourceCleanCancel(t *testing.T) {
	srv := feedServer(t, []string{`{"orderStatus":"pending"}`}, true)
	defer srv.Close()

	src := NewSSESource("order", srv.URL+"/api/order-events", srv.Client())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- src.Run(ctx, "ord-1", func(u tracker.StatusUpdate) {
			cancel()
		})
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("cancelled run returned %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("source did not shut down after cancel")
	}
}

func TestSSESourceBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	src := NewSSESource("order", srv.URL+"/api/order-events", srv.Client())
	err := src.Run(context.Background(), "ord-1", func(tracker.StatusUpdate) {})
	if err == nil {
		t.Fatal("expected error on non-200 response")
	}
}
