package stream

import (
	"io"
	"strings"
	"testing"
)

func TestReaderBasicEvent(t *testing.T) {
	r := NewReader(strings.NewReader("event: status\ndata: {\"orderStatus\":\"pending\"}\n\n"))

	ev, err := r.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Event != "status" {
		t.Errorf("event = %q, want %q", ev.Event, "status")
	}
	if ev.Data != `{"orderStatus":"pending"}` {
		t.Errorf("data = %q", ev.Data)
	}

	if _, err := r.Next(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestReaderMultiLineData(t *testing.T) {
	r := NewReader(strings.NewReader("data: line1\ndata: line2\n\n"))

	ev, err := r.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Data != "line1\nline2" {
		t.Errorf("data = %q, want %q", ev.Data, "line1\nline2")
	}
}

func TestReaderCommentsIgnored(t *testing.T) {
	r := NewReader(strings.NewReader(": keepalive\nevent: status\ndata: x\n: trailing\n\n"))

	ev, err := r.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Event != "status" || ev.Data != "x" {
		t.Errorf("event=%q data=%q", ev.Event, ev.Data)
	}
}

func TestReaderMultipleEvents(t *testing.T) {
	r := NewReader(strings.NewReader("data: 1\n\nid: 7\ndata: 2\n\n"))

	ev1, err := r.Next()
	if err != nil {
		t.Fatalf("event 1 error: %v", err)
	}
	ev2, err := r.Next()
	if err != nil {
		t.Fatalf("event 2 error: %v", err)
	}
	if ev1.Data != "1" || ev2.Data != "2" || ev2.ID != "7" {
		t.Errorf("ev1=%+v ev2=%+v", ev1, ev2)
	}
}

func TestReaderNoSpaceAfterColon(t *testing.T) {
	r := NewReader(strings.NewReader("event:status\ndata:v\n\n"))

	ev, err := r.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Event != "status" || ev.Data != "v" {
		t.Errorf("event=%q data=%q", ev.Event, ev.Data)
	}
}

func TestReaderEOFWithPendingEvent(t *testing.T) {
	// Stream cut mid-frame: the accumulated fields still dispatch.
	r := NewReader(strings.NewReader("event: status\ndata: last"))

	ev, err := r.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Event != "status" || ev.Data != "last" {
		t.Errorf("event=%q data=%q", ev.Event, ev.Data)
	}
}

func TestReaderEmptyStream(t *testing.T) {
	r := NewReader(strings.NewReader(""))
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}

	r = NewReader(strings.NewReader("\n\n"))
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("expected io.EOF on blank-only stream, got %v", err)
	}
}
