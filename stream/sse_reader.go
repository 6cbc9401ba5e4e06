package stream

import (
	"bufio"
	"io"
	"strings"
)

// RawEvent is a single SSE frame off the wire.
type RawEvent struct {
	Event string
	Data  string
	ID    string
}

// Reader parses text/event-stream frames from an io.Reader.
type Reader struct {
	scanner *bufio.Scanner
}

// NewReader wraps r in an SSE frame reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// Next blocks until a complete frame is available and returns it.
// io.EOF marks the end of the stream.
func (r *Reader) Next() (RawEvent, error) {
	var ev RawEvent
	var dataParts []string
	hasFields := false

	for r.scanner.Scan() {
		line := r.scanner.Text()

		// Blank line dispatches the accumulated frame.
		if line == "" {
			if hasFields {
				ev.Data = strings.Join(dataParts, "\n")
				return ev, nil
			}
			continue
		}

		// Comment / keepalive lines.
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value := line, ""
		if idx := strings.Index(line, ":"); idx >= 0 {
			field = line[:idx]
			value = strings.TrimPrefix(line[idx+1:], " ")
		}

		switch field {
		case "event":
			ev.Event = value
			hasFields = true
		case "data":
			dataParts = append(dataParts, value)
			hasFields = true
		case "id":
			ev.ID = value
			hasFields = true
		}
	}

	if err := r.scanner.Err(); err != nil {
		return RawEvent{}, err
	}

	// Stream ended mid-frame: dispatch what we have.
	if hasFields {
		ev.Data = strings.Join(dataParts, "\n")
		return ev, nil
	}

	return RawEvent{}, io.EOF
}
