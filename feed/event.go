// Package feed fans newly appended operations out to the owner's open
// Server-Sent Events streams.
package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Event is one Server-Sent Event. Data is written as a single "data:" line,
// so it must not contain newlines; JSON from NewEvent never does.
type Event struct {
	ID   string
	Name string
	Data []byte
}

// NewEvent builds an event whose data is the compact JSON encoding of v.
func NewEvent(id, name string, v any) (Event, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Event{}, fmt.Errorf("failed to encode %s event: %w", name, err)
	}
	return Event{ID: id, Name: name, Data: data}, nil
}

// WriteTo writes the event in text/event-stream framing.
func (e Event) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	if e.ID != "" {
		fmt.Fprintf(&buf, "id: %s\n", e.ID)
	}
	if e.Name != "" {
		fmt.Fprintf(&buf, "event: %s\n", e.Name)
	}
	buf.WriteString("data: ")
	buf.Write(e.Data)
	buf.WriteString("\n\n")
	return buf.WriteTo(w)
}
