package strategy

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/backmassage/motionbench/internal/motion"
)

// EventKind classifies one console event.
type EventKind string

const (
	EventStart  EventKind = "start"  // A worker began a stream.
	EventMotion EventKind = "motion" // One detection line.
	EventError  EventKind = "error"  // The stream failed.
	EventDone   EventKind = "done"   // Per-stream summary; never printed.
)

// Event is one message between a worker and the console. Over a result
// channel it travels as a single line: kind, then the quoted stream ID and
// text, then the summary counters for EventDone.
type Event struct {
	Kind     EventKind
	StreamID string
	Text     string
	Summary  motion.Summary // EventDone only.
	Failed   bool           // EventDone only.
}

func startEvent(id string) Event {
	return Event{Kind: EventStart, StreamID: id, Text: motion.StartMessage(id)}
}

func motionEvent(id, line string) Event {
	return Event{Kind: EventMotion, StreamID: id, Text: line}
}

func errorEvent(id string, err error) Event {
	return Event{Kind: EventError, StreamID: id, Text: err.Error()}
}

func doneEvent(id string, o outcome) Event {
	return Event{Kind: EventDone, StreamID: id, Summary: o.Summary, Failed: o.Err != nil}
}

// Encode renders e as a single line without a trailing newline.
func (e Event) Encode() string {
	var sb strings.Builder
	sb.WriteString(string(e.Kind))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Quote(e.StreamID))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Quote(e.Text))
	if e.Kind == EventDone {
		s := e.Summary
		fmt.Fprintf(&sb, " %d %d %d %d %d %t", s.Frames, s.Results, s.MotionFrames, s.Regions, s.Bytes, e.Failed)
	}
	return sb.String()
}

// DecodeEvent parses a line produced by Encode.
func DecodeEvent(line string) (Event, error) {
	kind, rest, ok := strings.Cut(line, " ")
	if !ok {
		return Event{}, fmt.Errorf("malformed event %q", line)
	}
	e := Event{Kind: EventKind(kind)}
	switch e.Kind {
	case EventStart, EventMotion, EventError, EventDone:
	default:
		return Event{}, fmt.Errorf("unknown event kind %q", kind)
	}

	var err error
	if e.StreamID, rest, err = unquoteField(rest); err != nil {
		return Event{}, fmt.Errorf("event stream id: %w", err)
	}
	if e.Text, rest, err = unquoteField(rest); err != nil {
		return Event{}, fmt.Errorf("event text: %w", err)
	}
	if e.Kind != EventDone {
		return e, nil
	}

	s := &e.Summary
	if _, err := fmt.Sscanf(rest, "%d %d %d %d %d %t",
		&s.Frames, &s.Results, &s.MotionFrames, &s.Regions, &s.Bytes, &e.Failed); err != nil {
		return Event{}, fmt.Errorf("event summary %q: %w", rest, err)
	}
	return e, nil
}

func unquoteField(s string) (field, rest string, err error) {
	s = strings.TrimLeft(s, " ")
	q, err := strconv.QuotedPrefix(s)
	if err != nil {
		return "", "", err
	}
	field, err = strconv.Unquote(q)
	return field, strings.TrimLeft(s[len(q):], " "), err
}
