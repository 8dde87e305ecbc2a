package goAuthClient

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/MrEthical07/goAuthClient/authflow"
)

// EventKind names an auth lifecycle event.
type EventKind string

const (
	EventSignInCompleted   EventKind = "sign_in_completed"
	EventSignUpCompleted   EventKind = "sign_up_completed"
	EventSessionStatusSkew EventKind = "session_status_skew"
	EventSignedOut         EventKind = "signed_out"
	EventClientReplaced    EventKind = "client_replaced"
)

// Event is published on the EventBus. SignIn and SignUp are shared snapshots
// and must be treated as read-only.
type Event struct {
	Kind          EventKind        `json:"kind"`
	Time          time.Time        `json:"time"`
	ClientID      string           `json:"client_id,omitempty"`
	SessionID     string           `json:"session_id,omitempty"`
	SessionStatus string           `json:"session_status,omitempty"`
	SignIn        *authflow.SignIn `json:"sign_in,omitempty"`
	SignUp        *authflow.SignUp `json:"sign_up,omitempty"`
	Message       string           `json:"message,omitempty"`

	seq uint64
}

type EventSink interface {
	Emit(ctx context.Context, event Event)
}

type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink forwards events to a channel. While the channel is full Emit
// waits, which backs up only this sink: the bus drops further events for it
// once its queue of Events.SubscriberBuffer fills.
type ChannelSink struct {
	events chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan Event, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(ctx context.Context, event Event) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
