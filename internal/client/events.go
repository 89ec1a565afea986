package client

import (
	"encoding/json"

	"github.com/coder/websocket"
	"github.com/speechbubble/botkit/internal/state"
)

// Lifecycle event names. Chat-domain events are named after their
// sub-command (said, joined, channel_updated, ...).
const (
	EventConnecting = "connecting"
	EventConnect    = "connect"
	EventClose      = "close"
	EventError      = "error"
	EventLogin      = "login"
)

// Event is one notification delivered to observers.
type Event struct {
	Name string

	// Data is the raw payload of a chat-domain sub-command.
	Data json.RawMessage

	// Chat is set for said events, enriched by the replica.
	Chat *state.ChatMessage

	// Code and Reason are set for close events.
	Code   websocket.StatusCode
	Reason string

	// Err is set for error events.
	Err error
}

// emitter fans events out to observers: per-name listeners, plus a
// firehose tier that sees every chat-domain sub-command.
type emitter struct {
	specific map[string][]func(Event)
	firehose []func(Event)
}

func newEmitter() *emitter {
	return &emitter{specific: make(map[string][]func(Event))}
}

func (e *emitter) on(name string, fn func(Event)) {
	e.specific[name] = append(e.specific[name], fn)
}

func (e *emitter) onAny(fn func(Event)) {
	e.firehose = append(e.firehose, fn)
}

func (e *emitter) emit(ev Event) {
	for _, fn := range e.specific[ev.Name] {
		fn(ev)
	}
}

// emitDomain republishes a chat-domain event twice: to the firehose
// and to listeners registered under the sub-command's own name.
func (e *emitter) emitDomain(ev Event) {
	for _, fn := range e.firehose {
		fn(ev)
	}
	e.emit(ev)
}
