// Package events publishes domain events after successful writes. Events are
// outbound notifications only; nothing in todoshare consumes them.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type names an event. The NATS subject is "<prefix>.<type>".
type Type string

const (
	ListCreated      Type = "list.created"
	ListRenamed      Type = "list.renamed"
	ListDeleted      Type = "list.deleted"
	ParticipantAdded Type = "participant.added"
	ParticipantLeft  Type = "participant.left"
	TaskCreated      Type = "task.created"
	TaskUpdated      Type = "task.updated"
	TaskToggled      Type = "task.toggled"
	TaskDeleted      Type = "task.deleted"
)

// Event is the JSON payload of a published event.
type Event struct {
	ID      string    `json:"id"`
	Type    Type      `json:"type"`
	ListID  string    `json:"listId"`
	TaskID  string    `json:"taskId,omitempty"`
	ActorID string    `json:"actorId"`
	At      time.Time `json:"at"`
}

// New stamps a new event with a fresh id.
func New(t Type, actorID, listID, taskID string, at time.Time) Event {
	return Event{ID: uuid.NewString(), Type: t, ListID: listID, TaskID: taskID, ActorID: actorID, At: at}
}

// Publisher sends events somewhere.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop discards events.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Event) error { return nil }

// Close implements Publisher.
func (Nop) Close() error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event

	// Err, when set, is returned by Publish after recording.
	Err error
}

// Publish implements Publisher.
func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.Err
}

// Close implements Publisher.
func (r *Recorder) Close() error { return nil }

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types returns the recorded event types in order.
func (r *Recorder) Types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Type, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}
