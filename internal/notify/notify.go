// Package notify delivers interview events to the parties involved. Delivery
// is best-effort: callers log failures and move on.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/interview-scheduler/internal/scheduling"
)

// EventType names an interview event on the wire.
type EventType string

// EventType constants
const (
	EventScheduled   EventType = "interview_scheduled"
	EventConfirmed   EventType = "interview_confirmed"
	EventRescheduled EventType = "interview_rescheduled"
	EventCancelled   EventType = "interview_cancelled"
	EventStarted     EventType = "interview_started"
	EventCompleted   EventType = "interview_completed"
)

// Event is pushed to a single party.
type Event struct {
	Type      EventType            `json:"type"`
	Interview scheduling.Interview `json:"interview"`
	Message   string               `json:"message,omitempty"`
	ActorRole scheduling.PartyRole `json:"actor_role,omitempty"`
	Reason    string               `json:"reason,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

// Notifier pushes an event to one party.
type Notifier interface {
	Notify(ctx context.Context, partyID uuid.UUID, ev Event) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, partyID uuid.UUID, ev Event) error

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, partyID uuid.UUID, ev Event) error {
	return f(ctx, partyID, ev)
}

// Multi fans an event out to every notifier and joins their errors.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, partyID uuid.UUID, ev Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, partyID, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every event.
var Discard Notifier = NotifierFunc(func(context.Context, uuid.UUID, Event) error { return nil })
