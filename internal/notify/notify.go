// Package notify delivers round events to users.
//
// The engine emits structured messages (kind plus payload). Sinks decide how a
// message reaches a person: an in-app inbox, email through SES, or the log.
// Delivery is best-effort; callers log failures and carry on.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"

	"tearound/internal/models"
)

// Kind identifies the event a message reports
type Kind string

const (
	KindInvitationsSent    Kind = "InvitationsSent"
	KindInvitationAccepted Kind = "InvitationAccepted"
	KindTeaMakerChosen     Kind = "TeaMakerChosen"
	KindRoundCanceled      Kind = "RoundCanceled"
)

// Message is the structured payload handed to a Sink
type Message struct {
	Kind        Kind
	RoundID     string
	RoundNumber int64
	InitiatorID string
	// UserID is the subject of the event: the accepting invitee or the chosen tea-maker
	UserID string
	Reason models.CancelReason
}

// Sink delivers a message to one user
type Sink interface {
	Notify(ctx context.Context, userID string, msg Message) error
}

// DeliveryError reports a failed delivery to one recipient
type DeliveryError struct {
	UserID string
	Kind   Kind
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("failed to deliver %s to %s: %v", e.Kind, e.UserID, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Fanout delivers every message to all sinks, attempting each even when one fails
type Fanout []Sink

func (f Fanout) Notify(ctx context.Context, userID string, msg Message) error {
	var errs []error
	for _, sink := range f {
		if err := sink.Notify(ctx, userID, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogSink writes messages to the standard logger
type LogSink struct{}

func (LogSink) Notify(_ context.Context, userID string, msg Message) error {
	log.Printf("Notify %s [%s] round=%s: %s", userID, msg.Kind, msg.RoundID, Render(msg, userID))
	return nil
}
