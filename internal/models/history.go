package models

import (
	"fmt"
	"time"
)

// HistoryEntry is the append-only record of a finalized round
type HistoryEntry struct {
	ID           int64
	RoundID      string
	RoundNumber  int64
	Team         string
	InitiatorID  string
	TeaMakerID   string
	CancelReason CancelReason
	FinalizedAt  time.Time
}

// Label returns the display name used in history tables
func (h *HistoryEntry) Label() string {
	return fmt.Sprintf("Round #%d", h.RoundNumber)
}

// Completed reports whether the round ended with a tea-maker
func (h *HistoryEntry) Completed() bool {
	return h.TeaMakerID != ""
}

// Outcome describes the result in one short phrase
func (h *HistoryEntry) Outcome() string {
	switch {
	case h.Completed():
		return "tea made by " + h.TeaMakerID
	case h.CancelReason == CancelReasonTimeout:
		return "canceled: timeout"
	case h.CancelReason == CancelReasonNoParticipants:
		return "canceled: no participants"
	default:
		return "unknown"
	}
}

// Notification is a message delivered to a user's in-app inbox
type Notification struct {
	ID        int64
	UserID    string
	Kind      string
	RoundID   string
	Body      string
	CreatedAt time.Time
}
