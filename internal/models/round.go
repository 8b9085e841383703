package models

import "time"

// RoundState is the lifecycle position of a tea round
type RoundState string

const (
	RoundStatePending           RoundState = "pending"
	RoundStateAwaitingSelection RoundState = "awaiting_selection"
	RoundStateCompleted         RoundState = "completed"
	RoundStateCanceled          RoundState = "canceled"
)

// CancelReason explains why a round ended without a tea-maker
type CancelReason string

const (
	CancelReasonNone           CancelReason = ""
	CancelReasonTimeout        CancelReason = "timeout"
	CancelReasonNoParticipants CancelReason = "no_participants"
)

// InvitationStatus is an invitee's response to a round
type InvitationStatus string

const (
	InvitationStatusInvited  InvitationStatus = "invited"
	InvitationStatusAccepted InvitationStatus = "accepted"
	InvitationStatusDeclined InvitationStatus = "declined"
)

// Round is one instance of the tea ritual, from initiation to a terminal outcome
type Round struct {
	ID           string
	Number       int64 // One sequence for the deployment, not per team; shown as "Round #N"
	Team         string
	InitiatorID  string
	CreatedAt    time.Time
	State        RoundState
	TeaMakerID   string
	CancelReason CancelReason
	FinalizedAt  *time.Time
	Invitations  []InvitationResponse
	Version      int64
}

// InvitationResponse tracks one invitee's answer
type InvitationResponse struct {
	UserID      string
	Status      InvitationStatus
	RespondedAt *time.Time
	// AcceptOrder is 1 for the first acceptance, 2 for the second, and 0 while not accepted
	AcceptOrder int
}

// IsTerminal reports whether the round can no longer change
func (r *Round) IsTerminal() bool {
	return r.State == RoundStateCompleted || r.State == RoundStateCanceled
}

// IsOpen reports whether invitees may still accept
func (r *Round) IsOpen() bool {
	return r.State == RoundStatePending || r.State == RoundStateAwaitingSelection
}

// Invitees returns the invited user IDs in invitation order
func (r *Round) Invitees() []string {
	ids := make([]string, 0, len(r.Invitations))
	for _, inv := range r.Invitations {
		ids = append(ids, inv.UserID)
	}
	return ids
}

// Invitation returns the response record for userID, or nil if the user was never invited
func (r *Round) Invitation(userID string) *InvitationResponse {
	for i := range r.Invitations {
		if r.Invitations[i].UserID == userID {
			return &r.Invitations[i]
		}
	}
	return nil
}

// HasInvitee reports whether userID was invited to the round
func (r *Round) HasInvitee(userID string) bool {
	return r.Invitation(userID) != nil
}

// Clone returns a deep copy so a transition can be prepared without touching the original
func (r *Round) Clone() *Round {
	c := *r
	c.Invitations = make([]InvitationResponse, len(r.Invitations))
	for i, inv := range r.Invitations {
		c.Invitations[i] = inv
		if inv.RespondedAt != nil {
			t := *inv.RespondedAt
			c.Invitations[i].RespondedAt = &t
		}
	}
	if r.FinalizedAt != nil {
		t := *r.FinalizedAt
		c.FinalizedAt = &t
	}
	return &c
}
