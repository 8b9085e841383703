package models

import (
	"testing"
	"time"
)

func TestRoundIsTerminal(t *testing.T) {
	tests := []struct {
		name  string
		state RoundState
		want  bool
		open  bool
	}{
		{name: "pending", state: RoundStatePending, want: false, open: true},
		{name: "awaiting selection", state: RoundStateAwaitingSelection, want: false, open: true},
		{name: "completed", state: RoundStateCompleted, want: true, open: false},
		{name: "canceled", state: RoundStateCanceled, want: true, open: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			round := Round{State: tt.state}
			if got := round.IsTerminal(); got != tt.want {
				t.Errorf("Round.IsTerminal() = %v, want %v", got, tt.want)
			}
			if got := round.IsOpen(); got != tt.open {
				t.Errorf("Round.IsOpen() = %v, want %v", got, tt.open)
			}
		})
	}
}

func TestRoundInvitation(t *testing.T) {
	round := Round{
		Invitations: []InvitationResponse{
			{UserID: "m1", Status: InvitationStatusInvited},
			{UserID: "m2", Status: InvitationStatusInvited},
		},
	}

	if inv := round.Invitation("m2"); inv == nil || inv.UserID != "m2" {
		t.Fatalf("Invitation(m2) = %v, want m2 record", inv)
	}
	if round.HasInvitee("stranger") {
		t.Error("HasInvitee(stranger) = true, want false")
	}

	ids := round.Invitees()
	if len(ids) != 2 || ids[0] != "m1" || ids[1] != "m2" {
		t.Errorf("Invitees() = %v, want [m1 m2]", ids)
	}
}

func TestRoundCloneIsDeep(t *testing.T) {
	at := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	original := &Round{
		ID:    "r1",
		State: RoundStatePending,
		Invitations: []InvitationResponse{
			{UserID: "m1", Status: InvitationStatusAccepted, RespondedAt: &at, AcceptOrder: 1},
		},
	}

	clone := original.Clone()
	clone.State = RoundStateCompleted
	clone.Invitations[0].Status = InvitationStatusInvited
	*clone.Invitations[0].RespondedAt = at.Add(time.Hour)

	if original.State != RoundStatePending {
		t.Errorf("original state changed to %v", original.State)
	}
	if original.Invitations[0].Status != InvitationStatusAccepted {
		t.Errorf("original invitation status changed to %v", original.Invitations[0].Status)
	}
	if !original.Invitations[0].RespondedAt.Equal(at) {
		t.Errorf("original respondedAt changed to %v", original.Invitations[0].RespondedAt)
	}
}

func TestHistoryEntryOutcome(t *testing.T) {
	tests := []struct {
		name  string
		entry HistoryEntry
		want  string
	}{
		{
			name:  "completed",
			entry: HistoryEntry{RoundNumber: 1, TeaMakerID: "m1"},
			want:  "tea made by m1",
		},
		{
			name:  "timeout",
			entry: HistoryEntry{RoundNumber: 2, CancelReason: CancelReasonTimeout},
			want:  "canceled: timeout",
		},
		{
			name:  "no participants",
			entry: HistoryEntry{RoundNumber: 3, CancelReason: CancelReasonNoParticipants},
			want:  "canceled: no participants",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.Outcome(); got != tt.want {
				t.Errorf("HistoryEntry.Outcome() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHistoryEntryLabel(t *testing.T) {
	entry := HistoryEntry{RoundNumber: 1}
	if got := entry.Label(); got != "Round #1" {
		t.Errorf("HistoryEntry.Label() = %q, want %q", got, "Round #1")
	}
}
