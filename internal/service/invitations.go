package service

import (
	"fmt"
	"sort"
	"time"

	"tearound/internal/models"
)

// InvitationTracker maintains invitee responses on a round
type InvitationTracker struct{}

// RecordResponse marks userID as accepted at the given time.
// It reports false when the user had already accepted.
func (InvitationTracker) RecordResponse(round *models.Round, userID string, at time.Time) (bool, error) {
	inv := round.Invitation(userID)
	if inv == nil {
		return false, fmt.Errorf("%w: %s", ErrUnknownInvitee, userID)
	}

	switch inv.Status {
	case models.InvitationStatusAccepted:
		return false, nil
	case models.InvitationStatusDeclined:
		return false, fmt.Errorf("%w: %s already declined", ErrInvalidState, userID)
	}

	order := 0
	for _, other := range round.Invitations {
		if other.AcceptOrder > order {
			order = other.AcceptOrder
		}
	}

	respondedAt := at
	inv.Status = models.InvitationStatusAccepted
	inv.RespondedAt = &respondedAt
	inv.AcceptOrder = order + 1
	return true, nil
}

// ListAccepted returns accepted invitees in acceptance order
func (InvitationTracker) ListAccepted(round *models.Round) []string {
	accepted := make([]models.InvitationResponse, 0, len(round.Invitations))
	for _, inv := range round.Invitations {
		if inv.Status == models.InvitationStatusAccepted {
			accepted = append(accepted, inv)
		}
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].AcceptOrder < accepted[j].AcceptOrder
	})

	ids := make([]string, len(accepted))
	for i, inv := range accepted {
		ids[i] = inv.UserID
	}
	return ids
}
