package notify

import (
	"fmt"

	"tearound/internal/models"
)

// Render returns the user-facing text of msg as seen by recipient
func Render(msg Message, recipient string) string {
	switch msg.Kind {
	case KindInvitationsSent:
		if recipient == msg.InitiatorID {
			return "Invitations sent successfully"
		}
		return fmt.Sprintf("%s invited you to tea round #%d", msg.InitiatorID, msg.RoundNumber)
	case KindInvitationAccepted:
		if recipient == msg.UserID {
			return "Invitation accepted"
		}
		return fmt.Sprintf("%s accepted the invitation to round #%d", msg.UserID, msg.RoundNumber)
	case KindTeaMakerChosen:
		if recipient == msg.UserID {
			return "Your turn to make the tea!"
		}
		return "Selected tea-maker: " + msg.UserID
	case KindRoundCanceled:
		switch msg.Reason {
		case models.CancelReasonTimeout:
			return "Round canceled due to timeout"
		case models.CancelReasonNoParticipants:
			return "Round canceled: No participants"
		}
		return "Round canceled"
	}
	return string(msg.Kind)
}

// Subject returns a short email subject line for msg
func Subject(msg Message) string {
	switch msg.Kind {
	case KindInvitationsSent:
		return fmt.Sprintf("Tea round #%d", msg.RoundNumber)
	case KindTeaMakerChosen:
		return fmt.Sprintf("Tea round #%d: tea-maker chosen", msg.RoundNumber)
	case KindRoundCanceled:
		return fmt.Sprintf("Tea round #%d canceled", msg.RoundNumber)
	}
	return fmt.Sprintf("Tea round #%d update", msg.RoundNumber)
}
