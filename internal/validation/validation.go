package validation

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MaxUserIDLength   = 254
	MaxTeamLength     = 64
	MaxInviteesPerRun = 50
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateUserID checks that a user ID is non-empty, bounded and free of whitespace
func ValidateUserID(id string) error {
	if id == "" {
		return ValidationError{Field: "user_id", Message: "user ID is required"}
	}
	if utf8.RuneCountInString(id) > MaxUserIDLength {
		return ValidationError{Field: "user_id", Message: fmt.Sprintf("user ID must be at most %d characters", MaxUserIDLength)}
	}
	for _, r := range id {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return ValidationError{Field: "user_id", Message: "user ID must not contain whitespace"}
		}
	}
	return nil
}

// ValidateTeam checks an optional team name
func ValidateTeam(team string) error {
	team = strings.TrimSpace(team)
	if utf8.RuneCountInString(team) > MaxTeamLength {
		return ValidationError{Field: "team", Message: fmt.Sprintf("team must be at most %d characters", MaxTeamLength)}
	}
	for _, r := range team {
		if unicode.IsControl(r) {
			return ValidationError{Field: "team", Message: "team must not contain control characters"}
		}
	}
	return nil
}

// ValidateInvitees checks every invitee ID after trimming. Blank entries are
// left for the round service to drop.
func ValidateInvitees(invitees []string) error {
	if len(invitees) > MaxInviteesPerRun {
		return ValidationError{Field: "invitees", Message: fmt.Sprintf("at most %d invitees per round", MaxInviteesPerRun)}
	}
	for _, raw := range invitees {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if err := ValidateUserID(id); err != nil {
			return ValidationError{Field: "invitees", Message: fmt.Sprintf("%q: %s", id, err.(ValidationError).Message)}
		}
	}
	return nil
}
