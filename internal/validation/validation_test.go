package validation

import (
	"strings"
	"testing"
)

func TestValidateUserID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{
			name:    "email address",
			id:      "member1@test.com",
			wantErr: false,
		},
		{
			name:    "opaque id",
			id:      "U024BE7LH",
			wantErr: false,
		},
		{
			name:    "empty",
			id:      "",
			wantErr: true,
		},
		{
			name:    "inner space",
			id:      "john doe",
			wantErr: true,
		},
		{
			name:    "control character",
			id:      "john\x00",
			wantErr: true,
		},
		{
			name:    "too long",
			id:      strings.Repeat("a", MaxUserIDLength+1),
			wantErr: true,
		},
		{
			name:    "exactly max length",
			id:      strings.Repeat("a", MaxUserIDLength),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUserID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUserID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestValidateTeam(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:    "no team",
			input:   "",
			wantErr: false,
		},
		{
			name:    "team with spaces",
			input:   "Platform Team",
			wantErr: false,
		},
		{
			name:    "too long",
			input:   strings.Repeat("t", MaxTeamLength+1),
			wantErr: true,
		},
		{
			name:    "newline",
			input:   "platform\nops",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTeam(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTeam(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateInvitees(t *testing.T) {
	tests := []struct {
		name     string
		invitees []string
		wantErr  bool
	}{
		{
			name:     "valid list",
			invitees: []string{"m1@test.com", " m2@test.com "},
			wantErr:  false,
		},
		{
			name:     "blank entries are skipped",
			invitees: []string{"m1", "  "},
			wantErr:  false,
		},
		{
			name:     "invalid entry",
			invitees: []string{"m1", "bad id"},
			wantErr:  true,
		},
		{
			name:     "too many",
			invitees: make([]string, MaxInviteesPerRun+1),
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInvitees(tt.invitees)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateInvitees() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
