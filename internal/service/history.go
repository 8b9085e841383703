package service

import (
	"context"
	"errors"
	"fmt"

	"tearound/internal/models"
	"tearound/internal/repository"
)

// HistoryRecorder appends finalized rounds to the history log
type HistoryRecorder struct {
	store repository.RoundStore
}

// NewHistoryRecorder creates a recorder writing through store
func NewHistoryRecorder(store repository.RoundStore) *HistoryRecorder {
	return &HistoryRecorder{store: store}
}

// Record appends the outcome of a terminal round. Each round is recorded at most once.
func (h *HistoryRecorder) Record(ctx context.Context, round *models.Round) (*models.HistoryEntry, error) {
	if !round.IsTerminal() || round.FinalizedAt == nil {
		return nil, fmt.Errorf("%w: round %s is %s", ErrInvalidState, round.ID, round.State)
	}

	entry := &models.HistoryEntry{
		RoundID:      round.ID,
		RoundNumber:  round.Number,
		Team:         round.Team,
		InitiatorID:  round.InitiatorID,
		TeaMakerID:   round.TeaMakerID,
		CancelReason: round.CancelReason,
		FinalizedAt:  *round.FinalizedAt,
	}

	if err := h.store.AppendHistory(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrDuplicateHistory) {
			return nil, fmt.Errorf("%w: %s", ErrHistoryExists, round.ID)
		}
		return nil, fmt.Errorf("failed to record history: %w", err)
	}

	return entry, nil
}
