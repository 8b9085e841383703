package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// HistoryExport is the JSON document written by ExportHistory
type HistoryExport struct {
	Version    string          `json:"version"`
	ExportedAt time.Time       `json:"exported_at"`
	Team       string          `json:"team,omitempty"`
	Rounds     []HistoryRecord `json:"rounds"`
}

// HistoryRecord is one finalized round in an export
type HistoryRecord struct {
	RoundID     string    `json:"round_id"`
	Label       string    `json:"label"`
	Team        string    `json:"team,omitempty"`
	InitiatorID string    `json:"initiator_id"`
	TeaMakerID  string    `json:"tea_maker_id,omitempty"`
	Outcome     string    `json:"outcome"`
	FinalizedAt time.Time `json:"finalized_at"`
}

// ExportHistory writes finalized rounds, newest first, as indented JSON
func (s *RoundService) ExportHistory(ctx context.Context, w io.Writer, team string, limit int) (int, error) {
	entries, err := s.History(ctx, team, limit)
	if err != nil {
		return 0, err
	}

	export := &HistoryExport{
		Version:    "1.0",
		ExportedAt: s.clock.Now().UTC(),
		Team:       team,
		Rounds:     make([]HistoryRecord, 0, len(entries)),
	}
	for _, e := range entries {
		export.Rounds = append(export.Rounds, HistoryRecord{
			RoundID:     e.RoundID,
			Label:       e.Label(),
			Team:        e.Team,
			InitiatorID: e.InitiatorID,
			TeaMakerID:  e.TeaMakerID,
			Outcome:     e.Outcome(),
			FinalizedAt: e.FinalizedAt.UTC(),
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(export); err != nil {
		return 0, fmt.Errorf("failed to encode history: %w", err)
	}
	return len(export.Rounds), nil
}
