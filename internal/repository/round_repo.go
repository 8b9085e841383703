package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tearound/internal/database"
	"tearound/internal/models"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrVersionConflict  = errors.New("record was modified by another writer")
	ErrDuplicateHistory = errors.New("history entry already exists for round")
)

// RoundStore persists rounds, their invitations and the history log
type RoundStore interface {
	CreateRound(ctx context.Context, round *models.Round) error
	LoadRound(ctx context.Context, roundID string) (*models.Round, error)
	SaveRound(ctx context.Context, round *models.Round) error
	AppendHistory(ctx context.Context, entry *models.HistoryEntry) error
	GetHistory(ctx context.Context, roundID string) (*models.HistoryEntry, error)
	ListHistory(ctx context.Context, team string, limit int) ([]models.HistoryEntry, error)
	ListExpirablePending(ctx context.Context, createdBefore time.Time) ([]string, error)
	// WithinTx runs fn against a store bound to a single transaction
	WithinTx(ctx context.Context, fn func(store RoundStore) error) error
}

// RoundRepository handles database operations for tea rounds
type RoundRepository struct {
	db *database.DB
	q  database.DBTX
}

// NewRoundRepository creates a new round repository
func NewRoundRepository(db *database.DB) *RoundRepository {
	return &RoundRepository{db: db, q: db}
}

// WithinTx runs fn inside a transaction. Calls made while already inside one reuse it.
func (r *RoundRepository) WithinTx(ctx context.Context, fn func(store RoundStore) error) error {
	if _, inTx := r.q.(*database.Tx); inTx {
		return fn(r)
	}
	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		return fn(&RoundRepository{db: r.db, q: tx})
	})
}

// CreateRound inserts a round with its invitations and assigns Number and Version
func (r *RoundRepository) CreateRound(ctx context.Context, round *models.Round) error {
	return r.WithinTx(ctx, func(store RoundStore) error {
		q := store.(*RoundRepository).q

		query := `INSERT INTO rounds (round_id, team, initiator_id, state, tea_maker_id, cancel_reason, created_at, version)
			VALUES (?, ?, ?, ?, ?, ?, ?, 1)`
		number, err := q.ExecReturningID(ctx, query,
			round.ID, round.Team, round.InitiatorID, string(round.State),
			nullString(round.TeaMakerID), nullString(string(round.CancelReason)), round.CreatedAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to insert round: %w", err)
		}

		for i, inv := range round.Invitations {
			query := `INSERT INTO round_invitations (round_id, user_id, position, status, responded_at, accept_order) VALUES (?, ?, ?, ?, ?, ?)`
			if _, err := q.ExecContext(ctx, query, round.ID, inv.UserID, i, string(inv.Status), nullTime(inv.RespondedAt), inv.AcceptOrder); err != nil {
				return fmt.Errorf("failed to insert invitation for %s: %w", inv.UserID, err)
			}
		}

		round.Number = number
		round.Version = 1
		return nil
	})
}

// LoadRound retrieves a round and its invitations by round ID
func (r *RoundRepository) LoadRound(ctx context.Context, roundID string) (*models.Round, error) {
	query := `
		SELECT id, round_id, team, initiator_id, state, tea_maker_id, cancel_reason, created_at, finalized_at, version
		FROM rounds
		WHERE round_id = ?
	`

	var round models.Round
	var state string
	var teaMaker, cancelReason sql.NullString
	var finalizedAt sql.NullTime

	err := r.q.QueryRowContext(ctx, query, roundID).Scan(
		&round.Number, &round.ID, &round.Team, &round.InitiatorID, &state,
		&teaMaker, &cancelReason, &round.CreatedAt, &finalizedAt, &round.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load round: %w", err)
	}

	round.State = models.RoundState(state)
	round.TeaMakerID = teaMaker.String
	round.CancelReason = models.CancelReason(cancelReason.String)
	round.FinalizedAt = timePtr(finalizedAt)

	invitations, err := r.loadInvitations(ctx, roundID)
	if err != nil {
		return nil, err
	}
	round.Invitations = invitations

	return &round, nil
}

func (r *RoundRepository) loadInvitations(ctx context.Context, roundID string) ([]models.InvitationResponse, error) {
	query := `
		SELECT user_id, status, responded_at, accept_order
		FROM round_invitations
		WHERE round_id = ?
		ORDER BY position
	`

	rows, err := r.q.QueryContext(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invitations: %w", err)
	}
	defer rows.Close()

	var invitations []models.InvitationResponse
	for rows.Next() {
		var inv models.InvitationResponse
		var status string
		var respondedAt sql.NullTime
		if err := rows.Scan(&inv.UserID, &status, &respondedAt, &inv.AcceptOrder); err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		inv.Status = models.InvitationStatus(status)
		inv.RespondedAt = timePtr(respondedAt)
		invitations = append(invitations, inv)
	}

	return invitations, rows.Err()
}

// SaveRound writes state and invitation changes. The update only applies when the
// stored version still matches round.Version; otherwise ErrVersionConflict is returned.
func (r *RoundRepository) SaveRound(ctx context.Context, round *models.Round) error {
	return r.WithinTx(ctx, func(store RoundStore) error {
		q := store.(*RoundRepository).q

		query := `
			UPDATE rounds
			SET state = ?, tea_maker_id = ?, cancel_reason = ?, finalized_at = ?, version = version + 1
			WHERE round_id = ? AND version = ?
		`
		result, err := q.ExecContext(ctx, query,
			string(round.State), nullString(round.TeaMakerID), nullString(string(round.CancelReason)),
			nullTime(round.FinalizedAt), round.ID, round.Version)
		if err != nil {
			return fmt.Errorf("failed to update round: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read update result: %w", err)
		}
		if affected == 0 {
			var exists int
			err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM rounds WHERE round_id = ?", round.ID).Scan(&exists)
			if err != nil {
				return fmt.Errorf("failed to check round: %w", err)
			}
			if exists == 0 {
				return ErrNotFound
			}
			return ErrVersionConflict
		}

		for _, inv := range round.Invitations {
			query := `UPDATE round_invitations SET status = ?, responded_at = ?, accept_order = ? WHERE round_id = ? AND user_id = ?`
			if _, err := q.ExecContext(ctx, query, string(inv.Status), nullTime(inv.RespondedAt), inv.AcceptOrder, round.ID, inv.UserID); err != nil {
				return fmt.Errorf("failed to update invitation for %s: %w", inv.UserID, err)
			}
		}

		round.Version++
		return nil
	})
}

// AppendHistory inserts a history entry. A second entry for the same round fails with ErrDuplicateHistory.
func (r *RoundRepository) AppendHistory(ctx context.Context, entry *models.HistoryEntry) error {
	query := `
		INSERT INTO round_history (round_id, round_number, team, initiator_id, tea_maker_id, cancel_reason, finalized_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.q.ExecReturningID(ctx, query,
		entry.RoundID, entry.RoundNumber, entry.Team, entry.InitiatorID,
		nullString(entry.TeaMakerID), nullString(string(entry.CancelReason)), entry.FinalizedAt.UTC())
	if err != nil {
		if r.q.GetDialect().IsUniqueViolation(err) {
			return ErrDuplicateHistory
		}
		return fmt.Errorf("failed to append history: %w", err)
	}

	entry.ID = id
	return nil
}

const historyColumns = `id, round_id, round_number, team, initiator_id, tea_maker_id, cancel_reason, finalized_at`

// GetHistory retrieves the history entry of a round
func (r *RoundRepository) GetHistory(ctx context.Context, roundID string) (*models.HistoryEntry, error) {
	query := "SELECT " + historyColumns + " FROM round_history WHERE round_id = ?"

	entry, err := scanHistory(r.q.QueryRowContext(ctx, query, roundID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	return entry, nil
}

// ListHistory returns the most recent history entries, newest first.
// An empty team lists every team.
func (r *RoundRepository) ListHistory(ctx context.Context, team string, limit int) ([]models.HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := "SELECT " + historyColumns + " FROM round_history"
	var args []interface{}
	if team != "" {
		query += " WHERE team = ?"
		args = append(args, team)
	}
	query += " ORDER BY finalized_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var entries []models.HistoryEntry
	for rows.Next() {
		entry, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		entries = append(entries, *entry)
	}

	return entries, rows.Err()
}

// ListExpirablePending returns IDs of pending rounds created at or before createdBefore
func (r *RoundRepository) ListExpirablePending(ctx context.Context, createdBefore time.Time) ([]string, error) {
	query := `SELECT round_id FROM rounds WHERE state = ? AND created_at <= ? ORDER BY id`

	rows, err := r.q.QueryContext(ctx, query, string(models.RoundStatePending), createdBefore.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list pending rounds: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan round id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanHistory(row rowScanner) (*models.HistoryEntry, error) {
	var entry models.HistoryEntry
	var teaMaker, cancelReason sql.NullString

	err := row.Scan(
		&entry.ID, &entry.RoundID, &entry.RoundNumber, &entry.Team, &entry.InitiatorID,
		&teaMaker, &cancelReason, &entry.FinalizedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.TeaMakerID = teaMaker.String
	entry.CancelReason = models.CancelReason(cancelReason.String)
	return &entry, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
