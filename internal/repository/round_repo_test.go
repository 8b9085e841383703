package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tearound/internal/models"
	"tearound/internal/testutil/dbtest"
)

var baseTime = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func newPendingRound(id string, invitees ...string) *models.Round {
	round := &models.Round{
		ID:          id,
		Team:        "platform",
		InitiatorID: "initiator@test.com",
		CreatedAt:   baseTime,
		State:       models.RoundStatePending,
	}
	for _, u := range invitees {
		round.Invitations = append(round.Invitations, models.InvitationResponse{
			UserID: u,
			Status: models.InvitationStatusInvited,
		})
	}
	return round
}

func TestRoundRepositoryCreateAndLoad(t *testing.T) {
	ctx := context.Background()
	repo := NewRoundRepository(dbtest.NewSQLite(t))

	first := newPendingRound("r-1", "member2@test.com", "member1@test.com")
	require.NoError(t, repo.CreateRound(ctx, first))
	second := newPendingRound("r-2", "member1@test.com")
	require.NoError(t, repo.CreateRound(ctx, second))

	assert.Equal(t, int64(1), first.Number)
	assert.Equal(t, int64(2), second.Number)
	assert.Equal(t, int64(1), first.Version)

	loaded, err := repo.LoadRound(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, "initiator@test.com", loaded.InitiatorID)
	assert.Equal(t, "platform", loaded.Team)
	assert.Equal(t, models.RoundStatePending, loaded.State)
	assert.True(t, loaded.CreatedAt.Equal(baseTime))
	assert.Nil(t, loaded.FinalizedAt)
	assert.Equal(t, []string{"member2@test.com", "member1@test.com"}, loaded.Invitees())
	for _, inv := range loaded.Invitations {
		assert.Equal(t, models.InvitationStatusInvited, inv.Status)
		assert.Nil(t, inv.RespondedAt)
	}
}

func TestRoundRepositoryLoadMissing(t *testing.T) {
	repo := NewRoundRepository(dbtest.NewSQLite(t))

	_, err := repo.LoadRound(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRoundRepositorySaveRound(t *testing.T) {
	ctx := context.Background()
	repo := NewRoundRepository(dbtest.NewSQLite(t))

	round := newPendingRound("r-1", "member1@test.com", "member2@test.com")
	require.NoError(t, repo.CreateRound(ctx, round))

	acceptedAt := baseTime.Add(2 * time.Minute)
	inv := round.Invitation("member1@test.com")
	inv.Status = models.InvitationStatusAccepted
	inv.RespondedAt = &acceptedAt
	inv.AcceptOrder = 1
	round.State = models.RoundStateAwaitingSelection
	require.NoError(t, repo.SaveRound(ctx, round))
	assert.Equal(t, int64(2), round.Version)

	finalizedAt := baseTime.Add(15 * time.Minute)
	round.State = models.RoundStateCompleted
	round.TeaMakerID = "member1@test.com"
	round.FinalizedAt = &finalizedAt
	require.NoError(t, repo.SaveRound(ctx, round))

	loaded, err := repo.LoadRound(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, models.RoundStateCompleted, loaded.State)
	assert.Equal(t, "member1@test.com", loaded.TeaMakerID)
	assert.Equal(t, models.CancelReasonNone, loaded.CancelReason)
	require.NotNil(t, loaded.FinalizedAt)
	assert.True(t, loaded.FinalizedAt.Equal(finalizedAt))
	assert.Equal(t, int64(3), loaded.Version)

	accepted := loaded.Invitation("member1@test.com")
	assert.Equal(t, models.InvitationStatusAccepted, accepted.Status)
	require.NotNil(t, accepted.RespondedAt)
	assert.True(t, accepted.RespondedAt.Equal(acceptedAt))
	assert.Equal(t, 1, accepted.AcceptOrder)
	assert.Equal(t, models.InvitationStatusInvited, loaded.Invitation("member2@test.com").Status)
}

func TestRoundRepositorySaveRoundStaleVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewRoundRepository(dbtest.NewSQLite(t))

	round := newPendingRound("r-1", "member1@test.com")
	require.NoError(t, repo.CreateRound(ctx, round))

	stale := round.Clone()

	round.State = models.RoundStateCanceled
	round.CancelReason = models.CancelReasonTimeout
	require.NoError(t, repo.SaveRound(ctx, round))

	stale.State = models.RoundStateCompleted
	stale.TeaMakerID = "member1@test.com"
	err := repo.SaveRound(ctx, stale)
	assert.ErrorIs(t, err, ErrVersionConflict)

	loaded, err := repo.LoadRound(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, models.RoundStateCanceled, loaded.State)
	assert.Empty(t, loaded.TeaMakerID)
}

func TestRoundRepositorySaveUnknownRound(t *testing.T) {
	repo := NewRoundRepository(dbtest.NewSQLite(t))

	err := repo.SaveRound(context.Background(), newPendingRound("ghost", "m1"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRoundRepositoryHistory(t *testing.T) {
	ctx := context.Background()
	repo := NewRoundRepository(dbtest.NewSQLite(t))

	one := newPendingRound("r-1", "m1")
	two := newPendingRound("r-2", "m1")
	two.Team = "design"
	require.NoError(t, repo.CreateRound(ctx, one))
	require.NoError(t, repo.CreateRound(ctx, two))

	require.NoError(t, repo.AppendHistory(ctx, &models.HistoryEntry{
		RoundID: "r-1", RoundNumber: one.Number, Team: one.Team, InitiatorID: one.InitiatorID,
		TeaMakerID: "m1", FinalizedAt: baseTime.Add(15 * time.Minute),
	}))
	require.NoError(t, repo.AppendHistory(ctx, &models.HistoryEntry{
		RoundID: "r-2", RoundNumber: two.Number, Team: two.Team, InitiatorID: two.InitiatorID,
		CancelReason: models.CancelReasonTimeout, FinalizedAt: baseTime.Add(25 * time.Minute),
	}))

	err := repo.AppendHistory(ctx, &models.HistoryEntry{
		RoundID: "r-1", RoundNumber: one.Number, InitiatorID: one.InitiatorID,
		CancelReason: models.CancelReasonTimeout, FinalizedAt: baseTime.Add(30 * time.Minute),
	})
	assert.ErrorIs(t, err, ErrDuplicateHistory)

	entry, err := repo.GetHistory(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, "m1", entry.TeaMakerID)
	assert.Equal(t, "Round #1", entry.Label())

	all, err := repo.ListHistory(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "r-2", all[0].RoundID)
	assert.Equal(t, models.CancelReasonTimeout, all[0].CancelReason)
	assert.Equal(t, "r-1", all[1].RoundID)

	design, err := repo.ListHistory(ctx, "design", 10)
	require.NoError(t, err)
	require.Len(t, design, 1)
	assert.Equal(t, "r-2", design[0].RoundID)
	// numbers come from one sequence shared by all teams
	assert.Equal(t, "Round #2", design[0].Label())

	_, err = repo.GetHistory(ctx, "r-404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRoundRepositoryListExpirablePending(t *testing.T) {
	ctx := context.Background()
	repo := NewRoundRepository(dbtest.NewSQLite(t))

	old := newPendingRound("old", "m1")
	fresh := newPendingRound("fresh", "m1")
	fresh.CreatedAt = baseTime.Add(20 * time.Minute)
	done := newPendingRound("done", "m1")
	require.NoError(t, repo.CreateRound(ctx, old))
	require.NoError(t, repo.CreateRound(ctx, fresh))
	require.NoError(t, repo.CreateRound(ctx, done))

	done.State = models.RoundStateCanceled
	done.CancelReason = models.CancelReasonNoParticipants
	require.NoError(t, repo.SaveRound(ctx, done))

	ids, err := repo.ListExpirablePending(ctx, baseTime.Add(5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, ids)
}

func TestRoundRepositoryWithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := NewRoundRepository(dbtest.NewSQLite(t))

	round := newPendingRound("r-1", "m1")
	require.NoError(t, repo.CreateRound(ctx, round))

	boom := errors.New("boom")
	err := repo.WithinTx(ctx, func(store RoundStore) error {
		updated := round.Clone()
		updated.State = models.RoundStateCanceled
		updated.CancelReason = models.CancelReasonTimeout
		if err := store.SaveRound(ctx, updated); err != nil {
			return err
		}
		if err := store.AppendHistory(ctx, &models.HistoryEntry{
			RoundID: "r-1", RoundNumber: round.Number, InitiatorID: round.InitiatorID,
			CancelReason: models.CancelReasonTimeout, FinalizedAt: baseTime,
		}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	loaded, err := repo.LoadRound(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, models.RoundStatePending, loaded.State)
	assert.Equal(t, int64(1), loaded.Version)

	_, err = repo.GetHistory(ctx, "r-1")
	assert.ErrorIs(t, err, ErrNotFound)
}
