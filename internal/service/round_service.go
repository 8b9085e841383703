package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"github.com/google/uuid"

	"tearound/internal/models"
	"tearound/internal/notify"
	"tearound/internal/repository"
)

// DefaultRoundTimeout cancels rounds nobody has joined after this long
const DefaultRoundTimeout = 25 * time.Minute

// RoundService runs the tea round lifecycle: start, accept, choose, expire.
//
// Timeouts are evaluated lazily whenever a round is read or mutated, so no
// scheduler is required; SweepExpired exists for callers that want proactive expiry.
// Mutations of one round are serialized in-process by a per-round mutex and across
// processes by the store's version check.
type RoundService struct {
	store   repository.RoundStore
	sink    notify.Sink
	clock   clock.Clock
	tracker InvitationTracker
	locks   *roundLocks
	timeout time.Duration
	debug   bool

	rngMu sync.Mutex
	rng   RandomSource
}

// NewRoundService creates a round service. A non-positive timeout uses DefaultRoundTimeout.
func NewRoundService(store repository.RoundStore, sink notify.Sink, clk clock.Clock, rng RandomSource, timeout time.Duration) *RoundService {
	if timeout <= 0 {
		timeout = DefaultRoundTimeout
	}
	if rng == nil {
		rng = DefaultRandomSource()
	}
	return &RoundService{
		store:   store,
		sink:    sink,
		clock:   clk,
		tracker: InvitationTracker{},
		locks:   newRoundLocks(),
		timeout: timeout,
		rng:     rng,
	}
}

// SetDebug enables verbose logging
func (s *RoundService) SetDebug(debug bool) {
	s.debug = debug
}

// Timeout returns the initiation timeout applied to pending rounds
func (s *RoundService) Timeout() time.Duration {
	return s.timeout
}

// StartRound creates a pending round and invites every invitee.
// Invitees are trimmed and de-duplicated; the initiator is never an invitee.
func (s *RoundService) StartRound(ctx context.Context, initiatorID, team string, invitees []string) (*models.Round, error) {
	initiatorID = strings.TrimSpace(initiatorID)
	if initiatorID == "" {
		return nil, ErrMissingInitiator
	}

	ids := normalizeInvitees(initiatorID, invitees)
	if len(ids) == 0 {
		return nil, ErrNoInvitees
	}

	round := &models.Round{
		ID:          uuid.NewString(),
		Team:        strings.TrimSpace(team),
		InitiatorID: initiatorID,
		CreatedAt:   s.clock.Now(),
		State:       models.RoundStatePending,
	}
	for _, id := range ids {
		round.Invitations = append(round.Invitations, models.InvitationResponse{
			UserID: id,
			Status: models.InvitationStatusInvited,
		})
	}

	if err := s.store.CreateRound(ctx, round); err != nil {
		return nil, fmt.Errorf("failed to create round: %w", err)
	}

	log.Printf("Round #%d started by %s with %d invitees (id=%s)", round.Number, initiatorID, len(ids), round.ID)

	msg := s.message(round, notify.KindInvitationsSent)
	for _, id := range ids {
		s.deliver(ctx, id, msg)
	}
	s.deliver(ctx, initiatorID, msg)

	return round, nil
}

// AcceptInvitation records userID's acceptance. Accepting twice is a no-op.
// Acceptance closes once the timeout has elapsed since the round started,
// including for rounds that are already awaiting selection.
func (s *RoundService) AcceptInvitation(ctx context.Context, roundID, userID string) (*models.Round, error) {
	var out outbox
	round, err := s.accept(ctx, roundID, userID, &out)
	s.flush(ctx, out)
	return round, err
}

func (s *RoundService) accept(ctx context.Context, roundID, userID string, out *outbox) (*models.Round, error) {
	unlock := s.locks.lock(roundID)
	defer unlock()

	now := s.clock.Now()
	round, _, err := s.loadCurrent(ctx, roundID, now, out)
	if err != nil {
		return nil, err
	}

	if !round.IsOpen() {
		return nil, fmt.Errorf("%w: round %s is %s", ErrInvalidState, roundID, round.State)
	}
	if s.acceptanceClosed(round, now) {
		return nil, fmt.Errorf("%w: acceptance for round %s closed at %s", ErrInvalidState, roundID,
			round.CreatedAt.Add(s.timeout).UTC().Format(time.RFC3339))
	}

	updated := round.Clone()
	changed, err := s.tracker.RecordResponse(updated, userID, now)
	if err != nil {
		return nil, err
	}
	if !changed {
		return round, nil
	}

	if updated.State == models.RoundStatePending {
		updated.State = models.RoundStateAwaitingSelection
	}

	if err := s.store.SaveRound(ctx, updated); err != nil {
		return nil, mapStoreError(err)
	}

	if s.debug {
		log.Printf("[DEBUG] %s accepted round %s", userID, roundID)
	}

	msg := s.message(updated, notify.KindInvitationAccepted)
	msg.UserID = userID
	out.add(userID, msg)
	out.add(updated.InitiatorID, msg)

	return updated, nil
}

// EvaluateTimeout cancels the round if it is still pending at or after the timeout.
// Calling it again after cancellation changes nothing.
func (s *RoundService) EvaluateTimeout(ctx context.Context, roundID string, now time.Time) (*models.Round, error) {
	var out outbox
	round, err := s.current(ctx, roundID, now, &out)
	s.flush(ctx, out)
	return round, err
}

// ChooseTeaMaker finalizes the round: with no accepted participants it is canceled,
// otherwise one participant is drawn at random. A round that was already terminal
// fails with ErrInvalidState and is left untouched. A pending round past the
// timeout is canceled by this call and returned without error.
func (s *RoundService) ChooseTeaMaker(ctx context.Context, roundID string, now time.Time) (*models.Round, error) {
	var out outbox
	round, err := s.choose(ctx, roundID, "", now, &out)
	s.flush(ctx, out)
	return round, err
}

// ChooseTeaMakerAs is ChooseTeaMaker on behalf of callerID, who must be the
// round's initiator. The check happens under the round lock.
func (s *RoundService) ChooseTeaMakerAs(ctx context.Context, roundID, callerID string, now time.Time) (*models.Round, error) {
	if callerID == "" {
		return nil, ErrNotInitiator
	}
	var out outbox
	round, err := s.choose(ctx, roundID, callerID, now, &out)
	s.flush(ctx, out)
	return round, err
}

func (s *RoundService) choose(ctx context.Context, roundID, callerID string, now time.Time, out *outbox) (*models.Round, error) {
	unlock := s.locks.lock(roundID)
	defer unlock()

	round, expiredNow, err := s.loadCurrent(ctx, roundID, now, out)
	if err != nil {
		return nil, err
	}
	if callerID != "" && callerID != round.InitiatorID {
		return nil, ErrNotInitiator
	}
	if expiredNow {
		return round, nil
	}

	if round.IsTerminal() {
		return nil, fmt.Errorf("%w: round %s is already %s", ErrInvalidState, roundID, round.State)
	}

	accepted := s.tracker.ListAccepted(round)
	if len(accepted) == 0 {
		return s.cancel(ctx, round, models.CancelReasonNoParticipants, now, out)
	}

	teaMaker, err := s.pick(accepted)
	if err != nil {
		return nil, err
	}

	finalized, err := s.finalize(ctx, round, now, func(r *models.Round) {
		r.State = models.RoundStateCompleted
		r.TeaMakerID = teaMaker
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Round #%d completed: %s makes the tea", finalized.Number, teaMaker)

	msg := s.message(finalized, notify.KindTeaMakerChosen)
	msg.UserID = teaMaker
	out.broadcast(finalized, msg)

	return finalized, nil
}

// GetRound returns the current round, applying the timeout first
func (s *RoundService) GetRound(ctx context.Context, roundID string) (*models.Round, error) {
	var out outbox
	round, err := s.current(ctx, roundID, s.clock.Now(), &out)
	s.flush(ctx, out)
	return round, err
}

// ListParticipants returns the accepted invitees of a round in acceptance order
func (s *RoundService) ListParticipants(ctx context.Context, roundID string) ([]string, error) {
	round, err := s.GetRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	return s.tracker.ListAccepted(round), nil
}

// History returns finalized rounds, newest first
func (s *RoundService) History(ctx context.Context, team string, limit int) ([]models.HistoryEntry, error) {
	entries, err := s.store.ListHistory(ctx, team, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return entries, nil
}

// SweepExpired cancels every pending round past the timeout and returns how many it canceled
func (s *RoundService) SweepExpired(ctx context.Context) (int, error) {
	now := s.clock.Now()

	ids, err := s.store.ListExpirablePending(ctx, now.Add(-s.timeout))
	if err != nil {
		return 0, fmt.Errorf("failed to list expirable rounds: %w", err)
	}

	canceled := 0
	for _, id := range ids {
		round, err := s.EvaluateTimeout(ctx, id, now)
		if err != nil {
			log.Printf("Error expiring round %s: %v", id, err)
			continue
		}
		if round.CancelReason == models.CancelReasonTimeout {
			canceled++
		}
	}
	return canceled, nil
}

func (s *RoundService) current(ctx context.Context, roundID string, now time.Time, out *outbox) (*models.Round, error) {
	unlock := s.locks.lock(roundID)
	defer unlock()

	round, _, err := s.loadCurrent(ctx, roundID, now, out)
	return round, err
}

// loadCurrent loads a round and applies the timeout rule at now. expiredNow
// reports that this call canceled it. Callers hold the round lock.
func (s *RoundService) loadCurrent(ctx context.Context, roundID string, now time.Time, out *outbox) (round *models.Round, expiredNow bool, err error) {
	round, err = s.store.LoadRound(ctx, roundID)
	if err != nil {
		return nil, false, mapStoreError(err)
	}

	if round.State == models.RoundStatePending && s.acceptanceClosed(round, now) {
		canceled, err := s.cancel(ctx, round, models.CancelReasonTimeout, now, out)
		if err != nil {
			return nil, false, err
		}
		return canceled, true, nil
	}
	return round, false, nil
}

func (s *RoundService) acceptanceClosed(round *models.Round, now time.Time) bool {
	return now.Sub(round.CreatedAt) >= s.timeout
}

func (s *RoundService) cancel(ctx context.Context, round *models.Round, reason models.CancelReason, now time.Time, out *outbox) (*models.Round, error) {
	finalized, err := s.finalize(ctx, round, now, func(r *models.Round) {
		r.State = models.RoundStateCanceled
		r.CancelReason = reason
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Round #%d canceled: %s", finalized.Number, reason)

	msg := s.message(finalized, notify.KindRoundCanceled)
	msg.Reason = reason
	out.broadcast(finalized, msg)

	return finalized, nil
}

// finalize applies a terminal transition to a copy of round and persists it together
// with its history entry. On failure the caller's round is unchanged and nothing is stored.
func (s *RoundService) finalize(ctx context.Context, round *models.Round, now time.Time, apply func(*models.Round)) (*models.Round, error) {
	if round.IsTerminal() {
		return nil, fmt.Errorf("%w: round %s is already %s", ErrInvalidState, round.ID, round.State)
	}

	updated := round.Clone()
	apply(updated)
	finalizedAt := now
	updated.FinalizedAt = &finalizedAt

	err := s.store.WithinTx(ctx, func(store repository.RoundStore) error {
		if err := store.SaveRound(ctx, updated); err != nil {
			return err
		}
		_, err := NewHistoryRecorder(store).Record(ctx, updated)
		return err
	})
	if err != nil {
		return nil, mapStoreError(err)
	}

	return updated, nil
}

func (s *RoundService) pick(candidates []string) (string, error) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return SelectTeaMaker(candidates, s.rng)
}

func (s *RoundService) message(round *models.Round, kind notify.Kind) notify.Message {
	return notify.Message{
		Kind:        kind,
		RoundID:     round.ID,
		RoundNumber: round.Number,
		InitiatorID: round.InitiatorID,
	}
}

type delivery struct {
	userID string
	msg    notify.Message
}

// outbox holds notifications produced under a round lock. They are
// delivered with flush after the lock is released.
type outbox []delivery

func (o *outbox) add(userID string, msg notify.Message) {
	*o = append(*o, delivery{userID: userID, msg: msg})
}

// broadcast queues msg for the initiator and every invitee
func (o *outbox) broadcast(round *models.Round, msg notify.Message) {
	o.add(round.InitiatorID, msg)
	for _, id := range round.Invitees() {
		o.add(id, msg)
	}
}

func (s *RoundService) flush(ctx context.Context, out outbox) {
	for _, d := range out {
		s.deliver(ctx, d.userID, d.msg)
	}
}

// deliver is best-effort: failures are logged and never undo a transition
func (s *RoundService) deliver(ctx context.Context, userID string, msg notify.Message) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Notify(ctx, userID, msg); err != nil {
		log.Printf("Notification delivery failed: %v", err)
	}
}

func mapStoreError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrRoundNotFound
	case errors.Is(err, repository.ErrVersionConflict):
		return ErrConcurrentUpdate
	}
	return err
}

func normalizeInvitees(initiatorID string, invitees []string) []string {
	seen := make(map[string]bool, len(invitees))
	ids := make([]string, 0, len(invitees))
	for _, raw := range invitees {
		id := strings.TrimSpace(raw)
		if id == "" || id == initiatorID || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}
