package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/facebookgo/clock"

	"tearound/internal/models"
	"tearound/internal/notify"
	"tearound/internal/service"
	"tearound/internal/validation"
)

// RoundHandler serves the tea round JSON API
type RoundHandler struct {
	rounds *service.RoundService
	inbox  *notify.InboxSink
	clock  clock.Clock

	// advisoryWait is how long initiators are told to wait for acceptances
	// before choosing. Zero hides the hint.
	advisoryWait time.Duration
}

// NewRoundHandler creates a new round handler
func NewRoundHandler(rounds *service.RoundService, inbox *notify.InboxSink, clk clock.Clock, advisoryWait time.Duration) *RoundHandler {
	return &RoundHandler{
		rounds:       rounds,
		inbox:        inbox,
		clock:        clk,
		advisoryWait: advisoryWait,
	}
}

type startRoundRequest struct {
	Team     string   `json:"team"`
	Invitees []string `json:"invitees"`
}

type invitationView struct {
	UserID      string     `json:"user_id"`
	Status      string     `json:"status"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

type roundView struct {
	ID           string           `json:"id"`
	Number       int64            `json:"number"`
	Label        string           `json:"label"`
	Team         string           `json:"team,omitempty"`
	InitiatorID  string           `json:"initiator_id"`
	State        string           `json:"state"`
	TeaMakerID   string           `json:"tea_maker_id,omitempty"`
	CancelReason string           `json:"cancel_reason,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	ExpiresAt    *time.Time       `json:"expires_at,omitempty"`
	ChooseAfter  *time.Time       `json:"choose_after,omitempty"`
	FinalizedAt  *time.Time       `json:"finalized_at,omitempty"`
	Invitations  []invitationView `json:"invitations"`
}

type historyView struct {
	RoundID     string    `json:"round_id"`
	Label       string    `json:"label"`
	Team        string    `json:"team,omitempty"`
	InitiatorID string    `json:"initiator_id"`
	TeaMakerID  string    `json:"tea_maker_id,omitempty"`
	Outcome     string    `json:"outcome"`
	FinalizedAt time.Time `json:"finalized_at"`
}

type notificationView struct {
	Kind      string    `json:"kind"`
	RoundID   string    `json:"round_id,omitempty"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *RoundHandler) newRoundView(r *models.Round) roundView {
	view := roundView{
		ID:           r.ID,
		Number:       r.Number,
		Label:        "Round #" + strconv.FormatInt(r.Number, 10),
		Team:         r.Team,
		InitiatorID:  r.InitiatorID,
		State:        string(r.State),
		TeaMakerID:   r.TeaMakerID,
		CancelReason: string(r.CancelReason),
		CreatedAt:    r.CreatedAt.UTC(),
		FinalizedAt:  r.FinalizedAt,
		Invitations:  make([]invitationView, 0, len(r.Invitations)),
	}
	if r.State == models.RoundStatePending {
		expires := r.CreatedAt.Add(h.rounds.Timeout()).UTC()
		view.ExpiresAt = &expires
	}
	if h.advisoryWait > 0 && !r.IsTerminal() {
		after := r.CreatedAt.Add(h.advisoryWait).UTC()
		view.ChooseAfter = &after
	}
	for _, inv := range r.Invitations {
		view.Invitations = append(view.Invitations, invitationView{
			UserID:      inv.UserID,
			Status:      string(inv.Status),
			RespondedAt: inv.RespondedAt,
		})
	}
	return view
}

// StartRound creates a round initiated by the caller
func (h *RoundHandler) StartRound(w http.ResponseWriter, r *http.Request) {
	var req startRoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}
	if err := validation.ValidateTeam(req.Team); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}
	if err := validation.ValidateInvitees(req.Invitees); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	round, err := h.rounds.StartRound(r.Context(), GetUserFromContext(r.Context()), req.Team, req.Invitees)
	if err != nil {
		respondWithServiceError(w, "Error starting round", err)
		return
	}

	respondJSON(w, http.StatusCreated, h.newRoundView(round))
}

// GetRound returns a round; a pending round past its timeout comes back canceled
func (h *RoundHandler) GetRound(w http.ResponseWriter, r *http.Request) {
	round, err := h.rounds.GetRound(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, "Error loading round", err)
		return
	}
	respondJSON(w, http.StatusOK, h.newRoundView(round))
}

// AcceptInvitation records the caller's acceptance
func (h *RoundHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	round, err := h.rounds.AcceptInvitation(r.Context(), r.PathValue("id"), GetUserFromContext(r.Context()))
	if err != nil {
		respondWithServiceError(w, "Error accepting invitation", err)
		return
	}
	respondJSON(w, http.StatusOK, h.newRoundView(round))
}

// ListParticipants returns the accepted invitees in acceptance order
func (h *RoundHandler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	participants, err := h.rounds.ListParticipants(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, "Error listing participants", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"participants": participants,
	})
}

// ChooseTeaMaker finalizes the round. Only its initiator may do this.
func (h *RoundHandler) ChooseTeaMaker(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	round, err := h.rounds.ChooseTeaMakerAs(ctx, r.PathValue("id"), GetUserFromContext(ctx), h.clock.Now())
	if err != nil {
		respondWithServiceError(w, "Error choosing tea-maker", err)
		return
	}
	respondJSON(w, http.StatusOK, h.newRoundView(round))
}

// History lists finalized rounds, optionally for one team
func (h *RoundHandler) History(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r.URL.Query().Get("limit"), defaultHistoryLimit)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid limit", "", nil)
		return
	}

	entries, err := h.rounds.History(r.Context(), strings.TrimSpace(r.URL.Query().Get("team")), limit)
	if err != nil {
		respondWithServiceError(w, "Error loading history", err)
		return
	}

	views := make([]historyView, 0, len(entries))
	for _, e := range entries {
		views = append(views, historyView{
			RoundID:     e.RoundID,
			Label:       e.Label(),
			Team:        e.Team,
			InitiatorID: e.InitiatorID,
			TeaMakerID:  e.TeaMakerID,
			Outcome:     e.Outcome(),
			FinalizedAt: e.FinalizedAt.UTC(),
		})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"rounds": views,
	})
}

// Notifications returns the caller's inbox, newest first
func (h *RoundHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r.URL.Query().Get("limit"), defaultInboxLimit)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid limit", "", nil)
		return
	}

	items, err := h.inbox.Inbox(r.Context(), GetUserFromContext(r.Context()), limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error loading notifications", err)
		return
	}

	views := make([]notificationView, 0, len(items))
	for _, n := range items {
		views = append(views, notificationView{
			Kind:      n.Kind,
			RoundID:   n.RoundID,
			Body:      n.Body,
			CreatedAt: n.CreatedAt.UTC(),
		})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": views,
	})
}

func parseLimit(raw string, fallback int) (int, bool) {
	if raw == "" {
		return fallback, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, false
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return limit, true
}
