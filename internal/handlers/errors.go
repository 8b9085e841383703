package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"tearound/internal/service"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}

	respondJSON(w, status, errorResponse{Error: userMsg})
}

// respondWithServiceError picks the status for a round service error.
// Only 500s are logged; the others are the caller's mistake.
func respondWithServiceError(w http.ResponseWriter, logMsg string, err error) {
	status, msg := statusForError(err)
	if status == http.StatusInternalServerError {
		respondWithError(w, status, msg, logMsg, err)
		return
	}
	respondWithError(w, status, msg, "", nil)
}

func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrRoundNotFound):
		return http.StatusNotFound, "Round not found"
	case errors.Is(err, service.ErrNotInitiator):
		return http.StatusForbidden, ErrOnlyInitiator
	case errors.Is(err, service.ErrUnknownInvitee):
		return http.StatusForbidden, "You were not invited to this round"
	case errors.Is(err, service.ErrInvalidState):
		return http.StatusConflict, "The round no longer allows this action"
	case errors.Is(err, service.ErrConcurrentUpdate):
		return http.StatusConflict, "The round was updated by someone else, try again"
	case errors.Is(err, service.ErrEmptyCandidateSet):
		return http.StatusConflict, "Nobody has accepted yet"
	case errors.Is(err, service.ErrNoInvitees), errors.Is(err, service.ErrMissingInitiator):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, ErrInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
