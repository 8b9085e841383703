package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tearound/internal/service"
)

func TestRespondWithErrorWritesStatusAndBody(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondWithError(recorder, 418, "Teapot", "", nil)

	if recorder.Code != 418 {
		t.Fatalf("expected status 418, got %d", recorder.Code)
	}

	body := strings.TrimSpace(recorder.Body.String())
	if body != `{"error":"Teapot"}` {
		t.Fatalf("expected JSON error body, got %q", body)
	}
	if ct := recorder.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected JSON content type, got %q", ct)
	}
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(prev) })
	return &buf
}

func TestRespondWithServiceErrorLogsOnlyServerFaults(t *testing.T) {
	buf := captureLog(t)

	rec := httptest.NewRecorder()
	respondWithServiceError(rec, "choose failed", service.ErrEmptyCandidateSet)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no log for a client error, got %q", buf.String())
	}

	rec = httptest.NewRecorder()
	respondWithServiceError(rec, "choose failed", errors.New("disk full"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if out := buf.String(); !strings.Contains(out, "choose failed") || !strings.Contains(out, "disk full") {
		t.Fatalf("expected log with context and cause, got %q", out)
	}
	if strings.Contains(rec.Body.String(), "disk full") {
		t.Fatalf("internal error leaked to client: %q", rec.Body.String())
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: service.ErrRoundNotFound, want: http.StatusNotFound},
		{err: fmt.Errorf("%w: m9", service.ErrUnknownInvitee), want: http.StatusForbidden},
		{err: fmt.Errorf("%w: round r-1 is completed", service.ErrInvalidState), want: http.StatusConflict},
		{err: service.ErrConcurrentUpdate, want: http.StatusConflict},
		{err: service.ErrNotInitiator, want: http.StatusForbidden},
		{err: service.ErrEmptyCandidateSet, want: http.StatusConflict},
		{err: service.ErrNoInvitees, want: http.StatusBadRequest},
		{err: service.ErrMissingInitiator, want: http.StatusBadRequest},
		{err: errors.New("database is locked"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got, _ := statusForError(tt.err); got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}
