package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Startup tracks initialization progress for the health endpoint
type Startup struct {
	mu      sync.RWMutex
	ready   bool
	current string
	steps   []startupStep
}

type startupStep struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// Pinger is satisfied by *sql.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// NewStartup creates a tracker with the given steps, none completed
func NewStartup(steps ...string) *Startup {
	s := &Startup{current: "Initializing..."}
	for _, name := range steps {
		s.steps = append(s.steps, startupStep{Name: name})
	}
	return s
}

// CompleteStep marks a step as completed
func (s *Startup) CompleteStep(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.steps {
		if s.steps[i].Name == name {
			s.steps[i].Completed = true
			break
		}
	}
	s.current = name
}

// MarkReady marks the server as fully initialized
func (s *Startup) MarkReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = true
	s.current = "Server ready"
}

// IsReady returns whether the server is fully initialized
func (s *Startup) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

type healthResponse struct {
	Status   string        `json:"status"`
	Current  string        `json:"current"`
	Progress int           `json:"progress"`
	Steps    []startupStep `json:"steps"`
	Database string        `json:"database,omitempty"`
}

// Healthz reports 200 once startup finished and the database answers, 503 otherwise
func (s *Startup) Healthz(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		resp := healthResponse{
			Status:  "starting",
			Current: s.current,
			Steps:   append([]startupStep(nil), s.steps...),
		}
		ready := s.ready
		s.mu.RUnlock()

		completed := 0
		for _, step := range resp.Steps {
			if step.Completed {
				completed++
			}
		}
		if len(resp.Steps) > 0 {
			resp.Progress = (completed * 100) / len(resp.Steps)
		}

		status := http.StatusServiceUnavailable
		if ready {
			resp.Progress = 100
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				resp.Status = "degraded"
				resp.Database = err.Error()
			} else {
				resp.Status = "ok"
				resp.Database = "ok"
				status = http.StatusOK
			}
		}

		respondJSON(w, status, resp)
	}
}
