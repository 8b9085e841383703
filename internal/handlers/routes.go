package handlers

import "net/http"

// RegisterRoutes mounts the round API on mux
func (h *RoundHandler) RegisterRoutes(mux *http.ServeMux, m *Middleware) {
	// Mutating routes are rate limited per user
	mux.HandleFunc("POST /api/rounds", m.RequireUser(m.RateLimit(h.StartRound)))
	mux.HandleFunc("POST /api/rounds/{id}/accept", m.RequireUser(m.RateLimit(h.AcceptInvitation)))
	mux.HandleFunc("POST /api/rounds/{id}/choose", m.RequireUser(m.RateLimit(h.ChooseTeaMaker)))

	mux.HandleFunc("GET /api/rounds/{id}", m.RequireUser(h.GetRound))
	mux.HandleFunc("GET /api/rounds/{id}/participants", m.RequireUser(h.ListParticipants))
	mux.HandleFunc("GET /api/history", m.RequireUser(h.History))
	mux.HandleFunc("GET /api/notifications", m.RequireUser(h.Notifications))
}
