package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"sifir-drill-service/internal/app"
	"github.com/rs/zerolog"
)

// LeaderboardHandler serves ranked scores as JSON.
type LeaderboardHandler struct {
	service *app.DrillService
	log     zerolog.Logger
}

func NewLeaderboardHandler(service *app.DrillService, log zerolog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{service: service, log: log}
}

// ServeLeaderboard handles GET /leaderboard?class=&limit=.
func (h *LeaderboardHandler) ServeLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	lb, err := h.service.Leaderboard(r.Context(), r.URL.Query().Get("class"), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("load leaderboard")
		http.Error(w, "leaderboard unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(lb)
}

// ServeTopScore handles GET /leaderboard/top.
func (h *LeaderboardHandler) ServeTopScore(w http.ResponseWriter, r *http.Request) {
	top, err := h.service.TopScore(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("load top score")
		http.Error(w, "leaderboard unavailable", http.StatusInternalServerError)
		return
	}
	if top == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(top)
}
