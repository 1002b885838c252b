package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/courtsideapp/courtside/internal/appmetrics"
	"github.com/courtsideapp/courtside/internal/auth"
	"github.com/courtsideapp/courtside/internal/picks"
	"github.com/courtsideapp/courtside/internal/store"
	"github.com/rs/zerolog/log"
)

const defaultLeaderboardMinPicks = 3

// handleMe returns the authenticated member's profile.
// Route: GET /api/me
func handleMe(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.UserIDFromContext(r.Context())
		profile, err := st.GetProfile(r.Context(), userID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if profile == nil {
			http.Error(w, "profile not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		encodeJSON(w, profile)
	}
}

// handleModelPicks serves the current model pick slate. Reachable only
// through the pro-membership gate.
// Route: GET /api/picks/model
func handleModelPicks(feed *picks.Feed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slate := feed.Picks()
		if slate == nil {
			slate = []picks.ModelPick{}
		}
		appmetrics.ModelPicksServed.Inc()
		w.Header().Set("Content-Type", "application/json")
		encodeJSON(w, slate)
	}
}

type createPickRequest struct {
	Game   string  `json:"game"`
	Team   string  `json:"team"`
	Spread float64 `json:"spread"`
}

// handleCreatePick records a member's own spread pick.
// Route: POST /api/picks
func handleCreatePick(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.UserIDFromContext(r.Context())

		var req createPickRequest
		if err := decodeJSON(w, r, &req); err != nil {
			return
		}
		req.Game = strings.TrimSpace(req.Game)
		req.Team = strings.TrimSpace(req.Team)
		if req.Game == "" || req.Team == "" {
			http.Error(w, "game and team are required", http.StatusBadRequest)
			return
		}
		if req.Spread < -50 || req.Spread > 50 {
			http.Error(w, "spread out of range", http.StatusBadRequest)
			return
		}

		pick := &store.Pick{
			UserID: userID,
			Game:   req.Game,
			Team:   req.Team,
			Spread: req.Spread,
		}
		if err := st.CreatePick(r.Context(), pick); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Pick creation failed")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		encodeJSON(w, pick)
	}
}

// handleListPicks lists the member's own picks, newest first.
// Route: GET /api/picks
func handleListPicks(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.UserIDFromContext(r.Context())
		list, err := st.ListPicksByUser(r.Context(), userID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []*store.Pick{}
		}
		w.Header().Set("Content-Type", "application/json")
		encodeJSON(w, list)
	}
}

type settlePickRequest struct {
	Result string `json:"result"`
}

// handleSettlePick records the outcome of a member's pending pick.
// Route: POST /api/picks/{pick_id}/settle
func handleSettlePick(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.UserIDFromContext(r.Context())
		pickID := strings.TrimSpace(r.PathValue("pick_id"))
		if pickID == "" {
			http.Error(w, "missing pick_id", http.StatusBadRequest)
			return
		}

		var req settlePickRequest
		if err := decodeJSON(w, r, &req); err != nil {
			return
		}
		result, ok := store.ParsePickResult(req.Result)
		if !ok {
			http.Error(w, "result must be win, loss, or push", http.StatusBadRequest)
			return
		}

		pick, err := st.SettlePick(r.Context(), pickID, userID, result)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if pick == nil {
			http.Error(w, "pick not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		encodeJSON(w, pick)
	}
}

// handleLeaderboard serves community pick performance. The min_picks filter
// is validated here and bound as a query parameter in the store.
// Route: GET /api/leaderboard?min_picks=N
func handleLeaderboard(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		minPicks := defaultLeaderboardMinPicks
		if raw := strings.TrimSpace(r.URL.Query().Get("min_picks")); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				http.Error(w, "min_picks must be an integer", http.StatusBadRequest)
				return
			}
			minPicks = n
		}
		if minPicks < store.MinLeaderboardFilter || minPicks > store.MaxLeaderboardFilter {
			http.Error(w, "min_picks out of range", http.StatusBadRequest)
			return
		}

		entries, err := st.Leaderboard(r.Context(), minPicks)
		if err != nil {
			log.Error().Err(err).Msg("Leaderboard query failed")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if entries == nil {
			entries = []store.LeaderboardEntry{}
		}
		appmetrics.LeaderboardQueries.Inc()
		w.Header().Set("Content-Type", "application/json")
		encodeJSON(w, entries)
	}
}

type healthResponse struct {
	Status string `json:"status"`
}

// handleHealthz is a liveness probe.
func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	encodeJSON(w, healthResponse{Status: "ok"})
}

// handleReadyz is a readiness probe; it checks store connectivity.
func handleReadyz(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			encodeJSON(w, healthResponse{Status: "unavailable"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		encodeJSON(w, healthResponse{Status: "ready"})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64*1024))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return err
	}
	return nil
}

func encodeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("server: encode response")
	}
}
