package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ai-colosseum/server/arena"
	"ai-colosseum/server/engine"
	"ai-colosseum/server/rating"
	"ai-colosseum/server/store"
)

func Router(sched *arena.Scheduler, db *store.DB) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Get("/api/arenas", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, sched.Arenas())
	})

	r.Get("/api/arenas/{id}", func(w http.ResponseWriter, req *http.Request) {
		v, ok := sched.Arena(chi.URLParam(req, "id"))
		if !ok {
			writeError(w, http.StatusNotFound, "arena not found")
			return
		}
		writeJSON(w, http.StatusOK, v)
	})

	r.Post("/api/arenas/{id}/join", func(w http.ResponseWriter, req *http.Request) {
		var ag arena.Agent
		if err := json.NewDecoder(req.Body).Decode(&ag); err != nil {
			writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
			return
		}
		if ag.ID == "" || ag.Name == "" {
			writeError(w, http.StatusBadRequest, "agent id and name are required")
			return
		}
		if err := sched.Join(chi.URLParam(req, "id"), ag); err != nil {
			writeSchedulerError(w, err)
			return
		}
		v, _ := sched.Arena(chi.URLParam(req, "id"))
		writeJSON(w, http.StatusOK, v)
	})

	r.Post("/api/arenas/{id}/leave", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			AgentID string `json:"agentId"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.AgentID == "" {
			writeError(w, http.StatusBadRequest, "agentId is required")
			return
		}
		if err := sched.Leave(chi.URLParam(req, "id"), body.AgentID); err != nil {
			writeSchedulerError(w, err)
			return
		}
		v, _ := sched.Arena(chi.URLParam(req, "id"))
		writeJSON(w, http.StatusOK, v)
	})

	r.Get("/api/matches/{id}", func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "id")
		if v, ok := sched.Match(id); ok {
			writeJSON(w, http.StatusOK, v)
			return
		}
		if db == nil {
			writeError(w, http.StatusNotFound, "match not found")
			return
		}
		// Fall back to the archive for finished matches the scheduler
		// no longer holds.
		payouts, err := db.Payouts(req.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if len(payouts) == 0 {
			writeError(w, http.StatusNotFound, "match not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "payouts": payouts})
	})

	r.Get("/api/matches/{id}/turns", func(w http.ResponseWriter, req *http.Request) {
		v, ok := sched.Match(chi.URLParam(req, "id"))
		if !ok {
			writeError(w, http.StatusNotFound, "match not found")
			return
		}
		if v.GameType == arena.GameRPS {
			writeJSON(w, http.StatusOK, v.Rounds)
			return
		}
		writeJSON(w, http.StatusOK, v.History)
	})

	r.Get("/api/matches/{id}/stats", func(w http.ResponseWriter, req *http.Request) {
		v, ok := sched.Match(chi.URLParam(req, "id"))
		if !ok {
			writeError(w, http.StatusNotFound, "match not found")
			return
		}
		writeJSON(w, http.StatusOK, engine.Tally(v.History))
	})

	r.Get("/api/leaderboard", func(w http.ResponseWriter, req *http.Request) {
		if db == nil {
			writeJSON(w, http.StatusOK, []rating.Rating{})
			return
		}
		limit := 20
		if q := req.URL.Query().Get("limit"); q != "" {
			if n, err := strconv.Atoi(q); err == nil && n > 0 && n <= 200 {
				limit = n
			}
		}
		rows, err := db.Leaderboard(req.Context(), limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, rows)
	})

	r.Get("/api/matches", func(w http.ResponseWriter, req *http.Request) {
		if db == nil {
			writeJSON(w, http.StatusOK, []store.MatchSummary{})
			return
		}
		limit := 20
		if q := req.URL.Query().Get("limit"); q != "" {
			if n, err := strconv.Atoi(q); err == nil && n > 0 && n <= 200 {
				limit = n
			}
		}
		rows, err := db.RecentMatches(req.Context(), limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, rows)
	})

	return r
}

func writeSchedulerError(w http.ResponseWriter, err error) {
	var ve *engine.ValidationError
	var se *engine.InvalidStateError
	switch {
	case errors.Is(err, arena.ErrArenaNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &se):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
