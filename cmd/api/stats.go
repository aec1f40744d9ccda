package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/pefman/omega-duel/internal/game"
	"github.com/pefman/omega-duel/internal/models"
)

// GET /api/ranked/leaderboard
func (s *server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := s.svc.Leaderboard(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, board)
}

// GET /api/ranked/events?limit=20
func (s *server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, recentFights)
	}
	writeJSON(w, s.matches.Recent(limit))
}

// GET /api/commanders/{player}
func (s *server) handleCommanders(w http.ResponseWriter, r *http.Request) {
	player := mux.Vars(r)["player"]
	cs, err := s.svc.Commanders(r.Context(), player)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if cs == nil {
		cs = []game.CommanderXP{}
	}
	writeJSON(w, models.CommandersResponse{Player: player, Commanders: cs})
}

// POST /api/loot/{player}; players only buy crates for themselves.
func (s *server) handleLoot(w http.ResponseWriter, r *http.Request) {
	caller, err := account(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	player := mux.Vars(r)["player"]
	if caller != player {
		s.fail(w, r, game.ErrNotOwner)
		return
	}
	commander, err := s.svc.BuyLootCrate(r.Context(), player)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, models.LootResponse{Player: player, Commander: commander, XP: game.XPPerLootCrate})
}

// GET /api/stats/daily?date=YYYY-MM-DD (defaults to today, UTC)
func (s *server) handleDaily(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().UTC().Format(time.DateOnly)
	} else if _, err := time.Parse(time.DateOnly, date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	writeJSON(w, s.daily.Day(date))
}
