package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/pefman/omega-duel/internal/game"
	"github.com/pefman/omega-duel/internal/models"
	"github.com/pefman/omega-duel/internal/stats"
)

const maxBody = 1 << 20

var (
	errMissingAccount = errors.New("missing " + models.AccountHeader + " header")
	errBadRequest     = errors.New("bad request")
)

type server struct {
	svc     *game.Service
	archive game.FightArchive
	matches *MatchLog
	daily   *stats.Daily
	log     *zap.Logger
}

func (s *server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/api/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"ok": true})
	}).Methods(http.MethodGet)

	r.HandleFunc("/api/ships", s.handleShips).Methods(http.MethodGet)
	r.HandleFunc("/api/ships", s.handleAddShip).Methods(http.MethodPost)
	r.HandleFunc("/api/fight", s.handleFight).Methods(http.MethodPost)
	r.HandleFunc("/api/fight/result", s.handleFightResult).Methods(http.MethodPost)

	r.HandleFunc("/api/ranked/defence", s.handleRegisterDefence).Methods(http.MethodPut)
	r.HandleFunc("/api/ranked/defence", s.handleOwnDefence).Methods(http.MethodGet)
	r.HandleFunc("/api/ranked/attack", s.handleAttack).Methods(http.MethodPost)
	r.HandleFunc("/api/ranked/leaderboard", s.handleLeaderboard).Methods(http.MethodGet)
	r.HandleFunc("/api/ranked/events", s.handleEvents).Methods(http.MethodGet)
	r.HandleFunc("/api/ranked/{player}/{outcome:win|loss}", s.handleMark).Methods(http.MethodPost)

	r.HandleFunc("/api/commanders/{player}", s.handleCommanders).Methods(http.MethodGet)
	r.HandleFunc("/api/loot/{player}", s.handleLoot).Methods(http.MethodPost)
	r.HandleFunc("/api/stats/daily", s.handleDaily).Methods(http.MethodGet)
	r.HandleFunc("/api/match/{id}", s.handleMatch).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, r.Method+" not allowed")
	})
	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(models.ErrorBody{
		Error:   http.StatusText(code),
		Message: msg,
		Status:  code,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, game.ErrInvalidShip),
		errors.Is(err, game.ErrInvalidVariant),
		errors.Is(err, game.ErrUnknownCommander),
		errors.Is(err, game.ErrSelfAttack):
		return http.StatusBadRequest
	case errors.Is(err, errMissingAccount):
		return http.StatusUnauthorized
	case errors.Is(err, game.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, game.ErrNoDefence), errors.Is(err, game.ErrFightNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrCatalogFull):
		return http.StatusConflict
	case errors.Is(err, game.ErrCatalogIncomplete):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= 500 {
		s.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeError(w, code, err.Error())
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return nil
}

func account(r *http.Request) (string, error) {
	a := strings.TrimSpace(r.Header.Get(models.AccountHeader))
	if a == "" {
		return "", errMissingAccount
	}
	return a, nil
}

// simple CORS for browser clients
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+models.AccountHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("http", zap.String("method", r.Method), zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)))
	})
}

// ================= Catalog & replay =================

// GET /api/ships
func (s *server) handleShips(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.svc.Ships())
}

// POST /api/ships {name, cp, hp, ...}
func (s *server) handleAddShip(w http.ResponseWriter, r *http.Request) {
	caller, err := account(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var ship game.NamedShip
	if err := decode(r, &ship); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.svc.AddShip(r.Context(), caller, ship); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, s.svc.Ships())
}

// POST /api/fight {seed, lhs, rhs} -> result and both move logs
func (s *server) handleFight(w http.ResponseWriter, r *http.Request) {
	var req models.FightRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	replay, err := s.svc.Replay(r.Context(), req.Seed, req.Lhs, req.Rhs)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, replay)
}

// POST /api/fight/result {seed, lhs, rhs} -> result only
func (s *server) handleFightResult(w http.ResponseWriter, r *http.Request) {
	var req models.FightRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	result, err := s.svc.ReplayResult(r.Context(), req.Seed, req.Lhs, req.Rhs)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, result)
}

// ================= Ranked =================

// PUT /api/ranked/defence {name, fleet}
func (s *server) handleRegisterDefence(w http.ResponseWriter, r *http.Request) {
	player, err := account(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req models.DefenceRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.svc.RegisterDefence(r.Context(), player, req.Fleet, req.Name); err != nil {
		s.fail(w, r, err)
		return
	}
	d, err := s.svc.OwnDefence(r.Context(), player)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, d)
}

// GET /api/ranked/defence
func (s *server) handleOwnDefence(w http.ResponseWriter, r *http.Request) {
	player, err := account(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	d, err := s.svc.OwnDefence(r.Context(), player)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, d)
}

// POST /api/ranked/attack {target, fleet}
func (s *server) handleAttack(w http.ResponseWriter, r *http.Request) {
	attacker, err := account(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req models.AttackRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	fight, err := s.svc.Attack(r.Context(), attacker, strings.TrimSpace(req.Target), req.Fleet)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, fight)
}

// POST /api/ranked/{player}/win|loss (owner)
func (s *server) handleMark(w http.ResponseWriter, r *http.Request) {
	caller, err := account(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	vars := mux.Vars(r)
	player := vars["player"]
	if vars["outcome"] == "win" {
		err = s.svc.MarkWin(r.Context(), caller, player)
	} else {
		err = s.svc.MarkLoss(r.Context(), caller, player)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/match/{id} -> stored fight with regenerated moves
func (s *server) handleMatch(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	fight, err := s.archive.Fight(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res := fight.Result
	replay, err := s.svc.Replay(r.Context(), res.Seed, res.Lhs(), res.Rhs())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if replay.Result != res {
		// the catalog changed since the fight; the moves would not match
		s.log.Warn("match replay diverged", zap.String("id", id))
	}
	writeJSON(w, models.Match{
		ID:       fight.ID,
		Attacker: fight.Attacker,
		Defender: fight.Defender,
		At:       fight.At,
		Replay:   replay,
	})
}
