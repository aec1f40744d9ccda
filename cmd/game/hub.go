package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/pefman/omega-duel/internal/api"
	"github.com/pefman/omega-duel/internal/game"
	"github.com/pefman/omega-duel/internal/models"
)

type WsMsg struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type clientIn struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// replayRequest asks for either a stored ranked fight or an ad hoc one.
type replayRequest struct {
	Match string `json:"match,omitempty"`
	models.FightRequest
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// hub streams fight replays to websocket clients. Fights are resolved by the
// fight API; the hub only paces and frames them.
type hub struct {
	client     *api.Client
	log        *zap.Logger
	roundDelay time.Duration
	timeout    time.Duration
	conns      atomic.Int64
}

func newHub(client *api.Client, log *zap.Logger, roundDelay time.Duration) *hub {
	return &hub{client: client, log: log, roundDelay: roundDelay, timeout: 10 * time.Second}
}

func (h *hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade", zap.Error(err))
		return
	}
	defer conn.Close()
	h.conns.Add(1)
	defer h.conns.Add(-1)

	id := r.RemoteAddr
	h.log.Info("ws connect", zap.String("remote", id))
	for {
		var in clientIn
		if err := conn.ReadJSON(&in); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debug("ws read", zap.String("remote", id), zap.Error(err))
			}
			return
		}
		h.log.Debug("ws recv", zap.String("remote", id), zap.String("type", in.Type))
		if err := h.dispatch(r.Context(), conn, in); err != nil {
			h.log.Info("ws request failed", zap.String("type", in.Type), zap.Error(err))
			if werr := conn.WriteJSON(WsMsg{Type: "error", Data: map[string]string{"message": err.Error()}}); werr != nil {
				return
			}
		}
	}
}

func (h *hub) dispatch(ctx context.Context, conn *websocket.Conn, in clientIn) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	switch strings.ToLower(in.Type) {
	case "replay":
		var req replayRequest
		if len(in.Data) > 0 {
			if err := json.Unmarshal(in.Data, &req); err != nil {
				return errors.New("invalid replay request")
			}
		}
		replay, err := h.fetchReplay(ctx, req)
		if err != nil {
			return err
		}
		return h.stream(conn, replay)
	case "ships":
		ships, err := h.client.Ships(ctx)
		if err != nil {
			return err
		}
		return conn.WriteJSON(WsMsg{Type: "ships", Data: ships})
	case "leaderboard":
		board, err := h.client.Leaderboard(ctx)
		if err != nil {
			return err
		}
		return conn.WriteJSON(WsMsg{Type: "leaderboard", Data: board})
	}
	return errors.New("unknown message type " + in.Type)
}

func (h *hub) fetchReplay(ctx context.Context, req replayRequest) (game.Replay, error) {
	if id := strings.TrimSpace(req.Match); id != "" {
		m, err := h.client.Match(ctx, id)
		if err != nil {
			return game.Replay{}, err
		}
		return m.Replay, nil
	}
	return h.client.Replay(ctx, req.FightRequest)
}

// stream sends one "round" message per round, then the "result".
func (h *hub) stream(conn *websocket.Conn, replay game.Replay) error {
	for i, round := range models.Rounds(replay) {
		if i > 0 && h.roundDelay > 0 {
			time.Sleep(h.roundDelay)
		}
		if err := conn.WriteJSON(WsMsg{Type: "round", Data: round}); err != nil {
			return err
		}
	}
	return conn.WriteJSON(WsMsg{Type: "result", Data: replay.Result})
}
