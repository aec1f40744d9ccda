package models

import (
	"time"

	"github.com/pefman/omega-duel/internal/engine"
	"github.com/pefman/omega-duel/internal/game"
)

// ========================= Wire shapes =========================
// Request and response bodies shared by the fight API, its client and the
// replay streamer.

// AccountHeader carries the caller's account id.
const AccountHeader = "X-Account"

type FightRequest struct {
	Seed uint64       `json:"seed"`
	Lhs  engine.Fleet `json:"lhs"`
	Rhs  engine.Fleet `json:"rhs"`
}

type DefenceRequest struct {
	Name  string       `json:"name"`
	Fleet engine.Fleet `json:"fleet"`
}

type AttackRequest struct {
	Target string       `json:"target"`
	Fleet  engine.Fleet `json:"fleet"`
}

type LootResponse struct {
	Player    string `json:"player"`
	Commander uint8  `json:"commander"`
	XP        uint32 `json:"xp"`
}

type CommandersResponse struct {
	Player     string             `json:"player"`
	Commanders []game.CommanderXP `json:"commanders"`
}

// Match is a stored ranked fight with its regenerated move logs.
type Match struct {
	ID       string    `json:"id"`
	Attacker string    `json:"attacker"`
	Defender string    `json:"defender"`
	At       time.Time `json:"at"`
	game.Replay
}

type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// Round is one round of a replay as streamed to websocket clients.
type Round struct {
	Round uint8         `json:"round"`
	Lhs   []engine.Move `json:"lhs"`
	Rhs   []engine.Move `json:"rhs"`
}

// Rounds splits a replay's move logs into rounds, in order. Rounds in which
// neither side acted are skipped.
func Rounds(r game.Replay) []Round {
	var out []Round
	i, j := 0, 0
	for i < len(r.MovesLhs) || j < len(r.MovesRhs) {
		next := nextRound(r.MovesLhs, i, r.MovesRhs, j)
		frame := Round{Round: next}
		for i < len(r.MovesLhs) && r.MovesLhs[i].Round == next {
			frame.Lhs = append(frame.Lhs, r.MovesLhs[i])
			i++
		}
		for j < len(r.MovesRhs) && r.MovesRhs[j].Round == next {
			frame.Rhs = append(frame.Rhs, r.MovesRhs[j])
			j++
		}
		out = append(out, frame)
	}
	return out
}

func nextRound(lhs []engine.Move, i int, rhs []engine.Move, j int) uint8 {
	switch {
	case i >= len(lhs):
		return rhs[j].Round
	case j >= len(rhs):
		return lhs[i].Round
	case lhs[i].Round < rhs[j].Round:
		return lhs[i].Round
	default:
		return rhs[j].Round
	}
}
