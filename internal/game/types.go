package game

import (
	"time"

	"github.com/pefman/omega-duel/internal/engine"
)

// Defence is the fleet a player leaves behind for ranked opponents to attack.
type Defence struct {
	Player string       `json:"player"`
	Name   string       `json:"name"`
	Fleet  engine.Fleet `json:"fleet"`
}

// Standing is a player's ranked tally.
type Standing struct {
	Player string `json:"player"`
	Wins   uint32 `json:"ranked_wins"`
	Losses uint32 `json:"ranked_losses"`
}

// LeaderboardEntry joins a registered defence with its tally.
type LeaderboardEntry struct {
	Player string `json:"player"`
	Name   string `json:"name"`
	Wins   uint32 `json:"wins"`
	Losses uint32 `json:"losses"`
}

// CommanderXP is the experience a player holds for one commander.
type CommanderXP struct {
	Commander uint8  `json:"commander"`
	XP        uint32 `json:"xp"`
}

// RankedFight is a completed ranked attack. Moves are not kept: they can be
// regenerated from the result's seed and fleets.
type RankedFight struct {
	ID       string             `json:"id"`
	Attacker string             `json:"attacker"`
	Defender string             `json:"defender"`
	Result   engine.FightResult `json:"result"`
	At       time.Time          `json:"at"`
}

// Winner returns who won and who lost. ok is false when the fight ran out of
// rounds with both fleets standing.
func (f RankedFight) Winner() (winner, loser string, ok bool) {
	switch {
	case f.Result.LhsDead:
		return f.Defender, f.Attacker, true
	case f.Result.RhsDead:
		return f.Attacker, f.Defender, true
	}
	return "", "", false
}

// WinningCommander returns the commander of the winning side.
func (f RankedFight) WinningCommander() (uint8, bool) {
	switch {
	case f.Result.LhsDead:
		return f.Result.CommanderRhs, true
	case f.Result.RhsDead:
		return f.Result.CommanderLhs, true
	}
	return 0, false
}

// Replay is a fight together with both move logs.
type Replay struct {
	Result   engine.FightResult `json:"result"`
	MovesLhs []engine.Move      `json:"moves_lhs,omitempty"`
	MovesRhs []engine.Move      `json:"moves_rhs,omitempty"`
}
