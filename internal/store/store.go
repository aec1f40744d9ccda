// Package store persists defences, ranked tallies, commander experience and
// ranked fights in SQL databases. SQLite and Postgres share one schema shape.
package store

import (
	"encoding/json"
	"fmt"

	"github.com/pefman/omega-duel/internal/engine"
	"github.com/pefman/omega-duel/internal/game"
)

// Store is everything the services need from a persistent backend.
type Store interface {
	game.DefenceRegistry
	game.Ledger
	game.EventSink
	game.FightArchive
	Close() error
}

var (
	_ Store = (*SQLite)(nil)
	_ Store = (*Postgres)(nil)
)

// Fleets and results are stored as JSON columns; they are only ever read
// back whole.

func encodeFleet(f engine.Fleet) (string, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("encode fleet: %w", err)
	}
	return string(b), nil
}

func decodeFleet(s string) (engine.Fleet, error) {
	var f engine.Fleet
	if err := json.Unmarshal([]byte(s), &f); err != nil {
		return engine.Fleet{}, fmt.Errorf("decode fleet: %w", err)
	}
	return f, nil
}

func encodeResult(r engine.FightResult) (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	return string(b), nil
}

func decodeResult(s string) (engine.FightResult, error) {
	var r engine.FightResult
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return engine.FightResult{}, fmt.Errorf("decode result: %w", err)
	}
	return r, nil
}
