package game

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/pefman/omega-duel/internal/engine"
)

// ShipCatalog supplies the roster a fight is resolved against.
type ShipCatalog interface {
	ListShips() (engine.Catalog, error)
}

// ShipRoster is a ShipCatalog that can be extended.
type ShipRoster interface {
	ShipCatalog
	AddShip(ship NamedShip) error
	Ships() []NamedShip
}

// DefenceRegistry stores one defence per player.
type DefenceRegistry interface {
	RegisterDefence(ctx context.Context, d Defence) error
	// Defence returns ErrNoDefence when the player has not registered one.
	Defence(ctx context.Context, player string) (Defence, error)
	Defences(ctx context.Context) ([]Defence, error)
}

// Ledger keeps ranked tallies and commander experience.
type Ledger interface {
	// RecordResult tallies the outcome of a ranked fight.
	RecordResult(ctx context.Context, fight RankedFight) error
	MarkWin(ctx context.Context, player string) error
	MarkLoss(ctx context.Context, player string) error
	Standings(ctx context.Context) ([]Standing, error)
	AddCommanderXP(ctx context.Context, player string, commander uint8, amount uint32) error
	Commanders(ctx context.Context, player string) ([]CommanderXP, error)
}

// EventSink receives completed ranked fights.
type EventSink interface {
	Publish(ctx context.Context, fight RankedFight) error
}

// Sinks fans an event out to several sinks. The first error is returned
// after every sink has been called.
type Sinks []EventSink

func (s Sinks) Publish(ctx context.Context, fight RankedFight) error {
	var first error
	for _, sink := range s {
		if err := sink.Publish(ctx, fight); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// SeedSource yields seeds for fights and loot rolls.
type SeedSource interface {
	Seed(parts ...string) uint64
}

// SeedFunc adapts a function to SeedSource.
type SeedFunc func(parts ...string) uint64

func (f SeedFunc) Seed(parts ...string) uint64 { return f(parts...) }

// ClockSeeds mixes the current time with the given parts.
type ClockSeeds struct {
	Now func() time.Time
}

func (c ClockSeeds) Seed(parts ...string) uint64 {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	h := fnv.New64a()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return h.Sum64() ^ uint64(now().UnixNano())
}

// FightArchive looks up ranked fights by id. It returns ErrFightNotFound for
// unknown ids.
type FightArchive interface {
	Fight(ctx context.Context, id string) (RankedFight, error)
}
