package game

import "github.com/pefman/omega-duel/internal/engine"

const (
	MaxCommanders  uint8  = 4
	XPPerLootCrate uint32 = 10
	XPPerRankedWin uint32 = 5

	lootRollSides uint8 = 100
	lootFirstOdds uint8 = 75
)

// PickCommander maps a roll in [0, 100) to a commander. Commander 0 is the
// most likely; each following commander takes half of the remaining odds.
func PickCommander(roll uint8) uint8 {
	odds := lootFirstOdds
	for i := uint8(0); i < MaxCommanders; i++ {
		if roll < odds {
			return i
		}
		odds += (lootRollSides - odds) / 2
	}
	return 0
}

func lootRoll(seed uint64) uint8 {
	return engine.Roll(seed, lootRollSides)
}
