package engine

// SelectTarget picks the enemy slot the ship in ownSlot engages this round and
// how far it has to advance to bring that slot into range.
//
// Enemy slots are scanned from the highest index down, so bigger ship types
// are engaged first. A slot is viable when it is within range+speed of the
// acting ship and enemyPools[ownSlot] is positive. Note that the liveness test
// reads the enemy pool at the acting slot's index, not the candidate's.
func SelectTarget(ships *Catalog, ownSlot uint8, ownPositions, enemyPositions *[MaxShips]int8,
	enemyPools *[MaxShips]int32) (target uint8, delta uint8, ok bool) {

	ship := ships[ownSlot]
	position := ownPositions[ownSlot]
	reach := ship.Range + ship.Speed

	for enemy := MaxShips - 1; enemy >= 0; enemy-- {
		distance := absInt8(position - enemyPositions[enemy])
		if distance > reach || enemyPools[ownSlot] <= 0 {
			continue
		}
		if distance > ship.Range {
			return uint8(enemy), distance - ship.Range, true
		}
		return uint8(enemy), 0, true
	}
	return 0, 0, false
}

// absInt8 wraps like the board arithmetic: |-128| is reported as 128.
func absInt8(v int8) uint8 {
	if v < 0 {
		v = -v
	}
	return uint8(v)
}
