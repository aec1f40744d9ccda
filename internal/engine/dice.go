package engine

// The seed is the only source of randomness. Every derived value here is a
// plain modulus so that a fight can be replayed from its seed alone.

// varianceTerms returns the per-slot attack bonus for the attacking (lhs)
// side. The defending side uses seed/2.
func varianceTerms(seed uint64, ships *Catalog) [MaxShips]uint16 {
	var out [MaxShips]uint16
	for i := range ships {
		out[i] = uint16(seed % uint64(ships[i].AttackVariable))
	}
	return out
}

// Roll maps seed into [0, sides).
func Roll(seed uint64, sides uint8) uint8 {
	if sides == 0 {
		return 0
	}
	return uint8(seed % uint64(sides))
}
