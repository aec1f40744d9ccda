package engine

// Damage returns what the stack in slot source deals to slot target.
//
// Arithmetic keeps the fixed widths of the wire contract: stats are uint16,
// damage is uint32 and both wrap. The raw value is reinterpreted as int32
// before it is clamped to [0, cap], where cap is what the attacking stack
// could destroy at most.
func Damage(variance *[MaxShips]uint16, ownVariants, targetVariants *Variants, ships *Catalog,
	source, target uint8, sourcePool uint32) uint32 {

	attacker := ships[source]
	defender := ships[target]

	attack := attackStat(attacker.AttackBase, ownVariants[source]) + variance[source]
	defence := defenceStat(defender.Defence, targetVariants[target])

	// A partially damaged unit still fires as a whole one.
	stack := uint16(sourcePool/uint32(attacker.HP)) + 1
	capDamage := uint32(stack) * uint32(defender.HP)
	damage := uint32(attack-defence) * uint32(stack)

	if hardCounter(source, target) {
		// TODO: confirm whether a flat multiplier was intended; this is quadratic.
		damage *= damage / 2
	}

	return uint32(min(max(0, int32(damage)), int32(capDamage)))
}

// hardCounter reports whether source directly outranks target: slot k counters
// slot k-1 and slot 0 counters the last slot.
func hardCounter(source, target uint8) bool {
	return int8(source)-int8(target) == 1 || (source == 0 && target == MaxShips-1)
}
