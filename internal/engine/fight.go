package engine

// FightResult captures the outcome of a fight. Together with the catalog it
// is enough to regenerate the move logs.
type FightResult struct {
	SelectionLhs Selection `json:"selection_lhs"`
	SelectionRhs Selection `json:"selection_rhs"`
	VariantsLhs  Variants  `json:"variants_lhs"`
	VariantsRhs  Variants  `json:"variants_rhs"`
	CommanderLhs uint8     `json:"commander_lhs"`
	CommanderRhs uint8     `json:"commander_rhs"`
	LhsDead      bool      `json:"lhs_dead"`
	RhsDead      bool      `json:"rhs_dead"`
	Rounds       uint8     `json:"rounds"`
	Seed         uint64    `json:"seed"`
	ShipsLostLhs Selection `json:"ships_lost_lhs"`
	ShipsLostRhs Selection `json:"ships_lost_rhs"`
}

// Lhs returns the attacking fleet as declared.
func (r FightResult) Lhs() Fleet {
	return Fleet{Selection: r.SelectionLhs, Variants: r.VariantsLhs, Commander: r.CommanderLhs}
}

// Rhs returns the defending fleet as declared.
func (r FightResult) Rhs() Fleet {
	return Fleet{Selection: r.SelectionRhs, Variants: r.VariantsRhs, Commander: r.CommanderRhs}
}

// side is the transient battle state of one fleet.
type side struct {
	positions [MaxShips]int8
	pools     [MaxShips]int32
	variance  [MaxShips]uint16
	variants  Variants
	log       *MoveLog
}

func newSide(ships *Catalog, selection Selection, variants Variants, varianceSeed uint64,
	positions [MaxShips]int8, logMoves bool) *side {

	s := &side{
		positions: positions,
		variance:  varianceTerms(varianceSeed, ships),
		variants:  variants,
	}
	for i := range ships {
		s.pools[i] = int32(ships[i].HP) * int32(selection[i])
	}
	if logMoves {
		s.log = newMoveLog()
	}
	return s
}

// shot is a resolved action of one slot that has not been applied yet.
type shot struct {
	hasTarget bool
	target    uint8
	delta     uint8
	damage    uint32
}

func (s *side) aim(ships *Catalog, slot uint8, enemy *side) shot {
	target, delta, ok := SelectTarget(ships, slot, &s.positions, &enemy.positions, &enemy.pools)
	if !ok {
		return shot{}
	}
	return shot{
		hasTarget: true,
		target:    target,
		delta:     delta,
		damage:    Damage(&s.variance, &s.variants, &enemy.variants, ships, slot, target, uint32(s.pools[slot])),
	}
}

// Fight resolves a battle between the attacking fleet (lhs) and the
// defending fleet (rhs). It is a pure function of its arguments: the same
// inputs always produce the same result and logs. Move logs are only built
// when logMoves is set; otherwise both returned logs are nil.
//
// Within a slot the defender's shot lands before the attacker's. Both sides
// decide on the state at the start of the slot.
func Fight(seed uint64, logMoves bool, ships Catalog,
	selectionLhs, selectionRhs Selection, variantsLhs, variantsRhs Variants,
	commanderLhs, commanderRhs uint8) (FightResult, *MoveLog, *MoveLog) {

	lhs := newSide(&ships, selectionLhs, variantsLhs, seed, [MaxShips]int8{10, 11, 12, 13}, logMoves)
	rhs := newSide(&ships, selectionRhs, variantsRhs, seed/2, [MaxShips]int8{-10, -11, -12, -13}, logMoves)

	var rounds uint8
	for round := 0; round < MaxRounds; round++ {
		if IsDead(lhs.pools) || IsDead(rhs.pools) {
			break
		}
		rounds++
		r := uint8(round)

		for slot := uint8(0); slot < MaxShips; slot++ {
			lhsAlive := lhs.pools[slot] > 0
			rhsAlive := rhs.pools[slot] > 0
			speed := int8(ships[slot].Speed)

			var pending shot
			if lhsAlive {
				pending = lhs.aim(&ships, slot, rhs)
				if pending.hasTarget {
					lhs.log.shoot(r, slot, pending.target, pending.damage, lhs.positions[slot]-int8(pending.delta))
				} else {
					lhs.log.reposition(r, slot, lhs.positions[slot]-speed)
				}
			}

			if rhsAlive {
				s := rhs.aim(&ships, slot, lhs)
				if s.hasTarget {
					lhs.pools[s.target] -= int32(s.damage)
					rhs.positions[slot] += int8(s.delta)
					rhs.log.shoot(r, slot, s.target, s.damage, rhs.positions[slot])
				} else {
					rhs.positions[slot] += speed
					rhs.log.reposition(r, slot, rhs.positions[slot])
				}
			}

			if lhsAlive {
				if pending.hasTarget {
					rhs.pools[pending.target] -= int32(pending.damage)
					lhs.positions[slot] -= int8(pending.delta)
				} else {
					lhs.positions[slot] -= speed
				}
			}
		}
	}

	result := FightResult{
		SelectionLhs: selectionLhs,
		SelectionRhs: selectionRhs,
		VariantsLhs:  variantsLhs,
		VariantsRhs:  variantsRhs,
		CommanderLhs: commanderLhs,
		CommanderRhs: commanderRhs,
		LhsDead:      selectionRhs.Units() > 0 && IsDead(lhs.pools),
		RhsDead:      IsDead(rhs.pools),
		Rounds:       rounds,
		Seed:         seed,
		ShipsLostLhs: shipsLost(&ships, selectionLhs, lhs.pools),
		ShipsLostRhs: shipsLost(&ships, selectionRhs, rhs.pools),
	}
	return result, lhs.log, rhs.log
}

// FightFleets is Fight with each side bundled as a Fleet.
func FightFleets(seed uint64, logMoves bool, ships Catalog, lhs, rhs Fleet) (FightResult, *MoveLog, *MoveLog) {
	return Fight(seed, logMoves, ships, lhs.Selection, rhs.Selection, lhs.Variants, rhs.Variants,
		lhs.Commander, rhs.Commander)
}

// IsDead reports whether every pool is exhausted.
func IsDead(pools [MaxShips]int32) bool {
	for _, hp := range pools {
		if hp > 0 {
			return false
		}
	}
	return true
}

func shipsLost(ships *Catalog, selection Selection, pools [MaxShips]int32) Selection {
	var lost Selection
	for i := range ships {
		hp := uint32(ships[i].HP)
		remaining := uint32(max(pools[i], 0))
		lost[i] = uint8((uint32(selection[i])*hp - remaining) / hp)
	}
	return lost
}
