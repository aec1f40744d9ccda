package engine

// Board and fleet limits. These are fixed so that a fight has a provable
// upper bound on work.
const (
	BoardSize = 15
	MaxRounds = 50
	MaxShips  = 4
	FitToStat = 20
)

// ShipType holds the immutable stats of one ship class.
type ShipType struct {
	CommandPower   uint16 `json:"cp" yaml:"cp"`
	HP             uint16 `json:"hp" yaml:"hp"`
	AttackBase     uint16 `json:"attack_base" yaml:"attack_base"`
	AttackVariable uint16 `json:"attack_variable" yaml:"attack_variable"`
	Defence        uint16 `json:"defence" yaml:"defence"`
	Speed          uint8  `json:"speed" yaml:"speed"`
	Range          uint8  `json:"range" yaml:"range"`
}

// Catalog is the ordered roster of ship types, smallest first.
type Catalog [MaxShips]ShipType

// Selection is the number of units fielded per ship type.
type Selection [MaxShips]uint8

// Variants holds one fitting per ship type.
type Variants [MaxShips]uint8

// Fitting variants
const (
	Neutral   uint8 = 0
	Defensive uint8 = 1
	Offensive uint8 = 2
)

// Fleet is one side of a fight.
type Fleet struct {
	Selection Selection `json:"selection"`
	Variants  Variants  `json:"variants"`
	Commander uint8     `json:"commander"`
}

// Units returns the total number of units fielded.
func (s Selection) Units() uint16 {
	var total uint16
	for _, n := range s {
		total += uint16(n)
	}
	return total
}

func attackStat(stat uint16, variant uint8) uint16 {
	switch variant {
	case Neutral:
		return stat
	case Defensive:
		return stat - FitToStat
	case Offensive:
		return stat + FitToStat
	}
	return 0
}

func defenceStat(stat uint16, variant uint8) uint16 {
	switch variant {
	case Neutral:
		return stat
	case Defensive:
		return stat + FitToStat
	case Offensive:
		return stat - FitToStat
	}
	return 0
}
