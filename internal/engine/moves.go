package engine

// MoveType tags a logged event.
type MoveType uint8

const (
	MoveShoot      MoveType = 1
	MoveReposition MoveType = 2
)

func (t MoveType) String() string {
	switch t {
	case MoveShoot:
		return "shoot"
	case MoveReposition:
		return "reposition"
	}
	return "unknown"
}

// Move is one logged action of a slot. Reposition moves leave Target and
// Damage at zero.
type Move struct {
	Type           MoveType `json:"move_type"`
	Round          uint8    `json:"round"`
	Source         uint8    `json:"source"`
	Target         uint8    `json:"target"`
	TargetPosition int8     `json:"target_position"`
	Damage         uint32   `json:"damage"`
}

// MoveLog is an append-only sequence of moves for one side. A nil *MoveLog is
// a valid, disabled log: appends are dropped.
type MoveLog struct {
	moves []Move
}

func newMoveLog() *MoveLog {
	return &MoveLog{moves: make([]Move, 0, MaxShips)}
}

func (l *MoveLog) shoot(round, source, target uint8, damage uint32, position int8) {
	if l == nil {
		return
	}
	l.moves = append(l.moves, Move{
		Type:           MoveShoot,
		Round:          round,
		Source:         source,
		Target:         target,
		TargetPosition: position,
		Damage:         damage,
	})
}

func (l *MoveLog) reposition(round, source uint8, position int8) {
	if l == nil {
		return
	}
	l.moves = append(l.moves, Move{
		Type:           MoveReposition,
		Round:          round,
		Source:         source,
		TargetPosition: position,
	})
}

// Len returns the number of logged moves.
func (l *MoveLog) Len() int {
	if l == nil {
		return 0
	}
	return len(l.moves)
}

// Moves returns a copy of the logged moves.
func (l *MoveLog) Moves() []Move {
	if l == nil {
		return nil
	}
	out := make([]Move, len(l.moves))
	copy(out, l.moves)
	return out
}
