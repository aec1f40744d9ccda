package stats

import (
	"context"
	"sort"
	"sync"

	"github.com/pefman/omega-duel/internal/game"
)

var (
	_ game.DefenceRegistry = (*Memory)(nil)
	_ game.Ledger          = (*Memory)(nil)
	_ game.EventSink       = (*Daily)(nil)
)

type commanderKey struct {
	player    string
	commander uint8
}

// Memory keeps defences, ranked tallies and commander XP in process memory.
// It implements game.DefenceRegistry and game.Ledger.
type Memory struct {
	mu         sync.Mutex
	defences   map[string]game.Defence
	players    map[string]*game.Standing
	commanders map[commanderKey]uint32
}

func NewMemory() *Memory {
	return &Memory{
		defences:   make(map[string]game.Defence),
		players:    make(map[string]*game.Standing),
		commanders: make(map[commanderKey]uint32),
	}
}

func (m *Memory) RegisterDefence(_ context.Context, d game.Defence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defences[d.Player] = d
	return nil
}

func (m *Memory) Defence(_ context.Context, player string) (game.Defence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.defences[player]
	if !ok {
		return game.Defence{}, game.ErrNoDefence
	}
	return d, nil
}

func (m *Memory) Defences(_ context.Context) ([]game.Defence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]game.Defence, 0, len(m.defences))
	for _, d := range m.defences {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Player < out[j].Player })
	return out, nil
}

// ensurePlayer must be called with mu held.
func (m *Memory) ensurePlayer(player string) *game.Standing {
	st, ok := m.players[player]
	if !ok {
		st = &game.Standing{Player: player}
		m.players[player] = st
	}
	return st
}

func (m *Memory) RecordResult(_ context.Context, fight game.RankedFight) error {
	winner, loser, ok := fight.Winner()
	if !ok {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensurePlayer(winner).Wins++
	m.ensurePlayer(loser).Losses++
	return nil
}

func (m *Memory) MarkWin(_ context.Context, player string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensurePlayer(player).Wins++
	return nil
}

func (m *Memory) MarkLoss(_ context.Context, player string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensurePlayer(player).Losses++
	return nil
}

func (m *Memory) Standings(_ context.Context) ([]game.Standing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]game.Standing, 0, len(m.players))
	for _, st := range m.players {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Player < out[j].Player })
	return out, nil
}

func (m *Memory) AddCommanderXP(_ context.Context, player string, commander uint8, amount uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commanders[commanderKey{player, commander}] += amount
	return nil
}

func (m *Memory) Commanders(_ context.Context, player string) ([]game.CommanderXP, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []game.CommanderXP
	for k, xp := range m.commanders {
		if k.player == player {
			out = append(out, game.CommanderXP{Commander: k.commander, XP: xp})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Commander < out[j].Commander })
	return out, nil
}
