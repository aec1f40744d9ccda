package game

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pefman/omega-duel/internal/engine"
)

// Options wires a Service to its collaborators. Catalog, Defences and Ledger
// are required.
type Options struct {
	Owner    string
	Catalog  ShipRoster
	Defences DefenceRegistry
	Ledger   Ledger
	Events   EventSink
	Seeds    SeedSource
	Logger   *zap.Logger
	Now      func() time.Time
	NewID    func() string
}

// Service is the orchestration layer around engine.Fight. It validates
// inputs, picks seeds and routes results to the ledger and event sinks. It
// holds no simulation logic of its own.
type Service struct {
	owner    string
	catalog  ShipRoster
	defences DefenceRegistry
	ledger   Ledger
	events   EventSink
	seeds    SeedSource
	log      *zap.Logger
	now      func() time.Time
	newID    func() string
}

func NewService(opts Options) *Service {
	s := &Service{
		owner:    opts.Owner,
		catalog:  opts.Catalog,
		defences: opts.Defences,
		ledger:   opts.Ledger,
		events:   opts.Events,
		seeds:    opts.Seeds,
		log:      opts.Logger,
		now:      opts.Now,
		newID:    opts.NewID,
	}
	if s.events == nil {
		s.events = Sinks(nil)
	}
	if s.seeds == nil {
		s.seeds = ClockSeeds{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.New().String() }
	}
	return s
}

// ValidateFleet checks the values the engine does not guard against.
func ValidateFleet(f engine.Fleet) error {
	for i, v := range f.Variants {
		if v > engine.Offensive {
			return fmt.Errorf("%w: slot %d has %d", ErrInvalidVariant, i, v)
		}
	}
	if f.Commander >= MaxCommanders {
		return fmt.Errorf("%w: %d", ErrUnknownCommander, f.Commander)
	}
	return nil
}

func (s *Service) requireOwner(caller string) error {
	if s.owner == "" || caller != s.owner {
		return ErrNotOwner
	}
	return nil
}

// Ships returns the catalog roster.
func (s *Service) Ships() []NamedShip {
	return s.catalog.Ships()
}

// AddShip appends a ship type to the catalog. Owner only.
func (s *Service) AddShip(ctx context.Context, caller string, ship NamedShip) error {
	if err := s.requireOwner(caller); err != nil {
		return err
	}
	if err := s.catalog.AddShip(ship); err != nil {
		return err
	}
	s.log.Info("ship added", zap.String("name", ship.Name), zap.Uint16("hp", ship.HP))
	return nil
}

func (s *Service) fight(seed uint64, logMoves bool, lhs, rhs engine.Fleet) (engine.FightResult, *engine.MoveLog, *engine.MoveLog, error) {
	if err := ValidateFleet(lhs); err != nil {
		return engine.FightResult{}, nil, nil, fmt.Errorf("attacker: %w", err)
	}
	if err := ValidateFleet(rhs); err != nil {
		return engine.FightResult{}, nil, nil, fmt.Errorf("defender: %w", err)
	}
	ships, err := s.catalog.ListShips()
	if err != nil {
		return engine.FightResult{}, nil, nil, err
	}
	result, lhsLog, rhsLog := engine.FightFleets(seed, logMoves, ships, lhs, rhs)
	return result, lhsLog, rhsLog, nil
}

// Replay resolves a fight and returns both move logs.
func (s *Service) Replay(ctx context.Context, seed uint64, lhs, rhs engine.Fleet) (Replay, error) {
	result, lhsLog, rhsLog, err := s.fight(seed, true, lhs, rhs)
	if err != nil {
		return Replay{}, err
	}
	return Replay{Result: result, MovesLhs: lhsLog.Moves(), MovesRhs: rhsLog.Moves()}, nil
}

// ReplayResult resolves a fight without building move logs.
func (s *Service) ReplayResult(ctx context.Context, seed uint64, lhs, rhs engine.Fleet) (engine.FightResult, error) {
	result, _, _, err := s.fight(seed, false, lhs, rhs)
	return result, err
}

// RegisterDefence stores or replaces the player's defence.
func (s *Service) RegisterDefence(ctx context.Context, player string, fleet engine.Fleet, name string) error {
	player = strings.TrimSpace(player)
	if player == "" {
		return fmt.Errorf("%w: missing player", ErrNoDefence)
	}
	if err := ValidateFleet(fleet); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = player
	}
	if err := s.defences.RegisterDefence(ctx, Defence{Player: player, Name: name, Fleet: fleet}); err != nil {
		return fmt.Errorf("register defence: %w", err)
	}
	s.log.Info("defence registered", zap.String("player", player), zap.String("name", name))
	return nil
}

// OwnDefence returns the defence registered by player.
func (s *Service) OwnDefence(ctx context.Context, player string) (Defence, error) {
	return s.defences.Defence(ctx, player)
}

// Attack fights the attacker's fleet against target's registered defence,
// tallies the outcome and publishes the fight.
func (s *Service) Attack(ctx context.Context, attacker, target string, fleet engine.Fleet) (RankedFight, error) {
	if attacker == target {
		return RankedFight{}, ErrSelfAttack
	}
	if _, err := s.defences.Defence(ctx, attacker); err != nil {
		return RankedFight{}, fmt.Errorf("attacker %s: %w", attacker, err)
	}
	defence, err := s.defences.Defence(ctx, target)
	if err != nil {
		return RankedFight{}, fmt.Errorf("target %s: %w", target, err)
	}

	seed := s.seeds.Seed(attacker, target)
	result, _, _, err := s.fight(seed, false, fleet, defence.Fleet)
	if err != nil {
		return RankedFight{}, err
	}

	fight := RankedFight{
		ID:       s.newID(),
		Attacker: attacker,
		Defender: target,
		Result:   result,
		At:       s.now().UTC(),
	}
	if err := s.ledger.RecordResult(ctx, fight); err != nil {
		return RankedFight{}, fmt.Errorf("record result: %w", err)
	}
	if winner, _, ok := fight.Winner(); ok {
		commander, _ := fight.WinningCommander()
		if err := s.ledger.AddCommanderXP(ctx, winner, commander, XPPerRankedWin); err != nil {
			s.log.Warn("award commander xp", zap.String("id", fight.ID), zap.String("player", winner), zap.Error(err))
		}
	}
	if err := s.events.Publish(ctx, fight); err != nil {
		s.log.Warn("publish ranked fight", zap.String("id", fight.ID), zap.Error(err))
	}

	s.log.Info("ranked fight",
		zap.String("id", fight.ID),
		zap.String("attacker", attacker),
		zap.String("defender", target),
		zap.Uint64("seed", seed),
		zap.Uint8("rounds", result.Rounds),
		zap.Bool("lhs_dead", result.LhsDead),
		zap.Bool("rhs_dead", result.RhsDead))
	return fight, nil
}

// Leaderboard lists every registered defence with its tally, best first.
func (s *Service) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	defences, err := s.defences.Defences(ctx)
	if err != nil {
		return nil, err
	}
	standings, err := s.ledger.Standings(ctx)
	if err != nil {
		return nil, err
	}
	tally := make(map[string]Standing, len(standings))
	for _, st := range standings {
		tally[st.Player] = st
	}

	out := make([]LeaderboardEntry, 0, len(defences))
	for _, d := range defences {
		st := tally[d.Player]
		out = append(out, LeaderboardEntry{Player: d.Player, Name: d.Name, Wins: st.Wins, Losses: st.Losses})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		if out[i].Losses != out[j].Losses {
			return out[i].Losses < out[j].Losses
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// MarkWin adds a ranked win by hand to a registered player. Owner only.
func (s *Service) MarkWin(ctx context.Context, caller, player string) error {
	if err := s.requireOwner(caller); err != nil {
		return err
	}
	if _, err := s.defences.Defence(ctx, player); err != nil {
		return err
	}
	return s.ledger.MarkWin(ctx, player)
}

// MarkLoss adds a ranked loss by hand. Owner only.
func (s *Service) MarkLoss(ctx context.Context, caller, player string) error {
	if err := s.requireOwner(caller); err != nil {
		return err
	}
	if _, err := s.defences.Defence(ctx, player); err != nil {
		return err
	}
	return s.ledger.MarkLoss(ctx, player)
}

// Commanders returns the player's commanders with their experience.
func (s *Service) Commanders(ctx context.Context, player string) ([]CommanderXP, error) {
	return s.ledger.Commanders(ctx, player)
}

// BuyLootCrate rolls a commander for player and awards it XPPerLootCrate.
func (s *Service) BuyLootCrate(ctx context.Context, player string) (uint8, error) {
	if strings.TrimSpace(player) == "" {
		return 0, errors.New("missing player")
	}
	roll := lootRoll(s.seeds.Seed(player, "loot"))
	commander := PickCommander(roll)
	if err := s.ledger.AddCommanderXP(ctx, player, commander, XPPerLootCrate); err != nil {
		return 0, fmt.Errorf("award loot: %w", err)
	}
	s.log.Info("loot crate", zap.String("player", player), zap.Uint8("roll", roll), zap.Uint8("commander", commander))
	return commander, nil
}
