package game

import (
	"fmt"
	"io"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/pefman/omega-duel/internal/engine"
)

// NamedShip is a catalog entry: a ship type plus its display name.
type NamedShip struct {
	Name            string `json:"name" yaml:"name"`
	engine.ShipType `yaml:",inline"`
}

// DefaultShips is the stock roster, cheapest first.
func DefaultShips() []NamedShip {
	return []NamedShip{
		{Name: "Hunter", ShipType: engine.ShipType{CommandPower: 1, HP: 120, AttackBase: 80, AttackVariable: 20, Defence: 20, Speed: 4, Range: 4}},
		{Name: "Scorpio", ShipType: engine.ShipType{CommandPower: 3, HP: 150, AttackBase: 65, AttackVariable: 20, Defence: 30, Speed: 3, Range: 8}},
		{Name: "Zeneca", ShipType: engine.ShipType{CommandPower: 4, HP: 220, AttackBase: 65, AttackVariable: 20, Defence: 35, Speed: 2, Range: 15}},
		{Name: "Luminaris", ShipType: engine.ShipType{CommandPower: 10, HP: 450, AttackBase: 80, AttackVariable: 20, Defence: 40, Speed: 1, Range: 30}},
	}
}

// Catalog is an in-memory ship roster. Ships are appended in slot order and
// the roster is usable once all engine.MaxShips slots are filled.
type Catalog struct {
	mu    sync.RWMutex
	ships []NamedShip
}

// NewCatalog returns a catalog holding ships, validated in order.
func NewCatalog(ships ...NamedShip) (*Catalog, error) {
	c := &Catalog{}
	for _, s := range ships {
		if err := c.AddShip(s); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// DefaultCatalog returns a complete catalog with the stock roster.
func DefaultCatalog() *Catalog {
	return &Catalog{ships: DefaultShips()}
}

// AddShip appends a ship to the next free slot.
func (c *Catalog) AddShip(ship NamedShip) error {
	if err := validateShip(ship.ShipType); err != nil {
		return fmt.Errorf("ship %q: %w", ship.Name, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.ships) >= engine.MaxShips {
		return ErrCatalogFull
	}
	c.ships = append(c.ships, ship)
	return nil
}

// Ships returns a copy of the roster.
func (c *Catalog) Ships() []NamedShip {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]NamedShip, len(c.ships))
	copy(out, c.ships)
	return out
}

// ListShips returns the roster in the fixed-size shape the engine takes.
func (c *Catalog) ListShips() (engine.Catalog, error) {
	var out engine.Catalog
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.ships) != engine.MaxShips {
		return out, fmt.Errorf("%w: %d of %d ships", ErrCatalogIncomplete, len(c.ships), engine.MaxShips)
	}
	for i, s := range c.ships {
		out[i] = s.ShipType
	}
	return out, nil
}

type catalogFile struct {
	Ships []NamedShip `yaml:"ships"`
}

// LoadCatalogYAML reads a catalog of the form
//
//	ships:
//	  - name: Hunter
//	    cp: 1
//	    hp: 120
//	    ...
func LoadCatalogYAML(r io.Reader) (*Catalog, error) {
	var f catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return NewCatalog(f.Ships...)
}

// validateShip rejects stats the engine divides by.
func validateShip(s engine.ShipType) error {
	if s.HP == 0 {
		return fmt.Errorf("%w: hp must be positive", ErrInvalidShip)
	}
	if s.AttackVariable == 0 {
		return fmt.Errorf("%w: attack_variable must be positive", ErrInvalidShip)
	}
	return nil
}
