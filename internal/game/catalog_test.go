package game

import (
	"errors"
	"strings"
	"testing"

	"github.com/pefman/omega-duel/internal/engine"
)

func TestCatalogFillsSlotsInOrder(t *testing.T) {
	c, err := NewCatalog()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.ListShips(); !errors.Is(err, ErrCatalogIncomplete) {
		t.Fatalf("ListShips on empty catalog = %v, expected ErrCatalogIncomplete", err)
	}

	for _, s := range DefaultShips() {
		if err := c.AddShip(s); err != nil {
			t.Fatalf("AddShip(%s): %v", s.Name, err)
		}
	}
	if err := c.AddShip(DefaultShips()[0]); !errors.Is(err, ErrCatalogFull) {
		t.Errorf("fifth AddShip = %v, expected ErrCatalogFull", err)
	}

	ships, err := c.ListShips()
	if err != nil {
		t.Fatal(err)
	}
	if ships[0].HP != 120 || ships[3].Range != 30 {
		t.Errorf("ListShips = %+v", ships)
	}
}

func TestCatalogRejectsZeroDivisors(t *testing.T) {
	tests := []struct {
		name string
		ship engine.ShipType
	}{
		{"zero hp", engine.ShipType{AttackVariable: 20}},
		{"zero attack variable", engine.ShipType{HP: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := NewCatalog()
			if err := c.AddShip(NamedShip{Name: tt.name, ShipType: tt.ship}); !errors.Is(err, ErrInvalidShip) {
				t.Errorf("AddShip = %v, expected ErrInvalidShip", err)
			}
		})
	}
}

func TestLoadCatalogYAML(t *testing.T) {
	doc := `
ships:
  - {name: Hunter, cp: 1, hp: 120, attack_base: 80, attack_variable: 20, defence: 20, speed: 4, range: 4}
  - {name: Scorpio, cp: 3, hp: 150, attack_base: 65, attack_variable: 20, defence: 30, speed: 3, range: 8}
  - {name: Zeneca, cp: 4, hp: 220, attack_base: 65, attack_variable: 20, defence: 35, speed: 2, range: 15}
  - {name: Luminaris, cp: 10, hp: 450, attack_base: 80, attack_variable: 20, defence: 40, speed: 1, range: 30}
`
	c, err := LoadCatalogYAML(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadCatalogYAML: %v", err)
	}
	got, err := c.ListShips()
	if err != nil {
		t.Fatal(err)
	}
	want, _ := DefaultCatalog().ListShips()
	if got != want {
		t.Errorf("loaded catalog = %+v, expected %+v", got, want)
	}
	if c.Ships()[3].Name != "Luminaris" {
		t.Errorf("names not loaded: %+v", c.Ships())
	}
}

func TestLoadCatalogYAMLRejectsUnknownFields(t *testing.T) {
	_, err := LoadCatalogYAML(strings.NewReader("ships:\n  - {name: X, hp: 1, attack_variable: 1, shields: 9}\n"))
	if err == nil {
		t.Fatal("expected an error for an unknown field")
	}
}

func TestPickCommander(t *testing.T) {
	tests := []struct {
		roll uint8
		want uint8
	}{
		{0, 0}, {74, 0}, {75, 1}, {86, 1}, {87, 2}, {92, 2}, {93, 3}, {95, 3}, {96, 0}, {99, 0},
	}
	for _, tt := range tests {
		if got := PickCommander(tt.roll); got != tt.want {
			t.Errorf("PickCommander(%d) = %d, expected %d", tt.roll, got, tt.want)
		}
	}
}
