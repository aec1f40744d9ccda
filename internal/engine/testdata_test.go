package engine

// defaultShips mirrors the stock catalog: Hunter, Scorpio, Zeneca, Luminaris.
func defaultShips() Catalog {
	return Catalog{
		{CommandPower: 1, HP: 120, AttackBase: 80, AttackVariable: 20, Defence: 20, Speed: 4, Range: 4},
		{CommandPower: 3, HP: 150, AttackBase: 65, AttackVariable: 20, Defence: 30, Speed: 3, Range: 8},
		{CommandPower: 4, HP: 220, AttackBase: 65, AttackVariable: 20, Defence: 35, Speed: 2, Range: 15},
		{CommandPower: 10, HP: 450, AttackBase: 80, AttackVariable: 20, Defence: 40, Speed: 1, Range: 30},
	}
}

// flatShips has identical sturdy ships so that damage stays below the cap.
func flatShips() Catalog {
	ship := ShipType{CommandPower: 1, HP: 1000, AttackBase: 30, AttackVariable: 7, Defence: 20, Speed: 1, Range: 1}
	return Catalog{ship, ship, ship, ship}
}
