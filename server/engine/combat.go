package engine

// Combat resolution is pure arithmetic over rules and buffs; every ten
// points of a buff shifts the relevant formula by one.

// attackDamage computes the damage of a standard attack. A defending
// target halves the base; armor reduces, attack buffs add, and the result
// never drops below 1.
func attackDamage(r Rules, attacker, target *Combatant, defending bool) int {
	base := r.AttackDamage
	if defending {
		base = r.DefendedDamage
	}
	dmg := base + attacker.Buffs.Attack/10 - target.Buffs.Armor/10
	if dmg < 1 {
		dmg = 1
	}
	return dmg
}

// betrayalDamage is the full undefended attack value: it ignores the
// victim's defend state and armor entirely.
func betrayalDamage(r Rules) int {
	return r.AttackDamage
}

// applyDamage subtracts damage, flooring HP at zero. Death is marked later
// in the turn, not here.
func applyDamage(c *Combatant, dmg int) {
	c.HP -= dmg
	if c.HP < 0 {
		c.HP = 0
	}
}

// recoverHP applies the flat per-turn recovery, clamped at MaxHP. MaxHP may
// exceed StartingHP so health buffs stay meaningful.
func recoverHP(r Rules, c *Combatant) int {
	before := c.HP
	c.HP += r.Recovery
	if c.HP > r.MaxHP {
		c.HP = r.MaxHP
	}
	return c.HP - before
}
