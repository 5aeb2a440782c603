package engine

import "testing"

func TestAttackDamageBuffArithmetic(t *testing.T) {
	r := DefaultRules()
	atk := &Combatant{ID: "a", Buffs: Buffs{Attack: 35}}
	def := &Combatant{ID: "b", Buffs: Buffs{Armor: 20}}

	// 20 + 35/10 - 20/10
	if got := attackDamage(r, atk, def, false); got != 21 {
		t.Fatalf("damage = %d, want 21", got)
	}
	// Defending swaps the base: 10 + 3 - 2.
	if got := attackDamage(r, atk, def, true); got != 11 {
		t.Fatalf("defended damage = %d, want 11", got)
	}
}

func TestAttackDamageFloorsAtOne(t *testing.T) {
	r := DefaultRules()
	atk := &Combatant{ID: "a"}
	def := &Combatant{ID: "b", Buffs: Buffs{Armor: 1000}}
	if got := attackDamage(r, atk, def, true); got != 1 {
		t.Fatalf("damage = %d, want 1", got)
	}
}

func TestApplyDamageFloorsAtZero(t *testing.T) {
	c := &Combatant{ID: "a", HP: 5}
	applyDamage(c, 20)
	if c.HP != 0 {
		t.Fatalf("HP = %d, want 0", c.HP)
	}
}

func TestRecoverClampsAtMaxHP(t *testing.T) {
	r := DefaultRules()
	c := &Combatant{ID: "a", HP: 103}
	if healed := recoverHP(r, c); healed != 2 || c.HP != r.MaxHP {
		t.Fatalf("healed = %d, HP = %d; want 2, %d", healed, c.HP, r.MaxHP)
	}
	if healed := recoverHP(r, c); healed != 0 {
		t.Fatalf("healed at cap = %d, want 0", healed)
	}
}
