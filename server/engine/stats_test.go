package engine

import "testing"

func TestTallyActionMix(t *testing.T) {
	history := []TurnRecord{
		{Turn: 1, Events: []Event{
			{Type: EventAttack, Agent: "a", Target: "b", Damage: 20},
			{Type: EventDefend, Agent: "b"},
			{Type: EventRecovery, Agent: "b", Healed: 5},
		}},
		{Turn: 2, Events: []Event{
			{Type: EventProposeAlliance, Agent: "a", Target: "b"},
			{Type: EventAllianceFormed, Agent: "a", Target: "b", AllianceID: "x"},
			{Type: EventBribe, Agent: "c", Target: "b", Amount: 40, Accepted: true},
		}},
		{Turn: 3, Events: []Event{
			{Type: EventBetrayal, Agent: "a", Target: "b", Damage: 20},
			{Type: EventDeath, Agent: "b"},
		}},
	}
	stats := Tally(history)

	a := stats["a"]
	if a.Attacks != 1 || a.Betrayals != 1 || a.DamageDealt != 40 {
		t.Fatalf("unexpected stats for a: %+v", a)
	}
	if a.Proposals != 1 || a.Alliances != 1 {
		t.Fatalf("alliance counts for a: %+v", a)
	}
	if a.Kills != 1 {
		t.Fatalf("kills for a = %d, want 1", a.Kills)
	}
	if af := a.AF(); af != 2 {
		t.Fatalf("AF for a = %v, want 2", af)
	}

	b := stats["b"]
	if b.Defends != 1 || b.DamageTaken != 40 || b.Healed != 5 {
		t.Fatalf("unexpected stats for b: %+v", b)
	}

	c := stats["c"]
	if c.Bribes != 1 || c.BribesPaid != 40 {
		t.Fatalf("unexpected stats for c: %+v", c)
	}
}
