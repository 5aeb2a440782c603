package engine

import (
	"context"
	"testing"
)

func TestAcceptAllianceConsumesProposal(t *testing.T) {
	m := prizeMatch(0, fighter("a", false), fighter("b", false))
	ProposeAlliance(m, "a", "b", &Terms{PrizeShare: 70})
	a := AcceptAlliance(m, "b", "a")
	if a == nil {
		t.Fatal("proposal not accepted")
	}
	if a.Shares["a"] != 70 || a.Shares["b"] != 30 {
		t.Fatalf("unexpected shares: %v", a.Shares)
	}
	if len(m.Proposals) != 0 {
		t.Fatal("proposal not consumed")
	}
	if AcceptAlliance(m, "b", "a") != nil {
		t.Fatal("second accept of a consumed proposal should be a no-op")
	}
}

func TestAcceptAllianceWithoutProposal(t *testing.T) {
	m := prizeMatch(0, fighter("a", false), fighter("b", false))
	if AcceptAlliance(m, "b", "a") != nil {
		t.Fatal("accept with no proposal should return nil")
	}
}

func TestAllianceDefaultsToEvenSplit(t *testing.T) {
	m := prizeMatch(0, fighter("a", false), fighter("b", false))
	ProposeAlliance(m, "a", "b", nil)
	a := AcceptAlliance(m, "b", "a")
	if a.Shares["a"] != 50 || a.Shares["b"] != 50 {
		t.Fatalf("unexpected default shares: %v", a.Shares)
	}
}

func TestResolveBribePolicies(t *testing.T) {
	t.Run("accept", func(t *testing.T) {
		m := prizeMatch(0, fighter("a", false), fighter("b", false))
		m.combatant("b").Bribery = BriberyAccept
		a := ResolveBribe(m, "a", "b", nil)
		if a == nil || !a.FromBribe {
			t.Fatalf("expected bribe alliance, got %v", a)
		}
	})
	t.Run("reject", func(t *testing.T) {
		m := prizeMatch(0, fighter("a", false), fighter("b", false))
		m.combatant("b").Bribery = BriberyReject
		if ResolveBribe(m, "a", "b", nil) != nil {
			t.Fatal("reject policy accepted a bribe")
		}
	})
	t.Run("conditional low HP", func(t *testing.T) {
		m := prizeMatch(0, fighter("a", false), fighter("b", false))
		b := m.combatant("b")
		b.Bribery = BriberyConditional
		b.HP = 40 // below half of StartHP
		m.combatant("a").HP = 30
		if ResolveBribe(m, "a", "b", nil) == nil {
			t.Fatal("conditional policy refused despite low HP")
		}
	})
	t.Run("conditional stronger briber", func(t *testing.T) {
		m := prizeMatch(0, fighter("a", false), fighter("b", false))
		b := m.combatant("b")
		b.Bribery = BriberyConditional
		b.HP = 80
		m.combatant("a").HP = 90
		if ResolveBribe(m, "a", "b", nil) == nil {
			t.Fatal("conditional policy refused despite stronger briber")
		}
	})
	t.Run("conditional refuses from strength", func(t *testing.T) {
		m := prizeMatch(0, fighter("a", false), fighter("b", false))
		b := m.combatant("b")
		b.Bribery = BriberyConditional
		b.HP = 90
		m.combatant("a").HP = 50
		if ResolveBribe(m, "a", "b", nil) != nil {
			t.Fatal("conditional policy accepted while winning")
		}
	})
	t.Run("dead target", func(t *testing.T) {
		m := prizeMatch(0, fighter("a", false), fighter("b", false))
		b := m.combatant("b")
		b.Bribery = BriberyAccept
		b.Alive = false
		if ResolveBribe(m, "a", "b", nil) != nil {
			t.Fatal("dead target accepted a bribe")
		}
	})
}

func TestBetrayRemovesAllianceAndIgnoresDefense(t *testing.T) {
	src := &scriptSource{steps: []map[string]Decision{
		{
			"a": {Action: ActionProposeAlliance, Target: "b"},
			"b": {Action: ActionDefend},
		},
		{
			"a": {Action: ActionDefend},
			"b": {Action: ActionAcceptAlliance, Proposer: "a"},
		},
		{
			"a": {Action: ActionBetrayAlliance},
			"b": {Action: ActionDefend},
		},
	}}
	e := New(DefaultRules(), src, nil, nil)
	m, _ := e.StartMatch(testArena(0, 2), twoAgents())
	for i := 0; i < 2; i++ {
		if _, err := e.ExecuteTurn(context.Background(), m); err != nil {
			t.Fatal(err)
		}
	}
	if len(m.Alliances) != 1 {
		t.Fatalf("alliances = %d, want 1", len(m.Alliances))
	}
	aid := m.Alliances[0].ID
	src.steps[2]["a"] = Decision{Action: ActionBetrayAlliance, AllianceID: aid}

	before := m.combatant("b").HP
	rec, err := e.ExecuteTurn(context.Background(), m)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Alliances) != 0 {
		t.Fatal("betrayed alliance not removed")
	}
	var betrayal *Event
	for i := range rec.Events {
		if rec.Events[i].Type == EventBetrayal {
			betrayal = &rec.Events[i]
		}
	}
	if betrayal == nil {
		t.Fatal("missing betrayal event")
	}
	// Full attack damage even though the victim defended this turn.
	if betrayal.Damage != DefaultRules().AttackDamage {
		t.Fatalf("betrayal damage = %d, want %d", betrayal.Damage, DefaultRules().AttackDamage)
	}
	if got := m.combatant("b").HP; got != before-20+5 {
		t.Fatalf("victim HP = %d, want %d", got, before-20+5)
	}
}

func TestBetrayUnknownAllianceIsNoOp(t *testing.T) {
	m := prizeMatch(0, fighter("a", false), fighter("b", false))
	if _, ok := Betray(m, DefaultRules(), "a", "nope", "b"); ok {
		t.Fatal("unknown alliance id should be a no-op")
	}
	if got := m.combatant("b").HP; got != 100 {
		t.Fatalf("victim HP changed on no-op: %d", got)
	}
}

func TestBetrayNonMemberIsNoOp(t *testing.T) {
	m := prizeMatch(0, fighter("a", false), fighter("b", false), fighter("c", false))
	al := ally(m, "a", "b", 50)
	if _, ok := Betray(m, DefaultRules(), "c", al.ID, "a"); ok {
		t.Fatal("non-member betrayal should be a no-op")
	}
	if len(m.Alliances) != 1 {
		t.Fatal("alliance removed by a non-member")
	}
}

func TestBetrayDefaultsToOtherMember(t *testing.T) {
	m := prizeMatch(0, fighter("a", false), fighter("b", false))
	al := ally(m, "a", "b", 50)
	dmg, ok := Betray(m, DefaultRules(), "a", al.ID, "")
	if !ok || dmg != DefaultRules().AttackDamage {
		t.Fatalf("betray = (%d, %v)", dmg, ok)
	}
	if got := m.combatant("b").HP; got != 80 {
		t.Fatalf("victim HP = %d, want 80", got)
	}
}

func TestBribeDuringTurnFormsAlliance(t *testing.T) {
	src := repeatSource{
		"a": {Action: ActionBribe, Target: "b", Amount: 50},
		"b": {Action: ActionDefend},
	}
	e := New(DefaultRules(), src, nil, nil)
	m, _ := e.StartMatch(testArena(0, 2), []AgentInfo{
		{ID: "a", Name: "Alpha"},
		{ID: "b", Name: "Beta", Bribery: BriberyAccept},
	})
	rec, err := e.ExecuteTurn(context.Background(), m)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Alliances) != 1 || !m.Alliances[0].FromBribe {
		t.Fatalf("expected one bribe alliance, got %v", m.Alliances)
	}
	var sawBribe, sawFormed bool
	for _, ev := range rec.Events {
		switch ev.Type {
		case EventBribe:
			sawBribe = true
			if !ev.Accepted || ev.Amount != 50 {
				t.Fatalf("unexpected bribe event: %+v", ev)
			}
		case EventAllianceFormed:
			sawFormed = true
		}
	}
	if !sawBribe || !sawFormed {
		t.Fatalf("missing events: bribe=%v formed=%v", sawBribe, sawFormed)
	}
}
