package engine

import "testing"

func prizeMatch(pool int64, combatants ...*Combatant) *Match {
	return &Match{ID: "m1", CurrentTurn: 1, Status: MatchActive, PrizePool: pool, Combatants: combatants}
}

func fighter(id string, external bool) *Combatant {
	return &Combatant{ID: id, Name: id, HP: 100, StartHP: 100, Alive: true, External: external}
}

func ally(m *Match, proposer, accepter string, share int) *Alliance {
	ProposeAlliance(m, proposer, accepter, &Terms{PrizeShare: share})
	return AcceptAlliance(m, accepter, proposer)
}

func TestDistributeWinnerTakesAll(t *testing.T) {
	m := prizeMatch(1000, fighter("a", false), fighter("b", false))
	plan := DistributePrize(m, "a")
	if len(plan) != 1 || plan[0].AgentID != "a" || plan[0].Amount != 1000 {
		t.Fatalf("unexpected plan: %v", plan)
	}
}

func TestDistributeEmptyPool(t *testing.T) {
	m := prizeMatch(0, fighter("a", false), fighter("b", false))
	if plan := DistributePrize(m, "a"); plan != nil {
		t.Fatalf("expected nil plan, got %v", plan)
	}
}

func TestDistributeAllianceSplit(t *testing.T) {
	m := prizeMatch(1000, fighter("a", false), fighter("b", false), fighter("c", false))
	if ally(m, "a", "b", 60) == nil {
		t.Fatal("alliance not formed")
	}
	plan := DistributePrize(m, "a")
	if len(plan) != 2 {
		t.Fatalf("plan length = %d, want 2", len(plan))
	}
	// Seat order: a then b.
	if plan[0].AgentID != "a" || plan[0].Amount != 600 {
		t.Fatalf("proposer payout = %v", plan[0])
	}
	if plan[1].AgentID != "b" || plan[1].Amount != 400 {
		t.Fatalf("accepter payout = %v", plan[1])
	}
}

func TestDistributeAllianceFloorsOddPool(t *testing.T) {
	m := prizeMatch(101, fighter("a", false), fighter("b", false))
	ally(m, "a", "b", 50)
	plan := DistributePrize(m, "a")
	if plan[0].Amount != 50 || plan[1].Amount != 50 {
		t.Fatalf("expected 50/50 with 1 lost to flooring, got %v", plan)
	}
	if PlanTotal(plan) > m.PrizePool {
		t.Fatalf("plan total %d exceeds pool %d", PlanTotal(plan), m.PrizePool)
	}
}

func TestDistributeExternalTax(t *testing.T) {
	m := prizeMatch(101, fighter("a", true), fighter("b", false), fighter("c", false))
	plan := DistributePrize(m, "a")
	// External winner keeps 101-50; b and c split the withheld 50 floor-even.
	want := map[string]int64{"a": 51, "b": 25, "c": 25}
	if len(plan) != 3 {
		t.Fatalf("plan length = %d, want 3: %v", len(plan), plan)
	}
	for _, p := range plan {
		if want[p.AgentID] != p.Amount {
			t.Fatalf("payout %s = %d, want %d", p.AgentID, p.Amount, want[p.AgentID])
		}
	}
	if PlanTotal(plan) > m.PrizePool {
		t.Fatalf("plan total %d exceeds pool %d", PlanTotal(plan), m.PrizePool)
	}
}

func TestDistributeTinyPoolTax(t *testing.T) {
	m := prizeMatch(10, fighter("w", true), fighter("b", false), fighter("c", false))
	plan := DistributePrize(m, "w")
	// 10 - 5 withheld; the two internal agents get floor(5/2) each and 1
	// is lost to rounding.
	want := map[string]int64{"w": 5, "b": 2, "c": 2}
	for _, p := range plan {
		if want[p.AgentID] != p.Amount {
			t.Fatalf("payout %s = %d, want %d", p.AgentID, p.Amount, want[p.AgentID])
		}
	}
	if total := PlanTotal(plan); total != 9 {
		t.Fatalf("plan total = %d, want 9", total)
	}
}

func TestDistributeTaxWithNoEligibleRecipients(t *testing.T) {
	m := prizeMatch(100, fighter("a", true), fighter("b", true))
	plan := DistributePrize(m, "a")
	if len(plan) != 1 || plan[0].Amount != 50 {
		t.Fatalf("expected taxed payout of 50 with no redistribution, got %v", plan)
	}
}

func TestDistributeTaxedAllianceMember(t *testing.T) {
	m := prizeMatch(1000, fighter("a", false), fighter("b", true), fighter("c", false))
	ally(m, "a", "b", 50)
	plan := DistributePrize(m, "a")
	// a keeps 500; b is taxed 250 of its 500; c alone is eligible for the bucket.
	want := map[string]int64{"a": 500, "b": 250, "c": 250}
	for _, p := range plan {
		if want[p.AgentID] != p.Amount {
			t.Fatalf("payout %s = %d, want %d", p.AgentID, p.Amount, want[p.AgentID])
		}
	}
}

func TestPlanNeverExceedsPool(t *testing.T) {
	pools := []int64{1, 7, 99, 101, 997, 12345}
	for _, pool := range pools {
		m := prizeMatch(pool, fighter("a", true), fighter("b", false), fighter("c", true), fighter("d", false))
		ally(m, "a", "b", 33)
		plan := DistributePrize(m, "a")
		if total := PlanTotal(plan); total > pool {
			t.Fatalf("pool %d: plan total %d exceeds pool", pool, total)
		}
	}
}
