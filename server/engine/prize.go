package engine

// DistributePrize computes the payout plan for a finished match. All
// arithmetic floors; the plan may sum to strictly less than the pool and
// the lost remainder is never redistributed.
func DistributePrize(m *Match, winnerID string) []Payout {
	if m.PrizePool <= 0 {
		return nil
	}

	plan := []Payout{}
	if a := activeAllianceOf(m, winnerID); a != nil {
		// Split by the alliance's recorded percentages, in seat order so
		// the plan is deterministic.
		for _, c := range m.Combatants {
			pct, ok := a.Shares[c.ID]
			if !ok {
				continue
			}
			plan = append(plan, Payout{AgentID: c.ID, Amount: m.PrizePool * int64(pct) / 100})
		}
	} else {
		plan = append(plan, Payout{AgentID: winnerID, Amount: m.PrizePool})
	}

	// External-agent tax: half of each external payee's share is withheld
	// and pooled for redistribution.
	var bucket int64
	for i := range plan {
		c := m.combatant(plan[i].AgentID)
		if c == nil || !c.External {
			continue
		}
		withheld := plan[i].Amount / 2
		plan[i].Amount -= withheld
		bucket += withheld
	}
	if bucket <= 0 {
		return plan
	}

	paid := make(map[string]bool, len(plan))
	for _, p := range plan {
		paid[p.AgentID] = true
	}
	var eligible []*Combatant
	for _, c := range m.Combatants {
		if !c.External && !paid[c.ID] {
			eligible = append(eligible, c)
		}
	}
	if len(eligible) == 0 {
		// Nobody to redistribute to; the withheld amount stays outside
		// this plan.
		return plan
	}
	cut := bucket / int64(len(eligible))
	if cut <= 0 {
		return plan
	}
	for _, c := range eligible {
		plan = append(plan, Payout{AgentID: c.ID, Amount: cut})
	}
	return plan
}

// PlanTotal sums a distribution plan.
func PlanTotal(plan []Payout) int64 {
	var total int64
	for _, p := range plan {
		total += p.Amount
	}
	return total
}
