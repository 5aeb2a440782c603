package engine

// AgentStats is the per-combatant action mix over a match.
type AgentStats struct {
	AgentID     string `json:"agentId"`
	Attacks     int    `json:"attacks"`
	Defends     int    `json:"defends"`
	Proposals   int    `json:"proposals"`
	Alliances   int    `json:"alliances"`
	Betrayals   int    `json:"betrayals"`
	Bribes      int    `json:"bribes"`
	BribesPaid  int64  `json:"bribesPaid"`
	DamageDealt int    `json:"damageDealt"`
	DamageTaken int    `json:"damageTaken"`
	Healed      int    `json:"healed"`
	Kills       int    `json:"kills"`
}

// AF is attack-to-defend aggression. Pure attackers with zero defends
// report their raw aggressive action count.
func (s *AgentStats) AF() float64 {
	aggr := s.Attacks + s.Betrayals
	if s.Defends == 0 {
		return float64(aggr)
	}
	return float64(aggr) / float64(s.Defends)
}

// Tally folds a match history into per-agent stats, keyed by agent id.
func Tally(history []TurnRecord) map[string]*AgentStats {
	out := make(map[string]*AgentStats)
	bucket := func(id string) *AgentStats {
		if id == "" {
			return &AgentStats{} // throwaway for system events
		}
		s, ok := out[id]
		if !ok {
			s = &AgentStats{AgentID: id}
			out[id] = s
		}
		return s
	}
	lastHitter := make(map[string]string) // victim -> last attacker
	for _, rec := range history {
		for _, ev := range rec.Events {
			switch ev.Type {
			case EventAttack:
				a := bucket(ev.Agent)
				a.Attacks++
				a.DamageDealt += ev.Damage
				bucket(ev.Target).DamageTaken += ev.Damage
				lastHitter[ev.Target] = ev.Agent
			case EventBetrayal:
				a := bucket(ev.Agent)
				a.Betrayals++
				a.DamageDealt += ev.Damage
				bucket(ev.Target).DamageTaken += ev.Damage
				lastHitter[ev.Target] = ev.Agent
			case EventDefend:
				bucket(ev.Agent).Defends++
			case EventProposeAlliance:
				bucket(ev.Agent).Proposals++
			case EventAllianceFormed:
				bucket(ev.Agent).Alliances++
				bucket(ev.Target).Alliances++
			case EventBribe:
				b := bucket(ev.Agent)
				b.Bribes++
				if ev.Accepted {
					b.BribesPaid += ev.Amount
				}
			case EventRecovery:
				bucket(ev.Agent).Healed += ev.Healed
			case EventDeath:
				if killer, ok := lastHitter[ev.Agent]; ok {
					bucket(killer).Kills++
				}
			}
		}
	}
	return out
}
