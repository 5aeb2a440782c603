package engine

import "github.com/google/uuid"

// The alliance ledger: proposal queue, formation by acceptance or bribery,
// dissolution by betrayal. All functions mutate the match and are called
// only from within a turn's phase order.

// ProposeAlliance queues an offer from proposer to target. Nothing stops a
// combatant from proposing while already allied; pairs are matched purely
// by (proposer, target).
func ProposeAlliance(m *Match, proposerID, targetID string, terms *Terms) {
	m.Proposals = append(m.Proposals, Proposal{Proposer: proposerID, Target: targetID, Terms: terms})
}

// AcceptAlliance consumes a queued proposal (from=proposerID, to=accepterID)
// and forms an alliance from its terms. With no matching proposal it is a
// no-op and returns nil.
func AcceptAlliance(m *Match, accepterID, proposerID string) *Alliance {
	for i, p := range m.Proposals {
		if p.Proposer != proposerID || p.Target != accepterID {
			continue
		}
		m.Proposals = append(m.Proposals[:i], m.Proposals[i+1:]...)
		return formAlliance(m, proposerID, accepterID, p.Terms, false)
	}
	return nil
}

// ResolveBribe runs the briber's offer against the target's bribery
// policy. On success it forms a bribe-originated alliance exactly like an
// acceptance would.
func ResolveBribe(m *Match, briberID, targetID string, terms *Terms) *Alliance {
	briber := m.combatant(briberID)
	target := m.combatant(targetID)
	if briber == nil || target == nil || !target.Alive {
		return nil
	}
	accepted := false
	switch target.Bribery {
	case BriberyAccept:
		accepted = true
	case BriberyReject:
		accepted = false
	case BriberyConditional:
		accepted = target.HP < target.StartHP/2 || briber.HP > target.HP
	}
	if !accepted {
		return nil
	}
	return formAlliance(m, briberID, targetID, terms, true)
}

// Betray removes the named alliance and deals full, unmitigated betrayal
// damage to the victim. Unknown alliance ids and non-members are silent
// no-ops so one bad decision can never abort a turn.
func Betray(m *Match, r Rules, betrayerID, allianceID, victimID string) (int, bool) {
	a := m.alliance(allianceID)
	if a == nil || !a.Has(betrayerID) {
		return 0, false
	}
	for i, cur := range m.Alliances {
		if cur.ID == allianceID {
			m.Alliances = append(m.Alliances[:i], m.Alliances[i+1:]...)
			break
		}
	}
	if victimID == "" {
		victimID = a.Other(betrayerID)
	}
	victim := m.combatant(victimID)
	if victim == nil || !victim.Alive || victim.HP <= 0 {
		return 0, true
	}
	dmg := betrayalDamage(r)
	applyDamage(victim, dmg)
	return dmg, true
}

// activeAllianceOf finds an alliance the given combatant belongs to, if
// any. With multiple concurrent memberships the earliest-formed wins.
func activeAllianceOf(m *Match, id string) *Alliance {
	for _, a := range m.Alliances {
		if a.Has(id) {
			return a
		}
	}
	return nil
}

func formAlliance(m *Match, proposerID, accepterID string, terms *Terms, fromBribe bool) *Alliance {
	share := 50
	if terms != nil && terms.PrizeShare >= 0 && terms.PrizeShare <= 100 {
		share = terms.PrizeShare
	}
	a := &Alliance{
		ID:         uuid.NewString(),
		Members:    [2]string{proposerID, accepterID},
		Shares:     map[string]int{proposerID: share, accepterID: 100 - share},
		FromBribe:  fromBribe,
		FormedTurn: m.CurrentTurn,
	}
	m.Alliances = append(m.Alliances, a)
	return a
}
