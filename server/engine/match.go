package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// DecisionSource produces one decision per snapshot. Implementations must
// absorb their own failures: a missing entry is treated as a default
// defend, never as an error.
type DecisionSource interface {
	Collect(ctx context.Context, snaps []Snapshot) map[string]Decision
}

// Engine drives battle matches. It owns no match state of its own; each
// match is mutated only by the goroutine calling ExecuteTurn.
type Engine struct {
	Rules  Rules
	Source DecisionSource
	Sink   Sink
	Log    *slog.Logger
}

func New(rules Rules, source DecisionSource, sink Sink, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{Rules: rules, Source: source, Sink: sink, Log: log}
}

// StartMatch validates the roster and returns a fresh active match.
func (e *Engine) StartMatch(arena ArenaInfo, agents []AgentInfo) (*Match, error) {
	if len(agents) < arena.MinAgents || len(agents) > arena.MaxAgents {
		return nil, validationf("agent count %d outside [%d, %d]", len(agents), arena.MinAgents, arena.MaxAgents)
	}
	m := &Match{
		ID:          uuid.NewString(),
		ArenaID:     arena.ID,
		Tier:        arena.Tier,
		CurrentTurn: 1,
		Status:      MatchActive,
		PrizePool:   arena.PrizePool,
	}
	for _, a := range agents {
		m.Combatants = append(m.Combatants, newCombatant(e.Rules, a))
	}
	e.Log.Info("match started", "match", m.ID, "arena", arena.ID, "agents", len(agents), "pool", m.PrizePool)
	return m, nil
}

func newCombatant(r Rules, a AgentInfo) *Combatant {
	hp := r.StartingHP + a.Buffs.Health/10
	return &Combatant{
		ID:       a.ID,
		Name:     a.Name,
		HP:       hp,
		StartHP:  hp,
		Alive:    true,
		Buffs:    a.Buffs,
		External: a.External,
		Bribery:  a.Bribery,
	}
}

// ExecuteTurn runs one full turn. The phase order is load-bearing: later
// phases observe earlier phases' results from the same turn.
func (e *Engine) ExecuteTurn(ctx context.Context, m *Match) (*TurnRecord, error) {
	if m.Status != MatchActive {
		return nil, &InvalidStateError{Op: "execute turn", State: string(m.Status)}
	}

	rec := TurnRecord{Turn: m.CurrentTurn}

	// Phase 1: collect decisions against the opening snapshot. Every
	// alive combatant gets exactly one decision; gaps default to defend.
	var alive []*Combatant
	var snaps []Snapshot
	for _, c := range m.Combatants {
		if c.Alive {
			alive = append(alive, c)
			snaps = append(snaps, snapshotFor(m, c))
		}
	}
	collected := map[string]Decision{}
	if e.Source != nil {
		collected = e.Source.Collect(ctx, snaps)
	}
	decisions := make(map[string]Decision, len(alive))
	for _, c := range alive {
		d, ok := collected[c.ID]
		if !ok || !d.Action.Valid() {
			d = DefaultDecision("no decision produced; defaulting to defend")
		}
		decisions[c.ID] = d
		dd := d
		c.LastDecision = &dd
	}

	// Phase 2: mark defenders for this turn only.
	defending := make(map[string]bool, len(alive))
	for _, c := range alive {
		if decisions[c.ID].Action == ActionDefend {
			defending[c.ID] = true
			rec.Events = append(rec.Events, Event{Type: EventDefend, Agent: c.ID})
		}
	}

	// Phase 3: queue alliance proposals.
	for _, c := range alive {
		d := decisions[c.ID]
		if d.Action != ActionProposeAlliance || d.Target == "" || d.Target == c.ID {
			continue
		}
		ProposeAlliance(m, c.ID, d.Target, d.Terms)
		rec.Events = append(rec.Events, Event{Type: EventProposeAlliance, Agent: c.ID, Target: d.Target, Terms: d.Terms})
	}

	// Phase 4: bribes.
	for _, c := range alive {
		d := decisions[c.ID]
		if d.Action != ActionBribe || d.Target == "" || d.Target == c.ID {
			continue
		}
		a := ResolveBribe(m, c.ID, d.Target, d.Terms)
		rec.Events = append(rec.Events, Event{Type: EventBribe, Agent: c.ID, Target: d.Target, Amount: d.Amount, Accepted: a != nil})
		if a != nil {
			rec.Events = append(rec.Events, Event{Type: EventAllianceFormed, Agent: c.ID, Target: d.Target, AllianceID: a.ID})
		}
	}

	// Phase 5: acceptances against queued proposals.
	for _, c := range alive {
		d := decisions[c.ID]
		if d.Action != ActionAcceptAlliance {
			continue
		}
		proposer := d.Proposer
		if proposer == "" {
			proposer = d.Target
		}
		if a := AcceptAlliance(m, c.ID, proposer); a != nil {
			rec.Events = append(rec.Events, Event{Type: EventAllianceFormed, Agent: proposer, Target: c.ID, AllianceID: a.ID})
		}
	}

	// Phase 6: attacks. Defend state from phase 2 applies.
	for _, c := range alive {
		d := decisions[c.ID]
		if d.Action != ActionAttack {
			continue
		}
		target := m.combatant(d.victim())
		if target == nil || target.ID == c.ID || !target.Alive {
			continue
		}
		dmg := attackDamage(e.Rules, c, target, defending[target.ID])
		applyDamage(target, dmg)
		rec.Events = append(rec.Events, Event{Type: EventAttack, Agent: c.ID, Target: target.ID, Damage: dmg, Reasoning: d.Reasoning})
	}

	// Phase 7: betrayals, after attacks, ignoring defense.
	for _, c := range alive {
		d := decisions[c.ID]
		if d.Action != ActionBetrayAlliance {
			continue
		}
		dmg, ok := Betray(m, e.Rules, c.ID, d.AllianceID, d.victim())
		if ok {
			rec.Events = append(rec.Events, Event{Type: EventBetrayal, Agent: c.ID, Target: d.victim(), Damage: dmg, AllianceID: d.AllianceID})
		}
	}

	// Phase 8: universal recovery for everyone still standing.
	for _, c := range alive {
		if c.HP <= 0 {
			continue
		}
		if healed := recoverHP(e.Rules, c); healed > 0 {
			rec.Events = append(rec.Events, Event{Type: EventRecovery, Agent: c.ID, Healed: healed})
		}
	}

	// Phase 9: deaths.
	for _, c := range alive {
		if c.HP <= 0 {
			c.HP = 0
			c.Alive = false
			rec.Events = append(rec.Events, Event{Type: EventDeath, Agent: c.ID})
		}
	}

	// Phase 10: survivors age one turn.
	for _, c := range m.Combatants {
		if c.Alive {
			c.TurnsAlive++
		}
	}

	// Phase 11: end condition.
	switch winner, outcome := CheckMatchEnd(m.Combatants); outcome {
	case OutcomeWin:
		m.Winner = winner
		m.Plan = DistributePrize(m, winner)
		m.Status = MatchCompleted
		rec.Events = append(rec.Events, Event{Type: EventMatchEnd, Winner: winner, Plan: m.Plan})
	case OutcomeDraw:
		m.Draw = true
		m.Status = MatchCompleted
		rec.Events = append(rec.Events, Event{Type: EventMatchEnd, Draw: true})
	default:
		m.CurrentTurn++
	}

	m.History = append(m.History, rec)
	if e.Sink != nil {
		e.Sink.TurnResult(m.ID, rec)
	}
	return &rec, nil
}

// Outcome classifies the alive set at the end of a turn.
type Outcome int

const (
	OutcomeContinue Outcome = iota
	OutcomeWin
	OutcomeDraw
)

// CheckMatchEnd is a pure function of the alive set: one survivor wins,
// zero is a draw, anything else continues.
func CheckMatchEnd(combatants []*Combatant) (string, Outcome) {
	var winner string
	count := 0
	for _, c := range combatants {
		if c.Alive {
			winner = c.ID
			count++
		}
	}
	switch count {
	case 1:
		return winner, OutcomeWin
	case 0:
		return "", OutcomeDraw
	default:
		return "", OutcomeContinue
	}
}

// ForceEnd completes a still-active match at the turn cap: the combatant
// with the highest remaining HP wins (first in seat order on ties).
func (e *Engine) ForceEnd(m *Match) (*TurnRecord, error) {
	if m.Status != MatchActive {
		return nil, &InvalidStateError{Op: "force end", State: string(m.Status)}
	}
	var best *Combatant
	for _, c := range m.Combatants {
		if !c.Alive {
			continue
		}
		if best == nil || c.HP > best.HP {
			best = c
		}
	}
	rec := TurnRecord{Turn: m.CurrentTurn}
	if best == nil {
		m.Draw = true
		rec.Events = append(rec.Events, Event{Type: EventMatchEnd, Draw: true})
	} else {
		m.Winner = best.ID
		m.Plan = DistributePrize(m, best.ID)
		rec.Events = append(rec.Events, Event{Type: EventMatchEnd, Winner: best.ID, Plan: m.Plan,
			Reasoning: fmt.Sprintf("turn cap reached after %d turns; highest HP wins", m.CurrentTurn)})
	}
	m.Status = MatchCompleted
	m.History = append(m.History, rec)
	if e.Sink != nil {
		e.Sink.TurnResult(m.ID, rec)
	}
	return &rec, nil
}
