// Package strategy holds the scripted decision sources: a closed registry
// of parameterized Go strategies plus a sandboxed Lua evaluator. Strategy
// code never runs with ambient access; it sees a read-only snapshot and
// returns a decision.
package strategy

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"ai-colosseum/server/engine"
)

// Strategy chooses one decision per turn from a read-only snapshot.
type Strategy interface {
	Decide(ctx context.Context, snap engine.Snapshot) (engine.Decision, error)
}

// Profile parameterizes a scripted combatant. All weights are 0..1.
type Profile struct {
	Aggressiveness    float64              `json:"aggressiveness"`
	AllianceProneness float64              `json:"allianceProneness"`
	BetrayalTendency  float64              `json:"betrayalTendency"`
	CounterChance     float64              `json:"counterChance"`
	Bribery           engine.BriberyPolicy `json:"bribery,omitempty"`
}

var builtins = map[string]Profile{
	"berserker":   {Aggressiveness: 0.95, AllianceProneness: 0.05, BetrayalTendency: 0.6, CounterChance: 0.2, Bribery: engine.BriberyReject},
	"diplomat":    {Aggressiveness: 0.3, AllianceProneness: 0.9, BetrayalTendency: 0.05, CounterChance: 0.5, Bribery: engine.BriberyAccept},
	"survivor":    {Aggressiveness: 0.2, AllianceProneness: 0.5, BetrayalTendency: 0.2, CounterChance: 0.35, Bribery: engine.BriberyConditional},
	"opportunist": {Aggressiveness: 0.6, AllianceProneness: 0.6, BetrayalTendency: 0.75, CounterChance: 0.4, Bribery: engine.BriberyConditional},
}

// Names lists the registered strategies, sorted.
func Names() []string {
	out := make([]string, 0, len(builtins))
	for name := range builtins {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ProfileFor returns the registered profile for a strategy name.
func ProfileFor(name string) (Profile, bool) {
	p, ok := builtins[name]
	return p, ok
}

// New builds a registered strategy with its own deterministic random
// stream.
func New(name string, seed int64) (Strategy, error) {
	p, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (have %v)", name, Names())
	}
	return FromProfile(p, seed), nil
}

// FromProfile builds a rule strategy from an explicit profile.
func FromProfile(p Profile, seed int64) Strategy {
	return &ruleStrategy{profile: p, rng: rand.New(rand.NewSource(seed))}
}

type ruleStrategy struct {
	profile Profile
	rng     *rand.Rand
}

const lowHPFraction = 0.35

func (s *ruleStrategy) Decide(_ context.Context, snap engine.Snapshot) (engine.Decision, error) {
	var foes []engine.AgentView
	for _, o := range snap.Opponents {
		if o.Alive {
			foes = append(foes, o)
		}
	}
	if len(foes) == 0 {
		return engine.DefaultDecision("no opponents left"), nil
	}

	// Betrayal first: an ally on the ropes is prize share for the taking.
	if myAlliance := allianceOf(snap, snap.You.ID); myAlliance != nil {
		ally := lookupView(foes, myAlliance.Other(snap.You.ID))
		if ally != nil && ally.HP < snap.You.HP && s.rng.Float64() < s.profile.BetrayalTendency {
			return engine.Decision{
				Action:     engine.ActionBetrayAlliance,
				AllianceID: myAlliance.ID,
				Target:     ally.ID,
				Reasoning:  "ally is weak; taking the full pot",
			}, nil
		}
	}

	// Accept a standing offer aimed at us before anything else.
	if proposer := pendingProposalFor(snap); proposer != "" && s.rng.Float64() < s.profile.AllianceProneness {
		return engine.Decision{Action: engine.ActionAcceptAlliance, Proposer: proposer, Reasoning: "accepting alliance offer"}, nil
	}

	hurt := snap.You.HP < int(float64(hpCeiling(snap))*lowHPFraction)
	if hurt {
		if len(foes) > 1 && s.rng.Float64() < s.profile.AllianceProneness {
			target := strongest(foes)
			return engine.Decision{
				Action:    engine.ActionProposeAlliance,
				Target:    target.ID,
				Terms:     &engine.Terms{PrizeShare: 40},
				Reasoning: "low hp; courting the strongest opponent",
			}, nil
		}
		return engine.DefaultDecision("low hp; turtling"), nil
	}

	if s.rng.Float64() < s.profile.Aggressiveness {
		target := weakest(foes)
		return engine.Decision{Action: engine.ActionAttack, Target: target.ID, Reasoning: "pressing the weakest opponent"}, nil
	}
	if len(foes) > 1 && s.rng.Float64() < s.profile.AllianceProneness {
		target := strongest(foes)
		return engine.Decision{
			Action:    engine.ActionProposeAlliance,
			Target:    target.ID,
			Terms:     &engine.Terms{PrizeShare: 50},
			Reasoning: "hedging with an alliance",
		}, nil
	}
	return engine.DefaultDecision("holding position"), nil
}

// pendingProposalFor scans recent history for an alliance offer aimed at
// this agent that has not visibly resolved into an alliance.
func pendingProposalFor(snap engine.Snapshot) string {
	for i := len(snap.History) - 1; i >= 0; i-- {
		for _, ev := range snap.History[i].Events {
			if ev.Type != engine.EventProposeAlliance || ev.Target != snap.You.ID {
				continue
			}
			if alliancesContainPair(snap.Alliances, ev.Agent, snap.You.ID) {
				continue
			}
			return ev.Agent
		}
	}
	return ""
}

func alliancesContainPair(alliances []*engine.Alliance, a, b string) bool {
	for _, al := range alliances {
		if al.Has(a) && al.Has(b) {
			return true
		}
	}
	return false
}

func allianceOf(snap engine.Snapshot, id string) *engine.Alliance {
	for _, a := range snap.Alliances {
		if a.Has(id) {
			return a
		}
	}
	return nil
}

func lookupView(views []engine.AgentView, id string) *engine.AgentView {
	for i := range views {
		if views[i].ID == id {
			return &views[i]
		}
	}
	return nil
}

func weakest(views []engine.AgentView) engine.AgentView {
	best := views[0]
	for _, v := range views[1:] {
		if v.HP < best.HP {
			best = v
		}
	}
	return best
}

func strongest(views []engine.AgentView) engine.AgentView {
	best := views[0]
	for _, v := range views[1:] {
		if v.HP > best.HP {
			best = v
		}
	}
	return best
}

func hpCeiling(snap engine.Snapshot) int {
	top := snap.You.HP
	for _, o := range snap.Opponents {
		if o.HP > top {
			top = o.HP
		}
	}
	if top <= 0 {
		top = 1
	}
	return top
}
