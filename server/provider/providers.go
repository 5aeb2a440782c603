package provider

import (
	"context"
	"time"

	"ai-colosseum/server/engine"
	"ai-colosseum/server/llm"
	"ai-colosseum/server/strategy"
)

// LLMProvider asks one model for decisions. The same value serves battle
// and rps chains.
type LLMProvider struct {
	Model       string
	Client      *llm.Client
	CallTimeout time.Duration
}

func (p *LLMProvider) Name() string { return "llm:" + p.Model }

func (p *LLMProvider) Timeout() time.Duration {
	if p.CallTimeout > 0 {
		return p.CallTimeout
	}
	return 5 * time.Second
}

func (p *LLMProvider) Decide(ctx context.Context, snap engine.Snapshot) (engine.Decision, error) {
	return p.Client.ChooseDecision(ctx, p.Model, snap)
}

func (p *LLMProvider) Move(ctx context.Context, snap engine.RPSSnapshot) (engine.Move, error) {
	return p.Client.ChooseMove(ctx, p.Model, snap)
}

// ScriptedProvider wraps an agent's own strategy. Scripts get a longer
// leash than AI backends.
type ScriptedProvider struct {
	Label       string
	Strategy    strategy.Strategy
	CallTimeout time.Duration
}

func (p *ScriptedProvider) Name() string { return "scripted:" + p.Label }

func (p *ScriptedProvider) Timeout() time.Duration {
	if p.CallTimeout > 0 {
		return p.CallTimeout
	}
	return 30 * time.Second
}

func (p *ScriptedProvider) Decide(ctx context.Context, snap engine.Snapshot) (engine.Decision, error) {
	return p.Strategy.Decide(ctx, snap)
}

// ScriptedMoveProvider wraps a weighted-random move profile.
type ScriptedMoveProvider struct {
	Label       string
	Picker      *strategy.MovePicker
	CallTimeout time.Duration
}

func (p *ScriptedMoveProvider) Name() string { return "scripted:" + p.Label }

func (p *ScriptedMoveProvider) Timeout() time.Duration {
	if p.CallTimeout > 0 {
		return p.CallTimeout
	}
	return 30 * time.Second
}

func (p *ScriptedMoveProvider) Move(ctx context.Context, snap engine.RPSSnapshot) (engine.Move, error) {
	return p.Picker.Move(ctx, snap)
}

// DefendProvider is the hardcoded bottom of every chain; it never fails.
type DefendProvider struct{}

func (DefendProvider) Name() string           { return "default" }
func (DefendProvider) Timeout() time.Duration { return time.Second }

func (DefendProvider) Decide(context.Context, engine.Snapshot) (engine.Decision, error) {
	return engine.DefaultDecision("hardcoded fallback"), nil
}
