package provider

import (
	"context"
	"log/slog"

	"golang.org/x/time/rate"

	"ai-colosseum/server/engine"
)

// Collector gathers one decision per agent, strictly sequentially, paced
// by a shared token bucket. The serialization is deliberate backpressure
// against shared upstream rate limits — do not parallelize it.
type Collector struct {
	Chains     map[string]*Chain
	MoveChains map[string]*MoveChain
	Limiter    *rate.Limiter
	Log        *slog.Logger
}

// Collect implements engine.DecisionSource.
func (c *Collector) Collect(ctx context.Context, snaps []engine.Snapshot) map[string]engine.Decision {
	out := make(map[string]engine.Decision, len(snaps))
	for _, snap := range snaps {
		id := snap.You.ID
		if err := c.wait(ctx); err != nil {
			out[id] = engine.DefaultDecision("decision collection cancelled")
			continue
		}
		chain, ok := c.Chains[id]
		if !ok {
			out[id] = engine.DefaultDecision("no decision chain configured")
			continue
		}
		out[id] = chain.Decide(ctx, snap)
	}
	return out
}

// CollectMoves implements engine.MoveSource.
func (c *Collector) CollectMoves(ctx context.Context, snaps []engine.RPSSnapshot) map[string]engine.Move {
	out := make(map[string]engine.Move, len(snaps))
	for _, snap := range snaps {
		id := snap.You
		if err := c.wait(ctx); err != nil {
			out[id] = engine.MoveRock
			continue
		}
		chain, ok := c.MoveChains[id]
		if !ok {
			out[id] = engine.MoveRock
			continue
		}
		out[id] = chain.Move(ctx, snap)
	}
	return out
}

func (c *Collector) wait(ctx context.Context) error {
	if c.Limiter == nil {
		return nil
	}
	return c.Limiter.Wait(ctx)
}
