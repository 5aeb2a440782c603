// Package provider orchestrates ranked decision sources per agent: AI
// backends first, the agent's scripted strategy after them, a hardcoded
// defend at the bottom. Failures never escape a chain.
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ai-colosseum/server/engine"
	"ai-colosseum/server/llm"
)

// Provider is one ranked decision source.
type Provider interface {
	Name() string
	Timeout() time.Duration
	Decide(ctx context.Context, snap engine.Snapshot) (engine.Decision, error)
}

// MoveProvider is the rps counterpart.
type MoveProvider interface {
	Name() string
	Timeout() time.Duration
	Move(ctx context.Context, snap engine.RPSSnapshot) (engine.Move, error)
}

// Chain tries providers in strict priority order for one agent.
type Chain struct {
	Agent     string
	Providers []Provider
	Breaker   *CircuitBreaker
	Log       *slog.Logger
}

const exhaustedReason = "all decision providers exhausted; defaulting to defend"

// Decide walks the chain: skip resting providers, bound each call, trip
// the breaker on rate limits, and validate the action tag. Exhaustion
// yields a default defend — never an error.
func (c *Chain) Decide(ctx context.Context, snap engine.Snapshot) engine.Decision {
	for _, p := range c.Providers {
		if c.Breaker != nil && c.Breaker.Resting(p.Name()) {
			continue
		}
		d, err := invokeDecide(ctx, p, snap)
		if err != nil {
			if llm.IsRateLimited(err) && c.Breaker != nil {
				c.Breaker.Trip(p.Name())
				c.log().Warn("provider rate limited; cooling down", "agent", c.Agent, "provider", p.Name())
			} else {
				c.log().Debug("provider failed", "agent", c.Agent, "provider", p.Name(), "err", err)
			}
			continue
		}
		if !d.Action.Valid() {
			c.log().Debug("provider returned unknown action", "agent", c.Agent, "provider", p.Name(), "action", d.Action)
			continue
		}
		c.log().Info("decision",
			"agent", c.Agent,
			"action", d.Action,
			"provider", p.Name(),
			"reasoning", d.Reasoning,
		)
		return d
	}
	return engine.DefaultDecision(exhaustedReason)
}

func (c *Chain) log() *slog.Logger {
	if c.Log != nil {
		return c.Log
	}
	return slog.Default()
}

type decideResult struct {
	d   engine.Decision
	err error
}

// invokeDecide bounds one provider call. The call runs in its own
// goroutine so a provider that ignores its context cannot stall the turn.
func invokeDecide(ctx context.Context, p Provider, snap engine.Snapshot) (engine.Decision, error) {
	cctx, cancel := context.WithTimeout(ctx, p.Timeout())
	defer cancel()
	ch := make(chan decideResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- decideResult{err: fmt.Errorf("provider %s panicked: %v", p.Name(), r)}
			}
		}()
		d, err := p.Decide(cctx, snap)
		ch <- decideResult{d: d, err: err}
	}()
	select {
	case r := <-ch:
		return r.d, r.err
	case <-cctx.Done():
		return engine.Decision{}, fmt.Errorf("provider %s: %w", p.Name(), cctx.Err())
	}
}

// MoveChain is the rps analog of Chain; exhaustion yields rock.
type MoveChain struct {
	Agent     string
	Providers []MoveProvider
	Breaker   *CircuitBreaker
	Log       *slog.Logger
}

func (c *MoveChain) Move(ctx context.Context, snap engine.RPSSnapshot) engine.Move {
	for _, p := range c.Providers {
		if c.Breaker != nil && c.Breaker.Resting(p.Name()) {
			continue
		}
		mv, err := invokeMove(ctx, p, snap)
		if err != nil {
			if llm.IsRateLimited(err) && c.Breaker != nil {
				c.Breaker.Trip(p.Name())
			}
			continue
		}
		if !mv.Valid() {
			continue
		}
		return mv
	}
	return engine.MoveRock
}

type moveResult struct {
	mv  engine.Move
	err error
}

func invokeMove(ctx context.Context, p MoveProvider, snap engine.RPSSnapshot) (engine.Move, error) {
	cctx, cancel := context.WithTimeout(ctx, p.Timeout())
	defer cancel()
	ch := make(chan moveResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- moveResult{err: fmt.Errorf("provider %s panicked: %v", p.Name(), r)}
			}
		}()
		mv, err := p.Move(cctx, snap)
		ch <- moveResult{mv: mv, err: err}
	}()
	select {
	case r := <-ch:
		return r.mv, r.err
	case <-cctx.Done():
		return "", fmt.Errorf("provider %s: %w", p.Name(), cctx.Err())
	}
}
