package strategy

import (
	"context"
	"testing"

	"ai-colosseum/server/engine"
)

const attackWeakestScript = `
function decide(state)
    local target = nil
    for _, foe in ipairs(state.opponents) do
        if foe.alive and (target == nil or foe.hp < target.hp) then
            target = foe
        end
    end
    if target == nil then
        return { action = "defend" }
    end
    if state.you.hp < 30 then
        return { action = "propose_alliance", target = target.id, prizeShare = 40 }
    end
    return { action = "attack", target = target.id, reasoning = "weakest first" }
end
`

func TestLuaStrategyDecides(t *testing.T) {
	s, err := NewLua(attackWeakestScript)
	if err != nil {
		t.Fatal(err)
	}
	snap := snapWith(alive("me", 90), alive("tank", 100), alive("runt", 20))
	d, err := s.Decide(context.Background(), snap)
	if err != nil {
		t.Fatal(err)
	}
	if d.Action != engine.ActionAttack || d.Target != "runt" {
		t.Fatalf("unexpected decision: %+v", d)
	}
	if d.Reasoning != "weakest first" {
		t.Fatalf("reasoning = %q", d.Reasoning)
	}
}

func TestLuaStrategyTermsBranch(t *testing.T) {
	s, err := NewLua(attackWeakestScript)
	if err != nil {
		t.Fatal(err)
	}
	d, err := s.Decide(context.Background(), snapWith(alive("me", 20), alive("tank", 100)))
	if err != nil {
		t.Fatal(err)
	}
	if d.Action != engine.ActionProposeAlliance || d.Terms == nil || d.Terms.PrizeShare != 40 {
		t.Fatalf("unexpected decision: %+v", d)
	}
}

func TestNewLuaRejectsScriptWithoutDecide(t *testing.T) {
	if _, err := NewLua(`x = 1`); err == nil {
		t.Fatal("script without decide() accepted")
	}
}

func TestNewLuaRejectsBrokenScript(t *testing.T) {
	if _, err := NewLua(`function decide(`); err == nil {
		t.Fatal("syntax error accepted")
	}
}

func TestLuaInvalidActionIsAnError(t *testing.T) {
	s, err := NewLua(`function decide(state) return { action = "explode" } end`)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Decide(context.Background(), snapWith(alive("me", 90), alive("a", 50))); err == nil {
		t.Fatal("invalid action accepted")
	}
}

func TestLuaSandboxHasNoIO(t *testing.T) {
	s, err := NewLua(`function decide(state)
        if io ~= nil or os ~= nil then
            return { action = "attack", target = "leak" }
        end
        return { action = "defend" }
    end`)
	if err != nil {
		t.Fatal(err)
	}
	d, err := s.Decide(context.Background(), snapWith(alive("me", 90), alive("a", 50)))
	if err != nil {
		t.Fatal(err)
	}
	if d.Action != engine.ActionDefend {
		t.Fatal("sandbox exposed io or os")
	}
}

func TestLuaRuntimeErrorIsReturned(t *testing.T) {
	s, err := NewLua(`function decide(state) error("boom") end`)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Decide(context.Background(), snapWith(alive("me", 90), alive("a", 50))); err == nil {
		t.Fatal("runtime error swallowed")
	}
}
