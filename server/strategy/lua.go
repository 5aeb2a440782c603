package strategy

import (
	"context"
	"fmt"

	"ai-colosseum/server/engine"

	lua "github.com/Shopify/go-lua"
)

// LuaStrategy evaluates a user-supplied script inside a Lua sandbox. The
// script must define `decide(state)` returning a table with an "action"
// field. Only the base, math, and string libraries are opened; there is no
// io, os, or require, so scripts cannot reach outside their snapshot.
type LuaStrategy struct {
	source string
}

func NewLua(source string) (*LuaStrategy, error) {
	s := &LuaStrategy{source: source}
	l, err := s.load()
	if err != nil {
		return nil, err
	}
	l.Global("decide")
	if !l.IsFunction(-1) {
		return nil, fmt.Errorf("lua strategy: script does not define decide(state)")
	}
	return s, nil
}

// Decide runs the script against a fresh state each turn; nothing persists
// between calls.
func (s *LuaStrategy) Decide(_ context.Context, snap engine.Snapshot) (engine.Decision, error) {
	l, err := s.load()
	if err != nil {
		return engine.Decision{}, err
	}
	l.Global("decide")
	if !l.IsFunction(-1) {
		return engine.Decision{}, fmt.Errorf("lua strategy: decide(state) missing")
	}
	pushSnapshot(l, snap)
	if err := l.ProtectedCall(1, 1, 0); err != nil {
		return engine.Decision{}, fmt.Errorf("lua strategy: %w", err)
	}
	d, err := decisionFromLua(l)
	if err != nil {
		return engine.Decision{}, err
	}
	return d, nil
}

func (s *LuaStrategy) load() (*lua.State, error) {
	l := lua.NewState()
	lua.Require(l, "_G", lua.BaseOpen, true)
	l.Pop(1)
	lua.Require(l, "math", lua.MathOpen, true)
	l.Pop(1)
	lua.Require(l, "string", lua.StringOpen, true)
	l.Pop(1)
	if err := lua.DoString(l, s.source); err != nil {
		return nil, fmt.Errorf("lua strategy: %w", err)
	}
	return l, nil
}

func pushSnapshot(l *lua.State, snap engine.Snapshot) {
	l.NewTable()
	setString(l, "matchId", snap.MatchID)
	setInt(l, "currentTurn", snap.CurrentTurn)
	setInt(l, "prizePool", int(snap.PrizePool))

	pushAgentView(l, snap.You)
	l.SetField(-2, "you")

	l.NewTable()
	for i, o := range snap.Opponents {
		pushAgentView(l, o)
		l.RawSetInt(-2, i+1)
	}
	l.SetField(-2, "opponents")

	l.NewTable()
	for i, a := range snap.Alliances {
		l.NewTable()
		setString(l, "id", a.ID)
		l.NewTable()
		l.PushString(a.Members[0])
		l.RawSetInt(-2, 1)
		l.PushString(a.Members[1])
		l.RawSetInt(-2, 2)
		l.SetField(-2, "members")
		l.RawSetInt(-2, i+1)
	}
	l.SetField(-2, "alliances")
}

func pushAgentView(l *lua.State, v engine.AgentView) {
	l.NewTable()
	setString(l, "id", v.ID)
	setInt(l, "hp", v.HP)
	l.PushBoolean(v.Alive)
	l.SetField(-2, "alive")
	setInt(l, "turnsAlive", v.TurnsAlive)
	setString(l, "lastAction", string(v.LastAction))
}

func setString(l *lua.State, key, value string) {
	l.PushString(value)
	l.SetField(-2, key)
}

func setInt(l *lua.State, key string, value int) {
	l.PushInteger(value)
	l.SetField(-2, key)
}

func decisionFromLua(l *lua.State) (engine.Decision, error) {
	if !l.IsTable(-1) {
		return engine.Decision{}, fmt.Errorf("lua strategy: decide must return a table")
	}
	var d engine.Decision
	d.Action = engine.Action(tableString(l, "action"))
	if !d.Action.Valid() {
		return engine.Decision{}, fmt.Errorf("lua strategy: invalid action %q", d.Action)
	}
	d.Target = tableString(l, "target")
	d.Proposer = tableString(l, "proposer")
	d.AllianceID = tableString(l, "allianceId")
	d.Reasoning = tableString(l, "reasoning")
	if n, ok := tableInt(l, "amount"); ok {
		d.Amount = int64(n)
	}
	if share, ok := tableInt(l, "prizeShare"); ok && share >= 0 && share <= 100 {
		d.Terms = &engine.Terms{PrizeShare: share}
	}
	return d, nil
}

func tableString(l *lua.State, key string) string {
	l.Field(-1, key)
	defer l.Pop(1)
	if s, ok := l.ToString(-1); ok {
		return s
	}
	return ""
}

func tableInt(l *lua.State, key string) (int, bool) {
	l.Field(-1, key)
	defer l.Pop(1)
	if n, ok := l.ToNumber(-1); ok {
		return int(n), true
	}
	return 0, false
}
