package engine

import (
	"context"
	"errors"
	"testing"
)

// moveScript replays fixed move maps, repeating the last one.
type moveScript struct {
	steps []map[string]Move
	i     int
}

func (s *moveScript) CollectMoves(_ context.Context, _ []RPSSnapshot) map[string]Move {
	if len(s.steps) == 0 {
		return nil
	}
	if s.i >= len(s.steps) {
		return s.steps[len(s.steps)-1]
	}
	d := s.steps[s.i]
	s.i++
	return d
}

func rpsPair() []AgentInfo {
	return []AgentInfo{{ID: "a", Name: "Alpha"}, {ID: "b", Name: "Beta"}}
}

func TestMoveBeats(t *testing.T) {
	cases := []struct {
		m, other Move
		want     bool
	}{
		{MoveRock, MoveScissors, true},
		{MoveScissors, MovePaper, true},
		{MovePaper, MoveRock, true},
		{MoveRock, MovePaper, false},
		{MoveRock, MoveRock, false},
	}
	for _, c := range cases {
		if got := c.m.Beats(c.other); got != c.want {
			t.Fatalf("%s vs %s = %v, want %v", c.m, c.other, got, c.want)
		}
	}
	for _, m := range []Move{MoveRock, MovePaper, MoveScissors} {
		if !m.Counter().Beats(m) {
			t.Fatalf("counter of %s does not beat it", m)
		}
	}
}

func TestStartRPSRequiresExactlyTwo(t *testing.T) {
	e := &RPSEngine{}
	_, err := e.StartRPS(testArena(100, 3), []AgentInfo{{ID: "a"}, {ID: "b"}, {ID: "c"}}, 3)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestRPSBestOfThree(t *testing.T) {
	src := &moveScript{steps: []map[string]Move{
		{"a": MovePaper, "b": MoveRock},     // a
		{"a": MoveRock, "b": MovePaper},     // b
		{"a": MoveScissors, "b": MovePaper}, // a wins the match
	}}
	e := &RPSEngine{Source: src}
	m, err := e.StartRPS(testArena(200, 2), rpsPair(), 3)
	if err != nil {
		t.Fatal(err)
	}
	for m.Status == MatchActive {
		if _, err := e.PlayRound(context.Background(), m); err != nil {
			t.Fatal(err)
		}
	}
	if m.Winner != "a" || len(m.Rounds) != 3 {
		t.Fatalf("winner = %q after %d rounds", m.Winner, len(m.Rounds))
	}
}

func TestRPSEvenBestOfNeedsCeilHalf(t *testing.T) {
	// Best-of-4 is first to 2, not 3.
	src := &moveScript{steps: []map[string]Move{
		{"a": MovePaper, "b": MoveRock},
	}}
	e := &RPSEngine{Source: src}
	m, err := e.StartRPS(testArena(200, 2), rpsPair(), 4)
	if err != nil {
		t.Fatal(err)
	}
	for m.Status == MatchActive {
		if _, err := e.PlayRound(context.Background(), m); err != nil {
			t.Fatal(err)
		}
	}
	if m.Winner != "a" || len(m.Rounds) != 2 {
		t.Fatalf("winner = %q after %d rounds, want a after 2", m.Winner, len(m.Rounds))
	}
	if len(m.Plan) != 1 || m.Plan[0].AgentID != "a" || m.Plan[0].Amount != 200 {
		t.Fatalf("unexpected plan: %v", m.Plan)
	}
}

func TestRPSDrawRoundScoresNobody(t *testing.T) {
	src := &moveScript{steps: []map[string]Move{{"a": MoveRock, "b": MoveRock}}}
	e := &RPSEngine{Source: src}
	m, _ := e.StartRPS(testArena(0, 2), rpsPair(), 3)
	rr, err := e.PlayRound(context.Background(), m)
	if err != nil {
		t.Fatal(err)
	}
	if rr.Winner != "" {
		t.Fatalf("draw round has winner %q", rr.Winner)
	}
	if m.Wins["a"] != 0 || m.Wins["b"] != 0 {
		t.Fatalf("draw round changed the score: %v", m.Wins)
	}
}

func TestRPSMirroredMovesHitDrawCap(t *testing.T) {
	src := &moveScript{steps: []map[string]Move{{"a": MovePaper, "b": MovePaper}}}
	e := &RPSEngine{Source: src}
	m, _ := e.StartRPS(testArena(100, 2), rpsPair(), 3)
	for m.Status == MatchActive {
		if _, err := e.PlayRound(context.Background(), m); err != nil {
			t.Fatal(err)
		}
	}
	if !m.Draw {
		t.Fatalf("expected draw, got winner %q", m.Winner)
	}
	if len(m.Rounds) != 3*drawRoundFactor {
		t.Fatalf("rounds = %d, want %d", len(m.Rounds), 3*drawRoundFactor)
	}
}

func TestRPSInvalidMoveCoercesToRock(t *testing.T) {
	src := &moveScript{steps: []map[string]Move{{"a": Move("lizard"), "b": MovePaper}}}
	e := &RPSEngine{Source: src}
	m, _ := e.StartRPS(testArena(0, 2), rpsPair(), 1)
	rr, err := e.PlayRound(context.Background(), m)
	if err != nil {
		t.Fatal(err)
	}
	if rr.Moves["a"] != MoveRock {
		t.Fatalf("invalid move coerced to %q, want rock", rr.Moves["a"])
	}
	if rr.Winner != "b" {
		t.Fatalf("winner = %q, want b", rr.Winner)
	}
}

func TestRPSExternalWinnerIsTaxed(t *testing.T) {
	src := &moveScript{steps: []map[string]Move{{"a": MovePaper, "b": MoveRock}}}
	e := &RPSEngine{Source: src}
	m, _ := e.StartRPS(testArena(100, 2), []AgentInfo{
		{ID: "a", Name: "Alpha", External: true},
		{ID: "b", Name: "Beta"},
	}, 1)
	if _, err := e.PlayRound(context.Background(), m); err != nil {
		t.Fatal(err)
	}
	if m.Status != MatchCompleted || m.Winner != "a" {
		t.Fatalf("status %q winner %q", m.Status, m.Winner)
	}
	want := map[string]int64{"a": 50, "b": 50}
	for _, p := range m.Plan {
		if want[p.AgentID] != p.Amount {
			t.Fatalf("payout %s = %d, want %d", p.AgentID, p.Amount, want[p.AgentID])
		}
	}
}

func TestPlayRoundOnFinishedMatch(t *testing.T) {
	e := &RPSEngine{Source: &moveScript{steps: []map[string]Move{{"a": MovePaper, "b": MoveRock}}}}
	m, _ := e.StartRPS(testArena(0, 2), rpsPair(), 1)
	if _, err := e.PlayRound(context.Background(), m); err != nil {
		t.Fatal(err)
	}
	_, err := e.PlayRound(context.Background(), m)
	var se *InvalidStateError
	if !errors.As(err, &se) {
		t.Fatalf("expected InvalidStateError, got %v", err)
	}
}
