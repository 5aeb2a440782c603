package engine

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Move is one rock-paper-scissors throw.
type Move string

const (
	MoveRock     Move = "rock"
	MovePaper    Move = "paper"
	MoveScissors Move = "scissors"
)

func (m Move) Valid() bool {
	return m == MoveRock || m == MovePaper || m == MoveScissors
}

// Beats reports whether m wins against other.
func (m Move) Beats(other Move) bool {
	switch m {
	case MoveRock:
		return other == MoveScissors
	case MoveScissors:
		return other == MovePaper
	case MovePaper:
		return other == MoveRock
	}
	return false
}

// Counter returns the move that beats m.
func (m Move) Counter() Move {
	switch m {
	case MoveRock:
		return MovePaper
	case MovePaper:
		return MoveScissors
	default:
		return MoveRock
	}
}

// RPSSnapshot is the per-round observation for one agent.
type RPSSnapshot struct {
	MatchID          string `json:"matchId"`
	Round            int    `json:"round"`
	BestOf           int    `json:"bestOf"`
	You              string `json:"you"`
	Opponent         string `json:"opponent"`
	YourWins         int    `json:"yourWins"`
	OpponentWins     int    `json:"opponentWins"`
	OpponentLastMove Move   `json:"opponentLastMove,omitempty"`
	PrizePool        int64  `json:"prizePool"`
}

// MoveSource produces one move per snapshot; gaps are treated as rock.
type MoveSource interface {
	CollectMoves(ctx context.Context, snaps []RPSSnapshot) map[string]Move
}

// RPSRound records one resolved round.
type RPSRound struct {
	Round  int             `json:"round"`
	Moves  map[string]Move `json:"moves"`
	Winner string          `json:"winner,omitempty"`
}

// RPSMatch is a two-agent best-of-N match.
type RPSMatch struct {
	ID        string         `json:"id"`
	ArenaID   string         `json:"arenaId"`
	Tier      string         `json:"tier"`
	Agents    [2]*Combatant  `json:"agents"`
	BestOf    int            `json:"bestOf"`
	Wins      map[string]int `json:"wins"`
	Rounds    []RPSRound     `json:"rounds"`
	Status    MatchStatus    `json:"status"`
	PrizePool int64          `json:"prizePool"`
	Winner    string         `json:"winner,omitempty"`
	Draw      bool           `json:"draw,omitempty"`
	Plan      []Payout       `json:"plan,omitempty"`
}

// RPSEngine runs the simplified two-agent variant. It shares the prize
// distributor with battle mode.
type RPSEngine struct {
	Source MoveSource
	Sink   Sink
	Log    *slog.Logger
}

// drawRoundCap bounds replayed draws so two mirrored profiles cannot spin
// forever; the match falls back to most-wins (or a draw) past it.
const drawRoundFactor = 4

// StartRPS validates the pair and returns a fresh match.
func (e *RPSEngine) StartRPS(arena ArenaInfo, agents []AgentInfo, bestOf int) (*RPSMatch, error) {
	if len(agents) != 2 {
		return nil, validationf("rps requires exactly 2 agents, got %d", len(agents))
	}
	if bestOf < 1 {
		bestOf = 1
	}
	m := &RPSMatch{
		ID:        uuid.NewString(),
		ArenaID:   arena.ID,
		Tier:      arena.Tier,
		BestOf:    bestOf,
		Wins:      map[string]int{agents[0].ID: 0, agents[1].ID: 0},
		Status:    MatchActive,
		PrizePool: arena.PrizePool,
	}
	r := DefaultRules()
	m.Agents[0] = newCombatant(r, agents[0])
	m.Agents[1] = newCombatant(r, agents[1])
	return m, nil
}

// PlayRound collects both moves and resolves one round. Draw rounds score
// nobody. Completing the match computes the distribution plan.
func (e *RPSEngine) PlayRound(ctx context.Context, m *RPSMatch) (*RPSRound, error) {
	if m.Status != MatchActive {
		return nil, &InvalidStateError{Op: "play round", State: string(m.Status)}
	}
	a, b := m.Agents[0], m.Agents[1]
	round := len(m.Rounds) + 1
	snaps := []RPSSnapshot{
		e.snapshotFor(m, a.ID, b.ID, round),
		e.snapshotFor(m, b.ID, a.ID, round),
	}
	moves := map[string]Move{}
	if e.Source != nil {
		moves = e.Source.CollectMoves(ctx, snaps)
	}
	for _, id := range []string{a.ID, b.ID} {
		if !moves[id].Valid() {
			moves[id] = MoveRock
		}
	}

	rr := RPSRound{Round: round, Moves: map[string]Move{a.ID: moves[a.ID], b.ID: moves[b.ID]}}
	switch {
	case moves[a.ID].Beats(moves[b.ID]):
		rr.Winner = a.ID
	case moves[b.ID].Beats(moves[a.ID]):
		rr.Winner = b.ID
	}
	if rr.Winner != "" {
		m.Wins[rr.Winner]++
	}
	m.Rounds = append(m.Rounds, rr)

	need := (m.BestOf + 1) / 2
	switch {
	case m.Wins[a.ID] >= need:
		e.finish(m, a.ID)
	case m.Wins[b.ID] >= need:
		e.finish(m, b.ID)
	case len(m.Rounds) >= m.BestOf*drawRoundFactor:
		switch {
		case m.Wins[a.ID] > m.Wins[b.ID]:
			e.finish(m, a.ID)
		case m.Wins[b.ID] > m.Wins[a.ID]:
			e.finish(m, b.ID)
		default:
			m.Draw = true
			m.Status = MatchCompleted
		}
	}

	if e.Sink != nil {
		rec := TurnRecord{Turn: round}
		for id, mv := range rr.Moves {
			rec.Events = append(rec.Events, Event{Type: EventMove, Agent: id, Reasoning: string(mv)})
		}
		if m.Status == MatchCompleted {
			rec.Events = append(rec.Events, Event{Type: EventMatchEnd, Winner: m.Winner, Draw: m.Draw, Plan: m.Plan})
		}
		e.Sink.TurnResult(m.ID, rec)
	}
	return &rr, nil
}

func (e *RPSEngine) finish(m *RPSMatch, winnerID string) {
	m.Winner = winnerID
	m.Status = MatchCompleted
	// Reuse the battle distributor unchanged, external tax included.
	shadow := &Match{Combatants: m.Agents[:], PrizePool: m.PrizePool}
	m.Plan = DistributePrize(shadow, winnerID)
}

func (e *RPSEngine) snapshotFor(m *RPSMatch, you, opponent string, round int) RPSSnapshot {
	snap := RPSSnapshot{
		MatchID:      m.ID,
		Round:        round,
		BestOf:       m.BestOf,
		You:          you,
		Opponent:     opponent,
		YourWins:     m.Wins[you],
		OpponentWins: m.Wins[opponent],
		PrizePool:    m.PrizePool,
	}
	for i := len(m.Rounds) - 1; i >= 0; i-- {
		if mv, ok := m.Rounds[i].Moves[opponent]; ok {
			snap.OpponentLastMove = mv
			break
		}
	}
	return snap
}
