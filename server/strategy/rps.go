package strategy

import (
	"context"
	"math/rand"

	"ai-colosseum/server/engine"
)

// MovePicker is the scripted rps fallback: a weighted-random move profile
// with a chance to counter the opponent's last observed throw.
type MovePicker struct {
	profile Profile
	rng     *rand.Rand
}

func NewMovePicker(p Profile, seed int64) *MovePicker {
	return &MovePicker{profile: p, rng: rand.New(rand.NewSource(seed))}
}

// Move picks one throw. Aggressive profiles lean rock, alliance-prone lean
// paper, betrayal-prone lean scissors.
func (mp *MovePicker) Move(_ context.Context, snap engine.RPSSnapshot) (engine.Move, error) {
	if snap.OpponentLastMove.Valid() && mp.rng.Float64() < mp.profile.CounterChance {
		return snap.OpponentLastMove.Counter(), nil
	}
	wRock := 1 + 2*mp.profile.Aggressiveness
	wPaper := 1 + 2*mp.profile.AllianceProneness
	wScissors := 1 + 2*mp.profile.BetrayalTendency
	roll := mp.rng.Float64() * (wRock + wPaper + wScissors)
	switch {
	case roll < wRock:
		return engine.MoveRock, nil
	case roll < wRock+wPaper:
		return engine.MovePaper, nil
	default:
		return engine.MoveScissors, nil
	}
}
