// Package rating scores agents across matches with a margin-aware Elo.
package rating

import "math"

// Rating is one agent's standing on the ladder.
type Rating struct {
	AgentID string  `json:"agentId"`
	Name    string  `json:"name"`
	Score   float64 `json:"score"`
	Matches int     `json:"matches"`
}

const (
	StartScore = 1200.0
	BaseK      = 24.0
)

// Result feeds one finished head-to-head comparison into the ladder:
// the winner against one opponent, with the winner's remaining HP
// fraction as the margin. Draws pass Draw=true and ignore the margin.
type Result struct {
	Winner   *Rating
	Loser    *Rating
	Margin   float64 // winner's final HP / max HP, in [0, 1]
	PoolSize int64
	Draw     bool
}

func expect(a, b float64) (ea, eb float64) {
	ea = 1.0 / (1.0 + math.Pow(10, (b-a)/400.0))
	return ea, 1.0 - ea
}

// Update applies one result and returns the deltas applied to each side.
func Update(res Result) (dWin, dLose float64) {
	ea, eb := expect(res.Winner.Score, res.Loser.Score)

	sa, sb := 1.0, 0.0
	if res.Draw {
		sa, sb = 0.5, 0.5
	} else {
		// Soften the score by margin so a 1 HP squeaker moves the
		// ladder less than a flawless win.
		sa = 0.75 + 0.25*clamp(res.Margin, 0, 1)
		sb = 1.0 - sa
	}

	kw := BaseK * poolScale(res.PoolSize) * decay(res.Winner.Matches)
	kl := BaseK * poolScale(res.PoolSize) * decay(res.Loser.Matches)

	dWin = kw * (sa - ea)
	dLose = kl * (sb - eb)
	res.Winner.Score += dWin
	res.Loser.Score += dLose
	res.Winner.Matches++
	res.Loser.Matches++
	return dWin, dLose
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// poolScale weights high-stakes matches a little heavier.
func poolScale(pool int64) float64 {
	if pool <= 0 {
		return 1.0
	}
	scale := 1.0 + 0.25*math.Tanh(float64(pool)/500.0)
	return clamp(scale, 1.0, 1.25)
}

// decay anneals K as an agent accumulates matches.
func decay(matches int) float64 {
	return 1.0 / (1.0 + 0.01*float64(matches))
}
