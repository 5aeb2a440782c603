package engine

// AgentView is the read-only slice of a combatant visible to decision
// sources.
type AgentView struct {
	ID         string `json:"id"`
	HP         int    `json:"hp"`
	Alive      bool   `json:"alive"`
	TurnsAlive int    `json:"turnsAlive"`
	LastAction Action `json:"lastAction,omitempty"`
}

// Snapshot is the world state handed to a decision source: everything one
// agent may observe when choosing its action. All snapshots for a turn are
// taken before any decision is collected.
type Snapshot struct {
	MatchID     string       `json:"matchId"`
	CurrentTurn int          `json:"currentTurn"`
	You         AgentView    `json:"you"`
	Opponents   []AgentView  `json:"opponents"`
	Alliances   []*Alliance  `json:"alliances"`
	PrizePool   int64        `json:"prizePool"`
	History     []TurnRecord `json:"history"`
}

const snapshotHistory = 5

func viewOf(c *Combatant) AgentView {
	v := AgentView{ID: c.ID, HP: c.HP, Alive: c.Alive, TurnsAlive: c.TurnsAlive}
	if c.LastDecision != nil {
		v.LastAction = c.LastDecision.Action
	}
	return v
}

// snapshotFor builds the opening world-state view for one combatant.
func snapshotFor(m *Match, you *Combatant) Snapshot {
	snap := Snapshot{
		MatchID:     m.ID,
		CurrentTurn: m.CurrentTurn,
		You:         viewOf(you),
		PrizePool:   m.PrizePool,
	}
	for _, c := range m.Combatants {
		if c.ID == you.ID {
			continue
		}
		snap.Opponents = append(snap.Opponents, viewOf(c))
	}
	snap.Alliances = append(snap.Alliances, m.Alliances...)
	if n := len(m.History); n > snapshotHistory {
		snap.History = append(snap.History, m.History[n-snapshotHistory:]...)
	} else {
		snap.History = append(snap.History, m.History...)
	}
	return snap
}
