package arena

import "ai-colosseum/server/engine"

// CombatantView is the public projection of a combatant.
type CombatantView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	HP         int    `json:"hp"`
	Alive      bool   `json:"alive"`
	TurnsAlive int    `json:"turnsAlive"`
	External   bool   `json:"external"`
}

// MatchView is the scheduler-owned copy of match state served to readers.
// The runner republishes it after every turn; the live match itself is
// never shared.
type MatchView struct {
	ID         string              `json:"id"`
	ArenaID    string              `json:"arenaId"`
	GameType   GameType            `json:"gameType"`
	Status     engine.MatchStatus  `json:"status"`
	Turn       int                 `json:"turn"`
	Combatants []CombatantView     `json:"combatants"`
	Winner     string              `json:"winner,omitempty"`
	Draw       bool                `json:"draw,omitempty"`
	PrizePool  int64               `json:"prizePool"`
	Plan       []engine.Payout     `json:"plan,omitempty"`
	History    []engine.TurnRecord `json:"history,omitempty"`
	Rounds     []engine.RPSRound   `json:"rounds,omitempty"`
}

// Match returns the latest published view of a match.
func (s *Scheduler) Match(id string) (MatchView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.matches[id]
	if !ok {
		return MatchView{}, false
	}
	return *v, true
}

func (s *Scheduler) publishBattle(arenaID string, m *engine.Match) {
	v := &MatchView{
		ID:        m.ID,
		ArenaID:   arenaID,
		GameType:  GameBattle,
		Status:    m.Status,
		Turn:      m.CurrentTurn,
		Winner:    m.Winner,
		Draw:      m.Draw,
		PrizePool: m.PrizePool,
	}
	v.Plan = append(v.Plan, m.Plan...)
	v.History = append(v.History, m.History...)
	for _, c := range m.Combatants {
		v.Combatants = append(v.Combatants, CombatantView{
			ID: c.ID, Name: c.Name, HP: c.HP, Alive: c.Alive,
			TurnsAlive: c.TurnsAlive, External: c.External,
		})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[m.ID] = v
	if a, ok := s.arenas[arenaID]; ok {
		a.matchID = m.ID
	}
}

func (s *Scheduler) publishRPS(arenaID string, m *engine.RPSMatch) {
	v := &MatchView{
		ID:        m.ID,
		ArenaID:   arenaID,
		GameType:  GameRPS,
		Status:    m.Status,
		Turn:      len(m.Rounds),
		Winner:    m.Winner,
		Draw:      m.Draw,
		PrizePool: m.PrizePool,
	}
	v.Plan = append(v.Plan, m.Plan...)
	v.Rounds = append(v.Rounds, m.Rounds...)
	for _, c := range m.Agents {
		v.Combatants = append(v.Combatants, CombatantView{
			ID: c.ID, Name: c.Name, HP: c.HP, Alive: c.Alive, External: c.External,
		})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[m.ID] = v
	if a, ok := s.arenas[arenaID]; ok {
		a.matchID = m.ID
	}
}
