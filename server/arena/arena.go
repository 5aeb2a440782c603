// Package arena turns queued agents into running matches: per-tier
// lobbies, countdown launches, and the match runner loop. Arena and lobby
// state is owned exclusively by the Scheduler; join and leave are the only
// mutators and both gate on status.
package arena

import (
	"errors"
	"fmt"
	"time"

	"ai-colosseum/server/engine"
)

// ErrArenaNotFound is returned when an operation names an unknown arena.
var ErrArenaNotFound = errors.New("arena not found")

// GameType selects the simulation an arena runs.
type GameType string

const (
	GameBattle GameType = "battle"
	GameRPS    GameType = "rps"
)

// Status is the arena lifecycle state.
type Status string

const (
	StatusOpen       Status = "open"
	StatusLobby      Status = "lobby"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Descriptor configures one arena tier.
type Descriptor struct {
	Tier      string   `json:"tier"`
	GameType  GameType `json:"gameType"`
	EntryFee  int64    `json:"entryFee"`
	MinAgents int      `json:"minAgents"`
	MaxAgents int      `json:"maxAgents"`
}

func (d Descriptor) validate() error {
	if d.Tier == "" {
		return fmt.Errorf("arena descriptor: tier required")
	}
	if d.GameType != GameBattle && d.GameType != GameRPS {
		return fmt.Errorf("arena descriptor: unknown game type %q", d.GameType)
	}
	if d.MinAgents < 2 || d.MaxAgents < d.MinAgents {
		return fmt.Errorf("arena descriptor: bad agent bounds [%d, %d]", d.MinAgents, d.MaxAgents)
	}
	if d.GameType == GameRPS && (d.MinAgents != 2 || d.MaxAgents != 2) {
		return fmt.Errorf("arena descriptor: rps is strictly two agents")
	}
	return nil
}

// Agent is a lobby entry: the combat descriptor plus its decision-source
// configuration.
type Agent struct {
	engine.AgentInfo
	Strategy  string `json:"strategy,omitempty"`
	LuaScript string `json:"luaScript,omitempty"`
}

type arenaState struct {
	id        string
	desc      Descriptor
	status    Status
	pool      int64
	lobby     []Agent
	countdown *time.Timer
	matchID   string
	errReason string
	created   time.Time
}

func (a *arenaState) hasAgent(id string) bool {
	for _, ag := range a.lobby {
		if ag.ID == id {
			return true
		}
	}
	return false
}

func (a *arenaState) removeAgent(id string) (Agent, bool) {
	for i, ag := range a.lobby {
		if ag.ID == id {
			a.lobby = append(a.lobby[:i], a.lobby[i+1:]...)
			return ag, true
		}
	}
	return Agent{}, false
}

func (a *arenaState) cancelCountdown() {
	if a.countdown != nil {
		a.countdown.Stop()
		a.countdown = nil
	}
}

// View is the read-only arena projection served by the API.
type View struct {
	ID        string   `json:"id"`
	Tier      string   `json:"tier"`
	GameType  GameType `json:"gameType"`
	EntryFee  int64    `json:"entryFee"`
	MinAgents int      `json:"minAgents"`
	MaxAgents int      `json:"maxAgents"`
	Status    Status   `json:"status"`
	PrizePool int64    `json:"prizePool"`
	Agents    []string `json:"agents"`
	MatchID   string   `json:"matchId,omitempty"`
	Error     string   `json:"error,omitempty"`
}

func (a *arenaState) view() View {
	v := View{
		ID:        a.id,
		Tier:      a.desc.Tier,
		GameType:  a.desc.GameType,
		EntryFee:  a.desc.EntryFee,
		MinAgents: a.desc.MinAgents,
		MaxAgents: a.desc.MaxAgents,
		Status:    a.status,
		PrizePool: a.pool,
		MatchID:   a.matchID,
		Error:     a.errReason,
	}
	for _, ag := range a.lobby {
		v.Agents = append(v.Agents, ag.ID)
	}
	return v
}
