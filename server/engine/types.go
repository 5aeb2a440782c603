package engine

// Action is the tag of a combatant's decision for one turn.
type Action string

const (
	ActionAttack          Action = "attack"
	ActionDefend          Action = "defend"
	ActionProposeAlliance Action = "propose_alliance"
	ActionAcceptAlliance  Action = "accept_alliance"
	ActionBetrayAlliance  Action = "betray_alliance"
	ActionBribe           Action = "bribe"
)

func (a Action) Valid() bool {
	switch a {
	case ActionAttack, ActionDefend, ActionProposeAlliance,
		ActionAcceptAlliance, ActionBetrayAlliance, ActionBribe:
		return true
	}
	return false
}

// Terms is a proposed prize split; PrizeShare is the proposer's (or
// briber's) percentage, 0..100.
type Terms struct {
	PrizeShare int `json:"prizeShare"`
}

// Decision is one combatant's chosen action for a single turn. Only the
// fields relevant to Action are set.
type Decision struct {
	Action       Action `json:"action"`
	Target       string `json:"target,omitempty"`
	AttackTarget string `json:"attackTarget,omitempty"`
	Proposer     string `json:"proposer,omitempty"`
	AllianceID   string `json:"allianceId,omitempty"`
	Terms        *Terms `json:"terms,omitempty"`
	Amount       int64  `json:"amount,omitempty"`
	Reasoning    string `json:"reasoning,omitempty"`
}

// victim resolves the id an attack-like decision is aimed at. Models use
// "target" and "attackTarget" interchangeably.
func (d Decision) victim() string {
	if d.AttackTarget != "" {
		return d.AttackTarget
	}
	return d.Target
}

// DefaultDecision is the decision of last resort.
func DefaultDecision(reasoning string) Decision {
	return Decision{Action: ActionDefend, Reasoning: reasoning}
}

// Buffs shift damage dealt, damage taken, or starting HP. Each full 10
// points of a buff is worth one point in the relevant formula.
type Buffs struct {
	Health int `json:"health"`
	Armor  int `json:"armor"`
	Attack int `json:"attack"`
	Speed  int `json:"speed"`
}

// BriberyPolicy decides how a combatant answers a bribe.
type BriberyPolicy string

const (
	BriberyAccept      BriberyPolicy = "accept"
	BriberyReject      BriberyPolicy = "reject"
	BriberyConditional BriberyPolicy = "conditional"
)

// AgentInfo describes a participant before a match exists.
type AgentInfo struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	External bool          `json:"external"`
	Buffs    Buffs         `json:"buffs"`
	Bribery  BriberyPolicy `json:"bribery,omitempty"`
}

// Combatant is a participant inside a running match.
type Combatant struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	HP           int           `json:"hp"`
	StartHP      int           `json:"startHp"`
	Alive        bool          `json:"alive"`
	TurnsAlive   int           `json:"turnsAlive"`
	Buffs        Buffs         `json:"buffs"`
	External     bool          `json:"external"`
	Bribery      BriberyPolicy `json:"bribery,omitempty"`
	LastDecision *Decision     `json:"lastDecision,omitempty"`
}

// Proposal is a pending alliance offer.
type Proposal struct {
	Proposer string `json:"proposer"`
	Target   string `json:"target"`
	Terms    *Terms `json:"terms,omitempty"`
}

// Alliance is a two-member pact with an agreed prize split. Shares map
// member id to percentage and sum to 100 by construction.
type Alliance struct {
	ID         string         `json:"id"`
	Members    [2]string      `json:"members"`
	Shares     map[string]int `json:"prizeShare"`
	FromBribe  bool           `json:"fromBribe,omitempty"`
	FormedTurn int            `json:"formedTurn,omitempty"`
}

func (a *Alliance) Has(id string) bool {
	return a.Members[0] == id || a.Members[1] == id
}

func (a *Alliance) Other(id string) string {
	if a.Members[0] == id {
		return a.Members[1]
	}
	return a.Members[0]
}

// Payout is one line of a distribution plan.
type Payout struct {
	AgentID string `json:"agentId"`
	Amount  int64  `json:"amount"`
}

// MatchStatus is the lifecycle state of a match.
type MatchStatus string

const (
	MatchActive    MatchStatus = "active"
	MatchCompleted MatchStatus = "completed"
	MatchError     MatchStatus = "error"
)

// ArenaInfo is the slice of arena state a match needs.
type ArenaInfo struct {
	ID        string `json:"id"`
	Tier      string `json:"tier"`
	MinAgents int    `json:"minAgents"`
	MaxAgents int    `json:"maxAgents"`
	PrizePool int64  `json:"prizePool"`
}

// Match is a single simulation instance. Mutated only by ExecuteTurn;
// immutable once Status leaves MatchActive.
type Match struct {
	ID          string       `json:"id"`
	ArenaID     string       `json:"arenaId"`
	Tier        string       `json:"tier"`
	Combatants  []*Combatant `json:"combatants"`
	CurrentTurn int          `json:"currentTurn"`
	Status      MatchStatus  `json:"status"`
	PrizePool   int64        `json:"prizePool"`
	Alliances   []*Alliance  `json:"alliances"`
	Proposals   []Proposal   `json:"proposals,omitempty"`
	Winner      string       `json:"winner,omitempty"`
	Draw        bool         `json:"draw,omitempty"`
	Plan        []Payout     `json:"plan,omitempty"`
	History     []TurnRecord `json:"history"`
}

func (m *Match) combatant(id string) *Combatant {
	for _, c := range m.Combatants {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (m *Match) alliance(id string) *Alliance {
	for _, a := range m.Alliances {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// AliveIDs returns the ids of living combatants in seat order.
func (m *Match) AliveIDs() []string {
	var out []string
	for _, c := range m.Combatants {
		if c.Alive {
			out = append(out, c.ID)
		}
	}
	return out
}

// Rules holds the combat tunables.
type Rules struct {
	StartingHP     int
	MaxHP          int
	AttackDamage   int
	DefendedDamage int
	Recovery       int
	TurnCap        int
}

// DefaultRules matches the canonical arena numbers.
func DefaultRules() Rules {
	return Rules{
		StartingHP:     100,
		MaxHP:          105,
		AttackDamage:   20,
		DefendedDamage: 10,
		Recovery:       5,
		TurnCap:        100,
	}
}
