package engine

import "log/slog"

// EventType tags one entry of a turn record.
type EventType string

const (
	EventDefend          EventType = "defend"
	EventProposeAlliance EventType = "propose_alliance"
	EventBribe           EventType = "bribe"
	EventAllianceFormed  EventType = "alliance_formed"
	EventAttack          EventType = "attack"
	EventBetrayal        EventType = "betrayal"
	EventRecovery        EventType = "recovery"
	EventDeath           EventType = "death"
	EventMatchEnd        EventType = "match_end"

	// EventMove is emitted by the rps variant in place of combat events.
	EventMove EventType = "move"
)

// Event is one thing that happened during a turn. Fields beyond Type are
// set per type; zero values are omitted on the wire.
type Event struct {
	Type       EventType `json:"type"`
	Agent      string    `json:"agent,omitempty"`
	Target     string    `json:"target,omitempty"`
	Damage     int       `json:"damage,omitempty"`
	Healed     int       `json:"healed,omitempty"`
	Amount     int64     `json:"amount,omitempty"`
	Accepted   bool      `json:"accepted,omitempty"`
	AllianceID string    `json:"allianceId,omitempty"`
	Terms      *Terms    `json:"terms,omitempty"`
	Winner     string    `json:"winner,omitempty"`
	Draw       bool      `json:"draw,omitempty"`
	Plan       []Payout  `json:"plan,omitempty"`
	Reasoning  string    `json:"reasoning,omitempty"`
}

// TurnRecord is the append-only per-turn history entry and the payload of
// the outbound turn-result event.
type TurnRecord struct {
	Turn   int     `json:"turn"`
	Events []Event `json:"events"`
}

// Sink receives turn results as they are produced. Transport (log, queue,
// socket) is the consumer's concern; the engine only writes.
type Sink interface {
	TurnResult(matchID string, rec TurnRecord)
}

// LogSink writes turn results to a structured logger.
type LogSink struct {
	Log *slog.Logger
}

func (s LogSink) TurnResult(matchID string, rec TurnRecord) {
	if s.Log == nil {
		return
	}
	for _, ev := range rec.Events {
		s.Log.Info("turn event",
			"match", matchID,
			"turn", rec.Turn,
			"type", ev.Type,
			"agent", ev.Agent,
			"target", ev.Target,
			"damage", ev.Damage,
		)
	}
}

// TurnResultMsg pairs a turn record with its match for channel consumers.
type TurnResultMsg struct {
	MatchID string     `json:"matchId"`
	Record  TurnRecord `json:"record"`
}

// ChannelSink forwards turn results to a buffered channel, dropping on a
// full buffer so a slow consumer can never stall a match.
type ChannelSink struct {
	C chan TurnResultMsg
}

func NewChannelSink(buffer int) ChannelSink {
	return ChannelSink{C: make(chan TurnResultMsg, buffer)}
}

func (s ChannelSink) TurnResult(matchID string, rec TurnRecord) {
	select {
	case s.C <- TurnResultMsg{MatchID: matchID, Record: rec}:
	default:
	}
}

// MultiSink fans a turn result out to several sinks.
type MultiSink []Sink

func (s MultiSink) TurnResult(matchID string, rec TurnRecord) {
	for _, sub := range s {
		sub.TurnResult(matchID, rec)
	}
}
