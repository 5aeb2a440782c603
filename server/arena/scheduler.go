package arena

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"ai-colosseum/server/engine"
	"ai-colosseum/server/llm"
	"ai-colosseum/server/provider"
	"ai-colosseum/server/rating"
	"ai-colosseum/server/store"
	"ai-colosseum/server/strategy"
)

// Deps carries everything a scheduler needs to launch matches. Breaker and
// Limiter are process-shared on purpose: they model external limits, not
// per-match resources.
type Deps struct {
	Rules         engine.Rules
	Models        []string
	LLM           *llm.Client
	Breaker       *provider.CircuitBreaker
	Limiter       *rate.Limiter
	Sink          engine.Sink
	Store         *store.DB
	Log           *slog.Logger
	Countdown     time.Duration
	AITimeout     time.Duration
	ScriptTimeout time.Duration
	RPSBestOf     int
	Seed          func() int64
}

// Scheduler owns every arena and lobby in the process. Matches run in
// scheduler-spawned goroutines; the scheduler only ever touches match
// state through the views the runner publishes.
type Scheduler struct {
	mu      sync.RWMutex
	deps    Deps
	arenas  map[string]*arenaState
	matches map[string]*MatchView

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(deps Deps) *Scheduler {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	if deps.Seed == nil {
		deps.Seed = func() int64 { return time.Now().UnixNano() }
	}
	if deps.RPSBestOf < 1 {
		deps.RPSBestOf = 5
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		deps:    deps,
		arenas:  make(map[string]*arenaState),
		matches: make(map[string]*MatchView),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Shutdown cancels running matches and waits for their runners.
func (s *Scheduler) Shutdown() {
	s.cancel()
	s.wg.Wait()
}

// CreateArena opens a fresh arena for a tier.
func (s *Scheduler) CreateArena(desc Descriptor) (View, error) {
	if err := desc.validate(); err != nil {
		return View{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.createLocked(desc)
	return a.view(), nil
}

func (s *Scheduler) createLocked(desc Descriptor) *arenaState {
	a := &arenaState{
		id:      uuid.NewString(),
		desc:    desc,
		status:  StatusOpen,
		created: time.Now(),
	}
	s.arenas[a.id] = a
	s.deps.Log.Info("arena created", "arena", a.id, "tier", desc.Tier, "game", desc.GameType)
	return a
}

// Arenas lists every arena, including completed and errored ones.
func (s *Scheduler) Arenas() []View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]View, 0, len(s.arenas))
	for _, a := range s.arenas {
		out = append(out, a.view())
	}
	return out
}

// Arena returns one arena's view.
func (s *Scheduler) Arena(id string) (View, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.arenas[id]
	if !ok {
		return View{}, false
	}
	return a.view(), true
}

// Join adds an agent to an arena lobby. Non-external agents pay the entry
// fee into the pool. Reaching maxAgents launches immediately; reaching
// minAgents from open starts the countdown.
func (s *Scheduler) Join(arenaID string, agent Agent) error {
	if agent.ID == "" {
		return &engine.ValidationError{Msg: "join arena: agent id required"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.arenas[arenaID]
	if !ok {
		return fmt.Errorf("join arena %s: %w", arenaID, ErrArenaNotFound)
	}
	if a.status != StatusOpen && a.status != StatusLobby {
		return &engine.InvalidStateError{Op: "join arena", State: string(a.status)}
	}
	if a.hasAgent(agent.ID) {
		return &engine.ValidationError{Msg: fmt.Sprintf("join arena: agent %s already present", agent.ID)}
	}
	if len(a.lobby) >= a.desc.MaxAgents {
		return &engine.ValidationError{Msg: "join arena: arena full"}
	}
	a.lobby = append(a.lobby, agent)
	if !agent.External {
		a.pool += a.desc.EntryFee
	}
	s.deps.Log.Info("agent joined", "arena", a.id, "agent", agent.ID, "lobby", len(a.lobby), "pool", a.pool)

	switch {
	case len(a.lobby) >= a.desc.MaxAgents:
		a.cancelCountdown()
		s.launchLocked(a)
	case len(a.lobby) >= a.desc.MinAgents && a.status == StatusOpen:
		a.status = StatusLobby
		id := a.id
		a.countdown = time.AfterFunc(s.deps.Countdown, func() { s.countdownElapsed(id) })
		s.deps.Log.Info("countdown started", "arena", a.id, "duration", s.deps.Countdown)
	}
	return nil
}

// Leave removes an agent before launch and refunds its entry fee.
func (s *Scheduler) Leave(arenaID, agentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.arenas[arenaID]
	if !ok {
		return fmt.Errorf("leave arena %s: %w", arenaID, ErrArenaNotFound)
	}
	if a.status != StatusOpen && a.status != StatusLobby {
		return &engine.InvalidStateError{Op: "leave arena", State: string(a.status)}
	}
	agent, ok := a.removeAgent(agentID)
	if !ok {
		return &engine.ValidationError{Msg: fmt.Sprintf("leave arena: agent %s not present", agentID)}
	}
	if !agent.External {
		a.pool -= a.desc.EntryFee
	}
	if a.status == StatusLobby && len(a.lobby) < a.desc.MinAgents {
		a.status = StatusOpen
		a.cancelCountdown()
		s.deps.Log.Info("countdown cancelled; back to open", "arena", a.id)
	}
	return nil
}

func (s *Scheduler) countdownElapsed(arenaID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.arenas[arenaID]
	if !ok || a.status != StatusLobby || len(a.lobby) < a.desc.MinAgents {
		return
	}
	a.countdown = nil
	s.launchLocked(a)
}

// launchLocked flips the arena to in_progress and hands its roster to a
// runner goroutine. Caller holds the lock.
func (s *Scheduler) launchLocked(a *arenaState) {
	a.status = StatusInProgress
	roster := make([]Agent, len(a.lobby))
	copy(roster, a.lobby)
	pool := a.pool
	s.deps.Log.Info("arena launching", "arena", a.id, "agents", len(roster), "pool", pool)
	s.wg.Add(1)
	go s.run(a.id, a.desc, roster, pool)
}

// run drives one match to completion. Any panic or error marks the arena
// errored and is reported, never rethrown: a broken strategy must not take
// the scheduler down.
func (s *Scheduler) run(arenaID string, desc Descriptor, roster []Agent, pool int64) {
	defer s.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			s.markError(arenaID, &engine.MatchRuntimeError{MatchID: arenaID, Cause: fmt.Errorf("panic: %v", r)})
		}
	}()

	var err error
	if desc.GameType == GameRPS {
		err = s.runRPS(arenaID, desc, roster, pool)
	} else {
		err = s.runBattle(arenaID, desc, roster, pool)
	}
	if err != nil {
		s.markError(arenaID, err)
		return
	}
	s.complete(arenaID, desc)
}

func (s *Scheduler) runBattle(arenaID string, desc Descriptor, roster []Agent, pool int64) error {
	collector, infos := s.buildCollector(roster)
	eng := engine.New(s.deps.Rules, collector, s.deps.Sink, s.deps.Log)
	m, err := eng.StartMatch(engine.ArenaInfo{
		ID:        arenaID,
		Tier:      desc.Tier,
		MinAgents: desc.MinAgents,
		MaxAgents: desc.MaxAgents,
		PrizePool: pool,
	}, infos)
	if err != nil {
		return err
	}
	s.publishBattle(arenaID, m)

	for m.Status == engine.MatchActive {
		if err := s.ctx.Err(); err != nil {
			return &engine.MatchRuntimeError{MatchID: m.ID, Cause: err}
		}
		if m.CurrentTurn > s.deps.Rules.TurnCap {
			if _, err := eng.ForceEnd(m); err != nil {
				return &engine.MatchRuntimeError{MatchID: m.ID, Cause: err}
			}
			break
		}
		if _, err := eng.ExecuteTurn(s.ctx, m); err != nil {
			return &engine.MatchRuntimeError{MatchID: m.ID, Cause: err}
		}
		s.publishBattle(arenaID, m)
	}
	s.publishBattle(arenaID, m)

	if s.deps.Store != nil {
		if err := s.deps.Store.RecordMatch(context.Background(), m); err != nil {
			s.deps.Log.Error("record match failed", "match", m.ID, "err", err)
		}
		s.updateRatings(m)
	}
	return nil
}

// updateRatings folds a finished battle into the ladder: the winner is
// scored against every other combatant, with remaining HP as the margin.
// Draws leave the ladder untouched.
func (s *Scheduler) updateRatings(m *engine.Match) {
	if m.Winner == "" {
		return
	}
	ctx := context.Background()
	agents := make(map[string]string, len(m.Combatants))
	for _, c := range m.Combatants {
		agents[c.ID] = c.Name
	}
	ratings, err := s.deps.Store.Ratings(ctx, agents)
	if err != nil {
		s.deps.Log.Error("load ratings failed", "match", m.ID, "err", err)
		return
	}
	winner, ok := ratings[m.Winner]
	if !ok {
		return
	}
	var margin float64
	if c := combatantByID(m, m.Winner); c != nil && s.deps.Rules.MaxHP > 0 {
		margin = float64(c.HP) / float64(s.deps.Rules.MaxHP)
	}
	for _, c := range m.Combatants {
		if c.ID == m.Winner {
			continue
		}
		rating.Update(rating.Result{
			Winner:   winner,
			Loser:    ratings[c.ID],
			Margin:   margin,
			PoolSize: m.PrizePool,
		})
	}
	all := make([]*rating.Rating, 0, len(ratings))
	for _, r := range ratings {
		all = append(all, r)
	}
	if err := s.deps.Store.SaveRatings(ctx, all); err != nil {
		s.deps.Log.Error("save ratings failed", "match", m.ID, "err", err)
	}
}

func combatantByID(m *engine.Match, id string) *engine.Combatant {
	for _, c := range m.Combatants {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (s *Scheduler) runRPS(arenaID string, desc Descriptor, roster []Agent, pool int64) error {
	collector, infos := s.buildCollector(roster)
	eng := &engine.RPSEngine{Source: collector, Sink: s.deps.Sink, Log: s.deps.Log}
	m, err := eng.StartRPS(engine.ArenaInfo{
		ID:        arenaID,
		Tier:      desc.Tier,
		MinAgents: desc.MinAgents,
		MaxAgents: desc.MaxAgents,
		PrizePool: pool,
	}, infos, s.deps.RPSBestOf)
	if err != nil {
		return err
	}
	s.publishRPS(arenaID, m)

	for m.Status == engine.MatchActive {
		if err := s.ctx.Err(); err != nil {
			return &engine.MatchRuntimeError{MatchID: m.ID, Cause: err}
		}
		if _, err := eng.PlayRound(s.ctx, m); err != nil {
			return &engine.MatchRuntimeError{MatchID: m.ID, Cause: err}
		}
		s.publishRPS(arenaID, m)
	}

	if s.deps.Store != nil {
		if err := s.deps.Store.RecordRPSMatch(context.Background(), m); err != nil {
			s.deps.Log.Error("record rps match failed", "match", m.ID, "err", err)
		}
	}
	return nil
}

// complete marks the arena done and replenishes a fresh one of the same
// tier so the tier pool stays perpetually available.
func (s *Scheduler) complete(arenaID string, desc Descriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.arenas[arenaID]; ok {
		a.status = StatusCompleted
		a.cancelCountdown()
	}
	s.createLocked(desc)
	s.deps.Log.Info("arena completed", "arena", arenaID, "tier", desc.Tier)
}

func (s *Scheduler) markError(arenaID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.arenas[arenaID]; ok {
		a.status = StatusError
		a.errReason = err.Error()
		a.cancelCountdown()
	}
	s.deps.Log.Error("arena failed", "arena", arenaID, "err", err)
}

// buildCollector assembles per-agent provider chains: configured AI models
// in priority order, then the agent's own strategy, then the hardcoded
// default. Bribery policy falls back to the strategy profile's.
func (s *Scheduler) buildCollector(roster []Agent) (*provider.Collector, []engine.AgentInfo) {
	chains := make(map[string]*provider.Chain, len(roster))
	moveChains := make(map[string]*provider.MoveChain, len(roster))
	infos := make([]engine.AgentInfo, 0, len(roster))

	for _, ag := range roster {
		prof, strat := s.strategyFor(ag)

		info := ag.AgentInfo
		if info.Bribery == "" {
			info.Bribery = prof.Bribery
		}
		infos = append(infos, info)

		var ps []provider.Provider
		var mps []provider.MoveProvider
		if s.deps.LLM != nil {
			for _, model := range s.deps.Models {
				p := &provider.LLMProvider{Model: model, Client: s.deps.LLM, CallTimeout: s.deps.AITimeout}
				ps = append(ps, p)
				mps = append(mps, p)
			}
		}
		if strat != nil {
			ps = append(ps, &provider.ScriptedProvider{Label: ag.ID, Strategy: strat, CallTimeout: s.deps.ScriptTimeout})
		}
		ps = append(ps, provider.DefendProvider{})
		mps = append(mps, &provider.ScriptedMoveProvider{Label: ag.ID, Picker: strategy.NewMovePicker(prof, s.deps.Seed())})

		chains[ag.ID] = &provider.Chain{Agent: ag.ID, Providers: ps, Breaker: s.deps.Breaker, Log: s.deps.Log}
		moveChains[ag.ID] = &provider.MoveChain{Agent: ag.ID, Providers: mps, Breaker: s.deps.Breaker, Log: s.deps.Log}
	}

	return &provider.Collector{
		Chains:     chains,
		MoveChains: moveChains,
		Limiter:    s.deps.Limiter,
		Log:        s.deps.Log,
	}, infos
}

const fallbackStrategy = "survivor"

func (s *Scheduler) strategyFor(ag Agent) (strategy.Profile, strategy.Strategy) {
	if ag.LuaScript != "" {
		if st, err := strategy.NewLua(ag.LuaScript); err == nil {
			prof, _ := strategy.ProfileFor(fallbackStrategy)
			return prof, st
		} else {
			s.deps.Log.Warn("bad lua strategy; using registered fallback", "agent", ag.ID, "err", err)
		}
	}
	name := ag.Strategy
	if _, ok := strategy.ProfileFor(name); !ok {
		if name != "" {
			s.deps.Log.Warn("unknown strategy; using fallback", "agent", ag.ID, "strategy", name)
		}
		name = fallbackStrategy
	}
	prof, _ := strategy.ProfileFor(name)
	st, _ := strategy.New(name, s.deps.Seed())
	return prof, st
}
