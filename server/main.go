package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"ai-colosseum/server/arena"
	"ai-colosseum/server/config"
	"ai-colosseum/server/engine"
	"ai-colosseum/server/llm"
	"ai-colosseum/server/provider"
	"ai-colosseum/server/store"
	"ai-colosseum/server/strategy"
)

// Tries: env var file, ./secrets/openai_api_key.txt, ./server/openai_api_key.txt,
// ./openai_api_key.txt, and /run/secrets/openai_api_key.
func loadAPIKeyFromSecret() {
	if os.Getenv("OPENAI_API_KEY") != "" {
		return
	}
	var candidates []string
	if p := os.Getenv("OPENAI_API_KEY_FILE"); strings.TrimSpace(p) != "" {
		candidates = append(candidates, p)
	}
	candidates = append(candidates,
		"./secrets/openai_api_key.txt",
		"server/openai_api_key.txt",
		"./server/openai_api_key.txt",
		"./openai_api_key.txt",
		"/run/secrets/openai_api_key",
	)
	for _, p := range candidates {
		b, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		key := strings.TrimSpace(string(b))
		if key != "" {
			_ = os.Setenv("OPENAI_API_KEY", key)
			return
		}
	}
}

func main() {
	_ = godotenv.Load()
	loadAPIKeyFromSecret()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	var migrate, demo bool
	for _, a := range os.Args[1:] {
		switch a {
		case "--migrate":
			migrate = true
		case "--demo":
			demo = true
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error("config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if demo {
		if err := runDemo(ctx, cfg, log); err != nil {
			log.Error("demo", "err", err)
			os.Exit(1)
		}
		return
	}

	var db *store.DB
	if dsn := cfg.DatabaseURL; dsn != "" {
		db, err = store.Open(dsn)
		if err != nil {
			if migrate {
				log.Error("db open", "err", err)
				os.Exit(1)
			}
			log.Warn("DB disabled (open failed)", "err", err)
			db = nil
		} else {
			defer db.Close(ctx)
		}
	} else if migrate {
		log.Error("DATABASE_URL required for --migrate")
		os.Exit(1)
	}
	if db != nil && (migrate || cfg.AutoMigrate) {
		if err := store.Migrate(ctx, db); err != nil {
			log.Error("migrate", "err", err)
			os.Exit(1)
		}
		log.Info("migrated")
		if migrate {
			return
		}
	}

	var client *llm.Client
	if len(cfg.Models) > 0 {
		client = llm.NewClient()
	}

	sched := arena.NewScheduler(arena.Deps{
		Rules:         cfg.Rules(),
		Models:        cfg.Models,
		LLM:           client,
		Breaker:       provider.NewCircuitBreaker(cfg.ProviderCooldown, time.Now),
		Limiter:       rate.NewLimiter(rate.Every(cfg.DecisionInterval), 1),
		Sink:          engine.LogSink{Log: log},
		Store:         db,
		Log:           log,
		Countdown:     cfg.Countdown,
		AITimeout:     cfg.AITimeout,
		ScriptTimeout: cfg.ScriptTimeout,
		RPSBestOf:     cfg.RPSBestOf,
	})
	defer sched.Shutdown()

	for _, d := range defaultArenas() {
		if _, err := sched.CreateArena(d); err != nil {
			log.Error("create arena", "tier", d.Tier, "err", err)
			os.Exit(1)
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      Router(sched, db),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()

	log.Info("listening", "addr", "http://localhost:"+cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("serve", "err", err)
		os.Exit(1)
	}
}

// defaultArenas seeds the lobby list so agents have somewhere to fight
// the moment the server is up.
func defaultArenas() []arena.Descriptor {
	return []arena.Descriptor{
		{Tier: "bronze", GameType: arena.GameBattle, EntryFee: 10, MinAgents: 2, MaxAgents: 4},
		{Tier: "silver", GameType: arena.GameBattle, EntryFee: 50, MinAgents: 2, MaxAgents: 6},
		{Tier: "gold", GameType: arena.GameBattle, EntryFee: 250, MinAgents: 3, MaxAgents: 8},
		{Tier: "rps", GameType: arena.GameRPS, EntryFee: 10, MinAgents: 2, MaxAgents: 2},
	}
}

// runDemo plays a single all-scripted match locally and prints each turn.
// Useful for eyeballing combat balance without a DB or API keys.
func runDemo(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	names := strategy.Names()
	if len(names) > 4 {
		names = names[:4]
	}

	chains := make(map[string]*provider.Chain, len(names))
	agents := make([]engine.AgentInfo, 0, len(names))
	breaker := provider.NewCircuitBreaker(cfg.ProviderCooldown, time.Now)
	for i, name := range names {
		st, err := strategy.New(name, int64(i)+1)
		if err != nil {
			return err
		}
		prof, _ := strategy.ProfileFor(name)
		id := fmt.Sprintf("demo-%s", name)
		agents = append(agents, engine.AgentInfo{ID: id, Name: name, Bribery: prof.Bribery})
		chains[id] = &provider.Chain{
			Agent: id,
			Providers: []provider.Provider{
				&provider.ScriptedProvider{Label: name, Strategy: st, CallTimeout: cfg.ScriptTimeout},
				provider.DefendProvider{},
			},
			Breaker: breaker,
			Log:     log,
		}
	}

	collector := &provider.Collector{Chains: chains, Log: log}
	eng := engine.New(cfg.Rules(), collector, engine.LogSink{Log: log}, log)
	m, err := eng.StartMatch(engine.ArenaInfo{
		ID:        "demo",
		Tier:      "demo",
		MinAgents: 2,
		MaxAgents: len(agents),
		PrizePool: int64(len(agents)) * 100,
	}, agents)
	if err != nil {
		return err
	}

	for m.Status == engine.MatchActive {
		if err := ctx.Err(); err != nil {
			return err
		}
		if m.CurrentTurn > eng.Rules.TurnCap {
			if _, err := eng.ForceEnd(m); err != nil {
				return err
			}
			break
		}
		if _, err := eng.ExecuteTurn(ctx, m); err != nil {
			return err
		}
	}

	fmt.Printf("match %s finished after %d turns\n", m.ID, len(m.History))
	if m.Draw {
		fmt.Println("result: draw")
	} else {
		fmt.Printf("winner: %s\n", m.Winner)
	}
	for _, p := range m.Plan {
		fmt.Printf("  payout %-24s %d\n", p.AgentID, p.Amount)
	}
	return nil
}
