// Package config loads all arena tunables from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"ai-colosseum/server/engine"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	AutoMigrate bool   `env:"AUTO_MIGRATE"`

	// Ranked AI models, highest priority first. Empty disables AI
	// providers entirely (scripted strategies still run).
	Models []string `env:"ARENA_MODELS" envSeparator:","`

	StartingHP     int `env:"ARENA_STARTING_HP" envDefault:"100"`
	MaxHP          int `env:"ARENA_MAX_HP" envDefault:"105"`
	AttackDamage   int `env:"ARENA_ATTACK_DAMAGE" envDefault:"20"`
	DefendedDamage int `env:"ARENA_DEFENDED_DAMAGE" envDefault:"10"`
	Recovery       int `env:"ARENA_RECOVERY" envDefault:"5"`
	TurnCap        int `env:"ARENA_TURN_CAP" envDefault:"100"`
	RPSBestOf      int `env:"ARENA_RPS_BEST_OF" envDefault:"5"`

	Countdown        time.Duration `env:"ARENA_COUNTDOWN" envDefault:"30s"`
	AITimeout        time.Duration `env:"ARENA_AI_TIMEOUT" envDefault:"5s"`
	ScriptTimeout    time.Duration `env:"ARENA_SCRIPT_TIMEOUT" envDefault:"30s"`
	ProviderCooldown time.Duration `env:"ARENA_PROVIDER_COOLDOWN" envDefault:"5m"`

	// One decision call allowed per interval, shared process-wide.
	DecisionInterval time.Duration `env:"ARENA_DECISION_INTERVAL" envDefault:"2s"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Rules projects the combat tunables into engine form.
func (c Config) Rules() engine.Rules {
	return engine.Rules{
		StartingHP:     c.StartingHP,
		MaxHP:          c.MaxHP,
		AttackDamage:   c.AttackDamage,
		DefendedDamage: c.DefendedDamage,
		Recovery:       c.Recovery,
		TurnCap:        c.TurnCap,
	}
}
