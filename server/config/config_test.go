package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"PORT", "ARENA_MODELS", "ARENA_STARTING_HP", "ARENA_MAX_HP",
		"ARENA_TURN_CAP", "ARENA_COUNTDOWN", "ARENA_DECISION_INTERVAL",
	} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("port = %q", cfg.Port)
	}
	if cfg.StartingHP != 100 || cfg.MaxHP != 105 || cfg.TurnCap != 100 {
		t.Fatalf("combat defaults: %+v", cfg)
	}
	if cfg.Countdown != 30*time.Second {
		t.Fatalf("countdown = %v", cfg.Countdown)
	}
	if len(cfg.Models) != 0 {
		t.Fatalf("models = %v, want empty", cfg.Models)
	}
}

func TestLoadOverridesAndRules(t *testing.T) {
	t.Setenv("ARENA_MODELS", "gpt-4o,claude-sonnet")
	t.Setenv("ARENA_ATTACK_DAMAGE", "30")
	t.Setenv("ARENA_COUNTDOWN", "5s")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Models) != 2 || cfg.Models[0] != "gpt-4o" {
		t.Fatalf("models = %v", cfg.Models)
	}
	if cfg.Countdown != 5*time.Second {
		t.Fatalf("countdown = %v", cfg.Countdown)
	}
	r := cfg.Rules()
	if r.AttackDamage != 30 || r.DefendedDamage != 10 {
		t.Fatalf("rules = %+v", r)
	}
}
