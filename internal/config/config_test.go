package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sifir-drill-service/internal/domain"
	"sifir-drill-service/internal/game"
)

const sampleYAML = `
server:
  port: "9090"
redis:
  addr: localhost:6379
  ttl: 5m
game:
  sessionSeconds: 30
  questionTimeout: 8s
ranking:
  timezone: Asia/Kuala_Lumpur
  weekdays: [mon, tue]
roster:
  4A: [Aina, Badrul]
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("unexpected server/redis config %+v %+v", cfg.Server, cfg.Redis)
	}
	if len(cfg.Ranking.Weekdays) != 2 || cfg.Roster["4A"][1] != "Badrul" {
		t.Fatalf("unexpected ranking/roster %+v %+v", cfg.Ranking, cfg.Roster)
	}

	engine := cfg.Game.Engine()
	if engine.SessionSeconds != 30 || engine.QuestionTimeout != 8*time.Second {
		t.Fatalf("unexpected engine config %+v", engine)
	}
	if engine.Lives != 2 || engine.TickInterval != time.Second || engine.SpeedBonusWithin != 5*time.Second {
		t.Fatalf("expected defaults for unset fields, got %+v", engine)
	}
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	t.Setenv("SIFIR_REDIS_ADDR", "redis:6380")
	t.Setenv("SIFIR_GAME_LIVES", "4")
	t.Setenv("SIFIR_RANKING_WEEKDAYS", "sat,sun")

	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Redis.Addr != "redis:6380" {
		t.Fatalf("expected env redis addr, got %q", cfg.Redis.Addr)
	}
	if cfg.Redis.TTL != "5m" {
		t.Fatalf("expected yaml value kept when env unset, got %q", cfg.Redis.TTL)
	}
	if cfg.Game.Engine().Lives != 4 {
		t.Fatalf("expected 4 lives, got %d", cfg.Game.Engine().Lives)
	}
	if strings.Join(cfg.Ranking.Weekdays, ",") != "sat,sun" {
		t.Fatalf("unexpected weekdays %v", cfg.Ranking.Weekdays)
	}
}

func TestLoadEnvError(t *testing.T) {
	t.Setenv("SIFIR_GAME_LIVES", "many")
	_, err := Load("")
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env error, got %v", err)
	}
}

func TestTTLDuration(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %v", got)
	}
	if got := TTLDuration("bogus", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for bad input, got %v", got)
	}
	if got := TTLDuration("90s", time.Minute); got != 90*time.Second {
		t.Fatalf("expected 90s, got %v", got)
	}
}

func TestEngineRejectsNonPositiveDurations(t *testing.T) {
	def := game.DefaultConfig()
	for _, raw := range []string{"0s", "-1s"} {
		engine := GameConfig{TickInterval: raw, QuestionTimeout: raw, SpeedBonusWithin: raw}.Engine()
		if engine.TickInterval != def.TickInterval {
			t.Fatalf("tickInterval %q: expected default %v, got %v", raw, def.TickInterval, engine.TickInterval)
		}
		if engine.QuestionTimeout != def.QuestionTimeout {
			t.Fatalf("questionTimeout %q: expected default %v, got %v", raw, def.QuestionTimeout, engine.QuestionTimeout)
		}
		if engine.SpeedBonusWithin != def.SpeedBonusWithin {
			t.Fatalf("speedBonusWithin %q: expected default %v, got %v", raw, def.SpeedBonusWithin, engine.SpeedBonusWithin)
		}
	}
}

func TestEngineWithZeroTickStillEndsSession(t *testing.T) {
	t.Setenv("SIFIR_GAME_TICK_INTERVAL", "0s")
	t.Setenv("SIFIR_GAME_LIVES", "100")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	start := time.Date(2024, 11, 25, 9, 0, 0, 0, time.UTC)
	sched := game.NewManualScheduler(start)
	ended := 0
	session := game.NewSession(cfg.Game.Engine(), game.NewGeneratorWithSeed(1), sched, sched, game.Hooks{
		OnEnd: func(domain.GameResult) { ended++ },
	})
	session.Start()
	sched.Advance(10 * time.Minute)

	st := session.State()
	if ended != 1 || st.Phase != domain.PhaseGameOver || st.RemainingSeconds != 0 {
		t.Fatalf("expected session to end by time, got ended=%d phase=%s remaining=%d", ended, st.Phase, st.RemainingSeconds)
	}
}
