package config

import (
	"fmt"
	"os"
	"time"

	"sifir-drill-service/internal/game"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig        `yaml:"server"`
	Redis    RedisConfig         `yaml:"redis"`
	Postgres PostgresConfig      `yaml:"postgres"`
	Game     GameConfig          `yaml:"game"`
	Ranking  RankingConfig       `yaml:"ranking"`
	Log      LogConfig           `yaml:"log"`
	Roster   map[string][]string `yaml:"roster"`
}

type ServerConfig struct {
	Port string `yaml:"port" env:"SIFIR_PORT"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"SIFIR_REDIS_ADDR"`
	Password string `yaml:"password" env:"SIFIR_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"SIFIR_REDIS_DB"`
	TTL      string `yaml:"ttl" env:"SIFIR_REDIS_TTL"`
}

type PostgresConfig struct {
	URL string `yaml:"url" env:"SIFIR_POSTGRES_URL"`
}

// GameConfig mirrors game.Config; zero values take the game defaults.
type GameConfig struct {
	SessionSeconds   int    `yaml:"sessionSeconds" env:"SIFIR_GAME_SESSION_SECONDS"`
	QuestionTimeout  string `yaml:"questionTimeout" env:"SIFIR_GAME_QUESTION_TIMEOUT"`
	TickInterval     string `yaml:"tickInterval" env:"SIFIR_GAME_TICK_INTERVAL"`
	Lives            int    `yaml:"lives" env:"SIFIR_GAME_LIVES"`
	SpeedBonusWithin string `yaml:"speedBonusWithin" env:"SIFIR_GAME_SPEED_BONUS_WITHIN"`
}

type RankingConfig struct {
	Timezone       string   `yaml:"timezone" env:"SIFIR_RANKING_TIMEZONE"`
	Weekdays       []string `yaml:"weekdays" env:"SIFIR_RANKING_WEEKDAYS" envSeparator:","`
	Start          string   `yaml:"start" env:"SIFIR_RANKING_START"`
	End            string   `yaml:"end" env:"SIFIR_RANKING_END"`
	LeaderboardTTL string   `yaml:"leaderboardTTL" env:"SIFIR_RANKING_LEADERBOARD_TTL"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"SIFIR_LOG_LEVEL"`
	Pretty bool   `yaml:"pretty" env:"SIFIR_LOG_PRETTY"`
}

// Load reads YAML config from path, then overlays SIFIR_* environment
// variables. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// Engine converts the game section into engine settings.
func (g GameConfig) Engine() game.Config {
	cfg := game.DefaultConfig()
	if g.SessionSeconds > 0 {
		cfg.SessionSeconds = g.SessionSeconds
	}
	if g.Lives > 0 {
		cfg.Lives = g.Lives
	}
	cfg.QuestionTimeout = positiveDuration(g.QuestionTimeout, cfg.QuestionTimeout)
	cfg.TickInterval = positiveDuration(g.TickInterval, cfg.TickInterval)
	cfg.SpeedBonusWithin = positiveDuration(g.SpeedBonusWithin, cfg.SpeedBonusWithin)
	return cfg
}

// positiveDuration is TTLDuration that also falls back on zero or negative values.
func positiveDuration(raw string, fallback time.Duration) time.Duration {
	if d := TTLDuration(raw, fallback); d > 0 {
		return d
	}
	return fallback
}
