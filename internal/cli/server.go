package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sifir-drill-service/internal/app"
	"sifir-drill-service/internal/config"
	"sifir-drill-service/internal/game"
	"sifir-drill-service/internal/infra/memory"
	pgstore "sifir-drill-service/internal/infra/postgres"
	redisstore "sifir-drill-service/internal/infra/redis"
	"sifir-drill-service/internal/logging"
	"sifir-drill-service/internal/ranking"
	transport "sifir-drill-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the drill server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// backends holds the stores chosen from config, plus a closer for their clients.
type backends struct {
	sessions app.SessionRepository
	scores   memory.ScoreSource
	close    func()
}

func openBackends(ctx context.Context, cfg config.Config, log zerolog.Logger) (backends, error) {
	b := backends{close: func() {}}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			redisClient.Close()
			return b, fmt.Errorf("ping redis: %w", err)
		}
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		var err error
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			if redisClient != nil {
				redisClient.Close()
			}
			return b, fmt.Errorf("connect postgres: %w", err)
		}
	}

	b.close = func() {
		if redisClient != nil {
			redisClient.Close()
		}
		if pool != nil {
			pool.Close()
		}
	}

	switch {
	case pool != nil:
		b.scores = pgstore.NewScoreStore(pool)
		log.Info().Msg("scores stored in postgres")
	case redisClient != nil:
		b.scores = redisstore.NewScoreStore(redisClient)
		log.Info().Msg("scores stored in redis")
	default:
		b.scores = memory.NewScoreStore()
		log.Warn().Msg("scores kept in memory; they are lost on restart")
	}

	if redisClient != nil {
		b.sessions = redisstore.NewSessionStore(redisClient, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
	} else {
		b.sessions = memory.NewSessionStore()
	}
	return b, nil
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Pretty)

	// Without entropy no question can be generated; refuse to serve.
	if _, err := game.NewSeed(); err != nil {
		log.Error().Err(err).Msg("entropy check failed")
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.close()

	window, err := ranking.ParseWindow(cfg.Ranking.Timezone, cfg.Ranking.Weekdays, cfg.Ranking.Start, cfg.Ranking.End)
	if err != nil {
		return fmt.Errorf("ranking window: %w", err)
	}
	scores := memory.NewLeaderboardCache(b.scores, config.TTLDuration(cfg.Ranking.LeaderboardTTL, 30*time.Second))
	recorder := ranking.NewRecorder(scores, window, log.With().Str("component", "ranking").Logger())

	service := app.NewDrillService(b.sessions, scores, recorder, cfg.Game.Engine(), app.Roster(cfg.Roster), log)
	wsHandler := transport.NewWSHandler(service, log)
	lbHandler := transport.NewLeaderboardHandler(service, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.HandleFunc("/leaderboard", lbHandler.ServeLeaderboard)
	mux.HandleFunc("/leaderboard/top", lbHandler.ServeTopScore)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		// WebSocket writes outlive a single request, so no WriteTimeout.
	}

	go func() {
		log.Info().Str("port", finalPort).Msg("starting drill service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server...")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
