package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"trivia-service/internal/config"
	"trivia-service/internal/game"
	"trivia-service/internal/infra/broadcast"
	"trivia-service/internal/infra/memory"
	pgstore "trivia-service/internal/infra/postgres"
	rediscache "trivia-service/internal/infra/redis"
	transport "trivia-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
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

	runCtx, stopRun := context.WithCancel(ctx)
	defer stopRun()

	var quizStore game.QuizStore
	var snapStore game.SnapshotStore
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		quizStore = pgstore.NewQuizStore(pool)
		snapStore = pgstore.NewSnapshotStore(pool)
	} else {
		quizStore = memory.NewQuizStore()
		snapStore = memory.NewSnapshotStore()
	}

	hub := broadcast.NewHub()
	var notifier game.Notifier = hub

	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		quizStore = rediscache.NewCachingQuizStore(redisClient, quizStore,
			config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))

		redisNotifier := rediscache.NewNotifier(redisClient, hub, log)
		notifier = redisNotifier
		go func() {
			if err := redisNotifier.Run(runCtx); err != nil && runCtx.Err() == nil {
				log.Warn().Err(err).Msg("redis notifier stopped")
			}
		}()
	}

	service := game.NewGameService(quizStore, snapStore, notifier, game.Options{
		Timers:            cfg.Game.Resolve(),
		AutoSnapshotLimit: cfg.Game.AutoSnapshotLimit(),
	})

	driver := game.NewDriver(service, nil, cfg.Game.TickInterval())
	go func() {
		if err := driver.Run(runCtx); err != nil && runCtx.Err() == nil {
			log.Warn().Err(err).Msg("timer driver stopped")
		}
	}()

	wsHandler := transport.NewWSHandler(service, hub, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("port", finalPort).Msg("starting trivia service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server")
	}
	stopRun()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
