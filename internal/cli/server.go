package cli

import (
	"context"
	"net/http"
	"time"

	"aptimaster-sync/internal/app"
	"aptimaster-sync/internal/config"
	"aptimaster-sync/internal/domain"
	"aptimaster-sync/internal/infra/memory"
	pgstate "aptimaster-sync/internal/infra/postgres"
	transport "aptimaster-sync/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
)

// defaultLocalPort is the well-known port the sync client probes.
const defaultLocalPort = "8000"

// NewServeCmd builds the subcommand that runs the local backend.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start"},
		Short:   "Start the local backend (authoritative state when reachable)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := migrateState(ctx, cfg.Postgres.URL); err != nil {
			return err
		}
	}

	var repo app.StateRepository = memory.NewSeededStateRepository(sampleState())
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		repo = pgstate.NewStateRepository(pool)
	}

	service := app.NewBackendService(repo, app.NewRevisionFeed())

	mux := http.NewServeMux()
	transport.NewBackendHandler(service).Register(mux)
	transport.NewWSHandler(service).Register(mux)

	server := &http.Server{
		Addr:         ":" + firstNonEmpty(portFlag, cfg.Server.Port, defaultLocalPort),
		Handler:      transport.WithCORS(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	return serveUntilStopped(ctx, server, "local backend")
}

// sampleState seeds the in-memory backend so a fresh install has something to show.
func sampleState() domain.Snapshot {
	snap := domain.EmptySnapshot()
	snap.Questions = append(snap.Questions, domain.Question{
		ID:               "q-sample-1",
		Text:             "If 5 workers can build a wall in 12 days, how many workers are needed to build it in 4 days?",
		Category:         "Quantitative",
		Options:          []string{"10", "15", "20", "25"},
		CorrectAnswer:    1,
		Difficulty:       domain.DifficultyEasy,
		Explanation:      "Inverse proportion: 5 * 12 = X * 4, so X = 60 / 4 = 15.",
		TimeLimitMinutes: 2,
	})
	return snap
}
