package cli

import (
	"context"
	"net/http"
	"time"

	"aptimaster-sync/internal/app"
	"aptimaster-sync/internal/config"
	"aptimaster-sync/internal/infra/memory"
	redisblob "aptimaster-sync/internal/infra/redis"
	transport "aptimaster-sync/internal/transport/http"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

const defaultBlobStorePort = "8090"

// NewBlobStoreCmd runs the shared remote key/value store.
func NewBlobStoreCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "blobstore",
		Short: "Start the shared snapshot store (jsonblob-compatible)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBlobStore(cmd.Context(), *configPath, *port)
		},
	}
}

func runBlobStore(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	var repo app.BlobRepository = memory.NewBlobRepository()
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return err
		}
		repo = redisblob.NewBlobRepository(client, config.Duration(cfg.Redis.TTL, 0))
	}

	mux := http.NewServeMux()
	transport.NewBlobHandler(app.NewBlobService(repo), cfg.BlobStore.Prefix).Register(mux)

	server := &http.Server{
		Addr:         ":" + firstNonEmpty(portFlag, cfg.BlobStore.Port, defaultBlobStorePort),
		Handler:      transport.WithCORS(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	return serveUntilStopped(ctx, server, "blob store")
}
