package cli

import (
	"context"
	"log"
	"strings"

	"aptimaster-sync/internal/config"
	pgstate "aptimaster-sync/internal/infra/postgres"
	"github.com/spf13/cobra"
)

// NewMigrateCmd brings the local backend's Postgres state tables up to date.
func NewMigrateCmd(configPath *string) *cobra.Command {
	var pending bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the local backend's Postgres state tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if pending {
				names, err := pgstate.PendingMigrations(cmd.Context(), cfg.Postgres.URL)
				if err != nil {
					return err
				}
				if len(names) == 0 {
					log.Printf("state tables are up to date")
					return nil
				}
				log.Printf("pending: %s", strings.Join(names, ", "))
				return nil
			}
			return migrateState(cmd.Context(), cfg.Postgres.URL)
		},
	}
	cmd.Flags().BoolVar(&pending, "pending", false, "list unapplied migrations without running them")
	return cmd
}

func migrateState(ctx context.Context, dsn string) error {
	group, err := pgstate.Migrate(ctx, dsn)
	if err != nil {
		return err
	}
	if group.IsZero() {
		log.Printf("state tables are up to date")
		return nil
	}
	log.Printf("state tables migrated to %s", group)
	return nil
}
