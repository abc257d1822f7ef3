package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"aptimaster-sync/internal/infra/postgres/migrations"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func openMigrator(ctx context.Context, dsn string) (*migrate.Migrator, func() error, error) {
	if dsn == "" {
		return nil, nil, fmt.Errorf("postgres url not configured")
	}
	db := bun.NewDB(sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn))), pgdialect.New())
	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("init migrations: %w", err)
	}
	return migrator, db.Close, nil
}

// Migrate brings the state tables at dsn up to date. The returned group is zero when
// nothing was pending.
func Migrate(ctx context.Context, dsn string) (*migrate.MigrationGroup, error) {
	migrator, closeDB, err := openMigrator(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer closeDB()

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return group, nil
}

// PendingMigrations names the migrations not yet applied at dsn.
func PendingMigrations(ctx context.Context, dsn string) ([]string, error) {
	migrator, closeDB, err := openMigrator(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer closeDB()

	ms, err := migrator.MigrationsWithStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration status: %w", err)
	}
	names := make([]string, 0, len(ms))
	for _, m := range ms.Unapplied() {
		names = append(names, m.Name)
	}
	return names, nil
}
