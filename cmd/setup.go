package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/scanlink/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("initializing database", "path", r.resolved.DatabasePath)

	db, err := r.openJournal()
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", r.resolved.DatabasePath)
	return r.writePlain("✓ Database ready at %s\n", r.resolved.DatabaseURL)
}

// SetupRollback reverts the most recently applied migration.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	db, err := shared.NewDatabase(r.resolved.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := shared.RollbackMigration(db); err != nil {
		return err
	}

	r.logger.Info("rolled back latest migration", "path", r.resolved.DatabasePath)
	return r.writePlain("✓ Rolled back latest migration\n")
}
