package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/desertthunder/scanlink/internal/shared"
	"github.com/urfave/cli/v3"
)

// ConfigShow prints the values derived from configuration and the environment at startup.
func (r *Runner) ConfigShow(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("json") {
		return r.writeJSON(r.resolved, cmd.Bool("pretty"))
	}

	r.writePlainHeader("scanlink configuration")
	r.writePlain("Data directory:  %s\n", r.resolved.DataDir)
	r.writePlain("Database path:   %s\n", r.resolved.DatabasePath)
	r.writePlain("Database URL:    %s\n", r.resolved.DatabaseURL)
	r.writePlain("Sync interval:   %d minutes\n", r.resolved.SyncIntervalMinutes)
	r.writePlain("LAN address:     %s\n", r.resolved.LANAddress)
	r.writePlain("Scan URL:        %s\n", r.resolved.ScanURL)
	return nil
}

// ConfigInit writes the embedded example configuration, or with --effective the loaded one, to disk.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if path == "" {
		return fmt.Errorf("%w: --config", shared.ErrMissingArgument)
	}

	if cmd.Bool("force") {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to replace config file: %w", err)
		}
	}

	if cmd.Bool("effective") {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: config file already exists at %s", shared.ErrInvalidArgument, path)
		}
		if err := shared.SaveConfig(path, r.config); err != nil {
			return err
		}
	} else if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	return r.writePlain("✓ Configuration written to %s\n", path)
}
