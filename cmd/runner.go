package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/scanlink/internal/events"
	"github.com/desertthunder/scanlink/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	configPath  string
	resolved    *shared.Resolved
	bus         *events.Bus
	logger      *log.Logger
	output      io.Writer
	openBrowser func(string) error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	ConfigPath  string
	Resolved    *shared.Resolved
	Bus         *events.Bus
	Logger      *log.Logger
	Output      io.Writer
	OpenBrowser func(string) error
}

// NewRunner creates a new Runner with the provided configuration.
//
// Resolved must come from Config; when it is nil the config is resolved here.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Bus == nil {
		opts.Bus = events.NewBus()
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}
	if opts.Resolved == nil {
		resolved, err := opts.Config.Resolve()
		if err != nil {
			opts.Logger.Warn("failed to resolve configuration", "error", err)
			resolved = &shared.Resolved{Port: opts.Config.Server.Port}
		}
		opts.Resolved = resolved
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		resolved:    opts.Resolved,
		bus:         opts.Bus,
		logger:      opts.Logger,
		output:      opts.Output,
		openBrowser: opts.OpenBrowser,
	}
}

// SetLogger replaces the runner's logger, e.g. when the terminal is handed to the TUI.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, oauthCommand, configCommand, setupCommand, eventsCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// openJournal opens the delivery journal database and applies pending migrations.
func (r *Runner) openJournal() (*sql.DB, error) {
	path := r.resolved.DatabasePath
	if path == "" {
		return nil, fmt.Errorf("%w: database path is not resolved", shared.ErrMissingConfig)
	}

	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
