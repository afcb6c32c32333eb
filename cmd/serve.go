package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/scanlink/internal/events"
	"github.com/desertthunder/scanlink/internal/repositories"
	"github.com/desertthunder/scanlink/internal/server"
	"github.com/desertthunder/scanlink/internal/shared"
	"github.com/mdp/qrterminal/v3"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

type serveOpts struct {
	port    int
	tui     bool
	qr      bool
	journal bool
}

// Serve runs the relay until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return r.serve(ctx, serveOpts{
		port:    cmd.Int("port"),
		tui:     cmd.Bool("tui"),
		qr:      !cmd.Bool("no-qr"),
		journal: !cmd.Bool("no-journal"),
	})
}

func (r *Runner) serve(ctx context.Context, opts serveOpts) error {
	port := r.config.Server.Port
	scanURL := r.resolved.ScanURL
	if opts.port != 0 {
		if opts.port < 0 || opts.port > 65535 {
			return fmt.Errorf("%w: port %d", shared.ErrInvalidArgument, opts.port)
		}
		port = opts.port
		scanURL = fmt.Sprintf("http://%s:%d/scan", r.resolved.LANAddress, port)
	}

	timeouts, err := r.config.Server.Timeouts()
	if err != nil {
		return err
	}

	if opts.tui {
		closeLog, err := r.useFileLogger()
		if err != nil {
			return err
		}
		defer closeLog()
	}

	if opts.journal {
		db, err := r.openJournal()
		if err != nil {
			r.logger.Warn("delivery journal unavailable", "error", err)
		} else {
			defer db.Close()
			journal := repositories.NewJournalAdapter(repositories.NewDeliveryRepository(db))
			defer r.bus.Subscribe(events.All, journal.Handle)()
		}
	}

	defer r.bus.Subscribe(events.All, r.logEvent)()

	serverCfg := r.config.Server
	serverCfg.Port = port

	relay := server.NewRelay(server.RelayOpts{
		Emitter:     r.bus,
		Logger:      shared.WithLogger(r.logger, "component", "relay"),
		MaxBytes:    r.config.Upload.MaxBytes,
		DefaultMIME: r.config.Upload.DefaultMIME,
		RateLimit:   r.config.Upload.RateLimit,
		Burst:       r.config.Upload.Burst,
	})

	srv := server.NewManagedServer("relay", server.ServerConfig{
		Addr:     serverCfg.Addr(),
		Handler:  relay.Router(),
		Logger:   r.logger,
		Timeouts: timeouts,
	})

	startErr := srv.Start()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if opts.tui {
		return r.runMonitor(ctx, srv, scanURL)
	}

	if startErr != nil {
		return startErr
	}

	r.writePlainHeader("scanlink relay")
	r.writePlain("Scan URL: %s\n", scanURL)
	if opts.qr {
		qrterminal.GenerateHalfBlock(scanURL, qrterminal.L, r.output)
	}
	r.writePlain("Press Ctrl+C to stop\n")

	select {
	case <-ctx.Done():
		r.logger.Info("shutting down")
		return nil
	case <-srv.Done():
		return fmt.Errorf("%w: %w", shared.ErrServiceUnavailable, srv.Err())
	}
}

// logEvent is the default bus listener; it never sees payload bytes or codes.
func (r *Runner) logEvent(e events.Event) error {
	if scan, ok := e.Scan(); ok {
		r.logger.Info("scan received", "id", e.ID, "mime", scan.Mime, "bytes", scan.DecodedSize())
		return nil
	}
	r.logger.Info("event received", "id", e.ID, "event", e.Name)
	return nil
}
