package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/scanlink/internal/events"
	"github.com/desertthunder/scanlink/internal/server"
	"github.com/desertthunder/scanlink/internal/shared"
	"github.com/desertthunder/scanlink/internal/ui"
)

const monitorBuffer = 16

// useFileLogger redirects logs to a file to avoid interfering with TUI rendering.
// The file logger keeps the current level. The returned func closes the file and restores the previous logger.
func (r *Runner) useFileLogger() (func() error, error) {
	dir := r.resolved.DataDir
	if dir == "" {
		dir = "./tmp"
	}

	fileLogger, f, err := shared.NewFileLogger(filepath.Join(dir, "scanlink-tui.log"))
	if err != nil {
		return nil, fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, r.logger.GetLevel())

	previous := r.logger
	r.SetLogger(fileLogger)
	return func() error {
		r.SetLogger(previous)
		return f.Close()
	}, nil
}

// runMonitor shows relayed events until the user quits or ctx is done.
func (r *Runner) runMonitor(ctx context.Context, srv *server.ManagedServer, scanURL string) error {
	feed, cancel := r.bus.Listen(events.All, monitorBuffer)
	defer cancel()

	p := tea.NewProgram(ui.NewMonitor(feed, scanURL), tea.WithContext(ctx), tea.WithAltScreen())

	go func() {
		select {
		case <-srv.Done():
			if srv.Degraded() {
				p.Send(ui.RelayFailedMsg(srv.Err()))
			}
		case <-ctx.Done():
		}
	}()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
