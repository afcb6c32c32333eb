package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/desertthunder/scanlink/internal/shared"
)

func TestManagedServer(t *testing.T) {
	logger := shared.NewLogger(io.Discard)

	t.Run("start serve and shutdown", func(t *testing.T) {
		srv := NewManagedServer("relay", ServerConfig{
			Addr:    "127.0.0.1:0",
			Logger:  logger,
			Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { io.WriteString(w, "ok") }),
		})

		if err := srv.Start(); err != nil {
			t.Fatalf("failed to start: %v", err)
		}
		if srv.Degraded() {
			t.Fatal("running server should not be degraded")
		}

		resp, err := http.Get("http://" + srv.Addr().String() + "/")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if string(body) != "ok" {
			t.Errorf("unexpected body %q", body)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			t.Fatalf("shutdown failed: %v", err)
		}

		select {
		case <-srv.Done():
		case <-time.After(2 * time.Second):
			t.Fatal("server did not stop")
		}
		if srv.Degraded() || srv.Err() != nil {
			t.Errorf("graceful shutdown should not degrade: %v", srv.Err())
		}
	})

	t.Run("occupied port degrades without panicking", func(t *testing.T) {
		occupied, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to occupy port: %v", err)
		}
		defer occupied.Close()

		srv := NewManagedServer("relay", ServerConfig{Addr: occupied.Addr().String(), Logger: logger})
		err = srv.Start()

		if !errors.Is(err, shared.ErrBindFailed) {
			t.Fatalf("expected ErrBindFailed, got %v", err)
		}
		if !srv.Degraded() {
			t.Error("server should be degraded")
		}
		if !errors.Is(srv.Err(), shared.ErrBindFailed) {
			t.Errorf("Err should report the bind failure, got %v", srv.Err())
		}
		if srv.Addr() != nil {
			t.Error("degraded server should have no address")
		}

		select {
		case <-srv.Done():
		default:
			t.Error("Done should be closed after a failed start")
		}

		if err := srv.Shutdown(context.Background()); err != nil {
			t.Errorf("shutdown of a never-started server should be a no-op, got %v", err)
		}
	})
}
