package main

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/scanlink/internal/events"
	"github.com/desertthunder/scanlink/internal/shared"
)

// redirect retries a GET against the loopback listener until it answers.
func redirect(t *testing.T, target string) {
	t.Helper()
	go func() {
		for i := 0; i < 50; i++ {
			resp, err := http.Get(target)
			if err == nil {
				resp.Body.Close()
				return
			}
			time.Sleep(20 * time.Millisecond)
		}
	}()
}

func TestListenerConfig(t *testing.T) {
	runner, _ := newTestRunner(t)

	t.Run("falls back to oauth config", func(t *testing.T) {
		cfg, err := runner.listenerConfig(0, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if int(cfg.Port) != runner.config.OAuth.RedirectPort {
			t.Errorf("expected port %d, got %d", runner.config.OAuth.RedirectPort, cfg.Port)
		}
		if cfg.Timeout != 300*time.Second {
			t.Errorf("expected 300s, got %v", cfg.Timeout)
		}
	})

	t.Run("flags override", func(t *testing.T) {
		cfg, err := runner.listenerConfig(9000, 5)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Port != 9000 || cfg.Timeout != 5*time.Second {
			t.Errorf("unexpected config %+v", cfg)
		}
	})

	t.Run("rejects out of range values", func(t *testing.T) {
		for _, tc := range [][2]int{{70000, 0}, {-1, 0}, {9000, -5}} {
			if _, err := runner.listenerConfig(tc[0], tc[1]); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("%v: expected ErrInvalidArgument, got %v", tc, err)
			}
		}
	})
}

func TestOAuthListen(t *testing.T) {
	t.Run("prints and forwards the code", func(t *testing.T) {
		runner, output := newTestRunner(t)
		port := freePort(t)

		var forwarded []string
		runner.bus.Subscribe(events.OAuthCodeReceived, func(e events.Event) error {
			code, _ := e.Code()
			forwarded = append(forwarded, code)
			return nil
		})

		redirect(t, "http://127.0.0.1:"+strconv.Itoa(port)+"/?code=4/0Abc&scope=email")

		if err := run(t, runner, "oauth", "listen", "--port", strconv.Itoa(port), "--timeout", "5", "--json"); err != nil {
			t.Fatalf("oauth listen failed: %v", err)
		}

		if strings.TrimSpace(output.String()) != `{"code":"4/0Abc"}` {
			t.Errorf("unexpected output %q", output.String())
		}
		if len(forwarded) != 1 || forwarded[0] != "4/0Abc" {
			t.Errorf("expected code to be forwarded once, got %v", forwarded)
		}
	})

	t.Run("times out", func(t *testing.T) {
		runner, _ := newTestRunner(t)

		err := run(t, runner, "oauth", "listen", "--port", strconv.Itoa(freePort(t)), "--timeout", "1")
		if !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})
}

func TestOAuthLogin(t *testing.T) {
	t.Run("builds a PKCE authorization URL and captures the code", func(t *testing.T) {
		runner, _ := newTestRunner(t)
		runner.config.OAuth.ClientID = "client-123"

		var authURL *url.URL
		runner.openBrowser = func(raw string) error {
			u, err := url.Parse(raw)
			if err != nil {
				return err
			}
			authURL = u
			q := u.Query()
			redirect(t, q.Get("redirect_uri")+"/?state="+q.Get("state")+"&code=granted")
			return nil
		}

		cfg, _ := runner.listenerConfig(freePort(t), 5)
		result, err := runner.login(context.Background(), cfg, true)
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}

		if result.Code != "granted" {
			t.Errorf("expected code granted, got %q", result.Code)
		}
		if result.CodeVerifier == "" || result.State == "" {
			t.Error("expected verifier and state in result")
		}

		q := authURL.Query()
		if q.Get("client_id") != "client-123" {
			t.Errorf("unexpected client_id %q", q.Get("client_id"))
		}
		if q.Get("code_challenge_method") != "S256" || q.Get("code_challenge") == "" {
			t.Error("expected an S256 code challenge")
		}
		if q.Get("state") != result.State {
			t.Error("state in URL should match result")
		}
		if q.Get("redirect_uri") != result.RedirectURI {
			t.Errorf("redirect_uri mismatch: %q vs %q", q.Get("redirect_uri"), result.RedirectURI)
		}
	})

	t.Run("requires client configuration", func(t *testing.T) {
		runner, _ := newTestRunner(t)
		runner.config.OAuth.ClientID = ""

		cfg, _ := runner.listenerConfig(freePort(t), 1)
		if _, err := runner.login(context.Background(), cfg, false); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("prints the URL when the browser cannot open", func(t *testing.T) {
		runner, output := newTestRunner(t)
		runner.config.OAuth.ClientID = "client-123"

		cfg, _ := runner.listenerConfig(freePort(t), 1)
		_, err := runner.login(context.Background(), cfg, true)
		if !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
		if !strings.Contains(output.String(), "Please open this URL in your browser") {
			t.Errorf("expected manual URL prompt, got %q", output.String())
		}
	})
}
