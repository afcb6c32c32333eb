package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/scanlink/internal/callback"
	"github.com/desertthunder/scanlink/internal/events"
	"github.com/desertthunder/scanlink/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// LoginResult is what the host needs to exchange a captured code for tokens.
type LoginResult struct {
	Code         string `json:"code"`
	CodeVerifier string `json:"code_verifier"`
	RedirectURI  string `json:"redirect_uri"`
	State        string `json:"state"`
}

// listenerConfig builds the one-shot listener settings from flags, falling back to [oauth] config.
func (r *Runner) listenerConfig(port, timeoutSeconds int) (callback.ListenerConfig, error) {
	if port == 0 {
		port = r.config.OAuth.RedirectPort
	}
	if port < 0 || port > 65535 {
		return callback.ListenerConfig{}, fmt.Errorf("%w: port %d", shared.ErrInvalidArgument, port)
	}
	if timeoutSeconds < 0 {
		return callback.ListenerConfig{}, fmt.Errorf("%w: timeout %d", shared.ErrInvalidArgument, timeoutSeconds)
	}

	timeout := r.config.OAuth.Timeout()
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}

	return callback.ListenerConfig{Port: uint16(port), Timeout: timeout}, nil
}

// forward puts a captured code on the bus. Subscriber failures are logged, not returned.
func (r *Runner) forward(code string) {
	if err := r.bus.Emit(events.OAuthCodeReceived, code); err != nil {
		r.logger.Warn("failed to forward oauth code", "event", events.OAuthCodeReceived, "error", err)
	}
}

// OAuthListen waits for a single redirect on the loopback port and prints the captured code.
func (r *Runner) OAuthListen(ctx context.Context, cmd *cli.Command) error {
	cfg, err := r.listenerConfig(cmd.Int("port"), cmd.Int("timeout"))
	if err != nil {
		return err
	}

	r.logger.Info("waiting for oauth redirect", "port", cfg.Port, "timeout", cfg.Timeout)

	code, err := callback.Capture(ctx, cfg)
	if err != nil {
		return fmt.Errorf("oauth capture failed: %w", err)
	}

	r.forward(code)

	if cmd.Bool("json") {
		return r.writeJSON(map[string]string{"code": code}, false)
	}
	return r.writePlain("%s\n", code)
}

// OAuthLogin opens the provider's consent page with a PKCE challenge and captures the redirect.
//
// The code is not exchanged; the verifier is printed alongside it for whoever performs the exchange.
func (r *Runner) OAuthLogin(ctx context.Context, cmd *cli.Command) error {
	cfg, err := r.listenerConfig(cmd.Int("port"), cmd.Int("timeout"))
	if err != nil {
		return err
	}

	result, err := r.login(ctx, cfg, !cmd.Bool("no-browser"))
	if err != nil {
		return err
	}

	return r.writeJSON(result, true)
}

func (r *Runner) login(ctx context.Context, cfg callback.ListenerConfig, browser bool) (*LoginResult, error) {
	oauthCfg := r.config.OAuth
	if oauthCfg.ClientID == "" || oauthCfg.AuthURL == "" {
		return nil, fmt.Errorf("%w: [oauth] client_id and auth_url are required", shared.ErrMissingConfig)
	}

	listener, err := callback.Listen(cfg)
	if err != nil {
		return nil, err
	}
	defer listener.Close()

	redirectURI := fmt.Sprintf("http://127.0.0.1:%d", listener.Port())
	conf := &oauth2.Config{
		ClientID:    oauthCfg.ClientID,
		RedirectURL: redirectURI,
		Scopes:      oauthCfg.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  oauthCfg.AuthURL,
			TokenURL: oauthCfg.TokenURL,
		},
	}

	state := shared.GenerateID()
	verifier := oauth2.GenerateVerifier()
	authURL := conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))

	opened := false
	if browser {
		r.writePlain("→ Opening browser for sign-in...\n")
		if err := r.openBrowser(authURL); err != nil {
			r.logger.Warnf("failed to open browser automatically %v", err)
		} else {
			opened = true
		}
	}
	if !opened {
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%v timeout)...\n", cfg.Timeout)

	code, err := listener.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("authorization failed: %w", err)
	}

	r.forward(code)
	r.logger.Info("authorization code captured")

	return &LoginResult{Code: code, CodeVerifier: verifier, RedirectURI: redirectURI, State: state}, nil
}
