package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/scanlink/internal/events"
	"github.com/desertthunder/scanlink/internal/pages"
)

// OAuthCallbackHandler relays OAuth redirects that reach the long-lived relay server.
//
// Unlike the one-shot listener in package callback it serves any number of redirects; each
// `code` is emitted as [events.OAuthCodeReceived].
type OAuthCallbackHandler struct {
	emitter events.Emitter
	logger  *log.Logger
}

// NewOAuthCallbackHandler creates a handler that emits onto emitter.
func NewOAuthCallbackHandler(emitter events.Emitter, logger *log.Logger) *OAuthCallbackHandler {
	return &OAuthCallbackHandler{emitter: emitter, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthCallbackHandler) Routes() []string {
	return []string{"/oauth/callback"}
}

// ServeHTTP emits the code and answers with the success page whatever the bus reports.
// A redirect without a code is a 400.
func (h *OAuthCallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	code := query.Get("code")
	if code == "" {
		if reason := query.Get("error"); reason != "" {
			h.logger.Warn("authorization denied by provider", "error", reason, "description", query.Get("error_description"))
		}
		http.Error(w, "Missing code parameter", http.StatusBadRequest)
		return
	}

	if err := h.emitter.Emit(events.OAuthCodeReceived, code); err != nil {
		h.logger.Error("failed to emit oauth code", "event", events.OAuthCodeReceived, "error", err)
	}

	if err := pages.WriteHTML(w, pages.Success()); err != nil {
		h.logger.Warn("failed to write success page", "error", err)
	}
}
