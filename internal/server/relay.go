package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/scanlink/internal/events"
	"github.com/desertthunder/scanlink/internal/pages"
	"github.com/desertthunder/scanlink/internal/shared"
	"golang.org/x/time/rate"
)

// FileField is the multipart field the upload route reads.
const FileField = "file"

// DefaultMIME is used when an upload part declares no content type.
const DefaultMIME = "image/jpeg"

// RelayOpts configures a [Relay].
type RelayOpts struct {
	Emitter     events.Emitter
	Logger      *log.Logger
	MaxBytes    int64   // upload body limit, 0 for none
	DefaultMIME string  // fallback content type, defaults to [DefaultMIME]
	RateLimit   float64 // uploads per second, 0 disables limiting
	Burst       int
}

// Relay serves the scan page and turns uploads and OAuth redirects into bus events.
//
// It holds no per-request state; the emitter is the only thing shared between handlers.
type Relay struct {
	emitter     events.Emitter
	logger      *log.Logger
	maxBytes    int64
	defaultMIME string
	limiter     *rate.Limiter
}

// NewRelay creates a [Relay]. A nil logger falls back to [shared.NewLogger].
func NewRelay(opts RelayOpts) *Relay {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.DefaultMIME == "" {
		opts.DefaultMIME = DefaultMIME
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &Relay{
		emitter:     opts.Emitter,
		logger:      opts.Logger,
		maxBytes:    opts.MaxBytes,
		defaultMIME: opts.DefaultMIME,
		limiter:     limiter,
	}
}

// Router builds the relay's routes:
//
//	GET  /scan            upload page
//	POST /upload          multipart upload, emits scan-received
//	GET  /oauth/callback  OAuth redirect, emits oauth-code-received
func (rl *Relay) Router() *BasicRouter {
	router := NewBasicRouter()
	router.Use(Recoverer(rl.logger), RequestLogger(rl.logger))

	router.Handle(http.MethodGet, "/scan", http.HandlerFunc(rl.ScanPage))
	router.Handle(http.MethodPost, "/upload", RateLimit(rl.limiter)(http.HandlerFunc(rl.Upload)))
	router.Handler(NewOAuthCallbackHandler(rl.emitter, rl.logger))

	return router
}

// ScanPage serves the static upload page.
func (rl *Relay) ScanPage(w http.ResponseWriter, r *http.Request) {
	if err := pages.WriteHTML(w, pages.Scan()); err != nil {
		rl.logger.Warn("failed to write scan page", "error", err)
	}
}

// Upload reads the "file" part of a multipart body and emits it as [events.ScanReceived].
//
// Missing fields and unreadable bodies are answered with 400, oversized bodies with 413.
func (rl *Relay) Upload(w http.ResponseWriter, r *http.Request) {
	if rl.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, rl.maxBytes)
	}

	mime, data, err := readFilePart(r, rl.defaultMIME)
	if err != nil {
		status, msg := http.StatusBadRequest, "Invalid upload"
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			status, msg = http.StatusRequestEntityTooLarge, "File too large"
		case errors.Is(err, shared.ErrMissingField):
			msg = "No file found"
		}

		rl.logger.Warn("upload rejected", "error", err, "status", status)
		http.Error(w, msg, status)
		return
	}

	if err := rl.emitter.Emit(events.ScanReceived, events.NewScanPayload(mime, data)); err != nil {
		rl.logger.Error("failed to emit scan", "event", events.ScanReceived, "error", err)
	}

	rl.logger.Debug("scan relayed", "mime", mime, "bytes", len(data))

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "Uploaded")
}

// readFilePart streams the multipart body and returns the first [FileField] part.
func readFilePart(r *http.Request, defaultMIME string) (string, []byte, error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", shared.ErrReadFailed, err)
	}

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			return "", nil, fmt.Errorf("%w: %q", shared.ErrMissingField, FileField)
		}
		if err != nil {
			return "", nil, fmt.Errorf("%w: %w", shared.ErrReadFailed, err)
		}

		if part.FormName() != FileField {
			part.Close()
			continue
		}

		data, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			return "", nil, fmt.Errorf("%w: %w", shared.ErrReadFailed, err)
		}

		mime := part.Header.Get("Content-Type")
		if mime == "" {
			mime = defaultMIME
		}
		return mime, data, nil
	}
}
