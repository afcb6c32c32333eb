// Package events defines the names and payloads that cross from the network boundary onto the
// host event bus, the [Emitter] capability handlers depend on, and an in-process [Bus].
package events

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/scanlink/internal/shared"
)

// Event names emitted onto the bus.
const (
	ScanReceived      = "scan-received"
	OAuthCodeReceived = "oauth-code-received"
)

// Emitter publishes a named payload. Implementations must tolerate concurrent callers.
type Emitter interface {
	Emit(name string, payload any) error
}

// ScanPayload carries an uploaded image. Data is standard base64.
type ScanPayload struct {
	Mime string `json:"mime"`
	Data string `json:"data"`
}

// NewScanPayload encodes raw image bytes.
func NewScanPayload(mime string, data []byte) ScanPayload {
	return ScanPayload{Mime: mime, Data: base64.StdEncoding.EncodeToString(data)}
}

// Bytes decodes the payload data.
func (p ScanPayload) Bytes() ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(p.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: scan payload: %v", shared.ErrInvalidInput, err)
	}
	return b, nil
}

// DecodedSize returns the byte length of the decoded data without decoding it.
func (p ScanPayload) DecodedSize() int {
	n := base64.StdEncoding.DecodedLen(len(p.Data))
	return n - strings.Count(p.Data[max(0, len(p.Data)-2):], "=")
}

// Event is one delivery on the [Bus].
type Event struct {
	ID         string
	Name       string
	Payload    any
	OccurredAt time.Time
}

// Code returns the authorization code carried by an [OAuthCodeReceived] event.
func (e Event) Code() (string, bool) {
	code, ok := e.Payload.(string)
	return code, ok && e.Name == OAuthCodeReceived
}

// Scan returns the payload of a [ScanReceived] event.
func (e Event) Scan() (ScanPayload, bool) {
	p, ok := e.Payload.(ScanPayload)
	return p, ok && e.Name == ScanReceived
}
