// package testing contains shared testing utilities
package testing

import (
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/desertthunder/scanlink/internal/events"
)

// Emitted is one call recorded by [RecordingEmitter].
type Emitted struct {
	Name    string
	Payload any
}

// RecordingEmitter is a test double for [events.Emitter] that keeps every emission.
// It is safe for concurrent use.
type RecordingEmitter struct {
	mu     sync.Mutex
	events []Emitted
	err    error
}

var _ events.Emitter = (*RecordingEmitter)(nil)

// NewRecordingEmitter returns an emitter that records and then returns err.
func NewRecordingEmitter(err error) *RecordingEmitter {
	return &RecordingEmitter{err: err}
}

func (r *RecordingEmitter) Emit(name string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Emitted{Name: name, Payload: payload})
	return r.err
}

// Events returns a copy of the recorded emissions.
func (r *RecordingEmitter) Events() []Emitted {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Emitted(nil), r.events...)
}

// Named returns the recorded emissions with the given name.
func (r *RecordingEmitter) Named(name string) []Emitted {
	var out []Emitted
	for _, e := range r.Events() {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// FReader always returns an error on Read
type FReader struct{}

func (f *FReader) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FReader) Close() error {
	return nil
}

// LimitedWriter passes the first allowed writes through to w and fails every write after.
type LimitedWriter struct {
	allowed int
	count   int
	w       io.Writer
}

// NewLimitedWriter creates a [LimitedWriter] that has already seen count writes.
func NewLimitedWriter(allowed, count int, w io.Writer) LimitedWriter {
	return LimitedWriter{allowed: allowed, count: count, w: w}
}

func (l *LimitedWriter) Write(p []byte) (int, error) {
	if l.count >= l.allowed {
		return 0, errors.New("write limit reached")
	}
	l.count++
	return l.w.Write(p)
}

func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
