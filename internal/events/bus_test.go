package events

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/scanlink/internal/shared"
)

func TestBus(t *testing.T) {
	t.Run("Emit delivers to matching subscribers", func(t *testing.T) {
		bus := NewBus()

		var scans, codes, all int
		bus.Subscribe(ScanReceived, func(Event) error { scans++; return nil })
		bus.Subscribe(OAuthCodeReceived, func(Event) error { codes++; return nil })
		bus.Subscribe(All, func(Event) error { all++; return nil })

		if err := bus.Emit(OAuthCodeReceived, "XYZ"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if scans != 0 || codes != 1 || all != 1 {
			t.Errorf("unexpected counts scans=%d codes=%d all=%d", scans, codes, all)
		}
	})

	t.Run("Emit assigns id and timestamp", func(t *testing.T) {
		bus := NewBus()
		fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		bus.now = func() time.Time { return fixed }

		var got Event
		bus.Subscribe(All, func(e Event) error { got = e; return nil })
		bus.Emit(OAuthCodeReceived, "abc")

		if got.ID == "" {
			t.Error("expected an event id")
		}
		if !got.OccurredAt.Equal(fixed) {
			t.Errorf("expected %v, got %v", fixed, got.OccurredAt)
		}
		if code, ok := got.Code(); !ok || code != "abc" {
			t.Errorf("expected code abc, got %q (%v)", code, ok)
		}
	})

	t.Run("Emit rejects empty name", func(t *testing.T) {
		err := NewBus().Emit("", nil)
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("handler errors are joined and delivery continues", func(t *testing.T) {
		bus := NewBus()
		errA := errors.New("a failed")

		delivered := false
		bus.Subscribe(All, func(Event) error { return errA })
		bus.Subscribe(All, func(Event) error { delivered = true; return nil })

		err := bus.Emit(ScanReceived, ScanPayload{})
		if !errors.Is(err, errA) {
			t.Errorf("expected joined handler error, got %v", err)
		}
		if !delivered {
			t.Error("second handler should still receive the event")
		}
	})

	t.Run("unsubscribe stops delivery", func(t *testing.T) {
		bus := NewBus()
		count := 0
		unsubscribe := bus.Subscribe(All, func(Event) error { count++; return nil })

		bus.Emit(OAuthCodeReceived, "1")
		unsubscribe()
		bus.Emit(OAuthCodeReceived, "2")

		if count != 1 {
			t.Errorf("expected 1 delivery, got %d", count)
		}
		if bus.Len() != 0 {
			t.Errorf("expected no subscriptions, got %d", bus.Len())
		}
	})

	t.Run("concurrent emitters lose nothing", func(t *testing.T) {
		bus := NewBus()
		const n = 50

		var mu sync.Mutex
		seen := make(map[string]bool)
		bus.Subscribe(ScanReceived, func(e Event) error {
			p, _ := e.Scan()
			mu.Lock()
			seen[p.Data] = true
			mu.Unlock()
			return nil
		})

		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				bus.Emit(ScanReceived, NewScanPayload("image/png", []byte(fmt.Sprintf("image-%d", i))))
			}(i)
		}
		wg.Wait()

		if len(seen) != n {
			t.Errorf("expected %d distinct events, got %d", n, len(seen))
		}
	})
}

func TestListen(t *testing.T) {
	t.Run("receives events in order", func(t *testing.T) {
		bus := NewBus()
		ch, cancel := bus.Listen(All, 4)
		defer cancel()

		bus.Emit(OAuthCodeReceived, "one")
		bus.Emit(OAuthCodeReceived, "two")

		for _, want := range []string{"one", "two"} {
			e := <-ch
			if code, _ := e.Code(); code != want {
				t.Errorf("expected %s, got %s", want, code)
			}
		}
	})

	t.Run("cancel closes channel and unblocks senders", func(t *testing.T) {
		bus := NewBus()
		ch, cancel := bus.Listen(All, 0)

		emitted := make(chan struct{})
		go func() {
			bus.Emit(OAuthCodeReceived, "blocked")
			close(emitted)
		}()

		time.Sleep(20 * time.Millisecond)
		cancel()
		cancel()

		select {
		case <-emitted:
		case <-time.After(2 * time.Second):
			t.Fatal("emit stayed blocked after cancel")
		}

		for range ch {
		}
	})
}

func TestScanPayload(t *testing.T) {
	data := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff}
	p := NewScanPayload("image/png", data)

	got, err := p.Bytes()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("round trip mismatch: %v", got)
	}

	for i := 0; i < 5; i++ {
		raw := bytes.Repeat([]byte{'x'}, i)
		if size := NewScanPayload("image/jpeg", raw).DecodedSize(); size != i {
			t.Errorf("DecodedSize() = %d, want %d", size, i)
		}
	}

	if _, err := (ScanPayload{Data: "not base64!"}).Bytes(); !errors.Is(err, shared.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}

	if _, ok := (Event{Name: OAuthCodeReceived, Payload: p}).Scan(); ok {
		t.Error("Scan should only match scan-received events")
	}
}
