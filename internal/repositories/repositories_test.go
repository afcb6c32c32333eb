package repositories

import (
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/scanlink/internal/events"
	"github.com/desertthunder/scanlink/internal/models"
	"github.com/desertthunder/scanlink/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "deliveries")
		if err != nil {
			t.Fatalf("failed to get sequence: %v", err)
		}
		if got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}

	if _, err := NextSequence(db, "missing"); err == nil {
		t.Error("expected error for a table without a sequence")
	}
}

func TestDeliveryRepository(t *testing.T) {
	received := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Create", func(t *testing.T) {
		repo := NewDeliveryRepository(setupTestDB(t))
		d := models.NewDelivery("evt-1", events.ScanReceived, "image/png", 2048, received)

		if err := repo.Create(d); err != nil {
			t.Fatalf("failed to create delivery: %v", err)
		}
		if d.ID() == "" {
			t.Error("delivery ID should be set after creation")
		}
		if d.Sequence() != 1 {
			t.Errorf("expected sequence 1, got %d", d.Sequence())
		}
	})

	t.Run("Create ValidationError", func(t *testing.T) {
		repo := NewDeliveryRepository(setupTestDB(t))

		err := repo.Create(models.NewDelivery("", events.ScanReceived, "image/png", 1, received))
		if !errors.Is(err, shared.ErrMissingField) {
			t.Errorf("expected ErrMissingField, got %v", err)
		}

		count, _ := repo.Count()
		if count != 0 {
			t.Errorf("invalid delivery should not be stored, count %d", count)
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewDeliveryRepository(setupTestDB(t))
		d := models.NewDelivery("evt-1", events.ScanReceived, "image/png", 2048, received)
		if err := repo.Create(d); err != nil {
			t.Fatalf("failed to create delivery: %v", err)
		}

		got, err := repo.Get(d.ID())
		if err != nil {
			t.Fatalf("failed to get delivery: %v", err)
		}

		if got.EventID() != "evt-1" || got.Name() != events.ScanReceived {
			t.Errorf("unexpected delivery %+v", got)
		}
		if got.Mime() != "image/png" || got.Size() != 2048 {
			t.Errorf("expected image/png 2048, got %s %d", got.Mime(), got.Size())
		}
		if !got.ReceivedAt().Equal(received) {
			t.Errorf("expected %v, got %v", received, got.ReceivedAt())
		}
	})

	t.Run("Get NotFound", func(t *testing.T) {
		repo := NewDeliveryRepository(setupTestDB(t))

		_, err := repo.Get("nonexistent-id")
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewDeliveryRepository(setupTestDB(t))
		for i, name := range []string{events.ScanReceived, events.OAuthCodeReceived, events.ScanReceived} {
			d := models.NewDelivery("evt", name, "", 0, received.Add(time.Duration(i)*time.Minute))
			if err := repo.Create(d); err != nil {
				t.Fatalf("failed to create delivery: %v", err)
			}
		}

		all, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("expected 3 deliveries, got %d", len(all))
		}
		if all[0].Sequence() != 3 || all[2].Sequence() != 1 {
			t.Errorf("expected newest first, got sequences %d..%d", all[0].Sequence(), all[2].Sequence())
		}

		scans, _ := repo.List(map[string]any{"name": events.ScanReceived})
		if len(scans) != 2 {
			t.Errorf("expected 2 scans, got %d", len(scans))
		}

		limited, _ := repo.List(map[string]any{"limit": 1})
		if len(limited) != 1 || limited[0].Sequence() != 3 {
			t.Errorf("expected only the newest delivery, got %d", len(limited))
		}

		count, err := repo.Count()
		if err != nil || count != 3 {
			t.Errorf("expected count 3, got %d (%v)", count, err)
		}
	})
}

func TestJournalAdapter(t *testing.T) {
	t.Run("journals bus events without payloads", func(t *testing.T) {
		repo := NewDeliveryRepository(setupTestDB(t))
		bus := events.NewBus()
		bus.Subscribe(events.All, NewJournalAdapter(repo).Handle)

		if err := bus.Emit(events.ScanReceived, events.NewScanPayload("image/png", make([]byte, 1001))); err != nil {
			t.Fatalf("emit failed: %v", err)
		}
		if err := bus.Emit(events.OAuthCodeReceived, "secret-code"); err != nil {
			t.Fatalf("emit failed: %v", err)
		}

		list, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(list) != 2 {
			t.Fatalf("expected 2 deliveries, got %d", len(list))
		}

		code, scan := list[0], list[1]
		if scan.Mime() != "image/png" || scan.Size() != 1001 {
			t.Errorf("expected image/png 1001, got %s %d", scan.Mime(), scan.Size())
		}
		if code.Name() != events.OAuthCodeReceived || code.Mime() != "" || code.Size() != 0 {
			t.Errorf("unexpected oauth delivery %s %s %d", code.Name(), code.Mime(), code.Size())
		}

		var stored int
		repo.db.QueryRow("SELECT COUNT(*) FROM deliveries WHERE event_id = ? OR mime = ?", "secret-code", "secret-code").Scan(&stored)
		if stored != 0 {
			t.Error("oauth code should never be stored")
		}
	})

	t.Run("concurrent emits get distinct sequences", func(t *testing.T) {
		repo := NewDeliveryRepository(setupTestDB(t))
		bus := events.NewBus()
		bus.Subscribe(events.ScanReceived, NewJournalAdapter(repo).Handle)

		const n = 20
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := bus.Emit(events.ScanReceived, events.NewScanPayload("image/jpeg", []byte("x"))); err != nil {
					t.Errorf("emit failed: %v", err)
				}
			}()
		}
		wg.Wait()

		list, _ := repo.List(nil)
		if len(list) != n {
			t.Fatalf("expected %d deliveries, got %d", n, len(list))
		}
		seen := make(map[int]bool)
		for _, d := range list {
			if seen[d.Sequence()] {
				t.Errorf("duplicate sequence %d", d.Sequence())
			}
			seen[d.Sequence()] = true
		}
	})

	t.Run("closed database surfaces the error", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewDeliveryRepository(db)
		db.Close()

		event := events.Event{ID: "evt", Name: events.OAuthCodeReceived, Payload: "c", OccurredAt: time.Now()}
		if err := NewJournalAdapter(repo).Handle(event); err == nil {
			t.Error("expected error writing to a closed database")
		}
	})
}
