package repositories

import (
	"fmt"

	"github.com/desertthunder/scanlink/internal/events"
	"github.com/desertthunder/scanlink/internal/models"
)

// JournalAdapter records bus events in the delivery journal.
//
// Only metadata is kept: scan bytes and OAuth codes never reach the database.
type JournalAdapter struct {
	repo *DeliveryRepository
}

// NewJournalAdapter creates a [JournalAdapter] writing to repo.
func NewJournalAdapter(repo *DeliveryRepository) *JournalAdapter {
	return &JournalAdapter{repo: repo}
}

// Handle is an [events.Handler] that journals e.
func (j *JournalAdapter) Handle(e events.Event) error {
	var (
		mime string
		size int
	)
	if scan, ok := e.Scan(); ok {
		mime, size = scan.Mime, scan.DecodedSize()
	}

	if err := j.repo.Create(models.NewDelivery(e.ID, e.Name, mime, size, e.OccurredAt)); err != nil {
		return fmt.Errorf("failed to journal %s: %w", e.Name, err)
	}
	return nil
}
