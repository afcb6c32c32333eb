package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/scanlink/internal/events"
	"github.com/desertthunder/scanlink/internal/models"
	"github.com/desertthunder/scanlink/internal/repositories"
	"github.com/desertthunder/scanlink/internal/shared"
	"github.com/urfave/cli/v3"
)

// deliveryView is the JSON shape of a journaled delivery.
type deliveryView struct {
	Sequence   int       `json:"sequence"`
	ID         string    `json:"id"`
	EventID    string    `json:"event_id"`
	Name       string    `json:"name"`
	Mime       string    `json:"mime,omitempty"`
	Size       int       `json:"size"`
	ReceivedAt time.Time `json:"received_at"`
}

func newDeliveryView(d *models.Delivery) deliveryView {
	return deliveryView{
		Sequence:   d.Sequence(),
		ID:         d.ID(),
		EventID:    d.EventID(),
		Name:       d.Name(),
		Mime:       d.Mime(),
		Size:       d.Size(),
		ReceivedAt: d.ReceivedAt(),
	}
}

// EventsList prints the delivery journal, newest first.
func (r *Runner) EventsList(ctx context.Context, cmd *cli.Command) error {
	name := cmd.String("name")
	if name != "" && name != events.ScanReceived && name != events.OAuthCodeReceived {
		return fmt.Errorf("%w: unknown event name %q", shared.ErrInvalidArgument, name)
	}

	db, err := r.openJournal()
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer db.Close()

	repo := repositories.NewDeliveryRepository(db)
	deliveries, err := repo.List(map[string]any{"name": name, "limit": cmd.Int("limit")})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		views := make([]deliveryView, 0, len(deliveries))
		for _, d := range deliveries {
			views = append(views, newDeliveryView(d))
		}
		return r.writeJSON(views, false)
	}

	total, err := repo.Count()
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("Relayed events (%d of %d)", len(deliveries), total))
	if len(deliveries) == 0 {
		return r.writePlain("No events recorded yet\n")
	}

	for _, d := range deliveries {
		r.writePlain("#%-4d %s  %-20s", d.Sequence(), d.ReceivedAt().Local().Format("2006-01-02 15:04:05"), d.Name())
		if d.Mime() != "" {
			r.writePlain("  %s  %d bytes", d.Mime(), d.Size())
		}
		r.writePlain("\n")
	}
	return nil
}
