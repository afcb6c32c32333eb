package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/scanlink/internal/shared"
)

// Delivery records that an event was relayed onto the bus.
//
// Scans carry the declared MIME type and decoded byte size; OAuth codes carry neither.
type Delivery struct {
	id         string
	sequence   int
	eventID    string
	name       string
	mime       string
	size       int
	receivedAt time.Time
}

var _ Model = (*Delivery)(nil)

// NewDelivery creates an unsaved [Delivery]. A zero receivedAt is replaced with the current time.
func NewDelivery(eventID, name, mime string, size int, receivedAt time.Time) *Delivery {
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}
	return &Delivery{
		eventID:    eventID,
		name:       name,
		mime:       mime,
		size:       size,
		receivedAt: receivedAt.UTC(),
	}
}

func (d *Delivery) ID() string            { return d.id }
func (d *Delivery) Sequence() int         { return d.sequence }
func (d *Delivery) EventID() string       { return d.eventID }
func (d *Delivery) Name() string          { return d.name }
func (d *Delivery) Mime() string          { return d.mime }
func (d *Delivery) Size() int             { return d.size }
func (d *Delivery) ReceivedAt() time.Time { return d.receivedAt }

// CreatedAt is the time the event was received.
func (d *Delivery) CreatedAt() time.Time { return d.receivedAt }

// UpdatedAt equals [Delivery.CreatedAt]; deliveries never change once written.
func (d *Delivery) UpdatedAt() time.Time { return d.receivedAt }

func (d *Delivery) SetID(id string)   { d.id = id }
func (d *Delivery) SetSequence(s int) { d.sequence = s }

// Validate checks required fields.
func (d *Delivery) Validate() error {
	switch {
	case d.id == "":
		return fmt.Errorf("%w: id", shared.ErrMissingField)
	case d.eventID == "":
		return fmt.Errorf("%w: event id", shared.ErrMissingField)
	case d.name == "":
		return fmt.Errorf("%w: name", shared.ErrMissingField)
	case d.size < 0:
		return fmt.Errorf("%w: negative size %d", shared.ErrInvalidInput, d.size)
	}
	return nil
}
