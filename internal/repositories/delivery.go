package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/scanlink/internal/models"
	"github.com/desertthunder/scanlink/internal/shared"
)

// DeliveryRepository implements models.Repository[*models.Delivery] for the delivery journal.
type DeliveryRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.Delivery] = (*DeliveryRepository)(nil)

// NewDeliveryRepository creates a new DeliveryRepository with the given database connection
func NewDeliveryRepository(db *sql.DB) *DeliveryRepository {
	return &DeliveryRepository{db: db}
}

// Create inserts a new [models.Delivery] with generated ID and sequence
func (r *DeliveryRepository) Create(d *models.Delivery) error {
	d.SetID(shared.GenerateID())
	if err := d.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "deliveries")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	d.SetSequence(sequence)

	query := `
		INSERT INTO deliveries (id, sequence, event_id, name, mime, size, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	if _, err := r.db.Exec(query, d.ID(), sequence, d.EventID(), d.Name(), d.Mime(), d.Size(), d.ReceivedAt()); err != nil {
		return fmt.Errorf("failed to insert delivery: %w", err)
	}
	return nil
}

// Get retrieves a delivery by ID
func (r *DeliveryRepository) Get(id string) (*models.Delivery, error) {
	query := `
		SELECT id, sequence, event_id, name, mime, size, received_at
		FROM deliveries
		WHERE id = ?
	`

	d, err := scanDelivery(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: delivery %s", shared.ErrNotFound, id)
	}
	return d, err
}

// List retrieves deliveries newest first.
//
// Supported criteria: "name" (string) filters by event name, "limit" (int) caps the result.
func (r *DeliveryRepository) List(criteria map[string]any) ([]*models.Delivery, error) {
	query := `
		SELECT id, sequence, event_id, name, mime, size, received_at
		FROM deliveries
		WHERE 1 = 1
	`
	args := []any{}

	if name, ok := criteria["name"].(string); ok && name != "" {
		query += " AND name = ?"
		args = append(args, name)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []*models.Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return deliveries, nil
}

// Count returns the number of journaled deliveries.
func (r *DeliveryRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM deliveries").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count deliveries: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanDelivery scans a [sql.Row] or [sql.Rows] into a [models.Delivery]
func scanDelivery(row scanner) (*models.Delivery, error) {
	var (
		id         string
		sequence   int
		eventID    string
		name       string
		mime       string
		size       int
		receivedAt time.Time
	)

	if err := row.Scan(&id, &sequence, &eventID, &name, &mime, &size, &receivedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan delivery: %w", err)
	}

	d := models.NewDelivery(eventID, name, mime, size, receivedAt)
	d.SetID(id)
	d.SetSequence(sequence)
	return d, nil
}
