package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ticketforge/ticketforge/internal/database"
	"github.com/ticketforge/ticketforge/internal/entity"
)

type eventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) database.EventRepository {
	return &eventRepository{db: db}
}

// Create inserts the event together with its ticket types in one
// transaction, so a partially created inventory is never visible.
func (r *eventRepository) Create(ctx context.Context, event *entity.Event, types []*entity.TicketType) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
	})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Status == "" {
		event.Status = entity.EventStatusActive
	}
	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now

	query := `
		INSERT INTO events (id, name, description, date, time, location, organizer_id, image_url, art_style, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = tx.ExecContext(ctx, query,
		event.ID,
		event.Name,
		event.Description,
		event.Date,
		event.Time,
		event.Location,
		event.OrganizerID,
		event.ImageURL,
		event.ArtStyle,
		event.Status,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %v", err)
	}

	ttQuery := `
		INSERT INTO ticket_types (id, event_id, name, price, capacity, sold, description)
		VALUES ($1, $2, $3, $4, $5, 0, $6)
	`
	for _, tt := range types {
		if tt.ID == "" {
			tt.ID = uuid.NewString()
		}
		tt.EventID = event.ID
		tt.Sold = 0
		if _, err := tx.ExecContext(ctx, ttQuery,
			tt.ID, tt.EventID, tt.Name, tt.Price, tt.Capacity, tt.Description,
		); err != nil {
			return fmt.Errorf("failed to insert ticket type: %v", err)
		}
	}

	return tx.Commit()
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*entity.EventWithInventory, error) {
	query := `
		SELECT id, name, description, date, time, location, organizer_id, image_url, art_style, status, created_at, updated_at
		FROM events
		WHERE id = $1
	`

	var event entity.EventWithInventory
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&event.ID,
		&event.Name,
		&event.Description,
		&event.Date,
		&event.Time,
		&event.Location,
		&event.OrganizerID,
		&event.ImageURL,
		&event.ArtStyle,
		&event.Status,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, entity.ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}

	types, err := r.ticketTypes(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	event.TicketTypes = types
	event.ComputeTotals()
	return &event, nil
}

func (r *eventRepository) GetAll(ctx context.Context) ([]*entity.EventWithInventory, error) {
	return r.list(ctx, `
		SELECT id, name, description, date, time, location, organizer_id, image_url, art_style, status, created_at, updated_at
		FROM events
		ORDER BY created_at DESC
	`)
}

func (r *eventRepository) GetByOrganizer(ctx context.Context, organizerID string) ([]*entity.EventWithInventory, error) {
	return r.list(ctx, `
		SELECT id, name, description, date, time, location, organizer_id, image_url, art_style, status, created_at, updated_at
		FROM events
		WHERE organizer_id = $1
		ORDER BY created_at DESC
	`, organizerID)
}

func (r *eventRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.EventWithInventory, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*entity.EventWithInventory
	for rows.Next() {
		var event entity.EventWithInventory
		err := rows.Scan(
			&event.ID,
			&event.Name,
			&event.Description,
			&event.Date,
			&event.Time,
			&event.Location,
			&event.OrganizerID,
			&event.ImageURL,
			&event.ArtStyle,
			&event.Status,
			&event.CreatedAt,
			&event.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, event := range events {
		types, err := r.ticketTypes(ctx, event.ID)
		if err != nil {
			return nil, err
		}
		event.TicketTypes = types
		event.ComputeTotals()
	}
	return events, nil
}

func (r *eventRepository) ticketTypes(ctx context.Context, eventID string) ([]*entity.TicketType, error) {
	query := `
		SELECT id, event_id, name, price, capacity, sold, description
		FROM ticket_types
		WHERE event_id = $1
		ORDER BY price
	`
	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []*entity.TicketType
	for rows.Next() {
		var tt entity.TicketType
		if err := rows.Scan(&tt.ID, &tt.EventID, &tt.Name, &tt.Price, &tt.Capacity, &tt.Sold, &tt.Description); err != nil {
			return nil, err
		}
		types = append(types, &tt)
	}
	return types, rows.Err()
}

func (r *eventRepository) UpdateStatus(ctx context.Context, id string, status entity.EventStatus) error {
	query := `UPDATE events SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update event status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrEventNotFound
	}
	return nil
}

func (r *eventRepository) Update(ctx context.Context, event *entity.Event) error {
	query := `
		UPDATE events
		SET name = $1, description = $2, date = $3, time = $4, location = $5, image_url = $6, art_style = $7, updated_at = $8
		WHERE id = $9
	`
	result, err := r.db.ExecContext(ctx, query,
		event.Name,
		event.Description,
		event.Date,
		event.Time,
		event.Location,
		event.ImageURL,
		event.ArtStyle,
		time.Now(),
		event.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrEventNotFound
	}
	return nil
}
