package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ticketforge/ticketforge/internal/database"
	"github.com/ticketforge/ticketforge/internal/entity"
)

type ticketTypeRepository struct {
	db *sql.DB
}

func NewTicketTypeRepository(db *sql.DB) database.TicketTypeRepository {
	return &ticketTypeRepository{db: db}
}

func (r *ticketTypeRepository) GetByID(ctx context.Context, id string) (*entity.TicketType, error) {
	query := `
		SELECT id, event_id, name, price, capacity, sold, description
		FROM ticket_types
		WHERE id = $1
	`

	var tt entity.TicketType
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&tt.ID,
		&tt.EventID,
		&tt.Name,
		&tt.Price,
		&tt.Capacity,
		&tt.Sold,
		&tt.Description,
	)
	if err == sql.ErrNoRows {
		return nil, entity.ErrTicketTypeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tt, nil
}

func (r *ticketTypeRepository) GetByEventID(ctx context.Context, eventID string) ([]*entity.TicketType, error) {
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

// ReserveSeat performs the capacity check and the counter increment as a
// single conditional UPDATE, returning the counter the increment produced.
// No row returned means either an unknown ticket type or a sold-out one; a
// follow-up existence check picks the right error.
func (r *ticketTypeRepository) ReserveSeat(ctx context.Context, id string) (int, error) {
	query := `UPDATE ticket_types SET sold = sold + 1 WHERE id = $1 AND sold < capacity RETURNING sold`
	var sold int
	err := r.db.QueryRowContext(ctx, query, id).Scan(&sold)
	if err == nil {
		return sold, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to reserve seat: %w", err)
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM ticket_types WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return 0, fmt.Errorf("failed to check ticket type existence: %w", err)
	}
	if !exists {
		return 0, entity.ErrTicketTypeNotFound
	}
	return 0, entity.ErrSoldOut
}

func (r *ticketTypeRepository) ReleaseSeat(ctx context.Context, id string) error {
	query := `UPDATE ticket_types SET sold = sold - 1 WHERE id = $1 AND sold > 0`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to release seat: %w", err)
	}
	return nil
}

// RecountSold repairs counters that drifted from the actual ticket rows,
// e.g. after a crash between reservation and ticket creation.
func (r *ticketTypeRepository) RecountSold(ctx context.Context) (int64, error) {
	query := `
		UPDATE ticket_types tt
		SET sold = counted.n
		FROM (
			SELECT tt2.id, COUNT(t.id) AS n
			FROM ticket_types tt2
			LEFT JOIN tickets t ON t.ticket_type_id = tt2.id
			GROUP BY tt2.id
		) counted
		WHERE tt.id = counted.id AND tt.sold <> counted.n
	`
	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to recount sold counters: %w", err)
	}
	return result.RowsAffected()
}
