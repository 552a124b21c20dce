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

type ticketRepository struct {
	db *sql.DB
}

func NewTicketRepository(db *sql.DB) database.TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *entity.Ticket) error {
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	if ticket.MintedAt.IsZero() {
		ticket.MintedAt = time.Now()
	}

	query := `
		INSERT INTO tickets (id, event_id, ticket_type_id, owner_id, is_used, metadata, minted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		ticket.ID,
		ticket.EventID,
		ticket.TicketTypeID,
		ticket.OwnerID,
		ticket.IsUsed,
		ticket.Metadata,
		ticket.MintedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ticket: %w", err)
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*entity.Ticket, error) {
	query := `
		SELECT id, event_id, ticket_type_id, owner_id, is_used, metadata, minted_at
		FROM tickets
		WHERE id = $1
	`

	var ticket entity.Ticket
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.EventID,
		&ticket.TicketTypeID,
		&ticket.OwnerID,
		&ticket.IsUsed,
		&ticket.Metadata,
		&ticket.MintedAt,
	)
	if err == sql.ErrNoRows {
		return nil, entity.ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) GetByOwner(ctx context.Context, ownerID string) ([]*entity.Ticket, error) {
	query := `
		SELECT id, event_id, ticket_type_id, owner_id, is_used, metadata, minted_at
		FROM tickets
		WHERE owner_id = $1
		ORDER BY minted_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []*entity.Ticket
	for rows.Next() {
		var ticket entity.Ticket
		err := rows.Scan(
			&ticket.ID,
			&ticket.EventID,
			&ticket.TicketTypeID,
			&ticket.OwnerID,
			&ticket.IsUsed,
			&ticket.Metadata,
			&ticket.MintedAt,
		)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, &ticket)
	}
	return tickets, rows.Err()
}

// MarkUsed performs the unused->used transition as a conditional UPDATE so
// two concurrent scans of the same ticket cannot both report "verified".
func (r *ticketRepository) MarkUsed(ctx context.Context, id string) error {
	query := `UPDATE tickets SET is_used = TRUE WHERE id = $1 AND is_used = FALSE`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark ticket used: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM tickets WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check ticket existence: %w", err)
	}
	if !exists {
		return entity.ErrTicketNotFound
	}
	return entity.ErrCannotModify
}
