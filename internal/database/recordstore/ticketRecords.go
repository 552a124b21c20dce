package recordstore

import (
	"context"
	"fmt"

	"github.com/ticketforge/ticketforge/internal/database"
	"github.com/ticketforge/ticketforge/internal/entity"
)

type ticketTypeRepository struct {
	client *Client
}

func NewTicketTypeRepository(client *Client) database.TicketTypeRepository {
	return &ticketTypeRepository{client: client}
}

func (r *ticketTypeRepository) GetByID(ctx context.Context, id string) (*entity.TicketType, error) {
	var tt entity.TicketType
	if err := r.client.getRecord(ctx, collectionTicketTypes, id, &tt); err != nil {
		if err == errNotFound {
			return nil, entity.ErrTicketTypeNotFound
		}
		return nil, err
	}
	return &tt, nil
}

func (r *ticketTypeRepository) GetByEventID(ctx context.Context, eventID string) ([]*entity.TicketType, error) {
	var types []*entity.TicketType
	filter := fmt.Sprintf(`event_id="%s"`, eventID)
	if err := r.client.listRecords(ctx, collectionTicketTypes, filter, "price", &types); err != nil {
		return nil, err
	}
	return types, nil
}

// ReserveSeat increments the sold counter with optimistic concurrency:
// read the current value, write sold+1 guarded by the value read, retry on
// conflict. The guard closes the read-then-write oversell window even
// though the hosted API has no server-side increment.
func (r *ticketTypeRepository) ReserveSeat(ctx context.Context, id string) (int, error) {
	for attempt := 0; attempt < r.client.maxConflicts; attempt++ {
		tt, err := r.GetByID(ctx, id)
		if err != nil {
			return 0, err
		}
		if tt.Sold >= tt.Capacity {
			return 0, entity.ErrSoldOut
		}

		fields := map[string]interface{}{"sold": tt.Sold + 1}
		err = r.client.updateRecordIf(ctx, collectionTicketTypes, id, "sold", tt.Sold, fields, nil)
		if err == nil {
			// The precondition held, so tt.Sold+1 is exactly what the
			// server now stores.
			return tt.Sold + 1, nil
		}
		if err != entity.ErrConcurrentUpdate && err != errNotFound {
			return 0, err
		}
		// errNotFound here means the precondition filtered the record out:
		// someone else moved the counter. Re-read and try again.
	}
	return 0, entity.ErrConcurrentUpdate
}

func (r *ticketTypeRepository) ReleaseSeat(ctx context.Context, id string) error {
	for attempt := 0; attempt < r.client.maxConflicts; attempt++ {
		tt, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if tt.Sold == 0 {
			return nil
		}

		fields := map[string]interface{}{"sold": tt.Sold - 1}
		err = r.client.updateRecordIf(ctx, collectionTicketTypes, id, "sold", tt.Sold, fields, nil)
		if err == nil {
			return nil
		}
		if err != entity.ErrConcurrentUpdate && err != errNotFound {
			return err
		}
	}
	return entity.ErrConcurrentUpdate
}

func (r *ticketTypeRepository) RecountSold(ctx context.Context) (int64, error) {
	var types []*entity.TicketType
	if err := r.client.listRecords(ctx, collectionTicketTypes, "", "", &types); err != nil {
		return 0, err
	}

	var repaired int64
	for _, tt := range types {
		var tickets []*entity.Ticket
		filter := fmt.Sprintf(`ticket_type_id="%s"`, tt.ID)
		if err := r.client.listRecords(ctx, collectionTickets, filter, "", &tickets); err != nil {
			return repaired, err
		}
		if len(tickets) == tt.Sold {
			continue
		}
		fields := map[string]interface{}{"sold": len(tickets)}
		if err := r.client.updateRecordIf(ctx, collectionTicketTypes, tt.ID, "sold", tt.Sold, fields, nil); err != nil {
			// A conflict means issuance is live on this counter; leave it
			// for the next reconciliation pass.
			if err == entity.ErrConcurrentUpdate || err == errNotFound {
				continue
			}
			return repaired, err
		}
		repaired++
	}
	return repaired, nil
}

type ticketRepository struct {
	client *Client
}

func NewTicketRepository(client *Client) database.TicketRepository {
	return &ticketRepository{client: client}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *entity.Ticket) error {
	fields := map[string]interface{}{
		"event_id":       ticket.EventID,
		"ticket_type_id": ticket.TicketTypeID,
		"owner_id":       ticket.OwnerID,
		"is_used":        false,
		"metadata":       ticket.Metadata,
		"minted_at":      ticket.MintedAt,
	}

	var created entity.Ticket
	if err := r.client.createRecord(ctx, collectionTickets, fields, &created); err != nil {
		return fmt.Errorf("failed to create ticket record: %w", err)
	}
	ticket.ID = created.ID
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*entity.Ticket, error) {
	var ticket entity.Ticket
	if err := r.client.getRecord(ctx, collectionTickets, id, &ticket); err != nil {
		if err == errNotFound {
			return nil, entity.ErrTicketNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) GetByOwner(ctx context.Context, ownerID string) ([]*entity.Ticket, error) {
	var tickets []*entity.Ticket
	filter := fmt.Sprintf(`owner_id="%s"`, ownerID)
	if err := r.client.listRecords(ctx, collectionTickets, filter, "-minted_at", &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

func (r *ticketRepository) MarkUsed(ctx context.Context, id string) error {
	fields := map[string]interface{}{"is_used": true}
	err := r.client.updateRecordIf(ctx, collectionTickets, id, "is_used", false, fields, nil)
	if err == nil {
		return nil
	}
	if err == entity.ErrConcurrentUpdate || err == errNotFound {
		// Either the ticket does not exist or the precondition failed
		// because it is already used; distinguish with a read.
		ticket, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return getErr
		}
		if ticket.IsUsed {
			return entity.ErrCannotModify
		}
		return entity.ErrConcurrentUpdate
	}
	return err
}
