package recordstore

import (
	"context"
	"fmt"
	"time"

	"github.com/ticketforge/ticketforge/internal/database"
	"github.com/ticketforge/ticketforge/internal/entity"
)

type eventRepository struct {
	client *Client
}

func NewEventRepository(client *Client) database.EventRepository {
	return &eventRepository{client: client}
}

func (r *eventRepository) Create(ctx context.Context, event *entity.Event, types []*entity.TicketType) error {
	fields := map[string]interface{}{
		"name":         event.Name,
		"description":  event.Description,
		"date":         event.Date,
		"time":         event.Time,
		"location":     event.Location,
		"organizer_id": event.OrganizerID,
		"image_url":    event.ImageURL,
		"art_style":    event.ArtStyle,
		"status":       entity.EventStatusActive,
	}

	var created entity.Event
	if err := r.client.createRecord(ctx, collectionEvents, fields, &created); err != nil {
		return fmt.Errorf("failed to create event record: %w", err)
	}
	event.ID = created.ID
	event.Status = entity.EventStatusActive
	event.CreatedAt = created.CreatedAt
	event.UpdatedAt = created.UpdatedAt

	// The hosted API has no multi-record transaction; ticket types are
	// created one by one after the event record exists.
	for _, tt := range types {
		ttFields := map[string]interface{}{
			"event_id":    event.ID,
			"name":        tt.Name,
			"price":       tt.Price,
			"capacity":    tt.Capacity,
			"sold":        0,
			"description": tt.Description,
		}
		var createdType entity.TicketType
		if err := r.client.createRecord(ctx, collectionTicketTypes, ttFields, &createdType); err != nil {
			return fmt.Errorf("failed to create ticket type record: %w", err)
		}
		tt.ID = createdType.ID
		tt.EventID = event.ID
		tt.Sold = 0
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*entity.EventWithInventory, error) {
	var event entity.EventWithInventory
	if err := r.client.getRecord(ctx, collectionEvents, id, &event.Event); err != nil {
		if err == errNotFound {
			return nil, entity.ErrEventNotFound
		}
		return nil, err
	}

	if err := r.attachInventory(ctx, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) GetAll(ctx context.Context) ([]*entity.EventWithInventory, error) {
	return r.list(ctx, "")
}

func (r *eventRepository) GetByOrganizer(ctx context.Context, organizerID string) ([]*entity.EventWithInventory, error) {
	return r.list(ctx, fmt.Sprintf(`organizer_id="%s"`, organizerID))
}

func (r *eventRepository) list(ctx context.Context, filter string) ([]*entity.EventWithInventory, error) {
	var records []entity.Event
	if err := r.client.listRecords(ctx, collectionEvents, filter, "-created_at", &records); err != nil {
		return nil, err
	}

	events := make([]*entity.EventWithInventory, 0, len(records))
	for i := range records {
		event := &entity.EventWithInventory{Event: records[i]}
		if err := r.attachInventory(ctx, event); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

func (r *eventRepository) attachInventory(ctx context.Context, event *entity.EventWithInventory) error {
	var types []*entity.TicketType
	filter := fmt.Sprintf(`event_id="%s"`, event.ID)
	if err := r.client.listRecords(ctx, collectionTicketTypes, filter, "price", &types); err != nil {
		return err
	}
	event.TicketTypes = types
	event.ComputeTotals()
	return nil
}

func (r *eventRepository) UpdateStatus(ctx context.Context, id string, status entity.EventStatus) error {
	fields := map[string]interface{}{"status": status}
	err := r.client.updateRecord(ctx, collectionEvents, id, fields, nil)
	if err == errNotFound {
		return entity.ErrEventNotFound
	}
	return err
}

func (r *eventRepository) Update(ctx context.Context, event *entity.Event) error {
	fields := map[string]interface{}{
		"name":        event.Name,
		"description": event.Description,
		"date":        event.Date,
		"time":        event.Time,
		"location":    event.Location,
		"image_url":   event.ImageURL,
		"art_style":   event.ArtStyle,
		"updated_at":  time.Now(),
	}
	err := r.client.updateRecord(ctx, collectionEvents, event.ID, fields, nil)
	if err == errNotFound {
		return entity.ErrEventNotFound
	}
	return err
}
