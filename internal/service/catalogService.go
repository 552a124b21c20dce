package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ticketforge/ticketforge/internal/database"
	"github.com/ticketforge/ticketforge/internal/entity"
)

type catalogService struct {
	eventRepo database.EventRepository
	cache     database.CacheRepository
	cacheTTL  time.Duration
}

func NewCatalogService(eventRepo database.EventRepository, cache database.CacheRepository, ttl time.Duration) CatalogService {
	return &catalogService{
		eventRepo: eventRepo,
		cache:     cache,
		cacheTTL:  ttl,
	}
}

// GetAllEvents serves the catalog from the cache when fresh, falling back
// to the store and repopulating on a miss.
func (s *catalogService) GetAllEvents(ctx context.Context) ([]*entity.EventWithInventory, error) {
	if s.cache != nil {
		if events, err := s.cache.GetEvents(ctx); err == nil {
			return events, nil
		}
	}

	events, err := s.eventRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetEvents(ctx, events, s.cacheTTL); err != nil {
			logrus.Warnf("Failed to cache event catalog: %v", err)
		}
	}
	return events, nil
}

func (s *catalogService) GetEvent(ctx context.Context, id string) (*entity.EventWithInventory, error) {
	if id == "" {
		return nil, entity.ErrInvalidInput
	}
	return s.eventRepo.GetByID(ctx, id)
}

func (s *catalogService) CreateEvent(ctx context.Context, organizerID string, req *CreateEventRequest) (*entity.EventWithInventory, error) {
	if organizerID == "" {
		return nil, entity.ErrNotAuthorized
	}
	if len(req.TicketTypes) == 0 {
		return nil, fmt.Errorf("%w: at least one ticket type is required", entity.ErrInvalidInput)
	}
	for _, tt := range req.TicketTypes {
		if tt.Capacity < 0 || tt.Price < 0 {
			return nil, fmt.Errorf("%w: capacity and price must be non-negative", entity.ErrInvalidInput)
		}
	}

	event := &entity.Event{
		Name:        req.Name,
		Description: req.Description,
		Date:        req.Date,
		Time:        req.Time,
		Location:    req.Location,
		OrganizerID: organizerID,
		ImageURL:    req.ImageURL,
		ArtStyle:    req.ArtStyle,
		Status:      entity.EventStatusActive,
	}

	types := make([]*entity.TicketType, 0, len(req.TicketTypes))
	for _, tt := range req.TicketTypes {
		types = append(types, &entity.TicketType{
			Name:        tt.Name,
			Price:       tt.Price,
			Capacity:    tt.Capacity,
			Description: tt.Description,
		})
	}

	if err := s.eventRepo.Create(ctx, event, types); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"event_id":     event.ID,
		"organizer_id": organizerID,
		"ticket_types": len(types),
	}).Info("Event created")

	if s.cache != nil {
		if err := s.cache.InvalidateEvents(ctx); err != nil {
			logrus.Warnf("Failed to invalidate event cache: %v", err)
		}
	}

	result := &entity.EventWithInventory{
		Event:       *event,
		TicketTypes: types,
	}
	result.ComputeTotals()
	return result, nil
}

func (s *catalogService) CancelEvent(ctx context.Context, organizerID, eventID string) error {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event.OrganizerID != organizerID {
		return entity.ErrNotAuthorized
	}
	if event.Status == entity.EventStatusCancelled {
		return entity.ErrCannotModify
	}

	if err := s.eventRepo.UpdateStatus(ctx, eventID, entity.EventStatusCancelled); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"event_id":     eventID,
		"organizer_id": organizerID,
	}).Info("Event cancelled")

	if s.cache != nil {
		if err := s.cache.InvalidateEvents(ctx); err != nil {
			logrus.Warnf("Failed to invalidate event cache: %v", err)
		}
	}
	return nil
}

func (s *catalogService) GetOrganizerEvents(ctx context.Context, organizerID string) ([]*entity.EventWithInventory, error) {
	if organizerID == "" {
		return nil, entity.ErrNotAuthorized
	}
	return s.eventRepo.GetByOrganizer(ctx, organizerID)
}
