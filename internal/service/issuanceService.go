package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/ticketforge/ticketforge/internal/database"
	"github.com/ticketforge/ticketforge/internal/entity"
	"github.com/ticketforge/ticketforge/pkg/qr"
)

type issuanceService struct {
	ticketRepo     database.TicketRepository
	ticketTypeRepo database.TicketTypeRepository
	eventRepo      database.EventRepository
	cache          database.CacheRepository
	signer         *qr.PayloadSigner
	queue          TaskPublisher
	pngSize        int
}

func NewIssuanceService(
	ticketRepo database.TicketRepository,
	ticketTypeRepo database.TicketTypeRepository,
	eventRepo database.EventRepository,
	cache database.CacheRepository,
	signer *qr.PayloadSigner,
	queue TaskPublisher,
	pngSize int,
) IssuanceService {
	return &issuanceService{
		ticketRepo:     ticketRepo,
		ticketTypeRepo: ticketTypeRepo,
		eventRepo:      eventRepo,
		cache:          cache,
		signer:         signer,
		queue:          queue,
		pngSize:        pngSize,
	}
}

// MintTicket creates exactly one ticket for the owner, bounded by ticket
// type capacity. The seat is reserved first through an atomic conditional
// update; if ticket creation then fails, the seat is released again, so a
// successful mint always leaves the counter incremented by exactly one.
func (s *issuanceService) MintTicket(ctx context.Context, req *MintTicketRequest) (*entity.Ticket, error) {
	if req.OwnerID == "" {
		return nil, entity.ErrNotAuthorized
	}

	ticketType, err := s.ticketTypeRepo.GetByID(ctx, req.TicketTypeID)
	if err != nil {
		return nil, err
	}
	if ticketType.EventID != req.EventID {
		return nil, fmt.Errorf("%w: ticket type %s belongs to event %s",
			entity.ErrTicketTypeMismatch, ticketType.ID, ticketType.EventID)
	}

	event, err := s.eventRepo.GetByID(ctx, req.EventID)
	if err != nil {
		return nil, err
	}
	if event.Status == entity.EventStatusCancelled {
		return nil, entity.ErrEventCancelled
	}

	soldAfter, err := s.ticketTypeRepo.ReserveSeat(ctx, ticketType.ID)
	if err != nil {
		return nil, err
	}

	ticket := &entity.Ticket{
		EventID:      req.EventID,
		TicketTypeID: req.TicketTypeID,
		OwnerID:      req.OwnerID,
		IsUsed:       false,
		MintedAt:     time.Now(),
		Metadata: entity.Metadata{
			"ticket_name": ticketType.Name,
			"event_name":  event.Name,
		},
	}

	if err := s.ticketRepo.Create(ctx, ticket); err != nil {
		// Hand the seat back so the counter never counts a ticket that
		// does not exist.
		if releaseErr := s.ticketTypeRepo.ReleaseSeat(ctx, ticketType.ID); releaseErr != nil {
			logrus.Errorf("Failed to release seat after mint failure for type %s: %v", ticketType.ID, releaseErr)
		}
		return nil, fmt.Errorf("%w: %v", entity.ErrSystemError, err)
	}

	logrus.WithFields(logrus.Fields{
		"ticket_id":      ticket.ID,
		"event_id":       ticket.EventID,
		"ticket_type_id": ticket.TicketTypeID,
		"owner_id":       ticket.OwnerID,
	}).Info("Ticket minted")

	if s.cache != nil {
		if err := s.cache.InvalidateEvents(ctx); err != nil {
			logrus.Warnf("Failed to invalidate event cache after mint: %v", err)
		}
	}

	if s.queue != nil {
		s.publishMintTasks(ctx, ticket, ticketType, soldAfter)
	}

	return ticket, nil
}

func (s *issuanceService) publishMintTasks(ctx context.Context, ticket *entity.Ticket, ticketType *entity.TicketType, soldAfter int) {
	mintTask := &Task{
		ID:   fmt.Sprintf("ticket_minted_%s_%d", ticket.ID, time.Now().Unix()),
		Type: TaskTypeTicketMinted,
		Data: map[string]interface{}{
			"ticket_id":      ticket.ID,
			"event_id":       ticket.EventID,
			"ticket_type_id": ticket.TicketTypeID,
			"owner_id":       ticket.OwnerID,
			"minted_at":      ticket.MintedAt.Format(time.RFC3339),
		},
		MaxRetries: 3,
	}
	if err := s.queue.Publish(ctx, mintTask); err != nil {
		logrus.Warnf("Failed to publish mint task: %v", err)
	}

	// Decide on the counter ReserveSeat produced, not the pre-reservation
	// read: with concurrent mints the read is stale, and only one caller
	// ever sees the increment land exactly on capacity.
	if soldAfter >= ticketType.Capacity {
		selloutTask := &Task{
			ID:   fmt.Sprintf("sellout_%s_%s", ticketType.ID, uuid.NewString()),
			Type: TaskTypeSelloutAlert,
			Data: map[string]interface{}{
				"event_id":         ticket.EventID,
				"ticket_type_id":   ticketType.ID,
				"ticket_type_name": ticketType.Name,
			},
			MaxRetries: 3,
		}
		if err := s.queue.Publish(ctx, selloutTask); err != nil {
			logrus.Warnf("Failed to publish sellout task: %v", err)
		}
	}
}

func (s *issuanceService) GetUserTickets(ctx context.Context, ownerID string) ([]*entity.Ticket, error) {
	if ownerID == "" {
		return nil, entity.ErrNotAuthorized
	}
	return s.ticketRepo.GetByOwner(ctx, ownerID)
}

func (s *issuanceService) TicketQR(ctx context.Context, ticketID, requesterID string) ([]byte, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.OwnerID != requesterID {
		return nil, entity.ErrNotAuthorized
	}

	payload, err := s.signer.Sign(ticket.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to sign qr payload: %w", err)
	}
	return qr.EncodePNG(payload, s.pngSize)
}
