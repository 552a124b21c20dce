package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ticketforge/ticketforge/internal/database"
	"github.com/ticketforge/ticketforge/internal/entity"
	"github.com/ticketforge/ticketforge/pkg/qr"
)

type verificationService struct {
	ticketRepo database.TicketRepository
	cache      database.CacheRepository
	signer     *qr.PayloadSigner
	queue      TaskPublisher
}

func NewVerificationService(
	ticketRepo database.TicketRepository,
	cache database.CacheRepository,
	signer *qr.PayloadSigner,
	queue TaskPublisher,
) VerificationService {
	return &verificationService{
		ticketRepo: ticketRepo,
		cache:      cache,
		signer:     signer,
		queue:      queue,
	}
}

// VerifyScan validates the scanned payload and attempts the unused->used
// transition. "Already used" comes back as a result, not an error; a forged
// or expired payload is rejected before any storage round trip.
func (s *verificationService) VerifyScan(ctx context.Context, operatorID, payload string) (*entity.VerificationResult, error) {
	ticketID, err := s.signer.Parse(payload)
	if err != nil {
		s.recordScan(ctx, operatorID, "", false, "rejected: "+err.Error())
		return nil, fmt.Errorf("%w: %v", entity.ErrNotAuthorized, err)
	}

	ticket, err := s.ticketRepo.GetByID(ctx, ticketID)
	if err != nil {
		if err == entity.ErrTicketNotFound {
			s.recordScan(ctx, operatorID, ticketID, false, "not found")
		}
		return nil, err
	}

	result := &entity.VerificationResult{
		TicketID:   ticket.ID,
		EventID:    ticket.EventID,
		TicketName: ticket.Metadata.GetString("ticket_name"),
		VerifiedAt: time.Now(),
	}

	if ticket.IsUsed {
		result.Status = entity.VerificationAlreadyUsed
		s.recordScan(ctx, operatorID, ticket.ID, false, "already used")
		return result, nil
	}

	switch err := s.ticketRepo.MarkUsed(ctx, ticket.ID); err {
	case nil:
		result.Status = entity.VerificationVerified
	case entity.ErrCannotModify:
		// Lost the race against a concurrent scan of the same ticket.
		result.Status = entity.VerificationAlreadyUsed
	default:
		return nil, err
	}

	valid := result.Status == entity.VerificationVerified
	s.recordScan(ctx, operatorID, ticket.ID, valid, string(result.Status))

	logrus.WithFields(logrus.Fields{
		"ticket_id": ticket.ID,
		"event_id":  ticket.EventID,
		"status":    result.Status,
	}).Info("Ticket scan processed")

	if s.queue != nil {
		task := &Task{
			ID:   fmt.Sprintf("ticket_verified_%s_%d", ticket.ID, time.Now().UnixNano()),
			Type: TaskTypeTicketVerified,
			Data: map[string]interface{}{
				"ticket_id":   ticket.ID,
				"event_id":    ticket.EventID,
				"operator_id": operatorID,
				"status":      string(result.Status),
			},
			MaxRetries: 3,
		}
		if err := s.queue.Publish(ctx, task); err != nil {
			logrus.Warnf("Failed to publish verification task: %v", err)
		}
	}

	return result, nil
}

func (s *verificationService) recordScan(ctx context.Context, operatorID, ticketID string, valid bool, outcome string) {
	if s.cache == nil || operatorID == "" {
		return
	}
	rec := &entity.ScanRecord{
		TicketID:  ticketID,
		Valid:     valid,
		Outcome:   outcome,
		ScannedAt: time.Now(),
	}
	if err := s.cache.PushScan(ctx, operatorID, rec); err != nil {
		logrus.Warnf("Failed to record scan history: %v", err)
	}
}

func (s *verificationService) RecentScans(ctx context.Context, operatorID string, limit int) ([]*entity.ScanRecord, error) {
	if operatorID == "" {
		return nil, entity.ErrNotAuthorized
	}
	if s.cache == nil {
		return []*entity.ScanRecord{}, nil
	}
	return s.cache.RecentScans(ctx, operatorID, limit)
}
