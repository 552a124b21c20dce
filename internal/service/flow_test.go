package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ticketforge/ticketforge/internal/entity"
	"github.com/ticketforge/ticketforge/pkg/qr"
)

// Full issuance-to-verification lifecycle against a single-seat ticket
// type: mint, scan, re-scan, then a second mint attempt.
func TestMintVerifyLifecycle(t *testing.T) {
	ticketType := &entity.TicketType{
		ID:       "tt-1",
		EventID:  "ev-1",
		Name:     "General",
		Capacity: 1,
	}
	typeRepo := newFakeTicketTypeRepo(ticketType)
	eventRepo := newFakeEventRepo(newTestEvent("ev-1", "org-1", entity.EventStatusActive, ticketType))
	ticketRepo := newFakeTicketRepo()
	cache := newFakeCache()
	publisher := &fakePublisher{}
	signer := qr.NewPayloadSigner("lifecycle-secret", time.Minute)

	issuance := NewIssuanceService(ticketRepo, typeRepo, eventRepo, cache, signer, publisher, 256)
	verification := NewVerificationService(ticketRepo, cache, signer, publisher)

	ctx := context.Background()
	req := &MintTicketRequest{EventID: "ev-1", TicketTypeID: "tt-1", OwnerID: "user-1"}

	ticket, err := issuance.MintTicket(ctx, req)
	require.NoError(t, err)
	require.NotEmpty(t, ticket.ID)

	payload, err := signer.Sign(ticket.ID)
	require.NoError(t, err)

	first, err := verification.VerifyScan(ctx, "op-1", payload)
	require.NoError(t, err)
	assert.Equal(t, entity.VerificationVerified, first.Status)

	second, err := verification.VerifyScan(ctx, "op-1", payload)
	require.NoError(t, err)
	assert.Equal(t, entity.VerificationAlreadyUsed, second.Status)

	_, err = issuance.MintTicket(ctx, req)
	assert.ErrorIs(t, err, entity.ErrSoldOut)

	assert.Equal(t, 1, typeRepo.sold("tt-1"))
}
