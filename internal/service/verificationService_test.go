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

func newVerificationFixture(tickets ...*entity.Ticket) (VerificationService, *fakeTicketRepo, *fakeCache, *qr.PayloadSigner) {
	ticketRepo := newFakeTicketRepo(tickets...)
	cache := newFakeCache()
	signer := qr.NewPayloadSigner("test-secret", time.Minute)
	svc := NewVerificationService(ticketRepo, cache, signer, &fakePublisher{})
	return svc, ticketRepo, cache, signer
}

func TestVerifyScan(t *testing.T) {
	unused := &entity.Ticket{
		ID:      "tk-1",
		EventID: "ev-1",
		OwnerID: "user-1",
		Metadata: entity.Metadata{
			"ticket_name": "VIP",
		},
	}
	used := &entity.Ticket{
		ID:      "tk-2",
		EventID: "ev-1",
		OwnerID: "user-1",
		IsUsed:  true,
	}

	svc, ticketRepo, _, signer := newVerificationFixture(unused, used)

	t.Run("first scan verifies and marks used", func(t *testing.T) {
		payload, err := signer.Sign("tk-1")
		require.NoError(t, err)

		result, err := svc.VerifyScan(context.Background(), "op-1", payload)
		require.NoError(t, err)
		assert.Equal(t, entity.VerificationVerified, result.Status)
		assert.Equal(t, "tk-1", result.TicketID)
		assert.Equal(t, "VIP", result.TicketName)

		stored, err := ticketRepo.GetByID(context.Background(), "tk-1")
		require.NoError(t, err)
		assert.True(t, stored.IsUsed)
	})

	t.Run("second scan reports already used without error", func(t *testing.T) {
		payload, err := signer.Sign("tk-1")
		require.NoError(t, err)

		result, err := svc.VerifyScan(context.Background(), "op-1", payload)
		require.NoError(t, err)
		assert.Equal(t, entity.VerificationAlreadyUsed, result.Status)
	})

	t.Run("pre-used ticket reports already used", func(t *testing.T) {
		payload, err := signer.Sign("tk-2")
		require.NoError(t, err)

		result, err := svc.VerifyScan(context.Background(), "op-1", payload)
		require.NoError(t, err)
		assert.Equal(t, entity.VerificationAlreadyUsed, result.Status)
	})

	t.Run("unknown ticket", func(t *testing.T) {
		payload, err := signer.Sign("tk-missing")
		require.NoError(t, err)

		_, err = svc.VerifyScan(context.Background(), "op-1", payload)
		assert.ErrorIs(t, err, entity.ErrTicketNotFound)
	})
}

func TestVerifyScanRejectsBadPayloads(t *testing.T) {
	svc, ticketRepo, _, _ := newVerificationFixture(&entity.Ticket{ID: "tk-1", EventID: "ev-1"})

	otherSigner := qr.NewPayloadSigner("wrong-secret", time.Minute)
	forged, err := otherSigner.Sign("tk-1")
	require.NoError(t, err)

	expiredSigner := qr.NewPayloadSigner("test-secret", -time.Minute)
	expired, err := expiredSigner.Sign("tk-1")
	require.NoError(t, err)

	tests := []struct {
		name    string
		payload string
	}{
		{name: "garbage payload", payload: "not-a-token"},
		{name: "forged signature", payload: forged},
		{name: "expired payload", payload: expired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.VerifyScan(context.Background(), "op-1", tt.payload)
			require.ErrorIs(t, err, entity.ErrNotAuthorized)

			// Rejection never touches ticket state.
			stored, err := ticketRepo.GetByID(context.Background(), "tk-1")
			require.NoError(t, err)
			assert.False(t, stored.IsUsed)
		})
	}
}

// A concurrent scan that wins the MarkUsed race turns this scan into an
// already-used outcome rather than an error.
func TestVerifyScanLosingRaceReportsAlreadyUsed(t *testing.T) {
	ticket := &entity.Ticket{ID: "tk-1", EventID: "ev-1"}
	svc, ticketRepo, _, signer := newVerificationFixture(ticket)

	payload, err := signer.Sign("tk-1")
	require.NoError(t, err)

	// The rival scan lands between GetByID and MarkUsed.
	ticketRepo.markUsedErr = entity.ErrCannotModify

	result, err := svc.VerifyScan(context.Background(), "op-1", payload)
	require.NoError(t, err)
	assert.Equal(t, entity.VerificationAlreadyUsed, result.Status)
}

func TestRecentScans(t *testing.T) {
	ticket := &entity.Ticket{ID: "tk-1", EventID: "ev-1"}
	svc, _, _, signer := newVerificationFixture(ticket)

	payload, err := signer.Sign("tk-1")
	require.NoError(t, err)

	_, err = svc.VerifyScan(context.Background(), "op-1", payload)
	require.NoError(t, err)
	_, err = svc.VerifyScan(context.Background(), "op-1", payload)
	require.NoError(t, err)

	scans, err := svc.RecentScans(context.Background(), "op-1", 10)
	require.NoError(t, err)
	require.Len(t, scans, 2)
	// Newest first: the already-used outcome precedes the verified one.
	assert.Equal(t, string(entity.VerificationAlreadyUsed), scans[0].Outcome)
	assert.Equal(t, string(entity.VerificationVerified), scans[1].Outcome)
	assert.False(t, scans[0].Valid)
	assert.True(t, scans[1].Valid)

	t.Run("missing operator", func(t *testing.T) {
		_, err := svc.RecentScans(context.Background(), "", 10)
		assert.ErrorIs(t, err, entity.ErrNotAuthorized)
	})
}
