package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ticketforge/ticketforge/internal/entity"
)

func TestCreateEvent(t *testing.T) {
	tests := []struct {
		name        string
		organizerID string
		req         *CreateEventRequest
		wantErr     error
	}{
		{
			name:        "valid event",
			organizerID: "org-1",
			req: &CreateEventRequest{
				Name: "Jazz Night",
				Date: "2026-10-15",
				TicketTypes: []CreateTicketTypeRequest{
					{Name: "Standard", Price: 25, Capacity: 100},
					{Name: "VIP", Price: 80, Capacity: 20},
				},
			},
		},
		{
			name:        "missing organizer",
			organizerID: "",
			req:         &CreateEventRequest{Name: "X", Date: "2026-10-15"},
			wantErr:     entity.ErrNotAuthorized,
		},
		{
			name:        "no ticket types",
			organizerID: "org-1",
			req:         &CreateEventRequest{Name: "X", Date: "2026-10-15"},
			wantErr:     entity.ErrInvalidInput,
		},
		{
			name:        "negative price",
			organizerID: "org-1",
			req: &CreateEventRequest{
				Name: "X",
				Date: "2026-10-15",
				TicketTypes: []CreateTicketTypeRequest{
					{Name: "Standard", Price: -1, Capacity: 10},
				},
			},
			wantErr: entity.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewCatalogService(newFakeEventRepo(), newFakeCache(), time.Minute)

			event, err := svc.CreateEvent(context.Background(), tt.organizerID, tt.req)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, event)
			assert.NotEmpty(t, event.ID)
			assert.Equal(t, "org-1", event.OrganizerID)
			assert.Equal(t, entity.EventStatusActive, event.Status)
			assert.Equal(t, 120, event.TotalCapacity)
			assert.Equal(t, 0, event.TicketsSold)
		})
	}
}

func TestCancelEvent(t *testing.T) {
	newFixture := func(status entity.EventStatus) (CatalogService, *fakeCache) {
		cache := newFakeCache()
		repo := newFakeEventRepo(newTestEvent("ev-1", "org-1", status))
		return NewCatalogService(repo, cache, time.Minute), cache
	}

	t.Run("organizer cancels own event", func(t *testing.T) {
		svc, cache := newFixture(entity.EventStatusActive)
		require.NoError(t, svc.CancelEvent(context.Background(), "org-1", "ev-1"))

		event, err := svc.GetEvent(context.Background(), "ev-1")
		require.NoError(t, err)
		assert.Equal(t, entity.EventStatusCancelled, event.Status)
		assert.Equal(t, 1, cache.invalidations)
	})

	t.Run("someone else's event", func(t *testing.T) {
		svc, _ := newFixture(entity.EventStatusActive)
		err := svc.CancelEvent(context.Background(), "org-2", "ev-1")
		assert.ErrorIs(t, err, entity.ErrNotAuthorized)
	})

	t.Run("already cancelled", func(t *testing.T) {
		svc, _ := newFixture(entity.EventStatusCancelled)
		err := svc.CancelEvent(context.Background(), "org-1", "ev-1")
		assert.ErrorIs(t, err, entity.ErrCannotModify)
	})

	t.Run("unknown event", func(t *testing.T) {
		svc, _ := newFixture(entity.EventStatusActive)
		err := svc.CancelEvent(context.Background(), "org-1", "ev-missing")
		assert.ErrorIs(t, err, entity.ErrEventNotFound)
	})
}

func TestGetAllEventsFallsBackToStore(t *testing.T) {
	repo := newFakeEventRepo(newTestEvent("ev-1", "org-1", entity.EventStatusActive))
	// fakeCache always misses on GetEvents, so the store must serve.
	svc := NewCatalogService(repo, newFakeCache(), time.Minute)

	events, err := svc.GetAllEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "ev-1", events[0].ID)
}
