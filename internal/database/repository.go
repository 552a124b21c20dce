package database

import (
	"context"
	"time"

	"github.com/ticketforge/ticketforge/internal/entity"
)

// The repositories below are the single storage-capability surface of the
// service. Two adapters implement them: internal/database/postgres (direct
// SQL) and internal/database/recordstore (hosted collection API). The
// issuance/verification core is written once against these interfaces.

type EventRepository interface {
	Create(ctx context.Context, event *entity.Event, types []*entity.TicketType) error
	GetByID(ctx context.Context, id string) (*entity.EventWithInventory, error)
	GetAll(ctx context.Context) ([]*entity.EventWithInventory, error)
	GetByOrganizer(ctx context.Context, organizerID string) ([]*entity.EventWithInventory, error)
	UpdateStatus(ctx context.Context, id string, status entity.EventStatus) error
	Update(ctx context.Context, event *entity.Event) error
}

type TicketTypeRepository interface {
	GetByID(ctx context.Context, id string) (*entity.TicketType, error)
	GetByEventID(ctx context.Context, eventID string) ([]*entity.TicketType, error)

	// ReserveSeat atomically increments the sold counter and returns the
	// post-increment value, failing with entity.ErrSoldOut when
	// sold == capacity. Adapters must not implement this as an unguarded
	// read-then-write. Callers deciding anything on the counter (sellout
	// alerts) must use the returned value, not an earlier read.
	ReserveSeat(ctx context.Context, id string) (int, error)

	// ReleaseSeat decrements the sold counter, compensating a reservation
	// whose ticket creation failed. Never drops the counter below zero.
	ReleaseSeat(ctx context.Context, id string) error

	// RecountSold rewrites each sold counter from the actual number of
	// ticket rows and returns how many counters were repaired.
	RecountSold(ctx context.Context) (int64, error)
}

type TicketRepository interface {
	Create(ctx context.Context, ticket *entity.Ticket) error
	GetByID(ctx context.Context, id string) (*entity.Ticket, error)
	GetByOwner(ctx context.Context, ownerID string) ([]*entity.Ticket, error)

	// MarkUsed transitions is_used false->true. Returns entity.ErrCannotModify
	// when the ticket is already used, entity.ErrTicketNotFound when absent.
	MarkUsed(ctx context.Context, id string) error
}

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
}

type ProfileRepository interface {
	Create(ctx context.Context, profile *entity.Profile) error
	GetByUserID(ctx context.Context, userID string) (*entity.Profile, error)
	Update(ctx context.Context, profile *entity.Profile) error
}

// Authenticator checks a credential pair against the backing store and
// returns the matching user. The postgres adapter compares password hashes
// locally; the record-store adapter delegates to the provider's auth
// endpoint.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*entity.User, error)
}

type CacheRepository interface {
	SetEvents(ctx context.Context, events []*entity.EventWithInventory, ttl time.Duration) error
	GetEvents(ctx context.Context) ([]*entity.EventWithInventory, error)
	InvalidateEvents(ctx context.Context) error

	PushScan(ctx context.Context, operatorID string, rec *entity.ScanRecord) error
	RecentScans(ctx context.Context, operatorID string, limit int) ([]*entity.ScanRecord, error)
}
