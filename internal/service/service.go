package service

import (
	"context"
	"time"

	"github.com/ticketforge/ticketforge/internal/entity"
)

// CatalogService covers event discovery and the organizer dashboard.
type CatalogService interface {
	GetAllEvents(ctx context.Context) ([]*entity.EventWithInventory, error)
	GetEvent(ctx context.Context, id string) (*entity.EventWithInventory, error)
	CreateEvent(ctx context.Context, organizerID string, req *CreateEventRequest) (*entity.EventWithInventory, error)
	CancelEvent(ctx context.Context, organizerID, eventID string) error
	GetOrganizerEvents(ctx context.Context, organizerID string) ([]*entity.EventWithInventory, error)
}

// IssuanceService mints tickets against capacity-bounded ticket types.
type IssuanceService interface {
	MintTicket(ctx context.Context, req *MintTicketRequest) (*entity.Ticket, error)
	GetUserTickets(ctx context.Context, ownerID string) ([]*entity.Ticket, error)

	// TicketQR renders the signed QR payload of an owned ticket as PNG.
	TicketQR(ctx context.Context, ticketID, requesterID string) ([]byte, error)
}

// VerificationService performs the one-time unused->used transition.
type VerificationService interface {
	VerifyScan(ctx context.Context, operatorID, payload string) (*entity.VerificationResult, error)
	RecentScans(ctx context.Context, operatorID string, limit int) ([]*entity.ScanRecord, error)
}

// AuthService is the session store: login/logout are the only mutators,
// every component reads the principal through SessionFromToken.
type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*entity.User, error)
	Login(ctx context.Context, email, password string) (*entity.Session, error)
	Logout(ctx context.Context, token string) error
	SessionFromToken(ctx context.Context, token string) (*entity.Session, error)
}

// TaskPublisher decouples services from the queue implementation.
type TaskPublisher interface {
	Publish(ctx context.Context, task *Task) error
}

// Task is a unit of asynchronous work handed to the queue.
type Task struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	ExecuteAt  time.Time              `json:"execute_at"`
	MaxRetries int                    `json:"max_retries"`
	Attempts   int                    `json:"attempts"`
}

const (
	TaskTypeTicketMinted      = "ticket_minted"
	TaskTypeTicketVerified    = "ticket_verified"
	TaskTypeSelloutAlert      = "sellout_alert"
	TaskTypeReconcileCounters = "reconcile_counters"
)

type CreateEventRequest struct {
	Name        string                    `json:"name" binding:"required,min=1,max=255"`
	Description string                    `json:"description"`
	Date        string                    `json:"date" binding:"required"`
	Time        string                    `json:"time"`
	Location    string                    `json:"location"`
	ImageURL    string                    `json:"image_url"`
	ArtStyle    string                    `json:"art_style"`
	TicketTypes []CreateTicketTypeRequest `json:"ticket_types" binding:"required,min=1,dive"`
}

type CreateTicketTypeRequest struct {
	Name        string  `json:"name" binding:"required,min=1,max=255"`
	Price       float64 `json:"price" binding:"min=0"`
	Capacity    int     `json:"capacity" binding:"required,min=1"`
	Description string  `json:"description"`
}

type MintTicketRequest struct {
	EventID      string `json:"event_id" binding:"required"`
	TicketTypeID string `json:"ticket_type_id" binding:"required"`
	OwnerID      string `json:"-"`
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required,min=1,max=255"`
	Password string `json:"password" binding:"required,min=6"`
	Username string `json:"username"`
}
