package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ticketforge/ticketforge/internal/entity"
)

// In-memory repositories backing the service tests. ReserveSeat holds the
// mutex across check-and-increment, matching the atomicity the storage
// adapters guarantee.

type fakeTicketTypeRepo struct {
	mu    sync.Mutex
	types map[string]*entity.TicketType

	// beforeReserve, when set, runs at the top of ReserveSeat. Tests use
	// it to slip a competing reservation between the service's read of the
	// ticket type and its own reservation.
	beforeReserve func()
}

func newFakeTicketTypeRepo(types ...*entity.TicketType) *fakeTicketTypeRepo {
	r := &fakeTicketTypeRepo{types: make(map[string]*entity.TicketType)}
	for _, tt := range types {
		r.types[tt.ID] = tt
	}
	return r
}

func (r *fakeTicketTypeRepo) GetByID(_ context.Context, id string) (*entity.TicketType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tt, ok := r.types[id]
	if !ok {
		return nil, entity.ErrTicketTypeNotFound
	}
	cp := *tt
	return &cp, nil
}

func (r *fakeTicketTypeRepo) GetByEventID(_ context.Context, eventID string) ([]*entity.TicketType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.TicketType
	for _, tt := range r.types {
		if tt.EventID == eventID {
			cp := *tt
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeTicketTypeRepo) ReserveSeat(_ context.Context, id string) (int, error) {
	if r.beforeReserve != nil {
		r.beforeReserve()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	tt, ok := r.types[id]
	if !ok {
		return 0, entity.ErrTicketTypeNotFound
	}
	if tt.Sold >= tt.Capacity {
		return 0, entity.ErrSoldOut
	}
	tt.Sold++
	return tt.Sold, nil
}

func (r *fakeTicketTypeRepo) ReleaseSeat(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tt, ok := r.types[id]
	if !ok {
		return entity.ErrTicketTypeNotFound
	}
	if tt.Sold > 0 {
		tt.Sold--
	}
	return nil
}

func (r *fakeTicketTypeRepo) RecountSold(_ context.Context) (int64, error) {
	return 0, nil
}

func (r *fakeTicketTypeRepo) sold(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.types[id].Sold
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events map[string]*entity.EventWithInventory
}

func newFakeEventRepo(events ...*entity.EventWithInventory) *fakeEventRepo {
	r := &fakeEventRepo{events: make(map[string]*entity.EventWithInventory)}
	for _, e := range events {
		r.events[e.ID] = e
	}
	return r
}

func (r *fakeEventRepo) Create(_ context.Context, event *entity.Event, types []*entity.TicketType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	inv := &entity.EventWithInventory{Event: *event, TicketTypes: types}
	inv.ComputeTotals()
	r.events[event.ID] = inv
	return nil
}

func (r *fakeEventRepo) GetByID(_ context.Context, id string) (*entity.EventWithInventory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, entity.ErrEventNotFound
	}
	return e, nil
}

func (r *fakeEventRepo) GetAll(_ context.Context) ([]*entity.EventWithInventory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.EventWithInventory, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e)
	}
	return out, nil
}

func (r *fakeEventRepo) GetByOrganizer(_ context.Context, organizerID string) ([]*entity.EventWithInventory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.EventWithInventory
	for _, e := range r.events {
		if e.OrganizerID == organizerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEventRepo) UpdateStatus(_ context.Context, id string, status entity.EventStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return entity.ErrEventNotFound
	}
	e.Status = status
	return nil
}

func (r *fakeEventRepo) Update(_ context.Context, event *entity.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[event.ID]
	if !ok {
		return entity.ErrEventNotFound
	}
	e.Event = *event
	return nil
}

type fakeTicketRepo struct {
	mu          sync.Mutex
	tickets     map[string]*entity.Ticket
	createErr   error
	markUsedErr error
}

func newFakeTicketRepo(tickets ...*entity.Ticket) *fakeTicketRepo {
	r := &fakeTicketRepo{tickets: make(map[string]*entity.Ticket)}
	for _, t := range tickets {
		r.tickets[t.ID] = t
	}
	return r
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *entity.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	if ticket.MintedAt.IsZero() {
		ticket.MintedAt = time.Now()
	}
	cp := *ticket
	r.tickets[ticket.ID] = &cp
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*entity.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil, entity.ErrTicketNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTicketRepo) GetByOwner(_ context.Context, ownerID string) ([]*entity.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Ticket
	for _, t := range r.tickets {
		if t.OwnerID == ownerID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) MarkUsed(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.markUsedErr != nil {
		return r.markUsedErr
	}
	t, ok := r.tickets[id]
	if !ok {
		return entity.ErrTicketNotFound
	}
	if t.IsUsed {
		return entity.ErrCannotModify
	}
	t.IsUsed = true
	return nil
}

type fakeCache struct {
	mu            sync.Mutex
	invalidations int
	scans         map[string][]*entity.ScanRecord
}

func newFakeCache() *fakeCache {
	return &fakeCache{scans: make(map[string][]*entity.ScanRecord)}
}

func (c *fakeCache) SetEvents(_ context.Context, _ []*entity.EventWithInventory, _ time.Duration) error {
	return nil
}

func (c *fakeCache) GetEvents(_ context.Context) ([]*entity.EventWithInventory, error) {
	return nil, entity.ErrSystemError
}

func (c *fakeCache) InvalidateEvents(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidations++
	return nil
}

func (c *fakeCache) PushScan(_ context.Context, operatorID string, rec *entity.ScanRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scans[operatorID] = append([]*entity.ScanRecord{rec}, c.scans[operatorID]...)
	return nil
}

func (c *fakeCache) RecentScans(_ context.Context, operatorID string, limit int) ([]*entity.ScanRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	recs := c.scans[operatorID]
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

type fakePublisher struct {
	mu    sync.Mutex
	tasks []*Task
}

func (p *fakePublisher) Publish(_ context.Context, task *Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tasks = append(p.tasks, task)
	return nil
}

func (p *fakePublisher) byType(taskType string) []*Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*Task
	for _, t := range p.tasks {
		if t.Type == taskType {
			out = append(out, t)
		}
	}
	return out
}
