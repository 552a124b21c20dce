package entity

import (
	"time"
)

type EventStatus string

const (
	EventStatusActive    EventStatus = "active"
	EventStatusCancelled EventStatus = "cancelled"
)

type Event struct {
	ID          string      `json:"id" db:"id"`
	Name        string      `json:"name" db:"name"`
	Description string      `json:"description" db:"description"`
	Date        string      `json:"date" db:"date"`
	Time        string      `json:"time" db:"time"`
	Location    string      `json:"location" db:"location"`
	OrganizerID string      `json:"organizer_id" db:"organizer_id"`
	ImageURL    string      `json:"image_url" db:"image_url"`
	ArtStyle    string      `json:"art_style" db:"art_style"`
	Status      EventStatus `json:"status" db:"status"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

type TicketType struct {
	ID          string  `json:"id" db:"id"`
	EventID     string  `json:"event_id" db:"event_id"`
	Name        string  `json:"name" db:"name"`
	Price       float64 `json:"price" db:"price"`
	Capacity    int     `json:"capacity" db:"capacity"`
	Sold        int     `json:"sold" db:"sold"`
	Description string  `json:"description" db:"description"`
}

// EventWithInventory is an Event materialized together with its ticket
// types. Totals are always recomputed from the ticket types, never stored.
type EventWithInventory struct {
	Event
	TicketTypes   []*TicketType `json:"ticket_types"`
	TotalCapacity int           `json:"total_capacity"`
	TicketsSold   int           `json:"tickets_sold"`
}

// ComputeTotals refreshes the derived capacity/sold counters from the
// attached ticket types.
func (e *EventWithInventory) ComputeTotals() {
	e.TotalCapacity = 0
	e.TicketsSold = 0
	for _, tt := range e.TicketTypes {
		e.TotalCapacity += tt.Capacity
		e.TicketsSold += tt.Sold
	}
}

// Remaining returns the number of unsold seats for a ticket type.
func (t *TicketType) Remaining() int {
	if t.Sold >= t.Capacity {
		return 0
	}
	return t.Capacity - t.Sold
}
