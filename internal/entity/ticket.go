package entity

import (
	"time"
)

type Ticket struct {
	ID           string   `json:"id" db:"id"`
	EventID      string   `json:"event_id" db:"event_id"`
	TicketTypeID string   `json:"ticket_type_id" db:"ticket_type_id"`
	OwnerID      string   `json:"owner_id" db:"owner_id"`
	IsUsed       bool     `json:"is_used" db:"is_used"`
	Metadata     Metadata `json:"metadata" db:"metadata"`
	MintedAt     time.Time `json:"minted_at" db:"minted_at"`
}

// VerificationStatus is the outcome of a verification attempt. "Already
// used" is a valid result, not an error: it is an expected, frequent,
// user-actionable outcome (a re-entry attempt).
type VerificationStatus string

const (
	VerificationVerified    VerificationStatus = "verified"
	VerificationAlreadyUsed VerificationStatus = "already_used"
)

type VerificationResult struct {
	Status     VerificationStatus `json:"status"`
	TicketID   string             `json:"ticket_id"`
	EventID    string             `json:"event_id"`
	TicketName string             `json:"ticket_name,omitempty"`
	VerifiedAt time.Time          `json:"verified_at"`
}

// ScanRecord is one entry of the recent-scans history kept for the
// scanning operator.
type ScanRecord struct {
	TicketID  string    `json:"ticket_id"`
	Valid     bool      `json:"valid"`
	Outcome   string    `json:"outcome"`
	ScannedAt time.Time `json:"scanned_at"`
}
