package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusValid     = "valid"
	StatusUsed      = "used"
	StatusCancelled = "cancelled"
)

// Ticket is the device-side copy of a ticket row. The display fields
// are refreshed from the store and never mutated locally; the device
// only ever flips Status to used and maintains the sync bookkeeping.
type Ticket struct {
	ID           string     `json:"id"`
	TicketNumber string     `json:"ticket_number"`
	QRCode       string     `json:"qr_code"`
	Status       string     `json:"status"` // valid, used, cancelled
	UsedAt       *time.Time `json:"used_at,omitempty"`
	ValidatedBy  string     `json:"validated_by,omitempty"`
	NeedsSync    bool       `json:"needs_sync"`
	LastSynced   *time.Time `json:"last_synced,omitempty"`

	CustomerName  string          `json:"customer_name"`
	CustomerEmail string          `json:"customer_email"`
	EventName     string          `json:"event_name"`
	SessionDate   string          `json:"session_date"` // YYYY-MM-DD
	TicketType    string          `json:"ticket_type"`
	Price         decimal.Decimal `json:"price"`
}

// MatchesCode reports whether code resolves this ticket by either
// lookup key. Codes are opaque strings; only equality is assumed.
func (t *Ticket) MatchesCode(code string) bool {
	return t.QRCode == code || t.TicketNumber == code
}

// TicketSet is the persisted cache record: the full day snapshot plus
// its date tag and last-update timestamp.
type TicketSet struct {
	Tickets    []Ticket  `json:"tickets"`
	LastUpdate time.Time `json:"last_update"`
	Date       string    `json:"date"` // YYYY-MM-DD
}

// Find returns a pointer into the set for the ticket matching code, or
// nil when no ticket matches.
func (s *TicketSet) Find(code string) *Ticket {
	for i := range s.Tickets {
		if s.Tickets[i].MatchesCode(code) {
			return &s.Tickets[i]
		}
	}
	return nil
}

// PendingSync counts tickets validated locally but not yet acknowledged
// by the store.
func (s TicketSet) PendingSync() int {
	count := 0
	for i := range s.Tickets {
		if s.Tickets[i].NeedsSync {
			count++
		}
	}
	return count
}
