package models

import "time"

// ValidationResult is what the gate operator sees: accepted or not,
// with a human-readable message and a snapshot of the ticket when one
// was resolved.
type ValidationResult struct {
	Accepted bool    `json:"accepted"`
	Message  string  `json:"message"`
	Ticket   *Ticket `json:"ticket,omitempty"`
}

// SyncStatus is the background health indicator surfaced to the
// scanning UI. It never gates a validation outcome.
type SyncStatus struct {
	IsOnline     bool       `json:"is_online"`
	LastSync     *time.Time `json:"last_sync"`
	TotalTickets int        `json:"total_tickets"`
	PendingSync  int        `json:"pending_sync"`
}

type ValidateRequest struct {
	Code        string `json:"code" validate:"required"`
	ValidatorID string `json:"validator_id" validate:"required"`
}
