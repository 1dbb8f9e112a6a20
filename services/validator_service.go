package services

import (
	"context"
	"log"
	"time"

	"gate-validator/models"
	"gate-validator/monitoring"
	"gate-validator/utils"
)

const (
	MsgAccepted    = "ticket accepted"
	MsgNotFound    = "ticket not found in today's ticket set"
	MsgAlreadyUsed = "ticket already used"
)

// ValidatorService makes the accept/reject decision for a scanned code
// using only local data. Network I/O never gates, delays or reverses a
// decision: when the device is online the used state is written through
// to the store on a best-effort basis, and a failed write-through only
// defers bookkeeping to the sync engine.
type ValidatorService struct {
	Cache *CacheService
	Store TicketStore
	Conn  *ConnectivityService

	backoff *utils.Backoff
}

func NewValidatorService(cache *CacheService, store TicketStore, conn *ConnectivityService, backoffBase, backoffMax time.Duration) *ValidatorService {
	return &ValidatorService{
		Cache:   cache,
		Store:   store,
		Conn:    conn,
		backoff: utils.NewBackoff(backoffBase, backoffMax),
	}
}

// Validate resolves code against the local cache and, when the ticket
// is valid, stamps it used. The cache is persisted before this returns,
// so an immediate second scan of the same code observes the used state.
func (v *ValidatorService) Validate(ctx context.Context, code, validatorID string) models.ValidationResult {
	online := v.Conn.IsOnline()
	now := time.Now()

	var result models.ValidationResult
	err := v.Cache.Update(ctx, func(set *models.TicketSet) bool {
		ticket := set.Find(code)
		if ticket == nil || ticket.Status == models.StatusCancelled {
			// A cancelled ticket gets the same rejection as an unknown
			// code; cancellation status stays off the gate display.
			result = models.ValidationResult{Accepted: false, Message: MsgNotFound}
			return false
		}
		if ticket.Status == models.StatusUsed {
			snapshot := *ticket
			result = models.ValidationResult{Accepted: false, Message: MsgAlreadyUsed, Ticket: &snapshot}
			return false
		}

		ticket.Status = models.StatusUsed
		ticket.UsedAt = &now
		ticket.ValidatedBy = validatorID
		ticket.NeedsSync = !online

		snapshot := *ticket
		result = models.ValidationResult{Accepted: true, Message: MsgAccepted, Ticket: &snapshot}
		return true
	})
	if err != nil {
		// The resident set already carries the used state; a failed
		// persist only risks re-validation after a restart.
		log.Printf("validator: persist after accept: %v", err)
	}

	switch {
	case result.Accepted:
		monitoring.RecordScan("accepted")
	case result.Message == MsgAlreadyUsed:
		monitoring.RecordScan("already_used")
	default:
		monitoring.RecordScan("not_found")
	}

	if result.Accepted && online {
		v.writeThrough(ctx, *result.Ticket)
	} else if result.Accepted {
		monitoring.SetPendingSync(v.Cache.Snapshot().PendingSync())
	}

	return result
}

// writeThrough attempts the immediate store write for an accepted
// ticket. The backoff gate keeps a degraded store from being hammered
// on every scan; deferred tickets are picked up by the next sync cycle.
func (v *ValidatorService) writeThrough(ctx context.Context, ticket models.Ticket) {
	if !v.backoff.Ready() {
		v.deferToSync(ctx, ticket.ID)
		return
	}

	if err := v.Store.MarkUsed(ctx, ticket); err != nil {
		v.backoff.Failure()
		log.Printf("validator: write-through for %s failed, deferring to sync: %v", ticket.TicketNumber, err)
		v.deferToSync(ctx, ticket.ID)
		return
	}
	v.backoff.Success()

	now := time.Now()
	err := v.Cache.Update(ctx, func(set *models.TicketSet) bool {
		for i := range set.Tickets {
			if set.Tickets[i].ID == ticket.ID {
				set.Tickets[i].NeedsSync = false
				set.Tickets[i].LastSynced = &now
				return true
			}
		}
		return false
	})
	if err != nil {
		log.Printf("validator: persist write-through ack for %s: %v", ticket.TicketNumber, err)
	}
}

func (v *ValidatorService) deferToSync(ctx context.Context, ticketID string) {
	err := v.Cache.Update(ctx, func(set *models.TicketSet) bool {
		for i := range set.Tickets {
			if set.Tickets[i].ID == ticketID {
				if set.Tickets[i].NeedsSync {
					return false
				}
				set.Tickets[i].NeedsSync = true
				return true
			}
		}
		return false
	})
	if err != nil {
		log.Printf("validator: persist deferred sync flag: %v", err)
	}
	monitoring.SetPendingSync(v.Cache.Snapshot().PendingSync())
}
