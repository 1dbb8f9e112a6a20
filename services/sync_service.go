package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"gate-validator/internal/status"
	"gate-validator/models"
	"gate-validator/monitoring"
)

// SyncService keeps the local cache eventually consistent with the
// ticket store without ever losing an offline validation. Pull and
// push cycles are serialized; a trigger arriving while a cycle is in
// flight is skipped, never run in parallel.
type SyncService struct {
	Cache *CacheService
	Store TicketStore

	interval  time.Duration
	scheduler gocron.Scheduler

	mu sync.Mutex // serializes pull/push cycles, held across network calls

	stateMu  sync.Mutex
	lastSync *time.Time
}

func NewSyncService(cache *CacheService, store TicketStore, interval time.Duration) *SyncService {
	return &SyncService{
		Cache:    cache,
		Store:    store,
		interval: interval,
	}
}

// Start runs the initial pull and schedules the recurring sync job.
func (s *SyncService) Start(ctx context.Context) error {
	if err := s.Pull(ctx); err != nil {
		log.Printf("sync: initial pull: %v", err)
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("sync: create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() {
			if err := s.Pull(ctx); err != nil && !errors.Is(err, status.ErrSyncInFlight) {
				log.Printf("sync: scheduled pull: %v", err)
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("sync: schedule pull job: %w", err)
	}

	s.scheduler = scheduler
	scheduler.Start()
	log.Printf("sync: pulling every %s", s.interval)
	return nil
}

func (s *SyncService) Stop() {
	if s.scheduler == nil {
		return
	}
	if err := s.scheduler.Shutdown(); err != nil {
		log.Printf("sync: scheduler shutdown: %v", err)
	}
}

// OnReconnect is wired to the connectivity monitor. A reconnect is the
// most likely moment stale local validations can finally be reconciled,
// so it pulls immediately, outside the regular timer.
func (s *SyncService) OnReconnect(ctx context.Context) {
	if err := s.Pull(ctx); err != nil && !errors.Is(err, status.ErrSyncInFlight) {
		log.Printf("sync: reconnect pull: %v", err)
	}
}

// Pull fetches today's paid tickets and merges them into the cache. A
// cached ticket with a pending local validation always survives the
// merge; for everything else the server copy wins, which is how
// external cancellations and corrections reach the device.
func (s *SyncService) Pull(ctx context.Context) error {
	if !s.mu.TryLock() {
		return status.ErrSyncInFlight
	}
	defer s.mu.Unlock()

	day := operatingDay()

	serverTickets, err := s.Store.FetchDayTickets(ctx, day)
	if err != nil {
		monitoring.RecordSyncOperation("pull", "failure")
		return fmt.Errorf("sync: pull: %w", err)
	}

	local := s.Cache.Snapshot()
	if local.Date != day {
		// Day rollover while running: one best-effort push of the old
		// day's pending validations, then rebuild from the server set.
		s.flushStale(ctx, local)
		local.Tickets = nil
	}

	cached := make(map[string]models.Ticket, len(local.Tickets))
	for _, t := range local.Tickets {
		cached[t.ID] = t
	}

	merged := make([]models.Ticket, 0, len(serverTickets))
	seen := make(map[string]bool, len(serverTickets))
	for _, server := range serverTickets {
		seen[server.ID] = true
		if loc, ok := cached[server.ID]; ok && loc.NeedsSync {
			// The store has not acknowledged this validation yet; the
			// local used state wins until the push confirms it.
			merged = append(merged, loc)
			continue
		}
		merged = append(merged, server)
	}
	// A locally validated ticket the server stopped returning is still
	// a validation we owe the store.
	for _, t := range local.Tickets {
		if t.NeedsSync && !seen[t.ID] {
			merged = append(merged, t)
		}
	}

	set := models.TicketSet{Tickets: merged, Date: day}
	if err := s.Cache.Replace(ctx, set); err != nil {
		log.Printf("sync: persist merged set: %v", err)
	}

	now := time.Now()
	s.stateMu.Lock()
	s.lastSync = &now
	s.stateMu.Unlock()

	pending := set.PendingSync()
	monitoring.RecordSyncOperation("pull", "success")
	monitoring.SetCachedTickets(len(merged))
	monitoring.SetPendingSync(pending)
	log.Printf("sync: pulled %d tickets for %s (%d pending sync)", len(merged), day, pending)

	if pending > 0 {
		s.pushPendingLocked(ctx)
	}
	return nil
}

// PushPending writes every locally validated, unacknowledged ticket
// back to the store.
func (s *SyncService) PushPending(ctx context.Context) error {
	if !s.mu.TryLock() {
		return status.ErrSyncInFlight
	}
	defer s.mu.Unlock()

	s.pushPendingLocked(ctx)
	return nil
}

func (s *SyncService) pushPendingLocked(ctx context.Context) {
	snapshot := s.Cache.Snapshot()
	for _, ticket := range snapshot.Tickets {
		if !ticket.NeedsSync {
			continue
		}
		if err := s.Store.MarkUsed(ctx, ticket); err != nil {
			// Failures are independent per ticket; the next cycle
			// retries the ones left pending.
			monitoring.RecordSyncOperation("push", "failure")
			log.Printf("sync: push ticket %s: %v", ticket.TicketNumber, err)
			continue
		}

		now := time.Now()
		err := s.Cache.Update(ctx, func(set *models.TicketSet) bool {
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
			log.Printf("sync: persist push ack for %s: %v", ticket.TicketNumber, err)
		}
		monitoring.RecordSyncOperation("push", "success")
	}
	monitoring.SetPendingSync(s.Cache.Snapshot().PendingSync())
}

// flushStale pushes the pending validations of a previous day's
// snapshot before it is discarded. Failures only get logged: a stale
// cache never blocks the new day.
func (s *SyncService) flushStale(ctx context.Context, stale models.TicketSet) {
	for _, ticket := range stale.Tickets {
		if !ticket.NeedsSync {
			continue
		}
		if err := s.Store.MarkUsed(ctx, ticket); err != nil {
			log.Printf("sync: dropping unsynced ticket %s from %s: %v",
				ticket.TicketNumber, stale.Date, err)
			continue
		}
		monitoring.RecordSyncOperation("push", "success")
	}
}

// Status reports the background sync state surfaced to the scanning UI.
func (s *SyncService) Status(online bool) models.SyncStatus {
	snapshot := s.Cache.Snapshot()

	s.stateMu.Lock()
	lastSync := s.lastSync
	s.stateMu.Unlock()

	return models.SyncStatus{
		IsOnline:     online,
		LastSync:     lastSync,
		TotalTickets: len(snapshot.Tickets),
		PendingSync:  snapshot.PendingSync(),
	}
}
