package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"gate-validator/models"
)

const cacheKeyPrefix = "gate:tickets:"

// operatingDay is the date tag the cache is scoped to.
func operatingDay() string {
	return time.Now().Format("2006-01-02")
}

// CacheService owns the device's day-scoped ticket snapshot. The
// resident set is the source of truth for validation decisions; Redis
// holds the persisted copy that survives process restarts. All
// mutations run through a single mutex so interleavings between
// validation and sync merges are deterministic.
type CacheService struct {
	Redis    *redis.Client
	deviceID string

	mu  sync.Mutex
	set models.TicketSet
}

func NewCacheService(redisClient *redis.Client, deviceID string) *CacheService {
	return &CacheService{
		Redis:    redisClient,
		deviceID: deviceID,
		set:      models.TicketSet{Date: operatingDay()},
	}
}

func (s *CacheService) key() string {
	return cacheKeyPrefix + s.deviceID
}

// Load reads the persisted snapshot into memory. A missing, corrupt or
// stale snapshot yields an empty set for today; it is never an error.
func (s *CacheService) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.set = models.TicketSet{Date: operatingDay()}

	data, err := s.Redis.Get(ctx, s.key()).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("cache: load failed, starting empty: %v", err)
		}
		return
	}

	var stored models.TicketSet
	if err := json.Unmarshal(data, &stored); err != nil {
		log.Printf("cache: discarding corrupt snapshot: %v", err)
		return
	}
	if stored.Date != s.set.Date {
		log.Printf("cache: discarding stale snapshot for %s", stored.Date)
		return
	}

	s.set = stored
	log.Printf("cache: loaded %d tickets for %s (%d pending sync)",
		len(stored.Tickets), stored.Date, stored.PendingSync())
}

// Update runs fn against the resident set under the single-writer lock
// and persists the result. fn returns false to signal that nothing
// changed, which skips the persist. The in-memory mutation always
// stands even when persistence fails.
func (s *CacheService) Update(ctx context.Context, fn func(set *models.TicketSet) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !fn(&s.set) {
		return nil
	}
	s.set.LastUpdate = time.Now()
	return s.persistLocked(ctx)
}

// Replace swaps in a freshly merged set and persists it. The whole set
// is overwritten; merge logic lives in the sync engine.
func (s *CacheService) Replace(ctx context.Context, set models.TicketSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set.LastUpdate = time.Now()
	s.set = set
	return s.persistLocked(ctx)
}

// Find resolves a scanned or typed code by either lookup key. The
// returned ticket is a copy.
func (s *CacheService) Find(code string) (models.Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t := s.set.Find(code); t != nil {
		return *t, true
	}
	return models.Ticket{}, false
}

// Snapshot returns a copy of the resident set.
func (s *CacheService) Snapshot() models.TicketSet {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.set
	out.Tickets = make([]models.Ticket, len(s.set.Tickets))
	copy(out.Tickets, s.set.Tickets)
	return out
}

func (s *CacheService) persistLocked(ctx context.Context) error {
	data, err := json.Marshal(s.set)
	if err != nil {
		return fmt.Errorf("cache: encode snapshot: %w", err)
	}
	if err := s.Redis.Set(ctx, s.key(), data, 0).Err(); err != nil {
		return fmt.Errorf("cache: persist snapshot: %w", err)
	}
	return nil
}
