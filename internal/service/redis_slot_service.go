package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var (
	// ErrSlotLocked is returned when another request is booking the same slot
	ErrSlotLocked = errors.New("slot is being booked by another request")

	// ErrStaleAvailability is returned when the advisor's availability was
	// invalidated after the value being cached was read
	ErrStaleAvailability = errors.New("availability changed while it was computed")
)

// releaseLockScript deletes the lock only if it still holds our token, so a
// request whose lock expired cannot release a lock taken by someone else.
var releaseLockScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// fillIfCurrentScript caches a computed day only while the advisor's
// generation still matches the one read before computing it.
var fillIfCurrentScript = redis.NewScript(`
	local gen = redis.call('GET', KEYS[1]) or '0'
	if gen ~= ARGV[1] then
		return 0
	end
	redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
	return 1
`)

const (
	RedisAvailabilityKeyPrefix    = "availability:"
	RedisAvailabilityGenKeyPrefix = "availability-gen:"
	RedisSlotLockKeyPrefix     = "slot:lock:"

	// Batch size for key purges; pipeline is executed per batch
	purgeBatchSize = 500

	mutexCleanupInterval = 10 * time.Minute
	mutexStaleThreshold  = 10 * time.Minute
)

// SlotService keeps computed availability in Redis and serializes bookings of
// the same advisor slot across API instances.
//
// Every invalidation bumps a per-advisor generation in Redis. A fill carries the
// generation read before the day was computed and is dropped if it moved, so a
// result computed before a booking committed is never cached after it.
//
// Lock ordering: per-advisor mutex first, then Redis operations.
type SlotService struct {
	redisClient *redis.Client
	log         *logrus.Logger
	cacheTTL    time.Duration
	lockTTL     time.Duration

	// orders fills and invalidations issued by this instance for one advisor
	advisorMu sync.Map // map[uuid.UUID]*mutexWithTimestamp

	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  atomic.Bool
}

type mutexWithTimestamp struct {
	mu       sync.Mutex
	lastUsed atomic.Int64 // Unix timestamp
}

// NewSlotService starts a background goroutine for mutex cleanup.
// Call Stop() during graceful shutdown.
func NewSlotService(redisClient *redis.Client, log *logrus.Logger, cacheTTL, lockTTL time.Duration) *SlotService {
	svc := &SlotService{
		redisClient: redisClient,
		log:         log,
		cacheTTL:    cacheTTL,
		lockTTL:     lockTTL,
		stopChan:    make(chan struct{}),
	}

	svc.wg.Add(1)
	go svc.cleanupMutexMapLoop()

	return svc
}

// Stop is safe to call multiple times.
func (s *SlotService) Stop() {
	if s.stopped.CompareAndSwap(false, true) {
		close(s.stopChan)
		s.wg.Wait()
		s.log.Info("SlotService stopped")
	}
}

// PurgeOnStartup drops every cached availability entry. Appointments may have
// changed while the service was down, so nothing cached before startup is trusted.
func (s *SlotService) PurgeOnStartup(ctx context.Context) error {
	if err := s.redisClient.Ping(ctx).Err(); err != nil {
		s.log.Warnf("Redis is not available, skipping purge: %+v", err)
		return fmt.Errorf("redis ping failed: %w", err)
	}

	purged, err := s.purgePattern(ctx, RedisAvailabilityKeyPrefix+"*")
	if err != nil {
		return err
	}
	s.log.Infof("Purged %d cached availability entries", purged)
	return nil
}

// GetAvailability loads the cached availability for advisor and date into dest.
// Reports false on a cache miss.
func (s *SlotService) GetAvailability(ctx context.Context, advisorID uuid.UUID, date string, dest interface{}) (bool, error) {
	raw, err := s.redisClient.Get(ctx, availabilityKey(advisorID, date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		s.log.Warnf("Failed to read availability cache for advisor %s on %s: %+v", advisorID, date, err)
		return false, fmt.Errorf("get availability cache: %w", err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// corrupt entry, treat as miss
		s.log.Warnf("Dropping unreadable availability cache entry for advisor %s on %s: %+v", advisorID, date, err)
		s.redisClient.Del(ctx, availabilityKey(advisorID, date))
		return false, nil
	}
	return true, nil
}

// AvailabilityGeneration returns the advisor's current cache generation. Read it
// before computing a day and pass it to SetAvailability.
func (s *SlotService) AvailabilityGeneration(ctx context.Context, advisorID uuid.UUID) (int64, error) {
	gen, err := s.redisClient.Get(ctx, generationKey(advisorID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get availability generation: %w", err)
	}
	return gen, nil
}

// SetAvailability caches value for advisor and date if no invalidation happened
// since generation was read. Returns ErrStaleAvailability otherwise.
func (s *SlotService) SetAvailability(ctx context.Context, advisorID uuid.UUID, date string, generation int64, value interface{}) error {
	if s.cacheTTL <= 0 {
		return nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal availability: %w", err)
	}

	mt := s.getAdvisorMutex(advisorID)
	mt.mu.Lock()
	defer mt.mu.Unlock()

	stored, err := fillIfCurrentScript.Run(ctx, s.redisClient,
		[]string{generationKey(advisorID), availabilityKey(advisorID, date)},
		strconv.FormatInt(generation, 10), raw, s.cacheTTL.Milliseconds(),
	).Int()
	if err != nil {
		s.log.Warnf("Failed to cache availability for advisor %s on %s: %+v", advisorID, date, err)
		return fmt.Errorf("set availability cache: %w", err)
	}
	if stored == 0 {
		return ErrStaleAvailability
	}
	return nil
}

// bumpGeneration invalidates every fill computed before this call.
func (s *SlotService) bumpGeneration(ctx context.Context, advisorID uuid.UUID) error {
	if err := s.redisClient.Incr(ctx, generationKey(advisorID)).Err(); err != nil {
		return fmt.Errorf("bump availability generation: %w", err)
	}
	return nil
}

// InvalidateDate drops the cached availability of one advisor day.
func (s *SlotService) InvalidateDate(ctx context.Context, advisorID uuid.UUID, date string) error {
	mt := s.getAdvisorMutex(advisorID)
	mt.mu.Lock()
	defer mt.mu.Unlock()

	pipe := s.redisClient.TxPipeline()
	pipe.Incr(ctx, generationKey(advisorID))
	pipe.Del(ctx, availabilityKey(advisorID, date))
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warnf("Failed to invalidate availability for advisor %s on %s: %+v", advisorID, date, err)
		return fmt.Errorf("invalidate availability: %w", err)
	}
	s.log.Debugf("Invalidated availability for advisor %s on %s", advisorID, date)
	return nil
}

// InvalidateAdvisor drops every cached day of an advisor. Used when the
// working-hours template or the availability flag changes.
func (s *SlotService) InvalidateAdvisor(ctx context.Context, advisorID uuid.UUID) error {
	mt := s.getAdvisorMutex(advisorID)
	mt.mu.Lock()
	defer mt.mu.Unlock()

	if err := s.bumpGeneration(ctx, advisorID); err != nil {
		s.log.Warnf("Failed to invalidate availability for advisor %s: %+v", advisorID, err)
		return err
	}

	purged, err := s.purgePattern(ctx, RedisAvailabilityKeyPrefix+advisorID.String()+":*")
	if err != nil {
		return err
	}
	s.log.Debugf("Invalidated %d cached days for advisor %s", purged, advisorID)
	return nil
}

// AcquireSlot takes the booking lock for the slot starting at start.
// Returns a token to pass to ReleaseSlot, or ErrSlotLocked.
func (s *SlotService) AcquireSlot(ctx context.Context, advisorID uuid.UUID, start time.Time) (string, error) {
	token := uuid.NewString()
	ok, err := s.redisClient.SetNX(ctx, slotLockKey(advisorID, start), token, s.lockTTL).Result()
	if err != nil {
		s.log.Warnf("Failed to acquire slot lock for advisor %s at %s: %+v", advisorID, start.Format(time.RFC3339), err)
		return "", fmt.Errorf("acquire slot lock: %w", err)
	}
	if !ok {
		return "", ErrSlotLocked
	}
	return token, nil
}

// ReleaseSlot releases a lock taken by AcquireSlot. Releasing an expired or
// foreign lock is a no-op.
func (s *SlotService) ReleaseSlot(ctx context.Context, advisorID uuid.UUID, start time.Time, token string) error {
	if err := releaseLockScript.Run(ctx, s.redisClient, []string{slotLockKey(advisorID, start)}, token).Err(); err != nil {
		s.log.Warnf("Failed to release slot lock for advisor %s at %s: %+v", advisorID, start.Format(time.RFC3339), err)
		return fmt.Errorf("release slot lock: %w", err)
	}
	return nil
}

// purgePattern deletes keys matching pattern in batches. A new pipeline is
// created and executed inside each batch.
func (s *SlotService) purgePattern(ctx context.Context, pattern string) (int, error) {
	var cursor uint64
	total := 0

	for {
		keys, next, err := s.redisClient.Scan(ctx, cursor, pattern, purgeBatchSize).Result()
		if err != nil {
			s.log.Warnf("Failed to scan keys %q: %+v", pattern, err)
			return total, fmt.Errorf("scan %q: %w", pattern, err)
		}

		if len(keys) > 0 {
			pipe := s.redisClient.Pipeline()
			for _, key := range keys {
				pipe.Del(ctx, key)
			}
			if _, err := pipe.Exec(ctx); err != nil {
				s.log.Warnf("Failed to delete batch of %d keys: %+v", len(keys), err)
				return total, fmt.Errorf("delete keys: %w", err)
			}
			total += len(keys)
		}

		cursor = next
		if cursor == 0 {
			return total, nil
		}

		select {
		case <-ctx.Done():
			return total, ctx.Err()
		default:
		}
	}
}

func availabilityKey(advisorID uuid.UUID, date string) string {
	return RedisAvailabilityKeyPrefix + advisorID.String() + ":" + date
}

func generationKey(advisorID uuid.UUID) string {
	return RedisAvailabilityGenKeyPrefix + advisorID.String()
}

func slotLockKey(advisorID uuid.UUID, start time.Time) string {
	return fmt.Sprintf("%s%s:%d", RedisSlotLockKeyPrefix, advisorID, start.Unix())
}

func (s *SlotService) getAdvisorMutex(advisorID uuid.UUID) *mutexWithTimestamp {
	mt, _ := s.advisorMu.LoadOrStore(advisorID, &mutexWithTimestamp{})
	result := mt.(*mutexWithTimestamp)
	result.lastUsed.Store(time.Now().Unix())
	return result
}

func (s *SlotService) cleanupMutexMapLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(mutexCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			s.log.Debug("Mutex cleanup goroutine stopping")
			return
		case <-ticker.C:
			s.cleanupStaleMutexes()
		}
	}
}

// cleanupStaleMutexes checks lastUsed while holding the lock so a concurrent
// getAdvisorMutex cannot be lost.
func (s *SlotService) cleanupStaleMutexes() {
	cutoffTime := time.Now().Add(-mutexStaleThreshold).Unix()
	var cleaned int

	s.advisorMu.Range(func(key, value any) bool {
		mt, ok := value.(*mutexWithTimestamp)
		if !ok {
			return true
		}
		if mt.mu.TryLock() {
			if mt.lastUsed.Load() < cutoffTime {
				s.advisorMu.Delete(key)
				cleaned++
			}
			mt.mu.Unlock()
		}
		return true
	})

	if cleaned > 0 {
		s.log.Debugf("Cleaned up %d stale mutexes", cleaned)
	}
}
