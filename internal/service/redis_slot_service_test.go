package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedDay struct {
	Date  string `json:"date"`
	Slots int    `json:"slots"`
}

func newTestSlotService(t *testing.T) (*SlotService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)

	svc := NewSlotService(client, log, time.Minute, 10*time.Second)
	t.Cleanup(svc.Stop)
	return svc, mr
}

func TestSlotService_AvailabilityCacheRoundTrip(t *testing.T) {
	svc, mr := newTestSlotService(t)
	ctx := context.Background()
	advisorID := uuid.New()

	var got cachedDay
	hit, err := svc.GetAvailability(ctx, advisorID, "2026-10-20", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.SetAvailability(ctx, advisorID, "2026-10-20", 0, cachedDay{Date: "2026-10-20", Slots: 8}))

	hit, err = svc.GetAvailability(ctx, advisorID, "2026-10-20", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 8, got.Slots)

	mr.FastForward(2 * time.Minute)
	hit, err = svc.GetAvailability(ctx, advisorID, "2026-10-20", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestSlotService_InvalidateAdvisorKeepsOtherAdvisors(t *testing.T) {
	svc, mr := newTestSlotService(t)
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	for _, date := range []string{"2026-10-20", "2026-10-21"} {
		require.NoError(t, svc.SetAvailability(ctx, a, date, 0, cachedDay{Date: date}))
	}
	require.NoError(t, svc.SetAvailability(ctx, b, "2026-10-20", 0, cachedDay{Date: "2026-10-20"}))

	require.NoError(t, svc.InvalidateAdvisor(ctx, a))

	assert.False(t, mr.Exists(availabilityKey(a, "2026-10-20")))
	assert.False(t, mr.Exists(availabilityKey(a, "2026-10-21")))
	assert.True(t, mr.Exists(availabilityKey(b, "2026-10-20")))

	require.NoError(t, svc.InvalidateDate(ctx, b, "2026-10-20"))
	assert.False(t, mr.Exists(availabilityKey(b, "2026-10-20")))
}

func TestSlotService_FillComputedBeforeInvalidationIsDropped(t *testing.T) {
	svc, mr := newTestSlotService(t)
	ctx := context.Background()
	advisorID := uuid.New()

	before, err := svc.AvailabilityGeneration(ctx, advisorID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), before)

	// a booking commits while the day is being computed
	require.NoError(t, svc.InvalidateDate(ctx, advisorID, "2026-10-20"))

	err = svc.SetAvailability(ctx, advisorID, "2026-10-20", before, cachedDay{Date: "2026-10-20", Slots: 8})
	assert.ErrorIs(t, err, ErrStaleAvailability)
	assert.False(t, mr.Exists(availabilityKey(advisorID, "2026-10-20")))

	after, err := svc.AvailabilityGeneration(ctx, advisorID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), after)
	require.NoError(t, svc.SetAvailability(ctx, advisorID, "2026-10-20", after, cachedDay{Date: "2026-10-20", Slots: 7}))

	var got cachedDay
	hit, err := svc.GetAvailability(ctx, advisorID, "2026-10-20", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 7, got.Slots)

	// advisor-wide invalidation voids fills of every day
	require.NoError(t, svc.InvalidateAdvisor(ctx, advisorID))
	err = svc.SetAvailability(ctx, advisorID, "2026-10-21", after, cachedDay{Date: "2026-10-21"})
	assert.ErrorIs(t, err, ErrStaleAvailability)
}

func TestSlotService_CorruptEntryIsMiss(t *testing.T) {
	svc, mr := newTestSlotService(t)
	advisorID := uuid.New()
	require.NoError(t, mr.Set(availabilityKey(advisorID, "2026-10-20"), "{not json"))

	var got cachedDay
	hit, err := svc.GetAvailability(context.Background(), advisorID, "2026-10-20", &got)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.False(t, mr.Exists(availabilityKey(advisorID, "2026-10-20")))
}

func TestSlotService_SlotLockIsExclusive(t *testing.T) {
	svc, mr := newTestSlotService(t)
	ctx := context.Background()
	advisorID := uuid.New()
	start := time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)

	token, err := svc.AcquireSlot(ctx, advisorID, start)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	_, err = svc.AcquireSlot(ctx, advisorID, start)
	assert.ErrorIs(t, err, ErrSlotLocked)

	// a different slot of the same advisor is independent
	_, err = svc.AcquireSlot(ctx, advisorID, start.Add(time.Hour))
	assert.NoError(t, err)

	// a foreign token does not release the lock
	require.NoError(t, svc.ReleaseSlot(ctx, advisorID, start, "someone-else"))
	assert.True(t, mr.Exists(slotLockKey(advisorID, start)))

	require.NoError(t, svc.ReleaseSlot(ctx, advisorID, start, token))
	_, err = svc.AcquireSlot(ctx, advisorID, start)
	assert.NoError(t, err)
}

func TestSlotService_SlotLockExpires(t *testing.T) {
	svc, mr := newTestSlotService(t)
	ctx := context.Background()
	advisorID := uuid.New()
	start := time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)

	_, err := svc.AcquireSlot(ctx, advisorID, start)
	require.NoError(t, err)

	mr.FastForward(11 * time.Second)
	_, err = svc.AcquireSlot(ctx, advisorID, start)
	assert.NoError(t, err)
}

func TestSlotService_PurgeOnStartup(t *testing.T) {
	svc, mr := newTestSlotService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.SetAvailability(ctx, uuid.New(), "2026-10-20", 0, cachedDay{}))
	}
	require.NoError(t, mr.Set("revoked_token:abc", "1"))

	require.NoError(t, svc.PurgeOnStartup(ctx))

	assert.Equal(t, []string{"revoked_token:abc"}, mr.Keys())
}

func TestSlotService_StopIsIdempotent(t *testing.T) {
	svc, _ := newTestSlotService(t)
	svc.Stop()
	svc.Stop()
}
