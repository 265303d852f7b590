package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func localTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.ParseInLocation("2006-01-02 15:04:05", value, time.Local)
	require.NoError(t, err)
	return ts
}

func TestGetTodayCreatesZeroRow(t *testing.T) {
	s := newTestStore(t)
	now := localTime(t, "2026-03-02 09:00:00")

	log, err := s.GetToday(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, "2026-03-02", log.Date)
	require.Equal(t, time.Duration(0), log.TotalActive)
	require.Equal(t, now.Unix(), log.LastUpdate.Unix())
}

func TestGetTodayIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	first := localTime(t, "2026-03-02 09:00:00")
	later := localTime(t, "2026-03-02 11:30:00")

	_, err := s.GetToday(ctx, first)
	require.NoError(t, err)

	// A later read on the same date must return the original row, not
	// recreate it with a newer last_update.
	log, err := s.GetToday(ctx, later)
	require.NoError(t, err)
	require.Equal(t, first.Unix(), log.LastUpdate.Unix())
}

func TestUpsertTodayAdvancesTotal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	t0 := localTime(t, "2026-03-02 09:00:00")
	t1 := t0.Add(time.Minute)

	log, err := s.GetToday(ctx, t0)
	require.NoError(t, err)

	require.NoError(t, s.UpsertToday(ctx, t1, log.TotalActive+time.Minute, log.TotalActive))

	log, err = s.GetToday(ctx, t1)
	require.NoError(t, err)
	require.Equal(t, time.Minute, log.TotalActive)
	require.Equal(t, t1.Unix(), log.LastUpdate.Unix())
}

func TestUpsertTodayRejectsDecrease(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := localTime(t, "2026-03-02 09:00:00")

	log, err := s.GetToday(ctx, now)
	require.NoError(t, err)
	require.NoError(t, s.UpsertToday(ctx, now, 5*time.Minute, log.TotalActive))

	err = s.UpsertToday(ctx, now, 4*time.Minute, 5*time.Minute)
	require.ErrorIs(t, err, ErrMonotonicity)

	// The stored total is untouched by the rejected write.
	log, err = s.GetToday(ctx, now)
	require.NoError(t, err)
	require.Equal(t, 5*time.Minute, log.TotalActive)
}

func TestUpsertTodayDetectsConcurrentUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := localTime(t, "2026-03-02 09:00:00")

	log, err := s.GetToday(ctx, now)
	require.NoError(t, err)

	// Two invocations read the same prior total; the first write wins,
	// the second is rejected instead of silently losing a delta.
	require.NoError(t, s.UpsertToday(ctx, now, time.Minute, log.TotalActive))
	err = s.UpsertToday(ctx, now, time.Minute, log.TotalActive)
	require.ErrorIs(t, err, ErrConcurrentUpdate)
}

func TestDayRolloverIsolation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	day1 := localTime(t, "2026-03-02 23:59:00")
	day2 := localTime(t, "2026-03-03 00:00:30")

	log, err := s.GetToday(ctx, day1)
	require.NoError(t, err)
	require.NoError(t, s.UpsertToday(ctx, day1, 8*time.Hour, log.TotalActive))

	// The new date gets a fresh zero row keyed to the rollover time.
	log2, err := s.GetToday(ctx, day2)
	require.NoError(t, err)
	require.Equal(t, "2026-03-03", log2.Date)
	require.Equal(t, time.Duration(0), log2.TotalActive)
	require.Equal(t, day2.Unix(), log2.LastUpdate.Unix())

	// The prior day's row is unchanged.
	old, err := s.GetLog(ctx, "2026-03-02")
	require.NoError(t, err)
	require.Equal(t, 8*time.Hour, old.TotalActive)
}

func TestGetLogNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetLog(context.Background(), "1999-01-01")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPruneBefore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, day := range []string{"2025-01-01 10:00:00", "2025-06-01 10:00:00", "2026-03-02 10:00:00"} {
		_, err := s.GetToday(ctx, localTime(t, day))
		require.NoError(t, err)
	}

	n, err := s.PruneBefore(ctx, localTime(t, "2025-12-31 00:00:00"))
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	_, err = s.GetLog(ctx, "2025-01-01")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetLog(ctx, "2026-03-02")
	require.NoError(t, err)
}
