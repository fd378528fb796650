package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/workbook/internal/analytics"
)

func report(active int) analytics.Report {
	return analytics.Report{ActiveThisWeek: active, ConfidenceChange: "0.4"}
}

func TestMemo_HitAndMiss(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(8)
	calls := 0
	compute := func() (analytics.Report, error) {
		calls++
		return report(3), nil
	}

	r, hit, err := Memo(ctx, c, "abc", nil, compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 3, r.ActiveThisWeek)

	r, hit, err = Memo(ctx, c, "abc", nil, compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 3, r.ActiveThisWeek)
	assert.Equal(t, 1, calls)

	_, hit, _ = Memo(ctx, c, "other", nil, compute)
	assert.False(t, hit)
	assert.Equal(t, 2, calls)
}

func TestMemo_ComputeErrorNotCached(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(8)
	boom := errors.New("boom")

	_, _, err := Memo(ctx, c, "k", nil, func() (analytics.Report, error) { return analytics.Report{}, boom })
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())
}

func TestMemo_NilAndNopCompute(t *testing.T) {
	ctx := context.Background()
	for _, c := range []ReportCache{nil, Nop{}} {
		calls := 0
		for i := 0; i < 2; i++ {
			_, hit, err := Memo(ctx, c, "k", nil, func() (analytics.Report, error) {
				calls++
				return report(1), nil
			})
			require.NoError(t, err)
			assert.False(t, hit)
		}
		assert.Equal(t, 2, calls)
	}
}

func TestMemory_EvictsOldest(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(2)
	require.NoError(t, m.Set(ctx, "a", report(1)))
	require.NoError(t, m.Set(ctx, "b", report(2)))
	require.NoError(t, m.Set(ctx, "a", report(10)))
	require.NoError(t, m.Set(ctx, "c", report(3)))

	_, ok, _ := m.Get(ctx, "a")
	assert.False(t, ok)
	r, ok, _ := m.Get(ctx, "b")
	assert.True(t, ok)
	assert.Equal(t, 2, r.ActiveThisWeek)
	assert.Equal(t, 2, m.Len())
}

func TestRedis_UnreachableFallsBackToCompute(t *testing.T) {
	opts := RedisOptions("127.0.0.1:1", "", 0)
	opts.MaxRetries = -1
	opts.DialTimeout = 200 * time.Millisecond
	r := NewRedis(redis.NewClient(opts), time.Hour)
	t.Cleanup(func() { _ = r.Close() })

	ctx := context.Background()
	_, _, err := r.Get(ctx, "k")
	require.Error(t, err)
	require.Error(t, r.Ping(ctx))

	rep, hit, err := Memo(ctx, r, "k", nil, func() (analytics.Report, error) { return report(5), nil })
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 5, rep.ActiveThisWeek)
}
