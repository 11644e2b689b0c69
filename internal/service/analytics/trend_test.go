package analytics

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cmlabs-hris/teamflow-analytics/internal/domain/analytics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaySpans_LengthPerRange(t *testing.T) {
	cases := []struct {
		key  string
		want int
	}{
		{"1d", 2},
		{"7d", 8},
		{"30d", 31},
		{"90d", 91},
		{"1y", 366},
	}
	for _, c := range cases {
		t.Run(c.key, func(t *testing.T) {
			spans := DaySpans(ResolveRange(c.key, testNow))
			require.Len(t, spans, c.want)
			for i, s := range spans {
				assert.Equal(t, i, s.Index)
				assert.Equal(t, s.From.AddDate(0, 0, 1), s.To)
			}
		})
	}
}

func TestDaySpans_MidnightEnd(t *testing.T) {
	midnight := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	spans := DaySpans(analytics.TimeRange{Start: midnight.AddDate(0, 0, -1), End: midnight})

	require.Len(t, spans, 2)
	assert.Equal(t, midnight, spans[1].From)
}

func TestTrendBuilder_Build_ZeroFills(t *testing.T) {
	r := ResolveRange("7d", testNow)
	busy := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)

	series, err := NewTrendBuilder(2).Build(context.Background(), r, func(_ context.Context, from, _ time.Time) (int64, error) {
		if from.Equal(busy) {
			return 4, nil
		}
		return 0, nil
	})

	require.NoError(t, err)
	require.Len(t, series, 8)
	for i, p := range series {
		assert.Equal(t, i, p.DayIndex)
		if p.Date == "2026-03-05" {
			assert.Equal(t, 4.0, p.Value)
		} else {
			assert.Equal(t, 0.0, p.Value)
		}
	}
}

func TestTrendBuilder_Build_RespectsConcurrencyLimit(t *testing.T) {
	var running, peak atomic.Int64

	_, err := NewTrendBuilder(3).Build(context.Background(), ResolveRange("30d", testNow), func(context.Context, time.Time, time.Time) (int64, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		running.Add(-1)
		return 1, nil
	})

	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int64(3))
}

func TestTrendBuilder_Build_DayErrorFailsSeries(t *testing.T) {
	boom := errors.New("boom")

	series, err := NewTrendBuilder(0).Build(context.Background(), ResolveRange("7d", testNow), func(_ context.Context, from, _ time.Time) (int64, error) {
		if from.Day() == 4 {
			return 0, boom
		}
		return 1, nil
	})

	assert.ErrorIs(t, err, boom)
	assert.Nil(t, series)
}

func TestBucket(t *testing.T) {
	r := ResolveRange("7d", testNow)
	stamps := []time.Time{
		testNow.Add(-time.Hour),
		testNow.Add(-2 * time.Hour),
		testNow.AddDate(0, 0, -3),
		testNow.AddDate(0, 0, -30), // outside
	}

	series := Bucket(r, stamps)

	require.Len(t, series, 8)
	assert.Equal(t, 2.0, series[7].Value)
	assert.Equal(t, 1.0, series[4].Value)

	var total float64
	for _, p := range series {
		total += p.Value
	}
	assert.Equal(t, 3.0, total)
}

func TestResolveRange(t *testing.T) {
	cases := []struct {
		raw  string
		key  analytics.RangeKey
		days int
	}{
		{"1d", analytics.Range1Day, 1},
		{" 30D ", analytics.Range30Days, 30},
		{"1y", analytics.Range1Year, 365},
		{"", analytics.Range7Days, 7},
		{"2w", analytics.Range7Days, 7},
	}
	for _, c := range cases {
		r := ResolveRange(c.raw, testNow)
		assert.Equal(t, c.key, r.Key, "raw %q", c.raw)
		assert.Equal(t, testNow.AddDate(0, 0, -c.days), r.Start, "raw %q", c.raw)
		assert.Equal(t, testNow, r.End)
	}
}
