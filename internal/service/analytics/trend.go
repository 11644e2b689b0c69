package analytics

import (
	"context"
	"time"

	"github.com/cmlabs-hris/teamflow-analytics/internal/domain/analytics"
	"golang.org/x/sync/errgroup"
)

const defaultTrendConcurrency = 8

// DaySpan is one calendar day of a range, [From, To).
type DaySpan struct {
	Index int
	From  time.Time
	To    time.Time
}

// DayCounter counts the records of interest inside [from, to).
type DayCounter func(ctx context.Context, from, to time.Time) (int64, error)

// TrendBuilder produces dense one-point-per-day series.
type TrendBuilder struct {
	concurrency int
}

func NewTrendBuilder(concurrency int) *TrendBuilder {
	if concurrency <= 0 {
		concurrency = defaultTrendConcurrency
	}
	return &TrendBuilder{concurrency: concurrency}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaySpans splits r into calendar days in r.Start's location, inclusive of
// the days containing both Start and End.
func DaySpans(r analytics.TimeRange) []DaySpan {
	loc := r.Start.Location()
	first := startOfDay(r.Start)
	last := startOfDay(r.End.In(loc))
	if last.Before(first) {
		last = first
	}

	var spans []DaySpan
	for d, i := first, 0; !d.After(last); d, i = d.AddDate(0, 0, 1), i+1 {
		spans = append(spans, DaySpan{Index: i, From: d, To: d.AddDate(0, 0, 1)})
	}
	return spans
}

func zeroSeries(spans []DaySpan) analytics.TrendSeries {
	series := make(analytics.TrendSeries, len(spans))
	for i, span := range spans {
		series[i] = analytics.TrendPoint{
			DayIndex: span.Index,
			Date:     span.From.Format("2006-01-02"),
			DayStart: span.From,
		}
	}
	return series
}

// Build queries count once per day, concurrently, and returns a series with
// a point for every day. Any failed day fails the whole series.
func (b *TrendBuilder) Build(ctx context.Context, r analytics.TimeRange, count DayCounter) (analytics.TrendSeries, error) {
	spans := DaySpans(r)
	series := zeroSeries(spans)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for _, span := range spans {
		span := span
		g.Go(func() error {
			n, err := count(gCtx, span.From, span.To)
			if err != nil {
				return err
			}
			if n > 0 {
				series[span.Index].Value = float64(n)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return series, nil
}

// Bucket builds a series from timestamps already in memory. Timestamps
// outside the range's days are ignored.
func Bucket(r analytics.TimeRange, stamps []time.Time) analytics.TrendSeries {
	spans := DaySpans(r)
	series := zeroSeries(spans)
	if len(spans) == 0 {
		return series
	}

	loc := r.Start.Location()
	first := civilDay(spans[0].From)
	for _, ts := range stamps {
		idx := civilDay(ts.In(loc)) - first
		if idx >= 0 && idx < len(series) {
			series[idx].Value++
		}
	}
	return series
}

// civilDay numbers calendar days so DST shifts do not skew day differences.
func civilDay(t time.Time) int {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return int(d.Unix() / 86400)
}
