package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/teamflow-analytics/internal/domain/analytics"
	"github.com/cmlabs-hris/teamflow-analytics/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

// telemetryRepositoryImpl reads telemetry_samples and feature_usage.
type telemetryRepositoryImpl struct {
	db *database.DB
}

func NewTelemetryRepository(db *database.DB) analytics.TelemetryReader {
	return &telemetryRepositoryImpl{db: db}
}

func (r *telemetryRepositoryImpl) Telemetry(ctx context.Context, tr analytics.TimeRange) (*analytics.Telemetry, error) {
	// Both reads see the same snapshot of the feed
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to begin telemetry transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	ctx = WithTx(ctx, tx)
	q := GetQuerier(ctx, r.db)

	sampleQuery := `
		SELECT
			COUNT(*),
			COALESCE(AVG(uptime_percent), 0)::float8,
			COALESCE(AVG(response_time_ms), 0)::float8,
			COALESCE(SUM(error_count), 0)::bigint
		FROM telemetry_samples
		WHERE recorded_at >= $1 AND recorded_at < $2
	`

	var samples, errorCount int64
	var uptime, responseTime float64
	if err := q.QueryRow(ctx, sampleQuery, tr.Start, tr.End).Scan(&samples, &uptime, &responseTime, &errorCount); err != nil {
		return nil, fmt.Errorf("failed to get telemetry samples: %w", err)
	}

	t := analytics.SyntheticTelemetry()
	if samples > 0 {
		t.UptimePercent = uptime
		t.AverageResponseTimeMs = responseTime
		t.ErrorCount = errorCount
	}

	usageQuery := `
		SELECT feature, COUNT(*)
		FROM feature_usage
		WHERE occurred_at >= $1 AND occurred_at < $2
		GROUP BY feature
	`

	rows, err := q.Query(ctx, usageQuery, tr.Start, tr.End)
	if err != nil {
		return nil, fmt.Errorf("failed to get feature usage: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var feature string
		var n int64
		if err := rows.Scan(&feature, &n); err != nil {
			return nil, fmt.Errorf("failed to scan feature usage: %w", err)
		}
		t.FeatureUsage[analytics.Feature(feature)] = n
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return t, nil
}
