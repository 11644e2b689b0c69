package mongodb

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/teamflow-analytics/internal/domain/analytics"
	"github.com/cmlabs-hris/teamflow-analytics/internal/pkg/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type telemetryRepositoryImpl struct {
	samples *mongo.Collection
	usage   *mongo.Collection
}

// NewTelemetryRepository reads the telemetry_samples and feature_usage
// collections written by the operations pipeline.
func NewTelemetryRepository(db *database.MongoDB) analytics.TelemetryReader {
	return &telemetryRepositoryImpl{
		samples: db.Database.Collection("telemetry_samples"),
		usage:   db.Database.Collection("feature_usage"),
	}
}

type sampleSummary struct {
	Samples        int64   `bson:"samples"`
	UptimePercent  float64 `bson:"uptime_percent"`
	ResponseTimeMs float64 `bson:"response_time_ms"`
	ErrorCount     int64   `bson:"error_count"`
}

type usageCount struct {
	Feature string `bson:"_id"`
	Count   int64  `bson:"count"`
}

func (r *telemetryRepositoryImpl) Telemetry(ctx context.Context, tr analytics.TimeRange) (*analytics.Telemetry, error) {
	window := bson.D{{Key: "$match", Value: bson.M{
		"recorded_at": bson.M{"$gte": tr.Start, "$lt": tr.End},
	}}}

	// 1. Uptime, latency and errors
	cursor, err := r.samples.Aggregate(ctx, mongo.Pipeline{
		window,
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "samples", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "uptime_percent", Value: bson.D{{Key: "$avg", Value: "$uptime_percent"}}},
			{Key: "response_time_ms", Value: bson.D{{Key: "$avg", Value: "$response_time_ms"}}},
			{Key: "error_count", Value: bson.D{{Key: "$sum", Value: "$error_count"}}},
		}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate telemetry samples: %w", err)
	}
	var summaries []sampleSummary
	if err := cursor.All(ctx, &summaries); err != nil {
		return nil, fmt.Errorf("failed to decode telemetry samples: %w", err)
	}

	t := analytics.SyntheticTelemetry()
	if len(summaries) > 0 && summaries[0].Samples > 0 {
		t.UptimePercent = summaries[0].UptimePercent
		t.AverageResponseTimeMs = summaries[0].ResponseTimeMs
		t.ErrorCount = summaries[0].ErrorCount
	}

	// 2. Feature usage counters
	usageWindow := bson.D{{Key: "$match", Value: bson.M{
		"occurred_at": bson.M{"$gte": tr.Start, "$lt": tr.End},
	}}}
	cursor, err = r.usage.Aggregate(ctx, mongo.Pipeline{
		usageWindow,
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$feature"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate feature usage: %w", err)
	}
	var counts []usageCount
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, fmt.Errorf("failed to decode feature usage: %w", err)
	}
	for _, c := range counts {
		t.FeatureUsage[analytics.Feature(c.Feature)] = c.Count
	}

	return t, nil
}
