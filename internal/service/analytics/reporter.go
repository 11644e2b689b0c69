package analytics

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cmlabs-hris/teamflow-analytics/internal/domain/analytics"
)

// SlogReporter is the default error reporting collaborator.
type SlogReporter struct {
	logger *slog.Logger
}

func NewSlogReporter(logger *slog.Logger) *SlogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogReporter{logger: logger}
}

func (r *SlogReporter) Report(ctx context.Context, tag string, err error) {
	kind := "unknown"
	var ce *analytics.CategoryError
	if errors.As(err, &ce) {
		kind = ce.KindName()
	}
	r.logger.ErrorContext(ctx, "Analytics category failed", "tag", tag, "kind", kind, "error", err)
}
