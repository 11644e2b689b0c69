package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cmlabs-hris/teamflow-analytics/internal/config"
	"github.com/cmlabs-hris/teamflow-analytics/internal/domain/analytics"
	appHTTP "github.com/cmlabs-hris/teamflow-analytics/internal/handler/http"
	"github.com/cmlabs-hris/teamflow-analytics/internal/pkg/cron"
	"github.com/cmlabs-hris/teamflow-analytics/internal/pkg/database"
	"github.com/cmlabs-hris/teamflow-analytics/internal/pkg/jwt"
	"github.com/cmlabs-hris/teamflow-analytics/internal/pkg/sse"
	"github.com/cmlabs-hris/teamflow-analytics/internal/repository/memory"
	"github.com/cmlabs-hris/teamflow-analytics/internal/repository/mongodb"
	"github.com/cmlabs-hris/teamflow-analytics/internal/repository/postgresql"
	analyticsService "github.com/cmlabs-hris/teamflow-analytics/internal/service/analytics"
	"github.com/go-chi/httplog/v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.App)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reader, telemetry, closeStore, err := openRecordStore(cfg)
	if err != nil {
		slog.Error("Error connecting to record store", "store", cfg.App.RecordStore, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	analyticsSvc := analyticsService.NewAnalyticsService(
		reader,
		telemetry,
		analyticsService.NewSlogReporter(logger),
		analyticsService.Options{TrendConcurrency: cfg.Analytics.TrendConcurrency},
	)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret)
	hub := sse.NewHub(10)
	unsubscribe := appHTTP.PublishSnapshots(analyticsSvc, hub)
	defer unsubscribe()

	scheduler := cron.NewScheduler()
	cron.NewAnalyticsJobs(analyticsSvc, cfg.Analytics.DefaultRange, cfg.Analytics.RefreshInterval).RegisterJobs(scheduler)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	analyticsHandler := appHTTP.NewAnalyticsHandler(analyticsSvc, JWTService, hub, cfg.Analytics.DefaultRange)
	router := appHTTP.NewRouter(logger, JWTService, analyticsHandler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown failed", "error", err)
		}
	}()

	slog.Info("Server running", "addr", server.Addr, "record_store", cfg.App.RecordStore)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
	}
}

func newLogger(app config.AppConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(app.LogLevel))); err != nil {
		level = slog.LevelInfo
	}

	logFormat := httplog.SchemaECS.Concise(app.Env == "development")
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "teamflow-analytics"),
		slog.String("version", "v1.0.0"),
		slog.String("env", app.Env),
	)
}

// openRecordStore connects the configured backend. The memory store has no
// telemetry feed, so system figures fall back to synthetic values.
func openRecordStore(cfg *config.Config) (analytics.RecordReader, analytics.TelemetryReader, func(), error) {
	switch cfg.App.RecordStore {
	case config.StorePostgres:
		db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
		if err != nil {
			return nil, nil, nil, err
		}
		return postgresql.NewRecordRepository(db), postgresql.NewTelemetryRepository(db), db.Close, nil

	case config.StoreMemory:
		return memory.NewStore(), nil, func() {}, nil

	default:
		db, err := database.NewMongoDB(cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := db.Close(ctx); err != nil {
				slog.Error("Error disconnecting from MongoDB", "error", err)
			}
		}
		return mongodb.NewRecordRepository(db), mongodb.NewTelemetryRepository(db), closeFn, nil
	}
}
