package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/namefreezers/weatherhere/internal/config"
	"github.com/namefreezers/weatherhere/internal/events"
	"github.com/namefreezers/weatherhere/internal/forecast"
	"github.com/namefreezers/weatherhere/internal/repository"
	"github.com/namefreezers/weatherhere/internal/search"
	"github.com/namefreezers/weatherhere/internal/services"
	"github.com/namefreezers/weatherhere/internal/weather"
)

func main() {
	// 1) Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	// 2) Init logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("cannot initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3) Open the location store shared with the API
	repo, closeRepo, err := repository.NewLocationRepository(cfg, logger)
	if err != nil {
		logger.Fatal("failed to open location store", zap.Error(err))
	}
	defer closeRepo()

	// 4) Wire up gateway, event hub and state
	gateway, err := weather.BuildGateway(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize weather gateway", zap.Error(err))
	}

	var sinks []events.Sink
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := events.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic, logger.Named("kafka"))
		if err != nil {
			logger.Fatal("failed to connect to kafka", zap.Strings("brokers", cfg.KafkaBrokers), zap.Error(err))
		}
		defer kafka.Close()
		sinks = append(sinks, kafka)
	}
	hub := events.NewHub(256, logger.Named("events"), sinks...)
	hubDone := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(hubDone)
	}()

	forecastState := forecast.NewState(gateway, hub, logger.Named("forecast"))
	searchState := search.NewState(gateway, cfg.SearchLimit, hub, logger.Named("search"))
	locationSvc := services.NewLocationService(repo, forecastState, searchState, cfg, logger)

	// 5) Build cron (standard 5-field, minute resolution)
	c := cron.New()
	_, err = c.AddFunc(cfg.RefreshCron, func() {
		runCtx, cancel := context.WithTimeout(ctx, 2*cfg.HTTPTimeout)
		defer cancel()
		refreshRemembered(runCtx, locationSvc, forecastState, logger)
	})
	if err != nil {
		logger.Fatal("unable to schedule cron job", zap.String("cronSpec", cfg.RefreshCron), zap.Error(err))
	}

	logger.Info("starting scheduler", zap.String("cronSpec", cfg.RefreshCron))
	c.Start()

	<-ctx.Done()
	logger.Info("stopping scheduler")
	<-c.Stop().Done()
	<-hubDone
}

// refreshRemembered re-resolves the remembered or fallback location on every tick,
// since the API may have selected a new city since the last run.
func refreshRemembered(ctx context.Context, svc *services.LocationService, fc *forecast.State, logger *zap.Logger) {
	start := time.Now()
	coord, source, err := svc.Resolve(ctx, nil)
	if err != nil {
		logger.Warn("nothing to refresh", zap.Error(err))
		return
	}
	if err := svc.Refresh(ctx); err != nil {
		logger.Error("scheduled refresh failed", zap.Stringer("coord", coord), zap.Error(err))
		return
	}

	snap := fc.Snapshot()
	fields := []zap.Field{
		zap.Stringer("coord", coord),
		zap.String("source", string(source)),
		zap.Duration("took", time.Since(start)),
	}
	if snap.Current != nil {
		fields = append(fields,
			zap.String("city", snap.Current.Name),
			zap.String("temperature", weather.FormatTemperature(snap.Current.Main.Temp, weather.Celsius)),
		)
	}
	if snap.Forecast != nil {
		fields = append(fields, zap.Int("forecastEntries", len(snap.Forecast.List)))
	}
	logger.Info("scheduled refresh done", fields...)
}
