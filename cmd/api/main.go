package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/namefreezers/weatherhere/internal/config"
	"github.com/namefreezers/weatherhere/internal/events"
	"github.com/namefreezers/weatherhere/internal/forecast"
	"github.com/namefreezers/weatherhere/internal/handlers"
	"github.com/namefreezers/weatherhere/internal/repository"
	"github.com/namefreezers/weatherhere/internal/search"
	"github.com/namefreezers/weatherhere/internal/services"
	"github.com/namefreezers/weatherhere/internal/weather"
)

func main() {
	// 1) Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	// 2) Initialize structured logger
	var logger *zap.Logger
	if cfg.LogLevel == "debug" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
		gin.SetMode(gin.ReleaseMode)
	}
	if err != nil {
		log.Fatalf("cannot initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3) Open the location store
	repo, closeRepo, err := repository.NewLocationRepository(cfg, logger)
	if err != nil {
		logger.Fatal("failed to open location store", zap.Error(err))
	}
	defer closeRepo()

	// 4) Build the weather gateway
	gateway, err := weather.BuildGateway(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize weather gateway", zap.Error(err))
	}

	// 5) Start the event hub, forwarding to Kafka when brokers are configured
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

	// 6) Wire up state and the location service
	forecastState := forecast.NewState(gateway, hub, logger.Named("forecast"))
	searchState := search.NewState(gateway, cfg.SearchLimit, hub, logger.Named("search"))
	locationSvc := services.NewLocationService(repo, forecastState, searchState, cfg, logger)

	// 7) Show something before any client reports a live location
	if coord, source, err := locationSvc.Resolve(ctx, nil); err != nil {
		logger.Info("no initial location, waiting for a client", zap.Error(err))
	} else {
		logger.Info("initial location", zap.Stringer("coord", coord), zap.String("source", string(source)))
		go func() {
			if err := locationSvc.Refresh(ctx); err != nil {
				logger.Warn("initial refresh failed", zap.Error(err))
			}
		}()
	}

	// 8) Set up Gin router and handlers
	router := handlers.NewRouter(handlers.Deps{
		Hub:      hub,
		Forecast: forecastState,
		Search:   searchState,
		Location: locationSvc,
		Debounce: search.DefaultDebounce,
	}, logger)

	// 9) Start HTTP server and wait for a shutdown signal
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("starting API server", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	if err := locationSvc.EnterBackground(shutdownCtx, time.Now()); err != nil {
		logger.Warn("could not record background time", zap.Error(err))
	}
	<-hubDone
}
