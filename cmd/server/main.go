package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fieldforge/backend/internal/config"
	"github.com/fieldforge/backend/internal/db"
	"github.com/fieldforge/backend/internal/dispatch"
	"github.com/fieldforge/backend/internal/geocode"
	httpapi "github.com/fieldforge/backend/internal/http"
	"github.com/fieldforge/backend/internal/llm"
	"github.com/fieldforge/backend/internal/notify"
	"github.com/fieldforge/backend/internal/service"
	"github.com/fieldforge/backend/internal/stream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "forge-backend").Logger()

	ctx := context.Background()
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure schema")
	}

	var classifier llm.Classifier
	if cfg.OpenAIKey == "" {
		classifier = llm.RuleClassifier{}
		logger.Info().Msg("using keyword rule classifier")
	} else {
		classifier = llm.NewOpenAIClassifier(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, logger)
		logger.Info().Str("model", cfg.OpenAIModel).Msg("using OpenAI classifier")
	}

	var broker stream.Broker
	if cfg.RedisURL == "" {
		broker = stream.NewMemoryBroker()
	} else {
		rb, err := stream.NewRedisBroker(cfg.RedisURL, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		defer rb.Close()
		broker = rb
		logger.Info().Msg("using redis event broker")
	}

	var notifier notify.Notifier
	if cfg.SMSGatewayURL == "" {
		notifier = notify.LogNotifier{Logger: logger, TrackingBase: cfg.TrackingBase}
	} else {
		notifier = notify.SMSNotifier{BaseURL: cfg.SMSGatewayURL, TrackingBase: cfg.TrackingBase}
		logger.Info().Msg("using SMS gateway notifier")
	}

	geocoder := geocode.NewNominatim(cfg.GeocoderURL, cfg.GeocoderRPS)

	engine := dispatch.New(dispatch.Config{
		AvgSpeedKmh: cfg.AvgSpeedKmh,
		MaxRadiusKm: cfg.MaxRadiusKm,
	})

	intake := &service.IntakeService{
		Store:      store,
		Classifier: classifier,
		Geocoder:   geocoder,
		Notifier:   notifier,
		Broker:     broker,
		Logger:     logger,
	}
	dispatcher := &service.DispatchService{
		Store:          store,
		Engine:         engine,
		Broker:         broker,
		Notifier:       notifier,
		Logger:         logger,
		SpeedKmh:       cfg.AvgSpeedKmh,
		CandidateLimit: cfg.CandidateLimit,
	}

	monitor := &service.SLAMonitor{
		Store:      store,
		Notifier:   notifier,
		Broker:     broker,
		Logger:     logger,
		Interval:   cfg.SLACheckInterval,
		WarnWindow: cfg.SLAWarnWindow,
	}
	monitorCtx, stopMonitor := context.WithCancel(ctx)
	defer stopMonitor()
	go monitor.Run(monitorCtx)

	router := httpapi.Router(cfg, store, intake, dispatcher, broker, notifier, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stopMonitor()
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
