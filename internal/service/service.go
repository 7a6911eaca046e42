// Package service wires the advisory engine, storage, transports, and
// monitor into one runnable process.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Liev03/DOexpertSystem/internal/advisor"
	"github.com/Liev03/DOexpertSystem/internal/config"
	"github.com/Liev03/DOexpertSystem/internal/handlers"
	"github.com/Liev03/DOexpertSystem/internal/ingest"
	"github.com/Liev03/DOexpertSystem/internal/logger"
	"github.com/Liev03/DOexpertSystem/internal/metrics"
	"github.com/Liev03/DOexpertSystem/internal/middleware"
	"github.com/Liev03/DOexpertSystem/internal/monitor"
	"github.com/Liev03/DOexpertSystem/internal/period"
	"github.com/Liev03/DOexpertSystem/internal/publish"
	"github.com/Liev03/DOexpertSystem/internal/storage"
)

// Service is the high-level coordinator for ingestion, evaluation, and
// advisory delivery.
type Service struct {
	cfg     *config.Config
	engine  *advisor.Engine
	periods *period.Resolver

	store      storage.ReadingStore
	publisher  *publish.Publisher
	subscriber *ingest.Subscriber
	mon        *monitor.Monitor
	httpServer *http.Server
	wg         sync.WaitGroup
}

// New constructs a Service with the given config and engine.
func New(cfg *config.Config, engine *advisor.Engine, periods *period.Resolver) *Service {
	return &Service{
		cfg:     cfg,
		engine:  engine,
		periods: periods,
	}
}

// Run starts all components and blocks until the context is cancelled.
// Components shut down in reverse order: HTTP first, storage last.
func (s *Service) Run(ctx context.Context) error {
	log := logger.WithComponent("service")
	log.Info().Msg("advisory service starting")

	if err := s.initStore(); err != nil {
		log.Error().Err(err).Msg("failed to initialize storage")
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer s.store.Close()

	if s.cfg.PublishEnabled() {
		if err := s.initPublisher(); err != nil {
			log.Error().Err(err).Msg("failed to initialize publisher")
			return fmt.Errorf("failed to initialize publisher: %w", err)
		}
		defer s.publisher.Close()
	} else {
		log.Info().Msg("kafka publishing disabled, advisories stay local")
	}

	if s.cfg.IngestEnabled() {
		if err := s.initSubscriber(); err != nil {
			log.Error().Err(err).Msg("failed to initialize sensor ingest")
			return fmt.Errorf("failed to initialize sensor ingest: %w", err)
		}
		defer s.subscriber.Close()
	} else {
		log.Info().Msg("mqtt ingest disabled, readings arrive over HTTP only")
	}

	if err := s.initMonitor(); err != nil {
		log.Error().Err(err).Msg("failed to initialize monitor")
		return fmt.Errorf("failed to initialize monitor: %w", err)
	}
	s.mon.Start()
	defer s.mon.Stop()

	s.initHTTPServer()

	// Start HTTP server in background
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		log.Info().Str("addr", s.cfg.HTTPAddr).Msg("starting HTTP server")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	// Stats reporting goroutine
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.reportStats(ctx)
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	return s.shutdown()
}

// initStore opens the sensor reading store.
func (s *Service) initStore() error {
	store, err := storage.NewSQLiteStore(s.cfg.DBPath)
	if err != nil {
		return err
	}
	s.store = store
	return nil
}

// initPublisher initializes the Kafka advisory publisher.
func (s *Service) initPublisher() error {
	publisher, err := publish.New(publish.Config{
		Brokers:    s.cfg.KafkaBrokers,
		Topic:      s.cfg.KafkaTopic,
		BufferSize: s.cfg.PublishBuffer,
	})
	if err != nil {
		return err
	}
	s.publisher = publisher
	return nil
}

// initSubscriber initializes MQTT sensor ingestion.
func (s *Service) initSubscriber() error {
	subscriber, err := ingest.New(ingest.Config{
		Broker:   s.cfg.MQTTBroker,
		Topic:    s.cfg.MQTTTopic,
		ClientID: s.cfg.MQTTClientID,
	}, s.store)
	if err != nil {
		return err
	}
	s.subscriber = subscriber
	return nil
}

// initMonitor initializes the scheduled assessment of stored readings.
func (s *Service) initMonitor() error {
	cfg := monitor.Config{
		Engine:               s.engine,
		Store:                s.store,
		Periods:              s.periods,
		Schedule:             s.cfg.MonitorSchedule,
		Staleness:            s.cfg.MonitorStaleness,
		HistoryWindow:        s.cfg.HistoryWindow,
		MergeRecommendations: s.cfg.MergeRecommendations,
	}
	if s.publisher != nil {
		cfg.Publisher = s.publisher
	}

	mon, err := monitor.New(cfg)
	if err != nil {
		return err
	}
	s.mon = mon
	return nil
}

// initHTTPServer builds the router and the HTTP server.
func (s *Service) initHTTPServer() {
	router := mux.NewRouter()

	predictCfg := handlers.PredictConfig{
		Engine:               s.engine,
		Store:                s.store,
		Periods:              s.periods,
		HistoryWindow:        s.cfg.HistoryWindow,
		MergeRecommendations: s.cfg.MergeRecommendations,
	}
	if s.publisher != nil {
		predictCfg.Publisher = s.publisher
	}
	predictHandler := handlers.NewPredictHandler(predictCfg)
	readingsHandler := handlers.NewReadingsHandler(handlers.ReadingsConfig{Store: s.store})

	// API routes carry the middleware chain; operational endpoints stay bare
	// so metric scrapes do not log themselves.
	api := func(h http.Handler) http.Handler {
		return middleware.Chain(h, middleware.Recovery, middleware.Logging)
	}

	router.Handle("/predict", api(http.HandlerFunc(predictHandler.Predict))).Methods(http.MethodPost)
	router.Handle("/predict/latest", api(http.HandlerFunc(predictHandler.Latest))).Methods(http.MethodGet)
	router.Handle("/readings", api(readingsHandler)).Methods(http.MethodPost)

	router.HandleFunc("/healthz", s.healthHandler).Methods(http.MethodGet)
	router.HandleFunc("/stats", s.statsHandler).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	cors := gorillahandlers.CORS(
		gorillahandlers.AllowedOrigins(s.cfg.AllowedOrigins),
		gorillahandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		gorillahandlers.AllowedHeaders([]string{"Content-Type"}),
	)

	s.httpServer = &http.Server{
		Addr:         s.cfg.HTTPAddr,
		Handler:      cors(router),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// shutdown drains the HTTP server; the remaining components close through
// the deferred calls in Run, newest first.
func (s *Service) shutdown() error {
	log := logger.WithComponent("service")
	log.Info().Msg("initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info().Msg("stopping HTTP server")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	s.wg.Wait()
	log.Info().Msg("advisory service stopped")
	return nil
}

// reportStats periodically logs component statistics.
func (s *Service) reportStats(ctx context.Context) {
	log := logger.WithComponent("service")
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			evt := log.Info()
			monitorStats := s.mon.Stats()
			evt = evt.
				Uint64("monitor_assessed", monitorStats.Assessed).
				Uint64("monitor_stale", monitorStats.Stale)
			if s.publisher != nil {
				publisherStats := s.publisher.Stats()
				metrics.PublishQueueSize.Set(float64(publisherStats.QueueDepth))
				evt = evt.
					Uint64("published", publisherStats.Published).
					Uint64("publish_failed", publisherStats.Failed).
					Uint64("publish_dropped", publisherStats.Dropped).
					Int("publish_queue", publisherStats.QueueDepth)
			}
			if s.subscriber != nil {
				ingestStats := s.subscriber.Stats()
				evt = evt.
					Uint64("ingest_received", ingestStats.Received).
					Uint64("ingest_rejected", ingestStats.Rejected)
			}
			evt.Msg("stats")
		}
	}
}

// healthHandler reports storage reachability.
func (s *Service) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		http.Error(w, fmt.Sprintf("unhealthy: %v", err), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339))
}

// statsHandler returns current component statistics.
func (s *Service) statsHandler(w http.ResponseWriter, r *http.Request) {
	stats := map[string]any{
		"monitor": s.mon.Stats(),
		"engine": map[string]any{
			"rules":    s.engine.CatalogSize(),
			"profiles": s.engine.Profiles().IDs(),
			"policy":   s.engine.Policy().String(),
		},
	}
	if s.publisher != nil {
		stats["publisher"] = s.publisher.Stats()
	}
	if s.subscriber != nil {
		stats["ingest"] = s.subscriber.Stats()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(stats)
}
