// Package monitor periodically re-evaluates the newest stored reading so
// deteriorating water quality is noticed between client requests.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Liev03/DOexpertSystem/internal/advisor"
	"github.com/Liev03/DOexpertSystem/internal/logger"
	"github.com/Liev03/DOexpertSystem/internal/metrics"
	"github.com/Liev03/DOexpertSystem/internal/period"
	"github.com/Liev03/DOexpertSystem/internal/publish"
	"github.com/Liev03/DOexpertSystem/internal/storage"
)

// Publisher enqueues advisory events for downstream delivery.
type Publisher interface {
	Enqueue(evt publish.Event) bool
}

// Config holds monitor configuration and dependencies.
type Config struct {
	Engine    *advisor.Engine
	Store     storage.ReadingStore
	Publisher Publisher
	Periods   *period.Resolver

	// Schedule is a cron spec or descriptor such as "@every 5m".
	Schedule string

	// Staleness is the maximum reading age worth assessing.
	Staleness time.Duration

	// HistoryWindow is how many prior readings feed trend rules.
	HistoryWindow int

	// MergeRecommendations collapses recommendations into one entry.
	MergeRecommendations bool
}

// Monitor runs scheduled assessments of the latest sensor reading.
type Monitor struct {
	cfg  Config
	cron *cron.Cron

	assessed atomic.Uint64
	stale    atomic.Uint64
	empty    atomic.Uint64
	errored  atomic.Uint64
}

// New creates a monitor with its schedule registered but not started.
func New(cfg Config) (*Monitor, error) {
	if cfg.Engine == nil {
		return nil, errors.New("engine is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.Periods == nil {
		return nil, errors.New("period resolver is required")
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 5m"
	}
	if cfg.Staleness <= 0 {
		cfg.Staleness = 30 * time.Minute
	}
	if cfg.HistoryWindow < 0 {
		cfg.HistoryWindow = 0
	}
	if cfg.HistoryWindow > advisor.HistoryWindow {
		cfg.HistoryWindow = advisor.HistoryWindow
	}

	m := &Monitor{cfg: cfg, cron: cron.New()}
	if _, err := m.cron.AddFunc(cfg.Schedule, m.run); err != nil {
		return nil, fmt.Errorf("failed to register monitor schedule %q: %w", cfg.Schedule, err)
	}
	return m, nil
}

// Start runs one assessment immediately, then follows the schedule.
func (m *Monitor) Start() {
	m.run()
	m.cron.Start()
	log := logger.WithComponent("monitor")
	log.Info().
		Str("schedule", m.cfg.Schedule).
		Dur("staleness", m.cfg.Staleness).
		Msg("water-quality monitor started")
}

// Stop halts the schedule and waits for a running assessment to finish.
func (m *Monitor) Stop() {
	<-m.cron.Stop().Done()
	log := logger.WithComponent("monitor")
	log.Info().Msg("water-quality monitor stopped")
}

// run performs one assessment of the newest stored reading.
func (m *Monitor) run() {
	log := logger.WithComponent("monitor")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	reading, err := m.cfg.Store.Latest(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNoReadings) {
			m.empty.Add(1)
			metrics.MonitorRunsTotal.WithLabelValues("empty").Inc()
			log.Debug().Msg("no sensor readings to assess")
			return
		}
		m.errored.Add(1)
		metrics.MonitorRunsTotal.WithLabelValues("error").Inc()
		log.Error().Err(err).Msg("failed to load latest reading")
		return
	}

	age := time.Since(reading.RecordedAt)
	if age > m.cfg.Staleness {
		m.stale.Add(1)
		metrics.MonitorRunsTotal.WithLabelValues("stale").Inc()
		log.Warn().
			Dur("age", age).
			Dur("staleness", m.cfg.Staleness).
			Msg("latest reading too old to assess")
		return
	}

	obs := advisor.Observation{
		Parameters: reading.Parameters(),
		Profile:    reading.FishType,
		Period:     m.cfg.Periods.At(reading.RecordedAt),
		History:    m.history(ctx, reading.ID),
	}

	start := time.Now()
	adv := m.cfg.Engine.Evaluate(obs)
	outcome := "issues"
	if adv.Positive() {
		outcome = "positive"
	}
	metrics.EvaluationsTotal.WithLabelValues(obs.ProfileID(), outcome).Inc()
	metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
	metrics.IssuesPerEvaluation.Observe(float64(len(adv.Issues)))
	metrics.TopSeverity.Observe(float64(adv.TopSeverity()))
	for _, issue := range adv.Issues {
		metrics.IssuesTotal.WithLabelValues(string(issue.Category)).Inc()
	}

	m.assessed.Add(1)
	metrics.MonitorRunsTotal.WithLabelValues("assessed").Inc()

	if adv.Positive() {
		log.Debug().
			Str("profile", obs.ProfileID()).
			Msg("water quality nominal")
	} else {
		log.Info().
			Str("profile", obs.ProfileID()).
			Int("issues", len(adv.Issues)).
			Int("top_severity", adv.TopSeverity()).
			Strs("warnings", adv.Warnings()).
			Msg("water-quality issues detected")
	}

	if m.cfg.Publisher == nil {
		return
	}

	var opts []advisor.ComposeOption
	if m.cfg.MergeRecommendations {
		opts = append(opts, advisor.WithMergedRecommendations())
	}
	report := advisor.Compose(adv, opts...)

	evt := publish.NewEvent(publish.SourceMonitor, obs, adv, report)
	if !m.cfg.Publisher.Enqueue(evt) {
		log.Warn().Str("event_id", evt.ID).Msg("advisory event dropped")
	}
}

// history loads prior readings for trend rules, oldest first.
func (m *Monitor) history(ctx context.Context, excludeID int64) []advisor.Snapshot {
	if m.cfg.HistoryWindow == 0 {
		return nil
	}
	readings, err := m.cfg.Store.Recent(ctx, m.cfg.HistoryWindow+1)
	if err != nil {
		log := logger.WithComponent("monitor")
		log.Warn().Err(err).Msg("failed to load reading history")
		return nil
	}
	return storage.History(readings, excludeID, m.cfg.HistoryWindow)
}

// Stats holds monitor run counters.
type Stats struct {
	Assessed uint64 `json:"assessed"`
	Stale    uint64 `json:"stale"`
	Empty    uint64 `json:"empty"`
	Errors   uint64 `json:"errors"`
}

// Stats returns a snapshot of the monitor counters.
func (m *Monitor) Stats() Stats {
	return Stats{
		Assessed: m.assessed.Load(),
		Stale:    m.stale.Load(),
		Empty:    m.empty.Load(),
		Errors:   m.errored.Load(),
	}
}
