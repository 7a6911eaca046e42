// Package handlers exposes the advisory engine and the sensor store over HTTP.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/Liev03/DOexpertSystem/internal/advisor"
	"github.com/Liev03/DOexpertSystem/internal/logger"
	"github.com/Liev03/DOexpertSystem/internal/metrics"
	"github.com/Liev03/DOexpertSystem/internal/period"
	"github.com/Liev03/DOexpertSystem/internal/publish"
	"github.com/Liev03/DOexpertSystem/internal/storage"
)

// AdvisoryPublisher enqueues advisory events for downstream delivery.
// A nil publisher disables publishing without changing handler behavior.
type AdvisoryPublisher interface {
	Enqueue(evt publish.Event) bool
}

// PredictHandler evaluates observations against the rule catalog.
type PredictHandler struct {
	engine        *advisor.Engine
	store         storage.ReadingStore
	publisher     AdvisoryPublisher
	periods       *period.Resolver
	historyWindow int
	mergeRecs     bool
	maxBodySize   int64
}

// PredictConfig holds configuration for the predict handler.
type PredictConfig struct {
	Engine    *advisor.Engine
	Store     storage.ReadingStore
	Publisher AdvisoryPublisher
	Periods   *period.Resolver

	// HistoryWindow is how many stored readings feed trend rules.
	HistoryWindow int

	// MergeRecommendations collapses recommendations into one entry.
	MergeRecommendations bool

	MaxBodySize int64
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(cfg PredictConfig) *PredictHandler {
	historyWindow := cfg.HistoryWindow
	if historyWindow < 0 {
		historyWindow = 0
	}
	if historyWindow > advisor.HistoryWindow {
		historyWindow = advisor.HistoryWindow
	}

	maxBodySize := cfg.MaxBodySize
	if maxBodySize == 0 {
		maxBodySize = 1 << 20 // 1MB default
	}

	return &PredictHandler{
		engine:        cfg.Engine,
		store:         cfg.Store,
		publisher:     cfg.Publisher,
		periods:       cfg.Periods,
		historyWindow: historyWindow,
		mergeRecs:     cfg.MergeRecommendations,
		maxBodySize:   maxBodySize,
	}
}

// Predict handles POST /predict: evaluate an observation from the request body.
func (h *PredictHandler) Predict(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")
	if contentType != "application/json" && contentType != "" {
		writeError(w, http.StatusUnsupportedMediaType, "content-type must be application/json")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	var input ObservationInput
	if err := json.Unmarshal(body, &input); err != nil {
		metrics.ReadingValidationErrors.WithLabelValues(errMalformedJSON).Inc()
		writeError(w, http.StatusBadRequest, decodeErrorMessage(err))
		return
	}

	if err := input.Validate(); err != nil {
		rejectInvalid(w, err)
		return
	}

	obs := input.Observation(h.periods.Now())
	obs.History = h.recentHistory(r, 0)

	report := h.evaluate(obs, publish.SourceRequest)
	writeJSON(w, http.StatusOK, report)
}

// Latest handles GET /predict/latest: evaluate the newest stored reading.
func (h *PredictHandler) Latest(w http.ResponseWriter, r *http.Request) {
	reading, err := h.store.Latest(r.Context())
	if err != nil {
		if errors.Is(err, storage.ErrNoReadings) {
			writeError(w, http.StatusNotFound, "no sensor data available")
			return
		}
		log := logger.WithComponent("handlers")
		log.Error().Err(err).Msg("failed to load latest reading")
		writeError(w, http.StatusInternalServerError, "failed to load sensor data")
		return
	}

	obs := advisor.Observation{
		Parameters: reading.Parameters(),
		Profile:    reading.FishType,
		Period:     h.periods.At(reading.RecordedAt),
		History:    h.recentHistory(r, reading.ID),
	}

	report := h.evaluate(obs, publish.SourceLatest)
	writeJSON(w, http.StatusOK, report)
}

// evaluate runs the engine, records metrics, and hands the advisory to the
// publisher when one is configured.
func (h *PredictHandler) evaluate(obs advisor.Observation, source string) advisor.Report {
	start := time.Now()
	adv := h.engine.Evaluate(obs)
	observeEvaluation(obs.ProfileID(), adv, time.Since(start))

	var opts []advisor.ComposeOption
	if h.mergeRecs {
		opts = append(opts, advisor.WithMergedRecommendations())
	}
	report := advisor.Compose(adv, opts...)

	if h.publisher != nil {
		evt := publish.NewEvent(source, obs, adv, report)
		if !h.publisher.Enqueue(evt) {
			log := logger.WithComponent("handlers")
			log.Warn().
				Str("event_id", evt.ID).
				Str("source", source).
				Msg("advisory event dropped")
		}
	}
	return report
}

// recentHistory loads stored readings for trend rules, oldest first.
// excludeID skips the reading under evaluation so it is not its own history.
func (h *PredictHandler) recentHistory(r *http.Request, excludeID int64) []advisor.Snapshot {
	if h.store == nil || h.historyWindow == 0 {
		return nil
	}

	readings, err := h.store.Recent(r.Context(), h.historyWindow+1)
	if err != nil {
		log := logger.WithComponent("handlers")
		log.Warn().Err(err).Msg("failed to load reading history")
		return nil
	}
	return storage.History(readings, excludeID, h.historyWindow)
}

// observeEvaluation records evaluation metrics for one engine pass.
func observeEvaluation(profile string, adv advisor.Advisory, elapsed time.Duration) {
	outcome := "issues"
	if adv.Positive() {
		outcome = "positive"
	}
	metrics.EvaluationsTotal.WithLabelValues(profile, outcome).Inc()
	metrics.EvaluationDuration.Observe(elapsed.Seconds())
	metrics.IssuesPerEvaluation.Observe(float64(len(adv.Issues)))
	metrics.TopSeverity.Observe(float64(adv.TopSeverity()))
	for _, issue := range adv.Issues {
		metrics.IssuesTotal.WithLabelValues(string(issue.Category)).Inc()
	}
}

// rejectInvalid writes a 400 and counts the validation failure.
func rejectInvalid(w http.ResponseWriter, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		metrics.ReadingValidationErrors.WithLabelValues(verr.Type).Inc()
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
