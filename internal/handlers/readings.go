package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/Liev03/DOexpertSystem/internal/logger"
	"github.com/Liev03/DOexpertSystem/internal/metrics"
	"github.com/Liev03/DOexpertSystem/internal/storage"
)

// ReadingsHandler stores sensor readings submitted over HTTP.
type ReadingsHandler struct {
	store       storage.ReadingStore
	maxBodySize int64
}

// ReadingsConfig holds configuration for the readings handler.
type ReadingsConfig struct {
	Store       storage.ReadingStore
	MaxBodySize int64
}

// NewReadingsHandler creates a new readings handler.
func NewReadingsHandler(cfg ReadingsConfig) *ReadingsHandler {
	maxBodySize := cfg.MaxBodySize
	if maxBodySize == 0 {
		maxBodySize = 1 << 20 // 1MB default
	}
	return &ReadingsHandler{
		store:       cfg.Store,
		maxBodySize: maxBodySize,
	}
}

// ServeHTTP handles POST /readings.
func (h *ReadingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	reading := input.Reading(time.Now())
	if err := h.store.Save(r.Context(), reading); err != nil {
		log := logger.WithComponent("handlers")
		log.Error().Err(err).Msg("failed to store reading")
		writeError(w, http.StatusInternalServerError, "failed to store reading")
		return
	}

	metrics.ReadingsStoredTotal.WithLabelValues("http").Inc()
	log := logger.WithComponent("handlers")
	log.Debug().
		Int64("reading_id", reading.ID).
		Str("fish_type", reading.FishType).
		Msg("sensor reading stored")

	writeJSON(w, http.StatusAccepted, map[string]any{"id": reading.ID})
}
