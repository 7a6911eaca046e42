// Package ingest receives sensor readings from an MQTT broker and stores
// them for evaluation.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/Liev03/DOexpertSystem/internal/handlers"
	"github.com/Liev03/DOexpertSystem/internal/logger"
	"github.com/Liev03/DOexpertSystem/internal/metrics"
	"github.com/Liev03/DOexpertSystem/internal/storage"
)

// Config holds subscriber configuration.
type Config struct {
	Broker   string
	Topic    string
	ClientID string

	// SaveTimeout bounds each store write.
	SaveTimeout time.Duration
}

// Subscriber consumes sensor readings from an MQTT topic. Malformed or
// invalid payloads are counted and logged, never fatal.
type Subscriber struct {
	cfg    Config
	client mqtt.Client
	store  storage.ReadingStore

	received atomic.Uint64
	stored   atomic.Uint64
	rejected atomic.Uint64
}

// New connects to the broker and subscribes to the sensor topic.
func New(cfg Config, store storage.ReadingStore) (*Subscriber, error) {
	if cfg.Broker == "" {
		return nil, errors.New("broker address is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("topic is required")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "advisord"
	}
	if cfg.SaveTimeout <= 0 {
		cfg.SaveTimeout = 5 * time.Second
	}

	s := &Subscriber{cfg: cfg, store: store}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)

	// Subscribe inside OnConnect so reconnects restore the subscription.
	opts.OnConnect = func(client mqtt.Client) {
		log := logger.WithComponent("ingest")
		token := client.Subscribe(cfg.Topic, 1, s.handleMessage)
		token.Wait()
		if token.Error() != nil {
			log.Error().
				Err(token.Error()).
				Str("topic", cfg.Topic).
				Msg("failed to subscribe to sensor topic")
			return
		}
		log.Info().
			Str("broker", cfg.Broker).
			Str("topic", cfg.Topic).
			Msg("subscribed to sensor topic")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log := logger.WithComponent("ingest")
		log.Warn().Err(err).Msg("mqtt connection lost")
	}

	s.client = mqtt.NewClient(opts)
	if token := s.client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to mqtt broker: %w", token.Error())
	}
	return s, nil
}

// handleMessage validates and stores one sensor payload.
func (s *Subscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	s.received.Add(1)
	log := logger.WithComponent("ingest")

	var input handlers.ObservationInput
	if err := json.Unmarshal(msg.Payload(), &input); err != nil {
		s.rejected.Add(1)
		metrics.ReadingValidationErrors.WithLabelValues("malformed_json").Inc()
		log.Warn().Err(err).Str("topic", msg.Topic()).Msg("discarding malformed sensor payload")
		return
	}

	if err := input.Validate(); err != nil {
		s.rejected.Add(1)
		var verr *handlers.ValidationError
		if errors.As(err, &verr) {
			metrics.ReadingValidationErrors.WithLabelValues(verr.Type).Inc()
		}
		log.Warn().Err(err).Str("topic", msg.Topic()).Msg("discarding invalid sensor payload")
		return
	}

	reading := input.Reading(time.Now())

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.SaveTimeout)
	defer cancel()
	if err := s.store.Save(ctx, reading); err != nil {
		log.Error().Err(err).Msg("failed to store sensor reading")
		return
	}

	s.stored.Add(1)
	metrics.ReadingsStoredTotal.WithLabelValues("mqtt").Inc()
	log.Debug().
		Int64("reading_id", reading.ID).
		Str("fish_type", reading.FishType).
		Msg("sensor reading stored")
}

// Close unsubscribes and disconnects from the broker.
func (s *Subscriber) Close() {
	if token := s.client.Unsubscribe(s.cfg.Topic); token.Wait() && token.Error() != nil {
		log := logger.WithComponent("ingest")
		log.Warn().Err(token.Error()).Msg("failed to unsubscribe")
	}
	s.client.Disconnect(250)
}

// Stats holds subscriber counters.
type Stats struct {
	Received uint64 `json:"received"`
	Stored   uint64 `json:"stored"`
	Rejected uint64 `json:"rejected"`
}

// Stats returns a snapshot of the subscriber counters.
func (s *Subscriber) Stats() Stats {
	return Stats{
		Received: s.received.Load(),
		Stored:   s.stored.Load(),
		Rejected: s.rejected.Load(),
	}
}
