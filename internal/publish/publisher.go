// Package publish delivers advisory events to Kafka so downstream alerting
// and dashboards can react to water-quality findings.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/Liev03/DOexpertSystem/internal/advisor"
	"github.com/Liev03/DOexpertSystem/internal/logger"
	"github.com/Liev03/DOexpertSystem/internal/metrics"
)

// ErrPublisherClosed is returned when events are handed to a closed publisher.
var ErrPublisherClosed = errors.New("publisher is closed")

// Event sources.
const (
	SourceRequest = "request"
	SourceLatest  = "latest"
	SourceMonitor = "monitor"
)

// Event is one advisory evaluation on the wire.
type Event struct {
	ID          string         `json:"id"`
	Profile     string         `json:"profile"`
	Period      advisor.Period `json:"period"`
	Source      string         `json:"source"`
	GeneratedAt time.Time      `json:"generated_at"`
	TopSeverity int            `json:"top_severity"`
	Report      advisor.Report `json:"report"`
}

// NewEvent assembles an advisory event for the given evaluation.
func NewEvent(source string, obs advisor.Observation, adv advisor.Advisory, report advisor.Report) Event {
	return Event{
		ID:          uuid.New().String(),
		Profile:     obs.ProfileID(),
		Period:      obs.Period,
		Source:      source,
		GeneratedAt: time.Now().UTC(),
		TopSeverity: adv.TopSeverity(),
		Report:      report,
	}
}

// Config holds publisher configuration.
type Config struct {
	Brokers      []string
	Topic        string
	BufferSize   int
	WriteTimeout time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

// Publisher delivers advisory events through a buffered queue and a single
// drain goroutine, so evaluation paths never block on the broker. A full
// queue drops the event and counts the drop.
type Publisher struct {
	cfg    Config
	writer *kafka.Writer
	queue  chan Event
	quit   chan struct{}
	done   chan struct{}
	closed atomic.Bool

	published atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
}

// New creates a publisher and starts its drain goroutine.
func New(cfg Config) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("topic is required")
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 256
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 100 * time.Millisecond
	}

	p := &Publisher{
		cfg: cfg,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{}, // Partition by profile
			WriteTimeout: cfg.WriteTimeout,
			RequiredAcks: kafka.RequireOne,
			Async:        false, // Sync for reliability
		},
		queue: make(chan Event, cfg.BufferSize),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go p.drain()

	log := logger.WithComponent("publisher")
	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Int("buffer", cfg.BufferSize).
		Msg("advisory publisher started")
	return p, nil
}

// Enqueue hands an event to the drain goroutine without blocking. It reports
// false when the queue is full or the publisher is closed.
func (p *Publisher) Enqueue(evt Event) bool {
	if p.closed.Load() {
		p.dropped.Add(1)
		metrics.PublishTotal.WithLabelValues("dropped").Inc()
		return false
	}
	select {
	case p.queue <- evt:
		metrics.PublishQueueSize.Set(float64(len(p.queue)))
		return true
	default:
		p.dropped.Add(1)
		metrics.PublishTotal.WithLabelValues("dropped").Inc()
		return false
	}
}

func (p *Publisher) drain() {
	for {
		select {
		case evt := <-p.queue:
			p.deliver(evt)
			metrics.PublishQueueSize.Set(float64(len(p.queue)))
		case <-p.quit:
			// Flush whatever is still buffered before exiting.
			for {
				select {
				case evt := <-p.queue:
					p.deliver(evt)
				default:
					close(p.done)
					return
				}
			}
		}
	}
}

// deliver publishes one event with exponential backoff retry.
func (p *Publisher) deliver(evt Event) {
	log := logger.WithComponent("publisher")

	data, err := json.Marshal(evt)
	if err != nil {
		log.Error().Err(err).Str("event_id", evt.ID).Msg("failed to serialize advisory event")
		p.failed.Add(1)
		metrics.PublishTotal.WithLabelValues("failed").Inc()
		return
	}

	msg := kafka.Message{
		Key:   []byte(evt.Profile),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(evt.ID)},
			{Key: "source", Value: []byte(evt.Source)},
		},
		Time: evt.GeneratedAt,
	}

	start := time.Now()
	var lastErr error
	backoff := p.cfg.RetryBackoff

	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			log.Warn().
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("retrying advisory publish")
			time.Sleep(backoff)
			backoff *= 2 // Exponential backoff
		}

		ctx, cancel := context.WithTimeout(context.Background(), p.cfg.WriteTimeout)
		err := p.writer.WriteMessages(ctx, msg)
		cancel()
		if err == nil {
			p.published.Add(1)
			metrics.PublishTotal.WithLabelValues("success").Inc()
			metrics.PublishDuration.Observe(time.Since(start).Seconds())
			log.Debug().
				Str("event_id", evt.ID).
				Str("source", evt.Source).
				Int("top_severity", evt.TopSeverity).
				Msg("advisory event published")
			return
		}
		lastErr = err
	}

	p.failed.Add(1)
	metrics.PublishTotal.WithLabelValues("failed").Inc()
	log.Error().
		Err(lastErr).
		Str("event_id", evt.ID).
		Int("attempts", p.cfg.MaxRetries+1).
		Msg("advisory publish failed after all retries")
}

// Close flushes the queue, stops the drain goroutine, and closes the writer.
func (p *Publisher) Close() error {
	if p.closed.Swap(true) {
		return nil // Already closed
	}
	close(p.quit)
	<-p.done
	return p.writer.Close()
}

// Stats holds publisher counters.
type Stats struct {
	Published  uint64 `json:"published"`
	Failed     uint64 `json:"failed"`
	Dropped    uint64 `json:"dropped"`
	QueueDepth int    `json:"queue_depth"`
}

// Stats returns a snapshot of the publisher counters.
func (p *Publisher) Stats() Stats {
	return Stats{
		Published:  p.published.Load(),
		Failed:     p.failed.Load(),
		Dropped:    p.dropped.Load(),
		QueueDepth: len(p.queue),
	}
}
