package publish_test

import (
	"testing"
	"time"

	"github.com/Liev03/DOexpertSystem/internal/advisor"
	"github.com/Liev03/DOexpertSystem/internal/publish"
)

func testConfig() publish.Config {
	return publish.Config{
		Brokers:      []string{"localhost:9092"},
		Topic:        "water-quality.advisories",
		BufferSize:   8,
		WriteTimeout: time.Second,
	}
}

func TestNewRejectsIncompleteConfig(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*publish.Config)
	}{
		{"no brokers", func(c *publish.Config) { c.Brokers = nil }},
		{"no topic", func(c *publish.Config) { c.Topic = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mod(&cfg)
			if _, err := publish.New(cfg); err == nil {
				t.Fatal("expected config error, got nil")
			}
		})
	}
}

func TestNewEventCarriesEvaluation(t *testing.T) {
	engine, err := advisor.NewEngine()
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	obs := advisor.Observation{
		Parameters: map[advisor.Parameter]float64{
			advisor.ParamDissolvedOxygen: 1.0,
			advisor.ParamTemperature:     26,
			advisor.ParamPH:              7.0,
			advisor.ParamAmmonia:         0.1,
			advisor.ParamSalinity:        0,
		},
		Profile: "catfish",
		Period:  advisor.PeriodNight,
	}
	adv := engine.Evaluate(obs)

	evt := publish.NewEvent(publish.SourceMonitor, obs, adv, advisor.Compose(adv))

	if evt.ID == "" {
		t.Error("expected a generated event id")
	}
	if evt.Profile != "catfish" {
		t.Errorf("Profile = %q, want %q", evt.Profile, "catfish")
	}
	if evt.Period != advisor.PeriodNight {
		t.Errorf("Period = %q, want %q", evt.Period, advisor.PeriodNight)
	}
	if evt.Source != publish.SourceMonitor {
		t.Errorf("Source = %q, want %q", evt.Source, publish.SourceMonitor)
	}
	if evt.TopSeverity != adv.TopSeverity() {
		t.Errorf("TopSeverity = %d, want %d", evt.TopSeverity, adv.TopSeverity())
	}
	if evt.GeneratedAt.IsZero() {
		t.Error("expected GeneratedAt to be set")
	}
	if len(evt.Report.Warnings) == 0 {
		t.Error("expected report warnings for critical oxygen")
	}
}

func TestEnqueueAfterCloseIsRejected(t *testing.T) {
	p, err := publish.New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if p.Enqueue(publish.Event{ID: "evt-1"}) {
		t.Error("Enqueue after Close should report false")
	}

	stats := p.Stats()
	if stats.Dropped != 1 {
		t.Errorf("Dropped = %d, want 1", stats.Dropped)
	}
	if stats.Published != 0 {
		t.Errorf("Published = %d, want 0", stats.Published)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	p, err := publish.New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
