package monitor

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Liev03/DOexpertSystem/internal/advisor"
	"github.com/Liev03/DOexpertSystem/internal/period"
	"github.com/Liev03/DOexpertSystem/internal/publish"
	"github.com/Liev03/DOexpertSystem/internal/storage"
)

type fakePublisher struct {
	events []publish.Event
}

func (f *fakePublisher) Enqueue(evt publish.Event) bool {
	f.events = append(f.events, evt)
	return true
}

func newTestMonitor(t *testing.T) (*Monitor, storage.ReadingStore, *fakePublisher) {
	t.Helper()

	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "advisor.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	engine, err := advisor.NewEngine()
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	periods, err := period.NewResolver("UTC")
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	pub := &fakePublisher{}
	m, err := New(Config{
		Engine:        engine,
		Store:         store,
		Publisher:     pub,
		Periods:       periods,
		Schedule:      "@every 5m",
		Staleness:     30 * time.Minute,
		HistoryWindow: 10,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m, store, pub
}

func saveReading(t *testing.T, store storage.ReadingStore, do float64, at time.Time) {
	t.Helper()
	err := store.Save(context.Background(), &storage.Reading{
		Temperature:     26,
		PH:              7.0,
		DissolvedOxygen: do,
		Ammonia:         0.1,
		Salinity:        0,
		FishType:        "standard",
		RecordedAt:      at.UTC(),
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func TestRunAssessesFreshReading(t *testing.T) {
	m, store, pub := newTestMonitor(t)
	saveReading(t, store, 1.0, time.Now())

	m.run()

	stats := m.Stats()
	if stats.Assessed != 1 {
		t.Fatalf("Assessed = %d, want 1: %+v", stats.Assessed, stats)
	}

	if len(pub.events) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(pub.events))
	}
	evt := pub.events[0]
	if evt.Source != publish.SourceMonitor {
		t.Errorf("Source = %q, want %q", evt.Source, publish.SourceMonitor)
	}
	if evt.TopSeverity != 4 {
		t.Errorf("TopSeverity = %d, want 4", evt.TopSeverity)
	}
	if len(evt.Report.Warnings) == 0 {
		t.Error("expected warnings for critical oxygen")
	}
}

func TestRunSkipsStaleReading(t *testing.T) {
	m, store, pub := newTestMonitor(t)
	saveReading(t, store, 1.0, time.Now().Add(-2*time.Hour))

	m.run()

	stats := m.Stats()
	if stats.Stale != 1 || stats.Assessed != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(pub.events) != 0 {
		t.Errorf("expected no published events, got %d", len(pub.events))
	}
}

func TestRunOnEmptyStore(t *testing.T) {
	m, _, pub := newTestMonitor(t)

	m.run()

	stats := m.Stats()
	if stats.Empty != 1 || stats.Assessed != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(pub.events) != 0 {
		t.Errorf("expected no published events, got %d", len(pub.events))
	}
}

func TestRunAttachesHistoryForTrends(t *testing.T) {
	m, store, pub := newTestMonitor(t)
	saveReading(t, store, 6.5, time.Now().Add(-10*time.Minute))
	saveReading(t, store, 5.2, time.Now())

	m.run()

	if len(pub.events) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(pub.events))
	}
	var found bool
	for _, warning := range pub.events[0].Report.Warnings {
		if warning == "Oxygen dropped 1.3 mg/L since the last reading!" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a trend warning, got %v", pub.events[0].Report.Warnings)
	}
}

func TestNewRejectsBadSchedule(t *testing.T) {
	engine, err := advisor.NewEngine()
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	periods, err := period.NewResolver("UTC")
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "advisor.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	_, err = New(Config{
		Engine:   engine,
		Store:    store,
		Periods:  periods,
		Schedule: "every five minutes",
	})
	if err == nil {
		t.Fatal("expected schedule error, got nil")
	}
}
