package advisor_test

import (
	"strings"
	"testing"
	"time"

	"github.com/Liev03/DOexpertSystem/internal/advisor"
)

func TestBuildCatalogDefaults(t *testing.T) {
	profiles, err := advisor.NewProfileCatalog(advisor.DefaultProfiles())
	if err != nil {
		t.Fatalf("NewProfileCatalog() error = %v", err)
	}
	catalog, err := advisor.BuildCatalog(profiles)
	if err != nil {
		t.Fatalf("BuildCatalog() error = %v", err)
	}
	if catalog.Size() == 0 {
		t.Fatal("default catalog is empty")
	}
}

func TestBuildCatalogMissingBound(t *testing.T) {
	// A standard profile without the ammonia bounds cannot parameterize the
	// ammonia rules.
	profiles, err := advisor.NewProfileCatalog([]advisor.Profile{
		{
			ID: "standard",
			Thresholds: map[advisor.Parameter]map[advisor.BoundKind]float64{
				advisor.ParamDissolvedOxygen: {
					advisor.BoundCriticalLow: 3,
					advisor.BoundLow:         5,
					advisor.BoundHigh:        10,
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("NewProfileCatalog() error = %v", err)
	}
	if _, err := advisor.BuildCatalog(profiles); err == nil {
		t.Fatal("expected BuildCatalog to fail on missing bounds")
	}
}

func TestOxygenDropTrendRule(t *testing.T) {
	eng := newTestEngine(t)

	history := func(prev float64) []advisor.Snapshot {
		return []advisor.Snapshot{{
			Parameters: map[advisor.Parameter]float64{advisor.ParamDissolvedOxygen: prev},
			At:         time.Now().Add(-30 * time.Minute),
		}}
	}

	tests := []struct {
		name     string
		current  float64
		history  []advisor.Snapshot
		wantFire bool
	}{
		{"drop above threshold", 5.2, history(6.5), true},
		{"drop below threshold", 5.2, history(6.0), false},
		{"no history", 5.2, nil, false},
		{"rising oxygen", 6.5, history(5.2), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adv := eng.Evaluate(advisor.Observation{
				Parameters: map[advisor.Parameter]float64{advisor.ParamDissolvedOxygen: tt.current},
				Period:     advisor.PeriodMorning,
				History:    tt.history,
			})
			fired := false
			for _, issue := range adv.Issues {
				if issue.RuleID == "oxygen_drop_trend" {
					fired = true
					if !strings.Contains(issue.Warning, "dropped") {
						t.Errorf("trend warning %q does not mention the drop", issue.Warning)
					}
				}
			}
			if fired != tt.wantFire {
				t.Errorf("trend rule fired = %v, want %v", fired, tt.wantFire)
			}
		})
	}
}

func TestTrendWarningEmbedsDrop(t *testing.T) {
	eng := newTestEngine(t)
	adv := eng.Evaluate(advisor.Observation{
		Parameters: map[advisor.Parameter]float64{advisor.ParamDissolvedOxygen: 5.2},
		Period:     advisor.PeriodMorning,
		History: []advisor.Snapshot{{
			Parameters: map[advisor.Parameter]float64{advisor.ParamDissolvedOxygen: 6.5},
			At:         time.Now().Add(-time.Hour),
		}},
	})
	if len(adv.Issues) != 1 {
		t.Fatalf("expected only the trend issue, got %v", adv.Warnings())
	}
	if want := "1.3"; !strings.Contains(adv.Issues[0].Warning, want) {
		t.Errorf("warning %q does not embed drop %s", adv.Issues[0].Warning, want)
	}
}

func TestPeriodMessageVariants(t *testing.T) {
	eng := newTestEngine(t)
	lowOxygen := func(period advisor.Period) advisor.Observation {
		return advisor.Observation{
			Parameters: map[advisor.Parameter]float64{advisor.ParamDissolvedOxygen: 4},
			Period:     period,
		}
	}

	day := eng.Evaluate(lowOxygen(advisor.PeriodMorning))
	night := eng.Evaluate(lowOxygen(advisor.PeriodNight))

	if len(day.Issues) != 1 || len(night.Issues) != 1 {
		t.Fatalf("expected one issue per period, got %d and %d", len(day.Issues), len(night.Issues))
	}
	if day.Issues[0].Warning == night.Issues[0].Warning {
		t.Errorf("day and night wordings should differ, both are %q", day.Issues[0].Warning)
	}
	if !strings.Contains(night.Issues[0].Warning, "Night-time") {
		t.Errorf("night warning %q lacks the night wording", night.Issues[0].Warning)
	}
	if day.Issues[0].RuleID != night.Issues[0].RuleID {
		t.Errorf("period changed which rule fired: %s vs %s", day.Issues[0].RuleID, night.Issues[0].RuleID)
	}
}

func TestSupersaturationAfternoonVariant(t *testing.T) {
	eng := newTestEngine(t)
	supersaturated := func(period advisor.Period) advisor.Observation {
		return advisor.Observation{
			Parameters: map[advisor.Parameter]float64{advisor.ParamDissolvedOxygen: 12},
			Period:     period,
		}
	}

	afternoon := eng.Evaluate(supersaturated(advisor.PeriodAfternoon))
	morning := eng.Evaluate(supersaturated(advisor.PeriodMorning))

	if len(afternoon.Issues) != 1 || len(morning.Issues) != 1 {
		t.Fatalf("expected one issue per period, got %d and %d", len(afternoon.Issues), len(morning.Issues))
	}
	if !strings.Contains(afternoon.Issues[0].Warning, "photosynthesis") {
		t.Errorf("afternoon warning %q lacks the photosynthesis wording", afternoon.Issues[0].Warning)
	}
	if strings.Contains(morning.Issues[0].Warning, "photosynthesis") {
		t.Errorf("morning warning %q should not carry the afternoon wording", morning.Issues[0].Warning)
	}
}

func TestNightCompoundRuleIsPeriodGated(t *testing.T) {
	eng := newTestEngine(t)
	observation := func(period advisor.Period) advisor.Observation {
		return advisor.Observation{
			Parameters: map[advisor.Parameter]float64{
				advisor.ParamDissolvedOxygen: 3.5,
				advisor.ParamAmmonia:         0.8,
			},
			Period: period,
		}
	}

	night := eng.Evaluate(observation(advisor.PeriodNight))
	if night.TopSeverity() != 5 {
		t.Errorf("night compound should dominate at severity 5, got %d", night.TopSeverity())
	}
	if !hasWarningContaining(night, "ammonia toxicity") {
		t.Errorf("night advisory lacks the compound warning: %v", night.Warnings())
	}

	day := eng.Evaluate(observation(advisor.PeriodMorning))
	for _, issue := range day.Issues {
		if issue.RuleID == "night_ammonia_oxygen" {
			t.Error("period-gated rule fired outside night")
		}
	}
}
