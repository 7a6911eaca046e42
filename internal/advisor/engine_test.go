package advisor_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/Liev03/DOexpertSystem/internal/advisor"
)

func newTestEngine(t *testing.T, opts ...advisor.Option) *advisor.Engine {
	t.Helper()
	eng, err := advisor.NewEngine(opts...)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return eng
}

func hasWarningContaining(adv advisor.Advisory, substr string) bool {
	for _, w := range adv.Warnings() {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestCriticalOxygenAtNight(t *testing.T) {
	eng := newTestEngine(t)
	adv := eng.Evaluate(advisor.Observation{
		Parameters: map[advisor.Parameter]float64{
			advisor.ParamDissolvedOxygen: 1.0,
			advisor.ParamTemperature:     20,
			advisor.ParamPH:              7,
			advisor.ParamAmmonia:         0.1,
			advisor.ParamSalinity:        0,
		},
		Period: advisor.PeriodNight,
	})

	if len(adv.Issues) != 1 {
		t.Fatalf("expected exactly 1 issue, got %d: %v", len(adv.Issues), adv.Warnings())
	}
	issue := adv.Issues[0]
	if issue.Severity != 4 {
		t.Errorf("severity = %d, want 4", issue.Severity)
	}
	if issue.Category != advisor.CategoryOxygen {
		t.Errorf("category = %s, want %s", issue.Category, advisor.CategoryOxygen)
	}
	if !strings.Contains(issue.Warning, "Night-time oxygen depletion") {
		t.Errorf("warning %q does not carry the night wording", issue.Warning)
	}
}

func TestAllParametersNormal(t *testing.T) {
	eng := newTestEngine(t)
	adv := eng.Evaluate(advisor.Observation{
		Parameters: map[advisor.Parameter]float64{
			advisor.ParamDissolvedOxygen: 7,
			advisor.ParamTemperature:     7,
			advisor.ParamPH:              7,
			advisor.ParamAmmonia:         0,
			advisor.ParamSalinity:        0,
		},
		Period: advisor.PeriodMorning,
	})

	if !adv.Positive() {
		t.Fatalf("expected positive advisory, got issues: %v", adv.Warnings())
	}
	if adv.PositiveMessage != advisor.PositiveFallbackMessage {
		t.Errorf("positive message = %q, want %q", adv.PositiveMessage, advisor.PositiveFallbackMessage)
	}
	if adv.PositiveSuggestion != advisor.PositiveFallbackSuggestion {
		t.Errorf("positive suggestion = %q, want %q", adv.PositiveSuggestion, advisor.PositiveFallbackSuggestion)
	}
	if len(adv.Warnings()) != 0 {
		t.Errorf("warnings should be empty, got %v", adv.Warnings())
	}
}

func multiBreachObservation() advisor.Observation {
	return advisor.Observation{
		Parameters: map[advisor.Parameter]float64{
			advisor.ParamDissolvedOxygen: 2,
			advisor.ParamAmmonia:         2,
			advisor.ParamTemperature:     35,
			advisor.ParamPH:              7,
			advisor.ParamSalinity:        0,
		},
		Period: advisor.PeriodMorning,
	}
}

func TestSimultaneousBreachesKeepAll(t *testing.T) {
	eng := newTestEngine(t)
	adv := eng.Evaluate(multiBreachObservation())

	if len(adv.Issues) != 3 {
		t.Fatalf("expected 3 issues, got %d: %v", len(adv.Issues), adv.Warnings())
	}
	wantCategories := []advisor.Category{
		advisor.CategoryOxygen,
		advisor.CategoryTemperature,
		advisor.CategoryAmmonia,
	}
	for i, issue := range adv.Issues {
		if issue.Category != wantCategories[i] {
			t.Errorf("issue %d category = %s, want %s", i, issue.Category, wantCategories[i])
		}
		if issue.Recommendation == "" {
			t.Errorf("issue %d has no recommendation", i)
		}
	}
	for i := 0; i < len(adv.Issues)-1; i++ {
		if adv.Issues[i].Severity < adv.Issues[i+1].Severity {
			t.Errorf("issues not sorted by severity: %d before %d",
				adv.Issues[i].Severity, adv.Issues[i+1].Severity)
		}
	}
}

func TestDiverseSelectionCapsCategories(t *testing.T) {
	eng := newTestEngine(t, advisor.WithPolicy(advisor.TopKDiverse(2)))
	adv := eng.Evaluate(multiBreachObservation())

	if len(adv.Issues) != 2 {
		t.Fatalf("expected 2 issues under top_k_diverse(2), got %d", len(adv.Issues))
	}
	if adv.Issues[0].Category == adv.Issues[1].Category {
		t.Errorf("selected issues share category %s", adv.Issues[0].Category)
	}
	if adv.Issues[0].Category != advisor.CategoryOxygen {
		t.Errorf("first issue category = %s, want %s", adv.Issues[0].Category, advisor.CategoryOxygen)
	}
	if adv.Issues[1].Category != advisor.CategoryTemperature {
		t.Errorf("second issue category = %s, want %s", adv.Issues[1].Category, advisor.CategoryTemperature)
	}
}

func TestSingleMostSevereSelection(t *testing.T) {
	eng := newTestEngine(t, advisor.WithPolicy(advisor.MostSevere()))
	adv := eng.Evaluate(multiBreachObservation())

	if len(adv.Issues) != 1 {
		t.Fatalf("expected a single issue, got %d", len(adv.Issues))
	}
	if adv.Issues[0].RuleID != "oxygen_critical" {
		t.Errorf("kept rule = %s, want oxygen_critical", adv.Issues[0].RuleID)
	}
}

func TestProfileSpecificOxygenRules(t *testing.T) {
	eng := newTestEngine(t)
	lowOxygen := func(profile string) advisor.Observation {
		return advisor.Observation{
			Parameters: map[advisor.Parameter]float64{advisor.ParamDissolvedOxygen: 3},
			Profile:    profile,
			Period:     advisor.PeriodMorning,
		}
	}

	catfish := eng.Evaluate(lowOxygen("catfish"))
	if !hasWarningContaining(catfish, "catfish") {
		t.Errorf("catfish profile did not fire its species rule: %v", catfish.Warnings())
	}

	tilapia := eng.Evaluate(lowOxygen("tilapia"))
	if !hasWarningContaining(tilapia, "tilapia") {
		t.Errorf("tilapia profile did not fire its species rule: %v", tilapia.Warnings())
	}

	// Crayfish tolerate oxygen down to 3 mg/L, so only the generic band fires.
	crayfish := eng.Evaluate(lowOxygen("crayfish"))
	if hasWarningContaining(crayfish, "crayfish") {
		t.Errorf("crayfish species rule fired at its own threshold: %v", crayfish.Warnings())
	}

	if reflect.DeepEqual(catfish.Warnings(), tilapia.Warnings()) {
		t.Error("catfish and tilapia advisories should differ")
	}
}

func TestUnknownProfileFallsBackToStandard(t *testing.T) {
	eng := newTestEngine(t)
	adv := eng.Evaluate(advisor.Observation{
		Parameters: map[advisor.Parameter]float64{advisor.ParamDissolvedOxygen: 4},
		Profile:    "goldfish",
		Period:     advisor.PeriodMorning,
	})

	if len(adv.Issues) != 1 {
		t.Fatalf("expected 1 issue for unknown profile, got %d", len(adv.Issues))
	}
	if adv.Issues[0].RuleID != "oxygen_low" {
		t.Errorf("fired rule = %s, want oxygen_low", adv.Issues[0].RuleID)
	}
}

func TestEvaluationDeterminism(t *testing.T) {
	eng := newTestEngine(t)
	obs := multiBreachObservation()

	first := eng.Evaluate(obs)
	for i := 0; i < 10; i++ {
		if got := eng.Evaluate(obs); !reflect.DeepEqual(got, first) {
			t.Fatalf("evaluation %d differs from the first", i)
		}
	}
}

func TestEvaluationToleratesMissingParameters(t *testing.T) {
	eng := newTestEngine(t)

	if adv := eng.Evaluate(advisor.Observation{}); !adv.Positive() {
		t.Errorf("empty observation should produce the positive fallback, got %v", adv.Warnings())
	}

	for _, p := range advisor.Parameters {
		adv := eng.Evaluate(advisor.Observation{
			Parameters: map[advisor.Parameter]float64{p: 0},
			Period:     advisor.PeriodEvening,
		})
		seen := make(map[string]struct{})
		for _, w := range adv.Warnings() {
			if _, dup := seen[w]; dup {
				t.Errorf("parameter %s: duplicate warning %q", p, w)
			}
			seen[w] = struct{}{}
		}
	}
}
