package advisor_test

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/Liev03/DOexpertSystem/internal/advisor"
)

func TestComposePositiveReport(t *testing.T) {
	adv := advisor.Aggregate(nil, advisor.AllIssues())
	rep := advisor.Compose(adv)

	if len(rep.Warnings) != 0 || len(rep.Recommendations) != 0 || len(rep.Predictions) != 0 {
		t.Errorf("positive report should carry no issue arrays: %+v", rep)
	}
	if !reflect.DeepEqual(rep.PositiveFeedback, []string{advisor.PositiveFallbackMessage}) {
		t.Errorf("positive_feedback = %v", rep.PositiveFeedback)
	}
	if !reflect.DeepEqual(rep.PositiveSuggestions, []string{advisor.PositiveFallbackSuggestion}) {
		t.Errorf("positive_suggestions = %v", rep.PositiveSuggestions)
	}
}

// Empty arrays must encode as [] and never as null, or old clients break.
func TestComposeReportJSONShape(t *testing.T) {
	rep := advisor.Compose(advisor.Aggregate(nil, advisor.AllIssues()))
	raw, err := json.Marshal(rep)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	body := string(raw)
	if strings.Contains(body, "null") {
		t.Errorf("report JSON contains null arrays: %s", body)
	}
	for _, key := range []string{"warnings", "recommendations", "predictions", "positive_feedback", "positive_suggestions"} {
		if !strings.Contains(body, `"`+key+`"`) {
			t.Errorf("report JSON is missing %q: %s", key, body)
		}
	}
}

func TestComposeAlignsPredictions(t *testing.T) {
	issues := []advisor.Issue{
		{RuleID: "a", Category: advisor.CategoryOxygen, Severity: 4, Warning: "w1", Recommendation: "r1", Prediction: "p1"},
		{RuleID: "b", Category: advisor.CategorySalinity, Severity: 3, Warning: "w2", Recommendation: "r2"},
	}
	rep := advisor.Compose(advisor.Aggregate(issues, advisor.AllIssues()))

	if !reflect.DeepEqual(rep.Warnings, []string{"w1", "w2"}) {
		t.Errorf("warnings = %v", rep.Warnings)
	}
	if !reflect.DeepEqual(rep.Predictions, []string{"p1", ""}) {
		t.Errorf("predictions = %v, want aligned with empty slot", rep.Predictions)
	}
	if len(rep.PositiveFeedback) != 0 {
		t.Errorf("positive_feedback should be empty when issues exist: %v", rep.PositiveFeedback)
	}
}

func TestComposeMergedRecommendations(t *testing.T) {
	issues := []advisor.Issue{
		{RuleID: "a", Category: advisor.CategoryOxygen, Severity: 4, Warning: "w1",
			Recommendation: "Increase aeration. Check the filters."},
		{RuleID: "b", Category: advisor.CategoryAmmonia, Severity: 3, Warning: "w2",
			Recommendation: "Check the filters. Add freshwater."},
	}
	rep := advisor.Compose(advisor.Aggregate(issues, advisor.AllIssues()), advisor.WithMergedRecommendations())

	want := []string{"Increase aeration. Check the filters. Add freshwater."}
	if !reflect.DeepEqual(rep.Recommendations, want) {
		t.Errorf("merged recommendations = %v, want %v", rep.Recommendations, want)
	}
	if !reflect.DeepEqual(rep.Warnings, []string{"w1", "w2"}) {
		t.Errorf("merging must not touch warnings: %v", rep.Warnings)
	}
}

func TestComposeMergeSkipsPositiveAdvisory(t *testing.T) {
	rep := advisor.Compose(advisor.Aggregate(nil, advisor.AllIssues()), advisor.WithMergedRecommendations())
	if len(rep.Recommendations) != 0 {
		t.Errorf("positive advisory should keep empty recommendations, got %v", rep.Recommendations)
	}
}
