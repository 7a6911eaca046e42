package advisor

import (
	"fmt"
	"sort"
	"strings"
)

// Positive fallback texts, used when no rule fires.
const (
	PositiveFallbackMessage    = "All parameters are in optimal range"
	PositiveFallbackSuggestion = "Maintain regular monitoring"
)

type policyKind int

const (
	policyAll policyKind = iota
	policyTopKDiverse
)

// SelectionPolicy decides how many of the deduplicated, severity-sorted
// issues survive into the advisory.
type SelectionPolicy struct {
	kind policyKind
	k    int
}

// AllIssues keeps every deduplicated issue. This is the default: it exposes
// every simultaneous problem.
func AllIssues() SelectionPolicy {
	return SelectionPolicy{kind: policyAll}
}

// TopKDiverse walks the sorted issues keeping at most one per category, and
// stops once k distinct categories are collected. k below 1 is treated as 1.
func TopKDiverse(k int) SelectionPolicy {
	if k < 1 {
		k = 1
	}
	return SelectionPolicy{kind: policyTopKDiverse, k: k}
}

// MostSevere keeps only the single highest-severity issue. It is the
// degenerate diverse selection with k=1.
func MostSevere() SelectionPolicy {
	return TopKDiverse(1)
}

// String renders the policy for logs and config echo.
func (p SelectionPolicy) String() string {
	switch p.kind {
	case policyTopKDiverse:
		return fmt.Sprintf("top_k_diverse(%d)", p.k)
	default:
		return "all"
	}
}

// ParseSelectionPolicy maps a configuration name to a policy. k is only
// consulted for top_k_diverse.
func ParseSelectionPolicy(name string, k int) (SelectionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "all":
		return AllIssues(), nil
	case "top_k_diverse":
		return TopKDiverse(k), nil
	case "single_most_severe":
		return MostSevere(), nil
	default:
		return SelectionPolicy{}, fmt.Errorf("unknown selection policy %q", name)
	}
}

func (p SelectionPolicy) apply(sorted []Issue) []Issue {
	if p.kind != policyTopKDiverse {
		return sorted
	}
	seen := make(map[Category]struct{}, p.k)
	var kept []Issue
	for _, is := range sorted {
		if _, dup := seen[is.Category]; dup {
			continue
		}
		seen[is.Category] = struct{}{}
		kept = append(kept, is)
		if len(seen) == p.k {
			break
		}
	}
	return kept
}

// Advisory is the final output of one evaluation: the selected issues in
// presentation order, or the positive fallback when nothing fired. Exactly
// one of the two is populated.
type Advisory struct {
	Issues             []Issue
	PositiveMessage    string
	PositiveSuggestion string
}

// Aggregate turns a raw issue list into an advisory. It deduplicates by
// exact warning text keeping the first occurrence, sorts by severity
// descending with catalog order breaking ties, applies the selection policy,
// and falls back to the positive texts when the selected set is empty.
// The input slice is not modified.
func Aggregate(issues []Issue, policy SelectionPolicy) Advisory {
	deduped := dedupeByWarning(issues)
	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].Severity > deduped[j].Severity
	})
	selected := policy.apply(deduped)
	if len(selected) == 0 {
		return Advisory{
			PositiveMessage:    PositiveFallbackMessage,
			PositiveSuggestion: PositiveFallbackSuggestion,
		}
	}
	return Advisory{Issues: selected}
}

func dedupeByWarning(issues []Issue) []Issue {
	seen := make(map[string]struct{}, len(issues))
	deduped := make([]Issue, 0, len(issues))
	for _, is := range issues {
		if _, dup := seen[is.Warning]; dup {
			continue
		}
		seen[is.Warning] = struct{}{}
		deduped = append(deduped, is)
	}
	return deduped
}

// Positive reports whether the advisory carries the fallback instead of
// issues.
func (a Advisory) Positive() bool {
	return len(a.Issues) == 0
}

// TopSeverity returns the highest severity among the issues, or 0 for a
// positive advisory.
func (a Advisory) TopSeverity() int {
	if len(a.Issues) == 0 {
		return 0
	}
	return a.Issues[0].Severity
}

// Warnings returns the issue warnings in presentation order.
func (a Advisory) Warnings() []string {
	out := make([]string, len(a.Issues))
	for i, is := range a.Issues {
		out[i] = is.Warning
	}
	return out
}

// Recommendations returns the issue recommendations, index-aligned with
// Warnings.
func (a Advisory) Recommendations() []string {
	out := make([]string, len(a.Issues))
	for i, is := range a.Issues {
		out[i] = is.Recommendation
	}
	return out
}

// Predictions returns the issue predictions, index-aligned with Warnings.
// Issues without a prediction contribute an empty string.
func (a Advisory) Predictions() []string {
	out := make([]string, len(a.Issues))
	for i, is := range a.Issues {
		out[i] = is.Prediction
	}
	return out
}
