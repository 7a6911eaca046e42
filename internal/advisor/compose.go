package advisor

import "strings"

// Report is the externally visible advisory shape. Every field is an array
// so the wire format stays identical whether or not issues fired; the
// positive fields carry exactly one element when the fallback is active.
type Report struct {
	Warnings            []string `json:"warnings"`
	Recommendations     []string `json:"recommendations"`
	Predictions         []string `json:"predictions"`
	PositiveFeedback    []string `json:"positive_feedback"`
	PositiveSuggestions []string `json:"positive_suggestions"`
}

type composeConfig struct {
	mergeRecommendations bool
}

// ComposeOption adjusts the rendering of an advisory into a report.
type ComposeOption func(*composeConfig)

// WithMergedRecommendations collapses all recommendations into a single
// entry, concatenating their sentences and dropping exact-duplicate
// sentences. This is presentation only: the merged report loses the
// index alignment between warnings and recommendations, so it is opt-in
// and never the internal representation.
func WithMergedRecommendations() ComposeOption {
	return func(cfg *composeConfig) {
		cfg.mergeRecommendations = true
	}
}

// Compose renders an advisory into the wire report. It is a pure shape
// transformation; all decision logic has already happened in Aggregate.
func Compose(adv Advisory, opts ...ComposeOption) Report {
	var cfg composeConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	rep := Report{
		Warnings:            adv.Warnings(),
		Recommendations:     adv.Recommendations(),
		Predictions:         adv.Predictions(),
		PositiveFeedback:    []string{},
		PositiveSuggestions: []string{},
	}
	if adv.Positive() {
		rep.PositiveFeedback = []string{adv.PositiveMessage}
		rep.PositiveSuggestions = []string{adv.PositiveSuggestion}
		return rep
	}
	if cfg.mergeRecommendations {
		rep.Recommendations = []string{mergeSentences(rep.Recommendations)}
	}
	return rep
}

// mergeSentences splits each recommendation into sentences, drops exact
// duplicates while preserving first-seen order, and rejoins the rest.
func mergeSentences(recommendations []string) string {
	seen := make(map[string]struct{})
	var parts []string
	for _, rec := range recommendations {
		for _, s := range strings.Split(rec, ". ") {
			s = strings.TrimSuffix(strings.TrimSpace(s), ".")
			if s == "" {
				continue
			}
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, ". ") + "."
}
