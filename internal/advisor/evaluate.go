package advisor

// Evaluate applies every applicable rule to the observation and returns the
// raw issue list in catalog order. A rule is skipped when its scope excludes
// the observation's profile or when any required parameter is absent; a
// missing parameter is never an error, it is a non-match. Evaluation mutates
// nothing, so any number of calls may share the catalog concurrently.
func (c *Catalog) Evaluate(obs Observation) []Issue {
	profile := obs.ProfileID()
	var issues []Issue
	for _, r := range c.rules {
		if r.Scope != "" && r.Scope != profile {
			continue
		}
		if !obs.Has(r.Requires...) {
			continue
		}
		if r.Band != nil {
			v, _ := obs.Value(r.Band.Parameter)
			if !r.Band.Contains(v) {
				continue
			}
		}
		if r.When != nil && !r.When(obs) {
			continue
		}
		issue := Issue{
			RuleID:         r.ID,
			Category:       r.Category,
			Severity:       r.Severity,
			Warning:        r.Warning(obs),
			Recommendation: r.Recommendation(obs),
		}
		if r.Prediction != nil {
			issue.Prediction = r.Prediction(obs)
		}
		issues = append(issues, issue)
	}
	return issues
}
