package advisor

import "fmt"

// Catalog is the immutable, ordered rule set the evaluator walks. Built once
// at startup and shared across concurrent evaluations without locking.
type Catalog struct {
	rules []Rule
}

// Size returns the number of rules in the catalog.
func (c *Catalog) Size() int {
	return len(c.rules)
}

// BuildCatalog assembles the default rule catalog against the given profile
// catalog and validates it. Threshold-driven rules read their bounds from the
// profiles at build time, so swapping profiles re-parameterizes the catalog.
// Any validation failure is fatal to startup, never a runtime condition.
func BuildCatalog(profiles *ProfileCatalog) (*Catalog, error) {
	rules, err := defaultRules(profiles)
	if err != nil {
		return nil, err
	}
	if err := validateRules(profiles, rules); err != nil {
		return nil, err
	}
	return &Catalog{rules: rules}, nil
}

// boundReader resolves profile thresholds during catalog assembly, keeping
// the first missing bound as an error instead of failing on every lookup.
type boundReader struct {
	profiles *ProfileCatalog
	err      error
}

func (b *boundReader) get(profileID string, p Parameter, kind BoundKind) float64 {
	v, ok := b.profiles.Threshold(profileID, p, kind)
	if !ok && b.err == nil {
		b.err = fmt.Errorf("profile %q defines no %s bound for %s", profileID, kind, p)
	}
	return v
}

// byPeriod renders the night wording when the observation was taken at
// night, and the day wording otherwise.
func byPeriod(day, night string) func(Observation) string {
	return func(o Observation) string {
		if o.Period == PeriodNight {
			return night
		}
		return day
	}
}

func defaultRules(profiles *ProfileCatalog) ([]Rule, error) {
	b := &boundReader{profiles: profiles}

	doCritLow := b.get(DefaultProfile, ParamDissolvedOxygen, BoundCriticalLow)
	doLow := b.get(DefaultProfile, ParamDissolvedOxygen, BoundLow)
	doHigh := b.get(DefaultProfile, ParamDissolvedOxygen, BoundHigh)
	tCritLow := b.get(DefaultProfile, ParamTemperature, BoundCriticalLow)
	tHigh := b.get(DefaultProfile, ParamTemperature, BoundHigh)
	tCritHigh := b.get(DefaultProfile, ParamTemperature, BoundCriticalHigh)
	nh3High := b.get(DefaultProfile, ParamAmmonia, BoundHigh)
	nh3CritHigh := b.get(DefaultProfile, ParamAmmonia, BoundCriticalHigh)
	sHigh := b.get(DefaultProfile, ParamSalinity, BoundHigh)
	phCritLow := b.get(DefaultProfile, ParamPH, BoundCriticalLow)
	phLow := b.get(DefaultProfile, ParamPH, BoundLow)
	phHigh := b.get(DefaultProfile, ParamPH, BoundHigh)
	phCritHigh := b.get(DefaultProfile, ParamPH, BoundCriticalHigh)
	turbHigh := b.get(DefaultProfile, ParamTurbidity, BoundHigh)

	catfishDOLow := b.get("catfish", ParamDissolvedOxygen, BoundLow)
	tilapiaDOLow := b.get("tilapia", ParamDissolvedOxygen, BoundLow)
	crayfishDOLow := b.get("crayfish", ParamDissolvedOxygen, BoundLow)
	tilapiaTCritLow := b.get("tilapia", ParamTemperature, BoundCriticalLow)
	catfishTHigh := b.get("catfish", ParamTemperature, BoundHigh)
	crayfishSHigh := b.get("crayfish", ParamSalinity, BoundHigh)

	if b.err != nil {
		return nil, b.err
	}

	rules := []Rule{
		{
			ID:       "oxygen_critical",
			Category: CategoryOxygen,
			Severity: 4,
			Requires: []Parameter{ParamDissolvedOxygen},
			Band:     &Band{Parameter: ParamDissolvedOxygen, Lo: 0, Hi: doCritLow},
			Warning: byPeriod(
				"Critically low oxygen! High risk of fish mortality.",
				"Night-time oxygen depletion detected! High risk of fish mortality.",
			),
			Recommendation: byPeriod(
				"Emergency aeration required.",
				"Run emergency aeration through the night.",
			),
			Prediction: text("Fish kills are likely within hours if oxygen is not restored."),
		},
		{
			ID:       "oxygen_low",
			Category: CategoryOxygen,
			Severity: 3,
			Requires: []Parameter{ParamDissolvedOxygen},
			Band:     &Band{Parameter: ParamDissolvedOxygen, Lo: doCritLow, Hi: doLow},
			Warning: byPeriod(
				"Low oxygen detected! Aeration needed.",
				"Night-time oxygen drop detected! Algae respiration may be depleting oxygen.",
			),
			Recommendation: byPeriod(
				"Increase aeration, especially in warm weather.",
				"Ensure aerators are running at night.",
			),
			Prediction: text("Fish may crowd the surface and stop feeding if levels keep falling."),
		},
		{
			ID:       "oxygen_supersaturation",
			Category: CategoryOxygen,
			Severity: 2,
			Requires: []Parameter{ParamDissolvedOxygen},
			When: func(o Observation) bool {
				v, _ := o.Value(ParamDissolvedOxygen)
				return v > doHigh
			},
			Warning: func(o Observation) string {
				if o.Period == PeriodAfternoon {
					return "Excess oxygen detected! Afternoon algal photosynthesis may be driving supersaturation."
				}
				return "Excess oxygen detected! Risk of gas bubble disease."
			},
			Recommendation: text("Reduce aeration and monitor fish behavior."),
			Prediction:     text("Gas bubble disease may develop if supersaturation persists."),
		},
		{
			ID:       "oxygen_drop_trend",
			Category: CategoryOxygen,
			Severity: 3,
			Requires: []Parameter{ParamDissolvedOxygen},
			When: func(o Observation) bool {
				cur, _ := o.Value(ParamDissolvedOxygen)
				prev, ok := o.Previous(ParamDissolvedOxygen)
				return ok && prev-cur > 1.0
			},
			Warning: func(o Observation) string {
				cur, _ := o.Value(ParamDissolvedOxygen)
				prev, _ := o.Previous(ParamDissolvedOxygen)
				return fmt.Sprintf("Oxygen dropped %.1f mg/L since the last reading!", prev-cur)
			},
			Recommendation: text("Check aerators and increase aeration capacity."),
			Prediction:     text("A continued drop at this rate will reach critical levels soon."),
		},
		{
			ID:       "heat_oxygen_depletion",
			Category: CategoryTemperature,
			Severity: 4,
			Requires: []Parameter{ParamTemperature, ParamDissolvedOxygen},
			When: func(o Observation) bool {
				t, _ := o.Value(ParamTemperature)
				do, _ := o.Value(ParamDissolvedOxygen)
				return t > tHigh && do < 4
			},
			Warning:        text("High temperature detected! Oxygen depletion is critical."),
			Recommendation: text("Increase aeration and consider shading."),
			Prediction:     text("Warm water holds less oxygen; expect further decline while the heat lasts."),
		},
		{
			ID:       "extreme_heat",
			Category: CategoryTemperature,
			Severity: 5,
			Requires: []Parameter{ParamTemperature, ParamDissolvedOxygen},
			When: func(o Observation) bool {
				t, _ := o.Value(ParamTemperature)
				do, _ := o.Value(ParamDissolvedOxygen)
				return t > tCritHigh && do < doCritLow
			},
			Warning:        text("Extreme heat detected! Oxygen levels critically low."),
			Recommendation: text("Increase aeration, perform water exchange, and reduce feeding."),
			Prediction:     text("Combined heat and oxygen stress can cause mass mortality within a day."),
		},
		{
			ID:             "cold_water",
			Category:       CategoryTemperature,
			Severity:       3,
			Requires:       []Parameter{ParamTemperature},
			Band:           &Band{Parameter: ParamTemperature, Lo: 0, Hi: tCritLow},
			Warning:        text("Low temperature detected! Fish metabolism slows down."),
			Recommendation: text("Adjust feeding schedules and monitor fish activity."),
			Prediction:     text("Feeding response will stay weak while the water is this cold."),
		},
		{
			ID:       "high_salinity",
			Category: CategorySalinity,
			Severity: 3,
			Requires: []Parameter{ParamSalinity},
			When: func(o Observation) bool {
				v, _ := o.Value(ParamSalinity)
				return v > sHigh
			},
			Warning:        text("High salinity detected! Oxygen solubility decreases, increasing fish stress."),
			Recommendation: text("Perform partial freshwater exchange."),
		},
		{
			ID:       "heat_salinity",
			Category: CategorySalinity,
			Severity: 4,
			Requires: []Parameter{ParamTemperature, ParamSalinity},
			When: func(o Observation) bool {
				t, _ := o.Value(ParamTemperature)
				s, _ := o.Value(ParamSalinity)
				return t > tHigh && s > 35
			},
			Warning:        text("High temperature & salinity detected! Oxygen loss is accelerated."),
			Recommendation: text("Increase aeration and add freshwater."),
		},
		{
			ID:       "ammonia_elevated",
			Category: CategoryAmmonia,
			Severity: 3,
			Requires: []Parameter{ParamAmmonia},
			When: func(o Observation) bool {
				v, _ := o.Value(ParamAmmonia)
				return v > nh3High && v <= nh3CritHigh
			},
			Warning:        text("High ammonia detected! Water quality is degrading."),
			Recommendation: text("Check for overfeeding and perform a partial water exchange."),
			Prediction:     text("Ammonia will keep climbing unless waste sources are reduced."),
		},
		{
			ID:       "ammonia_severe",
			Category: CategoryAmmonia,
			Severity: 4,
			Requires: []Parameter{ParamAmmonia},
			When: func(o Observation) bool {
				v, _ := o.Value(ParamAmmonia)
				return v > nh3CritHigh
			},
			Warning:        text("Severe ammonia toxicity detected! Oxygen demand increased."),
			Recommendation: text("Improve filtration, remove organic waste, and reduce stocking density."),
			Prediction:     text("Gill damage and fish deaths are likely if ammonia stays this high."),
		},
		{
			ID:       "night_ammonia_oxygen",
			Category: CategoryAmmonia,
			Severity: 5,
			Requires: []Parameter{ParamDissolvedOxygen, ParamAmmonia},
			When: func(o Observation) bool {
				do, _ := o.Value(ParamDissolvedOxygen)
				nh3, _ := o.Value(ParamAmmonia)
				return o.Period == PeriodNight && do < 4 && nh3 > 0.7
			},
			Warning:        text("Night-time oxygen depletion & ammonia toxicity detected! Immediate action required."),
			Recommendation: text("Increase nighttime aeration and reduce organic waste."),
			Prediction:     text("Conditions can turn lethal before morning without intervention."),
		},
		{
			ID:             "ph_critical_acidic",
			Category:       CategoryPH,
			Severity:       4,
			Requires:       []Parameter{ParamPH},
			Band:           &Band{Parameter: ParamPH, Lo: 0, Hi: phCritLow},
			Warning:        text("Critically acidic water detected! Fish are at risk of acidosis."),
			Recommendation: text("Add agricultural lime to raise pH gradually."),
			Prediction:     text("Prolonged acidosis will damage gills and suppress immunity."),
		},
		{
			ID:             "ph_acidic",
			Category:       CategoryPH,
			Severity:       2,
			Requires:       []Parameter{ParamPH},
			Band:           &Band{Parameter: ParamPH, Lo: phCritLow, Hi: phLow},
			Warning:        text("Acidic water detected! pH is below the optimal range."),
			Recommendation: text("Buffer the water and retest after a few hours."),
		},
		{
			ID:       "ph_alkaline",
			Category: CategoryPH,
			Severity: 2,
			Requires: []Parameter{ParamPH},
			When: func(o Observation) bool {
				v, _ := o.Value(ParamPH)
				return v > phHigh && v <= phCritHigh
			},
			Warning:        text("Alkaline water detected! pH is above the optimal range."),
			Recommendation: text("Check for excess algae growth and aerate to stabilize pH."),
		},
		{
			ID:       "ph_critical_alkaline",
			Category: CategoryPH,
			Severity: 4,
			Requires: []Parameter{ParamPH},
			When: func(o Observation) bool {
				v, _ := o.Value(ParamPH)
				return v > phCritHigh
			},
			Warning:        text("Critically alkaline water detected! Ammonia toxicity is amplified."),
			Recommendation: text("Perform a partial water exchange and stop liming."),
			Prediction:     text("High pH converts ammonium to toxic ammonia; expect rising stress."),
		},
		{
			ID:       "turbidity_high",
			Category: CategoryTurbidity,
			Severity: 2,
			Requires: []Parameter{ParamTurbidity},
			When: func(o Observation) bool {
				v, _ := o.Value(ParamTurbidity)
				return v > turbHigh
			},
			Warning:        text("High turbidity detected! Light penetration is reduced."),
			Recommendation: text("Reduce feed input and check inflow for suspended solids."),
		},

		// Profile-scoped rules, parameterized from each profile's own bounds.
		{
			ID:       "oxygen_low_catfish",
			Scope:    "catfish",
			Category: CategoryOxygen,
			Severity: 3,
			Requires: []Parameter{ParamDissolvedOxygen},
			When: func(o Observation) bool {
				v, _ := o.Value(ParamDissolvedOxygen)
				return v < catfishDOLow
			},
			Warning:        text(fmt.Sprintf("Low oxygen for catfish! Dissolved oxygen is below %g mg/L.", catfishDOLow)),
			Recommendation: text("Increase aeration; reduce stocking density if drops persist."),
		},
		{
			ID:       "oxygen_low_tilapia",
			Scope:    "tilapia",
			Category: CategoryOxygen,
			Severity: 3,
			Requires: []Parameter{ParamDissolvedOxygen},
			When: func(o Observation) bool {
				v, _ := o.Value(ParamDissolvedOxygen)
				return v < tilapiaDOLow
			},
			Warning:        text(fmt.Sprintf("Low oxygen for tilapia! Dissolved oxygen is below %g mg/L.", tilapiaDOLow)),
			Recommendation: text("Increase aeration; tilapia stop feeding in low oxygen."),
		},
		{
			ID:       "oxygen_low_crayfish",
			Scope:    "crayfish",
			Category: CategoryOxygen,
			Severity: 3,
			Requires: []Parameter{ParamDissolvedOxygen},
			When: func(o Observation) bool {
				v, _ := o.Value(ParamDissolvedOxygen)
				return v < crayfishDOLow
			},
			Warning:        text(fmt.Sprintf("Low oxygen for crayfish! Dissolved oxygen is below %g mg/L.", crayfishDOLow)),
			Recommendation: text("Increase aeration and check shelter areas for stagnant water."),
		},
		{
			ID:       "cold_stress_tilapia",
			Scope:    "tilapia",
			Category: CategoryTemperature,
			Severity: 4,
			Requires: []Parameter{ParamTemperature},
			When: func(o Observation) bool {
				v, _ := o.Value(ParamTemperature)
				return v < tilapiaTCritLow
			},
			Warning:        text(fmt.Sprintf("Cold stress for tilapia! Temperatures below %g°C are dangerous.", tilapiaTCritLow)),
			Recommendation: text("Deepen the pond or add a heat source; stop feeding until the water warms."),
			Prediction:     text("Tilapia mortality rises sharply in cold water."),
		},
		{
			ID:       "warm_water_catfish",
			Scope:    "catfish",
			Category: CategoryTemperature,
			Severity: 2,
			Requires: []Parameter{ParamTemperature},
			When: func(o Observation) bool {
				v, _ := o.Value(ParamTemperature)
				return v > catfishTHigh
			},
			Warning:        text(fmt.Sprintf("Warm water for catfish! Temperature is above %g°C.", catfishTHigh)),
			Recommendation: text("Provide shading and schedule feeding for the cooler hours."),
		},
		{
			ID:       "salinity_stress_crayfish",
			Scope:    "crayfish",
			Category: CategorySalinity,
			Severity: 3,
			Requires: []Parameter{ParamSalinity},
			When: func(o Observation) bool {
				v, _ := o.Value(ParamSalinity)
				return v > crayfishSHigh
			},
			Warning:        text(fmt.Sprintf("High salinity for crayfish! Levels above %g ppt cause stress.", crayfishSHigh)),
			Recommendation: text("Dilute with freshwater and locate the salinity source."),
		},
	}

	return rules, nil
}

// validateRules enforces the catalog-authoring contract: unique ids,
// severities in range, complete templates, known scopes and parameters, and
// non-overlapping bands within one (scope, category, parameter) family.
func validateRules(profiles *ProfileCatalog, rules []Rule) error {
	type bandKey struct {
		scope    string
		category Category
		param    Parameter
	}
	type namedBand struct {
		id   string
		band Band
	}

	seen := make(map[string]struct{}, len(rules))
	bands := make(map[bandKey][]namedBand)

	for i, r := range rules {
		if r.ID == "" {
			return fmt.Errorf("rule at index %d has an empty id", i)
		}
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("duplicate rule id %q", r.ID)
		}
		seen[r.ID] = struct{}{}

		if r.Severity < MinSeverity || r.Severity > MaxSeverity {
			return fmt.Errorf("rule %q: severity %d outside %d..%d", r.ID, r.Severity, MinSeverity, MaxSeverity)
		}
		if r.Warning == nil || r.Recommendation == nil {
			return fmt.Errorf("rule %q: missing message template", r.ID)
		}
		if len(r.Requires) == 0 {
			return fmt.Errorf("rule %q: requires no parameters", r.ID)
		}
		for _, p := range r.Requires {
			if !p.IsValid() {
				return fmt.Errorf("rule %q: unknown parameter %q", r.ID, p)
			}
		}
		if r.Scope != "" && !profiles.Has(r.Scope) {
			return fmt.Errorf("rule %q: unknown profile scope %q", r.ID, r.Scope)
		}
		if r.Band == nil && r.When == nil {
			return fmt.Errorf("rule %q: neither band nor predicate", r.ID)
		}

		if r.Band != nil {
			if r.Band.Lo >= r.Band.Hi {
				return fmt.Errorf("rule %q: band [%g, %g) is empty", r.ID, r.Band.Lo, r.Band.Hi)
			}
			if !requiresParam(r.Requires, r.Band.Parameter) {
				return fmt.Errorf("rule %q: band parameter %q not in requires", r.ID, r.Band.Parameter)
			}
			key := bandKey{scope: r.Scope, category: r.Category, param: r.Band.Parameter}
			for _, prev := range bands[key] {
				if prev.band.Overlaps(*r.Band) {
					return fmt.Errorf("rule %q: band overlaps rule %q on %s", r.ID, prev.id, r.Band.Parameter)
				}
			}
			bands[key] = append(bands[key], namedBand{id: r.ID, band: *r.Band})
		}
	}
	return nil
}

func requiresParam(requires []Parameter, p Parameter) bool {
	for _, r := range requires {
		if r == p {
			return true
		}
	}
	return false
}
