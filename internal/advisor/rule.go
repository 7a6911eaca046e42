package advisor

// Category groups rules by the condition family they describe. The
// aggregator's diverse selection keeps at most one issue per category.
type Category string

const (
	CategoryOxygen      Category = "oxygen"
	CategoryTemperature Category = "temperature"
	CategoryAmmonia     Category = "ammonia"
	CategorySalinity    Category = "salinity"
	CategoryPH          Category = "ph"
	CategoryTurbidity   Category = "turbidity"
)

// Severity bounds. Severity orders issues; it carries no other meaning.
const (
	MinSeverity = 1
	MaxSeverity = 5
)

// Band is an optional half-open interval [Lo, Hi) claimed by a rule on one
// parameter. Rules that band the same parameter within one category must not
// overlap, so at most one of them can fire for a given value.
type Band struct {
	Parameter Parameter
	Lo        float64
	Hi        float64
}

// Contains reports whether v falls inside the band.
func (b Band) Contains(v float64) bool {
	return v >= b.Lo && v < b.Hi
}

// Overlaps reports whether two bands on the same parameter share any value.
// Touching endpoints do not overlap.
func (b Band) Overlaps(other Band) bool {
	if b.Parameter != other.Parameter {
		return false
	}
	lo := b.Lo
	if other.Lo > lo {
		lo = other.Lo
	}
	hi := b.Hi
	if other.Hi < hi {
		hi = other.Hi
	}
	return lo < hi
}

// Rule is one declarative advisory condition. When evaluates the condition
// against an observation; the message funcs render the texts for it. Message
// funcs are only called after When returns true, so they may assume the
// rule's required parameters are present.
type Rule struct {
	// ID is unique within the catalog and names the condition.
	ID string

	// Scope restricts the rule to one profile; empty means all profiles.
	Scope string

	// Category buckets the rule for diverse selection.
	Category Category

	// Severity ranks the rule's issues, MinSeverity..MaxSeverity.
	Severity int

	// Requires lists parameters that must be present before When runs.
	Requires []Parameter

	// Band, when non-nil, declares the value interval this rule claims on
	// one parameter. It is checked for overlaps at catalog build time and
	// enforced as part of the condition.
	Band *Band

	// When holds any further condition beyond Band and Requires. A nil
	// When means the band alone decides.
	When func(Observation) bool

	// Warning and Recommendation render the issue texts. Both are
	// mandatory.
	Warning        func(Observation) string
	Recommendation func(Observation) string

	// Prediction is optional; nil or an empty render means the issue
	// carries no forecast.
	Prediction func(Observation) string
}

// Issue is one concrete finding produced by a fired rule.
type Issue struct {
	RuleID         string
	Category       Category
	Severity       int
	Warning        string
	Recommendation string
	Prediction     string
}

// text returns a constant message func, for rules whose wording does not
// depend on the observation.
func text(s string) func(Observation) string {
	return func(Observation) string { return s }
}
