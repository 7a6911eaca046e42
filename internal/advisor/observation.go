package advisor

import "time"

// Parameter identifies a measured water-quality quantity.
type Parameter string

const (
	ParamTemperature     Parameter = "temperature"
	ParamPH              Parameter = "ph"
	ParamDissolvedOxygen Parameter = "dissolved_oxygen"
	ParamAmmonia         Parameter = "ammonia"
	ParamSalinity        Parameter = "salinity"
	ParamTurbidity       Parameter = "turbidity"
)

// Parameters lists every known parameter in a fixed order.
var Parameters = []Parameter{
	ParamTemperature,
	ParamPH,
	ParamDissolvedOxygen,
	ParamAmmonia,
	ParamSalinity,
	ParamTurbidity,
}

// IsValid reports whether p names a known parameter.
func (p Parameter) IsValid() bool {
	switch p {
	case ParamTemperature, ParamPH, ParamDissolvedOxygen, ParamAmmonia, ParamSalinity, ParamTurbidity:
		return true
	default:
		return false
	}
}

// Period is the coarse time-of-day bucket attached to an observation.
// The engine treats it as an opaque enum: it gates a small number of rules
// and selects message variants, nothing more.
type Period string

const (
	PeriodMorning   Period = "morning"
	PeriodAfternoon Period = "afternoon"
	PeriodEvening   Period = "evening"
	PeriodNight     Period = "night"
)

// IsValid reports whether p names a known period.
func (p Period) IsValid() bool {
	switch p {
	case PeriodMorning, PeriodAfternoon, PeriodEvening, PeriodNight:
		return true
	default:
		return false
	}
}

// DefaultProfile is assumed when an observation names no profile.
const DefaultProfile = "standard"

// HistoryWindow caps the number of prior snapshots trend rules may consult.
const HistoryWindow = 10

// Snapshot is one prior reading carried along for trend rules.
type Snapshot struct {
	Parameters map[Parameter]float64
	At         time.Time
}

// Observation is one validated snapshot of sensor parameters plus context.
// Values are assumed finite and non-negative; validation happens upstream.
// Observations are never mutated by the engine.
type Observation struct {
	// Parameters holds the present sensor values. Absent parameters simply
	// disable rules that reference them.
	Parameters map[Parameter]float64

	// Profile selects threshold overrides; empty means DefaultProfile.
	Profile string

	// Period is the time-of-day bucket supplied by the caller's clock.
	Period Period

	// History holds prior snapshots, oldest first, for trend rules. It is
	// owned by the caller; the engine only reads it. Callers should cap it
	// at HistoryWindow.
	History []Snapshot
}

// Value returns the observed value for p and whether it is present.
func (o Observation) Value(p Parameter) (float64, bool) {
	v, ok := o.Parameters[p]
	return v, ok
}

// Has reports whether every listed parameter is present.
func (o Observation) Has(params ...Parameter) bool {
	for _, p := range params {
		if _, ok := o.Parameters[p]; !ok {
			return false
		}
	}
	return true
}

// Previous returns the most recent historical value for p, scanning the
// history from newest to oldest. The second return is false when no prior
// snapshot carries the parameter.
func (o Observation) Previous(p Parameter) (float64, bool) {
	for i := len(o.History) - 1; i >= 0; i-- {
		if v, ok := o.History[i].Parameters[p]; ok {
			return v, true
		}
	}
	return 0, false
}

// ProfileID returns the observation's profile, defaulting to DefaultProfile.
func (o Observation) ProfileID() string {
	if o.Profile == "" {
		return DefaultProfile
	}
	return o.Profile
}
