package advisor

import (
	"fmt"
	"sort"
)

// BoundKind names one edge of a parameter's acceptable range.
type BoundKind string

const (
	BoundLow          BoundKind = "low"
	BoundCriticalLow  BoundKind = "critical_low"
	BoundHigh         BoundKind = "high"
	BoundCriticalHigh BoundKind = "critical_high"
)

// Profile carries per-species threshold overrides keyed by parameter and
// bound kind. A profile only lists the bounds it overrides; everything else
// falls through to the standard profile.
type Profile struct {
	ID         string
	Thresholds map[Parameter]map[BoundKind]float64
}

// Threshold returns the profile's own bound for p, if it defines one.
func (pr Profile) Threshold(p Parameter, kind BoundKind) (float64, bool) {
	kinds, ok := pr.Thresholds[p]
	if !ok {
		return 0, false
	}
	v, ok := kinds[kind]
	return v, ok
}

// ProfileCatalog is an immutable lookup of species profiles. The standard
// profile must be present; it is the fallback for every unresolved bound.
type ProfileCatalog struct {
	profiles map[string]Profile
}

// NewProfileCatalog builds a catalog from the given profiles. It fails when
// the standard profile is missing, an ID repeats, or an entry names an
// unknown parameter.
func NewProfileCatalog(profiles []Profile) (*ProfileCatalog, error) {
	byID := make(map[string]Profile, len(profiles))
	for _, pr := range profiles {
		if pr.ID == "" {
			return nil, fmt.Errorf("profile with empty id")
		}
		if _, dup := byID[pr.ID]; dup {
			return nil, fmt.Errorf("duplicate profile id %q", pr.ID)
		}
		for p := range pr.Thresholds {
			if !p.IsValid() {
				return nil, fmt.Errorf("profile %q: unknown parameter %q", pr.ID, p)
			}
		}
		byID[pr.ID] = pr
	}
	if _, ok := byID[DefaultProfile]; !ok {
		return nil, fmt.Errorf("profile catalog missing %q profile", DefaultProfile)
	}
	return &ProfileCatalog{profiles: byID}, nil
}

// Has reports whether the catalog knows the given profile ID.
func (c *ProfileCatalog) Has(id string) bool {
	_, ok := c.profiles[id]
	return ok
}

// IDs returns the catalog's profile IDs in sorted order.
func (c *ProfileCatalog) IDs() []string {
	ids := make([]string, 0, len(c.profiles))
	for id := range c.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Threshold resolves a bound for the given profile, falling back to the
// standard profile when the species profile does not override it. Unknown
// profile IDs resolve entirely from the standard profile.
func (c *ProfileCatalog) Threshold(profileID string, p Parameter, kind BoundKind) (float64, bool) {
	if pr, ok := c.profiles[profileID]; ok {
		if v, ok := pr.Threshold(p, kind); ok {
			return v, true
		}
	}
	if profileID == DefaultProfile {
		return 0, false
	}
	return c.Threshold(DefaultProfile, p, kind)
}

// DefaultProfiles returns the built-in species profiles.
func DefaultProfiles() []Profile {
	return []Profile{
		{
			ID: DefaultProfile,
			Thresholds: map[Parameter]map[BoundKind]float64{
				ParamDissolvedOxygen: {
					BoundCriticalLow: 3,
					BoundLow:         5,
					BoundHigh:        10,
				},
				ParamTemperature: {
					BoundCriticalLow:  5,
					BoundHigh:         30,
					BoundCriticalHigh: 35,
				},
				ParamAmmonia: {
					BoundHigh:         0.5,
					BoundCriticalHigh: 1,
				},
				ParamSalinity: {
					BoundHigh: 40,
				},
				ParamPH: {
					BoundCriticalLow:  5.5,
					BoundLow:          6.5,
					BoundHigh:         8.5,
					BoundCriticalHigh: 9.5,
				},
				ParamTurbidity: {
					BoundHigh: 50,
				},
			},
		},
		{
			ID: "catfish",
			Thresholds: map[Parameter]map[BoundKind]float64{
				ParamDissolvedOxygen: {
					BoundLow: 4,
				},
				ParamTemperature: {
					BoundHigh: 32,
				},
			},
		},
		{
			ID: "tilapia",
			Thresholds: map[Parameter]map[BoundKind]float64{
				ParamDissolvedOxygen: {
					BoundLow: 5,
				},
				ParamTemperature: {
					BoundCriticalLow: 10,
				},
			},
		},
		{
			ID: "crayfish",
			Thresholds: map[Parameter]map[BoundKind]float64{
				ParamDissolvedOxygen: {
					BoundLow: 3,
				},
				ParamSalinity: {
					BoundHigh: 10,
				},
			},
		},
	}
}
