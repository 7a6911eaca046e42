// Package period maps wall-clock time to the coarse time-of-day buckets the
// advisory engine consumes.
package period

import (
	"fmt"
	"time"

	"github.com/Liev03/DOexpertSystem/internal/advisor"
)

// Resolver buckets instants into periods using a fixed IANA time zone, so
// "night" means night at the ponds rather than night in UTC.
type Resolver struct {
	loc *time.Location
}

// NewResolver loads the given IANA zone name, e.g. "Asia/Jakarta".
func NewResolver(zone string) (*Resolver, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("failed to load time zone %q: %w", zone, err)
	}
	return &Resolver{loc: loc}, nil
}

// At returns the period bucket for t in the resolver's zone: morning
// [05:00, 12:00), afternoon [12:00, 17:00), evening [17:00, 21:00), night
// otherwise.
func (r *Resolver) At(t time.Time) advisor.Period {
	switch h := t.In(r.loc).Hour(); {
	case h >= 5 && h < 12:
		return advisor.PeriodMorning
	case h >= 12 && h < 17:
		return advisor.PeriodAfternoon
	case h >= 17 && h < 21:
		return advisor.PeriodEvening
	default:
		return advisor.PeriodNight
	}
}

// Now returns the bucket for the current instant.
func (r *Resolver) Now() advisor.Period {
	return r.At(time.Now())
}

// Location exposes the resolver's zone, for logging.
func (r *Resolver) Location() *time.Location {
	return r.loc
}
