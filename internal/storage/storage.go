// Package storage persists sensor readings and serves them back to the
// advisory pipeline.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Liev03/DOexpertSystem/internal/advisor"
)

// ErrNoReadings is returned when the store holds no sensor data yet.
var ErrNoReadings = errors.New("no sensor readings stored")

// Reading is one persisted sensor row. Turbidity is nullable because many
// deployments have no turbidity sensor.
type Reading struct {
	ID              int64
	Temperature     float64
	PH              float64
	DissolvedOxygen float64
	Ammonia         float64
	Salinity        float64
	Turbidity       *float64
	FishType        string
	RecordedAt      time.Time
}

// Parameters maps the reading onto the engine's parameter set. Turbidity is
// included only when the sensor reported it.
func (r *Reading) Parameters() map[advisor.Parameter]float64 {
	params := map[advisor.Parameter]float64{
		advisor.ParamTemperature:     r.Temperature,
		advisor.ParamPH:              r.PH,
		advisor.ParamDissolvedOxygen: r.DissolvedOxygen,
		advisor.ParamAmmonia:         r.Ammonia,
		advisor.ParamSalinity:        r.Salinity,
	}
	if r.Turbidity != nil {
		params[advisor.ParamTurbidity] = *r.Turbidity
	}
	return params
}

// Snapshot converts the reading into a history entry for trend rules.
func (r *Reading) Snapshot() advisor.Snapshot {
	return advisor.Snapshot{Parameters: r.Parameters(), At: r.RecordedAt}
}

// History converts readings into trend-rule snapshots, oldest first.
// Recent returns rows newest first, so the order is reversed here. excludeID
// drops the reading under evaluation; limit caps the result, keeping the
// newest entries.
func History(readings []*Reading, excludeID int64, limit int) []advisor.Snapshot {
	snapshots := make([]advisor.Snapshot, 0, len(readings))
	for i := len(readings) - 1; i >= 0; i-- {
		if readings[i].ID == excludeID {
			continue
		}
		snapshots = append(snapshots, readings[i].Snapshot())
	}
	if limit >= 0 && len(snapshots) > limit {
		snapshots = snapshots[len(snapshots)-limit:]
	}
	return snapshots
}

// ReadingStore is the persistence boundary for sensor readings.
type ReadingStore interface {
	// Save inserts the reading and fills in its assigned ID.
	Save(ctx context.Context, r *Reading) error
	// Latest returns the newest reading, or ErrNoReadings.
	Latest(ctx context.Context) (*Reading, error)
	// Recent returns up to n readings, newest first.
	Recent(ctx context.Context, n int) ([]*Reading, error)
	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error
	Close() error
}
