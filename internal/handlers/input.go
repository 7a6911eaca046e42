package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Liev03/DOexpertSystem/internal/advisor"
	"github.com/Liev03/DOexpertSystem/internal/storage"
)

// Validation error types used as metric labels.
const (
	errMalformedJSON    = "malformed_json"
	errMissingField     = "missing_field"
	errNotFinite        = "not_finite"
	errNegativeValue    = "negative_value"
	errInvalidPeriod    = "invalid_period"
	errInvalidTimestamp = "invalid_timestamp"
)

// ValidationError describes a rejected input payload.
type ValidationError struct {
	Type    string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ObservationInput is the JSON payload accepted by the prediction and reading
// endpoints. Sensor fields are pointers so missing and zero are distinct.
type ObservationInput struct {
	Temperature     *float64 `json:"temperature"`
	PH              *float64 `json:"pH"`
	PHLevel         *float64 `json:"ph_level"`
	DissolvedOxygen *float64 `json:"dissolved_oxygen"`
	Ammonia         *float64 `json:"ammonia"`
	Salinity        *float64 `json:"salinity"`
	Turbidity       *float64 `json:"turbidity"`

	// FishType selects the threshold profile; "type" is the legacy alias.
	FishType  string `json:"fish_type"`
	TypeAlias string `json:"type"`

	// Period overrides the clock-derived time-of-day bucket.
	Period string `json:"period"`

	// RecordedAt is an optional RFC3339 timestamp for stored readings.
	RecordedAt string `json:"recorded_at"`
}

// ph returns the pH value, preferring "pH" over the "ph_level" alias.
func (in *ObservationInput) ph() *float64 {
	if in.PH != nil {
		return in.PH
	}
	return in.PHLevel
}

// profile returns the selected threshold profile, which may be empty.
func (in *ObservationInput) profile() string {
	if in.FishType != "" {
		return in.FishType
	}
	return in.TypeAlias
}

// Validate checks required fields, numeric sanity, and optional enums.
func (in *ObservationInput) Validate() error {
	required := []struct {
		name  string
		value *float64
	}{
		{"temperature", in.Temperature},
		{"pH", in.ph()},
		{"dissolved_oxygen", in.DissolvedOxygen},
		{"ammonia", in.Ammonia},
		{"salinity", in.Salinity},
	}

	for _, f := range required {
		if f.value == nil {
			return &ValidationError{
				Type:    errMissingField,
				Message: fmt.Sprintf("missing required field %q", f.name),
			}
		}
	}

	numeric := []struct {
		name  string
		value *float64
	}{
		{"temperature", in.Temperature},
		{"pH", in.ph()},
		{"dissolved_oxygen", in.DissolvedOxygen},
		{"ammonia", in.Ammonia},
		{"salinity", in.Salinity},
		{"turbidity", in.Turbidity},
	}

	for _, f := range numeric {
		if f.value == nil {
			continue
		}
		v := *f.value
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &ValidationError{
				Type:    errNotFinite,
				Message: fmt.Sprintf("field %q must be a finite number", f.name),
			}
		}
		if v < 0 {
			return &ValidationError{
				Type:    errNegativeValue,
				Message: fmt.Sprintf("field %q must be non-negative", f.name),
			}
		}
	}

	if in.Period != "" && !advisor.Period(in.Period).IsValid() {
		return &ValidationError{
			Type:    errInvalidPeriod,
			Message: fmt.Sprintf("invalid period %q", in.Period),
		}
	}

	if in.RecordedAt != "" {
		if _, err := time.Parse(time.RFC3339, in.RecordedAt); err != nil {
			return &ValidationError{
				Type:    errInvalidTimestamp,
				Message: "recorded_at must be an RFC3339 timestamp",
			}
		}
	}

	return nil
}

// Observation converts the validated input into an engine observation.
// fallback supplies the period when the payload does not override it.
func (in *ObservationInput) Observation(fallback advisor.Period) advisor.Observation {
	params := map[advisor.Parameter]float64{
		advisor.ParamTemperature:     *in.Temperature,
		advisor.ParamPH:              *in.ph(),
		advisor.ParamDissolvedOxygen: *in.DissolvedOxygen,
		advisor.ParamAmmonia:         *in.Ammonia,
		advisor.ParamSalinity:        *in.Salinity,
	}
	if in.Turbidity != nil {
		params[advisor.ParamTurbidity] = *in.Turbidity
	}

	period := fallback
	if in.Period != "" {
		period = advisor.Period(in.Period)
	}

	return advisor.Observation{
		Parameters: params,
		Profile:    in.profile(),
		Period:     period,
	}
}

// Reading converts the validated input into a storable sensor row.
func (in *ObservationInput) Reading(now time.Time) *storage.Reading {
	recordedAt := now.UTC()
	if in.RecordedAt != "" {
		if ts, err := time.Parse(time.RFC3339, in.RecordedAt); err == nil {
			recordedAt = ts.UTC()
		}
	}

	fishType := in.profile()
	if fishType == "" {
		fishType = advisor.DefaultProfile
	}

	return &storage.Reading{
		Temperature:     *in.Temperature,
		PH:              *in.ph(),
		DissolvedOxygen: *in.DissolvedOxygen,
		Ammonia:         *in.Ammonia,
		Salinity:        *in.Salinity,
		Turbidity:       in.Turbidity,
		FishType:        fishType,
		RecordedAt:      recordedAt,
	}
}

// decodeErrorMessage turns a JSON decode failure into a client-facing message.
func decodeErrorMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("invalid value for field %q", typeErr.Field)
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return "request body is not valid JSON"
	}
	return "invalid request body"
}
