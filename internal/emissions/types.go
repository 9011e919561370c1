// Package emissions implements the zone emissions estimation engine: per
// transport module estimators (roads, aviation, rail), a shared grid
// carbon-intensity input and the aggregation logic that merges module
// estimates into one auditable result.
package emissions

import (
	"context"

	"github.com/zonecarbon/zonecarbon/internal/zone"
)

// ModuleName identifies a transport module estimator.
type ModuleName string

const (
	ModuleRoads    ModuleName = "roads"
	ModuleAviation ModuleName = "aviation"
	ModuleRail     ModuleName = "rail"
)

// CanonicalOrder fixes the order module estimates appear in a ZoneEstimate,
// independent of selection-flag declaration order. New modules (e.g.
// maritime) are added here and nowhere else in the merge logic.
var CanonicalOrder = []ModuleName{ModuleRoads, ModuleAviation, ModuleRail}

// QualityGrade is an ordinal confidence label on an estimate.
// Q1 is highest certainty; Qx means unknown or fallback-derived.
type QualityGrade string

const (
	QualityQ1 QualityGrade = "Q1"
	QualityQ2 QualityGrade = "Q2"
	QualityQ3 QualityGrade = "Q3"
	QualityQx QualityGrade = "Qx"
)

// Rank orders grades for comparison: Q1 ranks highest, Qx lowest.
func (q QualityGrade) Rank() int {
	switch q {
	case QualityQ1:
		return 4
	case QualityQ2:
		return 3
	case QualityQ3:
		return 2
	default:
		return 1
	}
}

// ModuleSelection flags which estimators run. The zero value (nothing
// enabled) is valid and yields a zero-total estimate.
type ModuleSelection struct {
	Roads    bool
	Aviation bool
	Rail     bool
}

// Enabled reports whether the named module is selected.
func (s ModuleSelection) Enabled(m ModuleName) bool {
	switch m {
	case ModuleRoads:
		return s.Roads
	case ModuleAviation:
		return s.Aviation
	case ModuleRail:
		return s.Rail
	default:
		return false
	}
}

// Count returns the number of selected modules.
func (s ModuleSelection) Count() int {
	n := 0
	for _, m := range CanonicalOrder {
		if s.Enabled(m) {
			n++
		}
	}
	return n
}

// GridIntensityReading is one grid carbon-intensity observation, produced at
// most once per estimation call and shared read-only by every estimator that
// needs it.
type GridIntensityReading struct {
	// GramsPerKWh is the carbon intensity in grams CO2e per kWh delivered.
	GramsPerKWh float64

	// ZoneName is the grid region the reading applies to.
	ZoneName string

	// Source identifies the provider, for the response's sources list.
	Source string
}

// GridQuery is what a grid intensity provider needs to resolve a zone to a
// grid region.
type GridQuery struct {
	ZoneName    string
	CountryHint string
	Lat         float64
	Lon         float64
}

// GridProvider supplies grid carbon intensity for a zone. Implementations
// fail with ErrUpstreamUnavailable when the source cannot be reached and with
// ErrInvalidZone when the zone cannot be resolved to a grid region.
type GridProvider interface {
	FetchIntensity(ctx context.Context, q GridQuery) (GridIntensityReading, error)
}

// ModuleEstimate is one module's contribution to a zone estimate. Created
// once per estimator invocation and immutable afterwards.
type ModuleEstimate struct {
	Module ModuleName

	// CO2eTonnes is the estimated CO2-equivalent mass, always >= 0.
	CO2eTonnes float64

	// CI90Tonnes is the 90% confidence half-width, when the estimator can
	// state one.
	CI90Tonnes *float64

	Quality QualityGrade

	// Notes are human-readable provenance strings recording data lineage.
	Notes []string

	// Sources are stable identifiers of the data sources consumed, merged
	// into the response's sources list in first-contribution order.
	Sources []string

	// CoverageKm is the roads activity proxy, set by the roads estimator only.
	CoverageKm *float64
}

// ZoneEstimate is the engine's response for one estimation call.
type ZoneEstimate struct {
	// ZoneID is an opaque identifier freshly generated per call.
	ZoneID string

	WindowMinutes int

	// Modules holds exactly one estimate per selected module, in canonical
	// order (roads, aviation, rail).
	Modules []ModuleEstimate

	// TotalCO2eTonnes is the exact sum of the module estimates, with no
	// rounding before summation.
	TotalCO2eTonnes float64

	// TotalCI90Tonnes combines module confidence intervals in quadrature,
	// when at least one module reported one.
	TotalCI90Tonnes *float64

	// Sources lists contributing data sources in first-contribution order.
	// Duplicates survive only when contributed by distinct modules.
	Sources []string

	// CoverageKm is present only when a roads coverage metric was computed.
	CoverageKm *float64

	// GridIntensity is present if and only if at least one invoked estimator
	// consumed it.
	GridIntensity *GridIntensityReading
}

// Request is one estimation call's input. The zone spec is borrowed read-only
// for the duration of the call.
type Request struct {
	Zone          zone.Spec
	WindowMinutes int
	Modules       ModuleSelection

	// CountryHint optionally narrows grid-region resolution.
	CountryHint string
}

// EstimateInputs is what the engine hands each module estimator. Grid is nil
// unless the estimator declared it needs grid intensity.
type EstimateInputs struct {
	Zone          zone.Spec
	WindowMinutes int
	Grid          *GridIntensityReading
}

// ModuleEstimator is the single capability every transport module implements.
// Estimators are pure functions of their inputs; the engine may evaluate them
// concurrently.
type ModuleEstimator interface {
	Module() ModuleName

	// NeedsGridIntensity reports whether the estimator consumes the shared
	// grid reading. The engine fetches the reading at most once per call and
	// only when some selected estimator needs it.
	NeedsGridIntensity() bool

	Estimate(ctx context.Context, in EstimateInputs) (ModuleEstimate, error)
}

func float64Ptr(v float64) *float64 { return &v }
