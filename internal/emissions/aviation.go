package emissions

import (
	"context"
	"fmt"

	"github.com/zonecarbon/zonecarbon/internal/activity"
)

const aviationFactorSource = "factors:icao-lto-a320"

// AviationEstimator estimates airport-area aviation emissions from a
// landing-and-takeoff (LTO) activity proxy. The LTO cycle is modeled as fully
// combustion-based, so the estimator never consumes grid intensity. Quality
// stays at Q2 absent flight-tracking corroboration.
type AviationEstimator struct {
	cfg AviationConfig
	src activity.FlightSource
}

// NewAviationEstimator creates an aviation estimator backed by the given
// activity source.
func NewAviationEstimator(cfg AviationConfig, src activity.FlightSource) *AviationEstimator {
	return &AviationEstimator{cfg: cfg, src: src}
}

func (e *AviationEstimator) Module() ModuleName { return ModuleAviation }

func (e *AviationEstimator) NeedsGridIntensity() bool { return false }

// Estimate computes aviation CO2e as LTO count × per-operation factor,
// grams → tonnes.
func (e *AviationEstimator) Estimate(ctx context.Context, in EstimateInputs) (ModuleEstimate, error) {
	act, err := e.src.FlightSnapshot(ctx, in.Zone, in.WindowMinutes)
	if err != nil {
		return ModuleEstimate{}, fmt.Errorf("flight activity: %w", err)
	}

	total := act.LTOCount * e.cfg.GramsPerLTO / gramsPerTonne

	return ModuleEstimate{
		Module:     ModuleAviation,
		CO2eTonnes: total,
		CI90Tonnes: float64Ptr(total * aviationCI90Rel),
		Quality:    QualityQ2,
		Notes: []string{
			fmt.Sprintf("LTO activity from %s: %.2f cycles", act.Source, act.LTOCount),
		},
		Sources: []string{act.Source, aviationFactorSource},
	}, nil
}
