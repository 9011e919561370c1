package emissions

import (
	"context"
	"fmt"

	"github.com/zonecarbon/zonecarbon/internal/activity"
)

// roadsFactorSource identifies the combustion factor set in audit trails.
const roadsFactorSource = "factors:copert-euro6-sample"

// RoadsEstimator estimates road transport emissions from a vehicle-km
// activity proxy, splitting fleet energy between combustion and electric
// vehicles. The electric share's energy draw is billed against the shared
// grid carbon-intensity reading.
type RoadsEstimator struct {
	cfg RoadsConfig
	src activity.RoadSource
}

// NewRoadsEstimator creates a roads estimator backed by the given activity source.
func NewRoadsEstimator(cfg RoadsConfig, src activity.RoadSource) *RoadsEstimator {
	return &RoadsEstimator{cfg: cfg, src: src}
}

func (e *RoadsEstimator) Module() ModuleName { return ModuleRoads }

// NeedsGridIntensity is true whenever any fleet energy is electric.
func (e *RoadsEstimator) NeedsGridIntensity() bool { return e.cfg.EVShare > 0 }

// Estimate computes the roads CO2e mass for one zone and window.
//
// The calculation:
//  1. Baseline combustion mass = vehicle-km × combustion factor (g/vkm)
//  2. Combustion share billed at (1 − EV share)
//  3. Electric energy demand (kWh) = vehicle-km × EV share × kWh/vkm
//  4. Grid energy drawn = demand / charging efficiency
//  5. Electric mass = grid energy × grid intensity (g/kWh)
//  6. Total = combustion-share mass + electric mass, grams → tonnes (÷1e6)
//
// A missing grid reading while the EV share is above zero is never treated as
// zero intensity: the estimator applies the configured fallback intensity and
// demotes quality to Qx, or fails with ErrIncompleteInputs when no fallback
// is configured.
func (e *RoadsEstimator) Estimate(ctx context.Context, in EstimateInputs) (ModuleEstimate, error) {
	act, err := e.src.RoadSnapshot(ctx, in.Zone, in.WindowMinutes)
	if err != nil {
		return ModuleEstimate{}, fmt.Errorf("road activity: %w", err)
	}

	combustionTonnes := act.VehicleKm * e.cfg.CombustionGramsPerVehKm / gramsPerTonne

	notes := []string{
		fmt.Sprintf("road activity from %s: %.1f vehicle-km over %.1f km covered road",
			act.Source, act.VehicleKm, act.CoverageKm),
	}
	sources := []string{act.Source, roadsFactorSource}
	quality := QualityQ1

	var electricTonnes float64
	if e.cfg.EVShare > 0 {
		intensity := 0.0
		switch {
		case in.Grid != nil:
			intensity = in.Grid.GramsPerKWh
			notes = append(notes, fmt.Sprintf("grid intensity %.2f gCO2e/kWh (%s) applied to %.0f%% electric fleet share",
				in.Grid.GramsPerKWh, in.Grid.ZoneName, e.cfg.EVShare*100))
		case e.cfg.FallbackGridGramsPerKWh > 0:
			intensity = e.cfg.FallbackGridGramsPerKWh
			quality = QualityQx
			notes = append(notes, fmt.Sprintf("grid intensity unavailable; fallback %.2f gCO2e/kWh applied to %.0f%% electric fleet share",
				intensity, e.cfg.EVShare*100))
		default:
			return ModuleEstimate{}, fmt.Errorf("%w: ev share %.2f requires a grid intensity reading",
				ErrIncompleteInputs, e.cfg.EVShare)
		}

		demandKWh := act.VehicleKm * e.cfg.EVShare * e.cfg.EVEnergyKWhPerVehKm
		gridDrawKWh := demandKWh / e.cfg.ChargingEfficiency
		electricTonnes = gridDrawKWh * intensity / gramsPerTonne
	}

	total := combustionTonnes*(1-e.cfg.EVShare) + electricTonnes

	est := ModuleEstimate{
		Module:     ModuleRoads,
		CO2eTonnes: total,
		Quality:    quality,
		Notes:      notes,
		Sources:    sources,
		CoverageKm: float64Ptr(act.CoverageKm),
	}
	if quality != QualityQx {
		est.CI90Tonnes = float64Ptr(total * roadsCI90Rel)
	}
	return est, nil
}
