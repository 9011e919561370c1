package emissions

import (
	"context"
	"fmt"

	"github.com/zonecarbon/zonecarbon/internal/activity"
)

const railFactorSource = "factors:eea-rail-traction"

// RailEstimator estimates rail emissions from a train-km activity proxy,
// splitting traction energy between diesel and electric. Electric traction is
// billed against the shared grid carbon-intensity reading after a grid
// transmission-loss uplift.
type RailEstimator struct {
	cfg RailConfig
	src activity.RailSource
}

// NewRailEstimator creates a rail estimator backed by the given activity source.
func NewRailEstimator(cfg RailConfig, src activity.RailSource) *RailEstimator {
	return &RailEstimator{cfg: cfg, src: src}
}

func (e *RailEstimator) Module() ModuleName { return ModuleRail }

// NeedsGridIntensity is true whenever any traction is electric.
func (e *RailEstimator) NeedsGridIntensity() bool { return e.cfg.ElectricShare > 0 }

// Estimate computes the rail CO2e mass for one zone and window.
//
// The calculation:
//  1. Diesel path = train-km × diesel factor (g/train-km)
//  2. Electric path = kWh/train-km × train-km × transmission-loss multiplier
//     × grid intensity (g/kWh)
//  3. Total = diesel path × (1 − electric share) + electric path × electric
//     share, grams → tonnes (÷1e6)
//
// An electric share above zero requires the grid reading; the engine supplies
// it whenever rail is selected, but a standalone caller omitting it gets
// ErrIncompleteInputs rather than a silently zeroed electric path.
func (e *RailEstimator) Estimate(ctx context.Context, in EstimateInputs) (ModuleEstimate, error) {
	act, err := e.src.RailSnapshot(ctx, in.Zone, in.WindowMinutes)
	if err != nil {
		return ModuleEstimate{}, fmt.Errorf("rail activity: %w", err)
	}

	dieselTonnes := act.TrainKm * e.cfg.DieselGramsPerTrainKm / gramsPerTonne

	notes := []string{
		fmt.Sprintf("rail activity from %s: %.1f train-km", act.Source, act.TrainKm),
		fmt.Sprintf("electric traction share %.0f%% applied", e.cfg.ElectricShare*100),
	}

	var electricTonnes float64
	if e.cfg.ElectricShare > 0 {
		if in.Grid == nil {
			return ModuleEstimate{}, fmt.Errorf("%w: electric traction share %.2f requires a grid intensity reading",
				ErrIncompleteInputs, e.cfg.ElectricShare)
		}
		tractionKWh := e.cfg.TractionKWhPerTrainKm * act.TrainKm * e.cfg.TransmissionLossFactor
		electricTonnes = tractionKWh * in.Grid.GramsPerKWh / gramsPerTonne
		notes = append(notes, fmt.Sprintf("grid intensity %.2f gCO2e/kWh (%s) applied to electric traction",
			in.Grid.GramsPerKWh, in.Grid.ZoneName))
	}

	total := dieselTonnes*(1-e.cfg.ElectricShare) + electricTonnes*e.cfg.ElectricShare

	return ModuleEstimate{
		Module:     ModuleRail,
		CO2eTonnes: total,
		CI90Tonnes: float64Ptr(total * railCI90Rel),
		Quality:    QualityQ2,
		Notes:      notes,
		Sources:    []string{act.Source, railFactorSource},
	}, nil
}
