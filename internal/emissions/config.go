package emissions

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default estimator parameters. Each figure carries its provenance; the
// factor-set identifiers below end up in the response's sources list.
const (
	// DefaultEVShare is the electric share of road fleet energy (10%).
	// Source: EU passenger-fleet electrification estimates, 2024 vintage.
	DefaultEVShare = 0.10

	// DefaultChargingEfficiency is the grid-to-battery charging efficiency.
	// Grid energy drawn = vehicle energy demand / charging efficiency.
	DefaultChargingEfficiency = 0.92

	// DefaultCombustionGramsPerVehKm is the fleet-average combustion emission
	// factor in g CO2e per vehicle-km.
	// Source: COPERT Euro 6 urban fleet sample.
	DefaultCombustionGramsPerVehKm = 192.0

	// DefaultEVEnergyKWhPerVehKm is the electric fleet energy demand per
	// vehicle-km at the vehicle, before charging losses.
	DefaultEVEnergyKWhPerVehKm = 0.20

	// DefaultFallbackGridGramsPerKWh is the documented fallback grid
	// intensity applied when the roads estimator has an electric share but no
	// grid reading. Zero disables the fallback and makes that condition a
	// hard ErrIncompleteInputs failure.
	// Source: Cloud Carbon Footprint global average (392.78 gCO2e/kWh).
	DefaultFallbackGridGramsPerKWh = 392.78

	// DefaultGramsPerLTO is the CO2e mass per landing-and-takeoff cycle.
	// Source: ICAO LTO cycle, A320-family reference aircraft (~2.44 t).
	DefaultGramsPerLTO = 2_440_000.0

	// DefaultElectricTractionShare is the electric share of rail traction (60%).
	DefaultElectricTractionShare = 0.60

	// DefaultDieselGramsPerTrainKm is the diesel traction emission factor in
	// g CO2e per train-km.
	// Source: EEA rail transport averages, passenger service.
	DefaultDieselGramsPerTrainKm = 4_800.0

	// DefaultTractionKWhPerTrainKm is the electric traction energy demand per
	// train-km.
	DefaultTractionKWhPerTrainKm = 12.0

	// DefaultTransmissionLossFactor is the grid transmission-loss multiplier
	// applied to electric traction energy (8% loss).
	DefaultTransmissionLossFactor = 1.08
)

// 90% confidence half-widths, relative to the point estimate. These reflect
// the maturity of each module's activity proxy, not per-call statistics.
const (
	roadsCI90Rel    = 0.15
	aviationCI90Rel = 0.30
	railCI90Rel     = 0.25
)

// gramsPerTonne converts grams to metric tonnes.
const gramsPerTonne = 1e6

// RoadsConfig parameterizes the roads estimator.
type RoadsConfig struct {
	// EVShare is the electric fraction of fleet energy, in [0, 1].
	EVShare float64 `yaml:"ev_share"`

	// ChargingEfficiency derates grid energy drawn per unit of vehicle
	// energy demand, in (0, 1].
	ChargingEfficiency float64 `yaml:"charging_efficiency"`

	// CombustionGramsPerVehKm is the combustion fleet emission factor.
	CombustionGramsPerVehKm float64 `yaml:"combustion_g_per_vkm"`

	// EVEnergyKWhPerVehKm is the electric fleet energy demand per vehicle-km.
	EVEnergyKWhPerVehKm float64 `yaml:"ev_energy_kwh_per_vkm"`

	// FallbackGridGramsPerKWh is applied, with quality demoted to Qx, when
	// EVShare > 0 and no grid reading is available. Zero disables the
	// fallback; the estimator then fails with ErrIncompleteInputs.
	FallbackGridGramsPerKWh float64 `yaml:"fallback_grid_g_per_kwh"`
}

// AviationConfig parameterizes the aviation estimator.
type AviationConfig struct {
	// GramsPerLTO is the emission factor per landing-and-takeoff cycle.
	GramsPerLTO float64 `yaml:"g_per_lto"`
}

// RailConfig parameterizes the rail estimator.
type RailConfig struct {
	// ElectricShare is the electric fraction of traction, in [0, 1].
	ElectricShare float64 `yaml:"electric_share"`

	// DieselGramsPerTrainKm is the diesel traction emission factor.
	DieselGramsPerTrainKm float64 `yaml:"diesel_g_per_train_km"`

	// TractionKWhPerTrainKm is the electric traction energy demand.
	TractionKWhPerTrainKm float64 `yaml:"traction_kwh_per_train_km"`

	// TransmissionLossFactor multiplies electric traction energy for grid
	// transmission losses; must be >= 1.
	TransmissionLossFactor float64 `yaml:"transmission_loss_factor"`
}

// Config is the engine's estimator configuration. It is read-only for the
// engine's lifetime; tests vary it per call without cross-test interference.
type Config struct {
	Roads    RoadsConfig    `yaml:"roads"`
	Aviation AviationConfig `yaml:"aviation"`
	Rail     RailConfig     `yaml:"rail"`
}

// DefaultConfig returns the documented default estimator configuration.
func DefaultConfig() Config {
	return Config{
		Roads: RoadsConfig{
			EVShare:                 DefaultEVShare,
			ChargingEfficiency:      DefaultChargingEfficiency,
			CombustionGramsPerVehKm: DefaultCombustionGramsPerVehKm,
			EVEnergyKWhPerVehKm:     DefaultEVEnergyKWhPerVehKm,
			FallbackGridGramsPerKWh: DefaultFallbackGridGramsPerKWh,
		},
		Aviation: AviationConfig{
			GramsPerLTO: DefaultGramsPerLTO,
		},
		Rail: RailConfig{
			ElectricShare:          DefaultElectricTractionShare,
			DieselGramsPerTrainKm:  DefaultDieselGramsPerTrainKm,
			TractionKWhPerTrainKm:  DefaultTractionKWhPerTrainKm,
			TransmissionLossFactor: DefaultTransmissionLossFactor,
		},
	}
}

// LoadConfig reads a YAML estimator configuration file, overlaying it on the
// defaults so partial files stay valid.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects out-of-range shares, efficiencies and factors.
func (c Config) Validate() error {
	if c.Roads.EVShare < 0 || c.Roads.EVShare > 1 {
		return fmt.Errorf("roads.ev_share must be in [0, 1], got %v", c.Roads.EVShare)
	}
	if c.Roads.ChargingEfficiency <= 0 || c.Roads.ChargingEfficiency > 1 {
		return fmt.Errorf("roads.charging_efficiency must be in (0, 1], got %v", c.Roads.ChargingEfficiency)
	}
	if c.Roads.CombustionGramsPerVehKm < 0 {
		return fmt.Errorf("roads.combustion_g_per_vkm must be >= 0, got %v", c.Roads.CombustionGramsPerVehKm)
	}
	if c.Roads.EVEnergyKWhPerVehKm < 0 {
		return fmt.Errorf("roads.ev_energy_kwh_per_vkm must be >= 0, got %v", c.Roads.EVEnergyKWhPerVehKm)
	}
	if c.Roads.FallbackGridGramsPerKWh < 0 {
		return fmt.Errorf("roads.fallback_grid_g_per_kwh must be >= 0, got %v", c.Roads.FallbackGridGramsPerKWh)
	}
	if c.Aviation.GramsPerLTO < 0 {
		return fmt.Errorf("aviation.g_per_lto must be >= 0, got %v", c.Aviation.GramsPerLTO)
	}
	if c.Rail.ElectricShare < 0 || c.Rail.ElectricShare > 1 {
		return fmt.Errorf("rail.electric_share must be in [0, 1], got %v", c.Rail.ElectricShare)
	}
	if c.Rail.DieselGramsPerTrainKm < 0 {
		return fmt.Errorf("rail.diesel_g_per_train_km must be >= 0, got %v", c.Rail.DieselGramsPerTrainKm)
	}
	if c.Rail.TractionKWhPerTrainKm < 0 {
		return fmt.Errorf("rail.traction_kwh_per_train_km must be >= 0, got %v", c.Rail.TractionKWhPerTrainKm)
	}
	if c.Rail.TransmissionLossFactor < 1 {
		return fmt.Errorf("rail.transmission_loss_factor must be >= 1, got %v", c.Rail.TransmissionLossFactor)
	}
	return nil
}
