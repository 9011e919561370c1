package emissions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.10, cfg.Roads.EVShare)
	assert.Equal(t, 0.92, cfg.Roads.ChargingEfficiency)
	assert.Equal(t, 0.60, cfg.Rail.ElectricShare)
	assert.Equal(t, 1.08, cfg.Rail.TransmissionLossFactor)
}

func TestLoadConfig_PartialOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "estimators.yaml")
	data := []byte("roads:\n  ev_share: 0.5\n  charging_efficiency: 0.92\n  combustion_g_per_vkm: 192\n  ev_energy_kwh_per_vkm: 0.2\nrail:\n  electric_share: 0.8\n  diesel_g_per_train_km: 4800\n  traction_kwh_per_train_km: 12\n  transmission_loss_factor: 1.08\n")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.Roads.EVShare)
	assert.Equal(t, 0.8, cfg.Rail.ElectricShare)
	// Sections absent from the file keep their defaults.
	assert.Equal(t, DefaultGramsPerLTO, cfg.Aviation.GramsPerLTO)
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "estimators.yaml")
	require.NoError(t, os.WriteFile(path, []byte("roads: ["), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"ev share above one", func(c *Config) { c.Roads.EVShare = 1.1 }},
		{"negative ev share", func(c *Config) { c.Roads.EVShare = -0.1 }},
		{"zero charging efficiency", func(c *Config) { c.Roads.ChargingEfficiency = 0 }},
		{"charging efficiency above one", func(c *Config) { c.Roads.ChargingEfficiency = 1.2 }},
		{"negative combustion factor", func(c *Config) { c.Roads.CombustionGramsPerVehKm = -1 }},
		{"negative ev energy", func(c *Config) { c.Roads.EVEnergyKWhPerVehKm = -1 }},
		{"negative fallback intensity", func(c *Config) { c.Roads.FallbackGridGramsPerKWh = -1 }},
		{"negative lto factor", func(c *Config) { c.Aviation.GramsPerLTO = -1 }},
		{"electric share above one", func(c *Config) { c.Rail.ElectricShare = 2 }},
		{"negative diesel factor", func(c *Config) { c.Rail.DieselGramsPerTrainKm = -1 }},
		{"negative traction energy", func(c *Config) { c.Rail.TractionKWhPerTrainKm = -1 }},
		{"loss factor below one", func(c *Config) { c.Rail.TransmissionLossFactor = 0.9 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestQualityGradeRank(t *testing.T) {
	assert.Greater(t, QualityQ1.Rank(), QualityQ2.Rank())
	assert.Greater(t, QualityQ2.Rank(), QualityQ3.Rank())
	assert.Greater(t, QualityQ3.Rank(), QualityQx.Rank())
}
