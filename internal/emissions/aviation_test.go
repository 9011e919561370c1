package emissions

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zonecarbon/zonecarbon/internal/activity"
	"github.com/zonecarbon/zonecarbon/internal/zone"
)

type stubFlightSource struct {
	act activity.FlightActivity
	err error
}

func (s stubFlightSource) FlightSnapshot(context.Context, zone.Spec, int) (activity.FlightActivity, error) {
	return s.act, s.err
}

func TestAviationEstimator(t *testing.T) {
	src := stubFlightSource{act: activity.FlightActivity{LTOCount: 2.5, Source: "stub:opensky"}}
	e := NewAviationEstimator(AviationConfig{GramsPerLTO: 2_440_000}, src)

	// The LTO cycle is modeled as fully combustion-based.
	assert.False(t, e.NeedsGridIntensity())

	est, err := e.Estimate(context.Background(), testInputs(nil))
	require.NoError(t, err)

	assert.InDelta(t, 2.5*2_440_000/1e6, est.CO2eTonnes, 1e-12)
	assert.Equal(t, QualityQ2, est.Quality)
	assert.Nil(t, est.CoverageKm)
	require.NotNil(t, est.CI90Tonnes)
	assert.InDelta(t, est.CO2eTonnes*aviationCI90Rel, *est.CI90Tonnes, 1e-12)

	require.Len(t, est.Notes, 1)
	assert.Contains(t, est.Notes[0], "stub:opensky")
	assert.Equal(t, []string{"stub:opensky", aviationFactorSource}, est.Sources)
}

func TestAviationEstimator_ZeroActivity(t *testing.T) {
	src := stubFlightSource{act: activity.FlightActivity{LTOCount: 0, Source: "stub:opensky"}}
	est, err := NewAviationEstimator(DefaultConfig().Aviation, src).Estimate(context.Background(), testInputs(nil))
	require.NoError(t, err)
	assert.Zero(t, est.CO2eTonnes)
}

func TestAviationEstimator_ActivityFailure(t *testing.T) {
	src := stubFlightSource{err: errors.New("adsb feed down")}
	_, err := NewAviationEstimator(DefaultConfig().Aviation, src).Estimate(context.Background(), testInputs(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flight activity")
}
