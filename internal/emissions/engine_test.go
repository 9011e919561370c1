package emissions

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zonecarbon/zonecarbon/internal/activity"
	"github.com/zonecarbon/zonecarbon/internal/zone"
)

// countingGridProvider records how often the engine fetches intensity.
type countingGridProvider struct {
	reading GridIntensityReading
	err     error
	calls   int
}

func (p *countingGridProvider) FetchIntensity(context.Context, GridQuery) (GridIntensityReading, error) {
	p.calls++
	if p.err != nil {
		return GridIntensityReading{}, p.err
	}
	return p.reading, nil
}

func testProvider() *countingGridProvider {
	return &countingGridProvider{reading: GridIntensityReading{
		GramsPerKWh: 250,
		ZoneName:    "DE",
		Source:      "gridmix:test",
	}}
}

func testEngine(grid GridProvider) *Engine {
	return NewEngine(
		DefaultConfig(),
		grid,
		stubRoadSource{act: activity.RoadActivity{VehicleKm: 1000, CoverageKm: 100, Source: "stub:traffic"}},
		stubFlightSource{act: activity.FlightActivity{LTOCount: 2, Source: "stub:opensky"}},
		stubRailSource{act: activity.RailActivity{TrainKm: 50, Source: "stub:rail"}},
		zerolog.Nop(),
	)
}

func allModules() ModuleSelection {
	return ModuleSelection{Roads: true, Aviation: true, Rail: true}
}

func testRequest(sel ModuleSelection) Request {
	return Request{
		Zone:          zone.FromScalars("berlin-mitte", 40, 0),
		WindowMinutes: 30,
		Modules:       sel,
		CountryHint:   "DE",
	}
}

func TestEngine_AllModules(t *testing.T) {
	grid := testProvider()
	est, err := testEngine(grid).Estimate(context.Background(), testRequest(allModules()))
	require.NoError(t, err)

	// Grid intensity is fetched exactly once even though both roads and rail
	// consume it.
	assert.Equal(t, 1, grid.calls)

	// One estimate per selected module, canonical order.
	require.Len(t, est.Modules, 3)
	assert.Equal(t, ModuleRoads, est.Modules[0].Module)
	assert.Equal(t, ModuleAviation, est.Modules[1].Module)
	assert.Equal(t, ModuleRail, est.Modules[2].Module)

	// The total is the exact sum of the parts.
	var sum float64
	for _, m := range est.Modules {
		assert.GreaterOrEqual(t, m.CO2eTonnes, 0.0)
		sum += m.CO2eTonnes
	}
	assert.Equal(t, sum, est.TotalCO2eTonnes)

	// Hand-computed module values under the default configuration.
	assert.InDelta(t, 0.192*0.9+(1000*0.1*0.2/0.92)*250/1e6, est.Modules[0].CO2eTonnes, 1e-12)
	assert.InDelta(t, 4.88, est.Modules[1].CO2eTonnes, 1e-12)
	assert.InDelta(t, 0.24*0.4+(12*50*1.08*250/1e6)*0.6, est.Modules[2].CO2eTonnes, 1e-12)

	// Sources in first-contribution order, grid source appended once.
	assert.Equal(t, []string{
		"stub:traffic", roadsFactorSource,
		"stub:opensky", aviationFactorSource,
		"stub:rail", railFactorSource,
		"gridmix:test",
	}, est.Sources)

	require.NotNil(t, est.GridIntensity)
	assert.Equal(t, 250.0, est.GridIntensity.GramsPerKWh)
	require.NotNil(t, est.CoverageKm)
	assert.Equal(t, 100.0, *est.CoverageKm)
	require.NotNil(t, est.TotalCI90Tonnes)
	assert.Greater(t, *est.TotalCI90Tonnes, 0.0)
	assert.NotEmpty(t, est.ZoneID)
	assert.Equal(t, 30, est.WindowMinutes)
}

func TestEngine_SelectionSubsets(t *testing.T) {
	tests := []struct {
		name string
		sel  ModuleSelection
		want []ModuleName
	}{
		{"roads only", ModuleSelection{Roads: true}, []ModuleName{ModuleRoads}},
		{"aviation only", ModuleSelection{Aviation: true}, []ModuleName{ModuleAviation}},
		{"rail only", ModuleSelection{Rail: true}, []ModuleName{ModuleRail}},
		{"roads and rail", ModuleSelection{Roads: true, Rail: true}, []ModuleName{ModuleRoads, ModuleRail}},
		{"aviation and roads", ModuleSelection{Roads: true, Aviation: true}, []ModuleName{ModuleRoads, ModuleAviation}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est, err := testEngine(testProvider()).Estimate(context.Background(), testRequest(tt.sel))
			require.NoError(t, err)

			require.Len(t, est.Modules, tt.sel.Count())
			got := make([]ModuleName, 0, len(est.Modules))
			for _, m := range est.Modules {
				got = append(got, m.Module)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEngine_EmptySelection(t *testing.T) {
	grid := testProvider()
	est, err := testEngine(grid).Estimate(context.Background(), testRequest(ModuleSelection{}))
	require.NoError(t, err)

	assert.Zero(t, est.TotalCO2eTonnes)
	assert.Empty(t, est.Modules)
	assert.Empty(t, est.Sources)
	assert.Nil(t, est.GridIntensity)
	assert.Nil(t, est.TotalCI90Tonnes)
	assert.Equal(t, 0, grid.calls)
	assert.NotEmpty(t, est.ZoneID)
}

func TestEngine_GridNotFetchedWhenUnneeded(t *testing.T) {
	grid := testProvider()
	est, err := testEngine(grid).Estimate(context.Background(), testRequest(ModuleSelection{Aviation: true}))
	require.NoError(t, err)

	assert.Equal(t, 0, grid.calls)
	assert.Nil(t, est.GridIntensity)
}

func TestEngine_ZeroEVShareSkipsGridForRoads(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Roads.EVShare = 0

	grid := testProvider()
	eng := NewEngine(
		cfg,
		grid,
		stubRoadSource{act: activity.RoadActivity{VehicleKm: 1000, CoverageKm: 100, Source: "stub:traffic"}},
		stubFlightSource{act: activity.FlightActivity{LTOCount: 2, Source: "stub:opensky"}},
		stubRailSource{act: activity.RailActivity{TrainKm: 50, Source: "stub:rail"}},
		zerolog.Nop(),
	)

	est, err := eng.Estimate(context.Background(), testRequest(ModuleSelection{Roads: true}))
	require.NoError(t, err)
	assert.Equal(t, 0, grid.calls)
	assert.Nil(t, est.GridIntensity)
}

func TestEngine_InvalidWindow(t *testing.T) {
	for _, window := range []int{0, -5} {
		req := testRequest(allModules())
		req.WindowMinutes = window

		_, err := testEngine(testProvider()).Estimate(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidWindow)
	}
}

func TestEngine_InvalidZone(t *testing.T) {
	req := testRequest(allModules())
	req.Zone = zone.Spec{}

	_, err := testEngine(testProvider()).Estimate(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidZone)
}

func TestEngine_UpstreamFailureAborts(t *testing.T) {
	grid := &countingGridProvider{err: ErrUpstreamUnavailable}
	est, err := testEngine(grid).Estimate(context.Background(), testRequest(allModules()))

	// No partial aggregate on a grid failure; it is a prerequisite resource.
	assert.Nil(t, est)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestEngine_ProviderInvalidZonePreserved(t *testing.T) {
	grid := &countingGridProvider{err: ErrInvalidZone}
	_, err := testEngine(grid).Estimate(context.Background(), testRequest(allModules()))
	assert.ErrorIs(t, err, ErrInvalidZone)
}

func TestEngine_ModuleFailureAborts(t *testing.T) {
	cause := errors.New("adsb feed down")
	eng := NewEngine(
		DefaultConfig(),
		testProvider(),
		stubRoadSource{act: activity.RoadActivity{VehicleKm: 1000, CoverageKm: 100, Source: "stub:traffic"}},
		stubFlightSource{err: cause},
		stubRailSource{act: activity.RailActivity{TrainKm: 50, Source: "stub:rail"}},
		zerolog.Nop(),
	)

	est, err := eng.Estimate(context.Background(), testRequest(allModules()))
	assert.Nil(t, est)

	var modErr *ModuleError
	require.ErrorAs(t, err, &modErr)
	assert.Equal(t, ModuleAviation, modErr.Module)
	assert.ErrorIs(t, err, cause)
}

func TestEngine_PureGivenInputs(t *testing.T) {
	eng := testEngine(testProvider())
	req := testRequest(allModules())

	a, err := eng.Estimate(context.Background(), req)
	require.NoError(t, err)
	b, err := eng.Estimate(context.Background(), req)
	require.NoError(t, err)

	// Fresh opaque ID per call, identical arithmetic otherwise.
	assert.NotEqual(t, a.ZoneID, b.ZoneID)
	a.ZoneID = b.ZoneID
	assert.Equal(t, a, b)
}
