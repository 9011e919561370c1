package activity

import (
	"context"

	"github.com/zonecarbon/zonecarbon/internal/zone"
)

// Density assumptions for the synthetic sources, calibrated to a mid-size
// European city. All are per-km² figures scaled by zone area and window.
const (
	// DefaultRoadDensityKmPerKm2 is the covered road length per km² of urban area.
	DefaultRoadDensityKmPerKm2 = 2.5

	// DefaultVehiclesPerRoadKmHour is the mean number of vehicles passing a
	// road-kilometer per hour, i.e. vehicle-km generated per covered km per hour.
	DefaultVehiclesPerRoadKmHour = 90.0

	// DefaultLTOPerKm2Hour is the landing-and-takeoff operations per km² per
	// hour attributable to airport activity inside or near the zone.
	DefaultLTOPerKm2Hour = 0.02

	// DefaultTrackDensityKmPerKm2 is the rail track length per km² of urban area.
	DefaultTrackDensityKmPerKm2 = 0.15

	// DefaultTrainsPerTrackKmHour is the train movements per track-kilometer
	// per hour, i.e. train-km generated per track km per hour.
	DefaultTrainsPerTrackKmHour = 4.0
)

// Synthetic source identifiers, kept stable because they end up in the
// response's sources list.
const (
	SyntheticRoadSourceID   = "synthetic:road-traffic/v1"
	SyntheticFlightSourceID = "synthetic:lto-schedule/v1"
	SyntheticRailSourceID   = "synthetic:rail-timetable/v1"
)

// SyntheticRoadSource derives road activity from zone scalars.
// The zero value uses the default densities.
type SyntheticRoadSource struct {
	RoadDensityKmPerKm2   float64
	VehiclesPerRoadKmHour float64
}

// RoadSnapshot derives coverage from the zone's road-length proxy when the
// caller supplied one, otherwise from area and road density, then scales
// vehicle-km by the window.
func (s SyntheticRoadSource) RoadSnapshot(_ context.Context, z zone.Spec, windowMin int) (RoadActivity, error) {
	density := s.RoadDensityKmPerKm2
	if density <= 0 {
		density = DefaultRoadDensityKmPerKm2
	}
	flow := s.VehiclesPerRoadKmHour
	if flow <= 0 {
		flow = DefaultVehiclesPerRoadKmHour
	}

	coverageKm := z.RoadKm
	if coverageKm <= 0 {
		coverageKm = z.AreaKm2 * density
	}

	hours := float64(windowMin) / 60.0
	return RoadActivity{
		VehicleKm:  coverageKm * flow * hours,
		CoverageKm: coverageKm,
		Source:     SyntheticRoadSourceID,
	}, nil
}

// SyntheticFlightSource derives LTO activity from zone scalars.
// The zero value uses the default densities.
type SyntheticFlightSource struct {
	LTOPerKm2Hour float64
}

func (s SyntheticFlightSource) FlightSnapshot(_ context.Context, z zone.Spec, windowMin int) (FlightActivity, error) {
	perKm2Hour := s.LTOPerKm2Hour
	if perKm2Hour <= 0 {
		perKm2Hour = DefaultLTOPerKm2Hour
	}

	hours := float64(windowMin) / 60.0
	return FlightActivity{
		LTOCount: z.AreaKm2 * perKm2Hour * hours,
		Source:   SyntheticFlightSourceID,
	}, nil
}

// SyntheticRailSource derives rail activity from zone scalars.
// The zero value uses the default densities.
type SyntheticRailSource struct {
	TrackDensityKmPerKm2 float64
	TrainsPerTrackKmHour float64
}

func (s SyntheticRailSource) RailSnapshot(_ context.Context, z zone.Spec, windowMin int) (RailActivity, error) {
	density := s.TrackDensityKmPerKm2
	if density <= 0 {
		density = DefaultTrackDensityKmPerKm2
	}
	movements := s.TrainsPerTrackKmHour
	if movements <= 0 {
		movements = DefaultTrainsPerTrackKmHour
	}

	hours := float64(windowMin) / 60.0
	return RailActivity{
		TrainKm: z.AreaKm2 * density * movements * hours,
		Source:  SyntheticRailSourceID,
	}, nil
}
