// Package activity supplies the per-module activity proxies the estimators
// consume: vehicle-kilometers for roads, LTO operations for aviation and
// train-kilometers for rail.
//
// Real deployments back these interfaces with fleet-tracking, flight-tracking
// and transit feeds. The Synthetic* implementations derive deterministic
// proxies from zone scalars so the engine stays pure and testable; they stand
// in for telemetry the same way the original mock layer did, minus the
// randomness.
package activity

import (
	"context"

	"github.com/zonecarbon/zonecarbon/internal/zone"
)

// RoadActivity is the roads activity proxy for one zone and window.
type RoadActivity struct {
	// VehicleKm is the estimated vehicle-kilometers driven during the window.
	VehicleKm float64

	// CoverageKm is the covered road length inside the zone.
	CoverageKm float64

	// Source identifies where the proxy came from, for audit notes.
	Source string
}

// FlightActivity is the aviation activity proxy for one zone and window.
type FlightActivity struct {
	// LTOCount is the number of landing-and-takeoff cycles during the window.
	LTOCount float64

	Source string
}

// RailActivity is the rail activity proxy for one zone and window.
type RailActivity struct {
	// TrainKm is the train-kilometers run during the window.
	TrainKm float64

	Source string
}

// RoadSource supplies road activity proxies.
type RoadSource interface {
	RoadSnapshot(ctx context.Context, z zone.Spec, windowMin int) (RoadActivity, error)
}

// FlightSource supplies aviation activity proxies.
type FlightSource interface {
	FlightSnapshot(ctx context.Context, z zone.Spec, windowMin int) (FlightActivity, error)
}

// RailSource supplies rail activity proxies.
type RailSource interface {
	RailSnapshot(ctx context.Context, z zone.Spec, windowMin int) (RailActivity, error)
}
