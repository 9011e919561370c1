// Package zone describes the geographic area an estimation applies to.
//
// A Spec is either built from a GeoJSON polygon drawn by the caller or from
// pre-derived scalar proxies (area, covered road length). The engine never
// does geometry beyond deriving those scalars from the ring.
package zone

import (
	"errors"
	"fmt"
	"math"

	"github.com/goccy/go-json"
)

// EarthRadiusKm is the mean Earth radius used for planar projection.
const EarthRadiusKm = 6371.0

// ErrDegenerate indicates a zone with no usable geometry or scalar proxies.
var ErrDegenerate = errors.New("degenerate zone")

// Point is a geographic coordinate in degrees.
type Point struct {
	Lon float64
	Lat float64
}

// Spec identifies the area of interest for one estimation call.
// It is immutable once constructed and borrowed read-only by the engine.
type Spec struct {
	// Name is an optional human-readable label for the zone.
	Name string

	// Ring is the outer polygon ring (unclosed; first vertex is not repeated).
	Ring []Point

	// AreaKm2 is the zone area. Derived from Ring when a ring is present,
	// otherwise supplied directly as a scalar proxy.
	AreaKm2 float64

	// RoadKm is the covered road length proxy, when the caller already has it.
	// Zero means "not supplied"; activity sources then derive their own proxy
	// from the area.
	RoadKm float64
}

// geoJSONGeometry is the subset of GeoJSON the zone parser understands.
type geoJSONGeometry struct {
	Type        string          `json:"type"`
	Coordinates [][][2]float64  `json:"coordinates"`
	Geometry    json.RawMessage `json:"geometry"`
}

// FromGeoJSON builds a Spec from a GeoJSON Polygon or a Feature wrapping one.
// Only the outer ring is read. Holes and multi-polygons are not supported.
func FromGeoJSON(raw json.RawMessage, name string) (Spec, error) {
	var geom geoJSONGeometry
	if err := json.Unmarshal(raw, &geom); err != nil {
		return Spec{}, fmt.Errorf("parse geojson: %w", err)
	}

	// Unwrap a Feature to its geometry.
	if geom.Type == "Feature" && len(geom.Geometry) > 0 {
		return FromGeoJSON(geom.Geometry, name)
	}

	if geom.Type != "Polygon" {
		return Spec{}, fmt.Errorf("unsupported geojson type %q", geom.Type)
	}
	if len(geom.Coordinates) == 0 {
		return Spec{}, ErrDegenerate
	}

	outer := geom.Coordinates[0]
	ring := make([]Point, 0, len(outer))
	for _, c := range outer {
		ring = append(ring, Point{Lon: c[0], Lat: c[1]})
	}
	// GeoJSON rings repeat the first vertex at the end; drop the closure.
	if len(ring) > 1 && ring[0] == ring[len(ring)-1] {
		ring = ring[:len(ring)-1]
	}

	spec := Spec{Name: name, Ring: ring}
	spec.AreaKm2 = ringAreaKm2(ring)
	return spec, nil
}

// FromScalars builds a Spec from pre-derived scalar proxies, for callers that
// already resolved geometry upstream.
func FromScalars(name string, areaKm2, roadKm float64) Spec {
	return Spec{Name: name, AreaKm2: areaKm2, RoadKm: roadKm}
}

// Validate reports whether the spec identifies a usable area. A spec is
// degenerate when it has neither a polygon of at least three vertices nor a
// positive scalar proxy.
func (s Spec) Validate() error {
	if len(s.Ring) >= 3 && ringAreaKm2(s.Ring) > 0 {
		return nil
	}
	if len(s.Ring) == 0 && (s.AreaKm2 > 0 || s.RoadKm > 0) {
		return nil
	}
	return ErrDegenerate
}

// Centroid returns the arithmetic mean of the ring vertices, used to resolve
// the zone against region-keyed data sources. Returns the zero Point when the
// spec has no ring.
func (s Spec) Centroid() Point {
	if len(s.Ring) == 0 {
		return Point{}
	}
	var lon, lat float64
	for _, p := range s.Ring {
		lon += p.Lon
		lat += p.Lat
	}
	n := float64(len(s.Ring))
	return Point{Lon: lon / n, Lat: lat / n}
}

// ringAreaKm2 computes the polygon area with the shoelace formula on an
// equirectangular projection about the ring centroid. Accurate enough for
// city-scale zones; this is a scalar proxy, not survey-grade geometry.
func ringAreaKm2(ring []Point) float64 {
	if len(ring) < 3 {
		return 0
	}

	var latSum float64
	for _, p := range ring {
		latSum += p.Lat
	}
	lat0 := latSum / float64(len(ring))
	cosLat := math.Cos(lat0 * math.Pi / 180)

	// Project to kilometers.
	xs := make([]float64, len(ring))
	ys := make([]float64, len(ring))
	for i, p := range ring {
		xs[i] = EarthRadiusKm * (p.Lon * math.Pi / 180) * cosLat
		ys[i] = EarthRadiusKm * (p.Lat * math.Pi / 180)
	}

	var twice float64
	for i := range ring {
		j := (i + 1) % len(ring)
		twice += xs[i]*ys[j] - xs[j]*ys[i]
	}
	return math.Abs(twice) / 2
}
