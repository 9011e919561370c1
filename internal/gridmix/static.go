// Package gridmix resolves zones to grid carbon-intensity readings.
//
// Two providers are included: a bundled country-level factor table for
// offline operation and an HTTP client for live intensity feeds. Both
// implement emissions.GridProvider.
package gridmix

import (
	"context"
	"strings"

	"github.com/zonecarbon/zonecarbon/internal/emissions"
)

// CountryIntensity maps ISO 3166-1 alpha-2 country codes to annual-average
// grid carbon intensity in grams CO2e per kWh.
//
// Source: Ember yearly electricity data, 2024 vintage.
var CountryIntensity = map[string]float64{
	"AT": 110, // Austria (hydro-heavy)
	"AU": 549, // Australia
	"BE": 139, // Belgium
	"CA": 171, // Canada
	"CH": 46,  // Switzerland
	"CN": 582, // China
	"CZ": 415, // Czechia
	"DE": 381, // Germany
	"DK": 151, // Denmark
	"ES": 174, // Spain
	"FI": 79,  // Finland
	"FR": 56,  // France (nuclear-heavy)
	"GB": 238, // United Kingdom
	"IN": 713, // India
	"IT": 331, // Italy
	"JP": 485, // Japan
	"NL": 328, // Netherlands
	"NO": 29,  // Norway (very low carbon)
	"PL": 662, // Poland (coal-heavy)
	"SE": 41,  // Sweden (very low carbon)
	"US": 379, // United States
}

// DefaultIntensityGramsPerKWh is used when a zone resolves to no listed
// country. Global average, same vintage as the table.
const DefaultIntensityGramsPerKWh = 392.78

// StaticSourceID identifies the bundled table in the response's sources list.
const StaticSourceID = "gridmix:static-factors/2024"

// StaticProvider serves intensities from the bundled country table. It never
// fails: an unrecognized country falls back to the global average, labeled as
// such so the caller can see the degradation.
type StaticProvider struct{}

// NewStaticProvider creates a provider over the bundled factor table.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{}
}

// FetchIntensity resolves the query's country hint against the bundled table.
func (p *StaticProvider) FetchIntensity(_ context.Context, q emissions.GridQuery) (emissions.GridIntensityReading, error) {
	code := strings.ToUpper(strings.TrimSpace(q.CountryHint))
	if intensity, ok := CountryIntensity[code]; ok {
		return emissions.GridIntensityReading{
			GramsPerKWh: intensity,
			ZoneName:    code,
			Source:      StaticSourceID,
		}, nil
	}
	return emissions.GridIntensityReading{
		GramsPerKWh: DefaultIntensityGramsPerKWh,
		ZoneName:    "global-average",
		Source:      StaticSourceID,
	}, nil
}
