package emissions

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/zonecarbon/zonecarbon/internal/activity"
)

// Engine aggregates module estimators into one zone estimate. All state is
// call-local apart from the read-only configuration and the injected
// collaborators, so a single Engine is safe for concurrent use.
type Engine struct {
	grid       GridProvider
	estimators []ModuleEstimator
	logger     zerolog.Logger
}

// NewEngine creates an engine with the standard estimator set (roads,
// aviation, rail) built from the configuration and activity sources.
func NewEngine(
	cfg Config,
	grid GridProvider,
	roads activity.RoadSource,
	flights activity.FlightSource,
	rail activity.RailSource,
	logger zerolog.Logger,
) *Engine {
	return NewEngineWithEstimators(grid, []ModuleEstimator{
		NewRoadsEstimator(cfg.Roads, roads),
		NewAviationEstimator(cfg.Aviation, flights),
		NewRailEstimator(cfg.Rail, rail),
	}, logger)
}

// NewEngineWithEstimators creates an engine over an explicit estimator set.
// Estimators run and assemble in CanonicalOrder regardless of slice order;
// extending the set (e.g. maritime) means adding the module name to
// CanonicalOrder and passing its estimator here.
func NewEngineWithEstimators(grid GridProvider, estimators []ModuleEstimator, logger zerolog.Logger) *Engine {
	byModule := make(map[ModuleName]ModuleEstimator, len(estimators))
	for _, est := range estimators {
		byModule[est.Module()] = est
	}
	ordered := make([]ModuleEstimator, 0, len(estimators))
	for _, m := range CanonicalOrder {
		if est, ok := byModule[m]; ok {
			ordered = append(ordered, est)
		}
	}
	return &Engine{grid: grid, estimators: ordered, logger: logger}
}

// Estimate runs one estimation call. It returns either a complete
// ZoneEstimate or a typed error; a requested module is never silently
// omitted and partial aggregates are never returned as success.
func (e *Engine) Estimate(ctx context.Context, req Request) (*ZoneEstimate, error) {
	start := time.Now()

	if err := req.Zone.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidZone, err)
	}
	if req.WindowMinutes <= 0 {
		return nil, fmt.Errorf("%w: %d minutes", ErrInvalidWindow, req.WindowMinutes)
	}

	est := &ZoneEstimate{
		ZoneID:        uuid.New().String(),
		WindowMinutes: req.WindowMinutes,
		Modules:       []ModuleEstimate{},
		Sources:       []string{},
	}

	var enabled []ModuleEstimator
	for _, me := range e.estimators {
		if req.Modules.Enabled(me.Module()) {
			enabled = append(enabled, me)
		}
	}

	// An empty selection is a valid request with a zero total.
	if len(enabled) == 0 {
		return est, nil
	}

	// Grid intensity is a shared, call-scoped resource: fetched at most once,
	// and only when some selected estimator needs it.
	var grid *GridIntensityReading
	if gridRequired(enabled) {
		reading, err := e.fetchIntensity(ctx, req)
		if err != nil {
			return nil, err
		}
		grid = &reading
	}

	// Estimators are pure and independent, so they evaluate concurrently;
	// canonical ordering is applied at assembly, not completion.
	results := make([]ModuleEstimate, len(enabled))
	g, gctx := errgroup.WithContext(ctx)
	for i, me := range enabled {
		g.Go(func() error {
			in := EstimateInputs{Zone: req.Zone, WindowMinutes: req.WindowMinutes}
			if me.NeedsGridIntensity() {
				in.Grid = grid
			}
			out, err := me.Estimate(gctx, in)
			if err != nil {
				return &ModuleError{Module: me.Module(), Err: err}
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.assemble(est, results, grid)

	e.logger.Info().
		Str("zone_id", est.ZoneID).
		Str("zone_name", req.Zone.Name).
		Int("window_min", req.WindowMinutes).
		Int("modules", len(results)).
		Float64("co2e_t", est.TotalCO2eTonnes).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("zone estimate computed")

	return est, nil
}

// fetchIntensity resolves the zone to a grid region and fetches the shared
// intensity reading. Any failure aborts the whole estimation; grid intensity
// is a prerequisite, not optional-per-module.
func (e *Engine) fetchIntensity(ctx context.Context, req Request) (GridIntensityReading, error) {
	c := req.Zone.Centroid()
	reading, err := e.grid.FetchIntensity(ctx, GridQuery{
		ZoneName:    req.Zone.Name,
		CountryHint: req.CountryHint,
		Lat:         c.Lat,
		Lon:         c.Lon,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidZone) || errors.Is(err, ErrUpstreamUnavailable) {
			return GridIntensityReading{}, err
		}
		return GridIntensityReading{}, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return reading, nil
}

// assemble merges module results into the response: exact total, quadrature
// confidence interval, first-contribution source order and the grid reading
// when one was consumed.
func (e *Engine) assemble(est *ZoneEstimate, results []ModuleEstimate, grid *GridIntensityReading) {
	var ciSquares float64
	var haveCI bool

	for _, r := range results {
		est.Modules = append(est.Modules, r)
		est.TotalCO2eTonnes += r.CO2eTonnes
		est.Sources = append(est.Sources, r.Sources...)

		if r.CI90Tonnes != nil {
			ciSquares += *r.CI90Tonnes * *r.CI90Tonnes
			haveCI = true
		}
		if r.CoverageKm != nil && est.CoverageKm == nil {
			est.CoverageKm = r.CoverageKm
		}
	}

	if haveCI {
		est.TotalCI90Tonnes = float64Ptr(math.Sqrt(ciSquares))
	}
	if grid != nil {
		est.Sources = append(est.Sources, grid.Source)
		est.GridIntensity = grid
	}
}

func gridRequired(enabled []ModuleEstimator) bool {
	for _, me := range enabled {
		if me.NeedsGridIntensity() {
			return true
		}
	}
	return false
}
