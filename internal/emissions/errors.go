package emissions

import (
	"errors"
	"fmt"
)

// Typed errors returned by the engine and providers. Callers match them with
// errors.Is / errors.As; the engine never returns a partial aggregate
// alongside any of these.
var (
	// ErrInvalidZone means the zone spec is empty or degenerate, or an
	// upstream provider could not resolve it to a region.
	ErrInvalidZone = errors.New("invalid zone")

	// ErrInvalidWindow means the estimation window is zero or negative.
	ErrInvalidWindow = errors.New("invalid estimation window")

	// ErrUpstreamUnavailable means an external data source (grid intensity or
	// an activity feed) was unreachable or timed out.
	ErrUpstreamUnavailable = errors.New("upstream data source unavailable")

	// ErrIncompleteInputs means a required input for a selected module is
	// missing, e.g. an electric-vehicle share above zero with no grid
	// intensity reading and no configured fallback.
	ErrIncompleteInputs = errors.New("incomplete inputs for selected module")
)

// ModuleError wraps an individual estimator failure. The whole estimation
// call aborts on it; a requested module is never silently omitted from the
// totals.
type ModuleError struct {
	Module ModuleName
	Err    error
}

func (e *ModuleError) Error() string {
	return fmt.Sprintf("module %s estimation failed: %v", e.Module, e.Err)
}

func (e *ModuleError) Unwrap() error { return e.Err }
