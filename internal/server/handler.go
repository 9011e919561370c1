// Package server exposes the estimation engine over the HTTP JSON API the
// zone-drawing frontend calls.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/zonecarbon/zonecarbon/internal/emissions"
	"github.com/zonecarbon/zonecarbon/internal/zone"
)

// maxRequestBytes caps the request body read; zone polygons are small.
const maxRequestBytes = 1 << 20

// Estimator is the engine capability the handler needs.
type Estimator interface {
	Estimate(ctx context.Context, req emissions.Request) (*emissions.ZoneEstimate, error)
}

// Handler serves the zone-estimate API.
type Handler struct {
	engine Estimator
	logger zerolog.Logger
}

// New creates a Handler over the given engine.
func New(engine Estimator, logger zerolog.Logger) *Handler {
	return &Handler{engine: engine, logger: logger}
}

// Routes assembles the HTTP mux: the estimation endpoint, health and
// Prometheus metrics, wrapped in request logging and optional CORS.
func (h *Handler) Routes(corsOrigins []string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/zone-estimate", h.zoneEstimate)
	mux.HandleFunc("GET /healthz", h.healthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	var handler http.Handler = mux
	handler = corsMiddleware(corsOrigins, handler)
	handler = h.loggingMiddleware(handler)
	return handler
}

// zoneEstimateRequest is the external input contract: a GeoJSON polygon or
// pre-derived zone proxies, a window, module toggles and an optional country
// hint for grid-region resolution.
type zoneEstimateRequest struct {
	GeoJSON     json.RawMessage `json:"geojson,omitempty"`
	ZoneProxy   *zoneProxy      `json:"zone_proxy,omitempty"`
	ZoneName    string          `json:"zone_name,omitempty"`
	WindowMin   int             `json:"window_min"`
	Modules     moduleFlags     `json:"modules"`
	CountryHint string          `json:"country_hint,omitempty"`
}

type zoneProxy struct {
	Name    string  `json:"name,omitempty"`
	AreaKm2 float64 `json:"area_km2"`
	RoadKm  float64 `json:"road_km,omitempty"`
}

type moduleFlags struct {
	Roads    bool `json:"roads"`
	Aviation bool `json:"aviation"`
	Rail     bool `json:"rail"`
}

type moduleBreakdown struct {
	Name    string   `json:"name"`
	CO2eT   float64  `json:"co2e_t"`
	CI90T   *float64 `json:"ci90_t,omitempty"`
	Quality string   `json:"quality"`
	Notes   []string `json:"notes"`
}

type gridIntensityBody struct {
	Value    float64 `json:"value"`
	ZoneName string  `json:"zone_name"`
}

type zoneEstimateResponse struct {
	ZoneID        string             `json:"zone_id"`
	WindowMin     int                `json:"window_min"`
	ByModule      []moduleBreakdown  `json:"by_module"`
	CO2eT         float64            `json:"co2e_t"`
	CO2eCI90T     *float64           `json:"co2e_ci90_t,omitempty"`
	Sources       []string           `json:"sources"`
	CoverageKm    *float64           `json:"coverage_km,omitempty"`
	GridIntensity *gridIntensityBody `json:"grid_intensity,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (h *Handler) zoneEstimate(w http.ResponseWriter, r *http.Request) {
	var body zoneEstimateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	req, err := buildRequest(body)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	est, err := h.engine.Estimate(r.Context(), req)
	if err != nil {
		h.logger.Warn().Err(err).Msg("zone estimate failed")
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toResponse(est))
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// buildRequest maps the wire request onto the engine's contract.
func buildRequest(body zoneEstimateRequest) (emissions.Request, error) {
	var spec zone.Spec
	switch {
	case len(body.GeoJSON) > 0:
		var err error
		spec, err = zone.FromGeoJSON(body.GeoJSON, body.ZoneName)
		if err != nil {
			return emissions.Request{}, emissions.ErrInvalidZone
		}
	case body.ZoneProxy != nil:
		name := body.ZoneProxy.Name
		if name == "" {
			name = body.ZoneName
		}
		spec = zone.FromScalars(name, body.ZoneProxy.AreaKm2, body.ZoneProxy.RoadKm)
	default:
		return emissions.Request{}, emissions.ErrInvalidZone
	}

	return emissions.Request{
		Zone:          spec,
		WindowMinutes: body.WindowMin,
		Modules: emissions.ModuleSelection{
			Roads:    body.Modules.Roads,
			Aviation: body.Modules.Aviation,
			Rail:     body.Modules.Rail,
		},
		CountryHint: body.CountryHint,
	}, nil
}

func toResponse(est *emissions.ZoneEstimate) zoneEstimateResponse {
	resp := zoneEstimateResponse{
		ZoneID:     est.ZoneID,
		WindowMin:  est.WindowMinutes,
		ByModule:   make([]moduleBreakdown, 0, len(est.Modules)),
		CO2eT:      est.TotalCO2eTonnes,
		CO2eCI90T:  est.TotalCI90Tonnes,
		Sources:    est.Sources,
		CoverageKm: est.CoverageKm,
	}
	for _, m := range est.Modules {
		resp.ByModule = append(resp.ByModule, moduleBreakdown{
			Name:    string(m.Module),
			CO2eT:   m.CO2eTonnes,
			CI90T:   m.CI90Tonnes,
			Quality: string(m.Quality),
			Notes:   m.Notes,
		})
	}
	if est.GridIntensity != nil {
		resp.GridIntensity = &gridIntensityBody{
			Value:    est.GridIntensity.GramsPerKWh,
			ZoneName: est.GridIntensity.ZoneName,
		}
	}
	return resp
}

// statusForError maps the engine's typed errors onto HTTP statuses.
func statusForError(err error) int {
	var modErr *emissions.ModuleError
	switch {
	case errors.Is(err, emissions.ErrInvalidZone),
		errors.Is(err, emissions.ErrInvalidWindow):
		return http.StatusBadRequest
	case errors.Is(err, emissions.ErrIncompleteInputs):
		return http.StatusUnprocessableEntity
	case errors.Is(err, emissions.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	case errors.As(err, &modErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// loggingMiddleware records one structured line per request.
func (h *Handler) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		observeRequest(rec.status, time.Since(start))
		h.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("request handled")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
