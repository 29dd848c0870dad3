package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	models "AstroCarto/internal/domain/models"
	domrepo "AstroCarto/internal/domain/repository"
	"AstroCarto/internal/service/ratelimit"
	"AstroCarto/internal/services/geometry"
	xhttp "AstroCarto/pkg/http"
	xlogger "AstroCarto/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Computer is the calculation surface the HTTP layer depends on.
// Satisfied by both the bare engine and its caching wrapper.
type Computer interface {
	ComputeLines(ctx context.Context, req models.CalcRequest) (*models.CalculationResult, error)
}

// Defaults carries server-side calculation defaults for the endpoints
// that build requests from query parameters.
type Defaults struct {
	StepDeg             float64
	PrecisionDeg        float64
	OrbDeg              float64
	StationaryThreshold float64
}

// LinesHandler serves the line and paran computation endpoints.
type LinesHandler struct {
	logger    *xlogger.Logger
	compute   Computer
	assembler *geometry.Assembler
	archive   domrepo.Archive // nil when the archive is disabled
	defaults  Defaults
	rl        *ratelimit.Limiter
}

func NewLinesHandler(logger *xlogger.Logger, compute Computer, assembler *geometry.Assembler, archive domrepo.Archive, defaults Defaults) *LinesHandler {
	return &LinesHandler{
		logger:    logger,
		compute:   compute,
		assembler: assembler,
		archive:   archive,
		defaults:  defaults,
		rl:        ratelimit.New(20, 5),
	}
}

func (h *LinesHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/lines", h.Lines)
	g.GET("/parans", h.Parans)
	g.GET("/runs", h.Runs)
}

// ComputeLinesResponse is the envelope of POST /api/lines: computation
// metadata plus the assembled GeoJSON map layer.
type ComputeLinesResponse struct {
	Fingerprint string                   `json:"fingerprint"`
	JD          float64                  `json:"jd"`
	Partial     bool                     `json:"partial,omitempty"`
	Warnings    []models.Warning         `json:"warnings,omitempty"`
	Parans      []models.ParanEvent      `json:"parans,omitempty"`
	GeoJSON     models.FeatureCollection `json:"geojson"`
	DurationMS  int64                    `json:"duration_ms"`
	ComputedAt  time.Time                `json:"computed_at"`
}

func (h *LinesHandler) Lines(c echo.Context) error {
	if !h.rl.Allow(c.RealIP()) {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("rate_limited", "", "too many requests", http.StatusTooManyRequests))
	}

	req := &models.ComputeLinesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	calc, err := req.ToCalcRequest()
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
	}

	res, err := h.compute.ComputeLines(c.Request().Context(), *calc)
	if err != nil {
		h.logger.Error("lines computation failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	return xhttp.SuccessResponse(c, &ComputeLinesResponse{
		Fingerprint: res.Fingerprint,
		JD:          res.JD,
		Partial:     res.Partial,
		Warnings:    res.Warnings,
		Parans:      res.Parans,
		GeoJSON:     h.assembler.FeatureCollection(res),
		DurationMS:  res.DurationMS,
		ComputedAt:  res.ComputedAt,
	})
}

// Parans answers a single paran combination from query parameters,
// a convenience form of the full POST body.
func (h *LinesHandler) Parans(c echo.Context) error {
	if !h.rl.Allow(c.RealIP()) {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("rate_limited", "", "too many requests", http.StatusTooManyRequests))
	}

	pair := models.ParanPairRequest{
		BodyA:  c.QueryParam("body_a"),
		BodyB:  c.QueryParam("body_b"),
		AngleA: c.QueryParam("angle_a"),
		AngleB: c.QueryParam("angle_b"),
	}
	jd, _ := strconv.ParseFloat(c.QueryParam("jd"), 64)
	req := &models.ComputeLinesRequest{
		Bodies:              []string{pair.BodyA, pair.BodyB},
		Instant:             c.QueryParam("instant"),
		JD:                  jd,
		Kinds:               []string{string(models.LineParan)},
		Pairs:               []models.ParanPairRequest{pair},
		OrbDeg:              h.defaults.OrbDeg,
		PrecisionDeg:        h.defaults.PrecisionDeg,
		StepDeg:             h.defaults.StepDeg,
		StationaryThreshold: h.defaults.StationaryThreshold,
	}
	calc, err := req.ToCalcRequest()
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
	}

	res, err := h.compute.ComputeLines(c.Request().Context(), *calc)
	if err != nil {
		h.logger.Error("paran computation failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"fingerprint": res.Fingerprint,
		"jd":          res.JD,
		"events":      res.Parans,
		"warnings":    res.Warnings,
	})
}

// Runs lists recently archived computations.
func (h *LinesHandler) Runs(c echo.Context) error {
	if h.archive == nil {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("archive_disabled", "", "run archive is not configured", http.StatusServiceUnavailable))
	}
	limit := 20
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 500 {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError("limit must be an integer in [1, 500]"))
		}
		limit = n
	}
	runs, err := h.archive.RecentRuns(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("recent runs query failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, runs, int64(len(runs)))
}
