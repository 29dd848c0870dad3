// Package lines computes astrocartography line features: the four
// primary angle lines per body, and aspect lines to the local angles.
package lines

import (
	"errors"
	"math"

	"AstroCarto/internal/domain/models"
	"AstroCarto/internal/services/astro"
)

// Latitude sampling bounds. Poleward of 89 degrees the projection math
// degenerates and no map renders the result.
const (
	latMin = -89.0
	latMax = 89.0

	// polarRefineLat halves the sampling step poleward of this latitude,
	// where horizon lines curve sharply toward their tangent points.
	polarRefineLat = 75.0

	// wrapThreshold: a longitude jump larger than this between adjacent
	// samples means the line crossed the antimeridian.
	wrapThreshold = 180.0
)

// ErrNoSolution means the requested condition holds at no sampled
// latitude. A valid astronomical outcome, not a failure.
var ErrNoSolution = errors.New("lines: condition has no solution at any latitude")

// PrimaryCalculator produces rising, setting, culminating, and
// anti-culminating lines for one body at one instant.
type PrimaryCalculator struct {
	stepDeg      float64
	precisionDeg float64
	h0           float64 // horizon altitude (0 geometric, negative apparent)
}

// NewPrimaryCalculator builds a calculator from request options.
func NewPrimaryCalculator(opts models.CalcOptions) *PrimaryCalculator {
	step := opts.StepDeg
	if step <= 0 {
		step = models.DefaultStepDeg
	}
	prec := opts.PrecisionDeg
	if prec <= 0 {
		prec = models.DefaultPrecisionDeg
	}
	return &PrimaryCalculator{
		stepDeg:      step,
		precisionDeg: prec,
		h0:           astro.HorizonAltitude(opts.ApparentHorizon),
	}
}

// Line computes the primary line of the given kind. Returns ErrNoSolution
// when the body satisfies the condition nowhere (e.g. a rising line for a
// body circumpolar at every sampled latitude).
func (c *PrimaryCalculator) Line(pos models.BodyPosition, kind models.LineKind, jd float64) (models.LineFeature, error) {
	switch kind {
	case models.LineCulminating:
		return c.meridianLine(pos, kind, astro.MeridianLongitude(pos.RightAscension, jd)), nil
	case models.LineAntiCulminating:
		return c.meridianLine(pos, kind, astro.AntiMeridianLongitude(pos.RightAscension, jd)), nil
	case models.LineRising, models.LineSetting:
		return c.horizonLine(pos, kind, jd)
	default:
		return models.LineFeature{}, errors.New("lines: not a primary line kind")
	}
}

// meridianLine is the degenerate pole-to-pole arc: every latitude shares
// the closed-form longitude, so two endpoints describe it exactly.
func (c *PrimaryCalculator) meridianLine(pos models.BodyPosition, kind models.LineKind, lon float64) models.LineFeature {
	return models.LineFeature{
		Body: pos.Body,
		Kind: kind,
		Segments: [][]models.Point{{
			{Lon: lon, Lat: latMin},
			{Lon: lon, Lat: latMax},
		}},
		Meta: models.LineMeta{
			Method:       models.MethodClosedForm,
			PrecisionDeg: 0,
		},
	}
}

// horizonLine samples latitude across the band and solves the horizon
// hour angle at each sample. Latitudes where the body is circumpolar are
// omitted; the transition latitudes are refined and recorded as tangent
// points. Contiguous valid runs become segments, split again wherever
// the longitude sequence wraps across the antimeridian.
func (c *PrimaryCalculator) horizonLine(pos models.BodyPosition, kind models.LineKind, jd float64) (models.LineFeature, error) {
	solve := func(lat float64) (float64, bool) {
		if kind == models.LineRising {
			return astro.RisingLongitude(pos.RightAscension, pos.Declination, lat, c.h0, jd)
		}
		return astro.SettingLongitude(pos.RightAscension, pos.Declination, lat, c.h0, jd)
	}

	var (
		segments    [][]models.Point
		run         []models.Point
		tangents    []float64
		prevLat     = math.NaN()
		prevValid   = false
		anySolution = false
	)

	flush := func() {
		if len(run) >= 2 {
			segments = append(segments, splitAntimeridian(run)...)
		}
		run = nil
	}

	for lat := latMin; lat <= latMax+1e-9; lat += c.stepAt(lat) {
		lon, ok := solve(lat)
		if ok {
			anySolution = true
			if !prevValid && !math.IsNaN(prevLat) {
				// Entering the valid band: the tangent point sits between
				// the previous (circumpolar) sample and this one.
				tangents = append(tangents, c.refineTangent(pos.Declination, lat, prevLat))
			}
			run = append(run, models.Point{Lon: lon, Lat: lat})
		} else {
			if prevValid {
				tangents = append(tangents, c.refineTangent(pos.Declination, prevLat, lat))
			}
			flush()
		}
		prevLat, prevValid = lat, ok
	}
	flush()

	if !anySolution {
		return models.LineFeature{}, ErrNoSolution
	}

	return models.LineFeature{
		Body:     pos.Body,
		Kind:     kind,
		Segments: segments,
		Meta: models.LineMeta{
			Method:       models.MethodClosedForm,
			PrecisionDeg: 0,
			TangentLats:  tangents,
		},
	}, nil
}

// stepAt returns the sampling step for a latitude, halved near the poles
// where the line curvature is high.
func (c *PrimaryCalculator) stepAt(lat float64) float64 {
	if math.Abs(lat) >= polarRefineLat {
		return c.stepDeg / 2
	}
	return c.stepDeg
}

// refineTangent bisects the circumpolar boundary between a valid and an
// invalid latitude sample down to the precision target.
func (c *PrimaryCalculator) refineTangent(dec, validLat, invalidLat float64) float64 {
	lo, hi := validLat, invalidLat
	for i := 0; i < astro.DefaultMaxIterations && math.Abs(hi-lo) > c.precisionDeg; i++ {
		mid := (lo + hi) / 2
		if astro.IsCircumpolar(dec, mid, c.h0) {
			hi = mid
		} else {
			lo = mid
		}
	}
	return lo
}

// splitAntimeridian cuts a point run wherever consecutive longitudes
// jump across the antimeridian, producing runs that never wrap.
func splitAntimeridian(run []models.Point) [][]models.Point {
	var out [][]models.Point
	start := 0
	for i := 1; i < len(run); i++ {
		if math.Abs(run[i].Lon-run[i-1].Lon) > wrapThreshold {
			if i-start >= 2 {
				out = append(out, run[start:i])
			}
			start = i
		}
	}
	if len(run)-start >= 2 {
		out = append(out, run[start:])
	}
	return out
}
