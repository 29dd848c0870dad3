// Package paran finds latitudes where two bodies are simultaneously
// angular. A paran is a latitude circle, not a longitude line: at that
// latitude there is a moment of local sidereal time at which both bodies
// stand on their respective angles at once.
package paran

import (
	"errors"
	"math"

	"AstroCarto/internal/domain/models"
	"AstroCarto/internal/services/astro"
	"AstroCarto/pkg/util"
)

// Latitude scan bounds for the numerical path. Horizon crossings very
// close to the poles sit inside the circumpolar margin anyway.
const (
	scanLatMin  = -85.0
	scanLatMax  = 85.0
	scanLatStep = 2.0

	// residualWrapJump rejects sign changes of the sidereal-time residual
	// caused by wrapping rather than a real root.
	residualWrapJump = 180.0
)

// ErrConvergence means the numerical search ran out of iteration budget.
var ErrConvergence = errors.New("paran: refinement did not converge")

// Calculator solves paran latitudes for body pairs at a fixed instant.
type Calculator struct {
	precisionDeg float64
	h0           float64
	maxIter      int
}

func NewCalculator(opts models.CalcOptions) *Calculator {
	prec := opts.PrecisionDeg
	if prec <= 0 {
		prec = models.DefaultPrecisionDeg
	}
	return &Calculator{
		precisionDeg: prec,
		h0:           astro.HorizonAltitude(opts.ApparentHorizon),
		maxIter:      astro.DefaultMaxIterations,
	}
}

// Solve computes all paran events for one body pair and reports the
// solver iterations spent. When at least one
// angle is a meridian condition the latitude follows in closed form;
// two horizon conditions require a latitude scan. A pair with no
// simultaneous-angularity latitude yields a single no-solution event,
// which is a valid astronomical outcome.
func (c *Calculator) Solve(posA, posB models.BodyPosition, angleA, angleB models.AngleKind) ([]models.ParanEvent, int, error) {
	switch {
	case angleA.OnMeridian() && angleB.OnMeridian():
		// Both conditions fix sidereal time with no latitude dependence,
		// so the pair is either angular everywhere or nowhere. Neither
		// outcome localizes a latitude.
		return []models.ParanEvent{c.event(posA, posB, angleA, angleB, 0, models.ParanNoSolution, models.MethodClosedForm, 0)}, 0, nil
	case angleA.OnMeridian():
		return c.closedForm(posA, posB, angleA, angleB, false), 0, nil
	case angleB.OnMeridian():
		return c.closedForm(posB, posA, angleB, angleA, true), 0, nil
	default:
		return c.numerical(posA, posB, angleA, angleB)
	}
}

// closedForm handles a meridian body paired with a horizon body. The
// meridian condition pins local sidereal time, which fixes the horizon
// body's required hour angle; the latitude then follows algebraically.
// swapped restores the caller's original pair order in the event.
func (c *Calculator) closedForm(posM, posH models.BodyPosition, angleM, angleH models.AngleKind, swapped bool) []models.ParanEvent {
	lst := posM.RightAscension
	if angleM == models.AngleAntiCulminating {
		lst += 180
	}
	hReq := util.Wrap180(lst - posH.RightAscension)

	// Rising happens at negative hour angle, setting at positive. A
	// required hour angle of the wrong sign means the horizon body can
	// never hold its angle at the meridian body's moment.
	validity := models.ParanOK
	switch {
	case hReq == 0 || math.Abs(hReq) == 180:
		// The horizon body would have to sit on the meridian and the
		// horizon at once, which only a tangent geometry allows.
		validity = models.ParanCircumpolarLimit
	case angleH == models.AngleRising && hReq > 0:
		validity = models.ParanNoSolution
	case angleH == models.AngleSetting && hReq < 0:
		validity = models.ParanNoSolution
	}

	emit := func(a, b models.BodyPosition, angA, angB models.AngleKind, lat float64, v models.ParanValidity) models.ParanEvent {
		return c.event(a, b, angA, angB, lat, v, models.MethodClosedForm, 0)
	}

	if validity == models.ParanNoSolution {
		ev := emit(posM, posH, angleM, angleH, 0, validity)
		return c.restore(ev, swapped)
	}

	lat, ok := astro.ParanLatitude(hReq, posH.Declination, c.h0)
	if !ok {
		ev := emit(posM, posH, angleM, angleH, 0, models.ParanNoSolution)
		return c.restore(ev, swapped)
	}
	if astro.NearCircumpolar(posH.Declination, lat, c.h0) {
		validity = models.ParanCircumpolarLimit
	}
	ev := emit(posM, posH, angleM, angleH, lat, validity)
	return c.restore(ev, swapped)
}

// numerical handles two horizon conditions. At a candidate latitude each
// condition determines the sidereal time of its own angularity; a paran
// exists where those two times agree. The residual is scanned across the
// latitude band and each sign change is bisected to the precision target.
func (c *Calculator) numerical(posA, posB models.BodyPosition, angleA, angleB models.AngleKind) ([]models.ParanEvent, int, error) {
	f := func(lat float64) float64 {
		la, ok := c.angularLST(posA, angleA, lat)
		if !ok {
			return math.NaN()
		}
		lb, ok := c.angularLST(posB, angleB, lat)
		if !ok {
			return math.NaN()
		}
		return util.Wrap180(la - lb)
	}

	roots, iters, err := astro.SolveAll(f, scanLatMin, scanLatMax, scanLatStep, residualWrapJump, c.precisionDeg, c.maxIter)
	if err != nil {
		if errors.Is(err, astro.ErrNoBracket) {
			return []models.ParanEvent{c.event(posA, posB, angleA, angleB, 0, models.ParanNoSolution, models.MethodNumerical, 0)}, iters, nil
		}
		return nil, iters, ErrConvergence
	}

	events := make([]models.ParanEvent, 0, len(roots))
	for _, lat := range roots {
		validity := models.ParanOK
		if astro.NearCircumpolar(posA.Declination, lat, c.h0) || astro.NearCircumpolar(posB.Declination, lat, c.h0) {
			validity = models.ParanCircumpolarLimit
		}
		events = append(events, c.event(posA, posB, angleA, angleB, lat, validity, models.MethodNumerical, c.precisionDeg))
	}
	return events, iters, nil
}

// angularLST is the local sidereal time at which the body holds the
// given horizon angle at the given latitude. Not defined where the body
// is circumpolar.
func (c *Calculator) angularLST(pos models.BodyPosition, angle models.AngleKind, lat float64) (float64, bool) {
	h0, ok := astro.HourAngleAtHorizon(pos.Declination, lat, c.h0)
	if !ok {
		return 0, false
	}
	if angle == models.AngleRising {
		return pos.RightAscension - h0, true
	}
	return pos.RightAscension + h0, true
}

func (c *Calculator) event(posA, posB models.BodyPosition, angleA, angleB models.AngleKind, lat float64, v models.ParanValidity, method models.Method, precision float64) models.ParanEvent {
	return models.ParanEvent{
		BodyA:        posA.Body,
		BodyB:        posB.Body,
		AngleA:       angleA,
		AngleB:       angleB,
		Latitude:     lat,
		Validity:     v,
		Method:       method,
		PrecisionDeg: precision,
	}
}

// restore undoes the meridian-first normalization so events always list
// the bodies in the caller's order.
func (c *Calculator) restore(ev models.ParanEvent, swapped bool) []models.ParanEvent {
	if swapped {
		ev.BodyA, ev.BodyB = ev.BodyB, ev.BodyA
		ev.AngleA, ev.AngleB = ev.AngleB, ev.AngleA
	}
	return []models.ParanEvent{ev}
}
