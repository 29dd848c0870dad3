package lines

import (
	"errors"
	"math"

	"AstroCarto/internal/domain/models"
	"AstroCarto/internal/services/astro"
	"AstroCarto/pkg/util"
)

// aspectScanStep is the longitude scan step for bracketing roots of the
// zodiacal angle residual at one latitude.
const aspectScanStep = 10.0

// runBreakThreshold ends a point run when the nearest root at the next
// latitude is farther than this from the run's last longitude.
const runBreakThreshold = 45.0

// AspectCalculator produces aspect-to-angle lines: the locus where a
// local angle (MC, IC, ASC, or DSC) stands a fixed zodiacal distance
// from the body.
//
// Conjunctions and oppositions shift the body's required hour angle and
// keep the closed form of the primary lines. Intermediate aspects have
// no closed form and are solved per latitude by a bracketed search over
// longitude.
type AspectCalculator struct {
	primary      *PrimaryCalculator
	stepDeg      float64
	precisionDeg float64
	orbDeg       float64
	h0           float64
	maxIter      int
}

func NewAspectCalculator(opts models.CalcOptions) *AspectCalculator {
	p := NewPrimaryCalculator(opts)
	orb := opts.OrbDeg
	if orb <= 0 {
		orb = models.DefaultOrbDeg
	}
	return &AspectCalculator{
		primary:      p,
		stepDeg:      p.stepDeg,
		precisionDeg: p.precisionDeg,
		orbDeg:       orb,
		h0:           p.h0,
		maxIter:      astro.DefaultMaxIterations,
	}
}

// Line computes the line along which the target angle holds the given
// aspect to the body, along with the solver iterations spent. Returns
// ErrNoSolution when the configuration has no solution anywhere,
// astro.ErrMaxIterations when a root refinement exhausts its budget.
func (c *AspectCalculator) Line(pos models.BodyPosition, aspect models.AspectKind, target models.AngleKind, jd float64) (models.LineFeature, int, error) {
	deg := aspect.Degrees()
	if deg == 0 || deg == 180 {
		f, err := c.mundaneLine(pos, aspect, target, jd)
		return f, 0, err
	}
	return c.zodiacalLine(pos, aspect, target, jd, deg, "")
}

// EdgeLines solves the two orb band boundary lines around an
// intermediate aspect: the loci where the angle stands exactly
// aspect+orb and aspect-orb from the body.
func (c *AspectCalculator) EdgeLines(pos models.BodyPosition, aspect models.AspectKind, target models.AngleKind, jd, orbDeg float64) ([]models.LineFeature, int, error) {
	deg := aspect.Degrees()
	if deg == 0 || deg == 180 {
		return c.mundaneEdges(pos, aspect, target, jd, orbDeg)
	}
	var (
		out   []models.LineFeature
		total int
	)
	for _, e := range []struct {
		deg  float64
		name string
	}{{deg + orbDeg, "upper"}, {deg - orbDeg, "lower"}} {
		f, n, err := c.zodiacalLine(pos, aspect, target, jd, e.deg, e.name)
		total += n
		if err != nil {
			if errors.Is(err, ErrNoSolution) {
				continue
			}
			return nil, total, err
		}
		out = append(out, f)
	}
	return out, total, nil
}

// mundaneEdges solves the band boundaries of a conjunction or
// opposition. The aspect condition there is an hour angle, so an orb
// offset is a constant sidereal-time shift and each edge is the mundane
// line translated orbDeg of longitude east or west.
func (c *AspectCalculator) mundaneEdges(pos models.BodyPosition, aspect models.AspectKind, target models.AngleKind, jd, orbDeg float64) ([]models.LineFeature, int, error) {
	base, err := c.mundaneLine(pos, aspect, target, jd)
	if err != nil {
		if errors.Is(err, ErrNoSolution) {
			return nil, 0, nil
		}
		return nil, 0, err
	}

	out := make([]models.LineFeature, 0, 2)
	for _, e := range []struct {
		shift float64
		name  string
	}{{orbDeg, "upper"}, {-orbDeg, "lower"}} {
		f := base
		f.Segments = shiftSegments(base.Segments, e.shift)
		f.Aspect = &models.AspectInfo{Kind: aspect, Target: target, OrbDeg: c.orbDeg, Edge: e.name}
		out = append(out, f)
	}
	return out, 0, nil
}

// shiftSegments translates every point by dLon, wrapped. Shifts that
// push a run across the antimeridian are re-split downstream.
func shiftSegments(segments [][]models.Point, dLon float64) [][]models.Point {
	out := make([][]models.Point, len(segments))
	for i, seg := range segments {
		s := make([]models.Point, len(seg))
		for j, p := range seg {
			s[j] = models.Point{Lon: util.Wrap180(p.Lon + dLon), Lat: p.Lat}
		}
		out[i] = s
	}
	return out
}

// mundaneLine handles conjunction and opposition by shifting the hour
// angle the body must hold, which reduces to a primary-style line.
func (c *AspectCalculator) mundaneLine(pos models.BodyPosition, aspect models.AspectKind, target models.AngleKind, jd float64) (models.LineFeature, error) {
	shift := aspect.Degrees()

	if target.OnMeridian() {
		// The body's required hour angle is fully determined, so the line
		// is a meridian arc at one longitude.
		h := shift
		if target == models.AngleAntiCulminating {
			h = util.Wrap180(shift + 180)
		}
		lon := astro.LongitudeForLST(pos.RightAscension+h, jd)
		f := c.primary.meridianLine(pos, models.LineAspect, lon)
		f.Aspect = &models.AspectInfo{Kind: aspect, Target: target, OrbDeg: c.orbDeg}
		return f, nil
	}

	// Horizon target: conjunction to the ascendant is the rising
	// condition, opposition the setting one, and mirrored for the
	// descendant.
	kind := models.LineRising
	if (target == models.AngleRising) == (shift == 180) {
		kind = models.LineSetting
	}
	f, err := c.primary.horizonLine(pos, kind, jd)
	if err != nil {
		return models.LineFeature{}, err
	}
	f.Kind = models.LineAspect
	f.Aspect = &models.AspectInfo{Kind: aspect, Target: target, OrbDeg: c.orbDeg}
	return f, nil
}

// zodiacalLine solves, latitude by latitude, for the longitudes where
// the target angle's zodiacal longitude equals the body's longitude
// offset by the given degrees. Both aspect directions are solved, since
// a body can stand the same distance ahead of or behind the angle.
func (c *AspectCalculator) zodiacalLine(pos models.BodyPosition, aspect models.AspectKind, target models.AngleKind, jd, deg float64, edge string) (models.LineFeature, int, error) {
	eps := astro.MeanObliquity(jd)

	var offsets []float64
	offsets = append(offsets, deg)
	if deg != 0 && deg != 180 {
		offsets = append(offsets, -deg)
	}

	var (
		segments [][]models.Point
		iters    int
	)
	anySolution := false
	for _, off := range offsets {
		targetLon := util.Norm360(pos.EclipticLon + off)
		segs, n, found, err := c.solveOffset(targetLon, target, jd, eps)
		iters += n
		if err != nil {
			return models.LineFeature{}, iters, err
		}
		anySolution = anySolution || found
		segments = append(segments, segs...)
	}
	if !anySolution {
		return models.LineFeature{}, iters, ErrNoSolution
	}

	return models.LineFeature{
		Body:   pos.Body,
		Kind:   models.LineAspect,
		Aspect: &models.AspectInfo{Kind: aspect, Target: target, OrbDeg: c.orbDeg, Edge: edge},
		Segments: segments,
		Meta: models.LineMeta{
			Method:       models.MethodNumerical,
			PrecisionDeg: c.precisionDeg,
		},
	}, iters, nil
}

// solveOffset traces one aspect direction across the latitude band.
// At each latitude the residual between the angle's longitude and the
// target longitude is bracketed over all longitudes and refined. Runs
// are continued by nearest root so the polyline stays coherent where
// the residual has several roots.
func (c *AspectCalculator) solveOffset(targetLon float64, target models.AngleKind, jd, eps float64) ([][]models.Point, int, bool, error) {
	var (
		segments [][]models.Point
		run      []models.Point
		iters    int
		found    bool
	)
	flush := func() {
		if len(run) >= 2 {
			segments = append(segments, splitAntimeridian(run)...)
		}
		run = nil
	}

	for lat := latMin; lat <= latMax+1e-9; lat += c.primary.stepAt(lat) {
		roots, n, err := c.rootsAt(targetLon, target, lat, jd, eps)
		iters += n
		if err != nil {
			return nil, iters, false, err
		}
		if len(roots) == 0 {
			flush()
			continue
		}
		found = true
		lon, ok := pickRoot(roots, run)
		if !ok {
			flush()
			lon = roots[0]
		}
		run = append(run, models.Point{Lon: lon, Lat: lat})
	}
	flush()
	return segments, iters, found, nil
}

// rootsAt finds every longitude at one latitude where the angle's
// zodiacal longitude matches targetLon.
func (c *AspectCalculator) rootsAt(targetLon float64, target models.AngleKind, lat, jd, eps float64) ([]float64, int, error) {
	f := func(lon float64) float64 {
		return util.Wrap180(c.angleLongitude(target, lon, lat, jd, eps) - targetLon)
	}
	roots, iters, err := astro.SolveAll(f, -180, 180, aspectScanStep, wrapThreshold, c.precisionDeg, c.maxIter)
	if err != nil {
		if errors.Is(err, astro.ErrNoBracket) {
			return nil, iters, nil
		}
		return nil, iters, err
	}
	return roots, iters, nil
}

// angleLongitude is the zodiacal longitude of the target angle as seen
// from the given location at the fixed instant.
func (c *AspectCalculator) angleLongitude(target models.AngleKind, lon, lat, jd, eps float64) float64 {
	lst := astro.LST(jd, lon)
	switch target {
	case models.AngleCulminating:
		return astro.MCLongitudeZodiacal(lst, eps)
	case models.AngleAntiCulminating:
		return util.Norm360(astro.MCLongitudeZodiacal(lst, eps) + 180)
	case models.AngleRising:
		return astro.AscendantLongitude(lst, lat, eps)
	default: // descendant
		return util.Norm360(astro.AscendantLongitude(lst, lat, eps) + 180)
	}
}

// pickRoot chooses the root nearest the run's last longitude, keeping
// the polyline continuous. Reports false when even the nearest root
// jumps too far, which ends the run.
func pickRoot(roots []float64, run []models.Point) (float64, bool) {
	if len(run) == 0 {
		return roots[0], true
	}
	last := run[len(run)-1].Lon
	best, bestDelta := roots[0], math.Inf(1)
	for _, r := range roots {
		d := math.Abs(util.AngularDelta(last, r))
		if d < bestDelta {
			best, bestDelta = r, d
		}
	}
	return best, bestDelta <= runBreakThreshold
}
