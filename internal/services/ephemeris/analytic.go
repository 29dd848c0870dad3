// Package ephemeris provides PositionProvider implementations: a builtin
// analytic provider (Keplerian mean elements plus low-precision Sun and
// Moon series), a remote HTTP provider, and a per-request memoizing
// wrapper that enforces the one-query-per-body contract.
package ephemeris

import (
	"context"
	"fmt"
	"math"

	"AstroCarto/internal/domain/models"
	"AstroCarto/internal/services/astro"
	"AstroCarto/pkg/util"
)

const kmPerAU = 149597870.7

// speedStepDays is the half-width of the central difference used for the
// longitude speed. Half a day resolves stations without smearing the
// Moon's fast motion across a wrap.
const speedStepDays = 0.5

// AnalyticProvider computes geocentric positions from closed-form series.
// Accuracy is arcminute-level, which is far below the degree-scale
// sampling of map lines. Stateless and safe for concurrent use.
type AnalyticProvider struct{}

// NewAnalyticProvider returns the builtin ephemeris.
func NewAnalyticProvider() *AnalyticProvider {
	return &AnalyticProvider{}
}

// GetPosition implements service.PositionProvider.
func (p *AnalyticProvider) GetPosition(_ context.Context, body models.Body, jd float64) (models.BodyPosition, error) {
	if !body.Valid() {
		return models.BodyPosition{}, fmt.Errorf("ephemeris: unknown body %q", body)
	}
	if jd < models.MinJD || jd > models.MaxJD {
		return models.BodyPosition{}, fmt.Errorf("ephemeris: jd=%.5f outside validity range", jd)
	}

	lon, lat, dist := eclipticPosition(body, jd)

	lonBefore, _, _ := eclipticPosition(body, jd-speedStepDays)
	lonAfter, _, _ := eclipticPosition(body, jd+speedStepDays)
	speed := util.Wrap180(lonAfter-lonBefore) / (2 * speedStepDays)

	eps := astro.MeanObliquity(jd)
	ra, dec := astro.EclipticToEquatorial(lon, lat, eps)

	return models.BodyPosition{
		Body:           body,
		EclipticLon:    lon,
		EclipticLat:    lat,
		Declination:    dec,
		RightAscension: ra,
		DistanceAU:     dist,
		LonSpeed:       speed,
	}, nil
}

// eclipticPosition returns geocentric ecliptic longitude/latitude in
// degrees and distance in AU.
func eclipticPosition(body models.Body, jd float64) (lon, lat, dist float64) {
	switch body {
	case models.Sun:
		return sunPosition(jd)
	case models.Moon:
		return moonPosition(jd)
	default:
		return planetPosition(body, jd)
	}
}

// sunPosition is the geocentric Sun: the reflex of Earth's heliocentric
// position from the mean-element table.
func sunPosition(jd float64) (lon, lat, dist float64) {
	x, y, z := heliocentric(earthElements, jd)
	gx, gy, gz := -x, -y, -z
	return rectToSpherical(gx, gy, gz)
}

func planetPosition(body models.Body, jd float64) (lon, lat, dist float64) {
	el, ok := planetElements[body]
	if !ok {
		return math.NaN(), math.NaN(), math.NaN()
	}
	px, py, pz := heliocentric(el, jd)
	ex, ey, ez := heliocentric(earthElements, jd)
	return rectToSpherical(px-ex, py-ey, pz-ez)
}

// moonPosition is a truncated Meeus lunar series. Good to roughly 0.3
// degrees in longitude, which dominates this provider's error budget but
// stays inside the line-sampling step.
func moonPosition(jd float64) (lon, lat, dist float64) {
	d := util.DaysSinceJ2000(jd)

	lp := 218.3164477 + 13.17639648*d // mean longitude
	ms := 357.5291092 + 0.98560028*d  // sun mean anomaly
	mm := 134.9633964 + 13.06499295*d // moon mean anomaly
	el := 297.8501921 + 12.19074912*d // mean elongation
	f := 93.2720950 + 13.22935024*d   // argument of latitude

	sin := func(deg float64) float64 { return math.Sin(util.Deg2Rad(deg)) }
	cos := func(deg float64) float64 { return math.Cos(util.Deg2Rad(deg)) }

	lon = lp +
		6.288774*sin(mm) +
		1.274027*sin(2*el-mm) +
		0.658314*sin(2*el) +
		0.213618*sin(2*mm) -
		0.185116*sin(ms) -
		0.114332*sin(2*f)
	lat = 5.128122*sin(f) +
		0.280602*sin(mm+f) +
		0.277693*sin(mm-f)
	distKM := 385000.56 - 20905.355*cos(mm) - 3699.111*cos(2*el-mm) - 2955.968*cos(2*el)

	return util.Norm360(lon), lat, distKM / kmPerAU
}

// kepler solves Kepler's equation M = E - e*sin(E) by Newton iteration.
// Inputs and outputs in radians.
func kepler(m, e float64) float64 {
	ecc := m
	for i := 0; i < 20; i++ {
		d := (ecc - e*math.Sin(ecc) - m) / (1 - e*math.Cos(ecc))
		ecc -= d
		if math.Abs(d) < 1e-12 {
			break
		}
	}
	return ecc
}

// heliocentric returns the J2000-ecliptic rectangular heliocentric
// position in AU for an element set at the given instant.
func heliocentric(el elements, jd float64) (x, y, z float64) {
	t := util.JulianCenturies(jd)

	a := el.a + el.aDot*t
	e := el.e + el.eDot*t
	inc := util.Deg2Rad(el.i + el.iDot*t)
	meanLon := el.l + el.lDot*t
	periLon := el.peri + el.periDot*t
	node := util.Deg2Rad(el.node + el.nodeDot*t)

	m := util.Deg2Rad(util.Wrap180(meanLon - periLon))
	w := util.Deg2Rad(periLon) - node // argument of perihelion

	ecc := kepler(m, e)
	xp := a * (math.Cos(ecc) - e)
	yp := a * math.Sqrt(1-e*e) * math.Sin(ecc)

	cosW, sinW := math.Cos(w), math.Sin(w)
	cosO, sinO := math.Cos(node), math.Sin(node)
	cosI, sinI := math.Cos(inc), math.Sin(inc)

	x = (cosW*cosO-sinW*sinO*cosI)*xp + (-sinW*cosO-cosW*sinO*cosI)*yp
	y = (cosW*sinO+sinW*cosO*cosI)*xp + (-sinW*sinO+cosW*cosO*cosI)*yp
	z = sinW*sinI*xp + cosW*sinI*yp
	return x, y, z
}

func rectToSpherical(x, y, z float64) (lon, lat, dist float64) {
	dist = math.Sqrt(x*x + y*y + z*z)
	lon = util.Norm360(util.Rad2Deg(math.Atan2(y, x)))
	lat = util.Rad2Deg(math.Atan2(z, math.Sqrt(x*x+y*y)))
	return lon, lat, dist
}

// elements is one row of the JPL approximate mean-element table:
// values at J2000 plus per-century rates. Angles in degrees, a in AU.
type elements struct {
	a, e, i, l, peri, node                         float64
	aDot, eDot, iDot, lDot, periDot, nodeDot       float64
}

// earthElements is the Earth-Moon barycenter row; at this precision the
// barycenter stands in for the Earth.
var earthElements = elements{
	a: 1.00000261, e: 0.01671123, i: -0.00001531, l: 100.46457166, peri: 102.93768193, node: 0,
	aDot: 0.00000562, eDot: -0.00004392, iDot: -0.01294668, lDot: 35999.37244981, periDot: 0.32327364, nodeDot: 0,
}

var planetElements = map[models.Body]elements{
	models.Mercury: {
		a: 0.38709927, e: 0.20563593, i: 7.00497902, l: 252.25032350, peri: 77.45779628, node: 48.33076593,
		aDot: 0.00000037, eDot: 0.00001906, iDot: -0.00594749, lDot: 149472.67411175, periDot: 0.16047689, nodeDot: -0.12534081,
	},
	models.Venus: {
		a: 0.72333566, e: 0.00677672, i: 3.39467605, l: 181.97909950, peri: 131.60246718, node: 76.67984255,
		aDot: 0.00000390, eDot: -0.00004107, iDot: -0.00078890, lDot: 58517.81538729, periDot: 0.00268329, nodeDot: -0.27769418,
	},
	models.Mars: {
		a: 1.52371034, e: 0.09339410, i: 1.84969142, l: -4.55343205, peri: -23.94362959, node: 49.55953891,
		aDot: 0.00001847, eDot: 0.00007882, iDot: -0.00813131, lDot: 19140.30268499, periDot: 0.44441088, nodeDot: -0.29257343,
	},
	models.Jupiter: {
		a: 5.20288700, e: 0.04838624, i: 1.30439695, l: 34.39644051, peri: 14.72847983, node: 100.47390909,
		aDot: -0.00011607, eDot: -0.00013253, iDot: -0.00183714, lDot: 3034.74612775, periDot: 0.21252668, nodeDot: 0.20469106,
	},
	models.Saturn: {
		a: 9.53667594, e: 0.05386179, i: 2.48599187, l: 49.95424423, peri: 92.59887831, node: 113.66242448,
		aDot: -0.00125060, eDot: -0.00050991, iDot: 0.00193609, lDot: 1222.49362201, periDot: -0.41897216, nodeDot: -0.28867794,
	},
	models.Uranus: {
		a: 19.18916464, e: 0.04725744, i: 0.77263783, l: 313.23810451, peri: 170.95427630, node: 74.01692503,
		aDot: -0.00196176, eDot: -0.00004397, iDot: -0.00242939, lDot: 428.48202785, periDot: 0.40805281, nodeDot: 0.04240589,
	},
	models.Neptune: {
		a: 30.06992276, e: 0.00859048, i: 1.77004347, l: -55.12002969, peri: 44.96476227, node: 131.78422574,
		aDot: 0.00026291, eDot: 0.00005105, iDot: 0.00035372, lDot: 218.45945325, periDot: -0.32241464, nodeDot: -0.00508664,
	},
	models.Pluto: {
		a: 39.48211675, e: 0.24882730, i: 17.14001206, l: 238.92903833, peri: 224.06891629, node: 110.30393684,
		aDot: -0.00031596, eDot: 0.00005170, iDot: 0.00004818, lDot: 145.20780515, periDot: -0.04062942, nodeDot: -0.01183482,
	},
}
