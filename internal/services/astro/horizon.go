package astro

import (
	"math"

	"AstroCarto/pkg/util"
)

// StandardRefractionDeg is the conventional altitude of the apparent
// horizon: atmospheric refraction depresses the geometric horizon by
// about 34 arcminutes.
const StandardRefractionDeg = -0.5667

// circumpolarMargin is how close |cos H0| may come to 1 before a horizon
// solution is flagged as sitting on the circumpolar boundary.
const circumpolarMargin = 5e-3

// HorizonAltitude returns the altitude of the horizon condition for the
// requested visibility model.
func HorizonAltitude(apparent bool) float64 {
	if apparent {
		return StandardRefractionDeg
	}
	return 0
}

// HourAngleAtHorizon solves the semi-diurnal arc: the hour angle H0 (in
// [0, 180] degrees) at which a body with the given declination sits at
// altitude h0 for an observer at latDeg. ok is false when the body never
// reaches that altitude at that latitude (circumpolar, or never rises).
func HourAngleAtHorizon(decDeg, latDeg, h0Deg float64) (h0 float64, ok bool) {
	cosH := cosHourAngle(decDeg, latDeg, h0Deg)
	if math.Abs(cosH) > 1 {
		return 0, false
	}
	return util.Rad2Deg(math.Acos(cosH)), true
}

// IsCircumpolar reports whether a body with the given declination never
// crosses the altitude h0Deg at latitude latDeg.
func IsCircumpolar(decDeg, latDeg, h0Deg float64) bool {
	return math.Abs(cosHourAngle(decDeg, latDeg, h0Deg)) > 1
}

// NearCircumpolar reports whether the horizon solution at this latitude
// sits within the circumpolar boundary margin: mathematically valid but
// the body barely crosses the horizon.
func NearCircumpolar(decDeg, latDeg, h0Deg float64) bool {
	c := math.Abs(cosHourAngle(decDeg, latDeg, h0Deg))
	return c <= 1 && c > 1-circumpolarMargin
}

// cosHourAngle returns cos(H0) for the altitude-h0 crossing, unclamped so
// callers can detect the no-solution region.
//
//	cos H0 = (sin h0 - sin lat * sin dec) / (cos lat * cos dec)
//
// For h0 = 0 this reduces to the textbook -tan(dec)*tan(lat).
func cosHourAngle(decDeg, latDeg, h0Deg float64) float64 {
	dec := util.Deg2Rad(decDeg)
	lat := util.Deg2Rad(latDeg)
	h0 := util.Deg2Rad(h0Deg)

	den := math.Cos(lat) * math.Cos(dec)
	if den == 0 {
		return math.Inf(1)
	}
	return (math.Sin(h0) - math.Sin(lat)*math.Sin(dec)) / den
}

// RisingLongitude returns the geographic longitude at which the body is
// on the rising horizon at latitude latDeg, or ok=false when circumpolar.
// At rising the hour angle is -H0 (body east of the meridian).
func RisingLongitude(raDeg, decDeg, latDeg, h0Deg, jd float64) (float64, bool) {
	h, ok := HourAngleAtHorizon(decDeg, latDeg, h0Deg)
	if !ok {
		return 0, false
	}
	return LongitudeForLST(raDeg-h, jd), true
}

// SettingLongitude is the mirror of RisingLongitude with hour angle +H0.
func SettingLongitude(raDeg, decDeg, latDeg, h0Deg, jd float64) (float64, bool) {
	h, ok := HourAngleAtHorizon(decDeg, latDeg, h0Deg)
	if !ok {
		return 0, false
	}
	return LongitudeForLST(raDeg+h, jd), true
}

// ParanLatitude solves the closed-form paran equation: the latitude at
// which a body with declination decDeg sits at altitude h0Deg while its
// hour angle is hReqDeg. ok is false when no latitude in (-90, 90)
// satisfies the altitude condition.
//
//	sin h0 = sin lat * sin dec + cos lat * cos dec * cos Hreq
//
// Written as a*sin(lat) + b*cos(lat) = c this is R*sin(lat+psi) = c with
// R = hypot(a, b) and psi = atan2(b, a). For h0 = 0 the first root
// reduces to the textbook atan2(-cos(Hreq)*cos(dec), sin(dec)).
func ParanLatitude(hReqDeg, decDeg, h0Deg float64) (float64, bool) {
	a := math.Sin(util.Deg2Rad(decDeg))
	b := math.Cos(util.Deg2Rad(decDeg)) * math.Cos(util.Deg2Rad(hReqDeg))
	c := math.Sin(util.Deg2Rad(h0Deg))

	r := math.Hypot(a, b)
	if r == 0 || math.Abs(c) > r {
		return 0, false
	}
	s := util.Rad2Deg(math.Asin(c / r))
	psi := util.Rad2Deg(math.Atan2(b, a))
	for _, lat := range []float64{util.Wrap180(s - psi), util.Wrap180(180 - s - psi)} {
		if lat > -90 && lat < 90 {
			return lat, true
		}
	}
	return 0, false
}
