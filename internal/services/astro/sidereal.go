// Package astro holds the pure spherical-astronomy math the line and
// paran calculators are built on: sidereal time, horizon hour angles,
// zodiacal angle longitudes, and a shared bracketing root solver.
//
// All functions are stateless. Angles are degrees unless noted.
package astro

import (
	"math"

	"AstroCarto/pkg/util"
)

// GMST returns Greenwich Mean Sidereal Time in degrees for a Julian Date.
// IAU 1982 polynomial, adequate to well under an arcsecond over the
// supported instant range.
func GMST(jd float64) float64 {
	t := util.JulianCenturies(jd)
	gmst := 280.46061837 +
		360.98564736629*util.DaysSinceJ2000(jd) +
		0.000387933*t*t -
		t*t*t/38710000.0
	return util.Norm360(gmst)
}

// LST returns Local Sidereal Time in degrees for a geographic longitude
// (east positive).
func LST(jd, lonDeg float64) float64 {
	return util.Norm360(GMST(jd) + lonDeg)
}

// MeridianLongitude returns the geographic longitude at which a body with
// the given right ascension culminates (is on the upper meridian) at the
// given instant. Closed form: LST = RA there, so lon = RA - GMST.
func MeridianLongitude(raDeg, jd float64) float64 {
	return util.Wrap180(raDeg - GMST(jd))
}

// AntiMeridianLongitude returns the longitude of the lower meridian (IC)
// condition, 180 degrees from the culmination longitude.
func AntiMeridianLongitude(raDeg, jd float64) float64 {
	return util.Wrap180(raDeg - GMST(jd) + 180)
}

// LongitudeForLST inverts the sidereal relation: the geographic longitude
// at which the local sidereal time equals lstDeg at the given instant.
func LongitudeForLST(lstDeg, jd float64) float64 {
	return util.Wrap180(lstDeg - GMST(jd))
}

// MeanObliquity returns the mean obliquity of the ecliptic in degrees.
func MeanObliquity(jd float64) float64 {
	t := util.JulianCenturies(jd)
	return 23.439291111 - 0.0130042*t - 1.64e-7*t*t + 5.04e-7*t*t*t
}

// EclipticToEquatorial converts geocentric ecliptic coordinates to right
// ascension (0..360) and declination, for the obliquity epsDeg.
func EclipticToEquatorial(lonDeg, latDeg, epsDeg float64) (raDeg, decDeg float64) {
	lon := util.Deg2Rad(lonDeg)
	lat := util.Deg2Rad(latDeg)
	eps := util.Deg2Rad(epsDeg)

	sinDec := math.Sin(lat)*math.Cos(eps) + math.Cos(lat)*math.Sin(eps)*math.Sin(lon)
	dec := math.Asin(util.Clamp1(sinDec))

	y := math.Sin(lon)*math.Cos(eps) - math.Tan(lat)*math.Sin(eps)
	x := math.Cos(lon)
	ra := math.Atan2(y, x)

	return util.Norm360(util.Rad2Deg(ra)), util.Rad2Deg(dec)
}

// MCLongitudeZodiacal returns the ecliptic longitude of the Midheaven for
// a given RAMC (right ascension of the meridian, i.e. the LST in degrees).
func MCLongitudeZodiacal(ramcDeg, epsDeg float64) float64 {
	ramc := util.Deg2Rad(ramcDeg)
	eps := util.Deg2Rad(epsDeg)
	lam := math.Atan2(math.Sin(ramc), math.Cos(ramc)*math.Cos(eps))
	return util.Norm360(util.Rad2Deg(lam))
}

// AscendantLongitude returns the ecliptic longitude of the Ascendant for
// a given RAMC and geographic latitude. Undefined in the polar regions
// where the ecliptic can coincide with the horizon; callers sample away
// from the poles.
func AscendantLongitude(ramcDeg, latDeg, epsDeg float64) float64 {
	ramc := util.Deg2Rad(ramcDeg)
	lat := util.Deg2Rad(latDeg)
	eps := util.Deg2Rad(epsDeg)

	y := math.Cos(ramc)
	x := -(math.Sin(ramc)*math.Cos(eps) + math.Tan(lat)*math.Sin(eps))
	asc := math.Atan2(y, x)
	return util.Norm360(util.Rad2Deg(asc))
}
