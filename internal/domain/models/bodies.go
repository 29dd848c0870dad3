package models

// Body identifies a celestial body supported by the calculators.
type Body string

const (
	Sun     Body = "sun"
	Moon    Body = "moon"
	Mercury Body = "mercury"
	Venus   Body = "venus"
	Mars    Body = "mars"
	Jupiter Body = "jupiter"
	Saturn  Body = "saturn"
	Uranus  Body = "uranus"
	Neptune Body = "neptune"
	Pluto   Body = "pluto"
)

// AllBodies lists every supported body in canonical order.
var AllBodies = []Body{Sun, Moon, Mercury, Venus, Mars, Jupiter, Saturn, Uranus, Neptune, Pluto}

// Valid reports whether the body identifier is known.
func (b Body) Valid() bool {
	switch b {
	case Sun, Moon, Mercury, Venus, Mars, Jupiter, Saturn, Uranus, Neptune, Pluto:
		return true
	}
	return false
}

// BodyPosition is an immutable snapshot of one body at one instant.
// All angles are in degrees, distance in AU, speed in degrees/day.
type BodyPosition struct {
	Body           Body
	EclipticLon    float64 // geocentric ecliptic longitude
	EclipticLat    float64 // geocentric ecliptic latitude
	Declination    float64
	RightAscension float64 // 0..360
	DistanceAU     float64
	LonSpeed       float64 // longitude speed, retrograde when negative
}

// ChartContext carries the instant and the body set a request computes for.
// Created once per request, read-only thereafter.
type ChartContext struct {
	JD     float64 // Julian Date, UT
	Bodies []Body
}

// MotionStatus classifies the apparent zodiacal motion of a body.
type MotionStatus string

const (
	MotionDirect     MotionStatus = "direct"
	MotionRetrograde MotionStatus = "retrograde"
	MotionStationary MotionStatus = "stationary"
)

// StyleHint maps a motion status onto a deterministic rendering hint.
func (m MotionStatus) StyleHint() string {
	switch m {
	case MotionRetrograde:
		return "dashed"
	case MotionStationary:
		return "dotted"
	default:
		return "solid"
	}
}
