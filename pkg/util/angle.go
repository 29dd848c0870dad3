package util

import (
    "math"
    "strconv"
)

// Deg2Rad converts degrees to radians.
func Deg2Rad(d float64) float64 { return d * math.Pi / 180.0 }

// Rad2Deg converts radians to degrees.
func Rad2Deg(r float64) float64 { return r * 180.0 / math.Pi }

// Norm360 normalizes an angle in degrees into [0, 360).
func Norm360(d float64) float64 {
    d = math.Mod(d, 360.0)
    if d < 0 {
        d += 360.0
    }
    return d
}

// Wrap180 normalizes an angle in degrees into [-180, 180).
func Wrap180(d float64) float64 {
    d = Norm360(d)
    if d >= 180.0 {
        d -= 360.0
    }
    return d
}

// AngularDelta returns the signed shortest arc from a to b, in degrees.
func AngularDelta(a, b float64) float64 {
    return Wrap180(b - a)
}

// Clamp1 clamps x into [-1, 1]. Used before Acos/Asin to absorb
// floating point overshoot.
func Clamp1(x float64) float64 {
    if x > 1 {
        return 1
    }
    if x < -1 {
        return -1
    }
    return x
}

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
    if s == "" {
        return def
    }
    v, err := strconv.Atoi(s)
    if err != nil {
        return def
    }
    return v
}

// ParseFloatDefault parses string to float64 or returns default if empty/invalid.
func ParseFloatDefault(s string, def float64) float64 {
    if s == "" {
        return def
    }
    v, err := strconv.ParseFloat(s, 64)
    if err != nil {
        return def
    }
    return v
}
