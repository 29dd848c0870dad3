package util

import (
    "strconv"
    "time"
)

// j2000 is the Julian Date of the J2000.0 epoch.
const j2000 = 2451545.0

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
    if s == "" {
        return time.Time{}, false
    }
    if t, err := time.Parse(time.RFC3339, s); err == nil {
        return t, true
    }
    if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
        return t, true
    }
    if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
        return time.Unix(ts, 0), true
    }
    return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
    if t, ok := ParseTime(s); ok {
        return t
    }
    return def
}

// JulianDate converts a time.Time (UTC) to a Julian Date in days.
// Standard astronomical algorithm, valid for Gregorian calendar dates.
func JulianDate(t time.Time) float64 {
    t = t.UTC()
    y := float64(t.Year())
    m := float64(t.Month())
    d := float64(t.Day())
    h := float64(t.Hour())
    min := float64(t.Minute())
    s := float64(t.Second()) + float64(t.Nanosecond())/1e9

    // Jan/Feb count as months 13/14 of the previous year.
    if m <= 2 {
        y -= 1
        m += 12
    }

    a := floor(y / 100)
    b := 2 - a + floor(a/4)

    jd := floor(365.25*(y+4716)) + floor(30.6001*(m+1)) + d + b - 1524.5
    jd += (h + min/60.0 + s/3600.0) / 24.0
    return jd
}

func floor(x float64) float64 {
    i := float64(int64(x))
    if x < 0 && x != i {
        return i - 1
    }
    return i
}

// JulianCenturies returns Julian centuries since J2000.0 for a Julian Date.
func JulianCenturies(jd float64) float64 {
    return (jd - j2000) / 36525.0
}

// DaysSinceJ2000 returns fractional days since the J2000.0 epoch.
func DaysSinceJ2000(jd float64) float64 {
    return jd - j2000
}
