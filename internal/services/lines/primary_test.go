package lines

import (
	"math"
	"testing"

	"AstroCarto/internal/domain/models"
	"AstroCarto/internal/services/astro"
	"AstroCarto/pkg/util"
)

const testJD = 2451545.0

func testOpts() models.CalcOptions {
	return models.CalcOptions{
		StepDeg:      1.0,
		PrecisionDeg: 0.03,
	}
}

func position(ra, dec float64) models.BodyPosition {
	return models.BodyPosition{
		Body:           models.Sun,
		RightAscension: ra,
		Declination:    dec,
	}
}

func TestCulminatingLineIsMeridian(t *testing.T) {
	c := NewPrimaryCalculator(testOpts())
	pos := position(100, 23)

	f, err := c.Line(pos, models.LineCulminating, testJD)
	if err != nil {
		t.Fatalf("Line: %v", err)
	}
	if len(f.Segments) != 1 || len(f.Segments[0]) != 2 {
		t.Fatalf("expected one two-point segment, got %v", f.Segments)
	}
	want := astro.MeridianLongitude(pos.RightAscension, testJD)
	for _, p := range f.Segments[0] {
		if p.Lon != want {
			t.Errorf("culminating longitude %.6f, want %.6f", p.Lon, want)
		}
	}
	if f.Meta.Method != models.MethodClosedForm {
		t.Errorf("method = %s, want closed-form", f.Meta.Method)
	}
	if f.Meta.PrecisionDeg != 0 {
		t.Errorf("closed form must report zero precision, got %g", f.Meta.PrecisionDeg)
	}
}

func TestAntiCulminatingOppositeLongitude(t *testing.T) {
	c := NewPrimaryCalculator(testOpts())
	pos := position(40, -10)

	mc, err := c.Line(pos, models.LineCulminating, testJD)
	if err != nil {
		t.Fatalf("culminating: %v", err)
	}
	ic, err := c.Line(pos, models.LineAntiCulminating, testJD)
	if err != nil {
		t.Fatalf("anti-culminating: %v", err)
	}
	d := math.Abs(util.AngularDelta(mc.Segments[0][0].Lon, ic.Segments[0][0].Lon))
	if math.Abs(d-180) > 1e-9 {
		t.Errorf("meridian lines separated by %.9f, want 180", d)
	}
}

func TestRisingLineEquatorialBody(t *testing.T) {
	c := NewPrimaryCalculator(testOpts())
	pos := position(150, 0)

	f, err := c.Line(pos, models.LineRising, testJD)
	if err != nil {
		t.Fatalf("Line: %v", err)
	}
	if f.PointCount() == 0 {
		t.Fatal("equatorial body must rise at every latitude")
	}
	// A body on the celestial equator has a 90 degree semi-arc
	// everywhere, so its rising line is itself a meridian.
	want := astro.LongitudeForLST(pos.RightAscension-90, testJD)
	for _, seg := range f.Segments {
		for _, p := range seg {
			if math.Abs(util.AngularDelta(want, p.Lon)) > 1e-9 {
				t.Fatalf("rising longitude at lat %.1f = %.6f, want %.6f", p.Lat, p.Lon, want)
			}
		}
	}
	if len(f.Meta.TangentLats) != 0 {
		t.Errorf("no tangent points expected, got %v", f.Meta.TangentLats)
	}
}

func TestRisingLineTangentPoints(t *testing.T) {
	c := NewPrimaryCalculator(testOpts())
	pos := position(210, 60)

	f, err := c.Line(pos, models.LineRising, testJD)
	if err != nil {
		t.Fatalf("Line: %v", err)
	}
	// cos H0 = -tan(60) tan(lat) leaves the horizon reachable only for
	// |lat| < 30, so both transitions must be recorded near +-30.
	if len(f.Meta.TangentLats) != 2 {
		t.Fatalf("tangent latitudes = %v, want two", f.Meta.TangentLats)
	}
	for _, tl := range f.Meta.TangentLats {
		if math.Abs(math.Abs(tl)-30) > 0.5 {
			t.Errorf("tangent latitude %.3f, want near +-30", tl)
		}
	}
	for _, seg := range f.Segments {
		for _, p := range seg {
			if math.Abs(p.Lat) > 30.01 {
				t.Errorf("point at lat %.3f outside the valid band", p.Lat)
			}
		}
	}
}

func TestRisingLineNoSolution(t *testing.T) {
	c := NewPrimaryCalculator(testOpts())
	pos := position(0, 90)

	if _, err := c.Line(pos, models.LineRising, testJD); err != ErrNoSolution {
		t.Fatalf("polar body rising line: err = %v, want ErrNoSolution", err)
	}
}

func TestRisingLineAntimeridianSplit(t *testing.T) {
	c := NewPrimaryCalculator(testOpts())
	// Place the equator crossing of the line right at the antimeridian
	// so poleward curvature forces a wrap.
	ra := util.Norm360(astro.GMST(testJD) + 270)
	pos := position(ra, 25)

	f, err := c.Line(pos, models.LineRising, testJD)
	if err != nil {
		t.Fatalf("Line: %v", err)
	}
	if len(f.Segments) < 2 {
		t.Fatalf("expected a split at the antimeridian, got %d segment(s)", len(f.Segments))
	}
	for _, seg := range f.Segments {
		for i := 1; i < len(seg); i++ {
			if math.Abs(seg[i].Lon-seg[i-1].Lon) > 90 {
				t.Fatalf("jump of %.2f inside a segment", math.Abs(seg[i].Lon-seg[i-1].Lon))
			}
		}
	}
}

func TestSettingMirrorsRisingAboutMeridian(t *testing.T) {
	c := NewPrimaryCalculator(testOpts())
	pos := position(10, 18)

	rise, err := c.Line(pos, models.LineRising, testJD)
	if err != nil {
		t.Fatalf("rising: %v", err)
	}
	set, err := c.Line(pos, models.LineSetting, testJD)
	if err != nil {
		t.Fatalf("setting: %v", err)
	}
	mc := astro.MeridianLongitude(pos.RightAscension, testJD)

	riseAt := pointsByLat(rise)
	setAt := pointsByLat(set)
	checked := 0
	for lat, rl := range riseAt {
		sl, ok := setAt[lat]
		if !ok {
			continue
		}
		dr := util.AngularDelta(rl, mc)
		ds := util.AngularDelta(mc, sl)
		if math.Abs(dr-ds) > 1e-6 {
			t.Fatalf("lat %.1f: rising offset %.6f, setting offset %.6f", lat, dr, ds)
		}
		checked++
	}
	if checked < 50 {
		t.Fatalf("only %d shared latitudes checked", checked)
	}
}

func pointsByLat(f models.LineFeature) map[float64]float64 {
	m := make(map[float64]float64)
	for _, seg := range f.Segments {
		for _, p := range seg {
			m[p.Lat] = p.Lon
		}
	}
	return m
}
