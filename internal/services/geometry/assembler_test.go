package geometry

import (
	"math"
	"sort"
	"testing"

	"AstroCarto/internal/domain/models"
)

func TestAssembleNormalizesLongitudes(t *testing.T) {
	a := NewAssembler()
	features := []models.LineFeature{{
		Body: models.Sun,
		Kind: models.LineRising,
		Segments: [][]models.Point{{
			{Lon: 190, Lat: 0},
			{Lon: 191, Lat: 1},
			{Lon: 192, Lat: 2},
		}},
	}}

	out := a.Assemble(features)
	for _, seg := range out[0].Segments {
		for _, p := range seg {
			if p.Lon < -180 || p.Lon >= 180 {
				t.Errorf("longitude %.2f outside [-180, 180)", p.Lon)
			}
		}
	}
}

func TestAssembleSplitsResidualWrap(t *testing.T) {
	a := NewAssembler()
	// A segment that sneaks across the antimeridian after normalization.
	features := []models.LineFeature{{
		Body: models.Sun,
		Kind: models.LineSetting,
		Segments: [][]models.Point{{
			{Lon: 178, Lat: 0},
			{Lon: 179.5, Lat: 1},
			{Lon: 181, Lat: 2}, // normalizes to -179
			{Lon: 182.5, Lat: 3},
		}},
	}}

	out := a.Assemble(features)
	if len(out[0].Segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(out[0].Segments))
	}
	for _, seg := range out[0].Segments {
		for i := 1; i < len(seg); i++ {
			if math.Abs(seg[i].Lon-seg[i-1].Lon) > maxSegmentJump {
				t.Fatalf("wrapping jump survived assembly")
			}
		}
	}
}

func TestAssembleDropsStrandedPoints(t *testing.T) {
	a := NewAssembler()
	features := []models.LineFeature{{
		Body: models.Moon,
		Kind: models.LineRising,
		Segments: [][]models.Point{{
			{Lon: 179, Lat: 0},
			{Lon: -179, Lat: 1}, // wrap right after the first point
			{Lon: -178, Lat: 2},
		}},
	}}

	out := a.Assemble(features)
	if len(out[0].Segments) != 1 {
		t.Fatalf("got %d segments, want 1 (stranded point dropped)", len(out[0].Segments))
	}
	if len(out[0].Segments[0]) != 2 {
		t.Fatalf("surviving segment has %d points, want 2", len(out[0].Segments[0]))
	}
}

func TestAssembleStableOrdering(t *testing.T) {
	a := NewAssembler()
	seg := [][]models.Point{{{Lon: 0, Lat: 0}, {Lon: 0, Lat: 1}}}
	features := []models.LineFeature{
		{Body: models.Venus, Kind: models.LineSetting, Segments: seg},
		{Body: models.Mars, Kind: models.LineRising, Segments: seg},
		{Body: models.Mars, Kind: models.LineCulminating, Segments: seg},
		{Body: models.Venus, Kind: models.LineRising, Segments: seg},
	}

	out := a.Assemble(features)
	if !sort.SliceIsSorted(out, func(i, j int) bool {
		if out[i].Body != out[j].Body {
			return out[i].Body < out[j].Body
		}
		return out[i].Kind < out[j].Kind
	}) {
		t.Fatalf("features not in canonical order: %+v", out)
	}
	if out[0].Body != models.Mars {
		t.Errorf("first body = %s, want mars", out[0].Body)
	}
}

func TestSortParansDeterministic(t *testing.T) {
	a := NewAssembler()
	events := []models.ParanEvent{
		{BodyA: models.Sun, BodyB: models.Venus, AngleA: models.AngleRising, AngleB: models.AngleSetting, Latitude: 40},
		{BodyA: models.Sun, BodyB: models.Mercury, AngleA: models.AngleRising, AngleB: models.AngleRising, Latitude: -12},
		{BodyA: models.Sun, BodyB: models.Mercury, AngleA: models.AngleRising, AngleB: models.AngleRising, Latitude: -30},
	}

	out := a.SortParans(events)
	if out[0].BodyB != models.Mercury || out[0].Latitude != -30 {
		t.Fatalf("unexpected first event: %+v", out[0])
	}
	if out[2].BodyB != models.Venus {
		t.Fatalf("unexpected last event: %+v", out[2])
	}
}

func TestFeatureCollection(t *testing.T) {
	a := NewAssembler()
	res := &models.CalculationResult{
		Features: []models.LineFeature{
			{
				Body: models.Sun,
				Kind: models.LineCulminating,
				Segments: [][]models.Point{{
					{Lon: 10, Lat: -89}, {Lon: 10, Lat: 89},
				}},
				Meta: models.LineMeta{Method: models.MethodClosedForm, Motion: models.MotionDirect, Style: models.MotionDirect.StyleHint()},
			},
			{
				Body: models.Moon,
				Kind: models.LineRising,
				Segments: [][]models.Point{
					{{Lon: 10, Lat: 0}, {Lon: 11, Lat: 1}},
					{{Lon: -170, Lat: 50}, {Lon: -171, Lat: 51}},
				},
				Meta: models.LineMeta{Method: models.MethodClosedForm},
			},
		},
		Parans: []models.ParanEvent{
			{BodyA: models.Sun, BodyB: models.Moon, AngleA: models.AngleCulminating, AngleB: models.AngleRising, Latitude: 78.49, Validity: models.ParanOK},
			{BodyA: models.Sun, BodyB: models.Moon, AngleA: models.AngleCulminating, AngleB: models.AngleSetting, Validity: models.ParanNoSolution},
		},
	}

	fc := a.FeatureCollection(res)
	if fc.Type != "FeatureCollection" {
		t.Errorf("type = %q", fc.Type)
	}
	// Two line features plus the solvable paran. The no-solution event
	// carries no geometry and stays out of the collection.
	if len(fc.Features) != 3 {
		t.Fatalf("got %d features, want 3", len(fc.Features))
	}
	if fc.Features[0].Geometry.Type != "LineString" {
		t.Errorf("single-segment feature geometry = %q", fc.Features[0].Geometry.Type)
	}
	if fc.Features[1].Geometry.Type != "MultiLineString" {
		t.Errorf("multi-segment feature geometry = %q", fc.Features[1].Geometry.Type)
	}
	paran := fc.Features[2]
	if paran.Properties["kind"] != "paran" {
		t.Fatalf("paran properties = %+v", paran.Properties)
	}
	coords, ok := paran.Geometry.Coordinates.([][]float64)
	if !ok || len(coords) != 2 || coords[0][1] != 78.49 {
		t.Fatalf("paran geometry = %+v", paran.Geometry.Coordinates)
	}
	if fc.Features[0].Properties["motion"] != "direct" {
		t.Errorf("motion property missing: %+v", fc.Features[0].Properties)
	}
}
