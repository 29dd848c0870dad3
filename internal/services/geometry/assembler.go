// Package geometry finalizes computed features: coordinate
// normalization, antimeridian splitting, deterministic ordering,
// and GeoJSON packaging.
package geometry

import (
	"math"
	"sort"

	"AstroCarto/internal/domain/models"
	"AstroCarto/pkg/util"
)

// maxSegmentJump is the largest allowed longitude step between
// consecutive points of a finished segment. Upstream calculators split
// at the antimeridian already; the assembler re-validates and re-splits
// so no consumer ever sees a wrapping polyline.
const maxSegmentJump = 90.0

// Assembler normalizes and orders computed artifacts into the response
// structure.
type Assembler struct{}

func NewAssembler() *Assembler {
	return &Assembler{}
}

// Assemble normalizes every feature in place and returns the features
// in canonical order: stable sort by body identifier, then line kind.
func (a *Assembler) Assemble(features []models.LineFeature) []models.LineFeature {
	for i := range features {
		a.normalizeFeature(&features[i])
	}
	sort.SliceStable(features, func(i, j int) bool {
		if features[i].Body != features[j].Body {
			return features[i].Body < features[j].Body
		}
		return features[i].Kind < features[j].Kind
	})
	return features
}

// SortParans orders paran events by body pair, then angle pair, then
// latitude, so identical requests serialize identically.
func (a *Assembler) SortParans(events []models.ParanEvent) []models.ParanEvent {
	sort.SliceStable(events, func(i, j int) bool {
		x, y := events[i], events[j]
		if x.BodyA != y.BodyA {
			return x.BodyA < y.BodyA
		}
		if x.BodyB != y.BodyB {
			return x.BodyB < y.BodyB
		}
		if x.AngleA != y.AngleA {
			return x.AngleA < y.AngleA
		}
		if x.AngleB != y.AngleB {
			return x.AngleB < y.AngleB
		}
		return x.Latitude < y.Latitude
	})
	return events
}

func (a *Assembler) normalizeFeature(f *models.LineFeature) {
	var out [][]models.Point
	for _, seg := range f.Segments {
		for i := range seg {
			seg[i].Lon = util.Wrap180(seg[i].Lon)
		}
		out = append(out, splitWrapping(seg)...)
	}
	f.Segments = out
}

// splitWrapping cuts a segment wherever the longitude jump between
// consecutive points exceeds maxSegmentJump. Single stranded
// points are dropped: a LineString needs two coordinates.
func splitWrapping(seg []models.Point) [][]models.Point {
	var out [][]models.Point
	start := 0
	for i := 1; i < len(seg); i++ {
		if math.Abs(seg[i].Lon-seg[i-1].Lon) > maxSegmentJump {
			if i-start >= 2 {
				out = append(out, seg[start:i])
			}
			start = i
		}
	}
	if len(seg)-start >= 2 {
		out = append(out, seg[start:])
	}
	return out
}

// FeatureCollection converts the finished result into GeoJSON. Line
// features with one segment become LineStrings, multi-segment features
// MultiLineStrings. Paran events become horizontal latitude lines so
// map layers can render them without special casing.
func (a *Assembler) FeatureCollection(res *models.CalculationResult) models.FeatureCollection {
	fc := models.FeatureCollection{
		Type:     "FeatureCollection",
		Features: make([]models.GeoFeature, 0, len(res.Features)+len(res.Parans)),
	}
	for i := range res.Features {
		fc.Features = append(fc.Features, lineGeoFeature(&res.Features[i]))
	}
	for i := range res.Parans {
		if res.Parans[i].Validity == models.ParanNoSolution {
			continue
		}
		fc.Features = append(fc.Features, paranGeoFeature(&res.Parans[i]))
	}
	return fc
}

func lineGeoFeature(f *models.LineFeature) models.GeoFeature {
	props := map[string]interface{}{
		"body":          string(f.Body),
		"kind":          string(f.Kind),
		"method":        string(f.Meta.Method),
		"precision_deg": f.Meta.PrecisionDeg,
	}
	if f.Meta.Motion != "" {
		props["motion"] = string(f.Meta.Motion)
		props["style"] = f.Meta.Style
	}
	if f.Angle != "" {
		props["angle"] = string(f.Angle)
	}
	if f.Aspect != nil {
		props["aspect"] = string(f.Aspect.Kind)
		props["aspect_target"] = string(f.Aspect.Target)
		if f.Aspect.Edge != "" {
			props["aspect_edge"] = f.Aspect.Edge
		}
	}
	if len(f.Meta.TangentLats) > 0 {
		props["tangent_lats"] = f.Meta.TangentLats
	}

	var geom models.GeoGeometry
	if len(f.Segments) == 1 {
		geom = models.GeoGeometry{
			Type:        "LineString",
			Coordinates: models.LineStringCoords(f.Segments[0]),
		}
	} else {
		geom = models.GeoGeometry{
			Type:        "MultiLineString",
			Coordinates: models.MultiLineStringCoords(f.Segments),
		}
	}
	return models.GeoFeature{Type: "Feature", Geometry: geom, Properties: props}
}

func paranGeoFeature(ev *models.ParanEvent) models.GeoFeature {
	props := map[string]interface{}{
		"kind":          string(models.LineParan),
		"body_a":        string(ev.BodyA),
		"body_b":        string(ev.BodyB),
		"angle_a":       string(ev.AngleA),
		"angle_b":       string(ev.AngleB),
		"latitude":      ev.Latitude,
		"method":        string(ev.Method),
		"precision_deg": ev.PrecisionDeg,
		"validity":      string(ev.Validity),
	}
	if ev.Style != "" {
		props["style"] = ev.Style
		props["motion_a"] = string(ev.MotionA)
		props["motion_b"] = string(ev.MotionB)
	}
	line := []models.Point{{Lon: -180, Lat: ev.Latitude}, {Lon: 180, Lat: ev.Latitude}}
	return models.GeoFeature{
		Type: "Feature",
		Geometry: models.GeoGeometry{
			Type:        "LineString",
			Coordinates: models.LineStringCoords(line),
		},
		Properties: props,
	}
}
