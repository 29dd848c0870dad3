package models

// LineKind identifies the kind of astrocartography line a feature represents.
type LineKind string

const (
	LineRising          LineKind = "rising"
	LineSetting         LineKind = "setting"
	LineCulminating     LineKind = "culminating"
	LineAntiCulminating LineKind = "anti-culminating"
	LineAspect          LineKind = "aspect"
	LineParan           LineKind = "paran"
)

// Valid reports whether the line kind is known.
func (k LineKind) Valid() bool {
	switch k {
	case LineRising, LineSetting, LineCulminating, LineAntiCulminating, LineAspect, LineParan:
		return true
	}
	return false
}

// PrimaryLineKinds are the four angle-derived line kinds.
var PrimaryLineKinds = []LineKind{LineRising, LineSetting, LineCulminating, LineAntiCulminating}

// AngleKind identifies one of the four local angles a body can occupy.
type AngleKind string

const (
	AngleRising          AngleKind = "rising"           // AC
	AngleSetting         AngleKind = "setting"          // DC
	AngleCulminating     AngleKind = "culminating"      // MC
	AngleAntiCulminating AngleKind = "anti-culminating" // IC
)

// Valid reports whether the angle kind is known.
func (a AngleKind) Valid() bool {
	switch a {
	case AngleRising, AngleSetting, AngleCulminating, AngleAntiCulminating:
		return true
	}
	return false
}

// OnMeridian reports whether the angle is a meridian condition (MC/IC).
// Meridian conditions have closed-form longitudes independent of latitude.
func (a AngleKind) OnMeridian() bool {
	return a == AngleCulminating || a == AngleAntiCulminating
}

// AspectKind names a supported aspect to a local angle.
type AspectKind string

const (
	AspectConjunction AspectKind = "conjunction"
	AspectSextile     AspectKind = "sextile"
	AspectSquare      AspectKind = "square"
	AspectTrine       AspectKind = "trine"
	AspectOpposition  AspectKind = "opposition"
)

// Degrees returns the exact aspect angle.
func (a AspectKind) Degrees() float64 {
	switch a {
	case AspectSextile:
		return 60
	case AspectSquare:
		return 90
	case AspectTrine:
		return 120
	case AspectOpposition:
		return 180
	default:
		return 0
	}
}

// Valid reports whether the aspect kind is known.
func (a AspectKind) Valid() bool {
	switch a {
	case AspectConjunction, AspectSextile, AspectSquare, AspectTrine, AspectOpposition:
		return true
	}
	return false
}

// Method records how a feature or event was solved.
type Method string

const (
	MethodClosedForm Method = "closed-form"
	MethodNumerical  Method = "numerical"
)

// Point is a geographic coordinate in degrees, longitude first to match
// GeoJSON conventions. Longitude is in [-180, 180], latitude in [-90, 90].
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// AspectInfo describes the aspect condition an aspect line solves.
type AspectInfo struct {
	Kind   AspectKind `json:"kind"`
	Target AngleKind  `json:"target"` // the local angle the aspect is measured from
	OrbDeg float64    `json:"orb_deg"`
	// Edge marks an orb band boundary line: "" for the exact centerline,
	// "upper"/"lower" for explicitly requested band edges.
	Edge string `json:"edge,omitempty"`
}

// LineMeta carries per-feature metadata attached by the calculators and
// the motion enricher.
type LineMeta struct {
	Motion       MotionStatus `json:"motion,omitempty"`
	Style        string       `json:"style,omitempty"`
	Method       Method       `json:"method"`
	PrecisionDeg float64      `json:"precision_deg"`
	// TangentLats are latitudes where a horizon line transitions into the
	// circumpolar region (no horizon crossing beyond them).
	TangentLats []float64 `json:"tangent_lats,omitempty"`
}

// LineFeature is one astrocartography line for one body.
//
// Segments hold one or more LineStrings: a single geometric line is split
// wherever its longitude sequence would cross the antimeridian. Points
// within a segment are ordered by increasing sampled latitude.
type LineFeature struct {
	Body     Body        `json:"body"`
	Kind     LineKind    `json:"kind"`
	Angle    AngleKind   `json:"angle,omitempty"`
	Aspect   *AspectInfo `json:"aspect,omitempty"`
	Segments [][]Point   `json:"segments"`
	Meta     LineMeta    `json:"meta"`
}

// PointCount returns the total number of points across all segments.
func (f *LineFeature) PointCount() int {
	n := 0
	for _, seg := range f.Segments {
		n += len(seg)
	}
	return n
}
