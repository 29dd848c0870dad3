package models

// GeoJSON output types. Coordinates are [lon, lat] per RFC 7946.

// FeatureCollection is the serializable form of a CalculationResult's
// line features.
type FeatureCollection struct {
	Type     string        `json:"type"`
	Features []GeoFeature  `json:"features"`
}

// GeoFeature is one GeoJSON feature with line geometry and properties.
type GeoFeature struct {
	Type       string                 `json:"type"`
	Geometry   GeoGeometry            `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

// GeoGeometry is a LineString, MultiLineString, or Point geometry.
type GeoGeometry struct {
	Type        string      `json:"type"`
	Coordinates interface{} `json:"coordinates"`
}

// LineStringCoords converts a point run into GeoJSON coordinate pairs.
func LineStringCoords(points []Point) [][]float64 {
	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p.Lon, p.Lat}
	}
	return coords
}

// MultiLineStringCoords converts segments into GeoJSON coordinate arrays.
func MultiLineStringCoords(segments [][]Point) [][][]float64 {
	coords := make([][][]float64, len(segments))
	for i, seg := range segments {
		coords[i] = LineStringCoords(seg)
	}
	return coords
}
