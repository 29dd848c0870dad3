package models

import (
	"fmt"

	"AstroCarto/pkg/util"
)

// Builtin ephemeris validity window, Julian Dates for 1900-01-01..2100-01-01.
const (
	MinJD = 2415020.5
	MaxJD = 2488069.5
)

// Default calculation parameters. Overridable per request.
const (
	DefaultStepDeg      = 1.0
	DefaultPrecisionDeg = 0.03
	DefaultOrbDeg       = 1.0
	DefaultStationary   = 0.01 // degrees/day
)

// CalcOptions enumerates everything a caller can tune on a computation.
type CalcOptions struct {
	Kinds               []LineKind
	Aspects             []AspectKind
	AspectTargets       []AngleKind
	OrbDeg              float64
	OrbBandEdges        bool // also solve the two orb band boundary lines
	Pairs               []ParanPair
	PrecisionDeg        float64
	StepDeg             float64
	ApparentHorizon     bool // subtract standard refraction from the horizon condition
	StationaryThreshold float64
}

// CalcRequest is the validated, typed input of the compute engine.
type CalcRequest struct {
	Bodies  []Body
	JD      float64
	Options CalcOptions
}

// ComputeLinesRequest is the HTTP request DTO for POST /api/lines.
// Instant accepts RFC3339 or unix seconds; JD takes precedence when set.
type ComputeLinesRequest struct {
	Bodies  []string `json:"bodies" validate:"required,min=1,max=10"`
	Instant string   `json:"instant"`
	JD      float64  `json:"jd"`

	Kinds   []string `json:"kinds" default:"[\"rising\",\"setting\",\"culminating\",\"anti-culminating\"]"`
	Aspects []string `json:"aspects" validate:"omitempty,dive,oneof=conjunction sextile square trine opposition"`
	Targets []string `json:"targets" validate:"omitempty,dive,oneof=rising setting culminating anti-culminating"`

	OrbDeg       float64 `json:"orb_deg" default:"1.0" validate:"gte=0,lte=10"`
	OrbBandEdges bool    `json:"orb_band_edges"`

	Pairs []ParanPairRequest `json:"pairs" validate:"omitempty,max=100,dive"`

	PrecisionDeg        float64 `json:"precision_deg" default:"0.03" validate:"gt=0,lte=1"`
	StepDeg             float64 `json:"step_deg" default:"1.0" validate:"gt=0,lte=10"`
	ApparentHorizon     bool    `json:"apparent_horizon"`
	StationaryThreshold float64 `json:"stationary_threshold" default:"0.01" validate:"gte=0"`
}

// ParanPairRequest is the DTO form of one paran combination.
type ParanPairRequest struct {
	BodyA  string `json:"body_a" validate:"required"`
	BodyB  string `json:"body_b" validate:"required"`
	AngleA string `json:"angle_a" validate:"required,oneof=rising setting culminating anti-culminating"`
	AngleB string `json:"angle_b" validate:"required,oneof=rising setting culminating anti-culminating"`
}

// ToCalcRequest converts the DTO into a typed engine request. Unknown body
// identifiers and out-of-range instants are fatal for the whole request.
func (r *ComputeLinesRequest) ToCalcRequest() (*CalcRequest, error) {
	jd := r.JD
	if jd == 0 {
		t, ok := util.ParseTime(r.Instant)
		if !ok {
			return nil, fmt.Errorf("instant %q is not RFC3339 or unix seconds", r.Instant)
		}
		jd = util.JulianDate(t)
	}
	if jd < MinJD || jd > MaxJD {
		return nil, fmt.Errorf("instant jd=%.5f outside supported range [%.1f, %.1f]", jd, MinJD, MaxJD)
	}

	bodies := make([]Body, 0, len(r.Bodies))
	seen := make(map[Body]bool, len(r.Bodies))
	for _, s := range r.Bodies {
		b := Body(s)
		if !b.Valid() {
			return nil, fmt.Errorf("unknown body %q", s)
		}
		if !seen[b] {
			seen[b] = true
			bodies = append(bodies, b)
		}
	}

	kinds := make([]LineKind, 0, len(r.Kinds))
	for _, s := range r.Kinds {
		k := LineKind(s)
		if !k.Valid() {
			return nil, fmt.Errorf("unknown line kind %q", s)
		}
		kinds = append(kinds, k)
	}

	aspects := make([]AspectKind, 0, len(r.Aspects))
	for _, s := range r.Aspects {
		aspects = append(aspects, AspectKind(s))
	}
	targets := make([]AngleKind, 0, len(r.Targets))
	for _, s := range r.Targets {
		targets = append(targets, AngleKind(s))
	}
	if len(aspects) > 0 && len(targets) == 0 {
		targets = []AngleKind{AngleCulminating, AngleRising}
	}

	pairs := make([]ParanPair, 0, len(r.Pairs))
	for _, p := range r.Pairs {
		ba, bb := Body(p.BodyA), Body(p.BodyB)
		if !ba.Valid() {
			return nil, fmt.Errorf("unknown body %q in paran pair", p.BodyA)
		}
		if !bb.Valid() {
			return nil, fmt.Errorf("unknown body %q in paran pair", p.BodyB)
		}
		if !AngleKind(p.AngleA).Valid() || !AngleKind(p.AngleB).Valid() {
			return nil, fmt.Errorf("unknown angle in paran pair %s/%s", p.AngleA, p.AngleB)
		}
		pairs = append(pairs, ParanPair{
			BodyA:  ba,
			BodyB:  bb,
			AngleA: AngleKind(p.AngleA),
			AngleB: AngleKind(p.AngleB),
		})
	}

	return &CalcRequest{
		Bodies: bodies,
		JD:     jd,
		Options: CalcOptions{
			Kinds:               kinds,
			Aspects:             aspects,
			AspectTargets:       targets,
			OrbDeg:              r.OrbDeg,
			OrbBandEdges:        r.OrbBandEdges,
			Pairs:               pairs,
			PrecisionDeg:        r.PrecisionDeg,
			StepDeg:             r.StepDeg,
			ApparentHorizon:     r.ApparentHorizon,
			StationaryThreshold: r.StationaryThreshold,
		},
	}, nil
}

// WantsKind reports whether the request asks for the given line kind.
func (o *CalcOptions) WantsKind(k LineKind) bool {
	for _, kk := range o.Kinds {
		if kk == k {
			return true
		}
	}
	return false
}
