package models

// ParanValidity classifies the outcome of a paran solve.
type ParanValidity string

const (
	ParanOK               ParanValidity = "ok"
	ParanCircumpolarLimit ParanValidity = "circumpolar-limit"
	ParanNoSolution       ParanValidity = "no-solution"
)

// ParanPair names one requested paran combination: body A on angle A
// while body B is on angle B, simultaneously.
type ParanPair struct {
	BodyA  Body      `json:"body_a"`
	BodyB  Body      `json:"body_b"`
	AngleA AngleKind `json:"angle_a"`
	AngleB AngleKind `json:"angle_b"`
}

// ParanEvent is one latitude at which two bodies are simultaneously angular.
// A pair may produce zero, one, or two events.
type ParanEvent struct {
	BodyA        Body          `json:"body_a"`
	BodyB        Body          `json:"body_b"`
	AngleA       AngleKind     `json:"angle_a"`
	AngleB       AngleKind     `json:"angle_b"`
	Latitude     float64       `json:"latitude"`
	Method       Method        `json:"method"`
	PrecisionDeg float64       `json:"precision_deg"`
	Validity     ParanValidity `json:"validity"`
	MotionA      MotionStatus  `json:"motion_a,omitempty"`
	MotionB      MotionStatus  `json:"motion_b,omitempty"`
	Style        string        `json:"style,omitempty"`
}
