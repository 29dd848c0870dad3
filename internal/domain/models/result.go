package models

import "time"

// WarningKind names a class of non-fatal per-feature failure.
type WarningKind string

const (
	WarnNoSolution   WarningKind = "no-solution"
	WarnConvergence  WarningKind = "convergence"
	WarnCircumpolar  WarningKind = "circumpolar-limit"
	WarnCollaborator WarningKind = "collaborator"
	WarnDeadline     WarningKind = "deadline"
)

// Warning describes one non-fatal failure. Warnings never abort the
// batch; they explain omissions and flags in the result.
type Warning struct {
	Kind      WarningKind `json:"kind"`
	Body      Body        `json:"body,omitempty"`
	OtherBody Body        `json:"other_body,omitempty"`
	LineKind  LineKind    `json:"line_kind,omitempty"`
	Detail    string      `json:"detail,omitempty"`
}

// CalculationResult is the complete output of one compute request.
// It is created once, cached by fingerprint, and never mutated after
// completion: a fresh computation replaces a stale entry wholesale.
type CalculationResult struct {
	Fingerprint string        `json:"fingerprint"`
	JD          float64       `json:"jd"`
	Features    []LineFeature `json:"features"`
	Parans      []ParanEvent  `json:"parans,omitempty"`
	Warnings    []Warning     `json:"warnings,omitempty"`
	Partial     bool          `json:"partial,omitempty"`
	ComputedAt  time.Time     `json:"computed_at"`
	DurationMS  int64         `json:"duration_ms"`
}
