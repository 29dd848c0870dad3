// Package motion classifies planetary motion and stamps line features
// and paran events with the rendering style that encodes it.
package motion

import (
	"math"

	"AstroCarto/internal/domain/models"
)

// Enricher derives a motion status from a body's ecliptic longitude
// speed and attaches it, with its style hint, to computed artifacts.
type Enricher struct {
	stationaryThreshold float64 // deg/day
}

func NewEnricher(opts models.CalcOptions) *Enricher {
	th := opts.StationaryThreshold
	if th <= 0 {
		th = models.DefaultStationary
	}
	return &Enricher{stationaryThreshold: th}
}

// Classify maps a longitude speed to a motion status. Order matters:
// any negative speed is retrograde, stationary applies only to slow
// forward motion.
func (e *Enricher) Classify(lonSpeedDegPerDay float64) models.MotionStatus {
	if lonSpeedDegPerDay < 0 {
		return models.MotionRetrograde
	}
	if math.Abs(lonSpeedDegPerDay) < e.stationaryThreshold {
		return models.MotionStationary
	}
	return models.MotionDirect
}

// EnrichFeature stamps a line feature with the motion of its body.
func (e *Enricher) EnrichFeature(f *models.LineFeature, pos models.BodyPosition) {
	st := e.Classify(pos.LonSpeed)
	f.Meta.Motion = st
	f.Meta.Style = st.StyleHint()
}

// EnrichParan stamps a paran event with both bodies' motion. The event
// style degrades to the "slower" of the two hints so a rendering layer
// can flag a paran involving any non-direct body.
func (e *Enricher) EnrichParan(ev *models.ParanEvent, posA, posB models.BodyPosition) {
	ma := e.Classify(posA.LonSpeed)
	mb := e.Classify(posB.LonSpeed)
	ev.MotionA = ma
	ev.MotionB = mb
	ev.Style = combinedStyle(ma, mb)
}

// combinedStyle prefers the more degraded hint: dotted over dashed,
// dashed over solid.
func combinedStyle(a, b models.MotionStatus) string {
	rank := func(m models.MotionStatus) int {
		switch m {
		case models.MotionStationary:
			return 2
		case models.MotionRetrograde:
			return 1
		default:
			return 0
		}
	}
	if rank(a) >= rank(b) {
		return a.StyleHint()
	}
	return b.StyleHint()
}
