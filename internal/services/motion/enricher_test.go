package motion

import (
	"testing"

	"AstroCarto/internal/domain/models"
)

func TestClassify(t *testing.T) {
	e := NewEnricher(models.CalcOptions{StationaryThreshold: 0.01})

	cases := []struct {
		speed float64
		want  models.MotionStatus
	}{
		{1.02, models.MotionDirect},
		{0.011, models.MotionDirect},
		{0.009, models.MotionStationary},
		{0.0, models.MotionStationary},
		{-0.005, models.MotionRetrograde},
		{-0.4, models.MotionRetrograde},
	}
	for _, tc := range cases {
		if got := e.Classify(tc.speed); got != tc.want {
			t.Errorf("Classify(%g) = %s, want %s", tc.speed, got, tc.want)
		}
	}
}

func TestEnrichFeatureStyle(t *testing.T) {
	e := NewEnricher(models.CalcOptions{})

	f := models.LineFeature{Body: models.Mars, Kind: models.LineRising}
	e.EnrichFeature(&f, models.BodyPosition{Body: models.Mars, LonSpeed: -0.3})
	if f.Meta.Motion != models.MotionRetrograde {
		t.Errorf("motion = %s, want retrograde", f.Meta.Motion)
	}
	if f.Meta.Style != models.MotionRetrograde.StyleHint() {
		t.Errorf("style = %q, want %q", f.Meta.Style, models.MotionRetrograde.StyleHint())
	}
}

func TestEnrichParanDegradesStyle(t *testing.T) {
	e := NewEnricher(models.CalcOptions{})

	ev := models.ParanEvent{BodyA: models.Sun, BodyB: models.Mercury}
	e.EnrichParan(&ev,
		models.BodyPosition{Body: models.Sun, LonSpeed: 0.98},
		models.BodyPosition{Body: models.Mercury, LonSpeed: -1.2},
	)
	if ev.MotionA != models.MotionDirect || ev.MotionB != models.MotionRetrograde {
		t.Fatalf("motions = %s/%s", ev.MotionA, ev.MotionB)
	}
	if ev.Style != models.MotionRetrograde.StyleHint() {
		t.Errorf("style = %q, want the retrograde hint", ev.Style)
	}
}

func TestEnrichParanStationaryWins(t *testing.T) {
	e := NewEnricher(models.CalcOptions{})

	ev := models.ParanEvent{}
	e.EnrichParan(&ev,
		models.BodyPosition{LonSpeed: 0.002},
		models.BodyPosition{LonSpeed: -0.9},
	)
	if ev.Style != models.MotionStationary.StyleHint() {
		t.Errorf("style = %q, want the stationary hint", ev.Style)
	}
}
