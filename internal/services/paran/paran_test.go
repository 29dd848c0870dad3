package paran

import (
	"math"
	"testing"

	"AstroCarto/internal/domain/models"
)

func calc() *Calculator {
	return NewCalculator(models.CalcOptions{PrecisionDeg: 0.03})
}

func pos(body models.Body, ra, dec float64) models.BodyPosition {
	return models.BodyPosition{Body: body, RightAscension: ra, Declination: dec}
}

func TestClosedFormCulminationRising(t *testing.T) {
	c := calc()
	a := pos(models.Sun, 90, 23.4)
	b := pos(models.Moon, 120, -10)

	events, _, err := c.Solve(a, b, models.AngleCulminating, models.AngleRising)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.Validity != models.ParanOK {
		t.Fatalf("validity = %s, want ok", ev.Validity)
	}
	// Culmination fixes LST at 90, so the riser needs hour angle -30:
	// cos(-30) = -tan(-10) tan(lat) puts the latitude at +78.49.
	if math.Abs(ev.Latitude-78.49) > 0.01 {
		t.Errorf("latitude = %.4f, want 78.49", ev.Latitude)
	}
	if ev.Method != models.MethodClosedForm || ev.PrecisionDeg != 0 {
		t.Errorf("meta = %s/%g, want closed-form at exact precision", ev.Method, ev.PrecisionDeg)
	}
}

func TestClosedFormHonorsApparentHorizon(t *testing.T) {
	a := pos(models.Sun, 90, 23.4)
	b := pos(models.Moon, 120, -10)

	solve := func(c *Calculator) models.ParanEvent {
		t.Helper()
		events, _, err := c.Solve(a, b, models.AngleCulminating, models.AngleRising)
		if err != nil {
			t.Fatalf("Solve: %v", err)
		}
		if len(events) != 1 || events[0].Validity != models.ParanOK {
			t.Fatalf("events = %+v, want a single ok event", events)
		}
		return events[0]
	}

	geo := solve(calc())
	app := solve(NewCalculator(models.CalcOptions{PrecisionDeg: 0.03, ApparentHorizon: true}))
	if app.Latitude == geo.Latitude {
		t.Fatalf("latitude %.5f unchanged by horizon model", geo.Latitude)
	}
	// Refraction lowers the rising condition, so the paran latitude
	// shifts by well under a degree but clearly past float noise.
	if d := math.Abs(app.Latitude - geo.Latitude); d < 1e-4 || d > 1 {
		t.Errorf("latitude shift %.6f outside expected band", d)
	}
}

func TestClosedFormWrongSignHasNoSolution(t *testing.T) {
	c := calc()
	a := pos(models.Sun, 90, 23.4)
	b := pos(models.Moon, 30, -10)

	events, _, err := c.Solve(a, b, models.AngleCulminating, models.AngleRising)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	// LST 90 puts the second body at hour angle +60: already past the
	// meridian, so it cannot be rising anywhere.
	if len(events) != 1 || events[0].Validity != models.ParanNoSolution {
		t.Fatalf("events = %+v, want a single no-solution event", events)
	}
}

func TestClosedFormSettingAcceptsPositiveHourAngle(t *testing.T) {
	c := calc()
	a := pos(models.Sun, 90, 23.4)
	b := pos(models.Moon, 30, -10)

	events, _, err := c.Solve(a, b, models.AngleCulminating, models.AngleSetting)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if events[0].Validity != models.ParanOK {
		t.Fatalf("validity = %s, want ok", events[0].Validity)
	}
	if math.Abs(events[0].Latitude) >= 90 {
		t.Errorf("latitude out of range: %.4f", events[0].Latitude)
	}
}

func TestClosedFormSwappedOrderPreserved(t *testing.T) {
	c := calc()
	a := pos(models.Moon, 120, -10)
	b := pos(models.Sun, 90, 23.4)

	events, _, err := c.Solve(a, b, models.AngleRising, models.AngleCulminating)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	ev := events[0]
	if ev.BodyA != models.Moon || ev.BodyB != models.Sun {
		t.Fatalf("body order not preserved: %s/%s", ev.BodyA, ev.BodyB)
	}
	if ev.AngleA != models.AngleRising || ev.AngleB != models.AngleCulminating {
		t.Fatalf("angle order not preserved: %s/%s", ev.AngleA, ev.AngleB)
	}
	if math.Abs(ev.Latitude-78.49) > 0.01 {
		t.Errorf("latitude = %.4f, want 78.49", ev.Latitude)
	}
}

func TestClosedFormTangentGeometryFlagged(t *testing.T) {
	c := calc()
	a := pos(models.Sun, 90, 23.4)
	b := pos(models.Moon, 90.5, 30)

	events, _, err := c.Solve(a, b, models.AngleCulminating, models.AngleRising)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	ev := events[0]
	if ev.Validity != models.ParanCircumpolarLimit {
		t.Fatalf("validity = %s, want circumpolar-limit", ev.Validity)
	}
	// Hour angle -0.5 deg: the riser sits a breath from its own meridian,
	// which only works at the latitude where it grazes the horizon.
	if math.Abs(ev.Latitude-(-60)) > 0.1 {
		t.Errorf("latitude = %.4f, want -60", ev.Latitude)
	}
}

func TestMeridianMeridianNotLocalized(t *testing.T) {
	c := calc()
	a := pos(models.Sun, 90, 23.4)
	b := pos(models.Moon, 270, -10)

	events, _, err := c.Solve(a, b, models.AngleCulminating, models.AngleAntiCulminating)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if len(events) != 1 || events[0].Validity != models.ParanNoSolution {
		t.Fatalf("events = %+v, want a single no-solution event", events)
	}
}

func TestNumericalRisingRising(t *testing.T) {
	c := calc()
	a := pos(models.Mars, 50, 20)
	b := pos(models.Venus, 80, -30)

	events, _, err := c.Solve(a, b, models.AngleRising, models.AngleRising)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.Validity != models.ParanOK {
		t.Fatalf("validity = %s, want ok", ev.Validity)
	}
	// The semi-arc difference closes the 30 degree right ascension gap
	// just south of latitude -29.
	if ev.Latitude < -29.5 || ev.Latitude > -28 {
		t.Errorf("latitude = %.4f, want in (-29.5, -28)", ev.Latitude)
	}
	if ev.Method != models.MethodNumerical {
		t.Errorf("method = %s, want numerical", ev.Method)
	}
	if ev.PrecisionDeg != c.precisionDeg {
		t.Errorf("precision = %g, want %g", ev.PrecisionDeg, c.precisionDeg)
	}
}

func TestNumericalResidualAtRoot(t *testing.T) {
	c := calc()
	a := pos(models.Mars, 50, 20)
	b := pos(models.Venus, 80, -30)

	events, _, err := c.Solve(a, b, models.AngleRising, models.AngleRising)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	lat := events[0].Latitude
	la, okA := c.angularLST(a, models.AngleRising, lat)
	lb, okB := c.angularLST(b, models.AngleRising, lat)
	if !okA || !okB {
		t.Fatal("root landed in a circumpolar region")
	}
	if r := math.Abs(wrap180(la - lb)); r > 1.0 {
		t.Errorf("sidereal residual at root = %.4f", r)
	}
}

func TestNumericalConstantOffsetNoSolution(t *testing.T) {
	c := calc()
	// Equal declinations make both semi-arcs identical at every latitude,
	// leaving a constant nonzero sidereal gap.
	a := pos(models.Mars, 50, 20)
	b := pos(models.Venus, 80, 20)

	events, _, err := c.Solve(a, b, models.AngleRising, models.AngleRising)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if len(events) != 1 || events[0].Validity != models.ParanNoSolution {
		t.Fatalf("events = %+v, want a single no-solution event", events)
	}
}

func TestNumericalDeterministic(t *testing.T) {
	c := calc()
	a := pos(models.Mars, 50, 20)
	b := pos(models.Venus, 80, -30)

	first, _, err := c.Solve(a, b, models.AngleRising, models.AngleSetting)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, _, err := c.Solve(a, b, models.AngleRising, models.AngleSetting)
		if err != nil {
			t.Fatalf("Solve #%d: %v", i, err)
		}
		if len(again) != len(first) {
			t.Fatalf("event count changed between runs")
		}
		for j := range again {
			if again[j].Latitude != first[j].Latitude {
				t.Fatalf("latitude drifted between runs: %v vs %v", again[j].Latitude, first[j].Latitude)
			}
		}
	}
}

func wrap180(d float64) float64 {
	d = math.Mod(d+180, 360)
	if d < 0 {
		d += 360
	}
	return d - 180
}
