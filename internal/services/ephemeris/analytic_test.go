package ephemeris

import (
	"context"
	"math"
	"sync"
	"testing"

	"AstroCarto/internal/domain/models"
)

// J2000.0 noon.
const jdJ2000 = 2451545.0

func TestSunPositionJ2000(t *testing.T) {
	p := NewAnalyticProvider()
	pos, err := p.GetPosition(context.Background(), models.Sun, jdJ2000)
	if err != nil {
		t.Fatalf("GetPosition: %v", err)
	}
	// The Sun's apparent ecliptic longitude at J2000.0 is ~280.46 deg.
	if math.Abs(pos.EclipticLon-280.46) > 0.5 {
		t.Errorf("sun longitude = %v, want ~280.46", pos.EclipticLon)
	}
	// Early January: Sun near perihelion, distance ~0.983 AU.
	if math.Abs(pos.DistanceAU-0.983) > 0.01 {
		t.Errorf("sun distance = %v, want ~0.983", pos.DistanceAU)
	}
	// Sun stays on the ecliptic.
	if math.Abs(pos.EclipticLat) > 0.01 {
		t.Errorf("sun latitude = %v, want ~0", pos.EclipticLat)
	}
	// Northern winter: declination strongly south.
	if pos.Declination > -20 || pos.Declination < -24 {
		t.Errorf("sun declination = %v, want around -23", pos.Declination)
	}
	// The Sun never retrogrades; ~0.95-1.02 deg/day.
	if pos.LonSpeed < 0.9 || pos.LonSpeed > 1.1 {
		t.Errorf("sun speed = %v, want ~1.02", pos.LonSpeed)
	}
}

func TestMoonPositionSanity(t *testing.T) {
	p := NewAnalyticProvider()
	pos, err := p.GetPosition(context.Background(), models.Moon, jdJ2000)
	if err != nil {
		t.Fatalf("GetPosition: %v", err)
	}
	if pos.DistanceAU < 0.0023 || pos.DistanceAU > 0.0028 {
		t.Errorf("moon distance = %v AU, outside lunar range", pos.DistanceAU)
	}
	if math.Abs(pos.EclipticLat) > 5.3 {
		t.Errorf("moon latitude = %v, beyond orbital inclination", pos.EclipticLat)
	}
	if pos.LonSpeed < 11 || pos.LonSpeed > 16 {
		t.Errorf("moon speed = %v deg/day, want ~13", pos.LonSpeed)
	}
}

func TestPlanetDistances(t *testing.T) {
	p := NewAnalyticProvider()
	ranges := map[models.Body][2]float64{
		models.Mercury: {0.3, 1.5},
		models.Venus:   {0.2, 1.8},
		models.Mars:    {0.3, 2.7},
		models.Jupiter: {3.9, 6.5},
		models.Saturn:  {8.0, 11.1},
		models.Uranus:  {17.2, 21.2},
		models.Neptune: {28.8, 31.3},
		models.Pluto:   {28.6, 50.5},
	}
	for body, r := range ranges {
		pos, err := p.GetPosition(context.Background(), body, jdJ2000)
		if err != nil {
			t.Fatalf("%s: %v", body, err)
		}
		if pos.DistanceAU < r[0] || pos.DistanceAU > r[1] {
			t.Errorf("%s distance = %v, want within [%v, %v]", body, pos.DistanceAU, r[0], r[1])
		}
	}
}

func TestAllPositionsFinite(t *testing.T) {
	p := NewAnalyticProvider()
	for _, body := range models.AllBodies {
		for _, jd := range []float64{2440587.5, jdJ2000, 2469807.5} {
			pos, err := p.GetPosition(context.Background(), body, jd)
			if err != nil {
				t.Fatalf("%s jd=%v: %v", body, jd, err)
			}
			if invalid(pos) {
				t.Fatalf("%s jd=%v: non-finite position %+v", body, jd, pos)
			}
			if pos.RightAscension < 0 || pos.RightAscension >= 360 {
				t.Errorf("%s: RA out of range: %v", body, pos.RightAscension)
			}
			if pos.Declination < -90 || pos.Declination > 90 {
				t.Errorf("%s: declination out of range: %v", body, pos.Declination)
			}
		}
	}
}

func TestUnknownBodyRejected(t *testing.T) {
	p := NewAnalyticProvider()
	if _, err := p.GetPosition(context.Background(), models.Body("vulcan"), jdJ2000); err == nil {
		t.Fatal("expected error for unknown body")
	}
}

func TestOutOfRangeInstantRejected(t *testing.T) {
	p := NewAnalyticProvider()
	if _, err := p.GetPosition(context.Background(), models.Sun, 1000000.0); err == nil {
		t.Fatal("expected error for out-of-range instant")
	}
}

// countingProvider counts underlying lookups for memoization tests.
type countingProvider struct {
	mu    sync.Mutex
	calls int
	inner *AnalyticProvider
}

func (c *countingProvider) GetPosition(ctx context.Context, body models.Body, jd float64) (models.BodyPosition, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.inner.GetPosition(ctx, body, jd)
}

func TestMemoProviderSingleCall(t *testing.T) {
	counting := &countingProvider{inner: NewAnalyticProvider()}
	memo := NewMemoProvider(counting)

	var wg sync.WaitGroup
	results := make([]models.BodyPosition, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			pos, err := memo.GetPosition(context.Background(), models.Mars, jdJ2000)
			if err != nil {
				t.Errorf("GetPosition: %v", err)
				return
			}
			results[idx] = pos
		}(i)
	}
	wg.Wait()

	if counting.calls != 1 {
		t.Fatalf("underlying provider called %d times, want 1", counting.calls)
	}
	for i := 1; i < len(results); i++ {
		if results[i] != results[0] {
			t.Fatalf("result %d differs from result 0", i)
		}
	}
}

func TestMemoProviderDistinctKeys(t *testing.T) {
	counting := &countingProvider{inner: NewAnalyticProvider()}
	memo := NewMemoProvider(counting)

	ctx := context.Background()
	_, _ = memo.GetPosition(ctx, models.Mars, jdJ2000)
	_, _ = memo.GetPosition(ctx, models.Venus, jdJ2000)
	_, _ = memo.GetPosition(ctx, models.Mars, jdJ2000+1)

	if counting.calls != 3 {
		t.Fatalf("underlying calls = %d, want 3", counting.calls)
	}
	if memo.Calls() != 3 {
		t.Fatalf("memo entries = %d, want 3", memo.Calls())
	}
}

func TestValidateReportsFailures(t *testing.T) {
	memo := NewMemoProvider(NewAnalyticProvider())
	failed := memo.Validate(context.Background(), models.ChartContext{
		JD:     jdJ2000,
		Bodies: []models.Body{models.Sun, models.Moon},
	})
	if len(failed) != 0 {
		t.Fatalf("unexpected failures: %v", failed)
	}
}
