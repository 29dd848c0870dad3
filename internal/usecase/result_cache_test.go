package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"AstroCarto/internal/domain/models"
	"AstroCarto/pkg/cache"
)

func testCachedEngine(t *testing.T, metrics *fakeMetrics) *CachedEngine {
	t.Helper()
	return NewCachedEngine(testEngine(t, metrics), cache.NewMemoryCache(), metrics, testLogger(t), time.Minute)
}

func TestCachedEngineConcurrentIdenticalRequests(t *testing.T) {
	metrics := newFakeMetrics()
	ce := testCachedEngine(t, metrics)
	req := baseRequest()

	const n = 16
	var wg sync.WaitGroup
	results := make([]*models.CalculationResult, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = ce.ComputeLines(context.Background(), req)
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("request %d: %v", i, errs[i])
		}
		if results[i].Fingerprint != results[0].Fingerprint {
			t.Fatalf("fingerprints differ across identical requests")
		}
		if len(results[i].Features) != len(results[0].Features) {
			t.Fatalf("feature counts differ across identical requests")
		}
	}
	// Single-flight plus the cache guarantee: far fewer computations
	// than requests, and a warm cache afterwards.
	metrics.mu.Lock()
	computed := metrics.computations["ok"]
	metrics.mu.Unlock()
	if computed < 1 || computed >= n {
		t.Fatalf("computed %d times for %d identical requests", computed, n)
	}

	if _, err := ce.ComputeLines(context.Background(), req); err != nil {
		t.Fatalf("warm request: %v", err)
	}
	metrics.mu.Lock()
	hits := metrics.hits
	metrics.mu.Unlock()
	if hits == 0 {
		t.Fatal("warm request did not hit the cache")
	}
}

func TestCachedEngineSecondCallIsHit(t *testing.T) {
	metrics := newFakeMetrics()
	ce := testCachedEngine(t, metrics)
	req := baseRequest()

	first, err := ce.ComputeLines(context.Background(), req)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := ce.ComputeLines(context.Background(), req)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if metrics.computations["ok"] != 1 {
		t.Fatalf("engine ran %d times, want 1", metrics.computations["ok"])
	}
	if first.Fingerprint != second.Fingerprint {
		t.Errorf("fingerprints differ: %s vs %s", first.Fingerprint, second.Fingerprint)
	}
	if second.DurationMS != first.DurationMS || !second.ComputedAt.Equal(first.ComputedAt) {
		t.Errorf("cached result is not the original computation")
	}
}

func TestFingerprintIgnoresInputOrder(t *testing.T) {
	a := baseRequest()
	a.Bodies = []models.Body{models.Sun, models.Moon}
	a.Options.Kinds = []models.LineKind{models.LineRising, models.LineSetting}

	b := baseRequest()
	b.Bodies = []models.Body{models.Moon, models.Sun}
	b.Options.Kinds = []models.LineKind{models.LineSetting, models.LineRising}

	if Fingerprint(a) != Fingerprint(b) {
		t.Error("fingerprint depends on input ordering")
	}
}

func TestFingerprintSensitivity(t *testing.T) {
	base := baseRequest()

	changed := baseRequest()
	changed.JD = base.JD + 1.0/86400 // one second later
	if Fingerprint(base) == Fingerprint(changed) {
		t.Error("fingerprint insensitive to the instant")
	}

	changed = baseRequest()
	changed.Options.PrecisionDeg = 0.01
	if Fingerprint(base) == Fingerprint(changed) {
		t.Error("fingerprint insensitive to precision")
	}

	changed = baseRequest()
	changed.Options.ApparentHorizon = true
	if Fingerprint(base) == Fingerprint(changed) {
		t.Error("fingerprint insensitive to the horizon model")
	}
}
