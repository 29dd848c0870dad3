package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"AstroCarto/internal/domain/models"
	"AstroCarto/internal/services/ephemeris"
	"AstroCarto/pkg/logger"
)

type fakeMetrics struct {
	mu           sync.Mutex
	computations map[string]int
	features     map[string]int
	warnings     map[string]int
	iterations   map[string]int
	hits, misses int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{
		computations: map[string]int{},
		features:     map[string]int{},
		warnings:     map[string]int{},
		iterations:   map[string]int{},
	}
}

func (m *fakeMetrics) RecordComputation(outcome string, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.computations[outcome]++
}

func (m *fakeMetrics) RecordFeatures(kind string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.features[kind] += n
}

func (m *fakeMetrics) RecordWarning(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warnings[kind]++
}

func (m *fakeMetrics) RecordSolverIterations(op string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.iterations[op] += n
}

func (m *fakeMetrics) RecordCacheHit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hits++
}

func (m *fakeMetrics) RecordCacheMiss() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.misses++
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func testEngine(t *testing.T, metrics *fakeMetrics) *Engine {
	t.Helper()
	return NewEngine(ephemeris.NewAnalyticProvider(), metrics, testLogger(t), 4, 0)
}

func baseRequest() models.CalcRequest {
	return models.CalcRequest{
		Bodies: []models.Body{models.Sun, models.Moon},
		JD:     2451545.0,
		Options: models.CalcOptions{
			Kinds: models.PrimaryLineKinds,
		},
	}
}

func TestComputeLinesPrimary(t *testing.T) {
	metrics := newFakeMetrics()
	e := testEngine(t, metrics)

	res, err := e.ComputeLines(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("ComputeLines: %v", err)
	}
	// Two bodies, four primary kinds each.
	if len(res.Features) != 8 {
		t.Fatalf("got %d features, want 8", len(res.Features))
	}
	if res.Partial {
		t.Error("complete run marked partial")
	}
	for _, f := range res.Features {
		if f.PointCount() < 2 {
			t.Errorf("%s/%s has %d points", f.Body, f.Kind, f.PointCount())
		}
		if f.Meta.Motion == "" || f.Meta.Style == "" {
			t.Errorf("%s/%s missing motion enrichment", f.Body, f.Kind)
		}
	}
	if metrics.computations["ok"] != 1 {
		t.Errorf("computation metric = %v", metrics.computations)
	}
	if metrics.features["rising"] != 2 {
		t.Errorf("feature metric = %v", metrics.features)
	}
}

func TestComputeLinesCanonicalOrder(t *testing.T) {
	e := testEngine(t, newFakeMetrics())

	res, err := e.ComputeLines(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("ComputeLines: %v", err)
	}
	for i := 1; i < len(res.Features); i++ {
		a, b := res.Features[i-1], res.Features[i]
		if a.Body > b.Body || (a.Body == b.Body && a.Kind > b.Kind) {
			t.Fatalf("features out of canonical order at %d: %s/%s after %s/%s", i, b.Body, b.Kind, a.Body, a.Kind)
		}
	}
}

func TestComputeLinesAspects(t *testing.T) {
	e := testEngine(t, newFakeMetrics())

	req := baseRequest()
	req.Bodies = []models.Body{models.Sun}
	req.Options.Kinds = []models.LineKind{models.LineAspect}
	req.Options.Aspects = []models.AspectKind{models.AspectSquare}
	req.Options.AspectTargets = []models.AngleKind{models.AngleCulminating}

	res, err := e.ComputeLines(context.Background(), req)
	if err != nil {
		t.Fatalf("ComputeLines: %v", err)
	}
	if len(res.Features) != 1 {
		t.Fatalf("got %d features, want 1", len(res.Features))
	}
	f := res.Features[0]
	if f.Kind != models.LineAspect || f.Aspect == nil || f.Aspect.Kind != models.AspectSquare {
		t.Fatalf("unexpected feature: %+v", f)
	}
}

func TestComputeLinesParans(t *testing.T) {
	e := testEngine(t, newFakeMetrics())

	req := baseRequest()
	req.Options.Kinds = []models.LineKind{models.LineParan}
	req.Options.Pairs = []models.ParanPair{{
		BodyA:  models.Sun,
		BodyB:  models.Moon,
		AngleA: models.AngleCulminating,
		AngleB: models.AngleRising,
	}}

	res, err := e.ComputeLines(context.Background(), req)
	if err != nil {
		t.Fatalf("ComputeLines: %v", err)
	}
	if len(res.Features) != 0 {
		t.Fatalf("paran-only request produced %d line features", len(res.Features))
	}
	if len(res.Parans) != 1 {
		t.Fatalf("got %d paran events, want 1", len(res.Parans))
	}
	ev := res.Parans[0]
	if ev.BodyA != models.Sun || ev.BodyB != models.Moon {
		t.Errorf("event pair = %s/%s", ev.BodyA, ev.BodyB)
	}
	if ev.Validity == models.ParanOK && (ev.Latitude < -90 || ev.Latitude > 90) {
		t.Errorf("latitude out of range: %f", ev.Latitude)
	}
}

func TestComputeLinesDeterministic(t *testing.T) {
	req := baseRequest()
	req.Options.Kinds = append([]models.LineKind{}, models.PrimaryLineKinds...)
	req.Options.Kinds = append(req.Options.Kinds, models.LineParan)
	req.Options.Pairs = []models.ParanPair{{
		BodyA: models.Sun, BodyB: models.Moon,
		AngleA: models.AngleRising, AngleB: models.AngleSetting,
	}}

	first, err := testEngine(t, newFakeMetrics()).ComputeLines(context.Background(), req)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := testEngine(t, newFakeMetrics()).ComputeLines(context.Background(), req)
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if len(again.Features) != len(first.Features) || len(again.Parans) != len(first.Parans) {
			t.Fatalf("result shape drifted between runs")
		}
		for j := range again.Features {
			if again.Features[j].Body != first.Features[j].Body || again.Features[j].Kind != first.Features[j].Kind {
				t.Fatalf("feature order drifted at %d", j)
			}
			if again.Features[j].PointCount() != first.Features[j].PointCount() {
				t.Fatalf("point count drifted for %s/%s", again.Features[j].Body, again.Features[j].Kind)
			}
		}
		for j := range again.Parans {
			if again.Parans[j].Latitude != first.Parans[j].Latitude {
				t.Fatalf("paran latitude drifted at %d", j)
			}
		}
	}
}

type failingProvider struct{}

func (failingProvider) GetPosition(context.Context, models.Body, float64) (models.BodyPosition, error) {
	return models.BodyPosition{}, errors.New("upstream unavailable")
}

func TestComputeLinesAllPositionsFailed(t *testing.T) {
	metrics := newFakeMetrics()
	e := NewEngine(failingProvider{}, metrics, testLogger(t), 2, 0)

	if _, err := e.ComputeLines(context.Background(), baseRequest()); err == nil {
		t.Fatal("expected an error when no position resolves")
	}
	if metrics.computations["error"] != 1 {
		t.Errorf("computation metric = %v", metrics.computations)
	}
}

type flakyProvider struct {
	fail models.Body
}

func (p flakyProvider) GetPosition(ctx context.Context, body models.Body, jd float64) (models.BodyPosition, error) {
	if body == p.fail {
		return models.BodyPosition{}, errors.New("upstream unavailable")
	}
	return ephemeris.NewAnalyticProvider().GetPosition(ctx, body, jd)
}

func TestComputeLinesPartialCollaboratorFailure(t *testing.T) {
	e := NewEngine(flakyProvider{fail: models.Moon}, newFakeMetrics(), testLogger(t), 2, 0)

	res, err := e.ComputeLines(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("ComputeLines: %v", err)
	}
	// The sun's four lines survive; the moon contributes a warning.
	if len(res.Features) != 4 {
		t.Fatalf("got %d features, want 4", len(res.Features))
	}
	found := false
	for _, w := range res.Warnings {
		if w.Kind == models.WarnCollaborator && w.Body == models.Moon {
			found = true
		}
	}
	if !found {
		t.Fatalf("no collaborator warning for the failed body: %+v", res.Warnings)
	}
}

func TestComputeLinesDeadline(t *testing.T) {
	// A one-nanosecond budget expires before any job is fed.
	e := NewEngine(ephemeris.NewAnalyticProvider(), newFakeMetrics(), testLogger(t), 2, time.Nanosecond)

	req := baseRequest()
	res, err := e.ComputeLines(context.Background(), req)
	if err != nil {
		// Position resolution itself may fail under an expired context;
		// that is also an acceptable outcome for this budget.
		return
	}
	if !res.Partial {
		t.Fatal("expired deadline did not mark the result partial")
	}
	found := false
	for _, w := range res.Warnings {
		if w.Kind == models.WarnDeadline {
			found = true
		}
	}
	if !found {
		t.Fatalf("no deadline warning: %+v", res.Warnings)
	}
}
