package ephemeris

import (
	"context"
	"fmt"
	"sync"

	"AstroCarto/internal/domain/models"
	"AstroCarto/internal/domain/service"
)

// MemoProvider wraps a PositionProvider and guarantees the underlying
// provider is queried at most once per (body, instant), even under
// concurrent access from parallel line jobs. One MemoProvider is created
// per request and discarded with it; nothing leaks across requests.
type MemoProvider struct {
	inner service.PositionProvider

	mu      sync.Mutex
	entries map[memoKey]*memoEntry
}

type memoKey struct {
	body models.Body
	jd   float64
}

type memoEntry struct {
	once sync.Once
	pos  models.BodyPosition
	err  error
}

// NewMemoProvider wraps inner with per-request memoization.
func NewMemoProvider(inner service.PositionProvider) *MemoProvider {
	return &MemoProvider{
		inner:   inner,
		entries: make(map[memoKey]*memoEntry),
	}
}

// GetPosition implements service.PositionProvider. Concurrent callers for
// the same key share one underlying call and receive identical results.
func (m *MemoProvider) GetPosition(ctx context.Context, body models.Body, jd float64) (models.BodyPosition, error) {
	key := memoKey{body: body, jd: jd}

	m.mu.Lock()
	e, ok := m.entries[key]
	if !ok {
		e = &memoEntry{}
		m.entries[key] = e
	}
	m.mu.Unlock()

	e.once.Do(func() {
		e.pos, e.err = m.inner.GetPosition(ctx, body, jd)
		if e.err == nil && invalid(e.pos) {
			e.err = fmt.Errorf("ephemeris: provider returned non-finite position for %s", body)
		}
	})
	return e.pos, e.err
}

// Calls reports how many distinct (body, instant) lookups were resolved.
func (m *MemoProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Validate eagerly resolves positions for every body in the context,
// surfacing collaborator failures before parallel work begins. Failed
// bodies are returned so the engine can warn and exclude them.
func (m *MemoProvider) Validate(ctx context.Context, chart models.ChartContext) map[models.Body]error {
	failed := make(map[models.Body]error)
	for _, b := range chart.Bodies {
		if _, err := m.GetPosition(ctx, b, chart.JD); err != nil {
			failed[b] = err
		}
	}
	return failed
}
