package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"AstroCarto/internal/domain/models"
	drepo "AstroCarto/internal/domain/repository"
	"AstroCarto/pkg/cache"
	"AstroCarto/pkg/logger"
)

const resultKeyPrefix = "result"

// CachedEngine wraps the engine with fingerprint-keyed memoization and
// single-flight de-duplication: concurrent identical requests trigger
// exactly one computation and share its output.
type CachedEngine struct {
	engine    *Engine
	store     cache.Service
	metrics   drepo.Metrics
	log       *logger.Logger
	ttl       time.Duration
	group     singleflight.Group
	archive   drepo.Archive
	publisher drepo.Publisher
}

func NewCachedEngine(engine *Engine, store cache.Service, metrics drepo.Metrics, log *logger.Logger, ttl time.Duration) *CachedEngine {
	return &CachedEngine{
		engine:  engine,
		store:   store,
		metrics: metrics,
		log:     log,
		ttl:     ttl,
	}
}

// WithSinks attaches optional downstream sinks. Every fresh computation
// is handed to them off the request path; sink failures are logged and
// never surface to the caller.
func (c *CachedEngine) WithSinks(archive drepo.Archive, publisher drepo.Publisher) *CachedEngine {
	c.archive = archive
	c.publisher = publisher
	return c
}

// ComputeLines returns the cached result for an equivalent request, or
// computes, caches, and returns a fresh one. Partial results are never
// cached: a retry after the deadline pressure clears should get the
// full output.
func (c *CachedEngine) ComputeLines(ctx context.Context, req models.CalcRequest) (*models.CalculationResult, error) {
	fp := Fingerprint(req)
	key := cache.GenerateKey(resultKeyPrefix, fp)

	if res, ok := c.lookup(ctx, key); ok {
		c.metrics.RecordCacheHit()
		return res, nil
	}
	c.metrics.RecordCacheMiss()

	v, err, shared := c.group.Do(fp, func() (interface{}, error) {
		// A concurrent flight may have finished between our miss and
		// this call.
		if res, ok := c.lookup(ctx, key); ok {
			return res, nil
		}
		res, err := c.engine.ComputeLines(ctx, req)
		if err != nil {
			return nil, err
		}
		res.Fingerprint = fp
		if !res.Partial {
			c.persist(ctx, key, res)
		}
		c.sink(res)
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.log.Debug("computation shared across concurrent requests", logger.String("fingerprint", fp))
	}
	return v.(*models.CalculationResult), nil
}

func (c *CachedEngine) sink(res *models.CalculationResult) {
	if c.archive == nil && c.publisher == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if c.archive != nil {
			if err := c.archive.StoreResult(ctx, res); err != nil {
				c.log.Warn("result archive failed", logger.Error(err))
			}
		}
		if c.publisher != nil {
			if err := c.publisher.PublishResult(ctx, res); err != nil {
				c.log.Warn("result publish failed", logger.Error(err))
			}
		}
	}()
}

func (c *CachedEngine) lookup(ctx context.Context, key string) (*models.CalculationResult, bool) {
	var raw string
	if err := c.store.Get(ctx, key, &raw); err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.log.Warn("result cache read failed", logger.Error(err))
		}
		return nil, false
	}
	var res models.CalculationResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		c.log.Warn("result cache entry corrupt", logger.Error(err))
		return nil, false
	}
	return &res, true
}

func (c *CachedEngine) persist(ctx context.Context, key string, res *models.CalculationResult) {
	b, err := json.Marshal(res)
	if err != nil {
		c.log.Error("result marshal failed", logger.Error(err))
		return
	}
	if err := c.store.Set(ctx, key, string(b), c.ttl); err != nil {
		c.log.Warn("result cache write failed", logger.Error(err))
	}
}

// Fingerprint derives the canonical cache key material of a request:
// sorted bodies, the instant, and every option that changes the output.
// Two requests with equal fingerprints produce identical results.
func Fingerprint(req models.CalcRequest) string {
	bodies := make([]string, 0, len(req.Bodies))
	for _, b := range req.Bodies {
		bodies = append(bodies, string(b))
	}
	sort.Strings(bodies)

	opts := req.Options
	kinds := sortedStrings(opts.Kinds)
	aspects := sortedStrings(opts.Aspects)
	targets := sortedStrings(opts.AspectTargets)

	pairs := make([]string, 0, len(opts.Pairs))
	for _, p := range opts.Pairs {
		pairs = append(pairs, fmt.Sprintf("%s@%s|%s@%s", p.BodyA, p.AngleA, p.BodyB, p.AngleB))
	}
	sort.Strings(pairs)

	var sb strings.Builder
	fmt.Fprintf(&sb, "jd=%.8f;bodies=%s;kinds=%s;aspects=%s;targets=%s;pairs=%s;",
		req.JD,
		strings.Join(bodies, ","),
		strings.Join(kinds, ","),
		strings.Join(aspects, ","),
		strings.Join(targets, ","),
		strings.Join(pairs, ","),
	)
	fmt.Fprintf(&sb, "orb=%.4f;edges=%t;prec=%.4f;step=%.4f;apparent=%t;stationary=%.4f",
		opts.OrbDeg, opts.OrbBandEdges, opts.PrecisionDeg, opts.StepDeg, opts.ApparentHorizon, opts.StationaryThreshold)

	return cache.HashKey(sb.String())
}

func sortedStrings[T ~string](xs []T) []string {
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		out = append(out, string(x))
	}
	sort.Strings(out)
	return out
}
