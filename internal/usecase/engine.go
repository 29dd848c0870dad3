package usecase

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"AstroCarto/internal/domain/models"
	drepo "AstroCarto/internal/domain/repository"
	domsvc "AstroCarto/internal/domain/service"
	"AstroCarto/internal/services/astro"
	"AstroCarto/internal/services/ephemeris"
	"AstroCarto/internal/services/geometry"
	"AstroCarto/internal/services/lines"
	"AstroCarto/internal/services/motion"
	"AstroCarto/internal/services/paran"
	"AstroCarto/pkg/logger"
)

// Engine orchestrates one complete computation: position lookup, line
// and paran solving across a worker pool, motion enrichment, and final
// assembly. Per-feature failures become warnings; only a fully failed
// position lookup aborts the request.
type Engine struct {
	provider  domsvc.PositionProvider
	metrics   drepo.Metrics
	log       *logger.Logger
	assembler *geometry.Assembler
	workers   int
	deadline  time.Duration
}

func NewEngine(provider domsvc.PositionProvider, metrics drepo.Metrics, log *logger.Logger, workers int, deadline time.Duration) *Engine {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Engine{
		provider:  provider,
		metrics:   metrics,
		log:       log,
		assembler: geometry.NewAssembler(),
		workers:   workers,
		deadline:  deadline,
	}
}

// job is one independent unit of solving work.
type job func() jobResult

type jobResult struct {
	op       string
	features []models.LineFeature
	parans   []models.ParanEvent
	warnings []models.Warning
	iters    int
}

// ComputeLines runs the full pipeline for a validated request.
func (e *Engine) ComputeLines(ctx context.Context, req models.CalcRequest) (*models.CalculationResult, error) {
	start := time.Now()
	if e.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.deadline)
		defer cancel()
	}

	memo := ephemeris.NewMemoProvider(e.provider)
	positions, warnings := e.resolvePositions(ctx, memo, req)
	if len(positions) == 0 {
		e.metrics.RecordComputation("error", time.Since(start).Seconds())
		return nil, fmt.Errorf("compute lines: no body position could be resolved")
	}

	jobs := e.buildJobs(req, positions)
	features, parans, jobWarnings, partial := e.runJobs(ctx, jobs)
	warnings = append(warnings, jobWarnings...)
	if partial {
		warnings = append(warnings, models.Warning{
			Kind:   models.WarnDeadline,
			Detail: "deadline expired before all features were computed",
		})
	}

	enricher := motion.NewEnricher(req.Options)
	for i := range features {
		if pos, ok := positions[features[i].Body]; ok {
			enricher.EnrichFeature(&features[i], pos)
		}
	}
	for i := range parans {
		pa, okA := positions[parans[i].BodyA]
		pb, okB := positions[parans[i].BodyB]
		if okA && okB {
			enricher.EnrichParan(&parans[i], pa, pb)
		}
	}

	features = e.assembler.Assemble(features)
	parans = e.assembler.SortParans(parans)

	res := &models.CalculationResult{
		JD:         req.JD,
		Features:   features,
		Parans:     parans,
		Warnings:   warnings,
		Partial:    partial,
		ComputedAt: time.Now().UTC(),
		DurationMS: time.Since(start).Milliseconds(),
	}

	outcome := "ok"
	if partial {
		outcome = "partial"
	}
	e.metrics.RecordComputation(outcome, time.Since(start).Seconds())
	for _, w := range warnings {
		e.metrics.RecordWarning(string(w.Kind))
	}
	e.recordFeatureCounts(features, parans)

	e.log.Info("computation finished",
		logger.Any("jd", req.JD),
		logger.Int("bodies", len(positions)),
		logger.Int("features", len(features)),
		logger.Int("parans", len(parans)),
		logger.Int("warnings", len(warnings)),
		logger.Bool("partial", partial),
		logger.Duration("took", time.Since(start)),
	)
	return res, nil
}

// resolvePositions fetches every body's position once via the memoizing
// provider. Bodies whose lookup fails are dropped with a collaborator
// warning instead of failing the batch.
func (e *Engine) resolvePositions(ctx context.Context, memo *ephemeris.MemoProvider, req models.CalcRequest) (map[models.Body]models.BodyPosition, []models.Warning) {
	var warnings []models.Warning
	failures := memo.Validate(ctx, models.ChartContext{JD: req.JD, Bodies: req.Bodies})
	for body, err := range failures {
		e.log.Warn("position lookup failed",
			logger.String("body", string(body)),
			logger.Error(err),
		)
		warnings = append(warnings, models.Warning{
			Kind:   models.WarnCollaborator,
			Body:   body,
			Detail: err.Error(),
		})
	}

	positions := make(map[models.Body]models.BodyPosition, len(req.Bodies))
	for _, body := range req.Bodies {
		if _, failed := failures[body]; failed {
			continue
		}
		pos, err := memo.GetPosition(ctx, body, req.JD)
		if err != nil {
			continue
		}
		positions[body] = pos
	}
	return positions, warnings
}

// buildJobs expands the request into independent solve jobs: one per
// body and primary kind, one per body/aspect/target combination, one
// per paran pair.
func (e *Engine) buildJobs(req models.CalcRequest, positions map[models.Body]models.BodyPosition) []job {
	opts := req.Options
	primaryCalc := lines.NewPrimaryCalculator(opts)
	aspectCalc := lines.NewAspectCalculator(opts)
	paranCalc := paran.NewCalculator(opts)

	var jobs []job
	for _, body := range req.Bodies {
		pos, ok := positions[body]
		if !ok {
			continue
		}
		for _, kind := range models.PrimaryLineKinds {
			if !wantsKind(opts.Kinds, kind) {
				continue
			}
			jobs = append(jobs, e.primaryJob(primaryCalc, pos, kind, req.JD))
		}
		if wantsKind(opts.Kinds, models.LineAspect) {
			targets := opts.AspectTargets
			if len(targets) == 0 {
				targets = []models.AngleKind{models.AngleRising, models.AngleSetting, models.AngleCulminating, models.AngleAntiCulminating}
			}
			for _, aspect := range opts.Aspects {
				for _, target := range targets {
					jobs = append(jobs, e.aspectJob(aspectCalc, pos, aspect, target, req.JD, opts.OrbBandEdges))
				}
			}
		}
	}
	if wantsKind(opts.Kinds, models.LineParan) {
		for _, pair := range opts.Pairs {
			pa, okA := positions[pair.BodyA]
			pb, okB := positions[pair.BodyB]
			if !okA || !okB {
				continue
			}
			jobs = append(jobs, e.paranJob(paranCalc, pa, pb, pair))
		}
	}
	return jobs
}

func (e *Engine) primaryJob(calc *lines.PrimaryCalculator, pos models.BodyPosition, kind models.LineKind, jd float64) job {
	return func() jobResult {
		f, err := calc.Line(pos, kind, jd)
		if err != nil {
			return jobResult{op: "primary", warnings: []models.Warning{{
				Kind:     models.WarnNoSolution,
				Body:     pos.Body,
				LineKind: kind,
				Detail:   err.Error(),
			}}}
		}
		f.Angle = models.AngleKind(kind)
		return jobResult{op: "primary", features: []models.LineFeature{f}}
	}
}

func (e *Engine) aspectJob(calc *lines.AspectCalculator, pos models.BodyPosition, aspect models.AspectKind, target models.AngleKind, jd float64, bandEdges bool) job {
	return func() jobResult {
		res := jobResult{op: "aspect"}
		f, iters, err := calc.Line(pos, aspect, target, jd)
		res.iters += iters
		switch {
		case errors.Is(err, lines.ErrNoSolution):
			res.warnings = append(res.warnings, models.Warning{
				Kind:     models.WarnNoSolution,
				Body:     pos.Body,
				LineKind: models.LineAspect,
				Detail:   fmt.Sprintf("%s to %s: %v", aspect, target, err),
			})
			return res
		case errors.Is(err, astro.ErrMaxIterations):
			res.warnings = append(res.warnings, models.Warning{
				Kind:     models.WarnConvergence,
				Body:     pos.Body,
				LineKind: models.LineAspect,
				Detail:   fmt.Sprintf("%s to %s: %v", aspect, target, err),
			})
			return res
		case err != nil:
			res.warnings = append(res.warnings, models.Warning{
				Kind:     models.WarnNoSolution,
				Body:     pos.Body,
				LineKind: models.LineAspect,
				Detail:   err.Error(),
			})
			return res
		}
		res.features = append(res.features, f)

		if bandEdges {
			edges, n, err := calc.EdgeLines(pos, aspect, target, jd, f.Aspect.OrbDeg)
			res.iters += n
			if err != nil {
				res.warnings = append(res.warnings, models.Warning{
					Kind:     models.WarnConvergence,
					Body:     pos.Body,
					LineKind: models.LineAspect,
					Detail:   fmt.Sprintf("orb band for %s to %s: %v", aspect, target, err),
				})
				return res
			}
			res.features = append(res.features, edges...)
		}
		return res
	}
}

func (e *Engine) paranJob(calc *paran.Calculator, pa, pb models.BodyPosition, pair models.ParanPair) job {
	return func() jobResult {
		res := jobResult{op: "paran"}
		events, iters, err := calc.Solve(pa, pb, pair.AngleA, pair.AngleB)
		res.iters = iters
		if err != nil {
			res.warnings = append(res.warnings, models.Warning{
				Kind:      models.WarnConvergence,
				Body:      pair.BodyA,
				OtherBody: pair.BodyB,
				Detail:    err.Error(),
			})
			return res
		}
		for _, ev := range events {
			switch ev.Validity {
			case models.ParanNoSolution:
				res.warnings = append(res.warnings, models.Warning{
					Kind:      models.WarnNoSolution,
					Body:      pair.BodyA,
					OtherBody: pair.BodyB,
					LineKind:  models.LineParan,
					Detail:    fmt.Sprintf("%s/%s paran has no latitude", pair.AngleA, pair.AngleB),
				})
			case models.ParanCircumpolarLimit:
				res.warnings = append(res.warnings, models.Warning{
					Kind:      models.WarnCircumpolar,
					Body:      pair.BodyA,
					OtherBody: pair.BodyB,
					LineKind:  models.LineParan,
					Detail:    fmt.Sprintf("paran latitude %.3f sits at the circumpolar limit", ev.Latitude),
				})
			}
		}
		res.parans = events
		return res
	}
}

// runJobs fans the jobs out over the worker pool and aggregates their
// results. A canceled context stops feeding and marks the run partial;
// already-running jobs finish and are kept.
func (e *Engine) runJobs(ctx context.Context, jobs []job) ([]models.LineFeature, []models.ParanEvent, []models.Warning, bool) {
	jobsCh := make(chan job)
	resCh := make(chan jobResult)

	var wg sync.WaitGroup
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobsCh {
				select {
				case <-ctx.Done():
					continue
				default:
				}
				resCh <- j()
			}
		}()
	}
	go func() {
		defer close(jobsCh)
		for _, j := range jobs {
			select {
			case jobsCh <- j:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(resCh)
	}()

	var (
		features []models.LineFeature
		parans   []models.ParanEvent
		warnings []models.Warning
		done     int
	)
	iterTotals := map[string]int{}
	for r := range resCh {
		features = append(features, r.features...)
		parans = append(parans, r.parans...)
		warnings = append(warnings, r.warnings...)
		iterTotals[r.op] += r.iters
		done++
	}
	for op, n := range iterTotals {
		if n > 0 {
			e.metrics.RecordSolverIterations(op, n)
		}
	}
	return features, parans, warnings, done < len(jobs)
}

func (e *Engine) recordFeatureCounts(features []models.LineFeature, parans []models.ParanEvent) {
	counts := map[string]int{}
	for _, f := range features {
		counts[string(f.Kind)]++
	}
	counts[string(models.LineParan)] = len(parans)
	for kind, n := range counts {
		e.metrics.RecordFeatures(kind, n)
	}
}

func wantsKind(kinds []models.LineKind, kind models.LineKind) bool {
	if len(kinds) == 0 {
		return kind != models.LineAspect && kind != models.LineParan
	}
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}
