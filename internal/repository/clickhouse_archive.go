package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"AstroCarto/internal/domain/models"
	domrepo "AstroCarto/internal/domain/repository"
	pkgch "AstroCarto/pkg/clickhouse"
	applogger "AstroCarto/pkg/logger"
)

// CHArchive implements Archive backed by ClickHouse. One row per
// completed computation plus one row per solved paran event, for
// offline popularity and precision analytics.
type CHArchive struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHArchive(ch *pkgch.Client) *CHArchive {
	return &CHArchive{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (a *CHArchive) SetLogger(l *applogger.Logger) { a.l = l }

var archiveSchema = []string{
	`CREATE DATABASE IF NOT EXISTS astrocarto`,
	`CREATE TABLE IF NOT EXISTS astrocarto.runs (
        fingerprint String,
        jd          Float64,
        bodies      String,
        features    UInt32,
        parans      UInt32,
        warnings    UInt32,
        partial     UInt8,
        duration_ms Int64,
        computed_at DateTime64(3)
    ) ENGINE = MergeTree
    ORDER BY (computed_at, fingerprint)`,
	`CREATE TABLE IF NOT EXISTS astrocarto.paran_events (
        fingerprint String,
        body_a      String,
        body_b      String,
        angle_a     String,
        angle_b     String,
        latitude    Float64,
        validity    String,
        method      String,
        computed_at DateTime64(3)
    ) ENGINE = MergeTree
    ORDER BY (computed_at, fingerprint)`,
}

func (a *CHArchive) Init(ctx context.Context) error {
	for _, stmt := range archiveSchema {
		if _, err := a.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("archive schema: %w", err)
		}
	}
	return nil
}

func (a *CHArchive) StoreResult(ctx context.Context, res *models.CalculationResult) error {
	start := time.Now()

	bodies := bodySet(res)
	const runQ = `INSERT INTO astrocarto.runs
        (fingerprint, jd, bodies, features, parans, warnings, partial, duration_ms, computed_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	partial := uint8(0)
	if res.Partial {
		partial = 1
	}
	if _, err := a.db.ExecContext(ctx, runQ,
		res.Fingerprint,
		res.JD,
		strings.Join(bodies, ","),
		uint32(len(res.Features)),
		uint32(len(res.Parans)),
		uint32(len(res.Warnings)),
		partial,
		res.DurationMS,
		res.ComputedAt,
	); err != nil {
		if a.l != nil {
			a.l.Error("clickhouse store_run error",
				applogger.String("fingerprint", res.Fingerprint),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("store run: %w", err)
	}

	if err := a.storeParans(ctx, res); err != nil {
		return err
	}

	if a.l != nil {
		a.l.Info("clickhouse store_run ok",
			applogger.String("fingerprint", res.Fingerprint),
			applogger.Int("features", len(res.Features)),
			applogger.Int("parans", len(res.Parans)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (a *CHArchive) storeParans(ctx context.Context, res *models.CalculationResult) error {
	if len(res.Parans) == 0 {
		return nil
	}
	values := make([]string, 0, len(res.Parans))
	args := make([]interface{}, 0, len(res.Parans)*9)
	for _, ev := range res.Parans {
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			res.Fingerprint,
			string(ev.BodyA),
			string(ev.BodyB),
			string(ev.AngleA),
			string(ev.AngleB),
			ev.Latitude,
			string(ev.Validity),
			string(ev.Method),
			res.ComputedAt,
		)
	}
	q := fmt.Sprintf(`INSERT INTO astrocarto.paran_events
        (fingerprint, body_a, body_b, angle_a, angle_b, latitude, validity, method, computed_at)
        VALUES %s`, strings.Join(values, ","))
	if _, err := a.db.ExecContext(ctx, q, args...); err != nil {
		if a.l != nil {
			a.l.Error("clickhouse store_parans error",
				applogger.String("fingerprint", res.Fingerprint),
				applogger.Int("events", len(res.Parans)),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("store parans: %w", err)
	}
	return nil
}

func (a *CHArchive) RecentRuns(ctx context.Context, limit int) ([]domrepo.RunSummary, error) {
	start := time.Now()
	const q = `
        SELECT fingerprint, jd, bodies, features, parans, warnings, partial, duration_ms, computed_at
        FROM astrocarto.runs
        ORDER BY computed_at DESC
        LIMIT ?
    `
	rows, err := a.db.QueryContext(ctx, q, limit)
	if err != nil {
		if a.l != nil {
			a.l.Error("clickhouse recent_runs query error",
				applogger.Int("limit", limit),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	defer rows.Close()

	out := make([]domrepo.RunSummary, 0, limit)
	for rows.Next() {
		var (
			s       domrepo.RunSummary
			bodies  string
			partial uint8
		)
		if err := rows.Scan(&s.Fingerprint, &s.JD, &bodies, &s.Features, &s.Parans, &s.Warnings, &partial, &s.DurationMS, &s.ComputedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if bodies != "" {
			s.Bodies = strings.Split(bodies, ",")
		}
		s.Partial = partial != 0
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if a.l != nil {
		a.l.Info("clickhouse recent_runs ok",
			applogger.Int("limit", limit),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (a *CHArchive) Health(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *CHArchive) Close() error {
	return nil // pool managed by pkg
}

// bodySet collects the distinct bodies of a result in feature order.
func bodySet(res *models.CalculationResult) []string {
	seen := map[models.Body]bool{}
	var out []string
	for _, f := range res.Features {
		if !seen[f.Body] {
			seen[f.Body] = true
			out = append(out, string(f.Body))
		}
	}
	for _, ev := range res.Parans {
		for _, b := range []models.Body{ev.BodyA, ev.BodyB} {
			if !seen[b] {
				seen[b] = true
				out = append(out, string(b))
			}
		}
	}
	return out
}
