package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/FACorreiaa/ocop-products/app/observability/metrics"
)

// Querier is the subset of pgxpool.Pool the repositories use. pgxmock's
// PgxPoolIface satisfies it as well.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type instrumented struct {
	q Querier
	m *metrics.AppMetrics
}

// Instrument records query duration and errors for every call made through q.
// A nil m returns q unchanged.
func Instrument(q Querier, m *metrics.AppMetrics) Querier {
	if m == nil {
		return q
	}
	return &instrumented{q: q, m: m}
}

func (i *instrumented) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	start := time.Now()
	tag, err := i.q.Exec(ctx, sql, args...)
	i.m.RecordDBQuery(ctx, opName(sql), time.Since(start), err)
	return tag, err
}

func (i *instrumented) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	start := time.Now()
	rows, err := i.q.Query(ctx, sql, args...)
	i.m.RecordDBQuery(ctx, opName(sql), time.Since(start), err)
	return rows, err
}

func (i *instrumented) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	start := time.Now()
	return &timedRow{
		row:   i.q.QueryRow(ctx, sql, args...),
		ctx:   ctx,
		op:    opName(sql),
		start: start,
		m:     i.m,
	}
}

// timedRow defers measurement to Scan, where pgx actually runs the query.
type timedRow struct {
	row   pgx.Row
	ctx   context.Context
	op    string
	start time.Time
	m     *metrics.AppMetrics
}

func (r *timedRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	recorded := err
	if errors.Is(err, pgx.ErrNoRows) {
		recorded = nil
	}
	r.m.RecordDBQuery(r.ctx, r.op, time.Since(r.start), recorded)
	return err
}

func opName(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "unknown"
	}
	op := strings.ToLower(fields[0])
	if op == "with" {
		return "select"
	}
	return op
}
