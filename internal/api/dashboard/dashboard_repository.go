package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/ocop-products/app/db"
	"github.com/FACorreiaa/ocop-products/internal/types"
)

// LowStockThreshold is the stock level below which a product counts as low.
const LowStockThreshold = 10

var _ DashboardRepo = (*PostgresDashboardRepo)(nil)

// DashboardRepo runs the read-only aggregate queries behind the dashboard.
type DashboardRepo interface {
	UserTotals(ctx context.Context, since time.Time) (types.UserTotals, error)
	ProductTotals(ctx context.Context, since time.Time) (types.ProductTotals, error)
	CategoryStats(ctx context.Context) ([]types.CategoryStat, error)
	RoleStats(ctx context.Context) ([]types.RoleStat, error)
	RecentUserActivity(ctx context.Context, limit int) ([]types.Activity, error)
	RecentProductActivity(ctx context.Context, limit int) ([]types.Activity, error)
	// MonthlyGrowth counts rows of table created since, bucketed by YYYY-MM.
	MonthlyGrowth(ctx context.Context, table string, since time.Time) ([]types.MonthlyCount, error)
}

type PostgresDashboardRepo struct {
	logger *slog.Logger
	db     database.Querier
}

func NewPostgresDashboardRepo(db database.Querier, logger *slog.Logger) *PostgresDashboardRepo {
	return &PostgresDashboardRepo{
		logger: logger,
		db:     db,
	}
}

func startSpan(ctx context.Context, name, table string) (context.Context, trace.Span) {
	return otel.Tracer("DashboardRepo").Start(ctx, name, trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", table),
	))
}

func fail(span trace.Span, err error, what string) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, "DB query failed")
	return fmt.Errorf("database error %s: %w", what, err)
}

func (r *PostgresDashboardRepo) UserTotals(ctx context.Context, since time.Time) (types.UserTotals, error) {
	ctx, span := startSpan(ctx, "UserTotals", "users")
	defer span.End()

	var t types.UserTotals
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_active),
		       COUNT(*) FILTER (WHERE created_at >= $1)
		FROM users`, since).Scan(&t.Total, &t.Active, &t.Recent)
	if err != nil {
		return types.UserTotals{}, fail(span, err, "counting users")
	}
	return t, nil
}

func (r *PostgresDashboardRepo) ProductTotals(ctx context.Context, since time.Time) (types.ProductTotals, error) {
	ctx, span := startSpan(ctx, "ProductTotals", "products")
	defer span.End()

	var t types.ProductTotals
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE stock < $2),
		       COUNT(*) FILTER (WHERE created_at >= $1),
		       COALESCE(SUM(price), 0)::float8,
		       COALESCE(SUM(stock), 0)::bigint
		FROM products`, since, LowStockThreshold).Scan(&t.Total, &t.LowStock, &t.Recent, &t.TotalValue, &t.TotalStock)
	if err != nil {
		return types.ProductTotals{}, fail(span, err, "aggregating products")
	}
	return t, nil
}

func (r *PostgresDashboardRepo) CategoryStats(ctx context.Context) ([]types.CategoryStat, error) {
	ctx, span := startSpan(ctx, "CategoryStats", "products")
	defer span.End()

	rows, err := r.db.Query(ctx, `
		SELECT COALESCE(category, ''),
		       COUNT(*),
		       COALESCE(SUM(stock), 0)::bigint,
		       COALESCE(AVG(price), 0)::float8,
		       COALESCE(SUM(price * stock), 0)::float8
		FROM products
		GROUP BY COALESCE(category, '')
		ORDER BY COUNT(*) DESC, COALESCE(category, '')`)
	if err != nil {
		return nil, fail(span, err, "grouping products by category")
	}
	stats, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.CategoryStat, error) {
		var s types.CategoryStat
		err := row.Scan(&s.Category, &s.Count, &s.TotalStock, &s.AvgPrice, &s.TotalValue)
		return s, err
	})
	if err != nil {
		return nil, fail(span, err, "scanning category stats")
	}
	return stats, nil
}

func (r *PostgresDashboardRepo) RoleStats(ctx context.Context) ([]types.RoleStat, error) {
	ctx, span := startSpan(ctx, "RoleStats", "users")
	defer span.End()

	rows, err := r.db.Query(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role ORDER BY role`)
	if err != nil {
		return nil, fail(span, err, "grouping users by role")
	}
	stats, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.RoleStat, error) {
		var s types.RoleStat
		err := row.Scan(&s.Role, &s.Count)
		return s, err
	})
	if err != nil {
		return nil, fail(span, err, "scanning role stats")
	}
	return stats, nil
}

func (r *PostgresDashboardRepo) RecentUserActivity(ctx context.Context, limit int) ([]types.Activity, error) {
	ctx, span := startSpan(ctx, "RecentUserActivity", "users")
	defer span.End()

	rows, err := r.db.Query(ctx, `
		SELECT id, name, email, created_at
		FROM users
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fail(span, err, "listing recent users")
	}
	acts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.Activity, error) {
		var name string
		a := types.Activity{Type: types.ActivityUserCreated}
		if err := row.Scan(&a.ID, &name, &a.Subtitle, &a.CreatedAt); err != nil {
			return a, err
		}
		a.Title = "New user registered: " + name
		return a, nil
	})
	if err != nil {
		return nil, fail(span, err, "scanning recent users")
	}
	return acts, nil
}

func (r *PostgresDashboardRepo) RecentProductActivity(ctx context.Context, limit int) ([]types.Activity, error) {
	ctx, span := startSpan(ctx, "RecentProductActivity", "products")
	defer span.End()

	rows, err := r.db.Query(ctx, `
		SELECT id, name, COALESCE(category, ''), created_at
		FROM products
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fail(span, err, "listing recent products")
	}
	acts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.Activity, error) {
		var name string
		a := types.Activity{Type: types.ActivityProductCreated}
		if err := row.Scan(&a.ID, &name, &a.Subtitle, &a.CreatedAt); err != nil {
			return a, err
		}
		a.Title = "New product added: " + name
		return a, nil
	})
	if err != nil {
		return nil, fail(span, err, "scanning recent products")
	}
	return acts, nil
}

func (r *PostgresDashboardRepo) MonthlyGrowth(ctx context.Context, table string, since time.Time) ([]types.MonthlyCount, error) {
	if table != "users" && table != "products" {
		return nil, fmt.Errorf("monthly growth: unsupported table %q", table)
	}
	ctx, span := startSpan(ctx, "MonthlyGrowth", table)
	defer span.End()

	rows, err := r.db.Query(ctx, `
		SELECT to_char(date_trunc('month', created_at), 'YYYY-MM') AS month, COUNT(*)
		FROM `+table+`
		WHERE created_at >= $1
		GROUP BY month
		ORDER BY month`, since)
	if err != nil {
		return nil, fail(span, err, "bucketing "+table+" by month")
	}
	counts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.MonthlyCount, error) {
		var m types.MonthlyCount
		err := row.Scan(&m.Month, &m.Count)
		return m, err
	})
	if err != nil {
		return nil, fail(span, err, "scanning monthly growth")
	}
	return counts, nil
}
