package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/ocop-products/internal/types"
)

const (
	recentWindow          = 30 * 24 * time.Hour
	DefaultActivityLimit  = 20
	maxActivityLimit      = 100
	DefaultGrowthMonths   = 6
	maxGrowthMonths       = 60
	cacheKeyOverview      = "overview"
	cacheKeyCategoryStats = "category-stats"
	cacheKeyRoleStats     = "role-stats"
)

var _ DashboardService = (*DashboardServiceImpl)(nil)

type DashboardService interface {
	Overview(ctx context.Context) (*types.DashboardOverview, error)
	ProductStats(ctx context.Context) ([]types.CategoryStat, error)
	UserStats(ctx context.Context) ([]types.RoleStat, error)
	RecentActivity(ctx context.Context, limit int) ([]types.Activity, error)
	GrowthStats(ctx context.Context, months int) (*types.GrowthStats, error)
	Stats(ctx context.Context) (*types.DashboardStats, error)
	Report(ctx context.Context) (*types.DashboardReport, error)
}

type DashboardServiceImpl struct {
	logger *slog.Logger
	repo   DashboardRepo
	cache  *cache.Cache
	now    func() time.Time
}

// NewDashboardService caches aggregates for ttl. A non-positive ttl
// disables caching.
func NewDashboardService(repo DashboardRepo, ttl time.Duration, logger *slog.Logger) *DashboardServiceImpl {
	var c *cache.Cache
	if ttl > 0 {
		c = cache.New(ttl, 2*ttl)
	}
	return &DashboardServiceImpl{
		logger: logger,
		repo:   repo,
		cache:  c,
		now:    time.Now,
	}
}

func cached[T any](s *DashboardServiceImpl, span trace.Span, key string, load func() (T, error)) (T, error) {
	if s.cache != nil {
		if v, found := s.cache.Get(key); found {
			if t, ok := v.(T); ok {
				span.AddEvent("Cache hit", trace.WithAttributes(attribute.String("cache.key", key)))
				return t, nil
			}
		}
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	if s.cache != nil {
		s.cache.Set(key, v, cache.DefaultExpiration)
	}
	return v, nil
}

func (s *DashboardServiceImpl) overview(ctx context.Context) (*types.DashboardOverview, error) {
	since := s.now().Add(-recentWindow)

	var users types.UserTotals
	var products types.ProductTotals
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.repo.UserTotals(gctx, since)
		return err
	})
	g.Go(func() error {
		var err error
		products, err = s.repo.ProductTotals(gctx, since)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &types.DashboardOverview{
		TotalUsers:       users.Total,
		TotalProducts:    products.Total,
		ActiveUsers:      users.Active,
		LowStockProducts: products.LowStock,
		TotalValue:       products.TotalValue,
		TotalStock:       products.TotalStock,
		RecentUsers:      users.Recent,
		RecentProducts:   products.Recent,
	}, nil
}

func (s *DashboardServiceImpl) Overview(ctx context.Context) (*types.DashboardOverview, error) {
	ctx, span := otel.Tracer("DashboardService").Start(ctx, "Overview")
	defer span.End()

	o, err := cached(s, span, cacheKeyOverview, func() (*types.DashboardOverview, error) {
		return s.overview(ctx)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to build dashboard overview", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Overview failed")
		return nil, fmt.Errorf("error building dashboard overview: %w", err)
	}
	return o, nil
}

func (s *DashboardServiceImpl) ProductStats(ctx context.Context) ([]types.CategoryStat, error) {
	ctx, span := otel.Tracer("DashboardService").Start(ctx, "ProductStats")
	defer span.End()

	stats, err := cached(s, span, cacheKeyCategoryStats, func() ([]types.CategoryStat, error) {
		return s.repo.CategoryStats(ctx)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Product stats failed")
		return nil, fmt.Errorf("error loading product stats: %w", err)
	}
	return stats, nil
}

func (s *DashboardServiceImpl) UserStats(ctx context.Context) ([]types.RoleStat, error) {
	ctx, span := otel.Tracer("DashboardService").Start(ctx, "UserStats")
	defer span.End()

	stats, err := cached(s, span, cacheKeyRoleStats, func() ([]types.RoleStat, error) {
		return s.repo.RoleStats(ctx)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "User stats failed")
		return nil, fmt.Errorf("error loading user stats: %w", err)
	}
	return stats, nil
}

// RecentActivity merges the newest users and products, each source capped at
// half the limit rounded up, newest first.
func (s *DashboardServiceImpl) RecentActivity(ctx context.Context, limit int) ([]types.Activity, error) {
	if limit < 1 {
		limit = DefaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}
	ctx, span := otel.Tracer("DashboardService").Start(ctx, "RecentActivity", trace.WithAttributes(
		attribute.Int("limit", limit),
	))
	defer span.End()

	perSource := (limit + 1) / 2
	var users, products []types.Activity
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.repo.RecentUserActivity(gctx, perSource)
		return err
	})
	g.Go(func() error {
		var err error
		products, err = s.repo.RecentProductActivity(gctx, perSource)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Recent activity failed")
		return nil, fmt.Errorf("error loading recent activity: %w", err)
	}

	all := make([]types.Activity, 0, len(users)+len(products))
	all = append(all, users...)
	all = append(all, products...)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *DashboardServiceImpl) GrowthStats(ctx context.Context, months int) (*types.GrowthStats, error) {
	if months < 1 {
		months = DefaultGrowthMonths
	}
	if months > maxGrowthMonths {
		months = maxGrowthMonths
	}
	ctx, span := otel.Tracer("DashboardService").Start(ctx, "GrowthStats", trace.WithAttributes(
		attribute.Int("months", months),
	))
	defer span.End()

	since := s.now().AddDate(0, -months, 0)
	var out types.GrowthStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out.UserGrowth, err = s.repo.MonthlyGrowth(gctx, "users", since)
		return err
	})
	g.Go(func() error {
		var err error
		out.ProductGrowth, err = s.repo.MonthlyGrowth(gctx, "products", since)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Growth stats failed")
		return nil, fmt.Errorf("error loading growth stats: %w", err)
	}
	return &out, nil
}

func (s *DashboardServiceImpl) Stats(ctx context.Context) (*types.DashboardStats, error) {
	o, err := s.Overview(ctx)
	if err != nil {
		return nil, err
	}
	cats, err := s.ProductStats(ctx)
	if err != nil {
		return nil, err
	}
	return &types.DashboardStats{DashboardOverview: *o, CategoryBreakdown: cats}, nil
}

// Report is the downloadable snapshot. It always reads fresh totals.
func (s *DashboardServiceImpl) Report(ctx context.Context) (*types.DashboardReport, error) {
	ctx, span := otel.Tracer("DashboardService").Start(ctx, "Report")
	defer span.End()

	var o *types.DashboardOverview
	var cats []types.CategoryStat
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		o, err = s.overview(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		cats, err = s.repo.CategoryStats(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Report failed")
		return nil, fmt.Errorf("error building dashboard report: %w", err)
	}

	breakdown := make([]types.ReportCategory, 0, len(cats))
	for _, c := range cats {
		breakdown = append(breakdown, types.ReportCategory{Category: c.Category, Count: c.Count, TotalStock: c.TotalStock})
	}
	return &types.DashboardReport{
		GeneratedAt: s.now().UTC(),
		Overview: types.ReportOverview{
			TotalUsers:    o.TotalUsers,
			TotalProducts: o.TotalProducts,
			TotalValue:    o.TotalValue,
			TotalStock:    o.TotalStock,
		},
		CategoryBreakdown: breakdown,
	}, nil
}
