package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/ocop-products/internal/types"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newMockRepo(t *testing.T) (*PostgresDashboardRepo, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresDashboardRepo(mock, slog.Default()), mock
}

func TestPostgresDashboardRepo_Totals(t *testing.T) {
	repo, mock := newMockRepo(t)
	since := fixedNow.Add(-recentWindow)

	mock.ExpectQuery(regexp.QuoteMeta("COUNT(*) FILTER (WHERE is_active)")).
		WithArgs(since).
		WillReturnRows(pgxmock.NewRows([]string{"total", "active", "recent"}).AddRow(int64(10), int64(8), int64(2)))
	mock.ExpectQuery(regexp.QuoteMeta("COUNT(*) FILTER (WHERE stock < $2)")).
		WithArgs(since, LowStockThreshold).
		WillReturnRows(pgxmock.NewRows([]string{"total", "low", "recent", "value", "stock"}).
			AddRow(int64(5), int64(1), int64(3), 1500.5, int64(240)))

	u, err := repo.UserTotals(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, types.UserTotals{Total: 10, Active: 8, Recent: 2}, u)

	p, err := repo.ProductTotals(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.LowStock)
	assert.Equal(t, 1500.5, p.TotalValue)
	assert.Equal(t, int64(240), p.TotalStock)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDashboardRepo_CategoryAndRoleStats(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY COALESCE(category, '')")).
		WillReturnRows(pgxmock.NewRows([]string{"category", "count", "stock", "avg", "value"}).
			AddRow("Tea", int64(3), int64(90), 100.0, 9000.0).
			AddRow("", int64(1), int64(5), 20.0, 100.0))
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY role")).
		WillReturnRows(pgxmock.NewRows([]string{"role", "count"}).
			AddRow(types.RoleAdmin, int64(1)).
			AddRow(types.RoleUser, int64(7)))

	cats, err := repo.CategoryStats(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, types.CategoryStat{Category: "Tea", Count: 3, TotalStock: 90, AvgPrice: 100, TotalValue: 9000}, cats[0])

	roles, err := repo.RoleStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []types.RoleStat{{Role: "Admin", Count: 1}, {Role: "User", Count: 7}}, roles)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDashboardRepo_RecentActivity(t *testing.T) {
	repo, mock := newMockRepo(t)
	uid, pid := uuid.New(), uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email, created_at")).
		WithArgs(3).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "email", "created_at"}).
			AddRow(uid, "Lan", "lan@ocop.vn", fixedNow))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, COALESCE(category, ''), created_at")).
		WithArgs(3).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "category", "created_at"}).
			AddRow(pid, "Honey", "Food", fixedNow))

	users, err := repo.RecentUserActivity(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, types.Activity{
		Type: types.ActivityUserCreated, ID: uid,
		Title: "New user registered: Lan", Subtitle: "lan@ocop.vn", CreatedAt: fixedNow,
	}, users[0])

	products, err := repo.RecentProductActivity(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "New product added: Honey", products[0].Title)
	assert.Equal(t, "Food", products[0].Subtitle)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDashboardRepo_MonthlyGrowth(t *testing.T) {
	since := fixedNow.AddDate(0, -6, 0)

	t.Run("Buckets", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta("to_char(date_trunc('month', created_at), 'YYYY-MM')")).
			WithArgs(since).
			WillReturnRows(pgxmock.NewRows([]string{"month", "count"}).
				AddRow("2025-01", int64(4)).
				AddRow("2025-02", int64(9)))

		got, err := repo.MonthlyGrowth(context.Background(), "products", since)
		require.NoError(t, err)
		assert.Equal(t, []types.MonthlyCount{{Month: "2025-01", Count: 4}, {Month: "2025-02", Count: 9}}, got)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RejectsOtherTables", func(t *testing.T) {
		repo, _ := newMockRepo(t)
		_, err := repo.MonthlyGrowth(context.Background(), "users; --", since)
		require.Error(t, err)
	})

	t.Run("QueryError", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("FROM users").WillReturnError(errors.New("timeout"))
		_, err := repo.MonthlyGrowth(context.Background(), "users", since)
		require.Error(t, err)
	})
}
