package container

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/ocop-products/config"
	"github.com/FACorreiaa/ocop-products/internal/types"
)

func testConfig() *config.Config {
	var cfg config.Config
	cfg.JWT = config.JWTConfig{SecretKey: "container-secret", Issuer: "ocop-products", AccessTokenTTL: time.Hour}
	cfg.Auth = config.AuthConfig{BcryptCost: 4, ResetTokenTTL: 10 * time.Minute}
	cfg.Cache.DashboardTTL = time.Second
	return &cfg
}

func TestBuild(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	c, err := Build(testConfig(), mock, slog.Default())
	require.NoError(t, err)
	assert.NotNil(t, c.Gate)
	assert.NotNil(t, c.AuthHandler)
	assert.NotNil(t, c.UserHandler)
	assert.NotNil(t, c.ProductHandler)
	assert.NotNil(t, c.DashboardHandler)
	assert.NotNil(t, c.ExportHandler)
	assert.Nil(t, c.Pool)

	// the wired service reaches the store through the querier
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(types.RoleAdmin).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	created, err := c.AuthService.EnsureDefaultAdmin(context.Background(), config.DefaultAdminConfig{
		Enabled: true, Email: "admin@ocop.com", Password: "admin123",
	})
	require.NoError(t, err)
	assert.False(t, created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuild_RejectsEmptySecret(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cfg := testConfig()
	cfg.JWT.SecretKey = ""
	_, err = Build(cfg, mock, slog.Default())
	require.Error(t, err)
}
