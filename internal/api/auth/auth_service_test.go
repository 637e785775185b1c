package auth

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/ocop-products/config"
	"github.com/FACorreiaa/ocop-products/internal/types"
	"github.com/FACorreiaa/ocop-products/pkg/password"
	"github.com/FACorreiaa/ocop-products/pkg/token"
)

// MockAuthRepo is a mock implementation of the AuthRepo interface
type MockAuthRepo struct {
	mock.Mock
}

func (m *MockAuthRepo) user(args mock.Arguments) (*types.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockAuthRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	return m.user(m.Called(ctx, userID))
}

func (m *MockAuthRepo) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	return m.user(m.Called(ctx, email))
}

func (m *MockAuthRepo) GetUserByResetToken(ctx context.Context, token string, now time.Time) (*types.User, error) {
	return m.user(m.Called(ctx, token, now))
}

func (m *MockAuthRepo) CreateUser(ctx context.Context, u NewUser) (*types.User, error) {
	return m.user(m.Called(ctx, u))
}

func (m *MockAuthRepo) UpdateLastLogin(ctx context.Context, userID uuid.UUID, at time.Time) error {
	return m.Called(ctx, userID, at).Error(0)
}

func (m *MockAuthRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	return m.Called(ctx, userID, passwordHash).Error(0)
}

func (m *MockAuthRepo) SetResetToken(ctx context.Context, userID uuid.UUID, token string, expires time.Time) error {
	return m.Called(ctx, userID, token, expires).Error(0)
}

func (m *MockAuthRepo) CompletePasswordReset(ctx context.Context, token, passwordHash string, now time.Time) (uuid.UUID, error) {
	args := m.Called(ctx, token, passwordHash, now)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockAuthRepo) HasUserWithRole(ctx context.Context, role string) (bool, error) {
	args := m.Called(ctx, role)
	return args.Bool(0), args.Error(1)
}

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, repo AuthRepo) (*AuthServiceImpl, *token.Manager, *password.Hasher) {
	t.Helper()
	tokens, err := token.NewManager("test-secret", "ocop-test", "", time.Hour,
		token.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	hasher := password.NewHasher(bcrypt.MinCost)
	svc := NewAuthService(repo, hasher, tokens, 10*time.Minute, slog.Default())
	svc.now = func() time.Time { return fixedNow }
	return svc, tokens, hasher
}

func storedUser(t *testing.T, hasher *password.Hasher, pw, role string, active bool) *types.User {
	t.Helper()
	digest, err := hasher.Hash(pw)
	require.NoError(t, err)
	return &types.User{
		ID:           uuid.New(),
		Name:         "Lan",
		Email:        "lan@ocop.vn",
		PasswordHash: digest,
		Role:         role,
		IsActive:     active,
		CreatedAt:    fixedNow.Add(-48 * time.Hour),
		UpdatedAt:    fixedNow.Add(-48 * time.Hour),
	}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo := new(MockAuthRepo)
		svc, _, hasher := newTestService(t, repo)

		req := RegisterRequest{Name: "Lan", Email: "lan@ocop.vn", Password: "secret1", Role: types.RoleAdmin}
		repo.On("CreateUser", mock.Anything, mock.MatchedBy(func(nu NewUser) bool {
			return nu.Role == types.RoleUser && nu.Email == req.Email && hasher.Verify("secret1", nu.PasswordHash)
		})).Return(&types.User{ID: uuid.New(), Name: "Lan", Email: req.Email, Role: types.RoleUser, IsActive: true}, nil).Once()

		profile, err := svc.Register(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, types.RoleUser, profile.Role)
		assert.True(t, profile.IsActive)
		repo.AssertExpectations(t)
	})

	t.Run("Validation", func(t *testing.T) {
		cases := map[string]RegisterRequest{
			"MissingName":   {Email: "lan@ocop.vn", Password: "secret1"},
			"BadEmail":      {Name: "Lan", Email: "lan@ocop", Password: "secret1"},
			"ShortPassword": {Name: "Lan", Email: "lan@ocop.vn", Password: "12345"},
		}
		for name, req := range cases {
			t.Run(name, func(t *testing.T) {
				repo := new(MockAuthRepo)
				svc, _, _ := newTestService(t, repo)

				_, err := svc.Register(ctx, req)
				assert.ErrorIs(t, err, types.ErrValidation)
				repo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
			})
		}
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		repo := new(MockAuthRepo)
		svc, _, _ := newTestService(t, repo)
		repo.On("CreateUser", mock.Anything, mock.Anything).Return(nil, types.ErrConflict).Once()

		_, err := svc.Register(ctx, RegisterRequest{Name: "Lan", Email: "lan@ocop.vn", Password: "secret1"})
		assert.ErrorIs(t, err, types.ErrConflict)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo := new(MockAuthRepo)
		svc, tokens, hasher := newTestService(t, repo)
		u := storedUser(t, hasher, "secret1", types.RoleManager, true)

		repo.On("GetUserByEmail", mock.Anything, u.Email).Return(u, nil).Once()
		repo.On("UpdateLastLogin", mock.Anything, u.ID, fixedNow).Return(nil).Once()

		res, err := svc.Login(ctx, u.Email, "secret1")
		require.NoError(t, err)
		assert.True(t, res.ExpiresAt.Equal(fixedNow.Add(time.Hour)))
		require.NotNil(t, res.User.LastLoginAt)

		claims, err := tokens.Verify(res.Token)
		require.NoError(t, err)
		assert.Equal(t, u.ID.String(), claims.UserID)
		assert.Equal(t, types.RoleManager, claims.Role)
		assert.Equal(t, u.Email, claims.Email)
		repo.AssertExpectations(t)
	})

	t.Run("UserNotFound", func(t *testing.T) {
		repo := new(MockAuthRepo)
		svc, _, _ := newTestService(t, repo)
		repo.On("GetUserByEmail", mock.Anything, "ghost@ocop.vn").Return(nil, types.ErrNotFound).Once()

		_, err := svc.Login(ctx, "ghost@ocop.vn", "secret1")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("Deactivated", func(t *testing.T) {
		repo := new(MockAuthRepo)
		svc, _, hasher := newTestService(t, repo)
		u := storedUser(t, hasher, "secret1", types.RoleUser, false)
		repo.On("GetUserByEmail", mock.Anything, u.Email).Return(u, nil).Once()

		_, err := svc.Login(ctx, u.Email, "secret1")
		assert.ErrorIs(t, err, ErrAccountDeactivated)
		repo.AssertNotCalled(t, "UpdateLastLogin", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		repo := new(MockAuthRepo)
		svc, _, hasher := newTestService(t, repo)
		u := storedUser(t, hasher, "secret1", types.RoleUser, true)
		repo.On("GetUserByEmail", mock.Anything, u.Email).Return(u, nil).Once()

		_, err := svc.Login(ctx, u.Email, "secret2")
		assert.ErrorIs(t, err, ErrInvalidPassword)
		repo.AssertNotCalled(t, "UpdateLastLogin", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("PasswordPastBcryptLimit", func(t *testing.T) {
		repo := new(MockAuthRepo)
		svc, _, hasher := newTestService(t, repo)
		stored := strings.Repeat("x", password.MaxLength)
		u := storedUser(t, hasher, stored, types.RoleUser, true)

		_, err := svc.Login(ctx, u.Email, stored+"-suffix")
		assert.ErrorIs(t, err, types.ErrValidation)
		repo.AssertNotCalled(t, "GetUserByEmail", mock.Anything, mock.Anything)
	})

	t.Run("StoreError", func(t *testing.T) {
		repo := new(MockAuthRepo)
		svc, _, _ := newTestService(t, repo)
		repo.On("GetUserByEmail", mock.Anything, "lan@ocop.vn").Return(nil, errors.New("connection reset")).Once()

		_, err := svc.Login(ctx, "lan@ocop.vn", "secret1")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUserNotFound)
	})
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo := new(MockAuthRepo)
		svc, _, hasher := newTestService(t, repo)
		u := storedUser(t, hasher, "secret1", types.RoleUser, true)

		repo.On("GetUserByID", mock.Anything, u.ID).Return(u, nil).Once()
		repo.On("UpdatePassword", mock.Anything, u.ID, mock.MatchedBy(func(digest string) bool {
			return hasher.Verify("newsecret", digest)
		})).Return(nil).Once()

		require.NoError(t, svc.ChangePassword(ctx, u.ID, "secret1", "newsecret"))
		repo.AssertExpectations(t)
	})

	t.Run("WrongCurrent", func(t *testing.T) {
		repo := new(MockAuthRepo)
		svc, _, hasher := newTestService(t, repo)
		u := storedUser(t, hasher, "secret1", types.RoleUser, true)
		repo.On("GetUserByID", mock.Anything, u.ID).Return(u, nil).Once()

		err := svc.ChangePassword(ctx, u.ID, "nope", "newsecret")
		assert.ErrorIs(t, err, ErrIncorrectCurrentPassword)
		repo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ShortNewPassword", func(t *testing.T) {
		repo := new(MockAuthRepo)
		svc, _, _ := newTestService(t, repo)

		err := svc.ChangePassword(ctx, uuid.New(), "secret1", "123")
		assert.ErrorIs(t, err, types.ErrValidation)
	})
}

func TestForgotPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("IssuesToken", func(t *testing.T) {
		repo := new(MockAuthRepo)
		svc, _, hasher := newTestService(t, repo)
		u := storedUser(t, hasher, "secret1", types.RoleUser, true)
		expires := fixedNow.Add(10 * time.Minute)

		repo.On("GetUserByEmail", mock.Anything, u.Email).Return(u, nil).Once()
		repo.On("SetResetToken", mock.Anything, u.ID, mock.AnythingOfType("string"), expires).Return(nil).Once()

		ticket, err := svc.ForgotPassword(ctx, u.Email)
		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), ticket.Token)
		assert.True(t, ticket.ExpiresAt.Equal(expires))
		repo.AssertExpectations(t)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		repo := new(MockAuthRepo)
		svc, _, _ := newTestService(t, repo)
		repo.On("GetUserByEmail", mock.Anything, "ghost@ocop.vn").Return(nil, types.ErrNotFound).Once()

		_, err := svc.ForgotPassword(ctx, "ghost@ocop.vn")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestResetPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo := new(MockAuthRepo)
		svc, _, hasher := newTestService(t, repo)
		u := storedUser(t, hasher, "secret1", types.RoleUser, true)

		repo.On("GetUserByResetToken", mock.Anything, "tok", fixedNow).Return(u, nil).Once()
		repo.On("CompletePasswordReset", mock.Anything, "tok", mock.MatchedBy(func(digest string) bool {
			return hasher.Verify("brandnew", digest)
		}), fixedNow).Return(u.ID, nil).Once()

		require.NoError(t, svc.ResetPassword(ctx, "tok", "brandnew"))
		repo.AssertExpectations(t)
	})

	t.Run("ExpiredTokenLeavesPasswordUnchanged", func(t *testing.T) {
		repo := new(MockAuthRepo)
		svc, _, _ := newTestService(t, repo)
		// the store filters on expiry, so an expired token is simply absent
		repo.On("GetUserByResetToken", mock.Anything, "tok", fixedNow).Return(nil, types.ErrNotFound).Once()

		err := svc.ResetPassword(ctx, "tok", "brandnew")
		assert.ErrorIs(t, err, ErrInvalidResetToken)
		repo.AssertNotCalled(t, "CompletePasswordReset", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ConsumedBetweenLookupAndUpdate", func(t *testing.T) {
		repo := new(MockAuthRepo)
		svc, _, hasher := newTestService(t, repo)
		u := storedUser(t, hasher, "secret1", types.RoleUser, true)

		repo.On("GetUserByResetToken", mock.Anything, "tok", fixedNow).Return(u, nil).Once()
		repo.On("CompletePasswordReset", mock.Anything, "tok", mock.Anything, fixedNow).Return(uuid.Nil, types.ErrNotFound).Once()

		assert.ErrorIs(t, svc.ResetPassword(ctx, "tok", "brandnew"), ErrInvalidResetToken)
	})

	t.Run("MissingToken", func(t *testing.T) {
		repo := new(MockAuthRepo)
		svc, _, _ := newTestService(t, repo)
		assert.ErrorIs(t, svc.ResetPassword(ctx, "", "brandnew"), types.ErrValidation)
	})
}

func TestEnsureDefaultAdmin(t *testing.T) {
	ctx := context.Background()
	admin := config.DefaultAdminConfig{
		Enabled:  true,
		Name:     "admin",
		Email:    "admin@ocop.com",
		Password: "admin123",
		Phone:    "+84123456789",
		Address:  "OCOP Management Office",
	}

	t.Run("AlreadyExists", func(t *testing.T) {
		repo := new(MockAuthRepo)
		svc, _, _ := newTestService(t, repo)
		repo.On("HasUserWithRole", mock.Anything, types.RoleAdmin).Return(true, nil).Once()

		created, err := svc.EnsureDefaultAdmin(ctx, admin)
		require.NoError(t, err)
		assert.False(t, created)
		repo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})

	t.Run("Creates", func(t *testing.T) {
		repo := new(MockAuthRepo)
		svc, _, hasher := newTestService(t, repo)
		repo.On("HasUserWithRole", mock.Anything, types.RoleAdmin).Return(false, nil).Once()
		repo.On("CreateUser", mock.Anything, mock.MatchedBy(func(nu NewUser) bool {
			return nu.Role == types.RoleAdmin && nu.Email == admin.Email && hasher.Verify(admin.Password, nu.PasswordHash)
		})).Return(&types.User{ID: uuid.New(), Email: admin.Email, Role: types.RoleAdmin, IsActive: true}, nil).Once()

		created, err := svc.EnsureDefaultAdmin(ctx, admin)
		require.NoError(t, err)
		assert.True(t, created)
		repo.AssertExpectations(t)
	})

	t.Run("Disabled", func(t *testing.T) {
		repo := new(MockAuthRepo)
		svc, _, _ := newTestService(t, repo)

		created, err := svc.EnsureDefaultAdmin(ctx, config.DefaultAdminConfig{})
		require.NoError(t, err)
		assert.False(t, created)
	})
}
