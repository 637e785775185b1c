package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/ocop-products/config"
	"github.com/FACorreiaa/ocop-products/internal/types"
)

// MockAuthService is a mock implementation of the AuthService interface
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, req RegisterRequest) (*types.UserProfile, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.UserProfile), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*LoginResult), args.Error(1)
}

func (m *MockAuthService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	return m.Called(ctx, userID, currentPassword, newPassword).Error(0)
}

func (m *MockAuthService) ForgotPassword(ctx context.Context, email string) (*ResetTicket, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ResetTicket), args.Error(1)
}

func (m *MockAuthService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	return m.Called(ctx, resetToken, newPassword).Error(0)
}

func (m *MockAuthService) EnsureDefaultAdmin(ctx context.Context, admin config.DefaultAdminConfig) (bool, error) {
	args := m.Called(ctx, admin)
	return args.Bool(0), args.Error(1)
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"UserNotFound", ErrUserNotFound, http.StatusNotFound, "User not found"},
		{"Deactivated", ErrAccountDeactivated, http.StatusForbidden, "Account is deactivated"},
		{"WrongPassword", ErrInvalidPassword, http.StatusUnauthorized, "Invalid password"},
		{"Validation", types.NewValidationError("email", "email is required"), http.StatusBadRequest, "email is required"},
		{"Unexpected", errors.New("db down"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAuthService)
			h := NewAuthHandler(svc, slog.Default(), false)
			svc.On("Login", mock.Anything, "lan@ocop.vn", "pw").Return(nil, tt.err).Once()

			rec := httptest.NewRecorder()
			h.Login(rec, jsonRequest(t, http.MethodPost, "/api/auth/login", LoginRequest{Email: "lan@ocop.vn", Password: "pw"}))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.message, decodeBody(t, rec)["message"])
			svc.AssertExpectations(t)
		})
	}

	t.Run("Success", func(t *testing.T) {
		svc := new(MockAuthService)
		h := NewAuthHandler(svc, slog.Default(), false)
		profile := &types.UserProfile{ID: uuid.New(), Email: "lan@ocop.vn", Role: types.RoleUser, IsActive: true}
		svc.On("Login", mock.Anything, "lan@ocop.vn", "pw").
			Return(&LoginResult{Token: "signed", ExpiresAt: fixedNow, User: profile}, nil).Once()

		rec := httptest.NewRecorder()
		h.Login(rec, jsonRequest(t, http.MethodPost, "/api/auth/login", LoginRequest{Email: "lan@ocop.vn", Password: "pw"}))

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "signed", body["token"])
		user := body["user"].(map[string]any)
		assert.Equal(t, profile.ID.String(), user["id"])
		assert.NotContains(t, user, "passwordHash")
	})

	t.Run("MalformedBody", func(t *testing.T) {
		svc := new(MockAuthService)
		h := NewAuthHandler(svc, slog.Default(), false)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString("{bad"))
		h.Login(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAuthHandler_Register(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		svc := new(MockAuthService)
		h := NewAuthHandler(svc, slog.Default(), false)
		req := RegisterRequest{Name: "Lan", Email: "lan@ocop.vn", Password: "secret1", Role: types.RoleAdmin}
		profile := &types.UserProfile{ID: uuid.New(), Name: "Lan", Email: req.Email, Role: types.RoleUser, IsActive: true}
		svc.On("Register", mock.Anything, req).Return(profile, nil).Once()

		rec := httptest.NewRecorder()
		h.Register(rec, jsonRequest(t, http.MethodPost, "/api/auth/register", req))

		require.Equal(t, http.StatusCreated, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, profile.ID.String(), body["userId"])
		assert.Equal(t, "User", body["user"].(map[string]any)["role"])
	})

	t.Run("Conflict", func(t *testing.T) {
		svc := new(MockAuthService)
		h := NewAuthHandler(svc, slog.Default(), false)
		svc.On("Register", mock.Anything, mock.Anything).Return(nil, types.ErrConflict).Once()

		rec := httptest.NewRecorder()
		h.Register(rec, jsonRequest(t, http.MethodPost, "/api/auth/register", RegisterRequest{Name: "Lan", Email: "lan@ocop.vn", Password: "secret1"}))

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "User already exists with this email", decodeBody(t, rec)["message"])
	})
}

func TestAuthHandler_ForgotPassword(t *testing.T) {
	ticket := &ResetTicket{Token: "abc123", ExpiresAt: fixedNow.Add(10 * time.Minute)}

	for _, expose := range []bool{true, false} {
		svc := new(MockAuthService)
		h := NewAuthHandler(svc, slog.Default(), expose)
		svc.On("ForgotPassword", mock.Anything, "lan@ocop.vn").Return(ticket, nil).Once()

		rec := httptest.NewRecorder()
		h.ForgotPassword(rec, jsonRequest(t, http.MethodPost, "/api/users/forgot-password", ForgotPasswordRequest{Email: "lan@ocop.vn"}))

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		if expose {
			assert.Equal(t, "abc123", body["resetToken"])
		} else {
			assert.NotContains(t, body, "resetToken")
		}
	}
}

func TestAuthHandler_ResetPassword(t *testing.T) {
	svc := new(MockAuthService)
	h := NewAuthHandler(svc, slog.Default(), false)
	svc.On("ResetPassword", mock.Anything, "tok", "brandnew").Return(ErrInvalidResetToken).Once()

	rec := httptest.NewRecorder()
	h.ResetPassword(rec, jsonRequest(t, http.MethodPost, "/api/users/reset-password", ResetPasswordRequest{Token: "tok", NewPassword: "brandnew"}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid or expired reset token", decodeBody(t, rec)["message"])
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	svc := new(MockAuthService)
	h := NewAuthHandler(svc, slog.Default(), false)
	profile := &types.UserProfile{ID: uuid.New(), Role: types.RoleUser, IsActive: true}
	svc.On("ChangePassword", mock.Anything, profile.ID, "old", "newsecret").Return(ErrIncorrectCurrentPassword).Once()

	req := jsonRequest(t, http.MethodPut, "/api/users/change-password", ChangePasswordRequest{CurrentPassword: "old", NewPassword: "newsecret"})
	req = req.WithContext(WithUser(req.Context(), profile))
	rec := httptest.NewRecorder()
	h.ChangePassword(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Current password is incorrect", decodeBody(t, rec)["message"])

	t.Run("NoUserInContext", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ChangePassword(rec, jsonRequest(t, http.MethodPut, "/api/users/change-password", ChangePasswordRequest{}))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAuthHandler_MeAndLogout(t *testing.T) {
	h := NewAuthHandler(new(MockAuthService), slog.Default(), false)
	profile := &types.UserProfile{ID: uuid.New(), Name: "Lan", Role: types.RoleManager, IsActive: true}

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	rec := httptest.NewRecorder()
	h.Me(rec, req.WithContext(WithUser(req.Context(), profile)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Manager", decodeBody(t, rec)["role"])

	rec = httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logged out successfully", decodeBody(t, rec)["message"])
}
