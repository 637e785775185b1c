package user

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/ocop-products/internal/api/auth"
	"github.com/FACorreiaa/ocop-products/internal/types"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) profile(args mock.Arguments) (*types.UserProfile, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.UserProfile), args.Error(1)
}

func (m *MockUserService) GetUserProfile(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error) {
	return m.profile(m.Called(ctx, userID))
}

func (m *MockUserService) UpdateUserProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) (*types.UserProfile, error) {
	return m.profile(m.Called(ctx, userID, params))
}

func (m *MockUserService) ListUsers(ctx context.Context, filter types.UserFilter) (*types.UserList, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.UserList), args.Error(1)
}

func (m *MockUserService) AllUsers(ctx context.Context) ([]types.UserProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.UserProfile), args.Error(1)
}

func (m *MockUserService) SetUserStatus(ctx context.Context, actorID, userID uuid.UUID, active bool) (*types.UserProfile, error) {
	return m.profile(m.Called(ctx, actorID, userID, active))
}

func (m *MockUserService) SetUserRole(ctx context.Context, actorID, userID uuid.UUID, role string) (*types.UserProfile, error) {
	return m.profile(m.Called(ctx, actorID, userID, role))
}

func authed(req *http.Request, id uuid.UUID, role string) *http.Request {
	return req.WithContext(auth.WithUser(req.Context(), &types.UserProfile{ID: id, Role: role, IsActive: true}))
}

// serveWithID routes req through a chi mux so the {id} URL param resolves.
func serveWithID(h http.HandlerFunc, method, pattern string, req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Method(method, pattern, h)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHandler_GetUserProfile(t *testing.T) {
	svc := new(MockUserService)
	h := NewHandlerImpl(svc, slog.Default())
	id := uuid.New()

	svc.On("GetUserProfile", mock.Anything, id).Return(nil, types.ErrNotFound).Once()
	rec := httptest.NewRecorder()
	h.GetUserProfile(rec, authed(httptest.NewRequest(http.MethodGet, "/api/users/profile", nil), id, types.RoleUser))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", decode(t, rec)["message"])

	rec = httptest.NewRecorder()
	h.GetUserProfile(rec, httptest.NewRequest(http.MethodGet, "/api/users/profile", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	svc.AssertExpectations(t)
}

func TestHandler_UpdateUserProfile(t *testing.T) {
	svc := new(MockUserService)
	h := NewHandlerImpl(svc, slog.Default())
	id := uuid.New()
	params := types.UpdateProfileParams{Name: ptr("Hoa")}
	svc.On("UpdateUserProfile", mock.Anything, id, params).
		Return(&types.UserProfile{ID: id, Name: "Hoa", Role: types.RoleUser}, nil).Once()

	req := httptest.NewRequest(http.MethodPut, "/api/users/profile",
		bytes.NewBufferString(`{"name":"Hoa","email":"ignored@ocop.vn","role":"Admin"}`))
	rec := httptest.NewRecorder()
	h.UpdateUserProfile(rec, authed(req, id, types.RoleUser))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Profile updated successfully", body["message"])
	assert.Equal(t, "Hoa", body["user"].(map[string]any)["name"])
	svc.AssertExpectations(t)
}

func TestHandler_ListUsers(t *testing.T) {
	svc := new(MockUserService)
	h := NewHandlerImpl(svc, slog.Default())
	want := types.UserFilter{Page: 3, Limit: 20, Search: "lan", Role: types.RoleManager}
	svc.On("ListUsers", mock.Anything, want).Return(&types.UserList{
		Users:      []types.UserProfile{},
		Pagination: types.NewPagination(41, 3, 20),
	}, nil).Once()

	rec := httptest.NewRecorder()
	h.ListUsers(rec, httptest.NewRequest(http.MethodGet, "/api/users?page=3&limit=20&search=+lan+&role=Manager", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	pagination := decode(t, rec)["pagination"].(map[string]any)
	assert.EqualValues(t, 41, pagination["total"])
	assert.EqualValues(t, 3, pagination["pages"])
	svc.AssertExpectations(t)
}

func TestHandler_UpdateUserStatus(t *testing.T) {
	admin, target := uuid.New(), uuid.New()

	t.Run("Deactivated", func(t *testing.T) {
		svc := new(MockUserService)
		h := NewHandlerImpl(svc, slog.Default())
		svc.On("SetUserStatus", mock.Anything, admin, target, false).
			Return(&types.UserProfile{ID: target, IsActive: false}, nil).Once()

		req := httptest.NewRequest(http.MethodPut, "/api/users/"+target.String()+"/status", bytes.NewBufferString(`{"isActive":false}`))
		rec := serveWithID(h.UpdateUserStatus, http.MethodPut, "/api/users/{id}/status", authed(req, admin, types.RoleAdmin))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "User deactivated successfully", decode(t, rec)["message"])
	})

	t.Run("MissingField", func(t *testing.T) {
		h := NewHandlerImpl(new(MockUserService), slog.Default())
		req := httptest.NewRequest(http.MethodPut, "/api/users/"+target.String()+"/status", bytes.NewBufferString(`{}`))
		rec := serveWithID(h.UpdateUserStatus, http.MethodPut, "/api/users/{id}/status", authed(req, admin, types.RoleAdmin))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("BadID", func(t *testing.T) {
		h := NewHandlerImpl(new(MockUserService), slog.Default())
		req := httptest.NewRequest(http.MethodPut, "/api/users/nope/status", bytes.NewBufferString(`{"isActive":true}`))
		rec := serveWithID(h.UpdateUserStatus, http.MethodPut, "/api/users/{id}/status", authed(req, admin, types.RoleAdmin))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid user ID format", decode(t, rec)["message"])
	})

	t.Run("Self", func(t *testing.T) {
		svc := new(MockUserService)
		h := NewHandlerImpl(svc, slog.Default())
		svc.On("SetUserStatus", mock.Anything, admin, admin, false).Return(nil, ErrSelfModification).Once()

		req := httptest.NewRequest(http.MethodPut, "/api/users/"+admin.String()+"/status", bytes.NewBufferString(`{"isActive":false}`))
		rec := serveWithID(h.UpdateUserStatus, http.MethodPut, "/api/users/{id}/status", authed(req, admin, types.RoleAdmin))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "You cannot change your own status or role")
	})
}

func TestHandler_UpdateUserRole(t *testing.T) {
	admin, target := uuid.New(), uuid.New()
	svc := new(MockUserService)
	h := NewHandlerImpl(svc, slog.Default())
	svc.On("SetUserRole", mock.Anything, admin, target, types.RoleManager).
		Return(&types.UserProfile{ID: target, Role: types.RoleManager}, nil).Once()

	req := httptest.NewRequest(http.MethodPut, "/api/users/"+target.String()+"/role", bytes.NewBufferString(`{"role":"Manager"}`))
	rec := serveWithID(h.UpdateUserRole, http.MethodPut, "/api/users/{id}/role", authed(req, admin, types.RoleAdmin))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Manager", decode(t, rec)["user"].(map[string]any)["role"])
	svc.AssertExpectations(t)
}
