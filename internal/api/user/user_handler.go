package user

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/ocop-products/internal/api"
	"github.com/FACorreiaa/ocop-products/internal/api/auth"
	"github.com/FACorreiaa/ocop-products/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	GetUserProfile(w http.ResponseWriter, r *http.Request)
	UpdateUserProfile(w http.ResponseWriter, r *http.Request)
	ListUsers(w http.ResponseWriter, r *http.Request)
	UpdateUserStatus(w http.ResponseWriter, r *http.Request)
	UpdateUserRole(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	userService UserService
	logger      *slog.Logger
}

// UserResponse wraps a profile returned after a mutation.
type UserResponse struct {
	Message string             `json:"message"`
	User    *types.UserProfile `json:"user"`
}

// NewHandlerImpl creates a new user HandlerImpl instance.
func NewHandlerImpl(userService UserService, logger *slog.Logger) *HandlerImpl {
	if logger == nil {
		panic("user: NewHandlerImpl called with nil logger")
	}
	return &HandlerImpl{
		userService: userService,
		logger:      logger,
	}
}

func (h *HandlerImpl) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrSelfModification) {
		api.ErrorResponse(w, r, http.StatusBadRequest, "You cannot change your own status or role")
		return
	}
	api.ServiceErrorResponse(w, r, err, "User not found")
}

// GetUserProfile godoc
// @Summary      Get User Profile
// @Description  Retrieves the authenticated user's profile information.
// @Tags         User
// @Produce      json
// @Success      200 {object} types.UserProfile "User Profile"
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      404 {object} types.Response "User Not Found"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Security     BearerAuth
// @Router       /users/profile [get]
func (h *HandlerImpl) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "GetUserProfile"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		l.ErrorContext(ctx, "User not found in context")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	profile, err := h.userService.GetUserProfile(ctx, userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to get user profile", slog.Any("error", err))
		h.writeError(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, profile)
}

// UpdateUserProfile godoc
// @Summary      Update User Profile
// @Description  Updates name, phone, address and avatar of the authenticated user.
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        profile body types.UpdateProfileParams true "Profile Update Parameters"
// @Success      200 {object} UserResponse "Profile Updated Successfully"
// @Failure      400 {object} types.Response "Invalid Input"
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Security     BearerAuth
// @Router       /users/profile [put]
func (h *HandlerImpl) UpdateUserProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "UpdateUserProfile"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		l.ErrorContext(ctx, "User not found in context")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var params types.UpdateProfileParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	profile, err := h.userService.UpdateUserProfile(ctx, userID, params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, UserResponse{
		Message: "Profile updated successfully",
		User:    profile,
	})
}

// ListUsers godoc
// @Summary      List users
// @Description  Paginated user listing, newest first. Admin only.
// @Tags         User
// @Produce      json
// @Param        page   query int    false "Page number" default(1)
// @Param        limit  query int    false "Page size" default(10)
// @Param        search query string false "Substring of name or email"
// @Param        role   query string false "Exact role"
// @Success      200 {object} types.UserList
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      403 {object} types.Response "Forbidden"
// @Security     BearerAuth
// @Router       /users [get]
func (h *HandlerImpl) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := types.UserFilter{
		Page:   api.QueryInt(r, "page", 1),
		Limit:  api.QueryInt(r, "limit", defaultPageSize),
		Search: strings.TrimSpace(q.Get("search")),
		Role:   strings.TrimSpace(q.Get("role")),
	}

	list, err := h.userService.ListUsers(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, list)
}

func (h *HandlerImpl) pathUserID(w http.ResponseWriter, r *http.Request) (actor, target uuid.UUID, ok bool) {
	actor, ok = auth.GetUserIDFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return uuid.Nil, uuid.Nil, false
	}
	target, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid user ID format")
		return uuid.Nil, uuid.Nil, false
	}
	return actor, target, true
}

// UpdateUserStatus godoc
// @Summary      Activate or deactivate a user
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        id     path string              true "User ID"
// @Param        status body UpdateStatusRequest true "New status"
// @Success      200 {object} UserResponse
// @Failure      400 {object} types.Response "Invalid Input"
// @Failure      404 {object} types.Response "User Not Found"
// @Security     BearerAuth
// @Router       /users/{id}/status [put]
func (h *HandlerImpl) UpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	actor, target, ok := h.pathUserID(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := api.Validate(req); err != nil {
		api.ValidationErrorResponse(w, r, err)
		return
	}

	profile, err := h.userService.SetUserStatus(r.Context(), actor, target, *req.IsActive)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	msg := "User deactivated successfully"
	if profile.IsActive {
		msg = "User activated successfully"
	}
	api.WriteJSONResponse(w, r, http.StatusOK, UserResponse{Message: msg, User: profile})
}

// UpdateUserRole godoc
// @Summary      Change a user's role
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        id   path string            true "User ID"
// @Param        role body UpdateRoleRequest true "New role"
// @Success      200 {object} UserResponse
// @Failure      400 {object} types.Response "Invalid Input"
// @Failure      404 {object} types.Response "User Not Found"
// @Security     BearerAuth
// @Router       /users/{id}/role [put]
func (h *HandlerImpl) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	actor, target, ok := h.pathUserID(w, r)
	if !ok {
		return
	}

	var req UpdateRoleRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.userService.SetUserRole(r.Context(), actor, target, req.Role)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, UserResponse{Message: "User role updated successfully", User: profile})
}
