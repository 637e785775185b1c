package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/FACorreiaa/ocop-products/internal/api"
	"github.com/FACorreiaa/ocop-products/internal/types"
)

type AuthHandler struct {
	service          AuthService
	logger           *slog.Logger
	exposeResetToken bool
}

// NewAuthHandler wires the auth endpoints. When exposeResetToken is set the
// forgot-password response carries the token itself, for development only.
func NewAuthHandler(service AuthService, logger *slog.Logger, exposeResetToken bool) *AuthHandler {
	return &AuthHandler{
		service:          service,
		logger:           logger,
		exposeResetToken: exposeResetToken,
	}
}

func (h *AuthHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		api.ErrorResponse(w, r, http.StatusNotFound, "User not found")
	case errors.Is(err, ErrAccountDeactivated):
		api.ErrorResponse(w, r, http.StatusForbidden, "Account is deactivated")
	case errors.Is(err, ErrInvalidPassword):
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid password")
	case errors.Is(err, ErrIncorrectCurrentPassword):
		api.ErrorResponse(w, r, http.StatusBadRequest, "Current password is incorrect")
	case errors.Is(err, ErrInvalidResetToken):
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid or expired reset token")
	case errors.Is(err, types.ErrConflict):
		api.ErrorResponse(w, r, http.StatusConflict, "User already exists with this email")
	default:
		api.ServiceErrorResponse(w, r, err, "User not found")
	}
}

// Register godoc
// @Summary      Register
// @Description  Creates a new account with role User.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        user body RegisterRequest true "Registration data"
// @Success      201 {object} RegisterResponse
// @Failure      400 {object} types.Response "Invalid Input"
// @Failure      409 {object} types.Response "Email already registered"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Router       /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "Register"))

	var req RegisterRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.service.Register(ctx, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusCreated, RegisterResponse{
		Message: "User registered successfully",
		UserID:  user.ID,
		User:    user,
	})
}

// Login godoc
// @Summary      Login
// @Description  Verifies credentials and returns a bearer token.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        credentials body LoginRequest true "Email and password"
// @Success      200 {object} LoginResponse
// @Failure      400 {object} types.Response "Invalid Input"
// @Failure      401 {object} types.Response "Invalid password"
// @Failure      403 {object} types.Response "Account is deactivated"
// @Failure      404 {object} types.Response "User not found"
// @Router       /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "Login"))

	var req LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, LoginResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		User:      res.User,
	})
}

// Me godoc
// @Summary      Current user
// @Tags         Auth
// @Produce      json
// @Success      200 {object} types.UserProfile
// @Failure      401 {object} types.Response "Unauthorized"
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, MsgInvalidToken)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, user)
}

// Logout godoc
// @Summary      Logout
// @Description  Acknowledges logout. Tokens stay valid until they expire.
// @Tags         Auth
// @Produce      json
// @Success      200 {object} types.Response
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Message: "Logged out successfully"})
}

// ChangePassword godoc
// @Summary      Change password
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        passwords body ChangePasswordRequest true "Current and new password"
// @Success      200 {object} types.Response
// @Failure      400 {object} types.Response "Invalid Input"
// @Failure      401 {object} types.Response "Unauthorized"
// @Security     BearerAuth
// @Router       /users/change-password [put]
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "ChangePassword"))

	userID, ok := GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, MsgInvalidToken)
		return
	}

	var req ChangePasswordRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.ChangePassword(ctx, userID, req.CurrentPassword, req.NewPassword); err != nil {
		h.writeError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Message: "Password changed successfully"})
}

// ForgotPassword godoc
// @Summary      Request a password reset
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        email body ForgotPasswordRequest true "Account email"
// @Success      200 {object} ForgotPasswordResponse
// @Failure      404 {object} types.Response "User not found"
// @Router       /users/forgot-password [post]
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ForgotPasswordRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ticket, err := h.service.ForgotPassword(ctx, req.Email)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := ForgotPasswordResponse{Message: "Password reset token generated"}
	if h.exposeResetToken {
		resp.ResetToken = ticket.Token
		resp.ExpiresAt = &ticket.ExpiresAt
	}
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// ResetPassword godoc
// @Summary      Complete a password reset
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        reset body ResetPasswordRequest true "Reset token and new password"
// @Success      200 {object} types.Response
// @Failure      400 {object} types.Response "Invalid or expired reset token"
// @Router       /users/reset-password [post]
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		h.writeError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Message: "Password reset successfully"})
}
