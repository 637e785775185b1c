package auth

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/ocop-products/internal/types"
)

var (
	ErrUserNotFound             = errors.New("user not found")
	ErrAccountDeactivated       = errors.New("account is deactivated")
	ErrInvalidPassword          = errors.New("invalid password")
	ErrIncorrectCurrentPassword = errors.New("current password is incorrect")
	ErrInvalidResetToken        = errors.New("invalid or expired reset token")
)

// RegisterRequest is the self-registration body. Role is accepted for client
// compatibility but ignored: new accounts always get RoleUser.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,emailpattern,max=255"`
	Phone    string `json:"phone" validate:"max=32"`
	Address  string `json:"address" validate:"max=1000"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role,omitempty"`
}

type RegisterResponse struct {
	Message string             `json:"message"`
	UserID  uuid.UUID          `json:"userId"`
	User    *types.UserProfile `json:"user"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required,max=72"`
}

// LoginResult is what AuthService.Login hands back to the handler.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *types.UserProfile
}

type LoginResponse struct {
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expiresAt"`
	User      *types.UserProfile `json:"user"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=72"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required"`
}

// ResetTicket is the outcome of a forgot-password request.
type ResetTicket struct {
	Token     string
	ExpiresAt time.Time
}

type ForgotPasswordResponse struct {
	Message    string     `json:"message"`
	ResetToken string     `json:"resetToken,omitempty"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=72"`
}

// NewUser carries the fields persisted at account creation.
type NewUser struct {
	Name         string
	Email        string
	Phone        string
	Address      string
	PasswordHash string
	Role         string
}
