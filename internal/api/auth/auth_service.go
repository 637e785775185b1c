package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/ocop-products/app/observability/metrics"
	"github.com/FACorreiaa/ocop-products/config"
	"github.com/FACorreiaa/ocop-products/internal/api"
	"github.com/FACorreiaa/ocop-products/internal/types"
	"github.com/FACorreiaa/ocop-products/pkg/password"
	"github.com/FACorreiaa/ocop-products/pkg/token"
)

const resetTokenBytes = 32

var _ AuthService = (*AuthServiceImpl)(nil)

type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*types.UserProfile, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error
	ForgotPassword(ctx context.Context, email string) (*ResetTicket, error)
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
	EnsureDefaultAdmin(ctx context.Context, admin config.DefaultAdminConfig) (bool, error)
}

type AuthServiceImpl struct {
	logger   *slog.Logger
	repo     AuthRepo
	hasher   *password.Hasher
	tokens   *token.Manager
	resetTTL time.Duration
	metrics  *metrics.AppMetrics
	now      func() time.Time
}

func NewAuthService(repo AuthRepo, hasher *password.Hasher, tokens *token.Manager, resetTTL time.Duration, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger:   logger,
		repo:     repo,
		hasher:   hasher,
		tokens:   tokens,
		resetTTL: resetTTL,
		metrics:  metrics.Get(),
		now:      time.Now,
	}
}

func failSpan(span trace.Span, err error, msg string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
}

func (s *AuthServiceImpl) hash(plaintext string) (string, error) {
	digest, err := s.hasher.Hash(plaintext)
	if errors.Is(err, password.ErrPasswordTooLong) {
		return "", types.NewValidationError("password", "Password must be at most 72 bytes long")
	}
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return digest, nil
}

func (s *AuthServiceImpl) Register(ctx context.Context, req RegisterRequest) (_ *types.UserProfile, err error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Register")
	defer span.End()
	start := s.now()
	defer func() { s.metrics.RecordRegister(ctx, time.Since(start), err) }()

	l := s.logger.With(slog.String("method", "Register"))

	if err = api.Validate(req); err != nil {
		span.SetStatus(codes.Error, "Validation failed")
		return nil, err
	}

	digest, err := s.hash(req.Password)
	if err != nil {
		failSpan(span, err, "Hash failed")
		return nil, err
	}

	u, err := s.repo.CreateUser(ctx, NewUser{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Address:      req.Address,
		PasswordHash: digest,
		Role:         types.RoleUser,
	})
	if err != nil {
		failSpan(span, err, "Create user failed")
		if errors.Is(err, types.ErrConflict) {
			return nil, err
		}
		l.ErrorContext(ctx, "Failed to create user", slog.Any("error", err))
		return nil, fmt.Errorf("creating user: %w", err)
	}

	l.InfoContext(ctx, "User registered", slog.String("userID", u.ID.String()))
	span.SetAttributes(attribute.String("user.id", u.ID.String()))
	span.SetStatus(codes.Ok, "User registered")
	return u.Profile(), nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, email, pw string) (*LoginResult, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Login")
	defer span.End()

	l := s.logger.With(slog.String("method", "Login"))

	if err := api.Validate(LoginRequest{Email: email, Password: pw}); err != nil {
		s.metrics.RecordLogin(ctx, "invalid_input")
		return nil, err
	}

	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			s.metrics.RecordLogin(ctx, "unknown_user")
			span.SetStatus(codes.Error, "User not found")
			return nil, ErrUserNotFound
		}
		failSpan(span, err, "Lookup failed")
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	span.SetAttributes(attribute.String("user.id", u.ID.String()))

	if !u.IsActive {
		s.metrics.RecordLogin(ctx, "deactivated")
		span.SetStatus(codes.Error, "Account deactivated")
		return nil, ErrAccountDeactivated
	}
	if !s.hasher.Verify(pw, u.PasswordHash) {
		s.metrics.RecordLogin(ctx, "bad_password")
		l.WarnContext(ctx, "Invalid password", slog.String("userID", u.ID.String()))
		span.SetStatus(codes.Error, "Invalid password")
		return nil, ErrInvalidPassword
	}

	now := s.now()
	if err = s.repo.UpdateLastLogin(ctx, u.ID, now); err != nil {
		failSpan(span, err, "Update last login failed")
		return nil, fmt.Errorf("updating last login: %w", err)
	}
	u.LastLoginAt = &now

	signed, expiresAt, err := s.tokens.Issue(u.ID.String(), u.Role, u.Email)
	if err != nil {
		failSpan(span, err, "Token issue failed")
		return nil, fmt.Errorf("issuing token: %w", err)
	}

	s.metrics.RecordLogin(ctx, "ok")
	span.SetStatus(codes.Ok, "Login succeeded")
	return &LoginResult{Token: signed, ExpiresAt: expiresAt, User: u.Profile()}, nil
}

func (s *AuthServiceImpl) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "ChangePassword", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	if err := api.Validate(ChangePasswordRequest{CurrentPassword: currentPassword, NewPassword: newPassword}); err != nil {
		return err
	}

	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return ErrUserNotFound
		}
		failSpan(span, err, "Lookup failed")
		return fmt.Errorf("looking up user: %w", err)
	}
	if !s.hasher.Verify(currentPassword, u.PasswordHash) {
		span.SetStatus(codes.Error, "Current password mismatch")
		return ErrIncorrectCurrentPassword
	}

	digest, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	if err = s.repo.UpdatePassword(ctx, userID, digest); err != nil {
		failSpan(span, err, "Update failed")
		return fmt.Errorf("updating password: %w", err)
	}

	s.logger.InfoContext(ctx, "Password changed", slog.String("userID", userID.String()))
	span.SetStatus(codes.Ok, "Password changed")
	return nil
}

func newResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func (s *AuthServiceImpl) ForgotPassword(ctx context.Context, email string) (*ResetTicket, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "ForgotPassword")
	defer span.End()

	if err := api.Validate(ForgotPasswordRequest{Email: email}); err != nil {
		return nil, err
	}

	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		failSpan(span, err, "Lookup failed")
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	tok, err := newResetToken()
	if err != nil {
		failSpan(span, err, "Token generation failed")
		return nil, err
	}
	expires := s.now().Add(s.resetTTL)
	if err = s.repo.SetResetToken(ctx, u.ID, tok, expires); err != nil {
		failSpan(span, err, "Storing token failed")
		return nil, fmt.Errorf("storing reset token: %w", err)
	}

	s.logger.InfoContext(ctx, "Password reset requested", slog.String("userID", u.ID.String()))
	span.SetStatus(codes.Ok, "Reset token issued")
	return &ResetTicket{Token: tok, ExpiresAt: expires}, nil
}

func (s *AuthServiceImpl) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "ResetPassword")
	defer span.End()

	if err := api.Validate(ResetPasswordRequest{Token: resetToken, NewPassword: newPassword}); err != nil {
		return err
	}

	now := s.now()
	if _, err := s.repo.GetUserByResetToken(ctx, resetToken, now); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			span.SetStatus(codes.Error, "Invalid reset token")
			return ErrInvalidResetToken
		}
		failSpan(span, err, "Lookup failed")
		return fmt.Errorf("looking up reset token: %w", err)
	}

	digest, err := s.hash(newPassword)
	if err != nil {
		return err
	}

	// the token may expire or be consumed between lookup and update
	id, err := s.repo.CompletePasswordReset(ctx, resetToken, digest, now)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			span.SetStatus(codes.Error, "Invalid reset token")
			return ErrInvalidResetToken
		}
		failSpan(span, err, "Reset failed")
		return fmt.Errorf("completing password reset: %w", err)
	}

	s.logger.InfoContext(ctx, "Password reset completed", slog.String("userID", id.String()))
	span.SetStatus(codes.Ok, "Password reset")
	return nil
}

// EnsureDefaultAdmin creates the configured admin account when no Admin
// exists yet. It reports whether an account was created.
func (s *AuthServiceImpl) EnsureDefaultAdmin(ctx context.Context, admin config.DefaultAdminConfig) (bool, error) {
	l := s.logger.With(slog.String("method", "EnsureDefaultAdmin"))
	if !admin.Enabled {
		return false, nil
	}

	exists, err := s.repo.HasUserWithRole(ctx, types.RoleAdmin)
	if err != nil {
		return false, err
	}
	if exists {
		l.InfoContext(ctx, "Admin user already exists")
		return false, nil
	}

	digest, err := s.hash(admin.Password)
	if err != nil {
		return false, err
	}
	u, err := s.repo.CreateUser(ctx, NewUser{
		Name:         admin.Name,
		Email:        admin.Email,
		Phone:        admin.Phone,
		Address:      admin.Address,
		PasswordHash: digest,
		Role:         types.RoleAdmin,
	})
	if err != nil {
		return false, fmt.Errorf("creating default admin: %w", err)
	}

	l.WarnContext(ctx, "Default admin user created, change its password after first login",
		slog.String("email", u.Email), slog.String("userID", u.ID.String()))
	return true, nil
}
