package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/ocop-products/internal/api"
	"github.com/FACorreiaa/ocop-products/internal/types"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

var ErrSelfModification = errors.New("cannot change own status or role")

// UpdateStatusRequest activates or deactivates an account.
type UpdateStatusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=Admin Manager User"`
}

// Ensure implementation satisfies the interface
var _ UserService = (*UserServiceImpl)(nil)

// UserService defines the business logic contract for user operations.
type UserService interface {
	GetUserProfile(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error)
	UpdateUserProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) (*types.UserProfile, error)
	ListUsers(ctx context.Context, filter types.UserFilter) (*types.UserList, error)
	// AllUsers returns every account, newest first.
	AllUsers(ctx context.Context) ([]types.UserProfile, error)
	SetUserStatus(ctx context.Context, actorID, userID uuid.UUID, active bool) (*types.UserProfile, error)
	SetUserRole(ctx context.Context, actorID, userID uuid.UUID, role string) (*types.UserProfile, error)
}

type UserServiceImpl struct {
	logger *slog.Logger
	repo   UserRepo
}

func NewUserService(repo UserRepo, logger *slog.Logger) *UserServiceImpl {
	return &UserServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

func (s *UserServiceImpl) GetUserProfile(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "GetUserProfile", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to fetch user profile")
		return nil, fmt.Errorf("error fetching user profile: %w", err)
	}
	span.SetStatus(codes.Ok, "User profile fetched")
	return u.Profile(), nil
}

func (s *UserServiceImpl) UpdateUserProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) (*types.UserProfile, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "UpdateUserProfile", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "UpdateUserProfile"), slog.String("userID", userID.String()))

	if err := api.Validate(params); err != nil {
		span.SetStatus(codes.Error, "Validation failed")
		return nil, err
	}

	u, err := s.repo.UpdateProfile(ctx, userID, params)
	if err != nil {
		l.ErrorContext(ctx, "Failed to update user profile", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update user profile")
		return nil, fmt.Errorf("error updating user profile: %w", err)
	}

	l.InfoContext(ctx, "User profile updated successfully")
	span.SetStatus(codes.Ok, "User profile updated")
	return u.Profile(), nil
}

func normalizeFilter(f types.UserFilter) types.UserFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultPageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	return f
}

func (s *UserServiceImpl) ListUsers(ctx context.Context, filter types.UserFilter) (*types.UserList, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "ListUsers")
	defer span.End()

	filter = normalizeFilter(filter)
	users, total, err := s.repo.ListUsers(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list users")
		return nil, fmt.Errorf("error listing users: %w", err)
	}

	profiles := make([]types.UserProfile, 0, len(users))
	for i := range users {
		profiles = append(profiles, *users[i].Profile())
	}
	return &types.UserList{
		Users:      profiles,
		Pagination: types.NewPagination(total, filter.Page, filter.Limit),
	}, nil
}

func (s *UserServiceImpl) AllUsers(ctx context.Context) ([]types.UserProfile, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "AllUsers")
	defer span.End()

	users, _, err := s.repo.ListUsers(ctx, types.UserFilter{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load users")
		return nil, fmt.Errorf("error loading users: %w", err)
	}
	profiles := make([]types.UserProfile, 0, len(users))
	for i := range users {
		profiles = append(profiles, *users[i].Profile())
	}
	return profiles, nil
}

// SetUserStatus flips the active flag. An admin cannot deactivate
// themselves, which would lock them out mid-session.
func (s *UserServiceImpl) SetUserStatus(ctx context.Context, actorID, userID uuid.UUID, active bool) (*types.UserProfile, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "SetUserStatus", trace.WithAttributes(
		attribute.String("actor.id", actorID.String()),
		attribute.String("user.id", userID.String()),
		attribute.Bool("active", active),
	))
	defer span.End()

	if actorID == userID && !active {
		span.SetStatus(codes.Error, "Self deactivation")
		return nil, ErrSelfModification
	}

	u, err := s.repo.SetActive(ctx, userID, active)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update status")
		return nil, fmt.Errorf("error updating user status: %w", err)
	}

	s.logger.InfoContext(ctx, "User status changed",
		slog.String("actorID", actorID.String()),
		slog.String("userID", userID.String()),
		slog.Bool("active", active))
	return u.Profile(), nil
}

func (s *UserServiceImpl) SetUserRole(ctx context.Context, actorID, userID uuid.UUID, role string) (*types.UserProfile, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "SetUserRole", trace.WithAttributes(
		attribute.String("actor.id", actorID.String()),
		attribute.String("user.id", userID.String()),
		attribute.String("role", role),
	))
	defer span.End()

	if err := api.Validate(UpdateRoleRequest{Role: role}); err != nil {
		return nil, err
	}
	if actorID == userID {
		span.SetStatus(codes.Error, "Self role change")
		return nil, ErrSelfModification
	}

	u, err := s.repo.SetRole(ctx, userID, role)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update role")
		return nil, fmt.Errorf("error updating user role: %w", err)
	}

	s.logger.InfoContext(ctx, "User role changed",
		slog.String("actorID", actorID.String()),
		slog.String("userID", userID.String()),
		slog.String("role", role))
	return u.Profile(), nil
}
