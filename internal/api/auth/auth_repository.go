package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/ocop-products/app/db"
	"github.com/FACorreiaa/ocop-products/internal/types"
)

var _ AuthRepo = (*PostgresAuthRepo)(nil)

// AuthRepo is the credential store. Lookups return types.ErrNotFound when no
// row matches.
type AuthRepo interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error)
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
	// GetUserByResetToken only matches tokens whose expiry is after now.
	GetUserByResetToken(ctx context.Context, token string, now time.Time) (*types.User, error)
	// CreateUser returns types.ErrConflict when the email is taken.
	CreateUser(ctx context.Context, u NewUser) (*types.User, error)
	UpdateLastLogin(ctx context.Context, userID uuid.UUID, at time.Time) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	SetResetToken(ctx context.Context, userID uuid.UUID, token string, expires time.Time) error
	// CompletePasswordReset swaps the hash and clears the reset pair in one
	// statement, provided the token is still live at now.
	CompletePasswordReset(ctx context.Context, token, passwordHash string, now time.Time) (uuid.UUID, error)
	HasUserWithRole(ctx context.Context, role string) (bool, error)
}

// UserColumns is the projection ScanUser expects, in order.
const UserColumns = `id, name, email, COALESCE(phone, ''), password_hash, role,
	COALESCE(avatar, ''), COALESCE(address, ''), is_active,
	reset_password_token, reset_password_expires, last_login_at,
	created_at, updated_at`

// ScanUser reads one row selected with UserColumns.
func ScanUser(row pgx.Row) (*types.User, error) {
	var u types.User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.Role,
		&u.Avatar, &u.Address, &u.IsActive,
		&u.ResetPasswordToken, &u.ResetPasswordExpires, &u.LastLoginAt,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

type PostgresAuthRepo struct {
	logger *slog.Logger
	db     database.Querier
}

func NewPostgresAuthRepo(db database.Querier, logger *slog.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger: logger,
		db:     db,
	}
}

func startSpan(ctx context.Context, name, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", op),
		attribute.String("db.sql.table", "users"),
	)
	return otel.Tracer("AuthRepo").Start(ctx, name, trace.WithAttributes(attrs...))
}

func (r *PostgresAuthRepo) getOne(ctx context.Context, span trace.Span, query string, args ...any) (*types.User, error) {
	u, err := ScanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "DB query failed")
			return nil, fmt.Errorf("database error fetching user: %w", err)
		}
		return nil, err
	}
	return u, nil
}

func (r *PostgresAuthRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	ctx, span := startSpan(ctx, "GetUserByID", "SELECT", attribute.String("db.user.id", userID.String()))
	defer span.End()
	return r.getOne(ctx, span, `SELECT `+UserColumns+` FROM users WHERE id = $1`, userID)
}

func (r *PostgresAuthRepo) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	ctx, span := startSpan(ctx, "GetUserByEmail", "SELECT")
	defer span.End()
	return r.getOne(ctx, span, `SELECT `+UserColumns+` FROM users WHERE email = $1`, email)
}

func (r *PostgresAuthRepo) GetUserByResetToken(ctx context.Context, token string, now time.Time) (*types.User, error) {
	ctx, span := startSpan(ctx, "GetUserByResetToken", "SELECT")
	defer span.End()
	return r.getOne(ctx, span,
		`SELECT `+UserColumns+` FROM users WHERE reset_password_token = $1 AND reset_password_expires > $2`,
		token, now)
}

func (r *PostgresAuthRepo) CreateUser(ctx context.Context, nu NewUser) (*types.User, error) {
	ctx, span := startSpan(ctx, "CreateUser", "INSERT")
	defer span.End()

	l := r.logger.With(slog.String("method", "CreateUser"))

	query := `
		INSERT INTO users (name, email, phone, address, password_hash, role, is_active)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, TRUE)
		RETURNING ` + UserColumns
	u, err := ScanUser(r.db.QueryRow(ctx, query, nu.Name, nu.Email, nu.Phone, nu.Address, nu.PasswordHash, nu.Role))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			l.WarnContext(ctx, "Email already registered")
			span.SetStatus(codes.Error, "Duplicate email")
			return nil, fmt.Errorf("email already registered: %w", types.ErrConflict)
		}
		l.ErrorContext(ctx, "Failed to insert user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB insert failed")
		return nil, fmt.Errorf("database error creating user: %w", err)
	}

	span.SetAttributes(attribute.String("db.user.id", u.ID.String()))
	span.SetStatus(codes.Ok, "User created")
	return u, nil
}

func (r *PostgresAuthRepo) exec(ctx context.Context, span trace.Span, query string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB update failed")
		return fmt.Errorf("database error updating user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *PostgresAuthRepo) UpdateLastLogin(ctx context.Context, userID uuid.UUID, at time.Time) error {
	ctx, span := startSpan(ctx, "UpdateLastLogin", "UPDATE", attribute.String("db.user.id", userID.String()))
	defer span.End()
	return r.exec(ctx, span, `UPDATE users SET last_login_at = $2 WHERE id = $1`, userID, at)
}

func (r *PostgresAuthRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	ctx, span := startSpan(ctx, "UpdatePassword", "UPDATE", attribute.String("db.user.id", userID.String()))
	defer span.End()
	return r.exec(ctx, span,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
		userID, passwordHash)
}

func (r *PostgresAuthRepo) SetResetToken(ctx context.Context, userID uuid.UUID, token string, expires time.Time) error {
	ctx, span := startSpan(ctx, "SetResetToken", "UPDATE", attribute.String("db.user.id", userID.String()))
	defer span.End()
	return r.exec(ctx, span,
		`UPDATE users SET reset_password_token = $2, reset_password_expires = $3 WHERE id = $1`,
		userID, token, expires)
}

func (r *PostgresAuthRepo) CompletePasswordReset(ctx context.Context, token, passwordHash string, now time.Time) (uuid.UUID, error) {
	ctx, span := startSpan(ctx, "CompletePasswordReset", "UPDATE")
	defer span.End()

	var id uuid.UUID
	err := r.db.QueryRow(ctx, `
		UPDATE users
		SET password_hash = $2,
		    reset_password_token = NULL,
		    reset_password_expires = NULL,
		    updated_at = $3
		WHERE reset_password_token = $1 AND reset_password_expires > $3
		RETURNING id`, token, passwordHash, now).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, types.ErrNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB update failed")
		return uuid.Nil, fmt.Errorf("database error completing reset: %w", err)
	}
	span.SetStatus(codes.Ok, "Password reset")
	return id, nil
}

func (r *PostgresAuthRepo) HasUserWithRole(ctx context.Context, role string) (bool, error) {
	ctx, span := startSpan(ctx, "HasUserWithRole", "SELECT", attribute.String("role", role))
	defer span.End()

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE role = $1)`, role).Scan(&exists); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return false, fmt.Errorf("database error checking role: %w", err)
	}
	return exists, nil
}
