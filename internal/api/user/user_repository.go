package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/ocop-products/app/db"
	"github.com/FACorreiaa/ocop-products/internal/api/auth"
	"github.com/FACorreiaa/ocop-products/internal/types"
)

var _ UserRepo = (*PostgresUserRepo)(nil)

// UserRepo defines the contract for user data persistence outside the
// credential flows.
type UserRepo interface {
	// GetUserByID returns types.ErrNotFound if the user doesn't exist.
	GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error)
	// UpdateProfile updates only the non-nil fields of params.
	UpdateProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) (*types.User, error)
	// ListUsers returns one page, newest first, and the total matching count.
	// A zero filter.Limit returns every match.
	ListUsers(ctx context.Context, filter types.UserFilter) ([]types.User, int64, error)
	SetActive(ctx context.Context, userID uuid.UUID, active bool) (*types.User, error)
	SetRole(ctx context.Context, userID uuid.UUID, role string) (*types.User, error)
}

type PostgresUserRepo struct {
	logger *slog.Logger
	db     database.Querier
}

func NewPostgresUserRepo(db database.Querier, logger *slog.Logger) *PostgresUserRepo {
	return &PostgresUserRepo{
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
	return otel.Tracer("UserRepo").Start(ctx, name, trace.WithAttributes(attrs...))
}

func (r *PostgresUserRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	ctx, span := startSpan(ctx, "GetUserByID", "SELECT", attribute.String("db.user.id", userID.String()))
	defer span.End()

	u, err := auth.ScanUser(r.db.QueryRow(ctx, `SELECT `+auth.UserColumns+` FROM users WHERE id = $1`, userID))
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

func (r *PostgresUserRepo) UpdateProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) (*types.User, error) {
	ctx, span := startSpan(ctx, "UpdateProfile", "UPDATE", attribute.String("db.user.id", userID.String()))
	defer span.End()

	l := r.logger.With(slog.String("method", "UpdateProfile"), slog.String("userID", userID.String()))

	var setClauses []string
	var args []interface{}
	argID := 1

	add := func(column string, value *string) {
		if value == nil {
			return
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argID))
		args = append(args, *value)
		argID++
		span.SetAttributes(attribute.Bool("update."+column, true))
	}
	add("name", params.Name)
	add("phone", params.Phone)
	add("address", params.Address)
	add("avatar", params.Avatar)

	if len(setClauses) == 0 {
		l.InfoContext(ctx, "No fields provided for profile update")
		return r.GetUserByID(ctx, userID)
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, userID)
	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), argID, auth.UserColumns)

	u, err := auth.ScanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			l.WarnContext(ctx, "User not found for update")
			span.SetStatus(codes.Error, "User not found")
			return nil, err
		}
		l.ErrorContext(ctx, "Failed to update user profile", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB update failed")
		return nil, fmt.Errorf("database error updating profile: %w", err)
	}

	span.SetStatus(codes.Ok, "Profile updated")
	return u, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *PostgresUserRepo) ListUsers(ctx context.Context, filter types.UserFilter) ([]types.User, int64, error) {
	ctx, span := startSpan(ctx, "ListUsers", "SELECT",
		attribute.Int("page", filter.Page), attribute.Int("limit", filter.Limit))
	defer span.End()

	var where []string
	var args []interface{}
	if filter.Search != "" {
		args = append(args, "%"+likeEscaper.Replace(filter.Search)+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", len(args), len(args)))
	}
	if filter.Role != "" {
		args = append(args, filter.Role)
		where = append(where, fmt.Sprintf("role = $%d", len(args)))
	}
	whereSQL := ""
	if len(where) > 0 {
		whereSQL = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`+whereSQL, args...).Scan(&total); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB count failed")
		return nil, 0, fmt.Errorf("database error counting users: %w", err)
	}

	query := `SELECT ` + auth.UserColumns + ` FROM users` + whereSQL + ` ORDER BY created_at DESC, id DESC`
	pageArgs := append([]interface{}{}, args...)
	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		pageArgs = append(pageArgs, filter.Limit, (page-1)*filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	}

	rows, err := r.db.Query(ctx, query, pageArgs...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, 0, fmt.Errorf("database error listing users: %w", err)
	}
	defer rows.Close()

	users := make([]types.User, 0, filter.Limit)
	for rows.Next() {
		u, err := auth.ScanUser(rows)
		if err != nil {
			span.RecordError(err)
			return nil, 0, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err = rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Row iteration failed")
		return nil, 0, fmt.Errorf("iterating user rows: %w", err)
	}

	span.SetAttributes(attribute.Int64("result.total", total))
	return users, total, nil
}

func (r *PostgresUserRepo) updateOne(ctx context.Context, span trace.Span, query string, args ...interface{}) (*types.User, error) {
	u, err := auth.ScanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB update failed")
		return nil, fmt.Errorf("database error updating user: %w", err)
	}
	return u, nil
}

func (r *PostgresUserRepo) SetActive(ctx context.Context, userID uuid.UUID, active bool) (*types.User, error) {
	ctx, span := startSpan(ctx, "SetActive", "UPDATE",
		attribute.String("db.user.id", userID.String()), attribute.Bool("active", active))
	defer span.End()
	return r.updateOne(ctx, span,
		`UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1 RETURNING `+auth.UserColumns,
		userID, active)
}

func (r *PostgresUserRepo) SetRole(ctx context.Context, userID uuid.UUID, role string) (*types.User, error) {
	ctx, span := startSpan(ctx, "SetRole", "UPDATE",
		attribute.String("db.user.id", userID.String()), attribute.String("role", role))
	defer span.End()
	return r.updateOne(ctx, span,
		`UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1 RETURNING `+auth.UserColumns,
		userID, role)
}
