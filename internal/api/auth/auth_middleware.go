package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/FACorreiaa/ocop-products/app/observability/metrics"
	"github.com/FACorreiaa/ocop-products/internal/api"
	"github.com/FACorreiaa/ocop-products/internal/types"
	"github.com/FACorreiaa/ocop-products/pkg/token"
)

const (
	MsgNoToken            = "Access denied. No token provided."
	MsgInvalidToken       = "Invalid token or inactive user."
	MsgInsufficientAccess = "Access denied. Insufficient permissions."
)

type contextKey string

const userKey contextKey = "authUser"

// Outcome is the gate's verdict. The zero value is OutcomeUnauthenticated.
type Outcome int

const (
	OutcomeUnauthenticated Outcome = iota
	OutcomeForbidden
	OutcomeAllowed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAllowed:
		return "allowed"
	case OutcomeForbidden:
		return "forbidden"
	default:
		return "unauthenticated"
	}
}

// Reason records which step decided the outcome. It is never sent to clients.
type Reason string

const (
	ReasonOK           Reason = "ok"
	ReasonNoToken      Reason = "no_token"
	ReasonBadToken     Reason = "bad_token"
	ReasonUnknownUser  Reason = "unknown_user"
	ReasonLookupFailed Reason = "lookup_failed"
	ReasonInactiveUser Reason = "inactive_user"
	ReasonRoleDenied   Reason = "role_denied"
)

type Decision struct {
	Outcome Outcome
	Reason  Reason
	// User is set only when Outcome is OutcomeAllowed.
	User *types.UserProfile
}

// Message is the client-facing text for a rejected decision.
func (d Decision) Message() string {
	switch {
	case d.Outcome == OutcomeForbidden:
		return MsgInsufficientAccess
	case d.Reason == ReasonNoToken:
		return MsgNoToken
	default:
		return MsgInvalidToken
	}
}

func (d Decision) Status() int {
	switch d.Outcome {
	case OutcomeAllowed:
		return http.StatusOK
	case OutcomeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusUnauthorized
	}
}

// RoleSet is a route's allow-list. An empty set admits any authenticated user.
type RoleSet map[string]struct{}

func NewRoleSet(roles ...string) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// Permits matches role exactly, without case folding.
func (s RoleSet) Permits(role string) bool {
	if len(s) == 0 {
		return true
	}
	_, ok := s[role]
	return ok
}

type TokenVerifier interface {
	Verify(tokenString string) (*token.Claims, error)
}

type UserLookup interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error)
}

// Gate authenticates bearer tokens against the live user record and enforces
// per-route role allow-lists.
type Gate struct {
	tokens  TokenVerifier
	users   UserLookup
	logger  *slog.Logger
	metrics *metrics.AppMetrics
}

func NewGate(tokens TokenVerifier, users UserLookup, logger *slog.Logger) *Gate {
	return &Gate{
		tokens:  tokens,
		users:   users,
		logger:  logger,
		metrics: metrics.Get(),
	}
}

func bearerToken(header string) (tok string, present bool, ok bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false, false
	}
	scheme, rest, found := strings.Cut(header, " ")
	if !found {
		if strings.EqualFold(scheme, "bearer") {
			return "", false, false
		}
		return "", true, false
	}
	if !strings.EqualFold(scheme, "bearer") {
		return "", true, false
	}
	tok = strings.TrimSpace(rest)
	if tok == "" {
		return "", false, false
	}
	return tok, true, true
}

// Evaluate decides a request from its Authorization header alone. Its only
// side effect is one read of the user record.
func (g *Gate) Evaluate(ctx context.Context, authorization string, roles RoleSet) Decision {
	tok, present, ok := bearerToken(authorization)
	if !present {
		return Decision{Outcome: OutcomeUnauthenticated, Reason: ReasonNoToken}
	}
	if !ok {
		return Decision{Outcome: OutcomeUnauthenticated, Reason: ReasonBadToken}
	}

	claims, err := g.tokens.Verify(tok)
	if err != nil {
		g.logger.DebugContext(ctx, "Token verification failed", slog.Any("error", err))
		return Decision{Outcome: OutcomeUnauthenticated, Reason: ReasonBadToken}
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return Decision{Outcome: OutcomeUnauthenticated, Reason: ReasonBadToken}
	}

	u, err := g.users.GetUserByID(ctx, userID)
	switch {
	case errors.Is(err, types.ErrNotFound):
		return Decision{Outcome: OutcomeUnauthenticated, Reason: ReasonUnknownUser}
	case err != nil:
		g.logger.ErrorContext(ctx, "User lookup failed in auth gate",
			slog.String("userID", userID.String()), slog.Any("error", err))
		return Decision{Outcome: OutcomeUnauthenticated, Reason: ReasonLookupFailed}
	case u == nil:
		return Decision{Outcome: OutcomeUnauthenticated, Reason: ReasonUnknownUser}
	case !u.IsActive:
		return Decision{Outcome: OutcomeUnauthenticated, Reason: ReasonInactiveUser}
	}

	if !roles.Permits(u.Role) {
		return Decision{Outcome: OutcomeForbidden, Reason: ReasonRoleDenied}
	}
	return Decision{Outcome: OutcomeAllowed, Reason: ReasonOK, User: u.Profile()}
}

// Require returns middleware admitting only active users whose live role is
// in roles. With no roles, any authenticated user passes.
func (g *Gate) Require(roles ...string) func(next http.Handler) http.Handler {
	allowed := NewRoleSet(roles...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := otel.Tracer("AuthGate").Start(r.Context(), "Require")
			defer span.End()

			d := g.Evaluate(ctx, r.Header.Get("Authorization"), allowed)
			span.SetAttributes(
				attribute.String("auth.outcome", d.Outcome.String()),
				attribute.String("auth.reason", string(d.Reason)),
			)
			g.metrics.RecordGateDecision(ctx, d.Outcome.String())

			if d.Outcome != OutcomeAllowed {
				g.logger.WarnContext(ctx, "Request rejected by auth gate",
					slog.String("path", r.URL.Path),
					slog.String("outcome", d.Outcome.String()),
					slog.String("reason", string(d.Reason)),
				)
				if d.Outcome == OutcomeUnauthenticated {
					w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				}
				api.ErrorResponse(w, r, d.Status(), d.Message())
				return
			}

			span.SetAttributes(attribute.String("user.id", d.User.ID.String()))
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), d.User)))
		})
	}
}

func WithUser(ctx context.Context, u *types.UserProfile) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the user attached by the gate.
func UserFromContext(ctx context.Context) (*types.UserProfile, bool) {
	u, ok := ctx.Value(userKey).(*types.UserProfile)
	return u, ok && u != nil
}

func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	u, ok := UserFromContext(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return u.ID, true
}
