package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	appLogger "github.com/FACorreiaa/ocop-products/app/logger"
	appMiddleware "github.com/FACorreiaa/ocop-products/app/middleware"
	"github.com/FACorreiaa/ocop-products/app/observability/metrics"
	"github.com/FACorreiaa/ocop-products/internal/api"
	"github.com/FACorreiaa/ocop-products/internal/api/auth"
	"github.com/FACorreiaa/ocop-products/internal/api/dashboard"
	"github.com/FACorreiaa/ocop-products/internal/api/export"
	"github.com/FACorreiaa/ocop-products/internal/api/product"
	"github.com/FACorreiaa/ocop-products/internal/api/user"
	"github.com/FACorreiaa/ocop-products/internal/types"
)

// Config contains dependencies needed for the router setup
type Config struct {
	AuthHandler      *auth.AuthHandler
	UserHandler      *user.HandlerImpl
	ProductHandler   *product.HandlerImpl
	DashboardHandler *dashboard.HandlerImpl
	ExportHandler    *export.HandlerImpl
	Gate             *auth.Gate

	Logger         *slog.Logger
	Metrics        *metrics.AppMetrics
	MetricsHandler http.Handler // served on /metrics when set
	AllowedOrigins []string
	Timeout        time.Duration
	ServiceName    string
	Now            func() time.Time
}

// Route allow-lists.
var (
	staff     = []string{types.RoleAdmin, types.RoleManager}
	adminOnly = []string{types.RoleAdmin}
)

// SetupRouter builds the server-wide middleware stack and mounts every route.
func SetupRouter(cfg *Config) chi.Router {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appLogger.StructuredLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Compress(5, "application/json", "text/csv"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any major browsers
	}))
	r.Use(appMiddleware.HTTPMetrics(cfg.Metrics))
	if cfg.ServiceName != "" {
		r.Use(func(next http.Handler) http.Handler {
			return otelhttp.NewHandler(next, cfg.ServiceName)
		})
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.ErrorResponse(w, r, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		api.ErrorResponse(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("OCOP Website Running"))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	gate := cfg.Gate
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{
				"status":    "OK",
				"timestamp": now().UTC(),
			})
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", cfg.AuthHandler.Register)
			r.Post("/login", cfg.AuthHandler.Login)
			r.Post("/forgot-password", cfg.AuthHandler.ForgotPassword)
			r.Post("/reset-password", cfg.AuthHandler.ResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(gate.Require())
				r.Get("/me", cfg.AuthHandler.Me)
				r.Post("/logout", cfg.AuthHandler.Logout)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/forgot-password", cfg.AuthHandler.ForgotPassword)
			r.Post("/reset-password", cfg.AuthHandler.ResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(gate.Require())
				r.Get("/profile", cfg.UserHandler.GetUserProfile)
				r.Put("/profile", cfg.UserHandler.UpdateUserProfile)
				r.Put("/change-password", cfg.AuthHandler.ChangePassword)
			})

			r.Group(func(r chi.Router) {
				r.Use(gate.Require(adminOnly...))
				r.Get("/", cfg.UserHandler.ListUsers)
				r.Put("/{id}/status", cfg.UserHandler.UpdateUserStatus)
				r.Put("/{id}/role", cfg.UserHandler.UpdateUserRole)
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", cfg.ProductHandler.ListProducts)
			r.Get("/{id}", cfg.ProductHandler.GetProduct)

			r.With(gate.Require(staff...)).Post("/", cfg.ProductHandler.CreateProduct)
			r.With(gate.Require(staff...)).Put("/{id}", cfg.ProductHandler.UpdateProduct)
			r.With(gate.Require(adminOnly...)).Delete("/{id}", cfg.ProductHandler.DeleteProduct)
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(gate.Require(staff...))
				r.Get("/overview", cfg.DashboardHandler.Overview)
				r.Get("/stats", cfg.DashboardHandler.Stats)
				r.Get("/product-stats", cfg.DashboardHandler.ProductStats)
				r.Get("/recent-activity", cfg.DashboardHandler.RecentActivity)
				r.Get("/growth-stats", cfg.DashboardHandler.GrowthStats)
			})
			r.With(gate.Require(adminOnly...)).Get("/user-stats", cfg.DashboardHandler.UserStats)
		})

		r.Route("/export", func(r chi.Router) {
			r.With(gate.Require(staff...)).Get("/products/csv", cfg.ExportHandler.ProductsCSV)
			r.With(gate.Require(adminOnly...)).Get("/users/csv", cfg.ExportHandler.UsersCSV)
			r.With(gate.Require(staff...)).Get("/dashboard/json", cfg.ExportHandler.DashboardJSON)
		})
	})

	return r
}
