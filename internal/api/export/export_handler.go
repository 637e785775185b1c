// Package export serves catalog, account and dashboard snapshots as file
// downloads.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/ocop-products/internal/api"
	"github.com/FACorreiaa/ocop-products/internal/types"
)

var (
	productHeader = []string{"id", "name", "category", "description", "price", "stock", "createdAt", "updatedAt"}
	userHeader    = []string{"id", "name", "email", "phone", "role", "isActive", "createdAt", "lastLoginAt"}
)

type ProductSource interface {
	AllProducts(ctx context.Context) ([]types.Product, error)
}

type UserSource interface {
	AllUsers(ctx context.Context) ([]types.UserProfile, error)
}

type ReportSource interface {
	Report(ctx context.Context) (*types.DashboardReport, error)
}

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	ProductsCSV(w http.ResponseWriter, r *http.Request)
	UsersCSV(w http.ResponseWriter, r *http.Request)
	DashboardJSON(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	products ProductSource
	users    UserSource
	reports  ReportSource
	logger   *slog.Logger
}

func NewHandlerImpl(products ProductSource, users UserSource, reports ReportSource, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		products: products,
		users:    users,
		reports:  reports,
		logger:   logger,
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func productRecords(products []types.Product) [][]string {
	records := make([][]string, 0, len(products)+1)
	records = append(records, productHeader)
	for _, p := range products {
		records = append(records, []string{
			p.ID.String(),
			p.Name,
			p.Category,
			p.Description,
			strconv.FormatFloat(p.Price, 'f', -1, 64),
			strconv.Itoa(p.Stock),
			formatTime(p.CreatedAt),
			formatTime(p.UpdatedAt),
		})
	}
	return records
}

func userRecords(users []types.UserProfile) [][]string {
	records := make([][]string, 0, len(users)+1)
	records = append(records, userHeader)
	for _, u := range users {
		lastLogin := ""
		if u.LastLoginAt != nil {
			lastLogin = formatTime(*u.LastLoginAt)
		}
		records = append(records, []string{
			u.ID.String(),
			u.Name,
			u.Email,
			u.Phone,
			u.Role,
			strconv.FormatBool(u.IsActive),
			formatTime(u.CreatedAt),
			lastLogin,
		})
	}
	return records
}

// writeCSV renders the whole file before touching w so a failure can still
// be reported as a JSON error.
func (h *HandlerImpl) writeCSV(w http.ResponseWriter, r *http.Request, filename string, records [][]string) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.WriteAll(records); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to render CSV", slog.String("file", filename), slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to write CSV", slog.String("file", filename), slog.Any("error", err))
	}
}

// ProductsCSV godoc
// @Summary      Export products
// @Description  Whole catalog as CSV. Admin or Manager.
// @Tags         Export
// @Produce      text/csv
// @Success      200 {file} file "products.csv"
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      403 {object} types.Response "Forbidden"
// @Security     BearerAuth
// @Router       /export/products/csv [get]
func (h *HandlerImpl) ProductsCSV(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ExportHandler").Start(r.Context(), "ProductsCSV")
	defer span.End()

	products, err := h.products.AllProducts(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Load failed")
		api.ServiceErrorResponse(w, r, err, "Not found")
		return
	}
	span.SetAttributes(attribute.Int("export.rows", len(products)))
	h.writeCSV(w, r, "products.csv", productRecords(products))
}

// UsersCSV godoc
// @Summary      Export users
// @Description  Every account as CSV, without credentials. Admin only.
// @Tags         Export
// @Produce      text/csv
// @Success      200 {file} file "users.csv"
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      403 {object} types.Response "Forbidden"
// @Security     BearerAuth
// @Router       /export/users/csv [get]
func (h *HandlerImpl) UsersCSV(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ExportHandler").Start(r.Context(), "UsersCSV")
	defer span.End()

	users, err := h.users.AllUsers(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Load failed")
		api.ServiceErrorResponse(w, r, err, "Not found")
		return
	}
	span.SetAttributes(attribute.Int("export.rows", len(users)))
	h.writeCSV(w, r, "users.csv", userRecords(users))
}

// DashboardJSON godoc
// @Summary      Export dashboard report
// @Description  Totals and category breakdown as a JSON download. Admin or Manager.
// @Tags         Export
// @Produce      json
// @Success      200 {object} types.DashboardReport
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      403 {object} types.Response "Forbidden"
// @Security     BearerAuth
// @Router       /export/dashboard/json [get]
func (h *HandlerImpl) DashboardJSON(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.Report(r.Context())
	if err != nil {
		api.ServiceErrorResponse(w, r, err, "Not found")
		return
	}
	w.Header().Set("Content-Disposition", "attachment; filename=dashboard-report.json")
	api.WriteJSONResponse(w, r, http.StatusOK, report)
}
