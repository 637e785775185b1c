package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/FACorreiaa/ocop-products/internal/api"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	Overview(w http.ResponseWriter, r *http.Request)
	ProductStats(w http.ResponseWriter, r *http.Request)
	UserStats(w http.ResponseWriter, r *http.Request)
	RecentActivity(w http.ResponseWriter, r *http.Request)
	GrowthStats(w http.ResponseWriter, r *http.Request)
	Stats(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	dashboardService DashboardService
	logger           *slog.Logger
}

func NewHandlerImpl(dashboardService DashboardService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

func (h *HandlerImpl) respond(w http.ResponseWriter, r *http.Request, data interface{}, err error) {
	if err != nil {
		api.ServiceErrorResponse(w, r, err, "Not found")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, data)
}

// Overview godoc
// @Summary      Dashboard overview
// @Description  User and product totals, low stock count and 30 day activity. Admin or Manager.
// @Tags         Dashboard
// @Produce      json
// @Success      200 {object} types.DashboardOverview
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      403 {object} types.Response "Forbidden"
// @Security     BearerAuth
// @Router       /dashboard/overview [get]
func (h *HandlerImpl) Overview(w http.ResponseWriter, r *http.Request) {
	o, err := h.dashboardService.Overview(r.Context())
	h.respond(w, r, o, err)
}

// ProductStats godoc
// @Summary      Product statistics per category
// @Tags         Dashboard
// @Produce      json
// @Success      200 {array} types.CategoryStat
// @Security     BearerAuth
// @Router       /dashboard/product-stats [get]
func (h *HandlerImpl) ProductStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboardService.ProductStats(r.Context())
	h.respond(w, r, stats, err)
}

// UserStats godoc
// @Summary      User count per role
// @Description  Admin only.
// @Tags         Dashboard
// @Produce      json
// @Success      200 {array} types.RoleStat
// @Security     BearerAuth
// @Router       /dashboard/user-stats [get]
func (h *HandlerImpl) UserStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboardService.UserStats(r.Context())
	h.respond(w, r, stats, err)
}

// RecentActivity godoc
// @Summary      Recent activity timeline
// @Tags         Dashboard
// @Produce      json
// @Param        limit query int false "Maximum entries" default(20)
// @Success      200 {array} types.Activity
// @Security     BearerAuth
// @Router       /dashboard/recent-activity [get]
func (h *HandlerImpl) RecentActivity(w http.ResponseWriter, r *http.Request) {
	acts, err := h.dashboardService.RecentActivity(r.Context(), api.QueryInt(r, "limit", DefaultActivityLimit))
	h.respond(w, r, acts, err)
}

// GrowthStats godoc
// @Summary      Monthly growth
// @Description  Users and products created per month (YYYY-MM).
// @Tags         Dashboard
// @Produce      json
// @Param        months query int false "Months to look back" default(6)
// @Success      200 {object} types.GrowthStats
// @Security     BearerAuth
// @Router       /dashboard/growth-stats [get]
func (h *HandlerImpl) GrowthStats(w http.ResponseWriter, r *http.Request) {
	g, err := h.dashboardService.GrowthStats(r.Context(), api.QueryInt(r, "months", DefaultGrowthMonths))
	h.respond(w, r, g, err)
}

// Stats godoc
// @Summary      Overview with category breakdown
// @Tags         Dashboard
// @Produce      json
// @Success      200 {object} types.DashboardStats
// @Security     BearerAuth
// @Router       /dashboard/stats [get]
func (h *HandlerImpl) Stats(w http.ResponseWriter, r *http.Request) {
	s, err := h.dashboardService.Stats(r.Context())
	h.respond(w, r, s, err)
}
