package types

import (
	"time"

	"github.com/google/uuid"
)

type UserTotals struct {
	Total  int64
	Active int64
	Recent int64
}

type ProductTotals struct {
	Total      int64
	LowStock   int64
	Recent     int64
	TotalValue float64
	TotalStock int64
}

type DashboardOverview struct {
	TotalUsers       int64   `json:"totalUsers"`
	TotalProducts    int64   `json:"totalProducts"`
	ActiveUsers      int64   `json:"activeUsers"`
	LowStockProducts int64   `json:"lowStockProducts"`
	TotalValue       float64 `json:"totalValue"`
	TotalStock       int64   `json:"totalStock"`
	RecentUsers      int64   `json:"recentUsers"`
	RecentProducts   int64   `json:"recentProducts"`
}

type CategoryStat struct {
	Category   string  `json:"category"`
	Count      int64   `json:"count"`
	TotalStock int64   `json:"totalStock"`
	AvgPrice   float64 `json:"avgPrice"`
	TotalValue float64 `json:"totalValue"`
}

type RoleStat struct {
	Role  string `json:"role"`
	Count int64  `json:"count"`
}

const (
	ActivityUserCreated    = "user_created"
	ActivityProductCreated = "product_created"
)

type Activity struct {
	Type      string    `json:"type"`
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle"`
	CreatedAt time.Time `json:"createdAt"`
}

type MonthlyCount struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

type GrowthStats struct {
	UserGrowth    []MonthlyCount `json:"userGrowth"`
	ProductGrowth []MonthlyCount `json:"productGrowth"`
}

type ReportOverview struct {
	TotalUsers    int64   `json:"totalUsers"`
	TotalProducts int64   `json:"totalProducts"`
	TotalValue    float64 `json:"totalValue"`
	TotalStock    int64   `json:"totalStock"`
}

type ReportCategory struct {
	Category   string `json:"category"`
	Count      int64  `json:"count"`
	TotalStock int64  `json:"totalStock"`
}

type DashboardReport struct {
	GeneratedAt       time.Time        `json:"generatedAt"`
	Overview          ReportOverview   `json:"overview"`
	CategoryBreakdown []ReportCategory `json:"categoryBreakdown"`
}

// DashboardStats is the overview flattened together with the per-category
// breakdown, in the shape the web dashboard reads.
type DashboardStats struct {
	DashboardOverview
	CategoryBreakdown []CategoryStat `json:"categoryBreakdown"`
}
