package controllers

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"hiryo-backoffice/models"

	"github.com/gin-gonic/gin"
)

type DashboardStore interface {
	DashboardStats(ctx context.Context) (*models.DashboardStats, error)
	SalesData(ctx context.Context, r models.SalesRange) ([]models.SalesPoint, error)
	RecentActivity(ctx context.Context, limit int) ([]models.Activity, error)
	AnalyticsSummary(ctx context.Context) (*models.AnalyticsSummary, error)
	AnalyticsReport(ctx context.Context, days int) (*models.AnalyticsReport, error)
}

const (
	defaultActivityLimit = 10
	maxActivityLimit     = 100
)

// DashboardCache holds the last computed statistics.
type DashboardCache interface {
	Get(ctx context.Context) (*models.DashboardStats, bool, error)
	Set(ctx context.Context, stats *models.DashboardStats) error
}

type DashboardController struct {
	store DashboardStore
	cache DashboardCache
}

// NewDashboardController serves statistics straight from the database when
// cache is nil.
func NewDashboardController(s DashboardStore, cache DashboardCache) *DashboardController {
	return &DashboardController{store: s, cache: cache}
}

// Handle serves /api/dashboard.
func (dc *DashboardController) Handle() gin.HandlerFunc {
	return dispatch(map[string]action{
		"get_dashboard_stats": admin(dc.GetStats),
		"get_stats":           admin(dc.GetStats),
		"get_sales_data":      admin(dc.GetSalesData),
		"get_recent_activity": admin(dc.GetRecentActivity),
		"get_analytics":       admin(dc.GetAnalytics),
	})
}

func (dc *DashboardController) GetStats(c *gin.Context) {
	ctx := c.Request.Context()
	if dc.cache != nil {
		stats, hit, err := dc.cache.Get(ctx)
		if err != nil {
			slog.Warn("Dashboard cache read failed", "error", err)
		}
		if hit {
			ok(c, gin.H{"stats": stats, "cached": true})
			return
		}
	}

	stats, err := dc.store.DashboardStats(ctx)
	if err != nil {
		serverError(c, "Failed to compute dashboard statistics", err)
		return
	}
	if dc.cache != nil {
		if err := dc.cache.Set(ctx, stats); err != nil {
			slog.Warn("Dashboard cache write failed", "error", err)
		}
	}
	ok(c, gin.H{"stats": stats, "cached": false})
}

func (dc *DashboardController) GetSalesData(c *gin.Context) {
	r, err := models.ParseSalesRange(param(c, "period"), param(c, "start_date"), param(c, "end_date"))
	if errors.Is(err, models.ErrInvalidPeriod) {
		invalid(c, "Invalid period specified")
		return
	}
	if err != nil {
		invalid(c, err.Error())
		return
	}
	points, err := dc.store.SalesData(c.Request.Context(), r)
	if err != nil {
		serverError(c, "Failed to load sales data", err)
		return
	}
	ok(c, gin.H{"message": "Sales data retrieved successfully", "period": r.Period, "data": nonNil(points)})
}

func (dc *DashboardController) GetRecentActivity(c *gin.Context) {
	limit := defaultActivityLimit
	if hasParam(c, "limit") {
		n, err := strconv.Atoi(param(c, "limit"))
		if err != nil || n <= 0 {
			invalid(c, "Limit must be a positive number")
			return
		}
		limit = min(n, maxActivityLimit)
	}
	feed, err := dc.store.RecentActivity(c.Request.Context(), limit)
	if err != nil {
		serverError(c, "Failed to load recent activity", err)
		return
	}
	ok(c, gin.H{"message": "Recent activity retrieved successfully", "data": nonNil(feed)})
}

// GetAnalytics serves the KPI summary (report=summary, the default) or the
// detailed chart data for a period (report=detailed).
func (dc *DashboardController) GetAnalytics(c *gin.Context) {
	ctx := c.Request.Context()
	switch report := param(c, "report"); report {
	case "", "summary":
		sum, err := dc.store.AnalyticsSummary(ctx)
		if err != nil {
			serverError(c, "Failed to load analytics summary", err)
			return
		}
		ok(c, gin.H{"data": sum})
	case "detailed":
		period := param(c, "period")
		if period == "" {
			period = models.Period7Days
		}
		days := models.AnalyticsDays(period)
		detail, err := dc.store.AnalyticsReport(ctx, days)
		if err != nil {
			serverError(c, "Failed to load analytics report", err)
			return
		}
		ok(c, gin.H{"period": period, "days": days, "data": detail})
	default:
		invalid(c, "Invalid report type specified.")
	}
}
