package models

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DashboardStats is the summary shown on the admin landing page.
type DashboardStats struct {
	ActiveCustomers  int64 `json:"active_customers"`
	ActiveOrders     int64 `json:"active_orders"`
	PendingOrders    int64 `json:"pending_orders"`
	ActiveProducts   int64 `json:"active_products"`
	TotalRevenue     Money `json:"total_revenue"`
	OrdersLastWeek   int64 `json:"orders_last_7_days"`
	LowStockProducts int64 `json:"low_stock_products"`
}

const (
	Period7Days       = "7days"
	Period30Days      = "30days"
	PeriodThisMonth   = "thismonth"
	PeriodThisQuarter = "thisquarter"
	PeriodYTD         = "ytd"
	PeriodCustom      = "custom"
)

const dateLayout = "2006-01-02"

var ErrInvalidPeriod = errors.New("invalid period")

// SalesRange selects the transactions charted by the sales report. Months
// is set for the legacy numeric periods ("3", "12"); From and To bound a
// custom range and are both zero when the client sent no dates.
type SalesRange struct {
	Period string
	Months int
	From   time.Time
	To     time.Time
}

// ParseSalesRange defaults to the current month. A custom range without
// dates covers the last 30 days.
func ParseSalesRange(period, from, to string) (SalesRange, error) {
	period = strings.ToLower(strings.TrimSpace(period))
	switch period {
	case "":
		return SalesRange{Period: PeriodThisMonth}, nil
	case Period7Days, Period30Days, PeriodThisMonth, PeriodThisQuarter, PeriodYTD:
		return SalesRange{Period: period}, nil
	case PeriodCustom:
		r := SalesRange{Period: PeriodCustom}
		if from == "" && to == "" {
			return r, nil
		}
		var err error
		if r.From, err = time.Parse(dateLayout, strings.TrimSpace(from)); err != nil {
			return SalesRange{}, errors.New("start_date must be YYYY-MM-DD")
		}
		if r.To, err = time.Parse(dateLayout, strings.TrimSpace(to)); err != nil {
			return SalesRange{}, errors.New("end_date must be YYYY-MM-DD")
		}
		if r.To.Before(r.From) {
			return SalesRange{}, errors.New("end_date is before start_date")
		}
		return r, nil
	}
	months, err := strconv.Atoi(period)
	if err != nil || months <= 0 || months > 120 {
		return SalesRange{}, ErrInvalidPeriod
	}
	return SalesRange{Period: period, Months: months}, nil
}

// Monthly reports whether the range is long enough to chart per month.
func (r SalesRange) Monthly() bool {
	return r.Period == PeriodYTD || r.Months >= 6
}

// HasDates reports whether a custom range carries explicit bounds.
func (r SalesRange) HasDates() bool {
	return !r.From.IsZero()
}

type SalesPoint struct {
	Date        string `json:"date"`
	OrdersCount int64  `json:"orders_count"`
	Revenue     Money  `json:"daily_revenue"`
}

// Activity is one entry of the dashboard's recent activity feed.
type Activity struct {
	Type     string    `json:"type"`
	ID       int64     `json:"id"`
	Customer string    `json:"customer"`
	Amount   Money     `json:"amount"`
	Status   string    `json:"status"`
	Date     time.Time `json:"date"`
}

type AnalyticsSummary struct {
	TotalUsers     int64 `json:"total_users"`
	TotalProducts  int64 `json:"total_products"`
	ActiveProducts int64 `json:"active_products"`
	TotalOrders    int64 `json:"total_orders"`
	TotalRevenue   Money `json:"total_revenue"`
}

// AnalyticsDays maps the detailed report's period names onto a look-back
// window in days. Unknown periods fall back to a week.
func AnalyticsDays(period string) int {
	switch strings.ToLower(strings.TrimSpace(period)) {
	case "today":
		return 1
	case Period30Days:
		return 30
	case "90days":
		return 90
	case "6":
		return 180
	case "12":
		return 365
	case "24":
		return 730
	}
	return 7
}

type StatusBreakdown struct {
	Status  string `json:"status"`
	Count   int64  `json:"count"`
	Revenue Money  `json:"revenue"`
}

type TopProduct struct {
	ProductID        int64  `json:"product_id"`
	ProductName      string `json:"product_name"`
	Category         string `json:"category"`
	OrderCount       int64  `json:"order_count"`
	EstimatedRevenue Money  `json:"estimated_revenue"`
}

type HourlyCount struct {
	Hour        int   `json:"hour"`
	OrdersCount int64 `json:"orders_count"`
}

type SalesTotals struct {
	TotalRevenue  Money `json:"total_revenue"`
	TotalOrders   int64 `json:"total_orders"`
	AvgOrderValue Money `json:"avg_order_value"`
}

// AnalyticsReport is the detailed chart data for one look-back window.
type AnalyticsReport struct {
	SalesChart         []SalesPoint      `json:"sales_chart"`
	TotalSales         SalesTotals       `json:"total_sales"`
	StatusBreakdown    []StatusBreakdown `json:"status_breakdown"`
	TopProducts        []TopProduct      `json:"top_products"`
	HourlyDistribution []HourlyCount     `json:"hourly_distribution"`
}

// Totals sums a sales chart.
func Totals(points []SalesPoint) SalesTotals {
	var t SalesTotals
	for _, p := range points {
		t.TotalRevenue = NewMoney(t.TotalRevenue.Add(p.Revenue.Decimal))
		t.TotalOrders += p.OrdersCount
	}
	if t.TotalOrders > 0 {
		t.AvgOrderValue = NewMoney(t.TotalRevenue.Div(decimal.NewFromInt(t.TotalOrders)).Round(2))
	}
	return t
}
