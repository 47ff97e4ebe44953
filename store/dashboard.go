package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"hiryo-backoffice/models"

	"github.com/shopspring/decimal"
)

// DashboardStats computes the admin landing page counters in one round trip.
func (s *Store) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	var st models.DashboardStats
	err := s.DB.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users WHERE roles = 'customer' AND status = 'Active'),
			(SELECT COUNT(*) FROM orders WHERE status NOT IN ('Completed', 'Cancelled')),
			(SELECT COUNT(*) FROM orders WHERE status = 'Pending'),
			(SELECT COUNT(*) FROM products WHERE status = 'Active'),
			(SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE status = 'Completed'),
			(SELECT COUNT(*) FROM orders
			  WHERE order_date >= DATE_SUB(NOW(), INTERVAL 7 DAY) AND status NOT IN ('Completed', 'Cancelled')),
			(SELECT COUNT(*) FROM products WHERE stock_quantity BETWEEN 1 AND 10)`).Scan(
		&st.ActiveCustomers, &st.ActiveOrders, &st.PendingOrders, &st.ActiveProducts,
		&st.TotalRevenue, &st.OrdersLastWeek, &st.LowStockProducts)
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	return &st, nil
}

// salesWindow returns the WHERE clause selecting the transactions of r.
func salesWindow(r models.SalesRange) (string, []any) {
	switch {
	case r.Period == models.Period7Days:
		return `created_at >= DATE_SUB(NOW(), INTERVAL 7 DAY)`, nil
	case r.Period == models.PeriodThisMonth:
		return `YEAR(created_at) = YEAR(NOW()) AND MONTH(created_at) = MONTH(NOW())`, nil
	case r.Period == models.PeriodThisQuarter:
		return `YEAR(created_at) = YEAR(NOW()) AND QUARTER(created_at) = QUARTER(NOW())`, nil
	case r.Period == models.PeriodYTD:
		return `YEAR(created_at) = YEAR(NOW())`, nil
	case r.HasDates():
		return `created_at >= ? AND created_at < ?`, []any{r.From, r.To.AddDate(0, 0, 1)}
	case r.Months > 0:
		return `created_at >= DATE_SUB(NOW(), INTERVAL ? MONTH)`, []any{r.Months}
	}
	return `created_at >= DATE_SUB(NOW(), INTERVAL 30 DAY)`, nil
}

// SalesData charts completed sales per day, or per month for long ranges.
func (s *Store) SalesData(ctx context.Context, r models.SalesRange) ([]models.SalesPoint, error) {
	window, args := salesWindow(r)
	group, label := `DATE(created_at)`, `%Y-%m-%d`
	if r.Monthly() {
		group, label = `DATE_FORMAT(created_at, '%Y-%m')`, `%Y-%m-01`
	}
	points, err := s.querySales(ctx, fmt.Sprintf(`
		SELECT DATE_FORMAT(created_at, '%s') AS date, COUNT(*), COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE status = 'Completed' AND %s
		GROUP BY %s
		ORDER BY date ASC`, label, window, group), args...)
	if err != nil {
		return nil, fmt.Errorf("sales data for %s: %w", r.Period, err)
	}
	return points, nil
}

func (s *Store) querySales(ctx context.Context, query string, args ...any) ([]models.SalesPoint, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := []models.SalesPoint{}
	for rows.Next() {
		var p models.SalesPoint
		if err := rows.Scan(&p.Date, &p.OrdersCount, &p.Revenue); err != nil {
			return nil, fmt.Errorf("scan sales point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// RecentActivity lists the newest open orders.
func (s *Store) RecentActivity(ctx context.Context, limit int) ([]models.Activity, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT o.order_id, COALESCE(o.total_amount, 0), o.status, o.order_date,
		       COALESCE(u.firstName, ''), COALESCE(u.lastName, ''), COALESCE(u.username, '')
		FROM orders o
		LEFT JOIN users u ON o.user_id = u.user_id
		ORDER BY o.order_date DESC, o.order_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent activity: %w", err)
	}
	defer rows.Close()

	out := []models.Activity{}
	for rows.Next() {
		var (
			a                             models.Activity
			firstName, lastName, username string
		)
		if err := rows.Scan(&a.ID, &a.Amount, &a.Status, &a.Date, &firstName, &lastName, &username); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.Type = "order"
		a.Customer = models.DisplayName(firstName, lastName, username)
		out = append(out, a)
	}
	return out, rows.Err()
}

// AnalyticsSummary counts every order ever placed: open ones in orders and
// finalized ones in transactions.
func (s *Store) AnalyticsSummary(ctx context.Context) (*models.AnalyticsSummary, error) {
	var sum models.AnalyticsSummary
	err := s.DB.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM products),
			(SELECT COUNT(*) FROM products WHERE status = 'Active' AND stock_quantity > 0),
			(SELECT COUNT(*) FROM orders) + (SELECT COUNT(*) FROM transactions),
			(SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE status = 'Completed')`).Scan(
		&sum.TotalUsers, &sum.TotalProducts, &sum.ActiveProducts, &sum.TotalOrders, &sum.TotalRevenue)
	if err != nil {
		return nil, fmt.Errorf("analytics summary: %w", err)
	}
	return &sum, nil
}

const topProductLimit = 10

// AnalyticsReport builds the detailed charts for the last days days.
func (s *Store) AnalyticsReport(ctx context.Context, days int) (*models.AnalyticsReport, error) {
	group, label := `DATE(created_at)`, `%Y-%m-%d`
	if days > 90 {
		group, label = `DATE_FORMAT(created_at, '%Y-%m')`, `%Y-%m-01`
	}
	chart, err := s.querySales(ctx, fmt.Sprintf(`
		SELECT DATE_FORMAT(created_at, '%s') AS date, COUNT(*), COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE status = 'Completed' AND created_at >= DATE_SUB(NOW(), INTERVAL ? DAY)
		GROUP BY %s
		ORDER BY date ASC`, label, group), days)
	if err != nil {
		return nil, fmt.Errorf("sales chart: %w", err)
	}

	report := &models.AnalyticsReport{SalesChart: chart, TotalSales: models.Totals(chart)}
	if report.StatusBreakdown, err = s.statusBreakdown(ctx, days); err != nil {
		return nil, err
	}
	if report.TopProducts, err = s.topProducts(ctx, days); err != nil {
		return nil, err
	}
	if report.HourlyDistribution, err = s.hourlyDistribution(ctx); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *Store) statusBreakdown(ctx context.Context, days int) ([]models.StatusBreakdown, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT status, COUNT(*) AS n, COALESCE(SUM(amount), 0)
		FROM (
			SELECT status, total_amount AS amount, order_date AS at FROM orders
			UNION ALL
			SELECT status, amount, created_at AS at FROM transactions
		) placed
		WHERE at >= DATE_SUB(NOW(), INTERVAL ? DAY)
		GROUP BY status
		ORDER BY n DESC`, days)
	if err != nil {
		return nil, fmt.Errorf("status breakdown: %w", err)
	}
	defer rows.Close()

	out := []models.StatusBreakdown{}
	for rows.Next() {
		var b models.StatusBreakdown
		if err := rows.Scan(&b.Status, &b.Count, &b.Revenue); err != nil {
			return nil, fmt.Errorf("scan status breakdown: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// topProducts ranks products by revenue across the items snapshots of
// completed transactions, which is where finalized order lines live.
func (s *Store) topProducts(ctx context.Context, days int) ([]models.TopProduct, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT COALESCE(items, '')
		FROM transactions
		WHERE status = 'Completed' AND created_at >= DATE_SUB(NOW(), INTERVAL ? DAY)`, days)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	defer rows.Close()

	byID := map[int64]*models.TopProduct{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan transaction items: %w", err)
		}
		items, err := models.DecodeTransactionItems(raw)
		if err != nil {
			slog.Warn("Skipping undecodable items snapshot", "error", err)
			continue
		}
		for _, item := range items {
			tp, found := byID[item.ProductID]
			if !found {
				tp = &models.TopProduct{ProductID: item.ProductID, ProductName: item.ProductName}
				byID[item.ProductID] = tp
			}
			tp.OrderCount += int64(item.Quantity)
			line := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			tp.EstimatedRevenue = models.NewMoney(tp.EstimatedRevenue.Add(line))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]models.TopProduct, 0, len(byID))
	for _, tp := range byID {
		out = append(out, *tp)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].EstimatedRevenue.Cmp(out[j].EstimatedRevenue.Decimal); c != 0 {
			return c > 0
		}
		return out[i].ProductID < out[j].ProductID
	})
	if len(out) > topProductLimit {
		out = out[:topProductLimit]
	}
	return out, s.fillCategories(ctx, out)
}

// fillCategories looks up the current catalog category of each ranked product.
func (s *Store) fillCategories(ctx context.Context, products []models.TopProduct) error {
	for i := range products {
		err := s.DB.QueryRowContext(ctx,
			`SELECT category, product_name FROM products WHERE product_id = ?`, products[i].ProductID).
			Scan(&products[i].Category, &products[i].ProductName)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return fmt.Errorf("category of product %d: %w", products[i].ProductID, err)
		}
	}
	return nil
}

func (s *Store) hourlyDistribution(ctx context.Context) ([]models.HourlyCount, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT HOUR(created_at) AS hour, COUNT(*)
		FROM transactions
		WHERE status = 'Completed' AND DATE(created_at) = CURDATE()
		GROUP BY HOUR(created_at)
		ORDER BY hour ASC`)
	if err != nil {
		return nil, fmt.Errorf("hourly distribution: %w", err)
	}
	defer rows.Close()

	out := []models.HourlyCount{}
	for rows.Next() {
		var h models.HourlyCount
		if err := rows.Scan(&h.Hour, &h.OrdersCount); err != nil {
			return nil, fmt.Errorf("scan hourly count: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
