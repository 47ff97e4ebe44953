package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"hiryo-backoffice/middlewares"
	"hiryo-backoffice/models"
	"hiryo-backoffice/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const testSecret = "controller-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeStore implements every store interface; unset funcs return zero values.
type fakeStore struct {
	listActiveOrders  func(ctx context.Context) ([]models.Order, error)
	getUserOrders     func(ctx context.Context, userID int64) ([]models.Order, error)
	getOrderDetails   func(ctx context.Context, orderID int64) (*models.Order, error)
	placeOrder        func(ctx context.Context, in models.PlaceOrderInput) (*models.Order, error)
	updateOrderStatus func(ctx context.Context, orderID int64, status models.OrderStatus) (*models.StatusUpdateResult, error)

	allTransactions         func(ctx context.Context) ([]models.Transaction, error)
	userTransactions        func(ctx context.Context, userID int64) ([]models.Transaction, error)
	transactionByID         func(ctx context.Context, id int64) (*models.Transaction, error)
	transactionByOrder      func(ctx context.Context, orderID int64) (*models.Transaction, error)
	updateTransactionStatus func(ctx context.Context, id int64, status models.OrderStatus) error

	activeProducts     func(ctx context.Context) ([]models.Product, error)
	productsByCategory func(ctx context.Context, category string) ([]models.Product, error)
	searchProducts     func(ctx context.Context, term string) ([]models.Product, error)
	allProducts        func(ctx context.Context) ([]models.Product, error)
	productByID        func(ctx context.Context, id int64, activeOnly bool) (*models.Product, error)
	addProduct         func(ctx context.Context, p models.Product) (*models.Product, error)
	updateProduct      func(ctx context.Context, id int64, u models.ProductUpdate) (*models.Product, error)
	deleteProduct      func(ctx context.Context, id int64) (string, error)

	userNotifications   func(ctx context.Context, userID int64) ([]models.Notification, error)
	allNotifications    func(ctx context.Context) ([]models.Notification, error)
	createNotification  func(ctx context.Context, n models.Notification) (int64, error)
	setNotificationRead func(ctx context.Context, id int64, read bool) error
	deleteNotification  func(ctx context.Context, id int64) error

	deleteUserNotification func(ctx context.Context, id, userID int64) error

	listAnnouncements     func(ctx context.Context) ([]models.Announcement, error)
	broadcastAnnouncement func(ctx context.Context, title, message string) (*models.Broadcast, error)
	updateAnnouncement    func(ctx context.Context, id int64, title, message string) error
	deleteAnnouncement    func(ctx context.Context, id int64) error

	allUsers         func(ctx context.Context) ([]models.User, error)
	userByID         func(ctx context.Context, id int64) (*models.User, error)
	addUser          func(ctx context.Context, nu models.NewUser) (int64, error)
	updateUserStatus func(ctx context.Context, id int64, status string) error
	authenticateUser func(ctx context.Context, login, password string) (*models.User, error)
	updateProfile    func(ctx context.Context, userID int64, change models.ProfileChange) error
	changePassword   func(ctx context.Context, userID int64, newPassword string) error

	authenticateAdmin  func(ctx context.Context, email, password string) (*models.Admin, error)
	adminByID          func(ctx context.Context, id int64) (*models.Admin, error)
	allAdmins          func(ctx context.Context) ([]models.Admin, error)
	addAdmin           func(ctx context.Context, na models.NewAdmin) (int64, error)
	updateAdminStatus  func(ctx context.Context, id int64, status string) error
	updateAdminProfile func(ctx context.Context, id int64, u models.AdminUpdate) error

	dashboardStats   func(ctx context.Context) (*models.DashboardStats, error)
	salesData        func(ctx context.Context, r models.SalesRange) ([]models.SalesPoint, error)
	recentActivity   func(ctx context.Context, limit int) ([]models.Activity, error)
	analyticsSummary func(ctx context.Context) (*models.AnalyticsSummary, error)
	analyticsReport  func(ctx context.Context, days int) (*models.AnalyticsReport, error)
}

func (f *fakeStore) ListActiveOrders(ctx context.Context) ([]models.Order, error) {
	if f.listActiveOrders == nil {
		return nil, nil
	}
	return f.listActiveOrders(ctx)
}

func (f *fakeStore) GetUserOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	if f.getUserOrders == nil {
		return nil, nil
	}
	return f.getUserOrders(ctx, userID)
}

func (f *fakeStore) GetOrderDetails(ctx context.Context, orderID int64) (*models.Order, error) {
	return f.getOrderDetails(ctx, orderID)
}

func (f *fakeStore) PlaceOrder(ctx context.Context, in models.PlaceOrderInput) (*models.Order, error) {
	return f.placeOrder(ctx, in)
}

func (f *fakeStore) UpdateOrderStatus(ctx context.Context, orderID int64, status models.OrderStatus) (*models.StatusUpdateResult, error) {
	return f.updateOrderStatus(ctx, orderID, status)
}

func (f *fakeStore) AllTransactions(ctx context.Context) ([]models.Transaction, error) {
	if f.allTransactions == nil {
		return nil, nil
	}
	return f.allTransactions(ctx)
}

func (f *fakeStore) UserTransactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	if f.userTransactions == nil {
		return nil, nil
	}
	return f.userTransactions(ctx, userID)
}

func (f *fakeStore) TransactionByID(ctx context.Context, id int64) (*models.Transaction, error) {
	return f.transactionByID(ctx, id)
}

func (f *fakeStore) TransactionByOrder(ctx context.Context, orderID int64) (*models.Transaction, error) {
	return f.transactionByOrder(ctx, orderID)
}

func (f *fakeStore) UpdateTransactionStatus(ctx context.Context, id int64, status models.OrderStatus) error {
	return f.updateTransactionStatus(ctx, id, status)
}

func (f *fakeStore) ActiveProducts(ctx context.Context) ([]models.Product, error) {
	if f.activeProducts == nil {
		return nil, nil
	}
	return f.activeProducts(ctx)
}

func (f *fakeStore) ProductsByCategory(ctx context.Context, category string) ([]models.Product, error) {
	return f.productsByCategory(ctx, category)
}

func (f *fakeStore) SearchProducts(ctx context.Context, term string) ([]models.Product, error) {
	return f.searchProducts(ctx, term)
}

func (f *fakeStore) AllProducts(ctx context.Context) ([]models.Product, error) {
	if f.allProducts == nil {
		return nil, nil
	}
	return f.allProducts(ctx)
}

func (f *fakeStore) ProductByID(ctx context.Context, id int64, activeOnly bool) (*models.Product, error) {
	return f.productByID(ctx, id, activeOnly)
}

func (f *fakeStore) AddProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	return f.addProduct(ctx, p)
}

func (f *fakeStore) UpdateProduct(ctx context.Context, id int64, u models.ProductUpdate) (*models.Product, error) {
	return f.updateProduct(ctx, id, u)
}

func (f *fakeStore) DeleteProduct(ctx context.Context, id int64) (string, error) {
	return f.deleteProduct(ctx, id)
}

func (f *fakeStore) UserNotifications(ctx context.Context, userID int64) ([]models.Notification, error) {
	return f.userNotifications(ctx, userID)
}

func (f *fakeStore) AllNotifications(ctx context.Context) ([]models.Notification, error) {
	if f.allNotifications == nil {
		return nil, nil
	}
	return f.allNotifications(ctx)
}

func (f *fakeStore) CreateNotification(ctx context.Context, n models.Notification) (int64, error) {
	return f.createNotification(ctx, n)
}

func (f *fakeStore) SetNotificationRead(ctx context.Context, id int64, read bool) error {
	return f.setNotificationRead(ctx, id, read)
}

func (f *fakeStore) DeleteNotification(ctx context.Context, id int64) error {
	return f.deleteNotification(ctx, id)
}

func (f *fakeStore) DeleteUserNotification(ctx context.Context, id, userID int64) error {
	return f.deleteUserNotification(ctx, id, userID)
}

func (f *fakeStore) ListAnnouncements(ctx context.Context) ([]models.Announcement, error) {
	if f.listAnnouncements == nil {
		return nil, nil
	}
	return f.listAnnouncements(ctx)
}

func (f *fakeStore) BroadcastAnnouncement(ctx context.Context, title, message string) (*models.Broadcast, error) {
	return f.broadcastAnnouncement(ctx, title, message)
}

func (f *fakeStore) UpdateAnnouncement(ctx context.Context, id int64, title, message string) error {
	return f.updateAnnouncement(ctx, id, title, message)
}

func (f *fakeStore) DeleteAnnouncement(ctx context.Context, id int64) error {
	return f.deleteAnnouncement(ctx, id)
}

func (f *fakeStore) AllUsers(ctx context.Context) ([]models.User, error) {
	if f.allUsers == nil {
		return nil, nil
	}
	return f.allUsers(ctx)
}

func (f *fakeStore) UserByID(ctx context.Context, id int64) (*models.User, error) {
	return f.userByID(ctx, id)
}

func (f *fakeStore) AddUser(ctx context.Context, nu models.NewUser) (int64, error) {
	return f.addUser(ctx, nu)
}

func (f *fakeStore) UpdateUserStatus(ctx context.Context, id int64, status string) error {
	return f.updateUserStatus(ctx, id, status)
}

func (f *fakeStore) AuthenticateUser(ctx context.Context, login, password string) (*models.User, error) {
	return f.authenticateUser(ctx, login, password)
}

func (f *fakeStore) AuthenticateAdmin(ctx context.Context, email, password string) (*models.Admin, error) {
	return f.authenticateAdmin(ctx, email, password)
}

func (f *fakeStore) AdminByID(ctx context.Context, id int64) (*models.Admin, error) {
	return f.adminByID(ctx, id)
}

func (f *fakeStore) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	return f.dashboardStats(ctx)
}

func (f *fakeStore) UpdateProfileField(ctx context.Context, userID int64, change models.ProfileChange) error {
	return f.updateProfile(ctx, userID, change)
}

func (f *fakeStore) ChangeUserPassword(ctx context.Context, userID int64, newPassword string) error {
	return f.changePassword(ctx, userID, newPassword)
}

func (f *fakeStore) AllAdmins(ctx context.Context) ([]models.Admin, error) {
	if f.allAdmins == nil {
		return nil, nil
	}
	return f.allAdmins(ctx)
}

func (f *fakeStore) AddAdmin(ctx context.Context, na models.NewAdmin) (int64, error) {
	return f.addAdmin(ctx, na)
}

func (f *fakeStore) UpdateAdminStatus(ctx context.Context, id int64, status string) error {
	return f.updateAdminStatus(ctx, id, status)
}

func (f *fakeStore) UpdateAdminProfile(ctx context.Context, id int64, u models.AdminUpdate) error {
	return f.updateAdminProfile(ctx, id, u)
}

func (f *fakeStore) SalesData(ctx context.Context, r models.SalesRange) ([]models.SalesPoint, error) {
	if f.salesData == nil {
		return nil, nil
	}
	return f.salesData(ctx, r)
}

func (f *fakeStore) RecentActivity(ctx context.Context, limit int) ([]models.Activity, error) {
	return f.recentActivity(ctx, limit)
}

func (f *fakeStore) AnalyticsSummary(ctx context.Context) (*models.AnalyticsSummary, error) {
	return f.analyticsSummary(ctx)
}

func (f *fakeStore) AnalyticsReport(ctx context.Context, days int) (*models.AnalyticsReport, error) {
	return f.analyticsReport(ctx, days)
}

type fakePublisher struct {
	events []models.OrderEvent
	err    error
}

func (p *fakePublisher) PublishOrderEvent(_ context.Context, event models.OrderEvent) error {
	p.events = append(p.events, event)
	return p.err
}

type testEnv struct {
	router    *gin.Engine
	store     *fakeStore
	publisher *fakePublisher
	cache     *memoryCache
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{store: &fakeStore{}, publisher: &fakePublisher{}, cache: &memoryCache{}}

	orders := NewOrderController(env.store, env.publisher, env.cache)
	r := gin.New()
	r.Use(middlewares.RequestID(), middlewares.AuthMiddleware(testSecret))
	RegisterRoutes(r.Group("/api"), Controllers{
		Orders:        orders,
		Transactions:  NewTransactionController(env.store, orders, env.cache),
		Products:      NewProductController(env.store, env.cache),
		Notifications: NewNotificationController(env.store, env.store, env.publisher),
		Users:         NewUserController(env.store, env.cache),
		Admin:         NewAdminController(env.store, testSecret, time.Hour),
		Dashboard:     NewDashboardController(env.store, env.cache),
	})
	env.router = r
	return env
}

func adminToken(t *testing.T) string {
	t.Helper()
	token, _, err := utils.GenerateToken(testSecret, time.Hour, 1, "admin@hiryo.example", "Administrator")
	require.NoError(t, err)
	return token
}

type response struct {
	Code int
	Body map[string]any
}

func (env *testEnv) do(t *testing.T, req *http.Request, token string) response {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return response{Code: w.Code, Body: body}
}

func (env *testEnv) postForm(t *testing.T, path string, form url.Values, token string) response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return env.do(t, req, token)
}

func (env *testEnv) postJSON(t *testing.T, path string, body any, token string) response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(string(raw)))
	req.Header.Set("Content-Type", "application/json")
	return env.do(t, req, token)
}

func (env *testEnv) get(t *testing.T, path string, token string) response {
	t.Helper()
	return env.do(t, httptest.NewRequest(http.MethodGet, path, nil), token)
}

type memoryCache struct {
	stats         *models.DashboardStats
	sets          int
	invalidations int
}

func (m *memoryCache) Get(context.Context) (*models.DashboardStats, bool, error) {
	return m.stats, m.stats != nil, nil
}

func (m *memoryCache) Set(_ context.Context, s *models.DashboardStats) error {
	m.stats = s
	m.sets++
	return nil
}

func (m *memoryCache) Invalidate(context.Context) error {
	m.stats = nil
	m.invalidations++
	return nil
}
