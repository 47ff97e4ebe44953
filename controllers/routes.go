package controllers

import (
	"github.com/gin-gonic/gin"
)

// Controllers groups the handlers mounted under /api.
type Controllers struct {
	Orders        *OrderController
	Transactions  *TransactionController
	Products      *ProductController
	Notifications *NotificationController
	Users         *UserController
	Admin         *AdminController
	Dashboard     *DashboardController
}

// RegisterRoutes mounts every resource on both GET and POST, since clients
// send actions either way.
func RegisterRoutes(api *gin.RouterGroup, cs Controllers) {
	routes := map[string]gin.HandlerFunc{
		"/orders":        cs.Orders.Handle(),
		"/transactions":  cs.Transactions.Handle(),
		"/products":      cs.Products.Handle(),
		"/notifications": cs.Notifications.HandleNotifications(),
		"/announcements": cs.Notifications.HandleAnnouncements(),
		"/users":         cs.Users.Handle(),
		"/admin":         cs.Admin.Handle(),
		"/dashboard":     cs.Dashboard.Handle(),
	}
	for path, h := range routes {
		api.GET(path, h)
		api.POST(path, h)
	}
}
