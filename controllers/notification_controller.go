package controllers

import (
	"context"
	"errors"

	"hiryo-backoffice/middlewares"
	"hiryo-backoffice/models"
	"hiryo-backoffice/store"

	"github.com/gin-gonic/gin"
)

type NotificationStore interface {
	UserNotifications(ctx context.Context, userID int64) ([]models.Notification, error)
	AllNotifications(ctx context.Context) ([]models.Notification, error)
	CreateNotification(ctx context.Context, n models.Notification) (int64, error)
	SetNotificationRead(ctx context.Context, id int64, read bool) error
	DeleteNotification(ctx context.Context, id int64) error
	DeleteUserNotification(ctx context.Context, id, userID int64) error
}

type AnnouncementStore interface {
	ListAnnouncements(ctx context.Context) ([]models.Announcement, error)
	BroadcastAnnouncement(ctx context.Context, title, message string) (*models.Broadcast, error)
	UpdateAnnouncement(ctx context.Context, id int64, title, message string) error
	DeleteAnnouncement(ctx context.Context, id int64) error
}

type NotificationController struct {
	notifications NotificationStore
	announcements AnnouncementStore
	publisher     EventPublisher
}

func NewNotificationController(n NotificationStore, a AnnouncementStore, p EventPublisher) *NotificationController {
	return &NotificationController{notifications: n, announcements: a, publisher: p}
}

// HandleNotifications serves /api/notifications. The admin panel also posts
// announcements here, and older builds use the legacy action names.
func (nc *NotificationController) HandleNotifications() gin.HandlerFunc {
	return dispatch(map[string]action{
		"get_user_notifications":          public(nc.GetUserNotifications),
		"get_all_notifications_for_admin": admin(nc.GetAllNotifications),
		"get_notifications_for_admin":     admin(nc.GetAllNotifications),
		"create_notification":             admin(nc.CreateNotification),
		"mark_notification_read":          admin(nc.markRead(true)),
		"mark_notification_unread":        admin(nc.markRead(false)),
		"delete_notification":             admin(nc.DeleteNotification),
		"delete":                          public(nc.DeleteOwnNotification),
		"create_announcement":             admin(nc.CreateAnnouncement),
		"get_announcements":               public(nc.GetAnnouncements),
		"get_all_announcements":           public(nc.GetAnnouncements),
	})
}

// HandleAnnouncements serves /api/announcements.
func (nc *NotificationController) HandleAnnouncements() gin.HandlerFunc {
	return dispatch(map[string]action{
		"get_all_announcements": public(nc.GetAnnouncements),
		"get_announcements":     public(nc.GetAnnouncements),
		"create_announcement":   admin(nc.CreateAnnouncement),
		"update_announcement":   admin(nc.UpdateAnnouncement),
		"delete_announcement":   admin(nc.DeleteAnnouncement),
	})
}

func (nc *NotificationController) GetUserNotifications(c *gin.Context) {
	userID, found := idParam(c, "user_id")
	if !found {
		invalid(c, "User ID is required")
		return
	}
	list, err := nc.notifications.UserNotifications(c.Request.Context(), userID)
	if err != nil {
		serverError(c, "Failed to list user notifications", err)
		return
	}
	ok(c, gin.H{"notifications": nonNil(list)})
}

func (nc *NotificationController) GetAllNotifications(c *gin.Context) {
	list, err := nc.notifications.AllNotifications(c.Request.Context())
	if err != nil {
		serverError(c, "Failed to list notifications", err)
		return
	}
	ok(c, gin.H{"notifications": nonNil(list)})
}

func (nc *NotificationController) CreateNotification(c *gin.Context) {
	userID, found := idParam(c, "user_id")
	title, message := param(c, "title"), param(c, "message")
	if !found || title == "" || message == "" {
		invalid(c, "User ID, title, and message are required")
		return
	}
	typ, err := models.ParseNotificationType(param(c, "type"))
	if err != nil {
		invalid(c, "Type must be order, general, or system")
		return
	}
	n := models.Notification{UserID: userID, Title: title, Message: message, Type: typ}
	if orderID, found := idParam(c, "order_id"); found {
		n.OrderID = &orderID
	}

	id, err := nc.notifications.CreateNotification(c.Request.Context(), n)
	if err != nil {
		serverError(c, "Failed to create notification", err)
		return
	}
	ok(c, gin.H{"message": "Notification created successfully", "notification_id": id})
}

func (nc *NotificationController) markRead(read bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, found := idParam(c, "notification_id")
		if !found {
			invalid(c, "Notification ID is required")
			return
		}
		err := nc.notifications.SetNotificationRead(c.Request.Context(), id, read)
		if errors.Is(err, store.ErrNotificationNotFound) {
			invalid(c, "Notification not found")
			return
		}
		if err != nil {
			serverError(c, "Failed to update notification", err)
			return
		}
		message := "Notification marked as read"
		if !read {
			message = "Notification marked as unread"
		}
		ok(c, gin.H{"message": message})
	}
}

func (nc *NotificationController) DeleteNotification(c *gin.Context) {
	id, found := idParam(c, "notification_id")
	if !found {
		invalid(c, "Notification ID is required")
		return
	}
	err := nc.notifications.DeleteNotification(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotificationNotFound) {
		invalid(c, "Notification not found")
		return
	}
	if err != nil {
		serverError(c, "Failed to delete notification", err)
		return
	}
	ok(c, gin.H{"message": "Notification deleted successfully"})
}

// DeleteOwnNotification lets the mobile app remove one of the customer's
// notifications. An admin token removes any notification.
func (nc *NotificationController) DeleteOwnNotification(c *gin.Context) {
	if _, err := middlewares.GetAdminClaims(c); err == nil {
		nc.DeleteNotification(c)
		return
	}
	id, found := idParam(c, "notification_id")
	userID, hasUser := idParam(c, "user_id")
	if !found || !hasUser {
		invalid(c, "Notification ID and user ID are required")
		return
	}
	err := nc.notifications.DeleteUserNotification(c.Request.Context(), id, userID)
	if errors.Is(err, store.ErrNotificationNotFound) {
		invalid(c, "Notification not found")
		return
	}
	if err != nil {
		serverError(c, "Failed to delete notification", err)
		return
	}
	ok(c, gin.H{"message": "Notification deleted successfully"})
}

func (nc *NotificationController) GetAnnouncements(c *gin.Context) {
	list, err := nc.announcements.ListAnnouncements(c.Request.Context())
	if err != nil {
		serverError(c, "Failed to list announcements", err)
		return
	}
	ok(c, gin.H{"announcements": nonNil(list)})
}

// CreateAnnouncement stores an announcement and notifies every active customer.
func (nc *NotificationController) CreateAnnouncement(c *gin.Context) {
	title, message := param(c, "title"), param(c, "message")
	if title == "" || message == "" {
		invalid(c, "Title and message are required")
		return
	}

	b, err := nc.announcements.BroadcastAnnouncement(c.Request.Context(), title, message)
	middlewares.RecordOrderOperation("broadcast", err == nil)
	if err != nil {
		serverError(c, "Failed to broadcast announcement", err)
		return
	}

	publish(c, nc.publisher, models.OrderEvent{Type: models.EventAnnouncement})
	ok(c, gin.H{
		"message":            "Announcement sent successfully",
		"announcement_id":    b.AnnouncementID,
		"notifications_sent": b.NotificationsSent,
	})
}

func (nc *NotificationController) UpdateAnnouncement(c *gin.Context) {
	id, found := idParam(c, "announcement_id")
	title, message := param(c, "title"), param(c, "message")
	if !found || title == "" || message == "" {
		invalid(c, "Announcement ID, title, and message are required")
		return
	}
	err := nc.announcements.UpdateAnnouncement(c.Request.Context(), id, title, message)
	if errors.Is(err, store.ErrAnnouncementNotFound) {
		invalid(c, "Announcement not found")
		return
	}
	if err != nil {
		serverError(c, "Failed to update announcement", err)
		return
	}
	ok(c, gin.H{"message": "Announcement updated successfully"})
}

func (nc *NotificationController) DeleteAnnouncement(c *gin.Context) {
	id, found := idParam(c, "announcement_id")
	if !found {
		invalid(c, "Announcement ID is required")
		return
	}
	err := nc.announcements.DeleteAnnouncement(c.Request.Context(), id)
	if errors.Is(err, store.ErrAnnouncementNotFound) {
		invalid(c, "Announcement not found")
		return
	}
	if err != nil {
		serverError(c, "Failed to delete announcement", err)
		return
	}
	ok(c, gin.H{"message": "Announcement deleted successfully"})
}
