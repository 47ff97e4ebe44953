package models

import (
	"fmt"
	"strings"
	"time"
)

type NotificationType string

const (
	NotificationOrder   NotificationType = "order"
	NotificationGeneral NotificationType = "general"
	NotificationSystem  NotificationType = "system"
)

// ParseNotificationType defaults an empty value to general.
func ParseNotificationType(s string) (NotificationType, error) {
	switch NotificationType(strings.ToLower(strings.TrimSpace(s))) {
	case "", NotificationGeneral:
		return NotificationGeneral, nil
	case NotificationOrder:
		return NotificationOrder, nil
	case NotificationSystem:
		return NotificationSystem, nil
	}
	return "", fmt.Errorf("unknown notification type %q", s)
}

type Notification struct {
	ID        int64            `json:"notification_id"`
	UserID    int64            `json:"user_id"`
	OrderID   *int64           `json:"order_id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`

	// Filled on admin listings only.
	Username string `json:"username,omitempty"`
}

type Announcement struct {
	ID        int64     `json:"announcement_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Broadcast is the outcome of publishing an announcement.
type Broadcast struct {
	AnnouncementID    int64 `json:"announcement_id"`
	NotificationsSent int   `json:"notifications_sent"`
}

func AdminOrderNotification(orderID int64, total string) (title, message string) {
	return "New Order Received",
		fmt.Sprintf("New order #%d has been placed with total amount ₱%s. Please review and process.", orderID, total)
}

func BuyerOrderNotification(orderID int64, total string) (title, message string) {
	return "Order Confirmed",
		fmt.Sprintf("Your order #%d has been placed successfully and is pending confirmation. Total amount: ₱%s", orderID, total)
}
