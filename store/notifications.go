package store

import (
	"context"
	"database/sql"
	"fmt"

	"hiryo-backoffice/models"
)

func insertNotification(ctx context.Context, q querier, userID int64, orderID *int64, title, message string, typ models.NotificationType) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO notifications (user_id, order_id, title, message, type, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, 0, NOW())`,
		userID, orderID, title, message, string(typ))
	return err
}

func scanNotification(sc scanner, withUsername bool) (models.Notification, error) {
	var (
		n       models.Notification
		orderID sql.NullInt64
		typ     string
	)
	dest := []any{&n.ID, &n.UserID, &orderID, &n.Title, &n.Message, &typ, &n.IsRead, &n.CreatedAt}
	if withUsername {
		dest = append(dest, &n.Username)
	}
	if err := sc.Scan(dest...); err != nil {
		return n, err
	}
	if orderID.Valid {
		n.OrderID = &orderID.Int64
	}
	n.Type = models.NotificationType(typ)
	return n, nil
}

// UserNotifications returns the newest 50 notifications addressed to userID.
func (s *Store) UserNotifications(ctx context.Context, userID int64) ([]models.Notification, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT notification_id, user_id, order_id, title, message, type, is_read, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC, notification_id DESC
		LIMIT 50`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications of user %d: %w", userID, err)
	}
	defer rows.Close()

	out := []models.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows, false)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) AllNotifications(ctx context.Context) ([]models.Notification, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT n.notification_id, n.user_id, n.order_id, n.title, n.message, n.type, n.is_read, n.created_at,
		       COALESCE(u.username, '')
		FROM notifications n
		LEFT JOIN users u ON n.user_id = u.user_id
		ORDER BY n.created_at DESC, n.notification_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := []models.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows, true)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) CreateNotification(ctx context.Context, n models.Notification) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `
		INSERT INTO notifications (user_id, order_id, title, message, type, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, 0, NOW())`,
		n.UserID, n.OrderID, n.Title, n.Message, string(n.Type))
	if err != nil {
		return 0, fmt.Errorf("create notification: %w", err)
	}
	return res.LastInsertId()
}

// SetNotificationRead flips the read flag on one notification.
func (s *Store) SetNotificationRead(ctx context.Context, id int64, read bool) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE notifications SET is_read = ? WHERE notification_id = ?`, read, id)
	if err != nil {
		return fmt.Errorf("update notification %d: %w", id, err)
	}
	return expectOne(res, ErrNotificationNotFound)
}

func (s *Store) DeleteNotification(ctx context.Context, id int64) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM notifications WHERE notification_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete notification %d: %w", id, err)
	}
	return expectOne(res, ErrNotificationNotFound)
}

// DeleteUserNotification removes a notification only when it belongs to userID.
func (s *Store) DeleteUserNotification(ctx context.Context, id, userID int64) error {
	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM notifications WHERE notification_id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete notification %d of user %d: %w", id, userID, err)
	}
	return expectOne(res, ErrNotificationNotFound)
}

func (s *Store) ListAnnouncements(ctx context.Context) ([]models.Announcement, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT announcement_id, title, message, created_at, updated_at
		FROM announcements
		ORDER BY created_at DESC, announcement_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	defer rows.Close()

	out := []models.Announcement{}
	for rows.Next() {
		var a models.Announcement
		if err := rows.Scan(&a.ID, &a.Title, &a.Message, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan announcement: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// BroadcastAnnouncement stores the announcement and copies it into one
// general notification per active customer. Either every row is written or
// none is.
func (s *Store) BroadcastAnnouncement(ctx context.Context, title, message string) (*models.Broadcast, error) {
	var b models.Broadcast
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO announcements (title, message, created_at) VALUES (?, ?, NOW())`, title, message)
		if err != nil {
			return fmt.Errorf("insert announcement: %w", err)
		}
		if b.AnnouncementID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("get announcement ID: %w", err)
		}

		recipients, err := activeCustomerIDs(ctx, tx)
		if err != nil {
			return err
		}
		for _, userID := range recipients {
			if err := insertNotification(ctx, tx, userID, nil, title, message, models.NotificationGeneral); err != nil {
				return fmt.Errorf("notify user %d: %w", userID, err)
			}
			b.NotificationsSent++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func activeCustomerIDs(ctx context.Context, q querier) ([]int64, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT user_id FROM users WHERE roles = ? AND status = ? ORDER BY user_id`,
		models.RoleCustomer, models.UserStatusActive)
	if err != nil {
		return nil, fmt.Errorf("list active customers: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) UpdateAnnouncement(ctx context.Context, id int64, title, message string) error {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE announcements SET title = ?, message = ?, updated_at = NOW() WHERE announcement_id = ?`,
		title, message, id)
	if err != nil {
		return fmt.Errorf("update announcement %d: %w", id, err)
	}
	return expectOne(res, ErrAnnouncementNotFound)
}

func (s *Store) DeleteAnnouncement(ctx context.Context, id int64) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM announcements WHERE announcement_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete announcement %d: %w", id, err)
	}
	return expectOne(res, ErrAnnouncementNotFound)
}

// expectOne maps a statement that touched no row onto notFound.
func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
