package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"hiryo-backoffice/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastWithNoActiveCustomers(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO announcements (title, message, created_at)")).
		WithArgs("Holiday hours", "Closed on Dec 25").
		WillReturnResult(sqlmock.NewResult(8, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id FROM users WHERE roles = ? AND status = ?")).
		WithArgs("customer", "Active").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))
	mock.ExpectCommit()

	b, err := s.BroadcastAnnouncement(context.Background(), "Holiday hours", "Closed on Dec 25")

	require.NoError(t, err)
	assert.Equal(t, int64(8), b.AnnouncementID)
	assert.Equal(t, 0, b.NotificationsSent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBroadcastNotifiesEveryActiveCustomer(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO announcements")).WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id FROM users")).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(int64(7)).AddRow(int64(9)))
	for _, id := range []int64{7, 9} {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notifications")).
			WithArgs(id, nil, "New stock", "Vermicast is back", "general").
			WillReturnResult(sqlmock.NewResult(id, 1))
	}
	mock.ExpectCommit()

	b, err := s.BroadcastAnnouncement(context.Background(), "New stock", "Vermicast is back")

	require.NoError(t, err)
	assert.Equal(t, 2, b.NotificationsSent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBroadcastRollsBackEverything(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO announcements")).WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id FROM users")).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(int64(7)).AddRow(int64(9)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notifications")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notifications")).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := s.BroadcastAnnouncement(context.Background(), "New stock", "Vermicast is back")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "notify user 9")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserNotifications(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = ? ORDER BY created_at DESC, notification_id DESC LIMIT 50")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"notification_id", "user_id", "order_id", "title", "message", "type", "is_read", "created_at"}).
			AddRow(int64(3), int64(7), int64(101), "Order Confirmed", "...", "order", false, testOrderDate).
			AddRow(int64(2), int64(7), nil, "Holiday hours", "...", "general", true, testOrderDate))

	list, err := s.UserNotifications(context.Background(), 7)

	require.NoError(t, err)
	require.Len(t, list, 2)
	require.NotNil(t, list[0].OrderID)
	assert.Equal(t, int64(101), *list[0].OrderID)
	assert.Equal(t, models.NotificationOrder, list[0].Type)
	assert.Nil(t, list[1].OrderID)
	assert.True(t, list[1].IsRead)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetNotificationRead(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET is_read = ? WHERE notification_id = ?")).
		WithArgs(true, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET is_read = ?")).
		WithArgs(false, int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.SetNotificationRead(context.Background(), 3, true))
	assert.ErrorIs(t, s.SetNotificationRead(context.Background(), 404, false), ErrNotificationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUserNotificationIsOwnerScoped(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notifications WHERE notification_id = ? AND user_id = ?")).
		WithArgs(int64(3), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notifications WHERE notification_id = ? AND user_id = ?")).
		WithArgs(int64(3), int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.DeleteUserNotification(context.Background(), 3, 7))
	assert.ErrorIs(t, s.DeleteUserNotification(context.Background(), 3, 8), ErrNotificationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAnnouncementMissing(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM announcements WHERE announcement_id = ?")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, s.DeleteAnnouncement(context.Background(), 5), ErrAnnouncementNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
