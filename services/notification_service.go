package services

import (
	"context"
	"fmt"
	"time"

	"faculty-appraisal-api/models"

	"gorm.io/gorm"
)

type NotificationService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db, now: time.Now}
}

// List returns the caller's notifications, newest first, and the unread count.
func (s *NotificationService) List(ctx context.Context, p Principal, unreadOnly bool, limit int) ([]models.Notification, int64, error) {
	if !p.valid() {
		return nil, 0, forbidden("your account is not allowed to read notifications")
	}
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}

	db := s.db.WithContext(ctx)

	var unread int64
	if err := db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", p.UserID, false).
		Count(&unread).Error; err != nil {
		return nil, 0, fmt.Errorf("count unread notifications: %w", err)
	}

	query := db.Where("user_id = ?", p.UserID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var items []models.Notification
	if err := query.Order("create_at DESC, notification_id DESC").Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	return items, unread, nil
}

// MarkRead marks one of the caller's notifications as read. Other users' rows are not found.
func (s *NotificationService) MarkRead(ctx context.Context, p Principal, id uint) error {
	if !p.valid() {
		return forbidden("your account is not allowed to read notifications")
	}

	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("notification_id = ? AND user_id = ?", id, p.UserID).
		Updates(map[string]interface{}{"is_read": true, "update_at": s.now()})
	if res.Error != nil {
		return fmt.Errorf("mark notification read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("notification not found")
	}
	return nil
}
