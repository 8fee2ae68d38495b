package repository

import (
	"context"

	"asdm/internal/app/apperr"
	"asdm/internal/app/ds"
)

type NotificationFilter struct {
	// OwnerID keeps the notifications addressed to this user only.
	OwnerID  *uint
	UserID   *uint
	Type     ds.NotificationType
	Priority ds.Priority
	Read     *bool
	Search   string
	Ordering string
}

var notificationOrdering = map[string]string{
	"date_envoi": "sent_at",
}

func (r *Repository) GetNotification(ctx context.Context, id uint) (*ds.Notification, error) {
	var n ds.Notification
	if err := r.db.WithContext(ctx).First(&n, id).Error; err != nil {
		return nil, notFound(err, "notification", id)
	}
	return &n, nil
}

func (r *Repository) ListNotifications(ctx context.Context, f NotificationFilter) ([]ds.Notification, error) {
	q := r.db.WithContext(ctx).Model(&ds.Notification{})
	if f.OwnerID != nil {
		q = q.Where("user_id = ?", *f.OwnerID)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}
	if f.Read != nil {
		q = q.Where("read = ?", *f.Read)
	}
	if f.Search != "" {
		q = q.Where("LOWER(content) LIKE ?", like(f.Search))
	}

	var ns []ds.Notification
	err := orderBy(q, f.Ordering, notificationOrdering, "sent_at DESC, id DESC").Find(&ns).Error
	return ns, err
}

// CreateNotification stores a notification for an existing recipient.
func (r *Repository) CreateNotification(ctx context.Context, n *ds.Notification) error {
	if _, err := r.GetUserByID(ctx, n.UserID); err != nil {
		if apperr.IsNotFound(err) {
			return apperr.Invalid("utilisateur_id", "not_found")
		}
		return err
	}
	return r.write(ctx).Create(n).Error
}

func (r *Repository) SaveNotification(ctx context.Context, n *ds.Notification) error {
	return r.write(ctx).Save(n).Error
}

func (r *Repository) DeleteNotification(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&ds.Notification{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("notification", id)
	}
	return nil
}

func (r *Repository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&ds.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error
	return count, err
}
