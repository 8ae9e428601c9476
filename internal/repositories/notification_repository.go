package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/tracle/internal/models"
	"github.com/anonto42/tracle/internal/pagination"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDanglingRef is returned when a notification points at a row that does not exist.
var ErrDanglingRef = errors.New("notification reference does not resolve")

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	CreateNotifications(ctx context.Context, notifications []models.Notification) error
	AnnounceVideo(ctx context.Context, videoID uint, notifications []models.Notification) (bool, error)
	GetByRecipientID(ctx context.Context, recipientID uint, rawPage string, perPage int) (pagination.Page[models.Notification], error)
	GetUnreadCount(ctx context.Context, recipientID uint) (int64, error)
	MarkAsRead(ctx context.Context, notificationID, recipientID uint) (bool, error)
	MarkAllAsRead(ctx context.Context, recipientID uint) error
	Resolve(ctx context.Context, ref models.Ref) (models.Referenceable, error)
	ResolveAll(ctx context.Context, notifications []models.Notification) ([]models.ResolvedNotification, error)
}

// PostgresNotificationRepository implements NotificationRepository for PostgreSQL
type PostgresNotificationRepository struct {
	db *gorm.DB
}

// NewPostgresNotificationRepository creates a new PostgresNotificationRepository
func NewPostgresNotificationRepository(db *gorm.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

// CreateNotifications inserts all notifications in one transaction after
// checking that every action and target resolves.
func (r *PostgresNotificationRepository) CreateNotifications(ctx context.Context, notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return createNotifications(tx, notifications)
	})
}

// AnnounceVideo flips the video's subs_notified flag and inserts the
// announcement batch in the same transaction. It reports false, writing
// nothing, when the video was already announced. A failed insert leaves the
// flag unset.
func (r *PostgresNotificationRepository) AnnounceVideo(ctx context.Context, videoID uint, notifications []models.Notification) (bool, error) {
	var flipped bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Video{}).
			Where("id = ? AND subs_notified = ?", videoID, false).
			UpdateColumn("subs_notified", true)
		if res.Error != nil {
			return errors.Wrap(res.Error, "unable to mark subscribers notified")
		}
		if flipped = res.RowsAffected == 1; !flipped {
			return nil
		}
		if len(notifications) == 0 {
			return nil
		}
		return createNotifications(tx, notifications)
	})
	if err != nil {
		return false, err
	}
	return flipped, nil
}

func createNotifications(tx *gorm.DB, notifications []models.Notification) error {
	checked := map[models.Ref]bool{}
	for i := range notifications {
		n := &notifications[i]
		if n.Created.IsZero() {
			n.Created = time.Now().UTC()
		}
		if !n.NotificationType.Valid() {
			return fmt.Errorf("unknown notification type %q", n.NotificationType)
		}
		for _, ref := range []models.Ref{n.Action(), n.Target()} {
			if checked[ref] {
				continue
			}
			entity, err := resolve(tx, ref)
			if err != nil {
				return err
			}
			if entity == nil {
				return errors.Wrap(ErrDanglingRef, ref.String())
			}
			checked[ref] = true
		}
	}
	err := tx.Omit(clause.Associations).Create(&notifications).Error
	return errors.Wrap(err, "unable to create notifications")
}

// GetByRecipientID pages the recipient's notifications, newest first.
func (r *PostgresNotificationRepository) GetByRecipientID(ctx context.Context, recipientID uint, rawPage string, perPage int) (pagination.Page[models.Notification], error) {
	wrapMsg := "unable to list notifications"

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Notification{}).Where("recipient_id = ?", recipientID).Count(&total).Error; err != nil {
		return pagination.Page[models.Notification]{}, errors.Wrap(err, wrapMsg)
	}

	w := pagination.Paginate(rawPage, total, perPage)
	var notifications []models.Notification
	err := r.db.WithContext(ctx).Preload("Actor").
		Where("recipient_id = ?", recipientID).
		Order("created DESC").Order("id DESC").
		Offset(w.Offset).Limit(w.Limit).
		Find(&notifications).Error
	if err != nil {
		return pagination.Page[models.Notification]{}, errors.Wrap(err, wrapMsg)
	}
	return pagination.NewPage(notifications, w, total), nil
}

func (r *PostgresNotificationRepository) GetUnreadCount(ctx context.Context, recipientID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).Where("recipient_id = ? AND unread = ?", recipientID, true).Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "unable to count unread notifications")
	}
	return count, nil
}

// MarkAsRead reports false when the notification does not belong to recipientID.
func (r *PostgresNotificationRepository) MarkAsRead(ctx context.Context, notificationID, recipientID uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", notificationID, recipientID).
		Update("unread", false)
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "unable to mark notification read")
	}
	return res.RowsAffected > 0, nil
}

func (r *PostgresNotificationRepository) MarkAllAsRead(ctx context.Context, recipientID uint) error {
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND unread = ?", recipientID, true).
		Update("unread", false).Error
	return errors.Wrap(err, "unable to mark notifications read")
}

// Resolve loads the entity ref points at. It returns nil, nil when the row is gone.
func (r *PostgresNotificationRepository) Resolve(ctx context.Context, ref models.Ref) (models.Referenceable, error) {
	return resolve(r.db.WithContext(ctx), ref)
}

// ResolveAll pairs each notification with its action and target entities.
func (r *PostgresNotificationRepository) ResolveAll(ctx context.Context, notifications []models.Notification) ([]models.ResolvedNotification, error) {
	cache := map[models.Ref]models.Referenceable{}
	lookup := func(ref models.Ref) (models.Referenceable, error) {
		if e, ok := cache[ref]; ok {
			return e, nil
		}
		e, err := r.Resolve(ctx, ref)
		if err != nil {
			return nil, err
		}
		cache[ref] = e
		return e, nil
	}

	resolved := make([]models.ResolvedNotification, 0, len(notifications))
	for _, n := range notifications {
		action, err := lookup(n.Action())
		if err != nil {
			return nil, err
		}
		target, err := lookup(n.Target())
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, models.ResolvedNotification{Notification: n, ActionEntity: action, TargetEntity: target})
	}
	return resolved, nil
}

func resolve(db *gorm.DB, ref models.Ref) (models.Referenceable, error) {
	if !ref.Valid() {
		return nil, fmt.Errorf("invalid reference %s", ref)
	}

	var (
		entity models.Referenceable
		err    error
	)
	switch ref.Kind {
	case models.RefVideo:
		v := &models.Video{}
		err = db.Preload("Channel").First(v, ref.ID).Error
		entity = v
	case models.RefComment:
		c := &models.Comment{}
		err = db.Preload("Channel").First(c, ref.ID).Error
		entity = c
	case models.RefChannel:
		ch := &models.Channel{}
		err = db.First(ch, ref.ID).Error
		entity = ch
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "unable to resolve %s", ref)
	}
	return entity, nil
}
