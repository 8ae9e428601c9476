package repositories

import (
	"context"

	"github.com/anonto42/tracle/internal/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriptionRepository defines the interface for subscription data operations.
// followedID is the channel being subscribed to, subscriberID the one subscribing.
type SubscriptionRepository interface {
	IsSubscribed(ctx context.Context, followedID, subscriberID uint) (bool, error)
	Subscribe(ctx context.Context, followedID, subscriberID uint) error
	Unsubscribe(ctx context.Context, followedID, subscriberID uint) error
	GetSubscribers(ctx context.Context, channelID uint) ([]models.Channel, error)
	CountSubscribers(ctx context.Context, channelID uint) (int64, error)
}

// PostgresSubscriptionRepository implements SubscriptionRepository for PostgreSQL
type PostgresSubscriptionRepository struct {
	db *gorm.DB
}

// NewPostgresSubscriptionRepository creates a new PostgresSubscriptionRepository
func NewPostgresSubscriptionRepository(db *gorm.DB) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{db: db}
}

func (r *PostgresSubscriptionRepository) IsSubscribed(ctx context.Context, followedID, subscriberID uint) (bool, error) {
	if followedID == 0 || subscriberID == 0 {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("from_channel_id = ? AND channel_id = ?", followedID, subscriberID).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "unable to check subscription")
	}
	return count > 0, nil
}

// Subscribe is a no-op when the subscription already exists.
func (r *PostgresSubscriptionRepository) Subscribe(ctx context.Context, followedID, subscriberID uint) error {
	if followedID == subscriberID {
		return ErrSelfSubscription
	}
	sub := &models.Subscription{ChannelID: subscriberID, FromChannelID: followedID}
	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(sub).Error
	return errors.Wrap(err, "unable to subscribe")
}

func (r *PostgresSubscriptionRepository) Unsubscribe(ctx context.Context, followedID, subscriberID uint) error {
	err := r.db.WithContext(ctx).
		Where("from_channel_id = ? AND channel_id = ?", followedID, subscriberID).
		Delete(&models.Subscription{}).Error
	return errors.Wrap(err, "unable to unsubscribe")
}

// GetSubscribers returns the channels subscribed to channelID.
func (r *PostgresSubscriptionRepository) GetSubscribers(ctx context.Context, channelID uint) ([]models.Channel, error) {
	var channels []models.Channel
	err := r.db.WithContext(ctx).Where("id IN (?)",
		r.db.Table("subscriptions").Select("channel_id").Where("from_channel_id = ?", channelID),
	).Order("id").Find(&channels).Error
	if err != nil {
		return nil, errors.Wrapf(err, "unable to list subscribers of channel %d", channelID)
	}
	return channels, nil
}

func (r *PostgresSubscriptionRepository) CountSubscribers(ctx context.Context, channelID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Subscription{}).Where("from_channel_id = ?", channelID).Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "unable to count subscribers")
	}
	return count, nil
}
