package repositories

import (
	"context"
	"strings"
	"time"

	"github.com/anonto42/tracle/internal/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ChannelRepository defines the interface for channel data operations
type ChannelRepository interface {
	GetChannelByUserID(ctx context.Context, userID uint) (*models.Channel, error)
	GetChannelByID(ctx context.Context, id uint) (*models.Channel, error)
	GetChannelByName(ctx context.Context, name string) (*models.Channel, error)
	GetChannelsByNames(ctx context.Context, names []string) ([]models.Channel, error)
	GetAllChannels(ctx context.Context) ([]models.Channel, error)
	IsNameTaken(ctx context.Context, name string, exceptID uint) (bool, error)
	Update(ctx context.Context, channel *models.Channel) error
	UpdateLastLogin(ctx context.Context, channelID uint, at time.Time) error
}

// PostgresChannelRepository implements ChannelRepository for PostgreSQL
type PostgresChannelRepository struct {
	db *gorm.DB
}

// NewPostgresChannelRepository creates a new PostgresChannelRepository
func NewPostgresChannelRepository(db *gorm.DB) *PostgresChannelRepository {
	return &PostgresChannelRepository{db: db}
}

func (r *PostgresChannelRepository) GetChannelByUserID(ctx context.Context, userID uint) (*models.Channel, error) {
	var channel models.Channel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&channel).Error; err != nil {
		return nil, errors.Wrapf(err, "unable to get channel of user %d", userID)
	}
	return &channel, nil
}

func (r *PostgresChannelRepository) GetChannelByID(ctx context.Context, id uint) (*models.Channel, error) {
	var channel models.Channel
	if err := r.db.WithContext(ctx).First(&channel, id).Error; err != nil {
		return nil, errors.Wrapf(err, "unable to get channel %d", id)
	}
	return &channel, nil
}

// GetChannelByName returns nil, nil when no channel has that name.
func (r *PostgresChannelRepository) GetChannelByName(ctx context.Context, name string) (*models.Channel, error) {
	var channel models.Channel
	err := r.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&channel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "unable to get channel by name")
	}
	return &channel, nil
}

func (r *PostgresChannelRepository) GetChannelsByNames(ctx context.Context, names []string) ([]models.Channel, error) {
	if len(names) == 0 {
		return nil, nil
	}
	lowered := make([]string, len(names))
	for i, name := range names {
		lowered[i] = strings.ToLower(name)
	}
	var channels []models.Channel
	if err := r.db.WithContext(ctx).Where("LOWER(name) IN ?", lowered).Order("id").Find(&channels).Error; err != nil {
		return nil, errors.Wrap(err, "unable to get channels by names")
	}
	return channels, nil
}

func (r *PostgresChannelRepository) GetAllChannels(ctx context.Context) ([]models.Channel, error) {
	var channels []models.Channel
	if err := r.db.WithContext(ctx).Order("name").Find(&channels).Error; err != nil {
		return nil, errors.Wrap(err, "unable to list channels")
	}
	return channels, nil
}

// IsNameTaken checks name case-insensitively, ignoring the channel exceptID.
func (r *PostgresChannelRepository) IsNameTaken(ctx context.Context, name string, exceptID uint) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.Channel{}).Where("LOWER(name) = LOWER(?)", name)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "unable to check channel name")
	}
	return count > 0, nil
}

func (r *PostgresChannelRepository) Update(ctx context.Context, channel *models.Channel) error {
	err := r.db.WithContext(ctx).Model(channel).Select("Name").Updates(channel).Error
	return errors.Wrapf(err, "unable to update channel %d", channel.ID)
}

func (r *PostgresChannelRepository) UpdateLastLogin(ctx context.Context, channelID uint, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.Channel{}).Where("id = ?", channelID).Update("last_login", at.UTC()).Error
	return errors.Wrap(err, "unable to update channel last login")
}
