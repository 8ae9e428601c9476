package repositories

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/anonto42/tracle/internal/models"
	"github.com/anonto42/tracle/internal/pagination"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultRecommendedLimit is the number of recommended videos shown by pages.
const DefaultRecommendedLimit = 12

// VideoFilter narrows the latest-videos listing.
type VideoFilter struct {
	CategoryID *uint
	Search     string // case-insensitive title substring
	Limit      int    // 0 means no limit
}

// VideoRepository defines the interface for video data operations
type VideoRepository interface {
	GetLatestVideos(ctx context.Context, filter VideoFilter) ([]models.Video, error)
	ListLatestVideos(ctx context.Context, filter VideoFilter, rawPage string, perPage int) (pagination.Page[models.Video], error)
	GetRecommendedVideos(ctx context.Context, limit int) ([]models.Video, error)
	GetPublishedVideoByWatchID(ctx context.Context, watchID string) (*models.Video, error)
	GetVideoByWatchID(ctx context.Context, watchID string) (*models.Video, error)
	GetVideosFromChannel(ctx context.Context, channelID uint, publishedOnly bool) ([]models.Video, error)
	IsVideoLiked(ctx context.Context, videoID, channelID uint) (bool, error)
	IsVideoDisliked(ctx context.Context, videoID, channelID uint) (bool, error)
	CountRatings(ctx context.Context, videoID uint) (likes, dislikes int64, err error)
	Like(ctx context.Context, videoID, channelID uint) error
	Dislike(ctx context.Context, videoID, channelID uint) error
	ClearRating(ctx context.Context, videoID, channelID uint) error
	IncrementViews(ctx context.Context, videoID uint) error
	Create(ctx context.Context, video *models.Video) error
	Update(ctx context.Context, video *models.Video) error
}

// PostgresVideoRepository implements VideoRepository for PostgreSQL
type PostgresVideoRepository struct {
	db *gorm.DB
}

// NewPostgresVideoRepository creates a new PostgresVideoRepository
func NewPostgresVideoRepository(db *gorm.DB) *PostgresVideoRepository {
	return &PostgresVideoRepository{db: db}
}

func (r *PostgresVideoRepository) latest(ctx context.Context, filter VideoFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Video{}).Where("published = ?", true)
	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		q = q.Where("LOWER(title) LIKE LOWER(?) ESCAPE '\\'", "%"+escapeLike(term)+"%")
	}
	return q
}

func (r *PostgresVideoRepository) GetLatestVideos(ctx context.Context, filter VideoFilter) ([]models.Video, error) {
	var videos []models.Video
	q := r.latest(ctx, filter).Preload("Channel").Preload("Category").Order("created_at DESC").Order("id DESC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if err := q.Find(&videos).Error; err != nil {
		return nil, errors.Wrap(err, "unable to list latest videos")
	}
	return videos, nil
}

func (r *PostgresVideoRepository) ListLatestVideos(ctx context.Context, filter VideoFilter, rawPage string, perPage int) (pagination.Page[models.Video], error) {
	wrapMsg := "unable to page latest videos"

	var total int64
	if err := r.latest(ctx, filter).Count(&total).Error; err != nil {
		return pagination.Page[models.Video]{}, errors.Wrap(err, wrapMsg)
	}

	w := pagination.Paginate(rawPage, total, perPage)
	var videos []models.Video
	err := r.latest(ctx, filter).
		Preload("Channel").Preload("Category").
		Order("created_at DESC").Order("id DESC").
		Offset(w.Offset).Limit(w.Limit).
		Find(&videos).Error
	if err != nil {
		return pagination.Page[models.Video]{}, errors.Wrap(err, wrapMsg)
	}
	return pagination.NewPage(videos, w, total), nil
}

func (r *PostgresVideoRepository) GetRecommendedVideos(ctx context.Context, limit int) ([]models.Video, error) {
	if limit <= 0 {
		limit = DefaultRecommendedLimit
	}
	var videos []models.Video
	err := r.db.WithContext(ctx).
		Preload("Channel").
		Where("published = ?", true).
		Order("views DESC").Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&videos).Error
	if err != nil {
		return nil, errors.Wrap(err, "unable to list recommended videos")
	}
	return videos, nil
}

// GetPublishedVideoByWatchID returns nil, nil when the video is missing or unpublished.
func (r *PostgresVideoRepository) GetPublishedVideoByWatchID(ctx context.Context, watchID string) (*models.Video, error) {
	if watchID == "" {
		return nil, nil
	}
	var video models.Video
	err := r.db.WithContext(ctx).
		Preload("Channel").Preload("Category").
		Where("watch_id = ? AND published = ?", watchID, true).
		First(&video).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "unable to get published video %s", watchID)
	}
	return &video, nil
}

func (r *PostgresVideoRepository) GetVideoByWatchID(ctx context.Context, watchID string) (*models.Video, error) {
	var video models.Video
	err := r.db.WithContext(ctx).Preload("Channel").Preload("Category").Where("watch_id = ?", watchID).First(&video).Error
	if err != nil {
		return nil, errors.Wrapf(err, "unable to get video %s", watchID)
	}
	return &video, nil
}

func (r *PostgresVideoRepository) GetVideosFromChannel(ctx context.Context, channelID uint, publishedOnly bool) ([]models.Video, error) {
	var videos []models.Video
	q := r.db.WithContext(ctx).Preload("Category").Where("channel_id = ?", channelID)
	if publishedOnly {
		q = q.Where("published = ?", true)
	}
	if err := q.Order("created_at DESC").Order("id DESC").Find(&videos).Error; err != nil {
		return nil, errors.Wrapf(err, "unable to list videos of channel %d", channelID)
	}
	return videos, nil
}

func (r *PostgresVideoRepository) rated(ctx context.Context, table string, videoID, channelID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Table(table).Where("video_id = ? AND channel_id = ?", videoID, channelID).Count(&count).Error
	if err != nil {
		return false, errors.Wrapf(err, "unable to check %s", table)
	}
	return count > 0, nil
}

func (r *PostgresVideoRepository) IsVideoLiked(ctx context.Context, videoID, channelID uint) (bool, error) {
	return r.rated(ctx, "video_likes", videoID, channelID)
}

func (r *PostgresVideoRepository) IsVideoDisliked(ctx context.Context, videoID, channelID uint) (bool, error) {
	return r.rated(ctx, "video_dislikes", videoID, channelID)
}

func (r *PostgresVideoRepository) CountRatings(ctx context.Context, videoID uint) (int64, int64, error) {
	var likes, dislikes int64
	db := r.db.WithContext(ctx)
	if err := db.Table("video_likes").Where("video_id = ?", videoID).Count(&likes).Error; err != nil {
		return 0, 0, errors.Wrap(err, "unable to count likes")
	}
	if err := db.Table("video_dislikes").Where("video_id = ?", videoID).Count(&dislikes).Error; err != nil {
		return 0, 0, errors.Wrap(err, "unable to count dislikes")
	}
	return likes, dislikes, nil
}

// rate records a rating in table and removes the opposite one.
func (r *PostgresVideoRepository) rate(ctx context.Context, table, opposite string, videoID, channelID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM "+opposite+" WHERE video_id = ? AND channel_id = ?", videoID, channelID).Error; err != nil {
			return errors.Wrapf(err, "unable to clear %s", opposite)
		}
		err := tx.Table(table).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(map[string]interface{}{"video_id": videoID, "channel_id": channelID}).Error
		return errors.Wrapf(err, "unable to insert into %s", table)
	})
}

func (r *PostgresVideoRepository) Like(ctx context.Context, videoID, channelID uint) error {
	return r.rate(ctx, "video_likes", "video_dislikes", videoID, channelID)
}

func (r *PostgresVideoRepository) Dislike(ctx context.Context, videoID, channelID uint) error {
	return r.rate(ctx, "video_dislikes", "video_likes", videoID, channelID)
}

func (r *PostgresVideoRepository) ClearRating(ctx context.Context, videoID, channelID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"video_likes", "video_dislikes"} {
			if err := tx.Exec("DELETE FROM "+table+" WHERE video_id = ? AND channel_id = ?", videoID, channelID).Error; err != nil {
				return errors.Wrapf(err, "unable to clear %s", table)
			}
		}
		return nil
	})
}

func (r *PostgresVideoRepository) IncrementViews(ctx context.Context, videoID uint) error {
	err := r.db.WithContext(ctx).Model(&models.Video{}).Where("id = ?", videoID).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
	return errors.Wrap(err, "unable to increment views")
}

// Create inserts video, assigning a fresh WatchID when none is set.
func (r *PostgresVideoRepository) Create(ctx context.Context, video *models.Video) error {
	if video.WatchID == "" {
		id, err := NewWatchID()
		if err != nil {
			return err
		}
		video.WatchID = id
	}
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(video).Error
	return errors.Wrap(err, "unable to create video")
}

// Update saves the editable metadata of video.
func (r *PostgresVideoRepository) Update(ctx context.Context, video *models.Video) error {
	err := r.db.WithContext(ctx).Model(video).
		Select("Title", "Description", "CategoryID", "Published").
		Updates(video).Error
	return errors.Wrapf(err, "unable to update video %s", video.WatchID)
}

// NewWatchID returns 11 random url-safe characters.
func NewWatchID() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate watch id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
