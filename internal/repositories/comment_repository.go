package repositories

import (
	"context"

	"github.com/anonto42/tracle/internal/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetCommentByID(ctx context.Context, id uint) (*models.Comment, error)
	GetCommentsForVideo(ctx context.Context, videoID uint) ([]models.Comment, error)
}

// PostgresCommentRepository implements CommentRepository for PostgreSQL
type PostgresCommentRepository struct {
	db *gorm.DB
}

// NewPostgresCommentRepository creates a new PostgresCommentRepository
func NewPostgresCommentRepository(db *gorm.DB) *PostgresCommentRepository {
	return &PostgresCommentRepository{db: db}
}

// Create creates a new comment in PostgreSQL
func (r *PostgresCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error
	return errors.Wrap(err, "unable to create comment")
}

// GetCommentByID retrieves a comment by ID from PostgreSQL
func (r *PostgresCommentRepository) GetCommentByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("Channel").First(&comment, id).Error; err != nil {
		return nil, errors.Wrapf(err, "unable to get comment %d", id)
	}
	return &comment, nil
}

// GetCommentsForVideo lists a video's comments, newest first
func (r *PostgresCommentRepository) GetCommentsForVideo(ctx context.Context, videoID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).Preload("Channel").
		Where("video_id = ?", videoID).
		Order("created_at DESC").Order("id DESC").
		Find(&comments).Error
	if err != nil {
		return nil, errors.Wrapf(err, "unable to list comments of video %d", videoID)
	}
	return comments, nil
}
