package repositories

import (
	"context"

	"github.com/anonto42/tracle/internal/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// CategoryRepository defines the interface for category lookups
type CategoryRepository interface {
	GetAllCategories(ctx context.Context) ([]models.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	GetCategoryByID(ctx context.Context, id uint) (*models.Category, error)
}

// PostgresCategoryRepository implements CategoryRepository for PostgreSQL
type PostgresCategoryRepository struct {
	db *gorm.DB
}

// NewPostgresCategoryRepository creates a new PostgresCategoryRepository
func NewPostgresCategoryRepository(db *gorm.DB) *PostgresCategoryRepository {
	return &PostgresCategoryRepository{db: db}
}

func (r *PostgresCategoryRepository) GetAllCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).Order("name").Find(&categories).Error; err != nil {
		return nil, errors.Wrap(err, "unable to list categories")
	}
	return categories, nil
}

func (r *PostgresCategoryRepository) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&category).Error; err != nil {
		return nil, errors.Wrapf(err, "unable to get category %q", slug)
	}
	return &category, nil
}

func (r *PostgresCategoryRepository) GetCategoryByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, errors.Wrapf(err, "unable to get category %d", id)
	}
	return &category, nil
}
