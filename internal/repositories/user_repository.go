package repositories

import (
	"context"
	"time"

	"github.com/anonto42/tracle/internal/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
	IsEmailTaken(ctx context.Context, email string) (bool, error)
	CreateUserWithChannel(ctx context.Context, user *models.User, channel *models.Channel) error
	Update(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, userID uint, at time.Time) error
	SetPassword(ctx context.Context, userID uint, hash string) error
	ConfirmEmail(ctx context.Context, userID uint) error
}

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, errors.Wrapf(err, "unable to get user %d", id)
	}
	return &user, nil
}

// GetUserByEmail matches the address case-insensitively.
func (r *PostgresUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&user).Error; err != nil {
		return nil, errors.Wrap(err, "unable to get user by email")
	}
	return &user, nil
}

func (r *PostgresUserRepository) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("firebase_uid = ?", firebaseUID).First(&user).Error; err != nil {
		return nil, errors.Wrap(err, "unable to get user by firebase uid")
	}
	return &user, nil
}

func (r *PostgresUserRepository) IsEmailTaken(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("LOWER(email) = LOWER(?)", email).Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "unable to check email")
	}
	return count > 0, nil
}

// CreateUserWithChannel inserts the user and its channel in one transaction.
func (r *PostgresUserRepository) CreateUserWithChannel(ctx context.Context, user *models.User, channel *models.Channel) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return errors.Wrap(err, "unable to create user")
		}
		channel.UserID = user.ID
		if err := tx.Omit(clause.Associations).Create(channel).Error; err != nil {
			return errors.Wrap(err, "unable to create channel")
		}
		return nil
	})
}

func (r *PostgresUserRepository) Update(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Save(user).Error
	return errors.Wrapf(err, "unable to update user %d", user.ID)
}

func (r *PostgresUserRepository) UpdateLastLogin(ctx context.Context, userID uint, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("last_login", at.UTC()).Error
	return errors.Wrap(err, "unable to update last login")
}

func (r *PostgresUserRepository) SetPassword(ctx context.Context, userID uint, hash string) error {
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("password", hash).Error
	return errors.Wrap(err, "unable to set password")
}

func (r *PostgresUserRepository) ConfirmEmail(ctx context.Context, userID uint) error {
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("email_confirmed", true).Error
	return errors.Wrap(err, "unable to confirm email")
}
