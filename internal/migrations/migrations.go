package migrations

import (
	"time"

	"github.com/anonto42/tracle/internal/models"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SchemaMigration records one applied step.
type SchemaMigration struct {
	Name      string    `gorm:"primaryKey;size:100"`
	AppliedAt time.Time `gorm:"not null"`
}

func (SchemaMigration) TableName() string { return "schema_migrations" }

// Step is a named, forward-only schema change.
type Step struct {
	Name string
	Up   func(tx *gorm.DB) error
}

// DefaultCategories are the categories seeded into a fresh database.
var DefaultCategories = []models.Category{
	{Name: "Music", Slug: "music"},
	{Name: "Gaming", Slug: "gaming"},
	{Name: "Sports", Slug: "sports"},
	{Name: "News", Slug: "news"},
	{Name: "Education", Slug: "education"},
	{Name: "Science & Technology", Slug: "science-technology"},
	{Name: "Entertainment", Slug: "entertainment"},
	{Name: "Travel", Slug: "travel"},
}

// Steps is the ordered migration history.
var Steps = []Step{
	{
		Name: "0001_initial",
		Up: func(tx *gorm.DB) error {
			return tx.AutoMigrate(
				&models.User{},
				&models.Channel{},
				&models.Category{},
				&models.Video{},
				&models.Subscription{},
				&models.Comment{},
			)
		},
	},
	{
		Name: "0002_seed_categories",
		Up: func(tx *gorm.DB) error {
			cats := make([]models.Category, len(DefaultCategories))
			copy(cats, DefaultCategories)
			return tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "slug"}}, DoNothing: true}).Create(&cats).Error
		},
	},
	{
		Name: "0010_notifications",
		Up: func(tx *gorm.DB) error {
			if !tx.Migrator().HasColumn(&models.Video{}, "SubsNotified") {
				if err := tx.Migrator().AddColumn(&models.Video{}, "SubsNotified"); err != nil {
					return err
				}
			}
			return tx.AutoMigrate(&models.Notification{})
		},
	},
}

// Run applies every step of Steps not yet recorded in schema_migrations.
func Run(db *gorm.DB, log logrus.FieldLogger) error {
	return Apply(db, Steps, log)
}

// Apply applies steps in order, each at most once and inside its own transaction.
func Apply(db *gorm.DB, steps []Step, log logrus.FieldLogger) error {
	wrapMsg := "unable to apply migrations"

	if err := db.AutoMigrate(&SchemaMigration{}); err != nil {
		return errors.Wrap(err, wrapMsg)
	}

	for _, step := range steps {
		var count int64
		if err := db.Model(&SchemaMigration{}).Where("name = ?", step.Name).Count(&count).Error; err != nil {
			return errors.Wrapf(err, "check migration %s", step.Name)
		}
		if count > 0 {
			continue
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := step.Up(tx); err != nil {
				return err
			}
			return tx.Create(&SchemaMigration{Name: step.Name, AppliedAt: time.Now().UTC()}).Error
		})
		if err != nil {
			return errors.Wrapf(err, "apply migration %s", step.Name)
		}
		log.WithField("migration", step.Name).Info("migration applied")
	}
	return nil
}
