package migrations

import (
	"errors"
	"testing"

	"github.com/anonto42/tracle/internal/models"
	"github.com/anonto42/tracle/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRunIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	log := testutil.NullLogger()

	require.NoError(t, Run(db, log))
	require.NoError(t, Run(db, log))

	var applied []SchemaMigration
	require.NoError(t, db.Order("name").Find(&applied).Error)
	require.Len(t, applied, len(Steps))
	assert.Equal(t, "0001_initial", applied[0].Name)

	var cats int64
	require.NoError(t, db.Model(&models.Category{}).Count(&cats).Error)
	assert.Equal(t, int64(len(DefaultCategories)), cats)

	for _, table := range []string{"users", "channels", "videos", "video_likes", "video_dislikes", "subscriptions", "comments", "notifications"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasColumn(&models.Video{}, "SubsNotified"))
}

func TestApplyRollsBackFailedStep(t *testing.T) {
	db := testutil.NewDB(t)
	boom := errors.New("boom")

	err := Apply(db, []Step{
		{Name: "0001_ok", Up: func(tx *gorm.DB) error { return nil }},
		{Name: "0002_fail", Up: func(tx *gorm.DB) error { return boom }},
	}, testutil.NullLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var names []string
	require.NoError(t, db.Model(&SchemaMigration{}).Pluck("name", &names).Error)
	assert.Equal(t, []string{"0001_ok"}, names)
}
