package repositories

import (
	"context"

	"fmt"
	"testing"
	"time"

	"github.com/anonto42/tracle/internal/migrations"
	"github.com/anonto42/tracle/internal/models"
	"github.com/anonto42/tracle/internal/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := testutil.NewDB(t)
	require.NoError(t, migrations.Run(db, testutil.NullLogger()))
	return db
}

func createChannel(t *testing.T, db *gorm.DB, name string) *models.Channel {
	t.Helper()
	user := &models.User{Email: name + "@example.com", Password: "x"}
	channel := &models.Channel{Name: name}
	require.NoError(t, NewPostgresUserRepository(db).CreateUserWithChannel(context.Background(), user, channel))
	return channel
}

var videoSeq int

func createVideo(t *testing.T, db *gorm.DB, channel *models.Channel, title string, published bool, created time.Time) *models.Video {
	t.Helper()
	videoSeq++
	v := &models.Video{
		WatchID:   fmt.Sprintf("v%010d", videoSeq),
		ChannelID: channel.ID,
		Title:     title,
		Published: published,
		CreatedAt: created,
	}
	require.NoError(t, NewPostgresVideoRepository(db).Create(context.Background(), v))
	return v
}

func category(t *testing.T, db *gorm.DB, slug string) *models.Category {
	t.Helper()
	c, err := NewPostgresCategoryRepository(db).GetCategoryBySlug(context.Background(), slug)
	require.NoError(t, err)
	return c
}
