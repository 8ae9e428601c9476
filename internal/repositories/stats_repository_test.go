package repositories

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
)

func TestGetTotalViews(t *testing.T) {
	assert := assert.New(t)

	db, mock, err := sqlmock.New()
	assert.NoError(err, "unable to open the mock database connection")
	defer db.Close()

	rows := sqlmock.NewRows([]string{"total"}).AddRow(int64(1234))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(views), 0) FROM videos WHERE channel_id = $1 AND published = $2")).
		WithArgs(int64(7), true).
		WillReturnRows(rows)

	total, err := NewSQLStatsRepository(db, sq.Dollar).GetTotalViews(context.Background(), 7)
	assert.NoError(err, "unexpected error while summing views")
	assert.Equal(int64(1234), total)

	err = mock.ExpectationsWereMet()
	assert.NoError(err, "not all mock expectations were met")
}

func TestGetTotalViewsError(t *testing.T) {
	assert := assert.New(t)

	db, mock, err := sqlmock.New()
	assert.NoError(err, "unable to open the mock database connection")
	defer db.Close()

	mock.ExpectQuery("SELECT COALESCE").WillReturnError(context.DeadlineExceeded)

	_, err = NewSQLStatsRepository(db, sq.Dollar).GetTotalViews(context.Background(), 7)
	assert.ErrorIs(err, context.DeadlineExceeded)
}

func TestGetTotalViewsSQLite(t *testing.T) {
	db := newTestDB(t)
	ch := createChannel(t, db, "creator")
	videos := NewPostgresVideoRepository(db)
	ctx := context.Background()

	pub := createVideo(t, db, ch, "a", true, time.Now())
	draft := createVideo(t, db, ch, "b", false, time.Now())
	for _, id := range []uint{pub.ID, pub.ID, draft.ID} {
		assert.NoError(t, videos.IncrementViews(ctx, id))
	}

	sqlDB, err := db.DB()
	assert.NoError(t, err)
	total, err := NewSQLStatsRepository(sqlDB, sq.Question).GetTotalViews(ctx, ch.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), total)
}
