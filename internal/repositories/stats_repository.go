package repositories

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
)

// StatsRepository answers aggregate questions with hand-built SQL.
type StatsRepository interface {
	GetTotalViews(ctx context.Context, channelID uint) (int64, error)
}

// SQLStatsRepository implements StatsRepository over database/sql.
type SQLStatsRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

// NewSQLStatsRepository creates a new SQLStatsRepository. Postgres takes
// sq.Dollar placeholders, SQLite sq.Question.
func NewSQLStatsRepository(db *sql.DB, placeholders sq.PlaceholderFormat) *SQLStatsRepository {
	return &SQLStatsRepository{db: db, builder: sq.StatementBuilder.PlaceholderFormat(placeholders)}
}

// GetTotalViews sums the views of the channel's published videos.
func (r *SQLStatsRepository) GetTotalViews(ctx context.Context, channelID uint) (int64, error) {
	wrapMsg := "unable to get the total views of the channel"

	query, args, err := r.builder.
		Select("COALESCE(SUM(views), 0)").
		From("videos").
		Where(sq.Eq{"channel_id": int64(channelID)}).
		Where(sq.Eq{"published": true}).
		ToSql()
	if err != nil {
		return 0, errors.Wrap(err, wrapMsg)
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, errors.Wrap(err, wrapMsg)
	}
	return total, nil
}
