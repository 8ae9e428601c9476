package notifications

import (
	"context"

	"testing"
	"time"

	"github.com/anonto42/tracle/internal/migrations"
	"github.com/anonto42/tracle/internal/models"
	"github.com/anonto42/tracle/internal/repositories"
	"github.com/anonto42/tracle/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	svc      *Service
	videos   *repositories.PostgresVideoRepository
	comments *repositories.PostgresCommentRepository
	subs     *repositories.PostgresSubscriptionRepository
	notifs   *repositories.PostgresNotificationRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	require.NoError(t, migrations.Run(db, testutil.NullLogger()))
	f := &fixture{
		db:       db,
		videos:   repositories.NewPostgresVideoRepository(db),
		comments: repositories.NewPostgresCommentRepository(db),
		subs:     repositories.NewPostgresSubscriptionRepository(db),
		notifs:   repositories.NewPostgresNotificationRepository(db),
	}
	f.svc = NewService(repositories.NewPostgresChannelRepository(db), f.subs, f.notifs, testutil.NullLogger())
	return f
}

func (f *fixture) channel(t *testing.T, name string) *models.Channel {
	t.Helper()
	ch := &models.Channel{Name: name}
	users := repositories.NewPostgresUserRepository(f.db)
	require.NoError(t, users.CreateUserWithChannel(context.Background(), &models.User{Email: name + "@x.io", Password: "x"}, ch))
	return ch
}

func (f *fixture) inbox(t *testing.T, userID uint) []models.Notification {
	t.Helper()
	page, err := f.notifs.GetByRecipientID(context.Background(), userID, "1", 50)
	require.NoError(t, err)
	return page.Items
}

func TestNotifyNewCommentSkipsActor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.channel(t, "owner")
	fan := f.channel(t, "fan")
	video := &models.Video{ChannelID: owner.ID, Title: "clip", Published: true}
	require.NoError(t, f.videos.Create(ctx, video))

	comment := &models.Comment{VideoID: video.ID, ChannelID: fan.ID, Content: "hi"}
	require.NoError(t, f.comments.Create(ctx, comment))
	n, err := f.svc.NotifyNewComment(ctx, fan, comment, video)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	inbox := f.inbox(t, owner.UserID)
	require.Len(t, inbox, 1)
	assert.Equal(t, models.NotificationNewComment, inbox[0].NotificationType)
	assert.Equal(t, comment.Ref(), inbox[0].Action())
	assert.Equal(t, video.Ref(), inbox[0].Target())
	assert.True(t, inbox[0].Unread)

	own := &models.Comment{VideoID: video.ID, ChannelID: owner.ID, Content: "thanks"}
	require.NoError(t, f.comments.Create(ctx, own))
	n, err = f.svc.NotifyNewComment(ctx, owner, own, video)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNotifyTagged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.channel(t, "owner")
	fan := f.channel(t, "fan")
	friend := f.channel(t, "friend")
	video := &models.Video{ChannelID: owner.ID, Title: "clip", Published: true}
	require.NoError(t, f.videos.Create(ctx, video))
	comment := &models.Comment{VideoID: video.ID, ChannelID: fan.ID, Content: "@Friend @fan @ghost"}
	require.NoError(t, f.comments.Create(ctx, comment))

	n, err := f.svc.NotifyTagged(ctx, fan, comment, video, []string{"Friend", "fan", "ghost"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	inbox := f.inbox(t, friend.UserID)
	require.Len(t, inbox, 1)
	assert.Equal(t, models.NotificationTaggedUser, inbox[0].NotificationType)
	assert.Empty(t, f.inbox(t, fan.UserID))
}

func TestNotifySubscribersOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	creator := f.channel(t, "creator")
	fans := []*models.Channel{f.channel(t, "fan_one"), f.channel(t, "fan_two")}
	for _, fan := range fans {
		require.NoError(t, f.subs.Subscribe(ctx, creator.ID, fan.ID))
	}

	draft := &models.Video{ChannelID: creator.ID, Title: "draft", CreatedAt: time.Now()}
	require.NoError(t, f.videos.Create(ctx, draft))
	n, err := f.svc.NotifySubscribers(ctx, draft)
	require.NoError(t, err)
	assert.Zero(t, n, "drafts are not announced")

	draft.Published = true
	require.NoError(t, f.videos.Update(ctx, draft))
	n, err = f.svc.NotifySubscribers(ctx, draft)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, draft.SubsNotified)

	n, err = f.svc.NotifySubscribers(ctx, draft)
	require.NoError(t, err)
	assert.Zero(t, n, "second publish must not notify again")

	stale := *draft
	stale.SubsNotified = false
	n, err = f.svc.NotifySubscribers(ctx, &stale)
	require.NoError(t, err)
	assert.Zero(t, n, "the stored flag gates a stale copy")

	for _, fan := range fans {
		inbox := f.inbox(t, fan.UserID)
		require.Len(t, inbox, 1)
		assert.Equal(t, models.NotificationNewVideo, inbox[0].NotificationType)
		assert.Equal(t, draft.Ref(), inbox[0].Action())
		assert.Equal(t, creator.Ref(), inbox[0].Target())
		assert.Equal(t, creator.ID, inbox[0].ActorID)
	}
}
