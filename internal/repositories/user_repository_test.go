package repositories

import (
	"context"

	"testing"
	"time"

	"github.com/anonto42/tracle/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserWithChannel(t *testing.T) {
	db := newTestDB(t)
	users := NewPostgresUserRepository(db)
	channels := NewPostgresChannelRepository(db)
	ctx := context.Background()

	user := &models.User{Email: "Ada@Example.com", Password: "hash"}
	channel := &models.Channel{Name: "ada"}
	require.NoError(t, users.CreateUserWithChannel(ctx, user, channel))
	assert.False(t, user.EmailConfirmed)

	got, err := users.GetUserByEmail(ctx, "ada@example.COM")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	taken, err := users.IsEmailTaken(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.True(t, taken)

	ch, err := channels.GetChannelByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, channel.ID, ch.ID)

	// a duplicate channel name rolls the user back too
	err = users.CreateUserWithChannel(ctx, &models.User{Email: "b@example.com", Password: "x"}, &models.Channel{Name: "ada"})
	require.Error(t, err)
	taken, err = users.IsEmailTaken(ctx, "b@example.com")
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestUserUpdates(t *testing.T) {
	db := newTestDB(t)
	users := NewPostgresUserRepository(db)
	ctx := context.Background()
	ch := createChannel(t, db, "ada")

	require.NoError(t, users.ConfirmEmail(ctx, ch.UserID))
	require.NoError(t, users.SetPassword(ctx, ch.UserID, "new-hash"))
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, users.UpdateLastLogin(ctx, ch.UserID, at))

	u, err := users.GetUserByID(ctx, ch.UserID)
	require.NoError(t, err)
	assert.True(t, u.EmailConfirmed)
	assert.Equal(t, "new-hash", u.Password)
	require.NotNil(t, u.LastLogin)
	assert.True(t, at.Equal(*u.LastLogin))

	_, err = users.GetUserByID(ctx, 9999)
	assert.True(t, IsNotFound(err))
	_, err = users.GetUserByFirebaseUID(ctx, "nope")
	assert.True(t, IsNotFound(err))
}

func TestChannelLookups(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresChannelRepository(db)
	ctx := context.Background()
	ada := createChannel(t, db, "ada")
	createChannel(t, db, "bob")

	got, err := repo.GetChannelByName(ctx, "ADA")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, ada.ID, got.ID)

	got, err = repo.GetChannelByName(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)

	byNames, err := repo.GetChannelsByNames(ctx, []string{"ADA", "Bob", "zed"})
	require.NoError(t, err)
	assert.Len(t, byNames, 2)

	all, err := repo.GetAllChannels(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "ada", all[0].Name)

	taken, err := repo.IsNameTaken(ctx, "Ada", ada.ID)
	require.NoError(t, err)
	assert.False(t, taken)
	taken, err = repo.IsNameTaken(ctx, "Ada", 0)
	require.NoError(t, err)
	assert.True(t, taken)

	ada.Name = "ada_lovelace"
	require.NoError(t, repo.Update(ctx, ada))
	require.NoError(t, repo.UpdateLastLogin(ctx, ada.ID, time.Now()))
	got, err = repo.GetChannelByID(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada_lovelace", got.Name)
	assert.NotNil(t, got.LastLogin)

	_, err = repo.GetChannelByID(ctx, 9999)
	assert.True(t, IsNotFound(err))
}

func TestSubscriptions(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresSubscriptionRepository(db)
	ctx := context.Background()
	creator := createChannel(t, db, "creator")
	fan := createChannel(t, db, "fan")

	assert.ErrorIs(t, repo.Subscribe(ctx, creator.ID, creator.ID), ErrSelfSubscription)

	require.NoError(t, repo.Subscribe(ctx, creator.ID, fan.ID))
	require.NoError(t, repo.Subscribe(ctx, creator.ID, fan.ID))

	ok, err := repo.IsSubscribed(ctx, creator.ID, fan.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IsSubscribed(ctx, fan.ID, creator.ID)
	require.NoError(t, err)
	assert.False(t, ok, "subscriptions are directional")

	count, err := repo.CountSubscribers(ctx, creator.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	subs, err := repo.GetSubscribers(ctx, creator.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, fan.ID, subs[0].ID)

	require.NoError(t, repo.Unsubscribe(ctx, creator.ID, fan.ID))
	ok, err = repo.IsSubscribed(ctx, creator.ID, fan.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCategories(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresCategoryRepository(db)
	ctx := context.Background()

	all, err := repo.GetAllCategories(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, all)

	music, err := repo.GetCategoryBySlug(ctx, "music")
	require.NoError(t, err)
	byID, err := repo.GetCategoryByID(ctx, music.ID)
	require.NoError(t, err)
	assert.Equal(t, "Music", byID.Name)

	_, err = repo.GetCategoryBySlug(ctx, "knitting")
	assert.True(t, IsNotFound(err))
}
