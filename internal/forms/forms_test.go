package forms

import (
	"context"

	"testing"

	"github.com/anonto42/tracle/internal/auth"
	"github.com/anonto42/tracle/internal/migrations"
	"github.com/anonto42/tracle/internal/models"
	"github.com/anonto42/tracle/internal/repositories"
	"github.com/anonto42/tracle/internal/testutil"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newRepos(t *testing.T) (*gorm.DB, *repositories.PostgresUserRepository, *repositories.PostgresChannelRepository) {
	t.Helper()
	db := testutil.NewDB(t)
	require.NoError(t, migrations.Run(db, testutil.NullLogger()))
	return db, repositories.NewPostgresUserRepository(db), repositories.NewPostgresChannelRepository(db)
}

func validSignup() *SignupForm {
	return &SignupForm{
		Email:       "ada@Example.COM",
		ChannelName: "ada_l",
		Password1:   "analytical-engine",
		Password2:   "analytical-engine",
	}
}

func TestSignupFormSave(t *testing.T) {
	_, users, channels := newRepos(t)
	ctx := context.Background()

	form := validSignup()
	ok, err := form.IsValid(ctx, users, channels)
	require.NoError(t, err)
	require.True(t, ok, form.Errors())
	assert.Equal(t, "ada@example.com", form.Email)

	user, channel, err := form.Save(ctx, users)
	require.NoError(t, err)
	assert.False(t, user.EmailConfirmed)
	assert.Equal(t, user.ID, channel.UserID)
	assert.True(t, auth.CheckPassword(user.Password, "analytical-engine"))

	again := validSignup()
	again.Email = "ADA@example.com"
	again.ChannelName = "ADA_L"
	ok, err = again.IsValid(ctx, users, channels)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NotEmpty(t, again.Errors().Get("email"))
	assert.NotEmpty(t, again.Errors().Get("channel_name"))
}

func TestSignupFormRules(t *testing.T) {
	_, users, channels := newRepos(t)

	tests := []struct {
		name   string
		mutate func(f *SignupForm)
		field  string
	}{
		{"bad email", func(f *SignupForm) { f.Email = "not-an-email" }, "email"},
		{"missing email", func(f *SignupForm) { f.Email = "" }, "email"},
		{"short channel", func(f *SignupForm) { f.ChannelName = "ab" }, "channel_name"},
		{"channel symbols", func(f *SignupForm) { f.ChannelName = "ada lovelace!" }, "channel_name"},
		{"short password", func(f *SignupForm) { f.Password1, f.Password2 = "short", "short" }, "password1"},
		{"numeric password", func(f *SignupForm) { f.Password1, f.Password2 = "12345678", "12345678" }, "password1"},
		{"mismatch", func(f *SignupForm) { f.Password2 = "something-else" }, "password2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validSignup()
			tt.mutate(f)
			ok, err := f.IsValid(context.Background(), users, channels)
			require.NoError(t, err)
			assert.False(t, ok)
			assert.NotEmpty(t, f.Errors().Get(tt.field), f.Errors())
		})
	}
}

func TestSigninForm(t *testing.T) {
	f := &SigninForm{Email: "a@b.io", Password: "x"}
	assert.True(t, f.IsValid())

	f = &SigninForm{Email: "nope"}
	assert.False(t, f.IsValid())
	assert.NotEmpty(t, f.Errors().Get("email"))
	assert.NotEmpty(t, f.Errors().Get("password"))

	f = &SigninForm{}
	f.AddError("invalid email or password")
	assert.Equal(t, []string{"invalid email or password"}, f.Errors().NonField())
}

func TestSetPasswordForm(t *testing.T) {
	_, users, _ := newRepos(t)
	ctx := context.Background()
	user := &models.User{Email: "a@b.io", Password: "old"}
	require.NoError(t, users.CreateUserWithChannel(ctx, user, &models.Channel{Name: "abc"}))

	f := &SetPasswordForm{NewPassword1: "new-password", NewPassword2: "new-passwort"}
	assert.False(t, f.IsValid())
	assert.NotEmpty(t, f.Errors().Get("new_password2"))

	f.NewPassword2 = "new-password"
	require.True(t, f.IsValid())
	require.NoError(t, f.Save(ctx, users, user))

	stored, err := users.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(stored.Password, "new-password"))

	r := &ResetPasswordForm{Email: "bad"}
	assert.False(t, r.IsValid())
}

func TestChangeUserForm(t *testing.T) {
	_, users, channels := newRepos(t)
	ctx := context.Background()
	mine := &models.Channel{Name: "mine"}
	require.NoError(t, users.CreateUserWithChannel(ctx, &models.User{Email: "a@b.io", Password: "x"}, mine))
	require.NoError(t, users.CreateUserWithChannel(ctx, &models.User{Email: "c@d.io", Password: "x"}, &models.Channel{Name: "theirs"}))

	f := &ChangeUserForm{Email: "a@b.io", ChannelName: "theirs"}
	ok, err := f.IsValid(ctx, channels, mine.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	f.ChannelName = "mine"
	ok, err = f.IsValid(ctx, channels, mine.ID)
	require.NoError(t, err)
	assert.True(t, ok, "keeping your own name is fine")

	f.ChannelName = "renamed"
	ok, err = f.IsValid(ctx, channels, mine.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, f.Save(ctx, channels, mine))

	got, err := channels.GetChannelByID(ctx, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)
}

func TestVideoDetailsForm(t *testing.T) {
	db, _, _ := newRepos(t)
	categories := repositories.NewPostgresCategoryRepository(db)
	ctx := context.Background()
	music, err := categories.GetCategoryBySlug(ctx, "music")
	require.NoError(t, err)

	f := VideoDetailsFromVideo(&models.Video{Title: "clip", CategoryID: &music.ID})
	f.Publish = "on"
	ok, err := f.IsValid(ctx, categories)
	require.NoError(t, err)
	require.True(t, ok, f.Errors())

	v := &models.Video{}
	f.Apply(v)
	assert.Equal(t, "clip", v.Title)
	require.NotNil(t, v.CategoryID)
	assert.Equal(t, music.ID, *v.CategoryID)
	assert.True(t, v.Published)

	for _, bad := range []string{"9999", "abc"} {
		f = &VideoDetailsForm{Title: "clip", Category: bad}
		ok, err = f.IsValid(ctx, categories)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.NotEmpty(t, f.Errors().Get("category"))
	}

	f = &VideoDetailsForm{Title: "   "}
	ok, err = f.IsValid(ctx, categories)
	require.NoError(t, err)
	assert.False(t, ok)

	f = &VideoDetailsForm{Title: "no category"}
	ok, err = f.IsValid(ctx, categories)
	require.NoError(t, err)
	require.True(t, ok)
	f.Apply(v)
	assert.Nil(t, v.CategoryID)
	assert.False(t, v.Published)
}

func TestCommentFormMentions(t *testing.T) {
	f := &CommentForm{Content: "  great job @ada_l and @bob_42, cc @ada_l; mail me@example.com @x "}
	require.True(t, f.IsValid())
	assert.Equal(t, []string{"ada_l", "bob_42"}, f.Mentions())

	assert.False(t, (&CommentForm{Content: "   "}).IsValid())
}

func TestValidatorRegistration(t *testing.T) {
	assert.NotPanics(t, func() { newValidator() })
	assert.Panics(t, func() {
		mustRegister(validator.New(), "", func(validator.FieldLevel) bool { return true })
	})
}
