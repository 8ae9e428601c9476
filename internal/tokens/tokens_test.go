package tokens

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/anonto42/tracle/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func newUser() *models.User {
	return &models.User{ID: 42, Email: "ada@example.com", Password: "hash-1"}
}

func TestActivationToken(t *testing.T) {
	g := NewActivationGenerator(secret, 0)
	u := newUser()

	token, err := g.MakeToken(u)
	require.NoError(t, err)
	assert.True(t, g.CheckToken(u, token))

	u.EmailConfirmed = true
	assert.False(t, g.CheckToken(u, token), "token must not survive activation")
}

func TestTokenRejectsTampering(t *testing.T) {
	g := NewActivationGenerator(secret, 0)
	u := newUser()

	token, err := g.MakeToken(u)
	require.NoError(t, err)

	assert.False(t, g.CheckToken(u, token+"x"))
	assert.False(t, g.CheckToken(u, ""))
	assert.False(t, g.CheckToken(nil, token))
	assert.False(t, NewActivationGenerator("other-secret", 0).CheckToken(u, token))

	other := newUser()
	other.ID = 43
	assert.False(t, g.CheckToken(other, token))
}

func TestTokenPurposeIsolation(t *testing.T) {
	u := newUser()
	token, err := NewActivationGenerator(secret, 0).MakeToken(u)
	require.NoError(t, err)

	assert.False(t, NewPasswordResetGenerator(secret, 0).CheckToken(u, token))
}

func TestTokenExpiry(t *testing.T) {
	u := newUser()
	issued := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	g := NewPasswordResetGenerator(secret, 72*time.Hour).WithClock(func() time.Time { return issued })

	token, err := g.MakeToken(u)
	require.NoError(t, err)

	within := g.WithClock(func() time.Time { return issued.Add(71 * time.Hour) })
	assert.True(t, within.CheckToken(u, token))

	after := g.WithClock(func() time.Time { return issued.Add(73 * time.Hour) })
	assert.False(t, after.CheckToken(u, token))
}

func TestPasswordResetTokenSpentByStateChange(t *testing.T) {
	g := NewPasswordResetGenerator(secret, 0)

	u := newUser()
	token, err := g.MakeToken(u)
	require.NoError(t, err)
	u.Password = "hash-2"
	assert.False(t, g.CheckToken(u, token))

	u = newUser()
	token, err = g.MakeToken(u)
	require.NoError(t, err)
	u.UpdateLastLogin(time.Now())
	assert.False(t, g.CheckToken(u, token))
}

func TestUIDRoundTrip(t *testing.T) {
	key := EncodeUID(42)
	assert.Equal(t, "NDI", key)

	id, err := DecodeUID(key)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	id, err = DecodeUID("NDI=")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
}

func TestDecodeUIDInvalid(t *testing.T) {
	overflow := base64.RawURLEncoding.EncodeToString([]byte("99999999999999999999999"))
	beyondBigint := base64.RawURLEncoding.EncodeToString([]byte("18446744073709551615"))
	for _, key := range []string{"", "!!!", base64.RawURLEncoding.EncodeToString([]byte("abc")), overflow, beyondBigint, base64.RawURLEncoding.EncodeToString([]byte("-1"))} {
		_, err := DecodeUID(key)
		assert.ErrorIs(t, err, ErrInvalidUID, key)
	}
}
