package firebase

import (
	"context"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestClaimsFromToken(t *testing.T) {
	c := ClaimsFromToken(&auth.Token{UID: "uid-1", Claims: map[string]interface{}{
		"email":          "ada@example.com",
		"email_verified": true,
	}})
	assert.Equal(t, Claims{UID: "uid-1", Email: "ada@example.com", EmailVerified: true}, c)

	c = ClaimsFromToken(&auth.Token{UID: "uid-2"})
	assert.Equal(t, "uid-2", c.UID)
	assert.Empty(t, c.Email)
}

func TestInitFirebaseMissingCredentials(t *testing.T) {
	_, err := InitFirebase(context.Background(), "", logrus.New())
	assert.Error(t, err)

	_, err = InitFirebase(context.Background(), "/nonexistent/creds.json", logrus.New())
	assert.Error(t, err)
}
