package tokens

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/anonto42/tracle/internal/models"
	"github.com/golang-jwt/jwt/v4"
)

const (
	PurposeActivation    = "activation"
	PurposePasswordReset = "password_reset"

	DefaultTTL = 72 * time.Hour
)

// Fingerprint digests the user state a token is bound to. Changing that state
// invalidates every token issued before the change.
type Fingerprint func(u *models.User) string

type claims struct {
	Purpose     string `json:"pur"`
	Fingerprint string `json:"fp"`
	jwt.RegisteredClaims
}

// Generator issues and checks signed, time-limited, single-purpose user tokens.
type Generator struct {
	secret      []byte
	purpose     string
	ttl         time.Duration
	fingerprint Fingerprint
	now         func() time.Time
}

// NewGenerator creates a Generator. A non-positive ttl falls back to DefaultTTL.
func NewGenerator(secret, purpose string, ttl time.Duration, fp Fingerprint) *Generator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Generator{
		secret:      []byte(secret),
		purpose:     purpose,
		ttl:         ttl,
		fingerprint: fp,
		now:         time.Now,
	}
}

// NewActivationGenerator binds tokens to the confirmation state, so a token
// stops working once the account is activated.
func NewActivationGenerator(secret string, ttl time.Duration) *Generator {
	return NewGenerator(secret, PurposeActivation, ttl, func(u *models.User) string {
		return digest(strconv.FormatUint(uint64(u.ID), 10), u.Email, strconv.FormatBool(u.EmailConfirmed))
	})
}

// NewPasswordResetGenerator binds tokens to the password hash and last login,
// so a token is spent once the password changes or the user signs in.
func NewPasswordResetGenerator(secret string, ttl time.Duration) *Generator {
	return NewGenerator(secret, PurposePasswordReset, ttl, func(u *models.User) string {
		login := ""
		if u.LastLogin != nil {
			login = strconv.FormatInt(u.LastLogin.UTC().Unix(), 10)
		}
		return digest(strconv.FormatUint(uint64(u.ID), 10), u.Password, login)
	})
}

// WithClock replaces the time source. Used by tests.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	cp := *g
	cp.now = now
	return &cp
}

// MakeToken issues a token for u.
func (g *Generator) MakeToken(u *models.User) (string, error) {
	now := g.now()
	c := claims{
		Purpose:     g.purpose,
		Fingerprint: g.fingerprint(u),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(u.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", g.purpose, err)
	}
	return signed, nil
}

// CheckToken reports whether token was issued by this generator for u and is
// still valid.
func (g *Generator) CheckToken(u *models.User, token string) bool {
	if u == nil || token == "" {
		return false
	}

	c := &claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	if _, err := parser.ParseWithClaims(token, c, func(*jwt.Token) (interface{}, error) {
		return g.secret, nil
	}); err != nil {
		return false
	}

	if c.Purpose != g.purpose || c.Subject != strconv.FormatUint(uint64(u.ID), 10) {
		return false
	}
	if c.ExpiresAt == nil || !g.now().Before(c.ExpiresAt.Time) {
		return false
	}
	return hmac.Equal([]byte(c.Fingerprint), []byte(g.fingerprint(u)))
}

func digest(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
