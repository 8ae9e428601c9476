package auth

import (
	"context"

	"github.com/anonto42/tracle/internal/models"
	"github.com/labstack/echo/v4"
)

// Identity is the authenticated viewer: the user and the channel they act as.
type Identity struct {
	User    *models.User
	Channel *models.Channel
}

// UserID returns 0 for anonymous viewers.
func (i *Identity) UserID() uint {
	if i == nil || i.User == nil {
		return 0
	}
	return i.User.ID
}

// ChannelID returns 0 for anonymous viewers.
func (i *Identity) ChannelID() uint {
	if i == nil || i.Channel == nil {
		return 0
	}
	return i.Channel.ID
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity stored in ctx, or nil.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}

// SetIdentity attaches id to the request of c.
func SetIdentity(c echo.Context, id *Identity) {
	c.SetRequest(c.Request().WithContext(WithIdentity(c.Request().Context(), id)))
}

// IdentityFrom returns the identity attached to the request of c, or nil.
func IdentityFrom(c echo.Context) *Identity {
	return FromContext(c.Request().Context())
}
