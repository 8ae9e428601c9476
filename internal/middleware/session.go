package middleware

import (
	"net/http"
	"net/url"

	"github.com/anonto42/tracle/internal/auth"
	"github.com/anonto42/tracle/internal/repositories"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// LoadIdentity resolves the session cookie into an *auth.Identity attached to
// the request. Invalid or stale sessions are cleared and treated as anonymous.
func LoadIdentity(sessions *auth.Sessions, users repositories.UserRepository, channels repositories.ChannelRepository, log logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := sessions.Claims(c.Request())
			if !ok {
				if _, err := c.Cookie(auth.SessionCookieName); err == nil {
					sessions.Logout(c)
				}
				return next(c)
			}

			ctx := c.Request().Context()
			user, err := users.GetUserByID(ctx, claims.UserID)
			if err != nil {
				if !repositories.IsNotFound(err) {
					log.WithError(err).WithField("user_id", claims.UserID).Error("failed to load session user")
					return echo.NewHTTPError(http.StatusInternalServerError)
				}
				sessions.Logout(c)
				return next(c)
			}
			channel, err := channels.GetChannelByUserID(ctx, user.ID)
			if err != nil {
				log.WithError(err).WithField("user_id", user.ID).Error("failed to load session channel")
				return echo.NewHTTPError(http.StatusInternalServerError)
			}

			auth.SetIdentity(c, &auth.Identity{User: user, Channel: channel})
			return next(c)
		}
	}
}

// SigninURL is where anonymous visitors of gated pages are sent.
const SigninURL = "/signin"

// RequireLogin redirects anonymous visitors to the sign-in page, remembering
// where they were going.
func RequireLogin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if auth.IdentityFrom(c) != nil {
				return next(c)
			}
			target := SigninURL + "?" + url.Values{"redirect_to": {c.Request().URL.RequestURI()}}.Encode()
			return c.Redirect(http.StatusFound, target)
		}
	}
}
