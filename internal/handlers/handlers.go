package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/anonto42/tracle/internal/auth"
	"github.com/labstack/echo/v4"
)

// EmailRenderer renders standalone email templates.
type EmailRenderer interface {
	RenderEmail(name string, data interface{}) (string, error)
}

// ViewerHandlerFunc is a handler that receives the resolved viewer explicitly.
// viewer is nil for anonymous requests.
type ViewerHandlerFunc func(c echo.Context, viewer *auth.Identity) error

// WithViewer adapts h to an echo.HandlerFunc.
func WithViewer(h ViewerHandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		return h(c, auth.IdentityFrom(c))
	}
}

func internalError(err error) error {
	return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
}

func notFound(msg string) error {
	return echo.NewHTTPError(http.StatusNotFound, msg)
}

func parseID(raw string) (uint, bool) {
	// ids are bigint columns, so anything past MaxInt64 cannot exist
	id, err := strconv.ParseUint(raw, 10, 63)
	if err != nil || id == 0 || uint64(uint(id)) != id {
		return 0, false
	}
	return uint(id), true
}

// safeRedirect returns target when it is a path on this site, fallback otherwise.
func safeRedirect(target, fallback string) string {
	target = strings.TrimSpace(target)
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return fallback
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return target
}

func watchURL(watchID string) string {
	return "/watch?" + url.Values{"v": {watchID}}.Encode()
}
