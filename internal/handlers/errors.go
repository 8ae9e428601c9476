package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// HTTPErrorHandler renders error.html for every error that reaches echo.
// Server errors are logged with their internal cause.
func HTTPErrorHandler(log logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		he, ok := err.(*echo.HTTPError)
		if !ok {
			he = echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
		}

		message := http.StatusText(he.Code)
		if he.Code < http.StatusInternalServerError && he.Message != nil {
			message = fmt.Sprint(he.Message)
		}

		if he.Code >= http.StatusInternalServerError {
			entry := log.WithFields(logrus.Fields{
				"method": c.Request().Method,
				"uri":    c.Request().RequestURI,
				"status": he.Code,
			})
			if he.Internal != nil {
				entry = entry.WithError(he.Internal)
			}
			entry.Error("request failed")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(he.Code)
		} else {
			err = c.Render(he.Code, "error.html", echo.Map{"status": he.Code, "message": message})
		}
		if err != nil {
			log.WithError(err).Error("failed to render error page")
			_ = c.String(he.Code, message)
		}
	}
}
