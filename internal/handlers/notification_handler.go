package handlers

import (
	"net/http"

	"github.com/anonto42/tracle/internal/auth"
	"github.com/anonto42/tracle/internal/models"
	"github.com/anonto42/tracle/internal/pagination"
	"github.com/anonto42/tracle/internal/repositories"
	"github.com/labstack/echo/v4"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifRepo repositories.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{notificationRepository: notifRepo}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(e *echo.Echo, requireLogin echo.MiddlewareFunc) {
	g := e.Group("/notifications", requireLogin)
	g.GET("", WithViewer(h.GetNotifications))
	g.GET("/unread-count", WithViewer(h.GetUnreadCount))
	g.POST("/:id/read", WithViewer(h.MarkAsRead))
	g.POST("/read-all", WithViewer(h.MarkAllAsRead))
}

// GetNotifications renders the viewer's notifications newest first, with
// their action and target entities resolved.
func (h *NotificationHandler) GetNotifications(c echo.Context, viewer *auth.Identity) error {
	ctx := c.Request().Context()
	userID := viewer.UserID()

	page, err := h.notificationRepository.GetByRecipientID(ctx, userID, c.QueryParam("p"), pagination.DefaultPerPage)
	if err != nil {
		return internalError(err)
	}
	resolved, err := h.notificationRepository.ResolveAll(ctx, page.Items)
	if err != nil {
		return internalError(err)
	}
	unread, err := h.notificationRepository.GetUnreadCount(ctx, userID)
	if err != nil {
		return internalError(err)
	}

	return c.Render(http.StatusOK, "notifications.html", echo.Map{
		"notifications": pagination.Page[models.ResolvedNotification]{
			Items:    resolved,
			Number:   page.Number,
			NumPages: page.NumPages,
			Count:    page.Count,
			PerPage:  page.PerPage,
		},
		"unread_count": unread,
	})
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context, viewer *auth.Identity) error {
	count, err := h.notificationRepository.GetUnreadCount(c.Request().Context(), viewer.UserID())
	if err != nil {
		return internalError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"count": count}})
}

// MarkAsRead marks one of the viewer's notifications as read
func (h *NotificationHandler) MarkAsRead(c echo.Context, viewer *auth.Identity) error {
	id, ok := parseID(c.Param("id"))
	if !ok {
		return notFound("Notification not found")
	}
	found, err := h.notificationRepository.MarkAsRead(c.Request().Context(), id, viewer.UserID())
	if err != nil {
		return internalError(err)
	}
	if !found {
		return notFound("Notification not found")
	}
	return c.Redirect(http.StatusFound, "/notifications")
}

// MarkAllAsRead marks all of the viewer's notifications as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context, viewer *auth.Identity) error {
	if err := h.notificationRepository.MarkAllAsRead(c.Request().Context(), viewer.UserID()); err != nil {
		return internalError(err)
	}
	return c.Redirect(http.StatusFound, "/notifications")
}
