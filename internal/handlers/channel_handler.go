package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/anonto42/tracle/internal/auth"
	"github.com/anonto42/tracle/internal/models"
	"github.com/anonto42/tracle/internal/repositories"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// ChannelHandler serves channel pages and subscriptions
type ChannelHandler struct {
	channelRepository      repositories.ChannelRepository
	videoRepository        repositories.VideoRepository
	subscriptionRepository repositories.SubscriptionRepository
	statsRepository        repositories.StatsRepository
	log                    logrus.FieldLogger
}

// NewChannelHandler creates a new ChannelHandler
func NewChannelHandler(
	channelRepo repositories.ChannelRepository,
	videoRepo repositories.VideoRepository,
	subscriptionRepo repositories.SubscriptionRepository,
	statsRepo repositories.StatsRepository,
	log logrus.FieldLogger,
) *ChannelHandler {
	return &ChannelHandler{
		channelRepository:      channelRepo,
		videoRepository:        videoRepo,
		subscriptionRepository: subscriptionRepo,
		statsRepository:        statsRepo,
		log:                    log,
	}
}

// RegisterChannelRoutes registers channel-related routes
func (h *ChannelHandler) RegisterChannelRoutes(e *echo.Echo, requireLogin echo.MiddlewareFunc) {
	e.GET("/channels", h.Channels)
	e.GET("/channel/:channel_id", WithViewer(h.Channel))
	e.POST("/channel/:channel_id/subscribe", WithViewer(h.ToggleSubscription), requireLogin)
}

func (h *ChannelHandler) channel(c echo.Context) (*models.Channel, error) {
	id, ok := parseID(c.Param("channel_id"))
	if !ok {
		return nil, notFound("Channel not found")
	}
	channel, err := h.channelRepository.GetChannelByID(c.Request().Context(), id)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, notFound("Channel not found")
		}
		return nil, internalError(err)
	}
	return channel, nil
}

// Channel renders a channel with its published videos and view total.
func (h *ChannelHandler) Channel(c echo.Context, viewer *auth.Identity) error {
	ctx := c.Request().Context()
	channel, err := h.channel(c)
	if err != nil {
		return err
	}

	videos, err := h.videoRepository.GetVideosFromChannel(ctx, channel.ID, true)
	if err != nil {
		return internalError(err)
	}
	totalViews, err := h.statsRepository.GetTotalViews(ctx, channel.ID)
	if err != nil {
		return internalError(err)
	}
	subscribers, err := h.subscriptionRepository.CountSubscribers(ctx, channel.ID)
	if err != nil {
		return internalError(err)
	}

	subscribed := false
	if viewerID := viewer.ChannelID(); viewerID != 0 {
		subscribed, err = h.subscriptionRepository.IsSubscribed(ctx, channel.ID, viewerID)
		if err != nil {
			return internalError(err)
		}
	}

	return c.Render(http.StatusOK, "channel.html", echo.Map{
		"channel":          channel,
		"videos":           videos,
		"total_views":      totalViews,
		"subscriber_count": subscribers,
		"is_subscribed":    subscribed,
	})
}

// ToggleSubscription subscribes the viewer to the channel, or unsubscribes
// when already subscribed, then returns to next or the channel page.
func (h *ChannelHandler) ToggleSubscription(c echo.Context, viewer *auth.Identity) error {
	ctx := c.Request().Context()
	channel, err := h.channel(c)
	if err != nil {
		return err
	}
	subscriberID := viewer.ChannelID()

	subscribed, err := h.subscriptionRepository.IsSubscribed(ctx, channel.ID, subscriberID)
	if err != nil {
		return internalError(err)
	}
	if subscribed {
		err = h.subscriptionRepository.Unsubscribe(ctx, channel.ID, subscriberID)
	} else {
		err = h.subscriptionRepository.Subscribe(ctx, channel.ID, subscriberID)
	}
	if errors.Is(err, repositories.ErrSelfSubscription) {
		return echo.NewHTTPError(http.StatusBadRequest, "You cannot subscribe to your own channel")
	}
	if err != nil {
		return internalError(err)
	}

	h.log.WithFields(logrus.Fields{
		"channel_id":    channel.ID,
		"subscriber_id": subscriberID,
		"subscribed":    !subscribed,
	}).Info("subscription toggled")
	return c.Redirect(http.StatusFound, safeRedirect(c.FormValue("next"), fmt.Sprintf("/channel/%d", channel.ID)))
}

// Channels lists every channel by name.
func (h *ChannelHandler) Channels(c echo.Context) error {
	channels, err := h.channelRepository.GetAllChannels(c.Request().Context())
	if err != nil {
		return internalError(err)
	}
	return c.Render(http.StatusOK, "channels.html", echo.Map{"channels": channels})
}
