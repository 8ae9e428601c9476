package handlers

import (
	"net/http"

	"github.com/anonto42/tracle/internal/auth"
	"github.com/anonto42/tracle/internal/forms"
	"github.com/anonto42/tracle/internal/models"
	"github.com/anonto42/tracle/internal/notifications"
	"github.com/anonto42/tracle/internal/repositories"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// WatchHandler serves the watch page and the rating and comment actions on it
type WatchHandler struct {
	videoRepository        repositories.VideoRepository
	commentRepository      repositories.CommentRepository
	subscriptionRepository repositories.SubscriptionRepository
	notifier               *notifications.Service
	log                    logrus.FieldLogger
}

// NewWatchHandler creates a new WatchHandler
func NewWatchHandler(
	videoRepo repositories.VideoRepository,
	commentRepo repositories.CommentRepository,
	subscriptionRepo repositories.SubscriptionRepository,
	notifier *notifications.Service,
	log logrus.FieldLogger,
) *WatchHandler {
	return &WatchHandler{
		videoRepository:        videoRepo,
		commentRepository:      commentRepo,
		subscriptionRepository: subscriptionRepo,
		notifier:               notifier,
		log:                    log,
	}
}

// RegisterWatchRoutes registers the watch page and its login-only actions
func (h *WatchHandler) RegisterWatchRoutes(e *echo.Echo, requireLogin echo.MiddlewareFunc) {
	e.GET("/watch", WithViewer(h.Watch))
	e.POST("/watch/:watch_id/like", WithViewer(h.Like), requireLogin)
	e.POST("/watch/:watch_id/dislike", WithViewer(h.Dislike), requireLogin)
	e.POST("/watch/:watch_id/comments", WithViewer(h.Comment), requireLogin)
}

// Watch renders the published video named by v. An unknown or unpublished id
// still renders the page, with only the recommendations.
func (h *WatchHandler) Watch(c echo.Context, viewer *auth.Identity) error {
	ctx := c.Request().Context()

	video, err := h.videoRepository.GetPublishedVideoByWatchID(ctx, c.QueryParam("v"))
	if err != nil {
		return internalError(err)
	}
	if video != nil {
		if err := h.videoRepository.IncrementViews(ctx, video.ID); err != nil {
			return internalError(err)
		}
		video.Views++
	}

	data, err := h.watchContext(c, viewer, video, &forms.CommentForm{})
	if err != nil {
		return internalError(err)
	}
	return c.Render(http.StatusOK, "watch.html", data)
}

func (h *WatchHandler) watchContext(c echo.Context, viewer *auth.Identity, video *models.Video, form *forms.CommentForm) (echo.Map, error) {
	ctx := c.Request().Context()

	recommended, err := h.videoRepository.GetRecommendedVideos(ctx, repositories.DefaultRecommendedLimit)
	if err != nil {
		return nil, err
	}
	data := echo.Map{"recommended_videos": recommended}
	if video == nil {
		return data, nil
	}

	likes, dislikes, err := h.videoRepository.CountRatings(ctx, video.ID)
	if err != nil {
		return nil, err
	}
	comments, err := h.commentRepository.GetCommentsForVideo(ctx, video.ID)
	if err != nil {
		return nil, err
	}
	subscribers, err := h.subscriptionRepository.CountSubscribers(ctx, video.ChannelID)
	if err != nil {
		return nil, err
	}
	data["video"] = video
	data["likes"] = likes
	data["dislikes"] = dislikes
	data["likebar_value"] = models.Likebar(likes, dislikes)
	data["comments"] = comments
	data["comment_form"] = form
	data["subscriber_count"] = subscribers

	if channelID := viewer.ChannelID(); channelID != 0 {
		liked, err := h.videoRepository.IsVideoLiked(ctx, video.ID, channelID)
		if err != nil {
			return nil, err
		}
		disliked, err := h.videoRepository.IsVideoDisliked(ctx, video.ID, channelID)
		if err != nil {
			return nil, err
		}
		subscribed, err := h.subscriptionRepository.IsSubscribed(ctx, video.ChannelID, channelID)
		if err != nil {
			return nil, err
		}
		data["is_liked"] = liked
		data["is_disliked"] = disliked
		data["is_subscribed"] = subscribed
	}
	return data, nil
}

func (h *WatchHandler) publishedVideo(c echo.Context) (*models.Video, error) {
	video, err := h.videoRepository.GetPublishedVideoByWatchID(c.Request().Context(), c.Param("watch_id"))
	if err != nil {
		return nil, internalError(err)
	}
	if video == nil {
		return nil, notFound("Video not found")
	}
	return video, nil
}

// Like toggles the viewer's like on the video.
func (h *WatchHandler) Like(c echo.Context, viewer *auth.Identity) error {
	return h.toggleRating(c, viewer, true)
}

// Dislike toggles the viewer's dislike on the video.
func (h *WatchHandler) Dislike(c echo.Context, viewer *auth.Identity) error {
	return h.toggleRating(c, viewer, false)
}

func (h *WatchHandler) toggleRating(c echo.Context, viewer *auth.Identity, like bool) error {
	ctx := c.Request().Context()
	video, err := h.publishedVideo(c)
	if err != nil {
		return err
	}
	channelID := viewer.ChannelID()

	var rated bool
	if like {
		rated, err = h.videoRepository.IsVideoLiked(ctx, video.ID, channelID)
	} else {
		rated, err = h.videoRepository.IsVideoDisliked(ctx, video.ID, channelID)
	}
	if err != nil {
		return internalError(err)
	}

	switch {
	case rated:
		err = h.videoRepository.ClearRating(ctx, video.ID, channelID)
	case like:
		err = h.videoRepository.Like(ctx, video.ID, channelID)
	default:
		err = h.videoRepository.Dislike(ctx, video.ID, channelID)
	}
	if err != nil {
		return internalError(err)
	}
	return c.Redirect(http.StatusFound, watchURL(video.WatchID))
}

// Comment posts a comment and notifies the video owner and mentioned channels.
func (h *WatchHandler) Comment(c echo.Context, viewer *auth.Identity) error {
	ctx := c.Request().Context()
	video, err := h.publishedVideo(c)
	if err != nil {
		return err
	}

	form := &forms.CommentForm{}
	if err := c.Bind(form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if !form.IsValid() {
		data, err := h.watchContext(c, viewer, video, form)
		if err != nil {
			return internalError(err)
		}
		return c.Render(http.StatusOK, "watch.html", data)
	}

	comment := &models.Comment{VideoID: video.ID, ChannelID: viewer.ChannelID(), Content: form.Content}
	if err := h.commentRepository.Create(ctx, comment); err != nil {
		return internalError(err)
	}

	entry := h.log.WithFields(logrus.Fields{"video_id": video.ID, "comment_id": comment.ID})
	if _, err := h.notifier.NotifyNewComment(ctx, viewer.Channel, comment, video); err != nil {
		entry.WithError(err).Error("failed to notify video owner")
	}
	if names := form.Mentions(); len(names) > 0 {
		if _, err := h.notifier.NotifyTagged(ctx, viewer.Channel, comment, video, names); err != nil {
			entry.WithError(err).Error("failed to notify tagged channels")
		}
	}
	return c.Redirect(http.StatusFound, watchURL(video.WatchID))
}
