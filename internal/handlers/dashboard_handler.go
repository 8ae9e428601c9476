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

// DashboardHandler serves the creator dashboard: account settings and the
// viewer's own videos
type DashboardHandler struct {
	channelRepository  repositories.ChannelRepository
	videoRepository    repositories.VideoRepository
	categoryRepository repositories.CategoryRepository
	notifier           *notifications.Service
	log                logrus.FieldLogger
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(
	channelRepo repositories.ChannelRepository,
	videoRepo repositories.VideoRepository,
	categoryRepo repositories.CategoryRepository,
	notifier *notifications.Service,
	log logrus.FieldLogger,
) *DashboardHandler {
	return &DashboardHandler{
		channelRepository:  channelRepo,
		videoRepository:    videoRepo,
		categoryRepository: categoryRepo,
		notifier:           notifier,
		log:                log,
	}
}

// RegisterDashboardRoutes registers the dashboard and upload routes. All of
// them require a signed-in viewer.
func (h *DashboardHandler) RegisterDashboardRoutes(e *echo.Echo, requireLogin echo.MiddlewareFunc) {
	g := e.Group("/dashboard", requireLogin)
	g.GET("", h.Index)
	g.GET("/account", WithViewer(h.Account))
	g.POST("/account", WithViewer(h.UpdateAccount))
	g.GET("/videos", WithViewer(h.Videos))
	g.GET("/videos/:watch_id/edit", WithViewer(h.EditVideoPage))
	g.POST("/videos/:watch_id/edit", WithViewer(h.EditVideo))

	e.GET("/upload", WithViewer(h.UploadPage), requireLogin)
	e.POST("/upload", WithViewer(h.Upload), requireLogin)
}

func (h *DashboardHandler) Index(c echo.Context) error {
	return c.Redirect(http.StatusFound, "/dashboard/videos")
}

func (h *DashboardHandler) Account(c echo.Context, viewer *auth.Identity) error {
	form := &forms.ChangeUserForm{Email: viewer.User.Email, ChannelName: viewer.Channel.Name}
	return c.Render(http.StatusOK, "dashboard_account.html", echo.Map{
		"form":    form,
		"channel": viewer.Channel,
		"saved":   c.QueryParam("saved") != "",
	})
}

// UpdateAccount renames the viewer's channel.
func (h *DashboardHandler) UpdateAccount(c echo.Context, viewer *auth.Identity) error {
	ctx := c.Request().Context()
	form := &forms.ChangeUserForm{}
	if err := c.Bind(form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	form.Email = viewer.User.Email

	ok, err := form.IsValid(ctx, h.channelRepository, viewer.Channel.ID)
	if err != nil {
		return internalError(err)
	}
	if !ok {
		return c.Render(http.StatusOK, "dashboard_account.html", echo.Map{"form": form, "channel": viewer.Channel})
	}
	if err := form.Save(ctx, h.channelRepository, viewer.Channel); err != nil {
		return internalError(err)
	}
	h.log.WithField("channel_id", viewer.Channel.ID).Info("channel renamed")
	return c.Redirect(http.StatusFound, "/dashboard/account?saved=1")
}

// Videos lists every video of the viewer's channel, drafts included.
func (h *DashboardHandler) Videos(c echo.Context, viewer *auth.Identity) error {
	videos, err := h.videoRepository.GetVideosFromChannel(c.Request().Context(), viewer.Channel.ID, false)
	if err != nil {
		return internalError(err)
	}
	return c.Render(http.StatusOK, "dashboard_videos.html", echo.Map{
		"channel": viewer.Channel,
		"videos":  videos,
	})
}

// ownVideo loads the video named by the watch_id param. Videos of other
// channels are reported as missing.
func (h *DashboardHandler) ownVideo(c echo.Context, viewer *auth.Identity) (*models.Video, error) {
	video, err := h.videoRepository.GetVideoByWatchID(c.Request().Context(), c.Param("watch_id"))
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, notFound("Video not found")
		}
		return nil, internalError(err)
	}
	if video.ChannelID != viewer.Channel.ID {
		return nil, notFound("Video not found")
	}
	return video, nil
}

func (h *DashboardHandler) videoFormContext(c echo.Context, form *forms.VideoDetailsForm) (echo.Map, error) {
	categories, err := h.categoryRepository.GetAllCategories(c.Request().Context())
	if err != nil {
		return nil, err
	}
	return echo.Map{"form": form, "categories": categories}, nil
}

func (h *DashboardHandler) EditVideoPage(c echo.Context, viewer *auth.Identity) error {
	video, err := h.ownVideo(c, viewer)
	if err != nil {
		return err
	}
	data, err := h.videoFormContext(c, forms.VideoDetailsFromVideo(video))
	if err != nil {
		return internalError(err)
	}
	data["watch_id"] = video.WatchID
	data["saved"] = c.QueryParam("saved") != ""
	return c.Render(http.StatusOK, "dashboard_edit_video.html", data)
}

// EditVideo updates the metadata of one of the viewer's videos. Publishing it
// for the first time announces it to the channel's subscribers.
func (h *DashboardHandler) EditVideo(c echo.Context, viewer *auth.Identity) error {
	ctx := c.Request().Context()
	video, err := h.ownVideo(c, viewer)
	if err != nil {
		return err
	}

	form := &forms.VideoDetailsForm{}
	if err := c.Bind(form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	ok, err := form.IsValid(ctx, h.categoryRepository)
	if err != nil {
		return internalError(err)
	}
	if !ok {
		data, err := h.videoFormContext(c, form)
		if err != nil {
			return internalError(err)
		}
		data["watch_id"] = video.WatchID
		return c.Render(http.StatusOK, "dashboard_edit_video.html", data)
	}

	form.Apply(video)
	if err := h.videoRepository.Update(ctx, video); err != nil {
		return internalError(err)
	}
	h.announce(c, video)
	return c.Redirect(http.StatusFound, "/dashboard/videos/"+video.WatchID+"/edit?saved=1")
}

func (h *DashboardHandler) UploadPage(c echo.Context, viewer *auth.Identity) error {
	data, err := h.videoFormContext(c, &forms.VideoDetailsForm{})
	if err != nil {
		return internalError(err)
	}
	return c.Render(http.StatusOK, "upload_video.html", data)
}

// Upload creates a video record owned by the viewer's channel.
func (h *DashboardHandler) Upload(c echo.Context, viewer *auth.Identity) error {
	ctx := c.Request().Context()
	form := &forms.VideoDetailsForm{}
	if err := c.Bind(form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	ok, err := form.IsValid(ctx, h.categoryRepository)
	if err != nil {
		return internalError(err)
	}
	if !ok {
		data, err := h.videoFormContext(c, form)
		if err != nil {
			return internalError(err)
		}
		return c.Render(http.StatusOK, "upload_video.html", data)
	}

	video := &models.Video{ChannelID: viewer.Channel.ID, Channel: *viewer.Channel}
	form.Apply(video)
	if err := h.videoRepository.Create(ctx, video); err != nil {
		return internalError(err)
	}
	h.log.WithFields(logrus.Fields{"channel_id": video.ChannelID, "watch_id": video.WatchID}).Info("video uploaded")
	h.announce(c, video)
	return c.Redirect(http.StatusFound, "/dashboard/videos")
}

// announce notifies subscribers of a published video. Failures are logged;
// the video itself is already saved.
func (h *DashboardHandler) announce(c echo.Context, video *models.Video) {
	if !video.Published {
		return
	}
	if _, err := h.notifier.NotifySubscribers(c.Request().Context(), video); err != nil {
		h.log.WithError(err).WithField("watch_id", video.WatchID).Error("failed to announce video")
	}
}
