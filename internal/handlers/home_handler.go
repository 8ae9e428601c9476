package handlers

import (
	"net/http"
	"strings"

	"github.com/anonto42/tracle/internal/models"
	"github.com/anonto42/tracle/internal/pagination"
	"github.com/anonto42/tracle/internal/repositories"
	"github.com/labstack/echo/v4"
)

// NewVideosLimit caps the "new" strip on the home page.
const NewVideosLimit = 20

// HomeHandler serves the landing page and the static pages
type HomeHandler struct {
	videoRepository    repositories.VideoRepository
	categoryRepository repositories.CategoryRepository
}

// NewHomeHandler creates a new HomeHandler
func NewHomeHandler(videoRepo repositories.VideoRepository, categoryRepo repositories.CategoryRepository) *HomeHandler {
	return &HomeHandler{
		videoRepository:    videoRepo,
		categoryRepository: categoryRepo,
	}
}

// RegisterHomeRoutes registers the landing and static pages
func (h *HomeHandler) RegisterHomeRoutes(e *echo.Echo) {
	e.GET("/", h.Home)
	e.GET("/terms", h.Terms)
	e.GET("/guidelines", h.Guidelines)
}

// Home lists the latest published videos, optionally narrowed by category (c)
// and title search (q), paginated by p.
func (h *HomeHandler) Home(c echo.Context) error {
	ctx := c.Request().Context()
	filter := repositories.VideoFilter{}

	var selected *models.Category
	if slug := strings.TrimSpace(c.QueryParam("c")); slug != "" {
		category, err := h.categoryRepository.GetCategoryBySlug(ctx, slug)
		if err != nil {
			if repositories.IsNotFound(err) {
				return notFound("Category not found")
			}
			return internalError(err)
		}
		selected = category
		filter.CategoryID = &category.ID
	}

	newVideos, err := h.videoRepository.GetLatestVideos(ctx, repositories.VideoFilter{CategoryID: filter.CategoryID, Limit: NewVideosLimit})
	if err != nil {
		return internalError(err)
	}

	search := strings.TrimSpace(c.QueryParam("q"))
	filter.Search = search
	videos, err := h.videoRepository.ListLatestVideos(ctx, filter, c.QueryParam("p"), pagination.DefaultPerPage)
	if err != nil {
		return internalError(err)
	}

	categories, err := h.categoryRepository.GetAllCategories(ctx)
	if err != nil {
		return internalError(err)
	}
	recommended, err := h.videoRepository.GetRecommendedVideos(ctx, repositories.DefaultRecommendedLimit)
	if err != nil {
		return internalError(err)
	}

	return c.Render(http.StatusOK, "home.html", echo.Map{
		"videos":             videos,
		"categories":         categories,
		"selected_category":  selected,
		"search_term":        search,
		"new_videos":         newVideos,
		"recommended_videos": recommended,
		"counter":            &pagination.Counter{},
	})
}

func (h *HomeHandler) Terms(c echo.Context) error {
	return c.Render(http.StatusOK, "terms.html", echo.Map{})
}

func (h *HomeHandler) Guidelines(c echo.Context) error {
	return c.Render(http.StatusOK, "guidelines.html", echo.Map{})
}
