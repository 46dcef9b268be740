package rest

import (
	"context"
	"errors"
	"net/http"

	"movieReco/business/poster"
	"movieReco/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	PosterService interface {
		PosterURL(ctx context.Context, title string, year int) (string, error)
	}

	PosterHandler struct {
		validate *validator.Validate
		service  PosterService
	}

	PosterQuery struct {
		Title string `query:"title" validate:"required"`
		Year  int    `query:"year" validate:"omitempty,min=1870,max=2100"`
	}

	PosterResponse struct {
		PosterURL *string `json:"poster_url"`
	}
)

func NewPosterHandler(service PosterService) *PosterHandler {
	return &PosterHandler{
		validate: validator.New(),
		service:  service,
	}
}

// GET /api/v1/posters?title=Heat&year=1995
func (h *PosterHandler) Get(c echo.Context) error {
	var q PosterQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	url, err := h.service.PosterURL(c.Request().Context(), q.Title, q.Year)
	if err != nil {
		if errors.Is(err, poster.ErrNotConfigured) {
			return c.JSON(http.StatusOK, PosterResponse{})
		}
		logger.Warn("Poster lookup failed", "title", q.Title, "error", err)
		return c.JSON(http.StatusBadGateway, ResponseError{Message: "poster lookup failed"})
	}

	if url == "" {
		return c.JSON(http.StatusOK, PosterResponse{})
	}
	return c.JSON(http.StatusOK, PosterResponse{PosterURL: &url})
}
