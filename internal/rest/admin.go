package rest

import (
	"context"
	"net/http"

	"movieReco/business/hybrid"
	"movieReco/domain"
	"movieReco/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
)

type (
	CatalogLoader interface {
		Load(ctx context.Context) ([]domain.Item, error)
	}

	IndexRefresher interface {
		Refresh(ctx context.Context, catalog []domain.Item) (int, error)
		Len() int
	}

	HealthReporter interface {
		Health() hybrid.Health
	}

	AdminHandler struct {
		catalog CatalogLoader
		index   IndexRefresher
		health  HealthReporter
	}

	RefreshResult struct {
		Added int `json:"added"`
		Total int `json:"total"`
	}
)

func NewAdminHandler(catalog CatalogLoader, index IndexRefresher, health HealthReporter) *AdminHandler {
	return &AdminHandler{
		catalog: catalog,
		index:   index,
		health:  health,
	}
}

// POST /api/v1/admin/index/refresh
func (h *AdminHandler) RefreshIndex(c echo.Context) error {
	ctx := c.Request().Context()

	items, err := h.catalog.Load(ctx)
	if err != nil {
		logger.Error("Failed to load catalog", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": err.Error(),
		})
	}

	added, err := h.index.Refresh(ctx, items)
	if err != nil {
		logger.Error("Failed to refresh index", "added", added, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(RefreshResult{Added: added, Total: h.index.Len()}))
}

// GET /healthz
func (h *AdminHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, h.health.Health())
}
