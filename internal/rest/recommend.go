package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"movieReco/business/hybrid"
	"movieReco/business/semantic"
	"movieReco/domain"
	"movieReco/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	RecommendHandler struct {
		validate     *validator.Validate
		recommender  Recommender
		catalog      CatalogSearcher
		defaultAlpha float64
		defaultTopK  int
	}

	Recommender interface {
		Recommend(ctx context.Context, userID uint, query string, topK int, alpha float64) ([]domain.Recommendation, error)
	}

	CatalogSearcher interface {
		Search(ctx context.Context, query string, topK int) ([]domain.ScoredItem, error)
		SearchPersonalized(ctx context.Context, query string, topK int, userID uint) ([]domain.ScoredItem, error)
		Item(id int64) (domain.Item, bool)
	}

	RecommendRequest struct {
		Query string   `json:"query" validate:"required"`
		TopK  int      `json:"top_k" validate:"omitempty,min=1,max=100"`
		Alpha *float64 `json:"alpha" validate:"omitempty,min=0,max=1"`
	}

	SearchQuery struct {
		Q            string `query:"q" validate:"required"`
		TopK         int    `query:"top_k" validate:"omitempty,min=1,max=100"`
		Personalized bool   `query:"personalized"`
	}

	SearchResult struct {
		domain.Item
		Score float64 `json:"score"`
	}
)

func NewRecommendHandler(recommender Recommender, catalog CatalogSearcher, defaultAlpha float64, defaultTopK int) *RecommendHandler {
	return &RecommendHandler{
		validate:     validator.New(),
		recommender:  recommender,
		catalog:      catalog,
		defaultAlpha: defaultAlpha,
		defaultTopK:  defaultTopK,
	}
}

// POST /api/v1/recommendations
func (h *RecommendHandler) Recommend(c echo.Context) error {
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	var req RecommendRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	alpha := h.defaultAlpha
	if req.Alpha != nil {
		alpha = *req.Alpha
	}
	if req.TopK <= 0 {
		req.TopK = h.defaultTopK
	}

	recs, err := h.recommender.Recommend(c.Request().Context(), userID, req.Query, req.TopK, alpha)
	if err != nil {
		return h.serviceError(c, "Failed to recommend", err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(recs))
}

// GET /api/v1/search?q=space&top_k=5&personalized=true
func (h *RecommendHandler) Search(c echo.Context) error {
	var q SearchQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if q.TopK <= 0 {
		q.TopK = h.defaultTopK
	}

	ctx := c.Request().Context()

	var (
		hits []domain.ScoredItem
		err  error
	)
	if userID, ok := c.Get("user_id").(uint); ok && q.Personalized {
		hits, err = h.catalog.SearchPersonalized(ctx, q.Q, q.TopK, userID)
	} else {
		hits, err = h.catalog.Search(ctx, q.Q, q.TopK)
	}
	if err != nil {
		return h.serviceError(c, "Failed to search", err)
	}

	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, SearchResult{Item: hit.Item, Score: hit.Score})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(results))
}

// GET /api/v1/items/:id
func (h *RecommendHandler) Item(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid item id"})
	}

	item, ok := h.catalog.Item(id)
	if !ok {
		return c.JSON(http.StatusNotFound, ResponseError{Message: semantic.ErrItemNotFound.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(item))
}

func (h *RecommendHandler) serviceError(c echo.Context, msg string, err error) error {
	logger.Error(msg, "trace_id", hybrid.TraceIDFromContext(c.Request().Context()), "error", err)

	switch {
	case errors.Is(err, hybrid.ErrInvalidAlpha):
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	case errors.Is(err, semantic.ErrEmbedding):
		return c.JSON(http.StatusServiceUnavailable, ResponseError{Message: "embedding service unavailable"})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusGatewayTimeout, ResponseError{Message: "request cancelled"})
	default:
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
}
