package rest

import (
	"context"
	"errors"
	"net/http"

	"movieReco/business/feedback"
	"movieReco/domain"
	"movieReco/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	FeedbackHandler struct {
		validate *validator.Validate
		reducer  FeedbackReducer
		catalog  ItemLookup
	}

	FeedbackReducer interface {
		Submit(ctx context.Context, ev domain.FeedbackEvent) (uint64, error)
		TrackClick(ctx context.Context, userID uint, itemID int64) (uint64, error)
	}

	ItemLookup interface {
		Item(id int64) (domain.Item, bool)
	}

	FeedbackRequest struct {
		ItemID  int64                  `json:"item_id" validate:"required"`
		Kind    string                 `json:"feedback_type" validate:"required"`
		Context map[string]interface{} `json:"context"`
	}

	ClickRequest struct {
		ItemID int64 `json:"item_id" validate:"required"`
	}

	FeedbackAccepted struct {
		Status     string `json:"status"`
		Generation uint64 `json:"generation"`
	}
)

func NewFeedbackHandler(reducer FeedbackReducer, catalog ItemLookup) *FeedbackHandler {
	return &FeedbackHandler{
		validate: validator.New(),
		reducer:  reducer,
		catalog:  catalog,
	}
}

// POST /api/v1/feedback
func (h *FeedbackHandler) Submit(c echo.Context) error {
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	var req FeedbackRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if _, ok := h.catalog.Item(req.ItemID); !ok {
		return c.JSON(http.StatusNotFound, ResponseError{Message: "item not found"})
	}

	gen, err := h.reducer.Submit(c.Request().Context(), domain.FeedbackEvent{
		UserID:  userID,
		ItemID:  req.ItemID,
		Kind:    domain.FeedbackKind(req.Kind),
		Context: req.Context,
	})
	if err != nil {
		if errors.Is(err, feedback.ErrInvalidFeedback) {
			return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		}
		logger.Error("Failed to record feedback", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(FeedbackAccepted{Status: "success", Generation: gen}))
}

// POST /api/v1/feedback/click
func (h *FeedbackHandler) TrackClick(c echo.Context) error {
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	var req ClickRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if _, ok := h.catalog.Item(req.ItemID); !ok {
		return c.JSON(http.StatusNotFound, ResponseError{Message: "item not found"})
	}

	gen, err := h.reducer.TrackClick(c.Request().Context(), userID, req.ItemID)
	if err != nil {
		if errors.Is(err, feedback.ErrAlreadyRecorded) {
			return c.JSON(http.StatusOK, fres.Response.StatusOK(FeedbackAccepted{Status: "Click already recorded"}))
		}
		logger.Error("Failed to track click", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(FeedbackAccepted{Status: "Click recorded", Generation: gen}))
}
