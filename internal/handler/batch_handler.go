package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/letsdance/academy-api/internal/models"
	"github.com/letsdance/academy-api/internal/service"
	appErrors "github.com/letsdance/academy-api/pkg/errors"
	"github.com/letsdance/academy-api/pkg/response"
)

// BatchHandler exposes batch catalog endpoints.
type BatchHandler struct {
	batches *service.BatchService
	reviews *service.ReviewService
}

// NewBatchHandler constructs BatchHandler.
func NewBatchHandler(batches *service.BatchService, reviews *service.ReviewService) *BatchHandler {
	return &BatchHandler{batches: batches, reviews: reviews}
}

// List godoc
// @Summary List batches
// @Tags Batches
// @Produce json
// @Param status query string false "Filter by publish status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /batches [get]
func (h *BatchHandler) List(c *gin.Context) {
	var filter models.BatchFilter
	filter.Status = models.PublishStatus(strings.ToLower(c.Query("status")))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	batches, pagination, err := h.batches.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, batches, pagination)
}

// Get godoc
// @Summary Get a batch by ID
// @Tags Batches
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} response.Envelope
// @Router /batches/{id} [get]
func (h *BatchHandler) Get(c *gin.Context) {
	batch, err := h.batches.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, batch, nil)
}

// GetBySlug godoc
// @Summary Get a batch by slug
// @Tags Batches
// @Produce json
// @Param slug path string true "Batch slug"
// @Success 200 {object} response.Envelope
// @Router /batches/slug/{slug} [get]
func (h *BatchHandler) GetBySlug(c *gin.Context) {
	batch, err := h.batches.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, batch, nil)
}

// Create godoc
// @Summary Create a batch
// @Tags Batches
// @Accept json
// @Produce json
// @Param payload body service.BatchRequest true "Batch payload"
// @Success 201 {object} response.Envelope
// @Router /batches [post]
func (h *BatchHandler) Create(c *gin.Context) {
	var req service.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	batch, err := h.batches.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, batch)
}

// Update godoc
// @Summary Update a batch
// @Tags Batches
// @Accept json
// @Produce json
// @Param id path string true "Batch ID"
// @Param payload body service.BatchRequest true "Batch payload"
// @Success 200 {object} response.Envelope
// @Router /batches/{id} [put]
func (h *BatchHandler) Update(c *gin.Context) {
	var req service.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	batch, err := h.batches.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, batch, nil)
}

// Delete godoc
// @Summary Delete a batch
// @Tags Batches
// @Produce json
// @Param id path string true "Batch ID"
// @Success 204
// @Router /batches/{id} [delete]
func (h *BatchHandler) Delete(c *gin.Context) {
	if err := h.batches.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListReviews godoc
// @Summary List reviews for a batch
// @Tags Reviews
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} response.Envelope
// @Router /batches/{id}/reviews [get]
func (h *BatchHandler) ListReviews(c *gin.Context) {
	reviews, err := h.reviews.ListByBatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reviews, nil)
}

// AddReview godoc
// @Summary Add a review to a batch
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path string true "Batch ID"
// @Param payload body service.AddReviewRequest true "Review payload"
// @Success 201 {object} response.Envelope
// @Router /batches/{id}/reviews [post]
func (h *BatchHandler) AddReview(c *gin.Context) {
	var req service.AddReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	review, err := h.reviews.Add(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, review)
}

// UpdateReview godoc
// @Summary Update a review
// @Tags Reviews
// @Accept json
// @Produce json
// @Param reviewId path string true "Review ID"
// @Param payload body service.UpdateReviewRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Router /reviews/{reviewId} [put]
func (h *BatchHandler) UpdateReview(c *gin.Context) {
	var req service.UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	review, err := h.reviews.Update(c.Request.Context(), c.Param("reviewId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, review, nil)
}
