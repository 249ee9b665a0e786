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

// WorkshopHandler exposes workshop catalog endpoints.
type WorkshopHandler struct {
	workshops *service.WorkshopService
}

// NewWorkshopHandler constructs WorkshopHandler.
func NewWorkshopHandler(workshops *service.WorkshopService) *WorkshopHandler {
	return &WorkshopHandler{workshops: workshops}
}

// List godoc
// @Summary List workshops
// @Tags Workshops
// @Produce json
// @Param status query string false "Filter by publish status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /workshops [get]
func (h *WorkshopHandler) List(c *gin.Context) {
	var filter models.WorkshopFilter
	filter.Status = models.PublishStatus(strings.ToLower(c.Query("status")))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	workshops, pagination, err := h.workshops.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, workshops, pagination)
}

// Get godoc
// @Summary Get a workshop
// @Tags Workshops
// @Produce json
// @Param id path string true "Workshop ID"
// @Success 200 {object} response.Envelope
// @Router /workshops/{id} [get]
func (h *WorkshopHandler) Get(c *gin.Context) {
	workshop, err := h.workshops.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, workshop, nil)
}

// Create godoc
// @Summary Create a workshop
// @Tags Workshops
// @Accept json
// @Produce json
// @Param payload body service.WorkshopRequest true "Workshop payload"
// @Success 201 {object} response.Envelope
// @Router /workshops [post]
func (h *WorkshopHandler) Create(c *gin.Context) {
	var req service.WorkshopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	workshop, err := h.workshops.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, workshop)
}

// Update godoc
// @Summary Update a workshop
// @Tags Workshops
// @Accept json
// @Produce json
// @Param id path string true "Workshop ID"
// @Param payload body service.WorkshopRequest true "Workshop payload"
// @Success 200 {object} response.Envelope
// @Router /workshops/{id} [put]
func (h *WorkshopHandler) Update(c *gin.Context) {
	var req service.WorkshopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	workshop, err := h.workshops.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, workshop, nil)
}

// Delete godoc
// @Summary Delete a workshop
// @Tags Workshops
// @Produce json
// @Param id path string true "Workshop ID"
// @Success 204
// @Router /workshops/{id} [delete]
func (h *WorkshopHandler) Delete(c *gin.Context) {
	if err := h.workshops.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
