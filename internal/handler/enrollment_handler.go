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

// EnrollmentHandler exposes enrollment lifecycle endpoints.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
	metrics     *service.MetricsService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService, metrics *service.MetricsService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments, metrics: metrics}
}

// List godoc
// @Summary List enrollments
// @Tags Enrollments
// @Produce json
// @Param userId query string false "Filter by user"
// @Param status query string false "Filter by status"
// @Param kind query string false "Filter by course kind (batch or workshop)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	var filter models.EnrollmentFilter
	filter.UserID = c.Query("userId")
	filter.Status = models.EnrollmentStatus(strings.ToLower(c.Query("status")))
	filter.Kind = models.CourseKind(strings.ToLower(c.Query("kind")))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	enrollments, pagination, err := h.enrollments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, pagination)
}

// Get godoc
// @Summary Get an enrollment
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id} [get]
func (h *EnrollmentHandler) Get(c *gin.Context) {
	enrollment, err := h.enrollments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Submit godoc
// @Summary Submit a payment claim
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.SubmitEnrollmentRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Submit(c *gin.Context) {
	var req service.SubmitEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

type decideEnrollmentRequest struct {
	Status models.EnrollmentStatus `json:"status"`
}

// Decide godoc
// @Summary Apply a verification decision
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body decideEnrollmentRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/decision [patch]
func (h *EnrollmentHandler) Decide(c *gin.Context) {
	var req decideEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.Decide(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordDecision(string(enrollment.Status))
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Extend godoc
// @Summary Extend a subscription by one month
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/extend [post]
func (h *EnrollmentHandler) Extend(c *gin.Context) {
	enrollment, err := h.enrollments.Extend(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordExtension()
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// ExpireLapsed godoc
// @Summary Expire recurring enrollments past their validity window
// @Tags Enrollments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /enrollments/expire-lapsed [post]
func (h *EnrollmentHandler) ExpireLapsed(c *gin.Context) {
	expired, err := h.enrollments.ExpireLapsed(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"expired": expired}, nil)
}
