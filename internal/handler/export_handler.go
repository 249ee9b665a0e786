package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/letsdance/academy-api/internal/models"
	"github.com/letsdance/academy-api/internal/service"
	"github.com/letsdance/academy-api/pkg/response"
)

// ExportHandler exposes enrollment report downloads.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// ExportEnrollments godoc
// @Summary Download an enrollment report
// @Tags Exports
// @Produce text/csv,application/pdf
// @Param format query string false "Export format (csv or pdf)" default(csv)
// @Param userId query string false "Filter by user"
// @Param status query string false "Filter by status"
// @Param kind query string false "Filter by course kind"
// @Success 200 {file} file
// @Router /enrollments/export [get]
func (h *ExportHandler) ExportEnrollments(c *gin.Context) {
	var filter models.EnrollmentFilter
	filter.UserID = c.Query("userId")
	filter.Status = models.EnrollmentStatus(strings.ToLower(c.Query("status")))
	filter.Kind = models.CourseKind(strings.ToLower(c.Query("kind")))
	format := service.ExportFormat(strings.ToLower(c.DefaultQuery("format", "csv")))

	result, err := h.exports.ExportEnrollments(c.Request.Context(), filter, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
