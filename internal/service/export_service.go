package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/letsdance/academy-api/internal/models"
	appErrors "github.com/letsdance/academy-api/pkg/errors"
	"github.com/letsdance/academy-api/pkg/export"
)

// ExportFormat identifies a supported export encoding.
type ExportFormat string

// Supported export formats.
const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportResult carries the rendered document and delivery metadata.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

type enrollmentLister interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, int, error)
}

// ExportService renders enrollment reports for download.
type ExportService struct {
	enrollments enrollmentLister
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	logger      *zap.Logger
	now         func() time.Time
}

// NewExportService constructs ExportService.
func NewExportService(enrollments enrollmentLister, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		enrollments: enrollments,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		logger:      logger,
		now:         time.Now,
	}
}

var enrollmentExportHeaders = []string{
	"ID", "User", "Email", "Phone", "Course", "Kind", "Branch",
	"UTR Number", "Status", "Payment Type", "Price", "Payment Date", "Valid Until",
}

// ExportEnrollments renders the filtered enrollment list as CSV or PDF.
func (s *ExportService) ExportEnrollments(ctx context.Context, filter models.EnrollmentFilter, format ExportFormat) (*ExportResult, error) {
	// Exports are unpaginated; pull everything matching the filter.
	filter.Page = 1
	filter.PageSize = 10000
	enrollments, _, err := s.enrollments.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments for export")
	}

	dataset := export.Dataset{Headers: enrollmentExportHeaders, Rows: make([]map[string]string, 0, len(enrollments))}
	for i := range enrollments {
		dataset.Rows = append(dataset.Rows, enrollmentExportRow(&enrollments[i]))
	}

	stamp := s.now().UTC().Format("2006-01-02")
	switch format {
	case ExportFormatCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("enrollments-%s.csv", stamp),
		}, nil
	case ExportFormatPDF:
		content, err := s.pdf.Render(dataset, "Enrollment Report")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("enrollments-%s.pdf", stamp),
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func enrollmentExportRow(e *models.Enrollment) map[string]string {
	validUntil := "lifetime"
	if e.ValidUntil != nil {
		validUntil = e.ValidUntil.Format("2006-01-02 15:04")
	}
	return map[string]string{
		"ID":           e.ID,
		"User":         e.UserName,
		"Email":        e.UserEmail,
		"Phone":        e.UserPhone,
		"Course":       e.CourseTitle,
		"Kind":         string(e.CourseKind()),
		"Branch":       e.Branch,
		"UTR Number":   e.UTRNumber,
		"Status":       strings.ToUpper(string(e.Status)),
		"Payment Type": string(e.PaymentType),
		"Price":        fmt.Sprintf("%.2f", e.Price),
		"Payment Date": e.PaymentDate.Format("2006-01-02 15:04"),
		"Valid Until":  validUntil,
	}
}
