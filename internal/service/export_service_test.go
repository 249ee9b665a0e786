package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/letsdance/academy-api/internal/models"
	appErrors "github.com/letsdance/academy-api/pkg/errors"
)

type mockEnrollmentLister struct {
	enrollments []models.Enrollment
	gotFilter   models.EnrollmentFilter
}

func (m *mockEnrollmentLister) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, int, error) {
	m.gotFilter = filter
	return m.enrollments, len(m.enrollments), nil
}

func exportFixtureEnrollments() []models.Enrollment {
	batchID := "b1"
	until := time.Date(2026, time.March, 31, 23, 59, 59, 999_000_000, time.UTC)
	return []models.Enrollment{
		{
			ID: "e1", UserName: "Asha Rao", UserEmail: "asha@example.com", UserPhone: "+911234567890",
			BatchID: &batchID, CourseTitle: "Salsa Foundations", Branch: "Indiranagar", UTRNumber: "UTR-001",
			Status: models.EnrollmentStatusActive, PaymentType: models.PaymentRecurring, Price: 2500,
			PaymentDate: time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC), ValidUntil: &until,
		},
		{
			ID: "e2", UserName: "Ravi Menon", UserEmail: "ravi@example.com",
			CourseTitle: "Street Jazz Weekend", Branch: "Koramangala", UTRNumber: "UTR-002",
			Status: models.EnrollmentStatusPending, PaymentType: models.PaymentOneTime, Price: 1200,
			PaymentDate: time.Date(2026, time.March, 12, 11, 0, 0, 0, time.UTC),
		},
	}
}

func TestExportServiceCSV(t *testing.T) {
	lister := &mockEnrollmentLister{enrollments: exportFixtureEnrollments()}
	svc := NewExportService(lister, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC) }

	result, err := svc.ExportEnrollments(context.Background(), models.EnrollmentFilter{}, ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, "enrollments-2026-03-15.csv", result.Filename)

	records, err := csv.NewReader(bytes.NewReader(result.Content)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, enrollmentExportHeaders, records[0])
	assert.Equal(t, "Asha Rao", records[1][1])
	assert.Equal(t, "ACTIVE", records[1][8])
	assert.Equal(t, "2026-03-31 23:59", records[1][12])
	// One-time payments have no expiry.
	assert.Equal(t, "lifetime", records[2][12])
}

func TestExportServicePDF(t *testing.T) {
	lister := &mockEnrollmentLister{enrollments: exportFixtureEnrollments()}
	svc := NewExportService(lister, zap.NewNop())

	result, err := svc.ExportEnrollments(context.Background(), models.EnrollmentFilter{}, ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, bytes.HasPrefix(result.Content, []byte("%PDF")))
}

func TestExportServiceUnknownFormat(t *testing.T) {
	svc := NewExportService(&mockEnrollmentLister{}, zap.NewNop())

	_, err := svc.ExportEnrollments(context.Background(), models.EnrollmentFilter{}, ExportFormat("xlsx"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportServiceIgnoresCallerPagination(t *testing.T) {
	lister := &mockEnrollmentLister{}
	svc := NewExportService(lister, zap.NewNop())

	_, err := svc.ExportEnrollments(context.Background(), models.EnrollmentFilter{Page: 7, PageSize: 5}, ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, 1, lister.gotFilter.Page)
	assert.Equal(t, 10000, lister.gotFilter.PageSize)
}
