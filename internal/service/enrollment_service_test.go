package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/letsdance/academy-api/internal/models"
	"github.com/letsdance/academy-api/internal/repository"
	appErrors "github.com/letsdance/academy-api/pkg/errors"
)

type mockEnrollmentRepo struct {
	enrollments map[string]models.Enrollment
	open        bool
	createErr   error
	created     *models.Enrollment
	expired     int64
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) HasOpen(ctx context.Context, userID string, batchID, workshopID *string) (bool, error) {
	return m.open, nil
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.enrollments == nil {
		m.enrollments = make(map[string]models.Enrollment)
	}
	if enrollment.ID == "" {
		enrollment.ID = "new-enrollment"
	}
	m.enrollments[enrollment.ID] = *enrollment
	m.created = enrollment
	return nil
}

func (m *mockEnrollmentRepo) Update(ctx context.Context, id string, apply func(*models.Enrollment) error) (*models.Enrollment, error) {
	e, ok := m.enrollments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if err := apply(&e); err != nil {
		return nil, err
	}
	m.enrollments[id] = e
	return &e, nil
}

func (m *mockEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, int, error) {
	var list []models.Enrollment
	for _, e := range m.enrollments {
		list = append(list, e)
	}
	return list, len(list), nil
}

func (m *mockEnrollmentRepo) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	return m.expired, nil
}

type mockBatchReader struct {
	batches map[string]*models.Batch
}

func (m *mockBatchReader) FindByID(ctx context.Context, id string) (*models.Batch, error) {
	if b, ok := m.batches[id]; ok {
		return b, nil
	}
	return nil, sql.ErrNoRows
}

type mockWorkshopReader struct {
	workshops map[string]*models.Workshop
}

func (m *mockWorkshopReader) FindByID(ctx context.Context, id string) (*models.Workshop, error) {
	if w, ok := m.workshops[id]; ok {
		return w, nil
	}
	return nil, sql.ErrNoRows
}

type mockUserReader struct {
	users map[string]*models.User
}

func (m *mockUserReader) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

type mockNotifier struct {
	dispatched []models.StatusNotification
}

func (m *mockNotifier) DispatchStatusChange(n models.StatusNotification) {
	m.dispatched = append(m.dispatched, n)
}

func newEnrollmentFixture(repo *mockEnrollmentRepo, notifier *mockNotifier, at time.Time) *EnrollmentService {
	batches := &mockBatchReader{batches: map[string]*models.Batch{
		"b1": {ID: "b1", Title: "Salsa Foundations", Price: 2500, PricingType: models.PaymentRecurring},
		"b2": {ID: "b2", Title: "Bachata Intensive", Price: 6000, PricingType: models.PaymentOneTime},
	}}
	workshops := &mockWorkshopReader{workshops: map[string]*models.Workshop{
		"w1": {ID: "w1", Title: "Street Jazz Weekend", Price: 1200},
	}}
	users := &mockUserReader{users: map[string]*models.User{
		"u1": {ID: "u1", Name: "Asha Rao", Email: "asha@example.com", Phone: "+911234567890"},
	}}
	var n statusNotifier
	if notifier != nil {
		n = notifier
	}
	svc := NewEnrollmentService(repo, batches, workshops, users, n, validator.New(), zap.NewNop())
	svc.now = func() time.Time { return at }
	return svc
}

func TestEnrollmentServiceSubmitBatch(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	at := time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC)
	svc := newEnrollmentFixture(repo, nil, at)

	enrollment, err := svc.Submit(context.Background(), SubmitEnrollmentRequest{
		UserID: "u1", BatchID: "b1", Branch: "Indiranagar", UTRNumber: "UTR-001",
	})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusPending, enrollment.Status)
	assert.Equal(t, "Asha Rao", enrollment.UserName)
	assert.Equal(t, "asha@example.com", enrollment.UserEmail)
	assert.Equal(t, "Salsa Foundations", enrollment.CourseTitle)
	assert.Equal(t, models.PaymentRecurring, enrollment.PaymentType)
	assert.Equal(t, 2500.0, enrollment.Price)
	assert.Nil(t, enrollment.ValidUntil)
	assert.Equal(t, at, enrollment.PaymentDate)
	require.NotNil(t, repo.created)
}

func TestEnrollmentServiceSubmitWorkshopIsOneTime(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	svc := newEnrollmentFixture(repo, nil, time.Now().UTC())

	enrollment, err := svc.Submit(context.Background(), SubmitEnrollmentRequest{
		UserID: "u1", WorkshopID: "w1", Branch: "Koramangala", UTRNumber: "UTR-002",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentOneTime, enrollment.PaymentType)
	assert.Equal(t, models.CourseKindWorkshop, enrollment.CourseKind())
}

func TestEnrollmentServiceSubmitRequiresExactlyOneCourse(t *testing.T) {
	svc := newEnrollmentFixture(&mockEnrollmentRepo{}, nil, time.Now().UTC())

	_, err := svc.Submit(context.Background(), SubmitEnrollmentRequest{
		UserID: "u1", Branch: "Indiranagar", UTRNumber: "UTR-003",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Submit(context.Background(), SubmitEnrollmentRequest{
		UserID: "u1", BatchID: "b1", WorkshopID: "w1", Branch: "Indiranagar", UTRNumber: "UTR-003",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceSubmitConflictsOnOpenEnrollment(t *testing.T) {
	repo := &mockEnrollmentRepo{open: true}
	svc := newEnrollmentFixture(repo, nil, time.Now().UTC())

	_, err := svc.Submit(context.Background(), SubmitEnrollmentRequest{
		UserID: "u1", BatchID: "b1", Branch: "Indiranagar", UTRNumber: "UTR-004",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceSubmitConflictsOnRacingDuplicate(t *testing.T) {
	repo := &mockEnrollmentRepo{createErr: repository.ErrDuplicateOpenEnrollment}
	svc := newEnrollmentFixture(repo, nil, time.Now().UTC())

	_, err := svc.Submit(context.Background(), SubmitEnrollmentRequest{
		UserID: "u1", BatchID: "b1", Branch: "Indiranagar", UTRNumber: "UTR-005",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceDecideActiveRecurring(t *testing.T) {
	batchID := "b1"
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", UserEmail: "asha@example.com", UserName: "Asha Rao", CourseTitle: "Salsa Foundations",
			BatchID: &batchID, Status: models.EnrollmentStatusPending, PaymentType: models.PaymentRecurring},
	}}
	notifier := &mockNotifier{}
	// Decision mid-month still bills to the end of the current month.
	at := time.Date(2026, time.March, 10, 14, 0, 0, 0, time.UTC)
	svc := newEnrollmentFixture(repo, notifier, at)

	enrollment, err := svc.Decide(context.Background(), "e1", models.EnrollmentStatusActive)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusActive, enrollment.Status)
	require.NotNil(t, enrollment.ValidUntil)
	assert.Equal(t, time.Date(2026, time.March, 31, 23, 59, 59, 999_000_000, time.UTC), *enrollment.ValidUntil)

	require.Len(t, notifier.dispatched, 1)
	assert.Equal(t, models.EnrollmentStatusActive, notifier.dispatched[0].Status)
	assert.Equal(t, "asha@example.com", notifier.dispatched[0].ToEmail)
	assert.Equal(t, models.CourseKindBatch, notifier.dispatched[0].CourseKind)
}

func TestEnrollmentServiceDecideActiveOneTime(t *testing.T) {
	workshopID := "w1"
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", WorkshopID: &workshopID, Status: models.EnrollmentStatusPending, PaymentType: models.PaymentOneTime},
	}}
	svc := newEnrollmentFixture(repo, &mockNotifier{}, time.Now().UTC())

	enrollment, err := svc.Decide(context.Background(), "e1", models.EnrollmentStatusActive)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusActive, enrollment.Status)
	assert.Nil(t, enrollment.ValidUntil)
}

func TestEnrollmentServiceDecideRejectedKeepsValidUntil(t *testing.T) {
	batchID := "b1"
	until := time.Date(2026, time.April, 30, 23, 59, 59, 999_000_000, time.UTC)
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", BatchID: &batchID, Status: models.EnrollmentStatusActive, PaymentType: models.PaymentRecurring, ValidUntil: &until},
	}}
	notifier := &mockNotifier{}
	svc := newEnrollmentFixture(repo, notifier, time.Now().UTC())

	enrollment, err := svc.Decide(context.Background(), "e1", models.EnrollmentStatusRejected)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusRejected, enrollment.Status)
	require.NotNil(t, enrollment.ValidUntil)
	assert.Equal(t, until, *enrollment.ValidUntil)
	require.Len(t, notifier.dispatched, 1)
	assert.Equal(t, models.EnrollmentStatusRejected, notifier.dispatched[0].Status)
}

func TestEnrollmentServiceDecideRejectsUnknownDecision(t *testing.T) {
	svc := newEnrollmentFixture(&mockEnrollmentRepo{}, nil, time.Now().UTC())

	_, err := svc.Decide(context.Background(), "e1", models.EnrollmentStatusExpired)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceDecideNotFound(t *testing.T) {
	svc := newEnrollmentFixture(&mockEnrollmentRepo{}, nil, time.Now().UTC())

	_, err := svc.Decide(context.Background(), "missing", models.EnrollmentStatusActive)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceRedecideOverwrites(t *testing.T) {
	batchID := "b1"
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", BatchID: &batchID, Status: models.EnrollmentStatusRejected, PaymentType: models.PaymentRecurring},
	}}
	at := time.Date(2026, time.June, 2, 8, 0, 0, 0, time.UTC)
	svc := newEnrollmentFixture(repo, &mockNotifier{}, at)

	enrollment, err := svc.Decide(context.Background(), "e1", models.EnrollmentStatusActive)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusActive, enrollment.Status)
	require.NotNil(t, enrollment.ValidUntil)
	assert.Equal(t, time.Date(2026, time.June, 30, 23, 59, 59, 999_000_000, time.UTC), *enrollment.ValidUntil)
}

func TestEnrollmentServiceExtendFromFutureValidUntil(t *testing.T) {
	batchID := "b1"
	until := time.Date(2026, time.April, 30, 23, 59, 59, 999_000_000, time.UTC)
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", BatchID: &batchID, Status: models.EnrollmentStatusActive, PaymentType: models.PaymentRecurring, ValidUntil: &until},
	}}
	at := time.Date(2026, time.April, 20, 10, 0, 0, 0, time.UTC)
	svc := newEnrollmentFixture(repo, nil, at)

	enrollment, err := svc.Extend(context.Background(), "e1")
	require.NoError(t, err)
	require.NotNil(t, enrollment.ValidUntil)
	assert.Equal(t, time.Date(2026, time.May, 31, 23, 59, 59, 999_000_000, time.UTC), *enrollment.ValidUntil)
	assert.Equal(t, at, enrollment.PaymentDate)
	assert.Equal(t, models.EnrollmentStatusActive, enrollment.Status)
}

func TestEnrollmentServiceExtendLapsedStartsFromNow(t *testing.T) {
	batchID := "b1"
	until := time.Date(2026, time.January, 31, 23, 59, 59, 999_000_000, time.UTC)
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", BatchID: &batchID, Status: models.EnrollmentStatusExpired, PaymentType: models.PaymentRecurring, ValidUntil: &until},
	}}
	at := time.Date(2026, time.February, 15, 12, 0, 0, 0, time.UTC)
	svc := newEnrollmentFixture(repo, nil, at)

	enrollment, err := svc.Extend(context.Background(), "e1")
	require.NoError(t, err)
	require.NotNil(t, enrollment.ValidUntil)
	assert.Equal(t, time.Date(2026, time.March, 31, 23, 59, 59, 999_000_000, time.UTC), *enrollment.ValidUntil)
	assert.Equal(t, models.EnrollmentStatusActive, enrollment.Status)
}

func TestEnrollmentServiceExtendReactivatesRejected(t *testing.T) {
	batchID := "b1"
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", BatchID: &batchID, Status: models.EnrollmentStatusRejected, PaymentType: models.PaymentRecurring},
	}}
	at := time.Date(2026, time.July, 5, 9, 0, 0, 0, time.UTC)
	svc := newEnrollmentFixture(repo, nil, at)

	enrollment, err := svc.Extend(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusActive, enrollment.Status)
	require.NotNil(t, enrollment.ValidUntil)
	assert.Equal(t, time.Date(2026, time.August, 31, 23, 59, 59, 999_000_000, time.UTC), *enrollment.ValidUntil)
}

func TestEnrollmentServiceExtendMonthEndOverflowSkipsShortMonth(t *testing.T) {
	batchID := "b1"
	until := time.Date(2026, time.January, 31, 23, 59, 59, 999_000_000, time.UTC)
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", BatchID: &batchID, Status: models.EnrollmentStatusActive, PaymentType: models.PaymentRecurring, ValidUntil: &until},
	}}
	at := time.Date(2026, time.January, 20, 10, 0, 0, 0, time.UTC)
	svc := newEnrollmentFixture(repo, nil, at)

	// Jan 31 + 1 month normalises past February, so the renewal lands on
	// March 31 rather than February 28.
	enrollment, err := svc.Extend(context.Background(), "e1")
	require.NoError(t, err)
	require.NotNil(t, enrollment.ValidUntil)
	assert.Equal(t, time.Date(2026, time.March, 31, 23, 59, 59, 999_000_000, time.UTC), *enrollment.ValidUntil)
}

func TestEnrollmentServiceExpireLapsed(t *testing.T) {
	repo := &mockEnrollmentRepo{expired: 3}
	svc := newEnrollmentFixture(repo, nil, time.Now().UTC())

	count, err := svc.ExpireLapsed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestEndOfMonth(t *testing.T) {
	got := endOfMonth(time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, time.February, 28, 23, 59, 59, 999_000_000, time.UTC), got)

	got = endOfMonth(time.Date(2028, time.February, 10, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2028, time.February, 29, 23, 59, 59, 999_000_000, time.UTC), got)

	got = endOfMonth(time.Date(2026, time.December, 31, 1, 2, 3, 0, time.UTC))
	assert.Equal(t, time.Date(2026, time.December, 31, 23, 59, 59, 999_000_000, time.UTC), got)
}
