package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/letsdance/academy-api/internal/models"
	appErrors "github.com/letsdance/academy-api/pkg/errors"
)

type mockReviewRepo struct {
	reviews map[string]models.Review
	created *models.Review
	saved   *models.Review
}

func (m *mockReviewRepo) ListByBatch(ctx context.Context, batchID string) ([]models.Review, error) {
	var list []models.Review
	for _, r := range m.reviews {
		if r.BatchID == batchID {
			list = append(list, r)
		}
	}
	return list, nil
}

func (m *mockReviewRepo) FindByID(ctx context.Context, id string) (*models.Review, error) {
	if r, ok := m.reviews[id]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockReviewRepo) Create(ctx context.Context, review *models.Review) error {
	if m.reviews == nil {
		m.reviews = make(map[string]models.Review)
	}
	if review.ID == "" {
		review.ID = "new-review"
	}
	m.reviews[review.ID] = *review
	m.created = review
	return nil
}

func (m *mockReviewRepo) Save(ctx context.Context, review *models.Review) error {
	m.reviews[review.ID] = *review
	m.saved = review
	return nil
}

func newReviewFixture(repo *mockReviewRepo) *ReviewService {
	batches := &mockBatchReader{batches: map[string]*models.Batch{
		"b1": {ID: "b1", Title: "Salsa Foundations"},
	}}
	users := &mockUserReader{users: map[string]*models.User{
		"u1": {ID: "u1", Name: "Asha Rao", Email: "asha@example.com"},
	}}
	return NewReviewService(repo, batches, users, validator.New(), zap.NewNop())
}

func TestReviewServiceAddSnapshotsUserName(t *testing.T) {
	repo := &mockReviewRepo{}
	svc := newReviewFixture(repo)

	review, err := svc.Add(context.Background(), "b1", AddReviewRequest{UserID: "u1", Rating: 5, Comment: "great class"})
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", review.UserName)
	assert.Equal(t, "b1", review.BatchID)
	require.NotNil(t, repo.created)
}

func TestReviewServiceAddUnknownBatch(t *testing.T) {
	svc := newReviewFixture(&mockReviewRepo{})

	_, err := svc.Add(context.Background(), "missing", AddReviewRequest{UserID: "u1", Rating: 4, Comment: "ok"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReviewServiceAddInvalidRating(t *testing.T) {
	svc := newReviewFixture(&mockReviewRepo{})

	_, err := svc.Add(context.Background(), "b1", AddReviewRequest{UserID: "u1", Rating: 6, Comment: "too good"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReviewServiceUpdate(t *testing.T) {
	repo := &mockReviewRepo{reviews: map[string]models.Review{
		"r1": {ID: "r1", BatchID: "b1", UserID: "u1", UserName: "Asha Rao", Rating: 3, Comment: "fine"},
	}}
	svc := newReviewFixture(repo)

	review, err := svc.Update(context.Background(), "r1", UpdateReviewRequest{Rating: 5, Comment: "changed my mind"})
	require.NoError(t, err)
	assert.Equal(t, 5, review.Rating)
	assert.Equal(t, "changed my mind", review.Comment)
	assert.Equal(t, "Asha Rao", review.UserName)
}
