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

type mockBatchRepo struct {
	batches map[string]models.Batch
	slugs   map[string]bool
	created *models.Batch
	saved   *models.Batch
	deleted []string
}

func (m *mockBatchRepo) List(ctx context.Context, filter models.BatchFilter) ([]models.Batch, int, error) {
	var list []models.Batch
	for _, b := range m.batches {
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		list = append(list, b)
	}
	return list, len(list), nil
}

func (m *mockBatchRepo) FindByID(ctx context.Context, id string) (*models.Batch, error) {
	if b, ok := m.batches[id]; ok {
		return &b, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockBatchRepo) FindBySlug(ctx context.Context, slug string) (*models.Batch, error) {
	for _, b := range m.batches {
		if b.Slug == slug {
			return &b, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockBatchRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	return m.slugs[slug], nil
}

func (m *mockBatchRepo) Create(ctx context.Context, batch *models.Batch) error {
	if m.batches == nil {
		m.batches = make(map[string]models.Batch)
	}
	if batch.ID == "" {
		batch.ID = "new-batch"
	}
	m.batches[batch.ID] = *batch
	m.created = batch
	return nil
}

func (m *mockBatchRepo) Save(ctx context.Context, batch *models.Batch) error {
	m.batches[batch.ID] = *batch
	m.saved = batch
	return nil
}

func (m *mockBatchRepo) Delete(ctx context.Context, id string) error {
	delete(m.batches, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func TestBatchServiceCreateGeneratesSlug(t *testing.T) {
	repo := &mockBatchRepo{}
	svc := NewBatchService(repo, nil, validator.New(), zap.NewNop())

	batch, err := svc.Create(context.Background(), BatchRequest{
		Title: "Salsa Foundations!", Description: "d", Instructor: "i", Duration: "8 weeks",
	})
	require.NoError(t, err)
	assert.Equal(t, "salsa-foundations", batch.Slug)
	assert.Equal(t, "All Levels", batch.Level)
	assert.Equal(t, models.PaymentOneTime, batch.PricingType)
	assert.Equal(t, "INR", batch.Currency)
}

func TestBatchServiceCreateSuffixesTakenSlug(t *testing.T) {
	repo := &mockBatchRepo{slugs: map[string]bool{"salsa-foundations": true}}
	svc := NewBatchService(repo, nil, validator.New(), zap.NewNop())

	batch, err := svc.Create(context.Background(), BatchRequest{
		Title: "Salsa Foundations", Description: "d", Instructor: "i", Duration: "8 weeks",
	})
	require.NoError(t, err)
	assert.NotEqual(t, "salsa-foundations", batch.Slug)
	assert.Regexp(t, `^salsa-foundations-\d{4}$`, batch.Slug)
}

func TestBatchServiceCreateValidation(t *testing.T) {
	svc := NewBatchService(&mockBatchRepo{}, nil, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), BatchRequest{Title: "no description"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBatchServiceUpdateSlugConflict(t *testing.T) {
	repo := &mockBatchRepo{
		batches: map[string]models.Batch{"b1": {ID: "b1", Slug: "old-slug", Status: models.PublishStatusDraft}},
		slugs:   map[string]bool{"taken-slug": true},
	}
	svc := NewBatchService(repo, nil, validator.New(), zap.NewNop())

	_, err := svc.Update(context.Background(), "b1", BatchRequest{
		Title: "t", Slug: "taken-slug", Description: "d", Instructor: "i", Duration: "8 weeks",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestBatchServiceUpdatePreservesUnsetDefaults(t *testing.T) {
	repo := &mockBatchRepo{
		batches: map[string]models.Batch{"b1": {
			ID: "b1", Slug: "s", Level: "Advanced", PricingType: models.PaymentRecurring,
			Currency: "INR", Status: models.PublishStatusPublished,
		}},
	}
	svc := NewBatchService(repo, nil, validator.New(), zap.NewNop())

	batch, err := svc.Update(context.Background(), "b1", BatchRequest{
		Title: "New Title", Description: "d", Instructor: "i", Duration: "12 weeks",
	})
	require.NoError(t, err)
	assert.Equal(t, "New Title", batch.Title)
	assert.Equal(t, "Advanced", batch.Level)
	assert.Equal(t, models.PaymentRecurring, batch.PricingType)
	assert.Equal(t, models.PublishStatusPublished, batch.Status)
}

func TestBatchServiceDeleteMissing(t *testing.T) {
	svc := NewBatchService(&mockBatchRepo{}, nil, validator.New(), zap.NewNop())

	err := svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "salsa-foundations", Slugify("Salsa Foundations"))
	assert.Equal(t, "hip-hop-101", Slugify("  Hip Hop 101  "))
	assert.Equal(t, "bachata-beyond", Slugify("Bachata & Beyond"))
	assert.Equal(t, "contemporary", Slugify("--Contemporary--"))
	assert.Equal(t, "", Slugify("!!!"))
}
