package service

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/letsdance/academy-api/internal/models"
	appErrors "github.com/letsdance/academy-api/pkg/errors"
)

type batchRepository interface {
	List(ctx context.Context, filter models.BatchFilter) ([]models.Batch, int, error)
	FindByID(ctx context.Context, id string) (*models.Batch, error)
	FindBySlug(ctx context.Context, slug string) (*models.Batch, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, batch *models.Batch) error
	Save(ctx context.Context, batch *models.Batch) error
	Delete(ctx context.Context, id string) error
}

// BatchRequest describes batch creation and update payloads.
type BatchRequest struct {
	Title        string               `json:"title" validate:"required"`
	Slug         string               `json:"slug"`
	Description  string               `json:"description" validate:"required"`
	Instructor   string               `json:"instructor" validate:"required"`
	Level        string               `json:"level"`
	PricingType  models.PaymentType   `json:"pricing_type" validate:"omitempty,oneof=one-time recurring"`
	Price        float64              `json:"price" validate:"gte=0"`
	Currency     string               `json:"currency"`
	Duration     string               `json:"duration" validate:"required"`
	Schedule     *string              `json:"schedule"`
	CoverImage   *string              `json:"cover_image"`
	VideoPreview *string              `json:"video_preview"`
	Status       models.PublishStatus `json:"status" validate:"omitempty,oneof=draft published"`
}

// BatchService manages the batch catalog.
type BatchService struct {
	repo      batchRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBatchService constructs BatchService.
func NewBatchService(repo batchRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *BatchService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchService{repo: repo, cache: cache, validator: validate, logger: logger}
}

const batchCachePrefix = "catalog:batches"

// List returns batches with pagination metadata. Published-only listings are
// served through the cache when it is enabled.
func (s *BatchService) List(ctx context.Context, filter models.BatchFilter) ([]models.Batch, *models.Pagination, error) {
	type cached struct {
		Batches    []models.Batch     `json:"batches"`
		Pagination *models.Pagination `json:"pagination"`
	}

	cacheable := filter.Status == models.PublishStatusPublished
	key := fmt.Sprintf("%s:%s:%d:%d", batchCachePrefix, filter.Status, filter.Page, filter.PageSize)
	if cacheable {
		var entry cached
		if hit, _ := s.cache.Get(ctx, key, &entry); hit {
			return entry.Batches, entry.Pagination, nil
		}
	}

	batches, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list batches")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 10
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}

	if cacheable {
		s.cache.Set(ctx, key, cached{Batches: batches, Pagination: pagination}, 0)
	}
	return batches, pagination, nil
}

// Get returns a batch by ID.
func (s *BatchService) Get(ctx context.Context, id string) (*models.Batch, error) {
	batch, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "batch not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch")
	}
	return batch, nil
}

// GetBySlug returns a batch by its URL slug.
func (s *BatchService) GetBySlug(ctx context.Context, slug string) (*models.Batch, error) {
	batch, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "batch not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch")
	}
	return batch, nil
}

// Create adds a batch to the catalog, generating a unique slug from the
// title when none is supplied.
func (s *BatchService) Create(ctx context.Context, req BatchRequest) (*models.Batch, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch payload")
	}

	slug := req.Slug
	if slug == "" {
		slug = Slugify(req.Title)
	}
	taken, err := s.repo.SlugExists(ctx, slug)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate slug")
	}
	if taken {
		slug = fmt.Sprintf("%s-%04d", slug, time.Now().UnixMilli()%10000)
	}

	batch := &models.Batch{
		Title:        req.Title,
		Slug:         slug,
		Description:  req.Description,
		Instructor:   req.Instructor,
		Level:        req.Level,
		PricingType:  req.PricingType,
		Price:        req.Price,
		Currency:     req.Currency,
		Duration:     req.Duration,
		Schedule:     req.Schedule,
		CoverImage:   req.CoverImage,
		VideoPreview: req.VideoPreview,
		Status:       req.Status,
	}
	if batch.Level == "" {
		batch.Level = "All Levels"
	}
	if batch.PricingType == "" {
		batch.PricingType = models.PaymentOneTime
	}
	if batch.Currency == "" {
		batch.Currency = "INR"
	}

	if err := s.repo.Create(ctx, batch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create batch")
	}
	s.cache.Invalidate(ctx, batchCachePrefix+":*")
	return batch, nil
}

// Update overwrites the editable fields of an existing batch. Snapshots on
// historical enrollments are unaffected.
func (s *BatchService) Update(ctx context.Context, id string, req BatchRequest) (*models.Batch, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch payload")
	}

	batch, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "batch not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch")
	}

	batch.Title = req.Title
	batch.Description = req.Description
	batch.Instructor = req.Instructor
	batch.Price = req.Price
	batch.Duration = req.Duration
	batch.Schedule = req.Schedule
	batch.CoverImage = req.CoverImage
	batch.VideoPreview = req.VideoPreview
	if req.Slug != "" && req.Slug != batch.Slug {
		taken, err := s.repo.SlugExists(ctx, req.Slug)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate slug")
		}
		if taken {
			return nil, appErrors.Clone(appErrors.ErrConflict, "slug already in use")
		}
		batch.Slug = req.Slug
	}
	if req.Level != "" {
		batch.Level = req.Level
	}
	if req.PricingType != "" {
		batch.PricingType = req.PricingType
	}
	if req.Currency != "" {
		batch.Currency = req.Currency
	}
	if req.Status != "" {
		batch.Status = req.Status
	}

	if err := s.repo.Save(ctx, batch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save batch")
	}
	s.cache.Invalidate(ctx, batchCachePrefix+":*")
	return batch, nil
}

// Delete removes a batch from the catalog.
func (s *BatchService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete batch")
	}
	s.cache.Invalidate(ctx, batchCachePrefix+":*")
	return nil
}

var (
	slugInvalidChars = regexp.MustCompile(`[^\w-]+`)
	slugDashRuns     = regexp.MustCompile(`-{2,}`)
)

// Slugify converts a title to a URL-friendly identifier.
func Slugify(text string) string {
	slug := strings.ToLower(strings.TrimSpace(text))
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = slugInvalidChars.ReplaceAllString(slug, "")
	slug = slugDashRuns.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
