package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/letsdance/academy-api/internal/models"
	appErrors "github.com/letsdance/academy-api/pkg/errors"
)

type workshopRepository interface {
	List(ctx context.Context, filter models.WorkshopFilter) ([]models.Workshop, int, error)
	FindByID(ctx context.Context, id string) (*models.Workshop, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, workshop *models.Workshop) error
	Save(ctx context.Context, workshop *models.Workshop) error
	Delete(ctx context.Context, id string) error
}

// WorkshopRequest describes workshop creation and update payloads.
type WorkshopRequest struct {
	Title       string               `json:"title" validate:"required"`
	Slug        string               `json:"slug"`
	Description string               `json:"description" validate:"required"`
	Instructor  string               `json:"instructor" validate:"required"`
	Price       float64              `json:"price" validate:"gte=0"`
	Currency    string               `json:"currency"`
	Location    *string              `json:"location"`
	StartsAt    *time.Time           `json:"starts_at"`
	CoverImage  *string              `json:"cover_image"`
	Status      models.PublishStatus `json:"status" validate:"omitempty,oneof=draft published"`
}

// WorkshopService manages the workshop catalog.
type WorkshopService struct {
	repo      workshopRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewWorkshopService constructs WorkshopService.
func NewWorkshopService(repo workshopRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *WorkshopService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkshopService{repo: repo, cache: cache, validator: validate, logger: logger}
}

const workshopCachePrefix = "catalog:workshops"

// List returns workshops with pagination metadata.
func (s *WorkshopService) List(ctx context.Context, filter models.WorkshopFilter) ([]models.Workshop, *models.Pagination, error) {
	type cached struct {
		Workshops  []models.Workshop  `json:"workshops"`
		Pagination *models.Pagination `json:"pagination"`
	}

	cacheable := filter.Status == models.PublishStatusPublished
	key := fmt.Sprintf("%s:%s:%d:%d", workshopCachePrefix, filter.Status, filter.Page, filter.PageSize)
	if cacheable {
		var entry cached
		if hit, _ := s.cache.Get(ctx, key, &entry); hit {
			return entry.Workshops, entry.Pagination, nil
		}
	}

	workshops, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list workshops")
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
		s.cache.Set(ctx, key, cached{Workshops: workshops, Pagination: pagination}, 0)
	}
	return workshops, pagination, nil
}

// Get returns a workshop by ID.
func (s *WorkshopService) Get(ctx context.Context, id string) (*models.Workshop, error) {
	workshop, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "workshop not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workshop")
	}
	return workshop, nil
}

// Create adds a workshop to the catalog.
func (s *WorkshopService) Create(ctx context.Context, req WorkshopRequest) (*models.Workshop, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid workshop payload")
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

	workshop := &models.Workshop{
		Title:       req.Title,
		Slug:        slug,
		Description: req.Description,
		Instructor:  req.Instructor,
		Price:       req.Price,
		Currency:    req.Currency,
		Location:    req.Location,
		StartsAt:    req.StartsAt,
		CoverImage:  req.CoverImage,
		Status:      req.Status,
	}
	if workshop.Currency == "" {
		workshop.Currency = "INR"
	}

	if err := s.repo.Create(ctx, workshop); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create workshop")
	}
	s.cache.Invalidate(ctx, workshopCachePrefix+":*")
	return workshop, nil
}

// Update overwrites the editable fields of an existing workshop.
func (s *WorkshopService) Update(ctx context.Context, id string, req WorkshopRequest) (*models.Workshop, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid workshop payload")
	}

	workshop, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "workshop not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workshop")
	}

	workshop.Title = req.Title
	workshop.Description = req.Description
	workshop.Instructor = req.Instructor
	workshop.Price = req.Price
	workshop.Location = req.Location
	workshop.StartsAt = req.StartsAt
	workshop.CoverImage = req.CoverImage
	if req.Slug != "" && req.Slug != workshop.Slug {
		taken, err := s.repo.SlugExists(ctx, req.Slug)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate slug")
		}
		if taken {
			return nil, appErrors.Clone(appErrors.ErrConflict, "slug already in use")
		}
		workshop.Slug = req.Slug
	}
	if req.Currency != "" {
		workshop.Currency = req.Currency
	}
	if req.Status != "" {
		workshop.Status = req.Status
	}

	if err := s.repo.Save(ctx, workshop); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save workshop")
	}
	s.cache.Invalidate(ctx, workshopCachePrefix+":*")
	return workshop, nil
}

// Delete removes a workshop from the catalog.
func (s *WorkshopService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete workshop")
	}
	s.cache.Invalidate(ctx, workshopCachePrefix+":*")
	return nil
}
