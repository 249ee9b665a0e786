package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/letsdance/academy-api/internal/models"
	appErrors "github.com/letsdance/academy-api/pkg/errors"
)

type reviewRepository interface {
	ListByBatch(ctx context.Context, batchID string) ([]models.Review, error)
	FindByID(ctx context.Context, id string) (*models.Review, error)
	Create(ctx context.Context, review *models.Review) error
	Save(ctx context.Context, review *models.Review) error
}

// AddReviewRequest describes a review submission.
type AddReviewRequest struct {
	UserID  string `json:"user_id" validate:"required"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required"`
}

// UpdateReviewRequest describes a review edit.
type UpdateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required"`
}

// ReviewService manages batch reviews. Multiple reviews per user are allowed.
type ReviewService struct {
	repo      reviewRepository
	batches   batchReader
	users     userReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReviewService constructs ReviewService.
func NewReviewService(repo reviewRepository, batches batchReader, users userReader, validate *validator.Validate, logger *zap.Logger) *ReviewService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{repo: repo, batches: batches, users: users, validator: validate, logger: logger}
}

// ListByBatch returns all reviews for a batch.
func (s *ReviewService) ListByBatch(ctx context.Context, batchID string) ([]models.Review, error) {
	if _, err := s.batches.FindByID(ctx, batchID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "batch not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch")
	}
	reviews, err := s.repo.ListByBatch(ctx, batchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reviews")
	}
	return reviews, nil
}

// Add records a review against a batch, snapshotting the reviewer's name.
func (s *ReviewService) Add(ctx context.Context, batchID string, req AddReviewRequest) (*models.Review, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	user, err := s.users.FindByID(ctx, req.UserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if _, err := s.batches.FindByID(ctx, batchID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "batch not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch")
	}

	review := &models.Review{
		BatchID:  batchID,
		UserID:   user.ID,
		UserName: user.Name,
		Rating:   req.Rating,
		Comment:  req.Comment,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create review")
	}
	return review, nil
}

// Update edits the rating and comment of an existing review.
func (s *ReviewService) Update(ctx context.Context, reviewID string, req UpdateReviewRequest) (*models.Review, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	review, err := s.repo.FindByID(ctx, reviewID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "review not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load review")
	}

	review.Rating = req.Rating
	review.Comment = req.Comment
	if err := s.repo.Save(ctx, review); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save review")
	}
	return review, nil
}
