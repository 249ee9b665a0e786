package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/letsdance/academy-api/internal/models"
)

// ReviewRepository handles persistence of batch reviews.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository constructs the repository.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

const reviewColumns = `id, batch_id, user_id, user_name, rating, comment, created_at, updated_at`

// ListByBatch returns all reviews for a batch, newest first.
func (r *ReviewRepository) ListByBatch(ctx context.Context, batchID string) ([]models.Review, error) {
	query := fmt.Sprintf("SELECT %s FROM batch_reviews WHERE batch_id = $1 ORDER BY created_at DESC", reviewColumns)
	var reviews []models.Review
	if err := r.db.SelectContext(ctx, &reviews, query, batchID); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

// FindByID returns a review by its ID.
func (r *ReviewRepository) FindByID(ctx context.Context, id string) (*models.Review, error) {
	query := fmt.Sprintf("SELECT %s FROM batch_reviews WHERE id = $1", reviewColumns)
	var review models.Review
	if err := r.db.GetContext(ctx, &review, query, id); err != nil {
		return nil, err
	}
	return &review, nil
}

// Create persists a new review.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	review.CreatedAt = now
	review.UpdatedAt = now

	const query = `INSERT INTO batch_reviews (id, batch_id, user_id, user_name, rating, comment, created_at, updated_at)
        VALUES (:id, :batch_id, :user_id, :user_name, :rating, :comment, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, review); err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

// Save updates the rating and comment of an existing review.
func (r *ReviewRepository) Save(ctx context.Context, review *models.Review) error {
	review.UpdatedAt = time.Now().UTC()
	const query = `UPDATE batch_reviews SET rating = $2, comment = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, review.ID, review.Rating, review.Comment, review.UpdatedAt); err != nil {
		return fmt.Errorf("save review: %w", err)
	}
	return nil
}
