package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/letsdance/academy-api/internal/models"
)

// BatchRepository handles persistence of batches.
type BatchRepository struct {
	db *sqlx.DB
}

// NewBatchRepository constructs the repository.
func NewBatchRepository(db *sqlx.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

const batchColumns = `id, title, slug, description, instructor, level, pricing_type, price, currency,
        duration, schedule, cover_image, video_preview, status, created_at, updated_at`

// List returns batches filtered by the provided criteria, newest first.
func (r *BatchRepository) List(ctx context.Context, filter models.BatchFilter) ([]models.Batch, int, error) {
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 10
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM batches%s ORDER BY created_at DESC LIMIT %d OFFSET %d",
		batchColumns, clause, size, offset)

	var batches []models.Batch
	if err := r.db.SelectContext(ctx, &batches, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list batches: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM batches" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count batches: %w", err)
	}
	return batches, total, nil
}

// FindByID returns a batch by its ID.
func (r *BatchRepository) FindByID(ctx context.Context, id string) (*models.Batch, error) {
	query := fmt.Sprintf("SELECT %s FROM batches WHERE id = $1", batchColumns)
	var batch models.Batch
	if err := r.db.GetContext(ctx, &batch, query, id); err != nil {
		return nil, err
	}
	return &batch, nil
}

// FindBySlug returns a batch by its URL slug.
func (r *BatchRepository) FindBySlug(ctx context.Context, slug string) (*models.Batch, error) {
	query := fmt.Sprintf("SELECT %s FROM batches WHERE slug = $1", batchColumns)
	var batch models.Batch
	if err := r.db.GetContext(ctx, &batch, query, slug); err != nil {
		return nil, err
	}
	return &batch, nil
}

// SlugExists reports whether a slug is already taken.
func (r *BatchRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM batches WHERE slug = $1 LIMIT 1", slug)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check batch slug: %w", err)
	}
	return true, nil
}

// Create persists a new batch record.
func (r *BatchRepository) Create(ctx context.Context, batch *models.Batch) error {
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	batch.CreatedAt = now
	batch.UpdatedAt = now
	if batch.Status == "" {
		batch.Status = models.PublishStatusDraft
	}

	const query = `INSERT INTO batches (id, title, slug, description, instructor, level, pricing_type, price, currency,
        duration, schedule, cover_image, video_preview, status, created_at, updated_at)
        VALUES (:id, :title, :slug, :description, :instructor, :level, :pricing_type, :price, :currency,
        :duration, :schedule, :cover_image, :video_preview, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, batch); err != nil {
		return fmt.Errorf("create batch: %w", err)
	}
	return nil
}

// Save updates all mutable fields of a batch.
func (r *BatchRepository) Save(ctx context.Context, batch *models.Batch) error {
	batch.UpdatedAt = time.Now().UTC()
	const query = `UPDATE batches SET title = :title, slug = :slug, description = :description,
        instructor = :instructor, level = :level, pricing_type = :pricing_type, price = :price,
        currency = :currency, duration = :duration, schedule = :schedule, cover_image = :cover_image,
        video_preview = :video_preview, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, batch); err != nil {
		return fmt.Errorf("save batch: %w", err)
	}
	return nil
}

// Delete removes a batch permanently.
func (r *BatchRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM batches WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete batch: %w", err)
	}
	return nil
}
