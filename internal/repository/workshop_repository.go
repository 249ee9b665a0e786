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

// WorkshopRepository handles persistence of workshops.
type WorkshopRepository struct {
	db *sqlx.DB
}

// NewWorkshopRepository constructs the repository.
func NewWorkshopRepository(db *sqlx.DB) *WorkshopRepository {
	return &WorkshopRepository{db: db}
}

const workshopColumns = `id, title, slug, description, instructor, price, currency, location,
        starts_at, cover_image, status, created_at, updated_at`

// List returns workshops filtered by the provided criteria, newest first.
func (r *WorkshopRepository) List(ctx context.Context, filter models.WorkshopFilter) ([]models.Workshop, int, error) {
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

	query := fmt.Sprintf("SELECT %s FROM workshops%s ORDER BY created_at DESC LIMIT %d OFFSET %d",
		workshopColumns, clause, size, offset)

	var workshops []models.Workshop
	if err := r.db.SelectContext(ctx, &workshops, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list workshops: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM workshops" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count workshops: %w", err)
	}
	return workshops, total, nil
}

// FindByID returns a workshop by its ID.
func (r *WorkshopRepository) FindByID(ctx context.Context, id string) (*models.Workshop, error) {
	query := fmt.Sprintf("SELECT %s FROM workshops WHERE id = $1", workshopColumns)
	var workshop models.Workshop
	if err := r.db.GetContext(ctx, &workshop, query, id); err != nil {
		return nil, err
	}
	return &workshop, nil
}

// SlugExists reports whether a slug is already taken.
func (r *WorkshopRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM workshops WHERE slug = $1 LIMIT 1", slug)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check workshop slug: %w", err)
	}
	return true, nil
}

// Create persists a new workshop record.
func (r *WorkshopRepository) Create(ctx context.Context, workshop *models.Workshop) error {
	if workshop.ID == "" {
		workshop.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	workshop.CreatedAt = now
	workshop.UpdatedAt = now
	if workshop.Status == "" {
		workshop.Status = models.PublishStatusDraft
	}

	const query = `INSERT INTO workshops (id, title, slug, description, instructor, price, currency, location,
        starts_at, cover_image, status, created_at, updated_at)
        VALUES (:id, :title, :slug, :description, :instructor, :price, :currency, :location,
        :starts_at, :cover_image, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, workshop); err != nil {
		return fmt.Errorf("create workshop: %w", err)
	}
	return nil
}

// Save updates all mutable fields of a workshop.
func (r *WorkshopRepository) Save(ctx context.Context, workshop *models.Workshop) error {
	workshop.UpdatedAt = time.Now().UTC()
	const query = `UPDATE workshops SET title = :title, slug = :slug, description = :description,
        instructor = :instructor, price = :price, currency = :currency, location = :location,
        starts_at = :starts_at, cover_image = :cover_image, status = :status, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, workshop); err != nil {
		return fmt.Errorf("save workshop: %w", err)
	}
	return nil
}

// Delete removes a workshop permanently.
func (r *WorkshopRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM workshops WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete workshop: %w", err)
	}
	return nil
}
