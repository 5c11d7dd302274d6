package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gatecheck-api/internal/models"
)

// CategoryRepository provides persistence for visitor categories.
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository constructs the repository.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create inserts a category.
func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	category.CreatedAt = now
	category.UpdatedAt = now

	const query = `
INSERT INTO categories (id, name, description, company_id, created_at, updated_at)
VALUES (:id, :name, :description, :company_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, category); err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// FindByID fetches one category.
func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*models.Category, error) {
	const query = `
SELECT id, name, description, company_id, created_at, updated_at
FROM categories WHERE id = $1`
	var category models.Category
	if err := r.db.GetContext(ctx, &category, query, id); err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &category, nil
}

// FindByName fetches one category by name within a company.
func (r *CategoryRepository) FindByName(ctx context.Context, companyID, name string) (*models.Category, error) {
	const query = `
SELECT id, name, description, company_id, created_at, updated_at
FROM categories WHERE company_id = $1 AND LOWER(name) = LOWER($2)`
	var category models.Category
	if err := r.db.GetContext(ctx, &category, query, companyID, name); err != nil {
		return nil, fmt.Errorf("get category by name: %w", err)
	}
	return &category, nil
}

// List returns every category for the company, alphabetically.
func (r *CategoryRepository) List(ctx context.Context, companyID string) ([]models.Category, error) {
	const query = `
SELECT id, name, description, company_id, created_at, updated_at
FROM categories WHERE company_id = $1 ORDER BY name ASC`
	var categories []models.Category
	if err := r.db.SelectContext(ctx, &categories, query, companyID); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// Update applies the non-nil fields.
func (r *CategoryRepository) Update(ctx context.Context, id string, name, description *string) error {
	sets := []string{"updated_at = $1"}
	args := []interface{}{time.Now().UTC()}
	if name != nil {
		args = append(args, *name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if description != nil {
		args = append(args, *description)
		sets = append(sets, fmt.Sprintf("description = $%d", len(args)))
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE categories SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update category: no rows affected")
	}
	return nil
}

// Delete removes a category. Passes keep their denormalized category id;
// the foreign key is set null by the schema.
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("delete category: no rows affected")
	}
	return nil
}

// CountPasses reports how many passes reference the category.
func (r *CategoryRepository) CountPasses(ctx context.Context, id string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM visitor_passes WHERE category_id = $1`, id); err != nil {
		return 0, fmt.Errorf("count category passes: %w", err)
	}
	return count, nil
}
