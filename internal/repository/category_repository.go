package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eduflow/certflow/internal/domain"
)

// CategoryRepository reads policy data (ActivityCategory), pre-seeded and
// never written by the pipeline itself.
type CategoryRepository struct {
	DB *sql.DB
}

func NewCategoryRepository(database *sql.DB) *CategoryRepository {
	return &CategoryRepository{DB: database}
}

const categoryColumns = `id, name, description, calculation_type, hours_awarded, input_unit,
	input_quantity, output_hours, max_total_hours, created_at, updated_at`

func scanCategory(row interface {
	Scan(dest ...interface{}) error
}) (*domain.ActivityCategory, error) {
	var c domain.ActivityCategory
	var calcType string
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &calcType, &c.HoursAwarded, &c.InputUnit,
		&c.InputQuantity, &c.OutputHours, &c.MaxTotalHours, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.CalculationType = domain.CalculationType(calcType)
	return &c, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*domain.ActivityCategory, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM activity_categories WHERE id = $1`, id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCategoryNotFound
	} else if err != nil {
		return nil, fmt.Errorf("loading category %d: %w", id, err)
	}
	return c, nil
}

// Exists is the cheap form used by the review service when validating an
// override category id (original_source/routes/coordinator.py uses
// session.get(...) for the same purpose).
func (r *CategoryRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM activity_categories WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking category %d existence: %w", id, err)
	}
	return exists, nil
}

// ListAll returns every category, used by the metadata stage worker (C10)
// to render the categorization prompt's category list.
func (r *CategoryRepository) ListAll(ctx context.Context) ([]*domain.ActivityCategory, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+categoryColumns+` FROM activity_categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var out []*domain.ActivityCategory
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning category row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
