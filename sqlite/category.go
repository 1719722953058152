package sqlite

import (
	"context"

	"github.com/fwojciec/plandok"
)

// Compile-time interface verification.
var _ plandok.CategoryService = (*CategoryService)(nil)

// CategoryService implements plandok.CategoryService using SQLite.
type CategoryService struct {
	db *DB
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(db *DB) *CategoryService {
	return &CategoryService{db: db}
}

// Seed upserts the given categories by name. Re-seeding with an updated
// configuration adjusts descriptions and display order in place.
func (s *CategoryService) Seed(ctx context.Context, categories []plandok.Category) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, c := range categories {
		if err := c.Validate(); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO categories (name, description, display_order)
			VALUES (?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET
				description = excluded.description,
				display_order = excluded.display_order
		`, c.Name, c.Description, c.DisplayOrder); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// List retrieves all categories ordered by display order, then name.
func (s *CategoryService) List(ctx context.Context) ([]plandok.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, description, display_order
		FROM categories
		ORDER BY display_order ASC, name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []plandok.Category
	for rows.Next() {
		var c plandok.Category
		if err := rows.Scan(&c.Name, &c.Description, &c.DisplayOrder); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}

	return categories, rows.Err()
}
