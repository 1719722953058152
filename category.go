package plandok

import "context"

// Category represents a named document grouping with a display order.
// Documents reference categories by name, not by ownership: deleting a
// category does not touch documents.
type Category struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	DisplayOrder int    `json:"displayOrder"`
}

// Validate returns an error if the category contains invalid fields.
func (c *Category) Validate() error {
	if c.Name == "" {
		return Errorf(EINVALID, "category name required")
	}
	return nil
}

// CategoryService manages the fixed category enumeration. The set is
// configuration, loaded at startup, not hardcoded in the catalog core.
type CategoryService interface {
	// Seed upserts the given categories by name.
	Seed(ctx context.Context, categories []Category) error

	// List retrieves all categories ordered by display order.
	List(ctx context.Context) ([]Category, error)
}
