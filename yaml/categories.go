// Package yaml loads the category configuration. The category set is a
// fixed enumeration maintained as configuration, not code; it is loaded
// at startup and seeded into the catalog's category table.
package yaml

import (
	"fmt"
	"os"

	"github.com/fwojciec/plandok"
	"gopkg.in/yaml.v3"
)

// categoriesFile mirrors the on-disk configuration layout.
type categoriesFile struct {
	Categories []categoryEntry `yaml:"categories"`
}

type categoryEntry struct {
	Name         string `yaml:"name"`
	Description  string `yaml:"description"`
	DisplayOrder int    `yaml:"displayOrder"`
}

// LoadCategories reads the category enumeration from a YAML file.
// Entries without an explicit display order keep their file position.
func LoadCategories(path string) ([]plandok.Category, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read categories file: %w", err)
	}
	return ParseCategories(data)
}

// ParseCategories parses the category enumeration from YAML bytes.
func ParseCategories(data []byte) ([]plandok.Category, error) {
	var file categoriesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse categories file: %w", err)
	}
	if len(file.Categories) == 0 {
		return nil, plandok.Errorf(plandok.EINVALID, "categories file defines no categories")
	}

	categories := make([]plandok.Category, 0, len(file.Categories))
	for i, entry := range file.Categories {
		if entry.Name == "" {
			return nil, plandok.Errorf(plandok.EINVALID, "category at position %d has no name", i+1)
		}
		order := entry.DisplayOrder
		if order == 0 {
			order = i + 1
		}
		categories = append(categories, plandok.Category{
			Name:         entry.Name,
			Description:  entry.Description,
			DisplayOrder: order,
		})
	}

	return categories, nil
}
