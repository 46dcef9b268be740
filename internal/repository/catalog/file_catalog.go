package catalog

import (
	"context"
	"fmt"
	"os"

	"movieReco/domain"

	"github.com/goccy/go-json"
)

// FileCatalog reads the movie catalog from a JSON array on disk. The file is
// re-read on every Load so refreshes pick up appended movies.
type FileCatalog struct {
	path string
}

func NewFileCatalog(path string) *FileCatalog {
	return &FileCatalog{path: path}
}

func (c *FileCatalog) Path() string {
	return c.path
}

func (c *FileCatalog) Load(ctx context.Context) ([]domain.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", c.path, err)
	}

	var items []domain.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode catalog %s: %w", c.path, err)
	}

	valid := items[:0]
	for _, it := range items {
		if it.ID == 0 {
			continue
		}
		valid = append(valid, it)
	}
	return valid, nil
}
