// Package seed populates an empty catalog with the built-in book list.
package seed

import (
	"context"
	"ctchen222/bookshelf/internal/api/models"
	"ctchen222/bookshelf/internal/api/repository"
	_ "embed"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

//go:embed books.json
var catalogJSON []byte

type entry struct {
	Title          string `json:"title"`
	Author         string `json:"author"`
	Genre          string `json:"genre"`
	CoverImage     string `json:"coverImage"`
	IsPremium      bool   `json:"isPremium"`
	PreviewContent string `json:"previewContent"`
	File           string `json:"file"`
}

// Books decodes the built-in catalog, assigning each entry a fresh id.
func Books() ([]models.Book, error) {
	var entries []entry
	if err := json.Unmarshal(catalogJSON, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode seed catalog: %w", err)
	}

	books := make([]models.Book, 0, len(entries))
	for _, e := range entries {
		if e.File != "" && !e.IsPremium {
			return nil, fmt.Errorf("seed entry %q has a file but is not premium", e.Title)
		}
		books = append(books, models.Book{
			ID:             uuid.NewString(),
			Title:          e.Title,
			Author:         e.Author,
			Genre:          nullString(e.Genre),
			CoverImage:     nullString(e.CoverImage),
			IsPremium:      e.IsPremium,
			PreviewContent: e.PreviewContent,
			FileRef:        nullString(e.File),
		})
	}
	return books, nil
}

// Run seeds the catalog if it is empty and drops any cached listing when
// it did. It returns the number of entries inserted.
func Run(ctx context.Context, books repository.BookRepository, cache repository.BookCache) (int, error) {
	catalog, err := Books()
	if err != nil {
		return 0, err
	}

	n, err := books.SeedIfEmpty(ctx, catalog)
	if err != nil {
		return 0, fmt.Errorf("failed to seed catalog: %w", err)
	}
	if n == 0 {
		slog.InfoContext(ctx, "Catalog already populated, skipping seed")
		return 0, nil
	}

	if err := cache.Invalidate(ctx); err != nil {
		slog.WarnContext(ctx, "Failed to invalidate catalog cache after seeding", "error", err)
	}

	premium := 0
	for _, b := range catalog {
		if b.Downloadable() {
			premium++
		}
	}
	slog.InfoContext(ctx, "Seeded catalog", "books.premium", premium, "books.preview", n-premium)
	return n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
