package repository

import (
	"context"
	"ctchen222/bookshelf/internal/api/models"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
)

const bookColumns = `id, title, author, genre, cover_image, is_premium, preview_content, file_ref`

//go:generate mockgen -source=book_repository.go -destination=mocks/book_repository_mock.go -package=mocks

// BookRepository defines the interface for catalog data operations.
type BookRepository interface {
	List(ctx context.Context) ([]models.Book, error)
	GetByID(ctx context.Context, id string) (*models.Book, error)
	Count(ctx context.Context) (int, error)
	SeedIfEmpty(ctx context.Context, books []models.Book) (int, error)
}

type sqliteBookRepository struct {
	db *sqlx.DB
}

// NewBookRepository creates a new SQLite-based BookRepository.
func NewBookRepository(db *sqlx.DB) BookRepository {
	return &sqliteBookRepository{db: db}
}

// List returns every catalog entry in seed order.
func (r *sqliteBookRepository) List(ctx context.Context) ([]models.Book, error) {
	ctx, span := tracer.Start(ctx, "BookRepository.List")
	defer span.End()

	books := []models.Book{}
	query := `SELECT ` + bookColumns + ` FROM books ORDER BY seq, id`
	if err := r.db.SelectContext(ctx, &books, query); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return books, nil
}

// GetByID retrieves a catalog entry. A missing entry is reported as
// (nil, nil).
func (r *sqliteBookRepository) GetByID(ctx context.Context, id string) (*models.Book, error) {
	ctx, span := tracer.Start(ctx, "BookRepository.GetByID")
	defer span.End()
	span.SetAttributes(attribute.String("book.id", id))

	var book models.Book
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = ?`
	if err := r.db.GetContext(ctx, &book, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get book by id: %w", err)
	}
	return &book, nil
}

// Count returns the number of catalog entries.
func (r *sqliteBookRepository) Count(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "BookRepository.Count")
	defer span.End()

	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM books`); err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count books: %w", err)
	}
	return n, nil
}

// SeedIfEmpty inserts books only when the catalog holds no entries, and
// returns how many were inserted. Count and inserts share one transaction.
func (r *sqliteBookRepository) SeedIfEmpty(ctx context.Context, books []models.Book) (int, error) {
	ctx, span := tracer.Start(ctx, "BookRepository.SeedIfEmpty")
	defer span.End()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	var n int
	if err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM books`); err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count books: %w", err)
	}
	if n != 0 {
		return 0, nil
	}

	query := `INSERT INTO books (` + bookColumns + `, seq) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for i, b := range books {
		_, err := tx.ExecContext(ctx, query,
			b.ID, b.Title, b.Author, b.Genre, b.CoverImage, b.IsPremium, b.PreviewContent, b.FileRef, i)
		if err != nil {
			span.RecordError(err)
			return 0, fmt.Errorf("failed to insert book %q: %w", b.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit seed transaction: %w", err)
	}
	span.SetAttributes(attribute.Int("books.inserted", len(books)))
	return len(books), nil
}
