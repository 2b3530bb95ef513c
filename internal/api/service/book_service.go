package service

import (
	"context"
	"ctchen222/bookshelf/internal/api/models"
	"ctchen222/bookshelf/internal/api/repository"
	"ctchen222/bookshelf/internal/events"
	"ctchen222/bookshelf/internal/library"
	"errors"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DownloadCost is the number of tokens charged per premium download.
const DownloadCost int64 = 20

// Download is a premium file ready to be streamed. The caller must close
// Content.
type Download struct {
	Filename string
	Size     int64
	Balance  int64
	Content  io.ReadCloser
}

// BookService lists the catalog and delivers premium files.
type BookService interface {
	ListBooks(ctx context.Context) ([]models.BookSummary, error)
	Download(ctx context.Context, accountID, bookID string) (*Download, error)
}

type bookService struct {
	books     repository.BookRepository
	cache     repository.BookCache
	accounts  repository.AccountRepository
	library   *library.Library
	publisher events.Publisher
}

// NewBookService creates a new BookService.
func NewBookService(
	books repository.BookRepository,
	cache repository.BookCache,
	accounts repository.AccountRepository,
	lib *library.Library,
	publisher events.Publisher,
) BookService {
	return &bookService{
		books:     books,
		cache:     cache,
		accounts:  accounts,
		library:   lib,
		publisher: publisher,
	}
}

// ListBooks returns the public projection of every catalog entry.
func (s *bookService) ListBooks(ctx context.Context) ([]models.BookSummary, error) {
	ctx, span := tracer.Start(ctx, "BookService.ListBooks")
	defer span.End()

	cached, ok, err := s.cache.Get(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Catalog cache read failed", "error", err)
	}
	if ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	}

	books, err := s.books.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		return nil, internalError("Failed to load books", err)
	}

	summaries := make([]models.BookSummary, 0, len(books))
	for i := range books {
		summaries = append(summaries, books[i].Summary())
	}

	if err := s.cache.Set(ctx, summaries); err != nil {
		slog.WarnContext(ctx, "Catalog cache write failed", "error", err)
	}
	return summaries, nil
}

// Download charges the account DownloadCost tokens and opens the book's
// file. The debit is committed before the file is opened: a missing file
// or a failed transfer after this point does not refund the tokens, and
// every call is charged again.
func (s *bookService) Download(ctx context.Context, accountID, bookID string) (*Download, error) {
	ctx, span := tracer.Start(ctx, "BookService.Download")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID), attribute.String("book.id", bookID))

	book, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		span.RecordError(err)
		recordDownload(ctx, "error")
		return nil, internalError("Error downloading PDF", err)
	}
	if book == nil || !book.Downloadable() {
		recordDownload(ctx, "not_available")
		return nil, newError(ErrNotFound, "Book not available as PDF")
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		span.RecordError(err)
		recordDownload(ctx, "error")
		return nil, internalError("Error downloading PDF", err)
	}
	if account == nil {
		recordDownload(ctx, "no_account")
		return nil, newError(ErrNotFound, "User not found")
	}
	if account.TokenBalance < DownloadCost {
		recordDownload(ctx, "insufficient_balance")
		return nil, newError(ErrInsufficientBalance, "Not enough tokens")
	}

	balance, err := s.accounts.Debit(ctx, accountID, DownloadCost)
	switch {
	case errors.Is(err, repository.ErrInsufficientBalance):
		// A concurrent download spent the balance after the check above.
		recordDownload(ctx, "insufficient_balance")
		return nil, newError(ErrInsufficientBalance, "Not enough tokens")
	case errors.Is(err, repository.ErrNotFound):
		recordDownload(ctx, "no_account")
		return nil, newError(ErrNotFound, "User not found")
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "debit failed")
		recordDownload(ctx, "error")
		return nil, internalError("Error downloading PDF", err)
	}
	span.SetAttributes(attribute.Int64("account.balance", balance))

	f, size, err := s.library.Open(book.FileRef.String)
	if err != nil {
		if errors.Is(err, library.ErrMissing) {
			slog.WarnContext(ctx, "Premium file missing after debit",
				"account.id", accountID, "book.id", bookID, "file", book.FileRef.String)
			recordDownload(ctx, "file_missing")
			return nil, newError(ErrNotFound, "PDF file missing on server")
		}
		span.RecordError(err)
		recordDownload(ctx, "error")
		return nil, internalError("Error downloading PDF", err)
	}

	recordDownload(ctx, "delivered")
	if err := s.publisher.Publish(ctx, events.TypeBookDownloaded, events.BookDownloadedPayload{
		AccountID: accountID,
		BookID:    bookID,
		Cost:      DownloadCost,
		Balance:   balance,
	}); err != nil {
		slog.WarnContext(ctx, "Failed to publish download event", "account.id", accountID, "error", err)
	}

	return &Download{
		Filename: SanitizeFilename(book.Title) + ".pdf",
		Size:     size,
		Balance:  balance,
		Content:  f,
	}, nil
}

var unsafeFilenameChars = strings.NewReplacer(
	"/", "_", `\`, "_", "?", "_", "%", "_", "*", "_",
	":", "_", "|", "_", `"`, "_", "<", "_", ">", "_",
)

// SanitizeFilename replaces characters that are unsafe in a download file
// name with underscores.
func SanitizeFilename(title string) string {
	return unsafeFilenameChars.Replace(title)
}
