package service

import (
	"context"
	"ctchen222/bookshelf/internal/api/models"
	"ctchen222/bookshelf/internal/api/repository"
	"ctchen222/bookshelf/internal/auth"
	"ctchen222/bookshelf/internal/db"
	"ctchen222/bookshelf/internal/db/migrations"
	"ctchen222/bookshelf/internal/library"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPDF = "%PDF-1.4\nfake premium content\n%%EOF\n"

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	return nil
}

func (p *recordingPublisher) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

type testEnv struct {
	accounts  repository.AccountRepository
	books     repository.BookRepository
	auth      AuthService
	catalog   BookService
	wallet    WalletService
	publisher *recordingPublisher
	fileDir   string

	premiumID   string
	noFileID    string
	missingID   string
	previewID   string
	premiumName string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	pool, err := db.Connect(t.Context(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	require.NoError(t, migrations.MigrateUp(pool.DB))

	fileDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(fileDir, "premium.pdf"), []byte(testPDF), 0o644))

	env := &testEnv{
		accounts:    repository.NewAccountRepository(pool),
		books:       repository.NewBookRepository(pool),
		publisher:   &recordingPublisher{},
		fileDir:     fileDir,
		premiumID:   uuid.NewString(),
		noFileID:    uuid.NewString(),
		missingID:   uuid.NewString(),
		previewID:   uuid.NewString(),
		premiumName: `Who: Why? A "Guide" <1/2>`,
	}

	_, err = env.books.SeedIfEmpty(context.Background(), []models.Book{
		{
			ID: env.premiumID, Title: env.premiumName, Author: "Author", IsPremium: true,
			PreviewContent: "preview", FileRef: sql.NullString{String: "premium.pdf", Valid: true},
		},
		{
			ID: env.noFileID, Title: "Premium Without File", Author: "Author", IsPremium: true,
			PreviewContent: "preview",
		},
		{
			ID: env.missingID, Title: "Premium With Missing File", Author: "Author", IsPremium: true,
			PreviewContent: "preview", FileRef: sql.NullString{String: "gone.pdf", Valid: true},
		},
		{
			ID: env.previewID, Title: "Preview Only", Author: "Author",
			Genre: sql.NullString{String: "Fantasy", Valid: true}, PreviewContent: "preview",
		},
	})
	require.NoError(t, err)

	authSvc := NewAuthService(env.accounts, auth.NewIssuer("test-secret", 24*time.Hour), env.publisher)
	authSvc.(*authService).hashCost = bcrypt.MinCost
	env.auth = authSvc
	env.catalog = NewBookService(env.books, repository.NewNoopBookCache(), env.accounts, library.New(fileDir), env.publisher)
	env.wallet = NewWalletService(env.accounts, env.publisher)
	return env
}

// newAccount stores an account with the given balance and returns its id.
func (e *testEnv) newAccount(t *testing.T, balance int64) string {
	t.Helper()
	id := uuid.NewString()
	require.NoError(t, e.accounts.Create(context.Background(), &models.Account{
		ID:           id,
		Username:     "user-" + id[:8],
		PasswordHash: "unused",
		TokenBalance: balance,
		CreatedAt:    time.Now().UTC(),
	}))
	return id
}

func (e *testEnv) balance(t *testing.T, id string) int64 {
	t.Helper()
	acc, err := e.accounts.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, acc)
	return acc.TokenBalance
}
