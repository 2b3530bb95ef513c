package repository

import (
	"context"
	"ctchen222/bookshelf/internal/api/models"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("repository")

//go:generate mockgen -source=account_repository.go -destination=mocks/account_repository_mock.go -package=mocks

// AccountRepository defines the interface for account data operations.
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	Credit(ctx context.Context, id string, amount int64) (int64, error)
	Debit(ctx context.Context, id string, amount int64) (int64, error)
}

type sqliteAccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository creates a new SQLite-based AccountRepository.
func NewAccountRepository(db *sqlx.DB) AccountRepository {
	return &sqliteAccountRepository{db: db}
}

// Create inserts a new account. The password must already be hashed.
func (r *sqliteAccountRepository) Create(ctx context.Context, account *models.Account) error {
	ctx, span := tracer.Start(ctx, "AccountRepository.Create")
	defer span.End()

	query := `INSERT INTO accounts (id, username, password_hash, token_balance, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		account.ID, account.Username, account.PasswordHash, account.TokenBalance, account.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		span.RecordError(err)
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetByUsername retrieves an account by username. A missing account is
// reported as (nil, nil).
func (r *sqliteAccountRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	ctx, span := tracer.Start(ctx, "AccountRepository.GetByUsername")
	defer span.End()

	var account models.Account
	query := `SELECT id, username, password_hash, token_balance, created_at FROM accounts WHERE username = ?`
	if err := r.db.GetContext(ctx, &account, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get account by username: %w", err)
	}
	return &account, nil
}

// GetByID retrieves an account by id. A missing account is reported as
// (nil, nil).
func (r *sqliteAccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	ctx, span := tracer.Start(ctx, "AccountRepository.GetByID")
	defer span.End()

	var account models.Account
	query := `SELECT id, username, password_hash, token_balance, created_at FROM accounts WHERE id = ?`
	if err := r.db.GetContext(ctx, &account, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get account by id: %w", err)
	}
	return &account, nil
}

// Credit adds amount to the account balance and returns the new balance.
func (r *sqliteAccountRepository) Credit(ctx context.Context, id string, amount int64) (int64, error) {
	ctx, span := tracer.Start(ctx, "AccountRepository.Credit")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", id), attribute.Int64("amount", amount))

	var balance int64
	query := `UPDATE accounts SET token_balance = token_balance + ? WHERE id = ? RETURNING token_balance`
	if err := r.db.GetContext(ctx, &balance, query, amount, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		span.RecordError(err)
		return 0, fmt.Errorf("failed to credit account: %w", err)
	}
	return balance, nil
}

// Debit subtracts amount from the account balance only if the balance
// covers it, in a single statement, and returns the new balance. Check and
// write cannot interleave with another debit on the same account.
func (r *sqliteAccountRepository) Debit(ctx context.Context, id string, amount int64) (int64, error) {
	ctx, span := tracer.Start(ctx, "AccountRepository.Debit")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", id), attribute.Int64("amount", amount))

	var balance int64
	query := `UPDATE accounts SET token_balance = token_balance - ? WHERE id = ? AND token_balance >= ? RETURNING token_balance`
	err := r.db.GetContext(ctx, &balance, query, amount, id, amount)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to debit account: %w", err)
	}

	// No row matched: tell a missing account apart from a short balance.
	var exists int
	err = r.db.GetContext(ctx, &exists, `SELECT 1 FROM accounts WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to look up account after debit: %w", err)
	}
	return 0, ErrInsufficientBalance
}
