package service

import (
	"context"
	"ctchen222/bookshelf/internal/api/repository"
	"ctchen222/bookshelf/internal/events"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// TokenPackSize is the number of tokens credited per purchase.
const TokenPackSize int64 = 100

// WalletService manages token balances.
type WalletService interface {
	BuyTokens(ctx context.Context, accountID string) (int64, error)
}

type walletService struct {
	accounts  repository.AccountRepository
	publisher events.Publisher
}

// NewWalletService creates a new WalletService.
func NewWalletService(accounts repository.AccountRepository, publisher events.Publisher) WalletService {
	return &walletService{accounts: accounts, publisher: publisher}
}

// BuyTokens credits TokenPackSize tokens and returns the new balance. No
// payment is taken.
func (s *walletService) BuyTokens(ctx context.Context, accountID string) (int64, error) {
	ctx, span := tracer.Start(ctx, "WalletService.BuyTokens")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID))

	balance, err := s.accounts.Credit(ctx, accountID, TokenPackSize)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, newError(ErrNotFound, "User not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "credit failed")
		return 0, internalError("Token purchase failed", err)
	}

	creditCounter.Add(ctx, TokenPackSize)
	if err := s.publisher.Publish(ctx, events.TypeTokensCredited, events.TokensCreditedPayload{
		AccountID: accountID,
		Amount:    TokenPackSize,
		Balance:   balance,
	}); err != nil {
		slog.WarnContext(ctx, "Failed to publish credit event", "account.id", accountID, "error", err)
	}
	return balance, nil
}
