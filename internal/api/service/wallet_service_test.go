package service

import (
	"context"
	"ctchen222/bookshelf/internal/api/repository"
	"ctchen222/bookshelf/internal/api/repository/mocks"
	"ctchen222/bookshelf/internal/events"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestBuyTokens(t *testing.T) {
	env := newTestEnv(t)
	account := env.newAccount(t, 0)

	balance, err := env.wallet.BuyTokens(context.Background(), account)
	require.NoError(t, err)
	assert.Equal(t, TokenPackSize, balance)

	balance, err = env.wallet.BuyTokens(context.Background(), account)
	require.NoError(t, err)
	assert.Equal(t, 2*TokenPackSize, balance)
	assert.Equal(t, 2*TokenPackSize, env.balance(t, account))
	assert.Contains(t, env.publisher.Events(), events.TypeTokensCredited)
}

func TestBuyTokens_ThenDownload(t *testing.T) {
	env := newTestEnv(t)
	account := env.newAccount(t, 0)

	_, err := env.catalog.Download(context.Background(), account, env.premiumID)
	require.ErrorIs(t, err, ErrInsufficientBalance)

	_, err = env.wallet.BuyTokens(context.Background(), account)
	require.NoError(t, err)

	d, err := env.catalog.Download(context.Background(), account, env.premiumID)
	require.NoError(t, err)
	readAll(t, d)
	assert.Equal(t, int64(80), env.balance(t, account))
}

func TestBuyTokens_UnknownAccount(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.wallet.BuyTokens(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "User not found", PublicMessage(err))
}

func TestBuyTokens_StoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	accounts := mocks.NewMockAccountRepository(ctrl)
	accounts.EXPECT().Credit(gomock.Any(), "acc", TokenPackSize).Return(int64(0), errors.New("database is locked"))

	_, err := NewWalletService(accounts, events.NewNoopPublisher()).BuyTokens(context.Background(), "acc")
	assert.ErrorIs(t, err, ErrInternal)
	assert.Equal(t, "Token purchase failed", PublicMessage(err))
}

func TestBuyTokens_NotFoundFromStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	accounts := mocks.NewMockAccountRepository(ctrl)
	accounts.EXPECT().Credit(gomock.Any(), "acc", TokenPackSize).Return(int64(0), repository.ErrNotFound)

	_, err := NewWalletService(accounts, events.NewNoopPublisher()).BuyTokens(context.Background(), "acc")
	assert.ErrorIs(t, err, ErrNotFound)
}
