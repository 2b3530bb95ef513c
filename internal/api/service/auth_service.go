package service

import (
	"context"
	"ctchen222/bookshelf/internal/api/models"
	"ctchen222/bookshelf/internal/api/repository"
	"ctchen222/bookshelf/internal/auth"
	"ctchen222/bookshelf/internal/events"
	"ctchen222/bookshelf/internal/validator"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/crypto/bcrypt"
)

// AuthService registers accounts, checks credentials and verifies session
// tokens.
type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) error
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	Verify(ctx context.Context, token string) (string, error)
}

type authService struct {
	accounts  repository.AccountRepository
	issuer    *auth.Issuer
	publisher events.Publisher
	hashCost  int
}

// NewAuthService creates a new AuthService.
func NewAuthService(accounts repository.AccountRepository, issuer *auth.Issuer, publisher events.Publisher) AuthService {
	return &authService{
		accounts:  accounts,
		issuer:    issuer,
		publisher: publisher,
		hashCost:  bcrypt.DefaultCost,
	}
}

// Register validates the credentials and stores a new account with an
// empty wallet.
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) error {
	ctx, span := tracer.Start(ctx, "AuthService.Register")
	defer span.End()

	if err := validator.Struct(req); err != nil {
		return newError(ErrValidation, "Invalid input: "+err.Error())
	}

	existing, err := s.accounts.GetByUsername(ctx, req.Username)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return internalError("Registration failed", err)
	}
	if existing != nil {
		return newError(ErrConflict, "Username exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return newError(ErrValidation, "Invalid input: password must be at most 72 bytes")
		}
		return internalError("Registration failed", err)
	}

	account := &models.Account{
		ID:           uuid.NewString(),
		Username:     req.Username,
		PasswordHash: string(hash),
		TokenBalance: 0,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		// Lost a race with a concurrent registration of the same name.
		if errors.Is(err, repository.ErrDuplicate) {
			return newError(ErrConflict, "Username exists")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return internalError("Registration failed", err)
	}

	registrationCounter.Add(ctx, 1)
	slog.InfoContext(ctx, "Account registered", "account.id", account.ID, "account.username", account.Username)
	if err := s.publisher.Publish(ctx, events.TypeAccountRegistered, events.AccountRegisteredPayload{
		AccountID: account.ID,
		Username:  account.Username,
	}); err != nil {
		slog.WarnContext(ctx, "Failed to publish registration event", "account.id", account.ID, "error", err)
	}
	return nil
}

// Login checks the credentials and returns a session token valid for the
// issuer's lifetime.
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	ctx, span := tracer.Start(ctx, "AuthService.Login")
	defer span.End()

	account, err := s.accounts.GetByUsername(ctx, req.Username)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return nil, internalError("Login failed", err)
	}
	if account == nil {
		// Spend the same bcrypt work as a real comparison so response time
		// does not reveal whether the username exists.
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(req.Password))
		return nil, newError(ErrAuth, "Invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return nil, newError(ErrAuth, "Invalid credentials")
	}

	token, err := s.issuer.Issue(account.ID)
	if err != nil {
		span.RecordError(err)
		return nil, internalError("Login failed", err)
	}

	return &models.LoginResponse{
		Token:        token,
		Username:     account.Username,
		TokenBalance: account.TokenBalance,
	}, nil
}

// Verify returns the account id bound to token.
func (s *authService) Verify(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", newError(ErrAuth, "No token provided")
	}
	accountID, err := s.issuer.Verify(token)
	if err != nil {
		return "", newError(ErrAuth, "Invalid token")
	}
	return accountID, nil
}

var (
	dummyHashOnce sync.Once
	dummyHashVal  []byte
)

func dummyHash() []byte {
	dummyHashOnce.Do(func() {
		dummyHashVal, _ = bcrypt.GenerateFromPassword([]byte("bookshelf-dummy-password"), bcrypt.DefaultCost)
	})
	return dummyHashVal
}
