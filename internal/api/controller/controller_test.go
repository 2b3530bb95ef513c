package controller

import (
	"context"
	"ctchen222/bookshelf/internal/api/middleware"
	"ctchen222/bookshelf/internal/api/models"
	"ctchen222/bookshelf/internal/api/service"
	"ctchen222/bookshelf/internal/auth"
	"ctchen222/bookshelf/internal/events"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuthService struct {
	service.AuthService
	registerErr error
	loginResp   *models.LoginResponse
	loginErr    error
	registered  []models.RegisterRequest
}

func (f *fakeAuthService) Register(_ context.Context, req *models.RegisterRequest) error {
	f.registered = append(f.registered, *req)
	return f.registerErr
}

func (f *fakeAuthService) Login(context.Context, *models.LoginRequest) (*models.LoginResponse, error) {
	return f.loginResp, f.loginErr
}

type fakeWalletService struct {
	balance int64
	err     error
	calls   []string
}

func (f *fakeWalletService) BuyTokens(_ context.Context, accountID string) (int64, error) {
	f.calls = append(f.calls, accountID)
	return f.balance, f.err
}

type fakeBookService struct {
	books       []models.BookSummary
	listErr     error
	download    *service.Download
	downloadErr error
}

func (f *fakeBookService) ListBooks(context.Context) ([]models.BookSummary, error) {
	return f.books, f.listErr
}

func (f *fakeBookService) Download(context.Context, string, string) (*service.Download, error) {
	return f.download, f.downloadErr
}

type testRouter struct {
	engine *gin.Engine
	token  string
}

func newRouter(t *testing.T, authSvc *fakeAuthService, wallet *fakeWalletService, books *fakeBookService) *testRouter {
	t.Helper()
	issuer := auth.NewIssuer("controller-secret", time.Hour)
	verifier := service.NewAuthService(nil, issuer, events.NewNoopPublisher())
	token, err := issuer.Issue("acc-1")
	require.NoError(t, err)

	users := NewUserController(authSvc, wallet)
	catalog := NewBookController(books)

	r := gin.New()
	r.POST("/api/register", users.Register)
	r.POST("/api/login", users.Login)
	r.GET("/api/books", catalog.ListBooks)
	r.POST("/api/buy-tokens", middleware.RequireAuth(verifier), users.BuyTokens)
	r.GET("/api/books/:id/pdf", middleware.RequireAuth(verifier), catalog.DownloadPDF)
	return &testRouter{engine: r, token: token}
}

func (tr *testRouter) do(method, path, body string, authorized bool) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authorized {
		req.Header.Set("Authorization", tr.token)
	}
	w := httptest.NewRecorder()
	tr.engine.ServeHTTP(w, req)
	return w
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		msg    string
	}{
		{name: "created", body: `{"username":"alice","password":"secret1"}`, status: http.StatusCreated, msg: "Registered! Please login."},
		{name: "malformed", body: `{"username":`, status: http.StatusBadRequest, msg: "Invalid input"},
		{
			name: "conflict", body: `{"username":"alice","password":"secret1"}`,
			err:    &service.Error{Kind: service.ErrConflict, Message: "Username exists"},
			status: http.StatusBadRequest, msg: "Username exists",
		},
		{
			name: "internal", body: `{"username":"alice","password":"secret1"}`,
			err:    &service.Error{Kind: service.ErrInternal, Message: "Registration failed", Cause: errors.New("disk")},
			status: http.StatusInternalServerError, msg: "Registration failed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authSvc := &fakeAuthService{registerErr: tt.err}
			tr := newRouter(t, authSvc, &fakeWalletService{}, &fakeBookService{})

			w := tr.do(http.MethodPost, "/api/register", tt.body, false)
			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, `{"msg":"`+tt.msg+`"}`, w.Body.String())
		})
	}
}

func TestLogin(t *testing.T) {
	authSvc := &fakeAuthService{loginResp: &models.LoginResponse{Token: "tok", Username: "alice", TokenBalance: 40}}
	tr := newRouter(t, authSvc, &fakeWalletService{}, &fakeBookService{})

	w := tr.do(http.MethodPost, "/api/login", `{"username":"alice","password":"secret1"}`, false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"token":"tok","username":"alice","tokenBalance":40}`, w.Body.String())

	w = tr.do(http.MethodPost, "/api/login", `{"username":"alice"}`, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_BadCredentialsIs400(t *testing.T) {
	authSvc := &fakeAuthService{loginErr: &service.Error{Kind: service.ErrAuth, Message: "Invalid credentials"}}
	tr := newRouter(t, authSvc, &fakeWalletService{}, &fakeBookService{})

	w := tr.do(http.MethodPost, "/api/login", `{"username":"alice","password":"nope"}`, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"msg":"Invalid credentials"}`, w.Body.String())
}

func TestBuyTokens(t *testing.T) {
	wallet := &fakeWalletService{balance: 100}
	tr := newRouter(t, &fakeAuthService{}, wallet, &fakeBookService{})

	w := tr.do(http.MethodPost, "/api/buy-tokens", "", false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, wallet.calls)

	w = tr.do(http.MethodPost, "/api/buy-tokens", "", true)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"tokenBalance":100}`, w.Body.String())
	assert.Equal(t, []string{"acc-1"}, wallet.calls)
}

func TestBuyTokens_UnknownAccount(t *testing.T) {
	wallet := &fakeWalletService{err: &service.Error{Kind: service.ErrNotFound, Message: "User not found"}}
	tr := newRouter(t, &fakeAuthService{}, wallet, &fakeBookService{})

	w := tr.do(http.MethodPost, "/api/buy-tokens", "", true)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"msg":"User not found"}`, w.Body.String())
}

func TestListBooks(t *testing.T) {
	books := &fakeBookService{books: []models.BookSummary{
		{ID: "b1", Title: "Dune", Author: "Frank Herbert", IsPremium: true, PreviewContent: "Spice."},
	}}
	tr := newRouter(t, &fakeAuthService{}, &fakeWalletService{}, books)

	w := tr.do(http.MethodGet, "/api/books", "", false)
	require.Equal(t, http.StatusOK, w.Code)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "b1", got[0]["id"])
	assert.Equal(t, true, got[0]["isPremium"])
	assert.Equal(t, "Spice.", got[0]["previewContent"])
}

func TestListBooks_Failure(t *testing.T) {
	books := &fakeBookService{listErr: &service.Error{Kind: service.ErrInternal, Message: "Failed to load books"}}
	tr := newRouter(t, &fakeAuthService{}, &fakeWalletService{}, books)

	w := tr.do(http.MethodGet, "/api/books", "", false)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"msg":"Failed to load books"}`, w.Body.String())
}

func TestDownloadPDF(t *testing.T) {
	const content = "%PDF-1.4 body"
	books := &fakeBookService{download: &service.Download{
		Filename: "Dune_ Part One.pdf",
		Size:     int64(len(content)),
		Balance:  20,
		Content:  io.NopCloser(strings.NewReader(content)),
	}}
	tr := newRouter(t, &fakeAuthService{}, &fakeWalletService{}, books)

	w := tr.do(http.MethodGet, "/api/books/b1/pdf", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Dune_ Part One.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, content, w.Body.String())
}

func TestDownloadPDF_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "insufficient", err: &service.Error{Kind: service.ErrInsufficientBalance, Message: "Not enough tokens"}, status: http.StatusForbidden},
		{name: "not available", err: &service.Error{Kind: service.ErrNotFound, Message: "Book not available as PDF"}, status: http.StatusNotFound},
		{name: "internal", err: &service.Error{Kind: service.ErrInternal, Message: "Error downloading PDF"}, status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newRouter(t, &fakeAuthService{}, &fakeWalletService{}, &fakeBookService{downloadErr: tt.err})

			w := tr.do(http.MethodGet, "/api/books/b1/pdf", "", true)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), `"msg"`)
		})
	}
}

func TestDownloadPDF_RequiresToken(t *testing.T) {
	tr := newRouter(t, &fakeAuthService{}, &fakeWalletService{}, &fakeBookService{})

	w := tr.do(http.MethodGet, "/api/books/b1/pdf", "", false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"msg":"No token provided"}`, w.Body.String())
}
