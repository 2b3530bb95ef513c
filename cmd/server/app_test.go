package main

import (
	"context"
	"ctchen222/bookshelf/internal/config"
	"ctchen222/bookshelf/internal/seed"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewApp_ServesSeededCatalog(t *testing.T) {
	cfg := config.Default()
	cfg.JWTSecret = "app-test-secret"
	cfg.DatabasePath = filepath.Join(t.TempDir(), "app.db")
	cfg.PremiumDir = t.TempDir()
	cfg.WebDir = t.TempDir()
	require.NoError(t, cfg.Validate())

	a, err := newApp(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close(context.Background())

	n, err := seed.Run(context.Background(), a.books, a.cache)
	require.NoError(t, err)
	assert.Positive(t, n)

	h := a.newServer().Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/books", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"isPremium":true`)
}

func TestNewApp_RejectsBadLogLevel(t *testing.T) {
	cfg := config.Default()
	cfg.DatabasePath = filepath.Join(t.TempDir(), "app.db")
	cfg.LogLevel = "loud"

	_, err := newApp(context.Background(), cfg)
	assert.Error(t, err)
}
