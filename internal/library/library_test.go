package library

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "book.pdf"), []byte("%PDF-1.4 body"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	lib := New(dir)

	f, size, err := lib.Open("book.pdf")
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 body", string(data))
	assert.Equal(t, int64(len(data)), size)

	tests := []struct {
		name string
		ref  string
	}{
		{name: "absent", ref: "nope.pdf"},
		{name: "empty", ref: ""},
		{name: "parent escape", ref: "../secret.pdf"},
		{name: "absolute", ref: "/etc/passwd"},
		{name: "directory", ref: "sub"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := lib.Open(tt.ref)
			assert.ErrorIs(t, err, ErrMissing)
		})
	}
}

func TestOpen_MissingRoot(t *testing.T) {
	lib := New(filepath.Join(t.TempDir(), "does-not-exist"))
	_, _, err := lib.Open("book.pdf")
	assert.ErrorIs(t, err, ErrMissing)
}
