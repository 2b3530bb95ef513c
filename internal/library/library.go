// Package library resolves premium file references to files under a fixed
// root directory.
package library

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrMissing is returned when a reference does not name a regular file
// inside the root.
var ErrMissing = errors.New("file missing")

// Library opens premium files by reference. References are plain file
// names; anything that would leave the root is treated as missing.
type Library struct {
	root string
}

// New returns a Library rooted at dir. The directory does not need to exist
// yet; lookups fail with ErrMissing until it does.
func New(dir string) *Library {
	return &Library{root: dir}
}

// Root returns the directory the library reads from.
func (l *Library) Root() string {
	return l.root
}

// Open opens the file named by ref for reading, along with its size.
func (l *Library) Open(ref string) (*os.File, int64, error) {
	if ref == "" || !filepath.IsLocal(ref) {
		return nil, 0, ErrMissing
	}

	f, err := os.OpenInRoot(l.root, ref)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, ErrMissing
		}
		return nil, 0, fmt.Errorf("failed to open %s: %w", ref, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("failed to stat %s: %w", ref, err)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, 0, ErrMissing
	}
	return f, info.Size(), nil
}
