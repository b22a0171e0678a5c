// Package localstore is a directory-backed implementation of the
// assets.Store collaborator, used by the command line tools.
package localstore

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Store keeps files under a root directory.  Paths handed in and out
// are slash-separated and relative to the root.
type Store struct {
	root string
}

// New makes a Store rooted at dir
func New(dir string) *Store {
	return &Store{root: dir}
}

// fullPath maps a store-relative slash path to an OS path
func (s *Store) fullPath(p string) string {
	return filepath.Join(s.root, filepath.FromSlash(p))
}

// CreateBinary writes data to p, creating parent directories
func (s *Store) CreateBinary(p string, data []byte) error {
	full := s.fullPath(p)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return errors.Wrap(err, "couldn't create parent directory")
	}
	return os.WriteFile(full, data, 0o644)
}

// AvailablePath returns a path for name inside the hint folder that
// doesn't collide with an existing file, suffixing " 1", " 2", ...
// before the extension until a free one is found.
func (s *Store) AvailablePath(name, hint string) (string, error) {
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := path.Join(hint, name)
	for i := 1; ; i++ {
		_, err := os.Stat(s.fullPath(candidate))
		if os.IsNotExist(err) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = path.Join(hint, fmt.Sprintf("%s %d%s", stem, i, ext))
	}
}
