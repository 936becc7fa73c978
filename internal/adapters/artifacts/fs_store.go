// Package artifacts stores voucher barcode images on the local filesystem.
// References are paths relative to the configured root, so the whole
// directory can be moved or mounted elsewhere without rewriting the ledger.
package artifacts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	portssvc "github.com/vouchly/voucher_ledger/internal/core/ports/services"
)

type FSStore struct {
	root string
}

// NewFSStore creates a filesystem artifact store rooted at dir, creating the
// directory if needed.
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir %q: %w", dir, err)
	}
	return &FSStore{root: dir}, nil
}

var _ portssvc.ArtifactStore = (*FSStore)(nil)

// Save writes the artifact and returns its root-relative reference.
func (s *FSStore) Save(_ context.Context, name string, data []byte) (string, error) {
	ref := sanitize(name)
	if ref == "" {
		return "", fmt.Errorf("empty artifact name")
	}
	if err := os.WriteFile(filepath.Join(s.root, ref), data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact %q: %w", ref, err)
	}
	return ref, nil
}

// Open resolves a reference back to bytes, refusing to escape the root.
func (s *FSStore) Open(_ context.Context, ref string) ([]byte, error) {
	clean := sanitize(ref)
	if clean == "" || clean != ref {
		return nil, fmt.Errorf("invalid artifact ref %q", ref)
	}
	data, err := os.ReadFile(filepath.Join(s.root, clean))
	if err != nil {
		return nil, fmt.Errorf("read artifact %q: %w", ref, err)
	}
	return data, nil
}

// sanitize reduces a name to a bare filename: no separators, no traversal.
func sanitize(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == string(filepath.Separator) || strings.HasPrefix(name, "..") {
		return ""
	}
	return name
}
