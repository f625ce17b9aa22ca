package cas

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// Store is a content-addressable directory of zstd-compressed blobs.
type Store struct {
	dir string
}

// New returns a CAS rooted at dir. The directory is created on first write.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the CAS directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Hash returns the address content would be stored under.
func Hash(content []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(content))
}

// path returns the sharded file path for a hash: <dir>/<first2>/<rest>.json.zst
func (s *Store) path(hash string) string {
	return filepath.Join(s.dir, hash[:2], hash[2:]+".json.zst")
}

// Write stores content, returning its SHA-256 hash.
// If the content already exists, this is a no-op.
func (s *Store) Write(content []byte) (string, error) {
	hash := Hash(content)

	p := s.path(hash)
	if _, err := os.Stat(p); err == nil {
		return hash, nil
	}

	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return "", fmt.Errorf("creating CAS directory %s: %w", filepath.Dir(p), err)
	}

	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf)
	if err != nil {
		return "", fmt.Errorf("creating zstd writer: %w", err)
	}
	if _, err := w.Write(content); err != nil {
		w.Close()
		return "", fmt.Errorf("compressing CAS content: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("closing zstd writer: %w", err)
	}

	if err := os.WriteFile(p, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("writing CAS file %s: %w", p, err)
	}

	return hash, nil
}

// Read retrieves content by hash.
func (s *Store) Read(hash string) ([]byte, error) {
	if len(hash) < 3 {
		return nil, fmt.Errorf("invalid CAS hash %q", hash)
	}
	f, err := os.Open(s.path(hash))
	if err != nil {
		return nil, fmt.Errorf("reading CAS file %s: %w", hash, err)
	}
	defer f.Close()

	r, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("creating zstd reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompressing CAS file %s: %w", hash, err)
	}
	return data, nil
}
