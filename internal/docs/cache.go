package docs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// CrateCachePath is where the rustdoc JSON for name@version is cached in dir.
func CrateCachePath(dir, name, version string) string {
	return filepath.Join(dir, name+"_"+version+".json.zst")
}

// SaveCrateCache compresses and saves rustdoc JSON bytes to disk.
func SaveCrateCache(dir string, data []byte, name, version string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating json cache dir: %w", err)
	}

	f, err := os.Create(CrateCachePath(dir, name, version))
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	defer f.Close()

	w, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("writing compressed data: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing zstd writer: %w", err)
	}
	return nil
}

// LoadCrateCache loads and decompresses cached rustdoc JSON from disk.
func LoadCrateCache(dir, name, version string) ([]byte, error) {
	return ReadJSONFile(CrateCachePath(dir, name, version))
}

// HasCrateCache checks whether a cached rustdoc JSON file exists on disk.
func HasCrateCache(dir, name, version string) bool {
	_, err := os.Stat(CrateCachePath(dir, name, version))
	return err == nil
}

// ReadJSONFile reads a rustdoc JSON file, decompressing it when the name ends
// in .zst.
func ReadJSONFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if !strings.HasSuffix(path, ".zst") {
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		return data, nil
	}

	r, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("creating zstd reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", path, err)
	}
	return data, nil
}

// RemoveCrateCache deletes every cached version of name from dir and
// returns how many files were removed. Crates whose names merely start with
// name are left alone.
func RemoveCrateCache(dir, name string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, name+"_*.json.zst"))
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, path := range matches {
		version := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), name+"_"), ".json.zst")
		if version == "" || version[0] < '0' || version[0] > '9' {
			continue
		}
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("removing %s: %w", path, err)
		}
		removed++
	}
	return removed, nil
}
