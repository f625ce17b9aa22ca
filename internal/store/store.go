// Package store indexes converted documentation by module path and persists
// it under a store directory.
//
// On disk a store is:
//
//	<path>/cache.odoc   known module paths
//	<path>/docs.odoc    manifest: module path -> object hashes
//	<path>/objects/     zstd-compressed JSON records, content addressed
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jcdickinson/oxidoc/internal/cas"
	"github.com/jcdickinson/oxidoc/internal/document"
)

const (
	// SchemaVersion is written into the cache file and the manifest. Files
	// with any other version are treated as corrupt.
	SchemaVersion = 1

	CacheFile    = "cache.odoc"
	ManifestFile = "docs.odoc"
	ObjectsDir   = "objects"

	DefaultDocCacheSize = 256
)

var (
	ErrCacheUnreadable = errors.New("cache file unreadable")
	ErrCacheCorrupt    = errors.New("cache file corrupt")
	ErrDocNotFound     = errors.New("documentation not found")
)

type cacheFile struct {
	Version  int                `json:"version"`
	Modpaths []document.ModPath `json:"modpaths"`
}

type manifestFile struct {
	Version int                           `json:"version"`
	Docs    map[document.ModPath][]string `json:"docs"`
}

// Store holds the records of one crate and the indices built over them.
type Store struct {
	Name      string
	Path      string
	Documents []document.Documentation

	mu        sync.Mutex
	modpaths  map[document.ModPath]struct{}
	functions map[document.ModPath]map[string]struct{}
	structs   map[document.ModPath]map[string]struct{}
	byPath    map[document.ModPath]int

	objects  *cas.Store
	manifest map[document.ModPath][]string
	loaded   *lru.Cache[document.ModPath, document.Documentation]
}

type options struct {
	docCacheSize int
}

// Option configures a Store.
type Option func(*options)

// WithDocCacheSize bounds how many records loaded from disk are kept in
// memory. Values below one fall back to the default.
func WithDocCacheSize(n int) Option {
	return func(o *options) {
		o.docCacheSize = n
	}
}

// New creates an empty store rooted at path. Nothing is read or written
// until LoadCache, Save or LoadDoc is called.
func New(name, path string, opts ...Option) *Store {
	o := options{docCacheSize: DefaultDocCacheSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.docCacheSize < 1 {
		o.docCacheSize = DefaultDocCacheSize
	}

	// lru.New only fails for a non-positive size.
	loaded, err := lru.New[document.ModPath, document.Documentation](o.docCacheSize)
	if err != nil {
		panic(fmt.Sprintf("store: creating record cache: %v", err))
	}

	return &Store{
		Name:      name,
		Path:      path,
		modpaths:  map[document.ModPath]struct{}{},
		functions: map[document.ModPath]map[string]struct{}{},
		structs:   map[document.ModPath]map[string]struct{}{},
		byPath:    map[document.ModPath]int{},
		objects:   cas.New(filepath.Join(path, ObjectsDir)),
		loaded:    loaded,
	}
}

// Len returns the number of records held in memory.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Documents)
}

// AddDocuments merges converted records into the store. Module records
// register their path and an empty function and struct scope; function and
// struct records are indexed under the scope that contains them.
func (s *Store) AddDocuments(docs []document.Documentation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range docs {
		if _, ok := s.byPath[doc.ModPath]; !ok {
			s.byPath[doc.ModPath] = len(s.Documents)
		}
		s.Documents = append(s.Documents, doc)

		switch doc.Inner.(type) {
		case document.Module:
			s.modpaths[doc.ModPath] = struct{}{}
			ensureScope(s.functions, doc.ModPath)
			ensureScope(s.structs, doc.ModPath)
		case document.Function:
			addScoped(s.functions, doc.ModPath, doc.Name)
		case document.Struct:
			addScoped(s.structs, doc.ModPath, doc.Name)
		}
	}
	slog.Debug("added documents", "store", s.Name, "count", len(docs), "total", len(s.Documents))
}

func addScoped(index map[document.ModPath]map[string]struct{}, path document.ModPath, name string) {
	scope, ok := path.Parent()
	if !ok {
		return
	}
	ensureScope(index, scope)[name] = struct{}{}
}

func ensureScope(index map[document.ModPath]map[string]struct{}, scope document.ModPath) map[string]struct{} {
	names := index[scope]
	if names == nil {
		names = map[string]struct{}{}
		index[scope] = names
	}
	return names
}

// AddModpath registers path as a known module path. Ancestors are not
// added.
func (s *Store) AddModpath(path document.ModPath) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modpaths[path] = struct{}{}
}

// HasModpath reports whether path is a known module path.
func (s *Store) HasModpath(path document.ModPath) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.modpaths[path]
	return ok
}

// Modpaths returns every known module path in sorted order.
func (s *Store) Modpaths() []document.ModPath {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.modpaths)
}

// GetFunctions returns the names of the functions directly inside scope.
// The boolean is false when the scope has never been indexed; a module
// added without functions reports an empty list and true.
func (s *Store) GetFunctions(scope document.ModPath) ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lookupScoped(s.functions, scope)
}

// GetStructs returns the names of the structs directly inside scope.
func (s *Store) GetStructs(scope document.ModPath) ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lookupScoped(s.structs, scope)
}

func lookupScoped(index map[document.ModPath]map[string]struct{}, scope document.ModPath) ([]string, bool) {
	names, ok := index[scope]
	if !ok {
		return nil, false
	}
	return sortedKeys(names), true
}

func sortedKeys[K ~string](m map[K]struct{}) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// LoadCache replaces the known module paths with the contents of the cache
// file. A missing or unreadable file returns ErrCacheUnreadable and leaves
// the set untouched. A file that does not decode, or carries another schema
// version, returns ErrCacheCorrupt and leaves the set empty.
func (s *Store) LoadCache() error {
	p := filepath.Join(s.Path, CacheFile)
	data, err := os.ReadFile(p)
	if err != nil {
		return fmt.Errorf("reading cache %s: %w: %w", p, ErrCacheUnreadable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var cf cacheFile
	if err := json.Unmarshal(data, &cf); err != nil {
		s.modpaths = map[document.ModPath]struct{}{}
		slog.Warn("discarding corrupt cache", "path", p, "error", err)
		return fmt.Errorf("decoding cache %s: %w: %w", p, ErrCacheCorrupt, err)
	}
	if cf.Version != SchemaVersion {
		s.modpaths = map[document.ModPath]struct{}{}
		slog.Warn("discarding cache with unknown version", "path", p, "version", cf.Version)
		return fmt.Errorf("decoding cache %s: %w: version %d, want %d", p, ErrCacheCorrupt, cf.Version, SchemaVersion)
	}

	s.modpaths = make(map[document.ModPath]struct{}, len(cf.Modpaths))
	for _, mp := range cf.Modpaths {
		s.modpaths[mp] = struct{}{}
	}
	slog.Debug("loaded cache", "path", p, "modpaths", len(cf.Modpaths))
	return nil
}

// SaveCache writes the known module paths to the cache file, replacing it
// atomically.
func (s *Store) SaveCache() error {
	s.mu.Lock()
	cf := cacheFile{Version: SchemaVersion, Modpaths: sortedKeys(s.modpaths)}
	s.mu.Unlock()

	data, err := json.Marshal(cf)
	if err != nil {
		return fmt.Errorf("encoding cache: %w", err)
	}
	if err := os.MkdirAll(s.Path, 0755); err != nil {
		return fmt.Errorf("creating store directory %s: %w", s.Path, err)
	}
	return writeFileAtomic(filepath.Join(s.Path, CacheFile), data)
}

// Save persists every in-memory record and then the cache file. The
// manifest is replaced with exactly the records held in memory.
func (s *Store) Save() error {
	if err := os.MkdirAll(s.Path, 0755); err != nil {
		return fmt.Errorf("creating store directory %s: %w", s.Path, err)
	}

	s.mu.Lock()
	manifest := make(map[document.ModPath][]string, len(s.byPath))
	for _, doc := range s.Documents {
		data, err := json.Marshal(doc)
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("encoding %s: %w", doc.ModPath, err)
		}
		hash, err := s.objects.Write(data)
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("storing %s: %w", doc.ModPath, err)
		}
		manifest[doc.ModPath] = append(manifest[doc.ModPath], hash)
	}
	s.loaded.Purge()
	s.manifest = manifest
	count := len(s.Documents)
	s.mu.Unlock()

	data, err := json.Marshal(manifestFile{Version: SchemaVersion, Docs: manifest})
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(s.Path, ManifestFile), data); err != nil {
		return err
	}

	if err := s.SaveCache(); err != nil {
		return err
	}
	slog.Info("saved store", "store", s.Name, "path", s.Path, "documents", count)
	return nil
}

// LoadDoc returns the record at path. Records held in memory win; otherwise
// the record is read from the objects directory through the manifest. When
// several records share a path the first one is returned.
func (s *Store) LoadDoc(path document.ModPath) (document.Documentation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.byPath[path]; ok {
		return s.Documents[i], nil
	}
	if doc, ok := s.loaded.Get(path); ok {
		return doc, nil
	}

	if s.manifest == nil {
		manifest, err := s.readManifest()
		if err != nil {
			return document.Documentation{}, err
		}
		s.manifest = manifest
	}

	hashes := s.manifest[path]
	if len(hashes) == 0 {
		return document.Documentation{}, fmt.Errorf("loading %s: %w", path, ErrDocNotFound)
	}
	data, err := s.objects.Read(hashes[0])
	if err != nil {
		return document.Documentation{}, fmt.Errorf("loading %s: %w", path, err)
	}
	var doc document.Documentation
	if err := json.Unmarshal(data, &doc); err != nil {
		return document.Documentation{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	s.loaded.Add(path, doc)
	return doc, nil
}

// readManifest reads docs.odoc. A missing manifest means no record was ever
// saved and is reported as ErrDocNotFound. A manifest that does not decode,
// or carries another schema version, is logged and read as empty until the
// next Save replaces it. Callers hold s.mu.
func (s *Store) readManifest() (map[document.ModPath][]string, error) {
	p := filepath.Join(s.Path, ManifestFile)
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading manifest %s: %w", p, ErrDocNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", p, err)
	}

	var mf manifestFile
	if err := json.Unmarshal(data, &mf); err != nil {
		slog.Warn("discarding corrupt manifest", "path", p, "error", err)
		return map[document.ModPath][]string{}, nil
	}
	if mf.Version != SchemaVersion {
		slog.Warn("discarding manifest with unknown version", "path", p, "version", mf.Version)
		return map[document.ModPath][]string{}, nil
	}
	if mf.Docs == nil {
		mf.Docs = map[document.ModPath][]string{}
	}
	return mf.Docs, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
