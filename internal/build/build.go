// Package build runs the documentation pipeline for one crate: fetch or
// read rustdoc JSON, build the syntax tree, convert it, persist the records
// and index them for search.
package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/jcdickinson/oxidoc/internal/convert"
	"github.com/jcdickinson/oxidoc/internal/db"
	"github.com/jcdickinson/oxidoc/internal/docs"
	"github.com/jcdickinson/oxidoc/internal/document"
	"github.com/jcdickinson/oxidoc/internal/store"
)

const latest = "latest"

// Spec names what to build: a crate on docs.rs, or a local rustdoc JSON
// file.
type Spec struct {
	Name    string
	Version string
	File    string
}

// ParseSpec reads "crate", "crate@version" or a path ending in .json or
// .json.zst.
func ParseSpec(arg string) Spec {
	if strings.HasSuffix(arg, ".json") || strings.HasSuffix(arg, ".json.zst") {
		return Spec{File: arg}
	}
	name, version, _ := strings.Cut(arg, "@")
	if version == "" {
		version = latest
	}
	return Spec{Name: name, Version: version}
}

func (s Spec) String() string {
	if s.File != "" {
		return s.File
	}
	return s.Name + "@" + s.Version
}

type Options struct {
	// StoreRoot holds one store directory per crate.
	StoreRoot string
	// JSONCacheDir holds fetched rustdoc JSON.
	JSONCacheDir string
	// Workers bounds conversion parallelism; zero means GOMAXPROCS.
	Workers      int
	DocCacheSize int
	// Fetcher downloads rustdoc JSON; nil means docs.rs.
	Fetcher *docs.Fetcher
}

type Result struct {
	Name     string
	Version  string
	StoreDir string
	Records  int
	Modules  int
}

// Builder runs builds. Concurrent builds of the same spec share one run.
type Builder struct {
	opts  Options
	index *db.DB
	group singleflight.Group
}

// New creates a Builder. index may be nil, in which case builds are not
// indexed for search.
func New(opts Options, index *db.DB) *Builder {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Fetcher == nil {
		opts.Fetcher = docs.NewFetcher()
	}
	return &Builder{opts: opts, index: index}
}

// StoreDir is the store root for a crate.
func (b *Builder) StoreDir(name string) string {
	return filepath.Join(b.opts.StoreRoot, name)
}

// Open loads a previously built crate's store.
func (b *Builder) Open(name string) (*store.Store, error) {
	st := store.New(name, b.StoreDir(name), store.WithDocCacheSize(b.opts.DocCacheSize))
	if err := st.LoadCache(); err != nil {
		if errors.Is(err, store.ErrCacheUnreadable) {
			return nil, fmt.Errorf("crate %s has not been built: %w", name, err)
		}
		return nil, err
	}
	return st, nil
}

// Fetch returns rustdoc JSON for name@version and the version it resolved
// to. Exact versions are served from the JSON cache when present; "latest"
// always goes to docs.rs.
func (b *Builder) Fetch(ctx context.Context, name, version string) ([]byte, string, error) {
	if version == "" {
		version = latest
	}
	if version != latest && docs.HasCrateCache(b.opts.JSONCacheDir, name, version) {
		data, err := docs.LoadCrateCache(b.opts.JSONCacheDir, name, version)
		if err == nil {
			slog.Debug("using cached rustdoc JSON", "crate", name, "version", version)
			return data, version, nil
		}
		slog.Warn("cached rustdoc JSON unreadable, refetching", "crate", name, "version", version, "error", err)
	}

	slog.Info("fetching rustdoc JSON", "crate", name, "version", version)
	fetched, err := b.opts.Fetcher.Fetch(ctx, name, version)
	if err != nil {
		return nil, "", fmt.Errorf("fetching docs: %w", err)
	}
	data := fetched.Data

	resolved := fetched.Version
	if resolved == "" {
		resolved = version
		if crate, err := docs.Parse(data); err == nil && crate.Version() != "" {
			resolved = crate.Version()
		}
	}
	if err := docs.SaveCrateCache(b.opts.JSONCacheDir, data, name, resolved); err != nil {
		slog.Warn("failed to cache rustdoc JSON", "crate", name, "version", resolved, "error", err)
	}
	return data, resolved, nil
}

// Build runs the whole pipeline for spec.
func (b *Builder) Build(ctx context.Context, spec Spec) (*Result, error) {
	v, err, _ := b.group.Do(spec.String(), func() (interface{}, error) {
		return b.build(ctx, spec)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

func (b *Builder) build(ctx context.Context, spec Spec) (*Result, error) {
	data, version, err := b.load(ctx, spec)
	if err != nil {
		return nil, err
	}

	crate, err := docs.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing docs: %w", err)
	}
	if v := crate.Version(); v != "" {
		version = v
	}

	name := spec.Name
	if name == "" {
		name = crate.RootName()
	}
	if name == "" {
		return nil, fmt.Errorf("%s: cannot determine crate name", spec)
	}

	root, err := docs.BuildModule(crate, name)
	if err != nil {
		return nil, fmt.Errorf("building syntax tree: %w", err)
	}

	dir := b.StoreDir(name)
	cx := &convert.Context{
		StorePath: dir,
		CrateInfo: document.CrateInfo{Package: document.Package{Name: name, Version: version}},
	}
	records, err := convert.ParallelCrate(ctx, cx, root, b.opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("converting %s: %w", name, err)
	}

	st := store.New(name, dir, store.WithDocCacheSize(b.opts.DocCacheSize))
	st.AddDocuments(records)
	if err := st.Save(); err != nil {
		return nil, fmt.Errorf("saving store: %w", err)
	}

	if err := b.indexRecords(name, version, records); err != nil {
		return nil, err
	}

	result := &Result{
		Name:     name,
		Version:  version,
		StoreDir: dir,
		Records:  len(records),
		Modules:  len(st.Modpaths()),
	}
	slog.Info("built crate", "crate", name, "version", version, "records", result.Records, "modules", result.Modules)
	return result, nil
}

func (b *Builder) load(ctx context.Context, spec Spec) ([]byte, string, error) {
	if spec.File == "" {
		return b.Fetch(ctx, spec.Name, spec.Version)
	}
	data, err := docs.ReadJSONFile(spec.File)
	if err != nil {
		return nil, "", err
	}
	return data, "", nil
}

func (b *Builder) indexRecords(name, version string, records []document.Documentation) error {
	if b.index == nil {
		return nil
	}

	crate, err := b.index.UpsertCrate(name, version)
	if err != nil {
		return fmt.Errorf("indexing %s: %w", name, err)
	}

	items := make([]db.Item, 0, len(records))
	seen := make(map[document.ModPath]bool, len(records))
	for i := range records {
		if seen[records[i].ModPath] {
			continue
		}
		seen[records[i].ModPath] = true
		items = append(items, db.ItemFromDoc(&records[i]))
	}

	if err := b.index.ReplaceItems(crate.ID, items); err != nil {
		return fmt.Errorf("indexing %s: %w", name, err)
	}
	return b.index.MarkCrateIndexed(crate.ID)
}
