package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jcdickinson/oxidoc/internal/document"
	"github.com/jcdickinson/oxidoc/internal/markdown"
)

// DB is the search index over converted documentation.
type DB struct {
	conn *sql.DB
}

func New(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	dsn := "file:" + dbPath + "?_txlock=immediate&_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	d := &DB{conn: conn}
	if err := d.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return d, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS crates (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			version TEXT NOT NULL,
			indexed_at TIMESTAMP,
			last_used_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(name, version)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_crates_name ON crates (name)`,

		`CREATE TABLE IF NOT EXISTS items (
			id INTEGER PRIMARY KEY,
			crate_id INTEGER NOT NULL REFERENCES crates(id) ON DELETE CASCADE,
			path TEXT NOT NULL,
			name TEXT NOT NULL,
			kind TEXT NOT NULL,
			visibility TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_items_crate ON items (crate_id)`,
		`CREATE INDEX IF NOT EXISTS idx_items_path ON items (path)`,
		`CREATE INDEX IF NOT EXISTS idx_items_name ON items (name)`,
	}

	for _, q := range queries {
		if _, err := db.conn.Exec(q); err != nil {
			return fmt.Errorf("executing %q: %w", q, err)
		}
	}
	return nil
}

// --- Crate operations ---

type Crate struct {
	ID         int
	Name       string
	Version    string
	IndexedAt  *time.Time
	LastUsedAt time.Time
}

const crateColumns = `id, name, version, indexed_at, last_used_at`

func scanCrate(row interface{ Scan(...any) error }) (*Crate, error) {
	var c Crate
	if err := row.Scan(&c.ID, &c.Name, &c.Version, &c.IndexedAt, &c.LastUsedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (db *DB) UpsertCrate(name, version string) (*Crate, error) {
	c, err := db.GetCrate(name, version)
	if err != nil {
		return nil, fmt.Errorf("checking crate: %w", err)
	}
	if c != nil {
		return c, nil
	}

	result, err := db.conn.Exec(`INSERT INTO crates (name, version) VALUES (?, ?)`, name, version)
	if err != nil {
		return nil, fmt.Errorf("inserting crate: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting crate id: %w", err)
	}

	return &Crate{ID: int(id), Name: name, Version: version, LastUsedAt: time.Now()}, nil
}

func (db *DB) MarkCrateIndexed(crateID int) error {
	_, err := db.conn.Exec(`UPDATE crates SET indexed_at = CURRENT_TIMESTAMP WHERE id = ?`, crateID)
	return err
}

func (db *DB) TouchCrate(crateID int) error {
	_, err := db.conn.Exec(`UPDATE crates SET last_used_at = CURRENT_TIMESTAMP WHERE id = ?`, crateID)
	return err
}

// GetCrate returns nil, nil when the crate is not indexed.
func (db *DB) GetCrate(name, version string) (*Crate, error) {
	c, err := scanCrate(db.conn.QueryRow(
		`SELECT `+crateColumns+` FROM crates WHERE name = ? AND version = ?`, name, version))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// GetLatestCrate returns the most recently indexed crate with the given name.
func (db *DB) GetLatestCrate(name string) (*Crate, error) {
	c, err := scanCrate(db.conn.QueryRow(
		`SELECT `+crateColumns+` FROM crates WHERE name = ? AND indexed_at IS NOT NULL
		 ORDER BY indexed_at DESC, id DESC LIMIT 1`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// FindCrateByLibName returns the most recently indexed crate whose library
// name is lib. Cargo names map to library names with '-' replaced by '_';
// an exact name match wins over a mapped one.
func (db *DB) FindCrateByLibName(lib string) (*Crate, error) {
	c, err := scanCrate(db.conn.QueryRow(
		`SELECT `+crateColumns+` FROM crates
		 WHERE (name = ? OR replace(name, '-', '_') = ?) AND indexed_at IS NOT NULL
		 ORDER BY name = ? DESC, indexed_at DESC, id DESC LIMIT 1`, lib, lib, lib))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func (db *DB) ListCrates() ([]Crate, error) {
	rows, err := db.conn.Query(`SELECT ` + crateColumns + ` FROM crates ORDER BY name, version`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var crates []Crate
	for rows.Next() {
		c, err := scanCrate(rows)
		if err != nil {
			return nil, err
		}
		crates = append(crates, *c)
	}
	return crates, rows.Err()
}

// DeleteCrate removes every version of a crate and its items.
func (db *DB) DeleteCrate(name string) error {
	_, err := db.conn.Exec(`DELETE FROM crates WHERE name = ?`, name)
	return err
}

// --- Item operations ---

type Item struct {
	ID         int
	CrateID    int
	Path       string
	Name       string
	Kind       string
	Visibility string
	Summary    string
}

// ItemFromDoc derives the indexed form of a record: its path, kind,
// visibility and the first paragraph of its doc comment.
func ItemFromDoc(doc *document.Documentation) Item {
	item := Item{
		Path:    doc.ModPath.String(),
		Name:    doc.Name,
		Kind:    string(doc.Kind()),
		Summary: markdown.Summary(strings.Join(doc.Attrs, "\n")),
	}
	if doc.Visibility != nil {
		item.Visibility = doc.Visibility.String()
	}
	return item
}

// ReplaceItems swaps the indexed items of a crate in one transaction.
func (db *DB) ReplaceItems(crateID int, items []Item) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM items WHERE crate_id = ?`, crateID); err != nil {
		return fmt.Errorf("deleting items: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO items (crate_id, path, name, kind, visibility, summary) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, it := range items {
		if _, err := stmt.Exec(crateID, it.Path, it.Name, it.Kind, it.Visibility, it.Summary); err != nil {
			return fmt.Errorf("inserting item %s: %w", it.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing items: %w", err)
	}
	return nil
}

func (db *DB) CountItems(crateID int) (int, error) {
	var n int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM items WHERE crate_id = ?`, crateID).Scan(&n)
	return n, err
}

// ChildItems returns the items of the given kind declared directly in
// scope, ordered by name.
func (db *DB) ChildItems(crateID int, scope, kind string) ([]Item, error) {
	prefix := likeEscape(scope) + "::"
	rows, err := db.conn.Query(`SELECT id, crate_id, path, name, kind, visibility, summary FROM items
		WHERE crate_id = ? AND kind = ?
		AND path LIKE ? || '%' ESCAPE '\' AND path NOT LIKE ? || '%::%' ESCAPE '\'
		ORDER BY name`, crateID, kind, prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.CrateID, &it.Path, &it.Name, &it.Kind, &it.Visibility, &it.Summary); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// --- Search ---

type SearchResult struct {
	Crate   string
	Version string
	Item
}

// SearchItems finds items whose path or summary contains query. Exact name
// matches rank first, then name prefixes, then path matches, then summary
// matches; ties go to the shorter path. An empty crates list searches every
// crate.
func (db *DB) SearchItems(query string, crates []string, limit int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	pattern := likeEscape(query)
	sqlQuery := `SELECT c.name, c.version, i.id, i.crate_id, i.path, i.name, i.kind, i.visibility, i.summary,
		CASE
			WHEN i.name = ? COLLATE NOCASE THEN 0
			WHEN i.name LIKE ? || '%' ESCAPE '\' THEN 1
			WHEN i.path LIKE '%' || ? || '%' ESCAPE '\' THEN 2
			ELSE 3
		END AS rank
		FROM items i JOIN crates c ON c.id = i.crate_id
		WHERE (i.path LIKE '%' || ? || '%' ESCAPE '\' OR i.summary LIKE '%' || ? || '%' ESCAPE '\')`
	params := []any{query, pattern, pattern, pattern, pattern}

	if len(crates) > 0 {
		placeholders := make([]string, len(crates))
		for i, name := range crates {
			placeholders[i] = "?"
			params = append(params, name)
		}
		sqlQuery += fmt.Sprintf(` AND c.name IN (%s)`, strings.Join(placeholders, ","))
	}
	sqlQuery += ` ORDER BY rank, length(i.path), i.path LIMIT ?`
	params = append(params, limit)

	rows, err := db.conn.Query(sqlQuery, params...)
	if err != nil {
		return nil, fmt.Errorf("searching items: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var rank int
		if err := rows.Scan(&r.Crate, &r.Version, &r.ID, &r.CrateID, &r.Path, &r.Name, &r.Kind, &r.Visibility, &r.Summary, &rank); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// likeEscape escapes LIKE wildcards so query text matches literally.
func likeEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
