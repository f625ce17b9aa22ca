package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jcdickinson/oxidoc/internal/document"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	db, err := New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("creating test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedCrate(t *testing.T, db *DB, name, version string, items []Item) *Crate {
	t.Helper()
	c, err := db.UpsertCrate(name, version)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.ReplaceItems(c.ID, items); err != nil {
		t.Fatal(err)
	}
	if err := db.MarkCrateIndexed(c.ID); err != nil {
		t.Fatal(err)
	}
	return c
}

var mycrateItems = []Item{
	{Path: "mycrate", Name: "mycrate", Kind: "module", Visibility: "public", Summary: "A small crate."},
	{Path: "mycrate::io", Name: "io", Kind: "module", Visibility: "public", Summary: "I/O utilities."},
	{Path: "mycrate::io::Read", Name: "Read", Kind: "trait", Visibility: "public", Summary: "Reads bytes from a source."},
	{Path: "mycrate::io::Read::read", Name: "read", Kind: "trait_item", Visibility: "inherited", Summary: "Pull some bytes."},
	{Path: "mycrate::io::read_to_string", Name: "read_to_string", Kind: "function", Visibility: "public", Summary: "Reads everything."},
	{Path: "mycrate::Point", Name: "Point", Kind: "struct", Visibility: "public", Summary: "A 100% cartesian point."},
}

func TestNew_CreatesDirectory(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "index.db")
	db, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("directory not created: %v", err)
	}
}

func TestUpsertCrate(t *testing.T) {
	t.Parallel()
	db := testDB(t)

	first, err := db.UpsertCrate("mycrate", "0.1.0")
	if err != nil {
		t.Fatal(err)
	}
	again, err := db.UpsertCrate("mycrate", "0.1.0")
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != again.ID {
		t.Errorf("upsert created a second row: %d != %d", first.ID, again.ID)
	}

	other, err := db.UpsertCrate("mycrate", "0.2.0")
	if err != nil {
		t.Fatal(err)
	}
	if other.ID == first.ID {
		t.Error("a new version should get its own row")
	}
	if again.IndexedAt != nil {
		t.Error("a fresh crate should not be marked indexed")
	}
}

func TestGetCrate_Missing(t *testing.T) {
	t.Parallel()
	db := testDB(t)

	c, err := db.GetCrate("nope", "1.0.0")
	if err != nil {
		t.Fatal(err)
	}
	if c != nil {
		t.Errorf("expected nil, got %+v", c)
	}
}

func TestGetLatestCrate(t *testing.T) {
	t.Parallel()
	db := testDB(t)

	if c, err := db.GetLatestCrate("mycrate"); err != nil || c != nil {
		t.Fatalf("empty index: got %+v, %v", c, err)
	}

	if _, err := db.UpsertCrate("mycrate", "0.3.0"); err != nil {
		t.Fatal(err)
	}
	seedCrate(t, db, "mycrate", "0.1.0", nil)
	seedCrate(t, db, "mycrate", "0.2.0", nil)

	c, err := db.GetLatestCrate("mycrate")
	if err != nil {
		t.Fatal(err)
	}
	if c == nil || c.Version != "0.2.0" {
		t.Errorf("latest = %+v, want version 0.2.0", c)
	}
	if c.IndexedAt == nil {
		t.Error("expected IndexedAt to be set")
	}
}

func TestListCrates(t *testing.T) {
	t.Parallel()
	db := testDB(t)

	seedCrate(t, db, "zeta", "1.0.0", nil)
	seedCrate(t, db, "alpha", "2.0.0", nil)
	seedCrate(t, db, "alpha", "1.0.0", nil)

	crates, err := db.ListCrates()
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, c := range crates {
		got = append(got, c.Name+"@"+c.Version)
	}
	want := []string{"alpha@1.0.0", "alpha@2.0.0", "zeta@1.0.0"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("crates[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestReplaceItems(t *testing.T) {
	t.Parallel()
	db := testDB(t)

	c := seedCrate(t, db, "mycrate", "0.1.0", mycrateItems)
	n, err := db.CountItems(c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(mycrateItems) {
		t.Fatalf("count = %d, want %d", n, len(mycrateItems))
	}

	if err := db.ReplaceItems(c.ID, mycrateItems[:2]); err != nil {
		t.Fatal(err)
	}
	n, err = db.CountItems(c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("count after replace = %d, want 2", n)
	}
}

func TestDeleteCrate_CascadesItems(t *testing.T) {
	t.Parallel()
	db := testDB(t)

	c := seedCrate(t, db, "mycrate", "0.1.0", mycrateItems)
	if err := db.DeleteCrate("mycrate"); err != nil {
		t.Fatal(err)
	}
	n, err := db.CountItems(c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("items left after delete: %d", n)
	}
	if got, _ := db.GetCrate("mycrate", "0.1.0"); got != nil {
		t.Error("crate still present")
	}
}

func TestSearchItems_Ranking(t *testing.T) {
	t.Parallel()
	db := testDB(t)
	seedCrate(t, db, "mycrate", "0.1.0", mycrateItems)

	results, err := db.SearchItems("read", nil, 10)
	if err != nil {
		t.Fatal(err)
	}

	var paths []string
	for _, r := range results {
		paths = append(paths, r.Path)
	}
	want := []string{
		"mycrate::io::Read",
		"mycrate::io::Read::read",
		"mycrate::io::read_to_string",
	}
	if len(paths) != len(want) {
		t.Fatalf("got %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("results[%d] = %s, want %s", i, paths[i], want[i])
		}
	}
	if results[0].Crate != "mycrate" || results[0].Version != "0.1.0" {
		t.Errorf("crate = %s@%s", results[0].Crate, results[0].Version)
	}
}

func TestSearchItems_SummaryMatch(t *testing.T) {
	t.Parallel()
	db := testDB(t)
	seedCrate(t, db, "mycrate", "0.1.0", mycrateItems)

	results, err := db.SearchItems("utilities", nil, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Path != "mycrate::io" {
		t.Errorf("got %+v", results)
	}
}

func TestSearchItems_LiteralWildcards(t *testing.T) {
	t.Parallel()
	db := testDB(t)
	seedCrate(t, db, "mycrate", "0.1.0", mycrateItems)

	results, err := db.SearchItems("100%", nil, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Name != "Point" {
		t.Errorf("got %+v", results)
	}

	results, err = db.SearchItems("%", nil, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("%% should match literally, got %d results", len(results))
	}
}

func TestSearchItems_CrateFilterAndLimit(t *testing.T) {
	t.Parallel()
	db := testDB(t)
	seedCrate(t, db, "mycrate", "0.1.0", mycrateItems)
	seedCrate(t, db, "other", "1.0.0", []Item{
		{Path: "other::Read", Name: "Read", Kind: "trait", Visibility: "public"},
	})

	all, err := db.SearchItems("Read", nil, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Errorf("unfiltered = %d results, want 4", len(all))
	}

	filtered, err := db.SearchItems("Read", []string{"other"}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(filtered) != 1 || filtered[0].Crate != "other" {
		t.Errorf("filtered = %+v", filtered)
	}

	limited, err := db.SearchItems("Read", nil, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Errorf("limited = %d results, want 2", len(limited))
	}
}

func TestSearchItems_EmptyQuery(t *testing.T) {
	t.Parallel()
	db := testDB(t)
	seedCrate(t, db, "mycrate", "0.1.0", mycrateItems)

	results, err := db.SearchItems("   ", nil, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestItemFromDoc(t *testing.T) {
	t.Parallel()

	v := document.Public
	doc := document.Documentation{
		Name:       "read_to_string",
		Attrs:      []string{"Reads *everything*", "into a string.", "", "# Errors", "", "On failure."},
		ModPath:    "mycrate::io::read_to_string",
		Visibility: &v,
		Inner:      document.Function{Header: "() -> String", Abi: document.AbiRust},
	}

	got := ItemFromDoc(&doc)
	want := Item{
		Path:       "mycrate::io::read_to_string",
		Name:       "read_to_string",
		Kind:       "function",
		Visibility: "public",
		Summary:    "Reads everything into a string.",
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestChildItems(t *testing.T) {
	t.Parallel()
	db := testDB(t)
	c := seedCrate(t, db, "mycrate", "0.1.0", append([]Item{
		{Path: "mycrate::io::buffered::fill", Name: "fill", Kind: "function", Visibility: "public"},
		{Path: "mycrate::io::copy", Name: "copy", Kind: "function", Visibility: "public"},
	}, mycrateItems...))

	items, err := db.ChildItems(c.ID, "mycrate::io", "function")
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, it := range items {
		names = append(names, it.Name)
	}
	if len(names) != 2 || names[0] != "copy" || names[1] != "read_to_string" {
		t.Errorf("got %v, want [copy read_to_string]", names)
	}

	items, err = db.ChildItems(c.ID, "mycrate::nothing", "function")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Errorf("expected no items, got %+v", items)
	}
}

func TestFindCrateByLibName(t *testing.T) {
	t.Parallel()
	db := testDB(t)

	seedCrate(t, db, "tracing-core", "0.1.0", nil)
	seedCrate(t, db, "serde", "1.0.0", nil)
	if _, err := db.UpsertCrate("not-built", "1.0.0"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		lib  string
		want string
	}{
		{"tracing_core", "tracing-core"},
		{"serde", "serde"},
		{"not_built", ""},
		{"missing", ""},
	}
	for _, tt := range tests {
		c, err := db.FindCrateByLibName(tt.lib)
		if err != nil {
			t.Fatalf("FindCrateByLibName(%s): %v", tt.lib, err)
		}
		got := ""
		if c != nil {
			got = c.Name
		}
		if got != tt.want {
			t.Errorf("FindCrateByLibName(%s) = %q, want %q", tt.lib, got, tt.want)
		}
	}
}

func TestFindCrateByLibName_ExactNameWins(t *testing.T) {
	t.Parallel()
	db := testDB(t)

	seedCrate(t, db, "foo_bar", "1.0.0", nil)
	seedCrate(t, db, "foo-bar", "2.0.0", nil)

	c, err := db.FindCrateByLibName("foo_bar")
	if err != nil {
		t.Fatal(err)
	}
	if c == nil || c.Name != "foo_bar" {
		t.Errorf("got %+v, want foo_bar", c)
	}
}
