package docs

import (
	"reflect"
	"strings"
	"testing"

	"github.com/jcdickinson/oxidoc/internal/ast"
	"github.com/jcdickinson/oxidoc/internal/document"
)

const fixtureJSON = `{
  "root": 0,
  "crate_version": "0.3.1",
  "format_version": 39,
  "external_crates": {"1": {"name": "core", "html_root_url": "https://doc.rust-lang.org/nightly/"}},
  "paths": {
    "0": {"crate_id": 0, "path": ["mycrate"], "kind": "module"},
    "1": {"crate_id": 0, "path": ["mycrate", "io"], "kind": "module"},
    "2": {"crate_id": 0, "path": ["mycrate", "io", "Read"], "kind": "trait"},
    "50": {"crate_id": 1, "path": ["core", "fmt", "Debug"], "kind": "trait"}
  },
  "index": {
    "0": {"id": 0, "crate_id": 0, "name": "mycrate", "visibility": "public",
          "docs": "Crate docs.", "links": {},
          "inner": {"module": {"is_crate": true, "items": [1, 10, 11, 12, 99]}}},
    "1": {"id": 1, "crate_id": 0, "name": "io", "visibility": "public",
          "docs": "I/O, see [Read](Read).", "links": {"Read": 2},
          "inner": {"module": {"is_crate": false, "items": [2, 20]}}},
    "2": {"id": 2, "crate_id": 0, "name": "Read", "visibility": "public", "docs": null, "links": {},
          "inner": {"trait": {"is_unsafe": true, "is_auto": false, "items": [3, 4, 5], "generics": {"params": [], "where_predicates": []}, "bounds": []}}},
    "3": {"id": 3, "crate_id": 0, "name": "read", "visibility": "default", "docs": "Reads.", "links": {},
          "inner": {"function": {"sig": {"inputs": [["self", {"borrowed_ref": {"lifetime": null, "is_mutable": true, "type": {"generic": "Self"}}}], ["buf", {"borrowed_ref": {"lifetime": null, "is_mutable": true, "type": {"slice": {"primitive": "u8"}}}}]], "output": {"primitive": "usize"}, "is_c_variadic": false},
                                  "generics": {"params": [], "where_predicates": []},
                                  "header": {"is_const": false, "is_unsafe": false, "is_async": false, "abi": "Rust"},
                                  "has_body": false}}},
    "4": {"id": 4, "crate_id": 0, "name": "MAX", "visibility": "default", "docs": null, "links": {},
          "inner": {"assoc_const": {"type": {"primitive": "usize"}, "value": "64"}}},
    "5": {"id": 5, "crate_id": 0, "name": "Item", "visibility": "default", "docs": null, "links": {},
          "inner": {"assoc_type": {"generics": {"params": [], "where_predicates": []}, "bounds": [{"trait_bound": {"trait": {"path": "Debug", "id": 50, "args": null}, "generic_params": [], "modifier": "none"}}], "type": null}}},
    "10": {"id": 10, "crate_id": 0, "name": "LIMIT", "visibility": "public", "docs": null, "links": {},
           "inner": {"constant": {"type": {"primitive": "u32"}, "const": {"expr": "1 << 4", "value": "16", "is_literal": false}}}},
    "11": {"id": 11, "crate_id": 0, "name": "open", "visibility": "crate", "docs": "Opens.\n\nSee [Debug](https://docs.rs/core/latest/core/fmt/trait.Debug.html).", "links": {},
           "inner": {"function": {"sig": {"inputs": [["path", {"borrowed_ref": {"lifetime": null, "is_mutable": false, "type": {"primitive": "str"}}}]], "output": null, "is_c_variadic": false},
                                   "generics": {"params": [], "where_predicates": []},
                                   "header": {"is_const": true, "is_unsafe": true, "is_async": false, "abi": {"C": {"unwind": false}}},
                                   "has_body": true}}},
    "12": {"id": 12, "crate_id": 0, "name": "Point", "visibility": "public", "docs": null, "links": {},
           "inner": {"struct": {"kind": {"plain": {"fields": [13, 14], "has_stripped_fields": false}}, "generics": {"params": [], "where_predicates": []}, "impls": []}}},
    "13": {"id": 13, "crate_id": 0, "name": "x", "visibility": "public", "docs": "X.", "links": {},
           "inner": {"struct_field": {"primitive": "f64"}}},
    "14": {"id": 14, "crate_id": 0, "name": "y", "visibility": {"restricted": {"parent": 0, "path": "::mycrate"}}, "docs": null, "links": {},
           "inner": {"struct_field": {"primitive": "f64"}}},
    "20": {"id": 20, "crate_id": 0, "name": "Color", "visibility": "public", "docs": null, "links": {},
           "inner": {"enum": {"variants": [], "generics": {"params": [], "where_predicates": []}}}},
    "99": {"id": 99, "crate_id": 0, "name": null, "visibility": "public", "docs": null, "links": {},
           "inner": {"impl": {}}}
  }
}`

func buildFixture(t *testing.T) *ast.Module {
	t.Helper()
	crate, err := Parse([]byte(fixtureJSON))
	if err != nil {
		t.Fatal(err)
	}
	if crate.Version() != "0.3.1" {
		t.Errorf("Version() = %q", crate.Version())
	}
	if crate.RootName() != "mycrate" {
		t.Errorf("RootName() = %q", crate.RootName())
	}
	root, err := BuildModule(crate, "mycrate")
	if err != nil {
		t.Fatal(err)
	}
	return root
}

func TestBuildModule_Tree(t *testing.T) {
	t.Parallel()
	root := buildFixture(t)

	if root.Ident != nil {
		t.Errorf("root ident = %q, want nil", *root.Ident)
	}
	if !root.IsCrate || root.Path != "mycrate" || root.Vis != ast.VisPublic {
		t.Errorf("root = %+v", root)
	}
	if len(root.Consts) != 1 || len(root.Fns) != 1 || len(root.Structs) != 1 || len(root.Mods) != 1 || len(root.Traits) != 0 {
		t.Fatalf("root children: consts=%d fns=%d structs=%d mods=%d traits=%d",
			len(root.Consts), len(root.Fns), len(root.Structs), len(root.Mods), len(root.Traits))
	}

	io := root.Mods[0]
	if io.Ident == nil || *io.Ident != "io" || io.Path != "mycrate::io" {
		t.Errorf("io module = %+v", io)
	}
	// The enum is skipped.
	if len(io.Traits) != 1 || len(io.Structs) != 0 {
		t.Errorf("io children: traits=%d structs=%d", len(io.Traits), len(io.Structs))
	}
	if got := io.Attrs[0].Value; got != "I/O, see [Read](odoc://mycrate::io::Read)." {
		t.Errorf("io docs = %q", got)
	}
}

func TestBuildModule_Items(t *testing.T) {
	t.Parallel()
	root := buildFixture(t)

	c := root.Consts[0]
	if c.Ident != "LIMIT" || c.Type.Text != "u32" || c.Expr.Text != "1 << 4" || c.Path != "mycrate::LIMIT" {
		t.Errorf("constant = %+v", c)
	}

	fn := root.Fns[0]
	if fn.Vis != ast.VisCrate || fn.Abi != ast.AbiC || fn.Unsafety != ast.UnsafetyUnsafe || fn.Constness != ast.ConstnessConst {
		t.Errorf("function modifiers = %+v", fn)
	}
	wantDecl := ast.FnDecl{Inputs: []ast.Arg{{Pat: "path", Ty: ast.Ty{Text: "&str"}}}}
	if !reflect.DeepEqual(fn.Decl, wantDecl) {
		t.Errorf("decl = %+v", fn.Decl)
	}
	if len(fn.Attrs) != 1 || fn.Attrs[0].Name != "doc" {
		t.Fatalf("attrs = %+v", fn.Attrs)
	}
	if !strings.Contains(fn.Attrs[0].Value, "](odoc://core::fmt::Debug)") {
		t.Errorf("docs.rs link not rewritten: %q", fn.Attrs[0].Value)
	}

	s := root.Structs[0]
	if len(s.Fields) != 2 {
		t.Fatalf("fields = %+v", s.Fields)
	}
	if *s.Fields[0].Ident != "x" || s.Fields[0].Ty.Text != "f64" || s.Fields[0].Vis != ast.VisPublic {
		t.Errorf("field x = %+v", s.Fields[0])
	}
	if s.Fields[1].Vis != ast.VisRestricted {
		t.Errorf("field y visibility = %d, want restricted", s.Fields[1].Vis)
	}
}

func TestBuildModule_Trait(t *testing.T) {
	t.Parallel()
	root := buildFixture(t)

	tr := root.Mods[0].Traits[0]
	if tr.Ident != "Read" || tr.Path != "mycrate::io::Read" || tr.Unsafety != ast.UnsafetyUnsafe {
		t.Errorf("trait = %+v", tr)
	}
	if len(tr.Items) != 3 {
		t.Fatalf("trait items = %d, want 3", len(tr.Items))
	}

	read, ok := tr.Items[0].Node.(ast.MethodItem)
	if !ok {
		t.Fatalf("item 0 is %T", tr.Items[0].Node)
	}
	if read.Body != nil {
		t.Error("required method should have no body")
	}
	wantDecl := ast.FnDecl{
		Inputs: []ast.Arg{{Pat: "&mut self"}, {Pat: "buf", Ty: ast.Ty{Text: "&mut [u8]"}}},
		Output: &ast.Ty{Text: "usize"},
	}
	if !reflect.DeepEqual(read.Sig.Decl, wantDecl) {
		t.Errorf("read decl = %+v", read.Sig.Decl)
	}
	if tr.Items[0].Path != document.ModPath("mycrate::io::Read::read") {
		t.Errorf("read path = %s", tr.Items[0].Path)
	}

	maxConst, ok := tr.Items[1].Node.(ast.ConstItem)
	if !ok || maxConst.Type.Text != "usize" || maxConst.Default == nil || maxConst.Default.Text != "64" {
		t.Errorf("MAX = %+v", tr.Items[1].Node)
	}

	item, ok := tr.Items[2].Node.(ast.TypeItem)
	if !ok || item.Default != nil || !reflect.DeepEqual(item.Bounds, []string{"Debug"}) {
		t.Errorf("Item = %+v", tr.Items[2].Node)
	}
}

func TestBuildModule_Errors(t *testing.T) {
	t.Parallel()

	if _, err := Parse([]byte("not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
	if _, err := Parse([]byte(`{"root":0}`)); err == nil {
		t.Error("expected error for missing index")
	}

	crate := &RustdocCrate{Root: 5, Index: map[string]RustdocItem{}}
	if crate.RootName() != "" {
		t.Errorf("RootName() = %q for a missing root", crate.RootName())
	}
	if _, err := BuildModule(crate, "x"); err == nil {
		t.Error("expected error for missing root")
	}

	crate.Index["5"] = RustdocItem{ID: 5, Inner: []byte(`{"function":{}}`)}
	if _, err := BuildModule(crate, "x"); err == nil {
		t.Error("expected error for non-module root")
	}
}

func TestBuildModule_SkipsMalformedItems(t *testing.T) {
	t.Parallel()

	const malformed = `{
  "root": 0,
  "index": {
    "0": {"id": 0, "crate_id": 0, "name": "bad", "visibility": "public", "docs": null, "links": {},
          "inner": {"module": {"is_crate": true, "items": [1, 2, 3, 4, 5]}}},
    "1": {"id": 1, "crate_id": 0, "name": "C", "visibility": "public", "docs": null, "links": {},
          "inner": {"constant": "oops"}},
    "2": {"id": 2, "crate_id": 0, "name": "S", "visibility": "public", "docs": null, "links": {},
          "inner": {"struct": 5}},
    "3": {"id": 3, "crate_id": 0, "name": "T", "visibility": "public", "docs": null, "links": {},
          "inner": {"trait": {"is_unsafe": false, "items": [6, 7]}}},
    "4": {"id": 4, "crate_id": 0, "name": "U", "visibility": "public", "docs": null, "links": {},
          "inner": {"trait": []}},
    "5": {"id": 5, "crate_id": 0, "name": "Tuple", "visibility": "public", "docs": null, "links": {},
          "inner": {"struct": {"kind": {"tuple": "nope"}, "generics": {"params": [], "where_predicates": []}}}},
    "6": {"id": 6, "crate_id": 0, "name": "N", "visibility": "default", "docs": null, "links": {},
          "inner": {"assoc_const": ["not", "an", "object"]}},
    "7": {"id": 7, "crate_id": 0, "name": "Out", "visibility": "default", "docs": null, "links": {},
          "inner": {"assoc_type": {"bounds": {}}}}
  }
}`

	crate, err := Parse([]byte(malformed))
	if err != nil {
		t.Fatal(err)
	}
	root, err := BuildModule(crate, "bad")
	if err != nil {
		t.Fatal(err)
	}

	if len(root.Consts) != 0 {
		t.Errorf("malformed constant kept: %+v", root.Consts)
	}
	if len(root.Traits) != 1 || root.Traits[0].Ident != "T" {
		t.Fatalf("traits = %+v, want only T", root.Traits)
	}
	if len(root.Traits[0].Items) != 0 {
		t.Errorf("malformed trait members kept: %+v", root.Traits[0].Items)
	}
	if len(root.Structs) != 1 || root.Structs[0].Ident != "Tuple" || len(root.Structs[0].Fields) != 0 {
		t.Errorf("structs = %+v, want Tuple without fields", root.Structs)
	}
}

func TestVisibilityOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		json string
		want ast.Visibility
	}{
		{`"public"`, ast.VisPublic},
		{`"crate"`, ast.VisCrate},
		{`"default"`, ast.VisInherited},
		{`{"restricted":{"parent":0,"path":"::a"}}`, ast.VisRestricted},
		{``, ast.VisInherited},
	}
	for _, tt := range tests {
		if got := visibilityOf([]byte(tt.json)); got != tt.want {
			t.Errorf("visibilityOf(%s) = %d, want %d", tt.json, got, tt.want)
		}
	}
}
