package markup

import (
	"strings"
	"testing"

	"github.com/jcdickinson/oxidoc/internal/document"
)

func vis(v document.Visibility) *document.Visibility { return &v }

var crate = document.CrateInfo{Package: document.Package{Name: "mycrate", Version: "0.1.0"}}

func TestSignature(t *testing.T) {
	t.Parallel()

	expr := "64"
	tests := []struct {
		name string
		doc  document.Documentation
		want string
	}{
		{
			"function",
			document.Documentation{Name: "read", Inner: document.Function{Header: "(&mut self) -> usize", Abi: document.AbiRust}},
			"fn read(&mut self) -> usize",
		},
		{
			"extern_unsafe_const_function",
			document.Documentation{Name: "open", Inner: document.Function{
				Header: "(path: &str)", Abi: document.AbiC, Unsafety: document.Unsafe, Constness: document.Const,
			}},
			`const unsafe extern "C" fn open(path: &str)`,
		},
		{
			"module",
			document.Documentation{Name: "io", ModPath: "mycrate::io", Inner: document.Module{}},
			"mod mycrate::io",
		},
		{
			"constant",
			document.Documentation{Name: "LIMIT", Inner: document.Constant{Type: document.TypeRef{Name: "u32"}, Expr: "1 << 4"}},
			"const LIMIT: u32 = 1 << 4",
		},
		{
			"struct",
			document.Documentation{Name: "Point", Inner: document.Struct{}},
			"struct Point { /* fields omitted */ }",
		},
		{
			"enum",
			document.Documentation{Name: "Color", Inner: document.Enum{}},
			"enum Color",
		},
		{
			"unsafe_trait",
			document.Documentation{Name: "Read", Inner: document.Trait{Unsafety: document.Unsafe}},
			"unsafe trait Read { /* items omitted */ }",
		},
		{
			"trait_const_with_default",
			document.Documentation{Name: "MAX", Inner: document.TraitItem{Node: document.TraitConst{Type: document.TypeRef{Name: "usize"}, Expr: &expr}}},
			"const MAX: usize = 64",
		},
		{
			"trait_const_without_default",
			document.Documentation{Name: "MIN", Inner: document.TraitItem{Node: document.TraitConst{Type: document.TypeRef{Name: "usize"}}}},
			"const MIN: usize",
		},
		{
			"trait_method",
			document.Documentation{Name: "next", Inner: document.TraitItem{Node: document.TraitMethod{Sig: document.MethodSig{Header: "(&mut self)", Abi: document.AbiRust}}}},
			"fn next(&mut self)",
		},
		{
			"assoc_type",
			document.Documentation{Name: "Item", Inner: document.TraitItem{Node: document.TraitType{Type: &document.TypeRef{Name: "Debug"}}}},
			"type Item = Debug",
		},
		{
			"assoc_type_bare",
			document.Documentation{Name: "Item", Inner: document.TraitItem{Node: document.TraitType{}}},
			"type Item",
		},
		{
			"trait_macro",
			document.Documentation{Name: "m", Inner: document.TraitItem{Node: document.TraitMacro{Mac: "my_macro!()"}}},
			"macro m my_macro!()",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Signature(&tt.doc); got != tt.want {
				t.Errorf("Signature = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSignature_PanicsOnMissingInner(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("expected panic for a record without inner data")
		}
	}()
	Signature(&document.Documentation{Name: "x"})
}

func TestFormat_Layout(t *testing.T) {
	t.Parallel()

	doc := document.Documentation{
		Name:       "read",
		Attrs:      []string{"Reads bytes.", "", "Returns the count."},
		ModPath:    "mycrate::io::Read::read",
		Visibility: vis(document.Inherited),
		Inner:      document.TraitItem{Node: document.TraitMethod{Sig: document.MethodSig{Header: "(&mut self) -> usize", Abi: document.AbiRust}}},
	}
	m := Format(&doc, crate)

	if len(m.Parts) < 4 {
		t.Fatalf("too few parts: %d", len(m.Parts))
	}
	if m.Parts[0] != (Part{Kind: Block, Text: "(mycrate 0.1.0)"}) {
		t.Errorf("crate line = %+v", m.Parts[0])
	}
	if m.Parts[1] != (Part{Kind: Header, Text: "Trait Item mycrate::io::Read::read"}) {
		t.Errorf("header = %+v", m.Parts[1])
	}
	if m.Parts[2] != (Part{Kind: Header, Text: "From trait mycrate::io::Read"}) {
		t.Errorf("info = %+v", m.Parts[2])
	}

	last := m.Parts[len(m.Parts)-1]
	if last.Kind != Markdown || last.Text != "Reads bytes.\n\nReturns the count." {
		t.Errorf("body = %+v", last)
	}

	var sig string
	for _, p := range m.Parts {
		if p.Kind == Block && strings.Contains(p.Text, "fn read") {
			sig = p.Text
		}
	}
	if sig != "  fn read(&mut self) -> usize" {
		t.Errorf("signature block = %q", sig)
	}
}

func TestFormat_PublicVisibility(t *testing.T) {
	t.Parallel()

	doc := document.Documentation{
		Name:       "open",
		ModPath:    "mycrate::open",
		Visibility: vis(document.Public),
		Inner:      document.Function{Header: "()", Abi: document.AbiRust},
	}
	out := Format(&doc, crate).Render(RenderOptions{Width: 80})
	if !strings.Contains(out, "  pub fn open()") {
		t.Errorf("missing pub signature in:\n%s", out)
	}
}

func TestFormat_TraitLinks(t *testing.T) {
	t.Parallel()

	doc := document.Documentation{
		Name:       "Read",
		ModPath:    "mycrate::io::Read",
		Visibility: vis(document.Public),
		Inner:      document.Trait{},
		Links: map[document.DocType][]document.DocLink{
			document.TraitItemConst:  {{Name: "MAX", Path: "mycrate::io::Read::MAX"}},
			document.TraitItemMethod: {{Name: "read", Path: "mycrate::io::Read::read"}, {Name: "close", Path: "mycrate::io::Read::close"}},
			document.TraitItemType:   {},
			document.TraitItemMacro:  {},
		},
	}

	out := Format(&doc, crate).Render(RenderOptions{Width: 80})
	for _, want := range []string{
		"== Associated Constants",
		"  MAX  (mycrate::io::Read::MAX)",
		"== Methods",
		"  read  (mycrate::io::Read::read)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Associated Types") || strings.Contains(out, "Macros") {
		t.Errorf("empty groups should be omitted:\n%s", out)
	}
	if strings.Index(out, "read  (") > strings.Index(out, "close  (") {
		t.Error("links should keep source order")
	}
	if strings.Index(out, "Associated Constants") > strings.Index(out, "Methods") {
		t.Error("constants should be listed before methods")
	}
}

func TestRender_Plain(t *testing.T) {
	t.Parallel()

	doc := document.Documentation{
		Name:       "LIMIT",
		Attrs:      []string{"The **limit**."},
		ModPath:    "mycrate::LIMIT",
		Visibility: vis(document.Public),
		Inner:      document.Constant{Type: document.TypeRef{Name: "u32"}, Expr: "16"},
	}
	out := Format(&doc, crate).Render(RenderOptions{Width: 40})

	for _, want := range []string{"(mycrate 0.1.0)", "==== Constant mycrate::LIMIT", "----------", "  pub const LIMIT: u32 = 16", "limit"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestPlainMarkdown(t *testing.T) {
	t.Parallel()

	doc := document.Documentation{
		Name:       "io",
		Attrs:      []string{"I/O utilities."},
		ModPath:    "mycrate::io",
		Visibility: vis(document.Public),
		Inner:      document.Module{},
	}
	out := Format(&doc, crate).PlainMarkdown()
	for _, want := range []string{"# Module mycrate::io", "```\n\n  pub mod mycrate::io\n\n```", "I/O utilities."} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestFormatModPath(t *testing.T) {
	t.Parallel()

	out := FormatModPath("mycrate::io").Render(RenderOptions{})
	if out != "==== mycrate::io\n" {
		t.Errorf("got %q", out)
	}
}
