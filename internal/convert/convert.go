// Package convert turns frontend syntax nodes into documentation records.
//
// Every conversion is total: given a well-formed tree it cannot fail. The
// Context is read-only and threaded through every call.
package convert

import (
	"fmt"
	"strings"

	"github.com/jcdickinson/oxidoc/internal/ast"
	"github.com/jcdickinson/oxidoc/internal/document"
)

// Context is the configuration shared by a conversion run.
type Context struct {
	StorePath string
	CrateInfo document.CrateInfo
}

// Module flattens a module tree. Records come out as: constants, traits,
// functions, each submodule's records in order (depth first), and the
// module's own record last. Structs and the remaining child kinds are not
// emitted here.
func Module(cx *Context, m *ast.Module) []document.Documentation {
	docs := make([]document.Documentation, 0, len(m.Consts)+len(m.Traits)+len(m.Fns)+1)

	for i := range m.Consts {
		docs = append(docs, Constant(cx, &m.Consts[i]))
	}
	for i := range m.Traits {
		docs = append(docs, Trait(cx, &m.Traits[i]))
	}
	for i := range m.Fns {
		docs = append(docs, Function(cx, &m.Fns[i]))
	}
	for i := range m.Mods {
		docs = append(docs, Module(cx, &m.Mods[i])...)
	}

	return append(docs, moduleDoc(cx, m))
}

func moduleDoc(cx *Context, m *ast.Module) document.Documentation {
	name := cx.CrateInfo.Package.Name
	if m.Ident != nil {
		name = *m.Ident
	}
	return document.Documentation{
		Name:       name,
		Attrs:      docStrings(m.Attrs),
		ModPath:    m.Path,
		Visibility: visibility(Visibility(m.Vis)),
		Inner:      document.Module{IsCrate: m.IsCrate},
		Links:      map[document.DocType][]document.DocLink{},
	}
}

// Constant converts a constant, keeping its type and initializer text.
func Constant(cx *Context, c *ast.Constant) document.Documentation {
	return document.Documentation{
		Name:       c.Ident,
		Attrs:      docStrings(c.Attrs),
		ModPath:    c.Path,
		Visibility: visibility(Visibility(c.Vis)),
		Inner: document.Constant{
			Type: document.TypeRef{Name: c.Type.Text},
			Expr: c.Expr.Text,
		},
		Links: map[document.DocType][]document.DocLink{},
	}
}

// Function converts a free function. The header is rendered from the
// declaration; generics are not carried.
func Function(cx *Context, f *ast.Function) document.Documentation {
	return document.Documentation{
		Name:       f.Ident,
		Attrs:      docStrings(f.Attrs),
		ModPath:    f.Path,
		Visibility: visibility(Visibility(f.Vis)),
		Inner: document.Function{
			Header:    fnHeader(f.Decl),
			Generics:  document.Generics{},
			Unsafety:  Unsafety(f.Unsafety),
			Constness: Constness(f.Constness),
			Abi:       Abi(f.Abi),
		},
		Links: map[document.DocType][]document.DocLink{},
	}
}

// Trait converts the trait itself; its members become links, not records.
// Use TraitItems for the member records.
func Trait(cx *Context, t *ast.Trait) document.Documentation {
	return document.Documentation{
		Name:       t.Ident,
		Attrs:      docStrings(t.Attrs),
		ModPath:    t.Path,
		Visibility: visibility(Visibility(t.Vis)),
		Inner:      document.Trait{Unsafety: Unsafety(t.Unsafety)},
		Links:      ClassifyTraitItems(cx, t.Items),
	}
}

// ClassifyTraitItems partitions items into constants, methods, associated
// types and macros. Each item lands in exactly one group, groups keep source
// order, and all four keys are present even when empty.
func ClassifyTraitItems(cx *Context, items []ast.TraitItem) map[document.DocType][]document.DocLink {
	links := map[document.DocType][]document.DocLink{
		document.TraitItemConst:  {},
		document.TraitItemMethod: {},
		document.TraitItemType:   {},
		document.TraitItemMacro:  {},
	}
	for _, item := range items {
		key := traitItemDocType(item.Node)
		links[key] = append(links[key], document.DocLink{Name: item.Ident, Path: item.Path})
	}
	return links
}

func traitItemDocType(node ast.TraitItemKind) document.DocType {
	switch node.(type) {
	case ast.ConstItem:
		return document.TraitItemConst
	case ast.MethodItem:
		return document.TraitItemMethod
	case ast.TypeItem:
		return document.TraitItemType
	case ast.MacroItem:
		return document.TraitItemMacro
	default:
		panic(fmt.Sprintf("convert: unhandled trait item kind %T", node))
	}
}

// TraitItems converts every member of t into its own record.
func TraitItems(cx *Context, t *ast.Trait) []document.Documentation {
	docs := make([]document.Documentation, 0, len(t.Items))
	for i := range t.Items {
		docs = append(docs, TraitItem(cx, &t.Items[i]))
	}
	return docs
}

// TraitItem converts one trait member. Trait members have no visibility of
// their own, so it is always Inherited. Bodies and bounds are dropped.
func TraitItem(cx *Context, item *ast.TraitItem) document.Documentation {
	return document.Documentation{
		Name:       item.Ident,
		Attrs:      docStrings(item.Attrs),
		ModPath:    item.Path,
		Visibility: visibility(document.Inherited),
		Inner:      document.TraitItem{Node: traitItemKind(item.Node)},
		Links:      map[document.DocType][]document.DocLink{},
	}
}

func traitItemKind(node ast.TraitItemKind) document.TraitItemKind {
	switch n := node.(type) {
	case ast.ConstItem:
		c := document.TraitConst{Type: document.TypeRef{Name: n.Type.Text}}
		if n.Default != nil {
			expr := n.Default.Text
			c.Expr = &expr
		}
		return c
	case ast.MethodItem:
		return document.TraitMethod{Sig: methodSig(n.Sig)}
	case ast.TypeItem:
		return document.TraitType{Type: assocType(n)}
	case ast.MacroItem:
		return document.TraitMacro{Mac: macString(n.Mac)}
	default:
		panic(fmt.Sprintf("convert: unhandled trait item kind %T", node))
	}
}

func methodSig(sig ast.MethodSig) document.MethodSig {
	return document.MethodSig{
		Unsafety:  Unsafety(sig.Unsafety),
		Constness: Constness(sig.Constness),
		Abi:       Abi(sig.Abi),
		Header:    fnHeader(sig.Decl),
	}
}

// assocType prefers the default type and falls back to the bound names.
func assocType(t ast.TypeItem) *document.TypeRef {
	if t.Default != nil {
		return &document.TypeRef{Name: t.Default.Text}
	}
	if len(t.Bounds) > 0 {
		return &document.TypeRef{Name: strings.Join(t.Bounds, " + ")}
	}
	return nil
}

// Struct converts a struct. Field documentation is not collected yet, so
// the field map is always empty.
func Struct(cx *Context, s *ast.Struct) document.Documentation {
	return document.Documentation{
		Name:       s.Ident,
		Attrs:      docStrings(s.Attrs),
		ModPath:    s.Path,
		Visibility: visibility(document.Inherited),
		Inner:      document.Struct{Fields: map[string]document.StructField{}},
		Links:      map[document.DocType][]document.DocLink{},
	}
}

func visibility(v document.Visibility) *document.Visibility {
	return &v
}
