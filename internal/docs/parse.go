package docs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"

	"github.com/jcdickinson/oxidoc/internal/ast"
	"github.com/jcdickinson/oxidoc/internal/document"
	"github.com/jcdickinson/oxidoc/internal/markdown"
)

// Parse decodes rustdoc JSON bytes.
func Parse(data []byte) (*RustdocCrate, error) {
	var crate RustdocCrate
	if err := json.Unmarshal(data, &crate); err != nil {
		return nil, fmt.Errorf("unmarshaling rustdoc JSON: %w", err)
	}
	if crate.Index == nil {
		return nil, fmt.Errorf("rustdoc JSON has no index")
	}
	return &crate, nil
}

// BuildModule turns the crate's module tree into a syntax tree rooted at the
// crate module. Only items defined in the crate itself are included; impl
// blocks, re-exports and kinds the converter does not model are skipped.
func BuildModule(crate *RustdocCrate, crateName string) (*ast.Module, error) {
	rootID := strconv.Itoa(crate.Root)
	root, ok := crate.Index[rootID]
	if !ok {
		return nil, fmt.Errorf("root item %s not in index", rootID)
	}
	if unwrapInner(root.Inner, "module") == nil {
		return nil, fmt.Errorf("root item %s is a %s, not a module", rootID, innerKind(root.Inner))
	}

	libName := strings.ReplaceAll(crateName, "-", "_")
	if root.Name != nil && *root.Name != "" {
		libName = *root.Name
	}

	b := &builder{crate: crate, seen: map[int]bool{}}
	m := b.module(&root, document.NewModPath(libName))
	m.Ident = nil
	m.IsCrate = true
	return &m, nil
}

type builder struct {
	crate *RustdocCrate
	seen  map[int]bool
}

func (b *builder) module(item *RustdocItem, path document.ModPath) ast.Module {
	b.seen[item.ID] = true

	m := ast.Module{
		Ident: item.Name,
		Attrs: b.docAttrs(item),
		Path:  path,
		Vis:   visibilityOf(item.Visibility),
	}

	var mod struct {
		IsCrate bool  `json:"is_crate"`
		Items   []int `json:"items"`
	}
	if err := json.Unmarshal(unwrapInner(item.Inner, "module"), &mod); err != nil {
		slog.Debug("skipping malformed module", "path", path, "error", err)
		return m
	}
	m.IsCrate = mod.IsCrate

	for _, id := range mod.Items {
		child, ok := b.crate.Index[strconv.Itoa(id)]
		if !ok || child.CrateID != 0 || child.Name == nil || b.seen[id] {
			continue
		}
		childPath := path.Child(*child.Name)

		switch kind := innerKind(child.Inner); kind {
		case "module":
			m.Mods = append(m.Mods, b.module(&child, childPath))
		case "constant":
			if c, ok := b.constant(&child, childPath); ok {
				m.Consts = append(m.Consts, c)
			}
		case "function":
			if fn, ok := b.function(&child, childPath); ok {
				m.Fns = append(m.Fns, fn)
			}
		case "trait":
			if t, ok := b.trait(&child, childPath); ok {
				m.Traits = append(m.Traits, t)
			}
		case "struct":
			if st, ok := b.structure(&child, childPath); ok {
				m.Structs = append(m.Structs, st)
			}
		default:
			slog.Debug("skipping item", "path", childPath, "kind", kind)
		}
	}
	return m
}

func (b *builder) constant(item *RustdocItem, path document.ModPath) (ast.Constant, bool) {
	var c struct {
		Type  json.RawMessage `json:"type"`
		Const *struct {
			Expr string `json:"expr"`
		} `json:"const"`
		Expr string `json:"expr"`
	}
	if err := json.Unmarshal(unwrapInner(item.Inner, "constant"), &c); err != nil {
		slog.Debug("skipping malformed constant", "path", path, "error", err)
		return ast.Constant{}, false
	}

	expr := c.Expr
	if c.Const != nil {
		expr = c.Const.Expr
	}
	return ast.Constant{
		Ident: *item.Name,
		Attrs: b.docAttrs(item),
		Path:  path,
		Vis:   visibilityOf(item.Visibility),
		Type:  ast.Ty{Text: TypeText(c.Type, b.crate)},
		Expr:  ast.Expr{Text: expr},
	}, true
}

func (b *builder) function(item *RustdocItem, path document.ModPath) (ast.Function, bool) {
	var fn rustdocFunction
	if err := json.Unmarshal(unwrapInner(item.Inner, "function"), &fn); err != nil {
		slog.Debug("skipping malformed function", "path", path, "error", err)
		return ast.Function{}, false
	}
	return ast.Function{
		Ident:     *item.Name,
		Attrs:     b.docAttrs(item),
		Path:      path,
		Vis:       visibilityOf(item.Visibility),
		Decl:      fn.decl(b.crate),
		Generics:  fn.Generics.toAST(),
		Unsafety:  fn.unsafety(),
		Constness: fn.constness(),
		Abi:       abiOf(fn.Header.Abi),
	}, true
}

func (b *builder) trait(item *RustdocItem, path document.ModPath) (ast.Trait, bool) {
	var tr struct {
		IsUnsafe bool            `json:"is_unsafe"`
		Items    []int           `json:"items"`
		Generics rustdocGenerics `json:"generics"`
	}
	if err := json.Unmarshal(unwrapInner(item.Inner, "trait"), &tr); err != nil {
		slog.Debug("skipping malformed trait", "path", path, "error", err)
		return ast.Trait{}, false
	}

	t := ast.Trait{
		Ident:    *item.Name,
		Attrs:    b.docAttrs(item),
		Path:     path,
		Vis:      visibilityOf(item.Visibility),
		Generics: tr.Generics.toAST(),
	}
	if tr.IsUnsafe {
		t.Unsafety = ast.UnsafetyUnsafe
	}

	for _, id := range tr.Items {
		member, ok := b.crate.Index[strconv.Itoa(id)]
		if !ok || member.Name == nil {
			continue
		}
		if ti, ok := b.traitItem(&member, path.Child(*member.Name)); ok {
			t.Items = append(t.Items, ti)
		}
	}
	return t, true
}

func (b *builder) traitItem(item *RustdocItem, path document.ModPath) (ast.TraitItem, bool) {
	ti := ast.TraitItem{
		Ident: *item.Name,
		Attrs: b.docAttrs(item),
		Path:  path,
	}

	switch kind := innerKind(item.Inner); kind {
	case "function":
		var fn rustdocFunction
		if err := json.Unmarshal(unwrapInner(item.Inner, "function"), &fn); err != nil {
			slog.Debug("skipping malformed trait method", "path", path, "error", err)
			return ti, false
		}
		method := ast.MethodItem{Sig: ast.MethodSig{
			Unsafety:  fn.unsafety(),
			Constness: fn.constness(),
			Abi:       abiOf(fn.Header.Abi),
			Decl:      fn.decl(b.crate),
		}}
		if fn.HasBody {
			body := "{ ... }"
			method.Body = &body
		}
		ti.Node = method
	case "assoc_const":
		var c struct {
			Type    json.RawMessage `json:"type"`
			Value   *string         `json:"value"`
			Default *string         `json:"default"`
		}
		if err := json.Unmarshal(unwrapInner(item.Inner, kind), &c); err != nil {
			slog.Debug("skipping malformed associated const", "path", path, "error", err)
			return ti, false
		}
		node := ast.ConstItem{Type: ast.Ty{Text: TypeText(c.Type, b.crate)}}
		if v := firstNonNil(c.Value, c.Default); v != nil {
			node.Default = &ast.Expr{Text: *v}
		}
		ti.Node = node
	case "assoc_type":
		var at struct {
			Bounds  []json.RawMessage `json:"bounds"`
			Type    json.RawMessage   `json:"type"`
			Default json.RawMessage   `json:"default"`
		}
		if err := json.Unmarshal(unwrapInner(item.Inner, kind), &at); err != nil {
			slog.Debug("skipping malformed associated type", "path", path, "error", err)
			return ti, false
		}
		node := ast.TypeItem{Bounds: BoundsText(at.Bounds, b.crate)}
		switch {
		case isPresent(at.Type):
			node.Default = &ast.Ty{Text: TypeText(at.Type, b.crate)}
		case isPresent(at.Default):
			node.Default = &ast.Ty{Text: TypeText(at.Default, b.crate)}
		}
		ti.Node = node
	default:
		slog.Debug("skipping trait member", "path", path, "kind", kind)
		return ti, false
	}
	return ti, true
}

func firstNonNil(vals ...*string) *string {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func (b *builder) structure(item *RustdocItem, path document.ModPath) (ast.Struct, bool) {
	var st struct {
		Kind     json.RawMessage `json:"kind"`
		Generics rustdocGenerics `json:"generics"`
	}
	if err := json.Unmarshal(unwrapInner(item.Inner, "struct"), &st); err != nil {
		slog.Debug("skipping malformed struct", "path", path, "error", err)
		return ast.Struct{}, false
	}

	s := ast.Struct{
		Ident:    *item.Name,
		Attrs:    b.docAttrs(item),
		Path:     path,
		Vis:      visibilityOf(item.Visibility),
		Generics: st.Generics.toAST(),
	}

	var fieldIDs []*int
	var kind map[string]json.RawMessage
	if json.Unmarshal(st.Kind, &kind) == nil {
		if plain, ok := kind["plain"]; ok {
			var p struct {
				Fields []*int `json:"fields"`
			}
			if err := json.Unmarshal(plain, &p); err != nil {
				slog.Debug("ignoring malformed struct fields", "path", path, "error", err)
			}
			fieldIDs = p.Fields
		} else if tuple, ok := kind["tuple"]; ok {
			if err := json.Unmarshal(tuple, &fieldIDs); err != nil {
				slog.Debug("ignoring malformed tuple fields", "path", path, "error", err)
				fieldIDs = nil
			}
		}
	}

	for _, id := range fieldIDs {
		if id == nil {
			continue
		}
		field, ok := b.crate.Index[strconv.Itoa(*id)]
		if !ok {
			continue
		}
		f := ast.StructField{
			Attrs: b.docAttrs(&field),
			Vis:   visibilityOf(field.Visibility),
			Ty:    ast.Ty{Text: TypeText(unwrapInner(field.Inner, "struct_field"), b.crate)},
		}
		// Tuple fields are named by position.
		if field.Name != nil {
			if _, err := strconv.Atoi(*field.Name); err != nil {
				f.Ident = field.Name
			}
		}
		s.Fields = append(s.Fields, f)
	}
	return s, true
}

// docAttrs returns the item's doc comment as a single doc attribute, with
// intra-doc and docs.rs links rewritten to odoc:// URIs.
func (b *builder) docAttrs(item *RustdocItem) []ast.Attribute {
	if item.Docs == nil || *item.Docs == "" {
		return nil
	}
	links := ResolveDocLinks(item, b.crate)
	if urls := ResolveDocsRsURLs(*item.Docs); urls != nil {
		if links == nil {
			links = map[string]string{}
		}
		maps.Copy(links, urls)
	}
	return []ast.Attribute{ast.DocAttr(markdown.RewriteLinks(*item.Docs, links))}
}

// visibilityOf maps rustdoc's visibility: "public", "default" (no
// qualifier, e.g. trait and enum members), "crate", or {"restricted": ...}.
func visibilityOf(raw json.RawMessage) ast.Visibility {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		if isPresent(raw) {
			return ast.VisRestricted
		}
		return ast.VisInherited
	}
	switch s {
	case "public":
		return ast.VisPublic
	case "crate":
		return ast.VisCrate
	default:
		return ast.VisInherited
	}
}

// innerKind extracts the kind from the inner JSON's single key.
func innerKind(inner json.RawMessage) string {
	if len(inner) == 0 {
		return "unknown"
	}
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(inner, &outer); err != nil {
		// Unit variants serialize as a bare string.
		var s string
		if json.Unmarshal(inner, &s) == nil && s != "" {
			return s
		}
		return "unknown"
	}
	for k := range outer {
		return k
	}
	return "unknown"
}

func unwrapInner(inner json.RawMessage, kind string) json.RawMessage {
	if len(inner) == 0 {
		return nil
	}
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(inner, &outer); err != nil {
		return nil
	}
	return outer[kind]
}
