// Package markup formats documentation records for display.
package markup

import (
	"fmt"
	"strings"

	"github.com/jcdickinson/oxidoc/internal/document"
)

// PartKind is the kind of one display element.
type PartKind int

const (
	Header PartKind = iota
	Section
	Block
	Markdown
	Rule
	LineBreak
)

// Part is one display element. Width is only used by Rule.
type Part struct {
	Kind  PartKind
	Text  string
	Width int
}

// MarkupDoc is an ordered list of display elements.
type MarkupDoc struct {
	Parts []Part
}

func (m *MarkupDoc) add(parts ...Part) {
	m.Parts = append(m.Parts, parts...)
}

// Format lays out a record: the crate and kind header, where the record
// comes from, its signature, linked members, then its doc comment.
func Format(doc *document.Documentation, crate document.CrateInfo) MarkupDoc {
	var m MarkupDoc
	m.add(
		Part{Kind: Block, Text: fmt.Sprintf("(%s)", crate)},
		Part{Kind: Header, Text: fmt.Sprintf("%s %s", kindTitle(doc.Inner), doc.ModPath)},
	)
	m.add(innerInfo(doc))
	m.add(
		Part{Kind: Rule, Width: 10},
		Part{Kind: LineBreak},
		Part{Kind: Block, Text: "  " + strings.TrimLeft(visKeyword(doc.Visibility)+" "+Signature(doc), " ")},
		Part{Kind: LineBreak},
		Part{Kind: Rule, Width: 10},
		Part{Kind: LineBreak},
	)
	m.add(linkSections(doc)...)
	m.add(Part{Kind: Markdown, Text: strings.Join(doc.Attrs, "\n")})
	return m
}

// FormatModPath renders a bare module path as a header.
func FormatModPath(p document.ModPath) MarkupDoc {
	return MarkupDoc{Parts: []Part{{Kind: Header, Text: p.String()}}}
}

func kindTitle(inner document.InnerData) string {
	switch inner.(type) {
	case document.Function:
		return "Function"
	case document.Struct:
		return "Struct"
	case document.Constant:
		return "Constant"
	case document.Enum:
		return "Enum"
	case document.Trait:
		return "Trait"
	case document.TraitItem:
		return "Trait Item"
	case document.Module:
		return "Module"
	default:
		panic(fmt.Sprintf("markup: unhandled inner data %T", inner))
	}
}

func innerInfo(doc *document.Documentation) Part {
	switch doc.Inner.(type) {
	case document.TraitItem:
		if parent, ok := doc.ModPath.Parent(); ok {
			return Part{Kind: Header, Text: fmt.Sprintf("From trait %s", parent)}
		}
		return Part{Kind: LineBreak}
	case document.Function, document.Struct, document.Constant, document.Enum,
		document.Trait, document.Module:
		return Part{Kind: LineBreak}
	default:
		panic(fmt.Sprintf("markup: unhandled inner data %T", doc.Inner))
	}
}

func visKeyword(v *document.Visibility) string {
	if v == nil {
		return ""
	}
	return v.Keyword()
}

// Signature renders the declaration line of a record.
func Signature(doc *document.Documentation) string {
	switch inner := doc.Inner.(type) {
	case document.Function:
		return qualifiers(inner.Constness, inner.Unsafety, inner.Abi) + "fn " + doc.Name + inner.Header
	case document.Module:
		return "mod " + doc.ModPath.String()
	case document.Enum:
		return "enum " + doc.Name
	case document.Struct:
		return "struct " + doc.Name + " { /* fields omitted */ }"
	case document.Constant:
		return fmt.Sprintf("const %s: %s = %s", doc.Name, inner.Type.Name, inner.Expr)
	case document.Trait:
		prefix := ""
		if inner.Unsafety == document.Unsafe {
			prefix = "unsafe "
		}
		return prefix + "trait " + doc.Name + " { /* items omitted */ }"
	case document.TraitItem:
		return traitItemSignature(doc.Name, inner.Node)
	default:
		panic(fmt.Sprintf("markup: unhandled inner data %T", doc.Inner))
	}
}

func traitItemSignature(name string, node document.TraitItemKind) string {
	switch n := node.(type) {
	case document.TraitConst:
		s := fmt.Sprintf("const %s: %s", name, n.Type.Name)
		if n.Expr != nil {
			s += " = " + *n.Expr
		}
		return s
	case document.TraitMethod:
		return qualifiers(n.Sig.Constness, n.Sig.Unsafety, n.Sig.Abi) + "fn " + name + n.Sig.Header
	case document.TraitType:
		if n.Type == nil {
			return "type " + name
		}
		return "type " + name + " = " + n.Type.Name
	case document.TraitMacro:
		return "macro " + name + " " + n.Mac
	default:
		panic(fmt.Sprintf("markup: unhandled trait item kind %T", node))
	}
}

// qualifiers spells the const, unsafe and extern prefixes of a function.
// The default Rust convention is not written.
func qualifiers(c document.Constness, u document.Unsafety, abi document.Abi) string {
	var b strings.Builder
	if c == document.Const {
		b.WriteString("const ")
	}
	if u == document.Unsafe {
		b.WriteString("unsafe ")
	}
	if abi != document.AbiRust {
		fmt.Fprintf(&b, "extern %q ", abi.String())
	}
	return b.String()
}

var docTypeTitles = map[document.DocType]string{
	document.TraitItemConst:  "Associated Constants",
	document.TraitItemType:   "Associated Types",
	document.TraitItemMethod: "Methods",
	document.TraitItemMacro:  "Macros",
}

func linkSections(doc *document.Documentation) []Part {
	var parts []Part
	for _, dt := range document.TraitItemDocTypes {
		links := doc.Links[dt]
		if len(links) == 0 {
			continue
		}
		parts = append(parts, Part{Kind: Section, Text: docTypeTitles[dt]})
		for _, l := range links {
			parts = append(parts, Part{Kind: Block, Text: fmt.Sprintf("  %s  (%s)", l.Name, l.Path)})
		}
		parts = append(parts, Part{Kind: LineBreak})
	}
	return parts
}
