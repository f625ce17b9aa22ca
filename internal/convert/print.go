package convert

import (
	"strings"

	"github.com/jcdickinson/oxidoc/internal/ast"
)

// fnHeader renders parameters and return type the way they are written in
// source: "(&self, key: &str) -> Option<V>".
func fnHeader(decl ast.FnDecl) string {
	var b strings.Builder
	b.WriteString("(")
	params := make([]string, 0, len(decl.Inputs)+1)
	for _, in := range decl.Inputs {
		if in.Ty.Text == "" {
			params = append(params, in.Pat)
			continue
		}
		params = append(params, in.Pat+": "+in.Ty.Text)
	}
	if decl.Variadic {
		params = append(params, "...")
	}
	b.WriteString(strings.Join(params, ", "))
	b.WriteString(")")

	if decl.Output != nil && decl.Output.Text != "" && decl.Output.Text != "()" {
		b.WriteString(" -> ")
		b.WriteString(decl.Output.Text)
	}
	return b.String()
}

var macroClosers = map[byte]byte{'(': ')', '[': ']', '{': '}'}

func macString(m ast.Mac) string {
	open := m.Delim
	if _, ok := macroClosers[open]; !ok {
		open = '('
	}
	return m.Path + "!" + string(open) + m.Tokens + string(macroClosers[open])
}

// docStrings keeps the doc comments among attrs, in order, with comment
// markers removed from sugared forms.
func docStrings(attrs []ast.Attribute) []string {
	docs := make([]string, 0, len(attrs))
	for _, a := range attrs {
		if a.Name != "doc" {
			continue
		}
		if !a.Sugared {
			docs = append(docs, a.Value)
			continue
		}
		docs = append(docs, stripDocMarker(a.Value))
	}
	return docs
}

func stripDocMarker(s string) string {
	switch {
	case strings.HasPrefix(s, "///"), strings.HasPrefix(s, "//!"):
		s = s[3:]
	case strings.HasPrefix(s, "/**"), strings.HasPrefix(s, "/*!"):
		s = strings.TrimSuffix(s[3:], "*/")
	default:
		return s
	}
	return strings.TrimPrefix(s, " ")
}
