package markdown

import (
	"strings"

	gm "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	gmparser "github.com/gomarkdown/markdown/parser"
)

// Summary returns the text of the first paragraph of src with markup
// removed and whitespace collapsed. Headings, code blocks and lists before
// the first paragraph are skipped.
func Summary(src string) string {
	doc := gm.Parse([]byte(src), gmparser.NewWithExtensions(gmparser.CommonExtensions))

	var para ast.Node
	for _, child := range doc.GetChildren() {
		if p, ok := child.(*ast.Paragraph); ok {
			para = p
			break
		}
	}
	if para == nil {
		return ""
	}

	var b strings.Builder
	ast.WalkFunc(para, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		switch n := node.(type) {
		case *ast.Text:
			b.Write(n.Literal)
		case *ast.Code:
			b.Write(n.Literal)
		case *ast.Softbreak, *ast.Hardbreak:
			b.WriteByte(' ')
		}
		return ast.GoToNext
	})
	return strings.Join(strings.Fields(b.String()), " ")
}
