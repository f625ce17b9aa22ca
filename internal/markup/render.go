package markup

import (
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// DefaultWidth is used when the output is not a terminal.
const DefaultWidth = 80

var headerStyle = lipgloss.NewStyle().Bold(true)

// RenderOptions controls how a MarkupDoc is turned into text.
type RenderOptions struct {
	// Width is the word-wrap width for markdown bodies.
	Width int
	// Color enables bold headers and styled markdown.
	Color bool
}

// IsTTY returns true if stdout is connected to a terminal
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// TerminalWidth returns the width of stdout, or DefaultWidth when it is not
// a terminal.
func TerminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return DefaultWidth
	}
	return w
}

// StdoutOptions returns options suited to the current stdout.
func StdoutOptions() RenderOptions {
	return RenderOptions{Width: TerminalWidth(), Color: IsTTY()}
}

// Render turns the document into text, one line per part.
func (m MarkupDoc) Render(opts RenderOptions) string {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}

	var b strings.Builder
	for _, p := range m.Parts {
		b.WriteString(renderPart(p, opts))
		b.WriteByte('\n')
	}
	return b.String()
}

func renderPart(p Part, opts RenderOptions) string {
	switch p.Kind {
	case Header:
		return bold("==== "+p.Text, opts)
	case Section:
		return bold("== "+p.Text, opts)
	case Block:
		return p.Text
	case Markdown:
		return renderMarkdown(p.Text, opts)
	case Rule:
		return strings.Repeat("-", p.Width)
	case LineBreak:
		return ""
	default:
		return p.Text
	}
}

func bold(s string, opts RenderOptions) string {
	if !opts.Color {
		return s
	}
	return headerStyle.Render(s)
}

// renderMarkdown renders a doc comment with glamour, falling back to the
// source text if the renderer cannot be built.
func renderMarkdown(src string, opts RenderOptions) string {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(markdownStyle(opts.Color)),
		glamour.WithWordWrap(opts.Width),
	)
	if err != nil {
		return src
	}
	out, err := r.Render(src)
	if err != nil {
		return src
	}
	return strings.TrimRight(out, "\n")
}

func markdownStyle(color bool) ansi.StyleConfig {
	if !color {
		style := styles.ASCIIStyleConfig
		style.Document.BlockPrefix = ""
		style.Document.Margin = nil
		return style
	}
	style := styles.LightStyleConfig
	if termenv.HasDarkBackground() {
		style = styles.DarkStyleConfig
	}
	style.Document.BlockPrefix = ""
	return style
}

// PlainMarkdown renders the document as markdown source: headers become
// markdown headings, blocks are kept verbatim and doc comments are not
// reflowed. Used where the reader renders markdown itself.
func (m MarkupDoc) PlainMarkdown() string {
	var b strings.Builder
	for _, p := range m.Parts {
		switch p.Kind {
		case Header:
			b.WriteString("# " + p.Text)
		case Section:
			b.WriteString("## " + p.Text)
		case Block:
			b.WriteString(p.Text)
		case Markdown:
			b.WriteString(p.Text)
		case Rule:
			b.WriteString("```")
		case LineBreak:
		}
		b.WriteByte('\n')
	}
	return b.String()
}
