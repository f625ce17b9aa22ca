package markdown

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	gm "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	gmparser "github.com/gomarkdown/markdown/parser"
)

// URIScheme prefixes links to documentation records.
const URIScheme = "odoc://"

var refDefRe = regexp.MustCompile(`^(\s{0,3}\[[^\]]+\]:\s*<?)([^\s>]+)`)

// RewriteLinks points the links in src at documentation URIs. links maps a
// link destination, or the label of a shortcut reference such as [`Vec`],
// to its URI. A destination with a #fragment that is not mapped itself is
// resolved by its base and keeps the fragment. Destinations already using
// URIScheme and text inside code are left alone.
func RewriteLinks(src string, links map[string]string) string {
	if len(links) == 0 {
		return src
	}
	dests := linkDestinations(src, links)

	lines := strings.Split(src, "\n")
	fenced := false
	changed := false
	for i, line := range lines {
		if isFence(line) {
			fenced = !fenced
			continue
		}
		if fenced {
			continue
		}

		var out string
		if m := refDefRe.FindStringSubmatchIndex(line); m != nil {
			out = line
			if uri, ok := dests[line[m[4]:m[5]]]; ok {
				out = line[:m[4]] + uri + line[m[5]:]
			}
		} else {
			out = rewriteLine(line, dests, links)
		}
		if out != line {
			lines[i] = out
			changed = true
		}
	}
	if !changed {
		return src
	}
	return strings.Join(lines, "\n")
}

// linkDestinations collects the destinations of the links gomarkdown finds
// in src that resolve through links.
func linkDestinations(src string, links map[string]string) map[string]string {
	doc := gm.Parse([]byte(src), gmparser.NewWithExtensions(
		gmparser.CommonExtensions|gmparser.Autolink,
	))

	dests := map[string]string{}
	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		link, ok := node.(*ast.Link)
		if !entering || !ok {
			return ast.GoToNext
		}
		dest := string(link.Destination)
		if uri, ok := resolveDest(dest, links); ok {
			dests[dest] = uri
		}
		return ast.GoToNext
	})
	return dests
}

func resolveDest(dest string, links map[string]string) (string, bool) {
	if dest == "" || strings.HasPrefix(dest, URIScheme) {
		return "", false
	}
	if uri, ok := links[dest]; ok {
		return uri, true
	}
	base, frag, ok := strings.Cut(dest, "#")
	if !ok || base == "" {
		return "", false
	}
	uri, ok := links[base]
	if !ok || strings.Contains(uri, "#") {
		return "", false
	}
	return uri + "#" + frag, true
}

func isFence(line string) bool {
	t := strings.TrimSpace(line)
	return strings.HasPrefix(t, "```") || strings.HasPrefix(t, "~~~")
}

// rewriteLine replaces inline link destinations found in dests and turns
// shortcut references whose label is in links into inline links.
// [text][label] becomes [text](uri) when label resolves.
func rewriteLine(line string, dests, links map[string]string) string {
	code := codeSpans(line)
	var b strings.Builder
	last, open := 0, -1

	for i := 0; i < len(line); i++ {
		if code[i] {
			continue
		}
		switch line[i] {
		case '[':
			open = i
		case ']':
			start := open
			open = -1
			next := byte(0)
			if i+1 < len(line) {
				next = line[i+1]
			}

			if next == '(' {
				destStart := i + 2
				n := strings.IndexAny(line[destStart:], " )")
				if n < 0 {
					continue
				}
				destEnd := destStart + n
				if uri, ok := dests[line[destStart:destEnd]]; ok {
					b.WriteString(line[last:destStart])
					b.WriteString(uri)
					last = destEnd
				}
				i = destEnd - 1
				continue
			}
			if start < 0 || next == '[' || next == ':' {
				continue
			}

			uri, ok := links[line[start+1:i]]
			if !ok || uri == "" {
				continue
			}
			if start > 0 && line[start-1] == ']' {
				b.WriteString(line[last:start])
			} else {
				b.WriteString(line[last : i+1])
			}
			b.WriteString("(" + uri + ")")
			last = i + 1
		}
	}

	if last == 0 {
		return line
	}
	b.WriteString(line[last:])
	return b.String()
}

// codeSpans marks the bytes of line that sit inside backtick code spans.
func codeSpans(line string) []bool {
	in := make([]bool, len(line))
	for i := 0; i < len(line); {
		if line[i] != '`' {
			i++
			continue
		}
		n := 1
		for i+n < len(line) && line[i+n] == '`' {
			n++
		}
		closing := strings.Index(line[i+n:], strings.Repeat("`", n))
		if closing < 0 {
			i += n
			continue
		}
		end := i + n + closing + n
		for j := i; j < end; j++ {
			in[j] = true
		}
		i = end
	}
	return in
}

// AddFrontMatter prepends a YAML front-matter block of key: value pairs,
// sorted by key.
func AddFrontMatter(src string, meta map[string]string) string {
	if len(meta) == 0 {
		return src
	}

	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("---\n")
	for _, k := range keys {
		b.WriteString(fmt.Sprintf("%s: %s\n", k, meta[k]))
	}
	b.WriteString("---\n\n")
	b.WriteString(src)
	return b.String()
}
