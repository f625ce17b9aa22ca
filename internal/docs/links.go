package docs

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/jcdickinson/oxidoc/internal/markdown"
)

// URIScheme prefixes every resolved documentation link.
const URIScheme = markdown.URIScheme

// ResolveDocLinks resolves rustdoc intra-doc links to odoc:// URIs.
// The item's Links field maps markdown target text (e.g. "Value::as_str") to
// item IDs in the crate index; each ID is looked up in Paths to get the full
// path.
func ResolveDocLinks(item *RustdocItem, crate *RustdocCrate) map[string]string {
	if len(item.Links) == 0 {
		return nil
	}

	resolved := make(map[string]string, len(item.Links))
	for markdownTarget, itemID := range item.Links {
		uri := ResolveItemURI(itemID, crate)
		if uri == "" {
			continue
		}
		resolved[markdownTarget] = uri
	}

	if len(resolved) == 0 {
		return nil
	}
	return resolved
}

// ResolveItemURI builds an odoc:// URI for a given rustdoc item ID.
// Returns "" if the item can't be resolved.
func ResolveItemURI(itemID int, crate *RustdocCrate) string {
	summary, ok := crate.Paths[strconv.Itoa(itemID)]
	if !ok || len(summary.Path) == 0 {
		return ""
	}
	return URIScheme + strings.Join(summary.Path, "::")
}

// docsRsRe matches docs.rs documentation URLs in markdown text.
// Captures everything up to whitespace or markdown link delimiters.
var docsRsRe = regexp.MustCompile(`https?://docs\.rs/[^\s)\]>]+`)

// ResolveDocsRsURLs scans doc text for docs.rs URLs and returns a mapping
// from each URL to its equivalent odoc:// URI.
func ResolveDocsRsURLs(docs string) map[string]string {
	matches := docsRsRe.FindAllString(docs, -1)
	if len(matches) == 0 {
		return nil
	}

	resolved := make(map[string]string)
	for _, fullURL := range matches {
		if uri := docsRsToOdoc(fullURL); uri != "" {
			resolved[fullURL] = uri
		}
	}

	if len(resolved) == 0 {
		return nil
	}
	return resolved
}

// docsRsToOdoc converts a single docs.rs URL to an odoc:// URI.
// Returns "" if the URL can't be converted (e.g. crate info pages).
func docsRsToOdoc(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	path := strings.TrimPrefix(u.Path, "/")
	path = strings.TrimSuffix(path, "/")

	if strings.HasPrefix(path, "crate/") {
		return ""
	}

	// <package>/<version>/<lib path...>
	parts := strings.SplitN(path, "/", 3)
	if len(parts) < 3 {
		return ""
	}

	segments := strings.Split(parts[2], "/")
	for len(segments) > 0 && segments[len(segments)-1] == "" {
		segments = segments[:len(segments)-1]
	}
	if len(segments) == 0 {
		return ""
	}

	// Last segment: index.html (module) or {kind}.{Name}.html (item)
	last := segments[len(segments)-1]
	if strings.HasSuffix(last, ".html") {
		if last == "index.html" {
			segments = segments[:len(segments)-1]
		} else {
			base := strings.TrimSuffix(last, ".html")
			if dotIdx := strings.Index(base, "."); dotIdx >= 0 {
				segments[len(segments)-1] = base[dotIdx+1:]
			}
		}
	}

	if len(segments) == 0 {
		return ""
	}
	return URIScheme + strings.Join(segments, "::")
}
