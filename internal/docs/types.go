package docs

import (
	"encoding/json"
	"strconv"
)

// RustdocCrate is the top-level structure of rustdoc JSON output.
type RustdocCrate struct {
	Root           int                       `json:"root"`
	CrateVersion   *string                   `json:"crate_version"`
	Index          map[string]RustdocItem    `json:"index"`
	Paths          map[string]RustdocSummary `json:"paths"`
	ExternalCrates map[string]ExternalCrate  `json:"external_crates"`
	FormatVersion  int                       `json:"format_version"`
}

// ExternalCrate identifies a dependency crate by name.
type ExternalCrate struct {
	Name        string `json:"name"`
	HTMLRootURL string `json:"html_root_url"`
}

// RustdocItem is a single item in the rustdoc index.
type RustdocItem struct {
	ID         int             `json:"id"`
	CrateID    int             `json:"crate_id"`
	Name       *string         `json:"name"`
	Visibility json.RawMessage `json:"visibility"`
	Docs       *string         `json:"docs"`
	Links      map[string]int  `json:"links"` // markdown text → item ID
	Inner      json.RawMessage `json:"inner"`
}

// RustdocSummary provides the path and kind for an item.
type RustdocSummary struct {
	CrateID int      `json:"crate_id"`
	Path    []string `json:"path"`
	Kind    string   `json:"kind"`
}

// Version returns the crate version recorded by rustdoc, or "" when absent.
func (c *RustdocCrate) Version() string {
	if c.CrateVersion == nil {
		return ""
	}
	return *c.CrateVersion
}

// RootName returns the name of the crate's root module, or "" when the root
// is missing or unnamed.
func (c *RustdocCrate) RootName() string {
	root, ok := c.Index[strconv.Itoa(c.Root)]
	if !ok || root.Name == nil {
		return ""
	}
	return *root.Name
}
