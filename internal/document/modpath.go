package document

import "strings"

// PathSeparator joins ModPath segments.
const PathSeparator = "::"

// ModPath locates an entity in the module hierarchy, e.g. "serde::de::Visitor".
// It is stored in its canonical joined form so it can be used as a map key.
type ModPath string

// NewModPath joins segments into a ModPath. Empty segments are dropped.
func NewModPath(segments ...string) ModPath {
	kept := make([]string, 0, len(segments))
	for _, s := range segments {
		if s != "" {
			kept = append(kept, s)
		}
	}
	return ModPath(strings.Join(kept, PathSeparator))
}

// ParseModPath accepts a path written with "::" separators.
func ParseModPath(s string) ModPath {
	return NewModPath(strings.Split(strings.TrimSpace(s), PathSeparator)...)
}

// Segments returns the identifier segments. The empty path has none.
func (p ModPath) Segments() []string {
	if p == "" {
		return nil
	}
	return strings.Split(string(p), PathSeparator)
}

// Len is the number of segments.
func (p ModPath) Len() int {
	if p == "" {
		return 0
	}
	return strings.Count(string(p), PathSeparator) + 1
}

// Parent returns the enclosing path. A root (single segment) or empty path
// has no parent.
func (p ModPath) Parent() (ModPath, bool) {
	idx := strings.LastIndex(string(p), PathSeparator)
	if idx < 0 {
		return "", false
	}
	return p[:idx], true
}

// Child appends a segment.
func (p ModPath) Child(name string) ModPath {
	if p == "" {
		return ModPath(name)
	}
	if name == "" {
		return p
	}
	return p + PathSeparator + ModPath(name)
}

// Name returns the last segment.
func (p ModPath) Name() string {
	idx := strings.LastIndex(string(p), PathSeparator)
	if idx < 0 {
		return string(p)
	}
	return string(p[idx+len(PathSeparator):])
}

// IsRoot reports whether the path names a crate root.
func (p ModPath) IsRoot() bool {
	return p != "" && !strings.Contains(string(p), PathSeparator)
}

// HasPrefix reports whether p equals prefix or lies beneath it.
func (p ModPath) HasPrefix(prefix ModPath) bool {
	if prefix == "" || p == prefix {
		return true
	}
	return strings.HasPrefix(string(p), string(prefix)+PathSeparator)
}

func (p ModPath) String() string {
	return string(p)
}
