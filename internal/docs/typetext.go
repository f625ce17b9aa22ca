package docs

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// TypeText renders a rustdoc Type JSON value as Rust source text. Unknown
// shapes render as "_".
func TypeText(typeJSON json.RawMessage, crate *RustdocCrate) string {
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(typeJSON, &outer); err != nil {
		return "_"
	}

	for kind, data := range outer {
		switch kind {
		case "resolved_path":
			return formatResolvedPath(data, crate)
		case "primitive", "generic":
			var name string
			if err := json.Unmarshal(data, &name); err == nil {
				return name
			}
		case "dyn_trait":
			return formatDynTrait(data, crate)
		case "borrowed_ref":
			return formatBorrowedRef(data, crate)
		case "raw_pointer":
			return formatRawPointer(data, crate)
		case "slice":
			return "[" + TypeText(data, crate) + "]"
		case "array":
			return formatArray(data, crate)
		case "qualified_path":
			return formatQualifiedPath(data, crate)
		case "tuple":
			return formatTuple(data, crate)
		case "impl_trait":
			return formatImplTrait(data, crate)
		}
	}
	return "_"
}

func formatResolvedPath(resolved json.RawMessage, crate *RustdocCrate) string {
	var rp pathRef
	if err := json.Unmarshal(resolved, &rp); err != nil {
		return "_"
	}

	// Newer format versions use "path", older ones "name"; either may be
	// empty, in which case the paths table has it.
	name := rp.Path
	if name == "" {
		name = rp.Name
	}
	if name == "" {
		if summary, ok := crate.Paths[strconv.Itoa(rp.ID)]; ok && len(summary.Path) > 0 {
			name = summary.Path[len(summary.Path)-1]
		}
	}
	if name == "" {
		return "_"
	}

	if rp.Args != nil {
		name += formatGenericArgs(*rp.Args, crate)
	}
	return name
}

func formatGenericArgs(argsJSON json.RawMessage, crate *RustdocCrate) string {
	var args struct {
		AngleBracketed *struct {
			Args []json.RawMessage `json:"args"`
		} `json:"angle_bracketed"`
	}
	if err := json.Unmarshal(argsJSON, &args); err != nil || args.AngleBracketed == nil {
		return ""
	}

	var parts []string
	for _, arg := range args.AngleBracketed.Args {
		var a map[string]json.RawMessage
		if err := json.Unmarshal(arg, &a); err != nil {
			continue
		}
		if typeData, ok := a["type"]; ok {
			parts = append(parts, TypeText(typeData, crate))
		} else if lifetime, ok := a["lifetime"]; ok {
			var lt string
			if json.Unmarshal(lifetime, &lt) == nil {
				parts = append(parts, lt)
			}
		} else if c, ok := a["const"]; ok {
			var cv struct {
				Expr string `json:"expr"`
			}
			if json.Unmarshal(c, &cv) == nil {
				parts = append(parts, cv.Expr)
			}
		}
	}

	if len(parts) == 0 {
		return ""
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

// pathRef is a rustdoc Path: a reference to a trait or type by name.
type pathRef struct {
	Name string           `json:"name"`
	Path string           `json:"path"`
	ID   int              `json:"id"`
	Args *json.RawMessage `json:"args"`
}

func traitName(t pathRef, crate *RustdocCrate) string {
	name := t.Path
	if name == "" {
		name = t.Name
	}
	if t.Args != nil {
		name += formatGenericArgs(*t.Args, crate)
	}
	return name
}

func formatDynTrait(dt json.RawMessage, crate *RustdocCrate) string {
	var d struct {
		Traits []struct {
			Trait pathRef `json:"trait"`
		} `json:"traits"`
		Lifetime *string `json:"lifetime"`
	}
	if err := json.Unmarshal(dt, &d); err != nil || len(d.Traits) == 0 {
		return "_"
	}

	parts := make([]string, 0, len(d.Traits)+1)
	for _, t := range d.Traits {
		parts = append(parts, traitName(t.Trait, crate))
	}
	if d.Lifetime != nil && *d.Lifetime != "" {
		parts = append(parts, *d.Lifetime)
	}

	return "dyn " + strings.Join(parts, " + ")
}

func formatImplTrait(it json.RawMessage, crate *RustdocCrate) string {
	var bounds []json.RawMessage
	if err := json.Unmarshal(it, &bounds); err != nil {
		return "_"
	}
	names := BoundsText(bounds, crate)
	if len(names) == 0 {
		return "_"
	}
	return "impl " + strings.Join(names, " + ")
}

// BoundsText renders each GenericBound: trait bounds by path, outlives
// bounds by lifetime.
func BoundsText(bounds []json.RawMessage, crate *RustdocCrate) []string {
	var out []string
	for _, b := range bounds {
		var bound struct {
			TraitBound *struct {
				Trait    pathRef `json:"trait"`
				Modifier string  `json:"modifier"`
			} `json:"trait_bound"`
			Outlives *string `json:"outlives"`
		}
		if err := json.Unmarshal(b, &bound); err != nil {
			continue
		}
		switch {
		case bound.TraitBound != nil:
			name := traitName(bound.TraitBound.Trait, crate)
			if bound.TraitBound.Modifier == "maybe" {
				name = "?" + name
			}
			out = append(out, name)
		case bound.Outlives != nil:
			out = append(out, *bound.Outlives)
		}
	}
	return out
}

func formatBorrowedRef(br json.RawMessage, crate *RustdocCrate) string {
	var r struct {
		Lifetime  *string         `json:"lifetime"`
		IsMutable bool            `json:"is_mutable"`
		Type      json.RawMessage `json:"type"`
	}
	if err := json.Unmarshal(br, &r); err != nil {
		return "_"
	}

	prefix := "&"
	if r.Lifetime != nil && *r.Lifetime != "" {
		prefix += *r.Lifetime + " "
	}
	if r.IsMutable {
		prefix += "mut "
	}
	return prefix + TypeText(r.Type, crate)
}

func formatRawPointer(rp json.RawMessage, crate *RustdocCrate) string {
	var p struct {
		IsMutable bool            `json:"is_mutable"`
		Type      json.RawMessage `json:"type"`
	}
	if err := json.Unmarshal(rp, &p); err != nil {
		return "_"
	}
	if p.IsMutable {
		return "*mut " + TypeText(p.Type, crate)
	}
	return "*const " + TypeText(p.Type, crate)
}

func formatArray(arr json.RawMessage, crate *RustdocCrate) string {
	var a struct {
		Type json.RawMessage `json:"type"`
		Len  string          `json:"len"`
	}
	if err := json.Unmarshal(arr, &a); err != nil {
		return "_"
	}
	return fmt.Sprintf("[%s; %s]", TypeText(a.Type, crate), a.Len)
}

func formatQualifiedPath(qp json.RawMessage, crate *RustdocCrate) string {
	var q struct {
		Name     string          `json:"name"`
		SelfType json.RawMessage `json:"self_type"`
		Trait    *struct {
			Name string `json:"name"`
			Path string `json:"path"`
			ID   int    `json:"id"`
		} `json:"trait"`
	}
	if err := json.Unmarshal(qp, &q); err != nil {
		return "_"
	}
	selfType := TypeText(q.SelfType, crate)
	if q.Trait != nil {
		name := q.Trait.Path
		if name == "" {
			name = q.Trait.Name
		}
		if name != "" {
			return fmt.Sprintf("<%s as %s>::%s", selfType, name, q.Name)
		}
	}
	return fmt.Sprintf("%s::%s", selfType, q.Name)
}

func formatTuple(tp json.RawMessage, crate *RustdocCrate) string {
	var types []json.RawMessage
	if err := json.Unmarshal(tp, &types); err != nil {
		return "_"
	}
	parts := make([]string, 0, len(types))
	for _, t := range types {
		parts = append(parts, TypeText(t, crate))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
