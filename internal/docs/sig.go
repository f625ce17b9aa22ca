package docs

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/jcdickinson/oxidoc/internal/ast"
)

// rustdocFunction is the payload of a "function" item, free or in a trait.
type rustdocFunction struct {
	Sig struct {
		Inputs      []json.RawMessage `json:"inputs"`
		Output      json.RawMessage   `json:"output"`
		IsCVariadic bool              `json:"is_c_variadic"`
	} `json:"sig"`
	Generics rustdocGenerics `json:"generics"`
	Header   struct {
		IsConst  bool            `json:"is_const"`
		IsUnsafe bool            `json:"is_unsafe"`
		IsAsync  bool            `json:"is_async"`
		Abi      json.RawMessage `json:"abi"`
	} `json:"header"`
	HasBody bool `json:"has_body"`
}

type rustdocGenerics struct {
	Params []struct {
		Name string `json:"name"`
	} `json:"params"`
}

func (g rustdocGenerics) toAST() ast.Generics {
	var out ast.Generics
	for _, p := range g.Params {
		if p.Name != "" {
			out.Params = append(out.Params, p.Name)
		}
	}
	return out
}

// decl builds the parameter list and return type. Self parameters written
// in shorthand ("&mut self") keep that spelling with an empty type.
func (fn *rustdocFunction) decl(crate *RustdocCrate) ast.FnDecl {
	decl := ast.FnDecl{Variadic: fn.Sig.IsCVariadic}
	for _, input := range fn.Sig.Inputs {
		var pair []json.RawMessage
		if err := json.Unmarshal(input, &pair); err != nil || len(pair) < 2 {
			continue
		}
		var paramName string
		json.Unmarshal(pair[0], &paramName)

		if paramName == "self" {
			if short, ok := selfShorthand(pair[1]); ok {
				decl.Inputs = append(decl.Inputs, ast.Arg{Pat: short})
				continue
			}
		}
		decl.Inputs = append(decl.Inputs, ast.Arg{Pat: paramName, Ty: ast.Ty{Text: TypeText(pair[1], crate)}})
	}

	if isPresent(fn.Sig.Output) {
		decl.Output = &ast.Ty{Text: TypeText(fn.Sig.Output, crate)}
	}
	return decl
}

func (fn *rustdocFunction) unsafety() ast.Unsafety {
	if fn.Header.IsUnsafe {
		return ast.UnsafetyUnsafe
	}
	return ast.UnsafetyNormal
}

func (fn *rustdocFunction) constness() ast.Constness {
	if fn.Header.IsConst {
		return ast.ConstnessConst
	}
	return ast.ConstnessNotConst
}

// isPresent reports whether an optional JSON value is set.
func isPresent(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s != "" && s != "null"
}

// selfShorthand converts a self-parameter type to Rust shorthand.
// {"generic": "Self"} → "self", {"borrowed_ref": {is_mutable: true, type: {generic: Self}}} → "&mut self".
// Explicitly typed receivers (self: Box<Self>) are not shorthand.
func selfShorthand(typeJSON json.RawMessage) (string, bool) {
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(typeJSON, &outer); err != nil {
		return "", false
	}
	if g, ok := outer["generic"]; ok {
		var name string
		json.Unmarshal(g, &name)
		return "self", name == "Self"
	}
	if br, ok := outer["borrowed_ref"]; ok {
		var r struct {
			Lifetime  *string         `json:"lifetime"`
			IsMutable bool            `json:"is_mutable"`
			Type      json.RawMessage `json:"type"`
		}
		json.Unmarshal(br, &r)
		if _, ok := selfShorthand(r.Type); !ok {
			return "", false
		}
		prefix := "&"
		if r.Lifetime != nil && *r.Lifetime != "" {
			prefix += *r.Lifetime + " "
		}
		if r.IsMutable {
			prefix += "mut "
		}
		return prefix + "self", true
	}
	return "", false
}

// abiOf maps a rustdoc Abi value to a calling convention. rustdoc writes
// either a bare name ("Rust") or an object keyed by the name
// ({"C": {"unwind": false}}, {"Other": "\"efiapi\""}). Unrecognized
// conventions fall back to Rust.
func abiOf(raw json.RawMessage) ast.Abi {
	if !isPresent(raw) {
		return ast.AbiRust
	}

	var name string
	if json.Unmarshal(raw, &name) != nil {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return ast.AbiRust
		}
		for k, v := range obj {
			name = k
			if k == "Other" {
				json.Unmarshal(v, &name)
				name = strings.Trim(name, `"`)
			}
		}
	}

	abi, ok := ast.LookupAbi(name)
	if !ok {
		slog.Debug("unknown calling convention, using Rust", "abi", name)
	}
	return abi
}
