package document

import (
	"encoding/json"
	"fmt"
)

type documentationJSON struct {
	Name       string                `json:"name"`
	Attrs      []string              `json:"attrs"`
	ModPath    ModPath               `json:"mod_path"`
	Visibility *Visibility           `json:"visibility,omitempty"`
	Kind       DocKind               `json:"kind"`
	Inner      json.RawMessage       `json:"inner"`
	Links      map[DocType][]DocLink `json:"links,omitempty"`
}

func (d Documentation) MarshalJSON() ([]byte, error) {
	if d.Inner == nil {
		return nil, fmt.Errorf("documentation %s has no inner data", d.ModPath)
	}
	inner, err := json.Marshal(d.Inner)
	if err != nil {
		return nil, fmt.Errorf("encoding %s inner data: %w", d.Inner.Kind(), err)
	}
	attrs := d.Attrs
	if attrs == nil {
		attrs = []string{}
	}
	return json.Marshal(documentationJSON{
		Name:       d.Name,
		Attrs:      attrs,
		ModPath:    d.ModPath,
		Visibility: d.Visibility,
		Kind:       d.Inner.Kind(),
		Inner:      inner,
		Links:      d.Links,
	})
}

func (d *Documentation) UnmarshalJSON(data []byte) error {
	var raw documentationJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	inner, err := decodeInner(raw.Kind, raw.Inner)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", raw.ModPath, err)
	}
	if raw.Links == nil {
		raw.Links = map[DocType][]DocLink{}
	}
	*d = Documentation{
		Name:       raw.Name,
		Attrs:      raw.Attrs,
		ModPath:    raw.ModPath,
		Visibility: raw.Visibility,
		Inner:      inner,
		Links:      raw.Links,
	}
	return nil
}

func decodeInner(kind DocKind, data json.RawMessage) (InnerData, error) {
	switch kind {
	case KindModule:
		return decodeAs[Module](data)
	case KindConstant:
		return decodeAs[Constant](data)
	case KindFunction:
		return decodeAs[Function](data)
	case KindTrait:
		return decodeAs[Trait](data)
	case KindTraitItem:
		return decodeAs[TraitItem](data)
	case KindStruct:
		return decodeAs[Struct](data)
	case KindEnum:
		return decodeAs[Enum](data)
	default:
		return nil, fmt.Errorf("unknown documentation kind %q", kind)
	}
}

func decodeAs[T InnerData](data json.RawMessage) (InnerData, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", v.Kind(), err)
	}
	return v, nil
}

// traitItemJSON flattens TraitItemKind; Kind selects which fields apply.
type traitItemJSON struct {
	Kind DocType    `json:"kind"`
	Type *TypeRef   `json:"type,omitempty"`
	Expr *string    `json:"expr,omitempty"`
	Sig  *MethodSig `json:"sig,omitempty"`
	Mac  string     `json:"mac,omitempty"`
}

func (t TraitItem) MarshalJSON() ([]byte, error) {
	var raw traitItemJSON
	switch n := t.Node.(type) {
	case TraitConst:
		ty := n.Type
		raw = traitItemJSON{Kind: TraitItemConst, Type: &ty, Expr: n.Expr}
	case TraitMethod:
		sig := n.Sig
		raw = traitItemJSON{Kind: TraitItemMethod, Sig: &sig}
	case TraitType:
		raw = traitItemJSON{Kind: TraitItemType, Type: n.Type}
	case TraitMacro:
		raw = traitItemJSON{Kind: TraitItemMacro, Mac: n.Mac}
	case nil:
		return nil, fmt.Errorf("trait item has no node")
	default:
		panic(fmt.Sprintf("document: unhandled trait item kind %T", n))
	}
	return json.Marshal(struct {
		Node traitItemJSON `json:"node"`
	}{raw})
}

func (t *TraitItem) UnmarshalJSON(data []byte) error {
	var wrapper struct {
		Node traitItemJSON `json:"node"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return err
	}
	raw := wrapper.Node
	switch raw.Kind {
	case TraitItemConst:
		var ty TypeRef
		if raw.Type != nil {
			ty = *raw.Type
		}
		t.Node = TraitConst{Type: ty, Expr: raw.Expr}
	case TraitItemMethod:
		if raw.Sig == nil {
			return fmt.Errorf("trait method without signature")
		}
		t.Node = TraitMethod{Sig: *raw.Sig}
	case TraitItemType:
		t.Node = TraitType{Type: raw.Type}
	case TraitItemMacro:
		t.Node = TraitMacro{Mac: raw.Mac}
	default:
		return fmt.Errorf("unknown trait item kind %q", raw.Kind)
	}
	return nil
}
