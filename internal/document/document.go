// Package document defines the normalized documentation model produced by
// the converter and persisted by the store.
package document

// CrateInfo describes the package being documented.
type CrateInfo struct {
	Package Package `json:"package"`
}

// Package is the manifest identity of a crate.
type Package struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

func (c CrateInfo) String() string {
	if c.Package.Version == "" {
		return c.Package.Name
	}
	return c.Package.Name + " " + c.Package.Version
}

// DocKind names an InnerData variant. It is the discriminator in the JSON form.
type DocKind string

const (
	KindModule    DocKind = "module"
	KindConstant  DocKind = "constant"
	KindFunction  DocKind = "function"
	KindTrait     DocKind = "trait"
	KindTraitItem DocKind = "trait_item"
	KindStruct    DocKind = "struct"
	KindEnum      DocKind = "enum"
)

// DocType categorizes the related items stored in Documentation.Links.
type DocType string

const (
	TraitItemConst  DocType = "trait_item_const"
	TraitItemMethod DocType = "trait_item_method"
	TraitItemType   DocType = "trait_item_type"
	TraitItemMacro  DocType = "trait_item_macro"
)

// TraitItemDocTypes lists the link categories of a trait in display order.
var TraitItemDocTypes = []DocType{TraitItemConst, TraitItemType, TraitItemMethod, TraitItemMacro}

// DocLink refers to another record by identity only. Following it requires a
// store lookup.
type DocLink struct {
	Name string  `json:"name"`
	Path ModPath `json:"path"`
}

// Documentation is the unit describing one documented entity.
type Documentation struct {
	Name       string
	Attrs      []string
	ModPath    ModPath
	Visibility *Visibility
	Inner      InnerData
	Links      map[DocType][]DocLink
}

// Kind is the kind of the inner payload.
func (d *Documentation) Kind() DocKind {
	if d.Inner == nil {
		return ""
	}
	return d.Inner.Kind()
}

// InnerData is the kind-specific payload of a record. The set of variants is
// closed; switches over it panic on an unknown variant.
type InnerData interface {
	Kind() DocKind
	isInnerData()
}

type Module struct {
	IsCrate bool `json:"is_crate"`
}

// TypeRef is a type as written in source.
type TypeRef struct {
	Name string `json:"name"`
}

type Constant struct {
	Type TypeRef `json:"type"`
	Expr string  `json:"expr"`
}

// Generics is a placeholder; generic parameters and bounds are not modeled.
type Generics struct{}

type Function struct {
	Header    string    `json:"header"`
	Generics  Generics  `json:"generics"`
	Unsafety  Unsafety  `json:"unsafety"`
	Constness Constness `json:"constness"`
	Abi       Abi       `json:"abi"`
}

type Trait struct {
	Unsafety Unsafety `json:"unsafety"`
}

type TraitItem struct {
	Node TraitItemKind `json:"node"`
}

// StructField is reserved for field documentation.
type StructField struct {
	Type  TypeRef  `json:"type"`
	Attrs []string `json:"attrs,omitempty"`
}

type Struct struct {
	Fields map[string]StructField `json:"fields"`
}

// Enum is reserved; no conversion produces it yet.
type Enum struct {
	Variants []string `json:"variants"`
}

func (Module) Kind() DocKind    { return KindModule }
func (Constant) Kind() DocKind  { return KindConstant }
func (Function) Kind() DocKind  { return KindFunction }
func (Trait) Kind() DocKind     { return KindTrait }
func (TraitItem) Kind() DocKind { return KindTraitItem }
func (Struct) Kind() DocKind    { return KindStruct }
func (Enum) Kind() DocKind      { return KindEnum }

func (Module) isInnerData()    {}
func (Constant) isInnerData()  {}
func (Function) isInnerData()  {}
func (Trait) isInnerData()     {}
func (TraitItem) isInnerData() {}
func (Struct) isInnerData()    {}
func (Enum) isInnerData()      {}

// MethodSig is the signature of a trait method without its body.
type MethodSig struct {
	Unsafety  Unsafety  `json:"unsafety"`
	Constness Constness `json:"constness"`
	Abi       Abi       `json:"abi"`
	Header    string    `json:"header"`
}

// TraitItemKind is the classified node of a trait member.
type TraitItemKind interface {
	DocType() DocType
	isTraitItemKind()
}

// TraitConst is an associated constant with an optional default value.
type TraitConst struct {
	Type TypeRef `json:"type"`
	Expr *string `json:"expr,omitempty"`
}

type TraitMethod struct {
	Sig MethodSig `json:"sig"`
}

// TraitType is an associated type with an optional default.
type TraitType struct {
	Type *TypeRef `json:"type,omitempty"`
}

// TraitMacro is a macro invocation in trait position, kept as source text.
type TraitMacro struct {
	Mac string `json:"mac"`
}

func (TraitConst) DocType() DocType  { return TraitItemConst }
func (TraitMethod) DocType() DocType { return TraitItemMethod }
func (TraitType) DocType() DocType   { return TraitItemType }
func (TraitMacro) DocType() DocType  { return TraitItemMacro }

func (TraitConst) isTraitItemKind()  {}
func (TraitMethod) isTraitItemKind() {}
func (TraitType) isTraitItemKind()   {}
func (TraitMacro) isTraitItemKind()  {}
