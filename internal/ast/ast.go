// Package ast is the syntax tree handed to the converter by a frontend.
//
// Items arrive already resolved: every node carries its ModPath and the
// children of a module are partitioned by syntactic kind. Types, expressions
// and macro invocations are kept as source text.
package ast

import (
	"strings"

	"github.com/jcdickinson/oxidoc/internal/document"
)

// Visibility is the visibility qualifier as written in source.
type Visibility uint8

const (
	VisPublic Visibility = iota
	VisCrate
	VisRestricted
	VisInherited
)

// Visibilities lists every source visibility.
var Visibilities = []Visibility{VisPublic, VisCrate, VisRestricted, VisInherited}

type Unsafety uint8

const (
	UnsafetyNormal Unsafety = iota
	UnsafetyUnsafe
)

var Unsafeties = []Unsafety{UnsafetyNormal, UnsafetyUnsafe}

type Constness uint8

const (
	ConstnessNotConst Constness = iota
	ConstnessConst
)

var Constnesses = []Constness{ConstnessNotConst, ConstnessConst}

// Abi is a calling convention as spelled in `extern "..."`.
type Abi uint8

const (
	AbiCdecl Abi = iota
	AbiStdcall
	AbiFastcall
	AbiVectorcall
	AbiAapcs
	AbiWin64
	AbiSysV64
	AbiPtxKernel
	AbiMsp430Interrupt
	AbiRust
	AbiC
	AbiSystem
	AbiRustIntrinsic
	AbiRustCall
	AbiPlatformIntrinsic
	AbiUnadjusted

	numAbis
)

// Abis lists every source calling convention.
func Abis() []Abi {
	out := make([]Abi, 0, numAbis)
	for a := AbiCdecl; a < numAbis; a++ {
		out = append(out, a)
	}
	return out
}

var abiSpellings = map[string]Abi{
	"cdecl":              AbiCdecl,
	"stdcall":            AbiStdcall,
	"fastcall":           AbiFastcall,
	"vectorcall":         AbiVectorcall,
	"aapcs":              AbiAapcs,
	"win64":              AbiWin64,
	"sysv64":             AbiSysV64,
	"ptx-kernel":         AbiPtxKernel,
	"msp430-interrupt":   AbiMsp430Interrupt,
	"Rust":               AbiRust,
	"C":                  AbiC,
	"system":             AbiSystem,
	"rust-intrinsic":     AbiRustIntrinsic,
	"rust-call":          AbiRustCall,
	"platform-intrinsic": AbiPlatformIntrinsic,
	"unadjusted":         AbiUnadjusted,
}

// LookupAbi resolves a source spelling. "System" and "system" are both
// accepted, as rustdoc capitalizes some conventions.
func LookupAbi(s string) (Abi, bool) {
	if a, ok := abiSpellings[s]; ok {
		return a, true
	}
	for spelling, a := range abiSpellings {
		if strings.EqualFold(spelling, s) {
			return a, true
		}
	}
	return AbiRust, false
}

// Attribute is an outer or inner attribute. Doc comments appear as
// attributes named "doc"; Sugared marks the `///` form.
type Attribute struct {
	Name    string
	Value   string
	Sugared bool
}

// DocAttr builds the attribute a frontend emits for a doc comment.
func DocAttr(text string) Attribute {
	return Attribute{Name: "doc", Value: text}
}

// Ty is a type as written in source.
type Ty struct {
	Text string
}

// Expr is an expression as written in source.
type Expr struct {
	Text string
}

// Arg is a function parameter. A shorthand self parameter ("&mut self") has
// the whole spelling in Pat and an empty Ty.
type Arg struct {
	Pat string
	Ty  Ty
}

type FnDecl struct {
	Inputs   []Arg
	Output   *Ty
	Variadic bool
}

// Generics is carried through for frontends that collect it; the converter
// does not model it.
type Generics struct {
	Params []string
	Where  []string
}

type Module struct {
	Ident   *string
	Attrs   []Attribute
	Path    document.ModPath
	Vis     Visibility
	IsCrate bool

	Consts  []Constant
	Traits  []Trait
	Fns     []Function
	Mods    []Module
	Structs []Struct
}

type Constant struct {
	Ident string
	Attrs []Attribute
	Path  document.ModPath
	Vis   Visibility
	Type  Ty
	Expr  Expr
}

type Function struct {
	Ident     string
	Attrs     []Attribute
	Path      document.ModPath
	Vis       Visibility
	Decl      FnDecl
	Generics  Generics
	Unsafety  Unsafety
	Constness Constness
	Abi       Abi
}

type Trait struct {
	Ident    string
	Attrs    []Attribute
	Path     document.ModPath
	Vis      Visibility
	Unsafety Unsafety
	Generics Generics
	Items    []TraitItem
}

type TraitItem struct {
	Ident string
	Attrs []Attribute
	Path  document.ModPath
	Node  TraitItemKind
}

// TraitItemKind is one of ConstItem, MethodItem, TypeItem or MacroItem.
type TraitItemKind interface {
	isTraitItemKind()
}

type ConstItem struct {
	Type    Ty
	Default *Expr
}

type MethodSig struct {
	Unsafety  Unsafety
	Constness Constness
	Abi       Abi
	Decl      FnDecl
}

// MethodItem is a required (nil Body) or provided method.
type MethodItem struct {
	Sig  MethodSig
	Body *string
}

type TypeItem struct {
	Bounds  []string
	Default *Ty
}

// Mac is a macro invocation: path!(tokens).
type Mac struct {
	Path   string
	Delim  byte
	Tokens string
}

type MacroItem struct {
	Mac Mac
}

func (ConstItem) isTraitItemKind()  {}
func (MethodItem) isTraitItemKind() {}
func (TypeItem) isTraitItemKind()   {}
func (MacroItem) isTraitItemKind()  {}

type Struct struct {
	Ident    string
	Attrs    []Attribute
	Path     document.ModPath
	Vis      Visibility
	Generics Generics
	Fields   []StructField
}

type StructField struct {
	Ident *string
	Attrs []Attribute
	Vis   Visibility
	Ty    Ty
}
