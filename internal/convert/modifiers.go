package convert

import (
	"fmt"

	"github.com/jcdickinson/oxidoc/internal/ast"
	"github.com/jcdickinson/oxidoc/internal/document"
)

// Visibility maps a source visibility. Only Public and Inherited survive;
// crate and restricted visibility collapse to Private.
func Visibility(v ast.Visibility) document.Visibility {
	switch v {
	case ast.VisPublic:
		return document.Public
	case ast.VisInherited:
		return document.Inherited
	default:
		return document.Private
	}
}

// Unsafety maps unsafety one to one and panics on an unknown value.
func Unsafety(u ast.Unsafety) document.Unsafety {
	switch u {
	case ast.UnsafetyNormal:
		return document.Normal
	case ast.UnsafetyUnsafe:
		return document.Unsafe
	}
	panic(fmt.Sprintf("convert: unknown unsafety %d", u))
}

// Constness maps constness one to one and panics on an unknown value.
func Constness(c ast.Constness) document.Constness {
	switch c {
	case ast.ConstnessConst:
		return document.Const
	case ast.ConstnessNotConst:
		return document.NotConst
	}
	panic(fmt.Sprintf("convert: unknown constness %d", c))
}

// Abi maps a calling convention one to one. There is no fallback: a value
// outside the sixteen known conventions is a frontend bug.
func Abi(a ast.Abi) document.Abi {
	switch a {
	case ast.AbiCdecl:
		return document.AbiCdecl
	case ast.AbiStdcall:
		return document.AbiStdcall
	case ast.AbiFastcall:
		return document.AbiFastcall
	case ast.AbiVectorcall:
		return document.AbiVectorcall
	case ast.AbiAapcs:
		return document.AbiAapcs
	case ast.AbiWin64:
		return document.AbiWin64
	case ast.AbiSysV64:
		return document.AbiSysV64
	case ast.AbiPtxKernel:
		return document.AbiPtxKernel
	case ast.AbiMsp430Interrupt:
		return document.AbiMsp430Interrupt
	case ast.AbiRust:
		return document.AbiRust
	case ast.AbiC:
		return document.AbiC
	case ast.AbiSystem:
		return document.AbiSystem
	case ast.AbiRustIntrinsic:
		return document.AbiRustIntrinsic
	case ast.AbiRustCall:
		return document.AbiRustCall
	case ast.AbiPlatformIntrinsic:
		return document.AbiPlatformIntrinsic
	case ast.AbiUnadjusted:
		return document.AbiUnadjusted
	}
	panic(fmt.Sprintf("convert: unknown abi %d", a))
}
