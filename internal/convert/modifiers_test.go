package convert

import (
	"testing"

	"github.com/jcdickinson/oxidoc/internal/ast"
	"github.com/jcdickinson/oxidoc/internal/document"
)

func TestVisibility(t *testing.T) {
	t.Parallel()

	want := map[ast.Visibility]document.Visibility{
		ast.VisPublic:     document.Public,
		ast.VisInherited:  document.Inherited,
		ast.VisCrate:      document.Private,
		ast.VisRestricted: document.Private,
	}
	if len(want) != len(ast.Visibilities) {
		t.Fatalf("table covers %d of %d visibilities", len(want), len(ast.Visibilities))
	}
	for _, v := range ast.Visibilities {
		if got := Visibility(v); got != want[v] {
			t.Errorf("Visibility(%d) = %s, want %s", v, got, want[v])
		}
	}
}

func TestUnsafetyAndConstness(t *testing.T) {
	t.Parallel()

	if Unsafety(ast.UnsafetyNormal) != document.Normal || Unsafety(ast.UnsafetyUnsafe) != document.Unsafe {
		t.Error("unsafety mapping")
	}
	if Constness(ast.ConstnessConst) != document.Const || Constness(ast.ConstnessNotConst) != document.NotConst {
		t.Error("constness mapping")
	}
	if len(ast.Unsafeties) != 2 || len(ast.Constnesses) != 2 {
		t.Error("unexpected variant count")
	}
}

func TestAbi_OneToOne(t *testing.T) {
	t.Parallel()

	want := map[ast.Abi]document.Abi{
		ast.AbiCdecl:             document.AbiCdecl,
		ast.AbiStdcall:           document.AbiStdcall,
		ast.AbiFastcall:          document.AbiFastcall,
		ast.AbiVectorcall:        document.AbiVectorcall,
		ast.AbiAapcs:             document.AbiAapcs,
		ast.AbiWin64:             document.AbiWin64,
		ast.AbiSysV64:            document.AbiSysV64,
		ast.AbiPtxKernel:         document.AbiPtxKernel,
		ast.AbiMsp430Interrupt:   document.AbiMsp430Interrupt,
		ast.AbiRust:              document.AbiRust,
		ast.AbiC:                 document.AbiC,
		ast.AbiSystem:            document.AbiSystem,
		ast.AbiRustIntrinsic:     document.AbiRustIntrinsic,
		ast.AbiRustCall:          document.AbiRustCall,
		ast.AbiPlatformIntrinsic: document.AbiPlatformIntrinsic,
		ast.AbiUnadjusted:        document.AbiUnadjusted,
	}

	abis := ast.Abis()
	if len(abis) != 16 {
		t.Fatalf("expected 16 source conventions, got %d", len(abis))
	}

	seen := map[document.Abi]bool{}
	for _, a := range abis {
		got := Abi(a)
		if got != want[a] {
			t.Errorf("Abi(%d) = %s, want %s", a, got, want[a])
		}
		// Same answer on a repeated call.
		if Abi(a) != got {
			t.Errorf("Abi(%d) is not deterministic", a)
		}
		seen[got] = true
	}
	if len(seen) != 16 {
		t.Errorf("mapping is not injective: %d distinct outputs", len(seen))
	}
}

func TestAbi_PanicsOnUnknown(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("expected panic for an unknown calling convention")
		}
	}()
	Abi(ast.Abi(200))
}
