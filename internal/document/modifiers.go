package document

import "fmt"

// Visibility is the normalized visibility of a documented item.
type Visibility uint8

const (
	Public Visibility = iota
	Inherited
	Private
)

var visibilityNames = []string{"public", "inherited", "private"}

func (v Visibility) String() string { return enumName(visibilityNames, int(v)) }

func (v Visibility) MarshalText() ([]byte, error) { return marshalEnum(visibilityNames, int(v), "visibility") }

func (v *Visibility) UnmarshalText(text []byte) error {
	i, err := unmarshalEnum(visibilityNames, text, "visibility")
	*v = Visibility(i)
	return err
}

// Keyword is the source spelling used when rendering a signature.
func (v Visibility) Keyword() string {
	if v == Public {
		return "pub"
	}
	return ""
}

type Unsafety uint8

const (
	Normal Unsafety = iota
	Unsafe
)

var unsafetyNames = []string{"normal", "unsafe"}

func (u Unsafety) String() string { return enumName(unsafetyNames, int(u)) }

func (u Unsafety) MarshalText() ([]byte, error) { return marshalEnum(unsafetyNames, int(u), "unsafety") }

func (u *Unsafety) UnmarshalText(text []byte) error {
	i, err := unmarshalEnum(unsafetyNames, text, "unsafety")
	*u = Unsafety(i)
	return err
}

type Constness uint8

const (
	NotConst Constness = iota
	Const
)

var constnessNames = []string{"not_const", "const"}

func (c Constness) String() string { return enumName(constnessNames, int(c)) }

func (c Constness) MarshalText() ([]byte, error) { return marshalEnum(constnessNames, int(c), "constness") }

func (c *Constness) UnmarshalText(text []byte) error {
	i, err := unmarshalEnum(constnessNames, text, "constness")
	*c = Constness(i)
	return err
}

// Abi is a function calling convention.
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
)

// abiNames are the spellings used in `extern "..."`.
var abiNames = []string{
	"cdecl",
	"stdcall",
	"fastcall",
	"vectorcall",
	"aapcs",
	"win64",
	"sysv64",
	"ptx-kernel",
	"msp430-interrupt",
	"Rust",
	"C",
	"system",
	"rust-intrinsic",
	"rust-call",
	"platform-intrinsic",
	"unadjusted",
}

// Abis lists every calling convention in declaration order.
func Abis() []Abi {
	out := make([]Abi, len(abiNames))
	for i := range abiNames {
		out[i] = Abi(i)
	}
	return out
}

func (a Abi) String() string { return enumName(abiNames, int(a)) }

func (a Abi) MarshalText() ([]byte, error) { return marshalEnum(abiNames, int(a), "abi") }

func (a *Abi) UnmarshalText(text []byte) error {
	i, err := unmarshalEnum(abiNames, text, "abi")
	*a = Abi(i)
	return err
}

func enumName(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return fmt.Sprintf("invalid(%d)", i)
	}
	return names[i]
}

func marshalEnum(names []string, i int, kind string) ([]byte, error) {
	if i < 0 || i >= len(names) {
		return nil, fmt.Errorf("invalid %s value %d", kind, i)
	}
	return []byte(names[i]), nil
}

func unmarshalEnum(names []string, text []byte, kind string) (int, error) {
	s := string(text)
	for i, n := range names {
		if n == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", kind, s)
}
