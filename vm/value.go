package vm

import "fmt"

// Kind discriminates the variants of Value.
type Kind byte

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindString
	KindFunc
	KindNativeFunc
	KindCoroutine
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindFunc:
		return "func"
	case KindNativeFunc:
		return "native"
	case KindCoroutine:
		return "coroutine"
	case KindCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// NativeFunc is the signature every native builtin implements. A
// native is responsible for pushing exactly one return value onto the
// VM's operand stack itself (never returning it as a Go value) since
// a few builtins (if, when, call) push that value indirectly by
// re-entering the interpreter.
type NativeFunc func(vm *VM, args []Value) error

// Value is a tagged union over the language's runtime values. Go
// strings already share backing storage on copy, so String needs no
// refcounting to satisfy the no-copy-on-load requirement.
type Value struct {
	Kind       Kind
	Bool       bool
	Num        float32
	Str        string
	FuncIdx    int
	Native     NativeFunc
	NativeName string
	Coro       *Coroutine
	Custom     interface{}
}

func Nil() Value                 { return Value{Kind: KindNil} }
func BoolValue(b bool) Value     { return Value{Kind: KindBool, Bool: b} }
func NumberValue(n float32) Value { return Value{Kind: KindNumber, Num: n} }
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }
func FuncValue(idx int) Value    { return Value{Kind: KindFunc, FuncIdx: idx} }

func NativeValue(name string, fn NativeFunc) Value {
	return Value{Kind: KindNativeFunc, Native: fn, NativeName: name}
}

func CoroutineValue(c *Coroutine) Value { return Value{Kind: KindCoroutine, Coro: c} }

// IsNil reports whether v is the Nil variant, the check used
// throughout frame-chain walks to decide whether a slot is bound.
func (v Value) IsNil() bool { return v.Kind == KindNil }

// Truthy implements the language's truthiness rule: false iff Nil or
// Bool(false); everything else, including 0 and "", is truthy.
func (v Value) Truthy() bool {
	if v.Kind == KindNil {
		return false
	}
	if v.Kind == KindBool {
		return v.Bool
	}
	return true
}

// Display renders v the way println formats it.
func (v Value) Display() string {
	switch v.Kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindNumber:
		return fmt.Sprintf("%.4f", v.Num)
	case KindString:
		return v.Str
	case KindCoroutine:
		return fmt.Sprintf("coroutine (%s)", v.Coro.Name)
	case KindFunc:
		return "<func>"
	case KindNativeFunc:
		return fmt.Sprintf("<native %s>", v.NativeName)
	default:
		return "<value>"
	}
}
