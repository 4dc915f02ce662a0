package bytecode

import (
	"fmt"
	"math"
)

// MaxArgs is the largest number of parameters a compiled function may
// declare.
const MaxArgs = 8

// MaxPoolSize is the largest number of entries any constant pool
// (strings, numbers, functions) may hold, since pool indices are
// encoded in a single argument byte.
const MaxPoolSize = 256

// IndexOverflowError reports that a constant pool grew past
// MaxPoolSize entries.
type IndexOverflowError struct {
	Pool string
}

func (e *IndexOverflowError) Error() string {
	return fmt.Sprintf("compile error: %s pool exceeds %d entries", e.Pool, MaxPoolSize)
}

// TooManyArgsError reports a function declaring more than MaxArgs
// parameters.
type TooManyArgsError struct {
	Count int
}

func (e *TooManyArgsError) Error() string {
	return fmt.Sprintf("compile error: too many arguments (%d > %d)", e.Count, MaxArgs)
}

// FuncDef is a compiled function: its own bytecode buffer, the index
// of its name in the owning Script's string pool ("#" for anonymous
// functions), and its ordered parameter name indices.
type FuncDef struct {
	Code      []byte
	NameIndex uint8
	ArgCount  uint8
	ArgIndex  [MaxArgs]uint8
}

// Script is a compilation unit: its interned strings and numbers, its
// function table, and its top-level bytecode.
type Script struct {
	Filename string

	Strings []string
	Numbers []float32
	Funcs   []FuncDef

	Code []byte

	stringIndex map[string]uint8
	numberIndex map[uint32]uint8
}

// NewScript creates an empty Script ready for compilation.
func NewScript(filename string) *Script {
	return &Script{
		Filename:    filename,
		Code:        make([]byte, 0, 256),
		stringIndex: make(map[string]uint8),
		numberIndex: make(map[uint32]uint8),
	}
}

// InternString returns the pool index for s, adding it if not already
// present. Equal UTF-8 bytes share an index.
func (s *Script) InternString(str string) (uint8, error) {
	if idx, ok := s.stringIndex[str]; ok {
		return idx, nil
	}
	if len(s.Strings) >= MaxPoolSize {
		return 0, &IndexOverflowError{Pool: "string"}
	}
	idx := uint8(len(s.Strings))
	s.Strings = append(s.Strings, str)
	s.stringIndex[str] = idx
	return idx, nil
}

// InternNumber returns the pool index for n, adding it if not already
// present. Dedup is keyed on n's exact bit pattern, not IEEE ==, so
// +0.0 and -0.0 get distinct indices and NaN never collapses into an
// earlier NaN entry.
func (s *Script) InternNumber(n float32) (uint8, error) {
	bits := math.Float32bits(n)
	if idx, ok := s.numberIndex[bits]; ok {
		return idx, nil
	}
	if len(s.Numbers) >= MaxPoolSize {
		return 0, &IndexOverflowError{Pool: "number"}
	}
	idx := uint8(len(s.Numbers))
	s.Numbers = append(s.Numbers, n)
	s.numberIndex[bits] = idx
	return idx, nil
}

// AddFunc registers fd in the function table and returns its index.
func (s *Script) AddFunc(fd FuncDef) (uint8, error) {
	if len(s.Funcs) >= MaxPoolSize {
		return 0, &IndexOverflowError{Pool: "function"}
	}
	idx := uint8(len(s.Funcs))
	s.Funcs = append(s.Funcs, fd)
	return idx, nil
}

// Emit appends a two-byte instruction to code and returns the extended
// slice.
func Emit(code []byte, op Opcode, arg byte) []byte {
	return append(code, byte(op), arg)
}
