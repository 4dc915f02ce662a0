// Package bytecode defines the instruction set and the per-script
// constant pools produced by the compiler and consumed by the VM.
//
// Every instruction is a fixed two-byte pair: an opcode byte followed
// by a single argument byte. This keeps decoding branchless and caps
// every constant-pool or variable-slot reference at 256 entries.
package bytecode

import "fmt"

// Opcode identifies a single two-byte instruction.
type Opcode byte

const (
	// Stack / termination

	OpPop  Opcode = 0x00 // discard top of stack
	OpHalt Opcode = 0x01 // end of top-level code

	// Constants

	OpLoadBool   Opcode = 0x10 // arg 0/1 -> push Bool(arg == 1)
	OpLoadNumber Opcode = 0x11 // arg = number-pool index
	OpLoadString Opcode = 0x12 // arg = string-pool index

	// Variables

	OpLoadSymbol Opcode = 0x20 // arg = string-pool index (name)
	OpDef        Opcode = 0x21 // arg = string-pool index (name)
	OpDefonce    Opcode = 0x22 // arg = string-pool index (name)
	OpSet        Opcode = 0x23 // arg = string-pool index (name)

	// Functions

	OpLoadFunc Opcode = 0x30 // arg = function-table index
	OpDefun    Opcode = 0x31 // arg = function-table index
	OpFuncCall Opcode = 0x32 // arg = argument count minus one

	// Return

	OpReturn Opcode = 0x40 // end of every compiled function body
)

// OpcodeInfo is debugging/validation metadata for an opcode.
type OpcodeInfo struct {
	Name string
}

var opcodeInfoTable = map[Opcode]OpcodeInfo{
	OpPop:  {"POP"},
	OpHalt: {"HALT"},

	OpLoadBool:   {"LOAD_BOOL"},
	OpLoadNumber: {"LOAD_NUMBER"},
	OpLoadString: {"LOAD_STRING"},

	OpLoadSymbol: {"LOAD_SYMBOL"},
	OpDef:        {"DEF"},
	OpDefonce:    {"DEFONCE"},
	OpSet:        {"SET"},

	OpLoadFunc: {"LOAD_FUNC"},
	OpDefun:    {"DEFUN"},
	OpFuncCall: {"FUNC_CALL"},

	OpReturn: {"RETURN"},
}

// GetOpcodeInfo returns metadata for op. Unknown opcodes report a
// synthesized UNKNOWN name rather than panicking, so disassembly of
// corrupt bytecode degrades instead of crashing.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op))}
}

// String returns the human-readable mnemonic for op.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// AllOpcodes returns every defined opcode, for tests that verify
// every opcode carries metadata.
func AllOpcodes() []Opcode {
	ops := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		ops = append(ops, op)
	}
	return ops
}

// OpcodeCount returns the number of defined opcodes.
func OpcodeCount() int {
	return len(opcodeInfoTable)
}

// InstructionLen is always 2: one opcode byte, one argument byte.
const InstructionLen = 2
