package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble returns a deterministic, human-readable dump of the
// script: its string and number pools, then every function and the
// top-level code, one instruction per line.
func (s *Script) Disassemble() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "; script %s\n", s.Filename)

	if len(s.Strings) > 0 {
		sb.WriteString("; strings:\n")
		for i, str := range s.Strings {
			fmt.Fprintf(&sb, ";   [%3d] %q\n", i, str)
		}
	}
	if len(s.Numbers) > 0 {
		sb.WriteString("; numbers:\n")
		for i, n := range s.Numbers {
			fmt.Fprintf(&sb, ";   [%3d] %g\n", i, n)
		}
	}

	for i, fd := range s.Funcs {
		name := "#"
		if int(fd.NameIndex) < len(s.Strings) {
			name = s.Strings[fd.NameIndex]
		}
		fmt.Fprintf(&sb, "\n; func [%3d] %s (argc=%d)\n", i, name, fd.ArgCount)
		sb.WriteString(s.disassembleCode(fd.Code))
	}

	sb.WriteString("\n; top-level\n")
	sb.WriteString(s.disassembleCode(s.Code))

	return sb.String()
}

func (s *Script) disassembleCode(code []byte) string {
	var sb strings.Builder
	for offset := 0; offset+InstructionLen <= len(code); offset += InstructionLen {
		op := Opcode(code[offset])
		arg := code[offset+1]
		fmt.Fprintf(&sb, "%04X  %s\n", offset, s.disassembleInstruction(op, arg))
	}
	return sb.String()
}

func (s *Script) disassembleInstruction(op Opcode, arg byte) string {
	name := GetOpcodeInfo(op).Name

	switch op {
	case OpLoadBool:
		if arg == 1 {
			return fmt.Sprintf("%s %d ; true", name, arg)
		}
		return fmt.Sprintf("%s %d ; false", name, arg)

	case OpLoadNumber:
		if int(arg) < len(s.Numbers) {
			return fmt.Sprintf("%s %d ; %g", name, arg, s.Numbers[arg])
		}
		return fmt.Sprintf("%s %d", name, arg)

	case OpLoadString, OpLoadSymbol, OpDef, OpDefonce, OpSet:
		if int(arg) < len(s.Strings) {
			return fmt.Sprintf("%s %d ; %q", name, arg, s.Strings[arg])
		}
		return fmt.Sprintf("%s %d", name, arg)

	case OpLoadFunc, OpDefun:
		if int(arg) < len(s.Funcs) {
			fd := s.Funcs[arg]
			fname := "#"
			if int(fd.NameIndex) < len(s.Strings) {
				fname = s.Strings[fd.NameIndex]
			}
			return fmt.Sprintf("%s %d ; %s", name, arg, fname)
		}
		return fmt.Sprintf("%s %d", name, arg)

	case OpFuncCall:
		return fmt.Sprintf("%s %d ; argc=%d", name, arg, int(arg+1))

	default:
		return fmt.Sprintf("%s %d", name, arg)
	}
}
