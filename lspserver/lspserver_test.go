package lspserver

import (
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/nsprague/slisp/compiler"
	"github.com/nsprague/slisp/vm"
)

func TestExtractWord(t *testing.T) {
	text := "(println (+ 1 2))"
	word := extractWord(text, protocol.Position{Line: 0, Character: 11})
	if word != "+" {
		t.Errorf("extractWord = %q, want %q", word, "+")
	}

	word = extractWord(text, protocol.Position{Line: 0, Character: 4})
	if word != "println" {
		t.Errorf("extractWord = %q, want %q", word, "println")
	}
}

func TestExtractPrefix(t *testing.T) {
	text := "(prin"
	prefix := extractPrefix(text, protocol.Position{Line: 0, Character: 5})
	if prefix != "prin" {
		t.Errorf("extractPrefix = %q, want %q", prefix, "prin")
	}
}

func TestExtractWordOutOfRangeLineIsEmpty(t *testing.T) {
	if got := extractWord("abc", protocol.Position{Line: 5, Character: 0}); got != "" {
		t.Errorf("expected empty word for out-of-range line, got %q", got)
	}
}

func TestDiagnosticPositionFromCompileError(t *testing.T) {
	_, err := compiler.Compile("test.lisp", "(def x")
	if err == nil {
		t.Fatal("expected a compile error for an unterminated form")
	}
	line, col := diagnosticPosition(err)
	_ = line
	_ = col // positions are non-negative by construction; just exercise the path
}

func TestNewServerDoesNotPanic(t *testing.T) {
	s := New(vm.DefaultLimits())
	if s == nil {
		t.Fatal("New returned nil")
	}
	s.worker.Stop()
}
