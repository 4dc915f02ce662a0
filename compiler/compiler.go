// Package compiler performs a single-pass recursive-descent compile
// of lexer tokens into a bytecode.Script: bytecode plus per-script
// constant pools.
package compiler

import (
	"fmt"

	"github.com/nsprague/slisp/bytecode"
	"github.com/nsprague/slisp/lexer"
)

// CompileError reports a reserved-form misuse, a missing delimiter, or
// any other structural problem found while compiling. Kind identifies
// the reserved form or construct involved, matching the tag used in
// stderr diagnostics (e.g. "defun", "call").
type CompileError struct {
	Pos  lexer.Position
	Kind string
	Msg  string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%d:%d: compile error: %s: %s", e.Pos.Line, e.Pos.Column, e.Kind, e.Msg)
}

// Compiler walks a single look-ahead lexer.Lexer and emits into a
// bytecode.Script. code points at whichever buffer is currently being
// written to: the script's top-level code, or a function body while
// compiling defun/#.
type Compiler struct {
	lex    *lexer.Lexer
	script *bytecode.Script
	code   *[]byte
}

// Compile lexes and compiles source into a bytecode.Script named
// filename, or returns the first lex/compile error encountered.
func Compile(filename, source string) (*bytecode.Script, error) {
	lx, err := lexer.New(source)
	if err != nil {
		return nil, err
	}

	s := bytecode.NewScript(filename)
	c := &Compiler{lex: lx, script: s, code: &s.Code}

	for c.lex.Tok.Type != lexer.EOF {
		if err := c.compileExpr(true); err != nil {
			return nil, err
		}
	}
	c.emit(bytecode.OpHalt, 0)
	return s, nil
}

func (c *Compiler) emit(op bytecode.Opcode, arg byte) {
	*c.code = bytecode.Emit(*c.code, op, arg)
}

func (c *Compiler) advance() error {
	return c.lex.Next()
}

func (c *Compiler) errf(kind, format string, args ...interface{}) error {
	return &CompileError{Pos: c.lex.Tok.Pos, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func (c *Compiler) expectSymbol(kind string) (string, error) {
	if c.lex.Tok.Type != lexer.Symbol {
		return "", c.errf(kind, "expected a symbol, got %s", c.lex.Tok.Type)
	}
	name := c.lex.Tok.Lexeme
	if err := c.advance(); err != nil {
		return "", err
	}
	return name, nil
}

func (c *Compiler) expectType(tt lexer.TokenType, kind string) error {
	if c.lex.Tok.Type != tt {
		return c.errf(kind, "expected %s, got %s", tt, c.lex.Tok.Type)
	}
	return c.advance()
}

// maybePop appends Pop when the enclosing context discards this
// expression's value. The VM elides the pop at runtime when the very
// next instruction is Return (spec's pop-elision invariant), so the
// compiler always emits it unconditionally.
func (c *Compiler) maybePop(popUnused bool) {
	if popUnused {
		c.emit(bytecode.OpPop, 0)
	}
}

// compileExpr compiles a single expression. popUnused controls
// whether its value is immediately discarded (statement position).
func (c *Compiler) compileExpr(popUnused bool) error {
	tok := c.lex.Tok

	switch tok.Type {
	case lexer.LeftParen:
		return c.compileList(popUnused)

	case lexer.Hash:
		return c.compileAnonFunc(popUnused)

	case lexer.String:
		idx, err := c.script.InternString(tok.Lexeme)
		if err != nil {
			return err
		}
		if err := c.advance(); err != nil {
			return err
		}
		c.emit(bytecode.OpLoadString, idx)
		c.maybePop(popUnused)
		return nil

	case lexer.Number:
		idx, err := c.script.InternNumber(tok.Num)
		if err != nil {
			return err
		}
		if err := c.advance(); err != nil {
			return err
		}
		c.emit(bytecode.OpLoadNumber, idx)
		c.maybePop(popUnused)
		return nil

	case lexer.Symbol:
		lexeme := tok.Lexeme
		if err := c.advance(); err != nil {
			return err
		}
		switch lexeme {
		case "true":
			c.emit(bytecode.OpLoadBool, 1)
		case "false":
			c.emit(bytecode.OpLoadBool, 0)
		default:
			idx, err := c.script.InternString(lexeme)
			if err != nil {
				return err
			}
			c.emit(bytecode.OpLoadSymbol, idx)
		}
		c.maybePop(popUnused)
		return nil

	default:
		// Anything else is a no-op; advance so the parse still
		// terminates on malformed input.
		return c.advance()
	}
}

// compileList handles a parenthesized form: one of the reserved forms
// (def, defonce, set, defun), or an ordinary function call.
func (c *Compiler) compileList(popUnused bool) error {
	if err := c.advance(); err != nil { // consume '('
		return err
	}

	if c.lex.Tok.Type == lexer.Symbol {
		switch c.lex.Tok.Lexeme {
		case "def":
			return c.compileDefLike(bytecode.OpDef, "def")
		case "defonce":
			return c.compileDefLike(bytecode.OpDefonce, "defonce")
		case "set":
			return c.compileDefLike(bytecode.OpSet, "set")
		case "defun":
			return c.compileDefun()
		}
	}

	return c.compileCall(popUnused)
}

// compileDefLike handles (def NAME EXPR), (defonce NAME EXPR), and
// (set NAME EXPR): parse EXPR, then emit op over NAME's string-pool
// index. None of these push a value.
func (c *Compiler) compileDefLike(op bytecode.Opcode, kind string) error {
	if err := c.advance(); err != nil { // consume the keyword
		return err
	}
	name, err := c.expectSymbol(kind)
	if err != nil {
		return err
	}
	idx, err := c.script.InternString(name)
	if err != nil {
		return err
	}
	if err := c.compileExpr(false); err != nil {
		return err
	}
	if err := c.expectType(lexer.RightParen, kind); err != nil {
		return err
	}
	c.emit(op, idx)
	return nil
}

// compileDefun handles (defun NAME [ARGS...] BODY...).
func (c *Compiler) compileDefun() error {
	if err := c.advance(); err != nil { // consume 'defun'
		return err
	}
	fname, err := c.expectSymbol("defun")
	if err != nil {
		return err
	}
	nameIdx, err := c.script.InternString(fname)
	if err != nil {
		return err
	}

	if err := c.expectType(lexer.LeftBracket, "defun"); err != nil {
		return err
	}

	var argIdx []uint8
	for c.lex.Tok.Type == lexer.Symbol {
		pname := c.lex.Tok.Lexeme
		if err := c.advance(); err != nil {
			return err
		}
		pidx, err := c.script.InternString(pname)
		if err != nil {
			return err
		}
		argIdx = append(argIdx, pidx)
	}
	if len(argIdx) > bytecode.MaxArgs {
		return &bytecode.TooManyArgsError{Count: len(argIdx)}
	}
	if err := c.expectType(lexer.RightBracket, "defun"); err != nil {
		return err
	}

	fd := bytecode.FuncDef{NameIndex: nameIdx, ArgCount: uint8(len(argIdx))}
	copy(fd.ArgIndex[:], argIdx)

	saved := c.code
	c.code = &fd.Code

	for i := len(argIdx) - 1; i >= 0; i-- {
		c.emit(bytecode.OpDef, argIdx[i])
	}

	for c.lex.Tok.Type != lexer.RightParen {
		if c.lex.Tok.Type == lexer.EOF {
			c.code = saved
			return c.errf("defun", "unexpected end of input in body of %s", fname)
		}
		if err := c.compileExpr(true); err != nil {
			c.code = saved
			return err
		}
	}
	c.emit(bytecode.OpReturn, 0)
	c.code = saved

	if err := c.advance(); err != nil { // consume ')'
		return err
	}

	funcIdx, err := c.script.AddFunc(fd)
	if err != nil {
		return err
	}
	c.emit(bytecode.OpDefun, funcIdx)
	return nil
}

// compileAnonFunc handles '#' EXPR: a zero-argument anonymous function
// whose body is a single expression.
func (c *Compiler) compileAnonFunc(popUnused bool) error {
	if err := c.advance(); err != nil { // consume '#'
		return err
	}
	nameIdx, err := c.script.InternString("#")
	if err != nil {
		return err
	}

	fd := bytecode.FuncDef{NameIndex: nameIdx, ArgCount: 0}
	saved := c.code
	c.code = &fd.Code

	if err := c.compileExpr(false); err != nil {
		c.code = saved
		return err
	}
	c.emit(bytecode.OpReturn, 0)
	c.code = saved

	funcIdx, err := c.script.AddFunc(fd)
	if err != nil {
		return err
	}
	c.emit(bytecode.OpLoadFunc, funcIdx)
	c.maybePop(popUnused)
	return nil
}

// compileCall handles a call: the callee followed by zero or more
// argument expressions, terminated by ')'.
func (c *Compiler) compileCall(popUnused bool) error {
	n := 0
	for c.lex.Tok.Type != lexer.RightParen {
		if c.lex.Tok.Type == lexer.EOF {
			return c.errf("call", "unexpected end of input in function call")
		}
		if err := c.compileExpr(false); err != nil {
			return err
		}
		n++
	}
	if err := c.advance(); err != nil { // consume ')'
		return err
	}
	if n == 0 {
		return c.errf("call", "empty function call")
	}

	argsOnly := n - 1
	c.emit(bytecode.OpFuncCall, byte(argsOnly-1))
	c.maybePop(popUnused)
	return nil
}
