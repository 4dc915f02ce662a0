// Package vm implements the stack-based bytecode interpreter:
// operand stack, frame chain, globals, and the native function
// surface, including the coroutine runtime built on frame capture.
package vm

import (
	"fmt"
	"io"

	"github.com/nsprague/slisp/bytecode"
)

// errHalt is returned internally by step when it executes Halt; Run
// treats it as normal completion. It never escapes to a caller.
var errHalt = fmt.Errorf("halt")

// Limits bounds the VM's operand stack and call depth. The zero value
// of any field falls back to the language's fixed defaults (255-slot
// stack, 512-deep calls), so Limits{} reproduces spec's exact behavior.
type Limits struct {
	StackCapacity int
	MaxCallDepth  int
}

// DefaultLimits returns the sizes in effect when no config overrides them.
func DefaultLimits() Limits {
	return Limits{StackCapacity: 255, MaxCallDepth: 512}
}

// VM executes a single loaded script against a persistent globals
// table and operand stack. A VM instance may run several scripts in
// sequence, but not concurrently — the runtime is single-threaded and
// cooperative.
type VM struct {
	script  *bytecode.Script
	current *Frame
	stack   []Value
	globals map[string]Value
	yielded bool

	stackCapacity int
	maxCallDepth  int

	// Stdout is where println writes. Nil means os.Stdout; tests set
	// it to a buffer to capture output.
	Stdout io.Writer
}

// New constructs a VM with the default limits and its native function
// surface registered in globals.
func New() *VM {
	return NewWithLimits(DefaultLimits())
}

// NewWithLimits constructs a VM honoring limits (zero fields fall back
// to DefaultLimits), for callers driven by config.Config's [vm] table.
func NewWithLimits(limits Limits) *VM {
	def := DefaultLimits()
	if limits.StackCapacity == 0 {
		limits.StackCapacity = def.StackCapacity
	}
	if limits.MaxCallDepth == 0 {
		limits.MaxCallDepth = def.MaxCallDepth
	}
	vm := &VM{
		globals:       make(map[string]Value),
		stackCapacity: limits.StackCapacity,
		maxCallDepth:  limits.MaxCallDepth,
	}
	registerNatives(vm)
	return vm
}

// Run executes script's top-level code to completion (Halt) and
// returns the first runtime error encountered, if any.
func (vm *VM) Run(script *bytecode.Script) error {
	vm.script = script
	vm.current = newFrame(script.Code, nil, nil)
	vm.stack = vm.stack[:0]
	vm.yielded = false

	for {
		err := vm.step()
		if err == errHalt {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// runFrom drives the interpreter starting at frame until control
// returns to frame.Parent, by ordinary Return or by a yield detach.
// Used by natives (if, when, call) that need a script function's
// result synchronously.
func (vm *VM) runFrom(frame *Frame) error {
	boundary := frame.Parent
	vm.current = frame
	for vm.current != boundary {
		if err := vm.step(); err != nil {
			return err
		}
	}
	return nil
}

// invoke calls a NativeFunc or Func value with args, synchronously.
// Used by natives that apply a callback (if/when branches).
func (vm *VM) invoke(callee Value, args []Value) error {
	switch callee.Kind {
	case KindNativeFunc:
		return callee.Native(vm, args)
	case KindFunc:
		if err := vm.checkCallDepth(); err != nil {
			return err
		}
		fd, err := vm.funcDef(callee.FuncIdx)
		if err != nil {
			return err
		}
		vm.pushArgs(fd, args)
		frame := newFrame(fd.Code, vm.current, nil)
		return vm.runFrom(frame)
	default:
		return &TypeError{Kind: "call", Msg: fmt.Sprintf("%s value is not callable", callee.Kind)}
	}
}

func (vm *VM) funcDef(idx int) (*bytecode.FuncDef, error) {
	if idx < 0 || idx >= len(vm.script.Funcs) {
		return nil, &RuntimeError{Kind: "call", Msg: "invalid function index"}
	}
	return &vm.script.Funcs[idx], nil
}

// pushArgs pushes fd's arguments per the calling convention: each of
// fd.ArgCount positions gets args[i], or Nil on underflow.
func (vm *VM) pushArgs(fd *bytecode.FuncDef, args []Value) {
	for i := 0; i < int(fd.ArgCount); i++ {
		if i < len(args) {
			vm.push(args[i])
		} else {
			vm.push(Nil())
		}
	}
}

// NativeNames returns the registered native function names, for
// completion in editor tooling.
func (vm *VM) NativeNames() []string {
	names := make([]string, 0, len(vm.globals))
	for name, val := range vm.globals {
		if val.Kind == KindNativeFunc {
			names = append(names, name)
		}
	}
	return names
}

// DescribeGlobal returns a short human-readable description of a
// global binding (a native function or a top-level def), or "" if
// name is not bound.
func (vm *VM) DescribeGlobal(name string) string {
	val, ok := vm.globals[name]
	if !ok {
		return ""
	}
	switch val.Kind {
	case KindNativeFunc:
		return fmt.Sprintf("native function `%s`", val.NativeName)
	default:
		return fmt.Sprintf("%s — %s", val.Kind, val.Display())
	}
}

// currentCoroutine walks the frame chain outward for the nearest
// coroutine-owned frame.
func (vm *VM) currentCoroutine() *Coroutine {
	for f := vm.current; f != nil; f = f.Parent {
		if f.Coro != nil {
			return f.Coro
		}
	}
	return nil
}

// findFrame walks the frame chain outward for the first frame binding
// slot i (innermost-wins symbol resolution).
func (vm *VM) findFrame(i byte) *Frame {
	for f := vm.current; f != nil; f = f.Parent {
		if !f.Vars[i].IsNil() {
			return f
		}
	}
	return nil
}

// frameDepth counts frames from current out to the root, to enforce
// maxCallDepth before pushing a new one.
func (vm *VM) frameDepth() int {
	d := 0
	for f := vm.current; f != nil; f = f.Parent {
		d++
	}
	return d
}

// checkCallDepth is called before pushing a new call frame on top of
// current, failing with a RuntimeError once the chain reaches
// maxCallDepth. A recursion that leaves operands pending on the stack
// at each level (e.g. (+ 1 (r n))) can hit the stack-capacity check in
// push first.
func (vm *VM) checkCallDepth() error {
	if vm.frameDepth() >= vm.maxCallDepth {
		return &RuntimeError{Kind: "call", Msg: "max call depth exceeded"}
	}
	return nil
}

func (vm *VM) push(v Value) error {
	if len(vm.stack) >= vm.stackCapacity {
		return &RuntimeError{Kind: "stack", Msg: "operand stack overflow"}
	}
	vm.stack = append(vm.stack, v)
	return nil
}

func (vm *VM) pop() Value {
	if len(vm.stack) == 0 {
		return Nil()
	}
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

func (vm *VM) popN(n int) ([]Value, error) {
	if len(vm.stack) < n {
		return nil, &RuntimeError{Kind: "call", Msg: "operand stack underflow"}
	}
	out := make([]Value, n)
	copy(out, vm.stack[len(vm.stack)-n:])
	vm.stack = vm.stack[:len(vm.stack)-n]
	return out, nil
}

// step executes exactly one instruction at the current frame.
func (vm *VM) step() error {
	f := vm.current
	if f.IP+1 >= len(f.Code) {
		// Every well-formed script ends in Halt/Return; this is a
		// defensive fallback against malformed bytecode running past
		// the end of its buffer.
		return errHalt
	}
	op := bytecode.Opcode(f.Code[f.IP])
	arg := f.Code[f.IP+1]
	f.IP += 2

	switch op {
	case bytecode.OpHalt:
		return errHalt

	case bytecode.OpLoadBool:
		return vm.push(BoolValue(arg == 1))

	case bytecode.OpLoadNumber:
		if int(arg) >= len(vm.script.Numbers) {
			return &RuntimeError{Kind: "load", Msg: "number pool index out of range"}
		}
		return vm.push(NumberValue(vm.script.Numbers[arg]))

	case bytecode.OpLoadString:
		if int(arg) >= len(vm.script.Strings) {
			return &RuntimeError{Kind: "load", Msg: "string pool index out of range"}
		}
		return vm.push(StringValue(vm.script.Strings[arg]))

	case bytecode.OpLoadSymbol:
		if target := vm.findFrame(arg); target != nil {
			return vm.push(target.Vars[arg])
		}
		name := vm.script.Strings[arg]
		if val, ok := vm.globals[name]; ok {
			return vm.push(val)
		}
		return vm.push(Nil())

	case bytecode.OpLoadFunc:
		return vm.push(FuncValue(int(arg)))

	case bytecode.OpDef:
		f.Vars[arg] = vm.pop()
		return nil

	case bytecode.OpDefonce:
		val := vm.pop()
		if f.Vars[arg].IsNil() {
			f.Vars[arg] = val
		}
		return nil

	case bytecode.OpSet:
		val := vm.pop()
		if target := vm.findFrame(arg); target != nil {
			target.Vars[arg] = val
		} else {
			vm.globals[vm.script.Strings[arg]] = val
		}
		return nil

	case bytecode.OpDefun:
		fd, err := vm.funcDef(int(arg))
		if err != nil {
			return err
		}
		f.Vars[fd.NameIndex] = FuncValue(int(arg))
		return nil

	case bytecode.OpFuncCall:
		return vm.execFuncCall(arg)

	case bytecode.OpReturn:
		vm.current = f.Parent
		return nil

	case bytecode.OpPop:
		if f.IP < len(f.Code) && bytecode.Opcode(f.Code[f.IP]) == bytecode.OpReturn {
			return nil
		}
		vm.pop()
		return nil

	default:
		return &RuntimeError{Kind: "exec", Msg: fmt.Sprintf("unknown opcode %#02x", byte(op))}
	}
}

func (vm *VM) execFuncCall(arg byte) error {
	argCount := int(arg + 1)
	args, err := vm.popN(argCount)
	if err != nil {
		return err
	}
	calleeVals, err := vm.popN(1)
	if err != nil {
		return err
	}
	callee := calleeVals[0]

	switch callee.Kind {
	case KindNativeFunc:
		return callee.Native(vm, args)

	case KindFunc:
		if err := vm.checkCallDepth(); err != nil {
			return err
		}
		fd, err := vm.funcDef(callee.FuncIdx)
		if err != nil {
			return err
		}
		vm.pushArgs(fd, args)
		vm.current = newFrame(fd.Code, vm.current, nil)
		return nil

	default:
		return &TypeError{Kind: "call", Msg: fmt.Sprintf("%s value is not callable", callee.Kind)}
	}
}
