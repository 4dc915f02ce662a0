package vm

import (
	"fmt"
	"os"
	"strings"
)

func registerIONatives(vm *VM) {
	vm.globals["println"] = NativeValue("println", printlnNative)
	vm.globals["read"] = NativeValue("read", readNative)
}

func printlnNative(vm *VM, args []Value) error {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Display()
	}
	out := vm.Stdout
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintln(out, strings.Join(parts, " "))
	return vm.push(Nil())
}

func readNative(vm *VM, args []Value) error {
	if len(args) != 1 || args[0].Kind != KindString {
		return &TypeError{Kind: "read", Msg: "read requires a string filename"}
	}
	data, err := os.ReadFile(args[0].Str)
	if err != nil {
		return &RuntimeError{Kind: "read", Msg: err.Error()}
	}
	return vm.push(StringValue(string(data)))
}
