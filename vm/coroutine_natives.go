package vm

func registerCoroutineNatives(vm *VM) {
	vm.globals["coroutine"] = NativeValue("coroutine", coroutineNative)
	vm.globals["call"] = NativeValue("call", callNative)
	vm.globals["yield"] = NativeValue("yield", yieldNative)
	vm.globals["done?"] = NativeValue("done?", doneNative)
}

func coroutineNative(vm *VM, args []Value) error {
	if len(args) != 1 || args[0].Kind != KindFunc {
		return &TypeError{Kind: "coroutine", Msg: "coroutine requires a function"}
	}
	fd, err := vm.funcDef(args[0].FuncIdx)
	if err != nil {
		return err
	}
	name := "#"
	if int(fd.NameIndex) < len(vm.script.Strings) {
		name = vm.script.Strings[fd.NameIndex]
	}
	coro := &Coroutine{FuncIdx: args[0].FuncIdx, Name: name}
	return vm.push(CoroutineValue(coro))
}

// callNative starts or resumes a coroutine. The value left on the
// operand stack by the nested run (the coroutine's yielded value, or
// its final expression's value on natural Return) becomes call's own
// return value with no further push required.
func callNative(vm *VM, args []Value) error {
	if len(args) == 0 {
		return &RuntimeError{Kind: "call", Msg: "call requires at least 1 argument"}
	}
	if args[0].Kind != KindCoroutine {
		return &TypeError{Kind: "call", Msg: "call requires a coroutine"}
	}
	coro := args[0].Coro

	if coro.Done {
		return vm.push(Nil())
	}

	resume := Nil()
	if len(args) > 1 {
		resume = args[1]
	}

	if err := vm.checkCallDepth(); err != nil {
		return err
	}

	vm.yielded = false
	var frame *Frame

	if !coro.Started {
		coro.Started = true
		fd, err := vm.funcDef(coro.FuncIdx)
		if err != nil {
			return err
		}
		vm.pushArgs(fd, nil)
		frame = newFrame(fd.Code, vm.current, coro)
	} else {
		frame = coro.Frame
		if frame == nil {
			return vm.push(Nil())
		}
		frame.Parent = vm.current
		coro.Frame = nil
		if err := vm.push(resume); err != nil {
			return err
		}
	}

	if err := vm.runFrom(frame); err != nil {
		return err
	}

	if vm.yielded {
		vm.yielded = false
	} else {
		coro.Done = true
		coro.Frame = nil
	}
	return nil
}

// yieldNative detaches the current frame and parks it on the nearest
// enclosing coroutine for a later call to resume. Called directly from
// the coroutine's body, that frame is the coroutine's own; called from
// a nested function inside it, only the nested frame is detached.
func yieldNative(vm *VM, args []Value) error {
	coro := vm.currentCoroutine()
	if coro == nil {
		return &RuntimeError{Kind: "yield", Msg: "yield outside a coroutine"}
	}
	val := Nil()
	if len(args) > 0 {
		val = args[0]
	}
	if err := vm.push(val); err != nil {
		return err
	}
	detached := vm.current
	vm.current = detached.Parent
	coro.Frame = detached
	vm.yielded = true
	return nil
}

func doneNative(vm *VM, args []Value) error {
	if len(args) != 1 || args[0].Kind != KindCoroutine {
		return &TypeError{Kind: "done?", Msg: "done? requires a coroutine"}
	}
	return vm.push(BoolValue(args[0].Coro.Done))
}
