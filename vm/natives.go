package vm

// registerNatives installs the fixed native function surface into
// globals under its exact source-level names.
func registerNatives(vm *VM) {
	registerArithNatives(vm)
	registerIONatives(vm)
	registerControlNatives(vm)
	registerCoroutineNatives(vm)
}
