package worker

import (
	"testing"

	"github.com/nsprague/slisp/vm"
)

func TestDoRunsOnWorkerGoroutine(t *testing.T) {
	w := New(vm.New())
	defer w.Stop()

	val, err := w.Do(func(v *vm.VM) interface{} {
		return 42
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val.(int) != 42 {
		t.Errorf("got %v, want 42", val)
	}
}

func TestDoRecoversPanic(t *testing.T) {
	w := New(vm.New())
	defer w.Stop()

	_, err := w.Do(func(v *vm.VM) interface{} {
		panic("boom")
	})
	if err == nil {
		t.Fatal("expected an error from a panicking function")
	}
}

func TestVMReturnsUnderlyingInstance(t *testing.T) {
	v := vm.New()
	w := New(v)
	defer w.Stop()

	if w.VM() != v {
		t.Error("VM() should return the same instance passed to New")
	}
}
