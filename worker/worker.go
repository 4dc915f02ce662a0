// Package worker serializes all access to a *vm.VM through a single
// goroutine, so callers on several goroutines can use one VM instance
// without racing on its operand stack or frame chain. The CLI and the
// language server each wrap their own VM in a Worker.
package worker

import (
	"fmt"

	"github.com/nsprague/slisp/vm"
)

type request struct {
	fn   func(*vm.VM) interface{}
	done chan result
}

type result struct {
	value interface{}
	err   error
}

// Worker owns a *vm.VM and runs every operation against it on a single
// dedicated goroutine.
type Worker struct {
	vm       *vm.VM
	requests chan request
	quit     chan struct{}
}

// New creates a Worker around v and starts its processing goroutine.
func New(v *vm.VM) *Worker {
	w := &Worker{
		vm:       v,
		requests: make(chan request, 64),
		quit:     make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *Worker) loop() {
	for {
		select {
		case req := <-w.requests:
			req.done <- w.execute(req.fn)
		case <-w.quit:
			return
		}
	}
}

// execute runs fn against the VM, converting a panic (e.g. a stack
// index bug) into an error instead of taking down the process.
func (w *Worker) execute(fn func(*vm.VM) interface{}) result {
	var r result
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				r.err = fmt.Errorf("worker: panic: %v", rec)
			}
		}()
		r.value = fn(w.vm)
	}()
	return r
}

// Do submits fn for execution on the worker goroutine and blocks until
// it completes.
func (w *Worker) Do(fn func(*vm.VM) interface{}) (interface{}, error) {
	req := request{fn: fn, done: make(chan result, 1)}
	w.requests <- req
	res := <-req.done
	return res.value, res.err
}

// Stop shuts down the worker goroutine. The Worker must not be used
// afterward.
func (w *Worker) Stop() {
	close(w.quit)
}

// VM returns the underlying VM, for read-only metadata access that
// does not touch interpreter state.
func (w *Worker) VM() *vm.VM {
	return w.vm
}
