package vm

// Coroutine wraps a script function as a resumable activation. Before
// the first call Frame is nil and Started is false; after a yield,
// Frame holds the detached activation record; after the function's
// own Return, Done is set and Frame is cleared.
type Coroutine struct {
	FuncIdx int
	Name    string
	Frame   *Frame
	Started bool
	Done    bool
}
