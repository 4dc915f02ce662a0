package vm

// maxVars matches the compiler's shared string-pool index space: a
// variable's slot is its string-pool index, so every script-wide
// symbol needs a slot regardless of which function binds it.
const maxVars = 256

// Frame is an activation record for one call. Vars is indexed by
// string-pool index rather than a per-function-local numbering, so
// slot IDs are globally unique within a script.
type Frame struct {
	Vars   [maxVars]Value
	Code   []byte
	IP     int
	Parent *Frame
	Coro   *Coroutine
}

func newFrame(code []byte, parent *Frame, coro *Coroutine) *Frame {
	return &Frame{Code: code, Parent: parent, Coro: coro}
}
