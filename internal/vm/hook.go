package vm

// Hook receives instruction-level callbacks from every running frame (spec
// §6: "callback invoked before each instruction and on exception"). It is
// the seam internal/debugger's inspector attaches to — the interpreter
// itself has no notion of breakpoints or stepping, only of asking a Hook
// whether to keep going.
type Hook interface {
	// OnInstruction is called before the instruction at ip executes.
	// Returning false halts the frame immediately (as if it had fallen off
	// the end of its code, returning Null).
	OnInstruction(p *Program, ip int) bool

	// OnException is called when a frame's exception handler chain has no
	// catch for exc and it is about to unwind past the frame.
	OnException(p *Program, ip int, exc *Exception)
}

// ActiveHook is consulted before every instruction across every frame when
// non-nil. Install one with SetHook before running the module to inspect;
// the default nil value costs a single comparison per instruction.
var ActiveHook Hook

// SetHook installs h as the active instruction hook, or clears it if h is
// nil.
func SetHook(h Hook) {
	ActiveHook = h
}
