// Package debugger implements Alto's instruction inspector (spec §6): a
// step debugger invoked before every instruction and on unhandled
// exceptions, controlled over a network.Session WebSocket connection.
package debugger

import "alto/internal/network"

// Breakpoint is a line-based stop point.
type Breakpoint struct {
	Line    int
	Enabled bool
}

// State is the inspector's run mode, adapted from the teacher's DebugState
// (debugger.go): StepOver/StepOut are dropped since the inspector has no
// call-depth tracking to distinguish them from StepInto yet.
type State int

const (
	Running State = iota
	Paused
	StepInto
	Terminated
)

// Inspector drives one debugging session. It implements vm.Hook (in
// vm_hook.go), publishing instruction/exception events over a
// network.Session and blocking on that session's Commands channel while
// Paused — adapted from the teacher's Debugger+VMDebugHook split
// (internal/debugger/debugger.go, internal/debugger/vm_hook.go), with the
// stdin-driven command loop replaced by a WebSocket one.
type Inspector struct {
	session     *network.Session
	breakpoints map[int]*Breakpoint
	state       State
}

// NewInspector builds an Inspector driven by sess. Call vm.SetHook(insp)
// before running the module to inspect.
func NewInspector(sess *network.Session) *Inspector {
	return &Inspector{
		session:     sess,
		breakpoints: make(map[int]*Breakpoint),
		state:       Running,
	}
}

// AddBreakpoint enables a stop at line.
func (insp *Inspector) AddBreakpoint(line int) {
	insp.breakpoints[line] = &Breakpoint{Line: line, Enabled: true}
}

// RemoveBreakpoint clears a previously added breakpoint.
func (insp *Inspector) RemoveBreakpoint(line int) {
	delete(insp.breakpoints, line)
}

func (insp *Inspector) hitBreakpoint(line int) bool {
	bp, ok := insp.breakpoints[line]
	return ok && bp.Enabled
}

// State reports the inspector's current run mode.
func (insp *Inspector) State() State {
	return insp.state
}
