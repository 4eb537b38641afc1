package debugger

import (
	"alto/internal/network"
	"alto/internal/vm"
)

// OnInstruction implements vm.Hook. It reports ip's source location to the
// attached session and, while paused (a breakpoint was just hit, or the
// inspector is single-stepping), blocks reading commands until
// continue/step/quit arrives.
func (insp *Inspector) OnInstruction(p *vm.Program, ip int) bool {
	if insp.state == Terminated {
		return false
	}
	entry := sourceEntry(p, ip)

	if insp.state == StepInto || insp.hitBreakpoint(entry.Line) {
		insp.state = Paused
	}
	insp.emit(network.Event{Type: "instruction", Line: entry.Line, Function: entry.Function})

	if insp.state != Paused {
		return true
	}
	insp.emit(network.Event{Type: "paused", Line: entry.Line, Function: entry.Function})
	return insp.waitForCommand()
}

// OnException implements vm.Hook.
func (insp *Inspector) OnException(p *vm.Program, ip int, exc *vm.Exception) {
	entry := sourceEntry(p, ip)
	insp.emit(network.Event{Type: "exception", Line: entry.Line, Function: entry.Function, Message: exc.Error()})
}

func (insp *Inspector) emit(ev network.Event) {
	select {
	case insp.session.Events <- ev:
	default:
		// Client isn't draining fast enough; drop rather than block the VM.
	}
}

// waitForCommand blocks until the client sends continue, step, a breakpoint
// edit, or quit, applying it and reporting whether the frame should keep
// running.
func (insp *Inspector) waitForCommand() bool {
	for cmd := range insp.session.Commands {
		switch cmd.Type {
		case "continue":
			insp.state = Running
			return true
		case "step":
			insp.state = StepInto
			return true
		case "break":
			insp.AddBreakpoint(cmd.Line)
		case "clear":
			insp.RemoveBreakpoint(cmd.Line)
		case "quit":
			insp.state = Terminated
			return false
		}
	}
	// Commands channel closed: the client disconnected mid-pause.
	insp.state = Terminated
	return false
}

func sourceEntry(p *vm.Program, ip int) vm.SourceMapEntry {
	if ip < 0 || ip >= len(p.SourceMap) {
		return vm.SourceMapEntry{}
	}
	return p.SourceMap[ip]
}
