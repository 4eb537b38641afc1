package debugger

import (
	"testing"
	"time"

	"alto/internal/network"
	"alto/internal/vm"
)

func newTestSession() *network.Session {
	return &network.Session{
		ID:       "test",
		Events:   make(chan network.Event, 16),
		Commands: make(chan network.Command, 16),
	}
}

func program(lines ...int) *vm.Program {
	entries := make([]vm.SourceMapEntry, len(lines))
	for i, line := range lines {
		entries[i] = vm.SourceMapEntry{Line: line, Function: "main"}
	}
	return vm.NewProgram(nil, nil, entries)
}

func TestOnInstructionRunsThroughWithNoBreakpoints(t *testing.T) {
	sess := newTestSession()
	insp := NewInspector(sess)
	p := program(1, 2, 3)

	for ip := range p.SourceMap {
		if !insp.OnInstruction(p, ip) {
			t.Fatalf("OnInstruction(%d) halted with no breakpoints set", ip)
		}
	}
}

func TestOnInstructionPausesAtBreakpointUntilContinue(t *testing.T) {
	sess := newTestSession()
	insp := NewInspector(sess)
	p := program(1, 2, 3)
	insp.AddBreakpoint(2)

	done := make(chan bool, 1)
	go func() { done <- insp.OnInstruction(p, 1) }()

	select {
	case <-done:
		t.Fatal("OnInstruction returned before a continue command was sent")
	case <-time.After(50 * time.Millisecond):
	}
	if insp.State() != Paused {
		t.Fatalf("state = %v, want Paused", insp.State())
	}

	sess.Commands <- network.Command{Type: "continue"}
	select {
	case cont := <-done:
		if !cont {
			t.Fatal("OnInstruction returned false after continue")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for OnInstruction to resume")
	}
}

func TestOnInstructionQuitHalts(t *testing.T) {
	sess := newTestSession()
	insp := NewInspector(sess)
	p := program(1)
	insp.AddBreakpoint(1)

	done := make(chan bool, 1)
	go func() { done <- insp.OnInstruction(p, 0) }()
	sess.Commands <- network.Command{Type: "quit"}

	select {
	case cont := <-done:
		if cont {
			t.Fatal("OnInstruction returned true after quit")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for quit to take effect")
	}
	if insp.State() != Terminated {
		t.Fatalf("state = %v, want Terminated", insp.State())
	}
}

func TestOnExceptionEmitsEvent(t *testing.T) {
	sess := newTestSession()
	insp := NewInspector(sess)
	p := program(7)

	insp.OnException(p, 0, vm.NewException("boom", nil))

	select {
	case ev := <-sess.Events:
		if ev.Type != "exception" || ev.Line != 7 || ev.Message == "" {
			t.Fatalf("unexpected event: %#v", ev)
		}
	default:
		t.Fatal("no event emitted")
	}
}
