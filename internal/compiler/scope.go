package compiler

import (
	"alto/internal/bytecode"
	"alto/internal/resolver"
)

// exitEntry is one frame a return/break/continue statement must unwind
// through on its way to its target: either an ordinary block/loop scope
// (drop its locals, leave its closure frame) or a finally trampoline (run
// the finally body before continuing the unwind).
type exitEntry struct {
	isFinally    bool
	localCount   int
	needsClosure bool
	finally      *finallyCtx
}

// finallyCtx backpatches the Jump half of every trampoline that routes
// through this finally block, once the finally body's entry address is
// known (it's compiled strictly after every early-exit site that can reach
// it, since it follows the try/catch region in program order).
type finallyCtx struct {
	pendingJumps []int
}

type loopCtx struct {
	// exitDepth is the index into c.exitStack of this loop's own frame
	// entry. break unwinds exitStack[exitDepth:] (leaving the loop's own
	// scope too); continue unwinds exitStack[exitDepth+1:] (body-interior
	// scopes only, keeping the loop's own binding alive for Next/Cond).
	exitDepth        int
	pendingBreaks    []int
	pendingContinues []int
}

// enterBlockScope emits the closure-frame setup for a nested block/loop
// scope (not a function's own, handled separately) and pushes its unwind
// frame onto c.exitStack; leaveBlockScope pops it again.
func (c *compiler) enterBlockScope(info *resolver.ScopeInfo) {
	c.enterClosureFrameIfNeeded(info)
	c.exitStack = append(c.exitStack, exitEntry{
		localCount:   info.LocalCount,
		needsClosure: info.NeedsClosureFrame,
	})
}

// leaveBlockScope runs the normal (non-early-exit) cleanup for the scope
// most recently pushed by enterBlockScope.
func (c *compiler) leaveBlockScope() {
	c.exitStack = c.exitStack[:len(c.exitStack)-1]
}

func (c *compiler) emitScopeCleanup(info *resolver.ScopeInfo) {
	if info.NeedsClosureFrame {
		c.emit(bytecode.OpLeaveClosure, 0, 0)
	}
	if info.LocalCount > 0 {
		c.emit(bytecode.OpDrop, 0, info.LocalCount)
	}
}

// unwindAndExit walks entries innermost-first, emitting block cleanup and
// finally trampolines, then calls terminal once every entry is consumed.
// preserveTop keeps whatever value sits on top of the stack (a return's
// value) alive through block cleanup, using a swap-then-drop dance since
// OpDrop only removes from the very top (spec §4.7's stack model has no
// "drop beneath top" primitive).
func (c *compiler) unwindAndExit(entries []exitEntry, preserveTop bool, terminal func()) {
	if len(entries) == 0 {
		terminal()
		return
	}
	last := len(entries) - 1
	e := entries[last]
	rest := entries[:last]
	if e.isFinally {
		enterIdx := c.reserve()
		jumpIdx := c.reserve()
		stubAddr := c.here()
		c.unwindAndExit(rest, preserveTop, terminal)
		c.patch(enterIdx, bytecode.OpEnterFinally, 0, stubAddr)
		e.finally.pendingJumps = append(e.finally.pendingJumps, jumpIdx)
		return
	}
	if e.needsClosure {
		c.emit(bytecode.OpLeaveClosure, 0, 0)
	}
	if e.localCount > 0 {
		if preserveTop {
			for i := 0; i < e.localCount; i++ {
				c.emit(bytecode.OpSwap, 0, 0)
				c.emit(bytecode.OpDrop, 0, 1)
			}
		} else {
			c.emit(bytecode.OpDrop, 0, e.localCount)
		}
	}
	c.unwindAndExit(rest, preserveTop, terminal)
}

// emitReturn compiles `return value;` (value already pushed), unwinding
// every scope and finally block between here and the function boundary.
func (c *compiler) emitReturn() {
	entries := append([]exitEntry(nil), c.exitStack...)
	c.unwindAndExit(entries, true, func() {
		c.emit(bytecode.OpReturn, 0, 0)
	})
}

// emitBreak/emitContinue compile bare break/continue, unwinding to (and, for
// break, including) the nearest enclosing loop's own scope, then jumping to
// a backpatched address filled in once the loop's layout is known. The
// parser rejects break/continue outside a loop, so c.loopStack is always
// non-empty here.
func (c *compiler) emitBreak() {
	lp := c.loopStack[len(c.loopStack)-1]
	entries := append([]exitEntry(nil), c.exitStack[lp.exitDepth:]...)
	c.unwindAndExit(entries, false, func() {
		idx := c.reserve()
		lp.pendingBreaks = append(lp.pendingBreaks, idx)
	})
}

func (c *compiler) emitContinue() {
	lp := c.loopStack[len(c.loopStack)-1]
	entries := append([]exitEntry(nil), c.exitStack[lp.exitDepth+1:]...)
	c.unwindAndExit(entries, false, func() {
		idx := c.reserve()
		lp.pendingContinues = append(lp.pendingContinues, idx)
	})
}

func (c *compiler) patchJumpsTo(idxs []int, target int) {
	for _, idx := range idxs {
		c.patch(idx, bytecode.OpJump, 0, target)
	}
}
