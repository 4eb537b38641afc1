package compiler

import (
	"alto/internal/bytecode"
	"alto/internal/parser"
	"alto/internal/resolver"
)

func (c *compiler) stmt(s parser.Stmt) error {
	switch n := s.(type) {
	case *parser.ExprStmt:
		if err := c.expr(n.Expr); err != nil {
			return err
		}
		c.emit(bytecode.OpDrop, 0, 1)
		return nil
	case *parser.VarDecl:
		return c.varDecl(n)
	case *parser.BlockStmt:
		return c.blockStmt(n)
	case *parser.IfStmt:
		return c.ifStmt(n)
	case *parser.WhileStmt:
		return c.whileStmt(n)
	case *parser.ForStmt:
		return c.forStmt(n)
	case *parser.BreakStmt:
		c.emitBreak()
		return nil
	case *parser.ContinueStmt:
		c.emitContinue()
		return nil
	case *parser.ReturnStmt:
		if n.Value != nil {
			if err := c.expr(n.Value); err != nil {
				return err
			}
		} else {
			c.emit(bytecode.OpNull, 0, 0)
		}
		c.emitReturn()
		return nil
	case *parser.TryStmt:
		return c.tryStmt(n)
	case *parser.ImportStmt, *parser.ExportConstStmt:
		return c.topLevelStmt(s)
	default:
		return nil
	}
}

// varDecl evaluates each initializer in turn and stores it at the declared
// binding. An uncaptured (Local) slot's push IS its storage, already sitting
// at its declared stack position. A captured (Closure) slot's placeholder
// was already pushed at scope entry (spec §4.7): store over it with
// OpStoreVariable, which re-pushes the value — left in place rather than
// dropped, since the resolver counted this declaration as consuming one
// physical stack slot (see finalizeClosureScope) whether or not it was
// promoted, and sibling locals' indices depend on that slot staying put.
func (c *compiler) varDecl(n *parser.VarDecl) error {
	for i, init := range n.Inits {
		b := c.res.Bindings[resolver.VarDeclName{Node: n, Index: i}]
		if init != nil {
			if err := c.expr(init); err != nil {
				return err
			}
		} else {
			c.emit(bytecode.OpNull, 0, 0)
		}
		if b.Storage == resolver.Closure {
			c.emit(bytecode.OpStoreVariable, b.Depth, b.Index)
		}
	}
	return nil
}

func (c *compiler) blockStmt(n *parser.BlockStmt) error {
	info := c.res.Scopes[n]
	c.enterBlockScope(info)
	for _, stmt := range n.Stmts {
		if err := c.stmt(stmt); err != nil {
			return err
		}
	}
	c.leaveBlockScope()
	c.emitScopeCleanup(info)
	return nil
}

func (c *compiler) ifStmt(n *parser.IfStmt) error {
	if err := c.expr(n.Cond); err != nil {
		return err
	}
	falseJump := c.reserve() // ConditionalJump param=0 (jump if false)
	if err := c.blockStmt(n.Then); err != nil {
		return err
	}
	if n.Else == nil {
		c.patch(falseJump, bytecode.OpConditionalJump, 0, c.here())
		return nil
	}
	overElse := c.reserve()
	c.patch(falseJump, bytecode.OpConditionalJump, 0, c.here())
	if err := c.stmt(n.Else); err != nil {
		return err
	}
	c.patch(overElse, bytecode.OpJump, 0, c.here())
	return nil
}

func (c *compiler) whileStmt(n *parser.WhileStmt) error {
	condAddr := c.here()
	if err := c.expr(n.Cond); err != nil {
		return err
	}
	exitJump := c.reserve()

	info := c.res.Scopes[n.Body]
	lp := &loopCtx{exitDepth: len(c.exitStack)}
	c.loopStack = append(c.loopStack, lp)
	c.enterBlockScope(info)
	for _, stmt := range n.Body.Stmts {
		if err := c.stmt(stmt); err != nil {
			return err
		}
	}
	c.leaveBlockScope()
	c.patchJumpsTo(lp.pendingContinues, c.here())
	c.emitScopeCleanup(info)
	c.emit(bytecode.OpJump, 0, condAddr)

	exitAddr := c.here()
	c.patch(exitJump, bytecode.OpConditionalJump, 0, exitAddr)
	c.patchJumpsTo(lp.pendingBreaks, exitAddr)
	c.loopStack = c.loopStack[:len(c.loopStack)-1]
	return nil
}

// forStmt gives init/cond/next/body one shared scope (spec §4.4.3's
// loop-boundary rule). The closure frame for any captured slot in that
// scope is entered once for the whole loop rather than fresh per
// iteration: mutations to a captured loop variable are visible from
// closures created in different iterations, a deliberate simplification
// over per-iteration rebinding (documented in DESIGN.md).
func (c *compiler) forStmt(n *parser.ForStmt) error {
	info := c.res.Scopes[n]
	lp := &loopCtx{exitDepth: len(c.exitStack)}
	c.loopStack = append(c.loopStack, lp)
	c.enterBlockScope(info)

	if n.Init != nil {
		if err := c.stmt(n.Init); err != nil {
			return err
		}
	}
	condAddr := c.here()
	var exitJump int
	hasExitJump := n.Cond != nil
	if n.Cond != nil {
		if err := c.expr(n.Cond); err != nil {
			return err
		}
		exitJump = c.reserve()
	}
	for _, stmt := range n.Body.Stmts {
		if err := c.stmt(stmt); err != nil {
			return err
		}
	}
	nextAddr := c.here()
	c.patchJumpsTo(lp.pendingContinues, nextAddr)
	if n.Next != nil {
		if err := c.stmt(n.Next); err != nil {
			return err
		}
	}
	c.emit(bytecode.OpJump, 0, condAddr)

	exitAddr := c.here()
	if hasExitJump {
		c.patch(exitJump, bytecode.OpConditionalJump, 0, exitAddr)
	}
	c.leaveBlockScope()
	c.emitScopeCleanup(info)
	afterCleanup := c.here()
	c.patchJumpsTo(lp.pendingBreaks, afterCleanup)
	c.loopStack = c.loopStack[:len(c.loopStack)-1]
	return nil
}

// tryStmt lowers try/catch/finally onto OpEnterTry/OpLeaveTry (catch
// dispatch) and OpEnterFinally/OpLeaveFinally (the shared finally-body
// trampoline both the normal-completion and exception paths route
// through), per the handler-chain fields in vm.ExceptionHandler.
func (c *compiler) tryStmt(n *parser.TryStmt) error {
	var fctx *finallyCtx
	if n.HasFinally {
		fctx = &finallyCtx{}
		c.exitStack = append(c.exitStack, exitEntry{isFinally: true, finally: fctx})
	}

	var handlerAddr int
	var enterTryIdx int
	if n.HasCatch || n.HasFinally {
		enterTryIdx = c.reserve()
	}

	if err := c.blockStmt(n.Try); err != nil {
		return err
	}

	var leaveTryIdx int
	if n.HasCatch || n.HasFinally {
		leaveTryIdx = c.reserve()
		handlerAddr = c.here()
		c.patch(enterTryIdx, bytecode.OpEnterTry, 0, handlerAddr)
	}

	if n.HasCatch {
		catchInfo := c.res.Scopes[n.Catch]
		if n.CatchParam == "" {
			c.emit(bytecode.OpDrop, 0, 1)
		}
		c.enterBlockScope(catchInfo)
		for _, stmt := range n.Catch.Stmts {
			if err := c.stmt(stmt); err != nil {
				return err
			}
		}
		c.leaveBlockScope()
		c.emitScopeCleanup(catchInfo)
		if n.HasFinally {
			c.emitFinallyTrampoline(fctx)
		}
	} else if n.HasFinally {
		// No catch: the handler IS the exception-path trampoline. The
		// raised exception sits on the stack (vm.frame.raise pushes it at
		// HandlerIP) and must survive the finally body to be rethrown.
		rethrowStub := c.reserveFinallyTrampoline(fctx)
		c.emit(bytecode.OpThrow, 0, 0)
		_ = rethrowStub
	}

	normalTail := c.here()
	if n.HasCatch || n.HasFinally {
		c.patch(leaveTryIdx, bytecode.OpLeaveTry, 0, normalTail)
	}
	if n.HasFinally {
		c.emitFinallyTrampoline(fctx)
	}

	if n.HasFinally {
		financeEntry := c.here()
		c.exitStack = c.exitStack[:len(c.exitStack)-1]
		for _, stmt := range n.Finally.Stmts {
			if err := c.stmt(stmt); err != nil {
				return err
			}
		}
		c.patchJumpsTo(fctx.pendingJumps, financeEntry)
		c.emit(bytecode.OpLeaveFinally, 0, 0)
	}
	return nil
}

// emitFinallyTrampoline emits `EnterFinally <afterAddr>; Jump financeEntry`
// at the current position, patched once both addresses are known: afterAddr
// is the very next instruction emitted, financeEntry is patched later via
// fctx.pendingJumps.
func (c *compiler) emitFinallyTrampoline(fctx *finallyCtx) {
	enterIdx := c.reserve()
	jumpIdx := c.reserve()
	after := c.here()
	c.patch(enterIdx, bytecode.OpEnterFinally, 0, after)
	fctx.pendingJumps = append(fctx.pendingJumps, jumpIdx)
}

// reserveFinallyTrampoline is emitFinallyTrampoline but the resume target is
// whatever the caller emits immediately afterward (the rethrow stub), not
// the instruction right after this trampoline.
func (c *compiler) reserveFinallyTrampoline(fctx *finallyCtx) int {
	enterIdx := c.reserve()
	jumpIdx := c.reserve()
	stub := c.here()
	c.patch(enterIdx, bytecode.OpEnterFinally, 0, stub)
	fctx.pendingJumps = append(fctx.pendingJumps, jumpIdx)
	return stub
}

// topLevelStmt compiles import/export, which only ever appear at module
// scope outside any function body.
func (c *compiler) topLevelStmt(s parser.Stmt) error {
	switch n := s.(type) {
	case *parser.ImportStmt:
		return nil // resolved at module-load time (spec §4.8); no bytecode of its own
	case *parser.ExportConstStmt:
		if err := c.expr(n.Init); err != nil {
			return err
		}
		b := c.res.Bindings[n]
		if b.Storage == resolver.Closure {
			c.emit(bytecode.OpStoreVariable, b.Depth, b.Index)
		}
		// Local storage: the pushed value is already sitting at its
		// declared stack slot (spec §4.8); nothing further to store there.
		// Also publish into the module's export table, so the host can read
		// every export's final value back after running the top level
		// without inspecting frame state (spec §4.8).
		c.emit(bytecode.OpLoadGlobal, 0, c.exportsIdx)
		c.emit(bytecode.OpLoadGlobal, 0, c.internString(n.Name))
		if err := c.loadBinding(b); err != nil {
			return err
		}
		c.emit(bytecode.OpStoreElement, 0, 0)
		c.emit(bytecode.OpDrop, 0, 1)
		return nil
	}
	return nil
}
