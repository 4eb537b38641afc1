package resolver

import (
	"alto/internal/errors"
	"alto/internal/parser"
)

func (r *resolver) stmt(s parser.Stmt) error {
	switch n := s.(type) {
	case *parser.ExprStmt:
		return r.expr(n.Expr)
	case *parser.VarDecl:
		return r.varDecl(n)
	case *parser.BlockStmt:
		return r.blockIn(n, kindBlock)
	case *parser.IfStmt:
		return r.ifStmt(n)
	case *parser.WhileStmt:
		return r.whileStmt(n)
	case *parser.ForStmt:
		return r.forStmt(n)
	case *parser.BreakStmt, *parser.ContinueStmt:
		return nil
	case *parser.ReturnStmt:
		if n.Value != nil {
			return r.expr(n.Value)
		}
		return nil
	case *parser.TryStmt:
		return r.tryStmt(n)
	case *parser.ImportStmt:
		return r.importStmt(n)
	case *parser.ExportConstStmt:
		return r.exportConstStmt(n)
	default:
		return nil
	}
}

func (r *resolver) varDecl(n *parser.VarDecl) error {
	row, col := n.Pos()
	for i, name := range n.Names {
		init := n.Inits[i]
		// A function literal bound to its own name (`function f(...) {...}`)
		// is resolved after f is declared, so its body can call f.
		fn, isFn := init.(*parser.FunctionExpr)
		selfNamed := isFn && fn.Name == name
		if init != nil && !selfNamed {
			if err := r.expr(init); err != nil {
				return err
			}
		}
		if _, err := r.declare(name, n.Const, row, col); err != nil {
			return err
		}
		if selfNamed {
			if err := r.expr(init); err != nil {
				return err
			}
		}
		// Self-reference so fixupBindings gives the compiler this name's
		// final address, even if a later-declared nested function promotes
		// it to Closure storage.
		if err := r.reference(VarDeclName{Node: n, Index: i}, name, row, col); err != nil {
			return err
		}
	}
	return nil
}

// blockIn walks a block's statements inside a fresh scope of the given kind,
// reclaiming its local-stack slots on exit (spec §4.4.3).
func (r *resolver) blockIn(b *parser.BlockStmt, kind scopeKind) error {
	mark := r.curFunc.nextLocal
	r.pushScope(kind, b)
	for _, stmt := range b.Stmts {
		if err := r.stmt(stmt); err != nil {
			return err
		}
	}
	r.popScope(mark)
	return nil
}

func (r *resolver) ifStmt(n *parser.IfStmt) error {
	if err := r.expr(n.Cond); err != nil {
		return err
	}
	if err := r.blockIn(n.Then, kindBlock); err != nil {
		return err
	}
	if n.Else != nil {
		return r.stmt(n.Else)
	}
	return nil
}

func (r *resolver) whileStmt(n *parser.WhileStmt) error {
	if err := r.expr(n.Cond); err != nil {
		return err
	}
	return r.blockIn(n.Body, kindLoop)
}

// forStmt gives init/cond/next/body one shared enclosing scope (spec
// §4.4.3's loop-boundary rule). The compiler enters that scope's closure
// frame, when it needs one, once for the whole loop, not once per iteration.
func (r *resolver) forStmt(n *parser.ForStmt) error {
	mark := r.curFunc.nextLocal
	r.pushScope(kindLoop, n)
	if n.Init != nil {
		if err := r.stmt(n.Init); err != nil {
			return err
		}
	}
	if n.Cond != nil {
		if err := r.expr(n.Cond); err != nil {
			return err
		}
	}
	if n.Next != nil {
		if err := r.stmt(n.Next); err != nil {
			return err
		}
	}
	for _, stmt := range n.Body.Stmts {
		if err := r.stmt(stmt); err != nil {
			return err
		}
	}
	r.popScope(mark)
	return nil
}

func (r *resolver) tryStmt(n *parser.TryStmt) error {
	if err := r.blockIn(n.Try, kindBlock); err != nil {
		return err
	}
	if n.HasCatch {
		mark := r.curFunc.nextLocal
		r.pushScope(kindBlock, n.Catch)
		if n.CatchParam != "" {
			row, col := n.Pos()
			if _, err := r.declare(n.CatchParam, false, row, col); err != nil {
				return err
			}
		}
		for _, stmt := range n.Catch.Stmts {
			if err := r.stmt(stmt); err != nil {
				return err
			}
		}
		r.popScope(mark)
	}
	if n.HasFinally {
		if err := r.blockIn(n.Finally, kindBlock); err != nil {
			return err
		}
	}
	return nil
}

// importStmt declares a module-scope global (spec §4.4.4: globals are
// restricted to imports). Import slots are never promoted to Closure
// storage — OpLoadGlobal addresses the data pool directly regardless of
// nesting depth.
func (r *resolver) importStmt(n *parser.ImportStmt) error {
	if _, ok := r.current.symbols[n.Name]; ok {
		row, col := n.Pos()
		return errors.NewResolveError("redeclaration of "+n.Name+" in the same scope", row, col)
	}
	sl := &slot{name: n.Name, isConst: true, storage: Global, declScope: r.current}
	sl.localIndex = len(r.result.Imports)
	r.result.Imports = append(r.result.Imports, ImportRef{Name: n.Name, Path: n.Path})
	r.current.symbols[n.Name] = sl
	r.current.order = append(r.current.order, sl)
	return nil
}

func (r *resolver) exportConstStmt(n *parser.ExportConstStmt) error {
	if err := r.expr(n.Init); err != nil {
		return err
	}
	row, col := n.Pos()
	if _, err := r.declare(n.Name, true, row, col); err != nil {
		return err
	}
	// Record a self-reference keyed by the statement node so fixupBindings
	// gives the compiler this export's final address, even if some nested
	// function later promotes it to Closure storage.
	if err := r.reference(n, n.Name, row, col); err != nil {
		return err
	}
	r.result.Exports = append(r.result.Exports, n.Name)
	r.exportNodes = append(r.exportNodes, n)
	return nil
}
