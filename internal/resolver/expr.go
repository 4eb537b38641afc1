package resolver

import "alto/internal/parser"

func (r *resolver) expr(e parser.Expr) error {
	switch n := e.(type) {
	case *parser.NullLiteral, *parser.BoolLiteral, *parser.NumberLiteral, *parser.StringLiteral, *parser.ThisExpr:
		return nil
	case *parser.Identifier:
		row, col := n.Pos()
		return r.reference(n, n.Name, row, col)
	case *parser.ListExpr:
		for _, el := range n.Elements {
			if err := r.expr(el); err != nil {
				return err
			}
		}
		return nil
	case *parser.TableExpr:
		for _, entry := range n.Entries {
			if entry.Computed {
				if err := r.expr(entry.ComputedKey); err != nil {
					return err
				}
			}
			if err := r.expr(entry.Value); err != nil {
				return err
			}
		}
		return nil
	case *parser.FunctionExpr:
		return r.functionExpr(n)
	case *parser.MemberExpr:
		return r.expr(n.Object)
	case *parser.IndexExpr:
		if err := r.expr(n.Object); err != nil {
			return err
		}
		return r.expr(n.Index)
	case *parser.CallExpr:
		if err := r.expr(n.Callee); err != nil {
			return err
		}
		for _, a := range n.Args {
			if err := r.expr(a); err != nil {
				return err
			}
		}
		return nil
	case *parser.UnaryExpr:
		return r.expr(n.Operand)
	case *parser.BinaryExpr:
		if err := r.expr(n.Left); err != nil {
			return err
		}
		return r.expr(n.Right)
	case *parser.LogicalExpr:
		if err := r.expr(n.Left); err != nil {
			return err
		}
		return r.expr(n.Right)
	case *parser.TernaryExpr:
		if err := r.expr(n.Cond); err != nil {
			return err
		}
		if err := r.expr(n.Then); err != nil {
			return err
		}
		return r.expr(n.Else)
	case *parser.AssignExpr:
		return r.assignExpr(n)
	case *parser.ThrowExpr:
		return r.expr(n.Value)
	default:
		return nil
	}
}

func (r *resolver) assignExpr(n *parser.AssignExpr) error {
	if err := r.expr(n.Value); err != nil {
		return err
	}
	switch target := n.Target.(type) {
	case *parser.Identifier:
		row, col := target.Pos()
		if err := r.assign(target.Name, row, col); err != nil {
			return err
		}
		return r.reference(n, target.Name, row, col)
	case *parser.MemberExpr:
		return r.expr(target.Object)
	case *parser.IndexExpr:
		if err := r.expr(target.Object); err != nil {
			return err
		}
		return r.expr(target.Index)
	}
	return nil
}

// functionExpr resolves a nested function/arrow literal: a fresh function
// scope for its parameters and body (spec §4.4.2). Captures discovered
// inside propagate outward via r.reference's capture marking.
func (r *resolver) functionExpr(n *parser.FunctionExpr) error {
	info := &FuncInfo{}
	r.result.Funcs[n] = info

	parentFunc := r.curFunc
	fn := &funcScope{parent: parentFunc, depth: parentFunc.depth + 1, info: info, node: n}
	r.curFunc = fn

	parentScope := r.current
	r.current = &scope{parent: parentScope, kind: kindFunction, fn: fn, symbols: map[string]*slot{}, info: &ScopeInfo{}, node: n}
	r.result.Scopes[n] = r.current.info

	for i, p := range n.Params {
		if _, err := r.declareParam(p, i, n.Row, n.Col); err != nil {
			return err
		}
	}
	if n.RestParam != "" {
		if _, err := r.declareRestParam(n.RestParam, len(n.Params), n.Row, n.Col); err != nil {
			return err
		}
	}
	for _, stmt := range n.Body.Stmts {
		if err := r.stmt(stmt); err != nil {
			return err
		}
	}

	r.finalizeClosureScope(r.current)
	info.LocalSlots = fn.maxLocal

	r.current = parentScope
	r.curFunc = parentFunc
	return nil
}
