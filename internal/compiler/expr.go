package compiler

import (
	"alto/internal/bytecode"
	"alto/internal/parser"
	"alto/internal/resolver"
)

// binaryOps maps a BinaryExpr/compound-assignment operator token to its
// opcode (spec §4.3's operator table). "!=" has no dedicated opcode: it
// compiles to Equal followed by Not.
var binaryOps = map[string]bytecode.Op{
	"+": bytecode.OpAdd,
	"-": bytecode.OpSubtract,
	"*": bytecode.OpMultiply,
	"/": bytecode.OpDivide,
	"%": bytecode.OpRemainder,
	"&": bytecode.OpAnd,
	"|": bytecode.OpOr,
	"^": bytecode.OpXor,
	"<": bytecode.OpLess,
	"<=": bytecode.OpLessOrEqual,
	">": bytecode.OpGreater,
	">=": bytecode.OpGreaterOrEqual,
}

func (c *compiler) expr(e parser.Expr) error {
	switch n := e.(type) {
	case *parser.NullLiteral:
		c.emit(bytecode.OpNull, 0, 0)
		return nil
	case *parser.BoolLiteral:
		v := 0
		if n.Value {
			v = 1
		}
		c.emit(bytecode.OpBoolean, 0, v)
		return nil
	case *parser.NumberLiteral:
		c.number(n.Value)
		return nil
	case *parser.StringLiteral:
		c.emit(bytecode.OpLoadGlobal, 0, c.internString(n.Value))
		return nil
	case *parser.ThisExpr:
		c.emit(bytecode.OpLoadThis, 0, 0)
		return nil
	case *parser.Identifier:
		return c.loadBinding(c.res.Bindings[n])
	case *parser.ListExpr:
		for _, el := range n.Elements {
			if err := c.expr(el); err != nil {
				return err
			}
		}
		c.emit(bytecode.OpList, 0, len(n.Elements))
		return nil
	case *parser.TableExpr:
		for _, entry := range n.Entries {
			if entry.Computed {
				if err := c.expr(entry.ComputedKey); err != nil {
					return err
				}
			} else {
				c.emit(bytecode.OpLoadGlobal, 0, c.internString(entry.Key))
			}
			if err := c.expr(entry.Value); err != nil {
				return err
			}
		}
		c.emit(bytecode.OpTable, 0, len(n.Entries))
		return nil
	case *parser.FunctionExpr:
		c.enqueueFunction(n)
		return nil
	case *parser.MemberExpr:
		if err := c.expr(n.Object); err != nil {
			return err
		}
		c.emit(bytecode.OpLoadGlobal, 0, c.internString(n.Name))
		c.emit(bytecode.OpLoadElement, 0, 0)
		return nil
	case *parser.IndexExpr:
		if err := c.expr(n.Object); err != nil {
			return err
		}
		if err := c.expr(n.Index); err != nil {
			return err
		}
		c.emit(bytecode.OpLoadElement, 0, 0)
		return nil
	case *parser.CallExpr:
		return c.callExpr(n)
	case *parser.UnaryExpr:
		return c.unaryExpr(n)
	case *parser.BinaryExpr:
		return c.binaryExpr(n)
	case *parser.LogicalExpr:
		return c.logicalExpr(n)
	case *parser.TernaryExpr:
		return c.ternaryExpr(n)
	case *parser.AssignExpr:
		return c.assignExpr(n)
	case *parser.ThrowExpr:
		if err := c.expr(n.Value); err != nil {
			return err
		}
		c.emit(bytecode.OpThrow, 0, 0)
		return nil
	}
	return nil
}

// number emits an inline OpNumber for integer literals within bytecode's
// signed 22-bit range, otherwise interns the literal into the data pool
// (spec §4.5/§8's bytecode range invariant).
func (c *compiler) number(v float64) {
	iv := int(v)
	if float64(iv) == v && bytecode.InRange(iv) {
		c.emit(bytecode.OpNumber, 0, iv)
		return
	}
	c.emit(bytecode.OpLoadGlobal, 0, c.internNumber(v))
}

func (c *compiler) loadBinding(b *resolver.Binding) error {
	switch b.Storage {
	case resolver.Local:
		c.emit(bytecode.OpLoadVariable, 0, b.Index)
	case resolver.Closure:
		c.emit(bytecode.OpLoadVariable, b.Depth, b.Index)
	case resolver.Global:
		c.emit(bytecode.OpLoadGlobal, 0, b.Index)
	case resolver.Argument:
		c.emit(bytecode.OpLoadArgument, 0, b.Index)
	case resolver.RestArgument:
		c.emit(bytecode.OpLoadArgumentList, 0, b.Index)
	}
	return nil
}

// storeBinding stores whatever value sits on top of the stack into b,
// leaving that value on top afterward (every assignment is also an
// expression, spec §4.3).
func (c *compiler) storeBinding(b *resolver.Binding) {
	switch b.Storage {
	case resolver.Local:
		c.emit(bytecode.OpStoreVariable, 0, b.Index)
	case resolver.Closure:
		c.emit(bytecode.OpStoreVariable, b.Depth, b.Index)
	}
	// Global/Argument/RestArgument are never assignment targets: imports are
	// const, and a reassigned parameter is promoted to Closure storage by
	// the resolver (see resolver.assign) before a Binding is ever handed out.
}

// callExpr lowers both plain calls and `callee.apply(receiver, argList)`
// (spec §4.6): the VM pops args then receiver then callee (OpCall/OpApply),
// so the push order here must be callee, receiver, args.
func (c *compiler) callExpr(n *parser.CallExpr) error {
	if member, ok := n.Callee.(*parser.MemberExpr); ok && member.Name == "apply" && len(n.Args) == 2 {
		if err := c.expr(member.Object); err != nil {
			return err
		}
		if err := c.expr(n.Args[0]); err != nil {
			return err
		}
		if err := c.expr(n.Args[1]); err != nil {
			return err
		}
		c.emit(bytecode.OpApply, 0, 0)
		return nil
	}

	if member, ok := n.Callee.(*parser.MemberExpr); ok {
		if err := c.expr(member.Object); err != nil {
			return err
		}
		c.emit(bytecode.OpCopy, 0, 1)
		c.emit(bytecode.OpLoadGlobal, 0, c.internString(member.Name))
		c.emit(bytecode.OpLoadElement, 0, 0)
		c.emit(bytecode.OpSwap, 0, 0)
	} else {
		if err := c.expr(n.Callee); err != nil {
			return err
		}
		c.emit(bytecode.OpNull, 0, 0)
	}
	for _, a := range n.Args {
		if err := c.expr(a); err != nil {
			return err
		}
	}
	c.emit(bytecode.OpCall, 0, len(n.Args))
	return nil
}

func (c *compiler) unaryExpr(n *parser.UnaryExpr) error {
	if err := c.expr(n.Operand); err != nil {
		return err
	}
	switch n.Operator {
	case "-":
		c.emit(bytecode.OpNegate, 0, 0)
	case "!":
		c.emit(bytecode.OpNot, 0, 0)
	case "+":
		// No dedicated numeric-coercion opcode; double negation applies
		// OpNegate's ToNumber coercion twice, canceling the sign flip.
		c.emit(bytecode.OpNegate, 0, 0)
		c.emit(bytecode.OpNegate, 0, 0)
	}
	return nil
}

func (c *compiler) binaryExpr(n *parser.BinaryExpr) error {
	if err := c.expr(n.Left); err != nil {
		return err
	}
	if err := c.expr(n.Right); err != nil {
		return err
	}
	return c.emitBinaryOp(n.Operator)
}

func (c *compiler) emitBinaryOp(operator string) error {
	if operator == "==" {
		c.emit(bytecode.OpEqual, 0, 0)
		return nil
	}
	if operator == "!=" {
		c.emit(bytecode.OpEqual, 0, 0)
		c.emit(bytecode.OpNot, 0, 0)
		return nil
	}
	op, ok := binaryOps[operator]
	if !ok {
		return nil
	}
	c.emit(op, 0, 0)
	return nil
}

// logicalExpr compiles short-circuit && and || directly onto
// OpConditionalAnd/OpConditionalOr, which peek rather than pop: the left
// operand's value survives as the result when it short-circuits, and is
// popped and replaced by the right operand's value otherwise.
func (c *compiler) logicalExpr(n *parser.LogicalExpr) error {
	if err := c.expr(n.Left); err != nil {
		return err
	}
	idx := c.reserve()
	if err := c.expr(n.Right); err != nil {
		return err
	}
	op := bytecode.OpConditionalAnd
	if n.Operator == "||" {
		op = bytecode.OpConditionalOr
	}
	c.patch(idx, op, 0, c.here())
	return nil
}

func (c *compiler) ternaryExpr(n *parser.TernaryExpr) error {
	if err := c.expr(n.Cond); err != nil {
		return err
	}
	falseJump := c.reserve()
	if err := c.expr(n.Then); err != nil {
		return err
	}
	overElse := c.reserve()
	c.patch(falseJump, bytecode.OpConditionalJump, 0, c.here())
	if err := c.expr(n.Else); err != nil {
		return err
	}
	c.patch(overElse, bytecode.OpJump, 0, c.here())
	return nil
}

// assignExpr compiles `=` and compound `+= -= ...` to an Identifier,
// MemberExpr, or IndexExpr target (spec §4.3; the parser rejects any other
// target at parse time).
func (c *compiler) assignExpr(n *parser.AssignExpr) error {
	switch target := n.Target.(type) {
	case *parser.Identifier:
		return c.assignIdentifier(n, target)
	case *parser.MemberExpr:
		return c.assignElement(n, target.Object, func() error {
			c.emit(bytecode.OpLoadGlobal, 0, c.internString(target.Name))
			return nil
		})
	case *parser.IndexExpr:
		return c.assignElement(n, target.Object, func() error {
			return c.expr(target.Index)
		})
	}
	return nil
}

func (c *compiler) assignIdentifier(n *parser.AssignExpr, target *parser.Identifier) error {
	b := c.res.Bindings[n]
	if n.Operator == "=" {
		if err := c.expr(n.Value); err != nil {
			return err
		}
		c.storeBinding(b)
		return nil
	}
	if err := c.loadBinding(b); err != nil {
		return err
	}
	if err := c.expr(n.Value); err != nil {
		return err
	}
	if err := c.emitBinaryOp(compoundOp(n.Operator)); err != nil {
		return err
	}
	c.storeBinding(b)
	return nil
}

// assignElement compiles assignment to a MemberExpr/IndexExpr target.
// emitKey pushes the property key (an interned string for `.name`, an
// arbitrary expression for `[expr]`). Compound operators need the
// container/key pair on the stack twice — once to load the current value,
// once to store the result — so they're duplicated with OpCopy rather than
// re-evaluated, since the object/index expressions may have side effects.
func (c *compiler) assignElement(n *parser.AssignExpr, object parser.Expr, emitKey func() error) error {
	if err := c.expr(object); err != nil {
		return err
	}
	if err := emitKey(); err != nil {
		return err
	}
	if n.Operator == "=" {
		if err := c.expr(n.Value); err != nil {
			return err
		}
		c.emit(bytecode.OpStoreElement, 0, 0)
		return nil
	}
	c.emit(bytecode.OpCopy, 0, 2)
	c.emit(bytecode.OpLoadElement, 0, 0)
	if err := c.expr(n.Value); err != nil {
		return err
	}
	if err := c.emitBinaryOp(compoundOp(n.Operator)); err != nil {
		return err
	}
	c.emit(bytecode.OpStoreElement, 0, 0)
	return nil
}

// compoundOp strips the trailing "=" from a compound-assignment operator
// (mirrors parser.compoundOps, unexported from internal/parser).
func compoundOp(operator string) string {
	if len(operator) > 1 && operator[len(operator)-1] == '=' {
		return operator[:len(operator)-1]
	}
	return operator
}
