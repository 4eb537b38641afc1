// Package compiler lowers a resolved Alto program into the packed
// bytecode.Instruction stream a vm.Program executes (spec §4.5). It
// consumes a *resolver.Result for every name's storage class and address
// and never re-derives scoping decisions of its own.
package compiler

import (
	"alto/internal/bytecode"
	"alto/internal/parser"
	"alto/internal/resolver"
	"alto/internal/vm"
)

// pendingFunc is a function literal whose body hasn't been laid out yet:
// its OpFunction placeholder is recorded by code index, patched once the
// body's start offset is known (spec §4.5, following the teacher's
// hoisting_compiler.go two-pass precompile-then-patch style, adapted from
// a global-function table to an inline placeholder-patch scheme since
// Alto functions are values, not predeclared globals).
type pendingFunc struct {
	fn        *parser.FunctionExpr
	patchIdx  int
	capturing bool
}

type compiler struct {
	res  *resolver.Result
	code []bytecode.Instruction
	data []vm.Value

	numConst    map[float64]int
	strConst    map[string]int
	exportsIdx  int

	pending []pendingFunc

	exitStack []exitEntry
	loopStack []*loopCtx
}

// Output is the compiled program plus the export table the module layer
// reads back after running the top level (spec §4.8). Exports is populated
// at runtime by the top-level frame itself (topLevelStmt emits a store into
// it for every `export const`), so reading it back needs no frame
// introspection: run Program via a *vm.Function wrapping Entry 0, then read
// Exports.Get(name) for each declared name.
type Output struct {
	Program        *vm.Program
	Exports        *vm.Table
	ExportNames    []string
	ExportBindings []*resolver.Binding
}

// Compile lowers prog using res, the output of resolver.Resolve(prog).
func Compile(prog *parser.Program, res *resolver.Result) (*Output, error) {
	c := &compiler{
		res:      res,
		numConst: map[float64]int{},
		strConst: map[string]int{},
	}
	for _, imp := range res.Imports {
		c.data = append(c.data, &vm.Import{Name: imp.Name, Path: imp.Path})
	}
	exports := vm.NewTable()
	c.exportsIdx = len(c.data)
	c.data = append(c.data, exports)

	topInfo := res.Scopes[prog]
	c.enterClosureFrameIfNeeded(topInfo)
	for _, stmt := range prog.Stmts {
		if err := c.stmt(stmt); err != nil {
			return nil, err
		}
	}
	c.emit(bytecode.OpNull, 0, 0)
	c.emit(bytecode.OpReturn, 0, 0)

	if err := c.drainPending(); err != nil {
		return nil, err
	}

	return &Output{
		Program:        vm.NewProgram(c.code, c.data, nil),
		Exports:        exports,
		ExportNames:    res.Exports,
		ExportBindings: res.ExportBindings,
	}, nil
}

func (c *compiler) emit(op bytecode.Op, param, value int) int {
	idx := len(c.code)
	c.code = append(c.code, bytecode.Encode(op, param, value))
	return idx
}

func (c *compiler) reserve() int {
	idx := len(c.code)
	c.code = append(c.code, 0)
	return idx
}

func (c *compiler) patch(idx int, op bytecode.Op, param, value int) {
	c.code[idx] = bytecode.Encode(op, param, value)
}

func (c *compiler) here() int { return len(c.code) }

// internString interns s into the data pool, deduped.
func (c *compiler) internString(s string) int {
	if idx, ok := c.strConst[s]; ok {
		return idx
	}
	idx := len(c.data)
	c.data = append(c.data, s)
	c.strConst[s] = idx
	return idx
}

// internNumber interns a non-inlinable number literal, deduped.
func (c *compiler) internNumber(n float64) int {
	if idx, ok := c.numConst[n]; ok {
		return idx
	}
	idx := len(c.data)
	c.data = append(c.data, n)
	c.numConst[n] = idx
	return idx
}

// enqueueFunction records fn for later compilation and emits the OpFunction
// placeholder at the current position, to be patched once fn's body is laid
// out (spec §4.5: function literals close over the closure chain active at
// the point they're created, not where they're later called).
func (c *compiler) enqueueFunction(fn *parser.FunctionExpr) {
	info := c.res.Funcs[fn]
	idx := c.reserve()
	c.pending = append(c.pending, pendingFunc{fn: fn, patchIdx: idx, capturing: info.CapturesEnclosing})
}

// drainPending lays out queued function bodies breadth-first, since
// compiling one body may itself enqueue further nested function literals.
// Every function body and the top-level program ends in an explicit Return
// (spec §4.7): apart from Return (and a hook halting it), frame.run stops
// only on running off the end of the whole shared Program.Code, so bodies
// laid out back-to-back in one
// buffer must never fall through into whatever follows.
func (c *compiler) drainPending() error {
	for len(c.pending) > 0 {
		p := c.pending[0]
		c.pending = c.pending[1:]

		entry := c.here()
		param := 0
		if p.capturing {
			param = 1
		}
		c.patch(p.patchIdx, bytecode.OpFunction, param, entry)

		if err := c.functionBody(p.fn); err != nil {
			return err
		}
	}
	return nil
}

// functionBody compiles one function literal's parameters and statements.
func (c *compiler) functionBody(fn *parser.FunctionExpr) error {
	savedExit, savedLoop := c.exitStack, c.loopStack
	c.exitStack, c.loopStack = nil, nil

	info := c.res.Scopes[fn]
	c.enterClosureFrameIfNeededFromArgs(fn, info)

	for _, stmt := range fn.Body.Stmts {
		if err := c.stmt(stmt); err != nil {
			return err
		}
	}
	c.emit(bytecode.OpNull, 0, 0)
	c.emit(bytecode.OpReturn, 0, 0)

	c.exitStack, c.loopStack = savedExit, savedLoop
	return nil
}

// enterClosureFrameIfNeeded pushes Null placeholders for every closure slot
// and enters the frame, for scopes with no captured parameters to seed
// (spec §4.4.3/§4.7): top-level and ordinary block/loop scopes.
func (c *compiler) enterClosureFrameIfNeeded(info *resolver.ScopeInfo) {
	if info == nil || !info.NeedsClosureFrame {
		return
	}
	for i := 0; i < info.ClosureFrameSize; i++ {
		c.emit(bytecode.OpNull, 0, 0)
	}
	c.emit(bytecode.OpEnterClosure, 0, info.ClosureFrameSize)
}

// enterClosureFrameIfNeededFromArgs is enterClosureFrameIfNeeded specialized
// for a function scope: captured parameters seed their slot with the
// argument's actual value (available immediately at call entry) instead of
// a Null placeholder; captured locals declared later in the body still get
// a placeholder, overwritten in place once their declaration runs.
func (c *compiler) enterClosureFrameIfNeededFromArgs(fn *parser.FunctionExpr, info *resolver.ScopeInfo) {
	if info == nil || !info.NeedsClosureFrame {
		return
	}
	for _, seed := range info.ParamSeeds {
		if seed.IsRest {
			c.emit(bytecode.OpLoadArgumentList, 0, seed.ArgIndex)
		} else {
			c.emit(bytecode.OpLoadArgument, 0, seed.ArgIndex)
		}
	}
	for i := len(info.ParamSeeds); i < info.ClosureFrameSize; i++ {
		c.emit(bytecode.OpNull, 0, 0)
	}
	c.emit(bytecode.OpEnterClosure, 0, info.ClosureFrameSize)
}
