// Package resolver implements Alto's scope resolution pass (spec §4.4): it
// walks the parsed AST once, assigns every name reference a storage class
// (Local, Closure, or Global) plus an address, and flags which scopes need
// a runtime closure frame and which functions must capture the active
// closure chain when created.
package resolver

import (
	"alto/internal/errors"
	"alto/internal/parser"
)

// Storage classifies where a slot's value lives at runtime.
type Storage int

const (
	Local Storage = iota
	Closure
	Global
	Argument    // unpromoted function parameter, read via OpLoadArgument
	RestArgument // unpromoted `...name` parameter, read via OpLoadArgumentList
)

// ImportRef is one `import Name from 'Path'` declaration, in the order it
// was parsed — Path is carried through untouched for the host module loader
// to resolve (spec §4.8); the resolver itself never interprets it.
type ImportRef struct {
	Name string
	Path string
}

// Binding is the resolved address of one name reference.
type Binding struct {
	Storage Storage
	Depth   int // Closure: closure-chain hops; Local/Global: unused
	Index   int // Local slot index, closure-frame index, or global/import name slot
	Name    string
}

// FuncInfo is resolver output attached to one FunctionExpr (Result.Funcs)
// or to the top-level program (Result.TopLevel).
type FuncInfo struct {
	LocalSlots           int  // stack-allocation size (spec §4.4.3)
	CapturesEnclosing     bool // Function opcode must set param=1
}

// ScopeInfo is resolver output attached to one Block/Loop/Function scope
// node (the AST node that introduces it: *parser.BlockStmt, *parser.ForStmt,
// or *parser.FunctionExpr for the scope wrapping its own body — recorded by
// the block node actually walked).
type ScopeInfo struct {
	NeedsClosureFrame bool
	ClosureFrameSize  int
	LocalCount        int // stack slots declared directly in this scope, Closure-promoted ones included
	ParamSeeds        []ParamSeed // captured parameters, in closure-index order (a prefix of the frame)
}

// Result is the full resolver output: per-reference bindings and per-scope
// metadata, looked up by AST node identity.
type Result struct {
	Bindings map[interface{}]*Binding
	Funcs    map[*parser.FunctionExpr]*FuncInfo
	TopLevel *FuncInfo
	Scopes   map[interface{}]*ScopeInfo
	Imports  []ImportRef // declared imports, in declaration order
	Exports  []string  // declared export names, in declaration order
	ExportBindings []*Binding // parallel to Exports, final storage/address
}

// slot is one declared name.
type slot struct {
	name        string
	isConst     bool
	storage     Storage
	declScope   *scope
	localIndex  int
	closureIdx  int
	assignCount int // assignments after declaration; >0 on a const is an error
	isParam     bool // declared via declareParam/declareRestParam
	isRest      bool // the trailing ...name parameter
}

// ParamSeed identifies one captured parameter's closure slot, in
// closure-index order, so the compiler knows to seed it from the argument
// vector (OpLoadArgument/OpLoadArgumentList) rather than a Null placeholder.
type ParamSeed struct {
	ArgIndex int
	IsRest   bool
}

type scopeKind int

const (
	kindBlock scopeKind = iota
	kindLoop
	kindFunction
)

type scope struct {
	parent    *scope
	kind      scopeKind
	fn        *funcScope
	symbols   map[string]*slot
	order     []*slot // declaration order, for closure-index assignment
	info      *ScopeInfo
	node      interface{}
}

type funcScope struct {
	parent     *funcScope
	depth      int
	nextLocal  int
	maxLocal   int
	info       *FuncInfo
	node       *parser.FunctionExpr // nil for the top-level program
}

// VarDeclName keys the Binding for the i-th name in a var/const declaration
// (spec §4.4): a multi-name `var a, b = 1, 2` has one AST node but several
// declared bindings, so declarations are looked up by (node, index) rather
// than by node alone.
type VarDeclName struct {
	Node  *parser.VarDecl
	Index int
}

// pendingRef is a reference collected during the walk, resolved to a slot
// immediately but whose Binding (depth/index) is finalized only once every
// scope's NeedsClosureFrame flag is settled.
type pendingRef struct {
	key      interface{}
	useScope *scope
	slot     *slot
}

type resolver struct {
	current     *scope
	curFunc     *funcScope
	pending     []pendingRef
	result      *Result
	exportNodes []*parser.ExportConstStmt
}

// Resolve runs the scope resolver over prog.
func Resolve(prog *parser.Program) (*Result, error) {
	topInfo := &FuncInfo{}
	r := &resolver{
		result: &Result{
			Bindings: map[interface{}]*Binding{},
			Funcs:    map[*parser.FunctionExpr]*FuncInfo{},
			Scopes:   map[interface{}]*ScopeInfo{},
			TopLevel: topInfo,
		},
	}
	r.curFunc = &funcScope{info: topInfo}
	r.current = &scope{kind: kindBlock, fn: r.curFunc, symbols: map[string]*slot{}, info: &ScopeInfo{}, node: prog}
	r.result.Scopes[prog] = r.current.info

	for _, stmt := range prog.Stmts {
		if err := r.stmt(stmt); err != nil {
			return nil, err
		}
	}
	topInfo.LocalSlots = r.curFunc.maxLocal

	r.finalizeClosureScope(r.current)
	if err := r.fixupBindings(); err != nil {
		return nil, err
	}
	r.result.ExportBindings = make([]*Binding, len(r.exportNodes))
	for i, n := range r.exportNodes {
		r.result.ExportBindings[i] = r.result.Bindings[n]
	}
	return r.result, nil
}

func (r *resolver) pushScope(kind scopeKind, node interface{}) *scope {
	s := &scope{parent: r.current, kind: kind, fn: r.curFunc, symbols: map[string]*slot{}, info: &ScopeInfo{}, node: node}
	r.current = s
	r.result.Scopes[node] = s.info
	return s
}

// popScope finalizes the scope's closure-frame size and reclaims its local
// stack slots for sibling scopes (spec §4.4.3).
func (r *resolver) popScope(mark int) {
	r.finalizeClosureScope(r.current)
	r.curFunc.nextLocal = mark
	r.current = r.current.parent
}

// finalizeClosureScope assigns each promoted slot its closure-frame index
// and computes how many stack slots this scope must drop on exit.
//
// A slot promoted to Closure storage still consumes one physical stack slot
// at runtime: the compiler's varDecl pushes the initializer, stores it into
// the closure frame via OpStoreVariable (which re-pushes the value), and
// deliberately leaves that copy in place rather than dropping it, so the
// slot ordering declare() assumed when it handed out localIndex values
// (incrementing for every declared name, before promotion is known) stays
// true to the runtime stack. Only parameters are exempt: an unpromoted or
// promoted parameter is seeded straight from the argument vector (spec
// §4.4.2/§4.7) and never occupies a stack slot of its own.
func (r *resolver) finalizeClosureScope(s *scope) {
	idx := 0
	drop := 0
	for _, sl := range s.order {
		if sl.isParam {
			if sl.storage == Closure {
				sl.closureIdx = idx
				idx++
				s.info.ParamSeeds = append(s.info.ParamSeeds, ParamSeed{ArgIndex: sl.localIndex, IsRest: sl.isRest})
			}
			continue
		}
		drop++
		if sl.storage == Closure {
			sl.closureIdx = idx
			idx++
		}
	}
	s.info.ClosureFrameSize = idx
	s.info.NeedsClosureFrame = idx > 0
	s.info.LocalCount = drop
}

func (r *resolver) declare(name string, isConst bool, row, col int) (*slot, error) {
	if _, ok := r.current.symbols[name]; ok {
		return nil, errors.NewResolveError("redeclaration of "+name+" in the same scope", row, col)
	}
	sl := &slot{name: name, isConst: isConst, storage: Local, declScope: r.current}
	sl.localIndex = r.curFunc.nextLocal
	r.curFunc.nextLocal++
	if r.curFunc.nextLocal > r.curFunc.maxLocal {
		r.curFunc.maxLocal = r.curFunc.nextLocal
	}
	r.current.symbols[name] = sl
	r.current.order = append(r.current.order, sl)
	return sl, nil
}

// declareParam declares a function parameter, addressed via OpLoadArgument
// at its fixed argument index unless later promoted to Closure storage by a
// capturing reference.
func (r *resolver) declareParam(name string, argIndex int, row, col int) (*slot, error) {
	if _, ok := r.current.symbols[name]; ok {
		return nil, errors.NewResolveError("redeclaration of "+name+" in the same scope", row, col)
	}
	sl := &slot{name: name, storage: Argument, declScope: r.current, localIndex: argIndex, isParam: true}
	r.current.symbols[name] = sl
	r.current.order = append(r.current.order, sl)
	return sl, nil
}

// declareRestParam is declareParam for a trailing `...name` parameter.
func (r *resolver) declareRestParam(name string, argIndex int, row, col int) (*slot, error) {
	sl, err := r.declareParam(name, argIndex, row, col)
	if err != nil {
		return nil, err
	}
	sl.storage = RestArgument
	sl.isRest = true
	return sl, nil
}

// lookup finds name visible from r.current, walking outward.
func (r *resolver) lookup(name string) (*slot, *scope) {
	for s := r.current; s != nil; s = s.parent {
		if sl, ok := s.symbols[name]; ok {
			return sl, s
		}
	}
	return nil, nil
}

// reference records a use of name at key (an AST node), resolving it now
// to a slot but deferring its final Binding to the fixup pass.
func (r *resolver) reference(key interface{}, name string, row, col int) error {
	sl, _ := r.lookup(name)
	if sl == nil {
		return errors.NewResolveError("unresolved identifier "+name, row, col)
	}
	// Capture marking (spec §4.4.1): capturing iff the use's enclosing
	// function is deeper than the slot's declaring function. Globals are
	// never captured — OpLoadGlobal reaches them directly from any depth.
	if r.curFunc != sl.declScope.fn && sl.storage != Global {
		sl.storage = Closure
		for fs := r.curFunc; fs != nil && fs != sl.declScope.fn; fs = fs.parent {
			fs.info.CapturesEnclosing = true
		}
	}
	r.pending = append(r.pending, pendingRef{key: key, useScope: r.current, slot: sl})
	return nil
}

// fixupBindings computes each pending reference's final Binding, now that
// every scope's NeedsClosureFrame flag is settled.
func (r *resolver) fixupBindings() error {
	for _, p := range r.pending {
		sl := p.slot
		switch sl.storage {
		case Local, Argument, RestArgument, Global:
			r.result.Bindings[p.key] = &Binding{Storage: sl.storage, Index: sl.localIndex, Name: sl.name}
		default: // Closure
			depth := 0
			for s := p.useScope; s != nil; s = s.parent {
				if s.info.NeedsClosureFrame {
					depth++
				}
				if s == sl.declScope {
					break
				}
			}
			r.result.Bindings[p.key] = &Binding{Storage: Closure, Depth: depth, Index: sl.closureIdx, Name: sl.name}
		}
	}
	return nil
}

func (r *resolver) assign(name string, row, col int) error {
	sl, _ := r.lookup(name)
	if sl == nil {
		return errors.NewResolveError("unresolved identifier "+name, row, col)
	}
	if sl.isConst {
		return errors.NewResolveError("assignment to const "+name, row, col)
	}
	// A reassigned parameter needs a writable slot, and Argument/RestArgument
	// storage has none (it reads straight from the immutable argument vector).
	// Promote it through the same Closure-storage path a captured reference
	// would take; finalizeClosureScope seeds it from the argument either way.
	if sl.storage == Argument || sl.storage == RestArgument {
		sl.storage = Closure
	}
	sl.assignCount++
	return nil
}
