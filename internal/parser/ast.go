package parser

// Expr is any Alto expression node (spec §4.3).
type Expr interface {
	Accept(v ExprVisitor) interface{}
	Pos() (row, col int)
}

// Stmt is any Alto statement node.
type Stmt interface {
	Accept(v StmtVisitor) interface{}
	Pos() (row, col int)
}

type node struct{ Row, Col int }

func (n node) Pos() (int, int) { return n.Row, n.Col }

// ---- expressions ----

type NullLiteral struct{ node }
type BoolLiteral struct {
	node
	Value bool
}
type NumberLiteral struct {
	node
	Value float64
}
type StringLiteral struct {
	node
	Value string
}
type ThisExpr struct{ node }
type Identifier struct {
	node
	Name string
}

// ListExpr: [e1, e2, ...]
type ListExpr struct {
	node
	Elements []Expr
}

// TableEntry is one `key: value` pair; Key is empty when Computed is set and
// ComputedKey holds `[expr]` instead.
type TableEntry struct {
	Key         string
	Computed    bool
	ComputedKey Expr
	Value       Expr
}

// TableExpr: {a: 1, [expr]: 2}
type TableExpr struct {
	node
	Entries []TableEntry
}

// FunctionExpr covers both `function (...) {...}` and arrow `(...) => ...`.
// Arrow bodies that are a single expression are wrapped in an implicit
// ReturnStmt by the parser so the emitter only ever sees a Block.
type FunctionExpr struct {
	node
	Name       string // non-empty for `function name(...)` declarations
	Params     []string
	RestParam  string // non-empty if the last param is `...name`
	Body       *BlockStmt
}

// MemberExpr: object.name
type MemberExpr struct {
	node
	Object Expr
	Name   string
}

// IndexExpr: object[expr]
type IndexExpr struct {
	node
	Object Expr
	Index  Expr
}

// CallExpr: callee(args...)
type CallExpr struct {
	node
	Callee Expr
	Args   []Expr
}

// ApplyExpr: callee.apply(receiver, argList) is parsed as an ordinary
// CallExpr on a MemberExpr; no dedicated node is needed.

type UnaryExpr struct {
	node
	Operator string
	Operand  Expr
}

type BinaryExpr struct {
	node
	Operator string
	Left     Expr
	Right    Expr
}

// LogicalExpr: short-circuit && and ||.
type LogicalExpr struct {
	node
	Operator string
	Left     Expr
	Right    Expr
}

type TernaryExpr struct {
	node
	Cond, Then, Else Expr
}

// AssignExpr covers simple `=` and compound `+=` etc. Target is an
// Identifier, MemberExpr, or IndexExpr.
type AssignExpr struct {
	node
	Operator string // "=", "+=", ...
	Target   Expr
	Value    Expr
}

// ThrowExpr: `throw expr` used anywhere an expression may appear.
type ThrowExpr struct {
	node
	Value Expr
}

type ExprVisitor interface {
	VisitNullLiteral(*NullLiteral) interface{}
	VisitBoolLiteral(*BoolLiteral) interface{}
	VisitNumberLiteral(*NumberLiteral) interface{}
	VisitStringLiteral(*StringLiteral) interface{}
	VisitThisExpr(*ThisExpr) interface{}
	VisitIdentifier(*Identifier) interface{}
	VisitListExpr(*ListExpr) interface{}
	VisitTableExpr(*TableExpr) interface{}
	VisitFunctionExpr(*FunctionExpr) interface{}
	VisitMemberExpr(*MemberExpr) interface{}
	VisitIndexExpr(*IndexExpr) interface{}
	VisitCallExpr(*CallExpr) interface{}
	VisitUnaryExpr(*UnaryExpr) interface{}
	VisitBinaryExpr(*BinaryExpr) interface{}
	VisitLogicalExpr(*LogicalExpr) interface{}
	VisitTernaryExpr(*TernaryExpr) interface{}
	VisitAssignExpr(*AssignExpr) interface{}
	VisitThrowExpr(*ThrowExpr) interface{}
}

func (n *NullLiteral) Accept(v ExprVisitor) interface{}   { return v.VisitNullLiteral(n) }
func (n *BoolLiteral) Accept(v ExprVisitor) interface{}   { return v.VisitBoolLiteral(n) }
func (n *NumberLiteral) Accept(v ExprVisitor) interface{} { return v.VisitNumberLiteral(n) }
func (n *StringLiteral) Accept(v ExprVisitor) interface{} { return v.VisitStringLiteral(n) }
func (n *ThisExpr) Accept(v ExprVisitor) interface{}      { return v.VisitThisExpr(n) }
func (n *Identifier) Accept(v ExprVisitor) interface{}    { return v.VisitIdentifier(n) }
func (n *ListExpr) Accept(v ExprVisitor) interface{}      { return v.VisitListExpr(n) }
func (n *TableExpr) Accept(v ExprVisitor) interface{}     { return v.VisitTableExpr(n) }
func (n *FunctionExpr) Accept(v ExprVisitor) interface{}  { return v.VisitFunctionExpr(n) }
func (n *MemberExpr) Accept(v ExprVisitor) interface{}    { return v.VisitMemberExpr(n) }
func (n *IndexExpr) Accept(v ExprVisitor) interface{}     { return v.VisitIndexExpr(n) }
func (n *CallExpr) Accept(v ExprVisitor) interface{}      { return v.VisitCallExpr(n) }
func (n *UnaryExpr) Accept(v ExprVisitor) interface{}     { return v.VisitUnaryExpr(n) }
func (n *BinaryExpr) Accept(v ExprVisitor) interface{}    { return v.VisitBinaryExpr(n) }
func (n *LogicalExpr) Accept(v ExprVisitor) interface{}   { return v.VisitLogicalExpr(n) }
func (n *TernaryExpr) Accept(v ExprVisitor) interface{}   { return v.VisitTernaryExpr(n) }
func (n *AssignExpr) Accept(v ExprVisitor) interface{}    { return v.VisitAssignExpr(n) }
func (n *ThrowExpr) Accept(v ExprVisitor) interface{}     { return v.VisitThrowExpr(n) }

// ---- statements ----

type ExprStmt struct {
	node
	Expr Expr
}

// VarDecl: `var a = 1, b` or `const a = 1`.
type VarDecl struct {
	node
	Const bool
	Names []string
	Inits []Expr // parallel to Names; nil entry means no initializer
}

type BlockStmt struct {
	node
	Stmts []Stmt
}

type IfStmt struct {
	node
	Cond Expr
	Then *BlockStmt
	Else Stmt // *BlockStmt or *IfStmt, nil if absent
}

type WhileStmt struct {
	node
	Cond Expr
	Body *BlockStmt
}

type ForStmt struct {
	node
	Init Stmt // *VarDecl or *ExprStmt, may be nil
	Cond Expr // may be nil
	Next Stmt // *ExprStmt, may be nil
	Body *BlockStmt
}

type BreakStmt struct{ node }
type ContinueStmt struct{ node }

type ReturnStmt struct {
	node
	Value Expr // nil for bare `return`
}

// TryStmt: at least one of Catch/Finally is present.
type TryStmt struct {
	node
	Try          *BlockStmt
	CatchParam   string // empty if catch has no binding, or no catch clause
	HasCatch     bool
	Catch        *BlockStmt
	HasFinally   bool
	Finally      *BlockStmt
}

// ImportStmt: `import name from 'path'` — module scope only.
type ImportStmt struct {
	node
	Name string
	Path string
}

// ExportConstStmt: `export const name = expr` — module scope only.
type ExportConstStmt struct {
	node
	Name string
	Init Expr
}

type StmtVisitor interface {
	VisitExprStmt(*ExprStmt) interface{}
	VisitVarDecl(*VarDecl) interface{}
	VisitBlockStmt(*BlockStmt) interface{}
	VisitIfStmt(*IfStmt) interface{}
	VisitWhileStmt(*WhileStmt) interface{}
	VisitForStmt(*ForStmt) interface{}
	VisitBreakStmt(*BreakStmt) interface{}
	VisitContinueStmt(*ContinueStmt) interface{}
	VisitReturnStmt(*ReturnStmt) interface{}
	VisitTryStmt(*TryStmt) interface{}
	VisitImportStmt(*ImportStmt) interface{}
	VisitExportConstStmt(*ExportConstStmt) interface{}
}

func (n *ExprStmt) Accept(v StmtVisitor) interface{}         { return v.VisitExprStmt(n) }
func (n *VarDecl) Accept(v StmtVisitor) interface{}          { return v.VisitVarDecl(n) }
func (n *BlockStmt) Accept(v StmtVisitor) interface{}        { return v.VisitBlockStmt(n) }
func (n *IfStmt) Accept(v StmtVisitor) interface{}           { return v.VisitIfStmt(n) }
func (n *WhileStmt) Accept(v StmtVisitor) interface{}        { return v.VisitWhileStmt(n) }
func (n *ForStmt) Accept(v StmtVisitor) interface{}          { return v.VisitForStmt(n) }
func (n *BreakStmt) Accept(v StmtVisitor) interface{}        { return v.VisitBreakStmt(n) }
func (n *ContinueStmt) Accept(v StmtVisitor) interface{}     { return v.VisitContinueStmt(n) }
func (n *ReturnStmt) Accept(v StmtVisitor) interface{}       { return v.VisitReturnStmt(n) }
func (n *TryStmt) Accept(v StmtVisitor) interface{}          { return v.VisitTryStmt(n) }
func (n *ImportStmt) Accept(v StmtVisitor) interface{}       { return v.VisitImportStmt(n) }
func (n *ExportConstStmt) Accept(v StmtVisitor) interface{}  { return v.VisitExportConstStmt(n) }

// Program is the root node: a module's top-level statement sequence.
type Program struct {
	Stmts []Stmt
}
