package parser

import (
	"alto/internal/lexer"
)

// Statement parses one statement. atModuleRoot permits import/export here.
func (p *parser) Statement(atModuleRoot bool) (Stmt, error) {
	tok := p.peek()
	switch {
	case p.isWord("var"), p.isWord("const"):
		return p.varDecl()
	case p.isWord("if"):
		return p.ifStmt()
	case p.isWord("while"):
		return p.whileStmt()
	case p.isWord("for"):
		return p.forStmt()
	case p.isWord("break"):
		p.advance()
		if p.loopDepth == 0 {
			return nil, p.errorAt(tok, "break outside of loop")
		}
		return &BreakStmt{node: pos(tok)}, nil
	case p.isWord("continue"):
		p.advance()
		if p.loopDepth == 0 {
			return nil, p.errorAt(tok, "continue outside of loop")
		}
		return &ContinueStmt{node: pos(tok)}, nil
	case p.isWord("return"):
		return p.returnStmt()
	case p.isWord("try"):
		return p.tryStmt()
	case p.isWord("import"):
		if !atModuleRoot {
			return nil, p.errorAt(tok, "import is only allowed at module scope")
		}
		return p.importStmt()
	case p.isWord("export"):
		if !atModuleRoot {
			return nil, p.errorAt(tok, "export is only allowed at module scope")
		}
		return p.exportConstStmt()
	case p.isWord("function") && p.peekAt(1).Kind == lexer.Word:
		return p.namedFunctionDecl()
	case p.peek().Lexeme == "{":
		return p.block()
	default:
		return p.exprStmt()
	}
}

func (p *parser) block() (*BlockStmt, error) {
	open, err := p.Required(lexer.Punctuation, "{")
	if err != nil {
		return nil, err
	}
	b := &BlockStmt{node: pos(open)}
	p.skipSemicolons()
	for p.peek().Lexeme != "}" {
		if p.peek().Kind == lexer.End {
			return nil, p.errorAt(p.peek(), "unterminated block")
		}
		stmt, err := p.Statement(false)
		if err != nil {
			return nil, err
		}
		b.Stmts = append(b.Stmts, stmt)
		p.skipSemicolons()
	}
	p.advance()
	return b, nil
}

func (p *parser) varDecl() (Stmt, error) {
	tok := p.advance()
	decl := &VarDecl{node: pos(tok), Const: tok.Lexeme == "const"}
	for {
		name, err := p.Required(lexer.Word, "")
		if err != nil {
			return nil, err
		}
		decl.Names = append(decl.Names, name.Lexeme)
		if _, ok := p.Optional("="); ok {
			init, err := p.Expression(0)
			if err != nil {
				return nil, err
			}
			decl.Inits = append(decl.Inits, init)
		} else {
			if decl.Const {
				return nil, p.errorAt(name, "const %q requires an initializer", name.Lexeme)
			}
			decl.Inits = append(decl.Inits, nil)
		}
		if _, ok := p.Optional(","); !ok {
			break
		}
	}
	return decl, nil
}

func (p *parser) ifStmt() (Stmt, error) {
	tok := p.advance()
	if _, err := p.Required(lexer.Punctuation, "("); err != nil {
		return nil, err
	}
	cond, err := p.Expression(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.Required(lexer.Punctuation, ")"); err != nil {
		return nil, err
	}
	then, err := p.block()
	if err != nil {
		return nil, err
	}
	stmt := &IfStmt{node: pos(tok), Cond: cond, Then: then}
	if p.isWord("else") {
		p.advance()
		if p.isWord("if") {
			elseIf, err := p.ifStmt()
			if err != nil {
				return nil, err
			}
			stmt.Else = elseIf
		} else {
			elseBlock, err := p.block()
			if err != nil {
				return nil, err
			}
			stmt.Else = elseBlock
		}
	}
	return stmt, nil
}

func (p *parser) whileStmt() (Stmt, error) {
	tok := p.advance()
	if _, err := p.Required(lexer.Punctuation, "("); err != nil {
		return nil, err
	}
	cond, err := p.Expression(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.Required(lexer.Punctuation, ")"); err != nil {
		return nil, err
	}
	p.loopDepth++
	body, err := p.block()
	p.loopDepth--
	if err != nil {
		return nil, err
	}
	return &WhileStmt{node: pos(tok), Cond: cond, Body: body}, nil
}

func (p *parser) forStmt() (Stmt, error) {
	tok := p.advance()
	if _, err := p.Required(lexer.Punctuation, "("); err != nil {
		return nil, err
	}
	var initStmt Stmt
	if p.peek().Lexeme != ";" {
		var err error
		if p.isWord("var") || p.isWord("const") {
			initStmt, err = p.varDecl()
		} else {
			e, err2 := p.Expression(0)
			if err2 != nil {
				return nil, err2
			}
			initStmt = &ExprStmt{node: pos(tok), Expr: e}
			err = nil
		}
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.Required(lexer.Punctuation, ";"); err != nil {
		return nil, err
	}
	var cond Expr
	if p.peek().Lexeme != ";" {
		var err error
		cond, err = p.Expression(0)
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.Required(lexer.Punctuation, ";"); err != nil {
		return nil, err
	}
	var nextStmt Stmt
	if p.peek().Lexeme != ")" {
		e, err := p.Expression(0)
		if err != nil {
			return nil, err
		}
		nextStmt = &ExprStmt{node: pos(tok), Expr: e}
	}
	if _, err := p.Required(lexer.Punctuation, ")"); err != nil {
		return nil, err
	}
	p.loopDepth++
	body, err := p.block()
	p.loopDepth--
	if err != nil {
		return nil, err
	}
	return &ForStmt{node: pos(tok), Init: initStmt, Cond: cond, Next: nextStmt, Body: body}, nil
}

func (p *parser) returnStmt() (Stmt, error) {
	tok := p.advance()
	if p.funcDepth == 0 {
		return nil, p.errorAt(tok, "return outside of function")
	}
	stmt := &ReturnStmt{node: pos(tok)}
	if p.peek().Lexeme != ";" && p.peek().Lexeme != "}" && p.peek().Kind != lexer.End {
		v, err := p.Expression(0)
		if err != nil {
			return nil, err
		}
		stmt.Value = v
	}
	return stmt, nil
}

func (p *parser) tryStmt() (Stmt, error) {
	tok := p.advance()
	tryBlock, err := p.block()
	if err != nil {
		return nil, err
	}
	stmt := &TryStmt{node: pos(tok), Try: tryBlock}
	if p.isWord("catch") {
		p.advance()
		stmt.HasCatch = true
		if _, ok := p.Optional("("); ok {
			name, err := p.Required(lexer.Word, "")
			if err != nil {
				return nil, err
			}
			stmt.CatchParam = name.Lexeme
			if _, err := p.Required(lexer.Punctuation, ")"); err != nil {
				return nil, err
			}
		}
		stmt.Catch, err = p.block()
		if err != nil {
			return nil, err
		}
	}
	if p.isWord("finally") {
		p.advance()
		stmt.HasFinally = true
		stmt.Finally, err = p.block()
		if err != nil {
			return nil, err
		}
	}
	if !stmt.HasCatch && !stmt.HasFinally {
		return nil, p.errorAt(tok, "try requires at least one of catch or finally")
	}
	return stmt, nil
}

func (p *parser) importStmt() (Stmt, error) {
	tok := p.advance()
	name, err := p.Required(lexer.Word, "")
	if err != nil {
		return nil, err
	}
	if _, err := p.Required(lexer.Word, "from"); err != nil {
		return nil, err
	}
	path, err := p.Required(lexer.String, "")
	if err != nil {
		return nil, err
	}
	return &ImportStmt{node: pos(tok), Name: name.Lexeme, Path: path.Text}, nil
}

func (p *parser) exportConstStmt() (Stmt, error) {
	tok := p.advance()
	if _, err := p.Required(lexer.Word, "const"); err != nil {
		return nil, err
	}
	name, err := p.Required(lexer.Word, "")
	if err != nil {
		return nil, err
	}
	if _, err := p.Required(lexer.Punctuation, "="); err != nil {
		return nil, err
	}
	init, err := p.Expression(0)
	if err != nil {
		return nil, err
	}
	return &ExportConstStmt{node: pos(tok), Name: name.Lexeme, Init: init}, nil
}

// namedFunctionDecl desugars `function name(...) {...}` into
// `var name = function name(...) {...}`.
func (p *parser) namedFunctionDecl() (Stmt, error) {
	tok := p.peek()
	fn, err := p.functionLiteral()
	if err != nil {
		return nil, err
	}
	return &VarDecl{node: pos(tok), Names: []string{fn.Name}, Inits: []Expr{fn}}, nil
}

// exprStmt parses an expression statement, restricted to assignment, call,
// or throw (spec §4.3).
func (p *parser) exprStmt() (Stmt, error) {
	tok := p.peek()
	e, err := p.Expression(0)
	if err != nil {
		return nil, err
	}
	switch e.(type) {
	case *AssignExpr, *CallExpr, *ThrowExpr:
	default:
		return nil, p.errorAt(tok, "expression statements must be an assignment, call, or throw")
	}
	return &ExprStmt{node: pos(tok), Expr: e}, nil
}
