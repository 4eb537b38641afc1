// Package parser implements Alto's configurable Pratt (precedence-climbing)
// parser (spec §4.3): it walks the lexer's token sequence once, producing a
// Program AST.
package parser

import (
	"fmt"

	"alto/internal/errors"
	"alto/internal/lexer"
)

// precedence gives the left binding power of each binary/ternary/assignment
// operator token; higher binds tighter (spec §4.3's precedence table).
var precedence = map[string]int{
	"(": 90, "[": 90, ".": 90,
	"*": 70, "/": 70, "%": 70,
	"+": 65, "-": 65,
	"<": 60, "<=": 60, ">": 60, ">=": 60,
	"&": 55,
	"^": 50,
	"|": 45,
	"==": 40, "!=": 40,
	"&&": 35,
	"||": 30,
	"?": 20,
	"=": 10, "+=": 10, "-=": 10, "*=": 10, "/=": 10, "%=": 10, "&=": 10, "|=": 10, "^=": 10,
}

var rightAssoc = map[string]bool{
	"?": true,
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true, "&=": true, "|=": true, "^=": true,
}

var compoundOps = map[string]string{
	"+=": "+", "-=": "-", "*=": "*", "/=": "/", "%=": "%", "&=": "&", "|=": "|", "^=": "^",
}

// Parse tokenizes and parses source into a Program. file is used only for
// error messages.
func Parse(source, file string) (*Program, error) {
	tokens, err := lexer.Scan(source)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens, file: file}
	return p.parseProgram()
}

type parser struct {
	tokens []lexer.Token
	pos    int
	file   string
	// depth of enclosing loops/functions, used to validate break/continue/
	// return/import/export placement.
	loopDepth int
	funcDepth int
}

func (p *parser) peek() lexer.Token { return p.tokens[p.pos] }
func (p *parser) peekAt(n int) lexer.Token {
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+n]
}
func (p *parser) advance() lexer.Token {
	t := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *parser) errorAt(tok lexer.Token, format string, args ...interface{}) error {
	return errors.NewParseError(fmt.Sprintf(format, args...), tok.Row, tok.Column, tok.Line)
}

// Required consumes the next token, failing unless it matches kind/lexeme
// (lexeme is ignored when empty).
func (p *parser) Required(kind lexer.Kind, lexeme string) (lexer.Token, error) {
	tok := p.peek()
	if tok.Kind != kind || (lexeme != "" && tok.Lexeme != lexeme) {
		want := lexeme
		if want == "" {
			want = kind.String()
		}
		return tok, p.errorAt(tok, "expected %s, got %q", want, tok.Lexeme)
	}
	return p.advance(), nil
}

// Optional consumes and returns (token, true) if the next token's lexeme
// equals lexeme, else leaves the cursor alone and returns (_, false).
func (p *parser) Optional(lexeme string) (lexer.Token, bool) {
	tok := p.peek()
	if tok.Lexeme == lexeme && (tok.Kind == lexer.Punctuation || tok.Kind == lexer.Word) {
		return p.advance(), true
	}
	return tok, false
}

// Match reports whether the upcoming tokens' lexemes equal seq, without
// consuming anything.
func (p *parser) Match(seq ...string) bool {
	for i, s := range seq {
		if p.peekAt(i).Lexeme != s {
			return false
		}
	}
	return true
}

func (p *parser) isWord(lexeme string) bool {
	t := p.peek()
	return t.Kind == lexer.Word && t.Lexeme == lexeme
}

func (p *parser) skipSemicolons() {
	for p.peek().Lexeme == ";" {
		p.advance()
	}
}

func (p *parser) parseProgram() (*Program, error) {
	prog := &Program{}
	p.skipSemicolons()
	for p.peek().Kind != lexer.End {
		stmt, err := p.Statement(true)
		if err != nil {
			return nil, err
		}
		prog.Stmts = append(prog.Stmts, stmt)
		p.skipSemicolons()
	}
	return prog, nil
}

func pos(tok lexer.Token) node { return node{Row: tok.Row, Col: tok.Column} }
