package bvtrail

import (
	"fmt"
	"math/big"
	"strconv"
)

// ParseError represents an error encountered while reading an expression.
type ParseError struct {
	Pos int // byte offset
	Msg string
}

// Error returns the error as a string.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s", e.Pos, e.Msg)
}

// ParseExpr reads a single expression in the syntax produced by Expr.String()
// and builds it in g.
//
//	(const 12 8)            numeral 12 of width 8; also 0x.. and 0b.. values
//	(var x 8)               8-bit symbol x
//	(add E...) (mul E...)   n-ary sum/product, width taken from the arguments
//	(concat E...)           most significant argument first
//	(extract E OFFSET W)    W bits of E starting at OFFSET
//	(sub E E) (eq E E) ...  binary operations
//	true false              boolean constants
func ParseExpr(g *Graph, s string) (Expr, error) {
	p := &parser{g: g, s: s}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok, pos := p.next(); tok != "" {
		return nil, &ParseError{Pos: pos, Msg: fmt.Sprintf("unexpected %q after expression", tok)}
	}
	return expr, nil
}

type parser struct {
	g   *Graph
	s   string
	pos int
}

// next returns the next token and its offset. Returns an empty token at EOF.
func (p *parser) next() (string, int) {
	p.skipSpace()
	start := p.pos
	if p.pos == len(p.s) {
		return "", start
	}
	if ch := p.s[p.pos]; ch == '(' || ch == ')' {
		p.pos++
		return string(ch), start
	}
	for p.pos < len(p.s) && !isSpace(p.s[p.pos]) && p.s[p.pos] != '(' && p.s[p.pos] != ')' {
		p.pos++
	}
	return p.s[start:p.pos], start
}

func (p *parser) skipSpace() {
	for p.pos < len(p.s) && isSpace(p.s[p.pos]) {
		p.pos++
	}
}

// peek returns the next token without consuming it.
func (p *parser) peek() string {
	pos := p.pos
	tok, _ := p.next()
	p.pos = pos
	return tok
}

func (p *parser) parseExpr() (Expr, error) {
	tok, pos := p.next()
	switch tok {
	case "":
		return nil, &ParseError{Pos: pos, Msg: "unexpected end of input"}
	case "true":
		return p.g.True(), nil
	case "false":
		return p.g.False(), nil
	case "(":
	default:
		return nil, &ParseError{Pos: pos, Msg: fmt.Sprintf("unexpected %q", tok)}
	}

	head, pos := p.next()
	var expr Expr
	var err error
	switch head {
	case "const":
		expr, err = p.parseConst()
	case "var":
		expr, err = p.parseVar()
	case "add", "mul", "concat":
		expr, err = p.parseApp(head, pos)
	case "extract":
		expr, err = p.parseExtract(pos)
	default:
		op, ok := lookupBinaryOp(head)
		if !ok {
			return nil, &ParseError{Pos: pos, Msg: fmt.Sprintf("unknown operator %q", head)}
		}
		expr, err = p.parseBinary(op, pos)
	}
	if err != nil {
		return nil, err
	}

	if tok, pos := p.next(); tok != ")" {
		return nil, &ParseError{Pos: pos, Msg: fmt.Sprintf("expected ')', found %q", tok)}
	}
	return expr, nil
}

func (p *parser) parseConst() (Expr, error) {
	tok, pos := p.next()
	value, ok := new(big.Int).SetString(tok, 0)
	if !ok || value.Sign() < 0 {
		return nil, &ParseError{Pos: pos, Msg: fmt.Sprintf("invalid numeral %q", tok)}
	}
	width, err := p.parseWidth()
	if err != nil {
		return nil, err
	}
	return p.g.NumeralBig(value, width), nil
}

func (p *parser) parseVar() (Expr, error) {
	name, pos := p.next()
	if name == "" || name == "(" || name == ")" {
		return nil, &ParseError{Pos: pos, Msg: "variable name required"}
	}
	width, err := p.parseWidth()
	if err != nil {
		return nil, err
	}
	return p.g.Var(name, width), nil
}

func (p *parser) parseApp(head string, pos int) (Expr, error) {
	var args []Expr
	for p.peek() != ")" && p.peek() != "" {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	if len(args) == 0 {
		return nil, &ParseError{Pos: pos, Msg: fmt.Sprintf("%s requires at least one argument", head)}
	}

	if head == "concat" {
		return p.g.Concat(args...), nil
	}

	width := ExprWidth(args[0])
	for _, arg := range args[1:] {
		if w := ExprWidth(arg); w != width {
			return nil, &ParseError{Pos: pos, Msg: fmt.Sprintf("%s: argument width mismatch: %d != %d", head, w, width)}
		}
	}
	if head == "add" {
		return p.g.Add(width, args...), nil
	}
	return p.g.Mul(width, args...), nil
}

func (p *parser) parseExtract(pos int) (Expr, error) {
	src, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	offset, err := p.parseUint()
	if err != nil {
		return nil, err
	}
	width, err := p.parseWidth()
	if err != nil {
		return nil, err
	}
	if sw := ExprWidth(src); offset+width > sw {
		return nil, &ParseError{Pos: pos, Msg: fmt.Sprintf("extract out of bounds: %d+%d > %d", offset, width, sw)}
	}
	return p.g.Extract(src, offset, width), nil
}

func (p *parser) parseBinary(op BinaryOp, pos int) (Expr, error) {
	lhs, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	rhs, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if lw, rw := ExprWidth(lhs), ExprWidth(rhs); lw != rw {
		return nil, &ParseError{Pos: pos, Msg: fmt.Sprintf("%s: operand width mismatch: %d != %d", op, lw, rw)}
	}
	return p.g.Binary(op, lhs, rhs), nil
}

// parseWidth reads a positive bit width.
func (p *parser) parseWidth() (uint, error) {
	p.skipSpace()
	pos := p.pos
	width, err := p.parseUint()
	if err != nil {
		return 0, err
	} else if width == 0 {
		return 0, &ParseError{Pos: pos, Msg: "width cannot be zero"}
	}
	return width, nil
}

func (p *parser) parseUint() (uint, error) {
	tok, pos := p.next()
	n, err := strconv.ParseUint(tok, 10, 32)
	if err != nil {
		return 0, &ParseError{Pos: pos, Msg: fmt.Sprintf("invalid integer %q", tok)}
	}
	return uint(n), nil
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}
