package mathexpr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

var errSyntax = errors.New("syntax error")

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokString
	tokOp
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// operators are matched longest first.
var operators = []string{
	"**", "//", "==", "!=", "<=", ">=",
	"+", "-", "*", "/", "%", "(", ")", "[", "]", ",", ".", ";", "=", "<", ">",
}

func tokenize(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			j := scanNumber(src, i)
			toks = append(toks, token{kind: tokNumber, text: src[i:j], pos: i})
			i = j
		case c == '\'' || c == '"':
			j := strings.IndexByte(src[i+1:], c)
			if j < 0 {
				return nil, fmt.Errorf("%w: unterminated string at %d", errSyntax, i)
			}
			toks = append(toks, token{kind: tokString, text: src[i+1 : i+1+j], pos: i})
			i += j + 2
		case c == '_' || unicode.IsLetter(rune(c)) || c >= 0x80:
			j := i
			for j < len(src) && (src[j] == '_' || isDigit(src[j]) || unicode.IsLetter(rune(src[j])) || src[j] >= 0x80) {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: src[i:j], pos: i})
			i = j
		default:
			op := ""
			for _, candidate := range operators {
				if strings.HasPrefix(src[i:], candidate) {
					op = candidate
					break
				}
			}
			if op == "" {
				return nil, fmt.Errorf("%w: unexpected %q at %d", errSyntax, c, i)
			}
			toks = append(toks, token{kind: tokOp, text: op, pos: i})
			i += len(op)
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(src)}), nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func scanNumber(src string, i int) int {
	j := i
	for j < len(src) && isDigit(src[j]) {
		j++
	}
	if j < len(src) && src[j] == '.' {
		j++
		for j < len(src) && isDigit(src[j]) {
			j++
		}
	}
	if j < len(src) && (src[j] == 'e' || src[j] == 'E') {
		k := j + 1
		if k < len(src) && (src[k] == '+' || src[k] == '-') {
			k++
		}
		if k < len(src) && isDigit(src[k]) {
			for k < len(src) && isDigit(src[k]) {
				k++
			}
			j = k
		}
	}
	return j
}

type parser struct {
	toks []token
	pos  int
}

// Parse builds an expression tree for src without judging whether it may be
// evaluated.
func Parse(src string) (Node, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	n, err := p.program()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, fmt.Errorf("%w: unexpected %q at %d", errSyntax, p.peek().text, p.peek().pos)
	}
	return n, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isOp(ops ...string) bool {
	t := p.peek()
	if t.kind != tokOp {
		return false
	}
	for _, op := range ops {
		if t.text == op {
			return true
		}
	}
	return false
}

func (p *parser) expect(op string) error {
	if !p.isOp(op) {
		t := p.peek()
		return fmt.Errorf("%w: expected %q at %d", errSyntax, op, t.pos)
	}
	p.next()
	return nil
}

// program := statement (';' statement)* [';']
func (p *parser) program() (Node, error) {
	var list []Node
	for {
		st, err := p.statement()
		if err != nil {
			return nil, err
		}
		list = append(list, st)
		if !p.isOp(";") {
			break
		}
		p.next()
		if p.peek().kind == tokEOF {
			break
		}
	}
	if len(list) == 1 {
		return list[0], nil
	}
	return &SequenceExpr{List: list}, nil
}

// statement := comparison ['=' comparison]
func (p *parser) statement() (Node, error) {
	x, err := p.comparison()
	if err != nil {
		return nil, err
	}
	if p.isOp("=") {
		p.next()
		v, err := p.comparison()
		if err != nil {
			return nil, err
		}
		return &AssignExpr{Target: x, Value: v}, nil
	}
	return x, nil
}

func (p *parser) comparison() (Node, error) {
	x, err := p.additive()
	if err != nil {
		return nil, err
	}
	for p.isOp("==", "!=", "<", "<=", ">", ">=") {
		op := p.next().text
		y, err := p.additive()
		if err != nil {
			return nil, err
		}
		x = &CompareExpr{Op: op, X: x, Y: y}
	}
	return x, nil
}

func (p *parser) additive() (Node, error) {
	x, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.isOp("+", "-") {
		op := p.next().text
		y, err := p.term()
		if err != nil {
			return nil, err
		}
		x = &BinaryExpr{Op: op, X: x, Y: y}
	}
	return x, nil
}

func (p *parser) term() (Node, error) {
	x, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.isOp("*", "/", "//", "%") {
		op := p.next().text
		y, err := p.unary()
		if err != nil {
			return nil, err
		}
		x = &BinaryExpr{Op: op, X: x, Y: y}
	}
	return x, nil
}

// unary binds looser than '**', so -2**2 is -(2**2).
func (p *parser) unary() (Node, error) {
	if p.isOp("+", "-") {
		op := p.next().text
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: op, X: x}, nil
	}
	return p.power()
}

// power is right-associative; its exponent may carry a sign.
func (p *parser) power() (Node, error) {
	base, err := p.postfix()
	if err != nil {
		return nil, err
	}
	if p.isOp("**") {
		p.next()
		exp, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Op: "**", X: base, Y: exp}, nil
	}
	return base, nil
}

func (p *parser) postfix() (Node, error) {
	x, err := p.atom()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.isOp("("):
			p.next()
			var args []Node
			for !p.isOp(")") {
				a, err := p.statement()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
				if !p.isOp(",") {
					break
				}
				p.next()
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			x = &CallExpr{Fun: x, Args: args}
		case p.isOp("."):
			p.next()
			t := p.next()
			if t.kind != tokIdent {
				return nil, fmt.Errorf("%w: expected attribute name at %d", errSyntax, t.pos)
			}
			x = &AttrExpr{X: x, Name: t.text}
		case p.isOp("["):
			p.next()
			idx, err := p.comparison()
			if err != nil {
				return nil, err
			}
			if err := p.expect("]"); err != nil {
				return nil, err
			}
			x = &IndexExpr{X: x, Index: idx}
		default:
			return x, nil
		}
	}
}

func (p *parser) atom() (Node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		v, err := parseNumber(t.text)
		if err != nil {
			return nil, fmt.Errorf("%w: bad number %q", errSyntax, t.text)
		}
		return &NumberLit{Value: v}, nil
	case tokIdent:
		return &Ident{Name: t.text}, nil
	case tokString:
		return &StringLit{Value: t.text}, nil
	case tokOp:
		if t.text == "(" {
			x, err := p.statement()
			if err != nil {
				return nil, err
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			return &ParenExpr{X: x}, nil
		}
	}
	if t.kind == tokEOF {
		return nil, fmt.Errorf("%w: unexpected end of input", errSyntax)
	}
	return nil, fmt.Errorf("%w: unexpected %q at %d", errSyntax, t.text, t.pos)
}

func parseNumber(text string) (Value, error) {
	if !strings.ContainsAny(text, ".eE") {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return Int(n), nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Value{}, err
	}
	return Float(f), nil
}
