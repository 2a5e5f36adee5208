package expr

import (
	"fmt"
	"strings"
)

// Program is a parsed, cached expression ready for repeated evaluation
// against different contexts (spec.md §9: "Cache compiled ASTs per
// expression string").
type Program struct {
	source string
	root   node
}

// Source returns the original expression text, used in error messages.
func (p *Program) Source() string { return p.source }

// Eval walks the AST against ctx.
func (p *Program) Eval(ctx Context) (Value, error) {
	v, err := p.root.eval(ctx)
	if err != nil {
		return Value{}, fmt.Errorf("expr: evaluating %q: %w", p.source, err)
	}
	return v, nil
}

type parser struct {
	lex  *lexer
	cur  token
	peek *token
}

func newParser(src string) (*parser, error) {
	p := &parser{lex: newLexer(src)}
	tok, err := p.lex.next()
	if err != nil {
		return nil, err
	}
	p.cur = tok
	return p, nil
}

func (p *parser) advance() error {
	if p.peek != nil {
		p.cur = *p.peek
		p.peek = nil
		return nil
	}
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.cur = tok
	return nil
}

func (p *parser) expectPunct(s string) error {
	if p.cur.kind != tokPunct || p.cur.val != s {
		return fmt.Errorf("expr: %d: expected %q, got %q", p.cur.pos, s, p.cur.val)
	}
	return p.advance()
}

func (p *parser) isPunct(s string) bool { return p.cur.kind == tokPunct && p.cur.val == s }

// Parse compiles src into a Program. Parsing is the only place a malformed
// expression can fail; Eval against a given Context can still fail later
// (e.g. an unresolved field), per spec.md §7's DecodingError for "failed
// expression evaluation".
func Parse(src string) (*Program, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokEOF {
		return nil, fmt.Errorf("expr: %d: unexpected trailing input %q", p.cur.pos, p.cur.val)
	}
	return &Program{source: src, root: n}, nil
}

func (p *parser) parseOr() (node, error) {
	l, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isPunct("||") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		r, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		l = &binaryNode{op: "||", l: l, r: r}
	}
	return l, nil
}

func (p *parser) parseAnd() (node, error) {
	l, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.isPunct("&&") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		r, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		l = &binaryNode{op: "&&", l: l, r: r}
	}
	return l, nil
}

func (p *parser) parseEquality() (node, error) {
	l, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for p.isPunct("==") || p.isPunct("!=") {
		op := p.cur.val
		if err := p.advance(); err != nil {
			return nil, err
		}
		r, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		l = &binaryNode{op: op, l: l, r: r}
	}
	return l, nil
}

func (p *parser) parseRelational() (node, error) {
	l, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.isPunct("<") || p.isPunct("<=") || p.isPunct(">") || p.isPunct(">=") {
		op := p.cur.val
		if err := p.advance(); err != nil {
			return nil, err
		}
		r, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		l = &binaryNode{op: op, l: l, r: r}
	}
	return l, nil
}

func (p *parser) parseAdditive() (node, error) {
	l, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.isPunct("+") || p.isPunct("-") {
		op := p.cur.val
		if err := p.advance(); err != nil {
			return nil, err
		}
		r, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		l = &binaryNode{op: op, l: l, r: r}
	}
	return l, nil
}

func (p *parser) parseMultiplicative() (node, error) {
	l, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isPunct("*") || p.isPunct("/") {
		op := p.cur.val
		if err := p.advance(); err != nil {
			return nil, err
		}
		r, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		l = &binaryNode{op: op, l: l, r: r}
	}
	return l, nil
}

func (p *parser) parseUnary() (node, error) {
	if p.isPunct("!") || p.isPunct("-") {
		op := p.cur.val
		if err := p.advance(); err != nil {
			return nil, err
		}
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &unaryNode{op: op, x: x}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (node, error) {
	n, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.isPunct("."):
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.cur.kind != tokIdent {
				return nil, fmt.Errorf("expr: %d: expected identifier after '.'", p.cur.pos)
			}
			name := p.cur.val
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.isPunct("(") {
				args, err := p.parseArgs()
				if err != nil {
					return nil, err
				}
				n = &callNode{target: n, name: name, args: args}
			} else {
				n = &memberNode{target: n, name: name}
			}
		case p.isPunct("["):
			if err := p.advance(); err != nil {
				return nil, err
			}
			idx, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct("]"); err != nil {
				return nil, err
			}
			n = &indexNode{target: n, index: idx}
		default:
			return n, nil
		}
	}
}

func (p *parser) parseArgs() ([]node, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var args []node
	if !p.isPunct(")") {
		for {
			a, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if p.isPunct(",") {
				if err := p.advance(); err != nil {
					return nil, err
				}
				continue
			}
			break
		}
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *parser) parsePrimary() (node, error) {
	switch {
	case p.cur.kind == tokInt:
		v := p.cur.ival
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &literalNode{v: Int(v)}, nil
	case p.cur.kind == tokString:
		s := p.cur.val
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &literalNode{v: Str(s)}, nil
	case p.cur.kind == tokVariable:
		name := p.cur.val
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &variableNode{name: name}, nil
	case p.isPunct("("):
		if err := p.advance(); err != nil {
			return nil, err
		}
		n, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return n, nil
	case p.cur.kind == tokIdent:
		name := p.cur.val
		switch name {
		case "true":
			if err := p.advance(); err != nil {
				return nil, err
			}
			return &literalNode{v: Bool(true)}, nil
		case "false":
			if err := p.advance(); err != nil {
				return nil, err
			}
			return &literalNode{v: Bool(false)}, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		if name == "T" && p.isPunct("(") {
			return p.parseTypeRef()
		}
		if p.isPunct("(") {
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			return &callNode{name: name, args: args}, nil
		}
		return &identNode{name: name}, nil
	default:
		return nil, fmt.Errorf("expr: %d: unexpected token %q", p.cur.pos, p.cur.val)
	}
}

// parseTypeRef parses T(fully.qualified.Name).staticMethod(args…), invoked
// right after the "T" identifier has been consumed and "(" has been seen.
func (p *parser) parseTypeRef() (node, error) {
	if err := p.advance(); err != nil { // consume "("
		return nil, err
	}
	var parts []string
	for {
		if p.cur.kind != tokIdent {
			return nil, fmt.Errorf("expr: %d: expected identifier in type reference", p.cur.pos)
		}
		parts = append(parts, p.cur.val)
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.isPunct(".") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	if err := p.expectPunct("."); err != nil {
		return nil, err
	}
	if p.cur.kind != tokIdent {
		return nil, fmt.Errorf("expr: %d: expected method name after type reference", p.cur.pos)
	}
	method := p.cur.val
	if err := p.advance(); err != nil {
		return nil, err
	}
	args, err := p.parseArgs()
	if err != nil {
		return nil, err
	}
	return &typeRefNode{qualifiedName: strings.Join(parts, "."), method: method, args: args}, nil
}
