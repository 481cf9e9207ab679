package asm

import (
	"strconv"
	"strings"
	"text/scanner"

	"github.com/pkg/errors"
)

// exprParser is a small recursive-descent parser/evaluator for operand
// expressions: integer literals (decimal, 0x hex, 0b binary), string
// literals, the registers and the math/pow/data namespace, parens,
// unary -/~ and the binary operators + - * / % & | ^, and function
// calls. It deliberately does not implement a general-purpose language:
// no assignment, no control flow, no user-defined functions — enough
// to compute addresses and constants safely, nothing more.
type exprParser struct {
	s    scanner.Scanner
	env  *env
	tok  rune
	text string
}

func newExprParser(src string, pos scanner.Position, e *env) *exprParser {
	p := &exprParser{env: e}
	p.s.Init(strings.NewReader(src))
	p.s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats | scanner.ScanStrings
	p.s.Filename = pos.Filename
	p.s.Line = pos.Line
	p.next()
	return p
}

func (p *exprParser) next() {
	p.tok = p.s.Scan()
	p.text = p.s.TokenText()
}

func (p *exprParser) pos() scanner.Position { return p.s.Position }

func (p *exprParser) errorf(format string, args ...interface{}) error {
	return errors.Errorf("%s: "+format, append([]interface{}{p.pos()}, args...)...)
}

// ParseOperand parses exactly one operand expression and requires the
// scanner to be fully consumed afterward. A ':name' token parses as a
// labelValue, deferred for resolution once the label pass completes;
// using one inside any larger expression is a parse error (see
// value.asNum). A plain identifier is always a register or a constant —
// never a label — and is undefined if neither matches.
func (p *exprParser) ParseOperand() (value, error) {
	v, err := p.parseBitOr()
	if err != nil {
		return value{}, err
	}
	if p.tok != scanner.EOF {
		return value{}, p.errorf("unexpected trailing token %q", p.text)
	}
	return v, nil
}

func (p *exprParser) parseBitOr() (value, error) {
	v, err := p.parseBitXor()
	if err != nil {
		return value{}, err
	}
	return p.continueBitOr(v)
}

func (p *exprParser) continueBitOr(v value) (value, error) {
	for p.tok == '|' {
		p.next()
		rhs, err := p.parseBitXor()
		if err != nil {
			return value{}, err
		}
		ln, err := v.asNum()
		if err != nil {
			return value{}, err
		}
		rn, err := rhs.asNum()
		if err != nil {
			return value{}, err
		}
		v = numValue(ln | rn)
	}
	return v, nil
}

func (p *exprParser) parseBitXor() (value, error) {
	v, err := p.parseBitAnd()
	if err != nil {
		return value{}, err
	}
	for p.tok == '^' {
		p.next()
		rhs, err := p.parseBitAnd()
		if err != nil {
			return value{}, err
		}
		ln, err := v.asNum()
		if err != nil {
			return value{}, err
		}
		rn, err := rhs.asNum()
		if err != nil {
			return value{}, err
		}
		v = numValue(ln ^ rn)
	}
	return v, nil
}

func (p *exprParser) parseBitAnd() (value, error) {
	v, err := p.parseAdd()
	if err != nil {
		return value{}, err
	}
	for p.tok == '&' {
		p.next()
		rhs, err := p.parseAdd()
		if err != nil {
			return value{}, err
		}
		ln, err := v.asNum()
		if err != nil {
			return value{}, err
		}
		rn, err := rhs.asNum()
		if err != nil {
			return value{}, err
		}
		v = numValue(ln & rn)
	}
	return v, nil
}

func (p *exprParser) parseAdd() (value, error) {
	v, err := p.parseMul()
	if err != nil {
		return value{}, err
	}
	for p.tok == '+' || p.tok == '-' {
		op := p.tok
		p.next()
		rhs, err := p.parseMul()
		if err != nil {
			return value{}, err
		}
		ln, err := v.asNum()
		if err != nil {
			return value{}, err
		}
		rn, err := rhs.asNum()
		if err != nil {
			return value{}, err
		}
		if op == '+' {
			v = numValue(ln + rn)
		} else {
			v = numValue(ln - rn)
		}
	}
	return v, nil
}

func (p *exprParser) parseMul() (value, error) {
	v, err := p.parseUnary()
	if err != nil {
		return value{}, err
	}
	for p.tok == '*' || p.tok == '/' || p.tok == '%' {
		op := p.tok
		p.next()
		rhs, err := p.parseUnary()
		if err != nil {
			return value{}, err
		}
		ln, err := v.asNum()
		if err != nil {
			return value{}, err
		}
		rn, err := rhs.asNum()
		if err != nil {
			return value{}, err
		}
		switch op {
		case '*':
			v = numValue(ln * rn)
		case '/':
			if rn == 0 {
				return value{}, p.errorf("division by zero in constant expression")
			}
			v = numValue(ln / rn)
		case '%':
			if rn == 0 {
				return value{}, p.errorf("division by zero in constant expression")
			}
			v = numValue(ln % rn)
		}
	}
	return v, nil
}

func (p *exprParser) parseUnary() (value, error) {
	switch p.tok {
	case '-':
		p.next()
		v, err := p.parseUnary()
		if err != nil {
			return value{}, err
		}
		n, err := v.asNum()
		if err != nil {
			return value{}, err
		}
		return numValue(-n), nil
	case '~':
		p.next()
		v, err := p.parseUnary()
		if err != nil {
			return value{}, err
		}
		n, err := v.asNum()
		if err != nil {
			return value{}, err
		}
		return numValue(^n), nil
	default:
		return p.parsePrimary()
	}
}

func (p *exprParser) parsePrimary() (value, error) {
	switch p.tok {
	case scanner.Int:
		n, err := strconv.ParseInt(p.text, 0, 64)
		if err != nil {
			u, uerr := strconv.ParseUint(p.text, 0, 64)
			if uerr != nil {
				return value{}, p.errorf("invalid integer literal %q", p.text)
			}
			n = int64(u)
		}
		p.next()
		return numValue(n), nil
	case scanner.String:
		s, err := strconv.Unquote(p.text)
		if err != nil {
			return value{}, p.errorf("invalid string literal %q", p.text)
		}
		p.next()
		return strValue(s), nil
	case scanner.Ident:
		name := p.text
		p.next()
		return p.identExpr(name)
	case ':':
		p.next()
		// Anonymous sz/snz labels (anonLabelName) carry a '$' prefix,
		// which the scanner returns as a token of its own.
		prefix := ""
		if p.tok == '$' {
			prefix = "$"
			p.next()
		}
		if p.tok != scanner.Ident {
			return value{}, p.errorf("expected a label name after ':'")
		}
		name := prefix + p.text
		p.next()
		return labelValue(name), nil
	case '(':
		p.next()
		v, err := p.parseBitOr()
		if err != nil {
			return value{}, err
		}
		if p.tok != ')' {
			return value{}, p.errorf("expected ')'")
		}
		p.next()
		return v, nil
	default:
		return value{}, p.errorf("unexpected token %q", p.text)
	}
}

// identExpr resolves an identifier already consumed by the caller: a
// function call if followed by '(', otherwise a register or constant
// lookup. Unlike a ':name' label reference (handled in parsePrimary),
// a plain identifier can never be a deferred label — code labels are
// always referenced with their leading ':', so an unresolved plain
// identifier is simply undefined.
func (p *exprParser) identExpr(name string) (value, error) {
	if p.tok == '(' {
		args, err := p.parseArgs()
		if err != nil {
			return value{}, err
		}
		return p.env.call(name, args)
	}
	if v, ok := p.env.lookupIdent(name); ok {
		return v, nil
	}
	return value{}, p.errorf("undefined symbol %q", name)
}

func (p *exprParser) parseArgs() ([]value, error) {
	p.next() // consume '('
	var args []value
	if p.tok == ')' {
		p.next()
		return args, nil
	}
	for {
		v, err := p.parseBitOr()
		if err != nil {
			return nil, err
		}
		args = append(args, v)
		if p.tok == ',' {
			p.next()
			continue
		}
		break
	}
	if p.tok != ')' {
		return nil, p.errorf("expected ')' or ','")
	}
	p.next()
	return args, nil
}
