package motion

import (
	"fmt"
	"strconv"
)

// evalExpr evaluates the arithmetic expression grammar the compiler emits
// (numbers, + - * /, parentheses, and the if/lt/lte/clip/pow/min/max
// functions) against the given variable bindings. It exists so the filter
// tests can compare the generated formulas with the trajectory's own
// arithmetic instead of just eyeballing strings.
func evalExpr(expr string, vars map[string]float64) (float64, error) {
	p := &exprParser{s: expr, vars: vars}
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipSpaces()
	if p.pos != len(p.s) {
		return 0, fmt.Errorf("trailing input at %d in %q", p.pos, expr)
	}
	return v, nil
}

type exprParser struct {
	s    string
	pos  int
	vars map[string]float64
}

func (p *exprParser) parseExpr() (float64, error) {
	v, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpaces()
		if p.peek() == '+' {
			p.pos++
			rhs, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			v += rhs
		} else if p.peek() == '-' {
			p.pos++
			rhs, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			v -= rhs
		} else {
			return v, nil
		}
	}
}

func (p *exprParser) parseTerm() (float64, error) {
	v, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpaces()
		if p.peek() == '*' {
			p.pos++
			rhs, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			v *= rhs
		} else if p.peek() == '/' {
			p.pos++
			rhs, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			v /= rhs
		} else {
			return v, nil
		}
	}
}

func (p *exprParser) parseUnary() (float64, error) {
	p.skipSpaces()
	if p.peek() == '-' {
		p.pos++
		v, err := p.parseUnary()
		return -v, err
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (float64, error) {
	p.skipSpaces()
	c := p.peek()
	switch {
	case c == '(':
		p.pos++
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if err := p.expect(')'); err != nil {
			return 0, err
		}
		return v, nil
	case c >= '0' && c <= '9' || c == '.':
		return p.parseNumber()
	case isIdentChar(c):
		return p.parseIdentOrCall()
	default:
		return 0, fmt.Errorf("unexpected %q at %d in %q", c, p.pos, p.s)
	}
}

func (p *exprParser) parseNumber() (float64, error) {
	start := p.pos
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c >= '0' && c <= '9' || c == '.' {
			p.pos++
		} else if c == 'e' || c == 'E' {
			p.pos++
			if p.peek() == '+' || p.peek() == '-' {
				p.pos++
			}
		} else {
			break
		}
	}
	return strconv.ParseFloat(p.s[start:p.pos], 64)
}

func (p *exprParser) parseIdentOrCall() (float64, error) {
	start := p.pos
	for p.pos < len(p.s) && isIdentChar(p.s[p.pos]) {
		p.pos++
	}
	name := p.s[start:p.pos]
	p.skipSpaces()
	if p.peek() != '(' {
		v, ok := p.vars[name]
		if !ok {
			return 0, fmt.Errorf("unbound variable %q in %q", name, p.s)
		}
		return v, nil
	}
	p.pos++
	var args []float64
	for {
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		args = append(args, v)
		p.skipSpaces()
		if p.peek() == ',' {
			p.pos++
			continue
		}
		break
	}
	if err := p.expect(')'); err != nil {
		return 0, err
	}
	return applyFunc(name, args)
}

func applyFunc(name string, args []float64) (float64, error) {
	arity := map[string]int{"if": 3, "clip": 3, "pow": 2, "lt": 2, "lte": 2, "min": 2, "max": 2}
	want, ok := arity[name]
	if !ok {
		return 0, fmt.Errorf("unknown function %q", name)
	}
	if len(args) != want {
		return 0, fmt.Errorf("%s expects %d args, got %d", name, want, len(args))
	}
	switch name {
	case "if":
		if args[0] != 0 {
			return args[1], nil
		}
		return args[2], nil
	case "clip":
		v := args[0]
		if v < args[1] {
			v = args[1]
		}
		if v > args[2] {
			v = args[2]
		}
		return v, nil
	case "pow":
		return pow(args[0], args[1]), nil
	case "lt":
		return boolVal(args[0] < args[1]), nil
	case "lte":
		return boolVal(args[0] <= args[1]), nil
	case "min":
		if args[0] < args[1] {
			return args[0], nil
		}
		return args[1], nil
	default: // max
		if args[0] > args[1] {
			return args[0], nil
		}
		return args[1], nil
	}
}

func pow(x, n float64) float64 {
	result := 1.0
	for i := 0; i < int(n); i++ {
		result *= x
	}
	return result
}

func boolVal(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func isIdentChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func (p *exprParser) expect(c byte) error {
	p.skipSpaces()
	if p.peek() != c {
		return fmt.Errorf("expected %q at %d in %q", c, p.pos, p.s)
	}
	p.pos++
	return nil
}

func (p *exprParser) peek() byte {
	if p.pos >= len(p.s) {
		return 0
	}
	return p.s[p.pos]
}

func (p *exprParser) skipSpaces() {
	for p.pos < len(p.s) && p.s[p.pos] == ' ' {
		p.pos++
	}
}
