// Package formula parses and evaluates formula property expressions.
//
// The language is small: number/string/bool literals, references to sibling
// properties via prop("Name"), arithmetic (+ - * /), comparison
// (== != < <= > >=), boolean and/or/not, if(cond, then, else), and
// concat(...). Expressions are parsed once at definition time and evaluated
// per row on read.
package formula

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Expr is a parsed expression tree.
type Expr interface {
	eval(env Env) (any, error)
}

// Env resolves a property name to the row's value for it. A nil value is
// treated as the empty value of whatever type the expression needs.
type Env func(name string) (any, bool)

// Parsed is a compiled expression together with the property names it
// references.
type Parsed struct {
	root Expr
	refs []string
}

// Refs returns the property names the expression references.
func (p *Parsed) Refs() []string {
	return p.refs
}

// Eval evaluates the expression against a row's values.
func (p *Parsed) Eval(env Env) (any, error) {
	return p.root.eval(env)
}

// Parse compiles an expression.
func Parse(input string) (*Parsed, error) {
	toks, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, fmt.Errorf("unexpected %q at end of expression", p.toks[p.pos].text)
	}
	refs := map[string]struct{}{}
	collectRefs(root, refs)
	out := &Parsed{root: root}
	for name := range refs {
		out.refs = append(out.refs, name)
	}
	return out, nil
}

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokString
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokenKind
	text string
}

func lex(input string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(input) {
		c := rune(input[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "("})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")"})
			i++
		case c == ',':
			toks = append(toks, token{tokComma, ","})
			i++
		case c == '"':
			j := i + 1
			for j < len(input) && input[j] != '"' {
				j++
			}
			if j >= len(input) {
				return nil, fmt.Errorf("unterminated string at offset %d", i)
			}
			toks = append(toks, token{tokString, input[i+1 : j]})
			i = j + 1
		case strings.ContainsRune("+-*/", c):
			toks = append(toks, token{tokOp, string(c)})
			i++
		case strings.ContainsRune("=!<>", c):
			op := string(c)
			if i+1 < len(input) && input[i+1] == '=' {
				op += "="
				i++
			}
			if op == "=" {
				return nil, fmt.Errorf("single %q, use == for comparison", "=")
			}
			toks = append(toks, token{tokOp, op})
			i++
		case unicode.IsDigit(c) || c == '.':
			j := i
			for j < len(input) && (unicode.IsDigit(rune(input[j])) || input[j] == '.') {
				j++
			}
			toks = append(toks, token{tokNumber, input[i:j]})
			i = j
		case unicode.IsLetter(c) || c == '_':
			j := i
			for j < len(input) && (unicode.IsLetter(rune(input[j])) || unicode.IsDigit(rune(input[j])) || input[j] == '_') {
				j++
			}
			toks = append(toks, token{tokIdent, input[i:j]})
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q at offset %d", c, i)
		}
	}
	return toks, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() (token, bool) {
	if p.pos < len(p.toks) {
		return p.toks[p.pos], true
	}
	return token{}, false
}

func (p *parser) accept(kind tokenKind, text string) bool {
	if t, ok := p.peek(); ok && t.kind == kind && (text == "" || t.text == text) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	t, ok := p.peek()
	if !ok {
		return token{}, fmt.Errorf("expected %s, got end of expression", what)
	}
	if t.kind != kind {
		return token{}, fmt.Errorf("expected %s, got %q", what, t.text)
	}
	p.pos++
	return t, nil
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.acceptIdent("or") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &boolOp{"or", left, right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.acceptIdent("and") {
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &boolOp{"and", left, right}
	}
	return left, nil
}

func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if t, ok := p.peek(); ok && t.kind == tokOp && isComparison(t.text) {
		p.pos++
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &compareOp{t.text, left, right}, nil
	}
	return left, nil
}

func (p *parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != tokOp || (t.text != "+" && t.text != "-") {
			return left, nil
		}
		p.pos++
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &arithOp{t.text, left, right}
	}
}

func (p *parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != tokOp || (t.text != "*" && t.text != "/") {
			return left, nil
		}
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &arithOp{t.text, left, right}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	if p.accept(tokOp, "-") {
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &arithOp{"-", &literal{float64(0)}, inner}, nil
	}
	if p.acceptIdent("not") {
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &boolOp{"not", inner, nil}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	t, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("unexpected end of expression")
	}
	switch t.kind {
	case tokNumber:
		p.pos++
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", t.text)
		}
		return &literal{f}, nil
	case tokString:
		p.pos++
		return &literal{t.text}, nil
	case tokLParen:
		p.pos++
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return inner, nil
	case tokIdent:
		switch t.text {
		case "true", "false":
			p.pos++
			return &literal{t.text == "true"}, nil
		case "prop":
			p.pos++
			return p.parseProp()
		case "if", "concat":
			p.pos++
			return p.parseCall(t.text)
		default:
			return nil, fmt.Errorf("unknown identifier %q", t.text)
		}
	default:
		return nil, fmt.Errorf("unexpected %q", t.text)
	}
}

func (p *parser) parseProp() (Expr, error) {
	if _, err := p.expect(tokLParen, "("); err != nil {
		return nil, err
	}
	name, err := p.expect(tokString, "property name string")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRParen, ")"); err != nil {
		return nil, err
	}
	return &propRef{name.text}, nil
}

func (p *parser) parseCall(name string) (Expr, error) {
	if _, err := p.expect(tokLParen, "("); err != nil {
		return nil, err
	}
	var args []Expr
	if !p.accept(tokRParen, "") {
		for {
			arg, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.accept(tokComma, "") {
				continue
			}
			if _, err := p.expect(tokRParen, ")"); err != nil {
				return nil, err
			}
			break
		}
	}
	if name == "if" && len(args) != 3 {
		return nil, fmt.Errorf("if takes 3 arguments, got %d", len(args))
	}
	if name == "concat" && len(args) == 0 {
		return nil, fmt.Errorf("concat takes at least 1 argument")
	}
	return &call{name, args}, nil
}

func (p *parser) acceptIdent(text string) bool {
	if t, ok := p.peek(); ok && t.kind == tokIdent && t.text == text {
		p.pos++
		return true
	}
	return false
}

func isComparison(op string) bool {
	switch op {
	case "==", "!=", "<", "<=", ">", ">=":
		return true
	}
	return false
}

type literal struct{ v any }

func (l *literal) eval(Env) (any, error) { return l.v, nil }

type propRef struct{ name string }

func (r *propRef) eval(env Env) (any, error) {
	v, ok := env(r.name)
	if !ok {
		return nil, fmt.Errorf("unknown property %q", r.name)
	}
	return v, nil
}

type arithOp struct {
	op          string
	left, right Expr
}

func (o *arithOp) eval(env Env) (any, error) {
	lv, err := o.left.eval(env)
	if err != nil {
		return nil, err
	}
	rv, err := o.right.eval(env)
	if err != nil {
		return nil, err
	}
	// string + string is concatenation
	if o.op == "+" {
		if ls, ok := lv.(string); ok {
			rs, ok := rv.(string)
			if !ok {
				return nil, fmt.Errorf("cannot add %T to string", rv)
			}
			return ls + rs, nil
		}
	}
	ln, err := asNumber(lv)
	if err != nil {
		return nil, err
	}
	rn, err := asNumber(rv)
	if err != nil {
		return nil, err
	}
	switch o.op {
	case "+":
		return ln + rn, nil
	case "-":
		return ln - rn, nil
	case "*":
		return ln * rn, nil
	case "/":
		if rn == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return ln / rn, nil
	}
	return nil, fmt.Errorf("unknown operator %q", o.op)
}

type compareOp struct {
	op          string
	left, right Expr
}

func (o *compareOp) eval(env Env) (any, error) {
	lv, err := o.left.eval(env)
	if err != nil {
		return nil, err
	}
	rv, err := o.right.eval(env)
	if err != nil {
		return nil, err
	}
	switch o.op {
	case "==":
		return lv == rv, nil
	case "!=":
		return lv != rv, nil
	}
	if ls, ok := lv.(string); ok {
		rs, ok := rv.(string)
		if !ok {
			return nil, fmt.Errorf("cannot compare string with %T", rv)
		}
		return compareOrdered(o.op, strings.Compare(ls, rs)), nil
	}
	ln, err := asNumber(lv)
	if err != nil {
		return nil, err
	}
	rn, err := asNumber(rv)
	if err != nil {
		return nil, err
	}
	switch {
	case ln < rn:
		return compareOrdered(o.op, -1), nil
	case ln > rn:
		return compareOrdered(o.op, 1), nil
	default:
		return compareOrdered(o.op, 0), nil
	}
}

func compareOrdered(op string, cmp int) bool {
	switch op {
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	}
	return false
}

type boolOp struct {
	op          string
	left, right Expr
}

func (o *boolOp) eval(env Env) (any, error) {
	lv, err := o.left.eval(env)
	if err != nil {
		return nil, err
	}
	lb, err := asBool(lv)
	if err != nil {
		return nil, err
	}
	switch o.op {
	case "not":
		return !lb, nil
	case "and":
		if !lb {
			return false, nil
		}
	case "or":
		if lb {
			return true, nil
		}
	}
	rv, err := o.right.eval(env)
	if err != nil {
		return nil, err
	}
	return asBool(rv)
}

type call struct {
	name string
	args []Expr
}

func (c *call) eval(env Env) (any, error) {
	switch c.name {
	case "if":
		cond, err := c.args[0].eval(env)
		if err != nil {
			return nil, err
		}
		b, err := asBool(cond)
		if err != nil {
			return nil, err
		}
		if b {
			return c.args[1].eval(env)
		}
		return c.args[2].eval(env)
	case "concat":
		var sb strings.Builder
		for _, arg := range c.args {
			v, err := arg.eval(env)
			if err != nil {
				return nil, err
			}
			sb.WriteString(asString(v))
		}
		return sb.String(), nil
	}
	return nil, fmt.Errorf("unknown function %q", c.name)
}

func collectRefs(e Expr, out map[string]struct{}) {
	switch n := e.(type) {
	case *propRef:
		out[n.name] = struct{}{}
	case *arithOp:
		collectRefs(n.left, out)
		collectRefs(n.right, out)
	case *compareOp:
		collectRefs(n.left, out)
		collectRefs(n.right, out)
	case *boolOp:
		collectRefs(n.left, out)
		if n.right != nil {
			collectRefs(n.right, out)
		}
	case *call:
		for _, arg := range n.args {
			collectRefs(arg, out)
		}
	}
}

func asNumber(v any) (float64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}

func asBool(v any) (bool, error) {
	switch b := v.(type) {
	case nil:
		return false, nil
	case bool:
		return b, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return fmt.Sprintf("%v", s)
	}
}
