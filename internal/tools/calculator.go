package tools

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ToolCalculator is the wire name of the calculator tool.
const ToolCalculator = "calculator"

// CalculatorInput defines input for the calculator tool.
type CalculatorInput struct {
	Expression string `json:"expression" jsonschema_description:"Arithmetic expression using numbers, + - * /, and parentheses"`
}

// NewCalculator creates the calculator tool.
//
// The expression grammar is deliberately restricted: numeric literals, the
// four binary operators, unary minus, and parentheses. The expression string
// is user-supplied, so anything outside that grammar (identifiers, function
// calls, statements) is rejected as invalid_input and never evaluated.
func NewCalculator() *ExecutableTool {
	return MustTool(ToolCalculator,
		"Evaluate an arithmetic expression. Supports numbers, + - * /, unary minus, and parentheses. "+
			"Example: (2+3)*4. Does not execute code or functions.",
		func(_ context.Context, input CalculatorInput) Result {
			expr := strings.TrimSpace(input.Expression)
			if expr == "" {
				return Errorf(ErrCodeInvalidInput, "expression is empty")
			}

			value, err := evaluate(expr)
			if err != nil {
				return Errorf(ErrCodeInvalidInput, fmt.Sprintf("cannot evaluate %q: %v", expr, err))
			}

			return Result{
				Status:  StatusSuccess,
				Message: fmt.Sprintf("%s = %s", expr, formatNumber(value)),
				Data: map[string]any{
					"expression": expr,
					"result":     value,
				},
			}
		})
}

// formatNumber renders a result without a trailing ".000000" for integral
// values. 2+2*3 prints as 8, not 8.000000.
func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Token kinds for the expression lexer.
type tokenKind int

const (
	tokNumber tokenKind = iota
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokLParen
	tokRParen
	tokEOF
)

type token struct {
	kind  tokenKind
	value float64
	pos   int
}

// lex tokenizes the expression. Any rune outside the arithmetic grammar is
// an error; this is the sandbox boundary.
func lex(expr string) ([]token, error) {
	var toks []token
	runes := []rune(expr)

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '+':
			toks = append(toks, token{kind: tokPlus, pos: i})
			i++
		case r == '-':
			toks = append(toks, token{kind: tokMinus, pos: i})
			i++
		case r == '*':
			toks = append(toks, token{kind: tokStar, pos: i})
			i++
		case r == '/':
			toks = append(toks, token{kind: tokSlash, pos: i})
			i++
		case r == '(':
			toks = append(toks, token{kind: tokLParen, pos: i})
			i++
		case r == ')':
			toks = append(toks, token{kind: tokRParen, pos: i})
			i++
		case unicode.IsDigit(r) || r == '.':
			start := i
			seenDot := false
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				if runes[i] == '.' {
					if seenDot {
						return nil, fmt.Errorf("malformed number at position %d", start)
					}
					seenDot = true
				}
				i++
			}
			lit := string(runes[start:i])
			v, err := strconv.ParseFloat(lit, 64)
			if err != nil {
				return nil, fmt.Errorf("malformed number %q", lit)
			}
			toks = append(toks, token{kind: tokNumber, value: v, pos: start})
		default:
			return nil, fmt.Errorf("unexpected character %q at position %d", r, i)
		}
	}

	toks = append(toks, token{kind: tokEOF, pos: len(runes)})
	return toks, nil
}

// parser implements a recursive-descent evaluator with standard precedence:
//
//	expr   = term   { ("+" | "-") term }
//	term   = unary  { ("*" | "/") unary }
//	unary  = "-" unary | primary
//	primary = NUMBER | "(" expr ")"
type parser struct {
	toks []token
	pos  int
}

func evaluate(expr string) (float64, error) {
	toks, err := lex(expr)
	if err != nil {
		return 0, err
	}

	p := &parser{toks: toks}
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if p.peek().kind != tokEOF {
		return 0, fmt.Errorf("unexpected token at position %d", p.peek().pos)
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("result is not a finite number")
	}
	return v, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek().kind {
		case tokPlus:
			p.next()
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left += right
		case tokMinus:
			p.next()
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

func (p *parser) parseTerm() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek().kind {
		case tokStar:
			p.next()
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			left *= right
		case tokSlash:
			p.next()
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left /= right
		default:
			return left, nil
		}
	}
}

func (p *parser) parseUnary() (float64, error) {
	if p.peek().kind == tokMinus {
		p.next()
		v, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		return -v, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (float64, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return t.value, nil
	case tokLParen:
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return 0, fmt.Errorf("missing closing parenthesis at position %d", closing.pos)
		}
		return v, nil
	default:
		return 0, fmt.Errorf("unexpected token at position %d", t.pos)
	}
}
