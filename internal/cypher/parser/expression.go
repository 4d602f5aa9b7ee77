package parser

import (
	"strconv"
	"strings"

	"github.com/clickgraph/cyphersql/internal/cypher/ast"
)

// parseExpression parses a full expression via precedence climbing:
// OR > XOR > AND > NOT > comparison/IN/IS > additive > multiplicative > unary > primary.
func (p *Parser) parseExpression() (ast.Expression, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (ast.Expression, error) {
	left, err := p.parseXor()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("OR") {
		pos := p.astPos()
		p.advance()
		right, err := p.parseXor()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Op: "OR", Left: left, Right: right, Pos: pos}
	}
	return left, nil
}

func (p *Parser) parseXor() (ast.Expression, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("XOR") {
		pos := p.astPos()
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Op: "XOR", Left: left, Right: right, Pos: pos}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expression, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("AND") {
		pos := p.astPos()
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Op: "AND", Left: left, Right: right, Pos: pos}
	}
	return left, nil
}

func (p *Parser) parseNot() (ast.Expression, error) {
	if p.isKeyword("NOT") {
		pos := p.astPos()
		p.advance()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Op: "NOT", Operand: operand, Pos: pos}, nil
	}
	return p.parseComparison()
}

var comparisonOps = map[string]bool{
	"=": true, "<>": true, "<": true, "<=": true, ">": true, ">=": true,
}

func (p *Parser) parseComparison() (ast.Expression, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		if p.cur.kind == tokPunct && comparisonOps[p.cur.text] {
			pos := p.astPos()
			op := p.cur.text
			p.advance()
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = &ast.BinaryOp{Op: op, Left: left, Right: right, Pos: pos}
			continue
		}
		if p.isKeyword("IN") {
			pos := p.astPos()
			p.advance()
			list, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = &ast.InList{Target: left, List: list, Pos: pos}
			continue
		}
		if p.isKeyword("IS") {
			pos := p.astPos()
			p.advance()
			negate := false
			if p.isKeyword("NOT") {
				negate = true
				p.advance()
			}
			if err := p.expectKeyword("NULL"); err != nil {
				return nil, err
			}
			op := "IS NULL"
			if negate {
				op = "IS NOT NULL"
			}
			left = &ast.UnaryOp{Op: op, Operand: left, Pos: pos}
			continue
		}
		break
	}
	return left, nil
}

func (p *Parser) parseAdditive() (ast.Expression, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.isPunct("+") || p.isPunct("-") {
		pos := p.astPos()
		op := p.cur.text
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Op: op, Left: left, Right: right, Pos: pos}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isPunct("*") || p.isPunct("/") || p.isPunct("%") {
		pos := p.astPos()
		op := p.cur.text
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Op: op, Left: left, Right: right, Pos: pos}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expression, error) {
	if p.isPunct("-") {
		pos := p.astPos()
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Op: "-", Operand: operand, Pos: pos}, nil
	}
	return p.parsePostfix()
}

// parsePostfix handles `.property` chains and function-call argument lists
// applied to a primary expression.
func (p *Parser) parsePostfix() (ast.Expression, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.isPunct(".") {
		pos := p.astPos()
		p.advance()
		if p.cur.kind == tokParam {
			return nil, p.errf("parameter not allowed in property-key position")
		}
		if p.cur.kind != tokIdent {
			return nil, p.errf("expected property name, got %q", p.cur.text)
		}
		propName := p.cur.text
		p.advance()
		ref, ok := expr.(*ast.VariableRef)
		if !ok {
			return nil, p.errf("property access only supported on a variable reference")
		}
		expr = &ast.Property{Alias: ref.Name, Property: propName, Pos: pos}
	}
	return expr, nil
}

func (p *Parser) parsePrimary() (ast.Expression, error) {
	pos := p.astPos()
	switch {
	case p.cur.kind == tokParam:
		name := p.cur.text
		p.advance()
		return &ast.Parameter{Name: name, Pos: pos}, nil
	case p.cur.kind == tokString:
		val := p.cur.text
		p.advance()
		return &ast.Literal{Value: val, Pos: pos}, nil
	case p.cur.kind == tokInt:
		n, _ := strconv.ParseInt(p.cur.text, 10, 64)
		p.advance()
		return &ast.Literal{Value: n, Pos: pos}, nil
	case p.cur.kind == tokFloat:
		f, _ := strconv.ParseFloat(p.cur.text, 64)
		p.advance()
		return &ast.Literal{Value: f, Pos: pos}, nil
	case p.isKeyword("TRUE"):
		p.advance()
		return &ast.Literal{Value: true, Pos: pos}, nil
	case p.isKeyword("FALSE"):
		p.advance()
		return &ast.Literal{Value: false, Pos: pos}, nil
	case p.isKeyword("NULL"):
		p.advance()
		return &ast.Literal{Value: nil, Pos: pos}, nil
	case p.isKeyword("CASE"):
		return p.parseCase()
	case p.isPunct("["):
		return p.parseListLiteral()
	case p.isPunct("("):
		// Could be a parenthesized expression or an inline pattern (for
		// size((a)-[:T]->()) argument parsing this is reached via parseArgs,
		// not here — bare "(" here is a parenthesized sub-expression).
		p.advance()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return inner, nil
	case p.cur.kind == tokIdent:
		name := p.cur.text
		lower := strings.ToLower(name)
		if p.peek.kind == tokPunct && p.peek.text == "(" {
			return p.parseCallLike(name, lower, pos)
		}
		p.advance()
		return &ast.VariableRef{Name: name, Pos: pos}, nil
	default:
		return nil, p.errf("unexpected token %q in expression", p.cur.text)
	}
}

// parseCallLike dispatches identifier-followed-by-"(" forms: aggregate
// functions, shortestPath/allShortestPaths, size(pattern), and plain scalar
// function calls.
func (p *Parser) parseCallLike(name, lower string, pos ast.Position) (ast.Expression, error) {
	switch lower {
	case "count", "collect", "sum", "avg", "min", "max":
		return p.parseAggregate(lower, pos)
	case "shortestpath", "allshortestpaths":
		return p.parseShortestPath(lower == "allshortestpaths", pos)
	case "size":
		return p.parseSizeOrFnCall(pos)
	default:
		return p.parseFnCall(name, pos)
	}
}

func (p *Parser) parseAggregate(which string, pos ast.Position) (ast.Expression, error) {
	p.advance() // name
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	agg := &ast.Aggregate{Pos: pos}
	switch which {
	case "count":
		agg.Kind = ast.AggCount
	case "collect":
		agg.Kind = ast.AggCollect
	case "sum":
		agg.Kind = ast.AggSum
	case "avg":
		agg.Kind = ast.AggAvg
	case "min":
		agg.Kind = ast.AggMin
	case "max":
		agg.Kind = ast.AggMax
	}
	if p.isKeyword("DISTINCT") {
		agg.Distinct = true
		p.advance()
	}
	if !p.isPunct(")") {
		if p.isPunct("*") {
			p.advance()
		} else {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			agg.Arg = arg
		}
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return agg, nil
}

func (p *Parser) parseShortestPath(all bool, pos ast.Position) (ast.Expression, error) {
	p.advance() // name
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	pattern, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return &ast.PathPattern{Shortest: !all, AllShortest: all, Pattern: pattern, Pos: pos}, nil
}

// parseSizeOrFnCall parses `size((a)-[:T]->())` specially (its argument is an
// inline pattern, not a value expression) but falls back to a normal
// function call for `size($list)`/`size(x.prop)`.
func (p *Parser) parseSizeOrFnCall(pos ast.Position) (ast.Expression, error) {
	p.advance() // "size"
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	if p.isPunct("(") {
		pattern, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return &ast.PatternCount{Pattern: pattern, Pos: pos}, nil
	}
	arg, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return &ast.FnCall{Name: "size", Args: []ast.Expression{arg}, Pos: pos}, nil
}

func (p *Parser) parseFnCall(name string, pos ast.Position) (ast.Expression, error) {
	p.advance() // name
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var args []ast.Expression
	for !p.isPunct(")") {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return &ast.FnCall{Name: name, Args: args, Pos: pos}, nil
}

func (p *Parser) parseListLiteral() (ast.Expression, error) {
	pos := p.astPos()
	if err := p.expectPunct("["); err != nil {
		return nil, err
	}
	var items []ast.Expression
	for !p.isPunct("]") {
		item, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectPunct("]"); err != nil {
		return nil, err
	}
	return &ast.Literal{Value: items, Pos: pos}, nil
}

func (p *Parser) parseCase() (ast.Expression, error) {
	pos := p.astPos()
	if err := p.expectKeyword("CASE"); err != nil {
		return nil, err
	}
	ce := &ast.CaseExpr{Pos: pos}
	if !p.isKeyword("WHEN") {
		operand, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		ce.Operand = operand
	}
	for p.isKeyword("WHEN") {
		p.advance()
		when, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("THEN"); err != nil {
			return nil, err
		}
		then, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		ce.Whens = append(ce.Whens, ast.CaseWhen{When: when, Then: then})
	}
	if p.isKeyword("ELSE") {
		p.advance()
		els, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		ce.Else = els
	}
	if err := p.expectKeyword("END"); err != nil {
		return nil, err
	}
	return ce, nil
}
