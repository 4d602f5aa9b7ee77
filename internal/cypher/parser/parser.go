// Package parser turns Cypher source text into an internal/cypher/ast.Query,
// or a compileerr.ErrParse. See spec.md §4.1 for the accepted grammar subset.
package parser

import (
	"fmt"
	"strconv"

	"github.com/clickgraph/cyphersql/internal/compileerr"
	"github.com/clickgraph/cyphersql/internal/cypher/ast"
)

// Parser is a recursive-descent parser over a token stream produced by the
// lexer. Mirrors the teacher lineage's builder style (see
// internal/planbuilder): small struct, one token of lookahead, errors
// surfaced through return values rather than panics.
type Parser struct {
	lex  *lexer
	cur  token
	peek token
}

// Parse parses a complete Cypher query.
func Parse(src string) (*ast.Query, error) {
	p := &Parser{lex: newLexer(src)}
	p.cur = p.lex.next()
	p.peek = p.lex.next()

	q := &ast.Query{}
	for p.cur.kind != tokEOF {
		clause, err := p.parseClause()
		if err != nil {
			return nil, err
		}
		q.Clauses = append(q.Clauses, clause)
	}
	if len(q.Clauses) == 0 {
		return nil, p.errf("empty query")
	}
	return q, nil
}

func (p *Parser) errf(format string, args ...interface{}) error {
	return compileerr.ErrParse.New(p.cur.pos.Offset, fmt.Sprintf(format, args...))
}

func (p *Parser) advance() {
	p.cur = p.peek
	p.peek = p.lex.next()
}

func (p *Parser) isKeyword(kw string) bool {
	return p.cur.kind == tokKeyword && p.cur.text == kw
}

func (p *Parser) expectKeyword(kw string) error {
	if !p.isKeyword(kw) {
		return p.errf("expected %s, got %q", kw, p.cur.text)
	}
	p.advance()
	return nil
}

func (p *Parser) isPunct(s string) bool {
	switch p.cur.kind {
	case tokPunct, tokArrowOut, tokArrowIn, tokDash:
		return p.cur.text == s
	default:
		return false
	}
}

func (p *Parser) expectPunct(s string) error {
	if !p.isPunct(s) {
		return p.errf("expected %q, got %q", s, p.cur.text)
	}
	p.advance()
	return nil
}

func (p *Parser) astPos() ast.Position {
	return ast.Position{Offset: p.cur.pos.Offset, Line: p.cur.pos.Line, Column: p.cur.pos.Column}
}

func (p *Parser) parseClause() (ast.Clause, error) {
	switch {
	case p.isKeyword("MATCH"):
		return p.parseMatch(false)
	case p.isKeyword("OPTIONAL"):
		p.advance()
		if err := p.expectKeyword("MATCH"); err != nil {
			return nil, err
		}
		return p.parseMatchBody(true)
	case p.isKeyword("WITH"):
		return p.parseWith()
	case p.isKeyword("RETURN"):
		return p.parseReturn()
	case p.isKeyword("UNWIND"):
		return p.parseUnwind()
	default:
		return nil, p.errf("unexpected token %q", p.cur.text)
	}
}

func (p *Parser) parseMatch(optional bool) (ast.Clause, error) {
	if err := p.expectKeyword("MATCH"); err != nil {
		return nil, err
	}
	return p.parseMatchBody(optional)
}

func (p *Parser) parseMatchBody(optional bool) (ast.Clause, error) {
	pos := p.astPos()
	patterns, err := p.parsePatternList()
	if err != nil {
		return nil, err
	}
	mc := &ast.MatchClause{Optional: optional, Patterns: patterns, Pos: pos}
	if p.isKeyword("WHERE") {
		p.advance()
		where, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		mc.Where = where
	}
	return mc, nil
}

func (p *Parser) parsePatternList() ([]ast.Pattern, error) {
	var patterns []ast.Pattern
	for {
		pat, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, pat)
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	return patterns, nil
}

// parsePattern parses `[name =] (node) [-[rel]-> (node)]...`, also accepting
// the whole chain wrapped in `shortestPath(...)`/`allShortestPaths(...)`
// (spec.md §4.1).
func (p *Parser) parsePattern() (ast.Pattern, error) {
	var pat ast.Pattern
	if p.cur.kind == tokIdent && p.peek.kind == tokPunct && p.peek.text == "=" {
		pat.PathVariable = p.cur.text
		p.advance()
		p.advance()
	}

	wrapped := false
	if p.cur.kind == tokIdent && (p.cur.text == "shortestPath" || p.cur.text == "allShortestPaths") &&
		p.peek.kind == tokPunct && p.peek.text == "(" {
		if p.cur.text == "shortestPath" {
			pat.Shortest = ast.Shortest
		} else {
			pat.Shortest = ast.AllShortest
		}
		p.advance()
		p.advance()
		wrapped = true
	}

	n, err := p.parseNodePattern()
	if err != nil {
		return pat, err
	}
	pat.Nodes = append(pat.Nodes, n)

	for p.isPunct("-") || p.cur.kind == tokArrowIn {
		rel, err := p.parseRelPattern()
		if err != nil {
			return pat, err
		}
		pat.Rels = append(pat.Rels, rel)
		n, err := p.parseNodePattern()
		if err != nil {
			return pat, err
		}
		pat.Nodes = append(pat.Nodes, n)
	}

	if wrapped {
		if err := p.expectPunct(")"); err != nil {
			return pat, err
		}
	}
	return pat, nil
}

func (p *Parser) parseNodePattern() (*ast.NodePattern, error) {
	pos := p.astPos()
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	n := &ast.NodePattern{Pos: pos}
	if p.cur.kind == tokParam {
		return nil, p.errf("parameter not allowed in variable-name position")
	}
	if p.cur.kind == tokIdent {
		n.Name = p.cur.text
		p.advance()
	}
	if p.isPunct(":") {
		labels, err := p.parseLabelList()
		if err != nil {
			return nil, err
		}
		n.Labels = labels
	}
	if p.isPunct("{") {
		props, err := p.parseInlineProps()
		if err != nil {
			return nil, err
		}
		n.InlineProps = props
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return n, nil
}

// parseLabelList parses `:L1|L2` or Neo4j-style `:L1:L2`, both collapsing to
// a single []string — multi-label syntax is first-class per spec.md §3.
func (p *Parser) parseLabelList() ([]string, error) {
	if err := p.expectPunct(":"); err != nil {
		return nil, err
	}
	var labels []string
	for {
		if p.cur.kind == tokParam {
			return nil, p.errf("parameter not allowed in label position")
		}
		if p.cur.kind != tokIdent && p.cur.kind != tokKeyword {
			return nil, p.errf("expected label, got %q", p.cur.text)
		}
		labels = append(labels, p.cur.text)
		p.advance()
		if p.isPunct("|") {
			p.advance()
			continue
		}
		if p.isPunct(":") {
			p.advance()
			continue
		}
		break
	}
	return labels, nil
}

func (p *Parser) parseInlineProps() (map[string]ast.Expression, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	props := map[string]ast.Expression{}
	for !p.isPunct("}") {
		if p.cur.kind == tokParam {
			return nil, p.errf("parameter not allowed in property-key position")
		}
		if p.cur.kind != tokIdent {
			return nil, p.errf("expected property key, got %q", p.cur.text)
		}
		key := p.cur.text
		p.advance()
		if err := p.expectPunct(":"); err != nil {
			return nil, err
		}
		val, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		props[key] = val
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return props, nil
}

func (p *Parser) parseRelPattern() (*ast.RelationshipPattern, error) {
	pos := p.astPos()
	rel := &ast.RelationshipPattern{Pos: pos, PathMode: ast.Trail}

	leftIn := false
	if p.cur.kind == tokArrowIn {
		leftIn = true
		p.advance()
	} else {
		if err := p.expectPunct("-"); err != nil {
			return nil, err
		}
	}

	hasBracket := p.isPunct("[")
	if hasBracket {
		p.advance()
		if p.cur.kind == tokParam {
			return nil, p.errf("parameter not allowed in variable-name position")
		}
		if p.cur.kind == tokIdent {
			rel.Name = p.cur.text
			p.advance()
		}
		if p.isPunct(":") {
			types, err := p.parseRelTypeList()
			if err != nil {
				return nil, err
			}
			rel.Types = types
		}
		if p.isPunct("*") {
			vl, err := p.parseVarLength()
			if err != nil {
				return nil, err
			}
			rel.VarLength = vl
		}
		if p.isPunct("{") {
			props, err := p.parseInlineProps()
			if err != nil {
				return nil, err
			}
			rel.InlineProps = props
		}
		if err := p.expectPunct("]"); err != nil {
			return nil, err
		}
	}

	rightOut := false
	switch {
	case p.cur.kind == tokArrowOut:
		rightOut = true
		p.advance()
	case p.isPunct("-"):
		p.advance()
	default:
		return nil, p.errf("unterminated relationship pattern")
	}

	switch {
	case leftIn && !rightOut:
		rel.Direction = ast.In
	case !leftIn && rightOut:
		rel.Direction = ast.Out
	default:
		rel.Direction = ast.Either
	}
	return rel, nil
}

func (p *Parser) parseRelTypeList() ([]string, error) {
	if err := p.expectPunct(":"); err != nil {
		return nil, err
	}
	var types []string
	for {
		if p.cur.kind != tokIdent && p.cur.kind != tokKeyword {
			return nil, p.errf("expected relationship type, got %q", p.cur.text)
		}
		types = append(types, p.cur.text)
		p.advance()
		if p.isPunct("|") {
			p.advance()
			continue
		}
		break
	}
	return types, nil
}

// parseVarLength parses `*`, `*n`, `*n..`, `*..m`, `*n..m`, `*0..` (the
// zero-hop form is accepted with a warning recorded by the planbuilder,
// not here — the parser only needs to recognize valid shapes).
func (p *Parser) parseVarLength() (*ast.VarLength, error) {
	if err := p.expectPunct("*"); err != nil {
		return nil, err
	}
	vl := &ast.VarLength{}
	if p.cur.kind == tokInt {
		n, _ := strconv.Atoi(p.cur.text)
		vl.Min = &n
		p.advance()
	}
	if p.isPunct(".") && p.peek.kind == tokPunct && p.peek.text == "." {
		// ".." lexes as two single-"." punctuation tokens.
		p.advance()
		p.advance()
		if p.cur.kind == tokInt {
			n, _ := strconv.Atoi(p.cur.text)
			vl.Max = &n
			p.advance()
		}
	} else if vl.Min != nil {
		// `*n` with no range: min == max == n
		vl.Max = vl.Min
	}
	return vl, nil
}

func (p *Parser) parseWith() (ast.Clause, error) {
	pos := p.astPos()
	if err := p.expectKeyword("WITH"); err != nil {
		return nil, err
	}
	wc := &ast.WithClause{Pos: pos}
	if p.isKeyword("DISTINCT") {
		wc.Distinct = true
		p.advance()
	}
	items, err := p.parseProjectionItems()
	if err != nil {
		return nil, err
	}
	wc.Items = items

	if p.isKeyword("WHERE") {
		p.advance()
		where, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		wc.Where = where
	}
	if err := p.parseOrderSkipLimit(&wc.OrderBy, &wc.Skip, &wc.Limit); err != nil {
		return nil, err
	}
	return wc, nil
}

func (p *Parser) parseReturn() (ast.Clause, error) {
	pos := p.astPos()
	if err := p.expectKeyword("RETURN"); err != nil {
		return nil, err
	}
	rc := &ast.ReturnClause{Pos: pos}
	if p.isKeyword("DISTINCT") {
		rc.Distinct = true
		p.advance()
	}
	items, err := p.parseProjectionItems()
	if err != nil {
		return nil, err
	}
	rc.Items = items
	if err := p.parseOrderSkipLimit(&rc.OrderBy, &rc.Skip, &rc.Limit); err != nil {
		return nil, err
	}
	return rc, nil
}

func (p *Parser) parseUnwind() (ast.Clause, error) {
	pos := p.astPos()
	if err := p.expectKeyword("UNWIND"); err != nil {
		return nil, err
	}
	src, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("AS"); err != nil {
		return nil, err
	}
	if p.cur.kind == tokParam {
		return nil, p.errf("parameter not allowed in variable-name position")
	}
	if p.cur.kind != tokIdent {
		return nil, p.errf("expected alias after AS, got %q", p.cur.text)
	}
	alias := p.cur.text
	p.advance()
	return &ast.UnwindClause{Source: src, Alias: alias, Pos: pos}, nil
}

func (p *Parser) parseProjectionItems() ([]ast.ProjectionItem, error) {
	var items []ast.ProjectionItem
	for {
		if p.isPunct("*") {
			p.advance()
			items = append(items, ast.ProjectionItem{Expr: &ast.VariableRef{Name: "*"}})
		} else {
			expr, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			item := ast.ProjectionItem{Expr: expr}
			if p.isKeyword("AS") {
				p.advance()
				if p.cur.kind != tokIdent {
					return nil, p.errf("expected alias after AS, got %q", p.cur.text)
				}
				item.Alias = p.cur.text
				p.advance()
			}
			items = append(items, item)
		}
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	return items, nil
}

func (p *Parser) parseOrderSkipLimit(orderBy *[]ast.OrderItem, skip, limit *ast.Expression) error {
	if p.isKeyword("ORDER") {
		p.advance()
		if err := p.expectKeyword("BY"); err != nil {
			return err
		}
		for {
			expr, err := p.parseExpression()
			if err != nil {
				return err
			}
			item := ast.OrderItem{Expr: expr}
			if p.isKeyword("DESC") {
				item.Descending = true
				p.advance()
			} else if p.isKeyword("ASC") {
				p.advance()
			}
			*orderBy = append(*orderBy, item)
			if p.isPunct(",") {
				p.advance()
				continue
			}
			break
		}
	}
	if p.isKeyword("SKIP") {
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return err
		}
		*skip = expr
	}
	if p.isKeyword("LIMIT") {
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return err
		}
		*limit = expr
	}
	return nil
}
