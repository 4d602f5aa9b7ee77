package analyzer

import (
	"strings"

	"github.com/clickgraph/cyphersql/internal/cypher/ast"
)

// splitConjuncts flattens a top-level AND chain into its individual
// conjuncts, so filter tagging (§4.3(b)) can place each one at its own
// innermost satisfying scope instead of treating `WHERE a AND b` as one
// all-or-nothing unit.
func splitConjuncts(e ast.Expression) []ast.Expression {
	if b, ok := e.(*ast.BinaryOp); ok && strings.EqualFold(b.Op, "AND") {
		return append(splitConjuncts(b.Left), splitConjuncts(b.Right)...)
	}
	return []ast.Expression{e}
}

// collectAliases walks e and records every alias it references, via either
// a bare variable reference or a `.property` access.
func collectAliases(e ast.Expression, out map[string]bool) {
	switch v := e.(type) {
	case nil:
		return
	case *ast.VariableRef:
		out[v.Name] = true
	case *ast.Property:
		out[v.Alias] = true
	case *ast.BinaryOp:
		collectAliases(v.Left, out)
		collectAliases(v.Right, out)
	case *ast.UnaryOp:
		collectAliases(v.Operand, out)
	case *ast.InList:
		collectAliases(v.Target, out)
		collectAliases(v.List, out)
	case *ast.FnCall:
		for _, arg := range v.Args {
			collectAliases(arg, out)
		}
	case *ast.Aggregate:
		collectAliases(v.Arg, out)
	case *ast.CaseExpr:
		collectAliases(v.Operand, out)
		for _, w := range v.Whens {
			collectAliases(w.When, out)
			collectAliases(w.Then, out)
		}
		collectAliases(v.Else, out)
	case *ast.PatternCount:
		collectPatternAliases(v.Pattern, out)
	case *ast.PathPattern:
		collectPatternAliases(v.Pattern, out)
	}
}

func collectPatternAliases(p ast.Pattern, out map[string]bool) {
	for _, n := range p.Nodes {
		if n.Name != "" {
			out[n.Name] = true
		}
	}
	for _, r := range p.Rels {
		if r.Name != "" {
			out[r.Name] = true
		}
	}
}
