package analyzer

import (
	"github.com/clickgraph/cyphersql/internal/cypher/ast"
	"github.com/clickgraph/cyphersql/internal/plan"
)

// analyzeRequirements is pass (f): walks every projection/filter/order-by
// expression in the tree and records, per alias, which properties are
// actually demanded downstream (spec.md §4.3(f)). The dead-property
// elimination optimizer pass (internal/optimizer) uses this to drop
// ProjectedColumns entries nothing ever reads. A bare alias reference
// (`RETURN n`, not `RETURN n.name`) marks that alias WILDCARD: the render
// builder's expand_alias helper expands it to every available column.
func analyzeRequirements(a *Analyzer, n plan.Node, ctx *plan.Context) (plan.Node, error) {
	a.Log("analyzing property requirements")
	// unwoundFrom maps a WITH-projected alias (e.g. "friends") to the element
	// alias an UNWIND later binds it to (e.g. "friend"). Since walk visits
	// root-to-leaf, an UNWIND is always seen before the WithClause whose item
	// it unwinds, so this map is populated in time for propagateCollect below.
	unwoundFrom := map[string]string{}
	var walk func(plan.Node)
	walk = func(x plan.Node) {
		if x == nil {
			return
		}
		switch v := x.(type) {
		case *plan.Projection:
			for _, it := range v.Items {
				requireFromItem(ctx, it)
			}
		case *plan.WithClause:
			for _, it := range v.Items {
				requireFromItem(ctx, it)
				propagateCollectRequirement(ctx, it, unwoundFrom)
			}
		case *plan.Filter:
			requireFromExpr(ctx, v.Predicate)
		case *plan.OrderBy:
			for _, it := range v.Items {
				requireFromExpr(ctx, it.Expr)
			}
		case *plan.Unwind:
			requireFromExpr(ctx, v.SourceExpr)
			if raw, ok := v.SourceExpr.(*plan.RawExpr); ok {
				if vr, ok := raw.E.(*ast.VariableRef); ok {
					unwoundFrom[vr.Name] = v.ElementAlias
				}
			}
		}
		for _, c := range x.Children() {
			walk(c)
		}
	}
	walk(n)
	return n, nil
}

// propagateCollectRequirement implements the transitive half of spec.md
// §4.3(f): `WITH ..., collect(x) AS alias` followed somewhere downstream by
// `UNWIND alias AS elem` means every property elem needs is really a property
// x needs, since elem's rows are unpacked straight out of x's own columns.
// Without this, collect(x) would only ever carry whatever x happened to need
// for its own sake, dropping columns the unwound rows actually read.
func propagateCollectRequirement(ctx *plan.Context, it plan.ProjItem, unwoundFrom map[string]string) {
	if it.Alias == "" {
		return
	}
	elem, ok := unwoundFrom[it.Alias]
	if !ok {
		return
	}
	raw, ok := it.Expr.(*plan.RawExpr)
	if !ok {
		return
	}
	agg, ok := raw.E.(*ast.Aggregate)
	if !ok || agg.Kind != ast.AggCollect {
		return
	}
	vr, ok := agg.Arg.(*ast.VariableRef)
	if !ok {
		return
	}
	ctx.MergeRequirements(elem, vr.Name)
}

func requireFromItem(ctx *plan.Context, it plan.ProjItem) {
	requireFromExpr(ctx, it.Expr)
}

func requireFromExpr(ctx *plan.Context, e plan.Expr) {
	raw, ok := e.(*plan.RawExpr)
	if !ok || raw == nil {
		return
	}
	collectPropertyRequirements(ctx, raw.E)
}

func collectPropertyRequirements(ctx *plan.Context, e ast.Expression) {
	switch v := e.(type) {
	case nil:
		return
	case *ast.Property:
		ctx.RequireProperty(v.Alias, v.Property)
	case *ast.VariableRef:
		ctx.RequireWildcard(v.Name)
	case *ast.BinaryOp:
		collectPropertyRequirements(ctx, v.Left)
		collectPropertyRequirements(ctx, v.Right)
	case *ast.UnaryOp:
		collectPropertyRequirements(ctx, v.Operand)
	case *ast.InList:
		collectPropertyRequirements(ctx, v.Target)
		collectPropertyRequirements(ctx, v.List)
	case *ast.FnCall:
		for _, arg := range v.Args {
			collectPropertyRequirements(ctx, arg)
		}
	case *ast.Aggregate:
		collectPropertyRequirements(ctx, v.Arg)
	case *ast.CaseExpr:
		collectPropertyRequirements(ctx, v.Operand)
		for _, w := range v.Whens {
			collectPropertyRequirements(ctx, w.When)
			collectPropertyRequirements(ctx, w.Then)
		}
		collectPropertyRequirements(ctx, v.Else)
	}
}
