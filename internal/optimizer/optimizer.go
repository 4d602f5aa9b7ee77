// Package optimizer runs the logical-plan rewrites spec.md's component
// table lists separately from the analyzer proper: CTE hoisting and
// dead-property elimination. Filter pushdown is not part of this package:
// analyzer.PushdownFilters runs once, as the analyzer pipeline's pass (g),
// and Optimize does not run it again (see DESIGN.md).
package optimizer

import (
	"github.com/clickgraph/cyphersql/internal/plan"
	"github.com/clickgraph/cyphersql/internal/schema"
)

// Optimize runs every optimizer pass over n/ctx in order: CTE hoisting,
// then dead-property elimination. gs is needed by the latter to keep an
// alias's identifier column pinned even when nothing explicitly required it.
func Optimize(n plan.Node, ctx *plan.Context, gs *schema.GraphSchema) (plan.Node, error) {
	n, err := HoistCTEs(n, ctx)
	if err != nil {
		return nil, err
	}
	return EliminateDeadProperties(n, ctx, gs)
}

// HoistCTEs assigns every WithClause scope boundary a CTE id via
// PlanContext.NextCteID — the logical-plan counterpart of
// generate_cte_id() (spec.md §3/§5): each WITH becomes one named CTE in the
// rendered SQL rather than a nested subquery, so internal/render's
// CteRegistry can reference it by name from anywhere downstream instead of
// re-emitting its body.
func HoistCTEs(n plan.Node, ctx *plan.Context) (plan.Node, error) {
	return plan.TransformUp(n, func(node plan.Node) (plan.Node, error) {
		wc, ok := node.(*plan.WithClause)
		if !ok || wc.CteID != 0 {
			return node, nil
		}
		cp := *wc
		cp.CteID = ctx.NextCteID()
		return &cp, nil
	})
}

// EliminateDeadProperties trims every GraphNode's ProjectedColumns down to
// exactly the properties the requirements analysis (analyzer pass (f))
// recorded as actually needed downstream. An alias with no Requirements
// entry at all is never read again and loses every projected column; an
// alias marked WILDCARD keeps all of them. Columns used only for identifier
// joins or VLP edge-uniqueness are resolved directly off NodeSchema/
// EdgeSchema at render time, not through ProjectedColumns, so trimming here
// never starves a join of the column it needs. An alias that DOES have a
// concrete (non-wildcard) requirement always keeps its identifier column
// alongside whatever was explicitly asked for, even if the identifier isn't
// itself exposed as a Cypher property — expand_alias's aggregated branch
// needs it to group by, and id(alias) needs it to read.
func EliminateDeadProperties(n plan.Node, ctx *plan.Context, gs *schema.GraphSchema) (plan.Node, error) {
	return plan.TransformUp(n, func(node plan.Node) (plan.Node, error) {
		gn, ok := node.(*plan.GraphNode)
		if !ok || len(gn.ProjectedColumns) == 0 {
			return node, nil
		}
		rs, ok := ctx.Requirements[gn.Alias]
		var kept []plan.ColumnRef
		switch {
		case !ok:
			kept = nil
		case rs.Wildcard:
			return node, nil
		default:
			idCols := identifierColumnSet(gs, gn)
			for _, c := range gn.ProjectedColumns {
				if rs.Has(c.Property) || idCols[c.Column] {
					kept = append(kept, c)
				}
			}
		}
		if len(kept) == len(gn.ProjectedColumns) {
			return node, nil
		}
		cp := *gn
		cp.ProjectedColumns = kept
		if tc, ok := ctx.Tables[gn.Alias]; ok {
			tc.AvailableColumns = kept
		}
		return &cp, nil
	})
}

func identifierColumnSet(gs *schema.GraphSchema, gn *plan.GraphNode) map[string]bool {
	out := map[string]bool{}
	if gs == nil || gn.IsEmbeddedInEdge || len(gn.Labels) != 1 {
		return out
	}
	ns, err := gs.Node(gn.Labels[0])
	if err != nil {
		return out
	}
	for _, c := range ns.Identifier.Columns {
		out[c] = true
	}
	return out
}
