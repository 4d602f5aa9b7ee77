package analyzer

import "github.com/clickgraph/cyphersql/internal/plan"

// resolveProjectedColumns is pass (c): fills ProjectedColumns for every
// GraphNode — from its own NodeSchema.Properties() for an ordinary node, or
// from the owning GraphRel's EdgeSchema.FromNodeProperties/ToNodeProperties
// for a denormalized/virtual endpoint. PlanContext.Tables[alias] gets the
// same list, so the render builder's expand_alias helper (spec.md §4.5) has
// a single place to look up "every property this alias can serve" instead
// of re-deriving it from the schema at render time.
func resolveProjectedColumns(a *Analyzer, n plan.Node, ctx *plan.Context) (plan.Node, error) {
	a.Log("resolving projected columns")
	return plan.TransformUp(n, func(node plan.Node) (plan.Node, error) {
		switch v := node.(type) {
		case *plan.GraphNode:
			cols := a.ordinaryColumns(v)
			if cols == nil {
				return node, nil
			}
			cp := *v
			cp.ProjectedColumns = cols
			if tc, ok := ctx.Tables[v.Alias]; ok {
				tc.AvailableColumns = cols
			}
			return &cp, nil
		case *plan.GraphRel:
			es := primaryCandidate(v)
			if es == nil {
				return node, nil
			}
			newLeft := fillEmbeddedColumns(ctx, v.Left, es.FromNodeProperties)
			newRight := fillEmbeddedColumns(ctx, v.Right, es.ToNodeProperties)
			if newLeft == v.Left && newRight == v.Right {
				return node, nil
			}
			return v.WithChildren([]plan.Node{newLeft, viewScanNode(v.Center), newRight}), nil
		}
		return node, nil
	})
}

func (a *Analyzer) ordinaryColumns(gn *plan.GraphNode) []plan.ColumnRef {
	if gn.IsEmbeddedInEdge || len(gn.Labels) != 1 {
		return nil
	}
	ns, err := a.schema.Node(gn.Labels[0])
	if err != nil {
		return nil
	}
	props := ns.Properties()
	out := make([]plan.ColumnRef, 0, len(props))
	for _, pc := range props {
		out = append(out, plan.ColumnRef{Property: pc.Property, Column: pc.Column})
	}
	return out
}

func fillEmbeddedColumns(ctx *plan.Context, n plan.Node, props map[string]string) plan.Node {
	gn, ok := n.(*plan.GraphNode)
	if !ok || !gn.IsEmbeddedInEdge || len(props) == 0 || len(gn.ProjectedColumns) > 0 {
		return n
	}
	cols := make([]plan.ColumnRef, 0, len(props))
	for prop, col := range props {
		cols = append(cols, plan.ColumnRef{Property: prop, Column: col})
	}
	cp := *gn
	cp.ProjectedColumns = cols
	if tc, ok := ctx.Tables[gn.Alias]; ok {
		tc.AvailableColumns = cols
	}
	return &cp
}
