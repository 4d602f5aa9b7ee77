package analyzer

import "github.com/clickgraph/cyphersql/internal/plan"

// resolveSchemaLabels is pass (a): validates every GraphNode's explicit
// label(s) against the bound schema and resolves its physical table
// (spec.md §4.3(a)). A node declaring more than one label resolves its
// table from the first one only, with a warning; no per-label
// UNION ALL scan is rendered. Unlabeled
// (anonymous) nodes are left untouched here; pass (d) backfills them from
// the relationship types that bind them.
func resolveSchemaLabels(a *Analyzer, n plan.Node, ctx *plan.Context) (plan.Node, error) {
	a.Log("resolving node labels against schema %q", a.schema.Name)
	return plan.TransformUp(n, func(node plan.Node) (plan.Node, error) {
		gn, ok := node.(*plan.GraphNode)
		if !ok || gn.IsEmbeddedInEdge || len(gn.Labels) == 0 {
			return node, nil
		}
		label := gn.Labels[0]
		if len(gn.Labels) > 1 && a.warnings != nil {
			a.warnings.Add("node %q declares multiple labels %v; resolving physical table from %q only", gn.Alias, gn.Labels, label)
		}
		ns, err := a.schema.Node(label)
		if err != nil {
			return nil, err
		}
		cp := *gn
		if a.schema.IsVirtual(ns) {
			cp.IsEmbeddedInEdge = true
		} else {
			cp.Source = &plan.ViewScan{SourceTable: ns.Table, SourceDatabase: ns.Database, Alias: gn.Alias}
		}
		if tc, ok := ctx.Tables[gn.Alias]; ok {
			tc.Labels = gn.Labels
		}
		return &cp, nil
	})
}
