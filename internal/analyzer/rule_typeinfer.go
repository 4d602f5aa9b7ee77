package analyzer

import (
	"sort"

	"github.com/clickgraph/cyphersql/internal/cypher/ast"
	"github.com/clickgraph/cyphersql/internal/plan"
)

// inferEndpointTypes is pass (d): for a relationship whose left or right
// endpoint carries no explicit label, narrows (and backfills) that
// endpoint's Labels from the from_label/to_label union of every
// EdgeSchema planbuilder's edge-type resolution matched for this
// GraphRel (spec.md §4.3(d) "type inference & multi-label propagation").
// A single inferred label also resolves the endpoint's physical table
// immediately, the same way pass (a) does for an explicitly labeled node.
func inferEndpointTypes(a *Analyzer, n plan.Node, ctx *plan.Context) (plan.Node, error) {
	a.Log("inferring unlabeled endpoint types")
	return plan.TransformUp(n, func(node plan.Node) (plan.Node, error) {
		rel, ok := node.(*plan.GraphRel)
		if !ok || len(rel.Candidates) == 0 {
			return node, nil
		}
		leftSet, rightSet := map[string]bool{}, map[string]bool{}
		for _, e := range rel.Candidates {
			if rel.Direction == ast.In {
				leftSet[e.ToLabel] = true
				rightSet[e.FromLabel] = true
			} else {
				leftSet[e.FromLabel] = true
				rightSet[e.ToLabel] = true
			}
		}
		newLeft := a.inferLabelsIfUnset(ctx, rel.Left, leftSet)
		newRight := a.inferLabelsIfUnset(ctx, rel.Right, rightSet)
		if newLeft == rel.Left && newRight == rel.Right {
			return node, nil
		}
		return rel.WithChildren([]plan.Node{newLeft, viewScanNode(rel.Center), newRight}), nil
	})
}

func (a *Analyzer) inferLabelsIfUnset(ctx *plan.Context, n plan.Node, set map[string]bool) plan.Node {
	gn, ok := n.(*plan.GraphNode)
	if !ok || len(gn.Labels) > 0 || len(set) == 0 {
		return n
	}
	labels := make([]string, 0, len(set))
	for l := range set {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	cp := *gn
	cp.Labels = labels
	if tc, ok := ctx.Tables[gn.Alias]; ok {
		tc.Labels = labels
	}
	if len(labels) == 1 {
		if ns, err := a.schema.Node(labels[0]); err == nil {
			if a.schema.IsVirtual(ns) {
				cp.IsEmbeddedInEdge = true
			} else {
				cp.Source = &plan.ViewScan{SourceTable: ns.Table, SourceDatabase: ns.Database, Alias: gn.Alias}
			}
		}
	} else if a.warnings != nil {
		a.warnings.Add("endpoint %q has ambiguous inferred labels %v from its relationship types; physical table left unresolved", gn.Alias, labels)
	}
	return &cp
}
