package analyzer

import (
	"github.com/clickgraph/cyphersql/internal/plan"
	"github.com/clickgraph/cyphersql/internal/schema"
)

// primaryCandidate returns the one EdgeSchema a fixed-length relationship
// was resolved against, whether or not planbuilder also materialized a
// Center ViewScan for it. A still-ambiguous (multi-candidate) or variable-
// length relationship has no single "primary" schema, so this returns nil
// and leaves embedded-column/type-inference work to render-time handling.
func primaryCandidate(rel *plan.GraphRel) *schema.EdgeSchema {
	if rel.VarLength != nil {
		return nil
	}
	if len(rel.Candidates) == 1 {
		return rel.Candidates[0]
	}
	return nil
}

// aliasesIn collects every bound alias (node, relationship, or raw view
// scan) reachable under n. GraphRel/GraphNode/ViewScan register their own
// alias and, for GraphRel, keep walking into their endpoints; every other
// node kind just delegates to its Children(), so a new plan.Node variant
// never silently drops out of alias bookkeeping.
func aliasesIn(n plan.Node) map[string]bool {
	out := map[string]bool{}
	var walk func(plan.Node)
	walk = func(x plan.Node) {
		if x == nil {
			return
		}
		switch v := x.(type) {
		case *plan.GraphNode:
			if v.Alias != "" {
				out[v.Alias] = true
			}
			return
		case *plan.ViewScan:
			if v.Alias != "" {
				out[v.Alias] = true
			}
			return
		case *plan.GraphRel:
			if v.Alias != "" {
				out[v.Alias] = true
			}
		}
		for _, c := range x.Children() {
			walk(c)
		}
	}
	walk(n)
	return out
}

func containsAll(avail, need map[string]bool) bool {
	for k := range need {
		if !avail[k] {
			return false
		}
	}
	return true
}

func firstLabel(labels []string) string {
	if len(labels) == 0 {
		return ""
	}
	return labels[0]
}

func viewScanNode(v *plan.ViewScan) plan.Node {
	if v == nil {
		return nil
	}
	return v
}
