package analyzer

import (
	"sort"

	"github.com/clickgraph/cyphersql/internal/plan"
)

// inferGraphJoins is pass (e): the planner emits a cross-join placeholder
// (plan.Join with On == nil) wherever a MATCH clause holds more than one
// comma-separated pattern, or an OPTIONAL MATCH follows a bound pattern.
// This pass fills in the real join condition: for every node alias bound
// on both sides, equate its identifier column(s) across the two branches
// (spec.md §4.3(e) "graph-join inference"). A placeholder with no shared
// alias is left as a genuine cross join, with a warning — the query really
// did ask for a Cartesian product.
//
// The condition is expressed purely in terms of the Cypher-level alias and
// its identifier columns, so both sides of each equality name the same
// column. Render does not read it: internal/render's collectFactors binds a
// shared alias to a single FROM/JOIN factor and never consults Join.On.
func inferGraphJoins(a *Analyzer, n plan.Node, ctx *plan.Context) (plan.Node, error) {
	a.Log("inferring graph joins")
	return plan.TransformUp(n, func(node plan.Node) (plan.Node, error) {
		j, ok := node.(*plan.Join)
		if !ok || j.On != nil {
			return node, nil
		}
		leftAliases := aliasesIn(j.Left)
		rightAliases := aliasesIn(j.Right)
		var shared []string
		for al := range leftAliases {
			if rightAliases[al] {
				shared = append(shared, al)
			}
		}
		sort.Strings(shared)
		if len(shared) == 0 {
			if a.warnings != nil {
				a.warnings.Add("pattern join has no alias shared with the preceding pattern; emitting a cross join")
			}
			return node, nil
		}
		var on plan.Expr
		for _, al := range shared {
			for _, col := range a.idColumnsFor(ctx, al) {
				cond := plan.Expr(&plan.BinaryExpr{
					Op:    "=",
					Left:  &plan.ColumnExpr{Alias: al, Column: col},
					Right: &plan.ColumnExpr{Alias: al, Column: col},
				})
				if on == nil {
					on = cond
				} else {
					on = &plan.BinaryExpr{Op: "AND", Left: on, Right: cond}
				}
			}
		}
		cp := *j
		cp.On = on
		return &cp, nil
	})
}

func (a *Analyzer) idColumnsFor(ctx *plan.Context, alias string) []string {
	tc, ok := ctx.Tables[alias]
	if !ok || tc.IsEdge || len(tc.Labels) != 1 {
		return nil
	}
	ns, err := a.schema.Node(tc.Labels[0])
	if err != nil {
		return nil
	}
	return ns.Identifier.Columns
}
