package analyzer

import (
	"github.com/clickgraph/cyphersql/internal/compileerr"
	"github.com/clickgraph/cyphersql/internal/plan"
)

// tagFilters is pass (b): every Filter node the planner produced directly
// from a WHERE/WITH...WHERE clause is split into its top-level conjuncts,
// each one tagged with the aliases it references and the innermost scope
// in which all of them are visible, and recorded on
// PlanContext.TaggedFilters. The Filter node itself is then dropped from
// the tree — pushdown (pass (g)) re-attaches each tagged conjunct as close
// to its data as possible. A conjunct referencing an alias not visible in
// any enclosing scope is a FilterBindingError (spec.md §7).
func tagFilters(a *Analyzer, n plan.Node, ctx *plan.Context) (plan.Node, error) {
	a.Log("tagging filter predicates")
	return plan.TransformUp(n, func(node plan.Node) (plan.Node, error) {
		f, ok := node.(*plan.Filter)
		if !ok {
			return node, nil
		}
		raw, ok := f.Predicate.(*plan.RawExpr)
		if !ok {
			// Already resolved/re-tagged by a previous run over this subtree.
			return node, nil
		}
		for _, conjunct := range splitConjuncts(raw.E) {
			aliases := map[string]bool{}
			collectAliases(conjunct, aliases)
			scopeID := ctx.InnermostScopeFor(aliases)
			if scopeID == -1 {
				var any string
				for al := range aliases {
					any = al
					break
				}
				return nil, compileerr.ErrFilterBinding.New(any)
			}
			ctx.TaggedFilters = append(ctx.TaggedFilters, &plan.TaggedFilter{
				Predicate: &plan.RawExpr{E: conjunct},
				Aliases:   aliases,
				ScopeID:   scopeID,
			})
		}
		return f.Input, nil
	})
}
