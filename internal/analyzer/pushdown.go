package analyzer

import "github.com/clickgraph/cyphersql/internal/plan"

// PushdownFilters is pass (g). It runs once per compilation, inside the
// analyzer pipeline; internal/optimizer does not run it a second time. For every
// tagged filter recorded during filter tagging (pass (b)), it walks the
// tree bottom-up and re-attaches the filter as a Filter node wrapping the
// shallowest (deepest-in-the-tree) node whose bound aliases already
// satisfy the filter's own alias set — i.e. as close to its data as
// TransformUp's post-order walk can place it without any node needing to
// be split.
func PushdownFilters(n plan.Node, ctx *plan.Context) (plan.Node, error) {
	attached := make([]bool, len(ctx.TaggedFilters))
	return plan.TransformUp(n, func(node plan.Node) (plan.Node, error) {
		if _, isFilter := node.(*plan.Filter); isFilter {
			return node, nil
		}
		avail := aliasesIn(node)
		if len(avail) == 0 {
			return node, nil
		}
		cur := node
		for i, tf := range ctx.TaggedFilters {
			if attached[i] {
				continue
			}
			if !containsAll(avail, tf.Aliases) {
				continue
			}
			attached[i] = true
			cur = &plan.Filter{Predicate: tf.Predicate, Input: cur}
		}
		return cur, nil
	})
}
