package render

import (
	"fmt"

	"github.com/clickgraph/cyphersql/internal/compileerr"
	"github.com/clickgraph/cyphersql/internal/plan"
	"github.com/clickgraph/cyphersql/internal/schema"
)

// Column is one rendered SELECT-list entry.
type Column struct {
	SQL        string
	OutputName string
}

// ExpandAlias is the single helper spec.md §4.5 mandates for turning a bare
// alias reference (RETURN friend, a projected-out WITH item with no
// explicit property list) into concrete columns: (1) look up alias's
// available (property, column) pairs plus its identifier/discriminator
// column(s) (so id()/type() keep resolving past a hoisted WITH boundary,
// not just declared properties), (2) identify which of those back its
// identifier so they're never aggregate-wrapped, (3) emit every other
// column wrapped in anyLast(...) when needsAgg is set (the projection also
// contains an aggregate, so ClickHouse requires every non-grouped column to
// be wrapped), (4) name each output column "<targetName>_<property>".
// targetName differs from alias for a renaming WITH item (`WITH n AS p`):
// alias is looked up for its columns, targetName supplies the output name
// the render builder's CTE rewrite will re-bind those columns under. No
// other render code path is allowed to perform this expansion itself.
func ExpandAlias(gs *schema.GraphSchema, ctx *plan.Context, alias, targetName string, needsAgg bool) ([]Column, error) {
	tc, ok := ctx.Tables[alias]
	if !ok {
		return nil, compileerr.ErrPropertyNotFound.New("*", alias)
	}
	idCols := identifierColumns(gs, tc)
	sqlAlias := alias
	if tc.SQLAlias != "" {
		sqlAlias = tc.SQLAlias
	}
	out := make([]Column, 0, len(tc.AvailableColumns)+1)
	seen := map[string]bool{}
	for _, c := range tc.AvailableColumns {
		colSQL := fmt.Sprintf("%s.%s", sqlAlias, c.Column)
		if needsAgg && !idCols[c.Column] {
			colSQL = fmt.Sprintf("anyLast(%s)", colSQL)
		}
		out = append(out, Column{SQL: colSQL, OutputName: targetName + "_" + c.Property})
		seen[c.Column] = true
	}
	for _, phys := range identifierOrDiscriminatorColumns(gs, tc) {
		if seen[phys] {
			continue
		}
		out = append(out, Column{SQL: fmt.Sprintf("%s.%s", sqlAlias, phys), OutputName: targetName + "_" + phys})
	}
	return out, nil
}

// identifierOrDiscriminatorColumns returns the raw physical column(s) that
// back alias's own identity — a node's Identifier columns, or a
// relationship's EdgeID columns plus (for a polymorphic edge) its type
// discriminator column — regardless of whether they also appear in
// AvailableColumns. ExpandAlias always carries these across a WITH
// boundary so id()/type() keep resolving afterward even when the
// identifier/discriminator column isn't itself a declared Cypher property.
func identifierOrDiscriminatorColumns(gs *schema.GraphSchema, tc *plan.TableCtx) []string {
	var out []string
	if tc.IsEdge {
		if tc.EdgeSchema != nil {
			out = append(out, tc.EdgeSchema.EdgeID.Columns...)
			if tc.EdgeSchema.IsPolymorphic() {
				out = append(out, tc.EdgeSchema.PolySource.TypeColumn)
			}
		}
		return out
	}
	if len(tc.Labels) == 1 {
		if ns, err := gs.Node(tc.Labels[0]); err == nil {
			out = append(out, ns.Identifier.Columns...)
		}
	}
	return out
}

// identifierColumns returns the set of physical columns backing alias's own
// identifier, so expand_alias never wraps them in anyLast — GROUP BY always
// groups by the identifier, so those columns are already single-valued per
// group. Edge aliases fall back to no identifier bypass: in practice a
// relationship's own properties are rarely projected through a bare alias
// reference, and wrapping them all in anyLast is still correct, just more
// conservative than strictly necessary.
func identifierColumns(gs *schema.GraphSchema, tc *plan.TableCtx) map[string]bool {
	out := map[string]bool{}
	if tc.IsEdge || len(tc.Labels) != 1 {
		return out
	}
	ns, err := gs.Node(tc.Labels[0])
	if err != nil {
		return out
	}
	for _, c := range ns.Identifier.Columns {
		out[c] = true
	}
	return out
}
