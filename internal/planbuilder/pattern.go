package planbuilder

import (
	"github.com/clickgraph/cyphersql/internal/cypher/ast"
	"github.com/clickgraph/cyphersql/internal/plan"
	"github.com/clickgraph/cyphersql/internal/schema"
)

// buildPattern lowers one comma-separated pattern (a node-rel-node... chain,
// optionally path-variable-bound) into a left-deep plan.Node tree: each
// relationship becomes a plan.GraphRel whose Left is the already-built
// prefix (a plan.GraphNode for the first hop, a nested plan.GraphRel for
// later ones) and whose Right is the next plan.GraphNode.
func (b *PlanBuilder) buildPattern(pat *ast.Pattern) plan.Node {
	if len(pat.Nodes) == 0 {
		b.handleErr(errf("pattern has no nodes"))
		return nil
	}

	prefix := b.buildNode(pat.Nodes[0])
	if b.err != nil {
		return nil
	}

	var relAliases []string
	for i, rel := range pat.Rels {
		rightNode := pat.Nodes[i+1]
		center, err := b.resolveAndBindRel(pat.Nodes[i], rel, rightNode)
		if err != nil {
			b.handleErr(err)
			return nil
		}
		right := b.buildNode(rightNode)
		if b.err != nil {
			return nil
		}
		prefix = center.graphRel(prefix, right)
		if rel.Name != "" {
			relAliases = append(relAliases, rel.Name)
		}
	}

	if pat.Shortest != ast.NoShortest {
		if gr, ok := prefix.(*plan.GraphRel); ok {
			gr.ShortestMode = pat.Shortest
		}
	}

	if pat.PathVariable != "" {
		nodeAliases := make([]string, 0, len(pat.Nodes))
		for _, n := range pat.Nodes {
			if n.Name != "" {
				nodeAliases = append(nodeAliases, n.Name)
			}
		}
		b.ctx.BindAlias(pat.PathVariable, &plan.TableCtx{Alias: pat.PathVariable})
	}

	return prefix
}

// buildNode binds (or re-binds) one node alias and returns its plan.GraphNode
// leaf. A repeated alias across patterns/clauses is rebound to the same
// Labels; the graph-join-inference analyzer pass matches appearances by
// alias, not by object identity.
func (b *PlanBuilder) buildNode(np *ast.NodePattern) plan.Node {
	labels := np.Labels
	embedded := false
	if len(labels) == 1 {
		if ns, err := b.schema.Node(labels[0]); err == nil {
			embedded = b.schema.IsVirtual(ns)
		}
	}
	if np.Name != "" {
		b.ctx.BindAlias(np.Name, &plan.TableCtx{Alias: np.Name, Labels: labels})
	}
	return &plan.GraphNode{
		Alias:            np.Name,
		Labels:           labels,
		IsEmbeddedInEdge: embedded,
	}
}

// relCenter carries the outcome of edge-type resolution for one
// relationship pattern: either a single resolved EdgeSchema (the common
// case, rendered as a plain ViewScan) or a Candidates list spanning several
// matches (multi-type/multi-label/variable-length), left for
// internal/render/vlp to enumerate directly against the schema.
type relCenter struct {
	alias      string
	types      []string
	direction  ast.Direction
	varLength  *ast.VarLength
	pathMode   ast.PathMode
	pathVar    string
	candidates []*schema.EdgeSchema
	view       *plan.ViewScan
}

func (rc *relCenter) graphRel(left, right plan.Node) *plan.GraphRel {
	return &plan.GraphRel{
		Alias:     rc.alias,
		Types:     rc.types,
		Direction: rc.direction,
		VarLength: rc.varLength,
		PathMode:  rc.pathMode,
		Left:      left,
		Center:    rc.view,
		Right:     right,
		Candidates: rc.candidates,
	}
}

// resolveAndBindRel implements the spec.md §4.2 edge-type resolution order
// for one relationship pattern: for every (type, from-label, to-label)
// combination implied by the pattern (expanding an empty type list or an
// unlabeled endpoint to every declared candidate), resolve via
// GraphSchema.ResolveEdgeType. Zero matches across every combination is
// UnknownRelationshipType; exactly one fixed-length match gets a concrete
// ViewScan built eagerly; anything broader (multiple matches, or any
// variable-length pattern) is left as a Candidates list.
func (b *PlanBuilder) resolveAndBindRel(leftNode *ast.NodePattern, rel *ast.RelationshipPattern, rightNode *ast.NodePattern) (*relCenter, error) {
	types := rel.Types
	if len(types) == 0 {
		for t := range b.schema.EdgesByType {
			types = append(types, t)
		}
	}

	var matches []*schema.EdgeSchema
	seen := map[*schema.EdgeSchema]bool{}
	tryOrder := func(fromLabels, toLabels []string) {
		for _, t := range types {
			for _, fl := range orDeclaredLabels(b.schema, fromLabels) {
				for _, tl := range orDeclaredLabels(b.schema, toLabels) {
					e, err := b.schema.ResolveEdgeType(t, fl, tl)
					if err == nil && !seen[e] {
						seen[e] = true
						matches = append(matches, e)
					}
				}
			}
		}
	}

	switch rel.Direction {
	case ast.In:
		tryOrder(rightNode.Labels, leftNode.Labels)
	case ast.Either:
		tryOrder(leftNode.Labels, rightNode.Labels)
		tryOrder(rightNode.Labels, leftNode.Labels)
	default: // ast.Out
		tryOrder(leftNode.Labels, rightNode.Labels)
	}

	if len(matches) == 0 {
		fl, tl := labelOrAny(leftNode.Labels), labelOrAny(rightNode.Labels)
		if rel.Direction == ast.In {
			fl, tl = labelOrAny(rightNode.Labels), labelOrAny(leftNode.Labels)
		}
		typeOrAny := "*"
		if len(rel.Types) > 0 {
			typeOrAny = rel.Types[0]
		}
		return nil, errUnknownRelationshipType(typeOrAny, fl, tl)
	}

	if rel.VarLength != nil && rel.VarLength.Min != nil && *rel.VarLength.Min == 0 && b.warnings != nil {
		b.warnings.Add("relationship %q: zero-hop variable-length pattern (*0..) matches a node against itself", labelOrAny(rel.Types))
	}

	rc := &relCenter{
		alias:      rel.Name,
		types:      rel.Types,
		direction:  rel.Direction,
		varLength:  rel.VarLength,
		pathMode:   rel.PathMode,
		candidates: matches,
	}
	tc := &plan.TableCtx{Alias: rel.Name, Labels: rel.Types, IsEdge: true}
	if len(matches) == 1 && rel.VarLength == nil {
		rc.view = viewScanFor(matches[0], rel.Name)
		tc.EdgeSchema = matches[0]
	}
	if rel.Name != "" {
		b.ctx.BindAlias(rel.Name, tc)
	}
	return rc, nil
}

func orDeclaredLabels(gs *schema.GraphSchema, labels []string) []string {
	if len(labels) > 0 {
		return labels
	}
	out := make([]string, 0, len(gs.Nodes))
	for l := range gs.Nodes {
		out = append(out, l)
	}
	return out
}

func labelOrAny(labels []string) string {
	if len(labels) == 0 {
		return "*"
	}
	return labels[0]
}

func viewScanFor(es *schema.EdgeSchema, alias string) *plan.ViewScan {
	vs := &plan.ViewScan{
		SourceTable:    es.Table,
		SourceDatabase: es.Database,
		Alias:          alias,
	}
	if es.IsPolymorphic() {
		vs.ViewFilter = implicitFilterExpr(es)
	}
	return vs
}

// implicitFilterExpr builds the AND-chain of equality filters a polymorphic
// edge's expansion carries (spec.md §4.5 "Polymorphic SELECT filters"),
// applied to the edge's own ViewScan so every downstream reference to this
// alias already sees only the rows matching its (type, from_label,
// to_label) triple.
func implicitFilterExpr(es *schema.EdgeSchema) plan.Expr {
	var cur plan.Expr
	for _, f := range es.PolySource.Filters {
		cond := &plan.BinaryExpr{
			Op:    "=",
			Left:  &plan.ColumnExpr{Column: f.Column},
			Right: &plan.LiteralExpr{Value: f.Value},
		}
		if cur == nil {
			cur = cond
		} else {
			cur = &plan.BinaryExpr{Op: "AND", Left: cur, Right: cond}
		}
	}
	return cur
}
