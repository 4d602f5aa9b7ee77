// Package planbuilder lowers a parsed Cypher ast.Query, against one bound
// schema.GraphSchema, into an initial plan.Node tree plus its side-car
// plan.Context. It performs only the binding spec.md §4.2 assigns to the
// planner itself (edge-type resolution, scope/alias bookkeeping); every
// later rewrite — label
// resolution for unlabeled endpoints, filter tagging, projected-column
// resolution, join emission, filter pushdown — belongs to
// internal/analyzer and internal/optimizer.
//
// The scope-threading style (inScope/outScope, one *scope per clause,
// PlanBuilder.handleErr collecting the first error) follows the teacher
// lineage's planbuilder (see
// other_examples/…-makiuchi-d-go-mysql-server…-planbuilder-from.go.go).
package planbuilder

import (
	"github.com/clickgraph/cyphersql/internal/compileerr"
	"github.com/clickgraph/cyphersql/internal/cypher/ast"
	"github.com/clickgraph/cyphersql/internal/plan"
	"github.com/clickgraph/cyphersql/internal/schema"
)

// scope tracks the plan.Node built so far for one clause, threaded
// clause-to-clause the way the teacher lineage threads inScope/outScope
// through buildFrom/buildJoin. The aliases a clause binds are recorded on
// the shared plan.Context, not on scope.
type scope struct {
	parent *scope
	node   plan.Node
}

func (s *scope) push() *scope {
	return &scope{parent: s}
}

// PlanBuilder lowers one ast.Query against one schema.GraphSchema.
type PlanBuilder struct {
	schema   *schema.GraphSchema
	ctx      *plan.Context
	warnings *compileerr.Warnings
	err      error
}

// New returns a PlanBuilder bound to gs, collecting non-fatal diagnostics
// onto warnings (may be nil).
func New(gs *schema.GraphSchema, warnings *compileerr.Warnings) *PlanBuilder {
	return &PlanBuilder{schema: gs, warnings: warnings, ctx: plan.NewContext()}
}

func (b *PlanBuilder) handleErr(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build lowers q into a plan.Node tree and its plan.Context. Returns the
// first error recorded by handleErr, if any.
func (b *PlanBuilder) Build(q *ast.Query) (plan.Node, *plan.Context, error) {
	s := &scope{}
	for _, c := range q.Clauses {
		s = b.buildClause(s, c)
		if b.err != nil {
			return nil, nil, b.err
		}
	}
	if s.node == nil {
		b.handleErr(compileerr.ErrParse.New(0, "query has no bound pattern"))
		return nil, nil, b.err
	}
	return s.node, b.ctx, nil
}

func (b *PlanBuilder) buildClause(inScope *scope, c ast.Clause) *scope {
	switch cl := c.(type) {
	case *ast.MatchClause:
		return b.buildMatch(inScope, cl)
	case *ast.WithClause:
		return b.buildWith(inScope, cl)
	case *ast.ReturnClause:
		return b.buildReturn(inScope, cl)
	case *ast.UnwindClause:
		return b.buildUnwind(inScope, cl)
	default:
		b.handleErr(compileerr.ErrParse.New(0, "unsupported clause"))
		return inScope
	}
}

func wrapExpr(e ast.Expression) plan.Expr {
	if e == nil {
		return nil
	}
	return &plan.RawExpr{E: e}
}

func (b *PlanBuilder) buildMatch(inScope *scope, mc *ast.MatchClause) *scope {
	outScope := inScope.push()
	cur := inScope.node

	for _, pat := range mc.Patterns {
		root := b.buildPattern(pat)
		if b.err != nil {
			return outScope
		}
		if cur == nil {
			cur = root
			continue
		}
		kind := plan.JoinInner
		if mc.Optional {
			kind = plan.JoinLeftOuter
		}
		cur = &plan.Join{Kind: kind, Left: cur, Right: root}
	}

	if mc.Optional && inScope.node == nil && len(mc.Patterns) > 0 {
		if b.warnings != nil {
			b.warnings.Add("OPTIONAL MATCH with no preceding bound pattern behaves as a plain MATCH")
		}
	}

	if mc.Where != nil {
		cur = &plan.Filter{Predicate: wrapExpr(mc.Where), Input: cur}
	}

	outScope.node = cur
	return outScope
}

func (b *PlanBuilder) buildProjectionItems(items []ast.ProjectionItem) []plan.ProjItem {
	out := make([]plan.ProjItem, 0, len(items))
	for _, it := range items {
		out = append(out, plan.ProjItem{Expr: wrapExpr(it.Expr), Alias: it.Alias})
	}
	return out
}

func (b *PlanBuilder) buildOrderSkipLimit(node plan.Node, orderBy []ast.OrderItem, skip, limit ast.Expression) plan.Node {
	if len(orderBy) > 0 {
		items := make([]plan.OrderByItem, 0, len(orderBy))
		for _, o := range orderBy {
			items = append(items, plan.OrderByItem{Expr: wrapExpr(o.Expr), Descending: o.Descending})
		}
		node = &plan.OrderBy{Items: items, Input: node}
	}
	if skip != nil {
		node = &plan.Skip{Count: wrapExpr(skip), Input: node}
	}
	if limit != nil {
		node = &plan.Limit{Count: wrapExpr(limit), Input: node}
	}
	return node
}

func (b *PlanBuilder) buildWith(inScope *scope, wc *ast.WithClause) *scope {
	outScope := inScope.push()

	scopeID := b.ctx.PushScope()
	node := plan.Node(&plan.WithClause{
		Items:    b.buildProjectionItems(wc.Items),
		Distinct: wc.Distinct,
		Input:    inScope.node,
		ScopeID:  scopeID,
	})

	// WITH is a scope boundary (spec.md §3): aliases projected here are what
	// downstream clauses may reference; everything bound strictly before it
	// that was not re-projected falls out of scope. A bare or renamed
	// pass-through of a node/relationship alias (`WITH n`, `WITH n AS p`)
	// carries its Labels/IsEdge/EdgeSchema forward so id()/type()/property
	// access keep working past the boundary; anything else becomes a plain
	// scalar column whose own name doubles as its property and physical
	// column name in the render builder's CTE flattening.
	for _, it := range wc.Items {
		targetName := it.Alias
		if targetName == "" {
			if vr, ok := it.Expr.(*ast.VariableRef); ok {
				targetName = vr.Name
			} else {
				continue
			}
		}
		if vr, ok := it.Expr.(*ast.VariableRef); ok {
			if prior, ok := b.ctx.Tables[vr.Name]; ok && (prior.IsEdge || len(prior.Labels) > 0) {
				b.ctx.BindAlias(targetName, &plan.TableCtx{
					Alias:      targetName,
					Labels:     prior.Labels,
					IsEdge:     prior.IsEdge,
					EdgeSchema: prior.EdgeSchema,
				})
				continue
			}
		}
		// `collect(x) AS coll` over a bound node/relationship alias x produces
		// an array of x-shaped tuples, not an opaque scalar: remember x so a
		// later `UNWIND coll AS elem` can give elem x's own column shape
		// (resolved once the analyzer has filled x's AvailableColumns in).
		if agg, ok := it.Expr.(*ast.Aggregate); ok && agg.Kind == ast.AggCollect {
			if vr, ok := agg.Arg.(*ast.VariableRef); ok {
				if prior, ok := b.ctx.Tables[vr.Name]; ok && (prior.IsEdge || len(prior.Labels) > 0) {
					b.ctx.BindAlias(targetName, &plan.TableCtx{
						Alias:             targetName,
						AvailableColumns:  []plan.ColumnRef{{Property: targetName, Column: targetName}},
						ElementShapeAlias: vr.Name,
					})
					continue
				}
			}
		}
		b.ctx.BindAlias(targetName, &plan.TableCtx{
			Alias:            targetName,
			AvailableColumns: []plan.ColumnRef{{Property: targetName, Column: targetName}},
		})
	}

	if wc.Where != nil {
		node = &plan.Filter{Predicate: wrapExpr(wc.Where), Input: node}
	}
	node = b.buildOrderSkipLimit(node, wc.OrderBy, wc.Skip, wc.Limit)

	outScope.node = node
	return outScope
}

func (b *PlanBuilder) buildReturn(inScope *scope, rc *ast.ReturnClause) *scope {
	outScope := inScope.push()

	node := plan.Node(&plan.Projection{
		Items:    b.buildProjectionItems(rc.Items),
		Distinct: rc.Distinct,
		Input:    inScope.node,
	})
	node = b.buildOrderSkipLimit(node, rc.OrderBy, rc.Skip, rc.Limit)

	outScope.node = node
	return outScope
}

func (b *PlanBuilder) buildUnwind(inScope *scope, uc *ast.UnwindClause) *scope {
	outScope := inScope.push()
	tc := &plan.TableCtx{Alias: uc.Alias}
	if vr, ok := uc.Source.(*ast.VariableRef); ok {
		if src, ok := b.ctx.Tables[vr.Name]; ok && src.ElementShapeAlias != "" {
			tc.ElementShapeAlias = src.ElementShapeAlias
		}
	}
	b.ctx.BindAlias(uc.Alias, tc)
	outScope.node = &plan.Unwind{
		SourceExpr:   wrapExpr(uc.Source),
		ElementAlias: uc.Alias,
		Input:        inScope.node,
	}
	return outScope
}
