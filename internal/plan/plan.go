// Package plan defines the sum-typed LogicalPlan tree and its side-car
// PlanContext (spec.md §3 LogicalPlan / PlanContext). Analyzer passes match
// on concrete variants and rewrite the tree with TransformUp, mirroring the
// teacher lineage's plan.Node / n.TransformUp convention (see
// other_examples/…-gitbase…-rules.go.go).
package plan

import (
	"github.com/clickgraph/cyphersql/internal/cypher/ast"
	"github.com/clickgraph/cyphersql/internal/schema"
)

// Node is the LogicalPlan sum type. Every concrete variant below implements
// it; analyzer passes type-switch on the concrete type rather than using
// virtual dispatch (spec.md §9 "sum types over inheritance").
type Node interface {
	Children() []Node
	// WithChildren returns a copy of this node with its children replaced,
	// used by TransformUp to rebuild the tree bottom-up.
	WithChildren(children []Node) Node
	node()
}

// TransformUp applies fn to every node of the tree, children first, as the
// teacher lineage's n.TransformUp does. fn may return a different node to
// replace the visited one.
func TransformUp(n Node, fn func(Node) (Node, error)) (Node, error) {
	if n == nil {
		return nil, nil
	}
	children := n.Children()
	if len(children) > 0 {
		newChildren := make([]Node, len(children))
		for i, c := range children {
			nc, err := TransformUp(c, fn)
			if err != nil {
				return nil, err
			}
			newChildren[i] = nc
		}
		n = n.WithChildren(newChildren)
	}
	return fn(n)
}

// ProjItem is one Projection output column.
type ProjItem struct {
	Expr  Expr
	Alias string
}

// Projection is SELECT <items> [DISTINCT] over input.
type Projection struct {
	Items    []ProjItem
	Distinct bool
	Input    Node
}

func (*Projection) node() {}
func (p *Projection) Children() []Node { return []Node{p.Input} }
func (p *Projection) WithChildren(c []Node) Node {
	cp := *p
	cp.Input = c[0]
	return &cp
}

// Filter applies a boolean predicate over input. Note: the Filter-Tagging
// analyzer pass (§4.3(b)) removes Filter nodes produced directly from WHERE
// clauses and stores tagged conjuncts on PlanContext instead; a Filter node
// surviving past that pass represents a predicate the pushdown pass
// re-attached at its resolved scope.
type Filter struct {
	Predicate Expr
	Input     Node
}

func (*Filter) node() {}
func (f *Filter) Children() []Node { return []Node{f.Input} }
func (f *Filter) WithChildren(c []Node) Node {
	cp := *f
	cp.Input = c[0]
	return &cp
}

// OrderByItem is one ORDER BY key in the logical plan.
type OrderByItem struct {
	Expr       Expr
	Descending bool
}

// OrderBy sorts its input.
type OrderBy struct {
	Items []OrderByItem
	Input Node
}

func (*OrderBy) node() {}
func (o *OrderBy) Children() []Node { return []Node{o.Input} }
func (o *OrderBy) WithChildren(c []Node) Node {
	cp := *o
	cp.Input = c[0]
	return &cp
}

// Limit caps the number of rows from input.
type Limit struct {
	Count Expr
	Input Node
}

func (*Limit) node() {}
func (l *Limit) Children() []Node { return []Node{l.Input} }
func (l *Limit) WithChildren(c []Node) Node {
	cp := *l
	cp.Input = c[0]
	return &cp
}

// Skip discards a number of rows from input before further processing.
type Skip struct {
	Count Expr
	Input Node
}

func (*Skip) node() {}
func (s *Skip) Children() []Node { return []Node{s.Input} }
func (s *Skip) WithChildren(c []Node) Node {
	cp := *s
	cp.Input = c[0]
	return &cp
}

// WithClause is a scope boundary: a WITH projection. Every WITH pushes a new
// scope onto PlanContext.Scopes (spec.md §3 "Scope boundary"). CteID is
// assigned by the optimizer's CTE-hoisting pass (internal/optimizer); zero
// means "not yet hoisted".
type WithClause struct {
	Items    []ProjItem
	Distinct bool
	Input    Node
	CteID    int
	// ScopeID is the PlanContext scope this WITH pushed when planbuilder
	// bound its items (plan.Context.PushScope's return value). Render uses
	// it to find tagged filters on this WITH's own WHERE clause: a
	// predicate over a newly-projected scalar alias (`WITH n.age AS age
	// WHERE age > 5`) can never be reattached as a tree Filter node by
	// pushdown (aliasesIn only recognizes node/relationship/view-scan
	// aliases, never a plain scalar projection), so it stays in
	// PlanContext.TaggedFilters keyed by this ScopeID for render to apply
	// directly when building this WITH's own SELECT body.
	ScopeID int
}

func (*WithClause) node() {}
func (w *WithClause) Children() []Node { return []Node{w.Input} }
func (w *WithClause) WithChildren(c []Node) Node {
	cp := *w
	cp.Input = c[0]
	return &cp
}

// Unwind expands a list-valued expression into one row per element, binding
// ElementAlias in the downstream scope.
type Unwind struct {
	SourceExpr   Expr
	ElementAlias string
	Input        Node
}

func (*Unwind) node() {}
func (u *Unwind) Children() []Node { return []Node{u.Input} }
func (u *Unwind) WithChildren(c []Node) Node {
	cp := *u
	cp.Input = c[0]
	return &cp
}

// GraphNode represents one bound node pattern. ProjectedColumns is filled by
// the projected-column resolver (§4.3(c)); IsEmbeddedInEdge marks a
// denormalized/virtual node whose columns live on the adjoining edge row.
// Source is filled by the schema-inference/label-resolution analyzer pass
// (§4.3(a)): nil when IsEmbeddedInEdge is true (its columns are read off the
// owning GraphRel's Center ViewScan instead), otherwise the node's own base
// table. A node with more than one declared label resolves to the first
// label's table, with a warning recorded; no per-label UNION ALL scan is
// rendered.
type GraphNode struct {
	Alias            string
	Labels           []string
	ProjectedColumns []ColumnRef // filled by analyzer
	IsEmbeddedInEdge bool
	Source           *ViewScan
}

func (*GraphNode) node()              {}
func (*GraphNode) Children() []Node   { return nil }
func (g *GraphNode) WithChildren([]Node) Node { cp := *g; return &cp }

// ColumnRef pairs a Cypher property name with the physical column that
// backs it, as resolved by the projected-column resolver.
type ColumnRef struct {
	Property string
	Column   string
}

// ViewScan is a base table reference, optionally filtered (polymorphic
// implicit filters, pushed-down predicates) and optionally parameterized (a
// "view" invocation per spec.md's View parameter concept).
type ViewScan struct {
	SourceTable       string
	SourceDatabase    string
	Alias             string
	ViewFilter        Expr // nil if none
	ViewParameterNames  []string
	ViewParameterValues []string
}

func (*ViewScan) node()              {}
func (*ViewScan) Children() []Node   { return nil }
func (v *ViewScan) WithChildren([]Node) Node { cp := *v; return &cp }

// GraphRel represents one bound relationship pattern with its two endpoints
// and the edge's own ViewScan. VarLength is nil for a fixed-length hop.
//
// Candidates holds every EdgeSchema the planner's edge-type resolution
// (spec.md §4.2) matched for this pattern's (types, from-labels, to-labels)
// combination. For the common case (single type, single label on both
// endpoints) it holds exactly one entry and Center is built from it
// directly. For a multi-type/multi-label relationship, or any variable-
// length pattern, Center is left nil and the render builder's
// variable-length/heterogeneous-join generator (internal/render/vlp) walks
// Candidates itself rather than assuming one physical edge table.
type GraphRel struct {
	Alias        string
	Types        []string
	Direction    ast.Direction
	VarLength    *ast.VarLength
	PathMode     ast.PathMode
	Left         Node // *GraphNode or embedded ViewScan
	Center       *ViewScan
	Right        Node
	PathVariable string // "" if absent
	Candidates   []*schema.EdgeSchema
	// ShortestMode mirrors ast.ShortestMode: set when this relationship was
	// written as shortestPath(...)/allShortestPaths(...), which changes how
	// internal/render/vlp wires its variable-length CTE into the outer query.
	ShortestMode ast.ShortestMode
}

func (*GraphRel) node() {}
func (r *GraphRel) Children() []Node {
	// Center may be nil (a multi-candidate or variable-length relationship
	// resolved via Candidates rather than a single ViewScan): return a true
	// nil interface rather than a non-nil interface wrapping a nil *ViewScan,
	// so a caller's `if child == nil` check behaves as expected.
	if r.Center == nil {
		return []Node{r.Left, nil, r.Right}
	}
	return []Node{r.Left, r.Center, r.Right}
}
func (r *GraphRel) WithChildren(c []Node) Node {
	cp := *r
	cp.Left, cp.Right = c[0], c[2]
	if c[1] != nil {
		cp.Center = c[1].(*ViewScan)
	} else {
		cp.Center = nil
	}
	return &cp
}

// JoinKind is Inner or LeftOuter.
type JoinKind int

const (
	JoinInner JoinKind = iota
	JoinLeftOuter
)

// Join is an explicit join between two already-bound operators, emitted by
// the graph-join-inference analyzer pass (§4.3(e)).
type Join struct {
	Kind  JoinKind
	Left  Node
	Right Node
	On    Expr
}

func (*Join) node() {}
func (j *Join) Children() []Node { return []Node{j.Left, j.Right} }
func (j *Join) WithChildren(c []Node) Node {
	cp := *j
	cp.Left, cp.Right = c[0], c[1]
	return &cp
}
