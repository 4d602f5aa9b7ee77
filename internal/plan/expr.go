package plan

import "github.com/clickgraph/cyphersql/internal/cypher/ast"

// Expr is the logical-plan-phase expression sum type. It is distinct from
// ast.Expression: the planner wraps raw AST expressions as RawExpr, and
// later analyzer passes progressively replace wrapped/unresolved pieces
// (a bare alias reference, a `.property` access) with resolved variants
// (WildcardExpr, ColumnExpr) that the render builder's expand_alias helper
// and expression lowering understand directly. Two thin wrapper functions
// (see internal/render) convert a Node's resolved Expr into the
// renderer-phase sql text fragment; no other code path duplicates that
// conversion (spec.md §4.5).
type Expr interface{ exprNode() }

// RawExpr passes an unresolved ast.Expression through untouched. Analyzer
// passes that don't need to touch a given expression (most of CaseExpr,
// literals inside WHERE, etc.) leave it wrapped this way until render time.
type RawExpr struct{ E ast.Expression }

func (*RawExpr) exprNode() {}

// ColumnExpr is a resolved `<alias>.<property>` access: Column is the
// physical column name the schema maps Property to.
type ColumnExpr struct {
	Alias    string
	Property string
	Column   string
}

func (*ColumnExpr) exprNode() {}

// WildcardExpr is a bare alias reference (`RETURN friend`) prior to
// expansion. The unified expand_alias helper (internal/render) is the only
// code path allowed to turn this into concrete ColumnExprs.
type WildcardExpr struct{ Alias string }

func (*WildcardExpr) exprNode() {}

// AnyLastExpr wraps a non-identifier column with anyLast(...) when the
// enclosing projection requires aggregation (spec.md §4.5 expand_alias step 3).
type AnyLastExpr struct{ Inner Expr }

func (*AnyLastExpr) exprNode() {}

// AggregateExpr is count/collect/sum/avg/min/max applied to Arg (nil for
// count(*)).
type AggregateExpr struct {
	Kind     ast.AggregateKind
	Arg      Expr
	Distinct bool
}

func (*AggregateExpr) exprNode() {}

// BinaryExpr is an infix operator over two resolved operands.
type BinaryExpr struct {
	Op          string
	Left, Right Expr
}

func (*BinaryExpr) exprNode() {}

// UnaryExpr is a prefix operator (NOT, unary minus, IS [NOT] NULL).
type UnaryExpr struct {
	Op      string
	Operand Expr
}

func (*UnaryExpr) exprNode() {}

// InListExpr is `<target> IN <list>`.
type InListExpr struct {
	Target Expr
	List   Expr
}

func (*InListExpr) exprNode() {}

// FuncExpr is a plain scalar function call whose arguments are all resolved.
type FuncExpr struct {
	Name string
	Args []Expr
}

func (*FuncExpr) exprNode() {}

// LiteralExpr is a resolved constant value.
type LiteralExpr struct{ Value interface{} }

func (*LiteralExpr) exprNode() {}

// ParamExpr is a resolved `$name` parameter reference.
type ParamExpr struct{ Name string }

func (*ParamExpr) exprNode() {}

// CaseWhenExpr is one WHEN/THEN arm of a resolved CaseExpr.
type CaseWhenExpr struct{ When, Then Expr }

// CaseExprNode is a resolved CASE expression.
type CaseExprNode struct {
	Operand Expr
	Whens   []CaseWhenExpr
	Else    Expr
}

func (*CaseExprNode) exprNode() {}

// CorrelatedCountExpr lowers `size((a)-[:T]->())` (spec.md §4.5) into a
// correlated COUNT(*) subquery over the edge table, keyed by the outer
// node's identifier column.
type CorrelatedCountExpr struct {
	EdgeDatabase  string
	EdgeTable     string
	EdgeFromID    string
	OuterAlias    string
	OuterIDColumn string
	ViewFilter    Expr // polymorphic implicit filters, if any
}

func (*CorrelatedCountExpr) exprNode() {}

// TypeLiteralExpr lowers `type(r)`: Column is set for a polymorphic edge
// (its type_column), or Value is set to the literal type for a non-
// polymorphic edge.
type TypeLiteralExpr struct {
	Value  string
	Column string
	Alias  string
}

func (*TypeLiteralExpr) exprNode() {}

// IDExpr lowers `id(n)` to `n.<id_col>` — the first identifier column
// verbatim even for a composite identifier (documented limitation, see
// SPEC_FULL.md).
type IDExpr struct {
	Alias  string
	Column string
}

func (*IDExpr) exprNode() {}

// LabelsLiteralExpr lowers `labels(n)` to a literal array of declared labels.
type LabelsLiteralExpr struct{ Labels []string }

func (*LabelsLiteralExpr) exprNode() {}
