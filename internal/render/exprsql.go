package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/clickgraph/cyphersql/internal/compileerr"
	"github.com/clickgraph/cyphersql/internal/cypher/ast"
	"github.com/clickgraph/cyphersql/internal/plan"
	"github.com/clickgraph/cyphersql/internal/schema"
)

// exprCtx carries everything expression rendering needs to resolve an
// alias's columns or an edge's schema: the bound GraphSchema, the
// PlanContext, and whether the enclosing projection needs aggregate
// wrapping (expand_alias step 3).
type exprCtx struct {
	gs        *schema.GraphSchema
	ctx       *plan.Context
	needsAgg  bool
}

// ExprToSQL renders one plan.Expr (or the ast.Expression it wraps) to a SQL
// text fragment. It is the single conversion point spec.md §4.5 calls for:
// every render path — projection items, WHERE conjuncts, join conditions,
// ORDER BY keys — goes through this function rather than re-implementing
// expression lowering locally.
func ExprToSQL(e plan.Expr, gs *schema.GraphSchema, ctx *plan.Context, needsAgg bool) (string, error) {
	ec := exprCtx{gs: gs, ctx: ctx, needsAgg: needsAgg}
	return ec.expr(e)
}

func (ec exprCtx) expr(e plan.Expr) (string, error) {
	switch v := e.(type) {
	case nil:
		return "", nil
	case *plan.RawExpr:
		return ec.ast(v.E)
	case *plan.ColumnExpr:
		if v.Alias == "" {
			// An unqualified column: used for a polymorphic edge's implicit
			// filters, rendered inside its own subquery wrapper before any
			// outer alias applies.
			return v.Column, nil
		}
		return fmt.Sprintf("%s.%s", ec.sqlAlias(v.Alias), v.Column), nil
	case *plan.AnyLastExpr:
		inner, err := ec.expr(v.Inner)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("anyLast(%s)", inner), nil
	case *plan.WildcardExpr:
		return "", compileerr.ErrPropertyNotFound.New("*", v.Alias)
	case *plan.AggregateExpr:
		return ec.aggregate(v.Kind, v.Arg, v.Distinct)
	case *plan.BinaryExpr:
		return ec.binary(v.Op, v.Left, v.Right)
	case *plan.UnaryExpr:
		return ec.unary(v.Op, v.Operand)
	case *plan.InListExpr:
		target, err := ec.expr(v.Target)
		if err != nil {
			return "", err
		}
		list, err := ec.expr(v.List)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s IN %s", target, list), nil
	case *plan.FuncExpr:
		args := make([]string, len(v.Args))
		for i, a := range v.Args {
			s, err := ec.expr(a)
			if err != nil {
				return "", err
			}
			args[i] = s
		}
		return fmt.Sprintf("%s(%s)", v.Name, strings.Join(args, ", ")), nil
	case *plan.LiteralExpr:
		return literalSQL(v.Value), nil
	case *plan.ParamExpr:
		return "$" + v.Name, nil
	case *plan.CaseExprNode:
		return ec.caseExpr(v.Operand, v.Whens, v.Else)
	case *plan.CorrelatedCountExpr:
		return ec.correlatedCount(v)
	case *plan.TypeLiteralExpr:
		if v.Column != "" {
			return fmt.Sprintf("%s.%s", v.Alias, v.Column), nil
		}
		return literalSQL(v.Value), nil
	case *plan.IDExpr:
		return fmt.Sprintf("%s.%s", v.Alias, v.Column), nil
	case *plan.LabelsLiteralExpr:
		return literalSQL(v.Labels), nil
	default:
		return "", compileerr.ErrSchemaConstraint.New(fmt.Sprintf("unrenderable expression %T", e))
	}
}

func (ec exprCtx) ast(e ast.Expression) (string, error) {
	switch v := e.(type) {
	case nil:
		return "", nil
	case *ast.Literal:
		return literalSQL(v.Value), nil
	case *ast.Parameter:
		return "$" + v.Name, nil
	case *ast.VariableRef:
		return ec.variableRefScalar(v.Name)
	case *ast.Property:
		col, err := ec.resolveColumn(v.Alias, v.Property)
		if err != nil {
			return "", err
		}
		sql := fmt.Sprintf("%s.%s", ec.sqlAlias(v.Alias), col)
		if ec.needsAgg && !ec.isIdentifierColumn(v.Alias, col) {
			sql = fmt.Sprintf("anyLast(%s)", sql)
		}
		return sql, nil
	case *ast.FnCall:
		return ec.fnCall(v)
	case *ast.Aggregate:
		var arg plan.Expr
		if v.Arg != nil {
			arg = &plan.RawExpr{E: v.Arg}
		}
		return ec.aggregate(v.Kind, arg, v.Distinct)
	case *ast.BinaryOp:
		return ec.binary(v.Op, &plan.RawExpr{E: v.Left}, &plan.RawExpr{E: v.Right})
	case *ast.UnaryOp:
		return ec.unary(v.Op, &plan.RawExpr{E: v.Operand})
	case *ast.InList:
		target, err := ec.ast(v.Target)
		if err != nil {
			return "", err
		}
		list, err := ec.astList(v.List)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s IN %s", target, list), nil
	case *ast.CaseExpr:
		whens := make([]plan.CaseWhenExpr, len(v.Whens))
		for i, w := range v.Whens {
			whens[i] = plan.CaseWhenExpr{When: &plan.RawExpr{E: w.When}, Then: &plan.RawExpr{E: w.Then}}
		}
		var operand, elseE plan.Expr
		if v.Operand != nil {
			operand = &plan.RawExpr{E: v.Operand}
		}
		if v.Else != nil {
			elseE = &plan.RawExpr{E: v.Else}
		}
		return ec.caseExpr(operand, whens, elseE)
	case *ast.PatternCount:
		return ec.patternCount(v)
	case *ast.PathPattern:
		return ec.pathPattern(v)
	default:
		return "", fmt.Errorf("unsupported expression type %T", e)
	}
}

// astList renders the right-hand side of an IN-list. A literal already
// holding a []ast.Expression becomes a parenthesized SQL list; anything
// else (typically a $name parameter bound to an array) is rendered as a
// scalar and relied on to already be array-shaped at substitution time
// (spec.md §9 Open Question: IN-list parameter type inference).
func (ec exprCtx) astList(e ast.Expression) (string, error) {
	if lit, ok := e.(*ast.Literal); ok {
		if items, ok := lit.Value.([]ast.Expression); ok {
			parts := make([]string, len(items))
			for i, it := range items {
				s, err := ec.ast(it)
				if err != nil {
					return "", err
				}
				parts[i] = s
			}
			return "(" + strings.Join(parts, ", ") + ")", nil
		}
	}
	s, err := ec.ast(e)
	if err != nil {
		return "", err
	}
	return s, nil
}

// variableRefScalar renders a bare alias used as a value rather than as an
// aggregate/function argument. A true node or relationship alias can't be
// used this way (id()/type()/property access or expand_alias cover those
// contexts instead); a plain WITH-projected scalar alias resolves through
// the same AvailableColumns machinery a property access would, since its
// entry is keyed by its own name (property == column == alias). Referenced
// from within the very scope that defines it — a WITH clause's own WHERE,
// filtering the column it just computed, before the render builder has
// wrapped that scope as a CTE and set SQLAlias — it renders as the bare
// output column name, since that WHERE is appended to the scope's own
// SELECT, where the bare name resolves to the select-list output alias,
// rather than qualifying into any table.
func (ec exprCtx) variableRefScalar(name string) (string, error) {
	tc, ok := ec.ctx.Tables[name]
	if !ok {
		return "", compileerr.ErrFilterBinding.New(name)
	}
	if tc.IsEdge || len(tc.Labels) > 0 {
		return "", fmt.Errorf("cannot render bound alias %q as a scalar value outside a supported function call", name)
	}
	if tc.SQLAlias == "" {
		return name, nil
	}
	col, err := ec.resolveColumn(name, name)
	if err != nil {
		return "", err
	}
	sql := fmt.Sprintf("%s.%s", tc.SQLAlias, col)
	if ec.needsAgg && !ec.isIdentifierColumn(name, col) {
		sql = fmt.Sprintf("anyLast(%s)", sql)
	}
	return sql, nil
}

func (ec exprCtx) resolveColumn(alias, property string) (string, error) {
	tc, ok := ec.ctx.Tables[alias]
	if !ok {
		return "", compileerr.ErrFilterBinding.New(alias)
	}
	for _, c := range tc.AvailableColumns {
		if c.Property == property {
			return c.Column, nil
		}
	}
	return "", compileerr.ErrPropertyNotFound.New(property, alias)
}

// sqlAlias returns the SQL table alias backing a Cypher alias: itself for an
// ordinary node/relationship scan, or the owning relationship's SQL alias
// for a denormalized node whose columns live on that relationship's row.
func (ec exprCtx) sqlAlias(alias string) string {
	tc, ok := ec.ctx.Tables[alias]
	if ok && tc.SQLAlias != "" {
		return tc.SQLAlias
	}
	return alias
}

func (ec exprCtx) isIdentifierColumn(alias, column string) bool {
	tc, ok := ec.ctx.Tables[alias]
	if !ok {
		return false
	}
	return identifierColumns(ec.gs, tc)[column]
}

func (ec exprCtx) binary(op string, left, right plan.Expr) (string, error) {
	if strings.EqualFold(op, "XOR") {
		l, err := ec.expr(left)
		if err != nil {
			return "", err
		}
		r, err := ec.expr(right)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("xor(%s, %s)", l, r), nil
	}
	l, err := ec.expr(left)
	if err != nil {
		return "", err
	}
	r, err := ec.expr(right)
	if err != nil {
		return "", err
	}
	sqlOp := op
	if op == "<>" {
		sqlOp = "!="
	}
	return fmt.Sprintf("(%s %s %s)", l, sqlOp, r), nil
}

func (ec exprCtx) unary(op string, operand plan.Expr) (string, error) {
	s, err := ec.expr(operand)
	if err != nil {
		return "", err
	}
	switch strings.ToUpper(op) {
	case "NOT":
		return fmt.Sprintf("NOT (%s)", s), nil
	case "-":
		return fmt.Sprintf("-(%s)", s), nil
	case "IS NULL":
		return fmt.Sprintf("%s IS NULL", s), nil
	case "IS NOT NULL":
		return fmt.Sprintf("%s IS NOT NULL", s), nil
	default:
		return fmt.Sprintf("%s%s", op, s), nil
	}
}

func (ec exprCtx) aggregate(kind ast.AggregateKind, arg plan.Expr, distinct bool) (string, error) {
	var argSQL string
	var err error
	if arg != nil {
		argSQL, err = ec.aggregateArg(kind, arg)
		if err != nil {
			return "", err
		}
	}
	switch kind {
	case ast.AggCount:
		if argSQL == "" {
			return "count()", nil
		}
		if distinct {
			return fmt.Sprintf("count(DISTINCT %s)", argSQL), nil
		}
		return fmt.Sprintf("count(%s)", argSQL), nil
	case ast.AggCollect:
		if distinct {
			return fmt.Sprintf("groupUniqArray(%s)", argSQL), nil
		}
		return fmt.Sprintf("groupArray(%s)", argSQL), nil
	case ast.AggSum:
		return fmt.Sprintf("sum(%s)", argSQL), nil
	case ast.AggAvg:
		return fmt.Sprintf("avg(%s)", argSQL), nil
	case ast.AggMin:
		return fmt.Sprintf("min(%s)", argSQL), nil
	case ast.AggMax:
		return fmt.Sprintf("max(%s)", argSQL), nil
	default:
		return "", fmt.Errorf("unsupported aggregate kind %v", kind)
	}
}

// aggregateArg renders an aggregate's argument without the anyLast
// wrapping that a plain (non-aggregate) column reference would otherwise
// get in an aggregating projection: the aggregate function itself already
// reduces every row in the group.
func (ec exprCtx) aggregateArg(kind ast.AggregateKind, arg plan.Expr) (string, error) {
	inner := ec
	inner.needsAgg = false
	if raw, ok := arg.(*plan.RawExpr); ok {
		if vr, ok := raw.E.(*ast.VariableRef); ok {
			if kind == ast.AggCollect {
				return inner.variableRefTuple(vr.Name)
			}
			return inner.variableRefColumn(vr.Name)
		}
	}
	return inner.expr(arg)
}

// variableRefTuple renders collect(x) over a bound node/relationship alias
// as a named tuple of every one of x's available columns, so a later
// `UNWIND coll AS elem` can expose `elem.prop` dot-access the same way a
// freshly-scanned node alias would (ClickHouse named-tuple field access).
// Falls back to the bare identifier column when x carries no resolved
// columns yet (a plain scalar collect, or analysis hasn't run).
func (ec exprCtx) variableRefTuple(alias string) (string, error) {
	tc, ok := ec.ctx.Tables[alias]
	if !ok {
		return "", compileerr.ErrFilterBinding.New(alias)
	}
	if len(tc.AvailableColumns) == 0 {
		return ec.variableRefColumn(alias)
	}
	fields := make([]string, 0, len(tc.AvailableColumns))
	for _, c := range tc.AvailableColumns {
		fields = append(fields, fmt.Sprintf("%s.%s AS %s", ec.sqlAlias(alias), c.Column, c.Property))
	}
	return fmt.Sprintf("tuple(%s)", strings.Join(fields, ", ")), nil
}

// variableRefColumn renders a bare alias used as an aggregate argument
// (`count(n)`) as its identifier column, falling back to `*` for count().
func (ec exprCtx) variableRefColumn(alias string) (string, error) {
	tc, ok := ec.ctx.Tables[alias]
	if !ok {
		return "", compileerr.ErrFilterBinding.New(alias)
	}
	idCols := identifierColumns(ec.gs, tc)
	for col := range idCols {
		return fmt.Sprintf("%s.%s", alias, col), nil
	}
	return "*", nil
}

func (ec exprCtx) caseExpr(operand plan.Expr, whens []plan.CaseWhenExpr, elseE plan.Expr) (string, error) {
	var b strings.Builder
	b.WriteString("CASE")
	if operand != nil {
		s, err := ec.expr(operand)
		if err != nil {
			return "", err
		}
		b.WriteString(" " + s)
	}
	for _, w := range whens {
		ws, err := ec.expr(w.When)
		if err != nil {
			return "", err
		}
		ts, err := ec.expr(w.Then)
		if err != nil {
			return "", err
		}
		b.WriteString(fmt.Sprintf(" WHEN %s THEN %s", ws, ts))
	}
	if elseE != nil {
		es, err := ec.expr(elseE)
		if err != nil {
			return "", err
		}
		b.WriteString(" ELSE " + es)
	}
	b.WriteString(" END")
	return b.String(), nil
}

// fnCall lowers a scalar function call. type()/id()/labels() read schema
// directly off the alias's bound EdgeSchema/identifier rather than being
// expressed as ordinary FuncExpr text, since ClickHouse has no equivalent
// built-in (spec.md §4.5). Everything else passes through as a plain SQL
// function call over its rendered arguments.
func (ec exprCtx) fnCall(v *ast.FnCall) (string, error) {
	switch strings.ToLower(v.Name) {
	case "type":
		return ec.typeOf(v.Args)
	case "id":
		return ec.idOf(v.Args)
	case "labels":
		return ec.labelsOf(v.Args)
	default:
		args := make([]string, len(v.Args))
		for i, a := range v.Args {
			s, err := ec.ast(a)
			if err != nil {
				return "", err
			}
			args[i] = s
		}
		return fmt.Sprintf("%s(%s)", v.Name, strings.Join(args, ", ")), nil
	}
}

func (ec exprCtx) aliasArg(args []ast.Expression, fn string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%s() takes exactly one argument", fn)
	}
	vr, ok := args[0].(*ast.VariableRef)
	if !ok {
		return "", fmt.Errorf("%s() argument must be a bound alias", fn)
	}
	return vr.Name, nil
}

func (ec exprCtx) typeOf(args []ast.Expression) (string, error) {
	alias, err := ec.aliasArg(args, "type")
	if err != nil {
		return "", err
	}
	tc, ok := ec.ctx.Tables[alias]
	if !ok || !tc.IsEdge {
		return "", compileerr.ErrFilterBinding.New(alias)
	}
	if tc.EdgeSchema != nil && tc.EdgeSchema.IsPolymorphic() {
		if col, ok := ec.rewrittenColumn(tc, tc.EdgeSchema.PolySource.TypeColumn); ok {
			return fmt.Sprintf("%s.%s", ec.sqlAlias(alias), col), nil
		}
		return fmt.Sprintf("%s.%s", ec.sqlAlias(alias), tc.EdgeSchema.PolySource.TypeColumn), nil
	}
	if tc.EdgeSchema != nil {
		return literalSQL(tc.EdgeSchema.Type), nil
	}
	if len(tc.Labels) == 1 {
		return literalSQL(tc.Labels[0]), nil
	}
	return "", compileerr.ErrSchemaConstraint.New(fmt.Sprintf("type(%s) is ambiguous across %d candidate relationship types", alias, len(tc.Labels)))
}

func (ec exprCtx) idOf(args []ast.Expression) (string, error) {
	alias, err := ec.aliasArg(args, "id")
	if err != nil {
		return "", err
	}
	tc, ok := ec.ctx.Tables[alias]
	if !ok {
		return "", compileerr.ErrFilterBinding.New(alias)
	}
	if tc.IsEdge {
		if tc.EdgeSchema == nil {
			return "", compileerr.ErrSchemaConstraint.New(fmt.Sprintf("id(%s) requires an unambiguous relationship type", alias))
		}
		idCol := tc.EdgeSchema.EdgeID.First()
		if col, ok := ec.rewrittenColumn(tc, idCol); ok {
			idCol = col
		}
		return fmt.Sprintf("%s.%s", ec.sqlAlias(alias), idCol), nil
	}
	if len(tc.Labels) != 1 {
		return "", compileerr.ErrSchemaConstraint.New(fmt.Sprintf("id(%s) requires a single resolved label", alias))
	}
	ns, err := ec.gs.Node(tc.Labels[0])
	if err != nil {
		return "", err
	}
	idCol := ns.Identifier.First()
	if col, ok := ec.rewrittenColumn(tc, idCol); ok {
		idCol = col
	}
	return fmt.Sprintf("%s.%s", ec.sqlAlias(alias), idCol), nil
}

// rewrittenColumn looks up physicalColumn among tc's AvailableColumns by
// Property (the render builder's CTE-rewrite step adds a pseudo-property
// entry keyed by a node/edge's raw identifier or discriminator column name,
// see builder.go's rewriteAliasesForCTE and identifierOrDiscriminatorColumns),
// returning the column name it was
// flattened to inside a hoisted WITH CTE. Returns ok=false when alias hasn't
// crossed a WITH boundary (or the column wasn't carried across one), in
// which case the caller should use physicalColumn directly.
func (ec exprCtx) rewrittenColumn(tc *plan.TableCtx, physicalColumn string) (string, bool) {
	if tc.SQLAlias == "" {
		return "", false
	}
	for _, c := range tc.AvailableColumns {
		if c.Property == physicalColumn {
			return c.Column, true
		}
	}
	return "", false
}

func (ec exprCtx) labelsOf(args []ast.Expression) (string, error) {
	alias, err := ec.aliasArg(args, "labels")
	if err != nil {
		return "", err
	}
	tc, ok := ec.ctx.Tables[alias]
	if !ok {
		return "", compileerr.ErrFilterBinding.New(alias)
	}
	return literalSQL(tc.Labels), nil
}

// correlatedCount renders a lowered CorrelatedCountExpr (size((a)-[:T]->())
// outside the WHERE/RETURN of a matched pattern) as a correlated COUNT(*)
// subquery over the edge's own table.
func (ec exprCtx) correlatedCount(v *plan.CorrelatedCountExpr) (string, error) {
	where := fmt.Sprintf("%s = %s.%s", v.EdgeFromID, v.OuterAlias, v.OuterIDColumn)
	if v.ViewFilter != nil {
		f, err := ec.expr(v.ViewFilter)
		if err != nil {
			return "", err
		}
		where = fmt.Sprintf("%s AND %s", where, f)
	}
	return fmt.Sprintf("(SELECT count() FROM %s.%s WHERE %s)", v.EdgeDatabase, v.EdgeTable, where), nil
}

// patternCount lowers `size((a)-[:T]->())` inline: a is assumed already
// bound by an enclosing MATCH, so only the single outgoing hop needs
// resolving against the schema before the correlated subquery can be built.
// Multi-hop pattern-count expressions are not supported: only a pattern of
// exactly two nodes and one relationship is rendered.
func (ec exprCtx) patternCount(v *ast.PatternCount) (string, error) {
	pat := v.Pattern
	if len(pat.Nodes) != 2 || len(pat.Rels) != 1 {
		return "", fmt.Errorf("size(pattern) only supports a single-hop relationship pattern")
	}
	left, rel, right := pat.Nodes[0], pat.Rels[0], pat.Nodes[1]
	if left.Name == "" {
		return "", fmt.Errorf("size(pattern) requires its anchor node to reference a bound alias")
	}
	tc, ok := ec.ctx.Tables[left.Name]
	if !ok {
		return "", compileerr.ErrFilterBinding.New(left.Name)
	}
	fromLabels := tc.Labels
	if len(fromLabels) == 0 {
		fromLabels = left.Labels
	}
	es, err := resolveSingleEdge(ec.gs, fromLabels, rel, right.Labels)
	if err != nil {
		return "", err
	}
	idCols := identifierColumns(ec.gs, tc)
	idCol := ""
	for c := range idCols {
		idCol = c
		break
	}
	if idCol == "" {
		return "", compileerr.ErrSchemaConstraint.New(fmt.Sprintf("size(pattern) requires %s to have a resolved identifier", left.Name))
	}
	var filter plan.Expr
	if es.IsPolymorphic() {
		filter = implicitFilterExprFor(es)
	}
	cc := &plan.CorrelatedCountExpr{
		EdgeDatabase:  es.Database,
		EdgeTable:     es.Table,
		EdgeFromID:    es.FromID.First(),
		OuterAlias:    left.Name,
		OuterIDColumn: idCol,
		ViewFilter:    filter,
	}
	return ec.correlatedCount(cc)
}

// implicitFilterExprFor builds the same AND-chain of equality filters
// planbuilder.implicitFilterExpr attaches to a polymorphic edge's own
// ViewScan, for a polymorphic edge resolved directly at render time.
func implicitFilterExprFor(es *schema.EdgeSchema) plan.Expr {
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

// resolveSingleEdge re-runs the spec.md §4.2 resolution order for one
// relationship pattern, taking the first match in declared-label order —
// adequate for a size(pattern) subexpression, where only the shape (does a
// match of this type/label combination exist) matters, not which candidate
// among several identically-typed labels is picked.
func resolveSingleEdge(gs *schema.GraphSchema, fromLabels []string, rel *ast.RelationshipPattern, toLabels []string) (*schema.EdgeSchema, error) {
	types := rel.Types
	if len(types) == 0 {
		for t := range gs.EdgesByType {
			types = append(types, t)
		}
	}
	tryOrder := func(from, to []string) *schema.EdgeSchema {
		for _, t := range types {
			for _, f := range declaredOrAllLabels(gs, from) {
				for _, to2 := range declaredOrAllLabels(gs, to) {
					if e, err := gs.ResolveEdgeType(t, f, to2); err == nil {
						return e
					}
				}
			}
		}
		return nil
	}
	switch rel.Direction {
	case ast.In:
		if e := tryOrder(toLabels, fromLabels); e != nil {
			return e, nil
		}
	case ast.Either:
		if e := tryOrder(fromLabels, toLabels); e != nil {
			return e, nil
		}
		if e := tryOrder(toLabels, fromLabels); e != nil {
			return e, nil
		}
	default:
		if e := tryOrder(fromLabels, toLabels); e != nil {
			return e, nil
		}
	}
	typeOrAny := "*"
	if len(rel.Types) > 0 {
		typeOrAny = rel.Types[0]
	}
	return nil, compileerr.ErrUnknownRelationshipType.New(typeOrAny, labelOrAnyLocal(fromLabels), labelOrAnyLocal(toLabels))
}

func declaredOrAllLabels(gs *schema.GraphSchema, labels []string) []string {
	if len(labels) > 0 {
		return labels
	}
	out := make([]string, 0, len(gs.Nodes))
	for l := range gs.Nodes {
		out = append(out, l)
	}
	return out
}

func labelOrAnyLocal(labels []string) string {
	if len(labels) == 0 {
		return "*"
	}
	return labels[0]
}

// pathPattern handles a shortestPath(...)/allShortestPaths(...) expression
// or a bare path-variable reference used as a value. Path values (the list
// of nodes/edges a Cypher path evaluates to) are not rendered to SQL: it
// always returns an error, inside size() as well as anywhere else.
func (ec exprCtx) pathPattern(v *ast.PathPattern) (string, error) {
	return "", fmt.Errorf("path-valued expressions are not supported; shortestPath/allShortestPaths render only through the variable-length MATCH machinery")
}

func literalSQL(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(t, "'", "''") + "'"
	case bool:
		if t {
			return "1"
		}
		return "0"
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case []string:
		parts := make([]string, len(t))
		for i, s := range t {
			parts[i] = literalSQL(s)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case []ast.Expression:
		parts := make([]string, len(t))
		for i, e := range t {
			if lit, ok := e.(*ast.Literal); ok {
				parts[i] = literalSQL(lit.Value)
			}
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprintf("%v", t)
	}
}
