// Package render lowers an analyzed/optimized plan.Node tree into a
// RenderPlan: an ordered list of named CTEs (one per hoisted WithClause)
// plus a final SELECT text. It is the last stage before internal/emit joins
// the CTEs and the final SELECT into one SQL string (spec.md §4.5).
//
// The core assembly strategy mirrors how the teacher lineage's own planner
// flattens a join tree into a FROM/JOIN clause list before emitting SQL
// (see other_examples/…-gitbase…-build.go.go): collectFactors walks the
// plan tree once, producing an ordered list of FROM/JOIN factors plus a
// flat list of WHERE conditions, deduplicating any Cypher alias that
// appears in more than one tree position via a shared "already bound" set
// rather than trusting the analyzer's own (intentionally tautological, see
// internal/analyzer/rule_graphjoin.go) join conditions.
package render

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/clickgraph/cyphersql/internal/compileerr"
	"github.com/clickgraph/cyphersql/internal/cypher/ast"
	"github.com/clickgraph/cyphersql/internal/plan"
	"github.com/clickgraph/cyphersql/internal/render/vlp"
	"github.com/clickgraph/cyphersql/internal/schema"
)

// Builder holds everything render needs for one compilation: the bound
// schema, the side-car PlanContext the planner/analyzer/optimizer already
// populated, the CTE registry being accumulated, and which TaggedFilter
// predicates have already been reattached as tree Filter nodes by the
// analyzer's pushdown pass (so the WITH-own-scope orphan check never
// double-applies one). log follows the same *logrus.Entry convention as
// internal/analyzer.Analyzer.Log: Debug for lowering decisions (CTE
// registration, WITH-scope rendering), Warn for the render-time fallbacks
// spec.md §7 treats as non-fatal (the virtual-node UNION ALL path).
type Builder struct {
	gs       *schema.GraphSchema
	ctx      *plan.Context
	ctes     *CteRegistry
	attached map[plan.Expr]bool
	log      *logrus.Entry
}

// discardWriter is a *logrus.Entry sink that drops everything, used when
// Build is called with a nil log the same way internal/analyzer.New does.
type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func defaultLog(log *logrus.Entry) *logrus.Entry {
	if log != nil {
		return log
	}
	l := logrus.New()
	l.SetOutput(discardWriter{})
	return logrus.NewEntry(l)
}

// factor is one FROM/JOIN/ARRAY JOIN entry in a flattened SELECT body.
type factor struct {
	Body string
	Kind string // "JOIN", "LEFT JOIN", or "ARRAY JOIN"; the first factor in a list always renders as FROM regardless of Kind
	On   string // "" means no ON clause (CROSS JOIN for "JOIN", "ON 1 = 1" for "LEFT JOIN")
}

// Build lowers n into a RenderPlan: the hoisted CTEs in dependency order
// (innermost WITH first, matching optimizer.HoistCTEs's bottom-up id
// assignment) plus the outermost SELECT text. log may be nil, in which case
// a disabled (discard-output) logger is used, matching internal/analyzer.New.
func Build(n plan.Node, gs *schema.GraphSchema, ctx *plan.Context, log *logrus.Entry) (*RenderPlan, error) {
	log = defaultLog(log)
	b := &Builder{gs: gs, ctx: ctx, ctes: NewCteRegistry(), attached: collectAttachedPredicates(n), log: log}
	log.Debug("rendering plan tree")
	sel, err := b.renderStatement(n)
	if err != nil {
		return nil, err
	}
	log.Debugf("rendered %d hoisted CTE(s)", len(b.ctes.Defs()))
	return &RenderPlan{Ctes: b.ctes.Defs(), Select: sel}, nil
}

// collectAttachedPredicates walks the whole tree once, recording every
// Filter.Predicate already reified as a tree node (by MATCH...WHERE or by
// the analyzer's pushdown pass) so renderSelect's WITH-own-scope orphan
// check never re-applies one of these a second time.
func collectAttachedPredicates(n plan.Node) map[plan.Expr]bool {
	out := map[plan.Expr]bool{}
	var walk func(plan.Node)
	walk = func(x plan.Node) {
		if x == nil {
			return
		}
		if f, ok := x.(*plan.Filter); ok {
			out[f.Predicate] = true
		}
		for _, c := range x.Children() {
			walk(c)
		}
	}
	walk(n)
	return out
}

// renderStatement peels the trailing OrderBy/Skip/Limit wrappers a query's
// final clause may carry, renders the remaining body, then re-applies
// ORDER BY/LIMIT/OFFSET as SQL suffix text.
func (b *Builder) renderStatement(n plan.Node) (string, error) {
	var orderBy []plan.OrderByItem
	var skipExpr, limitExpr plan.Expr
	cur := n
	for {
		switch v := cur.(type) {
		case *plan.OrderBy:
			orderBy = v.Items
			cur = v.Input
			continue
		case *plan.Skip:
			skipExpr = v.Count
			cur = v.Input
			continue
		case *plan.Limit:
			limitExpr = v.Count
			cur = v.Input
			continue
		}
		break
	}

	body, err := b.renderBody(cur)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(body)
	if len(orderBy) > 0 {
		parts := make([]string, len(orderBy))
		for i, it := range orderBy {
			s, err := ExprToSQL(it.Expr, b.gs, b.ctx, false)
			if err != nil {
				return "", err
			}
			if it.Descending {
				s += " DESC"
			}
			parts[i] = s
		}
		fmt.Fprintf(&sb, " ORDER BY %s", strings.Join(parts, ", "))
	}
	if limitExpr != nil {
		s, err := ExprToSQL(limitExpr, b.gs, b.ctx, false)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, " LIMIT %s", s)
	}
	if skipExpr != nil {
		s, err := ExprToSQL(skipExpr, b.gs, b.ctx, false)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, " OFFSET %s", s)
	}
	return sb.String(), nil
}

// renderBody renders the clause that actually produces rows: a final
// RETURN (*plan.Projection), or — a rare but legal query shape — a trailing
// WITH with nothing after it, rendered as the top-level statement rather
// than hoisted as a CTE nothing downstream ever references.
func (b *Builder) renderBody(n plan.Node) (string, error) {
	switch v := n.(type) {
	case *plan.Projection:
		return b.renderSelect(v.Items, v.Distinct, v.Input, -1)
	case *plan.WithClause:
		return b.renderSelect(v.Items, v.Distinct, v.Input, v.ScopeID)
	default:
		return "", fmt.Errorf("unsupported top-level render node %T", n)
	}
}

// renderSelect builds one SELECT body shared by both *plan.Projection and
// *plan.WithClause rendering: FROM/JOIN factors from input, the select
// list (bare alias expansion or scalar expression per item), WHERE
// (pushed-down filters plus, when scopeID >= 0, this WITH's own orphaned
// scalar-alias filters), and GROUP BY when the projection aggregates.
func (b *Builder) renderSelect(items []plan.ProjItem, distinct bool, input plan.Node, scopeID int) (string, error) {
	bound := map[string]bool{}
	factors, whereConds, err := b.collectFactors(input, bound)
	if err != nil {
		return "", err
	}

	needsAgg := projectionHasAggregate(items)
	cols, err := b.buildSelectList(items, needsAgg)
	if err != nil {
		return "", err
	}

	if scopeID >= 0 {
		for _, tf := range b.ctx.TaggedFilters {
			if tf.ScopeID != scopeID || b.attached[tf.Predicate] {
				continue
			}
			b.attached[tf.Predicate] = true
			cond, err := ExprToSQL(tf.Predicate, b.gs, b.ctx, false)
			if err != nil {
				return "", err
			}
			whereConds = append(whereConds, cond)
		}
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	if distinct {
		sb.WriteString("DISTINCT ")
	}
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprintf("%s AS %s", c.SQL, c.OutputName)
	}
	sb.WriteString(strings.Join(parts, ", "))
	sb.WriteString(" ")
	sb.WriteString(factorsToSQL(factors))
	if len(whereConds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(whereConds, " AND "))
	}
	if needsAgg {
		if groupBy := buildGroupBy(cols); groupBy != "" {
			sb.WriteString(" GROUP BY ")
			sb.WriteString(groupBy)
		}
	}
	return sb.String(), nil
}

func factorsToSQL(factors []factor) string {
	var sb strings.Builder
	for i, f := range factors {
		if i == 0 {
			fmt.Fprintf(&sb, "FROM %s", f.Body)
			continue
		}
		switch {
		case f.Kind == "ARRAY JOIN":
			fmt.Fprintf(&sb, " ARRAY JOIN %s", f.Body)
		case f.On == "" && f.Kind == "JOIN":
			fmt.Fprintf(&sb, " CROSS JOIN %s", f.Body)
		case f.On == "":
			fmt.Fprintf(&sb, " %s %s ON 1 = 1", f.Kind, f.Body)
		default:
			fmt.Fprintf(&sb, " %s %s ON %s", f.Kind, f.Body, f.On)
		}
	}
	return sb.String()
}

// collectFactors recursively flattens n into an ordered factor list plus a
// flat list of WHERE conditions. bound dedups a Cypher alias across the
// whole call tree: once an alias has a factor (or has been redirected onto
// another factor's SQLAlias, for an embedded endpoint), every later
// reference to it contributes no new factor, only an extra join condition
// folded into WHERE.
func (b *Builder) collectFactors(n plan.Node, bound map[string]bool) ([]factor, []string, error) {
	switch v := n.(type) {
	case nil:
		return nil, nil, nil

	case *plan.Filter:
		factors, where, err := b.collectFactors(v.Input, bound)
		if err != nil {
			return nil, nil, err
		}
		cond, err := ExprToSQL(v.Predicate, b.gs, b.ctx, false)
		if err != nil {
			return nil, nil, err
		}
		return factors, append(where, cond), nil

	case *plan.WithClause:
		cteSQL, err := b.renderSelect(v.Items, v.Distinct, v.Input, v.ScopeID)
		if err != nil {
			return nil, nil, err
		}
		cteName := b.ctes.Register(v.CteID, cteSQL)
		b.log.Debugf("registered CTE %s for WITH scope %d", cteName, v.ScopeID)
		b.rewriteAliasesForCTE(v.Items, cteName)
		return []factor{{Body: cteName, Kind: "JOIN"}}, nil, nil

	case *plan.GraphNode:
		return b.graphNodeFactors(v, bound)

	case *plan.ViewScan:
		if v.Alias != "" && bound[v.Alias] {
			return nil, nil, nil
		}
		body, err := b.renderViewScan(v)
		if err != nil {
			return nil, nil, err
		}
		if v.Alias != "" {
			bound[v.Alias] = true
		}
		return []factor{{Body: body, Kind: "JOIN"}}, nil, nil

	case *plan.GraphRel:
		return b.graphRelFactors(v, bound)

	case *plan.Unwind:
		return b.unwindFactors(v, bound)

	case *plan.Join:
		lf, lw, err := b.collectFactors(v.Left, bound)
		if err != nil {
			return nil, nil, err
		}
		rf, rw, err := b.collectFactors(v.Right, bound)
		if err != nil {
			return nil, nil, err
		}
		if v.Kind == plan.JoinLeftOuter {
			// Every newly-introduced factor of the optional branch becomes a
			// LEFT JOIN, not just the first: OPTIONAL MATCH (a)-[:R]->(b) with
			// a non-embedded b contributes two factors (the edge ViewScan and
			// b's own node JOIN), and chaining LEFT JOIN ... ON ... LEFT JOIN
			// ... ON ... still preserves outer semantics since each later ON
			// clause only ever references already-bound aliases. Promoting
			// only rf[0] left a plain inner JOIN on b that silently dropped
			// the whole row whenever a had no matching R edge.
			for i := range rf {
				rf[i].Kind = "LEFT JOIN"
			}
		}
		return append(lf, rf...), append(lw, rw...), nil

	default:
		return nil, nil, fmt.Errorf("unsupported render node %T in FROM/JOIN position", n)
	}
}

func (b *Builder) graphNodeFactors(v *plan.GraphNode, bound map[string]bool) ([]factor, []string, error) {
	if v.Alias != "" && bound[v.Alias] {
		return nil, nil, nil
	}
	if v.IsEmbeddedInEdge {
		return b.virtualNodeFactors(v, bound)
	}
	if v.Source == nil {
		return nil, nil, compileerr.ErrSchemaConstraint.New(fmt.Sprintf("node %q has no resolved physical source", v.Alias))
	}
	body, err := b.renderViewScan(v.Source)
	if err != nil {
		return nil, nil, err
	}
	if v.Alias != "" {
		bound[v.Alias] = true
	}
	return []factor{{Body: body, Kind: "JOIN"}}, nil, nil
}

// renderViewScan renders a plain base-table scan, or — when ViewFilter is
// set (a polymorphic edge's implicit discriminator filters) — a filtered
// subquery wrapper, exactly as planbuilder.viewScanFor describes it.
func (b *Builder) renderViewScan(vs *plan.ViewScan) (string, error) {
	table := fmt.Sprintf("%s.%s", vs.SourceDatabase, vs.SourceTable)
	if vs.ViewFilter == nil {
		return fmt.Sprintf("%s AS %s", table, vs.Alias), nil
	}
	cond, err := ExprToSQL(vs.ViewFilter, b.gs, b.ctx, false)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("(SELECT * FROM %s WHERE %s) AS %s", table, cond, vs.Alias), nil
}

// virtualNodeFactors scans a denormalized node standalone — no owning
// GraphRel bound it in this query — as a UNION ALL of its owning edge's
// from-role and to-role column projections (schema.FindOwningEdge).
func (b *Builder) virtualNodeFactors(v *plan.GraphNode, bound map[string]bool) ([]factor, []string, error) {
	if len(v.Labels) != 1 {
		return nil, nil, compileerr.ErrSchemaConstraint.New(fmt.Sprintf("standalone denormalized node %q requires a single resolved label", v.Alias))
	}
	ns, err := b.gs.Node(v.Labels[0])
	if err != nil {
		return nil, nil, err
	}
	es := schema.FindOwningEdge(b.gs, ns)
	if es == nil {
		return nil, nil, compileerr.ErrSchemaConstraint.New(fmt.Sprintf("denormalized node %q has no owning relationship table", v.Alias))
	}
	b.log.Warnf("node %q is denormalized and standalone in this query; scanning %s as UNION ALL of from/to roles", v.Alias, es.QualifiedTable())

	if tc, ok := b.ctx.Tables[v.Alias]; ok && len(tc.AvailableColumns) == 0 {
		seen := map[string]bool{}
		var cols []plan.ColumnRef
		for prop := range es.FromNodeProperties {
			if !seen[prop] {
				seen[prop] = true
				cols = append(cols, plan.ColumnRef{Property: prop, Column: prop})
			}
		}
		for prop := range es.ToNodeProperties {
			if !seen[prop] {
				seen[prop] = true
				cols = append(cols, plan.ColumnRef{Property: prop, Column: prop})
			}
		}
		tc.AvailableColumns = cols
	}

	var branches []string
	if len(es.FromNodeProperties) > 0 {
		branches = append(branches, unionRoleBranch(es, es.FromNodeProperties, es.FromID.First()))
	}
	if len(es.ToNodeProperties) > 0 {
		branches = append(branches, unionRoleBranch(es, es.ToNodeProperties, es.ToID.First()))
	}
	body := fmt.Sprintf("(%s) AS %s", strings.Join(branches, "\nUNION ALL\n"), v.Alias)
	if v.Alias != "" {
		bound[v.Alias] = true
	}
	return []factor{{Body: body, Kind: "JOIN"}}, nil, nil
}

func unionRoleBranch(es *schema.EdgeSchema, props map[string]string, idCol string) string {
	cols := make([]string, 0, len(props)+1)
	cols = append(cols, fmt.Sprintf("%s AS %s", idCol, idCol))
	for prop, col := range props {
		if col == idCol {
			continue
		}
		cols = append(cols, fmt.Sprintf("%s AS %s", col, prop))
	}
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), es.QualifiedTable())
}

// adjacentEndpoint finds the *plan.GraphNode leaf physically adjacent to
// whatever relationship sits immediately after n in a left-deep chain
// (planbuilder.buildPattern always nests a multi-hop chain as
// Left=previous-GraphRel, Right=fresh GraphNode, so the node bordering the
// NEXT relationship is n itself if n is already a GraphNode, or n's own
// rightmost leaf if n is a nested GraphRel).
func adjacentEndpoint(n plan.Node) *plan.GraphNode {
	switch v := n.(type) {
	case *plan.GraphNode:
		return v
	case *plan.GraphRel:
		return adjacentEndpoint(v.Right)
	default:
		return nil
	}
}

// edgeSchemaFor returns the single EdgeSchema a fixed-length relationship
// was resolved against, or nil for a still-ambiguous or variable-length
// one (dispatched to vlpFactors instead).
func (b *Builder) edgeSchemaFor(v *plan.GraphRel) *schema.EdgeSchema {
	if v.VarLength != nil {
		return nil
	}
	if tc, ok := b.ctx.Tables[v.Alias]; ok && tc.EdgeSchema != nil {
		return tc.EdgeSchema
	}
	if len(v.Candidates) == 1 {
		return v.Candidates[0]
	}
	return nil
}

func (b *Builder) identifierFor(labels []string) (string, bool) {
	if len(labels) != 1 {
		return "", false
	}
	ns, err := b.gs.Node(labels[0])
	if err != nil {
		return "", false
	}
	return ns.Identifier.First(), true
}

func (b *Builder) sqlAliasFor(alias string) string {
	if tc, ok := b.ctx.Tables[alias]; ok && tc.SQLAlias != "" {
		return tc.SQLAlias
	}
	return alias
}

// graphRelFactors assembles one relationship hop: the left endpoint's own
// factors (or an embedded redirect), the edge's own ViewScan factor joined
// to the left endpoint, then the right endpoint's own factors (or an
// embedded redirect) joined to the edge.
func (b *Builder) graphRelFactors(v *plan.GraphRel, bound map[string]bool) ([]factor, []string, error) {
	if v.Alias != "" && bound[v.Alias] {
		return nil, nil, nil
	}

	var factors []factor
	var where []string

	leftGN, leftDirectlyEmbedded := v.Left.(*plan.GraphNode)
	if leftDirectlyEmbedded && leftGN.IsEmbeddedInEdge {
		if !bound[leftGN.Alias] {
			b.ctx.BindAlias(leftGN.Alias, withSQLAlias(b.ctx.Tables[leftGN.Alias], v.Alias))
			bound[leftGN.Alias] = true
		}
	} else {
		leftDirectlyEmbedded = false
		lf, lw, err := b.collectFactors(v.Left, bound)
		if err != nil {
			return nil, nil, err
		}
		factors = append(factors, lf...)
		where = append(where, lw...)
	}

	es := b.edgeSchemaFor(v)
	if es == nil {
		return b.vlpFactors(v, bound, factors, where)
	}

	leftNode := adjacentEndpoint(v.Left)
	rightNode := adjacentEndpoint(v.Right)
	leftCol, rightCol := es.FromID.First(), es.ToID.First()
	if v.Direction == ast.In {
		leftCol, rightCol = es.ToID.First(), es.FromID.First()
	}

	var centerOn []string
	if !leftDirectlyEmbedded && leftNode != nil {
		if idCol, ok := b.identifierFor(leftNode.Labels); ok {
			centerOn = append(centerOn, fmt.Sprintf("%s.%s = %s.%s", b.sqlAliasFor(leftNode.Alias), idCol, v.Alias, leftCol))
		}
	}

	relKind := "JOIN"
	centerBody, err := b.renderViewScan(v.Center)
	if err != nil {
		return nil, nil, err
	}
	if len(factors) == 0 {
		relKind = "JOIN" // overridden to FROM by factorsToSQL for index 0
	}
	factors = append(factors, factor{Body: centerBody, Kind: relKind, On: strings.Join(centerOn, " AND ")})
	if v.Alias != "" {
		bound[v.Alias] = true
	}

	rightGN, rightDirectlyEmbedded := v.Right.(*plan.GraphNode)
	if rightDirectlyEmbedded && rightGN.IsEmbeddedInEdge {
		if !bound[rightGN.Alias] {
			b.ctx.BindAlias(rightGN.Alias, withSQLAlias(b.ctx.Tables[rightGN.Alias], v.Alias))
			bound[rightGN.Alias] = true
		}
		return factors, where, nil
	}

	var rightCond string
	if rightNode != nil {
		if idCol, ok := b.identifierFor(rightNode.Labels); ok {
			rightCond = fmt.Sprintf("%s.%s = %s.%s", v.Alias, rightCol, rightNode.Alias, idCol)
		}
	}
	if rightNode != nil && bound[rightNode.Alias] {
		if rightCond != "" {
			where = append(where, rightCond)
		}
		return factors, where, nil
	}

	rf, rw, err := b.collectFactors(v.Right, bound)
	if err != nil {
		return nil, nil, err
	}
	if len(rf) > 0 {
		rf[0].On = rightCond
	}
	factors = append(factors, rf...)
	where = append(where, rw...)
	return factors, where, nil
}

// withSQLAlias returns a copy of tc (or a fresh TableCtx for alias if tc is
// nil) with SQLAlias set to relAlias, redirecting a denormalized endpoint's
// column qualification onto its owning relationship's row.
func withSQLAlias(tc *plan.TableCtx, relAlias string) *plan.TableCtx {
	if tc == nil {
		return &plan.TableCtx{SQLAlias: relAlias}
	}
	cp := *tc
	cp.SQLAlias = relAlias
	return &cp
}

// vlpFactors wires a multi-candidate or variable-length relationship
// through internal/render/vlp, joining the generated subquery to whichever
// endpoints weren't already embedded/bound exactly like a fixed-length hop.
func (b *Builder) vlpFactors(v *plan.GraphRel, bound map[string]bool, factors []factor, where []string) ([]factor, []string, error) {
	leftNode := adjacentEndpoint(v.Left)
	rightNode := adjacentEndpoint(v.Right)
	if leftNode == nil || rightNode == nil {
		return nil, nil, fmt.Errorf("variable-length relationship %q has no resolvable endpoint node", v.Alias)
	}

	relAlias := v.Alias
	if relAlias == "" {
		relAlias = fmt.Sprintf("vlp_%d", b.ctx.NextCteID())
	}

	req := &vlp.Request{
		Candidates:   v.Candidates,
		Direction:    v.Direction,
		VarLength:    v.VarLength,
		PathMode:     v.PathMode,
		ShortestMode: v.ShortestMode,
		FromLabels:   leftNode.Labels,
		ToLabels:     rightNode.Labels,
		NextID:       b.ctx.NextCteID,
	}
	res, err := vlp.Build(req)
	if err != nil {
		return nil, nil, err
	}

	var centerOn []string
	if idCol, ok := b.identifierFor(leftNode.Labels); ok {
		centerOn = append(centerOn, fmt.Sprintf("%s.%s = %s.%s", b.sqlAliasFor(leftNode.Alias), idCol, relAlias, res.FromColumn))
	}
	factors = append(factors, factor{Body: fmt.Sprintf("%s AS %s", res.SQL, relAlias), Kind: "JOIN", On: strings.Join(centerOn, " AND ")})
	if v.Alias != "" {
		bound[v.Alias] = true
	}

	var rightCond string
	if idCol, ok := b.identifierFor(rightNode.Labels); ok {
		rightCond = fmt.Sprintf("%s.%s = %s.%s", relAlias, res.ToColumn, rightNode.Alias, idCol)
	}
	if bound[rightNode.Alias] {
		if rightCond != "" {
			where = append(where, rightCond)
		}
		return factors, where, nil
	}

	rf, rw, err := b.collectFactors(v.Right, bound)
	if err != nil {
		return nil, nil, err
	}
	if len(rf) > 0 {
		rf[0].On = rightCond
	}
	factors = append(factors, rf...)
	where = append(where, rw...)
	return factors, where, nil
}

// unwindFactors builds its input's factors then appends a ClickHouse ARRAY
// JOIN over the unwound expression. When the element alias (or the alias it
// was UNWOUND from, via ElementShapeAlias) was bound from collect(x) over a
// real node/relationship alias x, its AvailableColumns are copied from x's
// so a later `elem.prop` dot-access resolves against the named tuple
// variableRefTuple produced.
func (b *Builder) unwindFactors(v *plan.Unwind, bound map[string]bool) ([]factor, []string, error) {
	factors, where, err := b.collectFactors(v.Input, bound)
	if err != nil {
		return nil, nil, err
	}
	arrSQL, err := ExprToSQL(v.SourceExpr, b.gs, b.ctx, false)
	if err != nil {
		return nil, nil, err
	}
	if tc, ok := b.ctx.Tables[v.ElementAlias]; ok && tc.ElementShapeAlias != "" {
		if src, ok := b.ctx.Tables[tc.ElementShapeAlias]; ok && len(src.AvailableColumns) > 0 {
			tc.AvailableColumns = src.AvailableColumns
			tc.Labels = src.Labels
			tc.IsEdge = src.IsEdge
		}
	}
	factors = append(factors, factor{Body: fmt.Sprintf("%s AS %s", arrSQL, v.ElementAlias), Kind: "ARRAY JOIN"})
	bound[v.ElementAlias] = true
	return factors, where, nil
}

// rewriteAliasesForCTE mutates ctx.Tables for every item this WITH
// projected, once its CTE body has been registered: a pass-through node/
// relationship item (possibly renamed) gets AvailableColumns rewritten to
// the CTE's flattened `<target>_<property>` output names (via ExpandAlias's
// own naming convention, so resolveColumn/rewrittenColumn find them the
// same way downstream); a plain scalar item keeps its single-column shape.
// Every rewritten alias gets SQLAlias set to cteName so later references
// qualify into the CTE instead of a base table.
func (b *Builder) rewriteAliasesForCTE(items []plan.ProjItem, cteName string) {
	for _, it := range items {
		targetName := it.Alias
		sourceName := ""
		if vr, ok := asVariableRef(it.Expr); ok {
			if targetName == "" {
				targetName = vr.Name
			}
			sourceName = vr.Name
		}
		if targetName == "" {
			continue
		}
		tc, ok := b.ctx.Tables[targetName]
		if !ok {
			continue
		}
		if sourceName != "" {
			if src, ok := b.ctx.Tables[sourceName]; ok && (src.IsEdge || len(src.Labels) > 0) {
				var cols []plan.ColumnRef
				seen := map[string]bool{}
				for _, c := range src.AvailableColumns {
					cols = append(cols, plan.ColumnRef{Property: c.Property, Column: targetName + "_" + c.Property})
					seen[c.Property] = true
				}
				for _, phys := range identifierOrDiscriminatorColumns(b.gs, src) {
					if seen[phys] {
						continue
					}
					cols = append(cols, plan.ColumnRef{Property: phys, Column: targetName + "_" + phys})
				}
				tc.AvailableColumns = cols
				tc.SQLAlias = cteName
				continue
			}
		}
		tc.AvailableColumns = []plan.ColumnRef{{Property: targetName, Column: targetName}}
		tc.SQLAlias = cteName
	}
}

func asVariableRef(e plan.Expr) (*ast.VariableRef, bool) {
	raw, ok := e.(*plan.RawExpr)
	if !ok {
		return nil, false
	}
	vr, ok := raw.E.(*ast.VariableRef)
	return vr, ok
}

// buildSelectList renders one projection's items: a bare (possibly renamed)
// node/relationship alias reference expands via ExpandAlias into every one
// of its available columns; anything else renders through ExprToSQL with
// its declared alias or a derived default output name.
func (b *Builder) buildSelectList(items []plan.ProjItem, needsAgg bool) ([]Column, error) {
	var out []Column
	for _, it := range items {
		if vr, ok := asVariableRef(it.Expr); ok {
			if tc, ok := b.ctx.Tables[vr.Name]; ok && (tc.IsEdge || len(tc.Labels) > 0) {
				targetName := it.Alias
				if targetName == "" {
					targetName = vr.Name
				}
				expanded, err := ExpandAlias(b.gs, b.ctx, vr.Name, targetName, needsAgg)
				if err != nil {
					return nil, err
				}
				out = append(out, expanded...)
				continue
			}
		}
		sql, err := ExprToSQL(it.Expr, b.gs, b.ctx, needsAgg)
		if err != nil {
			return nil, err
		}
		name := it.Alias
		if name == "" {
			name = defaultOutputName(it.Expr)
		}
		out = append(out, Column{SQL: sql, OutputName: name})
	}
	return out, nil
}

func defaultOutputName(e plan.Expr) string {
	raw, ok := e.(*plan.RawExpr)
	if !ok {
		return "col"
	}
	switch v := raw.E.(type) {
	case *ast.VariableRef:
		return v.Name
	case *ast.Property:
		return v.Alias + "_" + v.Property
	case *ast.FnCall:
		return strings.ToLower(v.Name)
	case *ast.Aggregate:
		return aggDefaultName(v.Kind)
	case *ast.Literal:
		return "literal"
	case *ast.PatternCount:
		return "size"
	case *ast.PathPattern:
		return "path"
	default:
		return "expr"
	}
}

func aggDefaultName(k ast.AggregateKind) string {
	switch k {
	case ast.AggCount:
		return "count"
	case ast.AggCollect:
		return "collect"
	case ast.AggSum:
		return "sum"
	case ast.AggAvg:
		return "avg"
	case ast.AggMin:
		return "min"
	case ast.AggMax:
		return "max"
	default:
		return "agg"
	}
}

func projectionHasAggregate(items []plan.ProjItem) bool {
	for _, it := range items {
		if exprHasAggregate(it.Expr) {
			return true
		}
	}
	return false
}

func exprHasAggregate(e plan.Expr) bool {
	raw, ok := e.(*plan.RawExpr)
	if !ok {
		return false
	}
	return astHasAggregate(raw.E)
}

func astHasAggregate(e ast.Expression) bool {
	switch v := e.(type) {
	case nil:
		return false
	case *ast.Aggregate:
		return true
	case *ast.BinaryOp:
		return astHasAggregate(v.Left) || astHasAggregate(v.Right)
	case *ast.UnaryOp:
		return astHasAggregate(v.Operand)
	case *ast.InList:
		return astHasAggregate(v.Target) || astHasAggregate(v.List)
	case *ast.FnCall:
		for _, a := range v.Args {
			if astHasAggregate(a) {
				return true
			}
		}
		return false
	case *ast.CaseExpr:
		if astHasAggregate(v.Operand) {
			return true
		}
		for _, w := range v.Whens {
			if astHasAggregate(w.When) || astHasAggregate(w.Then) {
				return true
			}
		}
		return astHasAggregate(v.Else)
	default:
		return false
	}
}

// aggPrefixes are the rendered SQL prefixes of every aggregate-like
// expression buildGroupBy must NOT include as a GROUP BY key: the anyLast
// wrapper expand_alias/property-access apply to every non-identifier bare
// column under needsAgg, and the aggregate function calls themselves.
var aggPrefixes = []string{"anyLast(", "count(", "count()", "sum(", "avg(", "min(", "max(", "groupArray(", "groupUniqArray(", "tuple("}

// buildGroupBy groups by every rendered select-list column that is neither
// already aggregate-wrapped nor itself an aggregate call: under needsAgg,
// ExprToSQL/ExpandAlias wrap every other non-identifier column in
// anyLast(...), so whatever's left bare is exactly what ClickHouse requires
// in GROUP BY.
func buildGroupBy(cols []Column) string {
	var keys []string
	for _, c := range cols {
		isAgg := false
		for _, p := range aggPrefixes {
			if strings.HasPrefix(c.SQL, p) {
				isAgg = true
				break
			}
		}
		if !isAgg {
			keys = append(keys, c.SQL)
		}
	}
	return strings.Join(keys, ", ")
}
