// Package vlp builds the SQL subquery a variable-length or
// shortestPath/allShortestPaths relationship pattern compiles down to.
// internal/render wires the result into its FROM clause exactly like any
// other table: a derived subquery exposing a start id, end id, and hop
// count, with the uniqueness/shortest-path semantics already folded in.
//
// A homogeneous pattern (every hop drawn from the same physical edge
// table) becomes a single ClickHouse recursive CTE walking that table.
// A heterogeneous pattern (candidates spanning more than one physical
// table, from a multi-type or multi-label relationship) instead enumerates
// every valid type chain up to maxHeterogeneousHops and unions one
// fixed-length JOIN chain per enumerated sequence — recursion can't cross
// tables, so the chain has to be spelled out.
package vlp

import (
	"fmt"
	"strings"

	"github.com/clickgraph/cyphersql/internal/compileerr"
	"github.com/clickgraph/cyphersql/internal/cypher/ast"
	"github.com/clickgraph/cyphersql/internal/schema"
)

// maxHeterogeneousHops bounds the union-of-join-chains enumeration: beyond
// this many hops the number of candidate sequences grows too fast to be
// worth spelling out inline.
const maxHeterogeneousHops = 3

// maxHeterogeneousRelTypes bounds the distinct relationship types a
// heterogeneous pattern may name, per spec.md §5's resource-bounds note
// ("variable-length-path enumeration (heterogeneous mode) is capped by
// max_hops <= 3 and |relationship_types| <= 5").
const maxHeterogeneousRelTypes = 5

// Result is the rendered subquery plus the column names the render builder
// should join the outer query's bound endpoints against.
type Result struct {
	SQL        string // already parenthesized, ready to use as a FROM factor
	FromColumn string
	ToColumn   string
	HopColumn  string
}

// Request carries everything Build needs, gathered by the render builder
// from the bound GraphRel/PlanContext/GraphSchema.
type Request struct {
	Candidates   []*schema.EdgeSchema
	Direction    ast.Direction
	VarLength    *ast.VarLength // nil means a single fixed hop
	PathMode     ast.PathMode
	ShortestMode ast.ShortestMode
	// FromLabels/ToLabels constrain the first/last hop of a heterogeneous
	// chain to the pattern's actually-declared endpoint labels; empty means
	// unconstrained (matches whatever the candidate list already allows).
	FromLabels []string
	ToLabels   []string
	// NextID names the nested recursive CTE uniquely within one compilation
	// (PlanContext.NextCteID in practice), so two variable-length patterns
	// in the same query never collide.
	NextID func() int
}

// Build dispatches to the homogeneous recursive-CTE generator when every
// candidate shares one physical table, or the heterogeneous union-of-chains
// enumerator otherwise.
func Build(req *Request) (*Result, error) {
	if len(req.Candidates) == 0 {
		return nil, fmt.Errorf("variable-length relationship has no resolved candidate edge types")
	}
	min, max := hopBounds(req.VarLength)
	if min > max {
		return nil, compileerr.ErrVariableLengthConstraint.New(fmt.Sprintf("min hops %d exceeds max hops %d", min, max))
	}
	if homogeneous(req.Candidates) {
		return buildHomogeneous(req, req.Candidates[0], min, max)
	}
	// Heterogeneous chains can't recurse (endpoint identifiers live in
	// different domains across hops), so every hop count up to max has to be
	// spelled out as its own JOIN chain; spec.md §4.4 caps this enumeration at
	// max_hops <= 3 rather than silently truncating a longer request.
	if max > maxHeterogeneousHops {
		return nil, compileerr.ErrVariableLengthConstraint.New(fmt.Sprintf(
			"heterogeneous variable-length path requests max hops %d, exceeding the cap of %d", max, maxHeterogeneousHops))
	}
	if n := distinctTypeCount(req.Candidates); n > maxHeterogeneousRelTypes {
		return nil, compileerr.ErrVariableLengthConstraint.New(fmt.Sprintf(
			"heterogeneous variable-length path names %d relationship types, exceeding the cap of %d", n, maxHeterogeneousRelTypes))
	}
	return buildHeterogeneous(req, min, max)
}

func distinctTypeCount(candidates []*schema.EdgeSchema) int {
	seen := map[string]bool{}
	for _, c := range candidates {
		seen[c.Type] = true
	}
	return len(seen)
}

func homogeneous(candidates []*schema.EdgeSchema) bool {
	first := candidates[0]
	for _, c := range candidates[1:] {
		if c.Database != first.Database || c.Table != first.Table {
			return false
		}
	}
	return true
}

func hopBounds(vl *ast.VarLength) (min, max int) {
	if vl == nil {
		return 1, 1
	}
	min, max = 1, maxHeterogeneousHops
	if vl.Min != nil {
		min = *vl.Min
	}
	if vl.Max != nil {
		max = *vl.Max
	}
	return min, max
}

// buildHomogeneous walks a single edge table with a ClickHouse recursive
// CTE, tracking both a node path and an edge-id path so Trail/Simple/
// Acyclic uniqueness (ast.PathMode) can be enforced without a second pass.
func buildHomogeneous(req *Request, es *schema.EdgeSchema, min, max int) (*Result, error) {
	cteName := fmt.Sprintf("vlp_%d", req.NextID())
	table := es.QualifiedTable()
	edgeIDCol := es.EdgeID.First()

	type dir struct{ from, to string }
	dirs := []dir{{es.FromID.First(), es.ToID.First()}}
	if req.Direction == ast.In {
		dirs = []dir{{es.ToID.First(), es.FromID.First()}}
	} else if req.Direction == ast.Either {
		dirs = append(dirs, dir{es.ToID.First(), es.FromID.First()})
	}

	var base, rec []string
	for _, d := range dirs {
		base = append(base, fmt.Sprintf(
			"SELECT e.%s AS start_id, e.%s AS end_id, 1 AS hop_count, [e.%s] AS node_path, [e.%s] AS edge_path FROM %s AS e",
			d.from, d.to, d.to, edgeIDCol, table))
		rec = append(rec, fmt.Sprintf(
			"SELECT p.start_id, e.%s AS end_id, p.hop_count + 1, arrayPushBack(p.node_path, e.%s), arrayPushBack(p.edge_path, e.%s) FROM %s AS p JOIN %s AS e ON e.%s = p.end_id WHERE p.hop_count < %d AND (%s)",
			d.to, d.to, edgeIDCol, cteName, table, d.from, max, uniqueCond(req.PathMode, edgeIDCol, d.to)))
	}

	body := fmt.Sprintf(
		"WITH RECURSIVE %s AS (\n%s\nUNION ALL\n%s\n)\nSELECT start_id, end_id, hop_count FROM %s WHERE hop_count BETWEEN %d AND %d",
		cteName, strings.Join(base, "\nUNION ALL\n"), strings.Join(rec, "\nUNION ALL\n"), cteName, min, max)

	sql := wrapShortest(body, req.ShortestMode)
	return &Result{SQL: "(" + sql + ")", FromColumn: "start_id", ToColumn: "end_id", HopColumn: "hop_count"}, nil
}

func uniqueCond(mode ast.PathMode, edgeIDCol, toCol string) string {
	switch mode {
	case ast.Trail:
		return fmt.Sprintf("NOT has(p.edge_path, e.%s)", edgeIDCol)
	case ast.Simple:
		return fmt.Sprintf("NOT has(p.edge_path, e.%s) AND NOT has(p.node_path, e.%s)", edgeIDCol, toCol)
	case ast.Acyclic:
		return fmt.Sprintf("e.%s != p.node_path[1]", toCol)
	default: // Walk
		return "1 = 1"
	}
}

// wrapShortest applies shortestPath()/allShortestPaths() selection over an
// already-built hop-count-annotated result set: the single minimum-hop row
// per (start_id, end_id) pair for shortestPath, or every row tied for that
// minimum for allShortestPaths.
func wrapShortest(body string, mode ast.ShortestMode) string {
	if mode == ast.NoShortest {
		return body
	}
	if mode == ast.Shortest {
		ranked := fmt.Sprintf(
			"SELECT *, row_number() OVER (PARTITION BY start_id, end_id ORDER BY hop_count ASC) AS rn FROM (%s)", body)
		return fmt.Sprintf("SELECT start_id, end_id, hop_count FROM (%s) WHERE rn = 1", ranked)
	}
	minned := fmt.Sprintf(
		"SELECT start_id, end_id, hop_count, min(hop_count) OVER (PARTITION BY start_id, end_id) AS min_hops FROM (%s)", body)
	return fmt.Sprintf("SELECT start_id, end_id, hop_count FROM (%s) WHERE hop_count = min_hops", minned)
}

// buildHeterogeneous enumerates every type/label chain of length min..max
// that Candidates supports — each hop's FromLabel must match the previous
// hop's ToLabel, the first hop's FromLabel must be one of FromLabels (if
// constrained), and a chain only qualifies at the length it stops on if its
// last hop's ToLabel is one of ToLabels (if constrained) — and unions one
// fixed-length JOIN chain of physical tables per sequence found.
func buildHeterogeneous(req *Request, min, max int) (*Result, error) {
	var chains [][]*schema.EdgeSchema
	var walk func(cur []*schema.EdgeSchema, label string)
	walk = func(cur []*schema.EdgeSchema, label string) {
		if len(cur) >= min && (len(req.ToLabels) == 0 || containsLabel(req.ToLabels, label)) {
			chains = append(chains, append([]*schema.EdgeSchema{}, cur...))
		}
		if len(cur) == max {
			return
		}
		for _, es := range req.Candidates {
			if len(cur) == 0 {
				if len(req.FromLabels) > 0 && !containsLabel(req.FromLabels, es.FromLabel) {
					continue
				}
			} else if es.FromLabel != label {
				continue
			}
			walk(append(append([]*schema.EdgeSchema{}, cur...), es), es.ToLabel)
		}
	}
	walk(nil, "")
	if len(chains) == 0 {
		return nil, fmt.Errorf("variable-length constraint violated: no relationship-type chain of length %d..%d connects the declared endpoint labels", min, max)
	}

	branches := make([]string, len(chains))
	for i, chain := range chains {
		branches[i] = buildChainSQL(chain, req.Direction)
	}
	body := strings.Join(branches, "\nUNION ALL\n")
	sql := wrapShortest(body, req.ShortestMode)
	return &Result{SQL: "(" + sql + ")", FromColumn: "start_id", ToColumn: "end_id", HopColumn: "hop_count"}, nil
}

func containsLabel(labels []string, l string) bool {
	for _, x := range labels {
		if x == l {
			return true
		}
	}
	return false
}

func buildChainSQL(chain []*schema.EdgeSchema, direction ast.Direction) string {
	n := len(chain)
	aliases := make([]string, n)
	fromCols := make([]string, n)
	toCols := make([]string, n)
	for i, es := range chain {
		aliases[i] = fmt.Sprintf("h%d", i)
		f, t := es.FromID.First(), es.ToID.First()
		if direction == ast.In {
			f, t = t, f
		}
		fromCols[i], toCols[i] = f, t
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s.%s AS start_id, %s.%s AS end_id, %d AS hop_count FROM %s AS %s",
		aliases[0], fromCols[0], aliases[n-1], toCols[n-1], n, chain[0].QualifiedTable(), aliases[0])
	for i := 1; i < n; i++ {
		fmt.Fprintf(&b, " JOIN %s AS %s ON %s.%s = %s.%s",
			chain[i].QualifiedTable(), aliases[i], aliases[i-1], toCols[i-1], aliases[i], fromCols[i])
	}

	var conds []string
	for i, es := range chain {
		if es.IsPolymorphic() {
			for _, f := range es.PolySource.Filters {
				conds = append(conds, fmt.Sprintf("%s.%s = '%s'", aliases[i], f.Column, escapeLiteral(f.Value)))
			}
		}
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if chain[i].Database == chain[j].Database && chain[i].Table == chain[j].Table && chain[i].EdgeID.First() != "" {
				conds = append(conds, fmt.Sprintf("%s.%s != %s.%s", aliases[i], chain[i].EdgeID.First(), aliases[j], chain[j].EdgeID.First()))
			}
		}
	}
	if len(conds) > 0 {
		fmt.Fprintf(&b, " WHERE %s", strings.Join(conds, " AND "))
	}
	return b.String()
}

func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
