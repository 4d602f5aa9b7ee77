// Package render turns an analyzed/optimized LogicalPlan into SQL text
// fragments: one per WITH scope boundary (registered as a CTE) plus the
// final top-level SELECT. internal/emit then assembles those fragments
// into one `WITH ... SELECT ...` statement and substitutes parameters.
package render

import "fmt"

// CteDef is one materialized WITH-clause body, keyed by the CteID the
// optimizer's CTE-hoisting pass assigned (internal/optimizer.HoistCTEs).
type CteDef struct {
	ID   int
	Name string
	SQL  string
}

// CteRegistry is generate_cte_id()'s render-time counterpart (spec.md §3,
// §4.5 "CteRegistry"): every CTE referenced anywhere in the final SQL must
// have been registered here first, or emission fails with CteValidationError
// (an internal-bug-class error — it means some render path produced a
// reference without registering the definition).
type CteRegistry struct {
	defs  []CteDef
	byID  map[int]CteDef
}

// NewCteRegistry returns an empty registry.
func NewCteRegistry() *CteRegistry {
	return &CteRegistry{byID: map[int]CteDef{}}
}

// Register records a CTE body under id, returning its generated SQL name.
// Registering the same id twice is a no-op that returns the existing name
// (a WithClause segment is only ever rendered once).
func (r *CteRegistry) Register(id int, sql string) string {
	if d, ok := r.byID[id]; ok {
		return d.Name
	}
	name := fmt.Sprintf("cte_%d", id)
	d := CteDef{ID: id, Name: name, SQL: sql}
	r.byID[id] = d
	r.defs = append(r.defs, d)
	return name
}

// Lookup returns the name and body previously registered for id.
func (r *CteRegistry) Lookup(id int) (CteDef, bool) {
	d, ok := r.byID[id]
	return d, ok
}

// Defs returns every registered CTE in registration order (dependency
// order: a CTE never references one registered after it, since a WITH's CTE
// is registered only after its input, and so every inner WITH, is rendered).
func (r *CteRegistry) Defs() []CteDef {
	return r.defs
}
