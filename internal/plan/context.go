package plan

import "github.com/clickgraph/cyphersql/internal/schema"

// TableCtx records what the planner/analyzer know about one bound alias:
// its declared labels (possibly several, for multi-label/polymorphic
// patterns) and whether it denotes a node or a relationship.
type TableCtx struct {
	Alias  string
	Labels []string
	IsEdge bool
	// AvailableColumns is filled by the projected-column resolver (§4.3(c)):
	// every (property, column) pair the schema makes available for this alias.
	AvailableColumns []ColumnRef
	// EdgeSchema is set by planbuilder when this alias names a relationship
	// resolved to exactly one EdgeSchema (the common case): render's
	// type()/id() lowering and polymorphic-filter handling read it directly
	// instead of re-deriving it. Left nil for a still-ambiguous
	// (multi-candidate) or variable-length relationship alias.
	EdgeSchema *schema.EdgeSchema

	// ElementShapeAlias is set by the planner when this alias is bound from
	// `collect(x) AS alias` for a node/relationship alias x: it remembers x's
	// name so that a later `UNWIND alias AS elem` can bind elem as a
	// synthetic node-shaped alias (elem's AvailableColumns copied from x's,
	// once the analyzer has filled those in) instead of an opaque scalar.
	ElementShapeAlias string

	// SQLAlias is filled by the render builder (not the analyzer), never by
	// planbuilder: it redirects this Cypher alias's columns to a different
	// SQL table alias whenever they don't live on a FROM source named after
	// the alias itself. Two render-time situations set it: a denormalized
	// node embedded in its owning relationship's own scan (AvailableColumns
	// keep their original physical column names, SQLAlias becomes the
	// relationship's), and an alias re-exposed across a hoisted WITH-clause
	// CTE boundary (AvailableColumns are rewritten to the CTE's flattened
	// `<alias>_<property>` output names, SQLAlias becomes the CTE's name).
	// Empty means "use the alias itself as its own SQL table alias".
	SQLAlias string
}

// RequirementSet is either a concrete set of required properties or the
// WILDCARD sentinel meaning "every property this alias has is needed"
// (produced by a bare alias reference, e.g. `RETURN friend`).
type RequirementSet struct {
	Wildcard   bool
	Properties map[string]bool
}

// NewRequirementSet returns an empty (non-wildcard) requirement set.
func NewRequirementSet() *RequirementSet {
	return &RequirementSet{Properties: map[string]bool{}}
}

// Add records that property p is required. A no-op once Wildcard is set.
func (r *RequirementSet) Add(p string) {
	if r.Wildcard {
		return
	}
	r.Properties[p] = true
}

// MarkWildcard upgrades this set to WILDCARD.
func (r *RequirementSet) MarkWildcard() {
	r.Wildcard = true
	r.Properties = nil
}

// Has reports whether property p is required (always true under WILDCARD).
func (r *RequirementSet) Has(p string) bool {
	if r == nil {
		return false
	}
	if r.Wildcard {
		return true
	}
	return r.Properties[p]
}

// TaggedFilter is one WHERE conjunct after filter tagging (§4.3(b)): it
// knows which aliases it references and the scope it was assigned to.
type TaggedFilter struct {
	Predicate Expr
	Aliases   map[string]bool
	ScopeID   int
}

// Scope is one WITH/RETURN scope boundary. Scope 0 is the outermost (first
// MATCH..RETURN or MATCH..WITH segment); each WITH pushes ScopeID+1.
type Scope struct {
	ID      int
	Aliases map[string]bool
}

// Context is the side-car PlanContext accompanying a LogicalPlan tree:
// alias -> TableCtx, the scope stack, tagged filter predicates keyed by
// scope, and the property-requirements map filled by the requirements
// analyzer. Cross-cutting state lives here, keyed by alias/scope id, not by
// object identity (spec.md §9 "Plan trees with ownership").
type Context struct {
	Tables       map[string]*TableCtx
	Scopes       []*Scope
	TaggedFilters []*TaggedFilter
	// Requirements maps alias -> required properties (or WILDCARD), filled by
	// the property-requirements analyzer (§4.3(f)). The requirements pass
	// records only what expressions read; optimizer.EliminateDeadProperties
	// keeps an alias's identifier column(s) alongside any concrete
	// requirement (not enforced here).
	Requirements map[string]*RequirementSet

	// NodeAppearances is created empty by NewContext; no pass in this tree
	// fills or reads it (the graph-join-inference pass finds shared aliases
	// by walking the plan tree with aliasesIn instead).
	NodeAppearances map[string][]Appearance

	nextCteID int
}

// Appearance records one GraphRel's binding of a shared node alias.
type Appearance struct {
	RelAlias   string
	Table      string
	IDColumns  []string
	Role       string // "from" or "to"
}

// NewContext returns an empty PlanContext with scope 0 already pushed.
func NewContext() *Context {
	c := &Context{
		Tables:          map[string]*TableCtx{},
		Requirements:    map[string]*RequirementSet{},
		NodeAppearances: map[string][]Appearance{},
	}
	c.PushScope()
	return c
}

// PushScope starts a new scope (called once per WITH clause encountered by
// the planner) and returns its id.
func (c *Context) PushScope() int {
	id := len(c.Scopes)
	c.Scopes = append(c.Scopes, &Scope{ID: id, Aliases: map[string]bool{}})
	return id
}

// CurrentScope returns the innermost (most recently pushed) scope.
func (c *Context) CurrentScope() *Scope {
	return c.Scopes[len(c.Scopes)-1]
}

// BindAlias records that alias is visible starting at the current scope.
func (c *Context) BindAlias(alias string, tc *TableCtx) {
	c.Tables[alias] = tc
	c.CurrentScope().Aliases[alias] = true
}

// InnermostScopeFor returns the id of the innermost scope in which every one
// of the given aliases is visible, or -1 if no such scope exists (the caller
// should raise FilterBindingError in that case).
func (c *Context) InnermostScopeFor(aliases map[string]bool) int {
	for i := len(c.Scopes) - 1; i >= 0; i-- {
		s := c.Scopes[i]
		all := true
		for a := range aliases {
			if !c.visibleInOrBefore(a, i) {
				all = false
				break
			}
		}
		if all {
			return s.ID
		}
	}
	return -1
}

func (c *Context) visibleInOrBefore(alias string, scopeID int) bool {
	for i := 0; i <= scopeID && i < len(c.Scopes); i++ {
		if c.Scopes[i].Aliases[alias] {
			return true
		}
	}
	return false
}

// RequireProperty records that alias.property is needed downstream,
// creating the alias's RequirementSet on first use.
func (c *Context) RequireProperty(alias, property string) {
	rs, ok := c.Requirements[alias]
	if !ok {
		rs = NewRequirementSet()
		c.Requirements[alias] = rs
	}
	rs.Add(property)
}

// RequireWildcard records that every property of alias is needed downstream
// (a bare alias reference).
func (c *Context) RequireWildcard(alias string) {
	rs, ok := c.Requirements[alias]
	if !ok {
		rs = NewRequirementSet()
		c.Requirements[alias] = rs
	}
	rs.MarkWildcard()
}

// MergeRequirements folds alias from's required properties into alias to's
// (creating to's RequirementSet on first use). Used to propagate a
// downstream UNWIND's property needs back onto the collect(...) source it
// was unwound from (spec.md §4.3(f)).
func (c *Context) MergeRequirements(from, to string) {
	src, ok := c.Requirements[from]
	if !ok {
		return
	}
	if src.Wildcard {
		c.RequireWildcard(to)
		return
	}
	for p := range src.Properties {
		c.RequireProperty(to, p)
	}
}

// NextCteID returns a monotonically increasing integer unique within this
// compilation. generate_cte_id() (spec.md §3/§5) builds on this: it must not
// share mutable state across compilations, so it lives on the per-compile
// Context, never as a package-level counter.
func (c *Context) NextCteID() int {
	c.nextCteID++
	return c.nextCteID
}
