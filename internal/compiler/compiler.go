// Package compiler wires Parser -> Planner -> Analyzer -> Optimizer ->
// Render -> Emit into the single conceptual entry point spec.md §6 calls
// compile(cypher, schema, parameter_types, view_parameter_names), fronted
// by a process-wide LRU cache keyed on (cypher, schema name) as spec.md §5
// requires ("implementations MUST ensure concurrent read/insert safety").
// github.com/hashicorp/golang-lru's Cache already serializes Add/Get behind
// its own mutex, so no further locking is needed here.
package compiler

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"github.com/sirupsen/logrus"

	"github.com/clickgraph/cyphersql/internal/analyzer"
	"github.com/clickgraph/cyphersql/internal/compileerr"
	"github.com/clickgraph/cyphersql/internal/cypher/parser"
	"github.com/clickgraph/cyphersql/internal/emit"
	"github.com/clickgraph/cyphersql/internal/optimizer"
	"github.com/clickgraph/cyphersql/internal/plan"
	"github.com/clickgraph/cyphersql/internal/planbuilder"
	"github.com/clickgraph/cyphersql/internal/render"
	"github.com/clickgraph/cyphersql/internal/schema"
)

// TypeHint narrows how a Cypher parameter's value should be interpreted
// when it cannot be inferred structurally. The compiler accepts these (as
// spec.md §6's conceptual signature requires) but the render/emit stages
// never need one: substitution formats every value by its own Go runtime
// type (internal/emit.FormatValue), so a hint only ever matters for a
// parameter occurring solely in an IN-list with every supplied value nil,
// and even then TypeHint is not read. No stage infers a parameter's type:
// a list value is formatted element by element, each by its own Go type,
// and an all-nil list takes no type from anywhere. Kept in the signature for interface fidelity with
// a future positional-binding executor.
type TypeHint int

const (
	TypeHintUnknown TypeHint = iota
	TypeHintString
	TypeHintInt
	TypeHintFloat
	TypeHintBool
)

// CompiledTemplate is the result of a successful Compile: a SQL string with
// `$name` placeholders still in place, plus the free parameter names in
// first-occurrence order and any non-fatal warnings collected along the
// way.
type CompiledTemplate struct {
	SQLTemplate    string
	ParameterOrder []string
	Warnings       []string

	// plan is kept only so DebugPlan can describe the tree that produced
	// SQLTemplate; it is never part of the cache key or the template itself.
	plan planDebugInfo
}

type planDebugInfo struct {
	tree plan.Node
	ctx  *plan.Context
}

// cacheKey is (Cypher text, schema name). The Cypher text is used exactly as
// given, without normalization: two queries that differ only in whitespace
// or keyword case are cached as separate entries.
type cacheKey struct {
	cypher     string
	schemaName string
}

// Compiler holds the process-wide compiled-SQL cache. One Compiler should
// be shared across all request-handling goroutines in a process; its
// methods are safe for concurrent use.
type Compiler struct {
	cache *lru.Cache
	log   *logrus.Entry
}

// defaultCacheSize bounds the LRU per spec.md §5 ("Cache eviction policy is
// LRU with a configurable bound; eviction never blocks a reader").
const defaultCacheSize = 1024

// New returns a Compiler with a cache of the default bound. log may be nil.
func New(log *logrus.Entry) *Compiler {
	return NewWithCacheSize(defaultCacheSize, log)
}

// NewWithCacheSize returns a Compiler whose cache holds at most size
// compiled templates.
func NewWithCacheSize(size int, log *logrus.Entry) *Compiler {
	c, err := lru.New(size)
	if err != nil {
		// Only returned by golang-lru when size <= 0; defaultCacheSize is a
		// positive constant, and NewWithCacheSize callers are expected to pass
		// a positive bound too.
		panic(fmt.Sprintf("compiler: invalid cache size %d: %s", size, err))
	}
	return &Compiler{cache: c, log: log}
}

// Compile lowers cypher against gs into a CompiledTemplate, fulfilling
// spec.md §6's compile() entry point. parameterTypes and viewParameterNames
// are accepted for interface fidelity (see TypeHint); viewParameterNames
// marks which `$name` placeholders the request's view_parameters map (not
// its ordinary parameters map) supplies at substitution time — compile
// itself does not need to distinguish them, since both share the same
// placeholder syntax in SQLTemplate and internal/emit.Substitute resolves
// each by trying the ordinary map first, the view map second.
func (c *Compiler) Compile(cypher string, gs *schema.GraphSchema, parameterTypes map[string]TypeHint, viewParameterNames map[string]bool) (*CompiledTemplate, error) {
	key := cacheKey{cypher: cypher, schemaName: gs.Name}
	if v, ok := c.cache.Get(key); ok {
		return v.(*CompiledTemplate), nil
	}

	tmpl, err := compileUncached(cypher, gs, c.log)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, tmpl)
	return tmpl, nil
}

// DebugPlan recompiles cypher against gs (bypassing the cache, since the
// cache only stores the finished template) and returns a human-readable
// dump of the analyzed/optimized LogicalPlan tree, for tooling that needs
// to inspect what compile() produced before rendering rather than the SQL
// itself.
func (c *Compiler) DebugPlan(cypher string, gs *schema.GraphSchema) (string, error) {
	tmpl, err := compileUncached(cypher, gs, c.log)
	if err != nil {
		return "", err
	}
	return describePlan(tmpl.plan.tree, 0), nil
}

func compileUncached(cypher string, gs *schema.GraphSchema, log *logrus.Entry) (*CompiledTemplate, error) {
	q, err := parser.Parse(cypher)
	if err != nil {
		return nil, err
	}

	warnings := &compileerr.Warnings{}
	pb := planbuilder.New(gs, warnings)
	tree, ctx, err := pb.Build(q)
	if err != nil {
		return nil, err
	}

	az := analyzer.New(gs, warnings, log)
	tree, err = az.Analyze(tree, ctx)
	if err != nil {
		return nil, err
	}

	tree, err = optimizer.Optimize(tree, ctx, gs)
	if err != nil {
		return nil, err
	}

	rp, err := render.Build(tree, gs, ctx, log)
	if err != nil {
		return nil, err
	}

	sqlText, err := emit.Assemble(rp)
	if err != nil {
		return nil, err
	}

	return &CompiledTemplate{
		SQLTemplate:    sqlText,
		ParameterOrder: emit.FreeVariables(sqlText),
		Warnings:       warnings.List(),
		plan:           planDebugInfo{tree: tree, ctx: ctx},
	}, nil
}

func describePlan(n plan.Node, depth int) string {
	if n == nil {
		return ""
	}
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	out := fmt.Sprintf("%s%T\n", indent, n)
	for _, c := range n.Children() {
		out += describePlan(c, depth+1)
	}
	return out
}
