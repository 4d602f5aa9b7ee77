// Package analyzer runs the ordered rule pipeline spec.md §4.3 describes as
// the seven passes (a)-(g): schema inference & label resolution, filter
// tagging, projected-column resolution, type inference & multi-label
// propagation, graph-join inference, property-requirements analysis, and
// filter pushdown. Every rule mutates (or rewrites, via plan.TransformUp)
// the same LogicalPlan/PlanContext pair in that fixed order — spec.md §9
// calls out this order as a correctness invariant, not just a convenience.
//
// The Rule{Name, Apply} / DefaultRules / a.Log shape follows the teacher
// lineage's analyzer directly (see
// other_examples/…-gitbase…-vendor…analyzer-rules.go.go): a flat slice of
// named rules applied in sequence, each logging what it is about to do.
package analyzer

import (
	"github.com/sirupsen/logrus"

	"github.com/clickgraph/cyphersql/internal/compileerr"
	"github.com/clickgraph/cyphersql/internal/plan"
	"github.com/clickgraph/cyphersql/internal/schema"
)

// RuleFunc is one analyzer pass: it receives the Analyzer (for logging and
// schema access), the current plan tree, and the side-car PlanContext, and
// returns the (possibly rewritten) tree.
type RuleFunc func(a *Analyzer, n plan.Node, ctx *plan.Context) (plan.Node, error)

// Rule pairs a diagnostic name with the pass it runs.
type Rule struct {
	Name  string
	Apply RuleFunc
}

// DefaultRules is the fixed pipeline order spec.md §4.3/§9 mandates.
var DefaultRules = []Rule{
	{"resolve_schema_labels", resolveSchemaLabels},
	{"tag_filters", tagFilters},
	{"resolve_projected_columns", resolveProjectedColumns},
	{"infer_endpoint_types", inferEndpointTypes},
	{"infer_graph_joins", inferGraphJoins},
	{"analyze_requirements", analyzeRequirements},
	{"pushdown_filters", func(a *Analyzer, n plan.Node, ctx *plan.Context) (plan.Node, error) {
		return PushdownFilters(n, ctx)
	}},
}

// Analyzer runs DefaultRules against one schema.GraphSchema, logging via
// logrus and collecting non-fatal diagnostics onto a compileerr.Warnings.
type Analyzer struct {
	schema   *schema.GraphSchema
	log      *logrus.Entry
	warnings *compileerr.Warnings
}

// New returns an Analyzer bound to gs. log may be nil, in which case a
// disabled (discard-output) logger is used.
func New(gs *schema.GraphSchema, warnings *compileerr.Warnings, log *logrus.Entry) *Analyzer {
	if log == nil {
		l := logrus.New()
		l.SetOutput(discardWriter{})
		log = logrus.NewEntry(l)
	}
	return &Analyzer{schema: gs, log: log, warnings: warnings}
}

// Log records a debug-level diagnostic, mirroring the teacher lineage's
// a.Log convention.
func (a *Analyzer) Log(format string, args ...interface{}) {
	a.log.Debugf(format, args...)
}

// Analyze runs every DefaultRules entry in order against n/ctx.
func (a *Analyzer) Analyze(n plan.Node, ctx *plan.Context) (plan.Node, error) {
	var err error
	for _, r := range DefaultRules {
		a.Log("running rule %s", r.Name)
		n, err = r.Apply(a, n, ctx)
		if err != nil {
			return nil, err
		}
	}
	return n, nil
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
