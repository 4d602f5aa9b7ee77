// Package emit turns a render.RenderPlan into one SQL statement text and
// substitutes `$name` parameter placeholders before execution (spec.md
// §4.6). It is the last stage of the compiler pipeline: nothing downstream
// of Assemble/Substitute touches the plan tree again.
package emit

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/clickgraph/cyphersql/internal/compileerr"
	"github.com/clickgraph/cyphersql/internal/render"
)

var cteRefPattern = regexp.MustCompile(`\bcte_[0-9]+\b`)

// Assemble concatenates a RenderPlan's CTEs (already in dependency order,
// per CteRegistry.Defs) and its final SELECT into one `WITH ... SELECT ...`
// statement, or just the SELECT when there are no CTEs. It re-validates
// that every `cte_<n>` name appearing anywhere in the emitted text was
// actually registered — CteValidationError is an internal-bug-class
// signal, never expected from a correctly implemented render pass.
func Assemble(rp *render.RenderPlan) (string, error) {
	registered := make(map[string]bool, len(rp.Ctes))
	for _, d := range rp.Ctes {
		registered[d.Name] = true
	}

	var sb strings.Builder
	if len(rp.Ctes) > 0 {
		sb.WriteString("WITH ")
		parts := make([]string, len(rp.Ctes))
		for i, d := range rp.Ctes {
			parts[i] = fmt.Sprintf("%s AS (%s)", d.Name, d.SQL)
			for _, ref := range cteRefPattern.FindAllString(d.SQL, -1) {
				if !registered[ref] {
					return "", compileerr.ErrCteValidation.New(ref)
				}
			}
		}
		sb.WriteString(strings.Join(parts, ", "))
		sb.WriteString(" ")
	}
	sb.WriteString(rp.Select)

	for _, ref := range cteRefPattern.FindAllString(rp.Select, -1) {
		if !registered[ref] {
			return "", compileerr.ErrCteValidation.New(ref)
		}
	}

	return sb.String(), nil
}
