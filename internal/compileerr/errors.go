// Package compileerr declares the stable error kinds the compiler can return.
//
// Every kind is declared with errors.NewKind and instantiated with .New(args...),
// the same convention the analyzer rules in the teacher lineage use for
// ErrColumnTableNotFound / ErrAmbiguousColumnName.
package compileerr

import (
	"fmt"

	errors "gopkg.in/src-d/go-errors.v1"
)

var (
	// ErrParse is returned for invalid Cypher syntax, a parameter used in an
	// identifier position, or an unknown keyword.
	ErrParse = errors.NewKind("parse error at %d: %s")

	// ErrUnknownNodeLabel is returned when a label is not declared in the schema.
	ErrUnknownNodeLabel = errors.NewKind("unknown node label %q")

	// ErrUnknownRelationshipType is returned when a relationship type has no
	// explicit schema entry and no polymorphic fallback matches.
	ErrUnknownRelationshipType = errors.NewKind("unknown relationship type %q between labels %q and %q")

	// ErrSchemaConstraint covers denormalized nodes missing from/to property
	// maps, empty composite identifiers, and columns absent from a declared table.
	ErrSchemaConstraint = errors.NewKind("schema constraint violated: %s")

	// ErrFilterBinding is returned when a WHERE conjunct references an alias
	// that is not visible in any enclosing scope.
	ErrFilterBinding = errors.NewKind("filter references alias %q which is not in scope")

	// ErrPropertyNotFound is returned when a property is referenced that is not
	// present in the alias's resolved property map.
	ErrPropertyNotFound = errors.NewKind("property %q not found on alias %q")

	// ErrVariableLengthConstraint covers min > max and heterogeneous
	// variable-length paths that exceed the hop/type cap.
	ErrVariableLengthConstraint = errors.NewKind("variable-length constraint violated: %s")

	// ErrParameter is returned for a missing required parameter at substitution
	// time, or a parameter name that fails the identifier pattern.
	ErrParameter = errors.NewKind("parameter error: %s")

	// ErrCteValidation is an internal-bug-class error: a CTE name referenced by
	// emitted SQL that the registry never defined. It must never reach
	// production use of a correctly implemented pipeline.
	ErrCteValidation = errors.NewKind("internal error: CTE %q referenced but not registered")
)

// kindTable maps every sentinel above to the stable tag spec.md §7 requires
// the HTTP surface to carry. Order matches the declaration order above.
var kindTable = []struct {
	kind string
	is   func(error) bool
}{
	{"ParseError", ErrParse.Is},
	{"UnknownNodeLabel", ErrUnknownNodeLabel.Is},
	{"UnknownRelationshipType", ErrUnknownRelationshipType.Is},
	{"SchemaConstraintError", ErrSchemaConstraint.Is},
	{"FilterBindingError", ErrFilterBinding.Is},
	{"PropertyNotFound", ErrPropertyNotFound.Is},
	{"VariableLengthConstraintError", ErrVariableLengthConstraint.Is},
	{"ParameterError", ErrParameter.Is},
	{"CteValidationError", ErrCteValidation.Is},
}

// Kind returns the stable kind tag for err, discriminating by sentinel
// identity via each Err*.Is (the same check errors_test.go already uses),
// not by message text. Returns "CompileError" for any error that isn't one
// of the sentinels above, e.g. a plain fmt.Errorf surfaced from a package
// that hasn't been given a dedicated kind.
func Kind(err error) string {
	for _, k := range kindTable {
		if k.is(err) {
			return k.kind
		}
	}
	return "CompileError"
}

// Warnings is an ordered collection of non-fatal diagnostics attached to a
// CompiledTemplate. Unlike the hard error kinds above, a warning never aborts
// compilation.
type Warnings struct {
	messages []string
}

// Add appends a warning message, preserving emission order.
func (w *Warnings) Add(format string, args ...interface{}) {
	w.messages = append(w.messages, fmt.Sprintf(format, args...))
}

// List returns the accumulated warnings. The returned slice must not be
// mutated by callers.
func (w *Warnings) List() []string {
	if w == nil {
		return nil
	}
	return w.messages
}
