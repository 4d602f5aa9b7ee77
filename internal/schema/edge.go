package schema

import "fmt"

// EdgeKind tags the EdgeSchema sum type: an edge is either Standard (one
// physical (type, from_label, to_label) triple) or Polymorphic (many triples
// discriminated by columns at query time, expanded into Standard entries at
// schema-load time).
type EdgeKind int

const (
	// Standard is a one-type-per-table edge declaration.
	Standard EdgeKind = iota
	// Polymorphic is a multi-type-per-table edge declaration; it never
	// survives past LoadGraphSchema as a GraphSchema.EdgesByType entry itself —
	// only the Standard entries it expands into do.
	Polymorphic
)

// ImplicitFilter is a single equality condition a polymorphic edge's physical
// expansion carries, e.g. interaction_type = 'FOLLOWS'.
type ImplicitFilter struct {
	Column string
	Value  string
}

// EdgeSchema is either a Standard or Polymorphic edge declaration. Standard
// fields are always populated; PolySource is non-nil only for an EdgeSchema
// that was produced by expanding a polymorphic declaration, and records the
// discriminator columns/implicit filters for render-time SELECT wrapping
// (spec.md §4.5 "Polymorphic SELECT filters").
type EdgeSchema struct {
	Kind EdgeKind

	Type      string
	Database  string
	Table     string
	FromID    Identifier
	ToID      Identifier
	FromLabel string
	ToLabel   string

	// EdgeID is the edge's own identifier, used for edge-uniqueness filters in
	// variable-length paths. Defaults to (FromID, ToID) with a warning if the
	// source declaration omits one (spec.md §3 Identifier invariant).
	EdgeID Identifier

	// FromNodeProperties/ToNodeProperties back a denormalized/virtual node's
	// properties when that node's own NodeSchema.PropertyMap is empty.
	FromNodeProperties map[string]string
	ToNodeProperties   map[string]string

	PropertyMap map[string]string

	// PolySource is set when this EdgeSchema was expanded from a polymorphic
	// declaration; it carries the discriminator columns/values to render the
	// subquery-wrapped ViewScan (spec.md §4.5).
	PolySource *PolymorphicSource
}

// PolymorphicSource carries the discriminator columns and the implicit
// filters (type_column, from_label_column, to_label_column) that a Standard
// EdgeSchema expanded from a Polymorphic declaration must apply.
type PolymorphicSource struct {
	TypeColumn      string
	FromLabelColumn string
	ToLabelColumn   string
	Filters         []ImplicitFilter
}

// QualifiedTable returns "database.table" for SQL emission.
func (e *EdgeSchema) QualifiedTable() string {
	return fmt.Sprintf("%s.%s", e.Database, e.Table)
}

// IsPolymorphic reports whether this entry was expanded from a polymorphic
// declaration and therefore needs the subquery/WHERE wrapping at render time.
func (e *EdgeSchema) IsPolymorphic() bool {
	return e.PolySource != nil
}

// PolymorphicEdgeDecl is the raw (pre-expansion) declaration for a
// polymorphic edge, as deserialized from the schema YAML.
type PolymorphicEdgeDecl struct {
	Database        string
	Table           string
	FromID          Identifier
	ToID            Identifier
	TypeColumn      string
	FromLabelColumn string
	ToLabelColumn   string
	// TypeValues lists the relationship types this declaration expands into;
	// if empty, nothing is expanded and a warning is recorded instead.
	TypeValues  []string
	PropertyMap map[string]string
}

// StandardEdgeDecl is the raw (pre-expansion) declaration for a standard edge.
type StandardEdgeDecl struct {
	Type               string
	Database           string
	Table              string
	FromID             Identifier
	ToID               Identifier
	FromLabel          string
	ToLabel            string
	EdgeID             Identifier
	FromNodeProperties map[string]string
	ToNodeProperties   map[string]string
	PropertyMap        map[string]string
}
