package schema

import "fmt"

// NodeSchema is the in-memory representation of a declared node label:
// { label, database, table, identifier, property_map }.
//
// A node is virtual/denormalized iff its Table equals some edge's Table and
// its PropertyMap is empty: its properties are derived from that edge's
// FromNodeProperties/ToNodeProperties instead of a standalone row.
type NodeSchema struct {
	Label      string
	Database   string
	Table      string
	Identifier Identifier

	// PropertyMap maps a Cypher property name to a physical column name.
	PropertyMap map[string]string
}

// QualifiedTable returns "database.table" for SQL emission.
func (n *NodeSchema) QualifiedTable() string {
	return fmt.Sprintf("%s.%s", n.Database, n.Table)
}

// Column resolves a Cypher property name to a physical column, reporting
// whether the property is declared on this node.
func (n *NodeSchema) Column(property string) (string, bool) {
	col, ok := n.PropertyMap[property]
	return col, ok
}

// Properties returns the full (property_name, column_name) pairs declared on
// this node, used by the projected-column resolver (spec.md §4.3(c)) for
// standalone (non-denormalized) nodes.
func (n *NodeSchema) Properties() []PropertyColumn {
	out := make([]PropertyColumn, 0, len(n.PropertyMap))
	for prop, col := range n.PropertyMap {
		out = append(out, PropertyColumn{Property: prop, Column: col})
	}
	return out
}

// PropertyColumn pairs a Cypher-visible property name with its physical
// column name.
type PropertyColumn struct {
	Property string
	Column   string
}
