package schema

import (
	"fmt"

	"github.com/clickgraph/cyphersql/internal/compileerr"
)

// GraphSchema holds the declarative mapping label -> NodeSchema and
// type -> []EdgeSchema for one named schema. Resolution order at query time
// (spec.md §4.2): explicit type match first, polymorphic fallback second,
// UnknownRelationshipType otherwise.
type GraphSchema struct {
	Name  string
	Nodes map[string]*NodeSchema
	// EdgesByType holds only Standard entries: explicit declarations plus
	// every entry a Polymorphic declaration expanded into at load time.
	EdgesByType map[string][]*EdgeSchema

	// virtualNodeTables is the set of "database.table" keys of every edge
	// table, so virtual/denormalized node detection (NodeSchema.Table == some
	// edge's Table) is O(1) instead of a linear scan per lookup.
	virtualNodeTables map[string]bool
}

// Node looks up a declared label. Returns compileerr.ErrUnknownNodeLabel if
// the label is not declared.
func (g *GraphSchema) Node(label string) (*NodeSchema, error) {
	n, ok := g.Nodes[label]
	if !ok {
		return nil, compileerr.ErrUnknownNodeLabel.New(label)
	}
	return n, nil
}

// IsVirtual reports whether the given NodeSchema is denormalized: its table
// is shared with some edge's table and it declares no (or an empty)
// PropertyMap of its own.
func (g *GraphSchema) IsVirtual(n *NodeSchema) bool {
	if len(n.PropertyMap) > 0 {
		return false
	}
	return g.virtualNodeTables[n.Database+"."+n.Table]
}

// ResolveEdgeType implements the spec.md §4.2 lookup order for an edge type
// T between declared labels (fromLabel, toLabel): explicit match, then
// polymorphic fallback, then compileerr.ErrUnknownRelationshipType.
func (g *GraphSchema) ResolveEdgeType(edgeType, fromLabel, toLabel string) (*EdgeSchema, error) {
	for _, e := range g.EdgesByType[edgeType] {
		if e.FromLabel == fromLabel && e.ToLabel == toLabel {
			return e, nil
		}
	}
	return nil, compileerr.ErrUnknownRelationshipType.New(edgeType, fromLabel, toLabel)
}

// EdgeTypesForFromLabel returns every declared edge type whose FromLabel
// matches, used by the type-inference analyzer pass (spec.md §4.3(d)) to
// union to_label across declared relationship types for unlabeled endpoints.
func (g *GraphSchema) EdgeTypesForFromLabel(fromLabel string, types []string) []*EdgeSchema {
	var out []*EdgeSchema
	for _, t := range types {
		for _, e := range g.EdgesByType[t] {
			if e.FromLabel == fromLabel {
				out = append(out, e)
			}
		}
	}
	return out
}

// Builder assembles a GraphSchema from raw declarations (the shape already
// deserialized from the schema YAML shown in spec.md §6).
type Builder struct {
	name        string
	nodes       map[string]*NodeSchema
	standards   []StandardEdgeDecl
	polymorphic []PolymorphicEdgeDecl
	warnings    *compileerr.Warnings
}

// NewBuilder starts a schema build, recording warnings (e.g. a defaulted
// edge identifier) onto the given Warnings collector.
func NewBuilder(name string, warnings *compileerr.Warnings) *Builder {
	return &Builder{
		name:     name,
		nodes:    map[string]*NodeSchema{},
		warnings: warnings,
	}
}

// AddNode registers a node declaration. Returns ErrSchemaConstraint if the
// identifier is empty (spec.md §3 invariant: every node has a non-empty
// identifier).
func (b *Builder) AddNode(n NodeSchema) error {
	if n.Identifier.Empty() {
		return compileerr.ErrSchemaConstraint.New(fmt.Sprintf("node %q declares no identifier", n.Label))
	}
	cp := n
	b.nodes[n.Label] = &cp
	return nil
}

// AddStandardEdge registers a Standard edge declaration.
func (b *Builder) AddStandardEdge(d StandardEdgeDecl) {
	b.standards = append(b.standards, d)
}

// AddPolymorphicEdge registers a Polymorphic edge declaration, expanded at
// Build time.
func (b *Builder) AddPolymorphicEdge(d PolymorphicEdgeDecl) {
	b.polymorphic = append(b.polymorphic, d)
}

// Build finalizes the GraphSchema: validates denormalized nodes, defaults
// missing edge identifiers (with a warning), and expands every polymorphic
// declaration into one Standard EdgeSchema per (type, from_label, to_label)
// tuple discovered by crossing its type whitelist against every declared
// node label reachable from the graph (the core performs no I/O, so
// "discovery" is over the closed set of declared labels, not live data).
func (b *Builder) Build() (*GraphSchema, error) {
	g := &GraphSchema{
		Name:              b.name,
		Nodes:             b.nodes,
		EdgesByType:       map[string][]*EdgeSchema{},
		virtualNodeTables: map[string]bool{},
	}

	for _, d := range b.standards {
		e, err := b.buildStandard(d)
		if err != nil {
			return nil, err
		}
		g.EdgesByType[e.Type] = append(g.EdgesByType[e.Type], e)
		g.virtualNodeTables[e.Database+"."+e.Table] = true
	}

	if err := b.validateVirtualNodes(g); err != nil {
		return nil, err
	}

	for _, d := range b.polymorphic {
		expanded, err := b.expandPolymorphic(g, d)
		if err != nil {
			return nil, err
		}
		for _, e := range expanded {
			g.EdgesByType[e.Type] = append(g.EdgesByType[e.Type], e)
			g.virtualNodeTables[e.Database+"."+e.Table] = true
		}
	}

	return g, nil
}

func (b *Builder) buildStandard(d StandardEdgeDecl) (*EdgeSchema, error) {
	e := &EdgeSchema{
		Kind:               Standard,
		Type:               d.Type,
		Database:           d.Database,
		Table:              d.Table,
		FromID:             d.FromID,
		ToID:               d.ToID,
		FromLabel:          d.FromLabel,
		ToLabel:            d.ToLabel,
		EdgeID:             d.EdgeID,
		FromNodeProperties: d.FromNodeProperties,
		ToNodeProperties:   d.ToNodeProperties,
		PropertyMap:        d.PropertyMap,
	}
	if e.EdgeID.Empty() {
		e.EdgeID = Identifier{Columns: append(append([]string{}, d.FromID.Columns...), d.ToID.Columns...)}
		if b.warnings != nil {
			b.warnings.Add("edge %q: no edge_id declared, defaulting to (from_id, to_id)", d.Type)
		}
	}
	return e, nil
}

// validateVirtualNodes enforces: a denormalized node (table shared with an
// edge, empty property map) must have the owning edge's
// FromNodeProperties/ToNodeProperties populated.
func (b *Builder) validateVirtualNodes(g *GraphSchema) error {
	for _, n := range g.Nodes {
		if len(n.PropertyMap) > 0 {
			continue
		}
		if !g.virtualNodeTables[n.Database+"."+n.Table] {
			continue
		}
		owner := findOwningEdge(g, n)
		if owner == nil {
			continue
		}
		if len(owner.FromNodeProperties) == 0 && len(owner.ToNodeProperties) == 0 {
			return compileerr.ErrSchemaConstraint.New(fmt.Sprintf(
				"denormalized node %q (table %s.%s) has neither from_node_properties nor to_node_properties",
				n.Label, n.Database, n.Table))
		}
	}
	return nil
}

// FindOwningEdge returns the EdgeSchema whose table backs a denormalized
// node's standalone scan (render-time UNION ALL of its from-role/to-role
// projections), or nil if n isn't virtual or has no owning edge.
func FindOwningEdge(g *GraphSchema, n *NodeSchema) *EdgeSchema {
	return findOwningEdge(g, n)
}

func findOwningEdge(g *GraphSchema, n *NodeSchema) *EdgeSchema {
	for _, edges := range g.EdgesByType {
		for _, e := range edges {
			if e.Database == n.Database && e.Table == n.Table {
				return e
			}
		}
	}
	return nil
}

func (b *Builder) expandPolymorphic(g *GraphSchema, d PolymorphicEdgeDecl) ([]*EdgeSchema, error) {
	types := d.TypeValues
	if len(types) == 0 {
		if b.warnings != nil {
			b.warnings.Add("polymorphic edge table %s.%s declares no type_values: no Standard edges expanded, every relationship pattern against it will fail with UnknownRelationshipType", d.Database, d.Table)
		}
		return nil, nil
	}

	labels := make([]string, 0, len(g.Nodes))
	for label := range g.Nodes {
		labels = append(labels, label)
	}

	var out []*EdgeSchema
	for _, t := range types {
		for _, fromLabel := range labels {
			for _, toLabel := range labels {
				out = append(out, &EdgeSchema{
					Kind:        Standard,
					Type:        t,
					Database:    d.Database,
					Table:       d.Table,
					FromID:      d.FromID,
					ToID:        d.ToID,
					FromLabel:   fromLabel,
					ToLabel:     toLabel,
					EdgeID:      Identifier{Columns: append(append([]string{}, d.FromID.Columns...), d.ToID.Columns...)},
					PropertyMap: d.PropertyMap,
					PolySource: &PolymorphicSource{
						TypeColumn:      d.TypeColumn,
						FromLabelColumn: d.FromLabelColumn,
						ToLabelColumn:   d.ToLabelColumn,
						Filters: []ImplicitFilter{
							{Column: d.TypeColumn, Value: t},
							{Column: d.FromLabelColumn, Value: fromLabel},
							{Column: d.ToLabelColumn, Value: toLabel},
						},
					},
				})
			}
		}
	}
	return out, nil
}
