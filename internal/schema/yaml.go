package schema

import (
	"github.com/pkg/errors"

	"github.com/clickgraph/cyphersql/internal/compileerr"
	yaml "gopkg.in/yaml.v2"
)

// yamlDoc mirrors the schema YAML shape shown in spec.md §6. The core
// otherwise assumes an already-deserialized schema model; this loader is the
// one place that boundary is actually crossed, the way the teacher's
// sql/variables package deserializes its own YAML-backed defaults.
type yamlDoc struct {
	Nodes []yamlNode `yaml:"nodes"`
	Edges []yamlEdge `yaml:"edges"`
}

type yamlNode struct {
	Label             string            `yaml:"label"`
	Database          string            `yaml:"database"`
	Table             string            `yaml:"table"`
	NodeID            string            `yaml:"node_id"`
	CompositeNodeID   []string          `yaml:"node_id_columns"`
	PropertyMappings  map[string]string `yaml:"property_mappings"`
}

type yamlEdge struct {
	Type        string            `yaml:"type"`
	Polymorphic bool              `yaml:"polymorphic"`
	Database    string            `yaml:"database"`
	Table       string            `yaml:"table"`
	FromID      string            `yaml:"from_id"`
	ToID        string            `yaml:"to_id"`
	FromNode    string            `yaml:"from_node"`
	ToNode      string            `yaml:"to_node"`
	EdgeID      string            `yaml:"edge_id"`

	TypeColumn      string `yaml:"type_column"`
	FromLabelColumn string `yaml:"from_label_column"`
	ToLabelColumn   string `yaml:"to_label_column"`
	TypeValues      []string `yaml:"type_values"`

	FromNodeProperties map[string]string `yaml:"from_node_properties"`
	ToNodeProperties   map[string]string `yaml:"to_node_properties"`
	PropertyMap        map[string]string `yaml:"property_mappings"`
}

// LoadGraphSchema parses the schema YAML document and builds an immutable
// GraphSchema, collecting any non-fatal warnings (e.g. a defaulted edge_id)
// onto the returned Warnings.
func LoadGraphSchema(name string, raw []byte) (*GraphSchema, *compileerr.Warnings, error) {
	var doc yamlDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, nil, errors.Wrapf(err, "parsing schema yaml for %q", name)
	}

	warnings := &compileerr.Warnings{}
	b := NewBuilder(name, warnings)

	for _, n := range doc.Nodes {
		id := Identifier{Columns: n.CompositeNodeID}
		if id.Empty() && n.NodeID != "" {
			id = NewIdentifier(n.NodeID)
		}
		if err := b.AddNode(NodeSchema{
			Label:       n.Label,
			Database:    n.Database,
			Table:       n.Table,
			Identifier:  id,
			PropertyMap: n.PropertyMappings,
		}); err != nil {
			return nil, nil, err
		}
	}

	for _, e := range doc.Edges {
		if e.Polymorphic {
			b.AddPolymorphicEdge(PolymorphicEdgeDecl{
				Database:        e.Database,
				Table:           e.Table,
				FromID:          NewIdentifier(e.FromID),
				ToID:            NewIdentifier(e.ToID),
				TypeColumn:      e.TypeColumn,
				FromLabelColumn: e.FromLabelColumn,
				ToLabelColumn:   e.ToLabelColumn,
				TypeValues:      e.TypeValues,
				PropertyMap:     e.PropertyMap,
			})
			continue
		}
		edgeID := Identifier{}
		if e.EdgeID != "" {
			edgeID = NewIdentifier(e.EdgeID)
		}
		b.AddStandardEdge(StandardEdgeDecl{
			Type:               e.Type,
			Database:           e.Database,
			Table:              e.Table,
			FromID:             NewIdentifier(e.FromID),
			ToID:               NewIdentifier(e.ToID),
			FromLabel:          e.FromNode,
			ToLabel:            e.ToNode,
			EdgeID:             edgeID,
			FromNodeProperties: e.FromNodeProperties,
			ToNodeProperties:   e.ToNodeProperties,
			PropertyMap:        e.PropertyMap,
		})
	}

	g, err := b.Build()
	if err != nil {
		return nil, nil, err
	}
	return g, warnings, nil
}
