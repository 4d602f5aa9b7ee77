package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const testSchemaYAML = `
nodes:
  - label: User
    database: g
    table: users
    node_id: user_id
    property_mappings:
      name: full_name
  - label: Post
    database: g
    table: posts
    node_id: post_id
edges:
  - type: FOLLOWS
    database: g
    table: user_follows
    from_id: follower_id
    to_id: followed_id
    from_node: User
    to_node: User
  - polymorphic: true
    database: g
    table: interactions
    from_id: from_id
    to_id: to_id
    type_column: interaction_type
    from_label_column: from_type
    to_label_column: to_type
    type_values:
      - LIKES
`

func TestLoadGraphSchemaParsesNodesAndEdges(t *testing.T) {
	require := require.New(t)
	gs, warnings, err := LoadGraphSchema("default", []byte(testSchemaYAML))
	require.NoError(err)
	require.NotNil(gs)

	u, err := gs.Node("User")
	require.NoError(err)
	require.Equal("users", u.Table)
	require.Equal("full_name", u.PropertyMap["name"])

	e, err := gs.ResolveEdgeType("FOLLOWS", "User", "User")
	require.NoError(err)
	require.Equal([]string{"follower_id", "followed_id"}, e.EdgeID.Columns)

	_, err = gs.ResolveEdgeType("LIKES", "User", "Post")
	require.NoError(err)

	require.NotNil(warnings)
}

func TestLoadGraphSchemaRejectsInvalidYAML(t *testing.T) {
	_, _, err := LoadGraphSchema("default", []byte("not: [valid"))
	require.Error(t, err)
}

func TestLoadGraphSchemaUsesCompositeNodeIDWhenPresent(t *testing.T) {
	require := require.New(t)
	doc := `
nodes:
  - label: Membership
    database: g
    table: memberships
    node_id_columns: [org_id, user_id]
edges: []
`
	gs, _, err := LoadGraphSchema("default", []byte(doc))
	require.NoError(err)
	n, err := gs.Node("Membership")
	require.NoError(err)
	require.True(n.Identifier.IsComposite())
	require.Equal([]string{"org_id", "user_id"}, n.Identifier.Columns)
}
