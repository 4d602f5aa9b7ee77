package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clickgraph/cyphersql/internal/compileerr"
	"github.com/clickgraph/cyphersql/internal/schema"
)

func buildTestSchema(t *testing.T) *schema.GraphSchema {
	t.Helper()
	b := schema.NewBuilder("default", &compileerr.Warnings{})
	require.NoError(t, b.AddNode(schema.NodeSchema{
		Label:       "User",
		Database:    "g",
		Table:       "users",
		Identifier:  schema.NewIdentifier("user_id"),
		PropertyMap: map[string]string{"name": "full_name", "email": "email_address"},
	}))
	b.AddStandardEdge(schema.StandardEdgeDecl{
		Type:      "FOLLOWS",
		Database:  "g",
		Table:     "user_follows",
		FromID:    schema.NewIdentifier("follower_id"),
		ToID:      schema.NewIdentifier("followed_id"),
		FromLabel: "User",
		ToLabel:   "User",
	})
	gs, err := b.Build()
	require.NoError(t, err)
	return gs
}

func TestCompileSimpleMatchReturn(t *testing.T) {
	require := require.New(t)
	gs := buildTestSchema(t)
	c := New(nil)

	tmpl, err := c.Compile(`MATCH (u:User) WHERE u.email = $email RETURN u.name`, gs, nil, nil)
	require.NoError(err)
	require.Contains(tmpl.SQLTemplate, "SELECT")
	require.Contains(tmpl.SQLTemplate, "$email")
	require.Equal([]string{"email"}, tmpl.ParameterOrder)
}

func TestCompileIsCachedByCypherAndSchemaName(t *testing.T) {
	require := require.New(t)
	gs := buildTestSchema(t)
	c := New(nil)

	cypher := `MATCH (u:User) RETURN u.name`
	first, err := c.Compile(cypher, gs, nil, nil)
	require.NoError(err)
	second, err := c.Compile(cypher, gs, nil, nil)
	require.NoError(err)
	require.Same(first, second)
}

func TestCompileRejectsInvalidCypher(t *testing.T) {
	require := require.New(t)
	gs := buildTestSchema(t)
	c := New(nil)

	_, err := c.Compile(`MATCH (`, gs, nil, nil)
	require.Error(err)
}

func TestDebugPlanDescribesTree(t *testing.T) {
	require := require.New(t)
	gs := buildTestSchema(t)
	c := New(nil)

	out, err := c.DebugPlan(`MATCH (u:User) RETURN u.name`, gs)
	require.NoError(err)
	require.Contains(out, "plan.Projection")
}
