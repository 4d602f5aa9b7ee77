package planbuilder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clickgraph/cyphersql/internal/compileerr"
	"github.com/clickgraph/cyphersql/internal/cypher/parser"
	"github.com/clickgraph/cyphersql/internal/plan"
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
		PropertyMap: map[string]string{"name": "full_name"},
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

func TestBuildSingleHopProducesGraphRel(t *testing.T) {
	require := require.New(t)
	gs := buildTestSchema(t)
	q, err := parser.Parse(`MATCH (u:User)-[:FOLLOWS]->(f:User) RETURN f.name`)
	require.NoError(err)

	tree, ctx, err := New(gs, &compileerr.Warnings{}).Build(q)
	require.NoError(err)
	require.NotNil(ctx.Tables["u"])
	require.NotNil(ctx.Tables["f"])

	var foundRel bool
	_, err = plan.TransformUp(tree, func(n plan.Node) (plan.Node, error) {
		if _, ok := n.(*plan.GraphRel); ok {
			foundRel = true
		}
		return n, nil
	})
	require.NoError(err)
	require.True(foundRel)
}

func TestBuildUnknownRelationshipTypeErrors(t *testing.T) {
	require := require.New(t)
	gs := buildTestSchema(t)
	q, err := parser.Parse(`MATCH (u:User)-[:BEFRIENDED]->(f:User) RETURN f.name`)
	require.NoError(err)

	_, _, err = New(gs, &compileerr.Warnings{}).Build(q)
	require.Error(err)
}

func TestBuildZeroHopVariableLengthWarns(t *testing.T) {
	require := require.New(t)
	gs := buildTestSchema(t)
	q, err := parser.Parse(`MATCH (u:User)-[:FOLLOWS*0..]->(f:User) RETURN f.name`)
	require.NoError(err)

	warnings := &compileerr.Warnings{}
	_, _, err = New(gs, warnings).Build(q)
	require.NoError(err)
	require.NotEmpty(warnings.List())
}

func TestBuildOptionalMatchWithNoPrecedingPatternWarns(t *testing.T) {
	require := require.New(t)
	gs := buildTestSchema(t)
	q, err := parser.Parse(`OPTIONAL MATCH (u:User) RETURN u.name`)
	require.NoError(err)

	warnings := &compileerr.Warnings{}
	_, _, err = New(gs, warnings).Build(q)
	require.NoError(err)
	require.NotEmpty(warnings.List())
}

func TestBuildRebindsSameAliasAcrossPatterns(t *testing.T) {
	require := require.New(t)
	gs := buildTestSchema(t)
	q, err := parser.Parse(`MATCH (a:User)-[:FOLLOWS]->(b:User), (a:User)-[:FOLLOWS]->(c:User) RETURN b.name, c.name`)
	require.NoError(err)

	_, ctx, err := New(gs, &compileerr.Warnings{}).Build(q)
	require.NoError(err)
	require.NotNil(ctx.Tables["a"])
	require.NotNil(ctx.Tables["b"])
	require.NotNil(ctx.Tables["c"])
}
