package schema

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clickgraph/cyphersql/internal/compileerr"
)

func TestAddNodeRejectsEmptyIdentifier(t *testing.T) {
	b := NewBuilder("default", &compileerr.Warnings{})
	err := b.AddNode(NodeSchema{Label: "User", Database: "g", Table: "users"})
	require.Error(t, err)
}

func TestBuildDefaultsMissingEdgeIDWithWarning(t *testing.T) {
	require := require.New(t)
	warnings := &compileerr.Warnings{}
	b := NewBuilder("default", warnings)
	require.NoError(b.AddNode(NodeSchema{Label: "User", Database: "g", Table: "users", Identifier: NewIdentifier("user_id")}))
	b.AddStandardEdge(StandardEdgeDecl{
		Type: "FOLLOWS", Database: "g", Table: "user_follows",
		FromID: NewIdentifier("follower_id"), ToID: NewIdentifier("followed_id"),
		FromLabel: "User", ToLabel: "User",
	})
	gs, err := b.Build()
	require.NoError(err)
	e, err := gs.ResolveEdgeType("FOLLOWS", "User", "User")
	require.NoError(err)
	require.Equal([]string{"follower_id", "followed_id"}, e.EdgeID.Columns)
	require.NotEmpty(warnings.List())
}

func TestResolveEdgeTypeUnknownReturnsTypedError(t *testing.T) {
	b := NewBuilder("default", &compileerr.Warnings{})
	require.NoError(t, b.AddNode(NodeSchema{Label: "User", Database: "g", Table: "users", Identifier: NewIdentifier("id")}))
	gs, err := b.Build()
	require.NoError(t, err)

	_, err = gs.ResolveEdgeType("FOLLOWS", "User", "User")
	require.Error(t, err)
	require.True(t, compileerr.ErrUnknownRelationshipType.Is(err))
}

func TestExplicitStandardEdgeWinsOverPolymorphicExpansion(t *testing.T) {
	require := require.New(t)
	b := NewBuilder("default", &compileerr.Warnings{})
	require.NoError(b.AddNode(NodeSchema{Label: "User", Database: "g", Table: "users", Identifier: NewIdentifier("id")}))
	b.AddStandardEdge(StandardEdgeDecl{
		Type: "FOLLOWS", Database: "g", Table: "user_follows",
		FromID: NewIdentifier("follower_id"), ToID: NewIdentifier("followed_id"),
		FromLabel: "User", ToLabel: "User", EdgeID: NewIdentifier("id"),
	})
	b.AddPolymorphicEdge(PolymorphicEdgeDecl{
		Database: "g", Table: "interactions",
		FromID: NewIdentifier("from_id"), ToID: NewIdentifier("to_id"),
		TypeColumn: "interaction_type", FromLabelColumn: "from_type", ToLabelColumn: "to_type",
		TypeValues: []string{"FOLLOWS"},
	})
	gs, err := b.Build()
	require.NoError(err)

	matches := gs.EdgesByType["FOLLOWS"]
	require.Len(matches, 2)
	e, err := gs.ResolveEdgeType("FOLLOWS", "User", "User")
	require.NoError(err)
	require.Equal("user_follows", e.Table)
	require.False(e.IsPolymorphic())
}

func TestPolymorphicExpansionWithNoTypeValuesWarnsAndExpandsNothing(t *testing.T) {
	require := require.New(t)
	warnings := &compileerr.Warnings{}
	b := NewBuilder("default", warnings)
	require.NoError(b.AddNode(NodeSchema{Label: "User", Database: "g", Table: "users", Identifier: NewIdentifier("id")}))
	b.AddPolymorphicEdge(PolymorphicEdgeDecl{
		Database: "g", Table: "interactions",
		FromID: NewIdentifier("from_id"), ToID: NewIdentifier("to_id"),
		TypeColumn: "interaction_type", FromLabelColumn: "from_type", ToLabelColumn: "to_type",
	})
	gs, err := b.Build()
	require.NoError(err)
	require.Empty(gs.EdgesByType)
	require.NotEmpty(warnings.List())
}

func TestDenormalizedNodeWithoutOwnerPropertiesErrors(t *testing.T) {
	require := require.New(t)
	b := NewBuilder("default", &compileerr.Warnings{})
	require.NoError(b.AddNode(NodeSchema{Label: "User", Database: "g", Table: "users", Identifier: NewIdentifier("id")}))
	require.NoError(b.AddNode(NodeSchema{Label: "Interaction", Database: "g", Table: "interactions", Identifier: NewIdentifier("id")}))
	b.AddStandardEdge(StandardEdgeDecl{
		Type: "FOLLOWS", Database: "g", Table: "interactions",
		FromID: NewIdentifier("from_id"), ToID: NewIdentifier("to_id"),
		FromLabel: "User", ToLabel: "User", EdgeID: NewIdentifier("id"),
	})
	_, err := b.Build()
	require.Error(err)
	require.True(compileerr.ErrSchemaConstraint.Is(err))
}

func TestIsVirtualDetectsDenormalizedNode(t *testing.T) {
	require := require.New(t)
	b := NewBuilder("default", &compileerr.Warnings{})
	require.NoError(b.AddNode(NodeSchema{Label: "User", Database: "g", Table: "users", Identifier: NewIdentifier("id")}))
	require.NoError(b.AddNode(NodeSchema{
		Label: "Interaction", Database: "g", Table: "interactions", Identifier: NewIdentifier("id"),
	}))
	b.AddStandardEdge(StandardEdgeDecl{
		Type: "FOLLOWS", Database: "g", Table: "interactions",
		FromID: NewIdentifier("from_id"), ToID: NewIdentifier("to_id"),
		FromLabel: "User", ToLabel: "User", EdgeID: NewIdentifier("id"),
		FromNodeProperties: map[string]string{"name": "from_name"},
	})
	gs, err := b.Build()
	require.NoError(err)

	n, err := gs.Node("Interaction")
	require.NoError(err)
	require.True(gs.IsVirtual(n))

	u, err := gs.Node("User")
	require.NoError(err)
	require.False(gs.IsVirtual(u))
}
