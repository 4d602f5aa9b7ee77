package plan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransformUpVisitsChildrenBeforeParent(t *testing.T) {
	require := require.New(t)
	tree := &Filter{
		Predicate: nil,
		Input: &Projection{
			Items: []ProjItem{{Alias: "x"}},
			Input: &GraphNode{Alias: "n"},
		},
	}

	var order []string
	_, err := TransformUp(tree, func(n Node) (Node, error) {
		switch n.(type) {
		case *GraphNode:
			order = append(order, "node")
		case *Projection:
			order = append(order, "projection")
		case *Filter:
			order = append(order, "filter")
		}
		return n, nil
	})
	require.NoError(err)
	require.Equal([]string{"node", "projection", "filter"}, order)
}

func TestTransformUpReplacesNode(t *testing.T) {
	require := require.New(t)
	tree := &Projection{Input: &GraphNode{Alias: "n"}}

	replaced, err := TransformUp(tree, func(n Node) (Node, error) {
		if gn, ok := n.(*GraphNode); ok {
			cp := *gn
			cp.Alias = "renamed"
			return &cp, nil
		}
		return n, nil
	})
	require.NoError(err)
	proj := replaced.(*Projection)
	require.Equal("renamed", proj.Input.(*GraphNode).Alias)
}

func TestTransformUpPropagatesError(t *testing.T) {
	require := require.New(t)
	tree := &Projection{Input: &GraphNode{Alias: "n"}}
	wantErr := errors.New("boom")

	_, err := TransformUp(tree, func(n Node) (Node, error) {
		if _, ok := n.(*GraphNode); ok {
			return nil, wantErr
		}
		return n, nil
	})
	require.ErrorIs(err, wantErr)
}

func TestTransformUpHandlesNilCenterChild(t *testing.T) {
	require := require.New(t)
	rel := &GraphRel{
		Alias:  "r",
		Left:   &GraphNode{Alias: "a"},
		Center: nil,
		Right:  &GraphNode{Alias: "b"},
	}
	require.Len(rel.Children(), 3)
	require.Nil(rel.Children()[1])

	out, err := TransformUp(rel, func(n Node) (Node, error) { return n, nil })
	require.NoError(err)
	require.Nil(out.(*GraphRel).Center)
}

func TestContextBindAliasAndScopeVisibility(t *testing.T) {
	require := require.New(t)
	ctx := NewContext()
	ctx.BindAlias("a", &TableCtx{Alias: "a"})
	ctx.PushScope()
	ctx.BindAlias("b", &TableCtx{Alias: "b"})

	require.NotNil(ctx.Tables["a"])
	require.NotNil(ctx.Tables["b"])

	id := ctx.InnermostScopeFor(map[string]bool{"a": true, "b": true})
	require.Equal(1, id)

	id = ctx.InnermostScopeFor(map[string]bool{"a": true})
	require.Equal(0, id)

	id = ctx.InnermostScopeFor(map[string]bool{"nonexistent": true})
	require.Equal(-1, id)
}

func TestRequirementSetWildcardOverridesProperties(t *testing.T) {
	require := require.New(t)
	rs := NewRequirementSet()
	rs.Add("name")
	require.True(rs.Has("name"))
	require.False(rs.Has("email"))

	rs.MarkWildcard()
	require.True(rs.Has("anything"))
}

func TestContextMergeRequirementsPropagatesWildcard(t *testing.T) {
	require := require.New(t)
	ctx := NewContext()
	ctx.RequireWildcard("elem")
	ctx.MergeRequirements("elem", "u")
	require.True(ctx.Requirements["u"].Wildcard)
}

func TestContextMergeRequirementsUnionsProperties(t *testing.T) {
	require := require.New(t)
	ctx := NewContext()
	ctx.RequireProperty("elem", "name")
	ctx.RequireProperty("elem", "email")
	ctx.MergeRequirements("elem", "u")
	require.True(ctx.Requirements["u"].Has("name"))
	require.True(ctx.Requirements["u"].Has("email"))
}

func TestContextNextCteIDIsMonotonic(t *testing.T) {
	require := require.New(t)
	ctx := NewContext()
	require.Equal(1, ctx.NextCteID())
	require.Equal(2, ctx.NextCteID())
}
