package optimizer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clickgraph/cyphersql/internal/compileerr"
	"github.com/clickgraph/cyphersql/internal/plan"
	"github.com/clickgraph/cyphersql/internal/schema"
)

func userSchema(t *testing.T) *schema.GraphSchema {
	t.Helper()
	b := schema.NewBuilder("default", &compileerr.Warnings{})
	require.NoError(t, b.AddNode(schema.NodeSchema{
		Label:       "User",
		Database:    "g",
		Table:       "users",
		Identifier:  schema.NewIdentifier("user_id"),
		PropertyMap: map[string]string{"name": "full_name", "email": "email"},
	}))
	gs, err := b.Build()
	require.NoError(t, err)
	return gs
}

func TestHoistCTEsAssignsIncreasingIDs(t *testing.T) {
	require := require.New(t)
	ctx := plan.NewContext()
	inner := &plan.WithClause{Input: &plan.GraphNode{Alias: "u"}}
	outer := &plan.WithClause{Input: inner}

	n, err := HoistCTEs(outer, ctx)
	require.NoError(err)
	got := n.(*plan.WithClause)
	require.NotZero(got.CteID)
	require.NotZero(got.Input.(*plan.WithClause).CteID)
	require.NotEqual(got.CteID, got.Input.(*plan.WithClause).CteID)
}

func TestHoistCTEsSkipsAlreadyAssigned(t *testing.T) {
	require := require.New(t)
	ctx := plan.NewContext()
	wc := &plan.WithClause{Input: &plan.GraphNode{Alias: "u"}, CteID: 99}

	n, err := HoistCTEs(wc, ctx)
	require.NoError(err)
	require.Equal(99, n.(*plan.WithClause).CteID)
}

func TestEliminateDeadPropertiesDropsUnrequiredAlias(t *testing.T) {
	require := require.New(t)
	gs := userSchema(t)
	ctx := plan.NewContext()
	gn := &plan.GraphNode{
		Alias:  "u",
		Labels: []string{"User"},
		ProjectedColumns: []plan.ColumnRef{
			{Property: "name", Column: "full_name"},
			{Property: "email", Column: "email"},
		},
	}

	n, err := EliminateDeadProperties(gn, ctx, gs)
	require.NoError(err)
	require.Empty(n.(*plan.GraphNode).ProjectedColumns)
}

func TestEliminateDeadPropertiesKeepsWildcard(t *testing.T) {
	require := require.New(t)
	gs := userSchema(t)
	ctx := plan.NewContext()
	ctx.RequireWildcard("u")
	gn := &plan.GraphNode{
		Alias:  "u",
		Labels: []string{"User"},
		ProjectedColumns: []plan.ColumnRef{
			{Property: "name", Column: "full_name"},
			{Property: "email", Column: "email"},
		},
	}

	n, err := EliminateDeadProperties(gn, ctx, gs)
	require.NoError(err)
	require.Len(n.(*plan.GraphNode).ProjectedColumns, 2)
}

func TestEliminateDeadPropertiesKeepsIdentifierColumnEvenWhenNotRequired(t *testing.T) {
	require := require.New(t)
	gs := userSchema(t)
	ctx := plan.NewContext()
	ctx.RequireProperty("u", "name")
	gn := &plan.GraphNode{
		Alias:  "u",
		Labels: []string{"User"},
		ProjectedColumns: []plan.ColumnRef{
			{Property: "name", Column: "full_name"},
			{Property: "email", Column: "email"},
			{Property: "", Column: "user_id"},
		},
	}

	n, err := EliminateDeadProperties(gn, ctx, gs)
	require.NoError(err)
	kept := n.(*plan.GraphNode).ProjectedColumns
	require.Len(kept, 2)
	var hasID bool
	for _, c := range kept {
		if c.Column == "user_id" {
			hasID = true
		}
	}
	require.True(hasID)
}
