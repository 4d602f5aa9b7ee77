package render

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clickgraph/cyphersql/internal/compileerr"
	"github.com/clickgraph/cyphersql/internal/plan"
	"github.com/clickgraph/cyphersql/internal/schema"
)

func expandTestSchema(t *testing.T) *schema.GraphSchema {
	t.Helper()
	b := schema.NewBuilder("default", &compileerr.Warnings{})
	require.NoError(t, b.AddNode(schema.NodeSchema{
		Label:       "User",
		Database:    "g",
		Table:       "users",
		Identifier:  schema.NewIdentifier("user_id"),
		PropertyMap: map[string]string{"id": "user_id", "name": "full_name"},
	}))
	gs, err := b.Build()
	require.NoError(t, err)
	return gs
}

func TestExpandAliasDoesNotDuplicateIdentifierColumn(t *testing.T) {
	require := require.New(t)
	gs := expandTestSchema(t)
	ctx := plan.NewContext()
	ctx.BindAlias("u", &plan.TableCtx{
		Alias:  "u",
		Labels: []string{"User"},
		AvailableColumns: []plan.ColumnRef{
			{Property: "id", Column: "user_id"},
			{Property: "name", Column: "full_name"},
		},
	})

	cols, err := ExpandAlias(gs, ctx, "u", "u", false)
	require.NoError(err)

	var userIDOccurrences int
	for _, c := range cols {
		if c.SQL == "u.user_id" {
			userIDOccurrences++
		}
	}
	require.Equal(1, userIDOccurrences, "identifier column should be emitted exactly once: %+v", cols)
	require.Len(cols, 2)
}

func TestExpandAliasAddsIdentifierColumnWhenNotAlreadyProjected(t *testing.T) {
	require := require.New(t)
	gs := expandTestSchema(t)
	ctx := plan.NewContext()
	ctx.BindAlias("u", &plan.TableCtx{
		Alias:  "u",
		Labels: []string{"User"},
		AvailableColumns: []plan.ColumnRef{
			{Property: "name", Column: "full_name"},
		},
	})

	cols, err := ExpandAlias(gs, ctx, "u", "u", false)
	require.NoError(err)
	require.Len(cols, 2)

	names := map[string]bool{}
	for _, c := range cols {
		names[c.OutputName] = true
	}
	require.True(names["u_name"])
	require.True(names["u_user_id"])
}

func TestExpandAliasWrapsNonIdentifierColumnsWithAnyLastWhenAggregating(t *testing.T) {
	require := require.New(t)
	gs := expandTestSchema(t)
	ctx := plan.NewContext()
	ctx.BindAlias("u", &plan.TableCtx{
		Alias:  "u",
		Labels: []string{"User"},
		AvailableColumns: []plan.ColumnRef{
			{Property: "id", Column: "user_id"},
			{Property: "name", Column: "full_name"},
		},
	})

	cols, err := ExpandAlias(gs, ctx, "u", "u", true)
	require.NoError(err)

	byOutput := map[string]string{}
	for _, c := range cols {
		byOutput[c.OutputName] = c.SQL
	}
	require.Equal("u.user_id", byOutput["u_id"], "identifier column must never be anyLast-wrapped")
	require.Equal("anyLast(u.full_name)", byOutput["u_name"])
}

func TestExpandAliasUsesSQLAliasWhenSet(t *testing.T) {
	require := require.New(t)
	gs := expandTestSchema(t)
	ctx := plan.NewContext()
	ctx.BindAlias("u", &plan.TableCtx{
		Alias:    "u",
		Labels:   []string{"User"},
		SQLAlias: "cte_1",
		AvailableColumns: []plan.ColumnRef{
			{Property: "name", Column: "full_name"},
		},
	})

	cols, err := ExpandAlias(gs, ctx, "u", "p", false)
	require.NoError(err)
	require.Equal("cte_1.full_name", cols[0].SQL)
	require.Equal("p_name", cols[0].OutputName)
}

func TestExpandAliasUnknownAliasErrors(t *testing.T) {
	gs := expandTestSchema(t)
	ctx := plan.NewContext()
	_, err := ExpandAlias(gs, ctx, "missing", "missing", false)
	require.Error(t, err)
}
