package analyzer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clickgraph/cyphersql/internal/compileerr"
	"github.com/clickgraph/cyphersql/internal/plan"
	"github.com/clickgraph/cyphersql/internal/schema"
)

func graphJoinTestSchema(t *testing.T) *schema.GraphSchema {
	t.Helper()
	b := schema.NewBuilder("default", &compileerr.Warnings{})
	require.NoError(t, b.AddNode(schema.NodeSchema{
		Label: "User", Database: "g", Table: "users", Identifier: schema.NewIdentifier("user_id"),
	}))
	gs, err := b.Build()
	require.NoError(t, err)
	return gs
}

func TestInferGraphJoinsFillsOnForSharedAlias(t *testing.T) {
	require := require.New(t)
	gs := graphJoinTestSchema(t)
	ctx := plan.NewContext()
	ctx.BindAlias("a", &plan.TableCtx{Alias: "a", Labels: []string{"User"}})

	j := &plan.Join{
		Left:  &plan.GraphNode{Alias: "a", Labels: []string{"User"}},
		Right: &plan.GraphNode{Alias: "a", Labels: []string{"User"}},
	}
	a := New(gs, &compileerr.Warnings{}, nil)
	out, err := inferGraphJoins(a, j, ctx)
	require.NoError(err)
	require.NotNil(out.(*plan.Join).On)
}

func TestInferGraphJoinsWarnsOnNoSharedAlias(t *testing.T) {
	require := require.New(t)
	gs := graphJoinTestSchema(t)
	ctx := plan.NewContext()

	j := &plan.Join{
		Left:  &plan.GraphNode{Alias: "a", Labels: []string{"User"}},
		Right: &plan.GraphNode{Alias: "b", Labels: []string{"User"}},
	}
	warnings := &compileerr.Warnings{}
	a := New(gs, warnings, nil)
	out, err := inferGraphJoins(a, j, ctx)
	require.NoError(err)
	require.Nil(out.(*plan.Join).On)
	require.NotEmpty(warnings.List())
}

func TestAnalyzerNewUsesDiscardLoggerWhenNilPassed(t *testing.T) {
	gs := graphJoinTestSchema(t)
	a := New(gs, &compileerr.Warnings{}, nil)
	require.NotPanics(t, func() { a.Log("no-op %d", 1) })
}
