package vlp

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clickgraph/cyphersql/internal/cypher/ast"
	"github.com/clickgraph/cyphersql/internal/schema"
)

func followsEdge() *schema.EdgeSchema {
	return &schema.EdgeSchema{
		Kind:      schema.Standard,
		Type:      "FOLLOWS",
		Database:  "g",
		Table:     "user_follows",
		FromID:    schema.NewIdentifier("follower_id"),
		ToID:      schema.NewIdentifier("followed_id"),
		FromLabel: "User",
		ToLabel:   "User",
		EdgeID:    schema.NewIdentifier("id"),
	}
}

func intp(n int) *int { return &n }

func counter() func() int {
	n := 0
	return func() int {
		n++
		return n
	}
}

func TestBuildHomogeneousRecursiveCTE(t *testing.T) {
	require := require.New(t)
	req := &Request{
		Candidates: []*schema.EdgeSchema{followsEdge()},
		Direction:  ast.Out,
		VarLength:  &ast.VarLength{Min: intp(1), Max: intp(3)},
		PathMode:   ast.Trail,
		NextID:     counter(),
	}
	res, err := Build(req)
	require.NoError(err)
	require.Contains(res.SQL, "WITH RECURSIVE")
	require.Contains(res.SQL, "user_follows")
	require.Contains(res.SQL, "hop_count")
	require.Equal("start_id", res.FromColumn)
	require.Equal("end_id", res.ToColumn)
}

func TestBuildRejectsMinGreaterThanMax(t *testing.T) {
	require := require.New(t)
	req := &Request{
		Candidates: []*schema.EdgeSchema{followsEdge()},
		VarLength:  &ast.VarLength{Min: intp(5), Max: intp(2)},
		NextID:     counter(),
	}
	_, err := Build(req)
	require.Error(err)
}

func TestBuildRejectsNoCandidates(t *testing.T) {
	_, err := Build(&Request{NextID: counter()})
	require.Error(t, err)
}

func TestBuildShortestWrapsWithRowNumber(t *testing.T) {
	require := require.New(t)
	req := &Request{
		Candidates:   []*schema.EdgeSchema{followsEdge()},
		Direction:    ast.Out,
		VarLength:    &ast.VarLength{Min: intp(1), Max: intp(3)},
		ShortestMode: ast.Shortest,
		NextID:       counter(),
	}
	res, err := Build(req)
	require.NoError(err)
	require.Contains(res.SQL, "row_number")
	require.Contains(res.SQL, "rn = 1")
}

func TestBuildAllShortestWrapsWithMinHops(t *testing.T) {
	require := require.New(t)
	req := &Request{
		Candidates:   []*schema.EdgeSchema{followsEdge()},
		Direction:    ast.Out,
		VarLength:    &ast.VarLength{Min: intp(1), Max: intp(3)},
		ShortestMode: ast.AllShortest,
		NextID:       counter(),
	}
	res, err := Build(req)
	require.NoError(err)
	require.Contains(res.SQL, "min_hops")
}

func TestBuildHeterogeneousHopsExceedingCapErrors(t *testing.T) {
	require := require.New(t)
	likes := &schema.EdgeSchema{
		Kind: schema.Standard, Type: "LIKES", Database: "g", Table: "likes",
		FromID: schema.NewIdentifier("user_id"), ToID: schema.NewIdentifier("post_id"),
		FromLabel: "User", ToLabel: "Post", EdgeID: schema.NewIdentifier("id"),
	}
	authored := &schema.EdgeSchema{
		Kind: schema.Standard, Type: "AUTHORED", Database: "g", Table: "authored",
		FromID: schema.NewIdentifier("user_id"), ToID: schema.NewIdentifier("post_id"),
		FromLabel: "User", ToLabel: "Post", EdgeID: schema.NewIdentifier("id"),
	}
	req := &Request{
		Candidates: []*schema.EdgeSchema{likes, authored},
		Direction:  ast.Out,
		VarLength:  &ast.VarLength{Min: intp(1), Max: intp(4)},
		NextID:     counter(),
	}
	_, err := Build(req)
	require.Error(err)
}

func TestBuildHeterogeneousTooManyRelTypesErrors(t *testing.T) {
	require := require.New(t)
	var candidates []*schema.EdgeSchema
	types := []string{"A", "B", "C", "D", "E", "F"}
	for i, tp := range types {
		candidates = append(candidates, &schema.EdgeSchema{
			Kind: schema.Standard, Type: tp, Database: "g", Table: "t" + string(rune('0'+i)),
			FromID: schema.NewIdentifier("from_id"), ToID: schema.NewIdentifier("to_id"),
			FromLabel: "User", ToLabel: "User", EdgeID: schema.NewIdentifier("id"),
		})
	}
	req := &Request{
		Candidates: candidates,
		Direction:  ast.Out,
		VarLength:  &ast.VarLength{Min: intp(1), Max: intp(2)},
		NextID:     counter(),
	}
	_, err := Build(req)
	require.Error(err)
}

func TestBuildHeterogeneousWithinCapUnionsChains(t *testing.T) {
	require := require.New(t)
	likes := &schema.EdgeSchema{
		Kind: schema.Standard, Type: "LIKES", Database: "g", Table: "likes",
		FromID: schema.NewIdentifier("user_id"), ToID: schema.NewIdentifier("post_id"),
		FromLabel: "User", ToLabel: "Post", EdgeID: schema.NewIdentifier("id"),
	}
	commented := &schema.EdgeSchema{
		Kind: schema.Standard, Type: "COMMENTED", Database: "g", Table: "comments",
		FromID: schema.NewIdentifier("post_id"), ToID: schema.NewIdentifier("user_id"),
		FromLabel: "Post", ToLabel: "User", EdgeID: schema.NewIdentifier("id"),
	}
	req := &Request{
		Candidates: []*schema.EdgeSchema{likes, commented},
		Direction:  ast.Out,
		VarLength:  &ast.VarLength{Min: intp(2), Max: intp(2)},
		NextID:     counter(),
	}
	res, err := Build(req)
	require.NoError(err)
	require.Contains(res.SQL, "UNION ALL")
	require.NotContains(res.SQL, "RECURSIVE")
}
