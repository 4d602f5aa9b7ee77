package emit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clickgraph/cyphersql/internal/render"
)

func TestAssembleNoCtes(t *testing.T) {
	require := require.New(t)
	rp := &render.RenderPlan{Select: "SELECT 1"}
	sql, err := Assemble(rp)
	require.NoError(err)
	require.Equal("SELECT 1", sql)
}

func TestAssembleWithCtes(t *testing.T) {
	require := require.New(t)
	rp := &render.RenderPlan{
		Ctes: []render.CteDef{
			{ID: 1, Name: "cte_1", SQL: "SELECT a.id FROM g.accounts AS a"},
		},
		Select: "SELECT * FROM cte_1",
	}
	sql, err := Assemble(rp)
	require.NoError(err)
	require.Equal("WITH cte_1 AS (SELECT a.id FROM g.accounts AS a) SELECT * FROM cte_1", sql)
}

func TestAssembleRejectsUnregisteredCteReference(t *testing.T) {
	require := require.New(t)
	rp := &render.RenderPlan{Select: "SELECT * FROM cte_99"}
	_, err := Assemble(rp)
	require.Error(err)
}
