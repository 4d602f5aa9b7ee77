package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCatalogGet(t *testing.T) {
	require := require.New(t)
	gs := &GraphSchema{Name: "social"}
	c := NewCatalog(gs)

	got, err := c.Get("social")
	require.NoError(err)
	require.Same(gs, got)

	_, err = c.Get("missing")
	require.Error(err)
}
