package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clickgraph/cyphersql/internal/compileerr"
	"github.com/clickgraph/cyphersql/internal/compiler"
	"github.com/clickgraph/cyphersql/internal/schema"
)

func buildTestCatalog(t *testing.T) *schema.Catalog {
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
	return schema.NewCatalog(gs)
}

func TestHandleQuerySQLOnly(t *testing.T) {
	s := &Server{Catalog: buildTestCatalog(t), Compiler: compiler.New(nil)}

	body, err := json.Marshal(map[string]interface{}{
		"query":    `MATCH (u:User) WHERE u.email = $email RETURN u.name`,
		"sql_only": true,
		"parameters": map[string]interface{}{
			"email": "alice@example.com",
		},
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/query", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	var resp queryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp.GeneratedSQL, "SELECT")
	require.Contains(t, resp.GeneratedSQL, "$email")
}

func TestHandleQueryWithoutExecutorErrors(t *testing.T) {
	s := &Server{Catalog: buildTestCatalog(t), Compiler: compiler.New(nil)}

	body, err := json.Marshal(map[string]interface{}{
		"query": `MATCH (u:User) RETURN u.name`,
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/query", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, 503, rec.Code)
}

func TestHandleQueryCompileErrorCarriesDistinctKind(t *testing.T) {
	s := &Server{Catalog: buildTestCatalog(t), Compiler: compiler.New(nil)}

	body, err := json.Marshal(map[string]interface{}{
		"query": `MATCH (u:User)-[:BEFRIENDED]->(v:User) RETURN v.name`,
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/query", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, 400, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "UnknownRelationshipType", resp.Kind)
}

func TestHandleQueryUnknownSchema(t *testing.T) {
	s := &Server{Catalog: buildTestCatalog(t), Compiler: compiler.New(nil)}

	body, err := json.Marshal(map[string]interface{}{
		"query":       `MATCH (u:User) RETURN u.name`,
		"schema_name": "nope",
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/query", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, 404, rec.Code)
}
