// Package request shapes the one request context both entry points
// (HTTP's POST /query and Bolt's RUN following a HELLO) resolve down to
// before handing the Cypher text and its parameters to internal/compiler
// and internal/executor (spec.md §4.7 "Request context").
package request

// DefaultSchemaName is used whenever a request names no schema, both for
// HTTP's schema_name field and Bolt's HELLO db/database field (spec.md
// §6 "default 'default'").
const DefaultSchemaName = "default"

// Context is the core-visible request shape: the Cypher text, its ordinary
// parameters, its view parameters (schema-declared parameterized-view
// substitutions, always plain strings), which schema to compile against,
// and whether to return the generated SQL instead of executing it.
type Context struct {
	Cypher         string                 `json:"query"`
	Parameters     map[string]interface{} `json:"parameters"`
	ViewParameters map[string]string      `json:"view_parameters"`
	SchemaName     string                 `json:"schema_name"`
	SQLOnly        bool                   `json:"sql_only"`
}

// ResolvedSchemaName returns c.SchemaName, or DefaultSchemaName when it was
// left blank.
func (c *Context) ResolvedSchemaName() string {
	if c.SchemaName == "" {
		return DefaultSchemaName
	}
	return c.SchemaName
}

// ViewParameterNames returns the set of `$name`s this request's
// ViewParameters map supplies, in the shape internal/compiler.Compile's
// view_parameter_names argument expects.
func (c *Context) ViewParameterNames() map[string]bool {
	if len(c.ViewParameters) == 0 {
		return nil
	}
	out := make(map[string]bool, len(c.ViewParameters))
	for k := range c.ViewParameters {
		out[k] = true
	}
	return out
}

// BoltHello is the subset of a Bolt protocol HELLO message's metadata map
// this core reads: whichever of "db" or "database" is present selects the
// schema for every RUN message on that connection, same default as HTTP.
type BoltHello struct {
	DB       string `json:"db,omitempty"`
	Database string `json:"database,omitempty"`
}

// SchemaName returns DB if set, else Database, else DefaultSchemaName.
func (h BoltHello) SchemaName() string {
	if h.DB != "" {
		return h.DB
	}
	if h.Database != "" {
		return h.Database
	}
	return DefaultSchemaName
}
