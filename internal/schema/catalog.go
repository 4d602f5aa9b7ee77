package schema

import "fmt"

// Catalog holds every loaded GraphSchema, keyed by name, for the lifetime
// of a process (spec.md §4.7 "SchemaCatalog: get_schema(name) -> &GraphSchema;
// schemas are process-wide, immutable after load"). A Catalog is built once
// at startup and never mutated afterward, so Get needs no locking.
type Catalog struct {
	schemas map[string]*GraphSchema
}

// NewCatalog returns a Catalog over the given schemas, keyed by their own
// Name field.
func NewCatalog(schemas ...*GraphSchema) *Catalog {
	c := &Catalog{schemas: make(map[string]*GraphSchema, len(schemas))}
	for _, s := range schemas {
		c.schemas[s.Name] = s
	}
	return c
}

// Get looks up a schema by name.
func (c *Catalog) Get(name string) (*GraphSchema, error) {
	s, ok := c.schemas[name]
	if !ok {
		return nil, fmt.Errorf("schema catalog: unknown schema %q", name)
	}
	return s, nil
}
