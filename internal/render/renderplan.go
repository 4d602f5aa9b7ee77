package render

// RenderPlan is the fully-rendered SQL text for one compiled query: every
// hoisted WITH scope as a named CTE (in dependency order, innermost WITH
// first) plus the final top-level SELECT. internal/emit concatenates these
// into one `WITH ... SELECT ...` statement and substitutes parameters.
type RenderPlan struct {
	Ctes   []CteDef
	Select string
}
