package emit

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/clickgraph/cyphersql/internal/compileerr"
)

// placeholderPattern matches a `$name` parameter reference. Cypher
// parameters and view_parameters share this one placeholder syntax in the
// emitted template (spec.md §4.6); which map supplies the value at
// substitution time is the only difference between them.
var placeholderPattern = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)

// paramNamePattern is the identifier grammar parameter names must satisfy,
// checked by ValidateParamName. Placeholders in a template are matched by
// placeholderPattern instead.
var paramNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateParamName reports whether name is a legal `$name` identifier.
func ValidateParamName(name string) bool {
	return paramNamePattern.MatchString(name)
}

// FreeVariables returns, in first-occurrence order, every distinct `$name`
// placeholder appearing in sqlTemplate. The compiler always fills
// CompiledTemplate.ParameterOrder from this; pure string substitution (the
// only mode this repo implements) ignores the order and looks values up by
// name instead.
func FreeVariables(sqlTemplate string) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(sqlTemplate, -1) {
		name := m[1]
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// Substitute replaces every `$name` placeholder in sqlTemplate with its
// escaped literal value, checked first against params (the Cypher
// parameters supplied with the request) and then against viewParams (the
// request's view_parameters, always plain strings). A placeholder with no
// value in either map is a ParameterError; so is a value of a type
// FormatValue does not recognize.
func Substitute(sqlTemplate string, params map[string]interface{}, viewParams map[string]string) (string, error) {
	var firstErr error
	out := placeholderPattern.ReplaceAllStringFunc(sqlTemplate, func(m string) string {
		if firstErr != nil {
			return m
		}
		name := m[1:]
		if v, ok := params[name]; ok {
			s, err := FormatValue(v)
			if err != nil {
				firstErr = compileerr.ErrParameter.New(fmt.Sprintf("parameter %q: %s", name, err))
				return m
			}
			return s
		}
		if v, ok := viewParams[name]; ok {
			s, err := FormatValue(v)
			if err != nil {
				firstErr = compileerr.ErrParameter.New(fmt.Sprintf("view parameter %q: %s", name, err))
				return m
			}
			return s
		}
		firstErr = compileerr.ErrParameter.New(fmt.Sprintf("no value supplied for parameter %q", name))
		return m
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

// FormatValue renders one parameter value as a SQL literal, per spec.md
// §4.6's escaping rules. Mirrors the teacher driver's valueToExpr
// type-switch-per-Go-value shape, producing SQL text directly instead of a
// sql.Expression since this repo hands the executor finished SQL, not an
// expression tree (see driver/value.go).
func FormatValue(v interface{}) (string, error) {
	switch x := v.(type) {
	case nil:
		return "NULL", nil
	case string:
		return quoteString(x), nil
	case bool:
		if x {
			return "1", nil
		}
		return "0", nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case time.Time:
		return quoteString(x.Format(time.RFC3339Nano)), nil
	case []interface{}:
		parts := make([]string, len(x))
		for i, e := range x {
			s, err := FormatValue(e)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	default:
		return "", fmt.Errorf("unsupported parameter value type %T", v)
	}
}

func quoteString(s string) string {
	var sb strings.Builder
	sb.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'':
			sb.WriteString("''")
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('\'')
	return sb.String()
}
