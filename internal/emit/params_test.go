package emit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormatValue(t *testing.T) {
	require := require.New(t)

	s, err := FormatValue(nil)
	require.NoError(err)
	require.Equal("NULL", s)

	s, err = FormatValue("O'Brien")
	require.NoError(err)
	require.Equal(`'O''Brien'`, s)

	s, err = FormatValue(true)
	require.NoError(err)
	require.Equal("1", s)

	s, err = FormatValue(false)
	require.NoError(err)
	require.Equal("0", s)

	s, err = FormatValue(int64(42))
	require.NoError(err)
	require.Equal("42", s)

	s, err = FormatValue(3.5)
	require.NoError(err)
	require.Equal("3.5", s)

	s, err = FormatValue([]interface{}{int64(1), "a", nil})
	require.NoError(err)
	require.Equal(`[1, 'a', NULL]`, s)

	_, err = FormatValue(struct{}{})
	require.Error(err)

	ts := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	s, err = FormatValue(ts)
	require.NoError(err)
	require.Equal(`'2026-07-31T12:00:00Z'`, s)
}

func TestQuoteStringEscapesControlCharacters(t *testing.T) {
	require := require.New(t)
	require.Equal(`'line1\nline2'`, quoteString("line1\nline2"))
	require.Equal(`'a\\b'`, quoteString(`a\b`))
}

func TestFreeVariables(t *testing.T) {
	require := require.New(t)
	got := FreeVariables("SELECT * FROM t WHERE a = $foo AND b = $bar OR c = $foo")
	require.Equal([]string{"foo", "bar"}, got)
}

func TestSubstituteMissingParameter(t *testing.T) {
	require := require.New(t)
	_, err := Substitute("SELECT $missing", nil, nil)
	require.Error(err)
}

func TestSubstituteOrdinaryAndViewParameters(t *testing.T) {
	require := require.New(t)
	sql, err := Substitute(
		"SELECT * FROM $tenant.users WHERE email = $email",
		map[string]interface{}{"email": "alice@example.com"},
		map[string]string{"tenant": "acme"},
	)
	require.NoError(err)
	require.Equal(`SELECT * FROM 'acme'.users WHERE email = 'alice@example.com'`, sql)
}

func TestValidateParamName(t *testing.T) {
	require := require.New(t)
	require.True(ValidateParamName("email"))
	require.True(ValidateParamName("_tenant_id"))
	require.False(ValidateParamName("1abc"))
	require.False(ValidateParamName("a-b"))
}
