package compileerr

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorKindsFormatArgs(t *testing.T) {
	require := require.New(t)
	err := ErrUnknownRelationshipType.New("BEFRIENDED", "User", "User")
	require.Error(err)
	require.Contains(err.Error(), "BEFRIENDED")
	require.True(ErrUnknownRelationshipType.Is(err))
	require.False(ErrParse.Is(err))
}

func TestKindDiscriminatesEverySentinel(t *testing.T) {
	require := require.New(t)
	require.Equal("ParseError", Kind(ErrParse.New(0, "bad token")))
	require.Equal("UnknownNodeLabel", Kind(ErrUnknownNodeLabel.New("Robot")))
	require.Equal("UnknownRelationshipType", Kind(ErrUnknownRelationshipType.New("BEFRIENDED", "User", "User")))
	require.Equal("SchemaConstraintError", Kind(ErrSchemaConstraint.New("missing identifier")))
	require.Equal("FilterBindingError", Kind(ErrFilterBinding.New("x")))
	require.Equal("PropertyNotFound", Kind(ErrPropertyNotFound.New("nickname", "u")))
	require.Equal("VariableLengthConstraintError", Kind(ErrVariableLengthConstraint.New("min > max")))
	require.Equal("ParameterError", Kind(ErrParameter.New("missing $email")))
	require.Equal("CteValidationError", Kind(ErrCteValidation.New("cte_3")))
}

func TestKindDefaultsToCompileErrorForUnrecognizedError(t *testing.T) {
	require.Equal(t, "CompileError", Kind(fmt.Errorf("some other failure")))
}

func TestWarningsPreservesOrder(t *testing.T) {
	require := require.New(t)
	w := &Warnings{}
	w.Add("first %d", 1)
	w.Add("second %s", "warning")
	require.Equal([]string{"first 1", "second warning"}, w.List())
}

func TestNilWarningsListIsEmpty(t *testing.T) {
	var w *Warnings
	require.Nil(t, w.List())
}
