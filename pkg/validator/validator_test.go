package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Kind  string `validate:"required,oneof=a b"`
	Count int    `validate:"gt=0"`
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(sample{Kind: "a", Count: 1}))
}

func TestStruct_CollectsAllFieldErrors(t *testing.T) {
	err := Struct(sample{Kind: "c", Count: 0})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.Contains(t, err.Error(), "Kind must be one of [a b]")
	assert.Contains(t, err.Error(), "Count must be greater than 0")
}

func TestStruct_MissingRequired(t *testing.T) {
	err := Struct(sample{Count: 2})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Kind is required")
}
