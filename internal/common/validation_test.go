package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_CollectsErrors(t *testing.T) {
	v := NewValidator().
		Field("zone_code", "", Required).
		Field("equipment_code", "PCF B24", Code).
		Field("action", "explode", OneOf("activate", "deactivate")).
		Field("name", "ok", Required, MaxLength(10))

	require.True(t, v.HasErrors())
	assert.Len(t, v.Errors(), 3)

	err := v.Err()
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "zone_code")
}

func TestValidator_NoErrors(t *testing.T) {
	v := NewValidator().Field("code", "B24.006", Required, Code)
	assert.NoError(t, v.Err())
}
