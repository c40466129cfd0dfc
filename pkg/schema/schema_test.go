package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinTypes(t *testing.T) {
	assert.NoError(t, String().Validate("hello"))
	assert.Error(t, String().Validate(42))

	assert.NoError(t, Int().Validate(3))
	assert.NoError(t, Int().Validate(float64(3)), "whole JSON numbers are ints")
	assert.Error(t, Int().Validate(3.5))
	assert.Error(t, Int().Validate("3"))

	assert.NoError(t, Bool().Validate(true))
	assert.Error(t, Bool().Validate("true"))
}

func TestDateType_ShapeOnly(t *testing.T) {
	d := Date()

	assert.NoError(t, d.Validate("2025-05-10"))
	// Shape check only: calendar correctness is out of scope for this layer.
	assert.NoError(t, d.Validate("2025-02-31"))

	assert.Error(t, d.Validate("10-05-2025"))
	assert.Error(t, d.Validate("2025-5-10"))
	assert.Error(t, d.Validate("2025-05-10T00:00:00Z"))
	assert.Error(t, d.Validate(20250510))
}

func TestEnumType(t *testing.T) {
	e := Enum("CONFIRM", "CANCEL")

	assert.NoError(t, e.Validate("CONFIRM"))
	assert.NoError(t, e.Validate("CANCEL"))
	assert.Error(t, e.Validate("confirm"))
	assert.Error(t, e.Validate(1))
}

func TestParams_Validate(t *testing.T) {
	params := Params{
		{Name: "repo_url", Type: String(), Required: true},
		{Name: "start_date", Type: Date(), Required: false},
	}

	t.Run("valid", func(t *testing.T) {
		err := params.Validate(map[string]any{"repo_url": "https://github.com/acme/widget"})
		assert.NoError(t, err)
	})

	t.Run("missing required", func(t *testing.T) {
		err := params.Validate(map[string]any{})
		var missing *MissingError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "repo_url", missing.Parameter)
	})

	t.Run("wrong type", func(t *testing.T) {
		err := params.Validate(map[string]any{"repo_url": 42})
		var invalid *ValidationError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "repo_url", invalid.Key)
	})

	t.Run("optional absent", func(t *testing.T) {
		err := params.Validate(map[string]any{"repo_url": "x"})
		assert.NoError(t, err)
	})
}
