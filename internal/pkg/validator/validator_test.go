package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidRangeParam(t *testing.T) {
	valid := []string{"1d", "7d", "30d", "1y", "2w", "abcdefgh"}
	invalid := []string{"", "7D", "7 d", "30-d", "abcdefghi", "1d;drop", "ø"}
	for _, s := range valid {
		assert.True(t, IsValidRangeParam(s), "IsValidRangeParam(%q)", s)
	}
	for _, s := range invalid {
		assert.False(t, IsValidRangeParam(s), "IsValidRangeParam(%q)", s)
	}
}

func TestValidateRangeParam(t *testing.T) {
	assert.NoError(t, ValidateRangeParam("range", ""))
	assert.NoError(t, ValidateRangeParam("range", "2w"))

	err := ValidateRangeParam("range", "123456789")
	require.Error(t, err)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs.ToMap(), "range")
}

func TestValidationErrorsError(t *testing.T) {
	errs := ValidationErrors{
		{Field: "range", Message: "bad"},
		{Field: "token", Message: "missing"},
	}
	assert.Equal(t, "range: bad; token: missing", errs.Error())
}
