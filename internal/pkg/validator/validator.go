package validator

import (
	"regexp"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var msgs []string
	for _, err := range v {
		msgs = append(msgs, err.Field+": "+err.Message)
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) ToMap() map[string]string {
	result := make(map[string]string)
	for _, err := range v {
		result[err.Field] = err.Message
	}
	return result
}

// Range keys are short lowercase tokens such as "7d" or "1y".
var rangeParamRegex = regexp.MustCompile(`^[0-9a-z]{1,8}$`)

func IsValidRangeParam(s string) bool {
	return rangeParamRegex.MatchString(s)
}

// ValidateRangeParam rejects malformed range query values. An empty value is
// allowed, and unknown but well-formed keys are left to the caller's fallback.
func ValidateRangeParam(field, value string) error {
	if value == "" {
		return nil
	}
	if !IsValidRangeParam(value) {
		return ValidationErrors{{
			Field:   field,
			Message: "must be at most 8 characters of lowercase letters and digits",
		}}
	}
	return nil
}
