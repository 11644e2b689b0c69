package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/teamflow-analytics/internal/domain/analytics"
	"github.com/cmlabs-hris/teamflow-analytics/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", validator.ValidationErrors{{Field: "range", Message: "bad"}}, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"missing token", analytics.ErrMissingToken, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"wrapped invalid token", fmt.Errorf("verify: %w", analytics.ErrInvalidToken), http.StatusUnauthorized, "UNAUTHORIZED"},
		{"role", analytics.ErrInsufficientRole, http.StatusForbidden, "FORBIDDEN"},
		{"anything else", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleError(rec, c.err)

			assert.Equal(t, c.status, rec.Code)
			var res Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
			assert.False(t, res.Success)
			require.NotNil(t, res.Error)
			assert.Equal(t, c.code, res.Error.Code)
		})
	}
}
