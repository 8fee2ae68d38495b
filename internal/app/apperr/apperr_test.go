package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", Invalid("email", "required"), http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("create user: %w", Invalid("email", "taken")), http.StatusBadRequest},
		{"unauthenticated", ErrUnauthenticated, http.StatusUnauthorized},
		{"forbidden", fmt.Errorf("update: %w", ErrForbidden), http.StatusForbidden},
		{"not found", NotFound("demande", 7), http.StatusNotFound},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}

func TestViolations(t *testing.T) {
	v := Violations{}
	require.NoError(t, v.Err())

	v.Add("montant", "must_be_positive")
	v.Add("montant", "required")
	v.Add("type", "invalid_choice")

	err := v.Err()
	require.Error(t, err)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "must_be_positive", ve.Fields["montant"])
	assert.Equal(t, "validation failed: montant: must_be_positive; type: invalid_choice", err.Error())
}

func TestNotFoundMessage(t *testing.T) {
	err := NotFound("paiement", uint(3))
	assert.Equal(t, "paiement 3 not found", err.Error())
	assert.True(t, IsNotFound(fmt.Errorf("wrap: %w", err)))
	assert.False(t, IsValidation(err))
}
