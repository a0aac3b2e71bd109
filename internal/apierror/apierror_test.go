package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"cantina/internal/apperror"

	"github.com/stretchr/testify/assert"
)

func TestFromError_StatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{apperror.Validation("amount deve ser um valor positivo"), http.StatusUnprocessableEntity},
		{apperror.NotFound("aluno", "x"), http.StatusNotFound},
		{apperror.InsufficientStock("no stock"), http.StatusConflict},
		{apperror.InsufficientFunds("no funds"), http.StatusConflict},
		{apperror.Concurrency(3, nil), http.StatusServiceUnavailable},
		{apperror.AccessDenied("other school"), http.StatusForbidden},
	}
	for _, tc := range cases {
		status, body, known := FromError(fmt.Errorf("wrapped: %w", tc.err))
		assert.True(t, known)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.NotEmpty(t, body.Code)
	}
}

func TestFromError_HidesInternalErrors(t *testing.T) {
	status, body, known := FromError(errors.New("pq: relation \"students\" does not exist"))

	assert.False(t, known)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, InternalMessage, body.Detail)
}
