package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := NotFound("aluno", "abc")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "aluno abc: registro nao encontrado", err.Error())
}

func TestError_IsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("purchase: %w", InsufficientStock("produto %s tem %d unidades", "Soda", 2))

	assert.True(t, errors.Is(wrapped, ErrInsufficientStock))
	assert.Equal(t, CodeInsufficientStock, CodeOf(wrapped))
}

func TestConcurrency_UnwrapsCause(t *testing.T) {
	cause := errors.New("deadlock detected")
	err := Concurrency(3, cause)

	assert.True(t, errors.Is(err, ErrConcurrency))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "3 tentativas")
}

func TestCodeOf_PlainError(t *testing.T) {
	assert.Equal(t, Code(""), CodeOf(errors.New("boom")))
}
