// Package apperror defines the business error taxonomy shared by the store,
// the ledger services and the HTTP layer. Errors carry a stable Code so callers
// can branch with errors.Is regardless of the message.
package apperror

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeValidation        Code = "VALIDATION"
	CodeNotFound          Code = "NOT_FOUND"
	CodeInsufficientStock Code = "INSUFFICIENT_STOCK"
	CodeInsufficientFunds Code = "INSUFFICIENT_FUNDS"
	CodeConcurrency       Code = "CONCURRENCY"
	CodeAccessDenied      Code = "ACCESS_DENIED"
)

// Error is a business failure. Two *Error values match under errors.Is when
// their codes are equal.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrValidation        = &Error{Code: CodeValidation, Message: "dados invalidos"}
	ErrNotFound          = &Error{Code: CodeNotFound, Message: "registro nao encontrado"}
	ErrInsufficientStock = &Error{Code: CodeInsufficientStock, Message: "estoque insuficiente"}
	ErrInsufficientFunds = &Error{Code: CodeInsufficientFunds, Message: "saldo insuficiente"}
	ErrConcurrency       = &Error{Code: CodeConcurrency, Message: "alteracao concorrente"}
	ErrAccessDenied      = &Error{Code: CodeAccessDenied, Message: "acesso negado"}
)

func Validation(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing record of the given kind ("aluno", "produto", ...).
func NotFound(kind string, id any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf("%s %v: registro nao encontrado", kind, id)}
}

func InsufficientStock(format string, args ...any) *Error {
	return &Error{Code: CodeInsufficientStock, Message: fmt.Sprintf(format, args...)}
}

func InsufficientFunds(format string, args ...any) *Error {
	return &Error{Code: CodeInsufficientFunds, Message: fmt.Sprintf(format, args...)}
}

// Concurrency wraps the last storage error seen before the retry budget ran out.
func Concurrency(attempts int, cause error) *Error {
	return &Error{
		Code:    CodeConcurrency,
		Message: fmt.Sprintf("operacao abortada apos %d tentativas por escritas concorrentes", attempts),
		Err:     cause,
	}
}

func AccessDenied(format string, args ...any) *Error {
	return &Error{Code: CodeAccessDenied, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
