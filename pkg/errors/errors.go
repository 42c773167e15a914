// Package errors carries typed API errors. Every Code maps to an HTTP status and a public message;
// details are only exposed for codes that allow them.
package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeForbidden         Code = "FORBIDDEN"
	CodeNotFound          Code = "NOT_FOUND"
	CodeConflict          Code = "CONFLICT"
	CodeStockInsufficient Code = "STOCK_INSUFFICIENT"
	CodeStateConflict     Code = "STATE_CONFLICT"
	CodeCouponInvalid     Code = "COUPON_INVALID"
	CodeIdempotency       Code = "IDEMPOTENCY_KEY"
	CodeRateLimit         Code = "RATE_LIMITED"
	CodeInternal          Code = "INTERNAL_ERROR"
	CodeDependency        Code = "DEPENDENCY_ERROR"
)

type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

func meta(status int, public string, retryable, details bool) Metadata {
	return Metadata{HTTPStatus: status, Retryable: retryable, PublicMessage: public, DetailsAllowed: details}
}

var codes = map[Code]Metadata{
	CodeValidation:        meta(http.StatusBadRequest, "validation failed", false, true),
	CodeUnauthorized:      meta(http.StatusUnauthorized, "authentication required", false, false),
	CodeForbidden:         meta(http.StatusForbidden, "access denied", false, false),
	CodeNotFound:          meta(http.StatusNotFound, "resource not found", false, false),
	CodeConflict:          meta(http.StatusConflict, "conflict detected", false, false),
	CodeStockInsufficient: meta(http.StatusConflict, "insufficient stock", false, true),
	CodeStateConflict:     meta(http.StatusUnprocessableEntity, "state transition disallowed", false, true),
	CodeCouponInvalid:     meta(http.StatusUnprocessableEntity, "coupon cannot be applied", false, true),
	CodeIdempotency:       meta(http.StatusConflict, "idempotency key reused", false, true),
	CodeRateLimit:         meta(http.StatusTooManyRequests, "rate limit exceeded", false, false),
	CodeInternal:          meta(http.StatusInternalServerError, "internal server error", true, false),
	CodeDependency:        meta(http.StatusServiceUnavailable, "dependency unavailable", true, true),
}

// MetadataFor falls back to INTERNAL_ERROR for unknown codes.
func MetadataFor(code Code) Metadata {
	if m, ok := codes[code]; ok {
		return m
	}
	return codes[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

// Code is CodeInternal on a nil receiver so callers can switch on As(err).Code() safely.
func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return string(e.code) + ": " + e.message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// StockInsufficient reports a quantity above what is on hand.
func StockInsufficient(available int) *Error {
	return New(CodeStockInsufficient, fmt.Sprintf("only %d left in stock", available)).
		WithDetails(map[string]any{"available": available})
}

func CouponInvalid(reason, message string) *Error {
	return New(CodeCouponInvalid, message).WithDetails(map[string]any{"reason": reason})
}

func IsCode(err error, code Code) bool {
	return As(err) != nil && As(err).Code() == code
}

// As returns the outermost *Error in err's chain, or nil.
func As(err error) *Error {
	var typed *Error
	if err != nil && stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}
