package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is the parsed form of an error: code plus a safe message.
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError maps database and connectivity errors to response codes
// without leaking driver internals to the caller.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "An internal error occurred",
		}
	}

	errStr := strings.ToLower(err.Error())

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: notFoundMessage(context),
		}
	}

	// Unique constraint violation (23505)
	if strings.Contains(errStr, "duplicate key") || strings.Contains(errStr, "unique constraint") {
		if strings.Contains(errStr, "slug") {
			return ErrorInfo{Code: ResourceAlreadyExists, Message: "A product line with this slug already exists"}
		}
		if strings.Contains(errStr, "sku_code") {
			return ErrorInfo{Code: ResourceAlreadyExists, Message: "A product with this SKU code already exists"}
		}
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "The record already exists"}
	}

	// Foreign key constraint violation (23503)
	if strings.Contains(errStr, "foreign key constraint") {
		if strings.Contains(errStr, "still referenced") {
			return ErrorInfo{Code: ResourceConflict, Message: "The record is still referenced and cannot be removed"}
		}
		return ErrorInfo{Code: ResourceNotFound, Message: "A referenced record does not exist"}
	}

	// Not null constraint violation (23502)
	if strings.Contains(errStr, "null value") && strings.Contains(errStr, "not-null constraint") {
		return ErrorInfo{Code: ValidationRequired, Message: "A required field is missing"}
	}

	// Driver-level database failures
	if strings.Contains(errStr, "sqlstate") ||
		strings.Contains(errStr, "database is closed") ||
		strings.Contains(errStr, "bad connection") {
		return ErrorInfo{
			Code:    InternalDatabaseError,
			Message: "A database error occurred. Please try again later",
		}
	}

	// Connectivity
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "An external service is unreachable. Please try again later",
		}
	}

	return ErrorInfo{
		Code:    InternalServerError,
		Message: "An internal error occurred. Please try again later",
	}
}

func notFoundMessage(context string) string {
	contextLower := strings.ToLower(context)
	switch {
	case strings.Contains(contextLower, "line"):
		return "Product line not found"
	case strings.Contains(contextLower, "product"):
		return "Product not found"
	case strings.Contains(contextLower, "rule"):
		return "Rule not found"
	case strings.Contains(contextLower, "session"):
		return "Configurator session not found"
	default:
		return "The requested record was not found"
	}
}
