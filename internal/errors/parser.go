package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is a store-layer error translated into a user-safe code and
// message. Internal detail never leaks to the caller.
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError maps database errors to user-facing ErrorInfo. context names
// the resource being touched ("product", "cart", "order", ...).
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "Something went wrong",
		}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: notFoundMessage(context),
		}
	}

	errStr := strings.ToLower(err.Error())

	// Unique constraint violation (postgres 23505, sqlite "UNIQUE constraint failed")
	if strings.Contains(errStr, "duplicate key") || strings.Contains(errStr, "unique constraint") {
		return ErrorInfo{
			Code:    ResourceAlreadyExists,
			Message: duplicateMessage(context),
		}
	}

	// Foreign key constraint violation (23503)
	if strings.Contains(errStr, "foreign key constraint") {
		return ErrorInfo{
			Code:    ResourceConflict,
			Message: "This record is referenced by other data and cannot be changed",
		}
	}

	// Check constraint violation (23514), e.g. stock >= 0
	if strings.Contains(errStr, "check constraint") {
		return ErrorInfo{
			Code:    ValidationInvalidRange,
			Message: "The requested change violates a data constraint",
		}
	}

	return ErrorInfo{
		Code:    InternalDatabaseError,
		Message: "A database error occurred. Please try again later",
	}
}

func notFoundMessage(context string) string {
	switch context {
	case "product":
		return "Product not found"
	case "cart":
		return "Cart not found"
	case "order":
		return "Order not found"
	case "review":
		return "Review not found"
	case "user":
		return "User not found"
	default:
		return "Resource not found"
	}
}

func duplicateMessage(context string) string {
	switch context {
	case "product":
		return "A product with this slug already exists"
	case "user":
		return "An account with this email already exists"
	case "review":
		return "You have already reviewed this product"
	default:
		return "This record already exists"
	}
}
