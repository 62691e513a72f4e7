package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"
)

// AppError is a business failure that maps directly onto an HTTP response.
type AppError struct {
	Status    int
	Code      int
	ErrorCode string
	Message   string
}

func (e *AppError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.ErrorCode, e.Message)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// WithErrorCode attaches a symbolic error code for clients.
func (e *AppError) WithErrorCode(code string) *AppError {
	e.ErrorCode = code
	return e
}

func NotFound(code int, message string) *AppError {
	return &AppError{Status: http.StatusNotFound, Code: code, Message: message}
}

func BadRequest(code int, message string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Code: code, Message: message}
}

func Unauthorized(code int, message string) *AppError {
	return &AppError{Status: http.StatusUnauthorized, Code: code, Message: message}
}

func Forbidden(code int, message string) *AppError {
	return &AppError{Status: http.StatusForbidden, Code: code, Message: message}
}

// AsAppError unwraps err into an *AppError when it carries one.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// notFoundOr turns gorm.ErrRecordNotFound into nf and wraps anything else with op.
func notFoundOr(err error, nf *AppError, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nf
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isUniqueViolation recognises duplicate key errors across mysql, postgres and sqlite.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key")
}
