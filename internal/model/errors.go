package model

import (
	"errors"
	"fmt"
)

// 各层共享的哨兵错误，handler 根据它们映射 HTTP 状态码。
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
)

// ValidationError 描述单个字段的校验失败。
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError 创建一个字段级校验错误。
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
