package service

import (
	"errors"
	"fmt"
	"net/http"

	"familytree_go/internal/repository"
)

// ErrorCode 错误码类型
type ErrorCode int

const (
	// 系统级错误码
	ErrSystem ErrorCode = iota + 1
	ErrConfig
	ErrDatabase
	ErrValidation
	ErrAuthentication
	ErrForbidden
	ErrNotFound
	ErrRateLimited
	ErrInternal
)

// AppError 应用程序错误
type AppError struct {
	Code    ErrorCode              // 错误码
	Message string                 // 错误消息
	Err     error                  // 原始错误
	Context map[string]interface{} // 上下文信息
}

// Error 实现error接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 实现errors.Unwrap接口
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewError 创建新的应用程序错误
func NewError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
		Context: make(map[string]interface{}),
	}
}

// WithContext 添加上下文信息
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	e.Context[key] = value
	return e
}

// HasCode 检查错误码是否匹配
func (e *AppError) HasCode(code ErrorCode) bool {
	return e.Code == code
}

// HTTPStatus 错误码对应的HTTP状态码
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case ErrValidation:
		return http.StatusBadRequest
	case ErrAuthentication:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrNotFound:
		return http.StatusNotFound
	case ErrRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Public 返回给客户端的错误信息
func (e *AppError) Public() string {
	if e.Code == ErrDatabase && e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// AsAppError 将任意错误转换为AppError
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, repository.ErrNotFound) {
		return NewError(ErrNotFound, "resource not found", err)
	}
	return NewError(ErrInternal, "internal server error", err)
}

// CodeOf 获取错误码，非AppError返回ErrInternal
func CodeOf(err error) ErrorCode {
	if err == nil {
		return 0
	}
	return AsAppError(err).Code
}

// ValidationError 参数校验错误
func ValidationError(message string) *AppError {
	return NewError(ErrValidation, message, nil)
}

// NotFoundError 资源不存在
func NotFoundError(message string) *AppError {
	return NewError(ErrNotFound, message, nil)
}

// ForbiddenError 禁止操作
func ForbiddenError(message string) *AppError {
	return NewError(ErrForbidden, message, nil)
}

// DatabaseError 存储层错误
func DatabaseError(err error) *AppError {
	return NewError(ErrDatabase, "database error", err)
}

// storageError 将仓储错误映射为AppError，记录不存在时使用给定信息
func storageError(err error, notFoundMessage string) *AppError {
	if errors.Is(err, repository.ErrNotFound) {
		return NotFoundError(notFoundMessage)
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return DatabaseError(err)
}
