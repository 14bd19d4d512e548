// Package port file: internal/core/port/errors.go
package port

import (
	"errors"
	"fmt"
)

// 错误种类（哨兵错误），通过 errors.Is 判断
var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidFilter     = errors.New("invalid filter")
	ErrInvalidPagination = errors.New("invalid pagination")
	ErrInvalidState      = errors.New("invalid state")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInternal          = errors.New("internal error")
)

// InternalMessage 是所有基础设施错误对外统一展示的消息
const InternalMessage = "Internal server error"

// Error 是业务层统一的错误类型。
// Message 可以安全地返回给客户端；Cause 只用于本地日志，绝不外泄。
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap 同时暴露错误种类与底层原因，errors.Is 对两者都生效
func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

func newError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error { return newError(ErrNotFound, format, args...) }

func Unauthorized(format string, args ...any) *Error {
	return newError(ErrUnauthorized, format, args...)
}

func InvalidFilter(format string, args ...any) *Error {
	return newError(ErrInvalidFilter, format, args...)
}

func InvalidPagination(format string, args ...any) *Error {
	return newError(ErrInvalidPagination, format, args...)
}

func InvalidState(format string, args ...any) *Error {
	return newError(ErrInvalidState, format, args...)
}

func InvalidInput(format string, args ...any) *Error {
	return newError(ErrInvalidInput, format, args...)
}

// Internal 把基础设施错误包装成对外统一的 "Internal server error"
func Internal(cause error) *Error {
	return &Error{Kind: ErrInternal, Message: InternalMessage, Cause: cause}
}

// Normalize 在公共操作的边界上调用：
// 业务错误原样返回，其余一律替换为 Internal。
func Normalize(err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// PublicMessage 返回可以展示给客户端的消息
func PublicMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return InternalMessage
}
