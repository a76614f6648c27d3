package errcode

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 对错误进行分类，API 层据此映射 HTTP 状态码：
// - Validation：请求参数错误或唯一键冲突（400）
// - Auth：未认证或凭据错误（401）
// - NotFound：资源不存在或不属于当前用户（404）
// - Upstream：调用大模型服务失败（500）
// - Store：数据库读写失败（500）
// - Unavailable：依赖的可选组件未启用（503）
type Kind int

const (
	Internal Kind = iota
	Validation
	Auth
	NotFound
	Upstream
	Store
	Unavailable
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Auth:
		return "auth"
	case NotFound:
		return "not_found"
	case Upstream:
		return "upstream"
	case Store:
		return "store"
	case Unavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// HTTPStatus maps the kind to the response status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case Validation:
		return http.StatusBadRequest
	case Auth:
		return http.StatusUnauthorized
	case NotFound:
		return http.StatusNotFound
	case Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a client-safe Message and the wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New 构造不带底层原因的错误。
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap 构造携带底层原因的错误。
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Invalid(message string) *Error { return New(Validation, message) }
func Missing(message string) *Error { return New(NotFound, message) }
func Denied(message string) *Error  { return New(Auth, message) }
func StoreFailed(op string, err error) *Error {
	return Wrap(Store, op, err)
}
func UpstreamFailed(op string, err error) *Error {
	return Wrap(Upstream, op, err)
}

// KindOf returns the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// MessageOf returns the client-facing message of err's *Error, or "".
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
