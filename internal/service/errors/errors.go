package errors

// 服务层错误码。只为 HTTP 层需要区分响应的失败建码：
// 找不到、越权、业务规则拒绝，其余失败一律归为内部错误。
type ErrorCode int

const (
	ErrInternal ErrorCode = iota
	// ErrNotFound 目标实体不存在（用户/帖子/评论/回复）
	ErrNotFound
	// ErrForbidden 查看者不是资源属主
	ErrForbidden
	// ErrInvalidInput 业务规则拒绝的输入，例如关注自己
	ErrInvalidInput
)

// ServiceError 携带错误码的服务层错误
type ServiceError struct {
	Code    ErrorCode
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// New 创建服务错误
func New(code ErrorCode, message string) error {
	return &ServiceError{Code: code, Message: message}
}

// GetErrorCode 取出错误码，非服务错误一律视为内部错误
func GetErrorCode(err error) ErrorCode {
	if se, ok := err.(*ServiceError); ok {
		return se.Code
	}
	return ErrInternal
}
