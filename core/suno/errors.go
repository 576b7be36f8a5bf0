package suno

import "fmt"

// AuthError 会话或token获取失败。对触发的调用是致命错误，
// 但不污染共享状态：token被清空，之后可以重新走 Initialize -> KeepAlive。
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("suno auth: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("suno auth: %s", e.Reason)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// GenerationError 生成任务被服务商拒绝，携带原始响应体用于排查
type GenerationError struct {
	StatusCode int
	Body       string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("suno generation rejected (status %d): %s", e.StatusCode, e.Body)
}
