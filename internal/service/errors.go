package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// 错误分类（HTTP 映射只在 api 层做）：
// - ValidationError：客户端可修复的字段错误
// - ErrNotFound：资源不存在，或不归属当前用户——对外不区分，避免泄露他人资源的存在性
// - ErrConflict：唯一约束竞态。正常路径被行锁挡住，万一漏过来按可重试冲突处理，不算致命
var (
	ErrNotFound    = errors.New("resource not found")
	ErrConflict    = errors.New("conflict, please retry")
	ErrNoActiveApp = errors.New("no active app for this platform, set client id/secret first")
)

// ErrPollNotLive 投票不在窗口内时的作答拒绝（属校验类错误）
var ErrPollNotLive = &ValidationError{Field: "poll", Message: "poll is not live"}

// ValidationError 带字段定位的校验错误
type ValidationError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// invalidf 构造字段校验错误
func invalidf(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// wrapNotFound 把 gorm 的未找到翻译为对外的 ErrNotFound
func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// translateWriteErr 唯一键冲突翻译为可重试的 ErrConflict（需要 gorm TranslateError 开启）
func translateWriteErr(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	return err
}

// conflictRetries 冲突重试预算：撞锁竞态重试一次即可，再失败就抛给调用方
const conflictRetries = 1

// withConflictRetry 对事务体做有限次冲突重试
func withConflictRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt <= conflictRetries; attempt++ {
		if err = fn(); !errors.Is(err, ErrConflict) {
			return err
		}
	}
	return err
}
