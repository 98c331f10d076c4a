package extractor

import (
	"errors"
	"fmt"
)

// 定义基础错误类型
var (
	// ErrEmptyDocument 输入文本为空，无法提取任何信息。
	// 这是提取器唯一的硬失败：单个字段提取失败一律降级为默认值。
	ErrEmptyDocument = errors.New("简历文本为空")
)

// ExtractError 包含详细错误信息的自定义错误
type ExtractError struct {
	Op      string
	BaseErr error
	Detail  string
}

func (e *ExtractError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s): %s", e.BaseErr, e.Op, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s)", e.BaseErr, e.Op)
}

func (e *ExtractError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *ExtractError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

// NewEmptyDocumentError 构造空文档错误，detail为面向人的原因描述
func NewEmptyDocumentError(detail string) error {
	return &ExtractError{
		Op:      "extract",
		BaseErr: ErrEmptyDocument,
		Detail:  detail,
	}
}
