package annotator

import (
	"context"

	"resume-match-go/internal/types"
)

// Annotator 外部语言标注服务的能力边界。
// 给定原始文本，产出词元（表层形式+词元+停用词/标点标记）、
// 句子边界和命名实体片段。核心组件只依赖该接口，不关心具体实现，
// 测试中可用假实现替换。
type Annotator interface {
	// Annotate 对一段原始文本做完整标注
	Annotate(ctx context.Context, text string) (*types.Annotation, error)
}
