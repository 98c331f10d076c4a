package extractor // 简历信息提取器：原始文本+语言标注 → 结构化简历记录

import (
	"context"
	"strings"

	"resume-match-go/internal/annotator"
	"resume-match-go/internal/config"
	"resume-match-go/internal/logger"
	"resume-match-go/internal/types"
)

// Extractor 简历信息提取器。
// 标注器通过构造函数注入而不是进程级单例，便于测试时替换假实现。
// 提取器自身不持有跨调用可变状态，可安全并发使用。
type Extractor struct {
	annotator annotator.Annotator
	strategy  ExtractionStrategy
	params    *Params
}

// ExtractorOption 定义配置选项函数
type ExtractorOption func(*Extractor)

// WithStrategy 替换提取策略（默认为章节感知策略）
func WithStrategy(strategy ExtractionStrategy) ExtractorOption {
	return func(e *Extractor) {
		e.strategy = strategy
	}
}

// New 由配置和标注器创建提取器
func New(cfg config.ExtractorConfig, ann annotator.Annotator, options ...ExtractorOption) *Extractor {
	params := NewParams(
		cfg.SkillVocabulary,
		cfg.ExperienceKeywords,
		cfg.EducationKeywords,
		cfg.SkillKeywords,
		cfg.ExperienceMaxLen,
		cfg.EducationMaxLen,
		cfg.NameScanLines,
	)

	e := &Extractor{
		annotator: ann,
		params:    params,
		strategy:  NewSectionAware(params),
	}

	for _, option := range options {
		option(e)
	}

	return e
}

// Params 返回提取器的规则配置（只读）
func (e *Extractor) Params() *Params {
	return e.params
}

// StrategyName 返回当前策略名
func (e *Extractor) StrategyName() string {
	return e.strategy.Name()
}

// Extract 提取一份简历。
// 唯一的硬失败是空文本（ErrEmptyDocument）；标注服务出错时降级为
// 空标注继续提取（规则部分仍然有效），单个字段提取失败取默认值，
// 返回的记录保证所有字段就位。
func (e *Extractor) Extract(ctx context.Context, rawText string) (*types.ResumeRecord, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, NewEmptyDocumentError("无法从文档中获得任何文本")
	}

	ann, err := e.annotator.Annotate(ctx, rawText)
	if err != nil {
		// 标注失败不是硬错误：正则与词表部分不依赖标注，
		// 依赖句子/实体的字段自然落到各自的默认值
		logger.Warn().
			Err(err).
			Str("strategy", e.strategy.Name()).
			Msg("语言标注失败，降级为空标注继续提取")
		ann = &types.Annotation{}
	}

	return e.strategy.Extract(rawText, ann), nil
}

// ExtractFromAnnotation 纯函数形态的提取入口：调用方自备标注。
// 行为与 Extract 一致，便于离线批处理和测试复用。
func (e *Extractor) ExtractFromAnnotation(rawText string, ann *types.Annotation) (*types.ResumeRecord, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, NewEmptyDocumentError("无法从文档中获得任何文本")
	}
	if ann == nil {
		ann = &types.Annotation{}
	}
	return e.strategy.Extract(rawText, ann), nil
}
