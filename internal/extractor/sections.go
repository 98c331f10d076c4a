package extractor

import (
	"strings"

	"resume-match-go/internal/types"
)

// sectionRule 单个章节的触发关键词集
type sectionRule struct {
	label    types.SectionLabel
	keywords []string
}

// containsAnyKeyword 判断小写句子是否包含任一关键词
func containsAnyKeyword(lowerSentence string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lowerSentence, kw) {
			return true
		}
	}
	return false
}

// segmentSentences 按顺序遍历句子的章节切分：
// 一个显式的小状态机，状态为 {NONE, EXPERIENCE, EDUCATION, SKILLS}，
// 唯一的转移规则是句子命中某章节关键词时切换到该章节，
// 命中句本身归入新章节；首个触发句之前的句子不归属任何章节。
//
// 已知的启发式弱点：无关句子里顺带出现章节关键词（比如技能段落里
// 提到 "bachelor's degree"）会把后续内容错并到教育章节。这是
// 关键词驱动切分的固有代价，按现状保留。
func segmentSentences(ann *types.Annotation, rules []sectionRule) map[types.SectionLabel][]string {
	sections := make(map[types.SectionLabel][]string)
	current := types.SectionNone

	for _, sent := range ann.Sentences {
		text := ann.SentenceText(sent)
		lower := strings.ToLower(text)
		for _, rule := range rules {
			if containsAnyKeyword(lower, rule.keywords) {
				current = rule.label
				break
			}
		}
		if current == types.SectionNone {
			continue
		}
		sections[current] = append(sections[current], text)
	}

	return sections
}

// coarseKeywordPass 整篇兜底扫描：收集所有包含任一关键词的句子。
// 用于章节切分一无所获时的粗粒度回退。
func coarseKeywordPass(ann *types.Annotation, keywords []string) []string {
	var matched []string
	for _, sent := range ann.Sentences {
		text := ann.SentenceText(sent)
		if containsAnyKeyword(strings.ToLower(text), keywords) {
			matched = append(matched, text)
		}
	}
	return matched
}

// sectionText 拼接章节句子并按上限截断；章节为空时执行兜底扫描
func sectionText(ann *types.Annotation, sentences []string, keywords []string, maxLen int) string {
	if len(sentences) == 0 {
		sentences = coarseKeywordPass(ann, keywords)
	}
	return truncateRunes(strings.Join(sentences, " "), maxLen)
}
