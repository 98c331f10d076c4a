package types

import "strings"

// 实体标签，由外部语言标注服务给出
const (
	// EntityPerson 人名
	EntityPerson = "PERSON"
	// EntityOrg 机构名
	EntityOrg = "ORG"
	// EntityDate 日期
	EntityDate = "DATE"
)

// Token 标注服务产出的单个词元
type Token struct {
	// Text 表层形式
	Text string `json:"text"`
	// Lemma 词元还原形式
	Lemma string `json:"lemma"`
	// IsStop 是否为停用词
	IsStop bool `json:"is_stop"`
	// IsPunct 是否为标点
	IsPunct bool `json:"is_punct"`
}

// Sentence 句子边界，为词元序列上的连续区间 [Start, End)
type Sentence struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// Entity 命名实体片段
type Entity struct {
	// Label 实体标签，如 PERSON / ORG / DATE
	Label string `json:"label"`
	// Text 实体覆盖的文本
	Text string `json:"text"`
}

// Annotation 外部语言标注服务对一段原始文本的完整标注结果。
// 核心组件只消费标注，不实现标注本身。
type Annotation struct {
	Tokens    []Token    `json:"tokens"`
	Sentences []Sentence `json:"sentences"`
	Entities  []Entity   `json:"entities"`
}

// EntitiesByLabel 返回指定标签的全部实体，保持出现顺序
func (a *Annotation) EntitiesByLabel(label string) []Entity {
	var out []Entity
	for _, ent := range a.Entities {
		if ent.Label == label {
			out = append(out, ent)
		}
	}
	return out
}

// FirstEntity 返回指定标签的第一个实体文本，不存在时返回空串
func (a *Annotation) FirstEntity(label string) string {
	for _, ent := range a.Entities {
		if ent.Label == label {
			return ent.Text
		}
	}
	return ""
}

// SentenceText 返回句子文本。标注服务通常直接给出 Text 字段，
// 缺失时按词元区间拼接兜底。
func (a *Annotation) SentenceText(s Sentence) string {
	if s.Text != "" {
		return s.Text
	}
	if s.Start < 0 || s.End > len(a.Tokens) || s.Start >= s.End {
		return ""
	}
	parts := make([]string, 0, s.End-s.Start)
	for _, tok := range a.Tokens[s.Start:s.End] {
		parts = append(parts, tok.Text)
	}
	return strings.Join(parts, " ")
}
